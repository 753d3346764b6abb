package regflash

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-logr/logr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/ftdi"

	"github.com/gentam/regflash/bus"
)

// Device is a connected bus with the register port and flash engine of the
// target on it.
type Device struct {
	Bus   *bus.Bus
	Chip  *Chip
	Flash *Flash
}

// Open connects the adapter described by s and binds the target at s.Addr.
func Open(s bus.Settings, log logr.Logger, opts ...Option) (*Device, error) {
	b := bus.New(s, log.WithName("bus"))
	if err := b.Connect(); err != nil {
		return nil, err
	}
	chip := NewChip(b, s.Addr)
	opts = append([]Option{WithLogger(log.WithName("flash"))}, opts...)
	return &Device{
		Bus:   b,
		Chip:  chip,
		Flash: NewFlash(chip, opts...),
	}, nil
}

// Close disconnects the adapter.
func (d *Device) Close() error {
	return d.Bus.Disconnect()
}

// Adapter describes one FTDI adapter as seen by the periph host drivers.
type Adapter struct {
	Info   ftdi.Info
	EEPROM *ftdi.EEPROM // nil when unreadable
	Pins   []gpio.PinIO
}

var hostInitialized atomic.Bool

// Adapters lists the FTDI adapters and their EEPROM content.
//
// The periph host drivers keep the devices open for the life of the process,
// so this must not be combined with Open in the same process.
func Adapters() ([]Adapter, error) {
	if hostInitialized.CompareAndSwap(false, true) {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("host initialization failed: %w", err)
		}
	}

	var out []Adapter
	for _, dev := range ftdi.All() {
		a := Adapter{Pins: dev.Header()}
		dev.Info(&a.Info)
		ee := ftdi.EEPROM{}
		if err := dev.EEPROM(&ee); err == nil {
			a.EEPROM = &ee
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil, errors.New("no FTDI adapter found")
	}
	return out, nil
}
