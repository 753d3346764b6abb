package mpsse

import (
	"fmt"
	"strconv"

	"github.com/go-logr/logr"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/d2xx"
)

// Driver is a bit-banged I²C/SPI master on an MPSSE adapter.
//
// A Driver is not safe for concurrent use. Callers must serialize
// transactions; the engine gate only keeps two round trips from
// interleaving raw bytes.
type Driver struct {
	e     *Engine
	index int
	q     Queue
	pins  pins

	i2cClock clockConfig
	spiClock clockConfig
	spiMode  spi.Mode
	ew, er   byte // SPI shift edge flags
}

// Open opens the FTDI device at index, enters MPSSE mode and runs the
// adapter self test.
func Open(index int, log logr.Logger) (*Driver, error) {
	h, s := d2xx.Open(index)
	if err := toErr("Open", s); err != nil {
		return nil, err
	}
	d, err := NewDriver(h, index, log)
	if err != nil {
		h.Close()
		return nil, err
	}
	return d, nil
}

// NewDriver initializes an already opened port.
func NewDriver(p Port, index int, log logr.Logger) (*Driver, error) {
	d := &Driver{e: newEngine(p, log), index: index}
	if err := d.e.setup(); err != nil {
		return nil, err
	}
	if err := d.e.selfTest(); err != nil {
		return nil, err
	}

	// The clock and the pin directions cannot be read back, so start from a
	// known state.
	d.q.Reset()
	d.q.Bytes(clockDiv5Off, clockNormal, clock2Phase, loopbackOff)
	d.pins.reset(&d.q)
	if err := d.e.Flush(&d.q, false); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Driver) String() string {
	return "mpsse(" + strconv.Itoa(d.index) + ")"
}

// Close returns every pin to input, leaves MPSSE mode and closes the port.
func (d *Driver) Close() error {
	if d.e == nil {
		return ErrNotConnected
	}
	release := d.e.acquire()
	d.q.Reset()
	d.pins.reset(&d.q)
	err := d.e.Flush(&d.q, false)
	if s := d.e.port.SetBitMode(0, bitModeReset); err == nil {
		err = toErr("SetBitMode", s)
	}
	if s := d.e.port.Close(); err == nil {
		err = toErr("Close", s)
	}
	release()
	d.e = nil
	return err
}

// I2CInit selects 3-phase clocking and the fastest SCL rate not above speed,
// then idles both lines high. It returns the actual SCL rate.
func (d *Driver) I2CInit(speed physic.Frequency) (physic.Frequency, error) {
	if d.e == nil {
		return 0, ErrNotConnected
	}
	// 3-phase clocking turns each bit into 3 half periods instead of 2.
	c, err := divisorFor(baseClock, speed*3/2)
	if err != nil {
		return 0, err
	}
	defer d.e.acquire()()
	d.i2cClock = c
	d.q.Reset()
	d.q.Bytes(clockDiv5Off, clockNormal, clock3Phase, loopbackOff)
	c.queue(&d.q)
	d.pins.low.out(pinSCL|pinSDA, true)
	d.pins.low.in(pinSDAIn)
	d.pins.setLow(&d.q)
	if err := d.e.Flush(&d.q, false); err != nil {
		return 0, err
	}
	return c.rate3Phase(), nil
}

// SPIInit selects the shift edges for mode, the fastest clock not above f and
// parks CS high. It returns the actual clock.
func (d *Driver) SPIInit(f physic.Frequency, mode spi.Mode) (physic.Frequency, error) {
	if d.e == nil {
		return 0, ErrNotConnected
	}
	c, err := divisorFor(baseClock, f)
	if err != nil {
		return 0, err
	}
	idle, ew, er, err := spiEdges(mode)
	if err != nil {
		return 0, err
	}
	defer d.e.acquire()()
	d.spiClock = c
	d.spiMode = mode
	d.ew, d.er = ew, er
	d.q.Reset()
	d.q.Bytes(clockDiv5Off, clockNormal, clock2Phase, loopbackOff)
	c.queue(&d.q)
	d.pins.low.out(pinClock, idle)
	d.pins.low.out(pinDO, false)
	d.pins.low.out(pinCS, true)
	d.pins.low.in(pinDI)
	d.pins.setLow(&d.q)
	if err := d.e.Flush(&d.q, false); err != nil {
		return 0, err
	}
	return c.rate(), nil
}

// NAKError is returned when the target did not acknowledge a byte.
type NAKError struct {
	Addr  uint16
	Index int // 0 is the address byte
}

func (e *NAKError) Error() string {
	if e.Index == 0 {
		return fmt.Sprintf("mpsse: i2c address %#02x not acknowledged", e.Addr)
	}
	return fmt.Sprintf("mpsse: i2c address %#02x: byte %d not acknowledged", e.Addr, e.Index-1)
}
