package bus

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/gentam/regflash/mpsse"
)

var (
	// ErrNotConnected is returned by every operation outside of a
	// Connect/Disconnect window.
	ErrNotConnected = errors.New("bus: not connected")

	// ErrLimit is returned when a transfer exceeds the configured byte
	// count limits.
	ErrLimit = errors.New("bus: transfer exceeds configured limit")

	errUnknownKind = errors.New("bus: unknown adapter kind")
)

// OpenError is returned by Connect when the adapter could not be opened or
// initialized.
type OpenError struct {
	Kind  Kind
	Index int
	Err   error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("bus: open %s(%d): %v", e.Kind, e.Index, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// role is the function the adapter pins are currently set up for.
type role int

const (
	roleNone role = iota
	roleI2C
	roleSPI
)

// Bus is an I²C/SPI master on one adapter.
//
// A Bus is not safe for concurrent use.
type Bus struct {
	s    Settings
	log  logr.Logger
	open opener

	b    backend
	role role
}

var _ i2c.Bus = (*Bus)(nil)

// New returns an unconnected bus.
func New(s Settings, log logr.Logger) *Bus {
	return &Bus{s: s, log: log, open: openBackend}
}

// Settings returns the bus configuration.
func (b *Bus) Settings() Settings {
	return b.s
}

func (b *Bus) String() string {
	if b.b == nil {
		return fmt.Sprintf("%s(%d)", b.s.Kind, b.s.Index)
	}
	return b.b.String()
}

// Connected reports whether Connect succeeded and Disconnect was not called
// since.
func (b *Bus) Connected() bool {
	return b.b != nil
}

// Connect opens the adapter selected by the settings and sets it up as an
// I²C master. Calling it on a connected bus is a no-op.
func (b *Bus) Connect() error {
	if b.b != nil {
		return nil
	}
	if err := b.s.validate(); err != nil {
		return err
	}
	be, err := b.open(b.s.Kind, b.s.Index, b.log)
	if err != nil {
		return &OpenError{Kind: b.s.Kind, Index: b.s.Index, Err: err}
	}
	b.b = be
	if err := b.use(roleI2C); err != nil {
		b.b = nil
		b.role = roleNone
		be.Close()
		return &OpenError{Kind: b.s.Kind, Index: b.s.Index, Err: err}
	}
	b.log.Info("adapter connected", "adapter", be.String())
	return nil
}

// Disconnect closes the adapter.
func (b *Bus) Disconnect() error {
	if b.b == nil {
		return ErrNotConnected
	}
	name := b.b.String()
	err := b.b.Close()
	b.b = nil
	b.role = roleNone
	b.log.Info("adapter disconnected", "adapter", name)
	return err
}

// use sets the adapter up for r when it is not already.
func (b *Bus) use(r role) error {
	if b.role == r {
		return nil
	}
	switch r {
	case roleI2C:
		f, err := b.b.i2cInit(b.s.I2CSpeed)
		if err != nil {
			return err
		}
		b.log.V(1).Info("i2c master ready", "requested", b.s.I2CSpeed, "actual", f)
	case roleSPI:
		if b.s.SPIClock <= 0 {
			return fmt.Errorf("bus: spi clock not configured")
		}
		f, err := b.b.spiInit(b.s.SPIClock, b.s.SPIMode)
		if err != nil {
			return err
		}
		b.log.V(1).Info("spi master ready", "requested", b.s.SPIClock, "actual", f, "mode", b.s.SPIMode)
	}
	b.role = r
	return nil
}

func (b *Bus) checkWrite(n int) error {
	if b.s.MaxWrite != 0 && n > b.s.MaxWrite {
		return fmt.Errorf("%w: write of %d bytes, max %d", ErrLimit, n, b.s.MaxWrite)
	}
	return nil
}

func (b *Bus) checkRead(n int) error {
	if n <= 0 {
		return fmt.Errorf("bus: invalid read length %d", n)
	}
	if b.s.MaxRead != 0 && n > b.s.MaxRead {
		return fmt.Errorf("%w: read of %d bytes, max %d", ErrLimit, n, b.s.MaxRead)
	}
	return nil
}

// Write writes w to addr. Without stop the bus is left claimed and the next
// transfer starts with a repeated START.
func (b *Bus) Write(addr uint16, w []byte, stop bool) error {
	if b.b == nil {
		return ErrNotConnected
	}
	if err := b.checkWrite(len(w)); err != nil {
		return err
	}
	if err := b.use(roleI2C); err != nil {
		return err
	}
	return b.b.I2CWrite(addr, w, stop)
}

// Read reads n bytes from addr.
//
// When the adapter produced no reply, the read is issued again until timeout
// has elapsed. A zero timeout means a single attempt.
func (b *Bus) Read(addr uint16, n int, timeout time.Duration) ([]byte, error) {
	if b.b == nil {
		return nil, ErrNotConnected
	}
	if err := b.checkRead(n); err != nil {
		return nil, err
	}
	if err := b.use(roleI2C); err != nil {
		return nil, err
	}
	return b.retry(timeout, func() ([]byte, error) { return b.b.I2CRead(addr, n) })
}

// WriteRead writes w to addr then reads n bytes back. The MPSSE backend
// issues a STOP terminated write followed by a read, the FT4222H backend
// one combined transfer with a repeated START.
func (b *Bus) WriteRead(addr uint16, w []byte, n int, timeout time.Duration) ([]byte, error) {
	if b.b == nil {
		return nil, ErrNotConnected
	}
	if err := b.checkWrite(len(w)); err != nil {
		return nil, err
	}
	if err := b.checkRead(n); err != nil {
		return nil, err
	}
	if err := b.use(roleI2C); err != nil {
		return nil, err
	}
	return b.retry(timeout, func() ([]byte, error) { return b.b.writeRead(addr, w, n) })
}

func (b *Bus) retry(timeout time.Duration, f func() ([]byte, error)) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for attempt := 1; ; attempt++ {
		r, err := f()
		if err == nil || !errors.Is(err, mpsse.ErrNoData) || !time.Now().Before(deadline) {
			return r, err
		}
		b.log.V(1).Info("no reply, retrying", "attempt", attempt)
	}
}

// SPI runs one chip-select framed transfer. An empty r is a write, an empty
// w a read, otherwise both must have the same length.
func (b *Bus) SPI(w, r []byte) error {
	if b.b == nil {
		return ErrNotConnected
	}
	if err := b.checkWrite(len(w)); err != nil {
		return err
	}
	if len(r) != 0 {
		if err := b.checkRead(len(r)); err != nil {
			return err
		}
	}
	if len(w) != 0 && len(r) != 0 && len(w) != len(r) {
		return fmt.Errorf("bus: spi full duplex needs equal lengths, got %d and %d", len(w), len(r))
	}
	if err := b.use(roleSPI); err != nil {
		return err
	}
	switch {
	case len(r) == 0:
		if len(w) == 0 {
			return nil
		}
		return b.b.SPIWrite(w)
	case len(w) == 0:
		got, err := b.b.SPIRead(len(r))
		if err != nil {
			return err
		}
		copy(r, got)
		return nil
	default:
		got, err := b.b.SPIReadWrite(w)
		if err != nil {
			return err
		}
		copy(r, got)
		return nil
	}
}

// Tx implements i2c.Bus.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	switch {
	case len(r) == 0:
		return b.Write(addr, w, true)
	case len(w) == 0:
		got, err := b.Read(addr, len(r), 0)
		if err != nil {
			return err
		}
		copy(r, got)
		return nil
	default:
		got, err := b.WriteRead(addr, w, len(r), 0)
		if err != nil {
			return err
		}
		copy(r, got)
		return nil
	}
}

// SetSpeed implements i2c.Bus.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	if f <= 0 {
		return fmt.Errorf("bus: invalid i2c speed %s", f)
	}
	b.s.I2CSpeed = f
	if b.b == nil || b.role != roleI2C {
		return nil
	}
	b.role = roleNone
	return b.use(roleI2C)
}
