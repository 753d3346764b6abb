package regflash

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Conn is the I²C contract the register port needs. It is satisfied by
// *bus.Bus.
type Conn interface {
	Write(addr uint16, w []byte, stop bool) error
	Read(addr uint16, n int, timeout time.Duration) ([]byte, error)
}

// regPreamble opens every register command.
var regPreamble = [4]byte{0xA1, 0x2C, 0x12, 0x34}

// regReadTimeout bounds the reply wait of one register load.
const regReadTimeout = time.Second

// Chip is the register port of a target at one I²C address.
//
// Chip does not serialize accesses. SetBits and ClearBits are three separate
// bus operations and assume a single writer.
type Chip struct {
	c    Conn
	addr uint16
}

// NewChip returns the register port of the target at the 7-bit address addr.
func NewChip(c Conn, addr uint16) *Chip {
	return &Chip{c: c, addr: addr}
}

func command(reg uint32) []byte {
	b := make([]byte, 8)
	copy(b, regPreamble[:])
	binary.BigEndian.PutUint32(b[4:], reg)
	return b
}

// ReadRegister loads the 32-bit register at reg.
func (c *Chip) ReadRegister(reg uint32) (uint32, error) {
	if err := c.c.Write(c.addr, command(reg), true); err != nil {
		return 0, fmt.Errorf("read register %#08x: %w", reg, err)
	}
	b, err := c.c.Read(c.addr, 4, regReadTimeout)
	if err != nil {
		return 0, fmt.Errorf("read register %#08x: %w", reg, err)
	}
	if len(b) != 4 {
		return 0, fmt.Errorf("read register %#08x: got %d bytes", reg, len(b))
	}
	return binary.LittleEndian.Uint32(b), nil
}

// WriteRegister stores v in the 32-bit register at reg.
func (c *Chip) WriteRegister(reg, v uint32) error {
	if err := c.c.Write(c.addr, command(reg), true); err != nil {
		return fmt.Errorf("write register %#08x: %w", reg, err)
	}
	b := binary.LittleEndian.AppendUint32(nil, v)
	if err := c.c.Write(c.addr, b, true); err != nil {
		return fmt.Errorf("write register %#08x: %w", reg, err)
	}
	return nil
}

// SetBits sets the bits of mask in reg, keeping the others.
func (c *Chip) SetBits(reg, mask uint32) error {
	v, err := c.ReadRegister(reg)
	if err != nil {
		return err
	}
	return c.WriteRegister(reg, v|mask)
}

// ClearBits clears the bits of mask in reg, keeping the others.
func (c *Chip) ClearBits(reg, mask uint32) error {
	v, err := c.ReadRegister(reg)
	if err != nil {
		return err
	}
	return c.WriteRegister(reg, v&^mask)
}
