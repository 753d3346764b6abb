package bus

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Kind selects the adapter backend.
type Kind int

const (
	// BitBang is an FTDI MPSSE adapter (FT232H, FT2232H) driven through
	// D2XX.
	BitBang Kind = iota
	// Native is an FT4222H driven through LibFT4222.
	Native
)

func (k Kind) String() string {
	switch k {
	case BitBang:
		return "mpsse"
	case Native:
		return "ft4222"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the names returned by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "mpsse", "bitbang":
		return BitBang, nil
	case "ft4222", "native":
		return Native, nil
	}
	return 0, fmt.Errorf("bus: unknown adapter kind %q", s)
}

// Settings is the bus configuration. It is copied by New and cannot change
// for the life of the Bus, except for the I²C speed through SetSpeed.
type Settings struct {
	Kind  Kind
	Index int // adapter index among the devices of Kind

	I2CSpeed physic.Frequency
	SPIClock physic.Frequency
	SPIMode  spi.Mode // may include spi.LSBFirst

	Addr uint16 // 7-bit target address

	// Transfer limits in bytes. 0 disables the check.
	MaxWrite int
	MaxRead  int
}

// DefaultSettings returns a 400kHz I²C, 1MHz mode 0 SPI configuration on the
// first MPSSE adapter.
func DefaultSettings() Settings {
	return Settings{
		Kind:     BitBang,
		I2CSpeed: 400 * physic.KiloHertz,
		SPIClock: 1 * physic.MegaHertz,
		SPIMode:  spi.Mode0,
		Addr:     0x50,
		MaxWrite: 4096,
		MaxRead:  4096,
	}
}

func (s *Settings) validate() error {
	if s.I2CSpeed <= 0 {
		return fmt.Errorf("bus: invalid i2c speed %s", s.I2CSpeed)
	}
	if s.Addr > 0x7F {
		return fmt.Errorf("bus: invalid 7-bit address %#x", s.Addr)
	}
	if s.MaxWrite < 0 || s.MaxRead < 0 {
		return fmt.Errorf("bus: negative transfer limit")
	}
	return nil
}
