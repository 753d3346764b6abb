package bus

import (
	"github.com/go-logr/logr"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/gentam/regflash/ft4222"
	"github.com/gentam/regflash/mpsse"
)

// backend is the contract shared by both adapters.
type backend interface {
	String() string
	Close() error

	i2cInit(speed physic.Frequency) (physic.Frequency, error)
	spiInit(f physic.Frequency, mode spi.Mode) (physic.Frequency, error)

	I2CWrite(addr uint16, w []byte, stop bool) error
	I2CRead(addr uint16, n int) ([]byte, error)
	writeRead(addr uint16, w []byte, n int) ([]byte, error)

	SPIWrite(w []byte) error
	SPIRead(n int) ([]byte, error)
	SPIReadWrite(w []byte) ([]byte, error)
}

type opener func(k Kind, index int, log logr.Logger) (backend, error)

func openBackend(k Kind, index int, log logr.Logger) (backend, error) {
	switch k {
	case BitBang:
		d, err := mpsse.Open(index, log)
		if err != nil {
			return nil, err
		}
		return bitBang{d}, nil
	case Native:
		t, err := ft4222.Open(index)
		if err != nil {
			return nil, err
		}
		return native{t}, nil
	}
	return nil, errUnknownKind
}

type bitBang struct {
	*mpsse.Driver
}

func (b bitBang) i2cInit(speed physic.Frequency) (physic.Frequency, error) {
	return b.I2CInit(speed)
}

func (b bitBang) spiInit(f physic.Frequency, mode spi.Mode) (physic.Frequency, error) {
	return b.SPIInit(f, mode)
}

// writeRead is a STOP terminated write followed by a separate read.
func (b bitBang) writeRead(addr uint16, w []byte, n int) ([]byte, error) {
	if err := b.I2CWrite(addr, w, true); err != nil {
		return nil, err
	}
	return b.I2CRead(addr, n)
}

type native struct {
	*ft4222.Transport
}

func (t native) i2cInit(speed physic.Frequency) (physic.Frequency, error) {
	return t.I2CInit(speed)
}

func (t native) spiInit(f physic.Frequency, mode spi.Mode) (physic.Frequency, error) {
	return t.SPIInitMaster(f, mode)
}

func (t native) writeRead(addr uint16, w []byte, n int) ([]byte, error) {
	return t.I2CWriteRead(addr, w, n)
}
