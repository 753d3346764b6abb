package ft4222

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// ErrNotConnected is returned by a closed transport.
var ErrNotConnected = errors.New("ft4222: not connected")

// maxTransfer is the largest transfer a single vendor call accepts.
const maxTransfer = 0xFFFF

// Devices lists the FT4222H master interfaces in enumeration order. The
// position in the list is the index accepted by Open.
func Devices() ([]DeviceInfo, error) {
	return devices(defaultLib)
}

func devices(l lib) ([]DeviceInfo, error) {
	all, s := l.devices()
	if err := toErr("CreateDeviceInfoList", s); err != nil {
		return nil, err
	}
	var out []DeviceInfo
	for _, d := range all {
		if d.master() {
			out = append(out, d)
		}
	}
	return out, nil
}

// Transport is an open FT4222H master interface.
//
// It is not safe for concurrent use.
type Transport struct {
	h     handle
	info  DeviceInfo
	index int

	master  master
	spiMode spi.Mode
	claimed bool // an I²C write ended without STOP
}

// master is the function the interface is initialized for.
type master int

const (
	noMaster master = iota
	i2cMaster
	spiMaster
)

// switchTo releases the current master function when m differs from it. The
// chip does not accept a new master init without it.
func (t *Transport) switchTo(m master) error {
	if t.master == noMaster || t.master == m {
		return nil
	}
	t.master = noMaster
	return toErr("UnInitialize", t.h.unInitialize())
}

// Open opens the index-th FT4222H master interface.
func Open(index int) (*Transport, error) {
	return open(defaultLib, index)
}

func open(l lib, index int) (*Transport, error) {
	devs, err := devices(l)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(devs) {
		return nil, fmt.Errorf("ft4222: device %d not found, %d available", index, len(devs))
	}
	h, s := l.open(devs[index].Index)
	if err := toErr("Open", s); err != nil {
		return nil, err
	}
	return &Transport{h: h, info: devs[index], index: index}, nil
}

func (t *Transport) String() string {
	return "ft4222(" + strconv.Itoa(t.index) + ")"
}

// Info returns the enumeration data of the opened interface.
func (t *Transport) Info() DeviceInfo {
	return t.info
}

// Close releases the master mode and the device.
func (t *Transport) Close() error {
	if t.h == nil {
		return ErrNotConnected
	}
	err := toErr("UnInitialize", t.h.unInitialize())
	if cerr := toErr("Close", t.h.close()); err == nil {
		err = cerr
	}
	t.h = nil
	return err
}

// I2CInit configures the I²C master at speed, rounded down to kbit/s.
func (t *Transport) I2CInit(speed physic.Frequency) (physic.Frequency, error) {
	if t.h == nil {
		return 0, ErrNotConnected
	}
	kbps := uint32(speed / physic.KiloHertz)
	if kbps == 0 {
		return 0, fmt.Errorf("ft4222: invalid i2c speed %s", speed)
	}
	if err := t.switchTo(i2cMaster); err != nil {
		return 0, err
	}
	if err := toErr("I2CMaster_Init", t.h.i2cInit(kbps)); err != nil {
		return 0, err
	}
	t.master = i2cMaster
	t.claimed = false
	return physic.Frequency(kbps) * physic.KiloHertz, nil
}

// I2CWrite writes w to addr. Without stop, the next transfer starts with a
// repeated START.
func (t *Transport) I2CWrite(addr uint16, w []byte, stop bool) error {
	if t.h == nil {
		return ErrNotConnected
	}
	if len(w) > maxTransfer {
		return fmt.Errorf("ft4222: i2c write of %d bytes; max %d", len(w), maxTransfer)
	}
	flag := i2cStart
	if t.claimed {
		flag = i2cRepeatedStart
	}
	if stop {
		flag |= i2cStop
	}
	n, s := t.h.i2cWriteEx(addr, flag, w)
	t.claimed = !stop && s == StatusOK
	return checkTransfer("I2CMaster_WriteEx", s, len(w), n)
}

// I2CRead reads n bytes from addr and ends with STOP.
func (t *Transport) I2CRead(addr uint16, n int) ([]byte, error) {
	if t.h == nil {
		return nil, ErrNotConnected
	}
	if n <= 0 || n > maxTransfer {
		return nil, fmt.Errorf("ft4222: invalid i2c read length %d", n)
	}
	flag := i2cStart | i2cStop
	if t.claimed {
		flag = i2cRepeatedStart | i2cStop
	}
	r := make([]byte, n)
	got, s := t.h.i2cReadEx(addr, flag, r)
	t.claimed = false
	if err := checkTransfer("I2CMaster_ReadEx", s, n, got); err != nil {
		return nil, err
	}
	return r, nil
}

// I2CWriteRead writes w then reads n bytes after a repeated START, in one
// vendor call.
func (t *Transport) I2CWriteRead(addr uint16, w []byte, n int) ([]byte, error) {
	if t.h == nil {
		return nil, ErrNotConnected
	}
	if len(w) > maxTransfer || n <= 0 || n > maxTransfer {
		return nil, fmt.Errorf("ft4222: invalid i2c write/read lengths %d/%d", len(w), n)
	}
	r := make([]byte, n)
	got, s := t.h.i2cWriteRead(addr, w, r)
	t.claimed = false
	if err := checkTransfer("I2CMaster_WriteRead", s, n, got); err != nil {
		return nil, err
	}
	return r, nil
}

// SPIInitMaster selects the system clock and divider closest to f from
// above and sets the clock polarity and phase of mode. It returns the
// actual SCK rate.
func (t *Transport) SPIInitMaster(f physic.Frequency, mode spi.Mode) (physic.Frequency, error) {
	if t.h == nil {
		return 0, ErrNotConnected
	}
	if f <= 0 {
		return 0, fmt.Errorf("ft4222: invalid spi clock %s", f)
	}
	if err := t.switchTo(spiMaster); err != nil {
		return 0, err
	}
	cpol, cpha := spiPolarity(mode)
	c := searchClock(f)
	if err := toErr("SetClock", t.h.setClock(c.sys)); err != nil {
		return 0, err
	}
	if err := toErr("SPIMaster_Init", t.h.spiInit(spiIOSingle, c.div, cpol, cpha, 0x01)); err != nil {
		return 0, err
	}
	t.master = spiMaster
	t.spiMode = mode
	return c.rate(), nil
}

// spiPolarity maps a SPI mode to the vendor CPOL (idle high) and CPHA
// (trailing edge) values.
func spiPolarity(m spi.Mode) (cpol, cpha int) {
	switch m & 3 {
	case spi.Mode1:
		return 0, 1
	case spi.Mode2:
		return 1, 0
	case spi.Mode3:
		return 1, 1
	}
	return 0, 0
}

// SPIWrite clocks w out in one chip-select frame.
func (t *Transport) SPIWrite(w []byte) error {
	if t.h == nil {
		return ErrNotConnected
	}
	if len(w) > maxTransfer {
		return fmt.Errorf("ft4222: spi write of %d bytes; max %d", len(w), maxTransfer)
	}
	n, s := t.h.spiWrite(t.order(w), true)
	return checkTransfer("SPIMaster_SingleWrite", s, len(w), n)
}

// SPIRead clocks n bytes in in one chip-select frame.
func (t *Transport) SPIRead(n int) ([]byte, error) {
	if t.h == nil {
		return nil, ErrNotConnected
	}
	if n <= 0 || n > maxTransfer {
		return nil, fmt.Errorf("ft4222: invalid spi read length %d", n)
	}
	r := make([]byte, n)
	got, s := t.h.spiRead(r, true)
	if err := checkTransfer("SPIMaster_SingleRead", s, n, got); err != nil {
		return nil, err
	}
	return t.order(r), nil
}

// SPIReadWrite clocks w out while reading len(w) bytes.
func (t *Transport) SPIReadWrite(w []byte) ([]byte, error) {
	if t.h == nil {
		return nil, ErrNotConnected
	}
	if len(w) == 0 || len(w) > maxTransfer {
		return nil, fmt.Errorf("ft4222: invalid spi transfer length %d", len(w))
	}
	r := make([]byte, len(w))
	got, s := t.h.spiReadWrite(r, t.order(w), true)
	if err := checkTransfer("SPIMaster_SingleReadWrite", s, len(w), got); err != nil {
		return nil, err
	}
	return t.order(r), nil
}

// order returns b as shifted on the wire. The FT4222H only shifts MSB first,
// so LSB first is done by mirroring every byte.
func (t *Transport) order(b []byte) []byte {
	if t.spiMode&spi.LSBFirst == 0 {
		return b
	}
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = bits.Reverse8(c)
	}
	return out
}
