package ft4222

// DeviceInfo describes one D2XX interface as enumerated by the driver.
type DeviceInfo struct {
	Index       int // D2XX device index
	Type        uint32
	ID          uint32 // VID<<16 | PID
	LocID       uint32
	Serial      string
	Description string
}

// FT4222H device types as reported by FT_GetDeviceInfoDetail.
const (
	devType4222H0  = 10
	devType4222H12 = 11
	devType4222H3  = 12
)

// master reports whether the interface is the SPI/I²C master interface of an
// FT4222H. In mode 0 the chip exposes "FT4222 A" (master) and "FT4222 B"
// (GPIO).
func (d *DeviceInfo) master() bool {
	switch d.Type {
	case devType4222H0, devType4222H12, devType4222H3:
	default:
		return false
	}
	n := len(d.Description)
	return n == 0 || d.Description[n-1] == 'A'
}

// I²C transaction flags [FTDI-AN_329|4.4.6 FT4222_I2CMaster_WriteEx].
const (
	i2cStart         byte = 0x02
	i2cRepeatedStart byte = 0x03
	i2cStop          byte = 0x04
)

// SPI IO line mode.
const spiIOSingle = 1

// lib is the vendor library entry point.
type lib interface {
	devices() ([]DeviceInfo, Status)
	open(index int) (handle, Status)
}

// handle is an open FT4222H interface. Transfer calls return the number of
// bytes actually transferred.
type handle interface {
	close() Status
	unInitialize() Status
	setClock(sys sysClock) Status
	i2cInit(kbps uint32) Status
	i2cWriteEx(addr uint16, flag byte, w []byte) (int, Status)
	i2cReadEx(addr uint16, flag byte, r []byte) (int, Status)
	i2cWriteRead(addr uint16, w, r []byte) (int, Status)
	spiInit(ioLine int, div spiDivider, cpol, cpha int, ssoMap byte) Status
	spiWrite(w []byte, end bool) (int, Status)
	spiRead(r []byte, end bool) (int, Status)
	spiReadWrite(r, w []byte, end bool) (int, Status)
}
