package ft4222

import (
	"fmt"
	"strconv"
)

// Status is a D2XX or LibFT4222 status code.
type Status int

// [FTDI-AN_329|4.1 FT4222_STATUS]
const (
	StatusOK                   Status = 0
	StatusInvalidHandle        Status = 1
	StatusDeviceNotFound       Status = 2
	StatusDeviceNotOpened      Status = 3
	StatusIOError              Status = 4
	StatusInsufficientRes      Status = 5
	StatusInvalidParameter     Status = 6
	StatusOtherError           Status = 18
	StatusDeviceNotSupported   Status = 1000
	StatusClockNotSupported    Status = 1001
	StatusVendorCmdUnsupported Status = 1002
	StatusNotSPIMode           Status = 1003
	StatusNotI2CMode           Status = 1004
	StatusNotSPISingleMode     Status = 1005
	StatusNotSPIMultiMode      Status = 1006
	StatusWrongI2CAddr         Status = 1007
	StatusInvalidFunction      Status = 1008
	StatusInvalidPointer       Status = 1009
	StatusExceededMaxTransfer  Status = 1010
	StatusFailedToReadDevice   Status = 1011
	StatusI2CNotSupported      Status = 1012

	// StatusNoCGO is returned when the vendor library is not linked in.
	StatusNoCGO Status = -2
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidHandle:
		return "invalid handle"
	case StatusDeviceNotFound:
		return "device not found"
	case StatusDeviceNotOpened:
		return "device busy"
	case StatusIOError:
		return "I/O error"
	case StatusInsufficientRes:
		return "insufficient resources"
	case StatusInvalidParameter:
		return "invalid parameter"
	case StatusOtherError:
		return "other error"
	case StatusDeviceNotSupported:
		return "device not supported"
	case StatusClockNotSupported:
		return "clock not supported"
	case StatusVendorCmdUnsupported:
		return "vendor command not supported"
	case StatusNotSPIMode:
		return "not in SPI mode"
	case StatusNotI2CMode:
		return "not in I2C mode"
	case StatusNotSPISingleMode:
		return "not in single SPI mode"
	case StatusNotSPIMultiMode:
		return "not in multi SPI mode"
	case StatusWrongI2CAddr:
		return "wrong I2C address"
	case StatusInvalidFunction:
		return "invalid function"
	case StatusInvalidPointer:
		return "invalid pointer"
	case StatusExceededMaxTransfer:
		return "exceeded max transfer size"
	case StatusFailedToReadDevice:
		return "failed to read device"
	case StatusI2CNotSupported:
		return "I2C not supported in this mode"
	case StatusNoCGO:
		return "built without the ft4222 tag"
	}
	return "unknown status " + strconv.Itoa(int(s))
}

// StatusError is a non-OK status returned by a vendor call.
type StatusError struct {
	Op     string
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ft4222: %s: %s (%d)", e.Op, e.Status, int(e.Status))
}

// TransferError is a failed or partial I²C/SPI transfer.
type TransferError struct {
	Op     string
	Status Status
	Want   int
	Got    int
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("ft4222: %s: %s (%d), transferred %d of %d bytes",
		e.Op, e.Status, int(e.Status), e.Got, e.Want)
}

func toErr(op string, s Status) error {
	if s == StatusOK {
		return nil
	}
	return &StatusError{Op: op, Status: s}
}

// checkTransfer turns a status and a byte count into an error. A partial
// transfer is an error even when the status is OK.
func checkTransfer(op string, s Status, want, got int) error {
	if s == StatusOK && want == got {
		return nil
	}
	return &TransferError{Op: op, Status: s, Want: want, Got: got}
}
