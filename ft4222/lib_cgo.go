//go:build cgo && ft4222

package ft4222

/*
#cgo LDFLAGS: -lft4222 -lftd2xx
#include <stdlib.h>
#include "ftd2xx.h"
#include "libft4222.h"

// i2c_write_read writes w with START and no STOP, then reads r with a
// repeated START and STOP. It returns the number of bytes read.
static FT4222_STATUS i2c_write_read(FT_HANDLE h, uint16 addr, uint8 *w, uint16 wn, uint8 *r, uint16 rn, uint16 *got) {
	uint16 sent = 0;
	FT4222_STATUS s = FT4222_I2CMaster_WriteEx(h, addr, START, w, wn, &sent);
	if (s != FT4222_OK) {
		return s;
	}
	if (sent != wn) {
		return FT4222_OTHER_ERROR;
	}
	return FT4222_I2CMaster_ReadEx(h, addr, Repeated_START | STOP, r, rn, got);
}
*/
import "C"

import "unsafe"

type cgoLib struct{}

var defaultLib lib = cgoLib{}

func (cgoLib) devices() ([]DeviceInfo, Status) {
	var num C.DWORD
	if s := C.FT_CreateDeviceInfoList(&num); s != C.FT_OK {
		return nil, Status(s)
	}
	out := make([]DeviceInfo, 0, int(num))
	for i := 0; i < int(num); i++ {
		var flags, typ, id, loc C.DWORD
		var serial [16]C.char
		var desc [64]C.char
		var h C.FT_HANDLE
		s := C.FT_GetDeviceInfoDetail(C.DWORD(i), &flags, &typ, &id, &loc,
			unsafe.Pointer(&serial[0]), unsafe.Pointer(&desc[0]), &h)
		if s != C.FT_OK {
			return nil, Status(s)
		}
		out = append(out, DeviceInfo{
			Index:       i,
			Type:        uint32(typ),
			ID:          uint32(id),
			LocID:       uint32(loc),
			Serial:      C.GoString(&serial[0]),
			Description: C.GoString(&desc[0]),
		})
	}
	return out, StatusOK
}

func (cgoLib) open(index int) (handle, Status) {
	var h C.FT_HANDLE
	if s := C.FT_Open(C.int(index), &h); s != C.FT_OK {
		return nil, Status(s)
	}
	return cgoHandle{h}, StatusOK
}

type cgoHandle struct {
	h C.FT_HANDLE
}

func (c cgoHandle) close() Status {
	return Status(C.FT_Close(c.h))
}

func (c cgoHandle) unInitialize() Status {
	return Status(C.FT4222_UnInitialize(c.h))
}

func (c cgoHandle) setClock(sys sysClock) Status {
	return Status(C.FT4222_SetClock(c.h, C.FT4222_ClockRate(sys)))
}

func (c cgoHandle) i2cInit(kbps uint32) Status {
	return Status(C.FT4222_I2CMaster_Init(c.h, C.uint32(kbps)))
}

func (c cgoHandle) i2cWriteEx(addr uint16, flag byte, w []byte) (int, Status) {
	var n C.uint16
	s := C.FT4222_I2CMaster_WriteEx(c.h, C.uint16(addr), C.uint8(flag), ptr(w), C.uint16(len(w)), &n)
	return int(n), Status(s)
}

func (c cgoHandle) i2cReadEx(addr uint16, flag byte, r []byte) (int, Status) {
	var n C.uint16
	s := C.FT4222_I2CMaster_ReadEx(c.h, C.uint16(addr), C.uint8(flag), ptr(r), C.uint16(len(r)), &n)
	return int(n), Status(s)
}

func (c cgoHandle) i2cWriteRead(addr uint16, w, r []byte) (int, Status) {
	var n C.uint16
	s := C.i2c_write_read(c.h, C.uint16(addr), ptr(w), C.uint16(len(w)), ptr(r), C.uint16(len(r)), &n)
	return int(n), Status(s)
}

func (c cgoHandle) spiInit(ioLine int, div spiDivider, cpol, cpha int, ssoMap byte) Status {
	return Status(C.FT4222_SPIMaster_Init(c.h, C.FT4222_SPIMode(ioLine), C.FT4222_SPIClock(div),
		C.FT4222_SPICPOL(cpol), C.FT4222_SPICPHA(cpha), C.uint8(ssoMap)))
}

func (c cgoHandle) spiWrite(w []byte, end bool) (int, Status) {
	var n C.uint16
	s := C.FT4222_SPIMaster_SingleWrite(c.h, ptr(w), C.uint16(len(w)), &n, cBool(end))
	return int(n), Status(s)
}

func (c cgoHandle) spiRead(r []byte, end bool) (int, Status) {
	var n C.uint16
	s := C.FT4222_SPIMaster_SingleRead(c.h, ptr(r), C.uint16(len(r)), &n, cBool(end))
	return int(n), Status(s)
}

func (c cgoHandle) spiReadWrite(r, w []byte, end bool) (int, Status) {
	var n C.uint16
	s := C.FT4222_SPIMaster_SingleReadWrite(c.h, ptr(r), ptr(w), C.uint16(len(w)), &n, cBool(end))
	return int(n), Status(s)
}

func ptr(b []byte) *C.uint8 {
	if len(b) == 0 {
		return nil
	}
	return (*C.uint8)(unsafe.Pointer(&b[0]))
}

func cBool(b bool) C.BOOL {
	if b {
		return 1
	}
	return 0
}
