package ft4222

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

func TestSearchClock(t *testing.T) {
	data := []struct {
		f    physic.Frequency
		want clockChoice
	}{
		{1 * physic.MegaHertz, clockChoice{sysClk80, 6}},
		{12 * physic.MegaHertz, clockChoice{sysClk24, 1}},
		{30 * physic.MegaHertz, clockChoice{sysClk60, 1}},
		{100 * physic.MegaHertz, clockChoice{sysClk80, 1}},
		{1 * physic.Hertz, clockChoice{sysClk24, 9}},
	}
	for _, line := range data {
		got := searchClock(line.f)
		if got != line.want {
			t.Errorf("searchClock(%s) = %+v (%s), want %+v (%s)", line.f, got, got.rate(), line.want, line.want.rate())
		}
	}
}

func TestClockCandidatesOrdered(t *testing.T) {
	c := clockCandidates()
	if len(c) != 4*9 {
		t.Fatalf("got %d candidates", len(c))
	}
	for i := 1; i < len(c); i++ {
		if c[i].rate() < c[i-1].rate() {
			t.Fatalf("candidate %d (%s) slower than %d (%s)", i, c[i].rate(), i-1, c[i-1].rate())
		}
	}
}

func TestOpenSelectsMaster(t *testing.T) {
	l := &fakeLib{devs: []DeviceInfo{
		{Index: 0, Type: 8, Description: "FT232H"},
		{Index: 1, Type: devType4222H0, Description: "FT4222 A"},
		{Index: 2, Type: devType4222H0, Description: "FT4222 B"},
		{Index: 3, Type: devType4222H3, Description: "FT4222 A"},
	}}
	tr, err := open(l, 1)
	if err != nil {
		t.Fatal(err)
	}
	if l.opened != 3 {
		t.Fatalf("opened D2XX index %d, want 3", l.opened)
	}
	if s := tr.String(); s != "ft4222(1)" {
		t.Fatalf("String() = %q", s)
	}
	if _, err := open(l, 2); err == nil {
		t.Fatal("expected error for a missing index")
	}
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	if !l.h.closed || !l.h.uninit {
		t.Fatal("handle not released")
	}
	if err := tr.I2CWrite(0x50, nil, true); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("I2CWrite() after Close = %v", err)
	}
}

func TestOpenNoDevices(t *testing.T) {
	_, err := open(&fakeLib{status: StatusNoCGO}, 0)
	var s *StatusError
	if !errors.As(err, &s) || s.Status != StatusNoCGO {
		t.Fatalf("open() = %v", err)
	}
}

func TestI2CFlags(t *testing.T) {
	tr, h := newTestTransport(t)
	if _, err := tr.I2CInit(400 * physic.KiloHertz); err != nil {
		t.Fatal(err)
	}
	if h.kbps != 400 {
		t.Fatalf("kbps = %d", h.kbps)
	}
	if err := tr.I2CWrite(0x50, []byte{1, 2}, false); err != nil {
		t.Fatal(err)
	}
	h.read = []byte{0xDE, 0xAD}
	r, err := tr.I2CRead(0x50, 2)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{0xDE, 0xAD}, r); diff != "" {
		t.Fatalf("read (-want +got):\n%s", diff)
	}
	if err := tr.I2CWrite(0x50, []byte{3}, true); err != nil {
		t.Fatal(err)
	}
	want := []byte{i2cStart, i2cRepeatedStart | i2cStop, i2cStart | i2cStop}
	if diff := cmp.Diff(want, h.flags); diff != "" {
		t.Fatalf("flags (-want +got):\n%s", diff)
	}
}

func TestI2CShortTransfer(t *testing.T) {
	tr, h := newTestTransport(t)
	h.short = true
	err := tr.I2CWrite(0x50, []byte{1, 2, 3}, true)
	var te *TransferError
	if !errors.As(err, &te) {
		t.Fatalf("I2CWrite() = %v", err)
	}
	if te.Status != StatusOK || te.Want != 3 || te.Got != 2 {
		t.Fatalf("got %+v", te)
	}

	h.short = false
	h.status = StatusWrongI2CAddr
	if _, err := tr.I2CWriteRead(0x50, []byte{1}, 4); !errors.As(err, &te) || te.Status != StatusWrongI2CAddr {
		t.Fatalf("I2CWriteRead() = %v", err)
	}
}

func TestSPIInitMaster(t *testing.T) {
	data := []struct {
		mode       spi.Mode
		cpol, cpha int
	}{
		{spi.Mode0, 0, 0},
		{spi.Mode1, 0, 1},
		{spi.Mode2, 1, 0},
		{spi.Mode3, 1, 1},
	}
	for _, line := range data {
		tr, h := newTestTransport(t)
		rate, err := tr.SPIInitMaster(1*physic.MegaHertz, line.mode)
		if err != nil {
			t.Fatal(err)
		}
		if rate != 1250*physic.KiloHertz {
			t.Errorf("mode %d: rate = %s", line.mode, rate)
		}
		if h.sys != sysClk80 || h.div != 6 {
			t.Errorf("mode %d: clock %d/%d", line.mode, h.sys, h.div)
		}
		if h.cpol != line.cpol || h.cpha != line.cpha {
			t.Errorf("mode %d: cpol/cpha = %d/%d", line.mode, h.cpol, h.cpha)
		}
	}
}

func TestSPILSBFirst(t *testing.T) {
	tr, h := newTestTransport(t)
	if _, err := tr.SPIInitMaster(1*physic.MegaHertz, spi.Mode0|spi.LSBFirst); err != nil {
		t.Fatal(err)
	}
	h.read = []byte{0x80, 0x01}
	r, err := tr.SPIReadWrite([]byte{0x01, 0x03})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{0x80, 0xC0}, h.written); diff != "" {
		t.Fatalf("wire (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]byte{0x01, 0x80}, r); diff != "" {
		t.Fatalf("read (-want +got):\n%s", diff)
	}
}

func TestSwitchMaster(t *testing.T) {
	tr, h := newTestTransport(t)
	if _, err := tr.I2CInit(100 * physic.KiloHertz); err != nil {
		t.Fatal(err)
	}
	if h.uninit {
		t.Fatal("first init released the interface")
	}
	if _, err := tr.SPIInitMaster(10*physic.MegaHertz, spi.Mode0); err != nil {
		t.Fatal(err)
	}
	if !h.uninit {
		t.Fatal("switching to SPI did not release the I2C master")
	}
}

func TestSPILimits(t *testing.T) {
	tr, _ := newTestTransport(t)
	if err := tr.SPIWrite(make([]byte, maxTransfer+1)); err == nil {
		t.Fatal("expected error above the transfer limit")
	}
	if _, err := tr.SPIRead(0); err == nil {
		t.Fatal("expected error for an empty read")
	}
}

//

func newTestTransport(t *testing.T) (*Transport, *fakeHandle) {
	l := &fakeLib{devs: []DeviceInfo{{Index: 0, Type: devType4222H0, Description: "FT4222 A"}}}
	tr, err := open(l, 0)
	if err != nil {
		t.Fatal(err)
	}
	return tr, l.h
}

type fakeLib struct {
	devs   []DeviceInfo
	status Status
	opened int
	h      *fakeHandle
}

func (f *fakeLib) devices() ([]DeviceInfo, Status) {
	return f.devs, f.status
}

func (f *fakeLib) open(index int) (handle, Status) {
	f.opened = index
	f.h = &fakeHandle{}
	return f.h, StatusOK
}

type fakeHandle struct {
	closed, uninit bool
	status         Status
	short          bool

	kbps       uint32
	sys        sysClock
	div        spiDivider
	cpol, cpha int

	flags   []byte
	read    []byte
	written []byte
}

func (f *fakeHandle) n(l int) int {
	if f.short {
		return l - 1
	}
	return l
}

func (f *fakeHandle) close() Status        { f.closed = true; return StatusOK }
func (f *fakeHandle) unInitialize() Status { f.uninit = true; return StatusOK }

func (f *fakeHandle) setClock(sys sysClock) Status {
	f.sys = sys
	return f.status
}

func (f *fakeHandle) i2cInit(kbps uint32) Status {
	f.kbps = kbps
	return f.status
}

func (f *fakeHandle) i2cWriteEx(addr uint16, flag byte, w []byte) (int, Status) {
	f.flags = append(f.flags, flag)
	f.written = append([]byte(nil), w...)
	return f.n(len(w)), f.status
}

func (f *fakeHandle) i2cReadEx(addr uint16, flag byte, r []byte) (int, Status) {
	f.flags = append(f.flags, flag)
	return f.n(copy(r, f.read)), f.status
}

func (f *fakeHandle) i2cWriteRead(addr uint16, w, r []byte) (int, Status) {
	f.written = append([]byte(nil), w...)
	return f.n(copy(r, f.read)), f.status
}

func (f *fakeHandle) spiInit(ioLine int, div spiDivider, cpol, cpha int, ssoMap byte) Status {
	f.div, f.cpol, f.cpha = div, cpol, cpha
	return f.status
}

func (f *fakeHandle) spiWrite(w []byte, end bool) (int, Status) {
	f.written = append([]byte(nil), w...)
	return f.n(len(w)), f.status
}

func (f *fakeHandle) spiRead(r []byte, end bool) (int, Status) {
	return f.n(copy(r, f.read)), f.status
}

func (f *fakeHandle) spiReadWrite(r, w []byte, end bool) (int, Status) {
	f.written = append([]byte(nil), w...)
	return f.n(copy(r, f.read)), f.status
}
