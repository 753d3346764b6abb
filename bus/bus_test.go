package bus

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/gentam/regflash/mpsse"
)

func TestNotConnected(t *testing.T) {
	b := New(DefaultSettings(), logr.Discard())
	if err := b.Write(0x50, []byte{1}, true); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Write() = %v", err)
	}
	if _, err := b.Read(0x50, 1, 0); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Read() = %v", err)
	}
	if _, err := b.WriteRead(0x50, []byte{1}, 1, 0); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("WriteRead() = %v", err)
	}
	if err := b.SPI([]byte{1}, nil); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("SPI() = %v", err)
	}
	if err := b.Disconnect(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Disconnect() = %v", err)
	}
}

func TestConnectOpenError(t *testing.T) {
	b := New(DefaultSettings(), logr.Discard())
	cause := errors.New("no device")
	b.open = func(Kind, int, logr.Logger) (backend, error) { return nil, cause }
	err := b.Connect()
	var oe *OpenError
	if !errors.As(err, &oe) || !errors.Is(err, cause) {
		t.Fatalf("Connect() = %v", err)
	}
	if b.Connected() {
		t.Fatal("connected after a failed open")
	}
}

func TestConnectInitError(t *testing.T) {
	f := &fakeBackend{initErr: errors.New("self test")}
	b := newTestBus(t, DefaultSettings(), f)
	if err := b.Connect(); err == nil {
		t.Fatal("expected error")
	}
	if !f.closed {
		t.Fatal("backend not closed after a failed init")
	}
	if b.Connected() {
		t.Fatal("connected after a failed init")
	}
}

func TestConnectSelectsKind(t *testing.T) {
	for _, k := range []Kind{BitBang, Native} {
		s := DefaultSettings()
		s.Kind = k
		s.Index = 2
		b := New(s, logr.Discard())
		var gotKind Kind
		var gotIndex int
		b.open = func(k Kind, i int, _ logr.Logger) (backend, error) {
			gotKind, gotIndex = k, i
			return &fakeBackend{}, nil
		}
		if err := b.Connect(); err != nil {
			t.Fatal(err)
		}
		if gotKind != k || gotIndex != 2 {
			t.Fatalf("opened %s(%d), want %s(2)", gotKind, gotIndex, k)
		}
	}
}

func TestWriteRead(t *testing.T) {
	f := &fakeBackend{reply: []byte{1, 2, 3, 4}}
	b := newTestBus(t, DefaultSettings(), f)
	if err := b.Connect(); err != nil {
		t.Fatal(err)
	}
	r, err := b.WriteRead(0x50, []byte{0xA1}, 4, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{1, 2, 3, 4}, r); diff != "" {
		t.Fatalf("read (-want +got):\n%s", diff)
	}
	want := []string{"i2cInit 400kHz", "writeRead 0x50 [161] 4"}
	if diff := cmp.Diff(want, f.calls); diff != "" {
		t.Fatalf("calls (-want +got):\n%s", diff)
	}
}

func TestLimits(t *testing.T) {
	s := DefaultSettings()
	s.MaxWrite = 8
	s.MaxRead = 4
	b := newTestBus(t, s, &fakeBackend{})
	if err := b.Connect(); err != nil {
		t.Fatal(err)
	}
	if err := b.Write(0x50, make([]byte, 9), true); !errors.Is(err, ErrLimit) {
		t.Fatalf("Write() = %v", err)
	}
	if _, err := b.Read(0x50, 5, 0); !errors.Is(err, ErrLimit) {
		t.Fatalf("Read() = %v", err)
	}
	if err := b.Write(0x50, make([]byte, 8), true); err != nil {
		t.Fatal(err)
	}
}

func TestReadRetriesNoData(t *testing.T) {
	f := &fakeBackend{reply: []byte{7}, noData: 2}
	b := newTestBus(t, DefaultSettings(), f)
	if err := b.Connect(); err != nil {
		t.Fatal(err)
	}
	r, err := b.Read(0x50, 1, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if r[0] != 7 {
		t.Fatalf("Read() = %v", r)
	}

	f.noData = 1
	if _, err := b.Read(0x50, 1, 0); !errors.Is(err, mpsse.ErrNoData) {
		t.Fatalf("Read() without timeout = %v", err)
	}
}

func TestRoleSwitch(t *testing.T) {
	s := DefaultSettings()
	s.SPIMode = spi.Mode3 | spi.LSBFirst
	f := &fakeBackend{reply: []byte{9, 8}}
	b := newTestBus(t, s, f)
	if err := b.Connect(); err != nil {
		t.Fatal(err)
	}
	r := make([]byte, 2)
	if err := b.SPI([]byte{1, 2}, r); err != nil {
		t.Fatal(err)
	}
	if err := b.SPI([]byte{3}, nil); err != nil {
		t.Fatal(err)
	}
	if err := b.Write(0x50, []byte{4}, true); err != nil {
		t.Fatal(err)
	}
	if err := b.SPI([]byte{1}, []byte{1, 2}); err == nil {
		t.Fatal("expected error for unequal lengths")
	}
	want := []string{
		"i2cInit 400kHz",
		fmt.Sprintf("spiInit 1MHz %s", spi.Mode3|spi.LSBFirst),
		"spiReadWrite [1 2]",
		"spiWrite [3]",
		"i2cInit 400kHz",
		"i2cWrite 0x50 [4] true",
	}
	if diff := cmp.Diff(want, f.calls); diff != "" {
		t.Fatalf("calls (-want +got):\n%s", diff)
	}
}

func TestI2CDev(t *testing.T) {
	f := &fakeBackend{reply: []byte{0xCA, 0xFE}}
	b := newTestBus(t, DefaultSettings(), f)
	if err := b.Connect(); err != nil {
		t.Fatal(err)
	}
	d := &i2c.Dev{Bus: b, Addr: 0x50}
	r := make([]byte, 2)
	if err := d.Tx([]byte{0x10}, r); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{0xCA, 0xFE}, r); diff != "" {
		t.Fatalf("read (-want +got):\n%s", diff)
	}
	if err := b.SetSpeed(100 * physic.KiloHertz); err != nil {
		t.Fatal(err)
	}
	if got := f.calls[len(f.calls)-1]; got != "i2cInit 100kHz" {
		t.Fatalf("last call %q", got)
	}
	if err := b.Disconnect(); err != nil {
		t.Fatal(err)
	}
	if !f.closed {
		t.Fatal("backend not closed")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{BitBang, Native} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Fatalf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("ch347"); err == nil {
		t.Fatal("expected error")
	}
}

//

func newTestBus(t *testing.T, s Settings, f *fakeBackend) *Bus {
	b := New(s, logr.Discard())
	b.open = func(Kind, int, logr.Logger) (backend, error) { return f, nil }
	t.Cleanup(func() {
		if b.Connected() {
			b.Disconnect()
		}
	})
	return b
}

type fakeBackend struct {
	calls   []string
	reply   []byte
	noData  int
	initErr error
	closed  bool
}

func (f *fakeBackend) log(format string, a ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, a...))
}

func (f *fakeBackend) String() string { return "fake" }

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

func (f *fakeBackend) i2cInit(speed physic.Frequency) (physic.Frequency, error) {
	f.log("i2cInit %s", speed)
	return speed, f.initErr
}

func (f *fakeBackend) spiInit(c physic.Frequency, mode spi.Mode) (physic.Frequency, error) {
	f.log("spiInit %s %s", c, mode)
	return c, nil
}

func (f *fakeBackend) I2CWrite(addr uint16, w []byte, stop bool) error {
	f.log("i2cWrite %#x %v %t", addr, w, stop)
	return nil
}

func (f *fakeBackend) I2CRead(addr uint16, n int) ([]byte, error) {
	if f.noData > 0 {
		f.noData--
		return nil, mpsse.ErrNoData
	}
	return f.reply[:n], nil
}

func (f *fakeBackend) writeRead(addr uint16, w []byte, n int) ([]byte, error) {
	f.log("writeRead %#x %v %d", addr, w, n)
	return f.reply[:n], nil
}

func (f *fakeBackend) SPIWrite(w []byte) error {
	f.log("spiWrite %v", w)
	return nil
}

func (f *fakeBackend) SPIRead(n int) ([]byte, error) {
	f.log("spiRead %d", n)
	return f.reply[:n], nil
}

func (f *fakeBackend) SPIReadWrite(w []byte) ([]byte, error) {
	f.log("spiReadWrite %v", w)
	return f.reply[:len(w)], nil
}
