package regflash

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// Flash erases, programs, verifies and dumps the embedded flash through the
// register port.
//
// Every public operation checks the chip ID first, halts the MCU and resets
// it on return, including on failure and cancellation.
type Flash struct {
	chip *Chip
	l    Layout
	size int

	log      logr.Logger
	progress func(Progress)
	sleep    Sleeper
	now      func() time.Time
}

// NewFlash returns the flash engine of chip. The layout defaults to
// DefaultLayout and the size to the layout size.
func NewFlash(chip *Chip, opts ...Option) *Flash {
	f := &Flash{
		chip:  chip,
		l:     DefaultLayout,
		size:  -1,
		log:   logr.Discard(),
		sleep: sleepContext,
		now:   time.Now,
	}
	for _, o := range opts {
		o(f)
	}
	if f.size < 0 {
		f.size = f.l.Size
	}
	return f
}

// Layout returns the register map in use.
func (f *Flash) Layout() Layout {
	return f.l
}

// Size returns the flash size in bytes, 0 when unset.
func (f *Flash) Size() int {
	return f.size
}

func (f *Flash) report(p Phase, done, total int) {
	if f.progress != nil {
		f.progress(Progress{Phase: p, Done: done, Total: total})
	}
}

// ReadID returns the 20-bit chip ID.
func (f *Flash) ReadID() (uint32, error) {
	v, err := f.chip.ReadRegister(f.l.IDReg)
	if err != nil {
		return 0, err
	}
	return v >> 12, nil
}

// CheckID compares the chip ID with the layout.
func (f *Flash) CheckID(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := f.ReadID()
	if err != nil {
		return err
	}
	if id != f.l.ID {
		err := &IDMismatchError{Expected: f.l.ID, Actual: id}
		f.log.Error(err, msgIDMismatch, "expected", hex(f.l.ID), "actual", hex(id))
		return err
	}
	f.log.Info(msgIDMatched, "chip", f.l.Name, "id", hex(id))
	return nil
}

// run checks the ID, halts the MCU, runs fn and resets the MCU.
func (f *Flash) run(ctx context.Context, op string, fn func() error) (err error) {
	if err := f.CheckID(ctx); err != nil {
		return err
	}
	// A failed HALT store may still have reached the chip.
	defer func() {
		if rerr := f.chip.WriteRegister(f.l.MCUCtrl, f.l.Reset); rerr != nil {
			f.log.Error(rerr, msgResetFailed)
			if err == nil {
				err = rerr
			}
			return
		}
		f.log.Info(msgReset)
	}()
	if err := f.chip.WriteRegister(f.l.MCUCtrl, f.l.Halt); err != nil {
		f.log.Error(err, msgFailed, "op", op)
		return err
	}
	f.log.Info(msgHalted)

	err = fn()
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		f.log.Info(msgCancelled, "op", op)
	default:
		f.log.Error(err, msgFailed, "op", op)
	}
	return err
}

func (f *Flash) needSize() error {
	if f.size <= 0 {
		return ErrNoSize
	}
	return nil
}

// Erase erases the whole flash one 64KiB sector at a time.
func (f *Flash) Erase(ctx context.Context) error {
	if err := f.needSize(); err != nil {
		return err
	}
	return f.run(ctx, "erase", func() error { return f.erase(ctx) })
}

// Program writes image from address 0, reading back every page. The flash
// must be erased.
func (f *Flash) Program(ctx context.Context, image []byte) error {
	if err := f.checkImage(image); err != nil {
		return err
	}
	return f.run(ctx, "program", func() error { return f.program(ctx, image, true) })
}

// EraseProgram erases the flash and programs image under a single halt.
func (f *Flash) EraseProgram(ctx context.Context, image []byte) error {
	if err := f.needSize(); err != nil {
		return err
	}
	if err := f.checkImage(image); err != nil {
		return err
	}
	return f.run(ctx, "program", func() error {
		if err := f.erase(ctx); err != nil {
			return err
		}
		return f.program(ctx, image, true)
	})
}

// Verify runs an erase, blank check, fill and compare cycle for each test
// pattern over the whole flash. The flash is left filled with the last
// pattern.
func (f *Flash) Verify(ctx context.Context) error {
	if err := f.needSize(); err != nil {
		return err
	}
	return f.run(ctx, "verify", func() error {
		for _, p := range verifyPatterns {
			if err := f.erase(ctx); err != nil {
				return err
			}
			if err := f.compare(ctx, 0, fill(f.size, 0xFF)); err != nil {
				return err
			}
			f.log.Info(msgBlankChecked)
			img := fill(f.size, p)
			if err := f.program(ctx, img, false); err != nil {
				return err
			}
			if err := f.compare(ctx, 0, img); err != nil {
				return err
			}
			f.log.Info(msgPatternPassed, "pattern", hex(uint32(p)))
		}
		f.log.Info(msgVerifyDone)
		return nil
	})
}

// Read returns n bytes of flash starting at addr.
func (f *Flash) Read(ctx context.Context, addr, n int) ([]byte, error) {
	if addr%wordSize != 0 {
		return nil, fmt.Errorf("read at %#x: address not word aligned", addr)
	}
	if addr < 0 || n <= 0 || (f.size > 0 && addr+n > f.size) {
		return nil, fmt.Errorf("read %d bytes at %#x: out of range", n, addr)
	}
	var out []byte
	err := f.run(ctx, "read", func() error {
		var err error
		out, err = f.read(ctx, addr, n)
		if err == nil {
			f.log.Info(msgReadDone, "addr", hex(uint32(addr)), "bytes", n)
		}
		return err
	})
	return out, err
}

// Dump reads n bytes from address 0 and writes them to
// <prefix>_<YYYYMMDD_HHMMSS>.bin. n <= 0 dumps the whole flash. It returns
// the file name.
func (f *Flash) Dump(ctx context.Context, prefix string, n int) (string, error) {
	if n <= 0 {
		if err := f.needSize(); err != nil {
			return "", err
		}
		n = f.size
	}
	b, err := f.Read(ctx, 0, n)
	if err != nil {
		return "", err
	}
	name := DumpName(prefix, f.now())
	if err := os.WriteFile(name, b, 0o644); err != nil {
		return "", err
	}
	f.log.Info(msgDumpWritten, "file", name, "bytes", len(b))
	return name, nil
}

// DumpName returns the dump file name for prefix at t.
func DumpName(prefix string, t time.Time) string {
	return prefix + "_" + t.Format("20060102_150405") + ".bin"
}

// LoadImage reads the firmware image at path.
func LoadImage(path string) ([]byte, error) {
	if path == "" {
		return nil, ErrNoImage
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyImage)
	}
	return b, nil
}

func (f *Flash) checkImage(image []byte) error {
	if image == nil {
		return ErrNoImage
	}
	if len(image) == 0 {
		return ErrEmptyImage
	}
	if f.size > 0 && len(image) > f.size {
		return fmt.Errorf("%w: %d bytes, flash is %d", ErrImageTooLarge, len(image), f.size)
	}
	return nil
}

func (f *Flash) erase(ctx context.Context) error {
	sectors := (f.size + sectorSize - 1) / sectorSize
	for i := 0; i < sectors; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		addr := uint32(i * sectorSize)
		if err := f.command(flashCmdErase64KB, addr); err != nil {
			return err
		}
		if err := f.waitReady(ctx, "erase", f.l.EraseStatus, addr, erasePoll, eraseAttempts); err != nil {
			return err
		}
		f.log.V(1).Info(msgSectorErased, "addr", hex(addr))
		f.report(PhaseErase, i+1, sectors)
	}
	f.log.Info(msgEraseDone, "sectors", sectors)
	return nil
}

// program writes image page by page. With check, each page is read back
// before the next one is written.
func (f *Flash) program(ctx context.Context, image []byte, check bool) error {
	pages := (len(image) + pageSize - 1) / pageSize
	phase := PhaseProgram
	if !check {
		phase = PhaseVerify
	}
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		off := i * pageSize
		page := image[off:min(off+pageSize, len(image))]
		if err := f.programPage(ctx, uint32(off), page); err != nil {
			return err
		}
		if check {
			if err := f.compare(ctx, off, page); err != nil {
				return err
			}
		}
		f.log.V(1).Info(msgPageWritten, "addr", hex(uint32(off)))
		f.report(phase, i+1, pages)
	}
	if check {
		f.log.Info(msgProgramDone, "bytes", len(image), "pages", pages)
	}
	return nil
}

// programPage loads one page into the transmit buffer and programs it. A
// short page is padded with 0xFF, which leaves the erased bytes untouched.
func (f *Flash) programPage(ctx context.Context, addr uint32, page []byte) error {
	var buf [pageSize]byte
	n := copy(buf[:], page)
	for i := n; i < pageSize; i++ {
		buf[i] = 0xFF
	}
	for i := 0; i < pageSize; i += wordSize {
		if err := f.chip.WriteRegister(f.l.TxBuf+uint32(i), binary.LittleEndian.Uint32(buf[i:])); err != nil {
			return err
		}
	}
	if err := f.command(flashCmdPageProgram, addr); err != nil {
		return err
	}
	return f.waitReady(ctx, "program", f.l.ProgramStatus, addr, programPoll, programAttempts)
}

func (f *Flash) command(op byte, addr uint32) error {
	return f.chip.WriteRegister(f.l.FlashCmd, uint32(op)<<24|addr&0xFFFFFF)
}

// waitReady polls the busy bit of reg every interval, at most attempts
// times.
func (f *Flash) waitReady(ctx context.Context, op string, reg, addr uint32, interval time.Duration, attempts int) error {
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f.sleep(ctx, interval); err != nil {
			return err
		}
		v, err := f.chip.ReadRegister(reg)
		if err != nil {
			return err
		}
		if !Status(v).Busy() {
			return nil
		}
	}
	err := &TimeoutError{Op: op, Addr: addr, Attempts: attempts, Interval: interval}
	f.log.Error(err, msgPollTimeout, "op", op, "addr", hex(addr), "attempts", attempts)
	return err
}

// read loads n bytes one register word at a time from the read window.
func (f *Flash) read(ctx context.Context, addr, n int) ([]byte, error) {
	out := make([]byte, 0, n+wordSize)
	for off := 0; off < n; off += wordSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := f.chip.ReadRegister(f.l.MemBase + uint32(addr+off))
		if err != nil {
			return nil, err
		}
		out = binary.LittleEndian.AppendUint32(out, v)
		if (off+wordSize)%pageSize == 0 {
			f.report(PhaseRead, off+wordSize, n)
		}
	}
	return out[:n], nil
}

// compare reads len(want) bytes at addr one page at a time and returns the
// first difference.
func (f *Flash) compare(ctx context.Context, addr int, want []byte) error {
	for off := 0; off < len(want); off += pageSize {
		chunk := want[off:min(off+pageSize, len(want))]
		got, err := f.read(ctx, addr+off, len(chunk))
		if err != nil {
			return err
		}
		for i := range chunk {
			if got[i] != chunk[i] {
				a := uint32(addr + off + i)
				err := &MismatchError{Addr: a, Expected: chunk[i], Actual: got[i]}
				f.log.Error(err, msgMismatch, "addr", hex(a), "expected", hex(uint32(chunk[i])), "actual", hex(uint32(got[i])))
				return err
			}
		}
	}
	return nil
}

func fill(n int, b byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func hex(v uint32) string {
	return fmt.Sprintf("%#x", v)
}

// Status is a flash controller status register.
//
//	Bits| Meaning
//	----+-----------------------------
//	0   | BUSY: erase/program in progress
type Status uint32

func (s Status) Busy() bool { return s&(1<<0) != 0 }

func (s Status) String() string {
	b := fmt.Sprintf("0x%06x", uint32(s))
	var flags []string
	if s.Busy() {
		flags = append(flags, "BUSY")
	}
	if len(flags) == 0 {
		return b
	}
	return b + " " + strings.Join(flags, ",")
}

// EraseStatus reads the erase status register.
func (f *Flash) EraseStatus() (Status, error) {
	v, err := f.chip.ReadRegister(f.l.EraseStatus)
	return Status(v), err
}

// ProgramStatus reads the program status register.
func (f *Flash) ProgramStatus() (Status, error) {
	v, err := f.chip.ReadRegister(f.l.ProgramStatus)
	return Status(v), err
}
