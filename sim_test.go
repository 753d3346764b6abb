package regflash

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// simChip is a register port target with a NOR flash behind it. Program can
// only clear bits and erase sets a sector to 0xFF.
type simChip struct {
	l   Layout
	id  uint32
	mem []byte
	tx  [pageSize]byte

	regs     map[uint32]uint32
	sel      uint32
	selected bool

	eraseBusy   int  // busy polls after each erase command
	programBusy int  // busy polls after each program command
	stuckBusy   bool // erase status never clears
	busyLeft    int
	bad         map[int]byte // read back overrides

	writes      int      // bus write calls
	stores      []uint32 // register addresses stored to
	mcu         []uint32 // values stored to the MCU control register
	erases      []uint32
	programs    []uint32
	statusPolls int
	onStore     func(reg, v uint32)
	failStore   func(reg, v uint32) bool // value write is rejected when true
}

func newSimChip(l Layout, size int) *simChip {
	return &simChip{
		l:    l,
		id:   l.ID,
		mem:  bytes.Repeat([]byte{0xFF}, size),
		regs: map[uint32]uint32{},
		bad:  map[int]byte{},
	}
}

func (s *simChip) Write(addr uint16, w []byte, stop bool) error {
	s.writes++
	if len(w) == 8 && bytes.Equal(w[:4], regPreamble[:]) {
		s.sel = binary.BigEndian.Uint32(w[4:])
		s.selected = true
		return nil
	}
	if len(w) == 4 && s.selected {
		s.selected = false
		v := binary.LittleEndian.Uint32(w)
		if s.failStore != nil && s.failStore(s.sel, v) {
			return fmt.Errorf("sim: no ACK storing %#x to %#x", v, s.sel)
		}
		s.store(s.sel, v)
		return nil
	}
	return fmt.Errorf("sim: unexpected write % x", w)
}

func (s *simChip) Read(addr uint16, n int, timeout time.Duration) ([]byte, error) {
	if !s.selected || n != 4 {
		return nil, errors.New("sim: read without register command")
	}
	s.selected = false
	return binary.LittleEndian.AppendUint32(nil, s.load(s.sel)), nil
}

func (s *simChip) load(reg uint32) uint32 {
	switch {
	case reg == s.l.IDReg:
		return s.id<<12 | 0x001
	case reg == s.l.EraseStatus || reg == s.l.ProgramStatus:
		s.statusPolls++
		if s.stuckBusy && reg == s.l.EraseStatus {
			return 1
		}
		if s.busyLeft > 0 {
			s.busyLeft--
			return 1
		}
		return 0
	case reg >= s.l.MemBase && reg < s.l.MemBase+uint32(len(s.mem)):
		a := int(reg - s.l.MemBase)
		var w [4]byte
		copy(w[:], s.mem[a:])
		for i := range w {
			if b, ok := s.bad[a+i]; ok {
				w[i] = b
			}
		}
		return binary.LittleEndian.Uint32(w[:])
	}
	return s.regs[reg]
}

func (s *simChip) store(reg, v uint32) {
	s.stores = append(s.stores, reg)
	if s.onStore != nil {
		s.onStore(reg, v)
	}
	switch {
	case reg == s.l.MCUCtrl:
		s.mcu = append(s.mcu, v)
	case reg == s.l.FlashCmd:
		addr := int(v & 0xFFFFFF)
		switch byte(v >> 24) {
		case flashCmdErase64KB:
			s.erases = append(s.erases, uint32(addr))
			for i := addr; i < addr+sectorSize && i < len(s.mem); i++ {
				s.mem[i] = 0xFF
			}
			s.busyLeft = s.eraseBusy
		case flashCmdPageProgram:
			s.programs = append(s.programs, uint32(addr))
			for i := 0; i < pageSize && addr+i < len(s.mem); i++ {
				s.mem[addr+i] &= s.tx[i]
			}
			s.busyLeft = s.programBusy
		}
	case reg >= s.l.TxBuf && reg < s.l.TxBuf+pageSize:
		binary.LittleEndian.PutUint32(s.tx[reg-s.l.TxBuf:], v)
	default:
		s.regs[reg] = v
	}
}

// recordSink keeps level 0 messages as "INFO msg k=v" or "ERROR msg k=v"
// lines.
type recordSink struct {
	lines []string
}

func (r *recordSink) Init(logr.RuntimeInfo)  {}
func (r *recordSink) Enabled(level int) bool { return level == 0 }
func (r *recordSink) Info(level int, msg string, kv ...any) {
	r.lines = append(r.lines, format("INFO", msg, kv))
}
func (r *recordSink) Error(err error, msg string, kv ...any) {
	r.lines = append(r.lines, format("ERROR", msg, kv))
}
func (r *recordSink) WithValues(kv ...any) logr.LogSink { return r }
func (r *recordSink) WithName(name string) logr.LogSink  { return r }

func format(level, msg string, kv []any) string {
	var b strings.Builder
	b.WriteString(level + " " + msg)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}

// fakeSleep records the delays and honors cancellation.
type fakeSleep struct {
	delays []time.Duration
}

func (f *fakeSleep) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.delays = append(f.delays, d)
	return nil
}

func (f *fakeSleep) total() time.Duration {
	var t time.Duration
	for _, d := range f.delays {
		t += d
	}
	return t
}
