package regflash

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Layout is the register map of one chip revision.
type Layout struct {
	Name string

	ID      uint32 // 20-bit chip ID
	IDReg   uint32 // ID in bits 31:12
	MCUCtrl uint32
	Halt    uint32 // MCUCtrl value that stops the MCU
	Reset   uint32 // MCUCtrl value that restarts it

	FlashCmd      uint32 // opcode<<24 | 24-bit flash address
	EraseStatus   uint32 // bit 0 busy
	ProgramStatus uint32 // bit 0 busy
	TxBuf         uint32 // one page of little-endian words
	MemBase       uint32 // flash read window

	Size int // flash size in bytes
}

// Flash controller opcodes, the NOR command set [W25Q128|8.1.2 Instruction
// Set Table 1].
const (
	flashCmdPageProgram = 0x02
	flashCmdErase64KB   = 0xD8
)

const (
	pageSize   = 256
	sectorSize = 64 << 10
	wordSize   = 4
)

// Status poll policy. The worst case is attempts × interval.
const (
	erasePoll       = 200 * time.Millisecond
	eraseAttempts   = 20
	programPoll     = time.Millisecond
	programAttempts = 2000
)

// Verify patterns.
var verifyPatterns = []byte{0xAA, 0x55}

var (
	layoutA0 = Layout{
		Name:          "a0",
		ID:            0x2C120,
		IDReg:         0x40000000,
		MCUCtrl:       0x40000010,
		Halt:          0x0000A5A5,
		Reset:         0x00005A5A,
		FlashCmd:      0x40010000,
		EraseStatus:   0x40010004,
		ProgramStatus: 0x40010008,
		TxBuf:         0x40011000,
		MemBase:       0x10000000,
		Size:          256 << 10,
	}
	layoutB0 = Layout{
		Name:          "b0",
		ID:            0x2C121,
		IDReg:         0x40000000,
		MCUCtrl:       0x40000010,
		Halt:          0x0000A5A5,
		Reset:         0x00005A5A,
		FlashCmd:      0x40010000,
		EraseStatus:   0x40010004,
		ProgramStatus: 0x40010008,
		TxBuf:         0x40011000,
		MemBase:       0x10000000,
		Size:          512 << 10,
	}
)

var knownLayouts = map[string]Layout{
	layoutA0.Name: layoutA0,
	layoutB0.Name: layoutB0,
}

// DefaultLayout is the layout used when none is selected.
var DefaultLayout = layoutA0

// LookupLayout returns the layout of the named chip revision.
func LookupLayout(name string) (Layout, error) {
	if l, ok := knownLayouts[strings.ToLower(name)]; ok {
		return l, nil
	}
	return Layout{}, fmt.Errorf("unknown chip %q, known: %s", name, strings.Join(LayoutNames(), ", "))
}

// LayoutNames lists the known chip revisions.
func LayoutNames() []string {
	var names []string
	for n := range knownLayouts {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
