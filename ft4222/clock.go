package ft4222

import (
	"sort"

	"periph.io/x/conn/v3/physic"
)

// sysClock is the FT4222H system clock selector [FTDI-AN_329|4.2.3].
type sysClock int

const (
	sysClk60 sysClock = 0
	sysClk24 sysClock = 1
	sysClk48 sysClock = 2
	sysClk80 sysClock = 3
)

var sysClockRates = map[sysClock]physic.Frequency{
	sysClk60: 60 * physic.MegaHertz,
	sysClk24: 24 * physic.MegaHertz,
	sysClk48: 48 * physic.MegaHertz,
	sysClk80: 80 * physic.MegaHertz,
}

// spiDivider is the SPI master clock divider selector: 1 is /2, 9 is /512.
type spiDivider int

const (
	spiDivMin spiDivider = 1
	spiDivMax spiDivider = 9
)

func (d spiDivider) ratio() physic.Frequency {
	return physic.Frequency(1) << uint(d)
}

// clockChoice is one (system clock, divider) pair.
type clockChoice struct {
	sys sysClock
	div spiDivider
}

func (c clockChoice) rate() physic.Frequency {
	return sysClockRates[c.sys] / c.div.ratio()
}

// clockCandidates lists every pair ordered by resulting SCK, slowest first.
// Pairs with the same rate keep the system clock order 60, 24, 48, 80.
func clockCandidates() []clockChoice {
	var out []clockChoice
	for _, s := range []sysClock{sysClk60, sysClk24, sysClk48, sysClk80} {
		for d := spiDivMax; d >= spiDivMin; d-- {
			out = append(out, clockChoice{s, d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].rate() < out[j].rate() })
	return out
}

// searchClock returns the first candidate that meets or exceeds f. When f is
// above every candidate the fastest one is used.
func searchClock(f physic.Frequency) clockChoice {
	c := clockCandidates()
	for _, cand := range c {
		if cand.rate() >= f {
			return cand
		}
	}
	return c[len(c)-1]
}
