package mpsse

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// baseClock is the MPSSE master clock with the divide-by-5 prescaler
// disabled [FTDI-AN_135|3.2.1 Divisors].
const baseClock = 60 * physic.MegaHertz

const maxDivisor = 0xFFFF

// clockConfig is the divisor selected for a requested clock, computed once at
// init.
type clockConfig struct {
	base    physic.Frequency
	divisor uint16
}

// rate is the shift clock produced by c with 2-phase clocking.
func (c clockConfig) rate() physic.Frequency {
	return c.base / (2 * (physic.Frequency(c.divisor) + 1))
}

// rate3Phase is the SCL rate produced by c with 3-phase clocking, which
// stretches every bit by half a period.
func (c clockConfig) rate3Phase() physic.Frequency {
	return c.base / (3 * (physic.Frequency(c.divisor) + 1))
}

// divisorFor returns the smallest divisor d for which base/(2(d+1)) does not
// exceed target. The result is clamped to the 16-bit divisor register, in
// which case the actual clock is the slowest the adapter can do.
func divisorFor(base, target physic.Frequency) (clockConfig, error) {
	if target <= 0 {
		return clockConfig{}, fmt.Errorf("mpsse: invalid clock %s", target)
	}
	if target > base/2 {
		return clockConfig{}, fmt.Errorf("mpsse: clock %s above maximum %s", target, base/2)
	}
	d := (base+2*target-1)/(2*target) - 1
	if d > maxDivisor {
		d = maxDivisor
	}
	return clockConfig{base: base, divisor: uint16(d)}, nil
}

// queue appends the commands selecting c.
func (c clockConfig) queue(q *Queue) {
	q.Bytes(clockSetDivisor, byte(c.divisor), byte(c.divisor>>8))
}
