package mpsse

// pinGroup caches the direction and value of one GPIO group. The adapter
// cannot report the direction of its pins, so every write starts from the
// cache.
type pinGroup struct {
	direction byte // 1 means output
	value     byte
}

func (g *pinGroup) out(mask byte, high bool) {
	g.direction |= mask
	if high {
		g.value |= mask
	} else {
		g.value &^= mask
	}
}

func (g *pinGroup) in(mask byte) {
	g.direction &^= mask
}

// pins is the state of both GPIO groups for the life of an open session.
type pins struct {
	low  pinGroup // ADBUS
	high pinGroup // ACBUS
}

// setLow queues the current low group state.
func (p *pins) setLow(q *Queue) {
	q.gpio(gpioSetLow, p.low)
}

// reset returns every pin to input, the power-on state.
func (p *pins) reset(q *Queue) {
	p.low = pinGroup{}
	p.high = pinGroup{}
	q.gpio(gpioSetLow, p.low)
	q.gpio(gpioSetHigh, p.high)
}
