package mpsse

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"periph.io/x/d2xx"
)

// Port is the subset of a D2XX device handle used by the engine.
//
// It is satisfied by periph.io/x/d2xx.Handle.
type Port interface {
	Close() d2xx.Err
	ResetDevice() d2xx.Err
	SetUSBParameters(in, out int) d2xx.Err
	SetChars(eventChar byte, eventEn bool, errorChar byte, errorEn bool) d2xx.Err
	SetTimeouts(readMS, writeMS int) d2xx.Err
	SetLatencyTimer(delayMS uint8) d2xx.Err
	SetFlowControl() d2xx.Err
	SetBitMode(mask, mode byte) d2xx.Err
	GetQueueStatus() (uint32, d2xx.Err)
	Read(b []byte) (int, d2xx.Err)
	Write(b []byte) (int, d2xx.Err)
}

var (
	// ErrNoData is returned when the adapter did not produce the expected
	// reply within the polling budget.
	ErrNoData = errors.New("mpsse: no reply from adapter")

	// ErrNotConnected is returned by a closed or never opened driver.
	ErrNotConnected = errors.New("mpsse: not connected")
)

const (
	replyPoll    = time.Millisecond
	replyRetries = 500 // ~500ms

	gateWait = 200 * time.Millisecond
)

// Engine exchanges command queues with an MPSSE adapter.
//
// Only one round trip may be in flight at a time. The gate is a best-effort
// guard: when it cannot be acquired within 200ms the stall is logged and the
// round trip proceeds anyway.
type Engine struct {
	port  Port
	log   logr.Logger
	gate  chan struct{}
	sleep func(time.Duration)
}

func newEngine(p Port, log logr.Logger) *Engine {
	return &Engine{
		port:  p,
		log:   log,
		gate:  make(chan struct{}, 1),
		sleep: time.Sleep,
	}
}

// acquire takes the gate and returns the matching release function.
func (e *Engine) acquire() func() {
	t := time.NewTimer(gateWait)
	defer t.Stop()
	select {
	case e.gate <- struct{}{}:
		return func() { <-e.gate }
	case <-t.C:
		e.log.Info("command queue stalled, proceeding", "wait", gateWait)
		return func() {}
	}
}

// Flush writes the queue to the adapter. With immediate set, the send
// immediate opcode is appended first so the adapter returns its reply buffer
// right away.
func (e *Engine) Flush(q *Queue, immediate bool) error {
	if immediate {
		q.Byte(sendImmediate)
	}
	b := q.Raw()
	for len(b) > 0 {
		n, s := e.port.Write(b)
		if err := toErr("Write", s); err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("mpsse: short write, %d bytes left", len(b))
		}
		b = b[n:]
	}
	return nil
}

// ReadReply waits for n reply bytes and reads them.
//
// The inbound queue is polled every millisecond, at most 500 times. The read
// itself is only issued once n bytes are available.
func (e *Engine) ReadReply(n int) ([]byte, error) {
	for i := 0; i < replyRetries; i++ {
		avail, s := e.port.GetQueueStatus()
		if err := toErr("GetQueueStatus", s); err != nil {
			return nil, err
		}
		if int(avail) >= n {
			out := make([]byte, n)
			got, s := e.port.Read(out)
			if err := toErr("Read", s); err != nil {
				return nil, err
			}
			if got != n {
				return nil, fmt.Errorf("mpsse: short read, got %d of %d bytes", got, n)
			}
			return out, nil
		}
		e.sleep(replyPoll)
	}
	return nil, ErrNoData
}

// drain discards whatever is pending in the inbound queue, such as the reply
// of a round trip that timed out. Every transaction starts with it.
func (e *Engine) drain() error {
	p, s := e.port.GetQueueStatus()
	if p == 0 || s != 0 {
		return toErr("GetQueueStatus", s)
	}
	_, s = e.port.Read(make([]byte, p))
	if err := toErr("Read", s); err != nil {
		return err
	}
	e.log.V(1).Info("discarded stale reply", "bytes", p)
	return nil
}

// setup configures the USB link and enters MPSSE mode [FTDI-AN_135|4.2].
func (e *Engine) setup() error {
	steps := []struct {
		name string
		f    func() d2xx.Err
	}{
		{"ResetDevice", e.port.ResetDevice},
		{"SetUSBParameters", func() d2xx.Err { return e.port.SetUSBParameters(65536, 65536) }},
		{"SetChars", func() d2xx.Err { return e.port.SetChars(0, false, 0, false) }},
		{"SetTimeouts", func() d2xx.Err { return e.port.SetTimeouts(5000, 5000) }},
		{"SetLatencyTimer", func() d2xx.Err { return e.port.SetLatencyTimer(1) }},
		{"SetFlowControl", e.port.SetFlowControl},
		{"SetBitMode", func() d2xx.Err { return e.port.SetBitMode(0, bitModeReset) }},
		{"SetBitMode", func() d2xx.Err { return e.port.SetBitMode(0, bitModeMPSSE) }},
	}
	for _, st := range steps {
		if err := toErr(st.name, st.f()); err != nil {
			return err
		}
	}
	return e.drain()
}

// selfTest sends two undefined opcodes and expects each to be echoed behind
// the bad command marker. Anything else means the adapter is not in MPSSE
// mode.
func (e *Engine) selfTest() error {
	var q Queue
	for _, op := range []byte{0xAA, 0xAB} {
		q.Reset()
		q.Byte(op)
		if err := e.Flush(&q, false); err != nil {
			return fmt.Errorf("mpsse: self test: %w", err)
		}
		r, err := e.ReadReply(2)
		if err != nil {
			return fmt.Errorf("mpsse: self test for %#02x: %w", op, err)
		}
		if r[0] != badCommand || r[1] != op {
			return fmt.Errorf("mpsse: self test for %#02x: got %#x", op, r)
		}
	}
	return nil
}

func toErr(op string, s d2xx.Err) error {
	if s == 0 {
		return nil
	}
	return fmt.Errorf("d2xx: %s: %s", op, s)
}
