package regflash

import (
	"context"
	"time"

	"github.com/go-logr/logr"
)

// Phase names the step a Progress report belongs to.
type Phase string

const (
	PhaseErase   Phase = "erase"
	PhaseProgram Phase = "program"
	PhaseVerify  Phase = "verify"
	PhaseRead    Phase = "read"
)

// Progress is reported after every sector or page.
type Progress struct {
	Phase Phase
	Done  int
	Total int
}

// Sleeper waits for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// Option configures a Flash.
type Option func(*Flash)

// WithLogger sets the sink for progress and failure messages.
func WithLogger(log logr.Logger) Option {
	return func(f *Flash) { f.log = log }
}

// WithLayout selects the chip register map.
func WithLayout(l Layout) Option {
	return func(f *Flash) { f.l = l }
}

// WithSize overrides the flash size of the layout.
func WithSize(n int) Option {
	return func(f *Flash) { f.size = n }
}

// WithProgress sets a callback invoked after every sector or page.
func WithProgress(fn func(Progress)) Option {
	return func(f *Flash) { f.progress = fn }
}

// WithSleeper replaces the delay used between status polls.
func WithSleeper(s Sleeper) Option {
	return func(f *Flash) { f.sleep = s }
}

// WithClock replaces the time source used to name dump files.
func WithClock(now func() time.Time) Option {
	return func(f *Flash) { f.now = now }
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
