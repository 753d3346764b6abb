package regflash

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoImage is returned when no firmware path was given.
	ErrNoImage = errors.New("no firmware image")
	// ErrEmptyImage is returned for a zero-length firmware image.
	ErrEmptyImage = errors.New("empty firmware image")
	// ErrNoSize is returned when an operation needs the flash size and none
	// is configured.
	ErrNoSize = errors.New("flash size not set")
	// ErrImageTooLarge is returned when the image does not fit the flash.
	ErrImageTooLarge = errors.New("firmware image larger than flash")
)

// IDMismatchError is returned when the chip ID does not match the layout.
type IDMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *IDMismatchError) Error() string {
	return fmt.Sprintf("chip ID %#05x, want %#05x", e.Actual, e.Expected)
}

// TimeoutError is returned when a status busy bit did not clear within the
// poll budget.
type TimeoutError struct {
	Op       string
	Addr     uint32
	Attempts int
	Interval time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s at %#06x: still busy after %d polls every %s", e.Op, e.Addr, e.Attempts, e.Interval)
}

// MismatchError is returned by the first byte that reads back different from
// what was written.
type MismatchError struct {
	Addr     uint32
	Expected byte
	Actual   byte
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("mismatch at %#06x: expected %#02x, got %#02x", e.Addr, e.Expected, e.Actual)
}
