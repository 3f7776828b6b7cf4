// Package stabilizer waits for a file to stop changing before it is handled.
package stabilizer

import (
	"context"
	"errors"
	"os"
	"time"
)

// ErrStabilizationTimeout is returned when the file does not stabilize within the timeout.
var ErrStabilizationTimeout = errors.New("stabilization timeout: file did not stabilize in time")

// PollStabilizer waits for a file to finish writing by polling its size and
// modification time.
type PollStabilizer struct {
	// Interval is the duration between checks.
	Interval time.Duration

	// Checks is the number of consecutive unchanged checks required.
	Checks int

	// Timeout is the maximum duration to wait for stabilization.
	// If zero, no timeout is applied (relies on context).
	Timeout time.Duration
}

// NewPollStabilizer creates a new polling-based stabilizer.
func NewPollStabilizer(interval time.Duration, checks int) *PollStabilizer {
	return &PollStabilizer{
		Interval: interval,
		Checks:   checks,
	}
}

// WaitForStable waits until the file's size and modification time remain
// unchanged for the configured number of consecutive checks.
//
// If Timeout is set and the context has no deadline, a timeout context is
// created internally and ErrStabilizationTimeout is returned when it expires.
func (s *PollStabilizer) WaitForStable(ctx context.Context, path string) error {
	usingInternalTimeout := false
	if s.Timeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.Timeout)
			defer cancel()
			usingInternalTimeout = true
		}
	}

	var lastSize int64 = -1
	var lastMod time.Time
	stableCount := 0

	for stableCount < s.Checks {
		select {
		case <-ctx.Done():
			if usingInternalTimeout && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrStabilizationTimeout
			}
			return ctx.Err()
		case <-time.After(s.Interval):
		}

		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		if info.Size() == lastSize && info.ModTime().Equal(lastMod) {
			stableCount++
		} else {
			stableCount = 0
			lastSize = info.Size()
			lastMod = info.ModTime()
		}
	}

	return nil
}
