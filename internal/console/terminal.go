// Package console puts the controlling terminal into raw mode for single-key
// commands and polls it for keys with a bounded wait.
package console

import (
	"os"
	"time"

	"golang.org/x/term"
)

// Ctrl-C arrives as a byte in raw mode instead of raising SIGINT.
const KeyInterrupt byte = 0x03

// Terminal guards raw mode on one file descriptor.
type Terminal struct {
	fd          int
	interactive bool
	state       *term.State
}

// Open wraps f. When f is not a terminal, raw mode is never taken and
// PollKey only waits.
func Open(f *os.File) *Terminal {
	fd := int(f.Fd())
	return &Terminal{fd: fd, interactive: term.IsTerminal(fd)}
}

// EnterRaw switches the terminal to raw mode. Restore must be called on
// every exit path.
func (t *Terminal) EnterRaw() error {
	if !t.interactive || t.state != nil {
		return nil
	}
	state, err := term.MakeRaw(t.fd)
	if err != nil {
		return err
	}
	t.state = state
	return nil
}

// Restore returns the terminal to the mode it had before EnterRaw.
// Calling it more than once is safe.
func (t *Terminal) Restore() error {
	if t.state == nil {
		return nil
	}
	state := t.state
	t.state = nil
	return term.Restore(t.fd, state)
}

// Suspend runs fn with the terminal in its normal mode so that output and
// line prompts behave, then re-enters raw mode if it was active.
func (t *Terminal) Suspend(fn func()) error {
	if t.state == nil {
		fn()
		return nil
	}
	if err := t.Restore(); err != nil {
		return err
	}
	fn()
	return t.EnterRaw()
}

// PollKey waits up to timeout for one key. It returns false when no key
// arrived.
func (t *Terminal) PollKey(timeout time.Duration) (byte, bool, error) {
	if !t.interactive {
		time.Sleep(timeout)
		return 0, false, nil
	}
	return pollKey(t.fd, timeout)
}
