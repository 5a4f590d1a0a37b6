package hostapd

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotConfigured is returned by Start before SetConfiguration succeeded.
var ErrNotConfigured = errors.New("hostapd: no configuration applied")

// ProcessError describes a hostapd process that exited before or while
// serving the access point.
type ProcessError struct {
	// Binary is the hostapd executable that was run
	Binary string
	// ExitCode is the process exit code, -1 if it did not start
	ExitCode int
	// Stderr is the tail of the process error output
	Stderr string
	// Underlying error if any
	Err error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("hostapd %s exited (code %d)", e.Binary, e.ExitCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += "\nstderr: " + e.Stderr
	}
	return msg
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
