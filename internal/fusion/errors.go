package fusion

import (
	"errors"
	"fmt"
)

// ErrLockHeld reports that another run holds the process lock. The lock is
// reset as a side effect so a crashed prior run self-heals on retry.
var ErrLockHeld = errors.New("another fusion run is already in progress; lock reset for next attempt")

// ConfigError is a fatal configuration problem, detected at load time and
// never retried.
type ConfigError struct {
	Detail string
}

func (e *ConfigError) Error() string {
	return "invalid fusion configuration: " + e.Detail
}

// PreconditionError is a fatal assert-style failure of the current run
// (missing source, missing owner, missing schema).
type PreconditionError struct {
	Op     string
	Detail string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

// configErrorf builds a ConfigError.
func configErrorf(format string, args ...interface{}) error {
	return &ConfigError{Detail: fmt.Sprintf(format, args...)}
}

// preconditionf builds a PreconditionError.
func preconditionf(op, format string, args ...interface{}) error {
	return &PreconditionError{Op: op, Detail: fmt.Sprintf(format, args...)}
}
