package battle

import (
	"errors"
	"fmt"
)

// ErrHalted reports cooperative early termination: Iterator.Return was
// called and every suspended parse branch is unwinding. It is not a
// protocol failure.
var ErrHalted = errors.New("battle: session halted")

// ErrContract reports a protocol contract violation: the event stream
// diverged from an assumption the parser treats as load-bearing
// (failed Verify, Consume without a peek, a candidate set emptied).
// Contract violations are fatal to the session and are never retried.
var ErrContract = errors.New("battle: protocol contract violation")

func contractf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrContract, fmt.Sprintf(format, args...))
}
