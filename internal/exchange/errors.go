package exchange

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned by Start while a run is active.
	ErrAlreadyRunning = errors.New("system is already running")
	// ErrAlreadyStopped is returned by Stop when no run is active.
	ErrAlreadyStopped = errors.New("system is already stopped")
	// ErrInvalidConfiguration wraps the validation failure of a RunConfig.
	ErrInvalidConfiguration = errors.New("invalid configuration values")
	// ErrGateTimeout is returned when the gate could not be acquired within its max wait.
	ErrGateTimeout = errors.New("gate acquisition timed out")
	// ErrInvariantViolation marks a breached store invariant. It is fatal to the run.
	ErrInvariantViolation = errors.New("store invariant violated")
)

// Invariant names reported by InvariantError.
const (
	InvariantCapacity     = "capacity"
	InvariantConservation = "conservation"
)

// InvariantError describes which invariant broke and the values observed.
type InvariantError struct {
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrInvariantViolation, e.Invariant, e.Detail)
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }

// IsUserError reports whether err is one of the rejections a caller can fix
// by changing its request.
func IsUserError(err error) bool {
	return errors.Is(err, ErrAlreadyRunning) ||
		errors.Is(err, ErrAlreadyStopped) ||
		errors.Is(err, ErrInvalidConfiguration)
}
