package exchange

import (
	"time"

	"github.com/google/uuid"
)

// StopReason says why a run ended.
type StopReason string

const (
	StopReasonStopped  StopReason = "stopped"
	StopReasonReset    StopReason = "reset"
	StopReasonHalted   StopReason = "halted"
	StopReasonShutdown StopReason = "shutdown"
)

// Observer receives exchange events. Implementations must be cheap and
// non-blocking: AttemptCompleted and GateWaited are called on actor goroutines,
// and RunStarted and RunStopped are called with the controller lock held.
type Observer interface {
	AttemptCompleted(o Outcome)
	GateWaited(role Role, wait time.Duration)
	GateTimedOut(role Role)
	RunStarted(runID uuid.UUID, cfg RunConfig)
	RunStopped(runID uuid.UUID, reason StopReason)
	InvariantViolated(runID uuid.UUID, err *InvariantError)
}

// NopObserver ignores every event. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) AttemptCompleted(Outcome)                     {}
func (NopObserver) GateWaited(Role, time.Duration)               {}
func (NopObserver) GateTimedOut(Role)                            {}
func (NopObserver) RunStarted(uuid.UUID, RunConfig)              {}
func (NopObserver) RunStopped(uuid.UUID, StopReason)             {}
func (NopObserver) InvariantViolated(uuid.UUID, *InvariantError) {}

// Observers fans every event out to each member in order.
type Observers []Observer

func (m Observers) AttemptCompleted(o Outcome) {
	for _, ob := range m {
		ob.AttemptCompleted(o)
	}
}

func (m Observers) GateWaited(role Role, wait time.Duration) {
	for _, ob := range m {
		ob.GateWaited(role, wait)
	}
}

func (m Observers) GateTimedOut(role Role) {
	for _, ob := range m {
		ob.GateTimedOut(role)
	}
}

func (m Observers) RunStarted(runID uuid.UUID, cfg RunConfig) {
	for _, ob := range m {
		ob.RunStarted(runID, cfg)
	}
}

func (m Observers) RunStopped(runID uuid.UUID, reason StopReason) {
	for _, ob := range m {
		ob.RunStopped(runID, reason)
	}
}

func (m Observers) InvariantViolated(runID uuid.UUID, err *InvariantError) {
	for _, ob := range m {
		ob.InvariantViolated(runID, err)
	}
}
