package exchange

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// recordingObserver stores every event for assertions.
type recordingObserver struct {
	mu         sync.Mutex
	outcomes   []Outcome
	timeouts   int
	started    []uuid.UUID
	stopped    []StopReason
	violations []*InvariantError
}

func (r *recordingObserver) AttemptCompleted(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recordingObserver) GateWaited(Role, time.Duration) {}

func (r *recordingObserver) GateTimedOut(Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeouts++
}

func (r *recordingObserver) RunStarted(id uuid.UUID, _ RunConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, id)
}

func (r *recordingObserver) RunStopped(_ uuid.UUID, reason StopReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = append(r.stopped, reason)
}

func (r *recordingObserver) InvariantViolated(_ uuid.UUID, err *InvariantError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.violations = append(r.violations, err)
}

func (r *recordingObserver) Outcomes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes)
}

func (r *recordingObserver) Timeouts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timeouts
}

func (r *recordingObserver) Stopped() []StopReason {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StopReason(nil), r.stopped...)
}

func (r *recordingObserver) Violations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.violations)
}
