// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package exchange

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/google/uuid"
)

// Status is the lifecycle state recorded in the store.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
)

const logSystemStopped = "System stopped."

// Snapshot is an immutable, point-in-time view of the store.
type Snapshot struct {
	Status   Status
	RunID    uuid.UUID
	PoolSize int
	Waiting  int
	Sold     int
	Capacity int
	Total    int
	// Halted names the invariant that stopped the run, empty otherwise.
	Halted string
	Log    []string
}

// Store owns the canonical exchange state.
//
// Every mutating method must be called while holding the Gate; the store does
// no locking of its own. Snapshot and Status are safe from any goroutine.
type Store struct {
	capacity int
	total    int
	nextID   Ticket
	pool     []Ticket
	backlog  []Ticket
	sold     int
	status   Status
	runID    uuid.UUID
	halted   string

	log      []string
	logStart int
	maxLog   int

	view atomic.Pointer[Snapshot]
}

// NewStore returns an idle store. maxLog caps the retained event log, oldest
// lines first; zero keeps every line.
func NewStore(maxLog int) *Store {
	s := &Store{status: StatusIdle, nextID: 1, maxLog: max(maxLog, 0)}
	s.publish()
	return s
}

// Initialize starts a fresh run: the pool is pre-filled with min(total, capacity)
// tickets and the rest wait in the backlog, all in id order.
func (s *Store) Initialize(runID uuid.UUID, total, capacity int) error {
	if s.status == StatusRunning {
		return ErrAlreadyRunning
	}
	if total <= 0 || capacity <= 0 {
		return fmt.Errorf("%w: total and capacity must be positive", ErrInvalidConfiguration)
	}

	s.capacity = capacity
	s.total = total
	s.nextID = 1
	s.sold = 0
	s.runID = runID
	s.halted = ""
	// Fresh slices: published views still reference the old backing arrays.
	s.log = nil
	s.logStart = 0

	k := min(total, capacity)
	s.pool = make([]Ticket, 0, capacity)
	for range k {
		s.pool = append(s.pool, s.mint())
	}
	s.backlog = make([]Ticket, 0, total-k)
	for range total - k {
		s.backlog = append(s.backlog, s.mint())
	}

	s.status = StatusRunning
	s.publish()
	return nil
}

func (s *Store) mint() Ticket {
	t := s.nextID
	s.nextID++
	return t
}

// AttemptProduce performs one vendor attempt. Backlog tickets are admitted
// before any new ticket is minted. A non-nil error is always an *InvariantError.
func (s *Store) AttemptProduce(actorID int) (Outcome, error) {
	o := Outcome{Role: RoleVendor, ActorID: actorID}
	switch {
	case s.sold == 0:
		o.Reason = ReasonNoSalesYet
	case len(s.pool) >= s.capacity:
		o.Reason = ReasonPoolFull
	case len(s.backlog) > 0:
		o.Ticket = s.backlog[0]
		s.backlog = s.backlog[1:]
		s.pool = append(s.pool, o.Ticket)
		o.Accepted = true
	case int(s.nextID) <= s.total:
		// Unreachable: Initialize mints all total tickets, so nextID is
		// total+1 for the whole run. Guards the bound if that ever changes.
		o.Ticket = s.mint()
		s.pool = append(s.pool, o.Ticket)
		o.Accepted = true
		o.Minted = true
	default:
		o.Reason = ReasonAllReleased
	}
	return s.finish(o)
}

// AttemptConsume performs one customer attempt against the head of the pool.
func (s *Store) AttemptConsume(actorID int) (Outcome, error) {
	o := Outcome{Role: RoleCustomer, ActorID: actorID}
	if len(s.pool) == 0 {
		o.Reason = ReasonPoolEmpty
		return s.finish(o)
	}
	o.Ticket = s.pool[0]
	s.pool = s.pool[1:]
	s.sold++
	o.Accepted = true
	return s.finish(o)
}

func (s *Store) finish(o Outcome) (Outcome, error) {
	o.PoolSize = len(s.pool)
	o.Waiting = len(s.backlog)
	o.Sold = s.sold
	s.appendLog(o.LogLine())
	s.publish()
	if err := s.checkInvariants(); err != nil {
		return o, err
	}
	return o, nil
}

func (s *Store) checkInvariants() error {
	if len(s.pool) > s.capacity {
		return &InvariantError{
			Invariant: InvariantCapacity,
			Detail:    fmt.Sprintf("pool=%d capacity=%d", len(s.pool), s.capacity),
		}
	}
	minted := int(s.nextID) - 1
	inCirculation := len(s.pool) + len(s.backlog) + s.sold
	if inCirculation != minted || minted > s.total {
		return &InvariantError{
			Invariant: InvariantConservation,
			Detail: fmt.Sprintf("pool=%d waiting=%d sold=%d minted=%d total=%d",
				len(s.pool), len(s.backlog), s.sold, minted, s.total),
		}
	}
	return nil
}

// Stop marks the run stopped and appends "System stopped.". Pool, backlog,
// counters and log are kept.
func (s *Store) Stop() error {
	if s.status != StatusRunning {
		return ErrAlreadyStopped
	}
	s.status = StatusStopped
	s.appendLog(logSystemStopped)
	s.publish()
	return nil
}

// Halt stops the run after an invariant violation and records which one.
func (s *Store) Halt(ierr *InvariantError) {
	s.status = StatusStopped
	s.halted = ierr.Invariant
	s.appendLog(fmt.Sprintf("System halted: %s.", ierr.Invariant))
	s.publish()
}

// Reset discards all run state. It is idempotent.
func (s *Store) Reset() {
	s.capacity = 0
	s.total = 0
	s.nextID = 1
	s.pool = nil
	s.backlog = nil
	s.sold = 0
	s.runID = uuid.Nil
	s.halted = ""
	s.log = nil
	s.logStart = 0
	s.status = StatusStopped
	s.publish()
}

// Pool returns a copy of the active pool in FIFO order. Gate required.
func (s *Store) Pool() []Ticket { return slices.Clone(s.pool) }

// Backlog returns a copy of the waiting backlog in FIFO order. Gate required.
func (s *Store) Backlog() []Ticket { return slices.Clone(s.backlog) }

// NextTicketID is the identity the next minted ticket would get. Gate required.
func (s *Store) NextTicketID() Ticket { return s.nextID }

func (s *Store) appendLog(line string) {
	s.log = append(s.log, line)
	if s.maxLog == 0 || len(s.log)-s.logStart <= s.maxLog {
		return
	}
	s.logStart = len(s.log) - s.maxLog
	if s.logStart >= s.maxLog {
		fresh := make([]string, s.maxLog, 2*s.maxLog)
		copy(fresh, s.log[s.logStart:])
		s.log = fresh
		s.logStart = 0
	}
}

// publish swaps in a new view. The log is shared with the view up to its
// current length; the store only ever appends past that point or replaces
// the backing array, so the shared prefix is never written again.
func (s *Store) publish() {
	n := len(s.log)
	s.view.Store(&Snapshot{
		Status:   s.status,
		RunID:    s.runID,
		PoolSize: len(s.pool),
		Waiting:  len(s.backlog),
		Sold:     s.sold,
		Capacity: s.capacity,
		Total:    s.total,
		Halted:   s.halted,
		Log:      s.log[s.logStart:n:n],
	})
}

// Status returns the current lifecycle state without blocking.
func (s *Store) Status() Status {
	return s.view.Load().Status
}

// Snapshot returns a copy of the latest published view. It never blocks.
func (s *Store) Snapshot() Snapshot {
	return s.SnapshotTail(-1)
}

// SnapshotTail is Snapshot limited to the last n log lines; n < 0 means all.
func (s *Store) SnapshotTail(n int) Snapshot {
	v := *s.view.Load()
	lines := v.Log
	if n >= 0 && n < len(lines) {
		lines = lines[len(lines)-n:]
	}
	v.Log = slices.Clone(lines)
	if v.Log == nil {
		v.Log = []string{}
	}
	return v
}
