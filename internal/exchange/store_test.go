package exchange

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tickets(ids ...int) []Ticket {
	out := make([]Ticket, len(ids))
	for i, id := range ids {
		out[i] = Ticket(id)
	}
	return out
}

func ticketRange(from, to int) []Ticket {
	var out []Ticket
	for i := from; i <= to; i++ {
		out = append(out, Ticket(i))
	}
	return out
}

func newRunningStore(t *testing.T, total, capacity int) *Store {
	t.Helper()
	s := NewStore(0)
	require.NoError(t, s.Initialize(uuid.New(), total, capacity))
	return s
}

func lastLine(s *Store) string {
	log := s.Snapshot().Log
	if len(log) == 0 {
		return ""
	}
	return log[len(log)-1]
}

func TestStore_InitializePrefillsPoolAndBacklog(t *testing.T) {
	s := newRunningStore(t, 10, 3)

	assert.Equal(t, tickets(1, 2, 3), s.Pool())
	assert.Equal(t, ticketRange(4, 10), s.Backlog())
	assert.Equal(t, Ticket(11), s.NextTicketID())

	snap := s.Snapshot()
	assert.Equal(t, StatusRunning, snap.Status)
	assert.Equal(t, 3, snap.PoolSize)
	assert.Equal(t, 7, snap.Waiting)
	assert.Equal(t, 0, snap.Sold)
	assert.Empty(t, snap.Log)
}

func TestStore_InitializeSmallerThanCapacity(t *testing.T) {
	s := newRunningStore(t, 2, 5)
	assert.Equal(t, tickets(1, 2), s.Pool())
	assert.Empty(t, s.Backlog())
}

func TestStore_NoSalesYetRejectsWithoutMutation(t *testing.T) {
	s := newRunningStore(t, 10, 3)

	o, err := s.AttemptProduce(1)
	require.NoError(t, err)
	assert.False(t, o.Accepted)
	assert.Equal(t, ReasonNoSalesYet, o.Reason)
	assert.Equal(t, tickets(1, 2, 3), s.Pool())
	assert.Equal(t, "Vendor 1 could not add a ticket: No tickets have been bought yet.", lastLine(s))
}

func TestStore_BacklogDrainsBeforeMinting(t *testing.T) {
	s := newRunningStore(t, 10, 3)

	o, err := s.AttemptConsume(2)
	require.NoError(t, err)
	assert.True(t, o.Accepted)
	assert.Equal(t, Ticket(1), o.Ticket)
	assert.Equal(t, "Customer 2 removed Ticket 1 from the pool.", lastLine(s))

	o, err = s.AttemptProduce(1)
	require.NoError(t, err)
	assert.True(t, o.Accepted)
	assert.False(t, o.Minted)
	assert.Equal(t, Ticket(4), o.Ticket)
	assert.Equal(t, "Vendor 1 added Ticket 4 to the pool.", lastLine(s))

	assert.Equal(t, tickets(2, 3, 4), s.Pool())
	assert.Equal(t, ticketRange(5, 10), s.Backlog())
	assert.Equal(t, Ticket(11), s.NextTicketID(), "no ticket minted while backlog is non-empty")
}

func TestStore_PoolFull(t *testing.T) {
	s := newRunningStore(t, 5, 2)

	_, err := s.AttemptConsume(1)
	require.NoError(t, err)
	_, err = s.AttemptProduce(1)
	require.NoError(t, err)

	o, err := s.AttemptProduce(2)
	require.NoError(t, err)
	assert.Equal(t, ReasonPoolFull, o.Reason)
	assert.Equal(t, "Vendor 2 could not add a ticket: Pool is full.", lastLine(s))
	assert.Len(t, s.Pool(), 2)
}

func TestStore_PoolEmpty(t *testing.T) {
	s := newRunningStore(t, 1, 1)

	_, err := s.AttemptConsume(1)
	require.NoError(t, err)

	o, err := s.AttemptConsume(3)
	require.NoError(t, err)
	assert.False(t, o.Accepted)
	assert.Equal(t, ReasonPoolEmpty, o.Reason)
	assert.Equal(t, "Customer 3 could not remove a ticket: Pool is empty.", lastLine(s))
	assert.Equal(t, 1, s.Snapshot().Sold)
}

func TestStore_AllReleased(t *testing.T) {
	s := newRunningStore(t, 2, 2)

	_, err := s.AttemptConsume(1)
	require.NoError(t, err)

	o, err := s.AttemptProduce(1)
	require.NoError(t, err)
	assert.Equal(t, ReasonAllReleased, o.Reason)
	assert.Equal(t, "Vendor 1 could not add a ticket: All tickets have been released.", lastLine(s))
	assert.Equal(t, Ticket(3), s.NextTicketID())
}

func TestStore_InitializeWhileRunningLeavesStateUnchanged(t *testing.T) {
	s := newRunningStore(t, 10, 3)
	_, err := s.AttemptConsume(1)
	require.NoError(t, err)
	before := s.Snapshot()

	err = s.Initialize(uuid.New(), 4, 4)
	require.ErrorIs(t, err, ErrAlreadyRunning)

	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Fatalf("state changed (-before +after):\n%s", diff)
	}
}

func TestStore_InitializeRejectsNonPositive(t *testing.T) {
	s := NewStore(0)
	require.ErrorIs(t, s.Initialize(uuid.New(), 0, 3), ErrInvalidConfiguration)
	assert.Equal(t, StatusIdle, s.Status())
}

func TestStore_StopKeepsStateAndAppendsLine(t *testing.T) {
	s := newRunningStore(t, 10, 3)
	_, err := s.AttemptConsume(1)
	require.NoError(t, err)

	require.NoError(t, s.Stop())
	snap := s.Snapshot()
	assert.Equal(t, StatusStopped, snap.Status)
	assert.Equal(t, 2, snap.PoolSize)
	assert.Equal(t, 1, snap.Sold)
	assert.Equal(t, "System stopped.", lastLine(s))

	require.ErrorIs(t, s.Stop(), ErrAlreadyStopped)
}

func TestStore_ResetIsIdempotent(t *testing.T) {
	s := newRunningStore(t, 10, 3)
	_, err := s.AttemptConsume(1)
	require.NoError(t, err)

	s.Reset()
	once := s.Snapshot()
	s.Reset()
	twice := s.Snapshot()

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("second reset changed state (-once +twice):\n%s", diff)
	}
	assert.Equal(t, StatusStopped, once.Status)
	assert.Equal(t, uuid.Nil, once.RunID)
	assert.Zero(t, once.PoolSize)
	assert.Empty(t, once.Log)

	require.NoError(t, s.Initialize(uuid.New(), 3, 2))
	assert.Equal(t, tickets(1, 2), s.Pool(), "counter restarts at 1 after reset")
}

func TestStore_SnapshotIsIsolated(t *testing.T) {
	s := newRunningStore(t, 10, 3)
	_, err := s.AttemptConsume(1)
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.Log[0] = "tampered"

	_, err = s.AttemptConsume(2)
	require.NoError(t, err)

	assert.Len(t, snap.Log, 1, "older snapshot does not grow")
	assert.Equal(t, "Customer 1 removed Ticket 1 from the pool.", s.Snapshot().Log[0])
}

func TestStore_SnapshotTail(t *testing.T) {
	s := newRunningStore(t, 10, 3)
	for i := 1; i <= 3; i++ {
		_, err := s.AttemptConsume(i)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"Customer 3 removed Ticket 3 from the pool."}, s.SnapshotTail(1).Log)
	assert.Len(t, s.SnapshotTail(10).Log, 3)
	assert.Empty(t, s.SnapshotTail(0).Log)
}

func TestStore_LogCapKeepsNewestLines(t *testing.T) {
	s := NewStore(3)
	require.NoError(t, s.Initialize(uuid.New(), 100, 1))

	for i := 1; i <= 10; i++ {
		_, err := s.AttemptProduce(i)
		require.NoError(t, err)
	}

	log := s.Snapshot().Log
	require.Len(t, log, 3)
	for i, line := range log {
		assert.Equal(t, fmt.Sprintf("Vendor %d could not add a ticket: No tickets have been bought yet.", 8+i), line)
	}
}

func TestStore_DetectsBrokenInvariant(t *testing.T) {
	s := newRunningStore(t, 10, 3)
	s.pool = append(s.pool, 99)

	_, err := s.AttemptProduce(1)
	var ierr *InvariantError
	require.ErrorAs(t, err, &ierr)
	require.ErrorIs(t, err, ErrInvariantViolation)
	assert.Equal(t, InvariantCapacity, ierr.Invariant)

	s.Halt(ierr)
	snap := s.Snapshot()
	assert.Equal(t, StatusStopped, snap.Status)
	assert.Equal(t, InvariantCapacity, snap.Halted)
	assert.Equal(t, "System halted: capacity.", lastLine(s))
}
