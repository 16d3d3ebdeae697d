package exchange

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/tixsim/internal/validate"
)

func validConfig() RunConfig {
	return RunConfig{
		Vendors:               2,
		Customers:             2,
		Total:                 10,
		Capacity:              3,
		TicketReleaseRate:     10,
		CustomerRetrievalRate: 10,
	}
}

func newTestController(opts ...Option) *Controller {
	return NewController(append([]Option{WithLogger(zerolog.Nop())}, opts...)...)
}

func TestController_StartRejectsWhileRunning(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()
	c := newTestController(WithClock(newFakeClock()))
	defer func() { _ = c.Shutdown(ctx) }()

	id, err := c.Start(ctx, validConfig())
	require.NoError(t, err)
	before := c.Store().Snapshot()

	_, err = c.Start(ctx, RunConfig{Vendors: 1, Customers: 1, Total: 1, Capacity: 1, TicketReleaseRate: 1, CustomerRetrievalRate: 1})
	require.ErrorIs(t, err, ErrAlreadyRunning)

	after := c.Store().Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, id, after.RunID)
}

func TestController_StartRejectsInvalidConfiguration(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	c := newTestController()

	_, err := c.Start(context.Background(), RunConfig{Vendors: 0, Customers: 1, Total: -1, Capacity: 1, TicketReleaseRate: 1})
	require.ErrorIs(t, err, ErrInvalidConfiguration)

	var verr validate.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"vendors", "total", "customerRetrievalRate"}, verr.Fields())
	assert.Equal(t, StatusIdle, c.Status())
}

func TestController_MaxActors(t *testing.T) {
	c := newTestController(WithMaxActors(4))
	cfg := validConfig()
	cfg.Vendors = 5

	_, err := c.Start(context.Background(), cfg)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestController_StopFromIdleIsAlreadyStopped(t *testing.T) {
	c := newTestController()
	require.ErrorIs(t, c.Stop(context.Background()), ErrAlreadyStopped)
}

func TestController_StopCancelsActorsAndKeepsState(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()
	clock := newFakeClock()
	obs := &recordingObserver{}
	c := newTestController(WithClock(clock), WithObserver(obs))

	_, err := c.Start(ctx, validConfig())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return clock.Active() == 4 }, time.Second, time.Millisecond)

	clock.Tick(10 * time.Millisecond)
	require.Eventually(t, func() bool { return obs.Outcomes() == 4 }, time.Second, time.Millisecond)

	require.NoError(t, c.Stop(ctx))
	assert.Zero(t, clock.Active())

	snap := c.Store().Snapshot()
	assert.Equal(t, StatusStopped, snap.Status)
	assert.Len(t, snap.Log, 5)
	assert.Equal(t, "System stopped.", snap.Log[4])
	assert.Equal(t, snap.Total, snap.PoolSize+snap.Waiting+snap.Sold)

	clock.Tick(10 * time.Millisecond)
	assert.Len(t, c.Store().Snapshot().Log, 5, "no attempts after stop")

	require.ErrorIs(t, c.Stop(ctx), ErrAlreadyStopped)
	assert.Equal(t, []StopReason{StopReasonStopped}, obs.Stopped())
}

func TestController_ResetThenStartBeginsFresh(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()
	clock := newFakeClock()
	c := newTestController(WithClock(clock))

	first, err := c.Start(ctx, validConfig())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return clock.Active() == 4 }, time.Second, time.Millisecond)

	require.NoError(t, c.Reset(ctx))
	require.NoError(t, c.Reset(ctx))
	assert.Zero(t, clock.Active())

	snap := c.Store().Snapshot()
	assert.Equal(t, StatusStopped, snap.Status)
	assert.Empty(t, snap.Log)
	assert.Zero(t, snap.PoolSize)

	second, err := c.Start(ctx, validConfig())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	err = c.gate.Do(ctx, func() error {
		assert.Equal(t, tickets(1, 2, 3), c.store.Pool())
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, c.Shutdown(ctx))
}

func TestController_ResetFromIdle(t *testing.T) {
	c := newTestController()
	require.NoError(t, c.Reset(context.Background()))
	assert.Equal(t, StatusStopped, c.Status())
}

func TestController_HaltsOnInvariantViolation(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()
	clock := newFakeClock()
	obs := &recordingObserver{}
	c := newTestController(WithClock(clock), WithObserver(obs))

	_, err := c.Start(ctx, RunConfig{Vendors: 1, Customers: 1, Total: 5, Capacity: 2, TicketReleaseRate: 5, CustomerRetrievalRate: 5})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return clock.Active() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, c.gate.Do(ctx, func() error {
		c.store.backlog = append(c.store.backlog, 77)
		return nil
	}))
	clock.Tick(5 * time.Millisecond)

	require.Eventually(t, func() bool { return c.Store().Snapshot().Halted != "" }, time.Second, time.Millisecond)
	require.NoError(t, c.Shutdown(ctx))

	snap := c.Store().Snapshot()
	assert.Equal(t, StatusStopped, snap.Status)
	assert.Equal(t, InvariantConservation, snap.Halted)
	assert.Equal(t, "System halted: conservation.", snap.Log[len(snap.Log)-1])
	assert.Contains(t, obs.Stopped(), StopReasonHalted)
	assert.GreaterOrEqual(t, obs.Violations(), 1)
	assert.Zero(t, clock.Active())
}

func TestController_ShutdownIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()
	c := newTestController(WithClock(newFakeClock()))

	_, err := c.Start(ctx, validConfig())
	require.NoError(t, err)
	require.NoError(t, c.Shutdown(ctx))
	require.NoError(t, c.Shutdown(ctx))
	assert.Equal(t, StatusStopped, c.Status())
}

var logLine = regexp.MustCompile(`^(Vendor|Customer) (\d+) `)

// TestController_ConcurrentLoadIsLinearizable runs real actors at 1ms and
// replays the resulting log on a fresh store: every line must be exactly what
// a sequential execution in log order would have produced.
func TestController_ConcurrentLoadIsLinearizable(t *testing.T) {
	if testing.Short() {
		t.Skip("load test")
	}
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()
	c := newTestController()

	cfg := RunConfig{Vendors: 10, Customers: 10, Total: 500, Capacity: 20, TicketReleaseRate: 1, CustomerRetrievalRate: 1}
	_, err := c.Start(ctx, cfg)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(c.Store().Snapshot().Log) >= 2000
	}, 10*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Stop(ctx))

	snap := c.Store().Snapshot()
	assert.Empty(t, snap.Halted)
	assert.Equal(t, cfg.Total, snap.PoolSize+snap.Waiting+snap.Sold)

	replay := NewStore(0)
	require.NoError(t, replay.Initialize(uuid.New(), cfg.Total, cfg.Capacity))
	for i, line := range snap.Log[:len(snap.Log)-1] {
		m := logLine.FindStringSubmatch(line)
		require.NotNil(t, m, "line %d: %q", i, line)
		id, _ := strconv.Atoi(m[2])

		var o Outcome
		if m[1] == "Vendor" {
			o, err = replay.AttemptProduce(id)
		} else {
			o, err = replay.AttemptConsume(id)
		}
		require.NoError(t, err)
		require.Equal(t, line, o.LogLine(), "line %d diverges from sequential replay", i)
	}
	assert.Equal(t, "System stopped.", snap.Log[len(snap.Log)-1])
	assert.Equal(t, snap.Sold, replay.Snapshot().Sold)
}

func TestIsUserError(t *testing.T) {
	assert.True(t, IsUserError(ErrAlreadyRunning))
	assert.True(t, IsUserError(errors.Join(errors.New("x"), ErrInvalidConfiguration)))
	assert.False(t, IsUserError(ErrGateTimeout))
	assert.False(t, IsUserError(&InvariantError{Invariant: InvariantCapacity}))
}
