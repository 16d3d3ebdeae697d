package exchange

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/tixsim/internal/log"
)

// Actor is one vendor or customer. It makes exactly one attempt per tick of
// its own ticker and never retries within a tick.
type Actor struct {
	Role     Role
	ID       int
	Interval time.Duration

	runID   uuid.UUID
	store   *Store
	gate    *Gate
	clock   Clock
	obs     Observer
	logger  zerolog.Logger
	onFatal func(*InvariantError)
}

// Run ticks until ctx is cancelled or the store reports an invariant violation.
// An attempt already holding the gate always completes.
func (a *Actor) Run(ctx context.Context) {
	t := a.clock.NewTicker(a.Interval)
	defer t.Stop()

	a.logger.Debug().Str(xglog.FieldEvent, "actor.started").Dur("interval", a.Interval).Msg("actor started")
	defer a.logger.Debug().Str(xglog.FieldEvent, "actor.stopped").Msg("actor stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			if ctx.Err() != nil {
				return
			}
			if !a.tick(ctx) {
				return
			}
		}
	}
}

// tick reports whether the actor should keep running.
func (a *Actor) tick(ctx context.Context) bool {
	requested := a.clock.Now()
	var waited time.Duration

	o, err := WithExclusiveAccess(ctx, a.gate, func() (Outcome, error) {
		waited = a.clock.Now().Sub(requested)
		return a.attempt()
	})

	var ierr *InvariantError
	switch {
	case err == nil:
		a.obs.GateWaited(a.Role, waited)
		a.obs.AttemptCompleted(o)
		a.logger.Debug().
			Str(xglog.FieldEvent, "actor.attempt").
			Bool("accepted", o.Accepted).
			Str(xglog.FieldReason, string(o.Reason)).
			Uint64(xglog.FieldTicket, uint64(o.Ticket)).
			Int(xglog.FieldPoolSize, o.PoolSize).
			Msg(o.LogLine())
		return true
	case errors.As(err, &ierr):
		a.obs.GateWaited(a.Role, waited)
		a.obs.AttemptCompleted(o)
		a.obs.InvariantViolated(a.runID, ierr)
		a.logger.Error().Err(err).
			Str(xglog.FieldEvent, "exchange.invariant_violation").
			Str(xglog.FieldInvariant, ierr.Invariant).
			Msg("store invariant violated, halting run")
		if a.onFatal != nil {
			a.onFatal(ierr)
		}
		return false
	case errors.Is(err, ErrGateTimeout):
		a.obs.GateTimedOut(a.Role)
		a.logger.Error().Err(err).
			Str(xglog.FieldEvent, "gate.timeout").
			Msg("gate not acquired in time, skipping tick")
		return true
	default:
		// Cancelled while waiting for the gate.
		return false
	}
}

func (a *Actor) attempt() (Outcome, error) {
	if a.Role == RoleVendor {
		return a.store.AttemptProduce(a.ID)
	}
	return a.store.AttemptConsume(a.ID)
}
