// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	xglog "github.com/ManuGH/tixsim/internal/log"
)

const tracerName = "github.com/ManuGH/tixsim/internal/exchange"

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the real clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithObserver registers an additional observer.
func WithObserver(o Observer) Option {
	return func(ctl *Controller) { ctl.observers = append(ctl.observers, o) }
}

// WithGateMaxWait bounds gate acquisition; zero waits indefinitely.
func WithGateMaxWait(d time.Duration) Option {
	return func(ctl *Controller) { ctl.gateMaxWait = d }
}

// WithMaxActors caps vendors and customers per run; zero disables the cap.
func WithMaxActors(n int) Option {
	return func(ctl *Controller) { ctl.maxActors = n }
}

// WithMaxLogEntries caps the retained event log; zero keeps everything.
func WithMaxLogEntries(n int) Option {
	return func(ctl *Controller) { ctl.maxLog = n }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(ctl *Controller) { ctl.logger = l }
}

// Controller owns the Store and the actor population of the current run.
// Start, Stop, Reset and Shutdown are serialized among themselves; store
// mutations they make still go through the Gate.
type Controller struct {
	mu  sync.Mutex
	run *run

	store *Store
	gate  *Gate
	clock Clock
	obs   Observer

	observers   Observers
	gateMaxWait time.Duration
	maxActors   int
	maxLog      int
	logger      zerolog.Logger
	tracer      trace.Tracer

	halts sync.WaitGroup
}

type run struct {
	id     uuid.UUID
	cfg    RunConfig
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewController builds an idle controller.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		clock:  RealClock{},
		logger: xglog.WithComponent("exchange"),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.store = NewStore(c.maxLog)
	c.gate = NewGate(c.gateMaxWait)
	c.obs = c.observers
	return c
}

// Store exposes the owned store for read access through Snapshot.
func (c *Controller) Store() *Store { return c.store }

// Status is the current lifecycle state.
func (c *Controller) Status() Status { return c.store.Status() }

// Start validates cfg, initializes the store and launches cfg.Vendors vendors
// and cfg.Customers customers.
func (c *Controller) Start(ctx context.Context, cfg RunConfig) (uuid.UUID, error) {
	ctx, span := c.tracer.Start(ctx, "exchange.start")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.Status() == StatusRunning {
		return uuid.Nil, c.reject(span, "start", ErrAlreadyRunning)
	}
	if err := cfg.Validate(c.maxActors); err != nil {
		return uuid.Nil, c.reject(span, "start", err)
	}

	id := uuid.New()
	err := c.gate.Do(context.WithoutCancel(ctx), func() error {
		return c.store.Initialize(id, cfg.Total, cfg.Capacity)
	})
	if err != nil {
		return uuid.Nil, c.reject(span, "start", err)
	}

	r := &run{id: id, cfg: cfg}
	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	logger := c.logger.With().Str(xglog.FieldRunID, id.String()).Logger()

	spawn := func(role Role, n int, interval time.Duration) {
		for i := 1; i <= n; i++ {
			a := &Actor{
				Role:     role,
				ID:       i,
				Interval: interval,
				runID:    id,
				store:    c.store,
				gate:     c.gate,
				clock:    c.clock,
				obs:      c.obs,
				logger: logger.With().
					Str(xglog.FieldRole, string(role)).
					Int(xglog.FieldActorID, i).
					Logger(),
				onFatal: func(ierr *InvariantError) {
					c.halts.Add(1)
					go func() {
						defer c.halts.Done()
						c.halt(r, ierr)
					}()
				},
			}
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				a.Run(runCtx)
			}()
		}
	}
	spawn(RoleVendor, cfg.Vendors, cfg.ReleaseInterval())
	spawn(RoleCustomer, cfg.Customers, cfg.RetrievalInterval())
	c.run = r

	c.obs.RunStarted(id, cfg)
	span.SetAttributes(
		attribute.String("exchange.run_id", id.String()),
		attribute.Int("exchange.vendors", cfg.Vendors),
		attribute.Int("exchange.customers", cfg.Customers),
		attribute.Int("exchange.total", cfg.Total),
		attribute.Int("exchange.capacity", cfg.Capacity),
	)
	logger.Info().
		Str(xglog.FieldEvent, "exchange.start").
		Int("vendors", cfg.Vendors).
		Int("customers", cfg.Customers).
		Int("total", cfg.Total).
		Int("capacity", cfg.Capacity).
		Int("release_ms", cfg.TicketReleaseRate).
		Int("retrieval_ms", cfg.CustomerRetrievalRate).
		Msg("system started")
	return id, nil
}

// Stop cancels every actor, waits for them to exit and marks the run stopped.
// Pool, counters and log are left in place.
func (c *Controller) Stop(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "exchange.stop")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.Status() != StatusRunning {
		return c.reject(span, "stop", ErrAlreadyStopped)
	}
	r := c.stopActors()
	if err := c.gate.Do(context.WithoutCancel(ctx), c.store.Stop); err != nil {
		return c.reject(span, "stop", err)
	}
	c.finished(r, StopReasonStopped)
	return nil
}

// Reset cancels any actors and clears the store. It succeeds from any state.
func (c *Controller) Reset(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "exchange.reset")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.stopActors()
	err := c.gate.Do(context.WithoutCancel(ctx), func() error {
		c.store.Reset()
		return nil
	})
	if err != nil {
		return c.reject(span, "reset", err)
	}
	c.finished(r, StopReasonReset)
	return nil
}

// Shutdown stops a running exchange and waits for in-flight halts. It is
// meant for process exit and is safe to call more than once.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	r := c.stopActors()
	var err error
	if c.store.Status() == StatusRunning {
		err = c.gate.Do(context.WithoutCancel(ctx), c.store.Stop)
	}
	if r != nil {
		c.finished(r, StopReasonShutdown)
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.halts.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		err = errors.Join(err, ctx.Err())
	}
	return err
}

// halt ends run r after an invariant violation. It is a no-op if r is no
// longer the current run.
func (c *Controller) halt(r *run, ierr *InvariantError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run != r {
		return
	}
	c.stopActors()
	_ = c.gate.Do(context.Background(), func() error {
		c.store.Halt(ierr)
		return nil
	})
	c.logger.Error().
		Str(xglog.FieldEvent, "exchange.halted").
		Str(xglog.FieldRunID, r.id.String()).
		Str(xglog.FieldInvariant, ierr.Invariant).
		Str("detail", ierr.Detail).
		Msg("run halted on invariant violation")
	c.obs.RunStopped(r.id, StopReasonHalted)
}

// stopActors cancels the current run and waits for its actors. Caller holds mu.
func (c *Controller) stopActors() *run {
	r := c.run
	if r == nil {
		return nil
	}
	r.cancel()
	r.wg.Wait()
	c.run = nil
	return r
}

func (c *Controller) finished(r *run, reason StopReason) {
	ev := c.logger.Info().Str(xglog.FieldEvent, "exchange."+string(reason))
	if r != nil {
		ev = ev.Str(xglog.FieldRunID, r.id.String())
		c.obs.RunStopped(r.id, reason)
	}
	ev.Msg("system " + string(reason))
}

func (c *Controller) reject(span trace.Span, op string, err error) error {
	span.RecordError(err)
	if IsUserError(err) {
		c.logger.Warn().Err(err).Str(xglog.FieldEvent, "exchange."+op+".rejected").Msg("lifecycle request rejected")
	} else {
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error().Err(err).Str(xglog.FieldEvent, "exchange."+op+".failed").Msg("lifecycle request failed")
	}
	return fmt.Errorf("%s: %w", op, err)
}
