package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ManuGH/tixsim/internal/exchange"
)

// MeterName is the instrumentation scope of exchange metrics.
const MeterName = "github.com/ManuGH/tixsim/internal/exchange"

// ExchangeObserver records exchange events as OpenTelemetry metrics.
type ExchangeObserver struct {
	attempts   metric.Int64Counter
	gateWait   metric.Float64Histogram
	timeouts   metric.Int64Counter
	runs       metric.Int64Counter
	stops      metric.Int64Counter
	violations metric.Int64Counter
}

var _ exchange.Observer = (*ExchangeObserver)(nil)

// NewExchangeObserver creates the instruments on meter.
func NewExchangeObserver(meter metric.Meter) (*ExchangeObserver, error) {
	var (
		o   ExchangeObserver
		err error
	)
	if o.attempts, err = meter.Int64Counter("tixsim.exchange.attempts",
		metric.WithDescription("Produce/consume attempts"),
		metric.WithUnit("{attempt}")); err != nil {
		return nil, fmt.Errorf("attempts counter: %w", err)
	}
	if o.gateWait, err = meter.Float64Histogram("tixsim.exchange.gate.wait",
		metric.WithDescription("Time spent waiting for the exchange gate"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("gate wait histogram: %w", err)
	}
	if o.timeouts, err = meter.Int64Counter("tixsim.exchange.gate.timeouts",
		metric.WithDescription("Gate acquisitions that exceeded the max wait")); err != nil {
		return nil, fmt.Errorf("gate timeout counter: %w", err)
	}
	if o.runs, err = meter.Int64Counter("tixsim.exchange.runs.started",
		metric.WithDescription("Runs started")); err != nil {
		return nil, fmt.Errorf("runs counter: %w", err)
	}
	if o.stops, err = meter.Int64Counter("tixsim.exchange.runs.stopped",
		metric.WithDescription("Runs ended, by reason")); err != nil {
		return nil, fmt.Errorf("stops counter: %w", err)
	}
	if o.violations, err = meter.Int64Counter("tixsim.exchange.invariant.violations",
		metric.WithDescription("Invariant violations that halted a run")); err != nil {
		return nil, fmt.Errorf("violations counter: %w", err)
	}
	return &o, nil
}

func (o *ExchangeObserver) AttemptCompleted(out exchange.Outcome) {
	o.attempts.Add(context.Background(), 1, metric.WithAttributes(OutcomeAttributes(out)...))
}

func (o *ExchangeObserver) GateWaited(role exchange.Role, wait time.Duration) {
	o.gateWait.Record(context.Background(), wait.Seconds(),
		metric.WithAttributes(attribute.String(ExchangeRoleKey, string(role))))
}

func (o *ExchangeObserver) GateTimedOut(role exchange.Role) {
	o.timeouts.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(ExchangeRoleKey, string(role))))
}

func (o *ExchangeObserver) RunStarted(_ uuid.UUID, cfg exchange.RunConfig) {
	o.runs.Add(context.Background(), 1, metric.WithAttributes(RunAttributes(cfg)...))
}

func (o *ExchangeObserver) RunStopped(_ uuid.UUID, reason exchange.StopReason) {
	o.stops.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(ExchangeStopKey, string(reason))))
}

func (o *ExchangeObserver) InvariantViolated(_ uuid.UUID, err *exchange.InvariantError) {
	o.violations.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(ExchangeInvariantKey, err.Invariant)))
}
