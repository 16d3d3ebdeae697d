// SPDX-License-Identifier: MIT
package metrics

import (
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ManuGH/tixsim/internal/exchange"
)

var (
	exchangeAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tixsim_exchange_attempts_total",
		Help: "Produce/consume attempts by role, result and rejection reason",
	}, []string{"role", "result", "reason"}) // result=accepted|rejected

	exchangePoolSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tixsim_exchange_pool_size",
		Help: "Tickets currently in the active pool",
	})

	exchangeWaiting = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tixsim_exchange_waiting_tickets",
		Help: "Tickets waiting in the backlog",
	})

	exchangeTicketsSold = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tixsim_exchange_tickets_sold",
		Help: "Tickets sold in the current run",
	})

	exchangeGateWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tixsim_exchange_gate_wait_seconds",
		Help:    "Time actors wait to acquire the exchange gate",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"role"})

	exchangeGateTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tixsim_exchange_gate_timeouts_total",
		Help: "Gate acquisitions that exceeded the configured max wait",
	}, []string{"role"})

	exchangeRunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tixsim_exchange_runs_started_total",
		Help: "Runs started successfully",
	})

	exchangeRunsStopped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tixsim_exchange_runs_stopped_total",
		Help: "Runs ended, by reason",
	}, []string{"reason"}) // reason=stopped|reset|halted|shutdown

	exchangeRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tixsim_exchange_running",
		Help: "Whether a run is active (1) or not (0)",
	})

	exchangeActors = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tixsim_exchange_actors",
		Help: "Actors configured for the current run by role",
	}, []string{"role"})

	exchangeInvariantViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tixsim_exchange_invariant_violations_total",
		Help: "Store invariant violations that halted a run",
	}, []string{"invariant"})
)

// ExchangeObserver exports exchange events as Prometheus metrics.
type ExchangeObserver struct{}

var _ exchange.Observer = ExchangeObserver{}

func (ExchangeObserver) AttemptCompleted(o exchange.Outcome) {
	exchangeAttemptsTotal.WithLabelValues(string(o.Role), o.Result(), string(o.Reason)).Inc()
	exchangePoolSize.Set(float64(o.PoolSize))
	exchangeWaiting.Set(float64(o.Waiting))
	exchangeTicketsSold.Set(float64(o.Sold))
}

func (ExchangeObserver) GateWaited(role exchange.Role, wait time.Duration) {
	exchangeGateWait.WithLabelValues(string(role)).Observe(wait.Seconds())
}

func (ExchangeObserver) GateTimedOut(role exchange.Role) {
	exchangeGateTimeouts.WithLabelValues(string(role)).Inc()
}

func (ExchangeObserver) RunStarted(_ uuid.UUID, cfg exchange.RunConfig) {
	exchangeRunsStarted.Inc()
	exchangeRunning.Set(1)
	exchangeActors.WithLabelValues(string(exchange.RoleVendor)).Set(float64(cfg.Vendors))
	exchangeActors.WithLabelValues(string(exchange.RoleCustomer)).Set(float64(cfg.Customers))
	exchangePoolSize.Set(float64(min(cfg.Total, cfg.Capacity)))
	exchangeWaiting.Set(float64(max(cfg.Total-cfg.Capacity, 0)))
	exchangeTicketsSold.Set(0)
}

func (ExchangeObserver) RunStopped(_ uuid.UUID, reason exchange.StopReason) {
	exchangeRunsStopped.WithLabelValues(string(reason)).Inc()
	exchangeRunning.Set(0)
	exchangeActors.WithLabelValues(string(exchange.RoleVendor)).Set(0)
	exchangeActors.WithLabelValues(string(exchange.RoleCustomer)).Set(0)
	if reason == exchange.StopReasonReset {
		exchangePoolSize.Set(0)
		exchangeWaiting.Set(0)
		exchangeTicketsSold.Set(0)
	}
}

func (ExchangeObserver) InvariantViolated(_ uuid.UUID, err *exchange.InvariantError) {
	exchangeInvariantViolations.WithLabelValues(err.Invariant).Inc()
}
