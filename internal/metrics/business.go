// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Operational metrics
	configValidationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tixsim_config_validation_errors_total",
		Help: "Total number of configuration validation errors",
	})

	configReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tixsim_config_reloads_total",
		Help: "Configuration reload attempts by result",
	}, []string{"result", "trigger"}) // result=success|failure, trigger=file|signal|api

	presetWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tixsim_preset_writes_total",
		Help: "Run preset writes by result",
	}, []string{"result"}) // result=success|failure

	lifecycleRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tixsim_lifecycle_requests_total",
		Help: "Lifecycle API requests by operation and outcome",
	}, []string{"operation", "outcome"}) // outcome=ok|rejected|error

	buildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tixsim_build_info",
		Help: "Build information; value is always 1",
	}, []string{"version"})
)

// IncConfigValidationError records a rejected configuration.
func IncConfigValidationError() {
	configValidationErrors.Inc()
}

// RecordConfigReload records a reload attempt.
func RecordConfigReload(trigger string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	configReloadsTotal.WithLabelValues(result, trigger).Inc()
}

// RecordPresetWrite records an attempt to persist the run preset.
func RecordPresetWrite(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	presetWritesTotal.WithLabelValues(result).Inc()
}

// RecordLifecycleRequest records the outcome of a start/stop/reset request.
func RecordLifecycleRequest(operation, outcome string) {
	lifecycleRequestsTotal.WithLabelValues(operation, outcome).Inc()
}

// SetBuildInfo publishes the running version.
func SetBuildInfo(version string) {
	buildInfo.WithLabelValues(version).Set(1)
}
