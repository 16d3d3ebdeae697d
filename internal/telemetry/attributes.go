// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/ManuGH/tixsim/internal/exchange"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"
	HTTPUserAgentKey  = "http.user_agent"

	// Exchange attributes
	ExchangeRoleKey      = "exchange.role"
	ExchangeResultKey    = "exchange.result"
	ExchangeReasonKey    = "exchange.reason"
	ExchangeVendorsKey   = "exchange.vendors"
	ExchangeCustomersKey = "exchange.customers"
	ExchangeTotalKey     = "exchange.total"
	ExchangeCapacityKey  = "exchange.capacity"
	ExchangeStopKey      = "exchange.stop_reason"
	ExchangeInvariantKey = "exchange.invariant"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// RunAttributes describes a run configuration.
func RunAttributes(cfg exchange.RunConfig) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(ExchangeVendorsKey, cfg.Vendors),
		attribute.Int(ExchangeCustomersKey, cfg.Customers),
		attribute.Int(ExchangeTotalKey, cfg.Total),
		attribute.Int(ExchangeCapacityKey, cfg.Capacity),
	}
}

// OutcomeAttributes labels one attempt. The reason is omitted for accepted attempts.
func OutcomeAttributes(o exchange.Outcome) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(ExchangeRoleKey, string(o.Role)),
		attribute.String(ExchangeResultKey, o.Result()),
	}
	if o.Reason != exchange.ReasonNone {
		attrs = append(attrs, attribute.String(ExchangeReasonKey, string(o.Reason)))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
