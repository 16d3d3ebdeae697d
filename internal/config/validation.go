// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"net"
	"strings"

	"github.com/ManuGH/tixsim/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.ListenAddr("api.listenAddr", cfg.API.ListenAddr)
	if cfg.Metrics.ListenAddr != "" {
		v.ListenAddr("metrics.listenAddr", cfg.Metrics.ListenAddr)
		if samePort(cfg.API.ListenAddr, cfg.Metrics.ListenAddr) {
			v.AddError("metrics.listenAddr", "must differ from api.listenAddr", cfg.Metrics.ListenAddr)
		}
	}

	v.Level("logLevel", cfg.LogLevel)

	for _, origin := range cfg.CORS.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			v.AddError("cors.allowedOrigins", "must be * or an http(s) origin", origin)
		}
	}

	if cfg.RateLimit.Enabled {
		v.Positive("rateLimit.rps", cfg.RateLimit.RPS)
		v.Positive("rateLimit.burst", cfg.RateLimit.Burst)
	}

	if cfg.Tracing.Enabled {
		v.OneOf("tracing.exporter", cfg.Tracing.Exporter, []string{"grpc", "http"})
		v.NotEmpty("tracing.endpoint", cfg.Tracing.Endpoint)
		v.FloatRange("tracing.samplingRate", cfg.Tracing.SamplingRate, 0, 1)
	}

	v.NonNegativeDuration("exchange.gateMaxWait", cfg.Exchange.GateMaxWait)
	v.NonNegative("exchange.maxLogEntries", cfg.Exchange.MaxLogEntries)
	v.Positive("exchange.maxActors", cfg.Exchange.MaxActors)

	if cfg.Preset.Autostart && cfg.Preset.Path == "" {
		v.AddError("preset.autostart", "requires preset.path", cfg.Preset.Autostart)
	}

	v.NonNegativeDuration("server.readTimeout", cfg.Server.ReadTimeout)
	v.NonNegativeDuration("server.writeTimeout", cfg.Server.WriteTimeout)
	v.NonNegativeDuration("server.idleTimeout", cfg.Server.IdleTimeout)
	v.NonNegative("server.maxHeaderBytes", cfg.Server.MaxHeaderBytes)
	v.NonNegativeDuration("server.shutdownTimeout", cfg.Server.ShutdownTimeout)

	return v.Err()
}

// samePort reports whether two listen addresses would collide.
func samePort(a, b string) bool {
	ha, pa, errA := net.SplitHostPort(a)
	hb, pb, errB := net.SplitHostPort(b)
	if errA != nil || errB != nil || pa != pb {
		return false
	}
	return ha == hb || ha == "" || hb == "" || ha == "0.0.0.0" || hb == "0.0.0.0"
}
