// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"fmt"

	"github.com/ManuGH/tixsim/internal/api"
	"github.com/ManuGH/tixsim/internal/config"
	"github.com/ManuGH/tixsim/internal/exchange"
	"github.com/ManuGH/tixsim/internal/health"
	"github.com/ManuGH/tixsim/internal/log"
	"github.com/ManuGH/tixsim/internal/metrics"
	"github.com/ManuGH/tixsim/internal/preset"
	"github.com/ManuGH/tixsim/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
)

// Runtime is the fully wired process: exchange, HTTP surface and telemetry.
type Runtime struct {
	Config     config.AppConfig
	Controller *exchange.Controller
	Presets    *preset.Store
	Recorder   *preset.Recorder
	Health     *health.Manager
	API        *api.Server
	Telemetry  *telemetry.Provider
}

// Bootstrap wires every component from cfg. The caller owns the returned
// Runtime and must shut it down through a Manager or Close.
func Bootstrap(ctx context.Context, cfg config.AppConfig) (*Runtime, error) {
	logger := log.WithComponent("daemon")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	otelObs, err := telemetry.NewExchangeObserver(otel.Meter(telemetry.MeterName))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("init exchange instruments: %w", err)
	}

	presets := preset.NewStore(cfg.Preset.Path)
	recorder := preset.NewRecorder(presets)
	ctl := exchange.NewController(
		exchange.WithGateMaxWait(cfg.Exchange.GateMaxWait),
		exchange.WithMaxActors(cfg.Exchange.MaxActors),
		exchange.WithMaxLogEntries(cfg.Exchange.MaxLogEntries),
		exchange.WithObserver(metrics.ExchangeObserver{}),
		exchange.WithObserver(otelObs),
		exchange.WithObserver(recorder),
		exchange.WithLogger(log.WithComponent("exchange")),
	)

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewExchangeChecker(ctl.Store()))
	if presets.Enabled() {
		hm.RegisterChecker(health.NewPresetChecker(presets.Path()))
	}

	opts := api.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableMetrics:  true,
	}
	if cfg.RateLimit.Enabled {
		opts.RateLimitRPS = cfg.RateLimit.RPS
		opts.RateLimitBurst = cfg.RateLimit.Burst
	}
	if cfg.Tracing.Enabled {
		opts.TracingService = cfg.LogService
	}
	srv := api.New(api.Deps{Controller: ctl, Presets: presets, Health: hm}, opts)

	metrics.SetBuildInfo(cfg.Version)
	logger.Info().
		Str(log.FieldEvent, "daemon.bootstrapped").
		Bool("tracing", cfg.Tracing.Enabled).
		Bool("preset", presets.Enabled()).
		Int("max_actors", cfg.Exchange.MaxActors).
		Msg("runtime wired")

	return &Runtime{
		Config:     cfg,
		Controller: ctl,
		Presets:    presets,
		Recorder:   recorder,
		Health:     hm,
		API:        srv,
		Telemetry:  tp,
	}, nil
}

// NewManager builds the server manager for this runtime. Hooks run in
// reverse order: the exchange stops, then telemetry flushes, then the last
// pending preset write is awaited.
func (rt *Runtime) NewManager() (Manager, error) {
	mgr, err := NewManager(config.ParseServerConfigForApp(rt.Config), Deps{
		Logger:         log.WithComponent("daemon"),
		APIHandler:     rt.API.Handler(),
		MetricsHandler: promhttp.Handler(),
		MetricsAddr:    rt.Config.Metrics.ListenAddr,
	})
	if err != nil {
		return nil, err
	}
	mgr.RegisterShutdownHook("preset", rt.Recorder.Flush)
	mgr.RegisterShutdownHook("telemetry", rt.Telemetry.Shutdown)
	mgr.RegisterShutdownHook("exchange", rt.Controller.Shutdown)
	return mgr, nil
}

// Close releases the runtime without a manager.
func (rt *Runtime) Close(ctx context.Context) error {
	err := rt.Controller.Shutdown(ctx)
	if tErr := rt.Telemetry.Shutdown(ctx); err == nil {
		err = tErr
	}
	if fErr := rt.Recorder.Flush(ctx); err == nil {
		err = fErr
	}
	return err
}
