// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command tixsim runs the ticket exchange daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/tixsim/internal/config"
	"github.com/ManuGH/tixsim/internal/daemon"
	"github.com/ManuGH/tixsim/internal/health"
	xglog "github.com/ManuGH/tixsim/internal/log"
	"github.com/ManuGH/tixsim/internal/metrics"
	"github.com/ManuGH/tixsim/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:]))
		case "serve":
			os.Args = append(os.Args[:1], os.Args[2:]...)
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(serve(ctx, strings.TrimSpace(*configPath)))
}

// serve loads the configuration, wires the runtime and blocks until ctx ends.
func serve(ctx context.Context, configPath string) int {
	// Safe defaults until the config is known.
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "tixsim",
		Version: version.Version,
	})
	logger := xglog.WithComponent("daemon")

	loader := config.NewLoader(configPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		metrics.IncConfigValidationError()
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str("config_path", configPath).
			Msg("failed to load configuration")
		return 1
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if err := xglog.SetLevel(cfg.LogLevel); err != nil {
		logger.Warn().Err(err).Str("level", cfg.LogLevel).Msg("invalid log level, keeping default")
	}

	source := "env+defaults"
	if configPath != "" {
		source = "file"
	}
	logger.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str("source", source).
		Str("path", configPath).
		Strs("env_keys", loader.ConsumedKeys()).
		Msg("configuration loaded")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "startup.check_failed").
			Msg("startup checks failed")
		return 1
	}

	rt, err := daemon.Bootstrap(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "bootstrap.failed").Msg("failed to wire runtime")
		return 1
	}
	mgr, err := rt.NewManager()
	if err != nil {
		_ = rt.Close(context.WithoutCancel(ctx))
		logger.Error().Err(err).Msg("failed to create daemon manager")
		return 1
	}

	var holder *config.ConfigHolder
	if configPath != "" {
		holder = config.NewConfigHolder(cfg, loader)
	}
	app, err := daemon.NewApp(rt, mgr, holder)
	if err != nil {
		_ = rt.Close(context.WithoutCancel(ctx))
		logger.Error().Err(err).Msg("failed to create daemon app")
		return 1
	}

	logger.Info().
		Str(xglog.FieldEvent, "daemon.start").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("listen", cfg.API.ListenAddr).
		Msg("starting tixsim")

	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "daemon.failed").Msg("daemon exited with error")
		return 1
	}
	logger.Info().Str(xglog.FieldEvent, "daemon.stopped").Msg("daemon stopped")
	return 0
}
