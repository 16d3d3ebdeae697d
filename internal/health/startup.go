// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/ManuGH/tixsim/internal/config"
	"github.com/ManuGH/tixsim/internal/log"
	"github.com/rs/zerolog"
)

// PerformStartupChecks validates the environment before the servers start.
func PerformStartupChecks(_ context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := checkListeners(logger, cfg); err != nil {
		return fmt.Errorf("listener check failed: %w", err)
	}

	if cfg.Preset.Path != "" {
		if err := checkPresetDir(logger, filepath.Dir(cfg.Preset.Path)); err != nil {
			return fmt.Errorf("preset directory check failed: %w", err)
		}
	} else if cfg.Preset.Autostart {
		return errors.New("preset autostart requires a preset path")
	}

	if cfg.Exchange.MaxLogEntries == 0 {
		logger.Warn().Msg("event log is unbounded; long runs grow memory without limit")
	}

	logger.Info().Msg("all startup checks passed")
	return nil
}

func checkListeners(logger zerolog.Logger, cfg config.AppConfig) error {
	if _, _, err := net.SplitHostPort(cfg.API.ListenAddr); err != nil {
		return fmt.Errorf("invalid API listen address %q: %w", cfg.API.ListenAddr, err)
	}
	logger.Info().Str("addr", cfg.API.ListenAddr).Msg("API listen address is valid")

	if cfg.Metrics.ListenAddr == "" {
		logger.Info().Msg("metrics listener disabled")
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Metrics.ListenAddr); err != nil {
		return fmt.Errorf("invalid metrics listen address %q: %w", cfg.Metrics.ListenAddr, err)
	}
	if cfg.Metrics.ListenAddr == cfg.API.ListenAddr {
		return fmt.Errorf("metrics and API share listen address %q", cfg.API.ListenAddr)
	}
	logger.Info().Str("addr", cfg.Metrics.ListenAddr).Msg("metrics listen address is valid")
	return nil
}

// checkPresetDir makes sure dir exists and is writable.
func checkPresetDir(logger zerolog.Logger, dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dir)
	}

	f, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		return fmt.Errorf("directory is not writable: %s: %w", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	logger.Info().Str("path", dir).Msg("preset directory is writable")
	return nil
}
