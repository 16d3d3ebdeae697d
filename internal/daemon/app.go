// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/tixsim/internal/config"
	"github.com/ManuGH/tixsim/internal/log"
	"github.com/ManuGH/tixsim/internal/metrics"
	"github.com/ManuGH/tixsim/internal/preset"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// App runs the manager together with config reloads and preset autostart.
type App struct {
	logger    zerolog.Logger
	runtime   *Runtime
	manager   Manager
	cfgHolder *config.ConfigHolder
	hupSignal chan os.Signal
}

// NewApp ties a runtime to its manager. cfgHolder may be nil to disable reloads.
func NewApp(rt *Runtime, mgr Manager, cfgHolder *config.ConfigHolder) (*App, error) {
	if mgr == nil {
		return nil, ErrMissingManager
	}
	return &App{
		logger:    log.WithComponent("daemon"),
		runtime:   rt,
		manager:   mgr,
		cfgHolder: cfgHolder,
	}, nil
}

// Run blocks until ctx is cancelled or a server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if a.cfgHolder != nil {
		a.cfgHolder.SetReloadHook(metrics.RecordConfigReload)
		if err := a.cfgHolder.StartWatcher(gctx); err != nil {
			a.logger.Warn().Err(err).Msg("config watcher disabled")
		}

		sig := a.hupSignal
		if sig == nil {
			sig = make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGHUP)
			defer signal.Stop(sig)
		}
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-sig:
					a.logger.Info().Msg("received SIGHUP, reloading configuration")
					if err := a.cfgHolder.Reload(gctx, config.TriggerSignal); err != nil {
						a.logger.Error().Err(err).Msg("configuration reload failed")
					}
				}
			}
		})
	}

	if a.runtime != nil && a.runtime.Config.Preset.Autostart {
		a.autostart(gctx)
	}

	g.Go(func() error {
		defer cancel()
		return a.manager.Start(gctx)
	})

	err := g.Wait()
	if a.cfgHolder != nil {
		a.cfgHolder.Wait()
	}
	return err
}

// autostart resumes the last saved run. Failures are logged, never fatal.
func (a *App) autostart(ctx context.Context) {
	p, err := a.runtime.Presets.Load()
	if errors.Is(err, preset.ErrNoPreset) {
		a.logger.Info().Str(log.FieldEvent, "preset.autostart_skipped").Msg("no preset saved")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Str(log.FieldEvent, "preset.load_failed").Msg("cannot load preset")
		return
	}
	runID, err := a.runtime.Controller.Start(ctx, p.Config)
	if err != nil {
		a.logger.Error().Err(err).Str(log.FieldEvent, "preset.autostart_failed").Msg("cannot start preset run")
		return
	}
	a.logger.Info().
		Str(log.FieldEvent, "preset.autostarted").
		Str(log.FieldRunID, runID.String()).
		Msg("resumed saved run")
}
