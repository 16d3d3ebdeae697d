// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	xglog "github.com/ManuGH/tixsim/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Reload triggers.
const (
	TriggerFile   = "file"
	TriggerSignal = "signal"
	TriggerManual = "manual"
)

const debounceDuration = 500 * time.Millisecond

// ReloadHook observes every reload attempt.
type ReloadHook func(trigger string, err error)

// ConfigHolder holds configuration with atomic reloading capability.
// It provides thread-safe access to configuration and supports hot reloading
// from file or signal.
type ConfigHolder struct {
	mu      sync.RWMutex
	current AppConfig
	loader  *Loader
	logger  zerolog.Logger
	hook    ReloadHook

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup

	reloadMu        sync.RWMutex
	reloadListeners []chan<- AppConfig
}

// NewConfigHolder creates a new configuration holder with initial config.
func NewConfigHolder(initial AppConfig, loader *Loader) *ConfigHolder {
	return &ConfigHolder{
		current: initial,
		loader:  loader,
		logger:  xglog.WithComponent("config"),
	}
}

// SetReloadHook installs fn to be called after each reload attempt.
func (h *ConfigHolder) SetReloadHook(fn ReloadHook) {
	h.mu.Lock()
	h.hook = fn
	h.mu.Unlock()
}

// Get returns the current configuration (thread-safe read).
func (h *ConfigHolder) Get() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload loads and validates the configuration again. On failure the old
// configuration stays active.
func (h *ConfigHolder) Reload(_ context.Context, trigger string) error {
	h.logger.Info().
		Str(xglog.FieldEvent, "config.reload_start").
		Str("trigger", trigger).
		Msg("reloading configuration")

	newCfg, err := h.loader.Load()
	if err != nil {
		h.logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.reload_failed").
			Str("trigger", trigger).
			Msg("failed to load new configuration")
		h.fireHook(trigger, err)
		return fmt.Errorf("load config: %w", err)
	}

	h.mu.Lock()
	oldCfg := h.current
	h.current = newCfg
	h.mu.Unlock()

	h.applyLogLevel(oldCfg, newCfg)
	h.logChanges(oldCfg, newCfg)
	h.notifyListeners(newCfg)

	h.logger.Info().
		Str(xglog.FieldEvent, "config.reload_success").
		Str("trigger", trigger).
		Msg("configuration reloaded successfully")
	h.fireHook(trigger, nil)
	return nil
}

func (h *ConfigHolder) fireHook(trigger string, err error) {
	h.mu.RLock()
	hook := h.hook
	h.mu.RUnlock()
	if hook != nil {
		hook(trigger, err)
	}
}

// StartWatcher watches the config file for changes until ctx is done.
// If no file is configured this is a no-op (config comes from ENV only).
func (h *ConfigHolder) StartWatcher(ctx context.Context) error {
	path := h.loader.Path()
	if path == "" {
		h.logger.Info().
			Str(xglog.FieldEvent, "config.watcher_disabled").
			Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory so editors that replace the file by rename are seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config file: %w", err)
	}
	h.watcher = watcher

	h.logger.Info().
		Str(xglog.FieldEvent, "config.watcher_started").
		Str("path", path).
		Msg("watching config file for changes")

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.watchLoop(ctx, watcher, filepath.Clean(path))
	}()
	return nil
}

func (h *ConfigHolder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string) {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
		_ = watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(xglog.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			h.logger.Debug().
				Str(xglog.FieldEvent, "config.file_changed").
				Str("op", event.Op.String()).
				Msg("config file changed")

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDuration, func() {
				if ctx.Err() != nil {
					return
				}
				if err := h.Reload(ctx, TriggerFile); err != nil {
					h.logger.Error().
						Err(err).
						Str(xglog.FieldEvent, "config.auto_reload_failed").
						Msg("automatic config reload failed")
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// Wait blocks until the watcher goroutine has exited.
func (h *ConfigHolder) Wait() {
	h.wg.Wait()
}

// RegisterListener registers a channel to receive the new config after every
// successful reload. Sends never block; a full channel misses the update.
func (h *ConfigHolder) RegisterListener(ch chan<- AppConfig) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	h.reloadListeners = append(h.reloadListeners, ch)
}

func (h *ConfigHolder) notifyListeners(newCfg AppConfig) {
	h.reloadMu.RLock()
	defer h.reloadMu.RUnlock()

	for _, ch := range h.reloadListeners {
		select {
		case ch <- newCfg:
		default:
			h.logger.Warn().
				Str(xglog.FieldEvent, "config.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}

func (h *ConfigHolder) applyLogLevel(old, newCfg AppConfig) {
	if old.LogLevel == newCfg.LogLevel || newCfg.LogLevel == "" {
		return
	}
	if err := xglog.SetLevel(newCfg.LogLevel); err != nil {
		h.logger.Warn().Err(err).Str("level", newCfg.LogLevel).Msg("log level not applied")
	}
}

// logChanges logs the fields that differ. Only the log level is applied
// live; everything else takes effect after a restart.
func (h *ConfigHolder) logChanges(old, newCfg AppConfig) {
	if old.LogLevel != newCfg.LogLevel {
		h.logger.Info().Str("old", old.LogLevel).Str("new", newCfg.LogLevel).Msg("config changed: logLevel")
	}
	if old.API != newCfg.API || old.Metrics != newCfg.Metrics || old.Tracing != newCfg.Tracing ||
		old.RateLimit != newCfg.RateLimit ||
		old.Exchange != newCfg.Exchange || old.Preset != newCfg.Preset || !slices.Equal(old.CORS.AllowedOrigins, newCfg.CORS.AllowedOrigins) {
		h.logger.Warn().
			Str(xglog.FieldEvent, "config.restart_required").
			Msg("settings changed that only apply after a restart")
	}
}
