// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment keys recognised by the loader.
const (
	EnvListen             = "TIXSIM_LISTEN"
	EnvMetricsListen      = "TIXSIM_METRICS_LISTEN"
	EnvLogLevel           = "TIXSIM_LOG_LEVEL"
	EnvLogService         = "TIXSIM_LOG_SERVICE"
	EnvCORSOrigins        = "TIXSIM_CORS_ORIGINS"
	EnvRateLimitEnabled   = "TIXSIM_RATELIMIT_ENABLED"
	EnvRateLimitRPS       = "TIXSIM_RATELIMIT_RPS"
	EnvRateLimitBurst     = "TIXSIM_RATELIMIT_BURST"
	EnvTracingEnabled     = "TIXSIM_TRACING_ENABLED"
	EnvTracingExporter    = "TIXSIM_TRACING_EXPORTER"
	EnvTracingEndpoint    = "TIXSIM_TRACING_ENDPOINT"
	EnvTracingSampling    = "TIXSIM_TRACING_SAMPLING_RATE"
	EnvGateMaxWait        = "TIXSIM_GATE_MAX_WAIT"
	EnvMaxLogEntries      = "TIXSIM_MAX_LOG_ENTRIES"
	EnvMaxActors          = "TIXSIM_MAX_ACTORS"
	EnvPresetPath         = "TIXSIM_PRESET_PATH"
	EnvPresetAutostart    = "TIXSIM_PRESET_AUTOSTART"
	EnvServerReadTimeout  = "TIXSIM_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout = "TIXSIM_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout  = "TIXSIM_SERVER_IDLE_TIMEOUT"
	EnvServerShutdown     = "TIXSIM_SERVER_SHUTDOWN_TIMEOUT"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path, empty when running from ENV only.
func (l *Loader) Path() string { return l.configPath }

// ConsumedKeys returns the sorted environment keys read by the last Load.
func (l *Loader) ConsumedKeys() []string {
	keys := make([]string, 0, len(l.ConsumedEnvKeys))
	for k := range l.ConsumedEnvKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envList(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseList(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults
// It enforces Strict Validated Order: Parse File (Strict) -> Apply Env -> Validate
func (l *Loader) Load() (AppConfig, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)
	cfg.Version = l.version

	if cfg.Preset.Path != "" {
		if abs, err := filepath.Abs(cfg.Preset.Path); err == nil {
			cfg.Preset.Path = abs
		}
	}

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes the YAML file on top of cfg. Keys absent from the file
// keep their current value.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: %q (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrMultipleDocuments
	}
	return nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.API.ListenAddr = l.envString(EnvListen, cfg.API.ListenAddr)
	cfg.Metrics.ListenAddr = l.envString(EnvMetricsListen, cfg.Metrics.ListenAddr)
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
	cfg.LogService = l.envString(EnvLogService, cfg.LogService)
	cfg.CORS.AllowedOrigins = l.envList(EnvCORSOrigins, cfg.CORS.AllowedOrigins)

	cfg.RateLimit.Enabled = l.envBool(EnvRateLimitEnabled, cfg.RateLimit.Enabled)
	cfg.RateLimit.RPS = l.envInt(EnvRateLimitRPS, cfg.RateLimit.RPS)
	cfg.RateLimit.Burst = l.envInt(EnvRateLimitBurst, cfg.RateLimit.Burst)

	cfg.Tracing.Enabled = l.envBool(EnvTracingEnabled, cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = l.envString(EnvTracingExporter, cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = l.envString(EnvTracingEndpoint, cfg.Tracing.Endpoint)
	cfg.Tracing.SamplingRate = l.envFloat(EnvTracingSampling, cfg.Tracing.SamplingRate)

	cfg.Exchange.GateMaxWait = l.envDuration(EnvGateMaxWait, cfg.Exchange.GateMaxWait)
	cfg.Exchange.MaxLogEntries = l.envInt(EnvMaxLogEntries, cfg.Exchange.MaxLogEntries)
	cfg.Exchange.MaxActors = l.envInt(EnvMaxActors, cfg.Exchange.MaxActors)

	cfg.Preset.Path = l.envString(EnvPresetPath, cfg.Preset.Path)
	cfg.Preset.Autostart = l.envBool(EnvPresetAutostart, cfg.Preset.Autostart)

	cfg.Server.ReadTimeout = l.envDuration(EnvServerReadTimeout, cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = l.envDuration(EnvServerWriteTimeout, cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = l.envDuration(EnvServerIdleTimeout, cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = l.envDuration(EnvServerShutdown, cfg.Server.ShutdownTimeout)
}

// Dump renders cfg as YAML, the format Load accepts.
func Dump(cfg AppConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
