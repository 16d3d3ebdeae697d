// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the fully resolved daemon configuration.
type AppConfig struct {
	Version    string `yaml:"-"`
	LogLevel   string `yaml:"logLevel,omitempty"`
	LogService string `yaml:"logService,omitempty"`

	API       APIConfig           `yaml:"api"`
	Metrics   MetricsConfig       `yaml:"metrics"`
	CORS      CORSConfig          `yaml:"cors"`
	RateLimit RateLimitConfig     `yaml:"rateLimit"`
	Tracing   TracingConfig       `yaml:"tracing"`
	Exchange  ExchangeConfig      `yaml:"exchange"`
	Preset    PresetConfig        `yaml:"preset"`
	Server    ServerRuntimeConfig `yaml:"server"`
}

// APIConfig configures the control API listener.
type APIConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

// MetricsConfig configures the Prometheus listener. An empty address disables it.
type MetricsConfig struct {
	ListenAddr string `yaml:"listenAddr,omitempty"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// RateLimitConfig configures per-IP limiting of the control endpoints.
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled"`
	RPS     int  `yaml:"rps"`
	Burst   int  `yaml:"burst"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter,omitempty"`
	Endpoint     string  `yaml:"endpoint,omitempty"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// ExchangeConfig tunes the ticket exchange engine.
type ExchangeConfig struct {
	// GateMaxWait bounds how long an actor waits for the gate. Zero waits forever.
	GateMaxWait time.Duration `yaml:"gateMaxWait,omitempty"`
	// MaxLogEntries caps the retained event log. Zero keeps everything.
	MaxLogEntries int `yaml:"maxLogEntries,omitempty"`
	// MaxActors caps vendors+customers of a single run.
	MaxActors int `yaml:"maxActors"`
}

// PresetConfig controls persistence of the last accepted run configuration.
type PresetConfig struct {
	Path      string `yaml:"path,omitempty"`
	Autostart bool   `yaml:"autostart"`
}

// ServerRuntimeConfig holds HTTP server timeouts as read from the file.
type ServerRuntimeConfig struct {
	ReadTimeout     time.Duration `yaml:"readTimeout,omitempty"`
	WriteTimeout    time.Duration `yaml:"writeTimeout,omitempty"`
	IdleTimeout     time.Duration `yaml:"idleTimeout,omitempty"`
	MaxHeaderBytes  int           `yaml:"maxHeaderBytes,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout,omitempty"`
}

const (
	DefaultListenAddr     = ":5000"
	DefaultMaxActors      = 1000
	DefaultRateLimitRPS   = 20
	DefaultRateLimitBurst = 40
)

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		LogLevel:   "info",
		LogService: "tixsim",
		API:        APIConfig{ListenAddr: DefaultListenAddr},
		CORS:       CORSConfig{AllowedOrigins: []string{"*"}},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     DefaultRateLimitRPS,
			Burst:   DefaultRateLimitBurst,
		},
		Tracing: TracingConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
		Exchange: ExchangeConfig{MaxActors: DefaultMaxActors},
		Server: ServerRuntimeConfig{
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			MaxHeaderBytes:  defaultMaxHeaderBytes,
			ShutdownTimeout: defaultShutdownTimeout,
		},
	}
}
