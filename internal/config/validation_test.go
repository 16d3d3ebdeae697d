package config

import (
	"testing"

	"github.com/ManuGH/tixsim/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		fields []string
	}{
		{name: "defaults", mutate: func(*AppConfig) {}},
		{name: "bad listen", mutate: func(c *AppConfig) { c.API.ListenAddr = "5000" }, fields: []string{"api.listenAddr"}},
		{
			name:   "metrics collides with api",
			mutate: func(c *AppConfig) { c.Metrics.ListenAddr = "0.0.0.0:5000" },
			fields: []string{"metrics.listenAddr"},
		},
		{name: "metrics on other port", mutate: func(c *AppConfig) { c.Metrics.ListenAddr = ":9100" }},
		{name: "bad origin", mutate: func(c *AppConfig) { c.CORS.AllowedOrigins = []string{"dash.example"} }, fields: []string{"cors.allowedOrigins"}},
		{
			name: "rate limit zero",
			mutate: func(c *AppConfig) {
				c.RateLimit.RPS = 0
				c.RateLimit.Burst = 0
			},
			fields: []string{"rateLimit.rps", "rateLimit.burst"},
		},
		{
			name: "rate limit zero but disabled",
			mutate: func(c *AppConfig) {
				c.RateLimit = RateLimitConfig{}
			},
		},
		{
			name: "tracing bad exporter and rate",
			mutate: func(c *AppConfig) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "zipkin"
				c.Tracing.SamplingRate = 2
			},
			fields: []string{"tracing.exporter", "tracing.samplingRate"},
		},
		{name: "negative gate wait", mutate: func(c *AppConfig) { c.Exchange.GateMaxWait = -1 }, fields: []string{"exchange.gateMaxWait"}},
		{name: "autostart without path", mutate: func(c *AppConfig) { c.Preset.Autostart = true }, fields: []string{"preset.autostart"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if len(tt.fields) == 0 {
				require.NoError(t, err)
				return
			}
			var verr validate.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.fields, verr.Fields())
		})
	}
}
