// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/tixsim/internal/config"
	"github.com/ManuGH/tixsim/internal/log"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		ListenAddr:      "127.0.0.1:0",
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		IdleTimeout:     10 * time.Second,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: 2 * time.Second,
	}
}

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, body)
	})
}

// startManager runs mgr.Start in the background and waits for both listeners.
func startManager(t *testing.T, mgr Manager) (*manager, context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- mgr.Start(ctx) }()

	m := mgr.(*manager)
	select {
	case <-m.listening:
	case err := <-errCh:
		cancel()
		t.Fatalf("Start() returned early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("listeners not ready")
	}
	return m, cancel, errCh
}

func get(t *testing.T, addr net.Addr, path string) string {
	t.Helper()
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + addr.String() + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewManager_RequiresDeps(t *testing.T) {
	_, err := NewManager(testServerConfig(), Deps{Logger: log.WithComponent("test")})
	require.ErrorIs(t, err, ErrMissingAPIHandler)

	_, err = NewManager(testServerConfig(), Deps{
		Logger:     zerolog.New(io.Discard).Level(zerolog.Disabled),
		APIHandler: okHandler("ok"),
	})
	require.ErrorIs(t, err, ErrMissingLogger)
}

func TestManager_ServesAPIAndMetrics(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mgr, err := NewManager(testServerConfig(), Deps{
		Logger:         log.WithComponent("test"),
		APIHandler:     okHandler("api"),
		MetricsHandler: okHandler("metrics"),
		MetricsAddr:    "127.0.0.1:0",
	})
	require.NoError(t, err)

	m, cancel, errCh := startManager(t, mgr)
	assert.Equal(t, "api", get(t, m.apiAddr, "/"))
	assert.Equal(t, "metrics", get(t, m.metricsAddr, "/"))

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after cancellation")
	}
}

func TestManager_MetricsDisabledWithoutAddr(t *testing.T) {
	mgr, err := NewManager(testServerConfig(), Deps{
		Logger:         log.WithComponent("test"),
		APIHandler:     okHandler("api"),
		MetricsHandler: okHandler("metrics"),
	})
	require.NoError(t, err)

	m, cancel, errCh := startManager(t, mgr)
	assert.Nil(t, m.metricsServer)
	cancel()
	require.NoError(t, <-errCh)
}

func TestManager_HooksRunLIFO(t *testing.T) {
	mgr, err := NewManager(testServerConfig(), Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: okHandler("api"),
	})
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string, err error) ShutdownHook {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return err
		}
	}
	boom := errors.New("boom")
	mgr.RegisterShutdownHook("telemetry", record("telemetry", nil))
	mgr.RegisterShutdownHook("exchange", record("exchange", boom))

	_, cancel, errCh := startManager(t, mgr)
	cancel()
	err = <-errCh
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "hook exchange")
	assert.Equal(t, []string{"exchange", "telemetry"}, order)

	// Later calls are no-ops.
	require.NoError(t, mgr.Shutdown(context.Background()))
	assert.Len(t, order, 2)
}

func TestManager_BindFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testServerConfig()
	cfg.ListenAddr = ln.Addr().String()
	mgr, err := NewManager(cfg, Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: okHandler("api"),
	})
	require.NoError(t, err)

	hookRan := false
	mgr.RegisterShutdownHook("exchange", func(context.Context) error {
		hookRan = true
		return nil
	})

	err = mgr.Start(t.Context())
	require.ErrorIs(t, err, ErrServerStartFailed)
	assert.True(t, hookRan)
}

func TestManager_ShutdownBeforeStart(t *testing.T) {
	mgr, err := NewManager(testServerConfig(), Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: okHandler("api"),
	})
	require.NoError(t, err)
	require.ErrorIs(t, mgr.Shutdown(context.Background()), ErrManagerNotStarted)
}

func TestManager_StartTwice(t *testing.T) {
	mgr, err := NewManager(testServerConfig(), Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: okHandler("api"),
	})
	require.NoError(t, err)

	_, cancel, errCh := startManager(t, mgr)
	require.ErrorIs(t, mgr.Start(context.Background()), ErrManagerStarted)
	cancel()
	require.NoError(t, <-errCh)
}
