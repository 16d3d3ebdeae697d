// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ManuGH/tixsim/internal/api"
	"github.com/ManuGH/tixsim/internal/exchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDaemon(t *testing.T) string {
	t.Helper()
	ctl := exchange.NewController()
	srv := httptest.NewServer(api.New(api.Deps{Controller: ctl}, api.Options{}).Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = ctl.Shutdown(context.Background())
	})
	return srv.URL
}

func tixctl(t *testing.T, server string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(t.Context(), append([]string{"--server", server}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestLifecycle(t *testing.T) {
	server := newDaemon(t)

	code, out, errOut := tixctl(t, server, "start",
		"--vendors", "2", "--customers", "3", "--total", "10", "--capacity", "4",
		"--release-rate", "60000", "--retrieval-rate", "60000")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "System started. run=")

	code, _, errOut = tixctl(t, server, "start", "--total", "10", "--capacity", "4")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "System is already running.")

	code, out, _ = tixctl(t, server, "status")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "status=running pool=4/4 sold=0 waiting=6 total=10")

	code, out, _ = tixctl(t, server, "stop")
	require.Equal(t, 0, code)
	assert.Equal(t, "System stopped successfully.\n", out)

	code, out, _ = tixctl(t, server, "status", "--tail", "1")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "status=stopped")
	assert.True(t, strings.HasSuffix(out, "  System stopped.\n"), out)

	code, out, _ = tixctl(t, server, "reset")
	require.Equal(t, 0, code)
	assert.Equal(t, "System reset.\n", out)
}

func TestStart_InvalidConfigShowsDetails(t *testing.T) {
	server := newDaemon(t)
	code, _, errOut := tixctl(t, server, "start", "--vendors", "0", "--total", "5", "--capacity", "2")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "400 Invalid configuration values. (vendors)")
}

func TestWatch_StopsAfterCount(t *testing.T) {
	server := newDaemon(t)
	code, out, errOut := tixctl(t, server, "watch", "--interval", "10ms", "--count", "2")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, 2, strings.Count(out, "status=idle"))
}

func TestPreset_NotSaved(t *testing.T) {
	server := newDaemon(t)
	code, _, errOut := tixctl(t, server, "preset")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "404 No preset saved.")
}

func TestUsageErrors(t *testing.T) {
	code, _, errOut := tixctl(t, "http://127.0.0.1:0")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "Usage: tixctl")

	code, _, errOut = tixctl(t, "http://127.0.0.1:0", "explode")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown command "explode"`)

	code, _, _ = tixctl(t, "http://127.0.0.1:0", "status", "--bogus")
	assert.Equal(t, 2, code)
}

func TestVersionFlag(t *testing.T) {
	code, out, _ := tixctl(t, "http://127.0.0.1:0", "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "commit:")
}
