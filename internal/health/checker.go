package health

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ManuGH/tixsim/internal/exchange"
)

// ExchangeChecker reports the exchange lifecycle. A run that halted on an
// invariant violation degrades the service until the next reset or start.
type ExchangeChecker struct {
	store *exchange.Store
}

// NewExchangeChecker creates a checker over store.
func NewExchangeChecker(store *exchange.Store) *ExchangeChecker {
	return &ExchangeChecker{store: store}
}

func (c *ExchangeChecker) Name() string {
	return "exchange"
}

func (c *ExchangeChecker) Check(_ context.Context) CheckResult {
	snap := c.store.SnapshotTail(0)
	if snap.Halted != "" {
		return CheckResult{
			Status:  StatusDegraded,
			Message: "last run halted",
			Error:   fmt.Sprintf("invariant violated: %s", snap.Halted),
		}
	}
	if snap.Status == exchange.StatusRunning {
		return CheckResult{
			Status:  StatusHealthy,
			Message: fmt.Sprintf("running (pool %d/%d, sold %d)", snap.PoolSize, snap.Capacity, snap.Sold),
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: string(snap.Status),
	}
}

// PresetChecker checks the run preset file. The preset is optional, so a
// missing file is healthy; an unreadable path is not.
type PresetChecker struct {
	path string
}

// NewPresetChecker creates a checker for the preset at path.
func NewPresetChecker(path string) *PresetChecker {
	return &PresetChecker{path: path}
}

func (c *PresetChecker) Name() string {
	return "preset"
}

func (c *PresetChecker) Check(_ context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
	}

	info, err := os.Stat(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return CheckResult{Status: StatusHealthy, Message: "no preset saved yet"}
		}
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if info.IsDir() {
		return CheckResult{Status: StatusUnhealthy, Error: "expected file, got directory", Message: c.path}
	}
	if info.Size() == 0 {
		return CheckResult{Status: StatusDegraded, Message: "preset file is empty"}
	}
	return CheckResult{Status: StatusHealthy, Message: "preset present"}
}
