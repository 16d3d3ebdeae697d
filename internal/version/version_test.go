package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	prevV, prevC, prevD := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = prevV, prevC, prevD })

	Version, Commit, Date = "v1.2.3", "abc1234", "2026-01-01"
	assert.Equal(t, "v1.2.3 (commit: abc1234, built: 2026-01-01)", String())
}
