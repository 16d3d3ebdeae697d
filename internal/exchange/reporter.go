package exchange

import (
	"strconv"

	"golang.org/x/sync/singleflight"
)

// Reporter serves read-only status views. Concurrent requests for the same
// tail share one copy of the log.
type Reporter struct {
	store *Store
	group singleflight.Group
}

// NewReporter returns a reporter over store.
func NewReporter(store *Store) *Reporter {
	return &Reporter{store: store}
}

// Status returns the latest snapshot limited to the last tail log lines;
// tail < 0 returns the whole log. The returned Log may be shared with other
// concurrent callers and must be treated as read-only.
func (r *Reporter) Status(tail int) Snapshot {
	if tail < 0 {
		tail = -1
	}
	v, _, _ := r.group.Do(strconv.Itoa(tail), func() (any, error) {
		return r.store.SnapshotTail(tail), nil
	})
	return v.(Snapshot)
}
