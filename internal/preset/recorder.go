// SPDX-License-Identifier: MIT

package preset

import (
	"context"
	"sync"

	"github.com/ManuGH/tixsim/internal/exchange"
	xglog "github.com/ManuGH/tixsim/internal/log"
	"github.com/ManuGH/tixsim/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Recorder saves every accepted run configuration. It is registered on the
// controller as an observer. RunStarted only stages the preset; the file is
// written by a background writer so a slow disk never holds up the
// controller. Only the newest pending preset is written.
type Recorder struct {
	exchange.NopObserver
	store  *Store
	logger zerolog.Logger

	mu   sync.Mutex
	next *Preset
	idle chan struct{} // nil while no writer runs; closed when it exits
}

// NewRecorder returns a Recorder writing to store.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store, logger: xglog.WithComponent("preset")}
}

// RunStarted stages cfg and schedules the write.
func (r *Recorder) RunStarted(runID uuid.UUID, cfg exchange.RunConfig) {
	if !r.store.Enabled() {
		return
	}
	doc := r.store.stage(runID, cfg)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = &doc
	if r.idle == nil {
		r.idle = make(chan struct{})
		go r.drain(r.idle)
	}
}

func (r *Recorder) drain(idle chan struct{}) {
	defer close(idle)
	for {
		r.mu.Lock()
		doc := r.next
		r.next = nil
		if doc == nil {
			r.idle = nil
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()
		r.write(*doc)
	}
}

func (r *Recorder) write(doc Preset) {
	ctx := xglog.ContextWithRunID(context.Background(), doc.RunID)
	err := r.store.write(ctx, doc)
	metrics.RecordPresetWrite(err)

	logger := xglog.WithContext(ctx, r.logger)
	if err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "preset.write_failed").
			Str("path", r.store.Path()).
			Msg("failed to save run preset")
		return
	}
	logger.Debug().
		Str(xglog.FieldEvent, "preset.saved").
		Str("path", r.store.Path()).
		Msg("run preset saved")
}

// Flush waits until every preset staged before the call is on disk.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	idle := r.idle
	r.mu.Unlock()
	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
