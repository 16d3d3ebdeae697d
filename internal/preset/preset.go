// SPDX-License-Identifier: MIT

// Package preset persists the last accepted run configuration so an operator
// can inspect it or have the daemon start from it at boot.
package preset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ManuGH/tixsim/internal/exchange"
	xglog "github.com/ManuGH/tixsim/internal/log"
	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ErrNoPreset is returned by Load when nothing has been saved yet.
var ErrNoPreset = errors.New("no preset saved")

// Preset is the document stored on disk.
type Preset struct {
	SavedAt time.Time          `yaml:"savedAt" json:"savedAt"`
	RunID   string             `yaml:"runId,omitempty" json:"runId,omitempty"`
	Config  exchange.RunConfig `yaml:"config" json:"config"`
}

// Store reads and writes a single preset file. The most recently staged
// preset is also kept in memory, so Load reflects an accepted start before
// its file write has finished.
type Store struct {
	path string
	now  func() time.Time

	fileMu sync.Mutex

	memMu  sync.Mutex
	latest *Preset
}

// NewStore returns a Store for path. An empty path disables persistence:
// Save is a no-op and Load reports ErrNoPreset.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Path is the file the store writes.
func (s *Store) Path() string { return s.path }

// Enabled reports whether a path is configured.
func (s *Store) Enabled() bool { return s.path != "" }

// Save atomically replaces the preset file with cfg.
func (s *Store) Save(ctx context.Context, runID uuid.UUID, cfg exchange.RunConfig) error {
	if !s.Enabled() {
		return nil
	}
	return s.write(ctx, s.stage(runID, cfg))
}

// stage records cfg as the latest preset in memory and returns the document
// to write.
func (s *Store) stage(runID uuid.UUID, cfg exchange.RunConfig) Preset {
	doc := Preset{SavedAt: s.now().UTC(), Config: cfg}
	if runID != uuid.Nil {
		doc.RunID = runID.String()
	}
	s.memMu.Lock()
	s.latest = &doc
	s.memMu.Unlock()
	return doc
}

func (s *Store) write(ctx context.Context, doc Preset) error {
	logger := xglog.FromContext(ctx)

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode preset: %w", err)
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create preset dir: %w", err)
	}

	// renameio handles temp file creation, fsync, rename and cleanup.
	pending, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(0o600))
	if err != nil {
		return fmt.Errorf("create pending preset file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending preset file")
		}
	}()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write preset: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace preset file: %w", err)
	}
	return nil
}

// Load returns the latest staged preset, or reads the file when nothing was
// staged since the process started. The file is decoded strictly.
func (s *Store) Load() (Preset, error) {
	if !s.Enabled() {
		return Preset{}, ErrNoPreset
	}

	s.memMu.Lock()
	latest := s.latest
	s.memMu.Unlock()
	if latest != nil {
		return *latest, nil
	}

	s.fileMu.Lock()
	// #nosec G304 -- preset path comes from operator config
	data, err := os.ReadFile(s.path)
	s.fileMu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Preset{}, ErrNoPreset
		}
		return Preset{}, fmt.Errorf("read preset: %w", err)
	}

	var doc Preset
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Preset{}, ErrNoPreset
		}
		return Preset{}, fmt.Errorf("decode preset: %w", err)
	}
	return doc, nil
}
