// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ManuGH/tixsim/internal/log"
	"github.com/ManuGH/tixsim/internal/metrics"
	"github.com/ManuGH/tixsim/internal/preset"
	"github.com/oapi-codegen/runtime"
)

const maxStartBody = 64 << 10

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := decodeStrict(w, r, &req); err != nil {
		metrics.RecordLifecycleRequest("start", "rejected")
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Debug().
			Err(err).
			Str(log.FieldEvent, "api.start.bad_body").
			Msg("rejected start body")
		writeMessage(w, http.StatusBadRequest, msgInvalidConfig, "body")
		return
	}

	runID, err := s.ctl.Start(r.Context(), req.runConfig())
	metrics.RecordLifecycleRequest("start", outcomeLabel(err))
	if err != nil {
		writeExchangeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StartResponse{Message: msgStarted, RunID: runID})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	err := s.ctl.Stop(r.Context())
	metrics.RecordLifecycleRequest("stop", outcomeLabel(err))
	if err != nil {
		writeExchangeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, msgStopped)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	err := s.ctl.Reset(r.Context())
	metrics.RecordLifecycleRequest("reset", outcomeLabel(err))
	if err != nil {
		writeExchangeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, msgReset)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var tail *int
	if err := runtime.BindQueryParameter("form", true, false, "tail", r.URL.Query(), &tail); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidTail)
		return
	}
	n := -1
	if tail != nil {
		if *tail < 0 {
			writeMessage(w, http.StatusBadRequest, msgInvalidTail)
			return
		}
		n = *tail
	}
	writeJSON(w, http.StatusOK, newStatusResponse(s.reporter.Status(n)))
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	p, err := s.presets.Load()
	if errors.Is(err, preset.ErrNoPreset) {
		writeMessage(w, http.StatusNotFound, msgNoPreset)
		return
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str(log.FieldEvent, "api.preset.load_failed").
			Str(log.FieldRequestID, log.RequestIDFromContext(r.Context())).
			Msg("failed to load preset")
		writeMessage(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, PresetResponse{
		SavedAt: p.SavedAt,
		RunID:   p.RunID,
		Config:  startRequestFrom(p.Config),
	})
}

// decodeStrict decodes a single JSON object, rejecting unknown fields and
// trailing data.
func decodeStrict(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxStartBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return errors.New("decode body: trailing data")
	}
	return nil
}
