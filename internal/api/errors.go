// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/tixsim/internal/exchange"
	"github.com/ManuGH/tixsim/internal/validate"
)

// User facing messages.
const (
	msgStarted        = "System started."
	msgStopped        = "System stopped successfully."
	msgReset          = "System reset."
	msgAlreadyRunning = "System is already running."
	msgAlreadyStopped = "System is already stopped."
	msgInvalidConfig  = "Invalid configuration values."
	msgInternal       = "Internal server error."
	msgNoPreset       = "No preset saved."
	msgInvalidTail    = "Invalid tail parameter."
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string, details ...string) {
	writeJSON(w, code, MessageResponse{Message: msg, Details: details})
}

// writeExchangeError maps controller errors to HTTP. The three user errors
// answer 400; anything else is a server fault.
func writeExchangeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exchange.ErrAlreadyRunning):
		writeMessage(w, http.StatusBadRequest, msgAlreadyRunning)
	case errors.Is(err, exchange.ErrAlreadyStopped):
		writeMessage(w, http.StatusBadRequest, msgAlreadyStopped)
	case errors.Is(err, exchange.ErrInvalidConfiguration):
		var verr validate.ValidationError
		if errors.As(err, &verr) {
			writeMessage(w, http.StatusBadRequest, msgInvalidConfig, verr.Fields()...)
			return
		}
		writeMessage(w, http.StatusBadRequest, msgInvalidConfig)
	default:
		writeMessage(w, http.StatusInternalServerError, msgInternal)
	}
}

// outcomeLabel classifies err for the lifecycle request counter.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case exchange.IsUserError(err):
		return "rejected"
	default:
		return "error"
	}
}
