package api

import (
	"time"

	"github.com/ManuGH/tixsim/internal/exchange"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// StartRequest is the body of POST /start.
type StartRequest struct {
	Vendors               int `json:"vendors"`
	Customers             int `json:"customers"`
	Total                 int `json:"total"`
	Capacity              int `json:"capacity"`
	TicketReleaseRate     int `json:"ticketReleaseRate"`
	CustomerRetrievalRate int `json:"customerRetrievalRate"`
}

func (r StartRequest) runConfig() exchange.RunConfig {
	return exchange.RunConfig{
		Vendors:               r.Vendors,
		Customers:             r.Customers,
		Total:                 r.Total,
		Capacity:              r.Capacity,
		TicketReleaseRate:     r.TicketReleaseRate,
		CustomerRetrievalRate: r.CustomerRetrievalRate,
	}
}

// MessageResponse is the shape of every control answer and error.
type MessageResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// StartResponse acknowledges a started run.
type StartResponse struct {
	Message string             `json:"message"`
	RunID   openapi_types.UUID `json:"runId"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	TicketPool   int                 `json:"ticketPool"`
	Logs         []string            `json:"logs"`
	Status       string              `json:"status"`
	TicketsSold  int                 `json:"ticketsSold"`
	Waiting      int                 `json:"waiting"`
	Capacity     int                 `json:"capacity"`
	TotalTickets int                 `json:"totalTickets"`
	RunID        *openapi_types.UUID `json:"runId,omitempty"`
	Halted       string              `json:"halted,omitempty"`
}

// PresetResponse is the body of GET /preset.
type PresetResponse struct {
	SavedAt time.Time    `json:"savedAt"`
	RunID   string       `json:"runId,omitempty"`
	Config  StartRequest `json:"config"`
}

func newStatusResponse(snap exchange.Snapshot) StatusResponse {
	out := StatusResponse{
		TicketPool:   snap.PoolSize,
		Logs:         snap.Log,
		Status:       string(snap.Status),
		TicketsSold:  snap.Sold,
		Waiting:      snap.Waiting,
		Capacity:     snap.Capacity,
		TotalTickets: snap.Total,
		Halted:       snap.Halted,
	}
	if out.Logs == nil {
		out.Logs = []string{}
	}
	if snap.RunID != uuid.Nil {
		id := openapi_types.UUID(snap.RunID)
		out.RunID = &id
	}
	return out
}

func startRequestFrom(cfg exchange.RunConfig) StartRequest {
	return StartRequest{
		Vendors:               cfg.Vendors,
		Customers:             cfg.Customers,
		Total:                 cfg.Total,
		Capacity:              cfg.Capacity,
		TicketReleaseRate:     cfg.TicketReleaseRate,
		CustomerRetrievalRate: cfg.CustomerRetrievalRate,
	}
}
