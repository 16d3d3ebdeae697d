package exchange

import "fmt"

// Role distinguishes producers from consumers.
type Role string

const (
	RoleVendor   Role = "vendor"
	RoleCustomer Role = "customer"
)

// Title is the capitalised role name used in event log lines.
func (r Role) Title() string {
	switch r {
	case RoleVendor:
		return "Vendor"
	case RoleCustomer:
		return "Customer"
	default:
		return string(r)
	}
}

// Reason explains why an attempt was rejected. Rejections are expected
// outcomes, not errors.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonNoSalesYet  Reason = "no_sales_yet"
	ReasonPoolFull    Reason = "pool_full"
	ReasonPoolEmpty   Reason = "pool_empty"
	ReasonAllReleased Reason = "all_released"
)

// Message is the human-readable rejection cause.
func (r Reason) Message() string {
	switch r {
	case ReasonNoSalesYet:
		return "No tickets have been bought yet."
	case ReasonPoolFull:
		return "Pool is full."
	case ReasonPoolEmpty:
		return "Pool is empty."
	case ReasonAllReleased:
		return "All tickets have been released."
	default:
		return ""
	}
}

// Outcome is the result of a single produce or consume attempt.
type Outcome struct {
	Role     Role
	ActorID  int
	Accepted bool
	Ticket   Ticket // zero when rejected
	Reason   Reason // ReasonNone when accepted
	Minted   bool   // freshly minted rather than taken from the backlog; never set after Initialize

	// Store counters right after the attempt.
	PoolSize int
	Waiting  int
	Sold     int
}

// Result is "accepted" or "rejected", used as a metric label.
func (o Outcome) Result() string {
	if o.Accepted {
		return "accepted"
	}
	return "rejected"
}

// LogLine renders the event log entry for this outcome.
func (o Outcome) LogLine() string {
	who := fmt.Sprintf("%s %d", o.Role.Title(), o.ActorID)
	switch {
	case o.Role == RoleVendor && o.Accepted:
		return fmt.Sprintf("%s added %s to the pool.", who, o.Ticket.Label())
	case o.Role == RoleVendor:
		return fmt.Sprintf("%s could not add a ticket: %s", who, o.Reason.Message())
	case o.Accepted:
		return fmt.Sprintf("%s removed %s from the pool.", who, o.Ticket.Label())
	default:
		return fmt.Sprintf("%s could not remove a ticket: %s", who, o.Reason.Message())
	}
}
