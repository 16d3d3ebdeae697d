package exchange

import "strconv"

// Ticket is an opaque ticket identity. IDs start at 1 and are never reused within a run.
type Ticket uint64

// Label renders the ticket the way it appears in the event log.
func (t Ticket) Label() string {
	return "Ticket " + strconv.FormatUint(uint64(t), 10)
}

func (t Ticket) String() string { return t.Label() }
