package exchange

import (
	"fmt"
	"time"

	"github.com/ManuGH/tixsim/internal/validate"
)

// RunConfig is the validated input of Controller.Start. Rates are tick
// intervals in milliseconds.
type RunConfig struct {
	Vendors               int `json:"vendors" yaml:"vendors"`
	Customers             int `json:"customers" yaml:"customers"`
	Total                 int `json:"total" yaml:"total"`
	Capacity              int `json:"capacity" yaml:"capacity"`
	TicketReleaseRate     int `json:"ticketReleaseRate" yaml:"ticketReleaseRate"`
	CustomerRetrievalRate int `json:"customerRetrievalRate" yaml:"customerRetrievalRate"`
}

// Validate checks every field and reports all failures at once. maxActors
// bounds vendors and customers individually; zero disables the bound.
func (c RunConfig) Validate(maxActors int) error {
	v := validate.New()
	v.Positive("vendors", c.Vendors)
	v.Positive("customers", c.Customers)
	v.Positive("total", c.Total)
	v.Positive("capacity", c.Capacity)
	v.Positive("ticketReleaseRate", c.TicketReleaseRate)
	v.Positive("customerRetrievalRate", c.CustomerRetrievalRate)
	if maxActors > 0 {
		v.Max("vendors", c.Vendors, maxActors)
		v.Max("customers", c.Customers, maxActors)
	}
	if err := v.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return nil
}

// ReleaseInterval is the vendor tick period.
func (c RunConfig) ReleaseInterval() time.Duration {
	return time.Duration(c.TicketReleaseRate) * time.Millisecond
}

// RetrievalInterval is the customer tick period.
func (c RunConfig) RetrievalInterval() time.Duration {
	return time.Duration(c.CustomerRetrievalRate) * time.Millisecond
}
