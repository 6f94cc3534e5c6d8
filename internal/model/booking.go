package model

import "time"

// DefaultBookingDuration is the calendar slot a booking occupies when the
// caller does not say otherwise.
const DefaultBookingDuration = 60 * time.Minute

// Booking is the fulfilment contract created from an accepted quote.  The
// provider and customer are denormalised onto the row for querying.
type Booking struct {
	ID               string        `json:"id"`
	ServiceRequestID string        `json:"service_request_id"`
	QuoteID          string        `json:"quote_id"`
	ProviderID       string        `json:"provider_id"`
	CustomerID       string        `json:"customer_id"`
	ScheduledTime    time.Time     `json:"scheduled_time"`
	DurationMinutes  int           `json:"duration_minutes"`
	Status           BookingStatus `json:"status"`
	TotalAmount      float64       `json:"total_amount"`
	Notes            string        `json:"notes,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Duration returns the booked slot length.
func (b *Booking) Duration() time.Duration {
	return time.Duration(b.DurationMinutes) * time.Minute
}

// End returns the exclusive end of the booked slot.
func (b *Booking) End() time.Time {
	return b.ScheduledTime.Add(b.Duration())
}

// BookingFilter holds the supported booking list filters.
type BookingFilter struct {
	CustomerID string
	ProviderID string
	Status     BookingStatus
	From       *time.Time
	To         *time.Time
}
