package model

import "time"

// Quote is a provider's priced bid against one service request.
type Quote struct {
	ID               string      `json:"id"`
	ServiceRequestID string      `json:"service_request_id"`
	ProviderID       string      `json:"provider_id"`
	Amount           float64     `json:"amount"`
	Notes            string      `json:"notes,omitempty"`
	Status           QuoteStatus `json:"status"`
	ValidUntil       time.Time   `json:"valid_until"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// ExpiredAt reports whether the quote can no longer be acted on at now.
// A quote is still valid at the exact valid_until instant.
func (q *Quote) ExpiredAt(now time.Time) bool {
	return now.After(q.ValidUntil)
}

// QuoteFilter holds the supported quote list filters.
type QuoteFilter struct {
	ServiceRequestID string
	ProviderID       string
	Status           QuoteStatus
}
