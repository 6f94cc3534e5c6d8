// Package queue defines the marketplace events exchanged over RabbitMQ and
// the publisher and consumer that move them.
package queue

// Queue names.  Each event type is routed to its own durable queue through
// the default exchange.
const (
	QuoteAcceptedQueue        = "quote.accepted"
	BookingCreatedQueue       = "booking.created"
	BookingStatusChangedQueue = "booking.status_changed"
)

// Queues lists every queue the notifier consumes.
var Queues = []string{QuoteAcceptedQueue, BookingCreatedQueue, BookingStatusChangedQueue}

// Event is a payload that knows its destination queue.
type Event interface {
	Queue() string
}

// QuoteAcceptedEvent is published once a customer's acceptance commits.
// RejectedQuotes counts the sibling quotes closed by the same transaction.
type QuoteAcceptedEvent struct {
	QuoteID          string  `json:"quote_id"`
	ServiceRequestID string  `json:"service_request_id"`
	ProviderID       string  `json:"provider_id"`
	CustomerID       string  `json:"customer_id"`
	Amount           float64 `json:"amount"`
	RejectedQuotes   int64   `json:"rejected_quotes"`
	AcceptedAt       string  `json:"accepted_at"`
}

func (QuoteAcceptedEvent) Queue() string { return QuoteAcceptedQueue }

// BookingCreatedEvent carries the scheduled slot of a new booking.
type BookingCreatedEvent struct {
	BookingID        string  `json:"booking_id"`
	ServiceRequestID string  `json:"service_request_id"`
	QuoteID          string  `json:"quote_id"`
	ProviderID       string  `json:"provider_id"`
	CustomerID       string  `json:"customer_id"`
	ScheduledTime    string  `json:"scheduled_time"`
	DurationMinutes  int     `json:"duration_minutes"`
	TotalAmount      float64 `json:"total_amount"`
	CreatedAt        string  `json:"created_at"`
}

func (BookingCreatedEvent) Queue() string { return BookingCreatedQueue }

// BookingStatusChangedEvent records a booking transition and, when it
// cascaded, the service request's new status.
type BookingStatusChangedEvent struct {
	BookingID        string `json:"booking_id"`
	ServiceRequestID string `json:"service_request_id"`
	From             string `json:"from"`
	To               string `json:"to"`
	RequestStatus    string `json:"request_status,omitempty"`
	ChangedAt        string `json:"changed_at"`
}

func (BookingStatusChangedEvent) Queue() string { return BookingStatusChangedQueue }
