package model

// UserType is the role carried in the JWT userType claim.
type UserType string

const (
	UserCustomer UserType = "customer"
	UserProvider UserType = "provider"
	UserAdmin    UserType = "admin"
)

func (u UserType) Valid() bool {
	switch u {
	case UserCustomer, UserProvider, UserAdmin:
		return true
	}
	return false
}

// RequestStatus is the lifecycle status of a service request.
type RequestStatus string

const (
	RequestOpen       RequestStatus = "open"
	RequestQuoted     RequestStatus = "quoted"
	RequestBooked     RequestStatus = "booked"
	RequestInProgress RequestStatus = "in_progress"
	RequestCompleted  RequestStatus = "completed"
	RequestCancelled  RequestStatus = "cancelled"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestOpen, RequestQuoted, RequestBooked, RequestInProgress, RequestCompleted, RequestCancelled:
		return true
	}
	return false
}

// Urgency of a service request.
type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyMedium    Urgency = "medium"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyEmergency:
		return true
	}
	return false
}

// QuoteStatus is the status of a provider's bid.
type QuoteStatus string

const (
	QuotePending  QuoteStatus = "pending"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteRejected QuoteStatus = "rejected"
	QuoteExpired  QuoteStatus = "expired"
)

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuotePending, QuoteAccepted, QuoteRejected, QuoteExpired:
		return true
	}
	return false
}

// BookingStatus is the fulfilment status of a booking.
type BookingStatus string

const (
	BookingScheduled  BookingStatus = "scheduled"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingScheduled, BookingInProgress, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// Active reports whether the booking still occupies the provider's calendar.
func (s BookingStatus) Active() bool {
	return s == BookingScheduled || s == BookingInProgress
}

// VerificationStatus gates what a provider may do.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}
