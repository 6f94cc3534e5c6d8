package model

import "time"

// ServiceProvider is the business profile of a provider user.  It is
// keyed by the owning user's id, which is also the provider_id used on
// quotes, bookings and products.
type ServiceProvider struct {
	UserID             string             `json:"user_id"`
	BusinessName       string             `json:"business_name"`
	Description        string             `json:"description,omitempty"`
	ServiceTypes       StringList         `json:"service_types"`
	ServiceArea        *Location          `json:"service_area,omitempty"`
	HourlyRate         *float64           `json:"hourly_rate,omitempty"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	Rating             float64            `json:"rating"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Verified reports whether the provider may quote and list products.
func (p *ServiceProvider) Verified() bool {
	return p.VerificationStatus == VerificationVerified
}

// ProviderFilter holds the supported provider list filters.
type ProviderFilter struct {
	VerificationStatus VerificationStatus
	ServiceType        string
	City               string
}
