package model

import "time"

// ServiceRequest is a customer's posted job.  Location and Images are
// JSONB columns; the budget bounds are optional but ordered when both
// are present.
type ServiceRequest struct {
	ID            string        `json:"id"`
	CustomerID    string        `json:"customer_id"`
	ServiceType   string        `json:"service_type"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Location      Location      `json:"location"`
	Urgency       Urgency       `json:"urgency"`
	Status        RequestStatus `json:"status"`
	BudgetMin     *float64      `json:"budget_min,omitempty"`
	BudgetMax     *float64      `json:"budget_max,omitempty"`
	PreferredDate *time.Time    `json:"preferred_date,omitempty"`
	Images        StringList    `json:"images"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// BudgetValid reports whether the budget bounds are consistent.
func (r *ServiceRequest) BudgetValid() bool {
	return BudgetOrdered(r.BudgetMin, r.BudgetMax)
}

// AmountWithinBudget reports whether amount lies inside whichever budget
// bounds are set.
func (r *ServiceRequest) AmountWithinBudget(amount float64) bool {
	if r.BudgetMin != nil && amount < *r.BudgetMin {
		return false
	}
	if r.BudgetMax != nil && amount > *r.BudgetMax {
		return false
	}
	return true
}

// BudgetOrdered is true unless both bounds are set and min > max.
func BudgetOrdered(min, max *float64) bool {
	if min == nil || max == nil {
		return true
	}
	return *min <= *max
}

// ServiceRequestFilter holds the supported list filters.  Empty fields
// are ignored; set fields are AND-combined.
type ServiceRequestFilter struct {
	CustomerID  string
	Status      RequestStatus
	ServiceType string
	Urgency     Urgency
	City        string
}
