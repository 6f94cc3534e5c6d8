package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/fixer-backend/internal/lifecycle"
	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/repository"
)

// ---- providers ----

func (v *view) CreateProvider(_ context.Context, p *model.ServiceProvider) error {
	defer v.lock()()
	if _, ok := v.db().providers[p.UserID]; ok {
		return repository.ErrDuplicate
	}
	now := v.stamp()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.ServiceTypes == nil {
		p.ServiceTypes = model.StringList{}
	}
	v.db().providers[p.UserID] = *p
	return nil
}

func (v *view) GetProvider(_ context.Context, userID string) (*model.ServiceProvider, error) {
	defer v.lock()()
	p, ok := v.db().providers[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (v *view) LockProvider(ctx context.Context, userID string) (*model.ServiceProvider, error) {
	return v.GetProvider(ctx, userID)
}

func (v *view) UpdateProvider(_ context.Context, p *model.ServiceProvider) error {
	defer v.lock()()
	cur, ok := v.db().providers[p.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.BusinessName = p.BusinessName
	cur.Description = p.Description
	cur.ServiceTypes = p.ServiceTypes
	cur.ServiceArea = p.ServiceArea
	cur.HourlyRate = p.HourlyRate
	cur.UpdatedAt = v.stamp()
	p.UpdatedAt = cur.UpdatedAt
	v.db().providers[p.UserID] = cur
	return nil
}

func (v *view) SetProviderVerification(_ context.Context, userID string, status model.VerificationStatus) error {
	defer v.lock()()
	p, ok := v.db().providers[userID]
	if !ok {
		return repository.ErrNotFound
	}
	p.VerificationStatus = status
	p.UpdatedAt = v.stamp()
	v.db().providers[userID] = p
	return nil
}

func (v *view) ListProviders(_ context.Context, f model.ProviderFilter, p model.Page) ([]model.ServiceProvider, int64, error) {
	defer v.lock()()
	var out []model.ServiceProvider
	for _, sp := range v.db().providers {
		if f.VerificationStatus != "" && sp.VerificationStatus != f.VerificationStatus {
			continue
		}
		if f.ServiceType != "" && !containsString(sp.ServiceTypes, f.ServiceType) {
			continue
		}
		if f.City != "" && (sp.ServiceArea == nil || !strings.EqualFold(sp.ServiceArea.City, f.City)) {
			continue
		}
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].BusinessName < out[j].BusinessName
	})
	items, total := paginate(out, p)
	return items, total, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ---- service requests ----

func (v *view) CreateServiceRequest(_ context.Context, r *model.ServiceRequest) error {
	defer v.lock()()
	if !r.BudgetValid() {
		return errCheckViolation
	}
	now := v.stamp()
	r.ID = newID()
	r.CreatedAt, r.UpdatedAt = now, now
	if r.Images == nil {
		r.Images = model.StringList{}
	}
	v.db().requests[r.ID] = *r
	return nil
}

func (v *view) GetServiceRequest(_ context.Context, id string) (*model.ServiceRequest, error) {
	defer v.lock()()
	r, ok := v.db().requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r.Images = append(model.StringList{}, r.Images...)
	return &r, nil
}

func (v *view) LockServiceRequest(ctx context.Context, id string) (*model.ServiceRequest, error) {
	return v.GetServiceRequest(ctx, id)
}

func (v *view) UpdateServiceRequest(_ context.Context, r *model.ServiceRequest) error {
	defer v.lock()()
	cur, ok := v.db().requests[r.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if !r.BudgetValid() {
		return errCheckViolation
	}
	cur.ServiceType = r.ServiceType
	cur.Title = r.Title
	cur.Description = r.Description
	cur.Location = r.Location
	cur.Urgency = r.Urgency
	cur.BudgetMin = r.BudgetMin
	cur.BudgetMax = r.BudgetMax
	cur.PreferredDate = r.PreferredDate
	cur.Images = append(model.StringList{}, r.Images...)
	cur.UpdatedAt = v.stamp()
	r.UpdatedAt = cur.UpdatedAt
	v.db().requests[r.ID] = cur
	return nil
}

func (v *view) SetServiceRequestStatus(_ context.Context, id string, status model.RequestStatus) error {
	defer v.lock()()
	r, ok := v.db().requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = v.stamp()
	v.db().requests[id] = r
	return nil
}

func (v *view) DeleteServiceRequest(_ context.Context, id string) error {
	defer v.lock()()
	if _, ok := v.db().requests[id]; !ok {
		return repository.ErrNotFound
	}
	delete(v.db().requests, id)
	for qid, q := range v.db().quotes {
		if q.ServiceRequestID == id {
			delete(v.db().quotes, qid)
		}
	}
	return nil
}

func (v *view) ListServiceRequests(_ context.Context, f model.ServiceRequestFilter, p model.Page) ([]model.ServiceRequest, int64, error) {
	defer v.lock()()
	var out []model.ServiceRequest
	for _, r := range v.db().requests {
		if f.CustomerID != "" && r.CustomerID != f.CustomerID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.ServiceType != "" && r.ServiceType != f.ServiceType {
			continue
		}
		if f.Urgency != "" && r.Urgency != f.Urgency {
			continue
		}
		if f.City != "" && !strings.EqualFold(r.Location.City, f.City) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	items, total := paginate(out, p)
	return items, total, nil
}

// ---- quotes ----

func (v *view) CreateQuote(_ context.Context, q *model.Quote) error {
	defer v.lock()()
	for _, existing := range v.db().quotes {
		if existing.ServiceRequestID == q.ServiceRequestID && existing.ProviderID == q.ProviderID {
			return repository.ErrDuplicate
		}
	}
	now := v.stamp()
	q.ID = newID()
	q.CreatedAt, q.UpdatedAt = now, now
	v.db().quotes[q.ID] = *q
	return nil
}

func (v *view) GetQuote(_ context.Context, id string) (*model.Quote, error) {
	defer v.lock()()
	q, ok := v.db().quotes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

func (v *view) LockQuote(ctx context.Context, id string) (*model.Quote, error) {
	return v.GetQuote(ctx, id)
}

func (v *view) UpdateQuote(_ context.Context, q *model.Quote) error {
	defer v.lock()()
	cur, ok := v.db().quotes[q.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Amount = q.Amount
	cur.Notes = q.Notes
	cur.ValidUntil = q.ValidUntil
	cur.UpdatedAt = v.stamp()
	q.UpdatedAt = cur.UpdatedAt
	v.db().quotes[q.ID] = cur
	return nil
}

func (v *view) SetQuoteStatus(_ context.Context, id string, status model.QuoteStatus) error {
	defer v.lock()()
	q, ok := v.db().quotes[id]
	if !ok {
		return repository.ErrNotFound
	}
	if status == model.QuoteAccepted {
		for oid, other := range v.db().quotes {
			if oid != id && other.ServiceRequestID == q.ServiceRequestID && other.Status == model.QuoteAccepted {
				return repository.ErrDuplicate
			}
		}
	}
	q.Status = status
	q.UpdatedAt = v.stamp()
	v.db().quotes[id] = q
	return nil
}

func (v *view) RejectSiblingQuotes(_ context.Context, requestID, acceptedID string) (int64, error) {
	defer v.lock()()
	var n int64
	now := v.stamp()
	for id, q := range v.db().quotes {
		if q.ServiceRequestID == requestID && id != acceptedID && q.Status == model.QuotePending {
			q.Status = model.QuoteRejected
			q.UpdatedAt = now
			v.db().quotes[id] = q
			n++
		}
	}
	return n, nil
}

func (v *view) DeleteQuote(_ context.Context, id string) error {
	defer v.lock()()
	if _, ok := v.db().quotes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(v.db().quotes, id)
	return nil
}

func (v *view) ListQuotes(_ context.Context, f model.QuoteFilter, p model.Page) ([]model.Quote, int64, error) {
	defer v.lock()()
	var out []model.Quote
	for _, q := range v.db().quotes {
		if f.ServiceRequestID != "" && q.ServiceRequestID != f.ServiceRequestID {
			continue
		}
		if f.ProviderID != "" && q.ProviderID != f.ProviderID {
			continue
		}
		if f.Status != "" && q.Status != f.Status {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount < out[j].Amount
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	items, total := paginate(out, p)
	return items, total, nil
}

func (v *view) MarkExpiredQuotes(_ context.Context, now time.Time) (int64, error) {
	defer v.lock()()
	var n int64
	for id, q := range v.db().quotes {
		if q.Status == model.QuotePending && q.ValidUntil.Before(now) {
			q.Status = model.QuoteExpired
			q.UpdatedAt = v.stamp()
			v.db().quotes[id] = q
			n++
		}
	}
	return n, nil
}

// ---- bookings ----

func (v *view) CreateBooking(_ context.Context, b *model.Booking) error {
	defer v.lock()()
	for _, existing := range v.db().bookings {
		if existing.QuoteID == b.QuoteID {
			return repository.ErrDuplicate
		}
	}
	now := v.stamp()
	b.ID = newID()
	b.CreatedAt, b.UpdatedAt = now, now
	v.db().bookings[b.ID] = *b
	return nil
}

func (v *view) GetBooking(_ context.Context, id string) (*model.Booking, error) {
	defer v.lock()()
	b, ok := v.db().bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (v *view) LockBooking(ctx context.Context, id string) (*model.Booking, error) {
	return v.GetBooking(ctx, id)
}

func (v *view) GetBookingByQuote(_ context.Context, quoteID string) (*model.Booking, error) {
	defer v.lock()()
	for _, b := range v.db().bookings {
		if b.QuoteID == quoteID {
			return &b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (v *view) SetBookingStatus(_ context.Context, id string, status model.BookingStatus) error {
	defer v.lock()()
	b, ok := v.db().bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = v.stamp()
	v.db().bookings[id] = b
	return nil
}

func (v *view) HasBookingConflict(_ context.Context, providerID string, start time.Time, d time.Duration) (bool, error) {
	defer v.lock()()
	for _, b := range v.db().bookings {
		if b.ProviderID == providerID && lifecycle.BookingOverlaps(&b, start, d) {
			return true, nil
		}
	}
	return false, nil
}

func (v *view) ListBookings(_ context.Context, f model.BookingFilter, p model.Page) ([]model.Booking, int64, error) {
	defer v.lock()()
	var out []model.Booking
	for _, b := range v.db().bookings {
		if f.CustomerID != "" && b.CustomerID != f.CustomerID {
			continue
		}
		if f.ProviderID != "" && b.ProviderID != f.ProviderID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.From != nil && b.ScheduledTime.Before(*f.From) {
			continue
		}
		if f.To != nil && !b.ScheduledTime.Before(*f.To) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledTime.Equal(out[j].ScheduledTime) {
			return out[i].ScheduledTime.Before(out[j].ScheduledTime)
		}
		return out[i].ID < out[j].ID
	})
	items, total := paginate(out, p)
	return items, total, nil
}
