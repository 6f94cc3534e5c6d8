package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/fixer-backend/internal/model"
)

const serviceRequestColumns = `id, customer_id, service_type, title, description, location, urgency, status,
	budget_min, budget_max, preferred_date, images, created_at, updated_at`

func scanServiceRequest(s scanner) (*model.ServiceRequest, error) {
	var (
		r         model.ServiceRequest
		budgetMin sql.NullFloat64
		budgetMax sql.NullFloat64
		preferred sql.NullTime
	)
	err := s.Scan(&r.ID, &r.CustomerID, &r.ServiceType, &r.Title, &r.Description, &r.Location,
		&r.Urgency, &r.Status, &budgetMin, &budgetMax, &preferred, &r.Images, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	r.BudgetMin = floatPtr(budgetMin)
	r.BudgetMax = floatPtr(budgetMax)
	r.PreferredDate = timePtr(preferred)
	if r.Images == nil {
		r.Images = model.StringList{}
	}
	return &r, nil
}

// CreateServiceRequest inserts a request and populates its generated id
// and timestamps.
func (q *Queries) CreateServiceRequest(ctx context.Context, r *model.ServiceRequest) error {
	const query = `INSERT INTO service_requests
		(customer_id, service_type, title, description, location, urgency, status, budget_min, budget_max, preferred_date, images)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10, $11::jsonb)
		RETURNING id, created_at, updated_at`
	err := q.db.QueryRowContext(ctx, query,
		r.CustomerID, r.ServiceType, r.Title, r.Description, r.Location, r.Urgency, r.Status,
		nullable(r.BudgetMin), nullable(r.BudgetMax), nullable(r.PreferredDate), r.Images,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	return mapError(err)
}

func (q *Queries) GetServiceRequest(ctx context.Context, id string) (*model.ServiceRequest, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+serviceRequestColumns+` FROM service_requests WHERE id = $1`, id)
	return scanServiceRequest(row)
}

// LockServiceRequest reads the request with a row lock held until the
// transaction ends.  Every compound operation touching a request's quotes
// or bookings takes this lock first.
func (q *Queries) LockServiceRequest(ctx context.Context, id string) (*model.ServiceRequest, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+serviceRequestColumns+` FROM service_requests WHERE id = $1 FOR UPDATE`, id)
	return scanServiceRequest(row)
}

// UpdateServiceRequest writes the customer-editable fields.  Status is
// changed only through SetServiceRequestStatus.
func (q *Queries) UpdateServiceRequest(ctx context.Context, r *model.ServiceRequest) error {
	const query = `UPDATE service_requests
		SET service_type = $2, title = $3, description = $4, location = $5::jsonb, urgency = $6,
		    budget_min = $7, budget_max = $8, preferred_date = $9, images = $10::jsonb, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := q.db.QueryRowContext(ctx, query,
		r.ID, r.ServiceType, r.Title, r.Description, r.Location, r.Urgency,
		nullable(r.BudgetMin), nullable(r.BudgetMax), nullable(r.PreferredDate), r.Images,
	).Scan(&r.UpdatedAt)
	return mapError(err)
}

func (q *Queries) SetServiceRequestStatus(ctx context.Context, id string, status model.RequestStatus) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE service_requests SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return expectOne(res, err)
}

func (q *Queries) DeleteServiceRequest(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM service_requests WHERE id = $1`, id)
	return expectOne(res, err)
}

// ListServiceRequests returns one page of requests matching f, newest
// first, together with the total number of matches.
func (q *Queries) ListServiceRequests(ctx context.Context, f model.ServiceRequestFilter, p model.Page) ([]model.ServiceRequest, int64, error) {
	var w whereBuilder
	if f.CustomerID != "" {
		w.eq("customer_id", f.CustomerID)
	}
	if f.Status != "" {
		w.eq("status", f.Status)
	}
	if f.ServiceType != "" {
		w.eq("service_type", f.ServiceType)
	}
	if f.Urgency != "" {
		w.eq("urgency", f.Urgency)
	}
	if f.City != "" {
		w.addf("LOWER(location->>'city') = LOWER($%d)", f.City)
	}

	var total int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM service_requests`+w.clause(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	suffix, args := w.page(p.Limit, p.Offset())
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+serviceRequestColumns+` FROM service_requests`+w.clause()+` ORDER BY created_at DESC, id`+suffix, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.ServiceRequest, 0, p.Limit)
	for rows.Next() {
		r, err := scanServiceRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
