package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/fixer-backend/internal/model"
)

const providerColumns = `user_id, business_name, COALESCE(description, ''), service_types, service_area, hourly_rate,
	verification_status, rating, created_at, updated_at`

func scanProvider(s scanner) (*model.ServiceProvider, error) {
	var (
		p    model.ServiceProvider
		area []byte
		rate sql.NullFloat64
	)
	err := s.Scan(&p.UserID, &p.BusinessName, &p.Description, &p.ServiceTypes, &area, &rate,
		&p.VerificationStatus, &p.Rating, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if len(area) > 0 {
		var loc model.Location
		if err := loc.Scan(area); err != nil {
			return nil, err
		}
		p.ServiceArea = &loc
	}
	p.HourlyRate = floatPtr(rate)
	if p.ServiceTypes == nil {
		p.ServiceTypes = model.StringList{}
	}
	return &p, nil
}

// CreateProvider inserts the provider profile of an existing provider
// user.  A second profile for the same user returns ErrDuplicate.
func (q *Queries) CreateProvider(ctx context.Context, p *model.ServiceProvider) error {
	const query = `INSERT INTO service_providers
		(user_id, business_name, description, service_types, service_area, hourly_rate, verification_status)
		VALUES ($1, $2, NULLIF($3, ''), $4::jsonb, $5::jsonb, $6, $7)
		RETURNING rating, created_at, updated_at`
	err := q.db.QueryRowContext(ctx, query,
		p.UserID, p.BusinessName, p.Description, p.ServiceTypes, nullable(p.ServiceArea), nullable(p.HourlyRate),
		p.VerificationStatus,
	).Scan(&p.Rating, &p.CreatedAt, &p.UpdatedAt)
	return mapError(err)
}

func (q *Queries) GetProvider(ctx context.Context, userID string) (*model.ServiceProvider, error) {
	return scanProvider(q.db.QueryRowContext(ctx, `SELECT `+providerColumns+` FROM service_providers WHERE user_id = $1`, userID))
}

// LockProvider reads the provider with a row lock.  Booking creation holds
// this lock across its conflict check and insert, which serialises
// bookings per provider.
func (q *Queries) LockProvider(ctx context.Context, userID string) (*model.ServiceProvider, error) {
	return scanProvider(q.db.QueryRowContext(ctx, `SELECT `+providerColumns+` FROM service_providers WHERE user_id = $1 FOR UPDATE`, userID))
}

func (q *Queries) UpdateProvider(ctx context.Context, p *model.ServiceProvider) error {
	const query = `UPDATE service_providers
		SET business_name = $2, description = NULLIF($3, ''), service_types = $4::jsonb, service_area = $5::jsonb,
		    hourly_rate = $6, updated_at = NOW()
		WHERE user_id = $1 RETURNING updated_at`
	err := q.db.QueryRowContext(ctx, query,
		p.UserID, p.BusinessName, p.Description, p.ServiceTypes, nullable(p.ServiceArea), nullable(p.HourlyRate),
	).Scan(&p.UpdatedAt)
	return mapError(err)
}

func (q *Queries) SetProviderVerification(ctx context.Context, userID string, status model.VerificationStatus) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE service_providers SET verification_status = $2, updated_at = NOW() WHERE user_id = $1`, userID, status)
	return expectOne(res, err)
}

func (q *Queries) ListProviders(ctx context.Context, f model.ProviderFilter, p model.Page) ([]model.ServiceProvider, int64, error) {
	var w whereBuilder
	if f.VerificationStatus != "" {
		w.eq("verification_status", f.VerificationStatus)
	}
	if f.ServiceType != "" {
		w.addf("service_types ? $%d", f.ServiceType)
	}
	if f.City != "" {
		w.addf("LOWER(service_area->>'city') = LOWER($%d)", f.City)
	}

	var total int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM service_providers`+w.clause(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	suffix, args := w.page(p.Limit, p.Offset())
	rows, err := q.db.QueryContext(ctx, `SELECT `+providerColumns+` FROM service_providers`+w.clause()+` ORDER BY rating DESC, business_name`+suffix, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.ServiceProvider, 0, p.Limit)
	for rows.Next() {
		sp, err := scanProvider(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *sp)
	}
	return out, total, rows.Err()
}
