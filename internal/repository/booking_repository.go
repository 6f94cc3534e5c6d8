package repository

import (
	"context"
	"time"

	"github.com/iliyamo/fixer-backend/internal/model"
)

const bookingColumns = `id, service_request_id, quote_id, provider_id, customer_id, scheduled_time, duration_minutes,
	status, total_amount, COALESCE(notes, ''), created_at, updated_at`

func scanBooking(s scanner) (*model.Booking, error) {
	var b model.Booking
	err := s.Scan(&b.ID, &b.ServiceRequestID, &b.QuoteID, &b.ProviderID, &b.CustomerID, &b.ScheduledTime,
		&b.DurationMinutes, &b.Status, &b.TotalAmount, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &b, nil
}

// CreateBooking inserts a booking.  quote_id is unique, so booking the
// same quote twice returns ErrDuplicate.
func (q *Queries) CreateBooking(ctx context.Context, b *model.Booking) error {
	const query = `INSERT INTO bookings
		(service_request_id, quote_id, provider_id, customer_id, scheduled_time, duration_minutes, status, total_amount, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))
		RETURNING id, created_at, updated_at`
	err := q.db.QueryRowContext(ctx, query,
		b.ServiceRequestID, b.QuoteID, b.ProviderID, b.CustomerID, b.ScheduledTime, b.DurationMinutes,
		b.Status, b.TotalAmount, b.Notes,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	return mapError(err)
}

func (q *Queries) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	return scanBooking(q.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

func (q *Queries) LockBooking(ctx context.Context, id string) (*model.Booking, error) {
	return scanBooking(q.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
}

func (q *Queries) GetBookingByQuote(ctx context.Context, quoteID string) (*model.Booking, error) {
	return scanBooking(q.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE quote_id = $1`, quoteID))
}

func (q *Queries) SetBookingStatus(ctx context.Context, id string, status model.BookingStatus) error {
	res, err := q.db.ExecContext(ctx, `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return expectOne(res, err)
}

// HasBookingConflict reports whether an active booking of the provider
// overlaps [start, start+d).  Each existing booking's window is built from
// its own duration_minutes, so the half-open overlap test is symmetric.
// Callers that need the answer to stay true until insert must hold the
// provider row lock (LockProvider) in the same transaction.
func (q *Queries) HasBookingConflict(ctx context.Context, providerID string, start time.Time, d time.Duration) (bool, error) {
	const query = `SELECT EXISTS (
		SELECT 1 FROM bookings
		WHERE provider_id = $1
		  AND status IN ('scheduled', 'in_progress')
		  AND scheduled_time < $3
		  AND scheduled_time + make_interval(mins => duration_minutes) > $2
	)`
	var exists bool
	err := q.db.QueryRowContext(ctx, query, providerID, start, start.Add(d)).Scan(&exists)
	return exists, err
}

func (q *Queries) ListBookings(ctx context.Context, f model.BookingFilter, p model.Page) ([]model.Booking, int64, error) {
	var w whereBuilder
	if f.CustomerID != "" {
		w.eq("customer_id", f.CustomerID)
	}
	if f.ProviderID != "" {
		w.eq("provider_id", f.ProviderID)
	}
	if f.Status != "" {
		w.eq("status", f.Status)
	}
	if f.From != nil {
		w.addf("scheduled_time >= $%d", *f.From)
	}
	if f.To != nil {
		w.addf("scheduled_time < $%d", *f.To)
	}

	var total int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`+w.clause(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	suffix, args := w.page(p.Limit, p.Offset())
	rows, err := q.db.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings`+w.clause()+` ORDER BY scheduled_time ASC, id`+suffix, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Booking, 0, p.Limit)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	return out, total, rows.Err()
}
