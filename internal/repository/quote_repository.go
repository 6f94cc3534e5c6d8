package repository

import (
	"context"
	"time"

	"github.com/iliyamo/fixer-backend/internal/model"
)

const quoteColumns = `id, service_request_id, provider_id, amount, COALESCE(notes, ''), status, valid_until, created_at, updated_at`

func scanQuote(s scanner) (*model.Quote, error) {
	var qt model.Quote
	err := s.Scan(&qt.ID, &qt.ServiceRequestID, &qt.ProviderID, &qt.Amount, &qt.Notes, &qt.Status,
		&qt.ValidUntil, &qt.CreatedAt, &qt.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &qt, nil
}

// CreateQuote inserts a quote.  A second quote by the same provider on the
// same request violates UNIQUE(service_request_id, provider_id) and is
// reported as ErrDuplicate.
func (q *Queries) CreateQuote(ctx context.Context, qt *model.Quote) error {
	const query = `INSERT INTO quotes (service_request_id, provider_id, amount, notes, status, valid_until)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		RETURNING id, created_at, updated_at`
	err := q.db.QueryRowContext(ctx, query,
		qt.ServiceRequestID, qt.ProviderID, qt.Amount, qt.Notes, qt.Status, qt.ValidUntil,
	).Scan(&qt.ID, &qt.CreatedAt, &qt.UpdatedAt)
	return mapError(err)
}

func (q *Queries) GetQuote(ctx context.Context, id string) (*model.Quote, error) {
	return scanQuote(q.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
}

func (q *Queries) LockQuote(ctx context.Context, id string) (*model.Quote, error) {
	return scanQuote(q.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1 FOR UPDATE`, id))
}

// UpdateQuote writes the provider-editable fields of a quote.
func (q *Queries) UpdateQuote(ctx context.Context, qt *model.Quote) error {
	const query = `UPDATE quotes SET amount = $2, notes = NULLIF($3, ''), valid_until = $4, updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	err := q.db.QueryRowContext(ctx, query, qt.ID, qt.Amount, qt.Notes, qt.ValidUntil).Scan(&qt.UpdatedAt)
	return mapError(err)
}

// SetQuoteStatus changes a quote's status.  Accepting a second quote on the
// same request trips the partial unique index and returns ErrDuplicate.
func (q *Queries) SetQuoteStatus(ctx context.Context, id string, status model.QuoteStatus) error {
	res, err := q.db.ExecContext(ctx, `UPDATE quotes SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return expectOne(res, err)
}

// RejectSiblingQuotes rejects every other pending quote on the request
// and returns how many were rejected.
func (q *Queries) RejectSiblingQuotes(ctx context.Context, requestID, acceptedID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE quotes SET status = 'rejected', updated_at = NOW()
		WHERE service_request_id = $1 AND id <> $2 AND status = 'pending'`, requestID, acceptedID)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteQuote(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM quotes WHERE id = $1`, id)
	return expectOne(res, err)
}

func (q *Queries) ListQuotes(ctx context.Context, f model.QuoteFilter, p model.Page) ([]model.Quote, int64, error) {
	var w whereBuilder
	if f.ServiceRequestID != "" {
		w.eq("service_request_id", f.ServiceRequestID)
	}
	if f.ProviderID != "" {
		w.eq("provider_id", f.ProviderID)
	}
	if f.Status != "" {
		w.eq("status", f.Status)
	}

	var total int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes`+w.clause(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	suffix, args := w.page(p.Limit, p.Offset())
	rows, err := q.db.QueryContext(ctx, `SELECT `+quoteColumns+` FROM quotes`+w.clause()+` ORDER BY amount ASC, created_at`+suffix, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Quote, 0, p.Limit)
	for rows.Next() {
		qt, err := scanQuote(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *qt)
	}
	return out, total, rows.Err()
}

// MarkExpiredQuotes flips pending quotes whose valid_until has passed to
// expired.  It is housekeeping only; accept/reject check valid_until
// themselves.
func (q *Queries) MarkExpiredQuotes(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE quotes SET status = 'expired', updated_at = NOW()
		WHERE status = 'pending' AND valid_until < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
