package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/fixer-backend/internal/apperror"
	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/queue"
	"github.com/iliyamo/fixer-backend/internal/repository"
)

const entityQuote = "quote"

// QuoteInput is the body of a create request.  ValidUntil defaults to the
// configured validity window when omitted.
type QuoteInput struct {
	ServiceRequestID string     `json:"service_request_id" validate:"required,uuid"`
	Amount           float64    `json:"amount" validate:"required,gt=0"`
	Notes            string     `json:"notes" validate:"max=2000"`
	ValidUntil       *time.Time `json:"valid_until"`
}

// QuotePatch is a partial update of a pending quote.
type QuotePatch struct {
	Amount     *float64   `json:"amount" validate:"omitempty,gt=0"`
	Notes      *string    `json:"notes" validate:"omitempty,max=2000"`
	ValidUntil *time.Time `json:"valid_until"`
}

// QuoteService guards quote creation, acceptance and expiry.
type QuoteService struct {
	*Deps
	validity time.Duration
}

func NewQuoteService(d *Deps, defaultValidity time.Duration) *QuoteService {
	if defaultValidity <= 0 {
		defaultValidity = 7 * 24 * time.Hour
	}
	return &QuoteService{Deps: d, validity: defaultValidity}
}

// Create submits a verified provider's bid on an open request.
func (s *QuoteService) Create(ctx context.Context, actor Actor, in QuoteInput) (*model.Quote, error) {
	if !actor.IsProvider() {
		return nil, apperror.Forbidden("only providers can submit quotes")
	}
	now := s.now()
	validUntil := now.Add(s.validity)
	if in.ValidUntil != nil {
		validUntil = in.ValidUntil.UTC()
	}
	if !validUntil.After(now) {
		return nil, apperror.Validation("valid_until must be in the future")
	}

	provider, err := s.Store.GetProvider(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Forbidden("create a provider profile before quoting")
		}
		return nil, mapErr(err, "provider")
	}
	if !provider.Verified() {
		return nil, apperror.Forbidden("provider is not verified")
	}

	q := &model.Quote{
		ServiceRequestID: in.ServiceRequestID,
		ProviderID:       actor.UserID,
		Amount:           in.Amount,
		Notes:            in.Notes,
		Status:           model.QuotePending,
		ValidUntil:       validUntil,
	}
	// The request row stays locked until the insert commits so an accept
	// cannot move it out of open in between.
	err = s.Store.WithTx(ctx, func(tx repository.Querier) error {
		r, err := tx.LockServiceRequest(ctx, in.ServiceRequestID)
		if err != nil {
			return mapErr(err, entityRequest)
		}
		if r.Status != model.RequestOpen {
			return apperror.InvalidState("service request is not accepting quotes (status %s)", r.Status)
		}
		if !r.AmountWithinBudget(in.Amount) {
			return apperror.Validation("amount %.2f is outside the request budget", in.Amount)
		}
		q.ServiceRequestID = r.ID
		if err := tx.CreateQuote(ctx, q); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperror.Conflict("provider has already quoted this service request")
			}
			return mapErr(err, entityQuote)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger().Info("quote created", "quote_id", q.ID, "request_id", q.ServiceRequestID, "provider_id", actor.UserID)
	return q, nil
}

// Get returns a quote to its provider, the request owner or an admin.
func (s *QuoteService) Get(ctx context.Context, actor Actor, id string) (*model.Quote, error) {
	q, err := s.Store.GetQuote(ctx, id)
	if err != nil {
		return nil, mapErr(err, entityQuote)
	}
	if err := s.canView(ctx, actor, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuoteService) canView(ctx context.Context, actor Actor, q *model.Quote) error {
	switch {
	case actor.IsAdmin():
		return nil
	case actor.IsProvider():
		if q.ProviderID == actor.UserID {
			return nil
		}
	case actor.IsCustomer():
		r, err := s.Store.GetServiceRequest(ctx, q.ServiceRequestID)
		if err != nil {
			return mapErr(err, entityRequest)
		}
		if r.CustomerID == actor.UserID {
			return nil
		}
	}
	return apperror.Forbidden("not allowed to view this quote")
}

// ListForRequest returns the quotes on a request, cheapest first.  The
// owning customer and admins see every quote; a provider sees only its
// own.
func (s *QuoteService) ListForRequest(ctx context.Context, actor Actor, requestID string, p model.Page) (model.PageResult[model.Quote], error) {
	var empty model.PageResult[model.Quote]
	r, err := s.Store.GetServiceRequest(ctx, requestID)
	if err != nil {
		return empty, mapErr(err, entityRequest)
	}
	f := model.QuoteFilter{ServiceRequestID: requestID}
	switch {
	case actor.IsAdmin():
	case actor.IsCustomer():
		if r.CustomerID != actor.UserID {
			return empty, apperror.Forbidden("not your service request")
		}
	case actor.IsProvider():
		f.ProviderID = actor.UserID
	default:
		return empty, apperror.Forbidden("not allowed to list quotes")
	}
	items, total, err := s.Store.ListQuotes(ctx, f, p)
	if err != nil {
		return empty, mapErr(err, entityQuote)
	}
	return model.PageResult[model.Quote]{Data: items, Pagination: p.Paginate(total)}, nil
}

// ListMine returns the calling provider's quotes.
func (s *QuoteService) ListMine(ctx context.Context, actor Actor, f model.QuoteFilter, p model.Page) (model.PageResult[model.Quote], error) {
	if !actor.IsProvider() {
		return model.PageResult[model.Quote]{}, apperror.Forbidden("only providers have quotes")
	}
	f.ProviderID = actor.UserID
	items, total, err := s.Store.ListQuotes(ctx, f, p)
	if err != nil {
		return model.PageResult[model.Quote]{}, mapErr(err, entityQuote)
	}
	return model.PageResult[model.Quote]{Data: items, Pagination: p.Paginate(total)}, nil
}

// ownedPending loads a quote inside q for its provider and requires it to
// be pending and unexpired.
func (s *QuoteService) ownedPending(ctx context.Context, q repository.Querier, actor Actor, id string) (*model.Quote, error) {
	qt, err := q.LockQuote(ctx, id)
	if err != nil {
		return nil, mapErr(err, entityQuote)
	}
	if qt.ProviderID != actor.UserID {
		return nil, apperror.Forbidden("not your quote")
	}
	if qt.Status != model.QuotePending {
		return nil, apperror.InvalidState("quote is %s, only pending quotes can change", qt.Status)
	}
	return qt, nil
}

// Update edits a pending quote.  The amount is re-checked against the
// request budget.
func (s *QuoteService) Update(ctx context.Context, actor Actor, id string, patch QuotePatch) (*model.Quote, error) {
	now := s.now()
	var out *model.Quote
	err := s.Store.WithTx(ctx, func(q repository.Querier) error {
		qt, err := s.ownedPending(ctx, q, actor, id)
		if err != nil {
			return err
		}
		if qt.ExpiredAt(now) {
			return apperror.Expired("quote expired at %s", timestamp(qt.ValidUntil))
		}
		if patch.Amount != nil {
			r, err := q.GetServiceRequest(ctx, qt.ServiceRequestID)
			if err != nil {
				return mapErr(err, entityRequest)
			}
			if !r.AmountWithinBudget(*patch.Amount) {
				return apperror.Validation("amount %.2f is outside the request budget", *patch.Amount)
			}
			qt.Amount = *patch.Amount
		}
		if patch.Notes != nil {
			qt.Notes = *patch.Notes
		}
		if patch.ValidUntil != nil {
			if !patch.ValidUntil.After(now) {
				return apperror.Validation("valid_until must be in the future")
			}
			qt.ValidUntil = patch.ValidUntil.UTC()
		}
		if err := q.UpdateQuote(ctx, qt); err != nil {
			return mapErr(err, entityQuote)
		}
		out = qt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete withdraws a pending quote.
func (s *QuoteService) Delete(ctx context.Context, actor Actor, id string) error {
	return s.Store.WithTx(ctx, func(q repository.Querier) error {
		if _, err := s.ownedPending(ctx, q, actor, id); err != nil {
			return err
		}
		return mapErr(q.DeleteQuote(ctx, id), entityQuote)
	})
}

// UpdateStatus lets the owning customer accept or reject a pending quote.
// Acceptance, rejection of every sibling and the request's move to quoted
// commit together or not at all.
func (s *QuoteService) UpdateStatus(ctx context.Context, actor Actor, id string, next model.QuoteStatus) (*model.Quote, error) {
	if next != model.QuoteAccepted && next != model.QuoteRejected {
		return nil, apperror.Validation("status must be accepted or rejected")
	}
	if !actor.IsCustomer() {
		return nil, apperror.Forbidden("only the requesting customer can accept or reject quotes")
	}
	now := s.now()

	var (
		out      *model.Quote
		customer string
		rejected int64
	)
	err := s.Store.WithTx(ctx, func(q repository.Querier) error {
		// Request first, then quote: every writer of both rows uses this order.
		qt, err := q.GetQuote(ctx, id)
		if err != nil {
			return mapErr(err, entityQuote)
		}
		r, err := q.LockServiceRequest(ctx, qt.ServiceRequestID)
		if err != nil {
			return mapErr(err, entityRequest)
		}
		if r.CustomerID != actor.UserID {
			return apperror.Forbidden("not your service request")
		}
		if qt, err = q.LockQuote(ctx, id); err != nil {
			return mapErr(err, entityQuote)
		}
		if qt.Status != model.QuotePending {
			return apperror.InvalidState("quote is already %s", qt.Status)
		}
		if qt.ExpiredAt(now) {
			return apperror.Expired("quote expired at %s", timestamp(qt.ValidUntil))
		}

		if next == model.QuoteRejected {
			if err := q.SetQuoteStatus(ctx, qt.ID, model.QuoteRejected); err != nil {
				return mapErr(err, entityQuote)
			}
			qt.Status = model.QuoteRejected
			out = qt
			return nil
		}

		if r.Status != model.RequestOpen {
			return apperror.InvalidState("service request is %s, quotes can only be accepted while open", r.Status)
		}
		if err := q.SetQuoteStatus(ctx, qt.ID, model.QuoteAccepted); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperror.Conflict("another quote has already been accepted")
			}
			return mapErr(err, entityQuote)
		}
		if rejected, err = q.RejectSiblingQuotes(ctx, r.ID, qt.ID); err != nil {
			return mapErr(err, entityQuote)
		}
		if err := transitionRequest(ctx, q, r, model.RequestQuoted); err != nil {
			return err
		}
		qt.Status = model.QuoteAccepted
		out, customer = qt, r.CustomerID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.Transition("quote", string(next))
	s.logger().Info("quote status updated", "quote_id", id, "status", next, "rejected_siblings", rejected)
	if next == model.QuoteAccepted {
		s.Metrics.QuoteAccepted()
		s.Metrics.Transition("service_request", string(model.RequestQuoted))
		s.publish(ctx, queue.QuoteAcceptedEvent{
			QuoteID:          out.ID,
			ServiceRequestID: out.ServiceRequestID,
			ProviderID:       out.ProviderID,
			CustomerID:       customer,
			Amount:           out.Amount,
			RejectedQuotes:   rejected,
			AcceptedAt:       timestamp(now),
		})
	}
	return out, nil
}

// SweepExpired flips pending quotes past valid_until to expired.
func (s *QuoteService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.Store.MarkExpiredQuotes(ctx, s.now())
	if err != nil {
		return 0, mapErr(err, entityQuote)
	}
	s.Metrics.QuotesExpired(n)
	if n > 0 {
		s.logger().Info("expired stale quotes", "count", n)
	}
	return n, nil
}
