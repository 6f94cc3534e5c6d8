package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/fixer-backend/internal/apperror"
	"github.com/iliyamo/fixer-backend/internal/lifecycle"
	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/queue"
	"github.com/iliyamo/fixer-backend/internal/repository"
)

const entityBooking = "booking"

// BookingInput is the body of a create request.  DurationMinutes falls back
// to the configured default.
type BookingInput struct {
	QuoteID         string    `json:"quote_id" validate:"required,uuid"`
	ScheduledTime   time.Time `json:"scheduled_time" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"omitempty,min=15,max=1440"`
	Notes           string    `json:"notes" validate:"max=2000"`
}

// BookingService turns accepted quotes into scheduled work and keeps the
// parent request in step with the booking.
type BookingService struct {
	*Deps
	defaultDuration time.Duration
}

func NewBookingService(d *Deps, defaultDuration time.Duration) *BookingService {
	if defaultDuration <= 0 {
		defaultDuration = model.DefaultBookingDuration
	}
	return &BookingService{Deps: d, defaultDuration: defaultDuration}
}

// DefaultDuration is the slot length used when none is given.
func (s *BookingService) DefaultDuration() time.Duration { return s.defaultDuration }

func (s *BookingService) duration(minutes int) time.Duration {
	if minutes <= 0 {
		return s.defaultDuration
	}
	return time.Duration(minutes) * time.Minute
}

// HasConflict reports whether the provider already has an active booking
// overlapping [start, start+d).
func (s *BookingService) HasConflict(ctx context.Context, providerID string, start time.Time, d time.Duration) (bool, error) {
	if d <= 0 {
		d = s.defaultDuration
	}
	busy, err := s.Store.HasBookingConflict(ctx, providerID, start.UTC(), d)
	if err != nil {
		return false, mapErr(err, entityBooking)
	}
	return busy, nil
}

// Create books an accepted quote for the customer who owns the request.
// The request and provider rows stay locked from the conflict check to
// the insert so two bookings cannot claim the same slot.
func (s *BookingService) Create(ctx context.Context, actor Actor, in BookingInput) (*model.Booking, error) {
	if !actor.IsCustomer() {
		return nil, apperror.Forbidden("only customers can create bookings")
	}
	now := s.now()
	start := in.ScheduledTime.UTC()
	if !start.After(now) {
		return nil, apperror.Validation("scheduled_time must be in the future")
	}
	d := s.duration(in.DurationMinutes)

	var b *model.Booking
	err := s.Store.WithTx(ctx, func(q repository.Querier) error {
		qt, err := q.GetQuote(ctx, in.QuoteID)
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
		if qt.Status != model.QuoteAccepted {
			return apperror.InvalidState("quote is %s, only accepted quotes can be booked", qt.Status)
		}
		if _, err := q.GetBookingByQuote(ctx, qt.ID); err == nil {
			return apperror.Conflict("quote has already been booked")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return mapErr(err, entityBooking)
		}
		if r.Status != model.RequestQuoted {
			return apperror.InvalidState("service request is %s, bookings need a quoted request", r.Status)
		}
		if _, err := q.LockProvider(ctx, qt.ProviderID); err != nil {
			return mapErr(err, "provider")
		}
		busy, err := q.HasBookingConflict(ctx, qt.ProviderID, start, d)
		if err != nil {
			return mapErr(err, entityBooking)
		}
		if busy {
			s.Metrics.BookingConflict()
			return apperror.Conflict("provider already has a booking overlapping %s", timestamp(start))
		}

		b = &model.Booking{
			ServiceRequestID: r.ID,
			QuoteID:          qt.ID,
			ProviderID:       qt.ProviderID,
			CustomerID:       r.CustomerID,
			ScheduledTime:    start,
			DurationMinutes:  int(d / time.Minute),
			Status:           model.BookingScheduled,
			TotalAmount:      qt.Amount,
			Notes:            in.Notes,
		}
		if err := q.CreateBooking(ctx, b); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperror.Conflict("quote has already been booked")
			}
			return mapErr(err, entityBooking)
		}
		return transitionRequest(ctx, q, r, model.RequestBooked)
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.Transition("service_request", string(model.RequestBooked))
	s.logger().Info("booking created", "booking_id", b.ID, "request_id", b.ServiceRequestID,
		"provider_id", b.ProviderID, "scheduled_time", b.ScheduledTime)
	s.publish(ctx, queue.BookingCreatedEvent{
		BookingID:        b.ID,
		ServiceRequestID: b.ServiceRequestID,
		QuoteID:          b.QuoteID,
		ProviderID:       b.ProviderID,
		CustomerID:       b.CustomerID,
		ScheduledTime:    timestamp(b.ScheduledTime),
		DurationMinutes:  b.DurationMinutes,
		TotalAmount:      b.TotalAmount,
		CreatedAt:        timestamp(now),
	})
	return b, nil
}

func canSeeBooking(actor Actor, b *model.Booking) bool {
	return actor.IsAdmin() || b.CustomerID == actor.UserID || b.ProviderID == actor.UserID
}

// Get returns a booking to its customer, its provider or an admin.
func (s *BookingService) Get(ctx context.Context, actor Actor, id string) (*model.Booking, error) {
	b, err := s.Store.GetBooking(ctx, id)
	if err != nil {
		return nil, mapErr(err, entityBooking)
	}
	if !canSeeBooking(actor, b) {
		return nil, apperror.Forbidden("not your booking")
	}
	return b, nil
}

// List pages through bookings scoped to the caller's role.
func (s *BookingService) List(ctx context.Context, actor Actor, f model.BookingFilter, p model.Page) (model.PageResult[model.Booking], error) {
	switch {
	case actor.IsCustomer():
		f.CustomerID = actor.UserID
	case actor.IsProvider():
		f.ProviderID = actor.UserID
	}
	items, total, err := s.Store.ListBookings(ctx, f, p)
	if err != nil {
		return model.PageResult[model.Booking]{}, mapErr(err, entityBooking)
	}
	return model.PageResult[model.Booking]{Data: items, Pagination: p.Paginate(total)}, nil
}

// UpdateStatus moves a booking along its lifecycle and cascades the
// matching status onto the parent request in the same transaction.
func (s *BookingService) UpdateStatus(ctx context.Context, actor Actor, id string, next model.BookingStatus) (*model.Booking, error) {
	if !next.Valid() {
		return nil, apperror.Validation("unknown status %q", next)
	}
	var (
		out        *model.Booking
		from       model.BookingStatus
		cascadedTo model.RequestStatus
		didCascade bool
	)
	err := s.Store.WithTx(ctx, func(q repository.Querier) error {
		b, err := q.GetBooking(ctx, id)
		if err != nil {
			return mapErr(err, entityBooking)
		}
		if !canSeeBooking(actor, b) {
			return apperror.Forbidden("not your booking")
		}
		r, err := q.LockServiceRequest(ctx, b.ServiceRequestID)
		if err != nil {
			return mapErr(err, entityRequest)
		}
		if b, err = q.LockBooking(ctx, id); err != nil {
			return mapErr(err, entityBooking)
		}
		if !lifecycle.CanTransitionBooking(b.Status, next) {
			return apperror.InvalidTransition(entityBooking, string(b.Status), string(next))
		}
		if err := q.SetBookingStatus(ctx, b.ID, next); err != nil {
			return mapErr(err, entityBooking)
		}
		from = b.Status
		b.Status = next

		if target, ok := lifecycle.RequestStatusForBooking(next); ok && r.Status != target {
			if err := transitionRequest(ctx, q, r, target); err != nil {
				return err
			}
			cascadedTo, didCascade = target, true
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.Transition("booking", string(next))
	if didCascade {
		s.Metrics.Transition("service_request", string(cascadedTo))
	}
	s.logger().Info("booking status updated", "booking_id", id, "from", from, "to", next, "by", actor.UserID)
	ev := queue.BookingStatusChangedEvent{
		BookingID:        out.ID,
		ServiceRequestID: out.ServiceRequestID,
		From:             string(from),
		To:               string(next),
		ChangedAt:        timestamp(s.now()),
	}
	if didCascade {
		ev.RequestStatus = string(cascadedTo)
	}
	s.publish(ctx, ev)
	return out, nil
}
