package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/iliyamo/fixer-backend/internal/apperror"
	"github.com/iliyamo/fixer-backend/internal/lifecycle"
	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/queue"
	"github.com/iliyamo/fixer-backend/internal/repository"
	"github.com/iliyamo/fixer-backend/internal/storage"
)

const entityRequest = "service request"

// ServiceRequestInput is the body of a create request.
type ServiceRequestInput struct {
	ServiceType   string         `json:"service_type" validate:"required,max=100"`
	Title         string         `json:"title" validate:"required,min=3,max=255"`
	Description   string         `json:"description" validate:"required,min=10"`
	Location      model.Location `json:"location" validate:"required"`
	Urgency       model.Urgency  `json:"urgency" validate:"omitempty,oneof=low medium high emergency"`
	BudgetMin     *float64       `json:"budget_min" validate:"omitempty,gte=0"`
	BudgetMax     *float64       `json:"budget_max" validate:"omitempty,gte=0"`
	PreferredDate *time.Time     `json:"preferred_date"`
	Images        []string       `json:"images" validate:"omitempty,max=10,dive,url"`
}

// ServiceRequestPatch is a partial update; nil fields are left unchanged.
type ServiceRequestPatch struct {
	ServiceType   *string         `json:"service_type" validate:"omitempty,min=1,max=100"`
	Title         *string         `json:"title" validate:"omitempty,min=3,max=255"`
	Description   *string         `json:"description" validate:"omitempty,min=10"`
	Location      *model.Location `json:"location"`
	Urgency       *model.Urgency  `json:"urgency" validate:"omitempty,oneof=low medium high emergency"`
	BudgetMin     *float64        `json:"budget_min" validate:"omitempty,gte=0"`
	BudgetMax     *float64        `json:"budget_max" validate:"omitempty,gte=0"`
	PreferredDate *time.Time      `json:"preferred_date"`
	Images        []string        `json:"images" validate:"omitempty,max=10,dive,url"`
}

// ServiceRequestService guards the service request lifecycle.
type ServiceRequestService struct {
	*Deps
	blobs          storage.Store
	maxUploadBytes int64
}

func NewServiceRequestService(d *Deps, blobs storage.Store, maxUploadBytes int64) *ServiceRequestService {
	return &ServiceRequestService{Deps: d, blobs: blobs, maxUploadBytes: maxUploadBytes}
}

// Create posts a new open request owned by the calling customer.
func (s *ServiceRequestService) Create(ctx context.Context, actor Actor, in ServiceRequestInput) (*model.ServiceRequest, error) {
	if !actor.IsCustomer() {
		return nil, apperror.Forbidden("only customers can create service requests")
	}
	if !model.BudgetOrdered(in.BudgetMin, in.BudgetMax) {
		return nil, apperror.Validation("budget_min must not exceed budget_max")
	}
	urgency := in.Urgency
	if urgency == "" {
		urgency = model.UrgencyMedium
	}
	r := &model.ServiceRequest{
		CustomerID:    actor.UserID,
		ServiceType:   in.ServiceType,
		Title:         in.Title,
		Description:   in.Description,
		Location:      in.Location,
		Urgency:       urgency,
		Status:        model.RequestOpen,
		BudgetMin:     in.BudgetMin,
		BudgetMax:     in.BudgetMax,
		PreferredDate: in.PreferredDate,
		Images:        model.StringList(in.Images),
	}
	if err := s.Store.CreateServiceRequest(ctx, r); err != nil {
		return nil, mapErr(err, entityRequest)
	}
	s.logger().Info("service request created", "request_id", r.ID, "customer_id", r.CustomerID)
	return r, nil
}

// Get returns a request.  Customers may only read their own.
func (s *ServiceRequestService) Get(ctx context.Context, actor Actor, id string) (*model.ServiceRequest, error) {
	r, err := s.Store.GetServiceRequest(ctx, id)
	if err != nil {
		return nil, mapErr(err, entityRequest)
	}
	if actor.IsCustomer() && r.CustomerID != actor.UserID {
		return nil, apperror.Forbidden("not your service request")
	}
	return r, nil
}

// List pages through requests.  Customers are pinned to their own;
// only admins may filter by another customer.
func (s *ServiceRequestService) List(ctx context.Context, actor Actor, f model.ServiceRequestFilter, p model.Page) (model.PageResult[model.ServiceRequest], error) {
	switch {
	case actor.IsCustomer():
		f.CustomerID = actor.UserID
	case actor.IsProvider() && f.CustomerID != "":
		return model.PageResult[model.ServiceRequest]{}, apperror.Forbidden("customer_id filter is restricted to admins")
	}
	items, total, err := s.Store.ListServiceRequests(ctx, f, p)
	if err != nil {
		return model.PageResult[model.ServiceRequest]{}, mapErr(err, entityRequest)
	}
	return model.PageResult[model.ServiceRequest]{Data: items, Pagination: p.Paginate(total)}, nil
}

// ownedOpen loads a request inside q and checks ownership and that it is
// still open.
func ownedOpen(ctx context.Context, q repository.Querier, actor Actor, id, action string) (*model.ServiceRequest, error) {
	r, err := q.LockServiceRequest(ctx, id)
	if err != nil {
		return nil, mapErr(err, entityRequest)
	}
	if r.CustomerID != actor.UserID {
		return nil, apperror.Forbidden("not your service request")
	}
	if r.Status != model.RequestOpen {
		return nil, apperror.InvalidState("service request can only be %s while open (status %s)", action, r.Status)
	}
	return r, nil
}

// Update applies a patch while the request is open.
func (s *ServiceRequestService) Update(ctx context.Context, actor Actor, id string, patch ServiceRequestPatch) (*model.ServiceRequest, error) {
	var out *model.ServiceRequest
	err := s.Store.WithTx(ctx, func(q repository.Querier) error {
		r, err := ownedOpen(ctx, q, actor, id, "updated")
		if err != nil {
			return err
		}
		applyRequestPatch(r, patch)
		if !r.BudgetValid() {
			return apperror.Validation("budget_min must not exceed budget_max")
		}
		if err := q.UpdateServiceRequest(ctx, r); err != nil {
			return mapErr(err, entityRequest)
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func applyRequestPatch(r *model.ServiceRequest, p ServiceRequestPatch) {
	if p.ServiceType != nil {
		r.ServiceType = *p.ServiceType
	}
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Location != nil {
		r.Location = *p.Location
	}
	if p.Urgency != nil {
		r.Urgency = *p.Urgency
	}
	if p.BudgetMin != nil {
		r.BudgetMin = p.BudgetMin
	}
	if p.BudgetMax != nil {
		r.BudgetMax = p.BudgetMax
	}
	if p.PreferredDate != nil {
		r.PreferredDate = p.PreferredDate
	}
	if p.Images != nil {
		r.Images = model.StringList(p.Images)
	}
}

// Delete removes an open request owned by the caller.
func (s *ServiceRequestService) Delete(ctx context.Context, actor Actor, id string) error {
	return s.Store.WithTx(ctx, func(q repository.Querier) error {
		if _, err := ownedOpen(ctx, q, actor, id, "deleted"); err != nil {
			return err
		}
		return mapErr(q.DeleteServiceRequest(ctx, id), entityRequest)
	})
}

// Transition moves a request to next if the lifecycle allows it.  It is
// the admin override; the normal flow drives status through quotes and
// bookings.
func (s *ServiceRequestService) Transition(ctx context.Context, actor Actor, id string, next model.RequestStatus) (*model.ServiceRequest, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can set request status directly")
	}
	if !next.Valid() {
		return nil, apperror.Validation("unknown status %q", next)
	}
	var out *model.ServiceRequest
	err := s.Store.WithTx(ctx, func(q repository.Querier) error {
		r, err := q.LockServiceRequest(ctx, id)
		if err != nil {
			return mapErr(err, entityRequest)
		}
		if err := transitionRequest(ctx, q, r, next); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.Transition("service_request", string(next))
	s.logger().Info("service request transitioned", "request_id", id, "to", next, "by", actor.UserID)
	return out, nil
}

// transitionRequest validates and persists r -> next within q.
func transitionRequest(ctx context.Context, q repository.Querier, r *model.ServiceRequest, next model.RequestStatus) error {
	if !lifecycle.CanTransitionRequest(r.Status, next) {
		return apperror.InvalidTransition(entityRequest, string(r.Status), string(next))
	}
	if err := q.SetServiceRequestStatus(ctx, r.ID, next); err != nil {
		return mapErr(err, entityRequest)
	}
	r.Status = next
	return nil
}

// Cancel lets the owning customer abandon a non-terminal request.  An
// active booking for the request is cancelled with it.
func (s *ServiceRequestService) Cancel(ctx context.Context, actor Actor, id string) (*model.ServiceRequest, error) {
	var (
		out       *model.ServiceRequest
		cancelled *model.Booking
		from      model.BookingStatus
	)
	err := s.Store.WithTx(ctx, func(q repository.Querier) error {
		r, err := q.LockServiceRequest(ctx, id)
		if err != nil {
			return mapErr(err, entityRequest)
		}
		if r.CustomerID != actor.UserID && !actor.IsAdmin() {
			return apperror.Forbidden("not your service request")
		}
		if lifecycle.RequestTerminal(r.Status) {
			return apperror.InvalidTransition(entityRequest, string(r.Status), string(model.RequestCancelled))
		}
		if r.Status == model.RequestBooked || r.Status == model.RequestInProgress {
			b, err := activeBookingFor(ctx, q, r.ID)
			if err != nil {
				return err
			}
			if b != nil {
				from = b.Status
				if err := q.SetBookingStatus(ctx, b.ID, model.BookingCancelled); err != nil {
					return mapErr(err, entityBooking)
				}
				b.Status = model.BookingCancelled
				cancelled = b
			}
		}
		if err := transitionRequest(ctx, q, r, model.RequestCancelled); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.Transition("service_request", string(model.RequestCancelled))
	s.logger().Info("service request cancelled", "request_id", id, "by", actor.UserID)
	if cancelled != nil {
		s.Metrics.Transition("booking", string(model.BookingCancelled))
		s.publish(ctx, queue.BookingStatusChangedEvent{
			BookingID:        cancelled.ID,
			ServiceRequestID: id,
			From:             string(from),
			To:               string(model.BookingCancelled),
			RequestStatus:    string(model.RequestCancelled),
			ChangedAt:        timestamp(s.now()),
		})
	}
	return out, nil
}

// activeBookingFor finds the scheduled or in-progress booking made from
// the request's accepted quote, if any.
func activeBookingFor(ctx context.Context, q repository.Querier, requestID string) (*model.Booking, error) {
	quotes, _, err := q.ListQuotes(ctx, model.QuoteFilter{ServiceRequestID: requestID, Status: model.QuoteAccepted}, model.NewPage(1, 1))
	if err != nil {
		return nil, mapErr(err, entityQuote)
	}
	if len(quotes) == 0 {
		return nil, nil
	}
	b, err := q.GetBookingByQuote(ctx, quotes[0].ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err, entityBooking)
	}
	if !b.Status.Active() {
		return nil, nil
	}
	return b, nil
}

// AttachImage uploads an image and appends its URL to the open request.
func (s *ServiceRequestService) AttachImage(ctx context.Context, actor Actor, id string, r io.Reader, size int64, contentType string) (*model.ServiceRequest, error) {
	if s.blobs == nil {
		return nil, apperror.Internal(errNoBlobStore)
	}
	ext, ok := storage.ImageExtension(contentType)
	if !ok {
		return nil, apperror.Validation("unsupported image type %q", contentType)
	}
	if s.maxUploadBytes > 0 && size > s.maxUploadBytes {
		return nil, apperror.Validation("image exceeds %d bytes", s.maxUploadBytes)
	}
	current, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if current.CustomerID != actor.UserID {
		return nil, apperror.Forbidden("not your service request")
	}
	if current.Status != model.RequestOpen {
		return nil, apperror.InvalidState("images can only be added while the request is open")
	}
	if len(current.Images) >= 10 {
		return nil, apperror.Validation("a service request holds at most 10 images")
	}

	obj, err := s.blobs.Put(ctx, storage.RequestImageKey(id, ext), r, size, contentType)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	var out *model.ServiceRequest
	err = s.Store.WithTx(ctx, func(q repository.Querier) error {
		req, err := ownedOpen(ctx, q, actor, id, "updated")
		if err != nil {
			return err
		}
		req.Images = append(req.Images, obj.URL)
		if err := q.UpdateServiceRequest(ctx, req); err != nil {
			return mapErr(err, entityRequest)
		}
		out = req
		return nil
	})
	if err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), obj.Key); delErr != nil {
			s.logger().Warn("orphaned image not removed", "key", obj.Key, "error", delErr)
		}
		return nil, err
	}
	return out, nil
}
