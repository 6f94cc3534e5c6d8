package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fixer-backend/internal/apperror"
	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/service"
)

// BookingHandler serves /api/bookings.
type BookingHandler struct {
	Svc *service.BookingService
}

func NewBookingHandler(s *service.BookingService) *BookingHandler { return &BookingHandler{Svc: s} }

type bookingStatusReq struct {
	Status model.BookingStatus `json:"status" validate:"required,oneof=scheduled in_progress completed cancelled"`
}

type availabilityResp struct {
	ProviderID      string    `json:"provider_id"`
	ScheduledTime   time.Time `json:"scheduled_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Available       bool      `json:"available"`
}

func (h *BookingHandler) Create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var in service.BookingInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Svc.Create(ctx, a, in)
	if err != nil {
		return err
	}
	return created(c, "booking created", b)
}

// List is scoped to the caller: customers see theirs, providers the ones
// assigned to them, admins everything.
func (h *BookingHandler) List(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	q, err := newQuery(c, "status", "from", "to")
	if err != nil {
		return err
	}
	var f model.BookingFilter
	if f.Status, err = enum[model.BookingStatus](q, "status"); err != nil {
		return err
	}
	if f.From, err = q.time("from"); err != nil {
		return err
	}
	if f.To, err = q.time("to"); err != nil {
		return err
	}
	p, err := q.page()
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Svc.List(ctx, a, f, p)
	if err != nil {
		return err
	}
	return ok(c, "bookings", res)
}

func (h *BookingHandler) Get(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Svc.Get(ctx, a, id)
	if err != nil {
		return err
	}
	return ok(c, "booking", b)
}

func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req bookingStatusReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Svc.UpdateStatus(ctx, a, id, req.Status)
	if err != nil {
		return err
	}
	return ok(c, "booking status updated", b)
}

// Availability answers whether a provider is free for a slot.  duration
// is in minutes.
func (h *BookingHandler) Availability(c echo.Context) error {
	q, err := newQuery(c, "provider_id", "scheduled_time", "duration")
	if err != nil {
		return err
	}
	providerID, err := q.uuid("provider_id")
	if err != nil {
		return err
	}
	if providerID == "" {
		return apperror.Validation("provider_id is required")
	}
	start, err := q.time("scheduled_time")
	if err != nil {
		return err
	}
	if start == nil {
		return apperror.Validation("scheduled_time is required")
	}
	minutes, set, err := q.int("duration")
	if err != nil {
		return err
	}
	if set && (minutes < 15 || minutes > 1440) {
		return apperror.Validation("duration must be between 15 and 1440 minutes")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	d := time.Duration(minutes) * time.Minute
	busy, err := h.Svc.HasConflict(ctx, providerID, *start, d)
	if err != nil {
		return err
	}
	if !set {
		minutes = int(h.Svc.DefaultDuration() / time.Minute)
	}
	return ok(c, "availability", availabilityResp{
		ProviderID:      providerID,
		ScheduledTime:   start.UTC(),
		DurationMinutes: minutes,
		Available:       !busy,
	})
}
