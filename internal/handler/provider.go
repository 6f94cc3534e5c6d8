package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/service"
)

// ProviderHandler serves /api/providers.
type ProviderHandler struct {
	Svc *service.ProviderService
}

func NewProviderHandler(s *service.ProviderService) *ProviderHandler { return &ProviderHandler{Svc: s} }

type verificationReq struct {
	Status model.VerificationStatus `json:"verification_status" validate:"required,oneof=pending verified rejected"`
}

func (h *ProviderHandler) Create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var in service.ProviderInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Svc.Create(ctx, a, in)
	if err != nil {
		return err
	}
	return created(c, "provider profile created", p)
}

// List filters by service_type and city; admins may also filter by
// verification_status.
func (h *ProviderHandler) List(c echo.Context) error {
	q, err := newQuery(c, "service_type", "city", "verification_status")
	if err != nil {
		return err
	}
	var f model.ProviderFilter
	if f.VerificationStatus, err = enum[model.VerificationStatus](q, "verification_status"); err != nil {
		return err
	}
	f.ServiceType = q.str("service_type")
	f.City = q.str("city")
	p, err := q.page()
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Svc.List(ctx, viewer(c), f, p)
	if err != nil {
		return err
	}
	return ok(c, "providers", res)
}

func (h *ProviderHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Svc.Get(ctx, id)
	if err != nil {
		return err
	}
	return ok(c, "provider", p)
}

func (h *ProviderHandler) UpdateMine(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var in service.ProviderInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Svc.UpdateMine(ctx, a, in)
	if err != nil {
		return err
	}
	return ok(c, "provider profile updated", p)
}

func (h *ProviderHandler) SetVerification(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req verificationReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Svc.SetVerification(ctx, a, id, req.Status)
	if err != nil {
		return err
	}
	return ok(c, "provider verification updated", p)
}
