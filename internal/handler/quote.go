package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/service"
)

// QuoteHandler serves /api/quotes.
type QuoteHandler struct {
	Svc *service.QuoteService
}

func NewQuoteHandler(s *service.QuoteService) *QuoteHandler { return &QuoteHandler{Svc: s} }

type quoteStatusReq struct {
	Status model.QuoteStatus `json:"status" validate:"required,oneof=accepted rejected"`
}

func (h *QuoteHandler) Create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var in service.QuoteInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	q, err := h.Svc.Create(ctx, a, in)
	if err != nil {
		return err
	}
	return created(c, "quote submitted", q)
}

// Mine lists the calling provider's quotes, optionally by status or
// service_request_id.
func (h *QuoteHandler) Mine(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	q, err := newQuery(c, "status", "service_request_id")
	if err != nil {
		return err
	}
	var f model.QuoteFilter
	if f.Status, err = enum[model.QuoteStatus](q, "status"); err != nil {
		return err
	}
	if f.ServiceRequestID, err = q.uuid("service_request_id"); err != nil {
		return err
	}
	p, err := q.page()
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Svc.ListMine(ctx, a, f, p)
	if err != nil {
		return err
	}
	return ok(c, "quotes", res)
}

func (h *QuoteHandler) ForRequest(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	q, err := newQuery(c)
	if err != nil {
		return err
	}
	p, err := q.page()
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Svc.ListForRequest(ctx, a, id, p)
	if err != nil {
		return err
	}
	return ok(c, "quotes", res)
}

func (h *QuoteHandler) Get(c echo.Context) error {
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
	q, err := h.Svc.Get(ctx, a, id)
	if err != nil {
		return err
	}
	return ok(c, "quote", q)
}

func (h *QuoteHandler) Update(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var patch service.QuotePatch
	if err := bind(c, &patch); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	q, err := h.Svc.Update(ctx, a, id, patch)
	if err != nil {
		return err
	}
	return ok(c, "quote updated", q)
}

func (h *QuoteHandler) Delete(c echo.Context) error {
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
	if err := h.Svc.Delete(ctx, a, id); err != nil {
		return err
	}
	return ok(c, "quote withdrawn", nil)
}

// UpdateStatus accepts or rejects a quote on behalf of the request owner.
func (h *QuoteHandler) UpdateStatus(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req quoteStatusReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	q, err := h.Svc.UpdateStatus(ctx, a, id, req.Status)
	if err != nil {
		return err
	}
	return ok(c, "quote "+string(q.Status), q)
}
