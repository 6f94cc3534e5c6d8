package handler

import (
	"mime"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fixer-backend/internal/apperror"
	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/service"
)

// ServiceRequestHandler serves /api/service-requests.
type ServiceRequestHandler struct {
	Svc *service.ServiceRequestService
}

func NewServiceRequestHandler(s *service.ServiceRequestService) *ServiceRequestHandler {
	return &ServiceRequestHandler{Svc: s}
}

type requestStatusReq struct {
	Status model.RequestStatus `json:"status" validate:"required,oneof=open quoted booked in_progress completed cancelled"`
}

func (h *ServiceRequestHandler) Create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var in service.ServiceRequestInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Svc.Create(ctx, a, in)
	if err != nil {
		return err
	}
	return created(c, "service request created", r)
}

// List supports status, service_type, urgency, city and customer_id.
func (h *ServiceRequestHandler) List(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	q, err := newQuery(c, "status", "service_type", "urgency", "city", "customer_id")
	if err != nil {
		return err
	}
	var f model.ServiceRequestFilter
	if f.Status, err = enum[model.RequestStatus](q, "status"); err != nil {
		return err
	}
	if f.Urgency, err = enum[model.Urgency](q, "urgency"); err != nil {
		return err
	}
	if f.CustomerID, err = q.uuid("customer_id"); err != nil {
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
	res, err := h.Svc.List(ctx, a, f, p)
	if err != nil {
		return err
	}
	return ok(c, "service requests", res)
}

func (h *ServiceRequestHandler) Get(c echo.Context) error {
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
	r, err := h.Svc.Get(ctx, a, id)
	if err != nil {
		return err
	}
	return ok(c, "service request", r)
}

func (h *ServiceRequestHandler) Update(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var patch service.ServiceRequestPatch
	if err := bind(c, &patch); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Svc.Update(ctx, a, id, patch)
	if err != nil {
		return err
	}
	return ok(c, "service request updated", r)
}

func (h *ServiceRequestHandler) Delete(c echo.Context) error {
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
	return ok(c, "service request deleted", nil)
}

func (h *ServiceRequestHandler) Cancel(c echo.Context) error {
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
	r, err := h.Svc.Cancel(ctx, a, id)
	if err != nil {
		return err
	}
	return ok(c, "service request cancelled", r)
}

// UpdateStatus is the admin override of the request status.
func (h *ServiceRequestHandler) UpdateStatus(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req requestStatusReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Svc.Transition(ctx, a, id, req.Status)
	if err != nil {
		return err
	}
	return ok(c, "service request status updated", r)
}

// UploadImage accepts a multipart "image" field and appends its URL to
// the request.
func (h *ServiceRequestHandler) UploadImage(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return apperror.Validation("image file is required")
	}
	ct, _, err := mime.ParseMediaType(fh.Header.Get(echo.HeaderContentType))
	if err != nil {
		return apperror.Validation("image content type is missing")
	}
	f, err := fh.Open()
	if err != nil {
		return apperror.Internal(err)
	}
	defer f.Close()

	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Svc.AttachImage(ctx, a, id, f, fh.Size, ct)
	if err != nil {
		return err
	}
	return created(c, "image uploaded", r)
}
