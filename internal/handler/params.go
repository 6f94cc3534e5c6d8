package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fixer-backend/internal/apperror"
	"github.com/iliyamo/fixer-backend/internal/middleware"
	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/service"
)

// dbTimeout bounds the work done on behalf of one request.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// actor returns the authenticated caller.  Routes using it sit behind
// JWTAuth.
func actor(c echo.Context) (service.Actor, error) {
	id, ok := middleware.Current(c)
	if !ok {
		return service.Actor{}, apperror.Unauthorized("authentication required")
	}
	return service.Actor{UserID: id.UserID, Role: id.UserType}, nil
}

// idParam reads a UUID path parameter.
func idParam(c echo.Context, name string) (string, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperror.Validation("%s must be a UUID", name)
	}
	return id.String(), nil
}

// bind decodes the body into dst and validates it.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperror.Validation("invalid request body")
	}
	return c.Validate(dst)
}

// query is a checked view of the query string.  Unknown keys are
// rejected so typos do not silently widen a listing.
type query struct {
	c echo.Context
}

func newQuery(c echo.Context, allowed ...string) (query, error) {
	ok := map[string]bool{"page": true, "limit": true}
	for _, k := range allowed {
		ok[k] = true
	}
	for k := range c.QueryParams() {
		if !ok[k] {
			return query{}, apperror.Validation("unknown query parameter %q", k)
		}
	}
	return query{c: c}, nil
}

func (q query) str(key string) string { return strings.TrimSpace(q.c.QueryParam(key)) }

func (q query) uuid(key string) (string, error) {
	v := q.str(key)
	if v == "" {
		return "", nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return "", apperror.Validation("%s must be a UUID", key)
	}
	return id.String(), nil
}

func (q query) time(key string) (*time.Time, error) {
	v := q.str(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, apperror.Validation("%s must be an RFC 3339 timestamp", key)
	}
	return &t, nil
}

func (q query) int(key string) (int, bool, error) {
	v := q.str(key)
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, apperror.Validation("%s must be an integer", key)
	}
	return n, true, nil
}

func (q query) page() (model.Page, error) {
	page, _, err := q.int("page")
	if err != nil {
		return model.Page{}, err
	}
	if page > model.MaxPage {
		return model.Page{}, apperror.Validation("page must be at most %d", model.MaxPage)
	}
	limit, _, err := q.int("limit")
	if err != nil {
		return model.Page{}, err
	}
	return model.NewPage(page, limit), nil
}

// enum parses an optional status-like value using its Valid method.
func enum[T interface {
	~string
	Valid() bool
}](q query, key string) (T, error) {
	v := T(q.str(key))
	if v != "" && !v.Valid() {
		return "", apperror.Validation("invalid %s %q", key, string(v))
	}
	return v, nil
}

// viewer is the caller on routes that also serve anonymous requests.
func viewer(c echo.Context) service.Actor {
	a, _ := actor(c)
	return a
}
