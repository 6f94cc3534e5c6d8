package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fixer-backend/internal/apperror"
	"github.com/iliyamo/fixer-backend/internal/logger"
	"github.com/iliyamo/fixer-backend/internal/model"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(logger.Discard())
	e.Validator = NewValidator()
	return e
}

func do(e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestErrorHandlerEnvelope(t *testing.T) {
	e := newEcho()
	e.GET("/conflict", func(c echo.Context) error { return apperror.Conflict("slot taken") })
	e.GET("/expired", func(c echo.Context) error { return apperror.Expired("too late") })
	e.GET("/boom", func(c echo.Context) error { return errors.New("pq: connection refused") })

	tests := []struct {
		path    string
		status  int
		code    string
		message string
	}{
		{"/conflict", http.StatusBadRequest, "CONFLICT", "slot taken"},
		{"/expired", http.StatusBadRequest, "EXPIRED", "too late"},
		{"/boom", http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"},
		{"/nope", http.StatusNotFound, "NOT_FOUND", "Not Found"},
	}
	for _, tt := range tests {
		rec, env := do(e, http.MethodGet, tt.path, "")
		if rec.Code != tt.status {
			t.Fatalf("%s: status = %d, want %d", tt.path, rec.Code, tt.status)
		}
		if env.Success || env.Error != tt.code || env.Message != tt.message {
			t.Fatalf("%s: envelope = %+v", tt.path, env)
		}
	}
}

func TestSuccessEnvelope(t *testing.T) {
	e := newEcho()
	e.GET("/page", func(c echo.Context) error {
		p := model.NewPage(2, 1)
		return ok(c, "items", model.PageResult[string]{Data: []string{"b"}, Pagination: p.Paginate(3)})
	})
	rec, env := do(e, http.MethodGet, "/page", "")
	if rec.Code != http.StatusOK || !env.Success || env.Message != "items" {
		t.Fatalf("got %d %+v", rec.Code, env)
	}
	var body struct {
		Data struct {
			Data       []string `json:"data"`
			Pagination struct {
				Total      int `json:"total"`
				TotalPages int `json:"totalPages"`
			} `json:"pagination"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Data.Pagination.Total != 3 || body.Data.Pagination.TotalPages != 3 || body.Data.Data[0] != "b" {
		t.Fatalf("payload = %+v", body.Data)
	}
}

func TestValidatorUsesJSONNames(t *testing.T) {
	type input struct {
		Title  string  `json:"title" validate:"required"`
		Amount float64 `json:"amount" validate:"gt=0"`
		Status string  `json:"status" validate:"omitempty,oneof=accepted rejected"`
	}
	err := NewValidator().Validate(&input{Status: "maybe"})
	if !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	ae, _ := apperror.As(err)
	for _, want := range []string{"title is required", "amount must be greater than 0", "status must be one of [accepted rejected]"} {
		if !strings.Contains(ae.Message, want) {
			t.Fatalf("message %q missing %q", ae.Message, want)
		}
	}
	if err := NewValidator().Validate(&input{Title: "x", Amount: 1}); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
}

func TestQueryParsing(t *testing.T) {
	e := newEcho()
	var got model.Page
	var status model.QuoteStatus
	e.GET("/q", func(c echo.Context) error {
		q, err := newQuery(c, "status")
		if err != nil {
			return err
		}
		if status, err = enum[model.QuoteStatus](q, "status"); err != nil {
			return err
		}
		if got, err = q.page(); err != nil {
			return err
		}
		return ok(c, "ok", nil)
	})

	if rec, _ := do(e, http.MethodGet, "/q?status=pending&page=2&limit=500", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got.Page != 2 || got.Limit != model.MaxLimit || status != model.QuotePending {
		t.Fatalf("page = %+v status = %q", got, status)
	}

	for _, target := range []string{"/q?sort=amount", "/q?status=won", "/q?page=abc", "/q?page=1000001", "/q?page=1844674407370955161"} {
		rec, env := do(e, http.MethodGet, target, "")
		if rec.Code != http.StatusBadRequest || env.Error != "VALIDATION_ERROR" {
			t.Fatalf("%s: %d %+v", target, rec.Code, env)
		}
	}
}

func TestIDParamMustBeUUID(t *testing.T) {
	e := newEcho()
	e.GET("/things/:id", func(c echo.Context) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		return ok(c, id, nil)
	})
	rec, _ := do(e, http.MethodGet, "/things/42", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	rec, env := do(e, http.MethodGet, "/things/6F9619FF-8B86-D011-B42D-00C04FC964FF", "")
	if rec.Code != http.StatusOK || env.Message != "6f9619ff-8b86-d011-b42d-00c04fc964ff" {
		t.Fatalf("got %d %+v", rec.Code, env)
	}
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(_ context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	e := newEcho()
	e.GET("/healthz", Health(nil))
	e.GET("/down", Health(fakePinger{err: errors.New("refused")}))

	if rec, env := do(e, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("healthz = %d %+v", rec.Code, env)
	}
	if rec, env := do(e, http.MethodGet, "/down", ""); rec.Code != http.StatusInternalServerError || env.Message != "database unavailable" {
		t.Fatalf("down = %d %+v", rec.Code, env)
	}
}
