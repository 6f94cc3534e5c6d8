package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fixer-backend/internal/apperror"
)

// envelope is the shape of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func ok(c echo.Context, message string, data any) error {
	return respond(c, http.StatusOK, message, data)
}

func created(c echo.Context, message string, data any) error {
	return respond(c, http.StatusCreated, message, data)
}

// HTTPErrorHandler renders every error returned by handlers and middleware
// into the envelope.  Internal causes are logged, never sent.
func HTTPErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, code, message := classify(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"method", c.Request().Method,
				"path", c.Path(),
				"error", err,
			)
		}
		body := envelope{Success: false, Message: message, Error: code}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			log.Error("write error response", "error", werr)
		}
	}
}

func classify(err error) (status int, code, message string) {
	if ae, ok := apperror.As(err); ok {
		return ae.Status(), ae.Kind.Code(), ae.Message
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		return he.Code, codeForStatus(he.Code), msg
	}
	return http.StatusInternalServerError, apperror.KindInternal.Code(), "internal server error"
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return apperror.KindValidation.Code()
	case http.StatusUnauthorized:
		return apperror.KindUnauthorized.Code()
	case http.StatusForbidden:
		return apperror.KindForbidden.Code()
	case http.StatusNotFound:
		return apperror.KindNotFound.Code()
	case http.StatusTooManyRequests:
		return apperror.KindRateLimited.Code()
	case http.StatusInternalServerError:
		return apperror.KindInternal.Code()
	}
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
