package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fixer-backend/internal/apperror"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health is a liveness probe used by load balancers.  When db is non-nil
// the database is pinged as well.
func Health(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return apperror.Wrap(apperror.KindInternal, err, "database unavailable")
			}
		}
		return c.JSON(http.StatusOK, envelope{Success: true, Message: "ok"})
	}
}
