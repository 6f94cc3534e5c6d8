package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fixer-backend/internal/apperror"
	"github.com/iliyamo/fixer-backend/internal/model"
)

// RequireRole aborts with 403 unless the authenticated user type is one
// of roles.  It must run after JWTAuth.
func RequireRole(roles ...model.UserType) echo.MiddlewareFunc {
	allowed := make(map[model.UserType]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := Current(c)
			if !ok {
				return apperror.Unauthorized("authentication required")
			}
			if !allowed[id.UserType] {
				return apperror.Forbidden("insufficient permissions")
			}
			return next(c)
		}
	}
}
