// Package middleware contains the HTTP middleware shared by the routers.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fixer-backend/internal/apperror"
	"github.com/iliyamo/fixer-backend/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxUserID   = "userId"
	CtxEmail    = "email"
	CtxUserType = "userType"
)

// JWTAuth validates a Bearer access token and stores the caller's id,
// email and user type in the context.  Failures become 401 errors for the
// central error handler.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return apperror.Unauthorized("missing bearer token")
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return apperror.Unauthorized("invalid or expired token")
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxEmail, claims.Email)
			c.Set(CtxUserType, claims.UserType)
			return next(c)
		}
	}
}

// OptionalJWT stores the caller's identity when a valid bearer token is
// present and lets anonymous requests through otherwise.  An invalid
// token is still rejected.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	required := JWTAuth(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withAuth := required(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return next(c)
			}
			return withAuth(c)
		}
	}
}
