package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fixer-backend/internal/model"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID   string
	Email    string
	UserType model.UserType
}

// IsAdmin reports whether the caller is an administrator.
func (i Identity) IsAdmin() bool { return i.UserType == model.UserAdmin }

// Current returns the identity stored by JWTAuth.
func Current(c echo.Context) (Identity, bool) {
	uid, _ := c.Get(CtxUserID).(string)
	if uid == "" {
		return Identity{}, false
	}
	email, _ := c.Get(CtxEmail).(string)
	ut, _ := c.Get(CtxUserType).(string)
	return Identity{UserID: uid, Email: email, UserType: model.UserType(ut)}, true
}

// currentUserID is the rate-limit key component: the user id or "anon".
func currentUserID(c echo.Context) string {
	if id, ok := Current(c); ok {
		return id.UserID
	}
	return "anon"
}
