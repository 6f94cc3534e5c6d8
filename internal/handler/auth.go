package handler

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fixer-backend/internal/apperror"
	"github.com/iliyamo/fixer-backend/internal/config"
	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/repository"
	"github.com/iliyamo/fixer-backend/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  repository.UserStore
	Tokens repository.TokenStore
	Log    *slog.Logger
}

func NewAuthHandler(cfg config.Config, u repository.UserStore, t repository.TokenStore, log *slog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	UserType  string `json:"user_type" validate:"required,oneof=customer provider"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User    *model.User `json:"user"`
	Access  tokenPart   `json:"access"`
	Refresh tokenPart   `json:"refresh"`
}

// issue creates an access/refresh pair and stores the refresh hash.
func (h *AuthHandler) issue(c echo.Context, u *model.User) (authResp, error) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, string(u.UserType), h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, apperror.Internal(err)
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, apperror.Internal(err)
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, apperror.Internal(err)
	}
	return authResp{
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}

// Register creates a customer or provider account and returns tokens
// immediately.  Admin accounts are provisioned out of band.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return err
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return apperror.Validation("password must be at most 72 bytes")
		}
		return apperror.Internal(err)
	}
	u := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        strings.TrimSpace(req.Phone),
		UserType:     model.UserType(req.UserType),
		IsActive:     true,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperror.Conflict("email already registered")
		}
		return apperror.Internal(err)
	}
	h.Log.Info("user registered", "user_id", u.ID, "user_type", u.UserType)

	resp, err := h.issue(c, u)
	if err != nil {
		return err
	}
	return created(c, "registered", resp)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.Unauthorized("invalid credentials")
		}
		return apperror.Internal(err)
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return apperror.Unauthorized("invalid credentials")
	}
	resp, err := h.issue(c, u)
	if err != nil {
		return err
	}
	return ok(c, "logged in", resp)
}

// Refresh spends a refresh token and issues a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return apperror.Validation("refresh_token is required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqCtx(c)
	defer cancel()

	userID, err := h.Tokens.ConsumeRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.Unauthorized("invalid refresh token")
		}
		return apperror.Internal(err)
	}
	u, err := h.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.Unauthorized("invalid refresh token")
		}
		return apperror.Internal(err)
	}
	resp, err := h.issue(c, u)
	if err != nil {
		return err
	}
	return ok(c, "token refreshed", resp)
}

// Logout revokes one session when a refresh_token is posted, or every
// session of the bearer when only an access token is supplied.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	var userID string
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
			userID = claims.UserID
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch {
	case refreshToken != "":
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ConsumeRefresh(ctx, hash); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperror.Unauthorized("invalid refresh token")
			}
			return apperror.Internal(err)
		}
	case userID != "":
		if err := h.Tokens.RevokeAllForUser(ctx, userID); err != nil {
			return apperror.Internal(err)
		}
	default:
		return apperror.Validation("provide an Authorization header or refresh_token")
	}
	return ok(c, "logged out", nil)
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.GetUserByID(ctx, a.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("user")
		}
		return apperror.Internal(err)
	}
	return ok(c, "current user", u)
}
