package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/fixer-backend/internal/model"
)

// UserStore persists user accounts.  Implemented by UserRepo and by the
// in-memory store.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

type UserRepo struct{ DB DBTX }

func NewUserRepo(db DBTX) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, email, password_hash, first_name, last_name, COALESCE(phone, ''), user_type, is_active, created_at, updated_at`

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.UserType,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// CreateUser inserts a user with an already-hashed password.  The email
// is normalised; an existing email returns ErrDuplicate.
func (r *UserRepo) CreateUser(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	const query = `INSERT INTO users (email, password_hash, first_name, last_name, phone, user_type)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		RETURNING id, is_active, created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.UserType).
		Scan(&u.ID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return mapError(err)
}

// GetUserByEmail fetches a user by normalized email.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetUserByID fetches a user by id.
func (r *UserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}
