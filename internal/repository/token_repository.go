package repository

import (
	"context"
	"time"
)

// TokenStore persists refresh tokens by hash.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	ConsumeRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeAllForUser(ctx context.Context, userID string) error
}

// TokenRepo persists/validates refresh tokens (single 'token_hash' column).
type TokenRepo struct{ DB DBTX }

func NewTokenRepo(db DBTX) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3)",
		userID, tokenHash, exp)
	return mapError(err)
}

// ConsumeRefresh revokes a live token and returns its user id.  The
// update is the check: a token that is unknown, expired or already
// revoked matches no row and yields ErrNotFound, so a token can be spent
// at most once.
func (r *TokenRepo) ConsumeRefresh(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := r.DB.QueryRowContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW()
		 WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > NOW()
		 RETURNING user_id`,
		tokenHash).Scan(&userID)
	if err != nil {
		return "", mapError(err)
	}
	return userID, nil
}

// RevokeAllForUser revokes all user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL",
		userID)
	return err
}
