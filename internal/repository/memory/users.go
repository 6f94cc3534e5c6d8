package memory

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/repository"
)

func (v *view) CreateUser(_ context.Context, u *model.User) error {
	defer v.lock()()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range v.db().users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	now := v.stamp()
	u.ID = newID()
	u.IsActive = true
	u.CreatedAt, u.UpdatedAt = now, now
	v.db().users[u.ID] = *u
	return nil
}

func (v *view) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	defer v.lock()()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range v.db().users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (v *view) GetUserByID(_ context.Context, id string) (*model.User, error) {
	defer v.lock()()
	u, ok := v.db().users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (v *view) StoreRefresh(_ context.Context, userID, tokenHash string, exp time.Time) error {
	defer v.lock()()
	if _, ok := v.db().tokens[tokenHash]; ok {
		return repository.ErrDuplicate
	}
	v.db().tokens[tokenHash] = tokenRow{userID: userID, expiresAt: exp}
	return nil
}

func (v *view) ConsumeRefresh(_ context.Context, tokenHash string) (string, error) {
	defer v.lock()()
	t, ok := v.db().tokens[tokenHash]
	if !ok || t.revoked || !v.stamp().Before(t.expiresAt) {
		return "", repository.ErrNotFound
	}
	t.revoked = true
	v.db().tokens[tokenHash] = t
	return t.userID, nil
}

func (v *view) RevokeAllForUser(_ context.Context, userID string) error {
	defer v.lock()()
	for h, t := range v.db().tokens {
		if t.userID == userID {
			t.revoked = true
			v.db().tokens[h] = t
		}
	}
	return nil
}
