// Package service holds the marketplace business rules: who may do what,
// which lifecycle moves are legal, and which changes must commit together.
// Handlers translate HTTP into calls here; repositories only persist.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iliyamo/fixer-backend/internal/apperror"
	"github.com/iliyamo/fixer-backend/internal/metrics"
	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/queue"
	"github.com/iliyamo/fixer-backend/internal/repository"
)

// Store is the persistence the services need: every query plus atomic
// execution.  Both repository.Store and memory.Store satisfy it.
type Store interface {
	repository.Querier
	WithTx(ctx context.Context, fn func(q repository.Querier) error) error
}

// Publisher delivers domain events after a successful commit.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

var errNoBlobStore = errors.New("image storage not configured")

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   model.UserType
}

func (a Actor) IsAdmin() bool    { return a.Role == model.UserAdmin }
func (a Actor) IsCustomer() bool { return a.Role == model.UserCustomer }
func (a Actor) IsProvider() bool { return a.Role == model.UserProvider }

// Deps are shared by every service.
type Deps struct {
	Store     Store
	Publisher Publisher
	Log       *slog.Logger
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d *Deps) logger() *slog.Logger {
	if d.Log != nil {
		return d.Log
	}
	return slog.Default()
}

// publish sends ev outside the request's cancellation so a client hanging
// up does not drop it.  Failures are logged by the publisher and ignored.
func (d *Deps) publish(ctx context.Context, ev queue.Event) {
	if d.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := d.Publisher.Publish(ctx, ev); err != nil {
		d.logger().Warn("event not delivered", "queue", ev.Queue(), "error", err)
	}
}

// mapErr converts repository sentinels into application errors.  Errors
// that already carry a kind pass through unchanged.
func mapErr(err error, entity string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound(entity)
	case errors.Is(err, repository.ErrDuplicate):
		return apperror.Conflict("%s already exists", entity)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperror.Wrap(apperror.KindInternal, err, "request timed out")
	}
	return apperror.Internal(err)
}

func timestamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }
