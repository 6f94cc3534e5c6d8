// Package memory provides an in-memory implementation of the repository
// interfaces with the same semantics as the Postgres queries: unique
// constraints report repository.ErrDuplicate, missing rows
// repository.ErrNotFound, and WithTx is atomic.  Transactions are fully
// serialised, which is stricter than the row locks Postgres takes but
// yields the same observable results.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/repository"
)

type tokenRow struct {
	userID    string
	expiresAt time.Time
	revoked   bool
}

type tables struct {
	users      map[string]model.User
	tokens     map[string]tokenRow
	providers  map[string]model.ServiceProvider
	requests   map[string]model.ServiceRequest
	quotes     map[string]model.Quote
	bookings   map[string]model.Booking
	categories map[string]model.Category
	products   map[string]model.Product
}

func newTables() tables {
	return tables{
		users:      map[string]model.User{},
		tokens:     map[string]tokenRow{},
		providers:  map[string]model.ServiceProvider{},
		requests:   map[string]model.ServiceRequest{},
		quotes:     map[string]model.Quote{},
		bookings:   map[string]model.Booking{},
		categories: map[string]model.Category{},
		products:   map[string]model.Product{},
	}
}

func (t tables) clone() tables {
	return tables{
		users:      maps.Clone(t.users),
		tokens:     maps.Clone(t.tokens),
		providers:  maps.Clone(t.providers),
		requests:   maps.Clone(t.requests),
		quotes:     maps.Clone(t.quotes),
		bookings:   maps.Clone(t.bookings),
		categories: maps.Clone(t.categories),
		products:   maps.Clone(t.products),
	}
}

type state struct {
	mu   sync.Mutex
	data tables
	now  func() time.Time
}

// view runs queries against the shared state.  Outside a transaction each
// call takes the state lock itself; inside WithTx the lock is already held
// for the whole transaction.
type view struct {
	st   *state
	inTx bool
}

func (v *view) lock() func() {
	if v.inTx {
		return func() {}
	}
	v.st.mu.Lock()
	return v.st.mu.Unlock
}

func (v *view) db() *tables { return &v.st.data }

func (v *view) stamp() time.Time { return v.st.now().UTC() }

// Store is the in-memory database.
type Store struct {
	*view
}

// NewStore returns an empty store.
func NewStore() *Store {
	st := &state{data: newTables(), now: time.Now}
	return &Store{view: &view{st: st}}
}

// SetClock overrides the clock used for created_at/updated_at stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.now = now
}

// WithTx runs fn atomically.  On error every change made by fn is
// discarded.
func (s *Store) WithTx(ctx context.Context, fn func(q repository.Querier) error) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.st.data.clone()
	if err := fn(&view{st: s.st, inTx: true}); err != nil {
		s.st.data = snapshot
		return err
	}
	return nil
}

func newID() string { return uuid.NewString() }

// paginate slices items for p and returns the total.
func paginate[T any](items []T, p model.Page) ([]T, int64) {
	total := int64(len(items))
	start := p.Offset()
	if start < 0 || start >= len(items) {
		return []T{}, total
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return append([]T{}, items[start:end]...), total
}

var (
	_ repository.Querier    = (*Store)(nil)
	_ repository.UserStore  = (*Store)(nil)
	_ repository.TokenStore = (*Store)(nil)
)
