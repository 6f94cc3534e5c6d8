package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/fixer-backend/internal/model"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by the queries, so the
// same code runs inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Querier is every marketplace query.  It is implemented by *Queries for
// Postgres and by memory.Store for tests and local runs.  Lock* methods
// take a row lock that is held until the surrounding transaction ends;
// outside a transaction they behave like their Get* counterparts.
type Querier interface {
	CreateProvider(ctx context.Context, p *model.ServiceProvider) error
	GetProvider(ctx context.Context, userID string) (*model.ServiceProvider, error)
	LockProvider(ctx context.Context, userID string) (*model.ServiceProvider, error)
	UpdateProvider(ctx context.Context, p *model.ServiceProvider) error
	SetProviderVerification(ctx context.Context, userID string, status model.VerificationStatus) error
	ListProviders(ctx context.Context, f model.ProviderFilter, p model.Page) ([]model.ServiceProvider, int64, error)

	CreateServiceRequest(ctx context.Context, r *model.ServiceRequest) error
	GetServiceRequest(ctx context.Context, id string) (*model.ServiceRequest, error)
	LockServiceRequest(ctx context.Context, id string) (*model.ServiceRequest, error)
	UpdateServiceRequest(ctx context.Context, r *model.ServiceRequest) error
	SetServiceRequestStatus(ctx context.Context, id string, status model.RequestStatus) error
	DeleteServiceRequest(ctx context.Context, id string) error
	ListServiceRequests(ctx context.Context, f model.ServiceRequestFilter, p model.Page) ([]model.ServiceRequest, int64, error)

	CreateQuote(ctx context.Context, q *model.Quote) error
	GetQuote(ctx context.Context, id string) (*model.Quote, error)
	LockQuote(ctx context.Context, id string) (*model.Quote, error)
	UpdateQuote(ctx context.Context, q *model.Quote) error
	SetQuoteStatus(ctx context.Context, id string, status model.QuoteStatus) error
	RejectSiblingQuotes(ctx context.Context, requestID, acceptedID string) (int64, error)
	DeleteQuote(ctx context.Context, id string) error
	ListQuotes(ctx context.Context, f model.QuoteFilter, p model.Page) ([]model.Quote, int64, error)
	MarkExpiredQuotes(ctx context.Context, now time.Time) (int64, error)

	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	LockBooking(ctx context.Context, id string) (*model.Booking, error)
	GetBookingByQuote(ctx context.Context, quoteID string) (*model.Booking, error)
	SetBookingStatus(ctx context.Context, id string, status model.BookingStatus) error
	HasBookingConflict(ctx context.Context, providerID string, start time.Time, d time.Duration) (bool, error)
	ListBookings(ctx context.Context, f model.BookingFilter, p model.Page) ([]model.Booking, int64, error)

	CreateCategory(ctx context.Context, c *model.Category) error
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context, f model.ProductFilter, p model.Page) ([]model.Product, int64, error)
}

// Queries implements Querier over a DBTX.
type Queries struct {
	db DBTX
}

// NewQueries binds the queries to a connection pool or transaction.
func NewQueries(db DBTX) *Queries { return &Queries{db: db} }

// Store owns the connection pool and hands out transaction-bound
// Queries.  Non-transactional calls go through the embedded *Queries.
type Store struct {
	*Queries
	db *sql.DB
}

// NewStore constructs a Store.  The pool is injected so tests and
// commands can share or replace it.
func NewStore(db *sql.DB) *Store {
	return &Store{Queries: NewQueries(db), db: db}
}

// DB exposes the underlying pool.
func (s *Store) DB() *sql.DB { return s.db }

// WithTx runs fn inside a single transaction.  The transaction commits
// when fn returns nil and rolls back otherwise, including on panic.
func (s *Store) WithTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(NewQueries(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

var _ Querier = (*Queries)(nil)
