package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/fixer-backend/internal/database"
	"github.com/iliyamo/fixer-backend/internal/model"
)

// These tests run the SQL against a real database.  They are skipped
// unless TEST_DATABASE_URL points at a disposable Postgres; rows are
// created with fresh ids so repeated runs do not collide.

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.Open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(db)
}

type pgFixture struct {
	ctx      context.Context
	st       *Store
	customer string
}

func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()
	f := &pgFixture{ctx: context.Background(), st: openTestStore(t)}
	f.customer = f.user(t, model.UserCustomer)
	return f
}

func (f *pgFixture) user(t *testing.T, kind model.UserType) string {
	t.Helper()
	u := &model.User{
		Email:        uuid.NewString() + "@fixer.test",
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     string(kind),
		UserType:     kind,
	}
	if err := NewUserRepo(f.st.DB()).CreateUser(f.ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func (f *pgFixture) provider(t *testing.T) string {
	t.Helper()
	id := f.user(t, model.UserProvider)
	p := &model.ServiceProvider{
		UserID:             id,
		BusinessName:       "Pipes",
		ServiceTypes:       model.StringList{"plumbing"},
		VerificationStatus: model.VerificationVerified,
	}
	if err := f.st.CreateProvider(f.ctx, p); err != nil {
		t.Fatalf("create provider: %v", err)
	}
	return id
}

func (f *pgFixture) request(t *testing.T) *model.ServiceRequest {
	t.Helper()
	r := &model.ServiceRequest{
		CustomerID:  f.customer,
		ServiceType: "plumbing",
		Title:       "Leaking sink",
		Description: "Drips all night.",
		Location:    model.Location{Address: "1 Main St", City: "Springfield"},
		Urgency:     model.UrgencyMedium,
		Status:      model.RequestOpen,
		Images:      model.StringList{},
	}
	if err := f.st.CreateServiceRequest(f.ctx, r); err != nil {
		t.Fatalf("create request: %v", err)
	}
	return r
}

func (f *pgFixture) quote(t *testing.T, requestID, providerID string, amount float64) *model.Quote {
	t.Helper()
	q := &model.Quote{
		ServiceRequestID: requestID,
		ProviderID:       providerID,
		Amount:           amount,
		Status:           model.QuotePending,
		ValidUntil:       time.Now().Add(24 * time.Hour),
	}
	if err := f.st.CreateQuote(f.ctx, q); err != nil {
		t.Fatalf("create quote: %v", err)
	}
	return q
}

func TestPostgresHasBookingConflict(t *testing.T) {
	f := newPGFixture(t)
	p := f.provider(t)
	r := f.request(t)
	q := f.quote(t, r.ID, p, 150)

	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Minute)
	b := &model.Booking{
		ServiceRequestID: r.ID,
		QuoteID:          q.ID,
		ProviderID:       p,
		CustomerID:       f.customer,
		ScheduledTime:    start,
		DurationMinutes:  60,
		Status:           model.BookingScheduled,
		TotalAmount:      q.Amount,
	}
	if err := f.st.CreateBooking(f.ctx, b); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	cases := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{"same start", 0, true},
		{"half hour in", 30 * time.Minute, true},
		{"touching end", 60 * time.Minute, false},
		{"ninety minutes later", 90 * time.Minute, false},
		{"ends as it starts", -60 * time.Minute, false},
		{"overlaps the start", -30 * time.Minute, true},
	}
	for _, tc := range cases {
		got, err := f.st.HasBookingConflict(f.ctx, p, start.Add(tc.offset), time.Hour)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: conflict = %v, want %v", tc.name, got, tc.want)
		}
	}

	got, err := f.st.GetBooking(f.ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalAmount != 150 || !got.ScheduledTime.Equal(start) {
		t.Fatalf("booking read back as %+v", got)
	}
}

func TestPostgresSecondAcceptHitsUniqueIndex(t *testing.T) {
	f := newPGFixture(t)
	r := f.request(t)
	q1 := f.quote(t, r.ID, f.provider(t), 150.25)
	q2 := f.quote(t, r.ID, f.provider(t), 200)

	if err := f.st.WithTx(f.ctx, func(q Querier) error {
		return q.SetQuoteStatus(f.ctx, q1.ID, model.QuoteAccepted)
	}); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	err := f.st.WithTx(f.ctx, func(q Querier) error {
		return q.SetQuoteStatus(f.ctx, q2.ID, model.QuoteAccepted)
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second accept: got %v, want ErrDuplicate", err)
	}

	got, err := f.st.GetQuote(f.ctx, q2.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.QuotePending {
		t.Fatalf("rolled back quote is %s", got.Status)
	}
	got, err = f.st.GetQuote(f.ctx, q1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Amount != 150.25 {
		t.Fatalf("amount = %v", got.Amount)
	}

	err = f.st.CreateQuote(f.ctx, &model.Quote{
		ServiceRequestID: r.ID, ProviderID: q1.ProviderID, Amount: 99,
		Status: model.QuotePending, ValidUntil: time.Now().Add(time.Hour),
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate quote: got %v, want ErrDuplicate", err)
	}
}

func TestPostgresLockServiceRequestBlocks(t *testing.T) {
	f := newPGFixture(t)
	r := f.request(t)

	tx, err := f.st.DB().BeginTx(f.ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := NewQueries(tx).LockServiceRequest(f.ctx, r.ID); err != nil {
		t.Fatalf("first lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(f.ctx, 300*time.Millisecond)
	defer cancel()
	err = f.st.WithTx(ctx, func(q Querier) error {
		_, err := q.LockServiceRequest(ctx, r.ID)
		return err
	})
	if err == nil {
		t.Fatal("second lock succeeded while the row was held")
	}
}

func TestPostgresConsumeRefreshOnce(t *testing.T) {
	f := newPGFixture(t)
	tokens := NewTokenRepo(f.st.DB())
	hash := uuid.NewString() + uuid.NewString()[:28]
	if err := tokens.StoreRefresh(f.ctx, f.customer, hash, time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	uid, err := tokens.ConsumeRefresh(f.ctx, hash)
	if err != nil || uid != f.customer {
		t.Fatalf("consume: %q %v", uid, err)
	}
	if _, err := tokens.ConsumeRefresh(f.ctx, hash); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second consume: got %v, want ErrNotFound", err)
	}
}
