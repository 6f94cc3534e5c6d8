package memory

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/repository"
)

func TestWithTxRollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	var created string
	err := s.WithTx(ctx, func(q repository.Querier) error {
		r := &model.ServiceRequest{CustomerID: "c1", Title: "leak", Status: model.RequestOpen}
		if err := q.CreateServiceRequest(ctx, r); err != nil {
			return err
		}
		created = r.ID
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := s.GetServiceRequest(ctx, created); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("row survived rollback: %v", err)
	}
}

func TestQuoteUniqueness(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	until := time.Now().Add(time.Hour)

	q1 := &model.Quote{ServiceRequestID: "r1", ProviderID: "p1", Amount: 10, Status: model.QuotePending, ValidUntil: until}
	if err := s.CreateQuote(ctx, q1); err != nil {
		t.Fatal(err)
	}
	dup := &model.Quote{ServiceRequestID: "r1", ProviderID: "p1", Amount: 12, Status: model.QuotePending, ValidUntil: until}
	if err := s.CreateQuote(ctx, dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	q2 := &model.Quote{ServiceRequestID: "r1", ProviderID: "p2", Amount: 8, Status: model.QuotePending, ValidUntil: until}
	if err := s.CreateQuote(ctx, q2); err != nil {
		t.Fatal(err)
	}
	if err := s.SetQuoteStatus(ctx, q1.ID, model.QuoteAccepted); err != nil {
		t.Fatal(err)
	}
	if err := s.SetQuoteStatus(ctx, q2.ID, model.QuoteAccepted); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("second accepted quote allowed: %v", err)
	}
}

func TestHasBookingConflict(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	b := &model.Booking{QuoteID: "q1", ProviderID: "p1", CustomerID: "c1", ScheduledTime: start,
		DurationMinutes: 60, Status: model.BookingScheduled}
	if err := s.CreateBooking(ctx, b); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"overlapping", start.Add(30 * time.Minute), true},
		{"after", start.Add(90 * time.Minute), false},
		{"touching end", start.Add(time.Hour), false},
		{"touching start", start.Add(-time.Hour), false},
	}
	for _, tc := range cases {
		got, err := s.HasBookingConflict(ctx, "p1", tc.at, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.want {
			t.Errorf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}

	if err := s.SetBookingStatus(ctx, b.ID, model.BookingCancelled); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.HasBookingConflict(ctx, "p1", start, time.Hour); got {
		t.Fatal("cancelled booking still blocks the slot")
	}
}

func TestListServiceRequestsFiltersAndPages(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.SetClock(func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) })

	for i := 0; i < 5; i++ {
		r := &model.ServiceRequest{CustomerID: "c1", ServiceType: "plumbing", Status: model.RequestOpen,
			Location: model.Location{City: "Austin"}}
		if i%2 == 1 {
			r.ServiceType = "electrical"
		}
		if err := s.CreateServiceRequest(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	items, total, err := s.ListServiceRequests(ctx, model.ServiceRequestFilter{ServiceType: "plumbing", City: "austin"}, model.NewPage(1, 2))
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(items) != 2 {
		t.Fatalf("total=%d len=%d", total, len(items))
	}
	if !items[0].CreatedAt.After(items[1].CreatedAt) {
		t.Fatal("expected newest first")
	}

	items, _, _ = s.ListServiceRequests(ctx, model.ServiceRequestFilter{}, model.NewPage(9, 10))
	if len(items) != 0 {
		t.Fatalf("page past the end returned %d items", len(items))
	}

	// An unclamped page whose offset overflows must not slice out of range.
	items, total, err = s.ListServiceRequests(ctx, model.ServiceRequestFilter{}, model.Page{Page: math.MaxInt / 5, Limit: 10})
	if err != nil || len(items) != 0 || total != 5 {
		t.Fatalf("overflowing page: len=%d total=%d err=%v", len(items), total, err)
	}
}

func TestRefreshTokens(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })
	for _, h := range []string{"h1", "h2"} {
		if err := s.StoreRefresh(ctx, "u1", h, now.Add(time.Hour)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.StoreRefresh(ctx, "u1", "old", now.Add(-time.Second)); err != nil {
		t.Fatal(err)
	}

	uid, err := s.ConsumeRefresh(ctx, "h1")
	if err != nil || uid != "u1" {
		t.Fatalf("consume: %q %v", uid, err)
	}
	if _, err := s.ConsumeRefresh(ctx, "h1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("token spent twice: %v", err)
	}
	if _, err := s.ConsumeRefresh(ctx, "old"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expired token accepted: %v", err)
	}
	if _, err := s.ConsumeRefresh(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("unknown token accepted: %v", err)
	}

	_ = s.RevokeAllForUser(ctx, "u1")
	if _, err := s.ConsumeRefresh(ctx, "h2"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("revoked token still valid: %v", err)
	}
}
