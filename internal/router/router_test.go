package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fixer-backend/internal/config"
	"github.com/iliyamo/fixer-backend/internal/handler"
	"github.com/iliyamo/fixer-backend/internal/logger"
	"github.com/iliyamo/fixer-backend/internal/metrics"
	"github.com/iliyamo/fixer-backend/internal/model"
	"github.com/iliyamo/fixer-backend/internal/queue"
	"github.com/iliyamo/fixer-backend/internal/repository/memory"
	"github.com/iliyamo/fixer-backend/internal/service"
	"github.com/iliyamo/fixer-backend/internal/storage"
	"github.com/iliyamo/fixer-backend/internal/utils"
)

const secret = "test-secret"

type env struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type server struct {
	t  *testing.T
	e  *echo.Echo
	st *memory.Store
}

func newServer(t *testing.T) *server {
	t.Helper()
	st := memory.NewStore()
	lg := logger.Discard()
	cfg := config.Config{JWTSecret: secret, AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}
	deps := &service.Deps{Store: st, Publisher: queue.Nop{}, Log: lg}
	h := Handlers{
		Auth:      handler.NewAuthHandler(cfg, st, st, lg),
		Requests:  handler.NewServiceRequestHandler(service.NewServiceRequestService(deps, storage.NewMemory(""), 1<<20)),
		Quotes:    handler.NewQuoteHandler(service.NewQuoteService(deps, 24*time.Hour)),
		Bookings:  handler.NewBookingHandler(service.NewBookingService(deps, time.Hour)),
		Providers: handler.NewProviderHandler(service.NewProviderService(deps)),
		Catalog:   handler.NewCatalogHandler(service.NewCatalogService(deps)),
	}
	e := New(Options{JWTSecret: secret, CORSOrigins: []string{"*"}, Log: lg, Metrics: metrics.New()}, h)
	return &server{t: t, e: e, st: st}
}

func (s *server) call(method, path, token string, body any) (int, env) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	var out env
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			s.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

// must fails the test unless the call returned want.
func (s *server) must(want int, method, path, token string, body any, into any) {
	s.t.Helper()
	code, out := s.call(method, path, token, body)
	if code != want {
		s.t.Fatalf("%s %s: status %d want %d (%+v)", method, path, code, want, out)
	}
	if into != nil {
		if err := json.Unmarshal(out.Data, into); err != nil {
			s.t.Fatalf("%s %s: decode data: %v", method, path, err)
		}
	}
}

func (s *server) register(email, userType string) string {
	s.t.Helper()
	var resp struct {
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
	}
	s.must(http.StatusCreated, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "correct-horse", "first_name": "Test", "last_name": "User", "user_type": userType,
	}, &resp)
	return resp.Access.Token
}

func (s *server) admin() string {
	s.t.Helper()
	u := &model.User{Email: "root@fixer.test", FirstName: "Ada", LastName: "Min", UserType: model.UserAdmin}
	if err := s.st.CreateUser(context.Background(), u); err != nil {
		s.t.Fatal(err)
	}
	tok, err := utils.NewAccessToken(secret, u.ID, u.Email, string(u.UserType), 15)
	if err != nil {
		s.t.Fatal(err)
	}
	return tok.Token
}

func userID(t *testing.T, token string) string {
	t.Helper()
	c, err := utils.ParseAccessToken(secret, token)
	if err != nil {
		t.Fatal(err)
	}
	return c.UserID
}

func TestMarketplaceOverHTTP(t *testing.T) {
	s := newServer(t)
	customer := s.register("cust@fixer.test", "customer")
	provider := s.register("pro@fixer.test", "provider")
	admin := s.admin()
	providerID := userID(t, provider)

	s.must(http.StatusCreated, http.MethodPost, "/api/providers", provider, map[string]any{
		"business_name": "Drip Fixers", "service_types": []string{"plumbing"},
	}, nil)
	s.must(http.StatusOK, http.MethodPatch, "/api/providers/"+providerID+"/verification", admin,
		map[string]string{"verification_status": "verified"}, nil)

	var sr model.ServiceRequest
	s.must(http.StatusCreated, http.MethodPost, "/api/service-requests", customer, map[string]any{
		"service_type": "plumbing",
		"title":        "Leaking sink",
		"description":  "Drips all night long.",
		"location":     map[string]string{"address": "1 Main St", "city": "Springfield"},
		"budget_min":   100,
		"budget_max":   300,
	}, &sr)
	if sr.Status != model.RequestOpen || sr.Urgency != model.UrgencyMedium {
		t.Fatalf("request = %+v", sr)
	}

	var q model.Quote
	s.must(http.StatusCreated, http.MethodPost, "/api/quotes", provider, map[string]any{
		"service_request_id": sr.ID, "amount": 150,
	}, &q)

	var page model.PageResult[model.Quote]
	s.must(http.StatusOK, http.MethodGet, "/api/quotes/service-request/"+sr.ID, customer, nil, &page)
	if len(page.Data) != 1 || page.Pagination.Total != 1 {
		t.Fatalf("quotes page = %+v", page)
	}

	s.must(http.StatusOK, http.MethodPatch, "/api/quotes/"+q.ID+"/status", customer,
		map[string]string{"status": "accepted"}, &q)
	if q.Status != model.QuoteAccepted {
		t.Fatalf("quote = %s", q.Status)
	}

	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	var b model.Booking
	s.must(http.StatusCreated, http.MethodPost, "/api/bookings", customer, map[string]any{
		"quote_id": q.ID, "scheduled_time": start,
	}, &b)
	if b.TotalAmount != 150 || b.Status != model.BookingScheduled {
		t.Fatalf("booking = %+v", b)
	}

	var avail struct {
		Available bool `json:"available"`
	}
	at := start.Add(30 * time.Minute).Format(time.RFC3339)
	s.must(http.StatusOK, http.MethodGet, "/api/bookings/availability?provider_id="+providerID+"&scheduled_time="+at, customer, nil, &avail)
	if avail.Available {
		t.Fatalf("slot at T+30 should be taken")
	}
	at = start.Add(90 * time.Minute).Format(time.RFC3339)
	s.must(http.StatusOK, http.MethodGet, "/api/bookings/availability?provider_id="+providerID+"&scheduled_time="+at+"&duration=60", customer, nil, &avail)
	if !avail.Available {
		t.Fatalf("slot at T+90 should be free")
	}

	s.must(http.StatusOK, http.MethodGet, "/api/service-requests/"+sr.ID, customer, nil, &sr)
	if sr.Status != model.RequestBooked {
		t.Fatalf("request status = %s", sr.Status)
	}

	s.must(http.StatusOK, http.MethodPatch, "/api/bookings/"+b.ID+"/status", provider, map[string]string{"status": "in_progress"}, nil)
	s.must(http.StatusOK, http.MethodGet, "/api/service-requests/"+sr.ID, customer, nil, &sr)
	if sr.Status != model.RequestInProgress {
		t.Fatalf("request status = %s", sr.Status)
	}
}

func TestAuthAndRoleErrors(t *testing.T) {
	s := newServer(t)
	customer := s.register("c@fixer.test", "customer")
	provider := s.register("p@fixer.test", "provider")

	code, out := s.call(http.MethodGet, "/api/service-requests", "", nil)
	if code != http.StatusUnauthorized || out.Error != "UNAUTHORIZED" {
		t.Fatalf("no token: %d %+v", code, out)
	}
	code, out = s.call(http.MethodPost, "/api/service-requests", provider, map[string]any{"title": "x"})
	if code != http.StatusForbidden || out.Error != "FORBIDDEN" {
		t.Fatalf("provider create: %d %+v", code, out)
	}
	code, out = s.call(http.MethodPost, "/api/quotes", customer, map[string]any{"amount": 1})
	if code != http.StatusForbidden {
		t.Fatalf("customer quote: %d %+v", code, out)
	}
	code, out = s.call(http.MethodPost, "/api/service-requests", customer, map[string]any{"title": "x"})
	if code != http.StatusBadRequest || out.Error != "VALIDATION_ERROR" {
		t.Fatalf("invalid body: %d %+v", code, out)
	}
	code, out = s.call(http.MethodGet, "/api/service-requests?colour=red", customer, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("unknown filter: %d %+v", code, out)
	}
	code, _ = s.call(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "boss@fixer.test", "password": "correct-horse", "first_name": "B", "last_name": "O", "user_type": "admin",
	})
	if code != http.StatusBadRequest {
		t.Fatalf("admin self-registration: %d", code)
	}
	code, out = s.call(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "C@fixer.test", "password": "correct-horse", "first_name": "C", "last_name": "D", "user_type": "customer",
	})
	if code != http.StatusBadRequest || out.Error != "CONFLICT" {
		t.Fatalf("duplicate email: %d %+v", code, out)
	}
}

func TestLoginRefreshLogout(t *testing.T) {
	s := newServer(t)
	s.register("login@fixer.test", "customer")

	var pair struct {
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
		Refresh struct {
			Token string `json:"token"`
		} `json:"refresh"`
	}
	code, _ := s.call(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "login@fixer.test", "password": "wrong-password"})
	if code != http.StatusUnauthorized {
		t.Fatalf("bad password: %d", code)
	}
	s.must(http.StatusOK, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "LOGIN@fixer.test", "password": "correct-horse"}, &pair)

	var me model.User
	s.must(http.StatusOK, http.MethodGet, "/api/auth/me", pair.Access.Token, nil, &me)
	if me.Email != "login@fixer.test" || me.UserType != model.UserCustomer {
		t.Fatalf("me = %+v", me)
	}

	old := pair.Refresh.Token
	s.must(http.StatusOK, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": old}, &pair)
	if pair.Refresh.Token == old {
		t.Fatalf("refresh token was not rotated")
	}
	if code, _ := s.call(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": old}); code != http.StatusUnauthorized {
		t.Fatalf("reused refresh token: %d", code)
	}

	s.must(http.StatusOK, http.MethodPost, "/api/auth/logout", pair.Access.Token, nil, nil)
	if code, _ := s.call(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": pair.Refresh.Token}); code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: %d", code)
	}
}

func TestConcurrentRefreshSpendsTokenOnce(t *testing.T) {
	s := newServer(t)
	s.register("race@fixer.test", "customer")

	var pair struct {
		Refresh struct {
			Token string `json:"token"`
		} `json:"refresh"`
	}
	s.must(http.StatusOK, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "race@fixer.test", "password": "correct-horse"}, &pair)
	body := `{"refresh_token":"` + pair.Refresh.Token + `"}`

	const n = 8
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			s.e.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			wins++
		case http.StatusUnauthorized:
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	if wins != 1 {
		t.Fatalf("refresh succeeded %d times, want 1 (%v)", wins, codes)
	}
}

func TestPublicCatalogue(t *testing.T) {
	s := newServer(t)
	admin := s.admin()
	provider := s.register("shop@fixer.test", "provider")
	providerID := userID(t, provider)

	s.must(http.StatusCreated, http.MethodPost, "/api/categories", admin, map[string]string{"name": "Fittings"}, nil)
	if code, _ := s.call(http.MethodPost, "/api/categories", provider, map[string]string{"name": "Tools"}); code != http.StatusForbidden {
		t.Fatalf("provider category: %d", code)
	}

	s.must(http.StatusCreated, http.MethodPost, "/api/providers", provider, map[string]any{
		"business_name": "Parts Co", "service_types": []string{"plumbing"},
	}, nil)
	if code, _ := s.call(http.MethodPost, "/api/products", provider, map[string]any{"name": "Valve", "sku": "V-1", "price": 4.5}); code != http.StatusForbidden {
		t.Fatalf("unverified product: %d", code)
	}
	s.must(http.StatusOK, http.MethodPatch, "/api/providers/"+providerID+"/verification", admin,
		map[string]string{"verification_status": "verified"}, nil)
	s.must(http.StatusCreated, http.MethodPost, "/api/products", provider, map[string]any{"name": "Valve", "sku": "V-1", "price": 4.5}, nil)

	var cats []model.Category
	s.must(http.StatusOK, http.MethodGet, "/api/categories", "", nil, &cats)
	if len(cats) != 1 {
		t.Fatalf("categories = %+v", cats)
	}
	var products model.PageResult[model.Product]
	s.must(http.StatusOK, http.MethodGet, "/api/products?search=valve", "", nil, &products)
	if len(products.Data) != 1 || products.Data[0].ProviderID != providerID {
		t.Fatalf("products = %+v", products)
	}
	var providers model.PageResult[model.ServiceProvider]
	s.must(http.StatusOK, http.MethodGet, "/api/providers", "", nil, &providers)
	if providers.Pagination.Total != 1 {
		t.Fatalf("providers = %+v", providers)
	}
}

func TestOperationalRoutes(t *testing.T) {
	s := newServer(t)
	if code, out := s.call(http.MethodGet, "/healthz", "", nil); code != http.StatusOK || !out.Success {
		t.Fatalf("healthz: %d %+v", code, out)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Fatalf("metrics: %d", rec.Code)
	}
}
