package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"innkeeper/internal/booking"
	"innkeeper/internal/observability"
	"innkeeper/internal/providers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *booking.MemoryStore) {
	t.Helper()

	store := booking.NewMemoryStore()
	err := store.SaveBooking(context.Background(), booking.Record{
		OrderID:   "order-1",
		UserEmail: "guest@example.com",
		HotelCode: "HTL-1",
		RoomCode:  "STD",
		GuestName: "Ada Guest",
	})
	if err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	provider := providers.NewMemoryProvider("memory")
	provider.AddHotel(providers.HotelDetails{HotelCode: "HTL-1", Name: "Harbor View"}, 120)

	metrics := observability.NewMetrics()

	service := booking.NewService(booking.ServiceConfig{
		Store:           store,
		Gateway:         booking.NewMemoryPaymentGateway(),
		Hotels:          provider,
		Metrics:         metrics,
		PollMaxAttempts: 1,
	})

	return NewServer(ServerConfig{
		Service: service,
		Metrics: metrics,
	}), store
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestConfirmEndpointHappyPath(t *testing.T) {
	server, store := newTestServer(t)
	router := server.Router()

	rec := postJSON(t, router, "/v1/bookings/confirm", booking.ConfirmRequest{
		PaymentID: "pay-1",
		OrderID:   "order-1",
		UserEmail: "guest@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res booking.ConfirmResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Success || res.OrderID != "order-1" {
		t.Fatalf("unexpected result %+v", res)
	}

	saved, err := store.GetBooking(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if saved.BookingStatus != booking.BookingStatusBooked {
		t.Fatalf("booking not completed: %+v", saved)
	}
}

func TestConfirmEndpointRejectsInvalidBody(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	req := httptest.NewRequest(http.MethodPost, "/v1/bookings/confirm", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestConfirmEndpointRejectsMissingIdentifiers(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	rec := postJSON(t, router, "/v1/bookings/confirm", booking.ConfirmRequest{
		PaymentID: "pay-1",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLocksEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	server.service.Locks().TryAcquire("pay-1", "order-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/locks", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Count int      `json:"count"`
		Keys  []string `json:"keys"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 || len(body.Keys) != 1 || body.Keys[0] != "pay-1:order-1" {
		t.Fatalf("unexpected locks body %+v", body)
	}
}

func TestHealthzEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	postJSON(t, router, "/v1/bookings/confirm", booking.ConfirmRequest{
		PaymentID: "pay-1",
		OrderID:   "order-1",
		UserEmail: "guest@example.com",
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var snap observability.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Operations["booking.Confirm"].Count != 1 {
		t.Fatalf("confirm span missing from snapshot: %+v", snap)
	}
}

func TestRateLimitMiddlewareRejectsOnCancel(t *testing.T) {
	server, _ := newTestServer(t)
	server.limiter = NewRateLimiter(time.Hour, 1, nil)
	router := server.Router()

	// First request consumes the only token.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil).WithContext(ctx)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}
