package observability

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMetricsTracksOperations(t *testing.T) {
	metrics := NewMetrics()
	span := metrics.Start("booking.Confirm")
	time.Sleep(1 * time.Millisecond)
	span.End(nil)

	span = metrics.Start("booking.Confirm")
	span.End(errors.New("fail"))

	snap := metrics.Snapshot()
	stats := snap.Operations["booking.Confirm"]
	if stats.Count != 2 {
		t.Fatalf("expected 2 calls, got %d", stats.Count)
	}
	if stats.Errors != 1 {
		t.Fatalf("expected 1 error, got %d", stats.Errors)
	}
	if stats.InFlight != 0 {
		t.Fatalf("expected 0 inflight, got %d", stats.InFlight)
	}
	if snap.TotalRequests != 2 || snap.TotalErrors != 1 {
		t.Fatalf("unexpected totals: %+v", snap)
	}
}

func TestMetricsTracksDroppedEvents(t *testing.T) {
	metrics := NewMetrics()
	metrics.AddDroppedEvent()
	metrics.AddDroppedEvent()

	if snap := metrics.Snapshot(); snap.DroppedEvents != 2 {
		t.Fatalf("expected 2 dropped events, got %d", snap.DroppedEvents)
	}
}

func TestMetricsTracksRateLimitWait(t *testing.T) {
	metrics := NewMetrics()
	metrics.AddRateLimitWait(50 * time.Millisecond)
	metrics.AddRateLimitWait(25 * time.Millisecond)
	metrics.AddRateLimitWait(0)

	snap := metrics.Snapshot()
	if snap.RateLimitWaits != 2 {
		t.Fatalf("expected 2 waits, got %d", snap.RateLimitWaits)
	}
	if snap.RateLimitWaitMs != 75 {
		t.Fatalf("expected 75ms, got %d", snap.RateLimitWaitMs)
	}
}

func TestMetricsMarkShutdown(t *testing.T) {
	metrics := NewMetrics()
	metrics.MarkShutdown(3)
	snap := metrics.Snapshot()
	if snap.Lifecycle == nil {
		t.Fatalf("expected lifecycle snapshot")
	}
	if snap.Lifecycle.InFlightAtShutdown != 3 {
		t.Fatalf("expected inflight 3, got %d", snap.Lifecycle.InFlightAtShutdown)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var metrics *Metrics
	span := metrics.Start("anything")
	span.End(nil)
	metrics.AddDroppedEvent()
	metrics.AddRateLimitWait(time.Second)
	metrics.MarkShutdown(1)
	if snap := metrics.Snapshot(); snap.TotalRequests != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestHandlerServesSnapshot(t *testing.T) {
	metrics := NewMetrics()
	span := metrics.Start("api.confirm")
	span.End(nil)

	rec := httptest.NewRecorder()
	Handler(metrics).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Operations["api.confirm"].Count != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
