package providers

import (
	"strings"
	"testing"
)

func TestShouldFallback(t *testing.T) {
	eligible := []ErrorKind{ErrorKindNetwork, ErrorKindServiceUnavailable, ErrorKindRateLimited}
	for _, kind := range eligible {
		if !ShouldFallback(kind) {
			t.Fatalf("expected %s to be fallback eligible", kind)
		}
	}

	terminal := []ErrorKind{
		ErrorKindAuth,
		ErrorKindInvalidRequest,
		ErrorKindNotFound,
		ErrorKindParse,
		ErrorKindInternal,
		ErrorKindOther,
	}
	for _, kind := range terminal {
		if ShouldFallback(kind) {
			t.Fatalf("expected %s to be terminal", kind)
		}
	}
}

func TestErrorRetryableDerivedFromKind(t *testing.T) {
	err := NewError("alpha", ErrorKindRateLimited, "search", "slow down")
	if !err.Retryable() || !err.ShouldFallback() {
		t.Fatalf("rate limited error should be retryable and fallback eligible")
	}

	err = NewError("alpha", ErrorKindInvalidRequest, "search", "bad dates")
	if err.Retryable() || err.ShouldFallback() {
		t.Fatalf("invalid request error should be terminal")
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewError("alpha", ErrorKindNetwork, "block_room", "connection reset")
	for _, want := range []string{"alpha", "block_room", "network", "connection reset"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error %q to contain %q", err.Error(), want)
		}
	}
}
