package providers

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrProviderOpen indicates a guarded provider is refusing calls after
// repeated failures.
var ErrProviderOpen = errors.New("provider circuit open")

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// GuardedProvider wraps a HotelProvider with a circuit breaker. While the
// breaker is open the provider reports itself unhealthy, which lets the
// composite's health pre-filter route around it without waiting on a doomed
// upstream call.
type GuardedProvider struct {
	base        HotelProvider
	maxFailures int
	resetAfter  time.Duration
	now         func() time.Time

	mu       sync.Mutex
	state    breakerState
	failures int
	openedAt time.Time
	probing  bool
}

// NewGuardedProvider wraps base with a breaker that opens after maxFailures
// consecutive transient failures and allows a probe call after resetAfter.
func NewGuardedProvider(base HotelProvider, maxFailures int, resetAfter time.Duration) *GuardedProvider {
	if maxFailures < 1 {
		maxFailures = 1
	}
	if resetAfter <= 0 {
		resetAfter = 2 * time.Second
	}
	return &GuardedProvider{
		base:        base,
		maxFailures: maxFailures,
		resetAfter:  resetAfter,
		now:         time.Now,
	}
}

func (g *GuardedProvider) Name() string { return g.base.Name() }

// IsHealthy reports the base provider's health gated by breaker state.
func (g *GuardedProvider) IsHealthy() bool {
	g.mu.Lock()
	open := g.state == breakerOpen && g.now().Sub(g.openedAt) < g.resetAfter
	g.mu.Unlock()
	return !open && g.base.IsHealthy()
}

func (g *GuardedProvider) Search(ctx context.Context, criteria SearchCriteria) (SearchResponse, error) {
	var resp SearchResponse
	err := g.execute("search", func() error {
		var callErr error
		resp, callErr = g.base.Search(ctx, criteria)
		return callErr
	})
	return resp, err
}

func (g *GuardedProvider) GetDetails(ctx context.Context, hotelCode string) (HotelDetails, error) {
	var details HotelDetails
	err := g.execute("get_details", func() error {
		var callErr error
		details, callErr = g.base.GetDetails(ctx, hotelCode)
		return callErr
	})
	return details, err
}

func (g *GuardedProvider) BlockRoom(ctx context.Context, req BlockRequest) (BlockResponse, error) {
	var resp BlockResponse
	err := g.execute("block_room", func() error {
		var callErr error
		resp, callErr = g.base.BlockRoom(ctx, req)
		return callErr
	})
	return resp, err
}

func (g *GuardedProvider) BookRoom(ctx context.Context, req BookRequest) (BookResponse, error) {
	var resp BookResponse
	err := g.execute("book_room", func() error {
		var callErr error
		resp, callErr = g.base.BookRoom(ctx, req)
		return callErr
	})
	return resp, err
}

func (g *GuardedProvider) execute(step string, fn func() error) error {
	now := g.now()

	g.mu.Lock()
	switch g.state {
	case breakerOpen:
		if now.Sub(g.openedAt) < g.resetAfter {
			g.mu.Unlock()
			return NewError(g.base.Name(), ErrorKindServiceUnavailable, step, ErrProviderOpen.Error())
		}
		g.state = breakerHalfOpen
	case breakerHalfOpen:
		if g.probing {
			g.mu.Unlock()
			return NewError(g.base.Name(), ErrorKindServiceUnavailable, step, ErrProviderOpen.Error())
		}
	}
	if g.state == breakerHalfOpen {
		g.probing = true
	}
	g.mu.Unlock()

	err := fn()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == breakerHalfOpen {
		g.probing = false
	}

	if err == nil {
		g.state = breakerClosed
		g.failures = 0
		return nil
	}

	// Only transient failures trip the breaker; a NotFound or InvalidRequest
	// says nothing about provider availability.
	if !countsAgainstBreaker(err) {
		return err
	}

	if g.state == breakerHalfOpen {
		g.state = breakerOpen
		g.openedAt = now
		g.failures = 0
		return err
	}

	g.failures++
	if g.failures >= g.maxFailures {
		g.state = breakerOpen
		g.openedAt = now
	}
	return err
}

func countsAgainstBreaker(err error) bool {
	perr, ok := err.(*Error)
	if !ok {
		return true
	}
	return perr.Retryable()
}
