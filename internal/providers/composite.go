package providers

import "context"

// FallbackStrategy decides whether the composite may advance to the next
// provider after a failure.
type FallbackStrategy interface {
	ShouldAdvance(err error) bool
	SkipUnhealthy() bool
}

// DefaultFallbackStrategy advances only on fallback-eligible provider errors
// and pre-filters providers reporting themselves unhealthy.
type DefaultFallbackStrategy struct{}

func (DefaultFallbackStrategy) ShouldAdvance(err error) bool {
	perr, ok := err.(*Error)
	if !ok {
		return false
	}
	return perr.ShouldFallback()
}

func (DefaultFallbackStrategy) SkipUnhealthy() bool { return true }

// Composite tries an ordered list of providers for each capability call,
// advancing past a provider only when the strategy allows it. The last error
// is surfaced unchanged when providers are exhausted or the error is not
// fallback-eligible.
type Composite struct {
	providers []HotelProvider
	strategy  FallbackStrategy
}

// NewComposite constructs a Composite over the given ordered providers.
func NewComposite(providers []HotelProvider, strategy FallbackStrategy) *Composite {
	if strategy == nil {
		strategy = DefaultFallbackStrategy{}
	}
	return &Composite{providers: providers, strategy: strategy}
}

// Name identifies the composite in classified errors.
func (c *Composite) Name() string { return "composite" }

// IsHealthy reports whether any underlying provider is healthy.
func (c *Composite) IsHealthy() bool {
	for _, p := range c.providers {
		if p.IsHealthy() {
			return true
		}
	}
	return false
}

func (c *Composite) Search(ctx context.Context, criteria SearchCriteria) (SearchResponse, error) {
	var resp SearchResponse
	err := c.attempt(ctx, "search", func(ctx context.Context, p HotelProvider) error {
		var callErr error
		resp, callErr = p.Search(ctx, criteria)
		return callErr
	})
	return resp, err
}

func (c *Composite) GetDetails(ctx context.Context, hotelCode string) (HotelDetails, error) {
	var details HotelDetails
	err := c.attempt(ctx, "get_details", func(ctx context.Context, p HotelProvider) error {
		var callErr error
		details, callErr = p.GetDetails(ctx, hotelCode)
		return callErr
	})
	return details, err
}

func (c *Composite) BlockRoom(ctx context.Context, req BlockRequest) (BlockResponse, error) {
	var resp BlockResponse
	err := c.attempt(ctx, "block_room", func(ctx context.Context, p HotelProvider) error {
		var callErr error
		resp, callErr = p.BlockRoom(ctx, req)
		return callErr
	})
	return resp, err
}

func (c *Composite) BookRoom(ctx context.Context, req BookRequest) (BookResponse, error) {
	var resp BookResponse
	err := c.attempt(ctx, "book_room", func(ctx context.Context, p HotelProvider) error {
		var callErr error
		resp, callErr = p.BookRoom(ctx, req)
		return callErr
	})
	return resp, err
}

// attempt walks the provider list in order. Health is only a pre-filter: if
// every provider is filtered out, the last one is still attempted so the
// caller always sees a real provider error rather than a synthetic one.
func (c *Composite) attempt(ctx context.Context, step string, call func(context.Context, HotelProvider) error) error {
	if len(c.providers) == 0 {
		return NewError("composite", ErrorKindInternal, step, "no providers configured")
	}

	var lastErr error
	for i, provider := range c.providers {
		last := i == len(c.providers)-1
		if !last && c.strategy.SkipUnhealthy() && !provider.IsHealthy() {
			continue
		}

		err := call(ctx, provider)
		if err == nil {
			return nil
		}
		lastErr = err

		if last || !c.strategy.ShouldAdvance(err) {
			return err
		}
	}
	return lastErr
}
