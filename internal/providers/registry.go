package providers

// RegistryBuilder collects provider implementations at startup. The built
// registry is immutable and safe for concurrent use without synchronization.
type RegistryBuilder struct {
	hotels   []HotelProvider
	strategy FallbackStrategy
}

// NewRegistryBuilder constructs an empty builder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{}
}

// WithHotelProvider appends a provider to the ordered hotel capability list.
func (b *RegistryBuilder) WithHotelProvider(p HotelProvider) *RegistryBuilder {
	if p != nil {
		b.hotels = append(b.hotels, p)
	}
	return b
}

// WithFallbackStrategy overrides the default strategy used when two or more
// providers are registered.
func (b *RegistryBuilder) WithFallbackStrategy(s FallbackStrategy) *RegistryBuilder {
	b.strategy = s
	return b
}

// Registry hands out the provider for each capability.
type Registry struct {
	hotels HotelProvider
}

// Build finalizes the registry. A single registration is handed out directly
// with no composite wrapping; two or more are wrapped in a fallback composite.
func (b *RegistryBuilder) Build() *Registry {
	reg := &Registry{}
	switch len(b.hotels) {
	case 0:
	case 1:
		reg.hotels = b.hotels[0]
	default:
		reg.hotels = NewComposite(b.hotels, b.strategy)
	}
	return reg
}

// Hotels returns the hotel capability provider, or nil when none registered.
func (r *Registry) Hotels() HotelProvider {
	return r.hotels
}
