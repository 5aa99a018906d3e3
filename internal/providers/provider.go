package providers

import "context"

// SearchCriteria describes a hotel search request.
type SearchCriteria struct {
	Place    string
	CheckIn  string
	CheckOut string
	Guests   int
	Rooms    int
}

// HotelSummary is one result row from a hotel search.
type HotelSummary struct {
	HotelCode string
	Name      string
	City      string
	Price     float64
	Currency  string
}

// SearchResponse holds hotel search results.
type SearchResponse struct {
	Provider string
	Hotels   []HotelSummary
}

// HotelDetails describes a single hotel.
type HotelDetails struct {
	HotelCode   string
	Name        string
	Address     string
	Description string
	Amenities   []string
}

// BlockRequest asks a provider to hold a room before booking.
type BlockRequest struct {
	HotelCode string
	RoomCode  string
	CheckIn   string
	CheckOut  string
	Guests    int
}

// BlockResponse confirms a room hold.
type BlockResponse struct {
	Provider   string
	BlockID    string
	TotalPrice float64
	Currency   string
}

// BookRequest asks a provider to finalize a booking for a held room.
type BookRequest struct {
	BlockID    string
	HotelCode  string
	GuestName  string
	GuestEmail string
	Reference  string
}

// BookResponse confirms a finalized booking.
type BookResponse struct {
	Provider         string
	ConfirmationCode string
	Status           string
}

// HotelProvider is the capability surface every upstream hotel/place data
// source implements. The fallback composite exposes the identical signature
// set so callers are agnostic to single- vs. multi-provider configuration.
type HotelProvider interface {
	Name() string
	IsHealthy() bool
	Search(ctx context.Context, criteria SearchCriteria) (SearchResponse, error)
	GetDetails(ctx context.Context, hotelCode string) (HotelDetails, error)
	BlockRoom(ctx context.Context, req BlockRequest) (BlockResponse, error)
	BookRoom(ctx context.Context, req BookRequest) (BookResponse, error)
}
