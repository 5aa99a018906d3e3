package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryProvider serves hotel data from an in-memory catalog. It lets the
// service run end-to-end without upstream credentials and gives tests a
// deterministic provider.
type MemoryProvider struct {
	name string

	mu      sync.Mutex
	hotels  map[string]HotelDetails
	prices  map[string]float64
	blocks  map[string]BlockRequest
	nextSeq int
}

// NewMemoryProvider constructs an empty in-memory provider.
func NewMemoryProvider(name string) *MemoryProvider {
	if name == "" {
		name = "memory"
	}
	return &MemoryProvider{
		name:   name,
		hotels: make(map[string]HotelDetails),
		prices: make(map[string]float64),
		blocks: make(map[string]BlockRequest),
	}
}

// AddHotel registers a hotel in the catalog.
func (m *MemoryProvider) AddHotel(details HotelDetails, nightlyPrice float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotels[details.HotelCode] = details
	m.prices[details.HotelCode] = nightlyPrice
}

func (m *MemoryProvider) Name() string    { return m.name }
func (m *MemoryProvider) IsHealthy() bool { return true }

func (m *MemoryProvider) Search(ctx context.Context, criteria SearchCriteria) (SearchResponse, error) {
	if err := ctx.Err(); err != nil {
		return SearchResponse{}, NewError(m.name, ErrorKindNetwork, "search", err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	resp := SearchResponse{Provider: m.name}
	for code, details := range m.hotels {
		if criteria.Place != "" && !strings.EqualFold(details.Address, criteria.Place) && !strings.Contains(strings.ToLower(details.Address), strings.ToLower(criteria.Place)) {
			continue
		}
		resp.Hotels = append(resp.Hotels, HotelSummary{
			HotelCode: code,
			Name:      details.Name,
			City:      details.Address,
			Price:     m.prices[code],
			Currency:  "USD",
		})
	}
	return resp, nil
}

func (m *MemoryProvider) GetDetails(ctx context.Context, hotelCode string) (HotelDetails, error) {
	if err := ctx.Err(); err != nil {
		return HotelDetails{}, NewError(m.name, ErrorKindNetwork, "get_details", err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	details, ok := m.hotels[hotelCode]
	if !ok {
		return HotelDetails{}, NewError(m.name, ErrorKindNotFound, "get_details", "unknown hotel "+hotelCode)
	}
	return details, nil
}

func (m *MemoryProvider) BlockRoom(ctx context.Context, req BlockRequest) (BlockResponse, error) {
	if err := ctx.Err(); err != nil {
		return BlockResponse{}, NewError(m.name, ErrorKindNetwork, "block_room", err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.hotels[req.HotelCode]; !ok {
		return BlockResponse{}, NewError(m.name, ErrorKindNotFound, "block_room", "unknown hotel "+req.HotelCode)
	}

	m.nextSeq++
	blockID := fmt.Sprintf("%s-block-%d", m.name, m.nextSeq)
	m.blocks[blockID] = req

	return BlockResponse{
		Provider:   m.name,
		BlockID:    blockID,
		TotalPrice: m.prices[req.HotelCode],
		Currency:   "USD",
	}, nil
}

func (m *MemoryProvider) BookRoom(ctx context.Context, req BookRequest) (BookResponse, error) {
	if err := ctx.Err(); err != nil {
		return BookResponse{}, NewError(m.name, ErrorKindNetwork, "book_room", err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if req.BlockID != "" {
		if _, ok := m.blocks[req.BlockID]; !ok {
			return BookResponse{}, NewError(m.name, ErrorKindInvalidRequest, "book_room", "unknown block "+req.BlockID)
		}
		delete(m.blocks, req.BlockID)
	}

	m.nextSeq++
	return BookResponse{
		Provider:         m.name,
		ConfirmationCode: fmt.Sprintf("%s-conf-%d", m.name, m.nextSeq),
		Status:           "confirmed",
	}, nil
}
