package booking

import (
	"context"

	"innkeeper/internal/events"
	"innkeeper/internal/providers"
)

// BookRoomStep books the held room with the configured hotel provider (or
// fallback composite) and persists the resulting booking record.
type BookRoomStep struct {
	hotels providers.HotelProvider
	store  Store
}

// NewBookRoomStep constructs a BookRoomStep.
func NewBookRoomStep(hotels providers.HotelProvider, store Store) *BookRoomStep {
	return &BookRoomStep{hotels: hotels, store: store}
}

func (s *BookRoomStep) Name() string { return "book_room" }

func (s *BookRoomStep) Validate(ev Event) Decision {
	if ev.BackendPaymentStatus != PaymentStatusPaid {
		return Abort("payment not completed")
	}
	if ev.BackendBookingStatus == BookingStatusBooked {
		return Skip()
	}
	if s.hotels == nil {
		return Abort("no hotel provider configured")
	}
	return Proceed()
}

func (s *BookRoomStep) Execute(ctx context.Context, ev Event, notifier *events.Notifier) (Event, error) {
	rec, err := s.store.GetBooking(ctx, ev.OrderID)
	if err != nil {
		return ev, err
	}

	block, err := s.hotels.BlockRoom(ctx, providers.BlockRequest{
		HotelCode: rec.HotelCode,
		RoomCode:  rec.RoomCode,
		CheckIn:   rec.CheckIn,
		CheckOut:  rec.CheckOut,
	})
	if err != nil {
		return ev, err
	}

	booked, err := s.hotels.BookRoom(ctx, providers.BookRequest{
		BlockID:    block.BlockID,
		HotelCode:  rec.HotelCode,
		GuestName:  rec.GuestName,
		GuestEmail: ev.UserEmail,
		Reference:  ev.OrderID,
	})
	if err != nil {
		return ev, err
	}

	rec.PaymentID = ev.PaymentID
	rec.Provider = ev.Provider
	rec.PaymentStatus = ev.BackendPaymentStatus
	rec.BookingStatus = BookingStatusBooked
	rec.BookingRef = booked.ConfirmationCode
	rec.BookedVia = booked.Provider
	if err := s.store.SaveBooking(ctx, rec); err != nil {
		return ev, err
	}

	ev.BackendBookingStatus = BookingStatusBooked
	ev.BookingRecord = &rec
	return ev, nil
}
