package bookingdb

import (
	"context"
	"database/sql"
	"errors"

	"innkeeper/internal/booking"
)

// Store persists booking records and run outcomes in Postgres.
type Store struct {
	db *sql.DB
}

// NewStore constructs a Store backed by Postgres.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// NewStoreWithSchema initializes the schema then returns the store.
func NewStoreWithSchema(ctx context.Context, db *sql.DB) (*Store, error) {
	store := NewStore(db)
	if err := store.InitSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// InitSchema creates booking tables if they do not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
			order_id TEXT PRIMARY KEY,
			user_email TEXT NOT NULL,
			payment_id TEXT,
			provider TEXT,
			hotel_code TEXT,
			room_code TEXT,
			check_in TEXT,
			check_out TEXT,
			guest_name TEXT,
			payment_status TEXT NOT NULL DEFAULT '',
			booking_status TEXT NOT NULL DEFAULT 'pending',
			booking_ref TEXT,
			booked_via TEXT,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS booking_runs (
			id BIGSERIAL PRIMARY KEY,
			order_id TEXT NOT NULL,
			user_email TEXT NOT NULL,
			status TEXT NOT NULL,
			detail TEXT,
			finished_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}

// GetBooking loads the record for an order.
func (s *Store) GetBooking(ctx context.Context, orderID string) (booking.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT order_id, user_email, COALESCE(payment_id, ''), COALESCE(provider, ''),
			COALESCE(hotel_code, ''), COALESCE(room_code, ''), COALESCE(check_in, ''),
			COALESCE(check_out, ''), COALESCE(guest_name, ''), payment_status,
			booking_status, COALESCE(booking_ref, ''), COALESCE(booked_via, ''), updated_at
		FROM bookings
		WHERE order_id = $1`,
		orderID,
	)

	var rec booking.Record
	err := row.Scan(
		&rec.OrderID, &rec.UserEmail, &rec.PaymentID, &rec.Provider,
		&rec.HotelCode, &rec.RoomCode, &rec.CheckIn, &rec.CheckOut,
		&rec.GuestName, &rec.PaymentStatus, &rec.BookingStatus,
		&rec.BookingRef, &rec.BookedVia, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.Record{}, booking.ErrBookingNotFound
	}
	if err != nil {
		return booking.Record{}, err
	}
	return rec, nil
}

// UpdatePaymentStatus upserts the payment status for an order, creating a
// pending row when the booking has not been seen yet.
func (s *Store) UpdatePaymentStatus(ctx context.Context, orderID, userEmail, status string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (order_id, user_email, payment_status, booking_status, updated_at)
		VALUES ($1, $2, $3, 'pending', NOW())
		ON CONFLICT (order_id) DO UPDATE
		SET payment_status = EXCLUDED.payment_status, updated_at = NOW()`,
		orderID, userEmail, status,
	)
	return err
}

// SaveBooking upserts the full booking record.
func (s *Store) SaveBooking(ctx context.Context, rec booking.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (
			order_id, user_email, payment_id, provider, hotel_code, room_code,
			check_in, check_out, guest_name, payment_status, booking_status,
			booking_ref, booked_via, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (order_id) DO UPDATE SET
			user_email = EXCLUDED.user_email,
			payment_id = EXCLUDED.payment_id,
			provider = EXCLUDED.provider,
			hotel_code = EXCLUDED.hotel_code,
			room_code = EXCLUDED.room_code,
			check_in = EXCLUDED.check_in,
			check_out = EXCLUDED.check_out,
			guest_name = EXCLUDED.guest_name,
			payment_status = EXCLUDED.payment_status,
			booking_status = EXCLUDED.booking_status,
			booking_ref = EXCLUDED.booking_ref,
			booked_via = EXCLUDED.booked_via,
			updated_at = NOW()`,
		rec.OrderID, rec.UserEmail, rec.PaymentID, rec.Provider, rec.HotelCode,
		rec.RoomCode, rec.CheckIn, rec.CheckOut, rec.GuestName, rec.PaymentStatus,
		rec.BookingStatus, rec.BookingRef, rec.BookedVia,
	)
	return err
}

// RecordRun appends a pipeline run outcome row.
func (s *Store) RecordRun(ctx context.Context, run booking.RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO booking_runs (order_id, user_email, status, detail, finished_at)
		VALUES ($1, $2, $3, $4, $5)`,
		run.OrderID, run.UserEmail, run.Status, run.Detail, run.FinishedAt,
	)
	return err
}
