package booking

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.GetBooking(ctx, "missing"); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}

	rec := Record{OrderID: "order-1", UserEmail: "guest@example.com", HotelCode: "HTL-1"}
	if err := store.SaveBooking(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.GetBooking(ctx, "order-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.HotelCode != "HTL-1" || got.UpdatedAt.IsZero() {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestMemoryStoreUpdatePaymentStatusCreatesSkeleton(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.UpdatePaymentStatus(ctx, "order-1", "guest@example.com", PaymentStatusPaid); err != nil {
		t.Fatalf("update: %v", err)
	}

	rec, err := store.GetBooking(ctx, "order-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.PaymentStatus != PaymentStatusPaid || rec.BookingStatus != BookingStatusPending {
		t.Fatalf("unexpected skeleton %+v", rec)
	}
	if rec.UserEmail != "guest@example.com" {
		t.Fatalf("email not carried: %+v", rec)
	}
}

func TestMemoryStoreRecordRun(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.RecordRun(ctx, RunRecord{OrderID: "order-1", Status: RunStatusCompleted}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := store.RecordRun(ctx, RunRecord{OrderID: "order-2", Status: RunStatusFailed, Detail: "boom"}); err != nil {
		t.Fatalf("record run: %v", err)
	}

	runs := store.Runs()
	if len(runs) != 2 || runs[1].Detail != "boom" {
		t.Fatalf("unexpected runs %+v", runs)
	}
}

func TestMemoryStoreRecoversFromWAL(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bookings.wal")

	wal, err := NewFileWAL(path)
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}
	store, err := NewMemoryStoreWithRecovery(wal)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := store.SaveBooking(ctx, Record{OrderID: "order-1", UserEmail: "guest@example.com", BookingStatus: BookingStatusBooked}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.UpdatePaymentStatus(ctx, "order-1", "guest@example.com", PaymentStatusPaid); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.RecordRun(ctx, RunRecord{OrderID: "order-1", Status: RunStatusCompleted}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := wal.Close(); err != nil {
		t.Fatalf("close wal: %v", err)
	}

	wal2, err := NewFileWAL(path)
	if err != nil {
		t.Fatalf("reopen wal: %v", err)
	}
	t.Cleanup(func() { wal2.Close() })

	recovered, err := NewMemoryStoreWithRecovery(wal2)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}

	rec, err := recovered.GetBooking(ctx, "order-1")
	if err != nil {
		t.Fatalf("get after recovery: %v", err)
	}
	if rec.PaymentStatus != PaymentStatusPaid || rec.BookingStatus != BookingStatusBooked {
		t.Fatalf("state not rebuilt: %+v", rec)
	}
	if runs := recovered.Runs(); len(runs) != 1 || runs[0].Status != RunStatusCompleted {
		t.Fatalf("runs not rebuilt: %+v", runs)
	}
}

func TestMemoryStoreHonorsContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.GetBooking(ctx, "order-1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := store.SaveBooking(ctx, Record{OrderID: "order-1"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
