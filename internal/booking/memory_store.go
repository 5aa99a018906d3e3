package booking

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore keeps booking records in memory, optionally journaling every
// mutation to a WAL so a restart can rebuild state. It is the fallback when
// no database is configured, and the deterministic store for tests.
type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[string]Record
	runs     []RunRecord
	wal      WAL
}

type walEntry struct {
	Op     string     `json:"op"`
	Record *Record    `json:"record,omitempty"`
	Run    *RunRecord `json:"run,omitempty"`
}

const (
	walOpSave = "save"
	walOpRun  = "run"
)

// NewMemoryStore constructs an empty in-memory store without journaling.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bookings: make(map[string]Record)}
}

// NewMemoryStoreWithRecovery constructs a store journaling to wal, replaying
// any existing journal into memory first.
func NewMemoryStoreWithRecovery(wal *FileWAL) (*MemoryStore, error) {
	s := &MemoryStore{bookings: make(map[string]Record)}
	err := wal.Replay(func(line []byte) error {
		var entry walEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return err
		}
		switch entry.Op {
		case walOpSave:
			if entry.Record != nil {
				s.bookings[entry.Record.OrderID] = *entry.Record
			}
		case walOpRun:
			if entry.Run != nil {
				s.runs = append(s.runs, *entry.Run)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.wal = wal
	return s, nil
}

func (s *MemoryStore) GetBooking(ctx context.Context, orderID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	s.mu.RLock()
	rec, ok := s.bookings[orderID]
	s.mu.RUnlock()
	if !ok {
		return Record{}, ErrBookingNotFound
	}
	return rec, nil
}

func (s *MemoryStore) UpdatePaymentStatus(ctx context.Context, orderID, userEmail, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	rec, ok := s.bookings[orderID]
	if !ok {
		rec = Record{OrderID: orderID, UserEmail: userEmail, BookingStatus: BookingStatusPending}
	}
	rec.PaymentStatus = status
	rec.UpdatedAt = time.Now().UTC()
	s.bookings[orderID] = rec
	s.mu.Unlock()

	return s.journal(walEntry{Op: walOpSave, Record: &rec})
}

func (s *MemoryStore) SaveBooking(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rec.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	s.bookings[rec.OrderID] = rec
	s.mu.Unlock()

	return s.journal(walEntry{Op: walOpSave, Record: &rec})
}

func (s *MemoryStore) RecordRun(ctx context.Context, run RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.runs = append(s.runs, run)
	s.mu.Unlock()

	return s.journal(walEntry{Op: walOpRun, Run: &run})
}

// Runs returns a copy of the recorded pipeline runs (for inspection/tests).
func (s *MemoryStore) Runs() []RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RunRecord(nil), s.runs...)
}

func (s *MemoryStore) journal(entry walEntry) error {
	if s.wal == nil {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.wal.Write(data)
}
