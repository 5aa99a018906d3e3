package booking

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStatusStore mirrors the latest booking status into a Redis hash per
// order and appends lifecycle entries to a capped stream, for cheap
// live-status reads without touching the primary store.
type RedisStatusStore struct {
	client    RedisPipelineClient
	stream    string
	keyPrefix string
	ttl       time.Duration
	maxLen    int64
}

// RedisPipelineClient is the minimal client surface used by RedisStatusStore.
type RedisPipelineClient interface {
	Pipeline() RedisPipeliner
}

// RedisPipeliner is the subset of commands used within a pipeline.
type RedisPipeliner interface {
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Exec(ctx context.Context) ([]redis.Cmder, error)
}

// NewRedisStatusStore constructs a Redis-backed status mirror.
func NewRedisStatusStore(client RedisPipelineClient, stream string, ttl time.Duration, maxLen int64) *RedisStatusStore {
	if stream == "" {
		stream = "booking_events"
	}
	return &RedisStatusStore{
		client:    client,
		stream:    stream,
		keyPrefix: "booking:",
		ttl:       ttl,
		maxLen:    maxLen,
	}
}

func (r *RedisStatusStore) UpdatePaymentStatus(ctx context.Context, orderID, userEmail, status string) error {
	return r.write(ctx, orderID, map[string]any{
		"order_id":       orderID,
		"user_email":     userEmail,
		"payment_status": status,
	}, map[string]any{
		"order_id": orderID,
		"kind":     "payment_status",
		"status":   status,
	})
}

func (r *RedisStatusStore) SaveBooking(ctx context.Context, rec Record) error {
	return r.write(ctx, rec.OrderID, map[string]any{
		"order_id":       rec.OrderID,
		"user_email":     rec.UserEmail,
		"payment_status": rec.PaymentStatus,
		"booking_status": rec.BookingStatus,
		"booking_ref":    rec.BookingRef,
		"booked_via":     rec.BookedVia,
	}, map[string]any{
		"order_id": rec.OrderID,
		"kind":     "booking_saved",
		"status":   rec.BookingStatus,
	})
}

func (r *RedisStatusStore) RecordRun(ctx context.Context, run RunRecord) error {
	return r.write(ctx, run.OrderID, map[string]any{
		"order_id":   run.OrderID,
		"user_email": run.UserEmail,
		"run_status": run.Status,
	}, map[string]any{
		"order_id": run.OrderID,
		"kind":     "run_finished",
		"status":   run.Status,
	})
}

func (r *RedisStatusStore) write(ctx context.Context, orderID string, hash map[string]any, streamValues map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	hash["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	pipe := r.client.Pipeline()
	key := r.keyPrefix + orderID
	pipe.HSet(ctx, key, hash)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: streamValues,
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}
	pipe.XAdd(ctx, args)

	_, err := pipe.Exec(ctx)
	return err
}
