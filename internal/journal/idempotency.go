package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyPrefix = "journal:idem:"

// ErrDuplicateSubmission indicates the Idempotency-Key was already used.
var ErrDuplicateSubmission = errors.New("journal: submission already processed")

// IdempotencyStore remembers processed submission keys for a retention window.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// CheckAndInsert claims key for draftID. A key already claimed returns
// ErrDuplicateSubmission.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, draftID string) error {
	if s == nil || s.client == nil {
		return errors.New("journal: idempotency store not initialised")
	}
	if key == "" {
		return errors.New("journal: idempotency key required")
	}
	ok, err := s.client.SetNX(ctx, idempotencyPrefix+key, draftID, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("journal: claim idempotency key: %w", err)
	}
	if !ok {
		return ErrDuplicateSubmission
	}
	return nil
}

// Delete releases a key, used to roll back a failed submission.
func (s *IdempotencyStore) Delete(ctx context.Context, key string) error {
	if s == nil || s.client == nil || key == "" {
		return nil
	}
	return s.client.Del(ctx, idempotencyPrefix+key).Err()
}
