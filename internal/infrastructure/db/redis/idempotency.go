package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers which product was created for a given
// (owner, Idempotency-Key) pair so a retried request replays the original
// result instead of creating a duplicate.
// Key format: idem:product:<owner_id>:<key>
type IdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given client.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Lookup returns the product id remembered for the key, or "" when unseen.
func (s *IdempotencyStore) Lookup(ctx context.Context, ownerID, key string) (string, error) {
	id, err := s.client.Get(ctx, s.key(ownerID, key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("idempotency lookup: %w", err)
	}
	return id, nil
}

// Remember records the product created for the key (expires after idempotencyTTL).
func (s *IdempotencyStore) Remember(ctx context.Context, ownerID, key, productID string) error {
	return s.client.Set(ctx, s.key(ownerID, key), productID, idempotencyTTL).Err()
}

func (s *IdempotencyStore) key(ownerID, key string) string {
	return fmt.Sprintf("idem:product:%s:%s", ownerID, key)
}
