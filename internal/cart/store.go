package cart

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"fresh-mart/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store persists per-user carts. It is dumb storage: validation and
// normalization against the catalog happen in the cart service, which treats
// the stored value as untrusted until normalized.
type Store interface {
	Get(ctx context.Context, userID uuid.UUID) (domain.Cart, error)
	Save(ctx context.Context, userID uuid.UUID, cart domain.Cart) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed cart store. Each cart is one hash keyed
// by user ID with product IDs as fields; carts expire after ttl of inactivity.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func cartKey(userID uuid.UUID) string {
	return "cart:" + userID.String()
}

// Get loads a user's cart. A missing key is an empty cart, not an error.
// Malformed fields are skipped; normalization prunes anything else stale.
func (s *redisStore) Get(ctx context.Context, userID uuid.UUID) (domain.Cart, error) {
	fields, err := s.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	cart := make(domain.Cart, len(fields))
	for field, value := range fields {
		productID, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		quantity, err := strconv.Atoi(value)
		if err != nil || quantity <= 0 {
			continue
		}
		cart[productID] = quantity
	}

	return cart, nil
}

// Save replaces the stored cart with the given one and refreshes the TTL
func (s *redisStore) Save(ctx context.Context, userID uuid.UUID, cart domain.Cart) error {
	key := cartKey(userID)

	if cart.IsEmpty() {
		return s.Clear(ctx, userID)
	}

	fields := make(map[string]interface{}, len(cart))
	for productID, quantity := range cart {
		fields[productID.String()] = quantity
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}

	return nil
}

// Clear removes the stored cart entirely
func (s *redisStore) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
