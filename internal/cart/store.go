package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

// cartTTL keeps abandoned carts around for a month before Redis drops them.
const cartTTL = 30 * 24 * time.Hour

// Store persists carts keyed by user.
type Store interface {
	Get(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func cartKey(userID uuid.UUID) string {
	return "cart:" + userID.String()
}

// Get returns the stored cart, or an empty one when none exists.
func (s *redisStore) Get(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	data, err := s.client.Get(ctx, cartKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &Cart{UserID: userID, Items: []CartItem{}}, nil
		}

		return nil, fmt.Errorf("store: failed to get cart for user %s: %w", userID, err)
	}

	var cart Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("store: failed to decode cart for user %s: %w", userID, err)
	}

	return &cart, nil
}

func (s *redisStore) Save(ctx context.Context, cart *Cart) error {
	cart.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("store: failed to encode cart for user %s: %w", cart.UserID, err)
	}

	if err := s.client.Set(ctx, cartKey(cart.UserID), data, cartTTL).Err(); err != nil {
		return fmt.Errorf("store: failed to save cart for user %s: %w", cart.UserID, err)
	}

	return nil
}

func (s *redisStore) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("store: failed to delete cart for user %s: %w", userID, err)
	}

	return nil
}
