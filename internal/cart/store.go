package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wishyoulucky/internal/pkg/retry"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultTTL keeps an untouched guest cart for thirty days.
const DefaultTTL = 30 * 24 * time.Hour

const updateAttempts = 25

// ErrConflict means the cart kept changing under concurrent writers.
var ErrConflict = errors.New("cart was modified concurrently")

// Store persists carts by cart id.
type Store interface {
	Load(ctx context.Context, cartID string) (*Cart, error)
	Save(ctx context.Context, cartID string, c *Cart) error
	Delete(ctx context.Context, cartID string) error
	// Update applies fn to the stored cart and saves the result atomically.
	// fn may run more than once and must only touch the cart it is given.
	Update(ctx context.Context, cartID string, fn func(*Cart) error) (*Cart, error)
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore stores each cart as a JSON array of line items under cart:<id>.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisStore{client: client, ttl: ttl, logger: logger}
}

func key(cartID string) string {
	return "cart:" + cartID
}

// Load returns the stored cart. Missing or unreadable data yields an empty cart.
func (s *redisStore) Load(ctx context.Context, cartID string) (*Cart, error) {
	raw, err := s.client.Get(ctx, key(cartID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &Cart{}, nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return s.decode(cartID, raw), nil
}

func (s *redisStore) decode(cartID string, raw []byte) *Cart {
	if len(raw) == 0 {
		return &Cart{}
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Warn("Discarding unreadable cart",
			zap.String("cart_id", cartID),
			zap.Error(err),
		)
		return &Cart{}
	}
	return New(items)
}

// Update runs the read-modify-write under WATCH and retries when another
// writer touched the key between the read and EXEC.
func (s *redisStore) Update(ctx context.Context, cartID string, fn func(*Cart) error) (*Cart, error) {
	k := key(cartID)
	var updated *Cart

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, k).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to load cart: %w", err)
		}

		c := s.decode(cartID, raw)
		if err := fn(c); err != nil {
			return err
		}

		var payload []byte
		if !c.IsEmpty() {
			if payload, err = json.Marshal(c.Items); err != nil {
				return fmt.Errorf("failed to encode cart: %w", err)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if payload == nil {
				pipe.Del(ctx, k)
			} else {
				pipe.Set(ctx, k, payload, s.ttl)
			}
			return nil
		})
		if err == nil {
			updated = c
		}
		return err
	}

	err := retry.Do(ctx, retry.Config{
		MaxAttempts: updateAttempts,
		Backoff:     retry.CappedBackoff(retry.ExponentialBackoff(time.Millisecond), 20*time.Millisecond),
		ShouldRetry: func(err error) bool {
			return errors.Is(err, redis.TxFailedErr)
		},
	}, func() error {
		return s.client.Watch(ctx, txf, k)
	})
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Warn("Cart update kept conflicting", zap.String("cart_id", cartID))
			return nil, ErrConflict
		}
		return nil, err
	}
	return updated, nil
}

// Save writes the cart and refreshes its expiry. An empty cart deletes the key.
func (s *redisStore) Save(ctx context.Context, cartID string, c *Cart) error {
	if c.IsEmpty() {
		return s.Delete(ctx, cartID)
	}

	raw, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	if err := s.client.Set(ctx, key(cartID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, cartID string) error {
	if err := s.client.Del(ctx, key(cartID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
