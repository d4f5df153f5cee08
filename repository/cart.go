package repository

import (
	"context"
	"encoding/json"
	"errors"
	"storefront/constants"
	"storefront/model"
	"time"

	"github.com/redis/go-redis/v9"
)

const cartTTL = 7 * 24 * time.Hour

// CartStore keeps the session cart as JSON under cart:<sessionID>.
type CartStore struct {
	rdb *redis.Client
}

func NewCartStore(rdb *redis.Client) *CartStore {
	return &CartStore{rdb: rdb}
}

func cartKey(sessionID string) string {
	return constants.REDIS_KEY_CART + sessionID
}

// Load returns nil when the session has no cart.
func (s *CartStore) Load(ctx context.Context, sessionID string) (*model.Cart, error) {
	raw, err := s.rdb.Get(ctx, cartKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var cart model.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *CartStore) Save(ctx context.Context, sessionID string, cart *model.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, cartKey(sessionID), raw, cartTTL).Err()
}

func (s *CartStore) Clear(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, cartKey(sessionID)).Err()
}
