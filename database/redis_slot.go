package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/yashrajoria/bms-storefront/ledger"
)

// RedisSlot stores values under "<prefix>:<key>" with no expiry.
type RedisSlot struct {
	client *redis.Client
	prefix string
}

func NewRedisSlot(client *redis.Client, prefix string) *RedisSlot {
	return &RedisSlot{client: client, prefix: prefix}
}

// UserSlots returns a factory that gives every user their own namespace.
func UserSlots(client *redis.Client, namespace string) ledger.SlotFactory {
	return func(userID string) ledger.Slot {
		return NewRedisSlot(client, fmt.Sprintf("%s:user:%s", namespace, userID))
	}
}

func (s *RedisSlot) getKey(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisSlot) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.getKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ledger.ErrSlotEmpty
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisSlot) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.getKey(key), value, 0).Err()
}
