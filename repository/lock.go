package repository

import (
	"context"
	"log"
	"storefront/metrics"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// RedisLocker hands out redsync mutexes keyed by name.
type RedisLocker struct {
	sync    *redsync.Redsync
	expiry  time.Duration
	metrics *metrics.CheckoutMetrics
}

func NewRedisLocker(rdb *redis.Client, expiry time.Duration, m *metrics.CheckoutMetrics) *RedisLocker {
	return &RedisLocker{
		sync:    redsync.New(goredis.NewPool(rdb)),
		expiry:  expiry,
		metrics: m,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	mutex := l.sync.NewMutex(key, redsync.WithExpiry(l.expiry), redsync.WithTries(20))
	if err := mutex.LockContext(ctx); err != nil {
		if l.metrics != nil {
			l.metrics.LockAcquireTotal.WithLabelValues("failed").Inc()
		}
		return nil, err
	}
	if l.metrics != nil {
		l.metrics.LockAcquireTotal.WithLabelValues("success").Inc()
	}

	return func() {
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			log.Printf("Failed to unlock %s: %v", key, err)
		}
	}, nil
}
