package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Redis stores each key as a plain string value under a namespace.
// It also implements Locker with redislock so several processes can
// share one store.
type Redis struct {
	rdb       *redis.Client
	locker    *redislock.Client
	namespace string
	lockTTL   time.Duration
	lockWait  time.Duration
}

func NewRedis(rdb *redis.Client, namespace string) *Redis {
	return &Redis{
		rdb:       rdb,
		locker:    redislock.New(rdb),
		namespace: namespace,
		lockTTL:   30 * time.Second,
		lockWait:  5 * time.Second,
	}
}

func (r *Redis) k(key string) string { return r.namespace + key }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.rdb.Get(ctx, r.k(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	err := r.rdb.Set(ctx, r.k(key), value, 0).Err()
	if isOutOfMemory(err) {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return err
}

// isOutOfMemory matches the reply redis sends when maxmemory is reached
// under a noeviction policy.
func isOutOfMemory(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "OOM")
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.k(key)).Err()
}

func (r *Redis) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := r.rdb.Scan(ctx, 0, r.k(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.namespace))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear removes the keys of this namespace only.
func (r *Redis) Clear(ctx context.Context) error {
	keys, err := r.Keys(ctx, "")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.k(k)
	}
	return r.rdb.Del(ctx, full...).Err()
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	lctx, cancel := context.WithTimeout(ctx, r.lockWait)
	defer cancel()
	lock, err := r.locker.Obtain(lctx, "lock:"+r.k(key), r.lockTTL, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(50 * time.Millisecond),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("store: lock %s not obtained", key)
	}
	if err != nil {
		return nil, err
	}
	return func() { _ = lock.Release(context.Background()) }, nil
}
