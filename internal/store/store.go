// Package store is the durable key-value layer behind the local mode.
// Values are JSON documents addressed by string keys.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrQuotaExceeded is returned by a Backend that has no room left for a write.
var ErrQuotaExceeded = errors.New("store: quota exceeded")

// Backend is raw byte storage.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Clear(ctx context.Context) error
}

// Locker serializes read-modify-write cycles on one key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Evictor frees space by dropping its oldest entries. It returns how many
// entries were removed.
type Evictor interface {
	EvictOldest(ctx context.Context, n int) (int, error)
}

const evictBatch = 5

// Adapter wraps a Backend with JSON encoding, default values on read
// and the quota fallback sequence on write.
type Adapter struct {
	backend Backend
	locker  Locker
	log     *logrus.Logger

	mu      sync.RWMutex
	evictor Evictor
}

// NewAdapter builds an Adapter. A backend that implements Locker provides
// the key locks; otherwise an in-process lock is used.
func NewAdapter(b Backend, log *logrus.Logger) *Adapter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	a := &Adapter{backend: b, log: log}
	if l, ok := b.(Locker); ok {
		a.locker = l
	} else {
		a.locker = newKeyedMutex()
	}
	return a
}

// SetEvictor registers the last-resort space reclaimer used by Set.
func (a *Adapter) SetEvictor(e Evictor) {
	a.mu.Lock()
	a.evictor = e
	a.mu.Unlock()
}

func (a *Adapter) Backend() Backend { return a.backend }

// Get decodes the value at key into a T. An absent key or an undecodable
// value yields def; only backend failures are returned as errors.
func Get[T any](ctx context.Context, a *Adapter, key string, def T) (T, error) {
	data, ok, err := a.backend.Get(ctx, key)
	if err != nil {
		return def, fmt.Errorf("store: get %s: %w", key, err)
	}
	if !ok {
		return def, nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		a.log.WithFields(logrus.Fields{"module": "store", "key": key}).
			WithError(err).Warn("discarding undecodable value")
		return def, nil
	}
	return v, nil
}

// Set encodes value and writes it. When the backend is full it drops the
// legacy keys, then replaces embedded images with a placeholder, then asks
// the evictor for room, retrying the write after each step.
func (a *Adapter) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	err = a.backend.Set(ctx, key, data)
	if !errors.Is(err, ErrQuotaExceeded) {
		return wrapSet(key, err)
	}

	log := a.log.WithFields(logrus.Fields{"module": "store", "key": key, "bytes": len(data)})

	log.Warn("quota exceeded, removing legacy keys")
	for _, k := range LegacyKeys {
		if k == key {
			continue
		}
		if derr := a.backend.Delete(ctx, k); derr != nil {
			log.WithError(derr).WithField("legacy_key", k).Warn("could not remove legacy key")
		}
	}
	if err = a.backend.Set(ctx, key, data); !errors.Is(err, ErrQuotaExceeded) {
		return wrapSet(key, err)
	}

	stripped, n, serr := StripEmbeddedImages(data)
	if serr == nil && n > 0 {
		log.WithField("images", n).Warn("quota exceeded, replacing embedded images with placeholder")
		data = stripped
		if err = a.backend.Set(ctx, key, data); !errors.Is(err, ErrQuotaExceeded) {
			return wrapSet(key, err)
		}
	}

	a.mu.RLock()
	ev := a.evictor
	a.mu.RUnlock()
	for ev != nil {
		removed, eerr := ev.EvictOldest(ctx, evictBatch)
		if eerr != nil {
			log.WithError(eerr).Warn("image eviction failed")
			break
		}
		if removed == 0 {
			break
		}
		log.WithField("evicted", removed).Warn("quota exceeded, evicted oldest images")
		if err = a.backend.Set(ctx, key, data); !errors.Is(err, ErrQuotaExceeded) {
			return wrapSet(key, err)
		}
	}

	log.WithError(err).Error("write failed after quota fallback")
	return wrapSet(key, err)
}

func wrapSet(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("store: set %s: %w", key, err)
}

// Remove deletes key. Removing an absent key is not an error.
func (a *Adapter) Remove(ctx context.Context, key string) error {
	if err := a.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("store: remove %s: %w", key, err)
	}
	return nil
}

// Clear wipes every key.
func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.backend.Clear(ctx); err != nil {
		return fmt.Errorf("store: clear: %w", err)
	}
	return nil
}

// Keys lists stored keys starting with prefix, sorted.
func (a *Adapter) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := a.backend.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("store: keys %s: %w", prefix, err)
	}
	return keys, nil
}

// Lock takes the read-modify-write lock for key.
func (a *Adapter) Lock(ctx context.Context, key string) (func(), error) {
	return a.locker.Lock(ctx, key)
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock, nil
}
