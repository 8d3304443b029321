// Package repository stores each entity type as one JSON array under a
// single store key. Every mutation rewrites the whole array.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/diewo77/cobbler-crm/internal/store"
)

// ErrBadPatch is returned when a partial update does not fit the record's
// field types.
var ErrBadPatch = errors.New("patch does not fit the record")

// Record is an entity with an integer id.
type Record interface {
	GetID() int
	SetID(id int)
}

// Collection is the generic read-modify-write array behind every repository.
type Collection[T any, P interface {
	*T
	Record
}] struct {
	adapter *store.Adapter
	key     string
}

func NewCollection[T any, P interface {
	*T
	Record
}](a *store.Adapter, key string) *Collection[T, P] {
	return &Collection[T, P]{adapter: a, key: key}
}

func (c *Collection[T, P]) Key() string { return c.key }

// GetAll returns every entity in stored order; empty when nothing is stored.
func (c *Collection[T, P]) GetAll(ctx context.Context) ([]T, error) {
	items, err := store.Get(ctx, c.adapter, c.key, []T{})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Save overwrites the whole collection.
func (c *Collection[T, P]) Save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.adapter.Set(ctx, c.key, items)
}

// Get returns the entity with id, or nil.
func (c *Collection[T, P]) Get(ctx context.Context, id int) (*T, error) {
	items, err := c.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if P(&items[i]).GetID() == id {
			return &items[i], nil
		}
	}
	return nil, nil
}

// Filter returns the entities matching pred, in stored order.
func (c *Collection[T, P]) Filter(ctx context.Context, pred func(*T) bool) ([]T, error) {
	items, err := c.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := []T{}
	for i := range items {
		if pred(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out, nil
}

// Add assigns the next id (max existing + 1, or 1) and appends item.
func (c *Collection[T, P]) Add(ctx context.Context, item T) (T, error) {
	unlock, err := c.adapter.Lock(ctx, c.key)
	if err != nil {
		return item, err
	}
	defer unlock()

	items, err := c.GetAll(ctx)
	if err != nil {
		return item, err
	}
	P(&item).SetID(nextID[T, P](items))
	items = append(items, item)
	if err := c.Save(ctx, items); err != nil {
		return item, err
	}
	return item, nil
}

func nextID[T any, P interface {
	*T
	Record
}](items []T) int {
	maxID := 0
	for i := range items {
		if id := P(&items[i]).GetID(); id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

// Update overlays the top-level JSON fields of patch onto the entity with
// id. The id itself is never changed. Returns nil when id is absent.
func (c *Collection[T, P]) Update(ctx context.Context, id int, patch map[string]any) (*T, error) {
	return c.Mutate(ctx, id, func(item *T) error {
		return MergePatch(item, patch)
	})
}

// Mutate applies fn to the entity with id and persists the result. The
// collection is left untouched when id is absent or fn fails.
func (c *Collection[T, P]) Mutate(ctx context.Context, id int, fn func(*T) error) (*T, error) {
	return c.MutateWith(ctx, id, func(item *T, _ []T) error { return fn(item) })
}

// MutateWith is Mutate with the rest of the collection visible to fn, as
// read under the same lock. fn must not modify all.
func (c *Collection[T, P]) MutateWith(ctx context.Context, id int, fn func(item *T, all []T) error) (*T, error) {
	unlock, err := c.adapter.Lock(ctx, c.key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	items, err := c.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range items {
		if P(&items[i]).GetID() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}
	item := items[idx]
	if err := fn(&item, items); err != nil {
		return nil, err
	}
	P(&item).SetID(id)
	items[idx] = item
	if err := c.Save(ctx, items); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes the entity with id and reports whether it existed. The
// collection is written back either way.
func (c *Collection[T, P]) Delete(ctx context.Context, id int) (bool, error) {
	unlock, err := c.adapter.Lock(ctx, c.key)
	if err != nil {
		return false, err
	}
	defer unlock()

	items, err := c.GetAll(ctx)
	if err != nil {
		return false, err
	}
	kept := make([]T, 0, len(items))
	found := false
	for i := range items {
		if P(&items[i]).GetID() == id {
			found = true
			continue
		}
		kept = append(kept, items[i])
	}
	if err := c.Save(ctx, kept); err != nil {
		return false, err
	}
	return found, nil
}

// MergePatch overlays the top-level JSON fields of patch onto item,
// skipping "id". A null value clears the field.
func MergePatch[T any](item *T, patch map[string]any) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("%w: field %s: %v", ErrBadPatch, k, err)
		}
		fields[k] = b
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPatch, err)
	}
	*item = out
	return nil
}
