package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Entity is anything a Collection can hold. Clone must return a copy that
// shares no mutable memory with the receiver.
type Entity[T any] interface {
	Key() string
	Clone() T
}

// Collection is one keyed set of entities, stored under "<name>/<key>".
type Collection[T Entity[T]] struct {
	store  *Store
	name   string
	prefix string
	items  map[string]T
	keys   []string
}

func NewCollection[T Entity[T]](s *Store, name string) *Collection[T] {
	c := &Collection[T]{
		store:  s,
		name:   name,
		prefix: name + "/",
		items:  make(map[string]T),
	}
	s.register(name, c)
	return c
}

func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) Get(key string) (T, bool) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	v, ok := c.items[key]
	if !ok {
		var zero T
		return zero, false
	}
	return v.Clone(), true
}

// List returns copies in key order.
func (c *Collection[T]) List() []T {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	out := make([]T, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.items[k].Clone())
	}
	return out
}

func (c *Collection[T]) Len() int {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return len(c.keys)
}

// Find reads through the writes already staged in tx.
func (c *Collection[T]) Find(tx *Tx, key string) (T, bool) {
	if st, ok := tx.overlay[c.prefix+key]; ok {
		if st.deleted {
			var zero T
			return zero, false
		}
		return st.value.(T).Clone(), true
	}
	return c.Get(key)
}

// ListIn is List with the writes staged in tx applied, in key order.
func (c *Collection[T]) ListIn(tx *Tx) []T {
	c.store.mu.RLock()
	keys := append([]string(nil), c.keys...)
	c.store.mu.RUnlock()

	for full, st := range tx.overlay {
		if !strings.HasPrefix(full, c.prefix) || st.deleted {
			continue
		}
		key := full[len(c.prefix):]
		if i := sort.SearchStrings(keys, key); i == len(keys) || keys[i] != key {
			keys = append(keys, "")
			copy(keys[i+1:], keys[i:])
			keys[i] = key
		}
	}

	out := make([]T, 0, len(keys))
	for _, k := range keys {
		if v, ok := c.Find(tx, k); ok {
			out = append(out, v)
		}
	}
	return out
}

func (c *Collection[T]) Put(tx *Tx, v T) error {
	key := v.Key()
	if key == "" {
		return fmt.Errorf("%s: empty key", c.name)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: encode %s: %w", c.name, key, err)
	}
	stored := v.Clone()
	tx.batch.Set(c.prefix+key, data)
	tx.overlay[c.prefix+key] = staged{value: stored}
	tx.applies = append(tx.applies, func() { c.set(key, stored) })
	tx.events = append(tx.events, Event{Collection: c.name, Kind: EventPut, ID: key, Value: stored.Clone()})
	return nil
}

// Delete stages removal of key and reports whether it existed.
func (c *Collection[T]) Delete(tx *Tx, key string) bool {
	if _, ok := c.Find(tx, key); !ok {
		return false
	}
	tx.batch.Delete(c.prefix + key)
	tx.overlay[c.prefix+key] = staged{deleted: true}
	tx.applies = append(tx.applies, func() { c.remove(key) })
	tx.events = append(tx.events, Event{Collection: c.name, Kind: EventDelete, ID: key})
	return true
}

// set and remove run with store.mu held for writing.
func (c *Collection[T]) set(key string, v T) {
	if _, ok := c.items[key]; !ok {
		i := sort.SearchStrings(c.keys, key)
		c.keys = append(c.keys, "")
		copy(c.keys[i+1:], c.keys[i:])
		c.keys[i] = key
	}
	c.items[key] = v
}

func (c *Collection[T]) remove(key string) {
	if _, ok := c.items[key]; !ok {
		return
	}
	delete(c.items, key)
	i := sort.SearchStrings(c.keys, key)
	c.keys = append(c.keys[:i], c.keys[i+1:]...)
}

func (c *Collection[T]) load(ctx context.Context, kv KV) error {
	items := make(map[string]T)
	keys := []string{}
	err := kv.Scan(ctx, c.prefix, func(k string, value []byte) error {
		var v T
		if err := json.Unmarshal(value, &v); err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
		key := k[len(c.prefix):]
		items[key] = v
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(keys)
	c.items = items
	c.keys = keys
	return nil
}
