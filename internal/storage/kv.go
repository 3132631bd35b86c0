package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: key not found")

// KV is the durable backend. Commit must apply a batch atomically.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error
	Commit(ctx context.Context, b *Batch) error
	Close() error
}

type Op struct {
	Key    string
	Value  []byte
	Delete bool
}

type Batch struct {
	ops []Op
}

func (b *Batch) Set(key string, value []byte) {
	b.ops = append(b.ops, Op{Key: key, Value: value})
}

func (b *Batch) Delete(key string) {
	b.ops = append(b.ops, Op{Key: key, Delete: true})
}

func (b *Batch) Ops() []Op { return b.ops }

func (b *Batch) Len() int { return len(b.ops) }
