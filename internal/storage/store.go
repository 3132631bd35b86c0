package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/fekuna/chronostore/internal/logger"
	"go.uber.org/zap"
)

type loader interface {
	load(ctx context.Context, kv KV) error
}

// Store owns every collection and is the only writer to the KV backend.
// Writers are serialized; each Update commits one atomic batch and only
// then touches the in-memory copies.
type Store struct {
	kv     KV
	bus    *Bus
	logger logger.ZapLogger

	writeMu sync.Mutex
	mu      sync.RWMutex

	collections map[string]loader
	order       []string
}

func NewStore(kv KV, log logger.ZapLogger) *Store {
	return &Store{
		kv:          kv,
		bus:         NewBus(),
		logger:      log,
		collections: make(map[string]loader),
	}
}

func (s *Store) Bus() *Bus { return s.bus }

// Load reads every registered collection from the backend, replacing the
// in-memory state.
func (s *Store) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range s.order {
		if err := s.collections[name].load(ctx, s.kv); err != nil {
			return fmt.Errorf("load collection %s: %w", name, err)
		}
	}
	return nil
}

// Update runs fn inside a transaction. If fn fails or the commit fails,
// nothing changes in memory or on disk.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	s.writeMu.Lock()

	tx := &Tx{ctx: ctx, overlay: make(map[string]staged)}
	if err := fn(tx); err != nil {
		s.writeMu.Unlock()
		return err
	}
	if tx.batch.Len() == 0 {
		s.writeMu.Unlock()
		return nil
	}

	if err := s.kv.Commit(ctx, &tx.batch); err != nil {
		s.writeMu.Unlock()
		s.logger.Error("storage commit failed", zap.Int("ops", tx.batch.Len()), zap.Error(err))
		return fmt.Errorf("storage commit: %w", err)
	}

	s.mu.Lock()
	for _, apply := range tx.applies {
		apply()
	}
	s.mu.Unlock()
	s.writeMu.Unlock()

	for _, e := range tx.events {
		s.bus.Publish(e)
	}
	return nil
}

// View runs fn while no Update can commit, so reads across several
// collections see one consistent state. fn must not call Update.
func (s *Store) View(fn func()) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	fn()
}

func (s *Store) Close() error {
	return s.kv.Close()
}

func (s *Store) register(name string, l loader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		panic("storage: collection registered twice: " + name)
	}
	s.collections[name] = l
	s.order = append(s.order, name)
}

type staged struct {
	value   any
	deleted bool
}

// Tx stages writes for a single Update call.
type Tx struct {
	ctx     context.Context
	batch   Batch
	overlay map[string]staged
	applies []func()
	events  []Event
}

func (tx *Tx) Context() context.Context { return tx.ctx }
