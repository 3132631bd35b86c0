package model

import (
	"fmt"
	"strconv"
	"sync"
	"time"
)

type BaseModel struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key renders a numeric id so that lexical key order matches numeric order.
func Key(id int64) string {
	return fmt.Sprintf("%020d", id)
}

func ParseKey(key string) (int64, error) {
	return strconv.ParseInt(key, 10, 64)
}

// Sequence hands out creation-time derived identifiers that never repeat and
// never go backwards, even when two are requested in the same millisecond.
type Sequence struct {
	mu   sync.Mutex
	last int64
}

func (s *Sequence) Next(now time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := now.UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}

// Observe raises the floor so ids loaded from storage are never reissued.
func (s *Sequence) Observe(id int64) {
	s.mu.Lock()
	if id > s.last {
		s.last = id
	}
	s.mu.Unlock()
}

func timePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
