package server

import (
	"strconv"
	"testing"

	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/storage"
)

func storageFor(t *testing.T) *storage.Store {
	t.Helper()
	return storage.NewStore(storage.NewMemoryKV(), logger.NewNop())
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
