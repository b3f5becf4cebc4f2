package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rcliao/desk-memory/internal/clock"
)

var baseTime = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC) // a Monday morning

func newTestMemory(t *testing.T) (*Memory, *clock.Fixed) {
	t.Helper()
	clk := clock.NewFixed(baseTime)
	m, err := Open(context.Background(), Options{Clock: clk})
	require.NoError(t, err)
	return m, clk
}

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// failingBackend rejects every write, simulating missing or full storage.
type failingBackend struct {
	*MemoryBackend
}

func newFailingBackend() *failingBackend {
	return &failingBackend{MemoryBackend: NewMemoryBackend()}
}

func (f *failingBackend) SaveBlob(context.Context, Blob) error {
	return errors.New("quota exceeded")
}
