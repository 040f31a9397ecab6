package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailbear/mailbear/internal/logger"
)

func testLogger() logger.Logger {
	l := logger.NewAppLogger(&logger.Config{DevMode: true, LogLevel: "error"})
	l.InitLogger()
	return l
}

func statePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "state.json")
}

func TestNew_MissingFileCreatesEmptyRecord(t *testing.T) {
	path := statePath(t)

	store := New(path, testLogger())

	assert.Empty(t, store.ProcessedIDs())
	_, err := os.Stat(path)
	assert.NoError(t, err, "empty record should be created eagerly")
}

func TestStore_RoundTrip(t *testing.T) {
	// Arrange
	path := statePath(t)
	store := New(path, testLogger())
	ids := []string{"m1", "m2", "m3"}
	for _, id := range ids {
		store.MarkProcessed(id)
	}

	// Act: fresh instance from the same backing location
	reloaded := New(path, testLogger())

	// Assert: set equality, order-independent
	assert.ElementsMatch(t, ids, reloaded.ProcessedIDs())
	for _, id := range ids {
		assert.True(t, reloaded.IsProcessed(id))
	}
}

func TestNew_CorruptFileFailsOpen(t *testing.T) {
	// Arrange
	path := statePath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	// Act
	store := New(path, testLogger())

	// Assert: empty state, file rewritten as a fresh empty record
	assert.Empty(t, store.ProcessedIDs())
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"processed_ids": []}`, string(raw))
}

func TestStore_MarkProcessedIsIdempotent(t *testing.T) {
	store := New(statePath(t), testLogger())

	store.MarkProcessed("m1")
	store.MarkProcessed("m1")

	assert.Len(t, store.ProcessedIDs(), 1)
	assert.True(t, store.IsProcessed("m1"))
	assert.False(t, store.IsProcessed("m2"))
}

func TestStore_ClearPersistsImmediately(t *testing.T) {
	path := statePath(t)
	store := New(path, testLogger())
	store.MarkProcessed("m1")

	store.Clear()

	assert.Empty(t, store.ProcessedIDs())
	reloaded := New(path, testLogger())
	assert.Empty(t, reloaded.ProcessedIDs())
}

func TestStore_SaveFailureKeepsInMemoryMark(t *testing.T) {
	// Point the store at a path whose parent cannot be created.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	path := filepath.Join(blocker, "nested", "state.json")

	store := New(path, testLogger())
	store.MarkProcessed("m1")

	assert.True(t, store.IsProcessed("m1"), "in-memory mark stands even if durability failed")
}
