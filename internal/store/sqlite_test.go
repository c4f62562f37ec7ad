// ABOUTME: Tests for the SQL store implementation
// ABOUTME: Runs the shared Store behaviour tests against a temporary SQLite database

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/keepsake/internal/resource"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "keepsake.db")
	ctx := context.Background()

	s, err := Open(DriverSQLite, dbPath)
	require.NoError(t, err)
	require.NoError(t, s.CreateContact(ctx, &resource.ContactEntry{Name: "Ana", Role: "Monitor"}))
	require.NoError(t, s.Close())

	s, err = Open(DriverSQLite, dbPath)
	require.NoError(t, err)
	defer s.Close()

	contacts, err := s.ListContacts(ctx, false)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Ana", contacts[0].Name)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("mysql", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown database driver")
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{driver: DriverPostgres}
	assert.Equal(t, "UPDATE t SET a = $1 WHERE id = $2", pg.rebind("UPDATE t SET a = ? WHERE id = ?"))

	lite := &SQLStore{driver: DriverSQLite}
	assert.Equal(t, "SELECT ? ", lite.rebind("SELECT ? "))
}

func TestTimeFormatSortsLexically(t *testing.T) {
	early := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	late := early.Add(1500 * time.Millisecond)
	assert.Less(t, formatTime(early), formatTime(late))

	got, err := parseTime(formatTime(late))
	require.NoError(t, err)
	assert.True(t, got.Equal(late))

	got, err = parseTime("2024-03-01T09:00:00+08:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(early.Add(-8*time.Hour)))
}

func TestSQLStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store { return newTestStore(t) })
}
