package database

import (
	"path/filepath"
	"testing"
)

// setupTestDB creates a migrated SQLite database in a per-test temp
// directory. The file is removed with the temp dir when the test ends.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "veracity_test.db")
	db, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}
