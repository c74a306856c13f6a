package database

import (
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := New(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer db.Close()

	if db.conn == nil {
		t.Error("Expected database connection but got nil")
	}
}

func TestNewWithInvalidPath(t *testing.T) {
	// Parent directory does not exist, so the driver cannot create the file
	db, err := New(filepath.Join(t.TempDir(), "missing", "nested", "test.db"))
	if err == nil {
		db.Close()
		t.Error("Expected error when creating database under a missing directory")
	}
}

func TestClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Errorf("Failed to close database: %v", err)
	}
}

func TestMigrationsRun(t *testing.T) {
	db := setupTestDB(t)

	// Migrations are idempotent
	if err := db.Migrate(); err != nil {
		t.Errorf("Re-running migrations failed: %v", err)
	}

	var name string
	err := db.conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='analyses'").Scan(&name)
	if err != nil {
		t.Fatalf("analyses table not created: %v", err)
	}

	var version int
	if err := db.conn.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version != migrations[len(migrations)-1].Version {
		t.Errorf("Expected schema version %d, got %d", migrations[len(migrations)-1].Version, version)
	}
}

func TestConcurrentAccess(t *testing.T) {
	db := setupTestDB(t)

	// Concurrent queries must not trip over the single-writer pool
	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(id int) {
			var result int
			err := db.conn.QueryRow("SELECT ?", id).Scan(&result)
			if err != nil {
				t.Errorf("Concurrent query %d failed: %v", id, err)
			}
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
