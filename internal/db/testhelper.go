package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	// SQLite driver for fixtures.
	_ "github.com/mattn/go-sqlite3"
)

// OpenTestSQLite opens a migrated SQLite database under t.TempDir(). It is
// closed when the test ends.
func OpenTestSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("open test sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := RunMigrations(db, Dialect(DriverSQLite)); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}
