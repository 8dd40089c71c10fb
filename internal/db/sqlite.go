// Package db opens the guarded database and applies the schema of the
// managed tables.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

const pingTimeout = 5 * time.Second

// sqliteParams are appended to every SQLite path. WAL plus a busy timeout
// lets readers proceed while the single writer holds the file, and
// _txlock=immediate makes writers queue instead of failing with SQLITE_BUSY.
var sqliteParams = url.Values{
	"_journal_mode": {"WAL"},
	"_busy_timeout": {"5000"},
	"_synchronous":  {"NORMAL"},
	"_foreign_keys": {"on"},
	"_txlock":       {"immediate"},
}

// Open opens and pings a pool for driver. For SQLite dsn is a file path.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite:
		return OpenSQLite(dsn)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)
	if err := ping(ctx, db); err != nil {
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// Dialect maps a driver name to its goose dialect.
func Dialect(driver string) string {
	if driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// OpenSQLite opens a single-connection pool on the SQLite file at path.
// SQLite serializes writers anyway; one connection keeps the optimistic
// version checks free of SQLITE_BUSY retries.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open(DriverSQLite, sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)
	if err := ping(context.Background(), db); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

func sqliteDSN(path string) string {
	return path + "?" + sqliteParams.Encode()
}

// ping closes db when it does not answer within pingTimeout.
func ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	return nil
}
