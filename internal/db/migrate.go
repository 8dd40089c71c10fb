package db

import (
	"database/sql"
	"embed"
	"fmt"
	"path"

	"github.com/pressly/goose/v3"
)

// migrations holds one goose directory per dialect. Both directories carry
// the same version numbers so a schema version means the same on either
// backend.
//
//go:embed migrations
var migrations embed.FS

// migrationDir selects the embedded directory for a goose dialect.
func migrationDir(dialect string) (string, error) {
	switch dialect {
	case "sqlite3":
		return path.Join("migrations", "sqlite"), nil
	case "postgres":
		return path.Join("migrations", "postgres"), nil
	}
	return "", fmt.Errorf("no migrations for dialect %q", dialect)
}

func useDialect(dialect string) (string, error) {
	dir, err := migrationDir(dialect)
	if err != nil {
		return "", err
	}
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("goose set dialect: %w", err)
	}
	return dir, nil
}

// RunMigrations applies all pending migrations. dialect is the goose
// dialect name, see Dialect.
func RunMigrations(db *sql.DB, dialect string) error {
	dir, err := useDialect(dialect)
	if err != nil {
		return err
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// MigrationVersion reports the schema version currently applied.
func MigrationVersion(db *sql.DB, dialect string) (int64, error) {
	if _, err := useDialect(dialect); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("goose version: %w", err)
	}
	return v, nil
}
