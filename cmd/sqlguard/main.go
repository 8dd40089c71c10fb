// Package main is the entry point for the sqlguard binary.
package main

import (
	"os"

	// database/sql drivers selectable with DB_DRIVER.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	cli "sqlguard/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
