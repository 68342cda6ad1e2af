package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// NewDB opens the sqlite database at path, creating it if needed.
func NewDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path)
	specDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := specDB.Ping(); err != nil {
		specDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return specDB, nil
}
