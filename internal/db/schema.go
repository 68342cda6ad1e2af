package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migration/*.sql
var migrationFiles embed.FS

// InitSchema applies every embedded migration in file-name order. Migrations
// are written to be idempotent.
func InitSchema(ctx context.Context, db *sql.DB) error {
	names, err := fs.Glob(migrationFiles, "migration/*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migration files: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		schema, err := migrationFiles.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		_, err = db.ExecContext(ctx, string(schema))
		if err != nil {
			return fmt.Errorf("failed to execute %s: %w", name, err)
		}
	}

	return nil
}
