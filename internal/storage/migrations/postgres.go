package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"bsc-token-sentinel/internal/storage/postgres"
)

// RunPostgresMigrations applies the embedded schema files to the pool's
// database. Every file runs on every start; the DDL uses IF NOT EXISTS
// so reruns are no-ops.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := listSQL(postgresFiles, "postgres")
	if err != nil {
		return fmt.Errorf("list postgres migrations: %w", err)
	}

	for _, name := range files {
		data, err := fs.ReadFile(postgresFiles, "postgres/"+name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		sql := strings.TrimSpace(string(data))
		if sql == "" {
			continue
		}
		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}
