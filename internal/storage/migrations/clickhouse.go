package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	chstore "bsc-token-sentinel/internal/storage/clickhouse"
)

// RunClickhouseMigrations creates the target database if needed, applies
// the embedded schema files to it, and returns an open connection scoped
// to that database for the caller to keep.
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	dbName, err := clickhouseDatabase(dsn)
	if err != nil {
		return nil, err
	}

	if err := ensureClickhouseDatabase(ctx, dsn, dbName); err != nil {
		return nil, err
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, dbName)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}
	if err := applyClickhouseFiles(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// ensureClickhouseDatabase connects without a database selected and
// issues CREATE DATABASE IF NOT EXISTS.
func ensureClickhouseDatabase(ctx context.Context, dsn, dbName string) error {
	admin, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return fmt.Errorf("connect clickhouse admin: %w", err)
	}
	defer admin.Close()

	if err := admin.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+dbName); err != nil {
		return fmt.Errorf("create database %s: %w", dbName, err)
	}
	return nil
}

// applyClickhouseFiles runs every embedded migration, one statement per
// Exec call since the driver does not accept multi-statement scripts.
func applyClickhouseFiles(ctx context.Context, conn *chstore.Conn) error {
	files, err := listSQL(clickhouseFiles, "clickhouse")
	if err != nil {
		return fmt.Errorf("list clickhouse migrations: %w", err)
	}

	for _, name := range files {
		data, err := fs.ReadFile(clickhouseFiles, "clickhouse/"+name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		for _, stmt := range splitStatements(string(data)) {
			if err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
		}
	}
	return nil
}

// splitStatements cuts a migration script into single statements at
// semicolons outside single-quoted literals. Line comments are dropped
// first so a quote inside a comment cannot derail the scan.
func splitStatements(script string) []string {
	var kept []string
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		kept = append(kept, line)
	}
	src := strings.Join(kept, "\n")

	var stmts []string
	var cur strings.Builder
	inLiteral := false
	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch {
		case ch == '\'':
			// '' inside a literal is an escaped quote, not a terminator.
			if inLiteral && i+1 < len(src) && src[i+1] == '\'' {
				cur.WriteString("''")
				i++
				continue
			}
			inLiteral = !inLiteral
			cur.WriteByte(ch)
		case ch == ';' && !inLiteral:
			if s := strings.TrimSpace(cur.String()); s != "" {
				stmts = append(stmts, s)
			}
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}

// clickhouseDatabase extracts the database name from the DSN path.
func clickhouseDatabase(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		return "", fmt.Errorf("clickhouse dsn missing database name")
	}
	return name, nil
}
