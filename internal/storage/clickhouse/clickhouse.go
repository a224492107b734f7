// Package clickhouse stores per-token score history in ClickHouse for
// range and trend queries.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const dialTimeout = 10 * time.Second

// Conn wraps a driver connection so stores and migrations share one
// handle type.
type Conn struct {
	driver.Conn
}

// NewConn opens a connection to the database named in the DSN and
// verifies it with a ping.
func NewConn(ctx context.Context, dsn string) (*Conn, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	return open(ctx, opts)
}

// NewConnWithDatabase reuses the DSN's host and credentials but selects
// the given database. An empty name connects to the server default,
// which lets migrations create a database that does not exist yet.
func NewConnWithDatabase(ctx context.Context, dsn, database string) (*Conn, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	opts.Auth.Database = database
	return open(ctx, opts)
}

func open(ctx context.Context, opts *clickhouse.Options) (*Conn, error) {
	opts.DialTimeout = dialTimeout

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	return &Conn{Conn: conn}, nil
}
