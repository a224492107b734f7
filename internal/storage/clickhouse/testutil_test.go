package clickhouse

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schemaFile is relative to this package; go test runs with the package
// directory as working directory.
const schemaFile = "../migrations/clickhouse/001_score_history.sql"

// startTestConn runs a disposable ClickHouse server, applies the score
// history schema, and returns a connection torn down with the test.
func startTestConn(t *testing.T) *Conn {
	t.Helper()
	if testing.Short() {
		t.Skip("container test, skipped in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "clickhouse/clickhouse-server:24.1-alpine",
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"CLICKHOUSE_DB":       "sentinel_test",
				"CLICKHOUSE_USER":     "default",
				"CLICKHOUSE_PASSWORD": "",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("Ready for connections").WithStartupTimeout(60*time.Second),
				wait.ForListeningPort("9000/tcp"),
			),
		},
		Started: true,
	})
	require.NoError(t, err, "start clickhouse container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate clickhouse container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	conn, err := NewConn(ctx, fmt.Sprintf("clickhouse://default@%s:%s/sentinel_test", host, port.Port()))
	require.NoError(t, err, "connect to test clickhouse")
	t.Cleanup(func() { conn.Close() })

	applySchema(t, ctx, conn)
	return conn
}

// applySchema reads the score_history DDL from disk, strips comment
// lines and the trailing semicolon, and runs it as a single statement.
func applySchema(t *testing.T, ctx context.Context, conn *Conn) {
	t.Helper()

	raw, err := os.ReadFile(schemaFile)
	require.NoError(t, err, "read schema file")

	var lines []string
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}
	stmt := strings.TrimSuffix(strings.TrimSpace(strings.Join(lines, "\n")), ";")

	require.NoError(t, conn.Exec(ctx, stmt), "apply score_history schema")
}
