package database

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testDSN() string {
	return "postgres://" + envOr("POSTGRES_USER", "lexdesk") + ":" + envOr("POSTGRES_PASSWORD", "changeme") +
		"@" + envOr("POSTGRES_HOST", "localhost") + ":" + envOr("POSTGRES_PORT", "5432") +
		"/" + envOr("POSTGRES_DB", "lexdesk") + "?sslmode=disable"
}

func connectOrSkip(t *testing.T) *sql.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	db, err := Connect(ctx, testDSN(), Pool{MaxOpen: 4})
	if err != nil {
		t.Skipf("skipping: PostgreSQL not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPoolDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Pool
		want Pool
	}{
		{"zero", Pool{}, Pool{MaxOpen: 25, MaxIdle: 5, MaxLifetime: 30 * time.Minute}},
		{"idle capped by open", Pool{MaxOpen: 2}, Pool{MaxOpen: 2, MaxIdle: 2, MaxLifetime: 30 * time.Minute}},
		{"explicit", Pool{MaxOpen: 10, MaxIdle: 3, MaxLifetime: time.Minute}, Pool{MaxOpen: 10, MaxIdle: 3, MaxLifetime: time.Minute}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.withDefaults(); got != tt.want {
				t.Errorf("withDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConnectUsesPool(t *testing.T) {
	db := connectOrSkip(t)
	if got := db.Stats().MaxOpenConnections; got != 4 {
		t.Errorf("max open conns = %d, want 4", got)
	}
}

func TestConnectUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Connect(ctx, "postgres://x:x@127.0.0.1:1/none?sslmode=disable&connect_timeout=1", Pool{})
	if err == nil || !strings.Contains(err.Error(), "ping database") {
		t.Errorf("err = %v, want ping failure", err)
	}
}

func TestMigrateCreatesSchema(t *testing.T) {
	db := connectOrSkip(t)

	// Twice: the second run must be a no-op.
	for i := 0; i < 2; i++ {
		if err := Migrate(db); err != nil {
			t.Fatalf("Migrate run %d: %v", i+1, err)
		}
	}

	for _, table := range []string{"templates", "template_fields", "clients", "processes", "executions"} {
		var exists bool
		err := db.QueryRow(
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)", table,
		).Scan(&exists)
		if err != nil || !exists {
			t.Errorf("table %s missing after migration (err %v)", table, err)
		}
	}

	// The counter and delivery columns the execution flow depends on.
	for _, col := range []struct{ table, column string }{
		{"templates", "execution_count"},
		{"templates", "version"},
		{"executions", "webhook_status"},
		{"executions", "retry_count"},
	} {
		var exists bool
		err := db.QueryRow(
			"SELECT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = $1 AND column_name = $2)",
			col.table, col.column,
		).Scan(&exists)
		if err != nil || !exists {
			t.Errorf("column %s.%s missing (err %v)", col.table, col.column, err)
		}
	}

	entries, _ := embedMigrations.ReadDir("migrations")
	version, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version < int64(len(entries)) {
		t.Errorf("schema version = %d, want at least %d", version, len(entries))
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := embedMigrations.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	for i, e := range entries {
		prefix := []string{"00001_", "00002_", "00003_"}
		if i < len(prefix) && !strings.HasPrefix(e.Name(), prefix[i]) {
			t.Errorf("migration %d = %s, want prefix %s", i, e.Name(), prefix[i])
		}
	}
	if len(entries) < 3 {
		t.Errorf("embedded %d migrations, want at least 3", len(entries))
	}
}
