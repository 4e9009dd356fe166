package testutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/stackmesh/chunkstore/internal/config"
	"github.com/stackmesh/chunkstore/internal/db"
)

// OpenTestDB connects to the postgres instance named by TEST_DB_HOST and
// applies migrations. Tests calling it are skipped when the variable is unset
// so the suite stays runnable without a database.
func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "chunkstore",
		Password: "chunkstore_pass",
		DBName:   "chunkstore_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
	}
}

// ResetChunks truncates chunk rows between tests.
func ResetChunks(t *testing.T, conn *sql.DB) {
	t.Helper()
	if _, err := conn.Exec("TRUNCATE TABLE chunks"); err != nil {
		t.Fatalf("truncate chunks: %v", err)
	}
}
