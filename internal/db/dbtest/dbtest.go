// internal/db/dbtest/dbtest.go

// Package dbtest connects tests to a scratch PostgreSQL database.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/lib/pq"

	"locallibrary/internal/db"
)

// Open connects using the standard PG* environment variables, migrates the
// schema and empties every table. Each caller passes its own schema name so
// packages tested in parallel do not truncate each other's rows. The test is
// skipped when no server is reachable.
func Open(t testing.TB, schema string) *sql.DB {
	t.Helper()

	base := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("PGHOST", "localhost"),
		getEnv("PGPORT", "5432"),
		getEnv("PGUSER", "user"),
		getEnv("PGPASSWORD", "password"),
		getEnv("PGDATABASE", "testdb"),
	)

	bootstrap, err := sql.Open("postgres", base)
	if err != nil {
		t.Fatalf("failed to open database connection: %v", err)
	}
	if err := bootstrap.Ping(); err != nil {
		bootstrap.Close()
		t.Skipf("skipping database tests: could not connect to postgres: %v", err)
	}
	_, err = bootstrap.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pq.QuoteIdentifier(schema)))
	bootstrap.Close()
	if err != nil {
		t.Fatalf("failed to create schema %s: %v", schema, err)
	}

	conn, err := sql.Open("postgres", base+" search_path="+schema)
	if err != nil {
		t.Fatalf("failed to open database connection: %v", err)
	}

	ctx := context.Background()
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		t.Fatalf("failed to migrate schema: %v", err)
	}
	if err := db.Reset(ctx, conn); err != nil {
		conn.Close()
		t.Fatalf("failed to reset tables: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
