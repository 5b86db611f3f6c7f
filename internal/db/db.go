// internal/db/db.go

// Package db opens the PostgreSQL pool and owns the schema shared by the
// catalog, identity and audit packages.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open creates a connection pool and pings it with a five second timeout.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(15 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate creates any missing tables and indexes. Statements are idempotent
// and run in dependency order inside one transaction.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Reset empties every table and restarts the sequences. Used by tests.
func Reset(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		TRUNCATE TABLE admin_log_entries, book_instances, book_genres, books, authors, languages, genres, users
		RESTART IDENTITY CASCADE
	`)
	return err
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username VARCHAR(150) NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		salt TEXT NOT NULL,
		is_staff BOOLEAN NOT NULL DEFAULT FALSE,
		permissions TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS genres (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(200) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS languages (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(200) NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS language_name_case_insensitive_unique
		ON languages (LOWER(name))`,
	`CREATE TABLE IF NOT EXISTS authors (
		id BIGSERIAL PRIMARY KEY,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		date_of_birth DATE,
		date_of_death DATE
	)`,
	`CREATE INDEX IF NOT EXISTS authors_last_name_idx ON authors (last_name)`,
	`CREATE TABLE IF NOT EXISTS books (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(200) NOT NULL,
		summary VARCHAR(1000) NOT NULL,
		isbn VARCHAR(13) NOT NULL,
		author_id BIGINT CONSTRAINT books_author_id_fkey REFERENCES authors (id) ON DELETE SET NULL,
		language_id BIGINT CONSTRAINT books_language_id_fkey REFERENCES languages (id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS book_genres (
		id BIGSERIAL PRIMARY KEY,
		book_id BIGINT NOT NULL CONSTRAINT book_genres_book_id_fkey REFERENCES books (id) ON DELETE CASCADE,
		genre_id BIGINT NOT NULL CONSTRAINT book_genres_genre_id_fkey REFERENCES genres (id) ON DELETE CASCADE,
		UNIQUE (book_id, genre_id)
	)`,
	`CREATE TABLE IF NOT EXISTS book_instances (
		id UUID PRIMARY KEY,
		book_id BIGINT CONSTRAINT book_instances_book_id_fkey REFERENCES books (id) ON DELETE SET NULL,
		imprint VARCHAR(200) NOT NULL,
		due_back DATE,
		borrower_id BIGINT CONSTRAINT book_instances_borrower_id_fkey REFERENCES users (id) ON DELETE SET NULL,
		status CHAR(1) NOT NULL DEFAULT 'm'
			CONSTRAINT book_instances_status_check CHECK (status IN ('m', 'o', 'a', 'r'))
	)`,
	`CREATE INDEX IF NOT EXISTS book_instances_due_back_idx ON book_instances (due_back NULLS FIRST)`,
	`CREATE TABLE IF NOT EXISTS admin_log_entries (
		id BIGSERIAL PRIMARY KEY,
		action_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		user_id BIGINT REFERENCES users (id) ON DELETE SET NULL,
		content_type VARCHAR(100) NOT NULL,
		object_id TEXT NOT NULL,
		object_repr VARCHAR(200) NOT NULL,
		action_flag SMALLINT NOT NULL CHECK (action_flag IN (1, 2, 3)),
		change_message JSONB NOT NULL DEFAULT '[]'
	)`,
}
