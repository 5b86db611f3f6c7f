// internal/catalog/implementation.go
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"locallibrary/internal/audit"
	"locallibrary/internal/identity"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// service implements the Service interface.
type service struct {
	db     *sql.DB
	log    *audit.Log
	tracer trace.Tracer
	writes metric.Int64Counter
}

// NewService creates a new catalog service instance.
func NewService(db *sql.DB, log *audit.Log) Service {
	writes, err := otel.Meter("locallibrary/catalog").Int64Counter("catalog.writes",
		metric.WithDescription("Committed catalog create, update and delete operations."),
	)
	if err != nil {
		writes = noop.Int64Counter{}
	}
	return &service{
		db:     db,
		log:    log,
		tracer: otel.Tracer("locallibrary/catalog"),
		writes: writes,
	}
}

func (s *service) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "catalog."+op, trace.WithAttributes(attrs...))
}

// withTx runs fn in a read-committed transaction and translates database
// constraint failures into catalog errors.
func (s *service) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return translateError(err)
	}

	if err := tx.Commit(); err != nil {
		return translateError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// record appends an admin log entry for the acting user inside tx.
func (s *service) record(ctx context.Context, tx *sql.Tx, entity string, objectID any, repr string, flag audit.ActionFlag, msg json.RawMessage) error {
	return s.log.Record(ctx, tx, audit.Entry{
		UserID:        identity.UserIDFromContext(ctx),
		ContentType:   ContentType(entity),
		ObjectID:      fmt.Sprint(objectID),
		ObjectRepr:    repr,
		ActionFlag:    flag,
		ChangeMessage: msg,
	})
}

func (s *service) countWrite(ctx context.Context, entity string, flag audit.ActionFlag) {
	s.writes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("action", flag.String()),
	))
}

// lockRow takes a row lock on table.id inside tx, reporting a missing row
// as ReferenceNotFound.
func lockRow(ctx context.Context, tx *sql.Tx, table, entity string, id any) error {
	var one int
	err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT 1 FROM %s WHERE id = $1 FOR UPDATE", table), id).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(entity, id)
		}
		return fmt.Errorf("lock %s: %w", entity, err)
	}
	return nil
}

// pageTotal returns the windowed total, or counts the matching rows when a
// page past the end loaded nothing and so carried no count(*) OVER() value.
func (s *service) pageTotal(ctx context.Context, total, loaded int, f Filters, from string, args ...any) (int, error) {
	if loaded > 0 || f.Page <= 1 {
		return total, nil
	}
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) "+from, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return total, nil
}

// changes collects the labels of modified fields for the admin log.
type changes []string

func (c *changes) check(changed bool, label string) {
	if changed {
		*c = append(*c, label)
	}
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[int64]bool, len(a))
	for _, id := range a {
		seen[id] = true
	}
	for _, id := range b {
		if !seen[id] {
			return false
		}
	}
	return true
}
