// internal/audit/log.go

// Package audit records the admin change history: one entry per create,
// update or delete made through the catalog, written inside the same
// transaction as the change it describes.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Action flags, matching the numbering admin sites traditionally use.
const (
	ActionAddition ActionFlag = 1
	ActionChange   ActionFlag = 2
	ActionDeletion ActionFlag = 3
)

const maxReprLength = 200

var ErrInvalidAction = errors.New("invalid action flag")

type ActionFlag int16

func (a ActionFlag) String() string {
	switch a {
	case ActionAddition:
		return "addition"
	case ActionChange:
		return "change"
	case ActionDeletion:
		return "deletion"
	default:
		return fmt.Sprintf("action(%d)", int16(a))
	}
}

// Entry is a single admin log row.
type Entry struct {
	ID            int64           `json:"id"`
	ActionTime    time.Time       `json:"action_time"`
	UserID        *int64          `json:"user_id,omitempty"`
	ContentType   string          `json:"content_type"`
	ObjectID      string          `json:"object_id"`
	ObjectRepr    string          `json:"object_repr"`
	ActionFlag    ActionFlag      `json:"action_flag"`
	ChangeMessage json.RawMessage `json:"change_message"`
}

// Execer is satisfied by both *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Log reads and writes admin log entries.
type Log struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewLog(db *sql.DB) *Log {
	return &Log{
		db:     db,
		tracer: otel.Tracer("locallibrary/audit"),
	}
}

// Record appends an entry using q, which is normally the transaction that
// performed the change.
func (l *Log) Record(ctx context.Context, q Execer, e Entry) error {
	ctx, span := l.tracer.Start(ctx, "audit.record",
		trace.WithAttributes(
			attribute.String("content.type", e.ContentType),
			attribute.String("object.id", e.ObjectID),
			attribute.String("action", e.ActionFlag.String()),
		),
	)
	defer span.End()

	if e.ActionFlag < ActionAddition || e.ActionFlag > ActionDeletion {
		return ErrInvalidAction
	}
	if len(e.ChangeMessage) == 0 {
		e.ChangeMessage = json.RawMessage("[]")
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO admin_log_entries (action_time, user_id, content_type, object_id, object_repr, action_flag, change_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, time.Now().UTC(), e.UserID, e.ContentType, e.ObjectID, truncateRepr(e.ObjectRepr), e.ActionFlag, []byte(e.ChangeMessage))
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries first. A nil userID returns entries for
// every user.
func (l *Log) Recent(ctx context.Context, userID *int64, limit int) ([]Entry, error) {
	ctx, span := l.tracer.Start(ctx, "audit.recent",
		trace.WithAttributes(attribute.Int("limit", limit)),
	)
	defer span.End()

	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, action_time, user_id, content_type, object_id, object_repr, action_flag, change_message
		FROM admin_log_entries
	`
	args := []any{}
	if userID != nil {
		query += " WHERE user_id = $1"
		args = append(args, *userID)
	}
	query += fmt.Sprintf(" ORDER BY action_time DESC, id DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query log entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var msg []byte
		if err := rows.Scan(&e.ID, &e.ActionTime, &e.UserID, &e.ContentType, &e.ObjectID, &e.ObjectRepr, &e.ActionFlag, &msg); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		e.ChangeMessage = json.RawMessage(msg)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log entries: %w", err)
	}

	span.SetAttributes(attribute.Int("entries.loaded", len(entries)))
	return entries, nil
}

func truncateRepr(s string) string {
	if utf8.RuneCountInString(s) <= maxReprLength {
		return s
	}
	r := []rune(s)
	return string(r[:maxReprLength])
}
