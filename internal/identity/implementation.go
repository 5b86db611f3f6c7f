// internal/identity/implementation.go
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// service implements the Service interface.
type service struct {
	db     *sql.DB
	tracer trace.Tracer
}

// NewService creates a new identity service instance.
func NewService(db *sql.DB) Service {
	return &service{
		db:     db,
		tracer: otel.Tracer("locallibrary/identity"),
	}
}

// CreateUser registers a new account with a hashed password.
func (s *service) CreateUser(ctx context.Context, username, password string, isStaff bool) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "identity.create_user")
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidUser
	}

	passwordHash, salt, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Username:    username,
		IsStaff:     isStaff,
		Permissions: []string{},
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, salt, is_staff)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, user.Username, passwordHash, salt, user.IsStaff).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *service) GetUser(ctx context.Context, id int64) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "identity.get_user",
		trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	user := &User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, is_staff, permissions, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&user.ID, &user.Username, &user.IsStaff, pq.Array(&user.Permissions), &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// DeleteUser removes the account. Copies on loan to the user keep their
// row with the borrower cleared.
func (s *service) DeleteUser(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "identity.delete_user",
		trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GrantPermission adds codename to the user's permissions. Granting a
// permission twice is a no-op.
func (s *service) GrantPermission(ctx context.Context, id int64, codename string) error {
	ctx, span := s.tracer.Start(ctx, "identity.grant_permission",
		trace.WithAttributes(
			attribute.Int64("user.id", id),
			attribute.String("permission", codename),
		))
	defer span.End()

	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET permissions = CASE
			WHEN $2 = ANY(permissions) THEN permissions
			ELSE array_append(permissions, $2)
		END
		WHERE id = $1
	`, id, codename)
	if err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Authenticate verifies a user's credentials and returns the user if successful.
func (s *service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "identity.authenticate")
	defer span.End()

	user := &User{}
	cred := &Credential{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, is_staff, permissions, created_at, password_hash, salt
		FROM users
		WHERE username = $1
	`, username).Scan(
		&user.ID,
		&user.Username,
		&user.IsStaff,
		pq.Array(&user.Permissions),
		&user.CreatedAt,
		&cred.PasswordHash,
		&cred.Salt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	ok, err := verifyPassword(password, cred.Salt, cred.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	return user, nil
}
