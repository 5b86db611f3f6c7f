// internal/identity/service.go
package identity

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidUser        = errors.New("username and password must be provided")
)

// Service defines the interface for the identity provider.
type Service interface {
	CreateUser(ctx context.Context, username, password string, isStaff bool) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	DeleteUser(ctx context.Context, id int64) error
	GrantPermission(ctx context.Context, id int64, codename string) error
	Authenticate(ctx context.Context, username, password string) (*User, error)
}
