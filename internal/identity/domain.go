// internal/identity/domain.go
package identity

import (
	"context"
	"time"
)

// User is an account known to the identity provider. Catalog rows refer to
// users only by ID.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	IsStaff     bool      `json:"is_staff"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasPerm reports whether the user was granted the named capability.
func (u *User) HasPerm(codename string) bool {
	if u == nil {
		return false
	}
	for _, p := range u.Permissions {
		if p == codename {
			return true
		}
	}
	return false
}

// Credential holds a user's salted password hash.
type Credential struct {
	UserID       int64
	PasswordHash string
	Salt         string
}

type contextKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// UserFromContext returns the authenticated user, or nil for anonymous
// requests.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(contextKey{}).(*User)
	return u
}

// UserIDFromContext returns the authenticated user's ID, or nil.
func UserIDFromContext(ctx context.Context) *int64 {
	u := UserFromContext(ctx)
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}
