// internal/identity/middleware.go
package identity

import (
	"context"
	"errors"
	"net/http"

	"locallibrary/internal/httpx"
)

// Authenticator resolves credentials to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*User, error)
}

// Middleware resolves HTTP Basic credentials to a user and stores it in the
// request context. Requests without credentials continue anonymously;
// requests with bad credentials are rejected.
func Middleware(auth Authenticator, rs httpx.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Authorization")

			username, password, ok := r.BasicAuth()
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.Authenticate(r.Context(), username, password)
			if err != nil {
				if errors.Is(err, ErrInvalidCredentials) {
					rs.Unauthorized(w, r)
					return
				}
				rs.ServerError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireStaff rejects anonymous requests with 401 and non-staff users with
// 403.
func RequireStaff(rs httpx.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				rs.Unauthorized(w, r)
				return
			}
			if !user.IsStaff {
				rs.Forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(rs httpx.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) == nil {
				rs.Unauthorized(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
