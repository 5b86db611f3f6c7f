// internal/middleware/middleware.go

// Package middleware wraps the router with panic recovery, per-client rate
// limiting and request logging.
package middleware

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"locallibrary/internal/httpx"
	"locallibrary/internal/platform/logger"
)

// RecoverPanic turns a panic in a downstream handler into a 500 and closes
// the connection.
func RecoverPanic(rs httpx.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					w.Header().Set("Connection", "close")
					rs.ServerError(w, r, fmt.Errorf("%s", err))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out a token bucket per client IP. Clients idle for
// longer than idleTTL are forgotten by Sweep.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	rs    httpx.Responder

	mu      sync.Mutex
	clients map[string]*client
	now     func() time.Time
}

const idleTTL = 3 * time.Minute

func NewRateLimiter(rps float64, burst int, rs httpx.Responder) *RateLimiter {
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		rs:      rs,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

func (l *RateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, found := l.clients[ip]
	if !found {
		c = &client{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = l.now()
	return c.limiter.Allow()
}

// Sweep drops clients not seen within idleTTL.
func (l *RateLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, c := range l.clients {
		if l.now().Sub(c.lastSeen) > idleTTL {
			delete(l.clients, ip)
		}
	}
}

// Middleware rejects requests with 429 once the client's bucket is empty.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			l.rs.ServerError(w, r, err)
			return
		}
		if !l.allow(ip) {
			l.rs.RateLimitExceeded(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LogRequests writes one line per request with its status and duration.
func LogRequests(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", chimw.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
