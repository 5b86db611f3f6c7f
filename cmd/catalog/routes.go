// cmd/catalog/routes.go
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"locallibrary/internal/audit"
	"locallibrary/internal/catalog"
	"locallibrary/internal/circulation"
	"locallibrary/internal/httpx"
	"locallibrary/internal/identity"
	"locallibrary/internal/middleware"
)

// routes builds the router. Middleware runs outermost first:
//
//	RequestID → LogRequests → RecoverPanic → rate limit → authentication → router
func (app *application) routes(limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.NotFound(app.rs.NotFound)
	r.MethodNotAllowed(app.rs.MethodNotAllowed)

	r.Use(chimw.RequestID)
	r.Use(middleware.LogRequests(app.log))
	r.Use(middleware.RecoverPanic(app.rs))
	if limiter != nil {
		r.Use(limiter.Middleware)
	}
	r.Use(identity.Middleware(app.identity, app.rs))

	r.Get("/healthz", app.handleHealth)

	catalogHandler := catalog.NewHandler(app.catalog, app.rs)
	identityHandler := identity.NewHandler(app.identity, app.rs)

	r.Route("/catalog", catalogHandler.PublicRoutes)
	r.Route("/circulation", circulation.NewHandler(app.loans, app.rs).Routes)
	r.With(identity.RequireUser(app.rs)).Get("/me", identityHandler.HandleMe)

	r.Route("/admin", func(r chi.Router) {
		r.Use(identity.RequireStaff(app.rs))
		catalogHandler.AdminRoutes(r)
		identityHandler.Routes(r)
		r.Get("/log", audit.NewHandler(app.audit, app.rs).HandleRecent)
	})

	return r
}

func (app *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	state := "available"
	if err := app.db.PingContext(r.Context()); err != nil {
		app.log.Warn("health check failed", "error", err)
		status = http.StatusServiceUnavailable
		state = "unavailable"
	}
	data := httpx.Envelope{"status": state, "environment": app.config.Env}
	if err := httpx.WriteJSON(w, status, data, nil); err != nil {
		app.rs.ServerError(w, r, err)
	}
}
