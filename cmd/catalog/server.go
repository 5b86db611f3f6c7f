// cmd/catalog/server.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"locallibrary/internal/middleware"
)

// serve runs the HTTP server until SIGINT or SIGTERM, then gives in-flight
// requests ShutdownTimeout to finish.
func (app *application) serve() error {
	var limiter *middleware.RateLimiter
	if app.config.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(app.config.RateLimit.RPS, app.config.RateLimit.Burst, app.rs)
	}

	errorLog, err := zap.NewStdLogAt(app.log.Std(), zapcore.ErrorLevel)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", app.config.Port),
		Handler:      app.routes(limiter),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     errorLog,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if limiter != nil {
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					limiter.Sweep()
				}
			}
		}()
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		app.log.Info("shutting down server", "address", srv.Addr)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	app.log.Info("starting server", "address", srv.Addr, "environment", app.config.Env)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-shutdownErr; err != nil {
		return err
	}

	app.log.Info("server stopped", "address", srv.Addr)
	return nil
}
