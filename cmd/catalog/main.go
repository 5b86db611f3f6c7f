// cmd/catalog/main.go
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"locallibrary/internal/audit"
	"locallibrary/internal/catalog"
	"locallibrary/internal/circulation"
	"locallibrary/internal/config"
	"locallibrary/internal/db"
	"locallibrary/internal/httpx"
	"locallibrary/internal/identity"
	"locallibrary/internal/observability"
	"locallibrary/internal/platform/logger"
)

type application struct {
	config   *config.Config
	log      *logger.Logger
	rs       httpx.Responder
	db       *sql.DB
	catalog  catalog.Service
	identity identity.Service
	loans    circulation.Service
	audit    *audit.Log
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		return err
	}
	log.Info("database ready")

	app := newApplication(cfg, log, conn)

	if len(args) > 0 && args[0] == "createsuperuser" {
		return app.createSuperuser(ctx, args[1:])
	}

	shutdownOtel, err := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: "locallibrary",
		Environment: cfg.Env,
		Endpoint:    cfg.Otel.Endpoint,
		SampleRatio: cfg.Otel.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(ctx); err != nil {
			log.Warn("otel shutdown failed", "error", err)
		}
	}()

	return app.serve()
}

func newApplication(cfg *config.Config, log *logger.Logger, conn *sql.DB) *application {
	auditLog := audit.NewLog(conn)
	catalogSvc := catalog.NewService(conn, auditLog)
	return &application{
		config:   cfg,
		log:      log,
		rs:       httpx.Responder{Log: log},
		db:       conn,
		catalog:  catalogSvc,
		identity: identity.NewService(conn),
		loans:    circulation.NewService(catalogSvc, log),
		audit:    auditLog,
	}
}

// createSuperuser adds a staff account holding every catalog permission.
func (app *application) createSuperuser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)
	username := fs.String("username", "admin", "account username")
	password := fs.String("password", os.Getenv("SUPERUSER_PASSWORD"), "account password (default $SUPERUSER_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := app.identity.CreateUser(ctx, *username, *password, true)
	if err != nil {
		return fmt.Errorf("create superuser: %w", err)
	}
	for _, p := range catalog.Permissions {
		if err := app.identity.GrantPermission(ctx, user.ID, p.Codename); err != nil {
			return fmt.Errorf("grant %s: %w", p.Codename, err)
		}
	}
	app.log.Info("superuser created", "username", user.Username, "id", user.ID)
	return nil
}
