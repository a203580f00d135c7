/*
main.go - Application entry point

PURPOSE:
  Starts the leave tracker HTTP API. Handles configuration, dependency
  injection and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (environment, then .env)
  2. Apply command-line overrides
  3. Validate configuration
  4. Wire store, holiday provider and leave service (app.New)
  5. Configure HTTP router
  6. Serve until SIGINT/SIGTERM

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for an in-memory database
  -env     .env file to load (default: .env, missing file ignored)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/conges.db"

  # Run without persistence and without network access for holidays
  STORE=memory HOLIDAY_SOURCE=builtin ./server

ENVIRONMENT:
  See config/config.go for the full list (PORT, STORE, DB_PATH,
  HOLIDAY_SOURCE, HOLIDAY_API_URL, REFERENCE_YEAR, GRANTED_*, LOG_LEVEL...).

SEE ALSO:
  - api/server.go: Router configuration
  - app/app.go: Dependency wiring
  - cmd/conges: Command-line client over the same service
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gonosen60/gestion-conges-app/api"
	"github.com/Gonosen60/gestion-conges-app/app"
	"github.com/Gonosen60/gestion-conges-app/config"
	"github.com/Gonosen60/gestion-conges-app/logging"
)

func main() {
	// Flags
	port := flag.String("port", "", "HTTP server port (overrides PORT)")
	dbPath := flag.String("db", "", "SQLite database path (overrides DB_PATH)")
	envFile := flag.String("env", ".env", "Environment file to load")
	flag.Parse()

	cfg := config.Load(*envFile)
	if *port != "" {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	handler := api.NewHandler(a.Service, a.Holidays, a.Breaks, a.Defaults, logger)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("api available", "url", fmt.Sprintf("http://localhost:%s/api", cfg.Port))
	if err := api.Serve(ctx, ":"+cfg.Port, router, logger); err != nil {
		logger.Error("server failed", "error", err)
		a.Close()
		os.Exit(1)
	}
}
