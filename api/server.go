/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for a browser frontend

ROUTE GROUPS:
  /api/sessions/*       Session settings, requests, ledger, summary, export
  /api/count            Stateless day counting
  /api/holidays/*       Public holidays per year
  /api/school-breaks    School break reference table
  /api/categories       Leave categories
  /api/scenarios        Demo scenarios
  /                     Plain endpoint index

GRACEFUL SHUTDOWN:
  Serve stops accepting connections when its context is cancelled and
  waits up to ShutdownTimeout for active requests.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured. An empty
// origins list allows any origin.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/count", h.Count)
		r.Get("/categories", h.ListCategories)
		r.Get("/holidays/{year}", h.ListHolidays)
		r.Get("/school-breaks", h.ListSchoolBreaks)
		r.Get("/scenarios", h.ListScenarios)

		// Session routes
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)
			r.Route("/{sid}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Put("/settings", h.UpdateSettings)
				r.Post("/requests", h.SubmitRequest)
				r.Get("/records", h.ListRecords)
				r.Put("/records", h.ReplaceRecords)
				r.Delete("/records", h.ResetRecords)
				r.Delete("/records/{index}", h.RemoveRecord)
				r.Get("/summary", h.GetSummary)
				r.Get("/export.csv", h.ExportCSV)
				r.Post("/scenario", h.LoadScenario)
			})
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Gestion des congés</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Gestion des congés API</h1>
<h2>API Endpoints</h2>
<ul>
<li>POST /api/sessions - Create a session</li>
<li>POST /api/count - Count working days</li>
<li><a href="/api/categories">/api/categories</a> - Leave categories</li>
<li><a href="/api/school-breaks">/api/school-breaks</a> - School breaks</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}

// ShutdownTimeout bounds how long Serve waits for active requests.
const ShutdownTimeout = 30 * time.Second

// Serve runs handler on addr until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
