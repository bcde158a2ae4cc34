/*
server.go - HTTP router and middleware configuration

PURPOSE:

	Configures the HTTP router (chi), middleware stack, and route definitions.
	This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
 1. RequestID:  Unique ID per request for tracing
 2. Logging:    Structured request log (zap) carrying the request ID
 3. Recoverer:  Panic recovery (500 instead of crash)
 4. Metrics:    Prometheus request counter and latency by route pattern
 5. CORS:       Cross-origin requests for a frontend

ROUTE GROUPS:

	/api/members/*          Member cost and custom rates
	/api/users/*            Workload, availability, assignments
	/api/assignments        Effort commitments
	/api/partners           Partner organisations
	/api/standard-costs/*   Standard cost grid
	/api/projects/*         Project cost reports
	/api/scenarios/*        Demo scenarios
	/metrics                Prometheus exposition
	/healthz                Liveness and database ping

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/serve.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/erasmus-writer/resource-engine/logging"
)

// DefaultAllowedOrigins is used when no CORS origins are configured.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogging(h.log))
	r.Use(middleware.Recoverer)
	r.Use(h.Metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", h.Metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/members", func(r chi.Router) {
			r.Post("/", h.CreateMember)
			r.Get("/{id}/cost", h.GetMemberCost)
			r.Put("/{id}/rate", h.SetMemberRate)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/{id}/workload", h.GetWorkload)
			r.Get("/{id}/workload/{year}", h.GetYearWorkload)
			r.Put("/{id}/availability/{year}", h.PutAvailability)
			r.Get("/{id}/assignments", h.ListUserAssignments)
		})

		r.Post("/assignments", h.CreateAssignment)
		r.Post("/partners", h.CreatePartner)

		r.Route("/standard-costs", func(r chi.Router) {
			r.Get("/", h.ListStandardCosts)
			r.Post("/", h.CreateStandardCost)
			r.Post("/import", h.ImportStandardCosts)
		})

		r.Get("/projects/{id}/report", h.GetProjectReport)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

// Health pings the database.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogging logs one line per request with status and latency.
func requestLogging(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			requestLogger(log, r).Infow("request completed",
				"method", r.Method,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

func requestLogger(log *zap.SugaredLogger, r *http.Request) *zap.SugaredLogger {
	return logging.WithRequest(log, middleware.GetReqID(r.Context()), r.URL.Path)
}
