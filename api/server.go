/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, echoed in X-Request-ID
  2. Logger:     Structured request log through zap
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the configured origins

ROUTE GROUPS:
  /api/personnel/*      Directory and assignment ledger
  /api/sections         Sections
  /api/leaves/*         Leave state machine
  /api/duties/*         Guard duty booking, rotation, reports
  /api/audit            Audit log
  /api/scenarios/*      Demo scenarios

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter creates a new router with all routes configured. allowOrigins
// lists the origins CORS accepts.
func NewRouter(h *Handler, allowOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestIDHeader)
	r.Use(RequestLogger(h.logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/personnel", func(r chi.Router) {
			r.Get("/", h.ListPersonnel)
			r.Post("/", h.CreatePerson)
			r.Get("/{id}", h.GetPerson)
			r.Put("/{id}", h.UpdatePerson)
			r.Get("/{id}/assignments", h.ListAssignments)
			r.Post("/{id}/assignments", h.PostAssignment)
			r.Put("/{id}/status", h.SetAssignmentStatus)
			r.Get("/{id}/leave-usage", h.GetLeaveUsage)
			r.Get("/{id}/career", h.ListCareer)
			r.Post("/{id}/career", h.RecordCareer)
			r.Get("/{id}/qualifications", h.ListQualifications)
			r.Post("/{id}/qualifications", h.AddQualification)
		})

		r.Post("/sections", h.CreateSection)
		r.Post("/designations", h.CreateDesignation)
		r.Get("/org", h.GetOrgStructure)
		r.Post("/org", h.LoadOrgStructure)

		r.Route("/leaves", func(r chi.Router) {
			r.Get("/", h.ListLeaves)
			r.Post("/", h.SubmitLeave)
			r.Get("/overdue", h.ListOverdueLeaves)
			r.Get("/{id}", h.GetLeave)
			r.Post("/{id}/approve", h.ApproveLeave)
			r.Post("/{id}/reject", h.RejectLeave)
			r.Post("/{id}/cancel", h.CancelLeave)
			r.Post("/{id}/complete", h.CompleteLeave)
		})

		r.Route("/duties", func(r chi.Router) {
			r.Get("/", h.ListDuties)
			r.Post("/", h.RecordDuty)
			r.Get("/eligible", h.ListEligible)
			r.Get("/report", h.GetRosterReport)
		})

		r.Get("/audit", h.ListAudit)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}

// requestIDHeader echoes the request ID chi assigned back to the client.
func requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(middleware.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one line per request. 5xx logs at error, 4xx at warn.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.Int("status", status),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.String("ip", r.RemoteAddr),
				zap.Duration("latency", time.Since(start)),
				zap.Int("bytes", ww.BytesWritten()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}

			switch {
			case status >= http.StatusInternalServerError:
				logger.Error("request failed", fields...)
			case status >= http.StatusBadRequest:
				logger.Warn("request rejected", fields...)
			default:
				logger.Info("request", fields...)
			}
		})
	}
}
