package api

import (
	"net/http"
	"time"

	"peerbets/infrastructure/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// NewRouter registers all API endpoints
func NewRouter(h *Handler, metrics *observability.MetricsProvider) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(metrics))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", h.Ready)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Post("/", h.CreateEvent)

		r.Route("/{eventID}", func(r chi.Router) {
			r.Get("/", h.GetEvent)
			r.Post("/hide", h.HideEvent)
			r.Get("/odds", h.GetOdds)
			r.Post("/placements", h.PlaceBet)
			r.Post("/placements/{userID}/paid", h.MarkPaid)
			r.Post("/resolve", h.ResolveEvent)
			r.Get("/settlement", h.GetSettlement)
		})
	})

	r.Get("/users/{userID}/bets", h.GetUserBets)
	r.Get("/users/{userID}/debts", h.GetMoneyOwed)
	r.Put("/profiles/me", h.UpsertProfile)

	return r
}

// requestLogger logs each request with logrus and records its duration
func requestLogger(metrics *observability.MetricsProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			metrics.RecordHTTPRequest(route, r.Method, ww.Status(), duration)

			log.WithFields(log.Fields{
				"method":    r.Method,
				"route":     route,
				"status":    ww.Status(),
				"duration":  duration,
				"requestID": middleware.GetReqID(r.Context()),
			}).Debug("Handled request")
		})
	}
}
