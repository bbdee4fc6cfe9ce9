package api

import (
	"fmt"
	"net/http"
	"time"

	"peerbets/infrastructure/observability"
)

// NewServer creates a configured *http.Server for the betting API
func NewServer(port int, h *Handler, metrics *observability.MetricsProvider) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewRouter(h, metrics),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
