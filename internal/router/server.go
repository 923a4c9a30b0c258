package router

import (
	"net/http"
	"time"

	"boosterbeacon/internal/handlers"
	"boosterbeacon/internal/metrics"
)

// NewServer creates a new HTTP server with the router configured.
func NewServer(port string, h *handlers.Handlers, recorder metrics.Recorder) *http.Server {
	router := NewRouter(h, recorder)
	return &http.Server{
		Addr:         ":" + port,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
