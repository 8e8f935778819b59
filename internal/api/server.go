// Package api exposes the booking engine's commands and queries over HTTP.
// It enforces the caller contract (field-level validation) so the store only
// performs its minimal re-validation.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"salao/internal/catalog"
	"salao/internal/notify"
	"salao/internal/store"

	"github.com/rs/zerolog"
)

// HTTPServer serves the appointment API.
type HTTPServer struct {
	store    *store.Store
	catalog  *catalog.Catalog
	notifier *notify.Notifier
	log      *zerolog.Logger
	server   *http.Server
}

// Options configures the HTTP server.
type Options struct {
	Port              int
	RateLimitEnabled  bool
	RequestsPerMinute int
	Burst             int
}

// NewHTTPServer wires handlers and middleware.
func NewHTTPServer(st *store.Store, cat *catalog.Catalog, notifier *notify.Notifier, logger *zerolog.Logger, opts Options) *HTTPServer {
	s := &HTTPServer{
		store:    st,
		catalog:  cat,
		notifier: notifier,
		log:      logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/services", s.handleServices)
	mux.HandleFunc("/api/timeslots", s.handleTimeSlots)
	mux.HandleFunc("/api/availability", s.handleAvailability)
	mux.HandleFunc("/api/appointments", s.handleAppointments)
	mux.HandleFunc("/api/appointments/", s.handleAppointmentByID)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/notice", s.handleNotice)

	var handler http.Handler = mux
	if opts.RateLimitEnabled {
		handler = rateLimitMiddleware(handler, opts.RequestsPerMinute, opts.Burst, logger)
	}
	handler = requestIDMiddleware(handler)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start serves until the context is canceled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctxShutdown)
	}()

	s.log.Info().Str("addr", s.server.Addr).Msg("API server started")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Handler exposes the configured handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
