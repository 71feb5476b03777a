// Package server exposes the HTTP keep-alive endpoint that uptime monitors ping.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mroshb/astro_bot/pkg/errors"
	"github.com/mroshb/astro_bot/pkg/logger"
)

// Stats is what the health endpoint reports.
type Stats interface {
	CatalogSize() int
	ActiveSessions() int
	QueueDepths() map[string]int
}

type healthResponse struct {
	Status         string         `json:"status"`
	CatalogEntries int            `json:"catalog_entries"`
	ActiveSessions int            `json:"active_sessions"`
	QueueDepths    map[string]int `json:"queue_depths"`
}

// NewRouter builds the keep-alive routes.
func NewRouter(stats Stats) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("I'm alive!"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(healthResponse{
			Status:         "ok",
			CatalogEntries: stats.CatalogSize(),
			ActiveSessions: stats.ActiveSessions(),
			QueueDepths:    stats.QueueDepths(),
		})
	})

	return r
}

// KeepAlive serves NewRouter on addr until Shutdown.
type KeepAlive struct {
	srv *http.Server
}

func NewKeepAlive(port string, stats Stats) *KeepAlive {
	return &KeepAlive{srv: &http.Server{
		Addr:              ":" + port,
		Handler:           NewRouter(stats),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}}
}

// Start listens in the background. A listener failure is logged, not fatal:
// the bot keeps running without the endpoint.
func (k *KeepAlive) Start() {
	go func() {
		logger.Info("Keep-alive server listening", "addr", k.srv.Addr)
		if err := k.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Keep-alive server failed", "error", err)
		}
	}()
}

func (k *KeepAlive) Shutdown(ctx context.Context) error {
	return k.srv.Shutdown(ctx)
}
