// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matthewbaird/gigwizard/internal/activity"
	"github.com/matthewbaird/gigwizard/internal/gig"
	"github.com/matthewbaird/gigwizard/internal/handler"
	"github.com/matthewbaird/gigwizard/internal/session"
	"github.com/matthewbaird/gigwizard/internal/wire"
)

// Config holds server configuration.
type Config struct {
	Port     int
	Sessions *session.Manager
	Gigs     gig.Repository
	Activity activity.Store
}

// NewRouter registers every route on a chi router.
func NewRouter(cfg Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// --- WizardService ---
	wh := handler.NewWizardHandler(cfg.Sessions)
	r.Route("/v1/wizard/sessions", func(r chi.Router) {
		wh.Routes(r)
		r.Get("/{id}/live", wire.NewHandler(cfg.Sessions).ServeHTTP)
	})

	// --- GigService ---
	r.Route("/v1/gigs", handler.NewGigHandler(cfg.Gigs, cfg.Activity).Routes)

	return r
}

// Run starts the HTTP server and shuts it down when ctx is done.
func Run(ctx context.Context, cfg Config) error {
	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown: %v", err)
		}
	}()

	log.Printf("starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
