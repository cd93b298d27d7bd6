package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"keypad-calculator/internal/handlers"
	"keypad-calculator/internal/keypad"
	"keypad-calculator/internal/observability"
	"keypad-calculator/internal/session"
)

func NewRouter(store *session.Store) http.Handler {

	r := chi.NewRouter()

	r.Use(observability.RequestIDMiddleware)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", handlers.Health)

	r.Handle("/metrics", observability.PrometheusHandler())

	keypad.RegisterRoutes(r, keypad.NewHandler(store))

	return r
}
