package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter constructs a chi router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	h := NewHandler(d)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	if d.Observer != nil {
		r.Get("/ws", d.Observer.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(instrument)

		r.Post("/topup", h.TopUpHandler())
		r.Post("/pay", h.PayHandler())

		r.Route("/api", func(r chi.Router) {
			r.Get("/transactions", h.TransactionsHandler)
			r.Get("/products", h.ProductsHandler)
			r.Get("/stats", h.StatsHandler)
			r.Get("/pending", h.PendingHandler)
			r.Get("/cards/{uid}", h.CardHandler)
		})
	})

	return r
}
