/**
 * @description
 * This file sets up the HTTP router for the banking service. It defines the
 * API endpoints, associates them with their corresponding handlers, and
 * applies middleware for logging, panic recovery, CORS, authentication and
 * the staff capability gate.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for chi.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/corebank/banking-service/internal/app"
)

// Routes creates and returns the router for the banking service. The metrics
// handler is optional.
func Routes(h *Handlers, authority *app.SessionAuthority, frontendURL string, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	allowedOrigins := []string{"http://localhost:5173"}
	if frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.LoginHandler)

		// Everything below requires a validated session.
		r.Group(func(r chi.Router) {
			r.Use(SessionAuthMiddleware(authority))

			r.Post("/auth/logout", h.LogoutHandler)
			r.Get("/account/profile", h.ProfileHandler)
			r.Get("/account/balance", h.BalanceHandler)
			r.Post("/transactions/transfer", h.TransferHandler)
			r.Get("/transactions/history", h.HistoryHandler)

			r.Route("/staff", func(r chi.Router) {
				r.Use(StaffOnly)
				r.Post("/create-customer", h.CreateCustomerHandler)
				r.Post("/deposit", h.DepositHandler)
				r.Get("/users", h.ListCustomersHandler)
			})
		})
	})

	return r
}
