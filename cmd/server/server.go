// cmd/server/server.go
package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/torbook/torbook/internal/api"
	"github.com/torbook/torbook/internal/api/appointments"
	"github.com/torbook/torbook/internal/api/availability"
	"github.com/torbook/torbook/internal/config"
)

func newServer(cfg *config.Config) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	// Register routes
	registerRoutes(router)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Availability routes
	mux.HandleFunc("GET /api/v1/businesses/{business_id}/availability", availability.HandleDayAvailability)
	mux.HandleFunc("GET /api/v1/businesses/{business_id}/status", availability.HandleBusinessStatus)

	// Appointment routes
	mux.HandleFunc("POST /api/v1/appointments", appointments.HandleAppointmentCreate)
	mux.HandleFunc("DELETE /api/v1/appointments/{appointment_id}", appointments.HandleAppointmentCancel)
}
