// internal/api/appointments/handlers.go
package appointments

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/torbook/torbook/internal/api/apiutil"
	"github.com/torbook/torbook/internal/booking"
	"github.com/torbook/torbook/internal/ratelimit"
	"github.com/torbook/torbook/internal/store"
)

const (
	appointmentQueryTimeout = 10 * time.Second
	appointmentIDParam      = "appointment_id"
)

var (
	service     *booking.Service
	limiter     *ratelimit.Limiter
	serviceOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
// The limiter may be nil, in which case booking requests are not rate limited.
func InitHandlers(svc *booking.Service, lim *ratelimit.Limiter) {
	if svc == nil {
		return
	}
	serviceOnce.Do(func() {
		service = svc
		limiter = lim
	})
}

// POST /api/v1/appointments
func HandleAppointmentCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req booking.Request
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if limiter != nil {
		ip := clientIP(r)
		if res := limiter.CheckBooking(req.CustomerPhone, ip); !res.Allowed {
			logger.Warn().Str("reason", res.Reason).Msg("Booking request rate limited")
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(res.RetryAfter.Seconds())+1))
			apiutil.WriteError(w, http.StatusTooManyRequests, "Too many booking attempts, try again later")
			return
		}
		limiter.RecordBooking(req.CustomerPhone, ip)
	}

	ctx, cancel := context.WithTimeout(r.Context(), appointmentQueryTimeout)
	defer cancel()

	confirmation, result, err := svc.Book(ctx, req)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apiutil.WriteError(w, http.StatusNotFound, "Business or service not found")
			return
		}
		logger.Error().Err(err).Int64("business_id", req.BusinessID).Msg("Failed to book appointment")
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !result.OK {
		status := http.StatusUnprocessableEntity
		if result.Reason == booking.ReasonSlotTaken {
			status = http.StatusConflict
		}
		if writeErr := apiutil.WriteJSON(w, status, result); writeErr != nil {
			logger.Error().Err(writeErr).Msg("Failed to write rejection response")
		}
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, confirmation); err != nil {
		logger.Error().Err(err).Int64("appointment_id", confirmation.AppointmentID).Msg("Failed to write booking response")
	}
}

// DELETE /api/v1/appointments/{appointment_id}
func HandleAppointmentCancel(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	appointmentID, err := apiutil.PathID(r, appointmentIDParam)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), appointmentQueryTimeout)
	defer cancel()

	if err := svc.Cancel(ctx, appointmentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apiutil.WriteError(w, http.StatusNotFound, "Appointment not found")
			return
		}
		logger.Error().Err(err).Int64("appointment_id", appointmentID).Msg("Failed to cancel appointment")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to cancel appointment")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"cancelled": true}); err != nil {
		logger.Error().Err(err).Int64("appointment_id", appointmentID).Msg("Failed to write cancel response")
	}
}

func loadService() *booking.Service {
	return service
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
