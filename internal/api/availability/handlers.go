// internal/api/availability/handlers.go
package availability

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/torbook/torbook/internal/api/apiutil"
	"github.com/torbook/torbook/internal/schedule"
	"github.com/torbook/torbook/internal/store"
)

const (
	availabilityQueryTimeout = 5 * time.Second
	businessIDParam          = "business_id"
	dateQueryKey             = "date"
)

var (
	repo     *store.Store
	repoOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(s *store.Store) {
	if s == nil {
		return
	}
	repoOnce.Do(func() {
		repo = s
	})
}

type dayResponse struct {
	Date      string   `json:"date"`
	IsOpen    bool     `json:"isOpen"`
	OpenTime  string   `json:"openTime,omitempty"`
	CloseTime string   `json:"closeTime,omitempty"`
	Source    string   `json:"source"`
	Slots     []string `json:"slots"`
}

// GET /api/v1/businesses/{business_id}/availability?date=YYYY-MM-DD
func HandleDayAvailability(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	s := loadStore()
	if s == nil {
		logger.Error().Msg("Store not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	businessID, err := apiutil.PathID(r, businessIDParam)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rawDate := strings.TrimSpace(r.URL.Query().Get(dateQueryKey))
	date, err := time.Parse("2006-01-02", rawDate)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "date must be in YYYY-MM-DD format")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), availabilityQueryTimeout)
	defer cancel()

	business, err := s.GetBusinessByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apiutil.WriteError(w, http.StatusNotFound, "Business not found")
			return
		}
		logger.Error().Err(err).Int64("business_id", businessID).Msg("Failed to load business")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load business")
		return
	}

	day := resolveBusinessDay(business, date)

	interval := business.SlotInterval
	if interval <= 0 {
		interval = schedule.DefaultSlotInterval
	}
	slots := day.Slots(interval)

	if len(slots) > 0 {
		booked, err := s.ListAppointmentsForDay(ctx, businessID, rawDate)
		if err != nil {
			logger.Error().Err(err).Int64("business_id", businessID).Msg("Failed to load appointments")
			apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load availability")
			return
		}
		slots = withoutBooked(slots, rawDate, booked)
	}

	response := dayResponse{
		Date:   rawDate,
		IsOpen: day.IsOpen,
		Source: day.Source,
		Slots:  slots,
	}
	if day.IsOpen {
		response.OpenTime = day.OpenTime
		response.CloseTime = day.CloseTime
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, response); err != nil {
		logger.Error().Err(err).Int64("business_id", businessID).Msg("Failed to write availability response")
	}
}

// GET /api/v1/businesses/{business_id}/status
func HandleBusinessStatus(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	s := loadStore()
	if s == nil {
		logger.Error().Msg("Store not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	businessID, err := apiutil.PathID(r, businessIDParam)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), availabilityQueryTimeout)
	defer cancel()

	business, err := s.GetBusinessByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apiutil.WriteError(w, http.StatusNotFound, "Business not found")
			return
		}
		logger.Error().Err(err).Int64("business_id", businessID).Msg("Failed to load business")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load business")
		return
	}

	weekly := schedule.Normalize(rawOrNil(business.ScheduleRaw.Valid, business.ScheduleRaw.String))
	exceptions := schedule.ParseExceptions(rawOrNil(business.ExceptionsRaw.Valid, business.ExceptionsRaw.String))

	status := schedule.Status(weekly, exceptions, businessClock{timezone: business.Timezone})
	if err := apiutil.WriteJSON(w, http.StatusOK, status); err != nil {
		logger.Error().Err(err).Int64("business_id", businessID).Msg("Failed to write status response")
	}
}

// businessClock reports the current wall time in the business timezone,
// falling back to server time when the zone does not load.
type businessClock struct {
	timezone string
}

func (c businessClock) Now() time.Time {
	if c.timezone != "" {
		if loc, err := time.LoadLocation(c.timezone); err == nil {
			return time.Now().In(loc)
		}
	}
	return time.Now()
}

func resolveBusinessDay(business *store.Business, date time.Time) schedule.ResolvedDay {
	weekly := schedule.Normalize(rawOrNil(business.ScheduleRaw.Valid, business.ScheduleRaw.String))
	exceptions := schedule.ParseExceptions(rawOrNil(business.ExceptionsRaw.Valid, business.ExceptionsRaw.String))
	return schedule.ResolveDay(weekly, exceptions, date)
}

// withoutBooked drops slots whose start time already has a live
// appointment.
func withoutBooked(slots []string, date string, booked []store.Appointment) []string {
	if len(booked) == 0 {
		return slots
	}
	taken := make(map[string]struct{}, len(booked))
	for _, appt := range booked {
		taken[appt.StartsAt] = struct{}{}
	}

	free := slots[:0]
	for _, slot := range slots {
		if _, ok := taken[date+" "+slot]; ok {
			continue
		}
		free = append(free, slot)
	}
	return free
}

func rawOrNil(valid bool, value string) any {
	if !valid {
		return nil
	}
	return value
}

func loadStore() *store.Store {
	return repo
}
