package booking

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog/log"

	appdb "github.com/torbook/torbook/internal/db"
	"github.com/torbook/torbook/internal/email"
	"github.com/torbook/torbook/internal/schedule"
	"github.com/torbook/torbook/internal/store"
)

const defaultPhoneRegion = "IL"

// Request is a prospective appointment submitted by a customer.
type Request struct {
	BusinessID    int64  `json:"businessId"`
	ServiceID     int64  `json:"serviceId"`
	Date          string `json:"date"` // YYYY-MM-DD
	Time          string `json:"time"` // HH:MM
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}

// Confirmation describes a successfully booked appointment.
type Confirmation struct {
	AppointmentID    int64  `json:"appointmentId"`
	ConfirmationCode string `json:"confirmationCode"`
	StartsAt         string `json:"startsAt"`
}

// Service runs the booking flow against an explicitly injected store.
type Service struct {
	store  *store.Store
	sender email.EmailSender
}

func NewService(s *store.Store, sender email.EmailSender) *Service {
	return &Service{store: s, sender: sender}
}

func (r Request) validate() error {
	if r.BusinessID <= 0 {
		return fmt.Errorf("businessId is required")
	}
	if r.ServiceID <= 0 {
		return fmt.Errorf("serviceId is required")
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	if _, err := time.Parse("15:04", r.Time); err != nil {
		return fmt.Errorf("time must be in HH:MM format")
	}
	if strings.TrimSpace(r.CustomerName) == "" {
		return fmt.Errorf("customerName is required")
	}
	if strings.TrimSpace(r.CustomerPhone) == "" {
		return fmt.Errorf("customerPhone is required")
	}
	return nil
}

// Book validates the request against the business snapshot and, when it
// passes, creates the customer (if new) and the appointment in one
// transaction. Business-rule rejections come back in the Result with a
// nil error; errors are reserved for bad input, missing rows, and
// storage failures.
func (s *Service) Book(ctx context.Context, req Request) (*Confirmation, Result, error) {
	logger := log.Ctx(ctx)

	if err := req.validate(); err != nil {
		return nil, Result{}, err
	}
	date, _ := time.Parse("2006-01-02", req.Date)

	business, err := s.store.GetBusinessByID(ctx, req.BusinessID)
	if err != nil {
		return nil, Result{}, err
	}

	service, err := s.store.GetServiceByID(ctx, req.ServiceID)
	if err != nil {
		return nil, Result{}, err
	}
	if service.BusinessID != business.ID || !service.Active {
		return nil, Result{}, fmt.Errorf("service %d: %w", req.ServiceID, store.ErrNotFound)
	}

	weekly := schedule.Normalize(nullableString(business.ScheduleRaw))
	exceptions := schedule.ParseExceptions(nullableString(business.ExceptionsRaw))

	existing, err := s.store.ListAppointmentsForDay(ctx, business.ID, req.Date)
	if err != nil {
		return nil, Result{}, err
	}

	verdict := Validate(business, weekly, exceptions, existing, date, req.Time)
	if !verdict.OK {
		return nil, verdict, nil
	}

	phone := NormalizePhone(req.CustomerPhone)
	startsAt := StartsAt(date, req.Time)
	code := uuid.New().String()

	var confirmation Confirmation
	err = s.store.DB().RunInTx(ctx, func(tx *sql.Tx) error {
		customerID, err := s.findOrCreateCustomer(ctx, tx, business.ID, req, phone)
		if err != nil {
			return err
		}

		appointmentID, err := s.store.CreateAppointment(ctx, tx, store.Appointment{
			BusinessID:       business.ID,
			ServiceID:        service.ID,
			CustomerID:       customerID,
			StartsAt:         startsAt,
			Status:           store.StatusConfirmed,
			ConfirmationCode: code,
		})
		if err != nil {
			return err
		}

		confirmation = Confirmation{
			AppointmentID:    appointmentID,
			ConfirmationCode: code,
			StartsAt:         startsAt,
		}
		return nil
	})
	if err != nil {
		// Two requests raced past validation; the slot index picked
		// the winner and this one lost.
		if appdb.IsUniqueViolation(err) {
			return nil, reject(verdict.Day, ReasonSlotTaken, "This time slot is already booked"), nil
		}
		return nil, Result{}, fmt.Errorf("create appointment: %w", err)
	}

	logger.Info().
		Int64("business_id", business.ID).
		Int64("appointment_id", confirmation.AppointmentID).
		Str("starts_at", startsAt).
		Msg("Appointment booked")

	email.SendAppointmentEmail(s.sender, req.CustomerEmail, email.BuildBookingConfirmation(email.AppointmentDetails{
		BusinessName:     business.Name,
		ServiceName:      service.Name,
		Date:             req.Date,
		Time:             req.Time,
		ConfirmationCode: code,
	}), logger)

	return &confirmation, verdict, nil
}

// Cancel marks an appointment cancelled, releasing its slot for
// rebooking.
func (s *Service) Cancel(ctx context.Context, appointmentID int64) error {
	if err := s.store.CancelAppointment(ctx, appointmentID); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Int64("appointment_id", appointmentID).Msg("Appointment cancelled")
	return nil
}

func (s *Service) findOrCreateCustomer(ctx context.Context, tx *sql.Tx, businessID int64, req Request, phone string) (int64, error) {
	customer, err := s.store.FindCustomerByPhone(ctx, tx, businessID, phone)
	if err == nil {
		return customer.ID, nil
	}
	return s.store.CreateCustomer(ctx, tx, businessID, strings.TrimSpace(req.CustomerName), phone, strings.TrimSpace(req.CustomerEmail))
}

// NormalizePhone canonicalizes a customer phone number to E.164 so the
// same customer is found again across bookings. Unparsable numbers fall
// back to the trimmed input.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	parsed, err := phonenumbers.Parse(raw, defaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return raw
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

func nullableString(value sql.NullString) any {
	if !value.Valid {
		return nil
	}
	return value.String
}
