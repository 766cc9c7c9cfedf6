// Package store owns the SQL reads and writes the booking engine needs:
// business snapshots, customers, services, and appointment rows. It is
// passed explicitly to its consumers so tests can substitute a
// throwaway database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	appdb "github.com/torbook/torbook/internal/db"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Appointment status values.
const (
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Business status values. Only approved businesses accept bookings.
const (
	BusinessPending   = "pending"
	BusinessApproved  = "approved"
	BusinessSuspended = "suspended"
)

type Business struct {
	ID            int64
	Name          string
	Slug          string
	Status        string
	Timezone      string
	ScheduleRaw   sql.NullString
	ExceptionsRaw sql.NullString
	SlotInterval  int
}

type Service struct {
	ID              int64
	BusinessID      int64
	Name            string
	DurationMinutes int
	PriceAgorot     int64
	Active          bool
}

type Customer struct {
	ID         int64
	BusinessID int64
	Name       string
	Phone      string
	Email      sql.NullString
}

type Appointment struct {
	ID               int64
	BusinessID       int64
	ServiceID        int64
	CustomerID       int64
	StartsAt         string
	Status           string
	ConfirmationCode string
}

// Querier is satisfied by both *sql.DB and *sql.Tx so store operations
// can participate in the booking transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *appdb.DB
}

func New(database *appdb.DB) *Store {
	return &Store{db: database}
}

// DB exposes the underlying database for transactional flows.
func (s *Store) DB() *appdb.DB {
	return s.db
}

func (s *Store) GetBusinessByID(ctx context.Context, id int64) (*Business, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, slug, status, timezone, schedule, schedule_exceptions, slot_interval_minutes
		FROM businesses WHERE id = ?`, id)

	var b Business
	err := row.Scan(&b.ID, &b.Name, &b.Slug, &b.Status, &b.Timezone, &b.ScheduleRaw, &b.ExceptionsRaw, &b.SlotInterval)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("business %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get business %d: %w", id, err)
	}
	return &b, nil
}

func (s *Store) GetServiceByID(ctx context.Context, id int64) (*Service, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, business_id, name, duration_minutes, price_agorot, active
		FROM services WHERE id = ?`, id)

	var svc Service
	err := row.Scan(&svc.ID, &svc.BusinessID, &svc.Name, &svc.DurationMinutes, &svc.PriceAgorot, &svc.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("service %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get service %d: %w", id, err)
	}
	return &svc, nil
}

// ListAppointmentsForDay returns all non-cancelled appointments for a
// business on one calendar date ("YYYY-MM-DD"), ordered by start time.
func (s *Store) ListAppointmentsForDay(ctx context.Context, businessID int64, date string) ([]Appointment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, business_id, service_id, customer_id, starts_at, status, confirmation_code
		FROM appointments
		WHERE business_id = ? AND starts_at LIKE ? AND status != ?
		ORDER BY starts_at`, businessID, date+" %", StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("list appointments for %s: %w", date, err)
	}
	defer rows.Close()

	return scanAppointments(rows)
}

// FindCustomerByPhone looks up an existing customer record for the
// business by normalized phone number.
func (s *Store) FindCustomerByPhone(ctx context.Context, q Querier, businessID int64, phone string) (*Customer, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, business_id, name, phone, email
		FROM customers WHERE business_id = ? AND phone = ?
		ORDER BY id LIMIT 1`, businessID, phone)

	var c Customer
	err := row.Scan(&c.ID, &c.BusinessID, &c.Name, &c.Phone, &c.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer with phone %s: %w", phone, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find customer by phone: %w", err)
	}
	return &c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, q Querier, businessID int64, name, phone, email string) (int64, error) {
	result, err := q.ExecContext(ctx, `
		INSERT INTO customers (business_id, name, phone, email)
		VALUES (?, ?, ?, NULLIF(?, ''))`, businessID, name, phone, email)
	if err != nil {
		return 0, fmt.Errorf("create customer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("customer id: %w", err)
	}
	return id, nil
}

func (s *Store) CreateAppointment(ctx context.Context, q Querier, appt Appointment) (int64, error) {
	result, err := q.ExecContext(ctx, `
		INSERT INTO appointments (business_id, service_id, customer_id, starts_at, status, confirmation_code)
		VALUES (?, ?, ?, ?, ?, ?)`,
		appt.BusinessID, appt.ServiceID, appt.CustomerID, appt.StartsAt, appt.Status, appt.ConfirmationCode)
	if err != nil {
		// Preserved so callers can detect the slot unique index.
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("appointment id: %w", err)
	}
	return id, nil
}

// CancelAppointment marks an appointment cancelled, releasing its slot.
func (s *Store) CancelAppointment(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE appointments
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status != ?`, StatusCancelled, id, StatusCancelled)
	if err != nil {
		return fmt.Errorf("cancel appointment %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel appointment %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("appointment %d: %w", id, ErrNotFound)
	}
	return nil
}

// ReminderRow joins an upcoming appointment with the customer and
// business details the reminder email needs.
type ReminderRow struct {
	AppointmentID int64
	BusinessName  string
	ServiceName   string
	CustomerName  string
	CustomerEmail sql.NullString
	StartsAt      string
}

// ListUpcomingForReminder returns confirmed appointments starting inside
// [from, to), both "YYYY-MM-DD HH:MM" strings.
func (s *Store) ListUpcomingForReminder(ctx context.Context, from, to string) ([]ReminderRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, b.name, sv.name, c.name, c.email, a.starts_at
		FROM appointments a
		JOIN businesses b ON b.id = a.business_id
		JOIN services sv ON sv.id = a.service_id
		JOIN customers c ON c.id = a.customer_id
		WHERE a.status = ? AND a.starts_at >= ? AND a.starts_at < ?
		ORDER BY a.starts_at`, StatusConfirmed, from, to)
	if err != nil {
		return nil, fmt.Errorf("list upcoming appointments: %w", err)
	}
	defer rows.Close()

	var reminders []ReminderRow
	for rows.Next() {
		var r ReminderRow
		if err := rows.Scan(&r.AppointmentID, &r.BusinessName, &r.ServiceName, &r.CustomerName, &r.CustomerEmail, &r.StartsAt); err != nil {
			return nil, fmt.Errorf("scan reminder row: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func scanAppointments(rows *sql.Rows) ([]Appointment, error) {
	var appointments []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.BusinessID, &a.ServiceID, &a.CustomerID, &a.StartsAt, &a.Status, &a.ConfirmationCode); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}
