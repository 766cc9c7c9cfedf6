package email

import (
	"fmt"
	"strings"
)

type Message struct {
	Subject string
	Body    string
}

// AppointmentDetails feeds the confirmation, reminder, and cancellation
// templates.
type AppointmentDetails struct {
	BusinessName     string
	ServiceName      string
	Date             string
	Time             string
	ConfirmationCode string
	Reason           string
}

func BuildBookingConfirmation(details AppointmentDetails) Message {
	businessName := orDefault(details.BusinessName, "the business")
	serviceName := orDefault(details.ServiceName, "Appointment")

	lines := []string{
		fmt.Sprintf("Your %s appointment at %s is confirmed.", serviceName, businessName),
		"",
		fmt.Sprintf("Date: %s", orDefault(details.Date, "TBD")),
		fmt.Sprintf("Time: %s", orDefault(details.Time, "TBD")),
	}
	if code := strings.TrimSpace(details.ConfirmationCode); code != "" {
		lines = append(lines, fmt.Sprintf("Confirmation code: %s", code))
	}

	return Message{
		Subject: fmt.Sprintf("Appointment Confirmed - %s", businessName),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildAppointmentReminder(details AppointmentDetails) Message {
	businessName := orDefault(details.BusinessName, "the business")
	serviceName := orDefault(details.ServiceName, "Appointment")

	lines := []string{
		fmt.Sprintf("Reminder: your %s appointment at %s is coming up.", serviceName, businessName),
		"",
		fmt.Sprintf("Date: %s", orDefault(details.Date, "TBD")),
		fmt.Sprintf("Time: %s", orDefault(details.Time, "TBD")),
	}

	return Message{
		Subject: fmt.Sprintf("Appointment Reminder - %s", businessName),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildBookingCancellation(details AppointmentDetails) Message {
	businessName := orDefault(details.BusinessName, "the business")
	serviceName := orDefault(details.ServiceName, "Appointment")

	lines := []string{
		fmt.Sprintf("Your %s appointment at %s has been cancelled.", serviceName, businessName),
		"",
		fmt.Sprintf("Date: %s", orDefault(details.Date, "TBD")),
		fmt.Sprintf("Time: %s", orDefault(details.Time, "TBD")),
	}
	if reason := strings.TrimSpace(details.Reason); reason != "" {
		lines = append(lines, fmt.Sprintf("Reason: %s", reason))
	}

	return Message{
		Subject: fmt.Sprintf("Appointment Cancelled - %s", businessName),
		Body:    strings.Join(lines, "\n"),
	}
}

func orDefault(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
