package email

import (
	"strings"
	"testing"
)

func TestBuildBookingConfirmation(t *testing.T) {
	msg := BuildBookingConfirmation(AppointmentDetails{
		BusinessName:     "Mika's Salon",
		ServiceName:      "Haircut",
		Date:             "2025-08-04",
		Time:             "10:00",
		ConfirmationCode: "abc-123",
	})

	if msg.Subject != "Appointment Confirmed - Mika's Salon" {
		t.Fatalf("unexpected subject: %q", msg.Subject)
	}
	for _, want := range []string{"Haircut", "2025-08-04", "10:00", "abc-123"} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestBuildBookingConfirmationDefaults(t *testing.T) {
	msg := BuildBookingConfirmation(AppointmentDetails{})
	if !strings.Contains(msg.Body, "the business") {
		t.Fatalf("expected fallback business name:\n%s", msg.Body)
	}
	if strings.Contains(msg.Body, "Confirmation code") {
		t.Fatalf("empty code should omit the line:\n%s", msg.Body)
	}
}

func TestBuildBookingCancellationReason(t *testing.T) {
	msg := BuildBookingCancellation(AppointmentDetails{
		BusinessName: "Mika's Salon",
		Reason:       "Business closed for the holiday",
	})
	if !strings.Contains(msg.Body, "Reason: Business closed for the holiday") {
		t.Fatalf("body missing reason:\n%s", msg.Body)
	}

	noReason := BuildBookingCancellation(AppointmentDetails{BusinessName: "Mika's Salon"})
	if strings.Contains(noReason.Body, "Reason:") {
		t.Fatalf("empty reason should omit the line:\n%s", noReason.Body)
	}
}

func TestBuildAppointmentReminder(t *testing.T) {
	msg := BuildAppointmentReminder(AppointmentDetails{
		BusinessName: "Mika's Salon",
		ServiceName:  "Haircut",
		Date:         "2025-08-04",
		Time:         "10:00",
	})
	if msg.Subject != "Appointment Reminder - Mika's Salon" {
		t.Fatalf("unexpected subject: %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "coming up") {
		t.Fatalf("unexpected body:\n%s", msg.Body)
	}
}
