// Package booking decides whether a prospective appointment may be
// created and, when it may, records it.
package booking

import (
	"fmt"
	"time"

	"github.com/torbook/torbook/internal/schedule"
	"github.com/torbook/torbook/internal/store"
)

// Rejection reason codes. The HTTP layer maps these to responses; the
// engine never throws for a business-rule rejection.
const (
	ReasonBusinessNotBookable = "business_not_bookable"
	ReasonClosedDate          = "closed_date"
	ReasonOutsideHours        = "outside_hours"
	ReasonSlotTaken           = "slot_taken"
)

// Result is the validator's verdict. Reason and Message are set only on
// rejection.
type Result struct {
	OK      bool   `json:"ok"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
	// Day is the resolved availability used for the verdict.
	Day schedule.ResolvedDay `json:"-"`
}

func reject(day schedule.ResolvedDay, reason, message string) Result {
	return Result{Reason: reason, Message: message, Day: day}
}

// Validate checks a (business, date, time) booking request against the
// business snapshot: bookable status, resolved day, open window, and
// conflicts with existing appointments. It is pure over its inputs; the
// caller supplies the existing-appointments snapshot.
func Validate(business *store.Business, weekly schedule.WeeklySchedule, exceptions []schedule.Exception, existing []store.Appointment, date time.Time, timeStr string) Result {
	day := schedule.ResolveDay(weekly, exceptions, date)

	if business.Status != store.BusinessApproved {
		return reject(day, ReasonBusinessNotBookable, "This business is not accepting bookings")
	}

	if !day.IsOpen {
		message := "The business is closed on the selected date"
		if ex := day.Exception; ex != nil && ex.Type == schedule.ExceptionClosure {
			message = fmt.Sprintf("The business is closed on the selected date: %s", ex.Title)
			if ex.Description != "" {
				message += " - " + ex.Description
			}
		}
		return reject(day, ReasonClosedDate, message)
	}

	if !day.IsOpenAt(timeStr) {
		return reject(day, ReasonOutsideHours,
			fmt.Sprintf("The selected time is outside business hours (%s)", day.HoursLabel()))
	}

	startsAt := StartsAt(date, timeStr)
	for _, appt := range existing {
		if appt.Status == store.StatusCancelled {
			continue
		}
		if appt.BusinessID == business.ID && appt.StartsAt == startsAt {
			return reject(day, ReasonSlotTaken, "This time slot is already booked")
		}
	}

	return Result{OK: true, Day: day}
}

// StartsAt renders the canonical appointment datetime key,
// "YYYY-MM-DD HH:MM". Conflicts are exact matches on this string.
func StartsAt(date time.Time, timeStr string) string {
	return date.Format("2006-01-02") + " " + timeStr
}
