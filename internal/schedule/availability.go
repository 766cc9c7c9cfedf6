package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ResolvedDay sources.
const (
	SourceWeekly    = "weekly"
	SourceException = "exception"
)

// DefaultSlotInterval is the slot spacing used when a business has no
// per-business override.
const DefaultSlotInterval = 30

// ResolvedDay is the authoritative open/closed decision for one calendar
// date after layering exceptions over the weekly schedule.
type ResolvedDay struct {
	Date      time.Time
	IsOpen    bool
	OpenTime  string
	CloseTime string
	Source    string
	// Exception is the override that produced this day, nil when the
	// weekly schedule applied.
	Exception *Exception
}

// ResolveDay combines the weekly schedule and exceptions for one date.
// A closure exception forces the day closed regardless of the weekly
// entry; a special-hours exception forces it open with the custom
// window, even on a weekday the schedule marks closed.
func ResolveDay(weekly WeeklySchedule, exceptions []Exception, date time.Time) ResolvedDay {
	day := ResolvedDay{Date: date, Source: SourceWeekly}

	if ex := MatchException(exceptions, date); ex != nil {
		day.Source = SourceException
		day.Exception = ex
		switch ex.Type {
		case ExceptionClosure:
			return day
		case ExceptionSpecialHours:
			if ex.CustomHours != nil {
				day.IsOpen = true
				day.OpenTime = ex.CustomHours.OpenTime
				day.CloseTime = ex.CustomHours.CloseTime
				return day
			}
		}
		// Unknown exception type or special hours without a window:
		// fall through to the weekly entry.
		day.Source = SourceWeekly
		day.Exception = nil
	}

	entry, ok := weekly[DayName(date)]
	if !ok || !entry.IsOpen {
		return day
	}
	day.IsOpen = true
	day.OpenTime = entry.OpenTime
	day.CloseTime = entry.CloseTime
	return day
}

// Slots enumerates bookable start times spaced intervalMinutes apart
// inside the half-open window [OpenTime, CloseTime). Closed days and
// degenerate windows yield no slots.
func (d ResolvedDay) Slots(intervalMinutes int) []string {
	if !d.IsOpen || intervalMinutes <= 0 {
		return nil
	}
	open, err := minutesOfDay(d.OpenTime)
	if err != nil {
		return nil
	}
	close, err := minutesOfDay(d.CloseTime)
	if err != nil {
		return nil
	}

	var slots []string
	for current := open; current < close; current += intervalMinutes {
		slots = append(slots, formatMinutes(current))
	}
	return slots
}

// IsOpenAt reports whether timeStr ("HH:MM") falls inside the day's
// half-open window. Always false when the day is closed or the time is
// malformed.
func (d ResolvedDay) IsOpenAt(timeStr string) bool {
	if !d.IsOpen {
		return false
	}
	t, err := minutesOfDay(timeStr)
	if err != nil {
		return false
	}
	open, err := minutesOfDay(d.OpenTime)
	if err != nil {
		return false
	}
	close, err := minutesOfDay(d.CloseTime)
	if err != nil {
		return false
	}
	return open <= t && t < close
}

// HoursLabel renders the day's window for user-facing messages.
func (d ResolvedDay) HoursLabel() string {
	if !d.IsOpen {
		return "closed"
	}
	return fmt.Sprintf("%s - %s", d.OpenTime, d.CloseTime)
}

// Clock abstracts time.Now for the current-status query.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock returns a Clock backed by the system time.
func RealClock() Clock { return realClock{} }

// DayStatus is the "is the business open right now" convenience answer.
type DayStatus struct {
	Open      bool   `json:"open"`
	OpenTime  string `json:"openTime,omitempty"`
	CloseTime string `json:"closeTime,omitempty"`
	Source    string `json:"source"`
}

// Status resolves the current moment against the schedule. It is a thin
// wrapper over ResolveDay and IsOpenAt; everything else in this package
// is clock-free.
func Status(weekly WeeklySchedule, exceptions []Exception, clock Clock) DayStatus {
	if clock == nil {
		clock = realClock{}
	}
	now := clock.Now()
	day := ResolveDay(weekly, exceptions, now)
	status := DayStatus{Source: day.Source}
	if !day.IsOpen {
		return status
	}
	status.OpenTime = day.OpenTime
	status.CloseTime = day.CloseTime
	status.Open = day.IsOpenAt(now.Format("15:04"))
	return status
}

// minutesOfDay parses "HH:MM" into minutes since midnight.
func minutesOfDay(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	return hour*60 + minute, nil
}

func formatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
