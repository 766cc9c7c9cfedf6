// Package schedule normalizes business working hours and resolves
// per-date availability from weekly schedules and date-range exceptions.
package schedule

import (
	"encoding/json"
	"strings"
	"time"
)

// DaySchedule is the open/close window for one day of the week.
type DaySchedule struct {
	IsOpen    bool   `json:"isOpen"`
	OpenTime  string `json:"openTime"`
	CloseTime string `json:"closeTime"`
}

// WeeklySchedule maps lowercase English day names (sunday..saturday) to
// their hours. After Normalize all seven days are present.
type WeeklySchedule map[string]DaySchedule

// DayNames lists the canonical day keys in calendar order.
var DayNames = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// hebrewDays maps legacy Hebrew day keys to canonical day names. Older
// business rows store schedules keyed this way.
var hebrewDays = map[string]string{
	"ראשון": "sunday",
	"שני":   "monday",
	"שלישי": "tuesday",
	"רביעי": "wednesday",
	"חמישי": "thursday",
	"שישי":  "friday",
	"שבת":   "saturday",
}

const (
	placeholderOpen  = "09:00"
	placeholderClose = "17:00"
)

// DefaultSchedule returns the fallback weekly schedule used whenever a
// stored schedule is missing or unparsable: Sunday and Saturday closed,
// Monday-Thursday 09:00-17:00, Friday 09:00-14:00.
func DefaultSchedule() WeeklySchedule {
	s := WeeklySchedule{
		"sunday":   {IsOpen: false, OpenTime: placeholderOpen, CloseTime: placeholderClose},
		"saturday": {IsOpen: false, OpenTime: placeholderOpen, CloseTime: placeholderClose},
		"friday":   {IsOpen: true, OpenTime: "09:00", CloseTime: "14:00"},
	}
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday"} {
		s[day] = DaySchedule{IsOpen: true, OpenTime: "09:00", CloseTime: "17:00"}
	}
	return s
}

// Normalize converts a stored schedule value into a canonical
// WeeklySchedule. Accepted shapes: a canonical map, a map wrapped one
// level under "opening_hours" or "working_hours", a legacy Hebrew-keyed
// map of "HH:MM-HH:MM" strings, or any of those as a JSON string.
// Normalize never fails; nil or unparsable input returns DefaultSchedule.
func Normalize(raw any) WeeklySchedule {
	if raw == nil {
		return DefaultSchedule()
	}

	if s, ok := raw.(string); ok {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return DefaultSchedule()
		}
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
			return DefaultSchedule()
		}
		raw = decoded
	}

	obj := asMap(raw)
	if obj == nil {
		return DefaultSchedule()
	}

	// Unwrap one level of nesting from older admin payloads.
	for _, key := range []string{"opening_hours", "working_hours"} {
		if inner, ok := obj[key]; ok {
			if innerMap := asMap(inner); innerMap != nil {
				obj = innerMap
			}
			break
		}
	}

	if isLegacyHebrew(obj) {
		return fromLegacyHebrew(obj)
	}

	return fromCanonical(obj)
}

func asMap(v any) map[string]any {
	switch typed := v.(type) {
	case map[string]any:
		return typed
	case WeeklySchedule:
		m := make(map[string]any, len(typed))
		for day, hours := range typed {
			m[day] = hours
		}
		return m
	default:
		return nil
	}
}

func isLegacyHebrew(obj map[string]any) bool {
	for key := range hebrewDays {
		if _, ok := obj[key]; ok {
			return true
		}
	}
	return false
}

// fromLegacyHebrew maps Hebrew day keys to canonical days. Values are
// "HH:MM-HH:MM" range strings; "סגור", "closed", or anything else marks
// the day closed with placeholder hours retained.
func fromLegacyHebrew(obj map[string]any) WeeklySchedule {
	s := make(WeeklySchedule, len(DayNames))
	for hebrew, day := range hebrewDays {
		entry := DaySchedule{IsOpen: false, OpenTime: placeholderOpen, CloseTime: placeholderClose}
		if raw, ok := obj[hebrew]; ok {
			if value, ok := raw.(string); ok {
				value = strings.TrimSpace(value)
				if open, close, ok := splitHoursRange(value); ok {
					entry = DaySchedule{IsOpen: true, OpenTime: open, CloseTime: close}
				}
			}
		}
		s[day] = entry
	}
	return s
}

func splitHoursRange(value string) (string, string, bool) {
	if value == "" || strings.EqualFold(value, "closed") || value == "סגור" {
		return "", "", false
	}
	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	open := strings.TrimSpace(parts[0])
	close := strings.TrimSpace(parts[1])
	if open == "" || close == "" {
		return "", "", false
	}
	return open, close, true
}

// fromCanonical fills in any missing days so callers can index the
// result without existence checks. Day entries that do not decode keep
// the closed placeholder.
func fromCanonical(obj map[string]any) WeeklySchedule {
	s := make(WeeklySchedule, len(DayNames))
	for _, day := range DayNames {
		entry := DaySchedule{IsOpen: false, OpenTime: placeholderOpen, CloseTime: placeholderClose}
		if raw, ok := obj[day]; ok {
			if decoded, ok := decodeDay(raw); ok {
				entry = decoded
			}
		}
		s[day] = entry
	}
	return s
}

func decodeDay(raw any) (DaySchedule, bool) {
	switch typed := raw.(type) {
	case DaySchedule:
		return typed, true
	case map[string]any:
		entry := DaySchedule{}
		if isOpen, ok := typed["isOpen"].(bool); ok {
			entry.IsOpen = isOpen
		}
		if open, ok := typed["openTime"].(string); ok {
			entry.OpenTime = open
		}
		if close, ok := typed["closeTime"].(string); ok {
			entry.CloseTime = close
		}
		if entry.OpenTime == "" {
			entry.OpenTime = placeholderOpen
		}
		if entry.CloseTime == "" {
			entry.CloseTime = placeholderClose
		}
		return entry, true
	default:
		return DaySchedule{}, false
	}
}

// DayName returns the canonical day key for a calendar date.
func DayName(date time.Time) string {
	return DayNames[int(date.Weekday())]
}
