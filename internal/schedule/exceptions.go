package schedule

import (
	"encoding/json"
	"strings"
	"time"
)

// Exception types.
const (
	ExceptionClosure      = "closure"
	ExceptionSpecialHours = "special_hours"
)

const dateLayout = "2006-01-02"

// CustomHours is the override window carried by a special_hours exception.
type CustomHours struct {
	OpenTime  string `json:"openTime"`
	CloseTime string `json:"closeTime"`
}

// Exception overrides the weekly schedule for an inclusive date range:
// either a closure or a special-hours window.
type Exception struct {
	ID          string       `json:"id"`
	Type        string       `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	StartDate   string       `json:"startDate"`
	EndDate     string       `json:"endDate"`
	CustomHours *CustomHours `json:"customHours,omitempty"`
}

// Contains reports whether the exception's inclusive [StartDate, EndDate]
// range covers the date. Dates are compared as YYYY-MM-DD strings.
func (e Exception) Contains(date time.Time) bool {
	day := date.Format(dateLayout)
	return e.StartDate <= day && day <= e.EndDate
}

// rangeDays returns the inclusive span of the exception in days, or a
// large sentinel when either bound does not parse.
func (e Exception) rangeDays() int {
	start, err := time.Parse(dateLayout, e.StartDate)
	if err != nil {
		return 1 << 20
	}
	end, err := time.Parse(dateLayout, e.EndDate)
	if err != nil {
		return 1 << 20
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// ParseExceptions decodes a stored schedule_exceptions value: a JSON
// string, a decoded []any, or a []Exception. Malformed input yields an
// empty list rather than an error so availability stays computable.
func ParseExceptions(raw any) []Exception {
	switch typed := raw.(type) {
	case nil:
		return nil
	case []Exception:
		return typed
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return nil
		}
		var list []Exception
		if err := json.Unmarshal([]byte(trimmed), &list); err != nil {
			return nil
		}
		return list
	case []any:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return nil
		}
		var list []Exception
		if err := json.Unmarshal(encoded, &list); err != nil {
			return nil
		}
		return list
	default:
		return nil
	}
}

// MatchException returns the exception applying to date, or nil. When
// several ranges cover the same date the most specific one wins: the
// shortest range, then the earliest start date, then list order.
func MatchException(exceptions []Exception, date time.Time) *Exception {
	var best *Exception
	for i := range exceptions {
		ex := &exceptions[i]
		if !ex.Contains(date) {
			continue
		}
		if best == nil {
			best = ex
			continue
		}
		span, bestSpan := ex.rangeDays(), best.rangeDays()
		if span < bestSpan || (span == bestSpan && ex.StartDate < best.StartDate) {
			best = ex
		}
	}
	return best
}
