package schedule

import (
	"testing"
	"time"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return parsed
}

func TestParseExceptionsJSONString(t *testing.T) {
	raw := `[{"id":"1","type":"closure","title":"Passover","startDate":"2025-04-12","endDate":"2025-04-19"}]`
	got := ParseExceptions(raw)
	if len(got) != 1 {
		t.Fatalf("expected 1 exception, got %d", len(got))
	}
	if got[0].Type != ExceptionClosure || got[0].Title != "Passover" {
		t.Fatalf("unexpected exception: %#v", got[0])
	}
}

func TestParseExceptionsTolerance(t *testing.T) {
	inputs := []any{nil, "", "   ", "{broken", `{"not":"a list"}`, 42, map[string]any{}}
	for _, input := range inputs {
		if got := ParseExceptions(input); len(got) != 0 {
			t.Fatalf("ParseExceptions(%v) = %#v, want empty", input, got)
		}
	}
}

func TestParseExceptionsDecodedSlice(t *testing.T) {
	raw := []any{
		map[string]any{
			"id": "2", "type": "special_hours", "title": "Erev Hag",
			"startDate": "2025-09-22", "endDate": "2025-09-22",
			"customHours": map[string]any{"openTime": "08:00", "closeTime": "12:00"},
		},
	}
	got := ParseExceptions(raw)
	if len(got) != 1 {
		t.Fatalf("expected 1 exception, got %d", len(got))
	}
	if got[0].CustomHours == nil || got[0].CustomHours.CloseTime != "12:00" {
		t.Fatalf("custom hours not decoded: %#v", got[0])
	}
}

func TestExceptionContainsInclusive(t *testing.T) {
	ex := Exception{StartDate: "2025-08-01", EndDate: "2025-08-15"}

	cases := []struct {
		date string
		want bool
	}{
		{"2025-07-31", false},
		{"2025-08-01", true},
		{"2025-08-10", true},
		{"2025-08-15", true},
		{"2025-08-16", false},
	}
	for _, tc := range cases {
		if got := ex.Contains(date(t, tc.date)); got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.date, got, tc.want)
		}
	}
}

func TestMatchExceptionNone(t *testing.T) {
	exceptions := []Exception{
		{StartDate: "2025-08-01", EndDate: "2025-08-15"},
	}
	if got := MatchException(exceptions, date(t, "2025-09-01")); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
	if got := MatchException(nil, date(t, "2025-09-01")); got != nil {
		t.Fatalf("expected nil for empty list, got %#v", got)
	}
}

func TestMatchExceptionMostSpecificWins(t *testing.T) {
	exceptions := []Exception{
		{ID: "wide", Type: ExceptionClosure, StartDate: "2025-08-01", EndDate: "2025-08-31"},
		{ID: "narrow", Type: ExceptionSpecialHours, StartDate: "2025-08-10", EndDate: "2025-08-12"},
	}

	got := MatchException(exceptions, date(t, "2025-08-11"))
	if got == nil || got.ID != "narrow" {
		t.Fatalf("shortest range should win, got %#v", got)
	}

	// Outside the narrow range the wide one still applies.
	got = MatchException(exceptions, date(t, "2025-08-20"))
	if got == nil || got.ID != "wide" {
		t.Fatalf("expected wide exception, got %#v", got)
	}
}

func TestMatchExceptionTieBreaksOnStartDate(t *testing.T) {
	exceptions := []Exception{
		{ID: "later", StartDate: "2025-08-11", EndDate: "2025-08-13"},
		{ID: "earlier", StartDate: "2025-08-10", EndDate: "2025-08-12"},
	}
	got := MatchException(exceptions, date(t, "2025-08-12"))
	if got == nil || got.ID != "earlier" {
		t.Fatalf("equal spans should prefer earlier start, got %#v", got)
	}
}
