package schedule

import (
	"reflect"
	"testing"
	"time"
)

// mondaySchedule opens Monday 09:00-17:00 and closes every other day.
func mondaySchedule() WeeklySchedule {
	s := make(WeeklySchedule, 7)
	for _, day := range DayNames {
		s[day] = DaySchedule{IsOpen: false, OpenTime: "09:00", CloseTime: "17:00"}
	}
	s["monday"] = DaySchedule{IsOpen: true, OpenTime: "09:00", CloseTime: "17:00"}
	return s
}

func TestResolveDayWeekly(t *testing.T) {
	// 2025-08-04 is a Monday.
	day := ResolveDay(mondaySchedule(), nil, date(t, "2025-08-04"))
	if !day.IsOpen || day.OpenTime != "09:00" || day.CloseTime != "17:00" {
		t.Fatalf("unexpected resolved day: %#v", day)
	}
	if day.Source != SourceWeekly || day.Exception != nil {
		t.Fatalf("expected weekly source: %#v", day)
	}

	tuesday := ResolveDay(mondaySchedule(), nil, date(t, "2025-08-05"))
	if tuesday.IsOpen {
		t.Fatalf("tuesday should be closed: %#v", tuesday)
	}
}

func TestResolveDayClosureOverridesOpenWeekday(t *testing.T) {
	exceptions := []Exception{{
		ID: "summer", Type: ExceptionClosure, Title: "Summer break",
		StartDate: "2025-08-01", EndDate: "2025-08-15",
	}}

	// 2025-08-04 is a Monday the weekly schedule marks open.
	day := ResolveDay(mondaySchedule(), exceptions, date(t, "2025-08-04"))
	if day.IsOpen {
		t.Fatalf("closure must win over open weekday: %#v", day)
	}
	if day.Source != SourceException || day.Exception == nil || day.Exception.Title != "Summer break" {
		t.Fatalf("expected exception source: %#v", day)
	}
	if slots := day.Slots(30); len(slots) != 0 {
		t.Fatalf("closed day must have no slots: %v", slots)
	}
}

func TestResolveDaySpecialHoursOpensClosedWeekday(t *testing.T) {
	exceptions := []Exception{{
		ID: "holiday-eve", Type: ExceptionSpecialHours, Title: "Holiday eve",
		StartDate: "2025-08-01", EndDate: "2025-08-15",
		CustomHours: &CustomHours{OpenTime: "08:00", CloseTime: "10:00"},
	}}

	// 2025-08-05 is a Tuesday, closed in the weekly schedule.
	day := ResolveDay(mondaySchedule(), exceptions, date(t, "2025-08-05"))
	if !day.IsOpen {
		t.Fatalf("special hours must open the day: %#v", day)
	}
	if day.OpenTime != "08:00" || day.CloseTime != "10:00" {
		t.Fatalf("custom hours not applied: %#v", day)
	}
}

func TestResolveDaySpecialHoursWithoutWindowFallsBack(t *testing.T) {
	exceptions := []Exception{{
		ID: "broken", Type: ExceptionSpecialHours,
		StartDate: "2025-08-01", EndDate: "2025-08-15",
	}}

	day := ResolveDay(mondaySchedule(), exceptions, date(t, "2025-08-04"))
	if !day.IsOpen || day.OpenTime != "09:00" {
		t.Fatalf("expected weekly fallback: %#v", day)
	}
	if day.Source != SourceWeekly {
		t.Fatalf("fallback should report weekly source: %#v", day)
	}
}

func TestSlotsHourly(t *testing.T) {
	day := ResolveDay(mondaySchedule(), nil, date(t, "2025-08-04"))
	got := day.Slots(60)
	want := []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Slots(60) = %v, want %v", got, want)
	}
}

func TestSlotsSpecialHoursHalfHour(t *testing.T) {
	exceptions := []Exception{{
		Type: ExceptionSpecialHours, StartDate: "2025-08-01", EndDate: "2025-08-15",
		CustomHours: &CustomHours{OpenTime: "08:00", CloseTime: "10:00"},
	}}
	day := ResolveDay(mondaySchedule(), exceptions, date(t, "2025-08-04"))
	got := day.Slots(30)
	want := []string{"08:00", "08:30", "09:00", "09:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Slots(30) = %v, want %v", got, want)
	}
}

func TestSlotsHalfOpenInterval(t *testing.T) {
	day := ResolvedDay{IsOpen: true, OpenTime: "09:00", CloseTime: "17:00"}
	for _, interval := range []int{15, 30, 45, 60, 90} {
		for _, slot := range day.Slots(interval) {
			if slot < "09:00" || slot >= "17:00" {
				t.Fatalf("interval %d: slot %s escapes [09:00, 17:00)", interval, slot)
			}
		}
	}
}

func TestSlotsDegenerateWindow(t *testing.T) {
	day := ResolvedDay{IsOpen: true, OpenTime: "17:00", CloseTime: "09:00"}
	if slots := day.Slots(30); len(slots) != 0 {
		t.Fatalf("inverted window should have no slots: %v", slots)
	}
	day = ResolvedDay{IsOpen: true, OpenTime: "09:00", CloseTime: "09:00"}
	if slots := day.Slots(30); len(slots) != 0 {
		t.Fatalf("empty window should have no slots: %v", slots)
	}
}

func TestIsOpenAt(t *testing.T) {
	day := ResolvedDay{IsOpen: true, OpenTime: "09:00", CloseTime: "17:00"}

	cases := []struct {
		time string
		want bool
	}{
		{"08:59", false},
		{"09:00", true},
		{"12:30", true},
		{"16:59", true},
		{"17:00", false},
		{"23:00", false},
		{"not-a-time", false},
	}
	for _, tc := range cases {
		if got := day.IsOpenAt(tc.time); got != tc.want {
			t.Errorf("IsOpenAt(%s) = %v, want %v", tc.time, got, tc.want)
		}
	}

	closed := ResolvedDay{IsOpen: false, OpenTime: "09:00", CloseTime: "17:00"}
	if closed.IsOpenAt("12:00") {
		t.Fatal("closed day must never be open")
	}
}

func TestHoursLabel(t *testing.T) {
	day := ResolvedDay{IsOpen: true, OpenTime: "09:00", CloseTime: "17:00"}
	if got := day.HoursLabel(); got != "09:00 - 17:00" {
		t.Fatalf("HoursLabel() = %q", got)
	}
	if got := (ResolvedDay{}).HoursLabel(); got != "closed" {
		t.Fatalf("closed HoursLabel() = %q", got)
	}
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestStatus(t *testing.T) {
	// Monday noon: open.
	noon := time.Date(2025, 8, 4, 12, 0, 0, 0, time.UTC)
	status := Status(mondaySchedule(), nil, fixedClock{now: noon})
	if !status.Open || status.OpenTime != "09:00" || status.CloseTime != "17:00" {
		t.Fatalf("unexpected status at noon: %#v", status)
	}

	// Monday evening: same window, closed.
	evening := time.Date(2025, 8, 4, 18, 30, 0, 0, time.UTC)
	status = Status(mondaySchedule(), nil, fixedClock{now: evening})
	if status.Open {
		t.Fatalf("should be closed at 18:30: %#v", status)
	}

	// Closure exception hides the window entirely.
	exceptions := []Exception{{Type: ExceptionClosure, StartDate: "2025-08-01", EndDate: "2025-08-15"}}
	status = Status(mondaySchedule(), exceptions, fixedClock{now: noon})
	if status.Open || status.OpenTime != "" {
		t.Fatalf("closure should blank the status: %#v", status)
	}
}
