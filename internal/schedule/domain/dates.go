package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// DateOnly truncates t to midnight UTC of its calendar date
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today is the current UTC date
func Today() time.Time {
	return DateOnly(time.Now())
}

// WeekStart returns the Monday on or before t
func WeekStart(t time.Time) time.Time {
	t = DateOnly(t)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// DaysInRange returns every date from start to end inclusive
func DaysInRange(start, end time.Time) []time.Time {
	start, end = DateOnly(start), DateOnly(end)
	if end.Before(start) {
		return nil
	}
	days := make([]time.Time, 0, DayCount(start, end))
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DayCount is the number of dates from start to end inclusive, or 0
func DayCount(start, end time.Time) int {
	start, end = DateOnly(start), DateOnly(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Intersect clips [aStart, aEnd] to [bStart, bEnd]
func Intersect(aStart, aEnd, bStart, bEnd time.Time) (time.Time, time.Time, bool) {
	start, end := DateOnly(aStart), DateOnly(aEnd)
	if bs := DateOnly(bStart); bs.After(start) {
		start = bs
	}
	if be := DateOnly(bEnd); be.Before(end) {
		end = be
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
