package domain

import "time"

// DayOptions are a task's opt-ins for non-standard days
type DayOptions struct {
	IncludeSaturday bool
	IncludeSunday   bool
	IncludeHolidays bool
}

// ViewOptions are the calendar view's weekend toggles
type ViewOptions struct {
	ShowSaturday bool
	ShowSunday   bool
}

// HolidaySet is a set of dates keyed by YYYY-MM-DD
type HolidaySet map[string]struct{}

// NewHolidaySet builds a set from dates
func NewHolidaySet(dates ...time.Time) HolidaySet {
	set := make(HolidaySet, len(dates))
	for _, d := range dates {
		set[FormatDate(d)] = struct{}{}
	}
	return set
}

// Contains reports whether d is a holiday. A nil set contains nothing.
func (h HolidaySet) Contains(d time.Time) bool {
	_, ok := h[FormatDate(d)]
	return ok
}

// IsWorkingDay applies the working-day rule to one date: weekdays always
// count, Saturday and Sunday count when the task or the view opts in, and
// holidays never count unless the task includes them.
func IsWorkingDay(d time.Time, task DayOptions, view ViewOptions, holidays HolidaySet) bool {
	switch d.Weekday() {
	case time.Saturday:
		if !task.IncludeSaturday && !view.ShowSaturday {
			return false
		}
	case time.Sunday:
		if !task.IncludeSunday && !view.ShowSunday {
			return false
		}
	}
	if !task.IncludeHolidays && holidays.Contains(d) {
		return false
	}
	return true
}

// WorkingDays returns the ordered working days from start to end inclusive
func WorkingDays(start, end time.Time, task DayOptions, view ViewOptions, holidays HolidaySet) []time.Time {
	var days []time.Time
	for _, d := range DaysInRange(start, end) {
		if IsWorkingDay(d, task, view, holidays) {
			days = append(days, d)
		}
	}
	return days
}
