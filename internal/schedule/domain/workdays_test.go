package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func formatAll(days []time.Time) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = FormatDate(d)
	}
	return out
}

func TestIsWorkingDay(t *testing.T) {
	holidays := NewHolidaySet(date("2024-01-01"), date("2024-01-06"))

	tests := []struct {
		name string
		day  string
		task DayOptions
		view ViewOptions
		want bool
	}{
		{"weekday", "2024-01-03", DayOptions{}, ViewOptions{}, true},
		{"saturday excluded by default", "2024-01-13", DayOptions{}, ViewOptions{}, false},
		{"saturday via task", "2024-01-13", DayOptions{IncludeSaturday: true}, ViewOptions{}, true},
		{"saturday via view", "2024-01-13", DayOptions{}, ViewOptions{ShowSaturday: true}, true},
		{"sunday needs its own flag", "2024-01-14", DayOptions{IncludeSaturday: true}, ViewOptions{}, false},
		{"sunday via task", "2024-01-14", DayOptions{IncludeSunday: true}, ViewOptions{}, true},
		{"sunday via view", "2024-01-14", DayOptions{}, ViewOptions{ShowSunday: true}, true},
		{"weekday holiday", "2024-01-01", DayOptions{}, ViewOptions{}, false},
		{"weekday holiday included", "2024-01-01", DayOptions{IncludeHolidays: true}, ViewOptions{}, true},
		{"saturday holiday even when saturdays count", "2024-01-06", DayOptions{IncludeSaturday: true}, ViewOptions{}, false},
		{"holiday flag does not add weekends", "2024-01-06", DayOptions{IncludeHolidays: true}, ViewOptions{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWorkingDay(date(tt.day), tt.task, tt.view, holidays))
		})
	}
}

func TestWorkingDays(t *testing.T) {
	holidays := NewHolidaySet(date("2024-01-01"))

	days := WorkingDays(date("2024-01-01"), date("2024-01-09"), DayOptions{}, ViewOptions{}, holidays)
	assert.Equal(t, []string{
		"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05",
		"2024-01-08", "2024-01-09",
	}, formatAll(days))

	days = WorkingDays(date("2024-01-05"), date("2024-01-08"), DayOptions{IncludeSaturday: true}, ViewOptions{}, nil)
	assert.Equal(t, []string{"2024-01-05", "2024-01-06", "2024-01-08"}, formatAll(days))

	assert.Empty(t, WorkingDays(date("2024-01-06"), date("2024-01-07"), DayOptions{}, ViewOptions{}, nil))
	assert.Empty(t, WorkingDays(date("2024-01-09"), date("2024-01-08"), DayOptions{}, ViewOptions{}, nil))
}

func TestDateHelpers(t *testing.T) {
	assert.Equal(t, "2024-01-01", FormatDate(WeekStart(date("2024-01-01"))))
	assert.Equal(t, "2024-01-01", FormatDate(WeekStart(date("2024-01-07"))))
	assert.Equal(t, "2024-01-08", FormatDate(WeekStart(date("2024-01-10"))))

	assert.Equal(t, 7, DayCount(date("2024-01-01"), date("2024-01-07")))
	assert.Equal(t, 1, DayCount(date("2024-02-29"), date("2024-02-29")))
	assert.Equal(t, 0, DayCount(date("2024-01-02"), date("2024-01-01")))
	assert.Len(t, DaysInRange(date("2024-02-27"), date("2024-03-02")), 5)

	local := time.Date(2024, 3, 10, 23, 30, 0, 0, time.FixedZone("X", -5*3600))
	assert.Equal(t, "2024-03-10", FormatDate(DateOnly(local)))

	start, end, ok := Intersect(date("2024-01-01"), date("2024-01-31"), date("2024-01-15"), date("2024-02-15"))
	require.True(t, ok)
	assert.Equal(t, "2024-01-15", FormatDate(start))
	assert.Equal(t, "2024-01-31", FormatDate(end))

	_, _, ok = Intersect(date("2024-01-01"), date("2024-01-05"), date("2024-01-06"), date("2024-01-07"))
	assert.False(t, ok)

	_, err := ParseDate("01/02/2024")
	assert.Error(t, err)
}
