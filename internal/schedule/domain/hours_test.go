package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateHours(t *testing.T) {
	site := uuid.New()
	other := uuid.New()

	tests := []struct {
		name   string
		status HoursStatus
		hours  float64
		target *uuid.UUID
		field  string
	}{
		{"worked ok", HoursWorked, 8, nil, ""},
		{"worked full day", HoursWorked, 24, nil, ""},
		{"worked zero", HoursWorked, 0, nil, "hours"},
		{"worked too long", HoursWorked, 24.5, nil, "hours"},
		{"off ok", HoursOff, 0, nil, ""},
		{"off with hours", HoursOff, 2, nil, "hours"},
		{"transferred ok", HoursTransferred, 4, &other, ""},
		{"transferred zero hours ok", HoursTransferred, 0, &other, ""},
		{"transferred without target", HoursTransferred, 4, nil, "transferred_to_job_site_id"},
		{"transferred to same site", HoursTransferred, 4, &site, "transferred_to_job_site_id"},
		{"target on worked day", HoursWorked, 8, &other, "transferred_to_job_site_id"},
		{"unknown status", HoursStatus("sick"), 0, nil, "status"},
		{"negative", HoursTransferred, -1, &other, "hours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := ValidateHours(tt.status, tt.hours, site, tt.target)
			if tt.field == "" {
				assert.Empty(t, problems)
				return
			}
			assert.Contains(t, problems, tt.field)
		})
	}
}

func TestAggregateWeek(t *testing.T) {
	ana := WorkerRef{ID: uuid.New(), Name: "Ana Ruiz", Role: RoleOperator}
	ben := WorkerRef{ID: uuid.New(), Name: "Ben Cole", Role: RoleLaborer}
	cal := WorkerRef{ID: uuid.New(), Name: "Cal Diaz", Role: RoleMason}

	monday := date("2024-01-01")
	entries := []HoursEntry{
		{WorkerID: ana.ID, WorkDate: date("2024-01-01"), Status: HoursWorked, Hours: 8},
		{WorkerID: ana.ID, WorkDate: date("2024-01-02"), Status: HoursWorked, Hours: 9.5},
		{WorkerID: ana.ID, WorkDate: date("2024-01-03"), Status: HoursOff, Hours: 0},
		{WorkerID: ben.ID, WorkDate: date("2024-01-01"), Status: HoursWorked, Hours: 6},
		{WorkerID: ben.ID, WorkDate: date("2024-01-04"), Status: HoursTransferred, Hours: 4},
		{WorkerID: ben.ID, WorkDate: date("2024-01-08"), Status: HoursWorked, Hours: 8}, // next week
		{WorkerID: uuid.New(), WorkDate: date("2024-01-02"), Status: HoursWorked, Hours: 8},
	}
	holidays := []HolidayRate{{
		Date:     date("2024-01-01"),
		Name:     "New Year",
		PayRates: map[string]float64{"operator": 2.0},
	}}

	summary := AggregateWeek(monday, []WorkerRef{cal, ben, ana}, entries, holidays)

	assert.Equal(t, "2024-01-01", summary.WeekStart)
	assert.Equal(t, "2024-01-07", summary.WeekEnd)
	require.Len(t, summary.Rows, 3)
	assert.Equal(t, "Ana Ruiz", summary.Rows[0].WorkerName)
	assert.Equal(t, "Ben Cole", summary.Rows[1].WorkerName)
	assert.Equal(t, "Cal Diaz", summary.Rows[2].WorkerName)

	a := summary.Rows[0]
	assert.Equal(t, 17.5, a.TotalHours)
	assert.Equal(t, 2, a.WorkedDays)
	assert.Equal(t, 1, a.OffDays)
	assert.Equal(t, 8.0, a.HolidayHours)
	assert.Equal(t, 25.5, a.WeightedHours, "holiday hours at 2x")
	assert.Equal(t, "New Year", a.Days[0].Holiday)
	assert.True(t, a.Days[2].Recorded)
	assert.Equal(t, HoursOff, a.Days[2].Status)
	assert.False(t, a.Days[6].Recorded)

	b := summary.Rows[1]
	assert.Equal(t, 10.0, b.TotalHours)
	assert.Equal(t, 1, b.TransferredDays)
	assert.Equal(t, 10.0, b.WeightedHours, "laborer has no holiday multiplier")

	c := summary.Rows[2]
	assert.Zero(t, c.TotalHours)
	assert.Equal(t, "2024-01-07", c.Days[6].Date)

	assert.Equal(t, 27.5, summary.TotalHours)
	assert.Equal(t, 35.5, summary.WeightedHours)
}

func TestHolidayRate_Multiplier(t *testing.T) {
	h := HolidayRate{PayRates: map[string]float64{"mason": 1.5, "default": 1.25, "operator": 0}}
	assert.Equal(t, 1.5, h.Multiplier(RoleMason))
	assert.Equal(t, 1.25, h.Multiplier(RoleLaborer))
	assert.Equal(t, 1.25, h.Multiplier(RoleOperator), "non-positive rates are ignored")
	assert.Equal(t, 1.0, HolidayRate{}.Multiplier(RoleMason))
}
