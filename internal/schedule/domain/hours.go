package domain

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// MaxDailyHours bounds a single worker-day
const MaxDailyHours = 24.0

// ValidateHours checks a worker-day entry. currentSite is the site the
// entry is recorded on; target is the transfer destination, if any.
func ValidateHours(status HoursStatus, hours float64, currentSite uuid.UUID, target *uuid.UUID) map[string]string {
	problems := map[string]string{}
	if !status.Valid() {
		problems["status"] = "must be one of worked, off, transferred"
		return problems
	}
	if math.IsNaN(hours) || hours < 0 || hours > MaxDailyHours {
		problems["hours"] = fmt.Sprintf("must be between 0 and %g", MaxDailyHours)
	}

	switch status {
	case HoursWorked:
		if hours <= 0 {
			problems["hours"] = "must be greater than 0 for a worked day"
		}
	case HoursOff:
		if hours != 0 {
			problems["hours"] = "must be 0 for a day off"
		}
	case HoursTransferred:
		switch {
		case target == nil || *target == uuid.Nil:
			problems["transferred_to_job_site_id"] = "is required for a transfer"
		case *target == currentSite:
			problems["transferred_to_job_site_id"] = "must differ from the current job site"
		}
	}
	if status != HoursTransferred && target != nil {
		problems["transferred_to_job_site_id"] = "is only allowed for a transfer"
	}

	if len(problems) == 0 {
		return nil
	}
	return problems
}

// HoursEntry is one recorded worker-day
type HoursEntry struct {
	WorkerID uuid.UUID
	WorkDate time.Time
	Status   HoursStatus
	Hours    float64
}

// WorkerRef identifies a row of the weekly report
type WorkerRef struct {
	ID   uuid.UUID
	Name string
	Role WorkerRole
}

// HolidayRate is a holiday with per-trade pay multipliers
type HolidayRate struct {
	Date     time.Time
	Name     string
	PayRates map[string]float64
}

// Multiplier is the pay multiplier for role, 1.0 when unset
func (h HolidayRate) Multiplier(role WorkerRole) float64 {
	if m, ok := h.PayRates[string(role)]; ok && m > 0 {
		return m
	}
	if m, ok := h.PayRates["default"]; ok && m > 0 {
		return m
	}
	return 1.0
}

// DayCell is one day of a worker's week
type DayCell struct {
	Date     string      `json:"date"`
	Status   HoursStatus `json:"status,omitempty"`
	Hours    float64     `json:"hours"`
	Holiday  string      `json:"holiday,omitempty"`
	Recorded bool        `json:"recorded"`
}

// WeeklyRow is one worker's week
type WeeklyRow struct {
	WorkerID        uuid.UUID  `json:"worker_id"`
	WorkerName      string     `json:"worker_name"`
	Role            WorkerRole `json:"role"`
	Days            [7]DayCell `json:"days"`
	TotalHours      float64    `json:"total_hours"`
	WorkedDays      int        `json:"worked_days"`
	OffDays         int        `json:"off_days"`
	TransferredDays int        `json:"transferred_days"`
	HolidayHours    float64    `json:"holiday_hours"`
	WeightedHours   float64    `json:"weighted_hours"`
}

// WeeklySummary is the weekly hours report
type WeeklySummary struct {
	WeekStart     string      `json:"week_start"`
	WeekEnd       string      `json:"week_end"`
	Rows          []WeeklyRow `json:"rows"`
	TotalHours    float64     `json:"total_hours"`
	WeightedHours float64     `json:"weighted_hours"`
}

// AggregateWeek builds the weekly report for the seven days starting at
// weekStart. Every worker gets a row even without entries; entries for
// unknown workers or outside the week are ignored. Rows are sorted by name.
func AggregateWeek(weekStart time.Time, workers []WorkerRef, entries []HoursEntry, holidays []HolidayRate) WeeklySummary {
	weekStart = DateOnly(weekStart)
	weekEnd := weekStart.AddDate(0, 0, 6)

	byDate := make(map[string]HolidayRate, len(holidays))
	for _, h := range holidays {
		byDate[FormatDate(h.Date)] = h
	}

	rows := make([]WeeklyRow, len(workers))
	index := make(map[uuid.UUID]int, len(workers))
	for i, w := range workers {
		rows[i] = WeeklyRow{WorkerID: w.ID, WorkerName: w.Name, Role: w.Role}
		for d := 0; d < 7; d++ {
			date := FormatDate(weekStart.AddDate(0, 0, d))
			rows[i].Days[d] = DayCell{Date: date, Holiday: byDate[date].Name}
		}
		index[w.ID] = i
	}

	for _, e := range entries {
		i, ok := index[e.WorkerID]
		if !ok {
			continue
		}
		date := DateOnly(e.WorkDate)
		if date.Before(weekStart) || date.After(weekEnd) {
			continue
		}
		row := &rows[i]
		row.Days[DayCount(weekStart, date)-1] = DayCell{
			Date:     FormatDate(date),
			Status:   e.Status,
			Hours:    e.Hours,
			Holiday:  byDate[FormatDate(date)].Name,
			Recorded: true,
		}

		switch e.Status {
		case HoursWorked:
			row.WorkedDays++
		case HoursOff:
			row.OffDays++
		case HoursTransferred:
			row.TransferredDays++
		}

		row.TotalHours += e.Hours
		multiplier := 1.0
		if h, ok := byDate[FormatDate(date)]; ok {
			row.HolidayHours += e.Hours
			multiplier = h.Multiplier(row.Role)
		}
		row.WeightedHours += e.Hours * multiplier
	}

	summary := WeeklySummary{
		WeekStart: FormatDate(weekStart),
		WeekEnd:   FormatDate(weekEnd),
		Rows:      rows,
	}
	for i := range rows {
		rows[i].TotalHours = round2(rows[i].TotalHours)
		rows[i].HolidayHours = round2(rows[i].HolidayHours)
		rows[i].WeightedHours = round2(rows[i].WeightedHours)
		summary.TotalHours += rows[i].TotalHours
		summary.WeightedHours += rows[i].WeightedHours
	}
	summary.TotalHours = round2(summary.TotalHours)
	summary.WeightedHours = round2(summary.WeightedHours)

	sort.SliceStable(rows, func(a, b int) bool { return rows[a].WorkerName < rows[b].WorkerName })
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
