package service

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
	"github.com/crewboard/crewboard-backend/pkg/i18n"
)

func sampleReport() *WeeklyReport {
	workers := []domain.WorkerRef{
		{ID: uuid.New(), Name: "Ana Ruiz", Role: domain.RoleOperator},
		{ID: uuid.New(), Name: "Ben Ortiz", Role: domain.RoleLaborer},
	}
	monday := domain.MustDate("2024-01-01").Time
	entries := []domain.HoursEntry{
		{WorkerID: workers[0].ID, WorkDate: monday, Status: domain.HoursWorked, Hours: 8},
		{WorkerID: workers[0].ID, WorkDate: monday.AddDate(0, 0, 1), Status: domain.HoursWorked, Hours: 9.5},
		{WorkerID: workers[1].ID, WorkDate: monday, Status: domain.HoursOff},
	}
	holidays := []domain.HolidayRate{{Date: monday, Name: "New Year", PayRates: map[string]float64{"default": 2}}}
	return &WeeklyReport{
		JobSiteID:     uuid.New(),
		JobSiteName:   "North Tower",
		WeeklySummary: domain.AggregateWeek(monday, workers, entries, holidays),
	}
}

func TestWeeklyCSV(t *testing.T) {
	body, err := WeeklyCSV(i18n.NewLocalizer("en"), sampleReport())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, []string{"Worker", "Trade", "Mon 01/01", "Tue 01/02", "Wed 01/03", "Thu 01/04", "Fri 01/05", "Sat 01/06", "Sun 01/07", "Total", "Weighted"}, records[0])
	assert.Equal(t, []string{"Ana Ruiz", "operator", "8", "9.5", "", "", "", "", "", "17.5", "25.5"}, records[1])
	assert.Equal(t, "Off", records[2][2])
	assert.Equal(t, "Total", records[3][0])
	assert.Equal(t, "17.5", records[3][9])
	assert.Equal(t, "25.5", records[3][10])
}

func TestWeeklyCSV_Spanish(t *testing.T) {
	body, err := WeeklyCSV(i18n.NewLocalizer("es"), sampleReport())
	require.NoError(t, err)
	assert.NotContains(t, string(body), "Worker,")
}

func TestWeeklyXLSX(t *testing.T) {
	body, err := WeeklyXLSX(i18n.NewLocalizer("en"), sampleReport())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Hours"}, f.GetSheetList())
	title, err := f.GetCellValue("Hours", "A1")
	require.NoError(t, err)
	assert.Contains(t, title, "North Tower")

	name, err := f.GetCellValue("Hours", "A5")
	require.NoError(t, err)
	assert.Equal(t, "Ana Ruiz", name)
	tue, err := f.GetCellValue("Hours", "D5")
	require.NoError(t, err)
	assert.Equal(t, "9.5", tue)
	weighted, err := f.GetCellValue("Hours", "K7")
	require.NoError(t, err)
	assert.Equal(t, "25.5", weighted)
}

func TestWeeklyPDF(t *testing.T) {
	body, err := WeeklyPDF(i18n.NewLocalizer("es"), sampleReport())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))
}

func TestSchedulePDF(t *testing.T) {
	e := newEnv(t)
	task := e.task("2024-01-01", "2024-01-19", domain.Requirements{Laborers: 1})
	w := e.worker(&e.site, domain.RoleLaborer, "Ana", "Ruiz")
	assign(e, task, w, "2024-01-02")

	cal := BuildCalendar(CalendarQuery{
		JobSiteID: e.site,
		From:      domain.MustDate("2024-01-01"),
		To:        domain.MustDate("2024-01-31"),
	}, []*repository.Task{task}, e.assignments.items, nil)
	cal.JobSiteName = "Obra Señorial"

	body, err := SchedulePDF(i18n.NewLocalizer("en"), cal)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))
}

func TestExportService_WeeklyHours(t *testing.T) {
	e := newEnv(t)
	w := e.worker(&e.site, domain.RoleOperator, "Ana", "Ruiz")
	h := &repository.DailyHours{ID: uuid.New(), JobSiteID: e.site, WorkerID: w.ID, WorkDate: domain.MustDate("2024-01-02"), Status: domain.HoursWorked, Hours: 8}
	e.hours.items[h.ID] = h
	hours := newHoursService(e)
	svc := NewExportService(hours, newCalendarService(e))
	ctx := e.as("worker", "worker")

	file, err := svc.WeeklyHours(ctx, &e.site, domain.MustDate("2024-01-03"), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "hours-2024-01-01.csv", file.Name)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	assert.Contains(t, string(file.Body), "Ana Ruiz")

	_, err = svc.WeeklyHours(ctx, &e.site, domain.MustDate("2024-01-03"), "docx")
	requireStatus(t, err, http.StatusBadRequest)

	pdf, err := svc.SchedulePDF(ctx, CalendarQuery{JobSiteID: e.site, From: domain.MustDate("2024-01-01"), To: domain.MustDate("2024-01-07")})
	require.NoError(t, err)
	assert.Equal(t, "schedule-2024-01-01-2024-01-07.pdf", pdf.Name)
}
