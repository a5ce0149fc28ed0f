package service

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
)

func newCalendarService(e *env) *CalendarService {
	return NewCalendarService(e.tx, e.tasks, e.assignments, e.holidays, e.sites, e.cfg)
}

func assign(e *env, task *repository.Task, w *repository.Worker, day string) {
	e.assignments.items = append(e.assignments.items, &repository.Assignment{
		ID:              uuid.New(),
		OrganizationID:  e.org,
		JobSiteID:       task.JobSiteID,
		TaskID:          task.ID,
		WorkerID:        w.ID,
		AssignmentDate:  domain.MustDate(day),
		WorkerFirstName: w.FirstName,
		WorkerLastName:  w.LastName,
		WorkerRole:      w.Role,
	})
}

func TestBuildCalendar(t *testing.T) {
	e := newEnv(t)
	task := e.task("2024-01-04", "2024-01-09", domain.Requirements{Laborers: 2, Masons: 1})
	ana := e.worker(&e.site, domain.RoleLaborer, "Ana", "Ruiz")
	ben := e.worker(&e.site, domain.RoleLaborer, "Ben", "Ortiz")
	cruz := e.worker(&e.site, domain.RoleMason, "Cruz", "Diaz")

	// Thu: full crew; Fri: one laborer, no mason; Mon: laborers, no mason
	// Tue is outside the window
	for _, w := range []*repository.Worker{ana, ben, cruz} {
		assign(e, task, w, "2024-01-04")
	}
	assign(e, task, ben, "2024-01-05")
	assign(e, task, cruz, "2024-01-05")
	assign(e, task, ana, "2024-01-08")
	assign(e, task, ben, "2024-01-08")

	holidays := []*repository.Holiday{{HolidayDate: domain.MustDate("2024-01-05"), Name: "Founders Day"}}
	q := CalendarQuery{
		JobSiteID: e.site,
		From:      domain.MustDate("2024-01-01"),
		To:        domain.MustDate("2024-01-08"),
	}

	t.Run("holiday excluded", func(t *testing.T) {
		cal := BuildCalendar(q, []*repository.Task{task}, e.assignments.items, holidays)
		require.Len(t, cal.Days, 8)
		assert.Equal(t, "Founders Day", cal.Days[4].Holiday)
		assert.True(t, cal.Days[5].Weekend)
		assert.False(t, cal.Days[5].Visible)

		require.Len(t, cal.Tasks, 1)
		row := cal.Tasks[0]
		require.Len(t, row.Days, 2)
		assert.Equal(t, "2024-01-04", row.Days[0].Date.String())
		assert.Equal(t, domain.StaffingFull, row.Days[0].Status)
		assert.Equal(t, domain.RoleCounts{Laborers: 2, Masons: 1}, row.Days[0].Assigned)
		assert.Equal(t, []string{"Ana Ruiz", "Ben Ortiz", "Cruz Diaz"}, workerNames(row.Days[0].Workers))

		assert.Equal(t, "2024-01-08", row.Days[1].Date.String())
		assert.Equal(t, domain.StaffingEmpty, row.Days[1].Status)
		assert.Equal(t, domain.StaffingPartial, row.Status)
	})

	t.Run("holiday included by the task", func(t *testing.T) {
		withHolidays := *task
		withHolidays.IncludeHolidays = true
		cal := BuildCalendar(q, []*repository.Task{&withHolidays}, e.assignments.items, holidays)
		row := cal.Tasks[0]
		require.Len(t, row.Days, 3)
		assert.Equal(t, "2024-01-05", row.Days[1].Date.String())
		assert.Equal(t, domain.StaffingPartial, row.Days[1].Status)
	})

	t.Run("view shows the weekend", func(t *testing.T) {
		weekend := q
		weekend.View = domain.ViewOptions{ShowSaturday: true, ShowSunday: true}
		cal := BuildCalendar(weekend, []*repository.Task{task}, e.assignments.items, nil)
		row := cal.Tasks[0]
		assert.Len(t, row.Days, 5)
		assert.Equal(t, domain.StaffingEmpty, row.Days[2].Status)
		assert.True(t, cal.Days[5].Visible)
		assert.NotNil(t, cal.Holidays)
	})
}

func TestBuildCalendar_NoWorkingDays(t *testing.T) {
	e := newEnv(t)
	staffed := e.task("2024-01-06", "2024-01-07", domain.Requirements{Operators: 1})
	unstaffed := e.task("2024-01-06", "2024-01-07", domain.Requirements{})
	unstaffed.Name = "Inspection"

	cal := BuildCalendar(CalendarQuery{
		JobSiteID: e.site,
		From:      domain.MustDate("2024-01-01"),
		To:        domain.MustDate("2024-01-07"),
	}, []*repository.Task{unstaffed, staffed}, nil, nil)

	require.Len(t, cal.Tasks, 2)
	assert.Equal(t, "Inspection", cal.Tasks[0].Task.Name)
	assert.Equal(t, domain.StaffingFull, cal.Tasks[0].Status)
	assert.Equal(t, domain.StaffingEmpty, cal.Tasks[1].Status)
	assert.Empty(t, cal.Tasks[1].Days)
}

func TestCalendarService_Calendar(t *testing.T) {
	e := newEnv(t)
	task := e.task("2024-01-01", "2024-01-05", domain.Requirements{Laborers: 1})
	w := e.worker(&e.site, domain.RoleLaborer, "Ana", "Ruiz")
	assign(e, task, w, "2024-01-02")
	svc := newCalendarService(e)

	cal, err := svc.Calendar(e.as("worker", "worker"), CalendarQuery{
		JobSiteID: e.site,
		From:      domain.MustDate("2024-01-01"),
		To:        domain.MustDate("2024-01-07"),
	})
	require.NoError(t, err)
	assert.Equal(t, "North Tower", cal.JobSiteName)
	require.Len(t, cal.Tasks, 1)
	assert.Equal(t, domain.StaffingPartial, cal.Tasks[0].Status)
	assert.Equal(t, 1, e.tx.calls)

	_, err = svc.Calendar(e.as("foreman", ""), CalendarQuery{
		JobSiteID: e.otherSite,
		From:      domain.MustDate("2024-01-01"),
		To:        domain.MustDate("2024-01-07"),
	})
	requireStatus(t, err, http.StatusForbidden)

	_, err = svc.Calendar(e.as("admin", ""), CalendarQuery{
		JobSiteID: e.site,
		From:      domain.MustDate("2024-01-07"),
		To:        domain.MustDate("2024-01-01"),
	})
	requireStatus(t, err, http.StatusBadRequest)
}

func workerNames(ws []AssignedWorker) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Name
	}
	return out
}
