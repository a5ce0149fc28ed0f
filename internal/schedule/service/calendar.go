package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
	"github.com/crewboard/crewboard-backend/pkg/config"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/permissions"
)

// CalendarService builds calendar and Gantt data for a job site
type CalendarService struct {
	guard
	tx          TxRunner
	tasks       TaskStore
	assignments AssignmentStore
	holidays    HolidayStore
	cfg         config.ScheduleConfig
}

// NewCalendarService creates a new calendar service
func NewCalendarService(
	tx TxRunner,
	tasks TaskStore,
	assignments AssignmentStore,
	holidays HolidayStore,
	sites SiteDirectory,
	cfg config.ScheduleConfig,
) *CalendarService {
	return &CalendarService{
		guard:       guard{sites: sites},
		tx:          tx,
		tasks:       tasks,
		assignments: assignments,
		holidays:    holidays,
		cfg:         cfg,
	}
}

// CalendarQuery selects the site, window and weekend toggles
type CalendarQuery struct {
	JobSiteID uuid.UUID
	From      domain.Date
	To        domain.Date
	View      domain.ViewOptions
}

// CalendarDay is one column of the calendar
type CalendarDay struct {
	Date    domain.Date `json:"date"`
	Weekday string      `json:"weekday"`
	Weekend bool        `json:"weekend"`
	Holiday string      `json:"holiday,omitempty"`
	Visible bool        `json:"visible"`
}

// AssignedWorker is a worker booked on a task day
type AssignedWorker struct {
	AssignmentID uuid.UUID         `json:"assignment_id"`
	WorkerID     uuid.UUID         `json:"worker_id"`
	Name         string            `json:"name"`
	Role         domain.WorkerRole `json:"role"`
}

// TaskDay is a task's staffing on one working day
type TaskDay struct {
	Date     domain.Date           `json:"date"`
	Assigned domain.RoleCounts     `json:"assigned"`
	Status   domain.StaffingStatus `json:"status"`
	Workers  []AssignedWorker      `json:"workers"`
}

// TaskSchedule is one Gantt row
type TaskSchedule struct {
	Task     *repository.Task      `json:"task"`
	Required domain.Requirements   `json:"required"`
	Status   domain.StaffingStatus `json:"status"`
	Days     []TaskDay             `json:"days"`
}

// Calendar is the calendar/Gantt payload for a window
type Calendar struct {
	JobSiteID    uuid.UUID             `json:"job_site_id"`
	JobSiteName  string                `json:"job_site_name"`
	From         domain.Date           `json:"from"`
	To           domain.Date           `json:"to"`
	ShowSaturday bool                  `json:"show_saturday"`
	ShowSunday   bool                  `json:"show_sunday"`
	Days         []CalendarDay         `json:"days"`
	Holidays     []*repository.Holiday `json:"holidays"`
	Tasks        []TaskSchedule        `json:"tasks"`
}

// Calendar loads the tasks overlapping the window with their per-day
// staffing, all read in one caller-bound transaction
func (s *CalendarService) Calendar(ctx context.Context, q CalendarQuery) (*Calendar, error) {
	if _, err := s.require(ctx, &q.JobSiteID, permissions.TasksRead); err != nil {
		return nil, err
	}
	if q.From.IsZero() || q.To.IsZero() {
		return nil, errors.Validation(map[string]string{"from": "is required", "to": "is required"})
	}
	if q.To.Before(q.From.Time) {
		return nil, errors.Validation(map[string]string{"to": "must not be before from"})
	}
	if limit := s.cfg.MaxAssignmentDays; limit > 0 && domain.DayCount(q.From.Time, q.To.Time) > limit {
		return nil, errors.BadRequest(fmt.Sprintf("the window is longer than %d days", limit))
	}

	var (
		name        string
		tasks       []*repository.Task
		assignments []*repository.Assignment
		holidays    []*repository.Holiday
	)
	err := s.tx.WithActor(ctx, func(ctx context.Context) error {
		var err error
		if name, err = s.sites.JobSiteName(ctx, q.JobSiteID); err != nil {
			return err
		}
		if tasks, err = s.tasks.List(ctx, repository.TaskListParams{JobSiteID: &q.JobSiteID, From: &q.From, To: &q.To}); err != nil {
			return err
		}
		if assignments, err = s.assignments.List(ctx, repository.AssignmentListParams{JobSiteID: &q.JobSiteID, From: &q.From, To: &q.To}); err != nil {
			return err
		}
		holidays, err = s.holidays.List(ctx, q.From, q.To)
		return err
	})
	if err != nil {
		return nil, err
	}

	cal := BuildCalendar(q, tasks, assignments, holidays)
	cal.JobSiteName = name
	return cal, nil
}

// BuildCalendar computes the calendar from loaded rows
func BuildCalendar(q CalendarQuery, tasks []*repository.Task, assignments []*repository.Assignment, holidays []*repository.Holiday) *Calendar {
	set := make(domain.HolidaySet, len(holidays))
	names := make(map[string]string, len(holidays))
	for _, h := range holidays {
		set[h.HolidayDate.String()] = struct{}{}
		names[h.HolidayDate.String()] = h.Name
	}

	cal := &Calendar{
		JobSiteID:    q.JobSiteID,
		From:         q.From,
		To:           q.To,
		ShowSaturday: q.View.ShowSaturday,
		ShowSunday:   q.View.ShowSunday,
		Days:         []CalendarDay{},
		Holidays:     holidays,
		Tasks:        make([]TaskSchedule, 0, len(tasks)),
	}
	if cal.Holidays == nil {
		cal.Holidays = []*repository.Holiday{}
	}

	for _, d := range domain.DaysInRange(q.From.Time, q.To.Time) {
		wd := d.Weekday()
		key := domain.FormatDate(d)
		cal.Days = append(cal.Days, CalendarDay{
			Date:    domain.NewDate(d),
			Weekday: wd.String(),
			Weekend: wd == time.Saturday || wd == time.Sunday,
			Holiday: names[key],
			Visible: (wd != time.Saturday || q.View.ShowSaturday) && (wd != time.Sunday || q.View.ShowSunday),
		})
	}

	// task id -> date -> rows
	byTaskDay := make(map[uuid.UUID]map[string][]*repository.Assignment)
	for _, a := range assignments {
		days, ok := byTaskDay[a.TaskID]
		if !ok {
			days = make(map[string][]*repository.Assignment)
			byTaskDay[a.TaskID] = days
		}
		key := a.AssignmentDate.String()
		days[key] = append(days[key], a)
	}

	for _, t := range tasks {
		row := TaskSchedule{Task: t, Required: t.Requirements(), Days: []TaskDay{}}
		start, end, ok := domain.Intersect(t.StartDate.Time, t.EndDate.Time, q.From.Time, q.To.Time)
		var statuses []domain.StaffingStatus
		if ok {
			for _, d := range domain.WorkingDays(start, end, t.DayOptions(), q.View, set) {
				day := TaskDay{Date: domain.NewDate(d), Workers: []AssignedWorker{}}
				for _, a := range byTaskDay[t.ID][domain.FormatDate(d)] {
					day.Assigned.Add(a.WorkerRole, 1)
					day.Workers = append(day.Workers, AssignedWorker{
						AssignmentID: a.ID,
						WorkerID:     a.WorkerID,
						Name:         a.WorkerFirstName + " " + a.WorkerLastName,
						Role:         a.WorkerRole,
					})
				}
				sort.Slice(day.Workers, func(i, j int) bool { return day.Workers[i].Name < day.Workers[j].Name })
				day.Status = domain.Staffing(row.Required, day.Assigned)
				statuses = append(statuses, day.Status)
				row.Days = append(row.Days, day)
			}
		}
		row.Status = domain.RangeStatus(row.Required, statuses)
		cal.Tasks = append(cal.Tasks, row)
	}

	sort.SliceStable(cal.Tasks, func(i, j int) bool {
		a, b := cal.Tasks[i].Task, cal.Tasks[j].Task
		if !a.StartDate.Equal(b.StartDate.Time) {
			return a.StartDate.Before(b.StartDate.Time)
		}
		return a.Name < b.Name
	})
	return cal
}
