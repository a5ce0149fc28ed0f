package service

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/internal/schedule/events"
	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
	"github.com/crewboard/crewboard-backend/pkg/config"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/logger"
	"github.com/crewboard/crewboard-backend/pkg/messaging"
	"github.com/crewboard/crewboard-backend/pkg/permissions"
)

// HoursService records and reports daily hours
type HoursService struct {
	guard
	tx          TxRunner
	hours       HoursStore
	workers     WorkerStore
	tasks       TaskStore
	assignments AssignmentStore
	holidays    HolidayStore
	cfg         config.ScheduleConfig
	publisher   *events.SchedulePublisher
	logger      *logger.Logger
}

// NewHoursService creates a new hours service
func NewHoursService(
	tx TxRunner,
	hours HoursStore,
	workers WorkerStore,
	tasks TaskStore,
	assignments AssignmentStore,
	holidays HolidayStore,
	sites SiteDirectory,
	cfg config.ScheduleConfig,
	publisher *events.SchedulePublisher,
	log *logger.Logger,
) *HoursService {
	return &HoursService{
		guard:       guard{sites: sites},
		tx:          tx,
		hours:       hours,
		workers:     workers,
		tasks:       tasks,
		assignments: assignments,
		holidays:    holidays,
		cfg:         cfg,
		publisher:   publisher,
		logger:      log,
	}
}

// HoursRequest records one worker-day. JobSiteID defaults to the
// selected job site.
type HoursRequest struct {
	JobSiteID              *uuid.UUID `json:"job_site_id"`
	WorkerID               uuid.UUID  `json:"worker_id" validate:"required"`
	WorkDate               string     `json:"work_date" validate:"required,date"`
	Status                 string     `json:"status" validate:"required,oneof=worked off transferred"`
	Hours                  float64    `json:"hours" validate:"gte=0,lte=24"`
	TaskID                 *uuid.UUID `json:"task_id"`
	TransferredToJobSiteID *uuid.UUID `json:"transferred_to_job_site_id"`
	Notes                  string     `json:"notes" validate:"max=1000"`
}

// WeeklyReport is the weekly hours summary of one job site
type WeeklyReport struct {
	JobSiteID   uuid.UUID `json:"job_site_id"`
	JobSiteName string    `json:"job_site_name"`
	domain.WeeklySummary
}

// PrefillRow is a suggested entry for one worker on one day
type PrefillRow struct {
	WorkerID   uuid.UUID              `json:"worker_id"`
	WorkerName string                 `json:"worker_name"`
	Role       domain.WorkerRole      `json:"role"`
	Assigned   bool                   `json:"assigned"`
	Status     domain.HoursStatus     `json:"status,omitempty"`
	Hours      float64                `json:"hours"`
	TaskID     *uuid.UUID             `json:"task_id,omitempty"`
	Existing   *repository.DailyHours `json:"existing,omitempty"`
}

// Record validates and upserts a worker-day
func (s *HoursService) Record(ctx context.Context, req *HoursRequest) (*repository.DailyHours, error) {
	site, err := s.siteOf(ctx, req.JobSiteID)
	if err != nil {
		return nil, err
	}
	a, err := s.require(ctx, &site, permissions.HoursWrite)
	if err != nil {
		return nil, err
	}

	day, err := domain.ParseDate(req.WorkDate)
	if err != nil {
		return nil, errors.Validation(map[string]string{"work_date": err.Error()})
	}
	status := domain.HoursStatus(req.Status)
	if problems := domain.ValidateHours(status, req.Hours, site, req.TransferredToJobSiteID); problems != nil {
		return nil, errors.Validation(problems)
	}

	worker, err := s.workers.GetByID(ctx, req.WorkerID)
	if err != nil {
		return nil, err
	}
	if !workerSiteOK(worker, site) {
		return nil, errors.BadRequest("worker belongs to another job site")
	}
	if req.TaskID != nil {
		task, err := s.tasks.GetByID(ctx, *req.TaskID)
		if err != nil {
			return nil, err
		}
		if task.JobSiteID != site {
			return nil, errors.BadRequest("task belongs to another job site")
		}
	}
	if req.TransferredToJobSiteID != nil {
		if _, err := s.sites.JobSiteName(ctx, *req.TransferredToJobSiteID); err != nil {
			return nil, err
		}
	}

	entry := &repository.DailyHours{
		OrganizationID:         worker.OrganizationID,
		JobSiteID:              site,
		WorkerID:               worker.ID,
		WorkDate:               domain.NewDate(day),
		Status:                 status,
		Hours:                  req.Hours,
		TaskID:                 req.TaskID,
		TransferredToJobSiteID: req.TransferredToJobSiteID,
		Notes:                  strings.TrimSpace(req.Notes),
		RecordedBy:             a.IDOrNil(),
	}
	if err := s.hours.Upsert(ctx, entry); err != nil {
		return nil, err
	}

	s.publisher.HoursChanged(ctx, messaging.EventDailyHoursRecorded, entry)

	s.logger.Debug().
		Str("worker_id", worker.ID.String()).
		Str("work_date", entry.WorkDate.String()).
		Str("status", string(status)).
		Float64("hours", entry.Hours).
		Msg("daily hours recorded")

	return entry, nil
}

// Delete removes a worker-day entry
func (s *HoursService) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.hours.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.require(ctx, &existing.JobSiteID, permissions.HoursWrite); err != nil {
		return err
	}
	removed, err := s.hours.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.publisher.HoursChanged(ctx, messaging.EventDailyHoursDeleted, removed)
	return nil
}

// List lists a site's entries within [from, to]
func (s *HoursService) List(ctx context.Context, siteID *uuid.UUID, from, to domain.Date) ([]*repository.DailyHours, error) {
	site, err := s.siteOf(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, &site, permissions.HoursRead); err != nil {
		return nil, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from.Time) {
		return nil, errors.Validation(map[string]string{"to": "must not be before from"})
	}
	params := repository.HoursListParams{JobSiteID: &site}
	if !from.IsZero() {
		params.From = &from
	}
	if !to.IsZero() {
		params.To = &to
	}
	return s.hours.List(ctx, params)
}

// Weekly builds the weekly summary for the week containing weekOf. Every
// active site worker gets a row, plus anyone with hours that week.
func (s *HoursService) Weekly(ctx context.Context, siteID *uuid.UUID, weekOf domain.Date) (*WeeklyReport, error) {
	site, err := s.siteOf(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, &site, permissions.HoursRead); err != nil {
		return nil, err
	}

	start := domain.NewDate(domain.WeekStart(weekOf.Time))
	end := domain.NewDate(start.AddDate(0, 0, 6))

	var (
		name     string
		workers  []*repository.Worker
		entries  []*repository.DailyHours
		holidays []*repository.Holiday
	)
	err = s.tx.WithActor(ctx, func(ctx context.Context) error {
		var err error
		if name, err = s.sites.JobSiteName(ctx, site); err != nil {
			return err
		}
		if workers, err = s.workers.ListForSite(ctx, site); err != nil {
			return err
		}
		if entries, err = s.hours.List(ctx, repository.HoursListParams{JobSiteID: &site, From: &start, To: &end}); err != nil {
			return err
		}
		known := make(map[uuid.UUID]bool, len(workers))
		for _, w := range workers {
			known[w.ID] = true
		}
		var extra []uuid.UUID
		for _, e := range entries {
			if !known[e.WorkerID] {
				known[e.WorkerID] = true
				extra = append(extra, e.WorkerID)
			}
		}
		if len(extra) > 0 {
			more, err := s.workers.GetMany(ctx, extra)
			if err != nil {
				return err
			}
			workers = append(workers, more...)
		}
		holidays, err = s.holidays.List(ctx, start, end)
		return err
	})
	if err != nil {
		return nil, err
	}

	refs := make([]domain.WorkerRef, len(workers))
	for i, w := range workers {
		refs[i] = domain.WorkerRef{ID: w.ID, Name: w.FullName(), Role: w.Role}
	}
	hoursEntries := make([]domain.HoursEntry, len(entries))
	for i, e := range entries {
		hoursEntries[i] = domain.HoursEntry{WorkerID: e.WorkerID, WorkDate: e.WorkDate.Time, Status: e.Status, Hours: e.Hours}
	}
	rates := make([]domain.HolidayRate, len(holidays))
	for i, h := range holidays {
		rates[i] = h.Rate()
	}

	return &WeeklyReport{
		JobSiteID:     site,
		JobSiteName:   name,
		WeeklySummary: domain.AggregateWeek(start.Time, refs, hoursEntries, rates),
	}, nil
}

// Prefill proposes entries for a day: workers assigned to a task that day
// are suggested as worked with the default shift, the rest stay blank.
// Recorded entries are returned alongside.
func (s *HoursService) Prefill(ctx context.Context, siteID *uuid.UUID, day domain.Date) ([]PrefillRow, error) {
	site, err := s.siteOf(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, &site, permissions.HoursRead); err != nil {
		return nil, err
	}

	var (
		workers     []*repository.Worker
		assignments []*repository.Assignment
		entries     []*repository.DailyHours
	)
	err = s.tx.WithActor(ctx, func(ctx context.Context) error {
		var err error
		if workers, err = s.workers.ListForSite(ctx, site); err != nil {
			return err
		}
		if assignments, err = s.assignments.List(ctx, repository.AssignmentListParams{JobSiteID: &site, From: &day, To: &day}); err != nil {
			return err
		}
		entries, err = s.hours.List(ctx, repository.HoursListParams{JobSiteID: &site, From: &day, To: &day})
		return err
	})
	if err != nil {
		return nil, err
	}

	return BuildPrefill(workers, assignments, entries, s.shiftHours()), nil
}

// BuildPrefill merges workers, the day's assignments and recorded entries
func BuildPrefill(workers []*repository.Worker, assignments []*repository.Assignment, entries []*repository.DailyHours, shift float64) []PrefillRow {
	taskOf := make(map[uuid.UUID]uuid.UUID, len(assignments))
	for _, a := range assignments {
		if _, ok := taskOf[a.WorkerID]; !ok {
			taskOf[a.WorkerID] = a.TaskID
		}
	}
	recorded := make(map[uuid.UUID]*repository.DailyHours, len(entries))
	for _, e := range entries {
		recorded[e.WorkerID] = e
	}

	rows := make([]PrefillRow, 0, len(workers))
	for _, w := range workers {
		row := PrefillRow{
			WorkerID:   w.ID,
			WorkerName: w.FullName(),
			Role:       w.Role,
			Existing:   recorded[w.ID],
		}
		if taskID, ok := taskOf[w.ID]; ok {
			id := taskID
			row.Assigned = true
			row.Status = domain.HoursWorked
			row.Hours = shift
			row.TaskID = &id
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Assigned != rows[j].Assigned {
			return rows[i].Assigned
		}
		return rows[i].WorkerName < rows[j].WorkerName
	})
	return rows
}

func (s *HoursService) shiftHours() float64 {
	if s.cfg.DefaultShiftHours > 0 && s.cfg.DefaultShiftHours <= domain.MaxDailyHours {
		return s.cfg.DefaultShiftHours
	}
	return 8
}
