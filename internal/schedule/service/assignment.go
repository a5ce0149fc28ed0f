package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/internal/schedule/events"
	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
	"github.com/crewboard/crewboard-backend/pkg/config"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/logger"
	"github.com/crewboard/crewboard-backend/pkg/messaging"
	"github.com/crewboard/crewboard-backend/pkg/permissions"
	"github.com/crewboard/crewboard-backend/pkg/tenant"
)

// AssignmentService books workers onto task days
type AssignmentService struct {
	guard
	tx          TxRunner
	tasks       TaskStore
	workers     WorkerStore
	assignments AssignmentStore
	holidays    HolidayStore
	cfg         config.ScheduleConfig
	publisher   *events.SchedulePublisher
	logger      *logger.Logger
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(
	tx TxRunner,
	tasks TaskStore,
	workers WorkerStore,
	assignments AssignmentStore,
	holidays HolidayStore,
	sites SiteDirectory,
	cfg config.ScheduleConfig,
	publisher *events.SchedulePublisher,
	log *logger.Logger,
) *AssignmentService {
	return &AssignmentService{
		guard:       guard{sites: sites},
		tx:          tx,
		tasks:       tasks,
		workers:     workers,
		assignments: assignments,
		holidays:    holidays,
		cfg:         cfg,
		publisher:   publisher,
		logger:      log,
	}
}

// AssignRequest books a worker on a task. From and To default to the
// task's dates and are clipped to them.
type AssignRequest struct {
	TaskID             uuid.UUID `json:"task_id" validate:"required"`
	WorkerID           uuid.UUID `json:"worker_id" validate:"required"`
	From               string    `json:"from" validate:"omitempty,date"`
	To                 string    `json:"to" validate:"omitempty,date"`
	AllowDoubleBooking bool      `json:"allow_double_booking"`
	// ShowSaturday and ShowSunday are the calendar view flags; a shown
	// weekend day is bookable
	ShowSaturday bool `json:"show_saturday"`
	ShowSunday   bool `json:"show_sunday"`
}

// View returns the calendar view the request was made from
func (r *AssignRequest) View() domain.ViewOptions {
	return domain.ViewOptions{ShowSaturday: r.ShowSaturday, ShowSunday: r.ShowSunday}
}

// UnassignRequest removes a worker from a task over a date range
type UnassignRequest struct {
	TaskID   uuid.UUID `json:"task_id" validate:"required"`
	WorkerID uuid.UUID `json:"worker_id" validate:"required"`
	From     string    `json:"from" validate:"omitempty,date"`
	To       string    `json:"to" validate:"omitempty,date"`
}

// AssignResult lists the rows created and the working days skipped
// because the worker already had them
type AssignResult struct {
	Created []*repository.Assignment `json:"created"`
	Skipped []domain.Date            `json:"skipped"`
	// Conflicts are other-task bookings on the created days, reported
	// when double booking was allowed
	Conflicts []repository.Booking `json:"conflicts"`
}

// Assign expands the request into one assignment per working day of the
// task within the range. Days the worker is booked on another task are
// rejected with a conflict unless AllowDoubleBooking is set.
func (s *AssignmentService) Assign(ctx context.Context, req *AssignRequest) (*AssignResult, error) {
	task, err := s.tasks.GetByID(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}
	a, err := s.require(ctx, &task.JobSiteID, permissions.AssignmentsWrite)
	if err != nil {
		return nil, err
	}

	worker, err := s.workers.GetByID(ctx, req.WorkerID)
	if err != nil {
		return nil, err
	}
	if !worker.IsActive {
		return nil, errors.BadRequest("worker is not active")
	}
	if !workerSiteOK(worker, task.JobSiteID) {
		return nil, errors.BadRequest("worker belongs to another job site")
	}

	from, to, err := s.clipToTask(task, req.From, req.To)
	if err != nil {
		return nil, err
	}

	result := &AssignResult{
		Created:   []*repository.Assignment{},
		Skipped:   []domain.Date{},
		Conflicts: []repository.Booking{},
	}

	err = s.tx.WithActor(ctx, func(ctx context.Context) error {
		holidays, _, err := holidaySet(ctx, s.holidays, from, to)
		if err != nil {
			return err
		}
		days := toDates(domain.WorkingDays(from.Time, to.Time, task.DayOptions(), req.View(), holidays))
		if len(days) == 0 {
			return errors.BadRequest("the range contains no working days for this task")
		}

		booked, err := s.assignments.BookedDays(ctx, worker.ID, task.ID, from, to)
		if err != nil {
			return err
		}
		taken := make(map[string]bool, len(booked))
		for _, d := range booked {
			taken[d.String()] = true
		}
		var pending []domain.Date
		for _, d := range days {
			if taken[d.String()] {
				result.Skipped = append(result.Skipped, d)
				continue
			}
			pending = append(pending, d)
		}
		if len(pending) == 0 {
			return nil
		}

		conflicts, err := s.assignments.Bookings(ctx, worker.ID, task.ID, pending)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 && !req.AllowDoubleBooking {
			return doubleBooked(worker, conflicts)
		}
		result.Conflicts = append(result.Conflicts, conflicts...)

		created, err := s.assignments.CreateDays(ctx, repository.Assignment{
			OrganizationID: task.OrganizationID,
			JobSiteID:      task.JobSiteID,
			TaskID:         task.ID,
			WorkerID:       worker.ID,
			CreatedBy:      a.IDOrNil(),
		}, pending)
		if err != nil {
			return err
		}
		result.Created = append(result.Created, created...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if n := len(result.Created); n > 0 {
		s.publisher.AssignmentsChanged(ctx, messaging.EventAssignmentCreated, task, worker.ID,
			result.Created[0].AssignmentDate, result.Created[n-1].AssignmentDate, n)
	}

	s.logger.Info().
		Str("task_id", task.ID.String()).
		Str("worker_id", worker.ID.String()).
		Int("created", len(result.Created)).
		Int("skipped", len(result.Skipped)).
		Int("double_booked", len(result.Conflicts)).
		Msg("worker assigned")

	return result, nil
}

// Unassign deletes one assignment row
func (s *AssignmentService) Unassign(ctx context.Context, id uuid.UUID) error {
	existing, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.require(ctx, &existing.JobSiteID, permissions.AssignmentsWrite); err != nil {
		return err
	}
	removed, err := s.assignments.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.publisher.AssignmentsChanged(ctx, messaging.EventAssignmentDeleted, &repository.Task{
		ID:             removed.TaskID,
		OrganizationID: removed.OrganizationID,
		JobSiteID:      removed.JobSiteID,
	}, removed.WorkerID, removed.AssignmentDate, removed.AssignmentDate, 1)
	return nil
}

// UnassignRange deletes a worker's assignments on a task within the range
// and returns how many were removed
func (s *AssignmentService) UnassignRange(ctx context.Context, req *UnassignRequest) (int64, error) {
	task, err := s.tasks.GetByID(ctx, req.TaskID)
	if err != nil {
		return 0, err
	}
	if _, err := s.require(ctx, &task.JobSiteID, permissions.AssignmentsWrite); err != nil {
		return 0, err
	}
	from, to, err := s.clipToTask(task, req.From, req.To)
	if err != nil {
		return 0, err
	}

	n, err := s.assignments.DeleteRange(ctx, req.WorkerID, task.ID, from, to)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.publisher.AssignmentsChanged(ctx, messaging.EventAssignmentDeleted, task, req.WorkerID, from, to, int(n))
	}
	return n, nil
}

// List lists assignments, scoped to the selected site when none is given
func (s *AssignmentService) List(ctx context.Context, params repository.AssignmentListParams) ([]*repository.Assignment, error) {
	if _, err := s.caller(ctx); err != nil {
		return nil, err
	}
	if params.JobSiteID == nil && params.TaskID == nil {
		if site, ok := tenant.JobSiteID(ctx); ok {
			params.JobSiteID = &site
		}
	}
	if params.From != nil && params.To != nil && params.To.Before(params.From.Time) {
		return nil, errors.Validation(map[string]string{"to": "must not be before from"})
	}
	return s.assignments.List(ctx, params)
}

// clipToTask resolves an optional from/to pair against the task's range
func (s *AssignmentService) clipToTask(task *repository.Task, fromStr, toStr string) (domain.Date, domain.Date, error) {
	from, to := task.StartDate.Time, task.EndDate.Time
	if fromStr != "" {
		d, err := domain.ParseDate(fromStr)
		if err != nil {
			return domain.Date{}, domain.Date{}, errors.Validation(map[string]string{"from": err.Error()})
		}
		from = d
	}
	if toStr != "" {
		d, err := domain.ParseDate(toStr)
		if err != nil {
			return domain.Date{}, domain.Date{}, errors.Validation(map[string]string{"to": err.Error()})
		}
		to = d
	}
	if to.Before(from) {
		return domain.Date{}, domain.Date{}, errors.Validation(map[string]string{"to": "must not be before from"})
	}

	start, end, ok := domain.Intersect(from, to, task.StartDate.Time, task.EndDate.Time)
	if !ok {
		return domain.Date{}, domain.Date{}, errors.BadRequest("the range does not overlap the task dates")
	}
	if limit := s.cfg.MaxAssignmentDays; limit > 0 && domain.DayCount(start, end) > limit {
		return domain.Date{}, domain.Date{}, errors.BadRequest(fmt.Sprintf("the range is longer than %d days", limit))
	}
	return domain.NewDate(start), domain.NewDate(end), nil
}

// doubleBooked builds the 409 listing each conflicting day
func doubleBooked(w *repository.Worker, conflicts []repository.Booking) error {
	details := make(map[string]string, len(conflicts))
	for _, c := range conflicts {
		key := c.AssignmentDate.String()
		if prev, ok := details[key]; ok {
			details[key] = prev + ", " + c.TaskName
			continue
		}
		details[key] = c.TaskName
	}
	days := make([]string, 0, len(details))
	for d := range details {
		days = append(days, d)
	}
	sort.Strings(days)

	msg := fmt.Sprintf("%s is already assigned on %d day(s) starting %s", w.FullName(), len(days), days[0])
	return errors.Conflict(msg).WithDetails(details)
}
