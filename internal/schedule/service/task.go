package service

import (
	"context"
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
	"github.com/crewboard/crewboard-backend/pkg/tenant"
)

// DefaultTaskColor is used when a task has no color
const DefaultTaskColor = "#3b82f6"

// TaskService handles task business logic
type TaskService struct {
	guard
	tx        TxRunner
	tasks     TaskStore
	holidays  HolidayStore
	cfg       config.ScheduleConfig
	publisher *events.SchedulePublisher
	logger    *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(
	tx TxRunner,
	tasks TaskStore,
	holidays HolidayStore,
	sites SiteDirectory,
	cfg config.ScheduleConfig,
	publisher *events.SchedulePublisher,
	log *logger.Logger,
) *TaskService {
	return &TaskService{
		guard:     guard{sites: sites},
		tx:        tx,
		tasks:     tasks,
		holidays:  holidays,
		cfg:       cfg,
		publisher: publisher,
		logger:    log,
	}
}

// TaskRequest is the body of create and update task requests. JobSiteID
// defaults to the selected job site and cannot change on update.
type TaskRequest struct {
	JobSiteID          *uuid.UUID `json:"job_site_id"`
	Name               string     `json:"name" validate:"required,max=200"`
	Description        string     `json:"description" validate:"max=2000"`
	StartDate          string     `json:"start_date" validate:"required,date"`
	EndDate            string     `json:"end_date" validate:"required,date"`
	RequiredOperators  int        `json:"required_operators" validate:"min=0,max=500"`
	RequiredLaborers   int        `json:"required_laborers" validate:"min=0,max=500"`
	RequiredCarpenters int        `json:"required_carpenters" validate:"min=0,max=500"`
	RequiredMasons     int        `json:"required_masons" validate:"min=0,max=500"`
	IncludeSaturday    bool       `json:"include_saturday"`
	IncludeSunday      bool       `json:"include_sunday"`
	IncludeHolidays    bool       `json:"include_holidays"`
	Color              string     `json:"color" validate:"omitempty,hexcolor"`
}

// AttachmentRequest registers an uploaded file's metadata
type AttachmentRequest struct {
	FileName    string `json:"file_name" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"max=100"`
	SizeBytes   int64  `json:"size_bytes" validate:"min=0"`
	StoragePath string `json:"storage_path" validate:"required,max=1024"`
}

// ============================================================================
// TASKS
// ============================================================================

// List lists tasks overlapping the window, scoped to the selected site
// unless params names one
func (s *TaskService) List(ctx context.Context, params repository.TaskListParams) ([]*repository.Task, error) {
	if _, err := s.caller(ctx); err != nil {
		return nil, err
	}
	if params.JobSiteID == nil {
		if site, ok := tenant.JobSiteID(ctx); ok {
			params.JobSiteID = &site
		}
	}
	if params.From != nil && params.To != nil && params.To.Before(params.From.Time) {
		return nil, errors.Validation(map[string]string{"to": "must not be before from"})
	}
	params.Search = strings.TrimSpace(params.Search)
	return s.tasks.List(ctx, params)
}

// GetByID gets a task by ID
func (s *TaskService) GetByID(ctx context.Context, id uuid.UUID) (*repository.Task, error) {
	if _, err := s.caller(ctx); err != nil {
		return nil, err
	}
	return s.tasks.GetByID(ctx, id)
}

// Create creates a task on the requested or selected job site
func (s *TaskService) Create(ctx context.Context, req *TaskRequest) (*repository.Task, error) {
	site, err := s.siteOf(ctx, req.JobSiteID)
	if err != nil {
		return nil, err
	}
	a, err := s.require(ctx, &site, permissions.TasksWrite)
	if err != nil {
		return nil, err
	}
	if _, err := s.sites.JobSiteName(ctx, site); err != nil {
		return nil, err
	}

	task := &repository.Task{
		OrganizationID: a.OrganizationID,
		JobSiteID:      site,
		CreatedBy:      a.IDOrNil(),
	}
	if problems := applyTask(task, req); problems != nil {
		return nil, errors.Validation(problems)
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.publisher.TaskChanged(ctx, messaging.EventTaskCreated, task)

	s.logger.Info().
		Str("task_id", task.ID.String()).
		Str("job_site_id", site.String()).
		Str("start_date", task.StartDate.String()).
		Str("end_date", task.EndDate.String()).
		Msg("task created")

	return task, nil
}

// Update replaces a task's fields. Assignments falling outside a shrunk
// date range, or on days the new day options no longer work, are removed
// in the same transaction.
func (s *TaskService) Update(ctx context.Context, id uuid.UUID, req *TaskRequest) (*repository.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.JobSiteID != nil && *req.JobSiteID != task.JobSiteID {
		return nil, errors.BadRequest("a task cannot move to another job site")
	}
	if _, err := s.require(ctx, &task.JobSiteID, permissions.TasksWrite); err != nil {
		return nil, err
	}

	oldStart, oldEnd, oldDays := task.StartDate, task.EndDate, task.DayOptions()
	if problems := applyTask(task, req); problems != nil {
		return nil, errors.Validation(problems)
	}
	shrunk := task.StartDate.After(oldStart.Time) || task.EndDate.Before(oldEnd.Time)
	narrowed := dayOptionsNarrowed(oldDays, task.DayOptions())

	var removed int64
	err = s.tx.WithActor(ctx, func(ctx context.Context) error {
		if err := s.tasks.Update(ctx, task); err != nil {
			return err
		}
		if shrunk {
			n, err := s.tasks.DeleteAssignmentsOutside(ctx, task.ID, task.StartDate, task.EndDate)
			if err != nil {
				return err
			}
			removed += n
		}
		if narrowed {
			n, err := s.pruneDroppedDays(ctx, task, oldDays)
			if err != nil {
				return err
			}
			removed += n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.TaskChanged(ctx, messaging.EventTaskUpdated, task)
	if removed > 0 {
		s.publisher.AssignmentsChanged(ctx, messaging.EventAssignmentDeleted, task, uuid.Nil, oldStart, oldEnd, int(removed))
		s.logger.Info().
			Str("task_id", task.ID.String()).
			Int64("removed", removed).
			Bool("day_options_narrowed", narrowed).
			Msg("assignments off the new task schedule removed")
	}

	return task, nil
}

// pruneDroppedDays deletes assignments on days that were working days
// under the old options and are not under the task's current ones.
// Weekend days booked only through a calendar view stay.
func (s *TaskService) pruneDroppedDays(ctx context.Context, task *repository.Task, old domain.DayOptions) (int64, error) {
	holidays, _, err := holidaySet(ctx, s.holidays, task.StartDate, task.EndDate)
	if err != nil {
		return 0, err
	}
	kept := make(map[string]bool)
	for _, d := range domain.WorkingDays(task.StartDate.Time, task.EndDate.Time, task.DayOptions(), domain.ViewOptions{}, holidays) {
		kept[domain.FormatDate(d)] = true
	}
	var dropped []domain.Date
	for _, d := range domain.WorkingDays(task.StartDate.Time, task.EndDate.Time, old, domain.ViewOptions{}, holidays) {
		if !kept[domain.FormatDate(d)] {
			dropped = append(dropped, domain.NewDate(d))
		}
	}
	return s.tasks.DeleteAssignmentsOn(ctx, task.ID, dropped)
}

func dayOptionsNarrowed(old, cur domain.DayOptions) bool {
	return (old.IncludeSaturday && !cur.IncludeSaturday) ||
		(old.IncludeSunday && !cur.IncludeSunday) ||
		(old.IncludeHolidays && !cur.IncludeHolidays)
}

// Delete deletes a task with its assignments and attachment metadata
func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) error {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.require(ctx, &task.JobSiteID, permissions.TasksWrite); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.TaskChanged(ctx, messaging.EventTaskDeleted, task)
	s.logger.Info().Str("task_id", id.String()).Msg("task deleted")
	return nil
}

// ============================================================================
// ATTACHMENTS
// ============================================================================

// AddAttachment records metadata for a file already stored in the bucket
func (s *TaskService) AddAttachment(ctx context.Context, taskID uuid.UUID, req *AttachmentRequest) (*repository.Attachment, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	a, err := s.require(ctx, &task.JobSiteID, permissions.TasksWrite)
	if err != nil {
		return nil, err
	}

	att := &repository.Attachment{
		OrganizationID: task.OrganizationID,
		JobSiteID:      task.JobSiteID,
		TaskID:         task.ID,
		FileName:       strings.TrimSpace(req.FileName),
		ContentType:    req.ContentType,
		SizeBytes:      req.SizeBytes,
		StoragePath:    req.StoragePath,
		UploadedBy:     a.IDOrNil(),
	}
	if att.ContentType == "" {
		att.ContentType = "application/octet-stream"
	}
	if err := s.tasks.CreateAttachment(ctx, att); err != nil {
		return nil, err
	}

	s.publisher.TaskChanged(ctx, messaging.EventTaskUpdated, task)
	return att, nil
}

// ListAttachments lists a task's attachments
func (s *TaskService) ListAttachments(ctx context.Context, taskID uuid.UUID) ([]*repository.Attachment, error) {
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.tasks.ListAttachments(ctx, taskID)
}

// DeleteAttachment removes attachment metadata and returns it so the
// caller can delete the stored object
func (s *TaskService) DeleteAttachment(ctx context.Context, taskID, id uuid.UUID) (*repository.Attachment, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, &task.JobSiteID, permissions.TasksWrite); err != nil {
		return nil, err
	}
	att, err := s.tasks.DeleteAttachment(ctx, taskID, id)
	if err != nil {
		return nil, err
	}

	s.publisher.TaskChanged(ctx, messaging.EventTaskUpdated, task)
	return att, nil
}

// ============================================================================
// HELPERS
// ============================================================================

// applyTask copies req onto t and returns field problems, or nil
func applyTask(t *repository.Task, req *TaskRequest) map[string]string {
	problems := map[string]string{}

	start, err := domain.ParseDate(req.StartDate)
	if err != nil {
		problems["start_date"] = "must be a date in YYYY-MM-DD format"
	}
	end, err := domain.ParseDate(req.EndDate)
	if err != nil {
		problems["end_date"] = "must be a date in YYYY-MM-DD format"
	}
	if len(problems) == 0 && end.Before(start) {
		problems["end_date"] = "must not be before start_date"
	}
	counts := map[string]int{
		"required_operators":  req.RequiredOperators,
		"required_laborers":   req.RequiredLaborers,
		"required_carpenters": req.RequiredCarpenters,
		"required_masons":     req.RequiredMasons,
	}
	for field, n := range counts {
		if n < 0 {
			problems[field] = "must be at least 0"
		}
	}
	if strings.TrimSpace(req.Name) == "" {
		problems["name"] = "is required"
	}
	if len(problems) > 0 {
		return problems
	}

	t.Name = strings.TrimSpace(req.Name)
	t.Description = strings.TrimSpace(req.Description)
	t.StartDate = domain.NewDate(start)
	t.EndDate = domain.NewDate(end)
	t.RequiredOperators = req.RequiredOperators
	t.RequiredLaborers = req.RequiredLaborers
	t.RequiredCarpenters = req.RequiredCarpenters
	t.RequiredMasons = req.RequiredMasons
	t.IncludeSaturday = req.IncludeSaturday
	t.IncludeSunday = req.IncludeSunday
	t.IncludeHolidays = req.IncludeHolidays
	t.Color = req.Color
	if t.Color == "" {
		t.Color = DefaultTaskColor
	}
	return nil
}
