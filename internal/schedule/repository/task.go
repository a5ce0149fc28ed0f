package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/pkg/database"
)

const taskColumns = `
	id, organization_id, job_site_id, name, description, start_date, end_date,
	required_operators, required_laborers, required_carpenters, required_masons,
	include_saturday, include_sunday, include_holidays, color, created_by,
	created_at, updated_at`

// TaskListParams holds filters for listing tasks. From/To select tasks
// overlapping the window.
type TaskListParams struct {
	JobSiteID *uuid.UUID
	From      *domain.Date
	To        *domain.Date
	Search    string
}

// TaskRepository handles task and attachment persistence
type TaskRepository struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ============================================================================
// TASKS
// ============================================================================

// Create inserts a task
func (r *TaskRepository) Create(ctx context.Context, t *Task) error {
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO tasks (
				organization_id, job_site_id, name, description, start_date, end_date,
				required_operators, required_laborers, required_carpenters, required_masons,
				include_saturday, include_sunday, include_holidays, color, created_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING id, created_at, updated_at
		`
		return r.db.Q(ctx).QueryRowxContext(ctx, query,
			t.OrganizationID, t.JobSiteID, t.Name, t.Description, t.StartDate, t.EndDate,
			t.RequiredOperators, t.RequiredLaborers, t.RequiredCarpenters, t.RequiredMasons,
			t.IncludeSaturday, t.IncludeSunday, t.IncludeHolidays, t.Color, t.CreatedBy,
		).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	})
	return mapErr(err, "task")
}

// CreateMany inserts tasks in one transaction; any failure inserts none.
// On failure it returns the index of the offending task.
func (r *TaskRepository) CreateMany(ctx context.Context, tasks []*Task) (int, error) {
	failed := -1
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		for i, t := range tasks {
			if err := r.Create(ctx, t); err != nil {
				failed = i
				return err
			}
		}
		return nil
	})
	return failed, err
}

// GetByID gets a visible task
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	var t Task
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &t, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	})
	if err != nil {
		return nil, mapErr(err, "task")
	}
	return &t, nil
}

// List lists visible tasks ordered by start date
func (r *TaskRepository) List(ctx context.Context, params TaskListParams) ([]*Task, error) {
	var tasks []*Task
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		f := database.NewFilter()
		if params.JobSiteID != nil {
			f.Add("job_site_id = ?", *params.JobSiteID)
		}
		if params.To != nil {
			f.Add("start_date <= ?", *params.To)
		}
		if params.From != nil {
			f.Add("end_date >= ?", *params.From)
		}
		if s := strings.TrimSpace(params.Search); s != "" {
			f.Add("name ILIKE ?", "%"+s+"%")
		}
		return r.db.Q(ctx).SelectContext(ctx, &tasks,
			`SELECT `+taskColumns+` FROM tasks `+f.Where()+` ORDER BY start_date, name`, f.Args()...)
	})
	if err != nil {
		return nil, mapErr(err, "task")
	}
	return tasks, nil
}

// Update updates a task's editable fields
func (r *TaskRepository) Update(ctx context.Context, t *Task) error {
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		query := `
			UPDATE tasks SET
				name = $2, description = $3, start_date = $4, end_date = $5,
				required_operators = $6, required_laborers = $7,
				required_carpenters = $8, required_masons = $9,
				include_saturday = $10, include_sunday = $11, include_holidays = $12,
				color = $13, updated_at = now()
			WHERE id = $1
			RETURNING updated_at
		`
		return r.db.Q(ctx).QueryRowxContext(ctx, query,
			t.ID, t.Name, t.Description, t.StartDate, t.EndDate,
			t.RequiredOperators, t.RequiredLaborers, t.RequiredCarpenters, t.RequiredMasons,
			t.IncludeSaturday, t.IncludeSunday, t.IncludeHolidays, t.Color,
		).Scan(&t.UpdatedAt)
	})
	return mapErr(err, "task")
}

// Delete removes a task; assignments and attachments cascade
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithActor(ctx, func(ctx context.Context) error {
		res, err := r.db.Q(ctx).ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
		if err != nil {
			return mapErr(err, "task")
		}
		return affected(res, "task")
	})
}

// DeleteAssignmentsOutside removes the task's assignments outside
// [start, end] and returns how many went.
func (r *TaskRepository) DeleteAssignmentsOutside(ctx context.Context, taskID uuid.UUID, start, end domain.Date) (int64, error) {
	var n int64
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		res, err := r.db.Q(ctx).ExecContext(ctx, `
			DELETE FROM assignments
			WHERE task_id = $1 AND (assignment_date < $2 OR assignment_date > $3)`,
			taskID, start, end)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, mapErr(err, "assignment")
}

// DeleteAssignmentsOn removes the task's assignments on the given days
// and returns how many went.
func (r *TaskRepository) DeleteAssignmentsOn(ctx context.Context, taskID uuid.UUID, days []domain.Date) (int64, error) {
	if len(days) == 0 {
		return 0, nil
	}
	var n int64
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		res, err := r.db.Q(ctx).ExecContext(ctx, `
			DELETE FROM assignments
			WHERE task_id = $1 AND assignment_date = ANY($2::date[])`,
			taskID, dateArray(days))
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, mapErr(err, "assignment")
}

// ============================================================================
// ATTACHMENTS
// ============================================================================

const attachmentColumns = `
	id, organization_id, job_site_id, task_id, file_name, content_type,
	size_bytes, storage_path, uploaded_by, created_at`

// CreateAttachment records attachment metadata
func (r *TaskRepository) CreateAttachment(ctx context.Context, a *Attachment) error {
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO task_attachments (
				organization_id, job_site_id, task_id, file_name, content_type,
				size_bytes, storage_path, uploaded_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at
		`
		return r.db.Q(ctx).QueryRowxContext(ctx, query,
			a.OrganizationID, a.JobSiteID, a.TaskID, a.FileName, a.ContentType,
			a.SizeBytes, a.StoragePath, a.UploadedBy,
		).Scan(&a.ID, &a.CreatedAt)
	})
	return mapErr(err, "attachment")
}

// ListAttachments lists a task's attachments, newest first
func (r *TaskRepository) ListAttachments(ctx context.Context, taskID uuid.UUID) ([]*Attachment, error) {
	var items []*Attachment
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).SelectContext(ctx, &items,
			`SELECT `+attachmentColumns+` FROM task_attachments WHERE task_id = $1 ORDER BY created_at DESC`, taskID)
	})
	if err != nil {
		return nil, mapErr(err, "attachment")
	}
	return items, nil
}

// DeleteAttachment removes one attachment of a task
func (r *TaskRepository) DeleteAttachment(ctx context.Context, taskID, id uuid.UUID) (*Attachment, error) {
	var a Attachment
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &a,
			`DELETE FROM task_attachments WHERE id = $1 AND task_id = $2 RETURNING `+attachmentColumns, id, taskID)
	})
	if err != nil {
		return nil, mapErr(err, "attachment")
	}
	return &a, nil
}
