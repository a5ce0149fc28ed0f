package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/pkg/database"
)

const assignmentColumns = `
	a.id, a.organization_id, a.job_site_id, a.task_id, a.worker_id,
	a.assignment_date, a.created_by, a.created_at`

// AssignmentListParams holds filters for listing assignments
type AssignmentListParams struct {
	JobSiteID *uuid.UUID
	TaskID    *uuid.UUID
	WorkerID  *uuid.UUID
	From      *domain.Date
	To        *domain.Date
}

// AssignmentRepository handles assignment persistence
type AssignmentRepository struct {
	db *database.DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *database.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// CreateDays books base.WorkerID on base.TaskID for each day. Days already
// booked on this task are skipped; the created rows are returned.
func (r *AssignmentRepository) CreateDays(ctx context.Context, base Assignment, days []domain.Date) ([]*Assignment, error) {
	created := []*Assignment{}
	if len(days) == 0 {
		return created, nil
	}
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO assignments (organization_id, job_site_id, task_id, worker_id, assignment_date, created_by)
			SELECT $1::uuid, $2::uuid, $3::uuid, $4::uuid, d, $5::uuid FROM unnest($6::date[]) AS d
			ON CONFLICT ON CONSTRAINT assignments_worker_task_date_key DO NOTHING
			RETURNING id, organization_id, job_site_id, task_id, worker_id, assignment_date, created_by, created_at
		`
		return r.db.Q(ctx).SelectContext(ctx, &created, query,
			base.OrganizationID, base.JobSiteID, base.TaskID, base.WorkerID, base.CreatedBy, dateArray(days))
	})
	if err != nil {
		return nil, mapErr(err, "assignment")
	}
	return created, nil
}

// BookedDays returns the days the worker is already booked on the task
// within [from, to]
func (r *AssignmentRepository) BookedDays(ctx context.Context, workerID, taskID uuid.UUID, from, to domain.Date) ([]domain.Date, error) {
	var days []domain.Date
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).SelectContext(ctx, &days, `
			SELECT assignment_date FROM assignments
			WHERE worker_id = $1 AND task_id = $2 AND assignment_date BETWEEN $3 AND $4
			ORDER BY assignment_date`, workerID, taskID, from, to)
	})
	if err != nil {
		return nil, mapErr(err, "assignment")
	}
	return days, nil
}

// Bookings returns the worker's assignments to other tasks on days,
// across the whole organization
func (r *AssignmentRepository) Bookings(ctx context.Context, workerID, excludeTaskID uuid.UUID, days []domain.Date) ([]Booking, error) {
	var bookings []Booking
	if len(days) == 0 {
		return bookings, nil
	}
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).SelectContext(ctx, &bookings,
			`SELECT assignment_date, task_id, task_name, job_site_id FROM get_worker_bookings($1, $2, $3::date[])`,
			workerID, excludeTaskID, dateArray(days))
	})
	if err != nil {
		return nil, mapErr(err, "assignment")
	}
	return bookings, nil
}

// GetByID gets a visible assignment
func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	var a Assignment
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &a, `SELECT `+assignmentColumns+` FROM assignments a WHERE a.id = $1`, id)
	})
	if err != nil {
		return nil, mapErr(err, "assignment")
	}
	return &a, nil
}

// List lists visible assignments with the worker's name and trade
func (r *AssignmentRepository) List(ctx context.Context, params AssignmentListParams) ([]*Assignment, error) {
	var items []*Assignment
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		f := database.NewFilter()
		if params.JobSiteID != nil {
			f.Add("a.job_site_id = ?", *params.JobSiteID)
		}
		if params.TaskID != nil {
			f.Add("a.task_id = ?", *params.TaskID)
		}
		if params.WorkerID != nil {
			f.Add("a.worker_id = ?", *params.WorkerID)
		}
		if params.From != nil {
			f.Add("a.assignment_date >= ?", *params.From)
		}
		if params.To != nil {
			f.Add("a.assignment_date <= ?", *params.To)
		}
		query := `
			SELECT ` + assignmentColumns + `,
			       w.first_name AS worker_first_name, w.last_name AS worker_last_name, w.role AS worker_role
			FROM assignments a
			JOIN workers w ON w.id = a.worker_id
			` + f.Where() + `
			ORDER BY a.assignment_date, w.last_name, w.first_name`
		return r.db.Q(ctx).SelectContext(ctx, &items, query, f.Args()...)
	})
	if err != nil {
		return nil, mapErr(err, "assignment")
	}
	return items, nil
}

// Delete removes one assignment and returns it
func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	var a Assignment
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &a, `
			DELETE FROM assignments a WHERE a.id = $1
			RETURNING `+assignmentColumns, id)
	})
	if err != nil {
		return nil, mapErr(err, "assignment")
	}
	return &a, nil
}

// DeleteRange removes the worker's days on the task within [from, to]
func (r *AssignmentRepository) DeleteRange(ctx context.Context, workerID, taskID uuid.UUID, from, to domain.Date) (int64, error) {
	var n int64
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		res, err := r.db.Q(ctx).ExecContext(ctx, `
			DELETE FROM assignments
			WHERE worker_id = $1 AND task_id = $2 AND assignment_date BETWEEN $3 AND $4`,
			workerID, taskID, from, to)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, mapErr(err, "assignment")
}
