package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/pkg/database"
)

const workerColumns = `
	id, organization_id, job_site_id, first_name, last_name, role,
	phone, email, is_active, created_at, updated_at`

// WorkerListParams holds filters for listing workers
type WorkerListParams struct {
	JobSiteID  *uuid.UUID
	Unassigned bool
	Role       *domain.WorkerRole
	Active     *bool
	Search     string
	Page       int
	PerPage    int
}

// WorkerRepository handles worker persistence
type WorkerRepository struct {
	db *database.DB
}

// NewWorkerRepository creates a new worker repository
func NewWorkerRepository(db *database.DB) *WorkerRepository {
	return &WorkerRepository{db: db}
}

// Create inserts a worker
func (r *WorkerRepository) Create(ctx context.Context, w *Worker) error {
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO workers (organization_id, job_site_id, first_name, last_name, role, phone, email, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at, updated_at
		`
		return r.db.Q(ctx).QueryRowxContext(ctx, query,
			w.OrganizationID, w.JobSiteID, w.FirstName, w.LastName, w.Role, w.Phone, w.Email, w.IsActive,
		).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	})
	return mapErr(err, "worker")
}

// GetByID gets a visible worker
func (r *WorkerRepository) GetByID(ctx context.Context, id uuid.UUID) (*Worker, error) {
	var w Worker
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &w, `SELECT `+workerColumns+` FROM workers WHERE id = $1`, id)
	})
	if err != nil {
		return nil, mapErr(err, "worker")
	}
	return &w, nil
}

// List lists visible workers with filters and pagination
func (r *WorkerRepository) List(ctx context.Context, params WorkerListParams) ([]*Worker, int64, error) {
	var (
		total   int64
		workers []*Worker
	)
	params.Page, params.PerPage = pageDefaults(params.Page, params.PerPage)

	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		f := database.NewFilter()
		switch {
		case params.Unassigned:
			f.Add("job_site_id IS NULL")
		case params.JobSiteID != nil:
			f.Add("job_site_id = ?", *params.JobSiteID)
		}
		if params.Role != nil {
			f.Add("role = ?", *params.Role)
		}
		if params.Active != nil {
			f.Add("is_active = ?", *params.Active)
		}
		if s := strings.TrimSpace(params.Search); s != "" {
			like := "%" + s + "%"
			f.Add("(first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?)", like, like, like)
		}

		q := r.db.Q(ctx)
		if err := q.GetContext(ctx, &total, "SELECT COUNT(*) FROM workers "+f.Where(), f.Args()...); err != nil {
			return err
		}

		query := `SELECT ` + workerColumns + ` FROM workers ` + f.Where() + `
			ORDER BY last_name, first_name
			LIMIT ` + f.Arg(params.PerPage) + ` OFFSET ` + f.Arg((params.Page-1)*params.PerPage)
		return q.SelectContext(ctx, &workers, query, f.Args()...)
	})
	if err != nil {
		return nil, 0, mapErr(err, "worker")
	}
	return workers, total, nil
}

// ListForSite lists the active workers a site can schedule: its own plus
// unattached ones.
func (r *WorkerRepository) ListForSite(ctx context.Context, siteID uuid.UUID) ([]*Worker, error) {
	var workers []*Worker
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).SelectContext(ctx, &workers, `
			SELECT `+workerColumns+` FROM workers
			WHERE is_active AND (job_site_id = $1 OR job_site_id IS NULL)
			ORDER BY last_name, first_name`, siteID)
	})
	if err != nil {
		return nil, mapErr(err, "worker")
	}
	return workers, nil
}

// GetMany loads the visible workers among ids
func (r *WorkerRepository) GetMany(ctx context.Context, ids []uuid.UUID) ([]*Worker, error) {
	var workers []*Worker
	if len(ids) == 0 {
		return workers, nil
	}
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).SelectContext(ctx, &workers,
			`SELECT `+workerColumns+` FROM workers WHERE id = ANY ($1::uuid[]) ORDER BY last_name, first_name`,
			uuidArray(ids))
	})
	if err != nil {
		return nil, mapErr(err, "worker")
	}
	return workers, nil
}

// Update updates a worker's editable fields
func (r *WorkerRepository) Update(ctx context.Context, w *Worker) error {
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		query := `
			UPDATE workers SET
				job_site_id = $2, first_name = $3, last_name = $4, role = $5,
				phone = $6, email = $7, is_active = $8, updated_at = now()
			WHERE id = $1
			RETURNING updated_at
		`
		return r.db.Q(ctx).QueryRowxContext(ctx, query,
			w.ID, w.JobSiteID, w.FirstName, w.LastName, w.Role, w.Phone, w.Email, w.IsActive,
		).Scan(&w.UpdatedAt)
	})
	return mapErr(err, "worker")
}

// Deactivate marks a worker inactive
func (r *WorkerRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithActor(ctx, func(ctx context.Context) error {
		res, err := r.db.Q(ctx).ExecContext(ctx,
			`UPDATE workers SET is_active = false, updated_at = now() WHERE id = $1`, id)
		if err != nil {
			return mapErr(err, "worker")
		}
		return affected(res, "worker")
	})
}

// Delete removes a worker
func (r *WorkerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithActor(ctx, func(ctx context.Context) error {
		res, err := r.db.Q(ctx).ExecContext(ctx, `DELETE FROM workers WHERE id = $1`, id)
		if err != nil {
			return mapErr(err, "worker")
		}
		return affected(res, "worker")
	})
}

// HasHistory reports whether any assignment or hours row in the
// organization references the worker, visible to the caller or not.
func (r *WorkerRepository) HasHistory(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &exists, `SELECT worker_has_history($1)`, id)
	})
	return exists, mapErr(err, "worker")
}
