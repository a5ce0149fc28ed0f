package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/pkg/database"
)

const jobSiteColumns = `
	id, organization_id, name, code, address, status, start_date, end_date, created_at, updated_at`

// JobSiteListParams holds filters for listing job sites
type JobSiteListParams struct {
	Status  *domain.SiteStatus
	Search  string
	Page    int
	PerPage int
}

// JobSiteRepository handles job site persistence
type JobSiteRepository struct {
	db *database.DB
}

// NewJobSiteRepository creates a new job site repository
func NewJobSiteRepository(db *database.DB) *JobSiteRepository {
	return &JobSiteRepository{db: db}
}

// List lists the job sites visible to the caller
func (r *JobSiteRepository) List(ctx context.Context, params JobSiteListParams) ([]*JobSite, int64, error) {
	var (
		total int64
		sites []*JobSite
	)
	params.Page, params.PerPage = pageDefaults(params.Page, params.PerPage)

	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		f := database.NewFilter()
		if params.Status != nil {
			f.Add("status = ?", *params.Status)
		}
		if s := strings.TrimSpace(params.Search); s != "" {
			like := "%" + s + "%"
			f.Add("(name ILIKE ? OR code ILIKE ?)", like, like)
		}

		q := r.db.Q(ctx)
		if err := q.GetContext(ctx, &total, "SELECT COUNT(*) FROM job_sites "+f.Where(), f.Args()...); err != nil {
			return err
		}
		query := `SELECT ` + jobSiteColumns + ` FROM job_sites ` + f.Where() + `
			ORDER BY name
			LIMIT ` + f.Arg(params.PerPage) + ` OFFSET ` + f.Arg((params.Page-1)*params.PerPage)
		return q.SelectContext(ctx, &sites, query, f.Args()...)
	})
	if err != nil {
		return nil, 0, mapErr(err, "job_site")
	}
	return sites, total, nil
}

// GetByID gets a visible job site
func (r *JobSiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*JobSite, error) {
	var s JobSite
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &s, `SELECT `+jobSiteColumns+` FROM job_sites WHERE id = $1`, id)
	})
	if err != nil {
		return nil, mapErr(err, "job_site")
	}
	return &s, nil
}

// Create inserts a job site
func (r *JobSiteRepository) Create(ctx context.Context, s *JobSite) error {
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).QueryRowxContext(ctx, `
			INSERT INTO job_sites (organization_id, name, code, address, status, start_date, end_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at, updated_at`,
			s.OrganizationID, s.Name, s.Code, s.Address, s.Status, s.StartDate, s.EndDate,
		).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	})
	return mapErr(err, "job_site")
}

// Update updates a job site
func (r *JobSiteRepository) Update(ctx context.Context, s *JobSite) error {
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).QueryRowxContext(ctx, `
			UPDATE job_sites
			SET name = $2, code = $3, address = $4, status = $5, start_date = $6, end_date = $7, updated_at = now()
			WHERE id = $1
			RETURNING updated_at`,
			s.ID, s.Name, s.Code, s.Address, s.Status, s.StartDate, s.EndDate,
		).Scan(&s.UpdatedAt)
	})
	return mapErr(err, "job_site")
}

// Delete deletes a job site and, by cascade, its schedule
func (r *JobSiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		res, err := r.db.Q(ctx).ExecContext(ctx, `DELETE FROM job_sites WHERE id = $1`, id)
		if err != nil {
			return err
		}
		return affected(res, "job_site")
	})
	return mapErr(err, "job_site")
}
