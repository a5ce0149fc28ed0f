package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/pkg/database"
)

const siteAssignmentSelect = `
	SELECT a.id, a.organization_id, a.user_id, a.job_site_id, a.site_role,
	       a.start_date, a.end_date, a.is_active, a.created_at, a.updated_at,
	       COALESCE(u.first_name || ' ' || u.last_name, '') AS user_name,
	       COALESCE(s.name, '') AS job_site_name
	FROM job_site_assignments a
	LEFT JOIN user_profiles u ON u.id = a.user_id
	LEFT JOIN job_sites s ON s.id = a.job_site_id`

// SiteAssignmentListParams filters site assignments by site or user
type SiteAssignmentListParams struct {
	JobSiteID  *uuid.UUID
	UserID     *uuid.UUID
	ActiveOnly bool
}

// SiteAssignmentRepository handles user-to-site role bindings
type SiteAssignmentRepository struct {
	db *database.DB
}

// NewSiteAssignmentRepository creates a new site assignment repository
func NewSiteAssignmentRepository(db *database.DB) *SiteAssignmentRepository {
	return &SiteAssignmentRepository{db: db}
}

// List lists visible site assignments
func (r *SiteAssignmentRepository) List(ctx context.Context, params SiteAssignmentListParams) ([]*SiteAssignment, error) {
	var items []*SiteAssignment
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		f := database.NewFilter()
		if params.JobSiteID != nil {
			f.Add("a.job_site_id = ?", *params.JobSiteID)
		}
		if params.UserID != nil {
			f.Add("a.user_id = ?", *params.UserID)
		}
		if params.ActiveOnly {
			f.Add("a.is_active")
		}
		return r.db.Q(ctx).SelectContext(ctx, &items,
			siteAssignmentSelect+" "+f.Where()+" ORDER BY s.name, u.last_name, u.first_name", f.Args()...)
	})
	if err != nil {
		return nil, mapErr(err, "site_assignment")
	}
	return items, nil
}

// GetByID gets a visible site assignment
func (r *SiteAssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*SiteAssignment, error) {
	var a SiteAssignment
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &a, siteAssignmentSelect+" WHERE a.id = $1", id)
	})
	if err != nil {
		return nil, mapErr(err, "site_assignment")
	}
	return &a, nil
}

// Create inserts a site assignment
func (r *SiteAssignmentRepository) Create(ctx context.Context, a *SiteAssignment) error {
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).QueryRowxContext(ctx, `
			INSERT INTO job_site_assignments (organization_id, user_id, job_site_id, site_role, start_date, end_date, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at, updated_at`,
			a.OrganizationID, a.UserID, a.JobSiteID, a.SiteRole, a.StartDate, a.EndDate, a.IsActive,
		).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	})
	return mapErr(err, "site_assignment")
}

// Update changes role, window and status
func (r *SiteAssignmentRepository) Update(ctx context.Context, a *SiteAssignment) error {
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).QueryRowxContext(ctx, `
			UPDATE job_site_assignments
			SET site_role = $2, start_date = $3, end_date = $4, is_active = $5, updated_at = now()
			WHERE id = $1
			RETURNING updated_at`,
			a.ID, a.SiteRole, a.StartDate, a.EndDate, a.IsActive,
		).Scan(&a.UpdatedAt)
	})
	return mapErr(err, "site_assignment")
}

// End deactivates an assignment and closes its window today, or on its
// start date when that is still in the future.
func (r *SiteAssignmentRepository) End(ctx context.Context, id uuid.UUID) (*SiteAssignment, error) {
	var a *SiteAssignment
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		res, err := r.db.Q(ctx).ExecContext(ctx, `
			UPDATE job_site_assignments
			SET is_active = false, end_date = GREATEST(start_date, current_date), updated_at = now()
			WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if err := affected(res, "site_assignment"); err != nil {
			return err
		}
		a, err = r.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, mapErr(err, "site_assignment")
	}
	return a, nil
}
