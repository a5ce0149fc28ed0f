package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/crewboard/crewboard-backend/pkg/database"
)

// AccessRepository answers visibility questions with the same SQL helpers
// the row policies use, so the application view never drifts from RLS.
type AccessRepository struct {
	db *database.DB
}

// NewAccessRepository creates a new access repository
func NewAccessRepository(db *database.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

// SiteRole returns the caller's role on siteID: "admin" for organization
// admins, the active assignment's role otherwise, or "".
func (r *AccessRepository) SiteRole(ctx context.Context, siteID uuid.UUID) (string, error) {
	var role sql.NullString
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &role, `SELECT get_user_site_role($1)`, siteID)
	})
	if err != nil {
		return "", mapErr(err, "job_site")
	}
	return role.String, nil
}

// JobSiteName returns the name of a visible job site
func (r *AccessRepository) JobSiteName(ctx context.Context, siteID uuid.UUID) (string, error) {
	var name string
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &name, `SELECT name FROM job_sites WHERE id = $1`, siteID)
	})
	if err != nil {
		return "", mapErr(err, "job_site")
	}
	return name, nil
}

// IsAdmin reports whether the caller is an active organization admin
func (r *AccessRepository) IsAdmin(ctx context.Context) (bool, error) {
	var admin bool
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &admin, `SELECT is_user_admin()`)
	})
	return admin, mapErr(err, "user")
}

// VisibleSiteIDs returns the sites reachable through the caller's active
// assignments. Admins see every site regardless of this list.
func (r *AccessRepository) VisibleSiteIDs(ctx context.Context) ([]uuid.UUID, error) {
	var raw pq.StringArray
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &raw, `SELECT get_user_job_site_ids()::text[]`)
	})
	if err != nil {
		return nil, mapErr(err, "job_site")
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// SiteRoles maps every visible site to the caller's role on it
func (r *AccessRepository) SiteRoles(ctx context.Context) (map[uuid.UUID]string, error) {
	var rows []struct {
		JobSiteID uuid.UUID      `db:"id"`
		Role      sql.NullString `db:"role"`
	}
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).SelectContext(ctx, &rows,
			`SELECT id, get_user_site_role(id) AS role FROM job_sites ORDER BY name`)
	})
	if err != nil {
		return nil, mapErr(err, "job_site")
	}
	out := make(map[uuid.UUID]string, len(rows))
	for _, row := range rows {
		if row.Role.Valid {
			out[row.JobSiteID] = row.Role.String
		}
	}
	return out, nil
}
