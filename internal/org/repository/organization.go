package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/pkg/database"
)

// OrganizationRepository handles organization persistence
type OrganizationRepository struct {
	db *database.DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *database.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Current returns the caller's organization
func (r *OrganizationRepository) Current(ctx context.Context) (*Organization, error) {
	var org Organization
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &org, `
			SELECT id, name, slug, created_at, updated_at
			FROM organizations
			WHERE id = get_user_org_id()`)
	})
	if err != nil {
		return nil, mapErr(err, "organization")
	}
	return &org, nil
}

// GetByID returns an organization visible to the caller
func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*Organization, error) {
	var org Organization
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &org,
			`SELECT id, name, slug, created_at, updated_at FROM organizations WHERE id = $1`, id)
	})
	if err != nil {
		return nil, mapErr(err, "organization")
	}
	return &org, nil
}

// UpdateName renames the organization
func (r *OrganizationRepository) UpdateName(ctx context.Context, org *Organization) error {
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).QueryRowxContext(ctx, `
			UPDATE organizations SET name = $2, updated_at = now()
			WHERE id = $1
			RETURNING slug, created_at, updated_at`,
			org.ID, org.Name,
		).Scan(&org.Slug, &org.CreatedAt, &org.UpdatedAt)
	})
	return mapErr(err, "organization")
}

// Bootstrap creates an organization with its first admin. It runs on the
// owner connection and must be called with the system actor.
func (r *OrganizationRepository) Bootstrap(ctx context.Context, org *Organization, admin *UserProfile, passwordHash string) error {
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		q := r.db.Q(ctx)
		if err := q.QueryRowxContext(ctx, `
			INSERT INTO organizations (name, slug) VALUES ($1, $2)
			RETURNING id, created_at, updated_at`,
			org.Name, org.Slug,
		).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return err
		}

		admin.OrganizationID = org.ID
		admin.BaseRole = "admin"
		admin.IsActive = true
		return q.QueryRowxContext(ctx, `
			INSERT INTO user_profiles (organization_id, email, password_hash, first_name, last_name, base_role, is_active)
			VALUES ($1, lower($2), $3, $4, $5, $6, $7)
			RETURNING id, email, created_at, updated_at`,
			admin.OrganizationID, admin.Email, passwordHash, admin.FirstName, admin.LastName, admin.BaseRole, admin.IsActive,
		).Scan(&admin.ID, &admin.Email, &admin.CreatedAt, &admin.UpdatedAt)
	})
	return mapErr(err, "organization")
}
