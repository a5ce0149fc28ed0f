package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/pkg/database"
)

const userColumns = `
	id, organization_id, email, first_name, last_name, base_role, is_active,
	last_login_at, created_at, updated_at`

// UserListParams holds filters for listing users
type UserListParams struct {
	BaseRole string
	Active   *bool
	Search   string
	Page     int
	PerPage  int
}

// UserRepository handles user profile persistence
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// List lists users of the caller's organization
func (r *UserRepository) List(ctx context.Context, params UserListParams) ([]*UserProfile, int64, error) {
	var (
		total int64
		users []*UserProfile
	)
	params.Page, params.PerPage = pageDefaults(params.Page, params.PerPage)

	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		f := database.NewFilter()
		if params.BaseRole != "" {
			f.Add("base_role = ?", params.BaseRole)
		}
		if params.Active != nil {
			f.Add("is_active = ?", *params.Active)
		}
		if s := strings.TrimSpace(params.Search); s != "" {
			like := "%" + s + "%"
			f.Add("(first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?)", like, like, like)
		}

		q := r.db.Q(ctx)
		if err := q.GetContext(ctx, &total, "SELECT COUNT(*) FROM user_profiles "+f.Where(), f.Args()...); err != nil {
			return err
		}
		query := `SELECT ` + userColumns + ` FROM user_profiles ` + f.Where() + `
			ORDER BY last_name, first_name
			LIMIT ` + f.Arg(params.PerPage) + ` OFFSET ` + f.Arg((params.Page-1)*params.PerPage)
		return q.SelectContext(ctx, &users, query, f.Args()...)
	})
	if err != nil {
		return nil, 0, mapErr(err, "user")
	}
	return users, total, nil
}

// GetByID gets a user of the caller's organization
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*UserProfile, error) {
	var u UserProfile
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &u, `SELECT `+userColumns+` FROM user_profiles WHERE id = $1`, id)
	})
	if err != nil {
		return nil, mapErr(err, "user")
	}
	return &u, nil
}

// Update writes name, role and status. The row policy limits non-admins to
// their own row and a trigger rejects their role or status changes.
func (r *UserRepository) Update(ctx context.Context, u *UserProfile) error {
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).QueryRowxContext(ctx, `
			UPDATE user_profiles
			SET first_name = $2, last_name = $3, base_role = $4, is_active = $5, updated_at = now()
			WHERE id = $1
			RETURNING updated_at`,
			u.ID, u.FirstName, u.LastName, u.BaseRole, u.IsActive,
		).Scan(&u.UpdatedAt)
	})
	return mapErr(err, "user")
}

// Deactivate marks a user inactive, which also removes their site access
func (r *UserRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		res, err := r.db.Q(ctx).ExecContext(ctx,
			`UPDATE user_profiles SET is_active = false, updated_at = now() WHERE id = $1`, id)
		if err != nil {
			return err
		}
		return affected(res, "user")
	})
	return mapErr(err, "user")
}
