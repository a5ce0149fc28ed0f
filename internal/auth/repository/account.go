package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/pkg/database"
)

const accountColumns = `
	id, organization_id, email, password_hash, first_name, last_name, base_role,
	is_active, last_login_at, created_at, updated_at`

// AccountRepository reads credentials on the owner connection
type AccountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByEmail finds an account by case-insensitive email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	var a Account
	err := r.db.GetContext(ctx, &a,
		`SELECT `+accountColumns+` FROM user_profiles WHERE lower(email) = lower($1)`, email)
	if err != nil {
		return nil, mapErr(err, "user")
	}
	return &a, nil
}

// GetByID finds an account by id
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	var a Account
	err := r.db.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM user_profiles WHERE id = $1`, id)
	if err != nil {
		return nil, mapErr(err, "user")
	}
	return &a, nil
}

// EmailTaken reports whether any organization already has a user with email
func (r *AccountRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := r.db.GetContext(ctx, &taken,
		`SELECT EXISTS (SELECT 1 FROM user_profiles WHERE lower(email) = lower($1))`, email)
	return taken, mapErr(err, "user")
}

// TouchLogin stamps last_login_at
func (r *AccountRepository) TouchLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE user_profiles SET last_login_at = now() WHERE id = $1`, id)
	return mapErr(err, "user")
}

// SetPassword replaces the password hash of an active account
func (r *AccountRepository) SetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_profiles SET password_hash = $2, updated_at = now() WHERE id = $1 AND is_active`, id, hash)
	if err != nil {
		return mapErr(err, "user")
	}
	return affected(res, "user")
}
