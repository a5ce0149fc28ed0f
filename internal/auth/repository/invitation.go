package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/crewboard/crewboard-backend/pkg/database"
	"github.com/crewboard/crewboard-backend/pkg/errors"
)

const invitationColumns = `
	id, organization_id, email, base_role, token_hash, status, expires_at,
	invited_by, accepted_at, created_at`

// InvitationRepository handles invitation persistence
type InvitationRepository struct {
	db *database.DB
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *database.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// Create stores a pending invitation in the caller's organization
func (r *InvitationRepository) Create(ctx context.Context, inv *Invitation) error {
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).QueryRowxContext(ctx, `
			INSERT INTO invitations (organization_id, email, base_role, token_hash, expires_at, invited_by)
			VALUES ($1, lower($2), $3, $4, $5, $6)
			RETURNING id, email, status, created_at`,
			inv.OrganizationID, inv.Email, inv.BaseRole, inv.TokenHash, inv.ExpiresAt, inv.InvitedBy,
		).Scan(&inv.ID, &inv.Email, &inv.Status, &inv.CreatedAt)
	})
	return mapErr(err, "invitation")
}

// List lists invitations of the caller's organization, newest first. An
// empty status lists all.
func (r *InvitationRepository) List(ctx context.Context, status string) ([]*Invitation, error) {
	var items []*Invitation
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		f := database.NewFilter()
		if status != "" {
			f.Add("status = ?", status)
		}
		return r.db.Q(ctx).SelectContext(ctx, &items,
			`SELECT `+invitationColumns+` FROM invitations `+f.Where()+` ORDER BY created_at DESC`, f.Args()...)
	})
	if err != nil {
		return nil, mapErr(err, "invitation")
	}
	return items, nil
}

// GetByID gets an invitation of the caller's organization
func (r *InvitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*Invitation, error) {
	var inv Invitation
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &inv, `SELECT `+invitationColumns+` FROM invitations WHERE id = $1`, id)
	})
	if err != nil {
		return nil, mapErr(err, "invitation")
	}
	return &inv, nil
}

// HasPending reports whether email has a pending invitation in the
// caller's organization
func (r *InvitationRepository) HasPending(ctx context.Context, email string) (bool, error) {
	var pending bool
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &pending,
			`SELECT EXISTS (SELECT 1 FROM invitations WHERE lower(email) = lower($1) AND status = 'pending')`, email)
	})
	return pending, mapErr(err, "invitation")
}

// Revoke revokes a pending invitation
func (r *InvitationRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	return r.db.WithActor(ctx, func(ctx context.Context) error {
		res, err := r.db.Q(ctx).ExecContext(ctx,
			`UPDATE invitations SET status = 'revoked' WHERE id = $1 AND status = 'pending'`, id)
		if err != nil {
			return mapErr(err, "invitation")
		}
		return affected(res, "invitation")
	})
}

// GetByTokenHash looks an invitation up by token on the owner connection
func (r *InvitationRepository) GetByTokenHash(ctx context.Context, hash string) (*Invitation, error) {
	var inv Invitation
	err := r.db.GetContext(ctx, &inv, `
		SELECT i.id, i.organization_id, i.email, i.base_role, i.token_hash, i.status,
		       i.expires_at, i.invited_by, i.accepted_at, i.created_at,
		       o.name AS organization_name
		FROM invitations i
		JOIN organizations o ON o.id = i.organization_id
		WHERE i.token_hash = $1`, hash)
	if err != nil {
		return nil, mapErr(err, "invitation")
	}
	return &inv, nil
}

// Accept settles a pending invitation and creates its user in one
// transaction on the owner connection. A concurrent accept, revoke or
// expiry makes it fail with InvitationInvalid.
func (r *InvitationRepository) Accept(ctx context.Context, inv *Invitation, account *Account) error {
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE invitations SET status = 'accepted', accepted_at = now()
			WHERE id = $1 AND status = 'pending' AND expires_at > now()`, inv.ID)
		if err != nil {
			return mapErr(err, "invitation")
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return errors.InvitationInvalid()
		}

		err = tx.QueryRowxContext(ctx, `
			INSERT INTO user_profiles (organization_id, email, password_hash, first_name, last_name, base_role)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+accountColumns,
			inv.OrganizationID, inv.Email, account.PasswordHash, account.FirstName, account.LastName, inv.BaseRole,
		).StructScan(account)
		return mapErr(err, "user")
	})
}

func affected(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NotFound(resource)
	}
	return nil
}
