// Package repository reads and writes credentials and invitations.
//
// Login, refresh and invitation acceptance run before a caller exists, so
// those paths use the owner connection with explicit predicates. Admin
// invitation management runs under the caller's row-level security.
package repository

import (
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	orgrepo "github.com/crewboard/crewboard-backend/internal/org/repository"
	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/database"
	"github.com/crewboard/crewboard-backend/pkg/errors"
)

// Invitation statuses
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRevoked  = "revoked"
)

// Account is a user profile with its credential
type Account struct {
	orgrepo.UserProfile
	PasswordHash sql.NullString `db:"password_hash" json:"-"`
}

// Actor returns the account as an authenticated caller
func (a *Account) Actor() *actor.Actor {
	return &actor.Actor{
		ID:             a.ID,
		OrganizationID: a.OrganizationID,
		Email:          a.Email,
		FirstName:      a.FirstName,
		LastName:       a.LastName,
		BaseRole:       a.BaseRole,
	}
}

// Invitation is a pending or settled invite into an organization
type Invitation struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	OrganizationID uuid.UUID  `db:"organization_id" json:"organization_id"`
	Email          string     `db:"email" json:"email"`
	BaseRole       string     `db:"base_role" json:"base_role"`
	TokenHash      string     `db:"token_hash" json:"-"`
	Status         string     `db:"status" json:"status"`
	ExpiresAt      time.Time  `db:"expires_at" json:"expires_at"`
	InvitedBy      *uuid.UUID `db:"invited_by" json:"invited_by,omitempty"`
	AcceptedAt     *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`

	// Joined on token lookup
	OrganizationName string `db:"organization_name" json:"organization_name,omitempty"`
}

// IsExpired reports whether the invitation is past its expiry at now
func (i *Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// Usable reports whether the invitation can still be accepted at now
func (i *Invitation) Usable(now time.Time) bool {
	return i.Status == InvitationPending && !i.IsExpired(now)
}

func mapErr(err error, resource string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound(resource)
	}
	return database.MapError(err)
}
