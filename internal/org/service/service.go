// Package service implements organization, job site, user and site
// assignment management. Organization-wide changes are admin-only; the
// checks here mirror the row policies to fail early with a clear message.
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/org/repository"
	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/permissions"
)

// OrganizationStore persists organizations
type OrganizationStore interface {
	Current(ctx context.Context) (*repository.Organization, error)
	UpdateName(ctx context.Context, org *repository.Organization) error
}

// JobSiteStore persists job sites
type JobSiteStore interface {
	List(ctx context.Context, params repository.JobSiteListParams) ([]*repository.JobSite, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.JobSite, error)
	Create(ctx context.Context, s *repository.JobSite) error
	Update(ctx context.Context, s *repository.JobSite) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserStore persists user profiles
type UserStore interface {
	List(ctx context.Context, params repository.UserListParams) ([]*repository.UserProfile, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.UserProfile, error)
	Update(ctx context.Context, u *repository.UserProfile) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// SiteAssignmentStore persists user-to-site role bindings
type SiteAssignmentStore interface {
	List(ctx context.Context, params repository.SiteAssignmentListParams) ([]*repository.SiteAssignment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.SiteAssignment, error)
	Create(ctx context.Context, a *repository.SiteAssignment) error
	Update(ctx context.Context, a *repository.SiteAssignment) error
	End(ctx context.Context, id uuid.UUID) (*repository.SiteAssignment, error)
}

// caller returns the authenticated actor
func caller(ctx context.Context) (*actor.Actor, error) {
	a, ok := actor.FromContext(ctx)
	if !ok {
		return nil, errors.Unauthorized("authentication required")
	}
	return a, nil
}

// requireOrg checks an organization-wide permission of the caller's base role
func requireOrg(ctx context.Context, perm string) (*actor.Actor, error) {
	a, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if a.IsSystem() || permissions.HasPermission(permissions.ForBaseRole(a.BaseRole), perm) {
		return a, nil
	}
	return nil, errors.Forbidden("missing permission " + perm)
}

func validRole(role string, roles ...string) bool {
	for _, r := range roles {
		if role == r {
			return true
		}
	}
	return false
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
