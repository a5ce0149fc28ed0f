package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/org/events"
	"github.com/crewboard/crewboard-backend/internal/org/repository"
	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/logger"
	"github.com/crewboard/crewboard-backend/pkg/permissions"
)

var baseRoles = []string{actor.RoleAdmin, actor.RoleSuperintendent, actor.RoleEngineer, actor.RoleForeman, actor.RoleWorker}

// UserService manages user profiles
type UserService struct {
	users     UserStore
	publisher *events.OrgPublisher
	logger    *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(users UserStore, publisher *events.OrgPublisher, log *logger.Logger) *UserService {
	return &UserService{users: users, publisher: publisher, logger: log}
}

// UpdateUserRequest changes a profile. Name fields are open to the user
// themselves; role and status are admin-only.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	BaseRole  *string `json:"base_role" validate:"omitempty,oneof=admin superintendent engineer foreman worker"`
	IsActive  *bool   `json:"is_active"`
}

// List lists users of the caller's organization
func (s *UserService) List(ctx context.Context, params repository.UserListParams) ([]*repository.UserProfile, int64, error) {
	if _, err := requireOrg(ctx, permissions.UsersRead); err != nil {
		return nil, 0, err
	}
	if params.BaseRole != "" && !validRole(params.BaseRole, baseRoles...) {
		return nil, 0, errors.Validation(map[string]string{"role": "is invalid"})
	}
	return s.users.List(ctx, params)
}

// GetByID gets a user
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*repository.UserProfile, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

// Update applies req to a user
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req *UpdateUserRequest) (*repository.UserProfile, error) {
	a, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	admin := a.IsSystem() || permissions.HasPermission(permissions.ForBaseRole(a.BaseRole), permissions.UsersManage)
	self := a.ID == id

	if !admin && !self {
		return nil, errors.Forbidden("you can only edit your own profile")
	}
	if !admin && (req.BaseRole != nil || req.IsActive != nil) {
		return nil, errors.Forbidden("only organization admins may change role or status")
	}
	if self && ((req.BaseRole != nil && *req.BaseRole != actor.RoleAdmin && a.IsAdmin()) || (req.IsActive != nil && !*req.IsActive)) {
		return nil, errors.BadRequest("you cannot remove your own access")
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	problems := map[string]string{}
	if req.FirstName != nil {
		if u.FirstName = trimmed(*req.FirstName); u.FirstName == "" {
			problems["first_name"] = "is required"
		}
	}
	if req.LastName != nil {
		if u.LastName = trimmed(*req.LastName); u.LastName == "" {
			problems["last_name"] = "is required"
		}
	}
	if req.BaseRole != nil {
		if !validRole(*req.BaseRole, baseRoles...) {
			problems["base_role"] = "is invalid"
		}
		u.BaseRole = *req.BaseRole
	}
	if len(problems) > 0 {
		return nil, errors.Validation(problems)
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}

	s.publisher.UserUpdated(ctx, u)
	return u, nil
}

// Deactivate disables a user. Admins cannot deactivate themselves.
func (s *UserService) Deactivate(ctx context.Context, id uuid.UUID) error {
	a, err := requireOrg(ctx, permissions.UsersManage)
	if err != nil {
		return err
	}
	if a.ID == id {
		return errors.BadRequest("you cannot deactivate yourself")
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Deactivate(ctx, id); err != nil {
		return err
	}
	u.IsActive = false

	s.publisher.UserUpdated(ctx, u)
	s.logger.Info().Str("user_id", id.String()).Msg("user deactivated")
	return nil
}
