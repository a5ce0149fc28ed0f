package service

import (
	"context"

	"github.com/crewboard/crewboard-backend/internal/org/repository"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/logger"
	"github.com/crewboard/crewboard-backend/pkg/permissions"
)

// OrganizationService manages the caller's organization
type OrganizationService struct {
	orgs   OrganizationStore
	logger *logger.Logger
}

// NewOrganizationService creates a new organization service
func NewOrganizationService(orgs OrganizationStore, log *logger.Logger) *OrganizationService {
	return &OrganizationService{orgs: orgs, logger: log}
}

// RenameRequest renames the organization
type RenameRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// Current returns the caller's organization
func (s *OrganizationService) Current(ctx context.Context) (*repository.Organization, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	return s.orgs.Current(ctx)
}

// Rename changes the organization name
func (s *OrganizationService) Rename(ctx context.Context, req *RenameRequest) (*repository.Organization, error) {
	if _, err := requireOrg(ctx, permissions.OrgManage); err != nil {
		return nil, err
	}
	name := trimmed(req.Name)
	if name == "" {
		return nil, errors.Validation(map[string]string{"name": "is required"})
	}

	org, err := s.orgs.Current(ctx)
	if err != nil {
		return nil, err
	}
	org.Name = name
	if err := s.orgs.UpdateName(ctx, org); err != nil {
		return nil, err
	}

	s.logger.Info().Str("organization_id", org.ID.String()).Msg("organization renamed")
	return org, nil
}
