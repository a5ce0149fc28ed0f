package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/org/events"
	"github.com/crewboard/crewboard-backend/internal/org/repository"
	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/logger"
	"github.com/crewboard/crewboard-backend/pkg/permissions"
)

var siteRoles = []string{"superintendent", "engineer", "foreman", "worker"}

// SiteAssignmentService manages who works on which job site
type SiteAssignmentService struct {
	assignments SiteAssignmentStore
	publisher   *events.OrgPublisher
	logger      *logger.Logger
}

// NewSiteAssignmentService creates a new site assignment service
func NewSiteAssignmentService(assignments SiteAssignmentStore, publisher *events.OrgPublisher, log *logger.Logger) *SiteAssignmentService {
	return &SiteAssignmentService{assignments: assignments, publisher: publisher, logger: log}
}

// SiteAssignmentRequest binds a user to a site. Site roles never include
// admin; admin is a base role only.
type SiteAssignmentRequest struct {
	UserID    uuid.UUID `json:"user_id" validate:"required"`
	JobSiteID uuid.UUID `json:"job_site_id" validate:"required"`
	SiteRole  string    `json:"site_role" validate:"required"`
	StartDate string    `json:"start_date" validate:"omitempty,date"`
	EndDate   string    `json:"end_date" validate:"omitempty,date"`
	IsActive  *bool     `json:"is_active"`
}

// List lists site assignments by site or user
func (s *SiteAssignmentService) List(ctx context.Context, params repository.SiteAssignmentListParams) ([]*repository.SiteAssignment, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	return s.assignments.List(ctx, params)
}

// Create binds a user to a job site
func (s *SiteAssignmentService) Create(ctx context.Context, req *SiteAssignmentRequest) (*repository.SiteAssignment, error) {
	a, err := requireOrg(ctx, permissions.UsersManage)
	if err != nil {
		return nil, err
	}

	item := &repository.SiteAssignment{
		OrganizationID: a.OrganizationID,
		UserID:         req.UserID,
		JobSiteID:      req.JobSiteID,
		StartDate:      domain.NewDate(domain.Today()),
		IsActive:       true,
	}
	if problems := applySiteAssignment(item, req); len(problems) > 0 {
		return nil, errors.Validation(problems)
	}
	if err := s.assignments.Create(ctx, item); err != nil {
		return nil, err
	}

	s.publisher.SiteAssignmentChanged(ctx, item)
	s.logger.Info().
		Str("user_id", item.UserID.String()).
		Str("job_site_id", item.JobSiteID.String()).
		Str("site_role", item.SiteRole).
		Msg("site assignment created")
	return item, nil
}

// Update changes role, window or status. User and site are fixed.
func (s *SiteAssignmentService) Update(ctx context.Context, id uuid.UUID, req *SiteAssignmentRequest) (*repository.SiteAssignment, error) {
	if _, err := requireOrg(ctx, permissions.UsersManage); err != nil {
		return nil, err
	}

	item, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.UserID != item.UserID || req.JobSiteID != item.JobSiteID {
		return nil, errors.BadRequest("user and job site of an assignment cannot change")
	}
	if problems := applySiteAssignment(item, req); len(problems) > 0 {
		return nil, errors.Validation(problems)
	}
	if err := s.assignments.Update(ctx, item); err != nil {
		return nil, err
	}

	s.publisher.SiteAssignmentChanged(ctx, item)
	return item, nil
}

// End deactivates an assignment, closing its window today
func (s *SiteAssignmentService) End(ctx context.Context, id uuid.UUID) (*repository.SiteAssignment, error) {
	if _, err := requireOrg(ctx, permissions.UsersManage); err != nil {
		return nil, err
	}

	item, err := s.assignments.End(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publisher.SiteAssignmentChanged(ctx, item)
	return item, nil
}

func applySiteAssignment(item *repository.SiteAssignment, req *SiteAssignmentRequest) map[string]string {
	problems := map[string]string{}

	if !validRole(req.SiteRole, siteRoles...) {
		problems["site_role"] = "must be one of: superintendent engineer foreman worker"
	}

	start := item.StartDate
	if req.StartDate != "" {
		d, err := optionalDate(req.StartDate)
		if err != nil {
			problems["start_date"] = err.Error()
		} else {
			start = *d
		}
	}
	end, err := optionalDate(req.EndDate)
	if err != nil {
		problems["end_date"] = err.Error()
	}
	if end != nil && end.Before(start.Time) {
		problems["end_date"] = "must not be before start_date"
	}
	if len(problems) > 0 {
		return problems
	}

	item.SiteRole = req.SiteRole
	item.StartDate = start
	item.EndDate = end
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	return nil
}
