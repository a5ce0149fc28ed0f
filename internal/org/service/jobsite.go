package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/org/events"
	"github.com/crewboard/crewboard-backend/internal/org/repository"
	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/logger"
	"github.com/crewboard/crewboard-backend/pkg/messaging"
	"github.com/crewboard/crewboard-backend/pkg/permissions"
)

// JobSiteService manages job sites
type JobSiteService struct {
	sites     JobSiteStore
	publisher *events.OrgPublisher
	logger    *logger.Logger
}

// NewJobSiteService creates a new job site service
func NewJobSiteService(sites JobSiteStore, publisher *events.OrgPublisher, log *logger.Logger) *JobSiteService {
	return &JobSiteService{sites: sites, publisher: publisher, logger: log}
}

// JobSiteRequest is the payload for creating or updating a job site
type JobSiteRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Code      string `json:"code" validate:"max=50"`
	Address   string `json:"address" validate:"max=500"`
	Status    string `json:"status" validate:"omitempty,oneof=active on_hold completed"`
	StartDate string `json:"start_date" validate:"omitempty,date"`
	EndDate   string `json:"end_date" validate:"omitempty,date"`
}

// List lists the job sites visible to the caller
func (s *JobSiteService) List(ctx context.Context, params repository.JobSiteListParams) ([]*repository.JobSite, int64, error) {
	if _, err := caller(ctx); err != nil {
		return nil, 0, err
	}
	if params.Status != nil && !params.Status.Valid() {
		return nil, 0, errors.Validation(map[string]string{"status": "must be one of: active on_hold completed"})
	}
	return s.sites.List(ctx, params)
}

// GetByID gets a visible job site
func (s *JobSiteService) GetByID(ctx context.Context, id uuid.UUID) (*repository.JobSite, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	return s.sites.GetByID(ctx, id)
}

// Create creates a job site in the caller's organization
func (s *JobSiteService) Create(ctx context.Context, req *JobSiteRequest) (*repository.JobSite, error) {
	a, err := requireOrg(ctx, permissions.SitesManage)
	if err != nil {
		return nil, err
	}

	site := &repository.JobSite{OrganizationID: a.OrganizationID, Status: domain.SiteActive}
	if problems := applyJobSite(site, req); len(problems) > 0 {
		return nil, errors.Validation(problems)
	}
	if err := s.sites.Create(ctx, site); err != nil {
		return nil, err
	}

	s.publisher.JobSiteChanged(ctx, messaging.EventJobSiteCreated, site)
	s.logger.Info().Str("job_site_id", site.ID.String()).Msg("job site created")
	return site, nil
}

// Update updates a job site
func (s *JobSiteService) Update(ctx context.Context, id uuid.UUID, req *JobSiteRequest) (*repository.JobSite, error) {
	if _, err := requireOrg(ctx, permissions.SitesManage); err != nil {
		return nil, err
	}

	site, err := s.sites.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if problems := applyJobSite(site, req); len(problems) > 0 {
		return nil, errors.Validation(problems)
	}
	if err := s.sites.Update(ctx, site); err != nil {
		return nil, err
	}

	s.publisher.JobSiteChanged(ctx, messaging.EventJobSiteUpdated, site)
	return site, nil
}

// Delete deletes a job site with its schedule
func (s *JobSiteService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := requireOrg(ctx, permissions.SitesManage); err != nil {
		return err
	}

	site, err := s.sites.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.sites.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.JobSiteChanged(ctx, messaging.EventJobSiteDeleted, site)
	s.logger.Info().Str("job_site_id", id.String()).Msg("job site deleted")
	return nil
}

func applyJobSite(site *repository.JobSite, req *JobSiteRequest) map[string]string {
	problems := map[string]string{}

	name := trimmed(req.Name)
	if name == "" {
		problems["name"] = "is required"
	}

	status := site.Status
	if req.Status != "" {
		status = domain.SiteStatus(req.Status)
	}
	if !status.Valid() {
		problems["status"] = "must be one of: active on_hold completed"
	}

	start, err := optionalDate(req.StartDate)
	if err != nil {
		problems["start_date"] = err.Error()
	}
	end, err := optionalDate(req.EndDate)
	if err != nil {
		problems["end_date"] = err.Error()
	}
	if start != nil && end != nil && end.Before(start.Time) {
		problems["end_date"] = "must not be before start_date"
	}
	if len(problems) > 0 {
		return problems
	}

	site.Name = name
	site.Code = trimmed(req.Code)
	site.Address = trimmed(req.Address)
	site.Status = status
	site.StartDate = start
	site.EndDate = end
	return nil
}

func optionalDate(s string) (*domain.Date, error) {
	if s == "" {
		return nil, nil
	}
	t, err := domain.ParseDate(s)
	if err != nil {
		return nil, err
	}
	d := domain.NewDate(t)
	return &d, nil
}
