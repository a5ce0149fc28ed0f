// Package events publishes organization and job-site change notifications.
package events

import (
	"context"

	"github.com/crewboard/crewboard-backend/internal/org/repository"
	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/logger"
	"github.com/crewboard/crewboard-backend/pkg/messaging"
)

// OrgPublisher publishes organization events. Failures are logged only.
type OrgPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewOrgPublisher wraps p; a nil p drops every event
func NewOrgPublisher(p messaging.EventPublisher, log *logger.Logger) *OrgPublisher {
	if p == nil {
		p = messaging.NoopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OrgPublisher{publisher: p, logger: log}
}

func (p *OrgPublisher) publish(ctx context.Context, eventType string, data messaging.ChangeEvent) {
	if a, ok := actor.FromContext(ctx); ok {
		data.ActorID = a.IDOrNil()
	}
	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().
			Err(err).
			Str("event_type", eventType).
			Str("entity_id", data.EntityID.String()).
			Msg("failed to publish organization event")
	}
}

// JobSiteChanged publishes job_site.created|updated|deleted
func (p *OrgPublisher) JobSiteChanged(ctx context.Context, eventType string, s *repository.JobSite) {
	site := s.ID
	p.publish(ctx, eventType, messaging.ChangeEvent{
		EntityID:       s.ID,
		OrganizationID: s.OrganizationID,
		JobSiteID:      &site,
	})
}

// SiteAssignmentChanged publishes job_site_assignment.changed. Realtime
// clients of the user reconnect to pick up their new visibility.
func (p *OrgPublisher) SiteAssignmentChanged(ctx context.Context, a *repository.SiteAssignment) {
	site := a.JobSiteID
	p.publish(ctx, messaging.EventSiteAssignmentChanged, messaging.ChangeEvent{
		EntityID:       a.UserID,
		OrganizationID: a.OrganizationID,
		JobSiteID:      &site,
	})
}

// UserUpdated publishes user.updated
func (p *OrgPublisher) UserUpdated(ctx context.Context, u *repository.UserProfile) {
	p.publish(ctx, messaging.EventUserUpdated, messaging.ChangeEvent{
		EntityID:       u.ID,
		OrganizationID: u.OrganizationID,
	})
}
