// Package events publishes scheduling change notifications.
package events

import (
	"context"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/logger"
	"github.com/crewboard/crewboard-backend/pkg/messaging"
)

// SchedulePublisher publishes schedule change events. Publishing failures
// are logged and never fail the request.
type SchedulePublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewSchedulePublisher wraps p; a nil p drops every event
func NewSchedulePublisher(p messaging.EventPublisher, log *logger.Logger) *SchedulePublisher {
	if p == nil {
		p = messaging.NoopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SchedulePublisher{publisher: p, logger: log}
}

func (p *SchedulePublisher) publish(ctx context.Context, eventType string, data messaging.ChangeEvent) {
	if a, ok := actor.FromContext(ctx); ok {
		data.ActorID = a.IDOrNil()
	}
	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().
			Err(err).
			Str("event_type", eventType).
			Str("entity_id", data.EntityID.String()).
			Msg("failed to publish schedule event")
	}
}

// WorkerChanged publishes worker.created|updated|deleted
func (p *SchedulePublisher) WorkerChanged(ctx context.Context, eventType string, w *repository.Worker) {
	p.publish(ctx, eventType, messaging.ChangeEvent{
		EntityID:       w.ID,
		OrganizationID: w.OrganizationID,
		JobSiteID:      w.JobSiteID,
	})
}

// TaskChanged publishes task.created|updated|deleted
func (p *SchedulePublisher) TaskChanged(ctx context.Context, eventType string, t *repository.Task) {
	site := t.JobSiteID
	p.publish(ctx, eventType, messaging.ChangeEvent{
		EntityID:       t.ID,
		OrganizationID: t.OrganizationID,
		JobSiteID:      &site,
		From:           t.StartDate.String(),
		To:             t.EndDate.String(),
	})
}

// TasksImported publishes one task.imported for a bulk import
func (p *SchedulePublisher) TasksImported(ctx context.Context, orgID, siteID uuid.UUID, count int) {
	p.publish(ctx, messaging.EventTaskImported, messaging.ChangeEvent{
		EntityID:       siteID,
		OrganizationID: orgID,
		JobSiteID:      &siteID,
		Count:          count,
	})
}

// AssignmentsChanged publishes assignment.created|deleted for a worker's
// days on a task
func (p *SchedulePublisher) AssignmentsChanged(ctx context.Context, eventType string, t *repository.Task, workerID uuid.UUID, from, to domain.Date, count int) {
	site := t.JobSiteID
	p.publish(ctx, eventType, messaging.ChangeEvent{
		EntityID:       workerID,
		OrganizationID: t.OrganizationID,
		JobSiteID:      &site,
		Count:          count,
		From:           from.String(),
		To:             to.String(),
	})
}

// HoursChanged publishes daily_hours.recorded|deleted
func (p *SchedulePublisher) HoursChanged(ctx context.Context, eventType string, h *repository.DailyHours) {
	site := h.JobSiteID
	p.publish(ctx, eventType, messaging.ChangeEvent{
		EntityID:       h.ID,
		OrganizationID: h.OrganizationID,
		JobSiteID:      &site,
		From:           h.WorkDate.String(),
		To:             h.WorkDate.String(),
	})
}

// HolidayChanged publishes holiday.changed
func (p *SchedulePublisher) HolidayChanged(ctx context.Context, h *repository.Holiday) {
	var org uuid.UUID
	if h.OrganizationID != nil {
		org = *h.OrganizationID
	}
	p.publish(ctx, messaging.EventHolidayChanged, messaging.ChangeEvent{
		EntityID:       h.ID,
		OrganizationID: org,
		From:           h.HolidayDate.String(),
		To:             h.HolidayDate.String(),
	})
}
