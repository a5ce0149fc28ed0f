package realtime

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/pkg/messaging"
)

// Forward is a messaging.MessageHandler that relays schedule events to the
// hub. Events without an organization are dropped.
func (h *Hub) Forward(_ context.Context, event *messaging.Event) error {
	var change messaging.ChangeEvent
	if err := event.UnmarshalData(&change); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}
	if change.OrganizationID == uuid.Nil {
		h.logger.Debug().Str("event_type", event.Type).Msg("event without organization, not forwarded")
		return nil
	}

	h.Broadcast(&Notification{
		Type:           event.Type,
		OrganizationID: change.OrganizationID,
		JobSiteID:      change.JobSiteID,
		ID:             change.EntityID,
	})
	return nil
}

// Subscribe binds consumer to every schedule event and forwards them
func (h *Hub) Subscribe(consumer *messaging.Consumer) error {
	if err := consumer.Subscribe(messaging.ExchangeSchedule, "#"); err != nil {
		return err
	}
	consumer.RegisterFallback(h.Forward)
	return nil
}
