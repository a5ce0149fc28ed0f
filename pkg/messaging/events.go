package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExchangeSchedule carries every scheduling change event.
const ExchangeSchedule = "schedule.events"

// Event types double as routing keys: <entity>.<action>.
const (
	EventJobSiteCreated = "job_site.created"
	EventJobSiteUpdated = "job_site.updated"
	EventJobSiteDeleted = "job_site.deleted"

	EventSiteAssignmentChanged = "job_site_assignment.changed"
	EventUserUpdated           = "user.updated"
	EventUserInvited           = "user.invited"
	EventUserJoined            = "user.joined"

	EventWorkerCreated = "worker.created"
	EventWorkerUpdated = "worker.updated"
	EventWorkerDeleted = "worker.deleted"

	EventTaskCreated  = "task.created"
	EventTaskUpdated  = "task.updated"
	EventTaskDeleted  = "task.deleted"
	EventTaskImported = "task.imported"

	EventAssignmentCreated = "assignment.created"
	EventAssignmentDeleted = "assignment.deleted"

	EventDailyHoursRecorded = "daily_hours.recorded"
	EventDailyHoursDeleted  = "daily_hours.deleted"

	EventHolidayChanged = "holiday.changed"
)

// Event is the envelope for all published events
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ChangeEvent is the payload of every schedule event. It names the changed
// row and its scope but carries no row data: consumers re-read through
// row-level security.
type ChangeEvent struct {
	EntityID       uuid.UUID  `json:"entity_id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	JobSiteID      *uuid.UUID `json:"job_site_id,omitempty"`
	ActorID        *uuid.UUID `json:"actor_id,omitempty"`
	// Count is set by bulk operations (imports, multi-day assignments).
	Count int `json:"count,omitempty"`
	// From and To bound the affected dates for date-grained changes.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}
