package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/internal/schedule/events"
	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/logger"
	"github.com/crewboard/crewboard-backend/pkg/messaging"
	"github.com/crewboard/crewboard-backend/pkg/testutil"
)

func TestTaskChanged_CarriesScopeAndActor(t *testing.T) {
	mock := testutil.NewMockPublisher()
	p := events.NewSchedulePublisher(mock, logger.Nop())

	caller := &actor.Actor{ID: uuid.New(), OrganizationID: uuid.New(), BaseRole: actor.RoleEngineer}
	ctx := actor.WithActor(context.Background(), caller)

	task := &repository.Task{
		ID:             uuid.New(),
		OrganizationID: caller.OrganizationID,
		JobSiteID:      uuid.New(),
		StartDate:      domain.MustDate("2024-05-06"),
		EndDate:        domain.MustDate("2024-05-10"),
	}
	p.TaskChanged(ctx, messaging.EventTaskUpdated, task)

	published := mock.Events()
	require.Len(t, published, 1)
	assert.Equal(t, messaging.EventTaskUpdated, published[0].Type)

	change, ok := published[0].Payload.(messaging.ChangeEvent)
	require.True(t, ok)
	assert.Equal(t, task.ID, change.EntityID)
	assert.Equal(t, task.OrganizationID, change.OrganizationID)
	require.NotNil(t, change.JobSiteID)
	assert.Equal(t, task.JobSiteID, *change.JobSiteID)
	require.NotNil(t, change.ActorID)
	assert.Equal(t, caller.ID, *change.ActorID)
	assert.Equal(t, "2024-05-06", change.From)
	assert.Equal(t, "2024-05-10", change.To)
}

func TestHolidayChanged_GlobalHasNoOrganization(t *testing.T) {
	mock := testutil.NewMockPublisher()
	p := events.NewSchedulePublisher(mock, logger.Nop())

	p.HolidayChanged(context.Background(), &repository.Holiday{ID: uuid.New(), HolidayDate: domain.MustDate("2024-12-25")})

	require.Len(t, mock.Events(), 1)
	change := mock.Events()[0].Payload.(messaging.ChangeEvent)
	assert.Equal(t, uuid.Nil, change.OrganizationID)
	assert.Nil(t, change.ActorID)
	assert.Equal(t, "2024-12-25", change.From)
}

func TestPublishFailureDoesNotPanic(t *testing.T) {
	mock := testutil.NewMockPublisher()
	mock.Err = errors.New("broker down")
	p := events.NewSchedulePublisher(mock, logger.Nop())

	site := uuid.New()
	assert.NotPanics(t, func() {
		p.TasksImported(context.Background(), uuid.New(), site, 12)
	})
	mock.AssertEventPublished(t, messaging.EventTaskImported)
	assert.Equal(t, 12, mock.Events()[0].Payload.(messaging.ChangeEvent).Count)
}

func TestNilPublisherDropsEvents(t *testing.T) {
	p := events.NewSchedulePublisher(nil, nil)
	assert.NotPanics(t, func() {
		p.WorkerChanged(context.Background(), messaging.EventWorkerCreated, &repository.Worker{ID: uuid.New()})
	})
}
