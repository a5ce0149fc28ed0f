package service

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/logger"
	"github.com/crewboard/crewboard-backend/pkg/messaging"
	"github.com/crewboard/crewboard-backend/pkg/tenant"
)

func newTaskService(e *env) *TaskService {
	return NewTaskService(e.tx, e.tasks, e.holidays, e.sites, e.cfg, e.publisher, logger.Nop())
}

func validTaskRequest() *TaskRequest {
	return &TaskRequest{
		Name:             "Frame level 2",
		StartDate:        "2024-01-01",
		EndDate:          "2024-01-12",
		RequiredLaborers: 2,
		RequiredMasons:   1,
	}
}

func TestTaskService_Create(t *testing.T) {
	t.Run("defaults to the selected site", func(t *testing.T) {
		e := newEnv(t)
		svc := newTaskService(e)
		ctx := tenant.WithJobSite(e.as("engineer", "engineer"), e.site)

		task, err := svc.Create(ctx, validTaskRequest())
		require.NoError(t, err)
		assert.Equal(t, e.site, task.JobSiteID)
		assert.Equal(t, DefaultTaskColor, task.Color)
		assert.Equal(t, "2024-01-12", task.EndDate.String())
		require.NotNil(t, task.CreatedBy)
		e.events.AssertEventPublished(t, messaging.EventTaskCreated)
	})

	t.Run("site required", func(t *testing.T) {
		e := newEnv(t)
		_, err := newTaskService(e).Create(e.as("admin", ""), validTaskRequest())
		requireStatus(t, err, http.StatusBadRequest)
	})

	t.Run("foreman cannot create", func(t *testing.T) {
		e := newEnv(t)
		req := validTaskRequest()
		req.JobSiteID = &e.site
		_, err := newTaskService(e).Create(e.as("foreman", "foreman"), req)
		requireStatus(t, err, http.StatusForbidden)
	})

	t.Run("end before start", func(t *testing.T) {
		e := newEnv(t)
		req := validTaskRequest()
		req.JobSiteID = &e.site
		req.EndDate = "2023-12-31"

		_, err := newTaskService(e).Create(e.as("admin", ""), req)
		requireStatus(t, err, http.StatusBadRequest)
		assert.Contains(t, errors.AsAppError(err).Details, "end_date")
		assert.Empty(t, e.tasks.created)
	})
}

func TestTaskService_Update_ShrinkRemovesAssignments(t *testing.T) {
	e := newEnv(t)
	svc := newTaskService(e)
	task := e.task("2024-01-01", "2024-01-31", domain.Requirements{Laborers: 1})
	e.tasks.trimResult = 4

	req := validTaskRequest()
	req.StartDate = "2024-01-08"
	req.EndDate = "2024-01-26"

	updated, err := svc.Update(e.as("superintendent", "superintendent"), task.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", updated.StartDate.String())
	require.Len(t, e.tasks.trimmed, 2)
	assert.Equal(t, "2024-01-08", e.tasks.trimmed[0].String())
	assert.Equal(t, "2024-01-26", e.tasks.trimmed[1].String())
	assert.Equal(t, 1, e.tx.calls)
	assert.Equal(t, []string{messaging.EventTaskUpdated, messaging.EventAssignmentDeleted}, e.events.Types())
}

func TestTaskService_Update_GrowKeepsAssignments(t *testing.T) {
	e := newEnv(t)
	svc := newTaskService(e)
	task := e.task("2024-01-08", "2024-01-12", domain.Requirements{})

	req := validTaskRequest()
	_, err := svc.Update(e.as("admin", ""), task.ID, req)
	require.NoError(t, err)
	assert.Nil(t, e.tasks.trimmed)
	assert.Equal(t, []string{messaging.EventTaskUpdated}, e.events.Types())
}

func TestTaskService_Update_NarrowedDayOptionsPruneAssignments(t *testing.T) {
	tests := []struct {
		name     string
		saturday bool
		holidays bool
		dropped  []string
	}{
		{"saturday and holidays off", true, true, []string{"2024-01-03", "2024-01-06"}},
		{"holidays off", false, true, []string{"2024-01-03"}},
		{"nothing was opted in", false, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			svc := newTaskService(e)
			task := e.task("2024-01-01", "2024-01-12", domain.Requirements{Laborers: 2})
			task.IncludeSaturday = tt.saturday
			task.IncludeHolidays = tt.holidays
			e.holidays.items = []*repository.Holiday{{ID: uuid.New(), HolidayDate: domain.MustDate("2024-01-03"), Name: "Local"}}

			_, err := svc.Update(e.as("admin", ""), task.ID, validTaskRequest())
			require.NoError(t, err)

			assert.Equal(t, tt.dropped, datesOrNil(e.tasks.dropped))
			assert.Nil(t, e.tasks.trimmed)
			assert.Equal(t, 1, e.tx.calls)
			if tt.dropped != nil {
				assert.Equal(t, []string{messaging.EventTaskUpdated, messaging.EventAssignmentDeleted}, e.events.Types())
			} else {
				assert.Equal(t, []string{messaging.EventTaskUpdated}, e.events.Types())
			}
		})
	}
}

func datesOrNil(ds []domain.Date) []string {
	if len(ds) == 0 {
		return nil
	}
	return dates(ds)
}

func TestTaskService_Update_CannotMoveSites(t *testing.T) {
	e := newEnv(t)
	task := e.task("2024-01-01", "2024-01-05", domain.Requirements{})
	req := validTaskRequest()
	req.JobSiteID = &e.otherSite

	_, err := newTaskService(e).Update(e.as("admin", ""), task.ID, req)
	requireStatus(t, err, http.StatusBadRequest)
}

func TestTaskService_Attachments(t *testing.T) {
	e := newEnv(t)
	svc := newTaskService(e)
	task := e.task("2024-01-01", "2024-01-05", domain.Requirements{})
	ctx := e.as("engineer", "engineer")

	att, err := svc.AddAttachment(ctx, task.ID, &AttachmentRequest{
		FileName:    "plans.pdf",
		SizeBytes:   2048,
		StoragePath: "org/plans.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", att.ContentType)
	assert.Equal(t, task.JobSiteID, att.JobSiteID)

	list, err := svc.ListAttachments(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.DeleteAttachment(ctx, uuid.New(), att.ID)
	requireStatus(t, err, http.StatusNotFound)

	removed, err := svc.DeleteAttachment(ctx, task.ID, att.ID)
	require.NoError(t, err)
	assert.Equal(t, "org/plans.pdf", removed.StoragePath)
}
