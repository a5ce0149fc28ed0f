package repository_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/testutil"
)

func TestTaskRepository_DeleteAssignmentsOn(t *testing.T) {
	t.Run("deletes the listed days", func(t *testing.T) {
		m := testutil.NewMockDB(t)
		a := &actor.Actor{ID: uuid.New(), OrganizationID: uuid.New(), BaseRole: actor.RoleAdmin}
		ctx := actor.WithActor(context.Background(), a)
		taskID := uuid.New()

		m.ExpectCallerBegin(a.ID)
		m.ExpectExec("WHERE task_id = $1 AND assignment_date = ANY($2::date[])").
			WithArgs(testutil.AnyUUID{}, "{\"2024-01-03\",\"2024-01-06\"}").
			WillReturnResult(sqlmock.NewResult(0, 3))
		m.ExpectCommit()

		n, err := repository.NewTaskRepository(m.DB).DeleteAssignmentsOn(ctx, taskID,
			[]domain.Date{domain.MustDate("2024-01-03"), domain.MustDate("2024-01-06")})
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("no days is a no-op", func(t *testing.T) {
		m := testutil.NewMockDB(t)

		n, err := repository.NewTaskRepository(m.DB).DeleteAssignmentsOn(context.Background(), uuid.New(), nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
