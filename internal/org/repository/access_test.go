package repository_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewboard/crewboard-backend/internal/org/repository"
	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/testutil"
)

func callerCtx() (context.Context, *actor.Actor) {
	a := &actor.Actor{ID: uuid.New(), OrganizationID: uuid.New(), BaseRole: actor.RoleForeman}
	return actor.WithActor(context.Background(), a), a
}

func TestAccessRepository_SiteRole(t *testing.T) {
	tests := []struct {
		name string
		row  interface{}
		want string
	}{
		{"assigned", "foreman", "foreman"},
		{"no access", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testutil.NewMockDB(t)
			ctx, a := callerCtx()
			site := uuid.New()

			m.ExpectCallerBegin(a.ID)
			m.ExpectQuery("SELECT get_user_site_role($1)").
				WithArgs(site.String()).
				WillReturnRows(testutil.MockRows("get_user_site_role").AddRow(tt.row))
			m.ExpectCommit()

			role, err := repository.NewAccessRepository(m.DB).SiteRole(ctx, site)
			require.NoError(t, err)
			assert.Equal(t, tt.want, role)
		})
	}
}

func TestAccessRepository_JobSiteNameHidden(t *testing.T) {
	m := testutil.NewMockDB(t)
	ctx, a := callerCtx()

	m.ExpectCallerBegin(a.ID)
	m.ExpectQuery("SELECT name FROM job_sites WHERE id = $1").
		WithArgs(testutil.AnyUUID{}).
		WillReturnRows(testutil.MockRows("name"))
	m.ExpectRollback()

	_, err := repository.NewAccessRepository(m.DB).JobSiteName(ctx, uuid.New())
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errors.AsAppError(err).StatusCode)
}

func TestAccessRepository_VisibleSiteIDs(t *testing.T) {
	m := testutil.NewMockDB(t)
	ctx, a := callerCtx()
	first, second := uuid.New(), uuid.New()

	m.ExpectCallerBegin(a.ID)
	m.ExpectQuery("SELECT get_user_job_site_ids()::text[]").
		WillReturnRows(testutil.MockRows("ids").AddRow("{" + first.String() + "," + second.String() + "}"))
	m.ExpectCommit()

	ids, err := repository.NewAccessRepository(m.DB).VisibleSiteIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second}, ids)
}

func TestAccessRepository_SiteRoles(t *testing.T) {
	m := testutil.NewMockDB(t)
	ctx, a := callerCtx()
	mine, other := uuid.New(), uuid.New()

	m.ExpectCallerBegin(a.ID)
	m.ExpectQuery("SELECT id, get_user_site_role(id) AS role FROM job_sites ORDER BY name").
		WillReturnRows(testutil.MockRows("id", "role").
			AddRow(mine.String(), "engineer").
			AddRow(other.String(), nil))
	m.ExpectCommit()

	roles, err := repository.NewAccessRepository(m.DB).SiteRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]string{mine: "engineer"}, roles)
}

func TestAccessRepository_RequiresCaller(t *testing.T) {
	m := testutil.NewMockDB(t)

	_, err := repository.NewAccessRepository(m.DB).IsAdmin(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, errors.AsAppError(err).StatusCode)
}
