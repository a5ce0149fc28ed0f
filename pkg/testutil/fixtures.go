package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/database"
)

// DefaultPassword is the plaintext password of every fixture user.
const DefaultPassword = "correct-horse-battery"

// Fixtures inserts rows on the owner connection, bypassing row-level
// security, so tests can arrange state for any organization.
type Fixtures struct {
	db  *database.DB
	seq atomic.Int64
}

// NewFixtures creates a fixture factory for db
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

func (f *Fixtures) next() int64 {
	return f.seq.Add(1)
}

// UserFixture is an inserted user profile
type UserFixture struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Email          string
	FirstName      string
	LastName       string
	BaseRole       string
}

// Actor returns the caller identity for u
func (u *UserFixture) Actor() *actor.Actor {
	return &actor.Actor{
		ID:             u.ID,
		OrganizationID: u.OrganizationID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		BaseRole:       u.BaseRole,
	}
}

// Organization inserts an organization with a unique slug
func (f *Fixtures) Organization(t *testing.T, name string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	slug := fmt.Sprintf("org-%d-%s", f.next(), uuid.NewString()[:8])
	err := f.db.QueryRowxContext(context.Background(),
		`INSERT INTO organizations (name, slug) VALUES ($1, $2) RETURNING id`, name, slug,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// User inserts an active user with DefaultPassword
func (f *Fixtures) User(t *testing.T, orgID uuid.UUID, baseRole string) *UserFixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	require.NoError(t, err)

	u := &UserFixture{
		OrganizationID: orgID,
		Email:          fmt.Sprintf("%s-%d-%s@example.test", baseRole, f.next(), uuid.NewString()[:8]),
		FirstName:      "Test",
		LastName:       baseRole,
		BaseRole:       baseRole,
	}
	err = f.db.QueryRowxContext(context.Background(), `
		INSERT INTO user_profiles (organization_id, email, password_hash, first_name, last_name, base_role)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		orgID, u.Email, string(hash), u.FirstName, u.LastName, baseRole,
	).Scan(&u.ID)
	require.NoError(t, err)
	return u
}

// JobSite inserts an active job site
func (f *Fixtures) JobSite(t *testing.T, orgID uuid.UUID, name string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := f.db.QueryRowxContext(context.Background(),
		`INSERT INTO job_sites (organization_id, name, code) VALUES ($1, $2, $3) RETURNING id`,
		orgID, name, fmt.Sprintf("JS-%d", f.next()),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// SiteRole binds user to site with a window that started yesterday
func (f *Fixtures) SiteRole(t *testing.T, u *UserFixture, siteID uuid.UUID, role string) uuid.UUID {
	t.Helper()
	return f.SiteRoleWindow(t, u, siteID, role, time.Now().AddDate(0, 0, -1), nil, true)
}

// SiteRoleWindow binds user to site with an explicit active window
func (f *Fixtures) SiteRoleWindow(t *testing.T, u *UserFixture, siteID uuid.UUID, role string, start time.Time, end *time.Time, active bool) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := f.db.QueryRowxContext(context.Background(), `
		INSERT INTO job_site_assignments (organization_id, user_id, job_site_id, site_role, start_date, end_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		u.OrganizationID, u.ID, siteID, role, start.Format("2006-01-02"), formatDatePtr(end), active,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// Worker inserts an active worker; siteID may be nil
func (f *Fixtures) Worker(t *testing.T, orgID uuid.UUID, siteID *uuid.UUID, role string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	n := f.next()
	err := f.db.QueryRowxContext(context.Background(), `
		INSERT INTO workers (organization_id, job_site_id, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		orgID, siteID, fmt.Sprintf("Worker%d", n), role, role,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// Task inserts a weekday task needing one laborer
func (f *Fixtures) Task(t *testing.T, orgID, siteID uuid.UUID, start, end time.Time) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := f.db.QueryRowxContext(context.Background(), `
		INSERT INTO tasks (organization_id, job_site_id, name, start_date, end_date, required_laborers)
		VALUES ($1, $2, $3, $4, $5, 1) RETURNING id`,
		orgID, siteID, fmt.Sprintf("Task %d", f.next()), start.Format("2006-01-02"), end.Format("2006-01-02"),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// Assignment inserts one assignment day
func (f *Fixtures) Assignment(t *testing.T, orgID, siteID, taskID, workerID uuid.UUID, day time.Time) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := f.db.QueryRowxContext(context.Background(), `
		INSERT INTO assignments (organization_id, job_site_id, task_id, worker_id, assignment_date)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		orgID, siteID, taskID, workerID, day.Format("2006-01-02"),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
