package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/database"
	"github.com/crewboard/crewboard-backend/pkg/logger"
)

var (
	// Shared across all integration tests of a test binary
	globalContainer *PostgresContainer
	globalDB        *database.DB
	containerOnce   sync.Once
	containerErr    error
)

// IntegrationSuite is a migrated PostgreSQL plus fixture helpers.
//
// Usage:
//
//	var suite *testutil.IntegrationSuite
//
//	func TestMain(m *testing.M) {
//	    flag.Parse()
//	    if !testing.Short() {
//	        suite = testutil.MustIntegrationSuite(context.Background())
//	        defer testutil.TerminateContainer(context.Background())
//	    }
//	    os.Exit(m.Run())
//	}
type IntegrationSuite struct {
	Container *PostgresContainer
	DB        *database.DB
	Fixtures  *Fixtures
	Logger    *logger.Logger
}

// NewIntegrationSuite starts (or reuses) the container and applies the
// embedded migrations.
func NewIntegrationSuite(ctx context.Context) (*IntegrationSuite, error) {
	containerOnce.Do(func() {
		globalContainer, containerErr = NewPostgresContainer(ctx, DefaultPostgresConfig())
		if containerErr != nil {
			return
		}
		sqlxDB, err := globalContainer.Connect(ctx)
		if err != nil {
			containerErr = err
			return
		}
		globalDB = database.Wrap(sqlxDB, logger.Nop())
		if _, err := globalDB.Migrate(ctx); err != nil {
			containerErr = fmt.Errorf("failed to migrate test database: %w", err)
		}
	})
	if containerErr != nil {
		return nil, containerErr
	}

	return &IntegrationSuite{
		Container: globalContainer,
		DB:        globalDB,
		Fixtures:  NewFixtures(globalDB),
		Logger:    logger.Nop(),
	}, nil
}

// MustIntegrationSuite panics when the suite cannot start.
func MustIntegrationSuite(ctx context.Context) *IntegrationSuite {
	s, err := NewIntegrationSuite(ctx)
	if err != nil {
		panic(err)
	}
	return s
}

// As returns a context carrying u as the authenticated caller.
func (s *IntegrationSuite) As(u *UserFixture) context.Context {
	return actor.WithActor(context.Background(), u.Actor())
}

// Require skips t in short mode and fails it when the suite is missing.
func (s *IntegrationSuite) Require(t *testing.T) {
	t.Helper()
	SkipIfShort(t)
	if s == nil {
		t.Fatal("integration suite not initialised")
	}
}

// TerminateContainer terminates the shared container.
// Only call this in TestMain after all tests have completed.
func TerminateContainer(ctx context.Context) {
	if globalContainer != nil {
		_ = globalContainer.Terminate(ctx)
	}
}
