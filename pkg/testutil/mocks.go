package testutil

import (
	"context"
	"database/sql/driver"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/crewboard/crewboard-backend/pkg/database"
	"github.com/crewboard/crewboard-backend/pkg/logger"
)

// MockDB wraps sqlmock behind a *database.DB
type MockDB struct {
	DB   *database.DB
	Mock sqlmock.Sqlmock
}

// NewMockDB creates a mock database for repository unit tests. Queries are
// matched literally after regexp quoting.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	m := &MockDB{
		DB:   database.Wrap(sqlx.NewDb(db, "postgres"), logger.Nop()),
		Mock: mock,
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled mock expectations: %v", err)
		}
		_ = db.Close()
	})
	return m
}

// ExpectCallerBegin expects the transaction prologue of WithCallerRLS
func (m *MockDB) ExpectCallerBegin(userID uuid.UUID) {
	m.Mock.ExpectBegin()
	m.Mock.ExpectExec(regexp.QuoteMeta("SET LOCAL ROLE " + database.AppRole)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	m.Mock.ExpectExec(regexp.QuoteMeta("SELECT set_config('app.current_user_id', $1, true)")).
		WithArgs(userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

// ExpectQuery sets up an expected literal query
func (m *MockDB) ExpectQuery(query string) *sqlmock.ExpectedQuery {
	return m.Mock.ExpectQuery(regexp.QuoteMeta(query))
}

// ExpectExec sets up an expected literal exec
func (m *MockDB) ExpectExec(query string) *sqlmock.ExpectedExec {
	return m.Mock.ExpectExec(regexp.QuoteMeta(query))
}

// ExpectCommit sets up an expected commit
func (m *MockDB) ExpectCommit() *sqlmock.ExpectedCommit {
	return m.Mock.ExpectCommit()
}

// ExpectRollback sets up an expected rollback
func (m *MockDB) ExpectRollback() *sqlmock.ExpectedRollback {
	return m.Mock.ExpectRollback()
}

// MockRows creates a new mock rows object
func MockRows(columns ...string) *sqlmock.Rows {
	return sqlmock.NewRows(columns)
}

// AnyTime is a matcher for any time.Time value
type AnyTime struct{}

// Match satisfies the sqlmock.Argument interface
func (AnyTime) Match(v driver.Value) bool {
	_, ok := v.(time.Time)
	return ok
}

// AnyUUID matches a uuid in its string form
type AnyUUID struct{}

// Match satisfies the sqlmock.Argument interface
func (AnyUUID) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// PublishedEvent represents an event that was published
type PublishedEvent struct {
	Type    string
	Payload interface{}
}

// MockPublisher records published events
type MockPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
	Err    error
}

// NewMockPublisher creates a new mock publisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records an event for later verification
func (m *MockPublisher) Publish(_ context.Context, eventType string, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, PublishedEvent{Type: eventType, Payload: payload})
	return m.Err
}

// Events returns a copy of the recorded events
func (m *MockPublisher) Events() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedEvent(nil), m.events...)
}

// Types returns the recorded event types in order
func (m *MockPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.events))
	for i, e := range m.events {
		types[i] = e.Type
	}
	return types
}

// AssertEventPublished checks if an event of the given type was published
func (m *MockPublisher) AssertEventPublished(t *testing.T, eventType string) {
	t.Helper()
	for _, typ := range m.Types() {
		if typ == eventType {
			return
		}
	}
	t.Errorf("expected event %q to be published, got %v", eventType, m.Types())
}

// AssertNoEventsPublished checks that no events were published
func (m *MockPublisher) AssertNoEventsPublished(t *testing.T) {
	t.Helper()
	if types := m.Types(); len(types) > 0 {
		t.Errorf("expected no events, got %v", types)
	}
}
