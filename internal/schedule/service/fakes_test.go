package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/internal/schedule/events"
	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/config"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/logger"
	"github.com/crewboard/crewboard-backend/pkg/testutil"
)

// ============================================================================
// FAKE STORES
// ============================================================================

type fakeTx struct{ calls int }

type fakeTxKey struct{}

// WithActor numbers each transaction; nested calls join the outer one
func (f *fakeTx) WithActor(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := ctx.Value(fakeTxKey{}).(int); ok {
		return fn(ctx)
	}
	f.calls++
	return fn(context.WithValue(ctx, fakeTxKey{}, f.calls))
}

// txTag labels a store call with the transaction it ran in, 0 for none
func txTag(ctx context.Context, op string) string {
	n, _ := ctx.Value(fakeTxKey{}).(int)
	return fmt.Sprintf("%s:%d", op, n)
}

type fakeSites struct {
	roles map[uuid.UUID]string
	names map[uuid.UUID]string
}

func (f *fakeSites) SiteRole(_ context.Context, siteID uuid.UUID) (string, error) {
	return f.roles[siteID], nil
}

func (f *fakeSites) JobSiteName(_ context.Context, siteID uuid.UUID) (string, error) {
	name, ok := f.names[siteID]
	if !ok {
		return "", errors.NotFound("job_site")
	}
	return name, nil
}

type fakeWorkers struct {
	items       map[uuid.UUID]*repository.Worker
	history     map[uuid.UUID]bool
	deleted     []uuid.UUID
	deactivated []uuid.UUID
	calls       []string
}

func newFakeWorkers(ws ...*repository.Worker) *fakeWorkers {
	f := &fakeWorkers{items: map[uuid.UUID]*repository.Worker{}, history: map[uuid.UUID]bool{}}
	for _, w := range ws {
		f.items[w.ID] = w
	}
	return f
}

func (f *fakeWorkers) Create(_ context.Context, w *repository.Worker) error {
	w.ID = uuid.New()
	f.items[w.ID] = w
	return nil
}

func (f *fakeWorkers) GetByID(_ context.Context, id uuid.UUID) (*repository.Worker, error) {
	w, ok := f.items[id]
	if !ok {
		return nil, errors.NotFound("worker")
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWorkers) List(_ context.Context, params repository.WorkerListParams) ([]*repository.Worker, int64, error) {
	var out []*repository.Worker
	for _, w := range f.items {
		if params.JobSiteID != nil && (w.JobSiteID == nil || *w.JobSiteID != *params.JobSiteID) {
			continue
		}
		out = append(out, w)
	}
	return out, int64(len(out)), nil
}

func (f *fakeWorkers) ListForSite(_ context.Context, siteID uuid.UUID) ([]*repository.Worker, error) {
	var out []*repository.Worker
	for _, w := range f.items {
		if w.IsActive && workerSiteOK(w, siteID) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	return out, nil
}

func (f *fakeWorkers) GetMany(_ context.Context, ids []uuid.UUID) ([]*repository.Worker, error) {
	var out []*repository.Worker
	for _, id := range ids {
		if w, ok := f.items[id]; ok {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeWorkers) Update(_ context.Context, w *repository.Worker) error {
	f.items[w.ID] = w
	return nil
}

func (f *fakeWorkers) Deactivate(ctx context.Context, id uuid.UUID) error {
	f.calls = append(f.calls, txTag(ctx, "deactivate"))
	f.deactivated = append(f.deactivated, id)
	f.items[id].IsActive = false
	return nil
}

func (f *fakeWorkers) Delete(ctx context.Context, id uuid.UUID) error {
	f.calls = append(f.calls, txTag(ctx, "delete"))
	f.deleted = append(f.deleted, id)
	delete(f.items, id)
	return nil
}

func (f *fakeWorkers) HasHistory(ctx context.Context, id uuid.UUID) (bool, error) {
	f.calls = append(f.calls, txTag(ctx, "has_history"))
	return f.history[id], nil
}

type fakeTasks struct {
	items       map[uuid.UUID]*repository.Task
	created     []*repository.Task
	createErr   error
	failAt      int
	trimmed     []domain.Date
	dropped     []domain.Date
	trimResult  int64
	attachments map[uuid.UUID]*repository.Attachment
}

func newFakeTasks(ts ...*repository.Task) *fakeTasks {
	f := &fakeTasks{items: map[uuid.UUID]*repository.Task{}, attachments: map[uuid.UUID]*repository.Attachment{}, failAt: -1}
	for _, t := range ts {
		f.items[t.ID] = t
	}
	return f
}

func (f *fakeTasks) Create(_ context.Context, t *repository.Task) error {
	t.ID = uuid.New()
	f.items[t.ID] = t
	f.created = append(f.created, t)
	return nil
}

func (f *fakeTasks) CreateMany(ctx context.Context, tasks []*repository.Task) (int, error) {
	if f.createErr != nil {
		return f.failAt, f.createErr
	}
	for _, t := range tasks {
		_ = f.Create(ctx, t)
	}
	return -1, nil
}

func (f *fakeTasks) GetByID(_ context.Context, id uuid.UUID) (*repository.Task, error) {
	t, ok := f.items[id]
	if !ok {
		return nil, errors.NotFound("task")
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTasks) List(_ context.Context, params repository.TaskListParams) ([]*repository.Task, error) {
	var out []*repository.Task
	for _, t := range f.items {
		if params.JobSiteID != nil && t.JobSiteID != *params.JobSiteID {
			continue
		}
		if params.To != nil && t.StartDate.After(params.To.Time) {
			continue
		}
		if params.From != nil && t.EndDate.Before(params.From.Time) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTasks) Update(_ context.Context, t *repository.Task) error {
	f.items[t.ID] = t
	return nil
}

func (f *fakeTasks) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.items, id)
	return nil
}

func (f *fakeTasks) DeleteAssignmentsOutside(_ context.Context, _ uuid.UUID, start, end domain.Date) (int64, error) {
	f.trimmed = []domain.Date{start, end}
	return f.trimResult, nil
}

func (f *fakeTasks) DeleteAssignmentsOn(_ context.Context, _ uuid.UUID, days []domain.Date) (int64, error) {
	f.dropped = append(f.dropped, days...)
	return int64(len(days)), nil
}

func (f *fakeTasks) CreateAttachment(_ context.Context, a *repository.Attachment) error {
	a.ID = uuid.New()
	f.attachments[a.ID] = a
	return nil
}

func (f *fakeTasks) ListAttachments(_ context.Context, taskID uuid.UUID) ([]*repository.Attachment, error) {
	var out []*repository.Attachment
	for _, a := range f.attachments {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeTasks) DeleteAttachment(_ context.Context, taskID, id uuid.UUID) (*repository.Attachment, error) {
	a, ok := f.attachments[id]
	if !ok || a.TaskID != taskID {
		return nil, errors.NotFound("attachment")
	}
	delete(f.attachments, id)
	return a, nil
}

type fakeAssignments struct {
	items    []*repository.Assignment
	bookings []repository.Booking
	created  [][]domain.Date
}

func (f *fakeAssignments) CreateDays(_ context.Context, base repository.Assignment, days []domain.Date) ([]*repository.Assignment, error) {
	f.created = append(f.created, days)
	out := make([]*repository.Assignment, 0, len(days))
	for _, d := range days {
		a := base
		a.ID = uuid.New()
		a.AssignmentDate = d
		f.items = append(f.items, &a)
		out = append(out, &a)
	}
	return out, nil
}

func (f *fakeAssignments) BookedDays(_ context.Context, workerID, taskID uuid.UUID, from, to domain.Date) ([]domain.Date, error) {
	var out []domain.Date
	for _, a := range f.items {
		if a.WorkerID == workerID && a.TaskID == taskID &&
			!a.AssignmentDate.Before(from.Time) && !a.AssignmentDate.After(to.Time) {
			out = append(out, a.AssignmentDate)
		}
	}
	return out, nil
}

func (f *fakeAssignments) Bookings(_ context.Context, workerID, excludeTaskID uuid.UUID, days []domain.Date) ([]repository.Booking, error) {
	want := map[string]bool{}
	for _, d := range days {
		want[d.String()] = true
	}
	var out []repository.Booking
	for _, b := range f.bookings {
		if b.TaskID != excludeTaskID && want[b.AssignmentDate.String()] {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeAssignments) GetByID(_ context.Context, id uuid.UUID) (*repository.Assignment, error) {
	for _, a := range f.items {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, errors.NotFound("assignment")
}

func (f *fakeAssignments) List(_ context.Context, params repository.AssignmentListParams) ([]*repository.Assignment, error) {
	var out []*repository.Assignment
	for _, a := range f.items {
		if params.JobSiteID != nil && a.JobSiteID != *params.JobSiteID {
			continue
		}
		if params.From != nil && a.AssignmentDate.Before(params.From.Time) {
			continue
		}
		if params.To != nil && a.AssignmentDate.After(params.To.Time) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAssignments) Delete(ctx context.Context, id uuid.UUID) (*repository.Assignment, error) {
	for i, a := range f.items {
		if a.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return a, nil
		}
	}
	return nil, errors.NotFound("assignment")
}

func (f *fakeAssignments) DeleteRange(_ context.Context, workerID, taskID uuid.UUID, from, to domain.Date) (int64, error) {
	var keep []*repository.Assignment
	var n int64
	for _, a := range f.items {
		if a.WorkerID == workerID && a.TaskID == taskID &&
			!a.AssignmentDate.Before(from.Time) && !a.AssignmentDate.After(to.Time) {
			n++
			continue
		}
		keep = append(keep, a)
	}
	f.items = keep
	return n, nil
}

type fakeHours struct {
	items map[uuid.UUID]*repository.DailyHours
}

func newFakeHours(hs ...*repository.DailyHours) *fakeHours {
	f := &fakeHours{items: map[uuid.UUID]*repository.DailyHours{}}
	for _, h := range hs {
		f.items[h.ID] = h
	}
	return f
}

func (f *fakeHours) Upsert(_ context.Context, h *repository.DailyHours) error {
	for _, e := range f.items {
		if e.WorkerID == h.WorkerID && e.WorkDate.Equal(h.WorkDate.Time) {
			h.ID = e.ID
		}
	}
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	f.items[h.ID] = h
	return nil
}

func (f *fakeHours) GetByID(_ context.Context, id uuid.UUID) (*repository.DailyHours, error) {
	h, ok := f.items[id]
	if !ok {
		return nil, errors.NotFound("daily_hours")
	}
	return h, nil
}

func (f *fakeHours) List(_ context.Context, params repository.HoursListParams) ([]*repository.DailyHours, error) {
	var out []*repository.DailyHours
	for _, h := range f.items {
		if params.JobSiteID != nil && h.JobSiteID != *params.JobSiteID {
			continue
		}
		if params.From != nil && h.WorkDate.Before(params.From.Time) {
			continue
		}
		if params.To != nil && h.WorkDate.After(params.To.Time) {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func (f *fakeHours) Delete(_ context.Context, id uuid.UUID) (*repository.DailyHours, error) {
	h, ok := f.items[id]
	if !ok {
		return nil, errors.NotFound("daily_hours")
	}
	delete(f.items, id)
	return h, nil
}

type fakeHolidays struct {
	mu     sync.Mutex
	items  []*repository.Holiday
	seeded []*repository.Holiday
	seedAs *actor.Actor
}

func (f *fakeHolidays) List(_ context.Context, from, to domain.Date) ([]*repository.Holiday, error) {
	var out []*repository.Holiday
	for _, h := range f.items {
		if !h.HolidayDate.Before(from.Time) && !h.HolidayDate.After(to.Time) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHolidays) GetByID(_ context.Context, id uuid.UUID) (*repository.Holiday, error) {
	for _, h := range f.items {
		if h.ID == id {
			cp := *h
			return &cp, nil
		}
	}
	return nil, errors.NotFound("holiday")
}

func (f *fakeHolidays) Create(_ context.Context, h *repository.Holiday) error {
	h.ID = uuid.New()
	f.items = append(f.items, h)
	return nil
}

func (f *fakeHolidays) Update(_ context.Context, h *repository.Holiday) error {
	for i, e := range f.items {
		if e.ID == h.ID {
			f.items[i] = h
			return nil
		}
	}
	return errors.NotFound("holiday")
}

func (f *fakeHolidays) Delete(_ context.Context, id uuid.UUID) error {
	for i, e := range f.items {
		if e.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return errors.NotFound("holiday")
}

func (f *fakeHolidays) UpsertGlobal(ctx context.Context, items []*repository.Holiday) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seedAs, _ = actor.FromContext(ctx)
	f.seeded = append(f.seeded, items...)
	return len(items), nil
}

// ============================================================================
// FIXTURES
// ============================================================================

type env struct {
	org       uuid.UUID
	site      uuid.UUID
	otherSite uuid.UUID

	tx          *fakeTx
	sites       *fakeSites
	workers     *fakeWorkers
	tasks       *fakeTasks
	assignments *fakeAssignments
	hours       *fakeHours
	holidays    *fakeHolidays
	events      *testutil.MockPublisher
	publisher   *events.SchedulePublisher
	cfg         config.ScheduleConfig
}

func newEnv(t *testing.T) *env {
	t.Helper()
	org, site, other := uuid.New(), uuid.New(), uuid.New()
	mock := &testutil.MockPublisher{}
	return &env{
		org:       org,
		site:      site,
		otherSite: other,
		tx:        &fakeTx{},
		sites: &fakeSites{
			roles: map[uuid.UUID]string{},
			names: map[uuid.UUID]string{site: "North Tower", other: "Bridge"},
		},
		workers:     newFakeWorkers(),
		tasks:       newFakeTasks(),
		assignments: &fakeAssignments{},
		hours:       newFakeHours(),
		holidays:    &fakeHolidays{},
		events:      mock,
		publisher:   events.NewSchedulePublisher(mock, logger.Nop()),
		cfg: config.ScheduleConfig{
			MaxImportRows:     50,
			MaxImportBytes:    1 << 20,
			DefaultShiftHours: 8,
			MaxAssignmentDays: 366,
		},
	}
}

// as returns a context for a caller with baseRole holding siteRole on the
// env's main site
func (e *env) as(baseRole, siteRole string) context.Context {
	if siteRole != "" {
		e.sites.roles[e.site] = siteRole
	}
	return actor.WithActor(context.Background(), &actor.Actor{
		ID:             uuid.New(),
		OrganizationID: e.org,
		Email:          baseRole + "@example.com",
		BaseRole:       baseRole,
	})
}

func (e *env) worker(site *uuid.UUID, role domain.WorkerRole, first, last string) *repository.Worker {
	w := &repository.Worker{
		ID:             uuid.New(),
		OrganizationID: e.org,
		JobSiteID:      site,
		FirstName:      first,
		LastName:       last,
		Role:           role,
		IsActive:       true,
	}
	e.workers.items[w.ID] = w
	return w
}

func (e *env) task(start, end string, req domain.Requirements) *repository.Task {
	t := &repository.Task{
		ID:                 uuid.New(),
		OrganizationID:     e.org,
		JobSiteID:          e.site,
		Name:               "Pour slab",
		StartDate:          domain.MustDate(start),
		EndDate:            domain.MustDate(end),
		RequiredOperators:  req.Operators,
		RequiredLaborers:   req.Laborers,
		RequiredCarpenters: req.Carpenters,
		RequiredMasons:     req.Masons,
	}
	e.tasks.items[t.ID] = t
	return t
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, status, errors.AsAppError(err).StatusCode, err.Error())
}
