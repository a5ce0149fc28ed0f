// Package service implements the scheduling operations on top of the
// RLS-scoped repositories. Permission checks here only produce friendlier
// errors; the database policies still decide.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/internal/schedule/repository"
	"github.com/crewboard/crewboard-backend/pkg/actor"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/permissions"
	"github.com/crewboard/crewboard-backend/pkg/tenant"
)

// SiteDirectory resolves job sites through the caller's visibility
type SiteDirectory interface {
	// SiteRole returns the caller's role on the site, "admin" for org
	// admins, or "" without an active assignment.
	SiteRole(ctx context.Context, siteID uuid.UUID) (string, error)
	// JobSiteName returns NotFound when the site is not visible.
	JobSiteName(ctx context.Context, siteID uuid.UUID) (string, error)
}

// TxRunner runs fn in one caller-bound transaction
type TxRunner interface {
	WithActor(ctx context.Context, fn func(context.Context) error) error
}

// WorkerStore is the worker persistence used by the services
type WorkerStore interface {
	Create(ctx context.Context, w *repository.Worker) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Worker, error)
	List(ctx context.Context, params repository.WorkerListParams) ([]*repository.Worker, int64, error)
	ListForSite(ctx context.Context, siteID uuid.UUID) ([]*repository.Worker, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]*repository.Worker, error)
	Update(ctx context.Context, w *repository.Worker) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	HasHistory(ctx context.Context, id uuid.UUID) (bool, error)
}

// TaskStore is the task persistence used by the services
type TaskStore interface {
	Create(ctx context.Context, t *repository.Task) error
	CreateMany(ctx context.Context, tasks []*repository.Task) (int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Task, error)
	List(ctx context.Context, params repository.TaskListParams) ([]*repository.Task, error)
	Update(ctx context.Context, t *repository.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAssignmentsOutside(ctx context.Context, taskID uuid.UUID, start, end domain.Date) (int64, error)
	DeleteAssignmentsOn(ctx context.Context, taskID uuid.UUID, days []domain.Date) (int64, error)
	CreateAttachment(ctx context.Context, a *repository.Attachment) error
	ListAttachments(ctx context.Context, taskID uuid.UUID) ([]*repository.Attachment, error)
	DeleteAttachment(ctx context.Context, taskID, id uuid.UUID) (*repository.Attachment, error)
}

// AssignmentStore is the assignment persistence used by the services
type AssignmentStore interface {
	CreateDays(ctx context.Context, base repository.Assignment, days []domain.Date) ([]*repository.Assignment, error)
	BookedDays(ctx context.Context, workerID, taskID uuid.UUID, from, to domain.Date) ([]domain.Date, error)
	Bookings(ctx context.Context, workerID, excludeTaskID uuid.UUID, days []domain.Date) ([]repository.Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Assignment, error)
	List(ctx context.Context, params repository.AssignmentListParams) ([]*repository.Assignment, error)
	Delete(ctx context.Context, id uuid.UUID) (*repository.Assignment, error)
	DeleteRange(ctx context.Context, workerID, taskID uuid.UUID, from, to domain.Date) (int64, error)
}

// HoursStore is the daily hours persistence used by the services
type HoursStore interface {
	Upsert(ctx context.Context, h *repository.DailyHours) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.DailyHours, error)
	List(ctx context.Context, params repository.HoursListParams) ([]*repository.DailyHours, error)
	Delete(ctx context.Context, id uuid.UUID) (*repository.DailyHours, error)
}

// HolidayStore is the holiday persistence used by the services
type HolidayStore interface {
	List(ctx context.Context, from, to domain.Date) ([]*repository.Holiday, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Holiday, error)
	Create(ctx context.Context, h *repository.Holiday) error
	Update(ctx context.Context, h *repository.Holiday) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpsertGlobal(ctx context.Context, items []*repository.Holiday) (int, error)
}

// guard performs the application-level permission checks
type guard struct {
	sites SiteDirectory
}

func (g guard) caller(ctx context.Context) (*actor.Actor, error) {
	a, ok := actor.FromContext(ctx)
	if !ok {
		return nil, errors.Unauthorized("no authenticated caller")
	}
	return a, nil
}

// require checks perm on site, or organization-wide when site is nil.
func (g guard) require(ctx context.Context, site *uuid.UUID, perm string) (*actor.Actor, error) {
	a, err := g.caller(ctx)
	if err != nil {
		return nil, err
	}
	if a.IsSystem() || permissions.HasPermission(permissions.ForBaseRole(a.BaseRole), perm) {
		return a, nil
	}
	if site == nil {
		return nil, errors.Forbidden("missing permission " + perm)
	}

	role, err := g.sites.SiteRole(ctx, *site)
	if err != nil {
		return nil, err
	}
	if !permissions.HasPermission(permissions.ForSiteRole(role), perm) {
		return nil, errors.Forbidden("missing permission " + perm + " on this job site")
	}
	return a, nil
}

// siteOf returns the explicit site or the selected one
func (g guard) siteOf(ctx context.Context, explicit *uuid.UUID) (uuid.UUID, error) {
	if explicit != nil {
		return *explicit, nil
	}
	if site, ok := tenant.JobSiteID(ctx); ok {
		return site, nil
	}
	return uuid.Nil, errors.Validation(map[string]string{"job_site_id": "is required"})
}

// holidaySet loads the holidays within [from, to]
func holidaySet(ctx context.Context, store HolidayStore, from, to domain.Date) (domain.HolidaySet, []*repository.Holiday, error) {
	items, err := store.List(ctx, from, to)
	if err != nil {
		return nil, nil, err
	}
	set := make(domain.HolidaySet, len(items))
	for _, h := range items {
		set[h.HolidayDate.String()] = struct{}{}
	}
	return set, items, nil
}

func toDates(days []time.Time) []domain.Date {
	out := make([]domain.Date, len(days))
	for i, d := range days {
		out[i] = domain.NewDate(d)
	}
	return out
}
