package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/pkg/database"
)

const hoursColumns = `
	id, organization_id, job_site_id, worker_id, work_date, status, hours,
	task_id, transferred_to_job_site_id, notes, recorded_by, created_at, updated_at`

// HoursListParams holds filters for listing daily hours
type HoursListParams struct {
	JobSiteID *uuid.UUID
	WorkerIDs []uuid.UUID
	From      *domain.Date
	To        *domain.Date
}

// HoursRepository handles daily hours persistence
type HoursRepository struct {
	db *database.DB
}

// NewHoursRepository creates a new daily hours repository
func NewHoursRepository(db *database.DB) *HoursRepository {
	return &HoursRepository{db: db}
}

// Upsert records the worker-day, replacing an existing entry for the same
// worker and date
func (r *HoursRepository) Upsert(ctx context.Context, h *DailyHours) error {
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO daily_hours (
				organization_id, job_site_id, worker_id, work_date, status, hours,
				task_id, transferred_to_job_site_id, notes, recorded_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT ON CONSTRAINT daily_hours_worker_date_key DO UPDATE SET
				job_site_id = EXCLUDED.job_site_id,
				status = EXCLUDED.status,
				hours = EXCLUDED.hours,
				task_id = EXCLUDED.task_id,
				transferred_to_job_site_id = EXCLUDED.transferred_to_job_site_id,
				notes = EXCLUDED.notes,
				recorded_by = EXCLUDED.recorded_by,
				updated_at = now()
			RETURNING id, created_at, updated_at
		`
		return r.db.Q(ctx).QueryRowxContext(ctx, query,
			h.OrganizationID, h.JobSiteID, h.WorkerID, h.WorkDate, h.Status, h.Hours,
			h.TaskID, h.TransferredToJobSiteID, h.Notes, h.RecordedBy,
		).Scan(&h.ID, &h.CreatedAt, &h.UpdatedAt)
	})
	return mapErr(err, "daily_hours")
}

// GetByID gets a visible entry
func (r *HoursRepository) GetByID(ctx context.Context, id uuid.UUID) (*DailyHours, error) {
	var h DailyHours
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &h, `SELECT `+hoursColumns+` FROM daily_hours WHERE id = $1`, id)
	})
	if err != nil {
		return nil, mapErr(err, "daily_hours")
	}
	return &h, nil
}

// List lists visible entries ordered by date
func (r *HoursRepository) List(ctx context.Context, params HoursListParams) ([]*DailyHours, error) {
	var items []*DailyHours
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		f := database.NewFilter()
		if params.JobSiteID != nil {
			f.Add("job_site_id = ?", *params.JobSiteID)
		}
		if len(params.WorkerIDs) > 0 {
			f.Add("worker_id = ANY (?::uuid[])", uuidArray(params.WorkerIDs))
		}
		if params.From != nil {
			f.Add("work_date >= ?", *params.From)
		}
		if params.To != nil {
			f.Add("work_date <= ?", *params.To)
		}
		return r.db.Q(ctx).SelectContext(ctx, &items,
			`SELECT `+hoursColumns+` FROM daily_hours `+f.Where()+` ORDER BY work_date, worker_id`, f.Args()...)
	})
	if err != nil {
		return nil, mapErr(err, "daily_hours")
	}
	return items, nil
}

// Delete removes an entry and returns it
func (r *HoursRepository) Delete(ctx context.Context, id uuid.UUID) (*DailyHours, error) {
	var h DailyHours
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &h,
			`DELETE FROM daily_hours WHERE id = $1 RETURNING `+hoursColumns, id)
	})
	if err != nil {
		return nil, mapErr(err, "daily_hours")
	}
	return &h, nil
}
