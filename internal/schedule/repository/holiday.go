package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
	"github.com/crewboard/crewboard-backend/pkg/database"
)

const holidayColumns = `id, organization_id, holiday_date, name, pay_rates, created_at, updated_at`

// HolidayRepository handles holiday persistence
type HolidayRepository struct {
	db *database.DB
}

// NewHolidayRepository creates a new holiday repository
func NewHolidayRepository(db *database.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// List returns global and own-organization holidays within [from, to].
// When both define the same date the organization's entry wins.
func (r *HolidayRepository) List(ctx context.Context, from, to domain.Date) ([]*Holiday, error) {
	var items []*Holiday
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).SelectContext(ctx, &items, `
			SELECT DISTINCT ON (holiday_date) `+holidayColumns+`
			FROM holidays
			WHERE holiday_date BETWEEN $1 AND $2
			ORDER BY holiday_date, organization_id NULLS LAST`, from, to)
	})
	if err != nil {
		return nil, mapErr(err, "holiday")
	}
	return items, nil
}

// GetByID gets a visible holiday
func (r *HolidayRepository) GetByID(ctx context.Context, id uuid.UUID) (*Holiday, error) {
	var h Holiday
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).GetContext(ctx, &h, `SELECT `+holidayColumns+` FROM holidays WHERE id = $1`, id)
	})
	if err != nil {
		return nil, mapErr(err, "holiday")
	}
	return &h, nil
}

// Create inserts an organization holiday
func (r *HolidayRepository) Create(ctx context.Context, h *Holiday) error {
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).QueryRowxContext(ctx, `
			INSERT INTO holidays (organization_id, holiday_date, name, pay_rates)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at`,
			h.OrganizationID, h.HolidayDate, h.Name, h.PayRates,
		).Scan(&h.ID, &h.CreatedAt, &h.UpdatedAt)
	})
	return mapErr(err, "holiday")
}

// Update updates an organization holiday
func (r *HolidayRepository) Update(ctx context.Context, h *Holiday) error {
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		return r.db.Q(ctx).QueryRowxContext(ctx, `
			UPDATE holidays SET holiday_date = $2, name = $3, pay_rates = $4, updated_at = now()
			WHERE id = $1 AND organization_id IS NOT NULL
			RETURNING updated_at`,
			h.ID, h.HolidayDate, h.Name, h.PayRates,
		).Scan(&h.UpdatedAt)
	})
	return mapErr(err, "holiday")
}

// Delete removes an organization holiday
func (r *HolidayRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithActor(ctx, func(ctx context.Context) error {
		res, err := r.db.Q(ctx).ExecContext(ctx,
			`DELETE FROM holidays WHERE id = $1 AND organization_id IS NOT NULL`, id)
		if err != nil {
			return mapErr(err, "holiday")
		}
		return affected(res, "holiday")
	})
}

// UpsertGlobal inserts or renames global holidays. It needs the system
// actor: global rows are read-only to callers.
func (r *HolidayRepository) UpsertGlobal(ctx context.Context, items []*Holiday) (int, error) {
	count := 0
	err := r.db.WithActor(ctx, func(ctx context.Context) error {
		q := r.db.Q(ctx)
		for _, h := range items {
			err := q.QueryRowxContext(ctx, `
				INSERT INTO holidays (organization_id, holiday_date, name, pay_rates)
				VALUES (NULL, $1, $2, $3)
				ON CONFLICT ((COALESCE(organization_id, '00000000-0000-0000-0000-000000000000'::uuid)), holiday_date)
				DO UPDATE SET name = EXCLUDED.name, pay_rates = EXCLUDED.pay_rates, updated_at = now()
				RETURNING id, created_at, updated_at`,
				h.HolidayDate, h.Name, h.PayRates,
			).Scan(&h.ID, &h.CreatedAt, &h.UpdatedAt)
			if err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, mapErr(err, "holiday")
	}
	return count, nil
}
