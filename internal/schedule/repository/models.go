package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
)

// Worker is a crew member, optionally attached to a job site
type Worker struct {
	ID             uuid.UUID         `db:"id" json:"id"`
	OrganizationID uuid.UUID         `db:"organization_id" json:"organization_id"`
	JobSiteID      *uuid.UUID        `db:"job_site_id" json:"job_site_id"`
	FirstName      string            `db:"first_name" json:"first_name"`
	LastName       string            `db:"last_name" json:"last_name"`
	Role           domain.WorkerRole `db:"role" json:"role"`
	Phone          string            `db:"phone" json:"phone"`
	Email          string            `db:"email" json:"email"`
	IsActive       bool              `db:"is_active" json:"is_active"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// FullName returns "First Last"
func (w *Worker) FullName() string {
	return w.FirstName + " " + w.LastName
}

// Task is a schedulable unit of work on one job site
type Task struct {
	ID                 uuid.UUID   `db:"id" json:"id"`
	OrganizationID     uuid.UUID   `db:"organization_id" json:"organization_id"`
	JobSiteID          uuid.UUID   `db:"job_site_id" json:"job_site_id"`
	Name               string      `db:"name" json:"name"`
	Description        string      `db:"description" json:"description"`
	StartDate          domain.Date `db:"start_date" json:"start_date"`
	EndDate            domain.Date `db:"end_date" json:"end_date"`
	RequiredOperators  int         `db:"required_operators" json:"required_operators"`
	RequiredLaborers   int         `db:"required_laborers" json:"required_laborers"`
	RequiredCarpenters int         `db:"required_carpenters" json:"required_carpenters"`
	RequiredMasons     int         `db:"required_masons" json:"required_masons"`
	IncludeSaturday    bool        `db:"include_saturday" json:"include_saturday"`
	IncludeSunday      bool        `db:"include_sunday" json:"include_sunday"`
	IncludeHolidays    bool        `db:"include_holidays" json:"include_holidays"`
	Color              string      `db:"color" json:"color"`
	CreatedBy          *uuid.UUID  `db:"created_by" json:"created_by,omitempty"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at" json:"updated_at"`
}

// Requirements returns the required headcount per trade
func (t *Task) Requirements() domain.Requirements {
	return domain.Requirements{
		Operators:  t.RequiredOperators,
		Laborers:   t.RequiredLaborers,
		Carpenters: t.RequiredCarpenters,
		Masons:     t.RequiredMasons,
	}
}

// DayOptions returns the task's weekend and holiday opt-ins
func (t *Task) DayOptions() domain.DayOptions {
	return domain.DayOptions{
		IncludeSaturday: t.IncludeSaturday,
		IncludeSunday:   t.IncludeSunday,
		IncludeHolidays: t.IncludeHolidays,
	}
}

// Attachment is file metadata for a task; the bytes live in object storage
type Attachment struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	OrganizationID uuid.UUID  `db:"organization_id" json:"organization_id"`
	JobSiteID      uuid.UUID  `db:"job_site_id" json:"job_site_id"`
	TaskID         uuid.UUID  `db:"task_id" json:"task_id"`
	FileName       string     `db:"file_name" json:"file_name"`
	ContentType    string     `db:"content_type" json:"content_type"`
	SizeBytes      int64      `db:"size_bytes" json:"size_bytes"`
	StoragePath    string     `db:"storage_path" json:"storage_path"`
	UploadedBy     *uuid.UUID `db:"uploaded_by" json:"uploaded_by,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// Assignment books one worker on one task for one day
type Assignment struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	OrganizationID uuid.UUID   `db:"organization_id" json:"organization_id"`
	JobSiteID      uuid.UUID   `db:"job_site_id" json:"job_site_id"`
	TaskID         uuid.UUID   `db:"task_id" json:"task_id"`
	WorkerID       uuid.UUID   `db:"worker_id" json:"worker_id"`
	AssignmentDate domain.Date `db:"assignment_date" json:"assignment_date"`
	CreatedBy      *uuid.UUID  `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`

	// Joined from workers by list queries
	WorkerFirstName string            `db:"worker_first_name" json:"worker_first_name,omitempty"`
	WorkerLastName  string            `db:"worker_last_name" json:"worker_last_name,omitempty"`
	WorkerRole      domain.WorkerRole `db:"worker_role" json:"worker_role,omitempty"`
}

// Booking is a worker's assignment to another task on a given day
type Booking struct {
	AssignmentDate domain.Date `db:"assignment_date" json:"date"`
	TaskID         uuid.UUID   `db:"task_id" json:"task_id"`
	TaskName       string      `db:"task_name" json:"task_name"`
	JobSiteID      uuid.UUID   `db:"job_site_id" json:"job_site_id"`
}

// DailyHours is the recorded status of one worker-day
type DailyHours struct {
	ID                     uuid.UUID          `db:"id" json:"id"`
	OrganizationID         uuid.UUID          `db:"organization_id" json:"organization_id"`
	JobSiteID              uuid.UUID          `db:"job_site_id" json:"job_site_id"`
	WorkerID               uuid.UUID          `db:"worker_id" json:"worker_id"`
	WorkDate               domain.Date        `db:"work_date" json:"work_date"`
	Status                 domain.HoursStatus `db:"status" json:"status"`
	Hours                  float64            `db:"hours" json:"hours"`
	TaskID                 *uuid.UUID         `db:"task_id" json:"task_id,omitempty"`
	TransferredToJobSiteID *uuid.UUID         `db:"transferred_to_job_site_id" json:"transferred_to_job_site_id,omitempty"`
	Notes                  string             `db:"notes" json:"notes"`
	RecordedBy             *uuid.UUID         `db:"recorded_by" json:"recorded_by,omitempty"`
	CreatedAt              time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time          `db:"updated_at" json:"updated_at"`
}

// PayRates maps a trade to its pay multiplier, stored as JSONB
type PayRates map[string]float64

// Scan implements sql.Scanner
func (p *PayRates) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = PayRates{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into PayRates", src)
	}
	rates := PayRates{}
	if err := json.Unmarshal(raw, &rates); err != nil {
		return err
	}
	*p = rates
	return nil
}

// Value implements driver.Valuer
func (p PayRates) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Holiday is a calendar entry; a nil OrganizationID marks a global one
type Holiday struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	OrganizationID *uuid.UUID  `db:"organization_id" json:"organization_id"`
	HolidayDate    domain.Date `db:"holiday_date" json:"holiday_date"`
	Name           string      `db:"name" json:"name"`
	PayRates       PayRates    `db:"pay_rates" json:"pay_rates"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// IsGlobal reports whether the holiday is shared by every organization
func (h *Holiday) IsGlobal() bool {
	return h.OrganizationID == nil
}

// Rate converts the holiday for weekly aggregation
func (h *Holiday) Rate() domain.HolidayRate {
	return domain.HolidayRate{Date: h.HolidayDate.Time, Name: h.Name, PayRates: h.PayRates}
}
