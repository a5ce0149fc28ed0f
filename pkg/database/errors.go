package database

import (
	stderrors "errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"

	"github.com/crewboard/crewboard-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with a meaningful
// message. Returns nil if err is not a *pq.Error or has no mapping.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return nil
	}

	switch string(pqErr.Code) {
	case pgerrcode.CheckViolation:
		return mapCheckConstraint(pqErr)

	case pgerrcode.UniqueViolation:
		return errors.Conflict(uniqueMessage(pqErr.Constraint))

	case pgerrcode.ForeignKeyViolation:
		return errors.BadRequest("referenced record does not exist")

	case pgerrcode.NotNullViolation:
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{col: "must not be empty"})

	case pgerrcode.InsufficientPrivilege:
		// Raised both for missing grants and for "new row violates
		// row-level security policy" on INSERT/UPDATE WITH CHECK.
		return errors.RowSecurity()

	case pgerrcode.InvalidTextRepresentation:
		return errors.BadRequest("malformed identifier")

	default:
		return nil
	}
}

// MapError returns the AppError for a database error, or err unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if appErr := MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}

var checkMessages = map[string][2]string{
	"job_sites_status_check":           {"status", "must be one of: active, on_hold, completed"},
	"job_sites_dates_check":            {"end_date", "must not be before start_date"},
	"user_profiles_base_role_check":    {"base_role", "must be one of: admin, superintendent, engineer, foreman, worker"},
	"job_site_assignments_role_check":  {"site_role", "must be one of: superintendent, engineer, foreman, worker"},
	"job_site_assignments_dates_check": {"end_date", "must not be before start_date"},
	"workers_role_check":               {"role", "must be one of: operator, laborer, carpenter, mason"},
	"tasks_dates_check":                {"end_date", "must not be before start_date"},
	"tasks_requirements_check":         {"required", "headcounts must not be negative"},
	"daily_hours_status_check":         {"status", "must be one of: worked, off, transferred"},
	"daily_hours_hours_check":          {"hours", "must be between 0 and 24"},
	"daily_hours_off_check":            {"hours", "must be 0 when the worker is off"},
	"daily_hours_transfer_check":       {"transferred_to_job_site_id", "is required for transferred days"},
}

func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	if msg, ok := checkMessages[pqErr.Constraint]; ok {
		return errors.Validation(map[string]string{msg[0]: msg[1]})
	}
	return errors.BadRequest("data validation failed: " + pqErr.Constraint)
}

func uniqueMessage(constraint string) string {
	switch {
	case strings.Contains(constraint, "assignments_worker_task_date"):
		return "worker is already assigned to this task on that date"
	case strings.Contains(constraint, "daily_hours_worker_date"):
		return "hours for this worker and date are already recorded"
	case strings.Contains(constraint, "job_site_assignments_user_site"):
		return "user is already assigned to this job site"
	case strings.Contains(constraint, "holidays_org_date"):
		return "a holiday already exists on that date"
	case strings.Contains(constraint, "organizations_slug"):
		return "an organization with this slug already exists"
	case strings.Contains(constraint, "invitations_pending"):
		return "an invitation for this email is already pending"
	case strings.Contains(constraint, "email"):
		return "a user with this email already exists"
	default:
		return "a record with these values already exists"
	}
}
