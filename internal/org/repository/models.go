package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/crewboard/crewboard-backend/internal/schedule/domain"
)

// Organization is a tenant
type Organization struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// JobSite is a construction site of an organization
type JobSite struct {
	ID             uuid.UUID         `db:"id" json:"id"`
	OrganizationID uuid.UUID         `db:"organization_id" json:"organization_id"`
	Name           string            `db:"name" json:"name"`
	Code           string            `db:"code" json:"code"`
	Address        string            `db:"address" json:"address"`
	Status         domain.SiteStatus `db:"status" json:"status"`
	StartDate      *domain.Date      `db:"start_date" json:"start_date"`
	EndDate        *domain.Date      `db:"end_date" json:"end_date"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// UserProfile is an application user. The password hash never leaves the
// auth package.
type UserProfile struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	OrganizationID uuid.UUID  `db:"organization_id" json:"organization_id"`
	Email          string     `db:"email" json:"email"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	BaseRole       string     `db:"base_role" json:"base_role"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	LastLoginAt    *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName returns "First Last"
func (u *UserProfile) FullName() string {
	return u.FirstName + " " + u.LastName
}

// SiteAssignment binds a user to a job site with a role and an active window
type SiteAssignment struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	OrganizationID uuid.UUID    `db:"organization_id" json:"organization_id"`
	UserID         uuid.UUID    `db:"user_id" json:"user_id"`
	JobSiteID      uuid.UUID    `db:"job_site_id" json:"job_site_id"`
	SiteRole       string       `db:"site_role" json:"site_role"`
	StartDate      domain.Date  `db:"start_date" json:"start_date"`
	EndDate        *domain.Date `db:"end_date" json:"end_date"`
	IsActive       bool         `db:"is_active" json:"is_active"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`

	// Joined for display
	UserName    string `db:"user_name" json:"user_name,omitempty"`
	JobSiteName string `db:"job_site_name" json:"job_site_name,omitempty"`
}
