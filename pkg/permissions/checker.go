// Package permissions mirrors the database row-level security rules as
// capability strings so the API can refuse early with a clear 403 and the
// UI can hide actions a user cannot take. PostgreSQL remains the authority.
//
// Permission Format:
//   - "*" - Full access (all permissions)
//   - "resource.*" - All actions on a resource (e.g., "tasks.*")
//   - "resource.action" - Specific action (e.g., "tasks.write")
package permissions

import (
	"sort"
	"strings"
)

// Capabilities checked by the service layer.
const (
	SitesRead         = "sites.read"
	SitesManage       = "sites.manage"
	UsersRead         = "users.read"
	UsersManage       = "users.manage"
	WorkersRead       = "workers.read"
	WorkersWrite      = "workers.write"
	TasksRead         = "tasks.read"
	TasksWrite        = "tasks.write"
	AssignmentsRead   = "assignments.read"
	AssignmentsWrite  = "assignments.write"
	HoursRead         = "hours.read"
	HoursWrite        = "hours.write"
	HolidaysRead      = "holidays.read"
	HolidaysManage    = "holidays.manage"
	InvitationsManage = "invitations.manage"
	OrgManage         = "org.manage"
)

var readOnly = []string{SitesRead, UsersRead, WorkersRead, TasksRead, AssignmentsRead, HoursRead, HolidaysRead}

// siteRoles matches the role arrays passed to can_manage_site in the
// policies: workers need superintendent, tasks need superintendent or
// engineer, assignments and hours need superintendent or foreman.
var siteRoles = map[string][]string{
	"admin":          {"*"},
	"superintendent": append([]string{"workers.*", "tasks.*", "assignments.*", "hours.*"}, readOnly...),
	"engineer":       append([]string{"tasks.*"}, readOnly...),
	"foreman":        append([]string{"assignments.*", "hours.*"}, readOnly...),
	"worker":         readOnly,
}

// ForSiteRole returns the permissions a site role grants on that site.
// An empty role (no active assignment) grants nothing.
func ForSiteRole(role string) []string {
	return siteRoles[role]
}

// ForBaseRole returns the organization-wide permissions of a base role.
// Non-admins can read org members, holidays and unattached workers; every
// site-scoped capability comes from ForSiteRole.
func ForBaseRole(baseRole string) []string {
	if baseRole == "admin" {
		return []string{"*"}
	}
	return []string{UsersRead, HolidaysRead, WorkersRead}
}

// HasPermission checks if the user's permissions include the required permission.
// Supports wildcard matching:
//   - "*" matches everything
//   - "tasks.*" matches "tasks.read", "tasks.write", etc.
func HasPermission(userPerms []string, required string) bool {
	if required == "" {
		return true
	}
	for _, p := range userPerms {
		if p == "*" || p == required {
			return true
		}
		if prefix, ok := strings.CutSuffix(p, ".*"); ok && strings.HasPrefix(required, prefix+".") {
			return true
		}
	}
	return false
}

// HasAnyPermission checks if the user has any of the required permissions.
func HasAnyPermission(userPerms []string, required ...string) bool {
	for _, req := range required {
		if HasPermission(userPerms, req) {
			return true
		}
	}
	return false
}

// MergePermissions merges permission sets, removing duplicates, sorted.
func MergePermissions(sets ...[]string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, set := range sets {
		for _, p := range set {
			if !seen[p] {
				seen[p] = true
				result = append(result, p)
			}
		}
	}
	sort.Strings(result)
	return result
}

// SiteAccess is a caller's resolved scope: the base role plus the role held
// on each visible site.
type SiteAccess struct {
	BaseRole  string            `json:"base_role"`
	SiteRoles map[string]string `json:"site_roles"`
}

// Can reports whether the caller holds perm on site. An empty site checks
// organization-wide permissions only.
func (a SiteAccess) Can(site, perm string) bool {
	if HasPermission(ForBaseRole(a.BaseRole), perm) {
		return true
	}
	if site == "" {
		return false
	}
	return HasPermission(ForSiteRole(a.SiteRoles[site]), perm)
}

// Capabilities lists the permissions per site, for the UI.
func (a SiteAccess) Capabilities() map[string][]string {
	out := map[string][]string{"organization": MergePermissions(ForBaseRole(a.BaseRole))}
	for site, role := range a.SiteRoles {
		out[site] = MergePermissions(ForBaseRole(a.BaseRole), ForSiteRole(role))
	}
	return out
}
