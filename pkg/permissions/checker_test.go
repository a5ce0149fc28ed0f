package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name     string
		perms    []string
		required string
		want     bool
	}{
		{"empty requirement", nil, "", true},
		{"full wildcard", []string{"*"}, TasksWrite, true},
		{"exact", []string{TasksWrite}, TasksWrite, true},
		{"resource wildcard", []string{"hours.*"}, HoursWrite, true},
		{"wildcard does not cross resources", []string{"hours.*"}, HolidaysManage, false},
		{"prefix is not a wildcard", []string{"tasks"}, TasksRead, false},
		{"missing", []string{TasksRead}, TasksWrite, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.perms, tt.required))
		})
	}
}

func TestSiteRolesMatchPolicies(t *testing.T) {
	tests := []struct {
		role                               string
		workers, tasks, assignments, hours bool
	}{
		{"superintendent", true, true, true, true},
		{"engineer", false, true, false, false},
		{"foreman", false, false, true, true},
		{"worker", false, false, false, false},
		{"", false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			perms := ForSiteRole(tt.role)
			assert.Equal(t, tt.workers, HasPermission(perms, WorkersWrite))
			assert.Equal(t, tt.tasks, HasPermission(perms, TasksWrite))
			assert.Equal(t, tt.assignments, HasPermission(perms, AssignmentsWrite))
			assert.Equal(t, tt.hours, HasPermission(perms, HoursWrite))
			assert.Equal(t, tt.role != "", HasPermission(perms, TasksRead))
		})
	}
}

func TestSiteAccess(t *testing.T) {
	access := SiteAccess{
		BaseRole:  "foreman",
		SiteRoles: map[string]string{"site-a": "foreman", "site-b": "worker"},
	}

	assert.True(t, access.Can("site-a", HoursWrite))
	assert.False(t, access.Can("site-b", HoursWrite))
	assert.False(t, access.Can("site-c", TasksRead))
	assert.True(t, access.Can("", UsersRead))
	assert.False(t, access.Can("", SitesManage))

	admin := SiteAccess{BaseRole: "admin"}
	assert.True(t, admin.Can("any-site", SitesManage))

	caps := access.Capabilities()
	assert.Contains(t, caps["site-a"], "hours.*")
	assert.NotContains(t, caps["site-b"], "hours.*")
	assert.Equal(t, []string{HolidaysRead, UsersRead, WorkersRead}, caps["organization"])
}
