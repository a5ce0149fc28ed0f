// Package domain holds the pure scheduling rules: staffing status, working
// days and weekly hours aggregation. Nothing here touches the database.
package domain

// WorkerRole is a crew member's trade
type WorkerRole string

const (
	RoleOperator  WorkerRole = "operator"
	RoleLaborer   WorkerRole = "laborer"
	RoleCarpenter WorkerRole = "carpenter"
	RoleMason     WorkerRole = "mason"
)

// WorkerRoles lists every trade in display order.
var WorkerRoles = []WorkerRole{RoleOperator, RoleLaborer, RoleCarpenter, RoleMason}

// Valid reports whether r is a known trade
func (r WorkerRole) Valid() bool {
	switch r {
	case RoleOperator, RoleLaborer, RoleCarpenter, RoleMason:
		return true
	}
	return false
}

// SiteStatus is a job site's lifecycle state
type SiteStatus string

const (
	SiteActive    SiteStatus = "active"
	SiteOnHold    SiteStatus = "on_hold"
	SiteCompleted SiteStatus = "completed"
)

// Valid reports whether s is a known site status
func (s SiteStatus) Valid() bool {
	return s == SiteActive || s == SiteOnHold || s == SiteCompleted
}

// HoursStatus is the manual status of a worker-day
type HoursStatus string

const (
	HoursWorked      HoursStatus = "worked"
	HoursOff         HoursStatus = "off"
	HoursTransferred HoursStatus = "transferred"
)

// Valid reports whether s is a known hours status
func (s HoursStatus) Valid() bool {
	return s == HoursWorked || s == HoursOff || s == HoursTransferred
}

// StaffingStatus compares assigned against required headcount
type StaffingStatus string

const (
	StaffingFull    StaffingStatus = "full"
	StaffingPartial StaffingStatus = "partial"
	StaffingEmpty   StaffingStatus = "empty"
)

// RoleCounts holds one count per trade
type RoleCounts struct {
	Operators  int `json:"operators"`
	Laborers   int `json:"laborers"`
	Carpenters int `json:"carpenters"`
	Masons     int `json:"masons"`
}

// Get returns the count for role
func (c RoleCounts) Get(role WorkerRole) int {
	switch role {
	case RoleOperator:
		return c.Operators
	case RoleLaborer:
		return c.Laborers
	case RoleCarpenter:
		return c.Carpenters
	case RoleMason:
		return c.Masons
	}
	return 0
}

// Add adds n to role's count. Unknown roles are ignored.
func (c *RoleCounts) Add(role WorkerRole, n int) {
	switch role {
	case RoleOperator:
		c.Operators += n
	case RoleLaborer:
		c.Laborers += n
	case RoleCarpenter:
		c.Carpenters += n
	case RoleMason:
		c.Masons += n
	}
}

// Total is the sum over all trades
func (c RoleCounts) Total() int {
	return c.Operators + c.Laborers + c.Carpenters + c.Masons
}

// Requirements is the required headcount per trade for a task
type Requirements = RoleCounts
