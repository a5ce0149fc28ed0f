package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaffing(t *testing.T) {
	tests := []struct {
		name     string
		required Requirements
		assigned RoleCounts
		want     StaffingStatus
	}{
		{"nothing required is full", Requirements{}, RoleCounts{}, StaffingFull},
		{"nothing required with extras is full", Requirements{}, RoleCounts{Laborers: 2}, StaffingFull},
		{"exact match", Requirements{Operators: 1, Laborers: 2}, RoleCounts{Operators: 1, Laborers: 2}, StaffingFull},
		{"overstaffed", Requirements{Masons: 1}, RoleCounts{Masons: 3}, StaffingFull},
		{"required role with zero assigned", Requirements{Operators: 1, Laborers: 2}, RoleCounts{Laborers: 2}, StaffingEmpty},
		{"nobody assigned", Requirements{Carpenters: 2}, RoleCounts{}, StaffingEmpty},
		{"short but every role present", Requirements{Operators: 1, Laborers: 3}, RoleCounts{Operators: 1, Laborers: 1}, StaffingPartial},
		{"wrong trade only", Requirements{Masons: 1}, RoleCounts{Laborers: 4}, StaffingEmpty},
		{"empty wins over partial", Requirements{Operators: 2, Masons: 1}, RoleCounts{Operators: 1}, StaffingEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Staffing(tt.required, tt.assigned))
		})
	}
}

func TestRangeStatus(t *testing.T) {
	req := Requirements{Laborers: 1}

	assert.Equal(t, StaffingFull, RangeStatus(req, []StaffingStatus{StaffingFull, StaffingFull}))
	assert.Equal(t, StaffingEmpty, RangeStatus(req, []StaffingStatus{StaffingEmpty, StaffingEmpty}))
	assert.Equal(t, StaffingPartial, RangeStatus(req, []StaffingStatus{StaffingFull, StaffingEmpty}))
	assert.Equal(t, StaffingPartial, RangeStatus(req, []StaffingStatus{StaffingPartial}))

	assert.Equal(t, StaffingEmpty, RangeStatus(req, nil), "no working days but people required")
	assert.Equal(t, StaffingFull, RangeStatus(Requirements{}, nil))
}

func TestRoleCounts(t *testing.T) {
	var c RoleCounts
	for _, r := range WorkerRoles {
		c.Add(r, 1)
	}
	c.Add(RoleMason, 2)
	c.Add(WorkerRole("welder"), 5)

	assert.Equal(t, 1, c.Get(RoleOperator))
	assert.Equal(t, 3, c.Get(RoleMason))
	assert.Equal(t, 0, c.Get(WorkerRole("welder")))
	assert.Equal(t, 6, c.Total())

	assert.True(t, RoleCarpenter.Valid())
	assert.False(t, WorkerRole("admin").Valid())
	assert.True(t, SiteOnHold.Valid())
	assert.False(t, SiteStatus("archived").Valid())
}
