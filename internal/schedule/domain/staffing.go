package domain

// Staffing derives the status of one day:
//   - full when every trade's assigned count meets its requirement, which
//     includes tasks that require nobody
//   - empty when some required trade has nobody assigned
//   - partial otherwise
func Staffing(required Requirements, assigned RoleCounts) StaffingStatus {
	full := true
	for _, role := range WorkerRoles {
		if assigned.Get(role) < required.Get(role) {
			full = false
			break
		}
	}
	if full {
		return StaffingFull
	}

	for _, role := range WorkerRoles {
		if required.Get(role) > 0 && assigned.Get(role) == 0 {
			return StaffingEmpty
		}
	}
	return StaffingPartial
}

// RangeStatus folds per-day statuses into one. A task with no working days
// in range is empty if it requires anyone and full otherwise.
func RangeStatus(required Requirements, days []StaffingStatus) StaffingStatus {
	if len(days) == 0 {
		if required.Total() > 0 {
			return StaffingEmpty
		}
		return StaffingFull
	}

	allFull, allEmpty := true, true
	for _, d := range days {
		if d != StaffingFull {
			allFull = false
		}
		if d != StaffingEmpty {
			allEmpty = false
		}
	}
	switch {
	case allFull:
		return StaffingFull
	case allEmpty:
		return StaffingEmpty
	default:
		return StaffingPartial
	}
}
