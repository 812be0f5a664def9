package core

// =============================================================================
// DISPLAY LABELS - Explicit finite mappings from codes to consumer labels
// =============================================================================

// Person-level display statuses shown to consumers of the directory.
const (
	DisplayActive    = "Active"
	DisplayOnLeave   = "On Leave"
	DisplaySuspended = "Suspended"
)

// assignmentStatusLabels maps every assignment status to the person-level
// label. A transferred member still shows as active at the new posting.
var assignmentStatusLabels = map[AssignmentStatus]string{
	AssignmentActive:      DisplayActive,
	AssignmentOnLeave:     DisplayOnLeave,
	AssignmentTransferred: DisplayActive,
	AssignmentSuspended:   DisplaySuspended,
}

var leaveTypeLabels = map[LeaveType]string{
	LeaveAnnual:        "Annual Leave",
	LeaveCasual:        "Casual Leave",
	LeaveSick:          "Sick Leave",
	LeaveMaternity:     "Maternity Leave",
	LeavePaternity:     "Paternity Leave",
	LeaveCompassionate: "Compassionate Leave",
	LeaveStudy:         "Study Leave",
}

var leaveStatusLabels = map[LeaveStatus]string{
	LeavePending:   "Pending",
	LeaveApproved:  "Approved",
	LeaveRejected:  "Rejected",
	LeaveCancelled: "Cancelled",
	LeaveCompleted: "Completed",
}

var shiftLabels = map[Shift]string{
	ShiftDay:   "Day Shift",
	ShiftNight: "Night Shift",
}

// Label returns the person-level display label for an assignment status.
// Unknown codes map to the empty string.
func (s AssignmentStatus) Label() string { return assignmentStatusLabels[s] }

func (t LeaveType) Label() string   { return leaveTypeLabels[t] }
func (s LeaveStatus) Label() string { return leaveStatusLabels[s] }
func (s Shift) Label() string       { return shiftLabels[s] }

// StatusLabel is the display status of a person given their current
// assignment. Someone without any posting shows as active.
func StatusLabel(current *Assignment) string {
	if current == nil {
		return DisplayActive
	}
	if label, ok := assignmentStatusLabels[current.Status]; ok {
		return label
	}
	return DisplayActive
}

// AssignmentStatuses, LeaveTypes, LeaveStatuses and Shifts enumerate the
// closed sets in a stable order.
var (
	AssignmentStatuses = []AssignmentStatus{AssignmentActive, AssignmentOnLeave, AssignmentTransferred, AssignmentSuspended}
	LeaveTypes         = []LeaveType{LeaveAnnual, LeaveCasual, LeaveSick, LeaveMaternity, LeavePaternity, LeaveCompassionate, LeaveStudy}
	LeaveStatuses      = []LeaveStatus{LeavePending, LeaveApproved, LeaveRejected, LeaveCancelled, LeaveCompleted}
	Shifts             = []Shift{ShiftDay, ShiftNight}
)
