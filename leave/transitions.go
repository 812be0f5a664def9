package leave

import "github.com/warp/duty-roster/core"

// =============================================================================
// TRANSITION TABLE
// =============================================================================

// transitions lists every permitted move. States without an entry are
// terminal. PENDING is the only initial state.
var transitions = map[core.LeaveStatus][]core.LeaveStatus{
	core.LeavePending:  {core.LeaveApproved, core.LeaveRejected, core.LeaveCancelled},
	core.LeaveApproved: {core.LeaveCancelled, core.LeaveCompleted},
}

// CanTransition reports whether a request may move from one status to
// another.
func CanTransition(from, to core.LeaveStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStates returns the statuses reachable from s, in table order.
func NextStates(s core.LeaveStatus) []core.LeaveStatus {
	return append([]core.LeaveStatus(nil), transitions[s]...)
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s core.LeaveStatus) bool {
	return len(transitions[s]) == 0
}
