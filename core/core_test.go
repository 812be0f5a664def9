package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// DISPLAY TABLES
// =============================================================================

func TestStatusLabel_Table(t *testing.T) {
	tests := []struct {
		name    string
		current *Assignment
		want    string
	}{
		{"no assignment", nil, DisplayActive},
		{"active", &Assignment{Status: AssignmentActive}, DisplayActive},
		{"on leave", &Assignment{Status: AssignmentOnLeave}, DisplayOnLeave},
		{"transferred", &Assignment{Status: AssignmentTransferred}, DisplayActive},
		{"suspended", &Assignment{Status: AssignmentSuspended}, DisplaySuspended},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusLabel(tt.current))
		})
	}
}

func TestLabels_Exhaustive(t *testing.T) {
	for _, s := range AssignmentStatuses {
		assert.NotEmpty(t, s.Label(), "assignment status %s", s)
		assert.True(t, s.Valid())
	}
	for _, lt := range LeaveTypes {
		assert.NotEmpty(t, lt.Label(), "leave type %s", lt)
	}
	for _, ls := range LeaveStatuses {
		assert.NotEmpty(t, ls.Label(), "leave status %s", ls)
	}
	for _, sh := range Shifts {
		assert.NotEmpty(t, sh.Label(), "shift %s", sh)
	}

	assert.Len(t, assignmentStatusLabels, len(AssignmentStatuses))
	assert.Len(t, leaveTypeLabels, len(LeaveTypes))
	assert.Len(t, leaveStatusLabels, len(LeaveStatuses))
	assert.Len(t, shiftLabels, len(Shifts))
	assert.False(t, AssignmentStatus("RETIRED").Valid())
}

// =============================================================================
// CURRENT ASSIGNMENT
// =============================================================================

func TestCurrentAssignment_LatestPostingThenHighestSeq(t *testing.T) {
	jan := MustParseDate("2025-01-01")
	feb := MustParseDate("2025-02-01")

	history := []Assignment{
		{ID: "late-post-low-seq", PostedOn: feb, Seq: 2},
		{ID: "early", PostedOn: jan, Seq: 9},
		{ID: "late-post-high-seq", PostedOn: feb, Seq: 5},
	}

	current, ok := CurrentAssignment(history)
	assert.True(t, ok)
	assert.Equal(t, AssignmentID("late-post-high-seq"), current.ID)

	_, ok = CurrentAssignment(nil)
	assert.False(t, ok)
}

// =============================================================================
// PERIOD
// =============================================================================

func TestPeriod_OverlapsInclusive(t *testing.T) {
	p := Period{Start: MustParseDate("2025-03-10"), End: MustParseDate("2025-03-15")}

	tests := []struct {
		start, end string
		want       bool
	}{
		{"2025-03-15", "2025-03-20", true},
		{"2025-03-01", "2025-03-10", true},
		{"2025-03-11", "2025-03-12", true},
		{"2025-03-01", "2025-03-31", true},
		{"2025-03-16", "2025-03-20", false},
		{"2025-03-01", "2025-03-09", false},
	}

	for _, tt := range tests {
		other := Period{Start: MustParseDate(tt.start), End: MustParseDate(tt.end)}
		assert.Equal(t, tt.want, p.Overlaps(other), "%s", other)
		assert.Equal(t, tt.want, other.Overlaps(p), "symmetric %s", other)
	}
}

func TestPeriod_IntersectAndDayCount(t *testing.T) {
	p := Period{Start: MustParseDate("2024-12-30"), End: MustParseDate("2025-01-03")}
	assert.Equal(t, 5, p.DayCount())

	clipped, ok := p.Intersect(YearPeriod(2025))
	assert.True(t, ok)
	assert.Equal(t, 3, clipped.DayCount())

	_, ok = p.Intersect(YearPeriod(2023))
	assert.False(t, ok)
}

// =============================================================================
// ERRORS
// =============================================================================

func TestOverlapError_MatchesOverlapAndValidation(t *testing.T) {
	err := fmt.Errorf("submit: %w", &OverlapError{PersonID: "P1", Status: LeavePending})

	assert.True(t, errors.Is(err, ErrOverlap))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, IsClientError(err))
	assert.False(t, errors.Is(err, ErrInvalidTransition))
}

func TestStructuredErrors_Unwrap(t *testing.T) {
	assert.ErrorIs(t, &InvalidTransitionError{From: LeaveRejected, To: LeaveApproved}, ErrInvalidTransition)
	assert.ErrorIs(t, &DuplicateAssignmentError{Shift: ShiftDay}, ErrDuplicateAssignment)
	assert.ErrorIs(t, &IneligibleError{Status: AssignmentOnLeave}, ErrIneligible)
	assert.ErrorIs(t, Missing("reason"), ErrValidation)
	assert.ErrorIs(t, NotFound("person", "X"), ErrNotFound)
	assert.True(t, IsRetryable(fmt.Errorf("wrap: %w", ErrConcurrentModification)))

	assert.Contains(t, (&IneligibleError{PersonID: "P1"}).Error(), "no current assignment")
}
