package leave_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/warp/duty-roster/core"
	"github.com/warp/duty-roster/leave"
	"github.com/warp/duty-roster/personnel"
	"github.com/warp/duty-roster/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fixture struct {
	store  *sqlite.Store
	dir    *personnel.Directory
	ledger *personnel.Ledger
	leaves *leave.Service
}

func newFixture(t *testing.T) *fixture {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := zaptest.NewLogger(t)
	return &fixture{
		store:  store,
		dir:    personnel.NewDirectory(store, logger),
		ledger: personnel.NewLedger(store, logger),
		leaves: leave.NewService(store, logger),
	}
}

// enlist creates a person; posted adds an ACTIVE assignment.
func (f *fixture) enlist(t *testing.T, id string, posted bool) {
	t.Helper()
	var posting *personnel.Posting
	if posted {
		posting = &personnel.Posting{Disposition: "SDS", PostedOn: core.MustParseDate("2024-01-02")}
	}
	_, err := f.dir.Enlist(context.Background(), core.Person{
		ServiceNumber: core.PersonID(id),
		FirstName:     "Ngozi",
		LastName:      "Adamu",
		Rank:          core.RankCD,
		Gender:        core.GenderFemale,
	}, posting, "hq")
	require.NoError(t, err)
}

func (f *fixture) status(t *testing.T, id string) core.AssignmentStatus {
	t.Helper()
	current, err := f.ledger.Current(context.Background(), core.PersonID(id))
	require.NoError(t, err)
	require.NotNil(t, current)
	return current.Status
}

func (f *fixture) submit(t *testing.T, id, start, end string) *core.LeaveRequest {
	t.Helper()
	req, err := f.leaves.Submit(context.Background(), input(id, start, end))
	require.NoError(t, err)
	return req
}

func input(id, start, end string) leave.SubmitInput {
	return leave.SubmitInput{
		PersonID: core.PersonID(id),
		Type:     core.LeaveAnnual,
		Start:    core.MustParseDate(start),
		End:      core.MustParseDate(end),
		Reason:   "family visit",
	}
}

// =============================================================================
// TRANSITION TABLE
// =============================================================================

func TestCanTransition_Table(t *testing.T) {
	allowed := map[[2]core.LeaveStatus]bool{
		{core.LeavePending, core.LeaveApproved}:   true,
		{core.LeavePending, core.LeaveRejected}:   true,
		{core.LeavePending, core.LeaveCancelled}:  true,
		{core.LeaveApproved, core.LeaveCancelled}: true,
		{core.LeaveApproved, core.LeaveCompleted}: true,
	}

	for _, from := range core.LeaveStatuses {
		for _, to := range core.LeaveStatuses {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				assert.Equal(t, allowed[[2]core.LeaveStatus{from, to}], leave.CanTransition(from, to))
			})
		}
	}

	assert.True(t, leave.IsTerminal(core.LeaveRejected))
	assert.True(t, leave.IsTerminal(core.LeaveCancelled))
	assert.True(t, leave.IsTerminal(core.LeaveCompleted))
	assert.False(t, leave.IsTerminal(core.LeavePending))
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_ComputesDaysAndResumption(t *testing.T) {
	f := newFixture(t)
	f.enlist(t, "S1", true)

	tests := []struct {
		start, end string
		days       int
		resumption string
	}{
		{"2025-03-10", "2025-03-10", 1, "2025-03-11"},
		{"2025-04-01", "2025-04-14", 14, "2025-04-15"},
		{"2025-02-27", "2025-03-02", 4, "2025-03-03"},
		{"2024-12-30", "2025-01-02", 4, "2025-01-03"},
	}

	for _, tt := range tests {
		t.Run(tt.start+".."+tt.end, func(t *testing.T) {
			req := f.submit(t, "S1", tt.start, tt.end)

			assert.Equal(t, core.LeavePending, req.Status)
			assert.Equal(t, tt.days, req.DaysCount)
			assert.Equal(t, tt.resumption, req.ResumptionDate.String())
			assert.False(t, req.RequestedAt.IsZero())
		})
	}
}

func TestSubmit_EndBeforeStart_DateOrderValidation(t *testing.T) {
	f := newFixture(t)
	f.enlist(t, "S2", true)

	_, err := f.leaves.Submit(context.Background(), input("S2", "2025-03-10", "2025-03-09"))

	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, core.CauseDateOrder, vErr.Cause)
	assert.NotErrorIs(t, err, core.ErrOverlap)
}

func TestSubmit_MissingReason_ValidationError(t *testing.T) {
	f := newFixture(t)
	f.enlist(t, "S3", true)

	in := input("S3", "2025-03-10", "2025-03-12")
	in.Reason = "   "
	_, err := f.leaves.Submit(context.Background(), in)

	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, core.CauseMissingField, vErr.Cause)
	assert.Equal(t, "reason", vErr.Field)
}

func TestSubmit_ResumptionOverride(t *testing.T) {
	f := newFixture(t)
	f.enlist(t, "S4", true)
	ctx := context.Background()

	in := input("S4", "2025-03-10", "2025-03-14")
	monday := core.MustParseDate("2025-03-17")
	in.ResumptionDate = &monday
	req, err := f.leaves.Submit(ctx, in)
	require.NoError(t, err)
	assert.True(t, req.ResumptionDate.Equal(monday))

	bad := input("S4", "2025-05-10", "2025-05-14")
	sameDay := core.MustParseDate("2025-05-14")
	bad.ResumptionDate = &sameDay
	_, err = f.leaves.Submit(ctx, bad)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestSubmit_UnknownPerson_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.leaves.Submit(context.Background(), input("GHOST", "2025-03-10", "2025-03-12"))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSubmit_Overlap_BlockedWhilePendingOrApproved(t *testing.T) {
	// GIVEN: A pending request for March 10-15
	// WHEN: Submitting ranges that touch it
	// THEN: OverlapError (also a validation error); adjacent ranges pass

	f := newFixture(t)
	f.enlist(t, "S5", true)
	ctx := context.Background()

	first := f.submit(t, "S5", "2025-03-10", "2025-03-15")

	_, err := f.leaves.Submit(ctx, input("S5", "2025-03-15", "2025-03-20"))
	var overlapErr *core.OverlapError
	require.ErrorAs(t, err, &overlapErr)
	assert.Equal(t, first.ID, overlapErr.Existing)
	assert.ErrorIs(t, err, core.ErrOverlap)
	assert.ErrorIs(t, err, core.ErrValidation)

	// Adjacent day is fine
	f.submit(t, "S5", "2025-03-16", "2025-03-18")

	// Still blocked once approved
	_, err = f.leaves.Approve(ctx, first.ID, "hq")
	require.NoError(t, err)
	_, err = f.leaves.Submit(ctx, input("S5", "2025-03-01", "2025-03-10"))
	assert.ErrorIs(t, err, core.ErrOverlap)
}

func TestSubmit_Overlap_ReleasedAfterRejectOrCancel(t *testing.T) {
	f := newFixture(t)
	f.enlist(t, "S6", true)
	ctx := context.Background()

	rejected := f.submit(t, "S6", "2025-06-01", "2025-06-05")
	_, err := f.leaves.Reject(ctx, rejected.ID, "hq", "manpower shortage")
	require.NoError(t, err)
	second := f.submit(t, "S6", "2025-06-03", "2025-06-07")

	_, err = f.leaves.Cancel(ctx, second.ID, "S6")
	require.NoError(t, err)
	f.submit(t, "S6", "2025-06-04", "2025-06-06")
}

func TestSubmit_OtherPersonDoesNotOverlap(t *testing.T) {
	f := newFixture(t)
	f.enlist(t, "S7", true)
	f.enlist(t, "S8", true)

	f.submit(t, "S7", "2025-07-01", "2025-07-10")
	f.submit(t, "S8", "2025-07-01", "2025-07-10")
}

// =============================================================================
// APPROVE / REJECT
// =============================================================================

func TestApprove_ActiveAssignmentGoesOnLeave_SecondApproveRejected(t *testing.T) {
	// GIVEN: A pending request, person ACTIVE
	// WHEN: Approving twice
	// THEN: ON_LEAVE after the first; the second fails and changes nothing

	f := newFixture(t)
	f.enlist(t, "A1", true)
	ctx := context.Background()
	req := f.submit(t, "A1", "2025-03-10", "2025-03-12")

	approved, err := f.leaves.Approve(ctx, req.ID, "hq-admin")
	require.NoError(t, err)
	assert.Equal(t, core.LeaveApproved, approved.Status)
	assert.Equal(t, "hq-admin", approved.DecidedBy)
	require.NotNil(t, approved.DecidedAt)
	assert.Equal(t, core.AssignmentOnLeave, f.status(t, "A1"))

	_, err = f.leaves.Approve(ctx, req.ID, "hq-admin")
	var trErr *core.InvalidTransitionError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, core.LeaveApproved, trErr.From)
	assert.Equal(t, core.AssignmentOnLeave, f.status(t, "A1"))
}

func TestApprove_NoAssignment_SucceedsWithoutPropagation(t *testing.T) {
	f := newFixture(t)
	f.enlist(t, "A2", false)

	req := f.submit(t, "A2", "2025-03-10", "2025-03-12")
	approved, err := f.leaves.Approve(context.Background(), req.ID, "hq")
	require.NoError(t, err)
	assert.Equal(t, core.LeaveApproved, approved.Status)

	history, err := f.ledger.History(context.Background(), "A2")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestApprove_SuspendedAssignment_NotTouched(t *testing.T) {
	f := newFixture(t)
	f.enlist(t, "A3", true)
	ctx := context.Background()
	_, err := f.ledger.SetStatus(ctx, "A3", core.AssignmentSuspended, "hq")
	require.NoError(t, err)

	req := f.submit(t, "A3", "2025-03-10", "2025-03-12")
	_, err = f.leaves.Approve(ctx, req.ID, "hq")
	require.NoError(t, err)
	assert.Equal(t, core.AssignmentSuspended, f.status(t, "A3"))
}

func TestReject_RequiresReason_NoAssignmentEffect(t *testing.T) {
	f := newFixture(t)
	f.enlist(t, "R1", true)
	ctx := context.Background()
	req := f.submit(t, "R1", "2025-03-10", "2025-03-12")

	_, err := f.leaves.Reject(ctx, req.ID, "hq", "")
	assert.ErrorIs(t, err, core.ErrValidation)

	rejected, err := f.leaves.Reject(ctx, req.ID, "hq", "exercise period")
	require.NoError(t, err)
	assert.Equal(t, core.LeaveRejected, rejected.Status)
	assert.Equal(t, "exercise period", rejected.RejectionReason)
	assert.Equal(t, core.AssignmentActive, f.status(t, "R1"))
}

func TestReject_FromApproved_InvalidTransition(t *testing.T) {
	f := newFixture(t)
	f.enlist(t, "R2", true)
	ctx := context.Background()
	req := f.submit(t, "R2", "2025-03-10", "2025-03-12")
	_, err := f.leaves.Approve(ctx, req.ID, "hq")
	require.NoError(t, err)

	_, err = f.leaves.Reject(ctx, req.ID, "hq", "changed mind")
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	got, err := f.leaves.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, core.LeaveApproved, got.Status)
}

// =============================================================================
// CANCEL / COMPLETE
// =============================================================================

func TestCancel_Approved_RevertsOnLeaveToActive(t *testing.T) {
	f := newFixture(t)
	f.enlist(t, "C1", true)
	ctx := context.Background()
	req := f.submit(t, "C1", "2025-03-10", "2025-03-12")
	_, err := f.leaves.Approve(ctx, req.ID, "hq")
	require.NoError(t, err)

	cancelled, err := f.leaves.Cancel(ctx, req.ID, "")
	require.NoError(t, err)
	assert.Equal(t, core.LeaveCancelled, cancelled.Status)
	assert.Equal(t, "hq", cancelled.DecidedBy, "cancel keeps the approval decision")
	assert.Equal(t, core.AssignmentActive, f.status(t, "C1"))
}

func TestCancel_Approved_SuspendedMeanwhile_StaysSuspended(t *testing.T) {
	// GIVEN: Approved leave, then an administrator suspends the assignment
	// WHEN: The leave is cancelled
	// THEN: The assignment stays SUSPENDED (no forced reversion)

	f := newFixture(t)
	f.enlist(t, "C2", true)
	ctx := context.Background()
	req := f.submit(t, "C2", "2025-03-10", "2025-03-12")
	_, err := f.leaves.Approve(ctx, req.ID, "hq")
	require.NoError(t, err)
	_, err = f.ledger.SetStatus(ctx, "C2", core.AssignmentSuspended, "hq")
	require.NoError(t, err)

	_, err = f.leaves.Cancel(ctx, req.ID, "hq")
	require.NoError(t, err)
	assert.Equal(t, core.AssignmentSuspended, f.status(t, "C2"))
}

func TestCancel_Pending_NoAssignmentEffect(t *testing.T) {
	f := newFixture(t)
	f.enlist(t, "C3", true)
	ctx := context.Background()
	running := f.submit(t, "C3", "2025-03-01", "2025-03-05")
	_, err := f.leaves.Approve(ctx, running.ID, "hq")
	require.NoError(t, err)

	req := f.submit(t, "C3", "2025-03-10", "2025-03-12")
	_, err = f.leaves.Cancel(ctx, req.ID, "C3")
	require.NoError(t, err)
	assert.Equal(t, core.AssignmentOnLeave, f.status(t, "C3"), "pending cancel never reverts")
}

func TestCancel_Terminal_InvalidTransition(t *testing.T) {
	f := newFixture(t)
	f.enlist(t, "C4", true)
	ctx := context.Background()

	rejected := f.submit(t, "C4", "2025-03-01", "2025-03-02")
	_, err := f.leaves.Reject(ctx, rejected.ID, "hq", "no")
	require.NoError(t, err)
	_, err = f.leaves.Cancel(ctx, rejected.ID, "")
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	cancelled := f.submit(t, "C4", "2025-04-01", "2025-04-02")
	_, err = f.leaves.Cancel(ctx, cancelled.ID, "")
	require.NoError(t, err)
	_, err = f.leaves.Cancel(ctx, cancelled.ID, "")
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestComplete_ApprovedOnly_RevertsOnLeave(t *testing.T) {
	f := newFixture(t)
	f.enlist(t, "M1", true)
	ctx := context.Background()
	req := f.submit(t, "M1", "2025-03-10", "2025-03-12")

	_, err := f.leaves.Complete(ctx, req.ID, "hq")
	assert.ErrorIs(t, err, core.ErrInvalidTransition, "pending leave cannot complete")

	_, err = f.leaves.Approve(ctx, req.ID, "hq")
	require.NoError(t, err)
	completed, err := f.leaves.Complete(ctx, req.ID, "hq")
	require.NoError(t, err)
	assert.Equal(t, core.LeaveCompleted, completed.Status)
	assert.Equal(t, core.AssignmentActive, f.status(t, "M1"))

	_, err = f.leaves.Cancel(ctx, req.ID, "hq")
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestTransition_UnknownRequest_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.leaves.Approve(context.Background(), "missing", "hq")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestApprove_Concurrent_ExactlyOneWins(t *testing.T) {
	// GIVEN: One pending request
	// WHEN: Several approvers race
	// THEN: One succeeds, the rest see an invalid transition

	f := newFixture(t)
	f.enlist(t, "X1", true)
	req := f.submit(t, "X1", "2025-03-10", "2025-03-12")

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.leaves.Approve(context.Background(), req.ID, "hq")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, core.ErrInvalidTransition)
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, core.AssignmentOnLeave, f.status(t, "X1"))
}

// =============================================================================
// USAGE AND OVERDUE
// =============================================================================

func TestUsage_ClipsToPeriodAndSkipsUndecided(t *testing.T) {
	f := newFixture(t)
	f.enlist(t, "U1", true)
	ctx := context.Background()

	// 2024-12-30..2025-01-03 approved: 3 days fall in 2025
	annual := f.submit(t, "U1", "2024-12-30", "2025-01-03")
	_, err := f.leaves.Approve(ctx, annual.ID, "hq")
	require.NoError(t, err)
	_, err = f.leaves.Complete(ctx, annual.ID, "hq")
	require.NoError(t, err)

	sick := input("U1", "2025-02-10", "2025-02-11")
	sick.Type = core.LeaveSick
	sickReq, err := f.leaves.Submit(ctx, sick)
	require.NoError(t, err)
	_, err = f.leaves.Approve(ctx, sickReq.ID, "hq")
	require.NoError(t, err)

	// Pending leave does not count
	f.submit(t, "U1", "2025-05-01", "2025-05-05")

	usage, err := f.leaves.Usage(ctx, "U1", core.YearPeriod(2025))
	require.NoError(t, err)
	assert.Equal(t, "3", usage.ByType[core.LeaveAnnual].Value.String())
	assert.Equal(t, "2", usage.ByType[core.LeaveSick].Value.String())
	assert.Equal(t, "5", usage.Total.Value.String())
}

func TestOverdue_ListsApprovedPastEndOnly(t *testing.T) {
	f := newFixture(t)
	f.enlist(t, "O1", true)
	f.enlist(t, "O2", true)
	ctx := context.Background()

	past := f.submit(t, "O1", "2025-01-10", "2025-01-12")
	_, err := f.leaves.Approve(ctx, past.ID, "hq")
	require.NoError(t, err)

	running := f.submit(t, "O2", "2025-01-10", "2025-01-20")
	_, err = f.leaves.Approve(ctx, running.ID, "hq")
	require.NoError(t, err)

	f.submit(t, "O1", "2025-01-01", "2025-01-02") // pending, ignored

	overdue, err := f.leaves.Overdue(ctx, core.MustParseDate("2025-01-15"))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, past.ID, overdue[0].ID)

	// Still ON_LEAVE: nothing reverts automatically
	assert.Equal(t, core.AssignmentOnLeave, f.status(t, "O1"))
}

func TestList_FilterByStatus(t *testing.T) {
	f := newFixture(t)
	f.enlist(t, "F1", true)
	ctx := context.Background()

	a := f.submit(t, "F1", "2025-01-10", "2025-01-12")
	f.submit(t, "F1", "2025-02-10", "2025-02-12")
	_, err := f.leaves.Approve(ctx, a.ID, "hq")
	require.NoError(t, err)

	approved, err := f.leaves.List(ctx, core.LeaveFilter{PersonID: "F1", Status: core.LeaveApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, a.ID, approved[0].ID)

	_, err = f.leaves.List(ctx, core.LeaveFilter{Status: "WHATEVER"})
	assert.ErrorIs(t, err, core.ErrValidation)
}
