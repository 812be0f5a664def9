package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/warp/duty-roster/core"
	"github.com/warp/duty-roster/leave"
	"github.com/warp/duty-roster/personnel"
)

func TestResumptionMonitor_LogsOverdueWithoutReverting(t *testing.T) {
	// GIVEN: Approved leave that ended on 2025-01-12
	// WHEN: The monitor checks on 2025-01-15
	// THEN: It warns once and the member stays ON_LEAVE

	h := setupTestHandler(t)
	ctx := context.Background()

	_, err := h.Directory.Enlist(ctx, core.Person{
		ServiceNumber: "DSS1", FirstName: "Ada", LastName: "Obi", Rank: core.RankSO, Gender: core.GenderFemale,
	}, &personnel.Posting{Disposition: "SDS", PostedOn: core.MustParseDate("2024-01-01")}, "hq")
	require.NoError(t, err)

	req, err := h.Leaves.Submit(ctx, leave.SubmitInput{
		PersonID: "DSS1", Type: core.LeaveSick,
		Start: core.MustParseDate("2025-01-10"), End: core.MustParseDate("2025-01-12"),
		Reason: "fever",
	})
	require.NoError(t, err)
	_, err = h.Leaves.Approve(ctx, req.ID, "hq")
	require.NoError(t, err)

	obsCore, logs := observer.New(zap.WarnLevel)
	m := NewResumptionMonitor(h.Leaves, zap.New(obsCore), time.Minute)
	m.today = func() core.Date { return core.MustParseDate("2025-01-15") }

	overdue := m.RunNow(ctx)

	require.Len(t, overdue, 1)
	entries := logs.FilterMessage("leave resumption overdue").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(3), entries[0].ContextMap()["days_overdue"])

	current, err := h.Ledger.Current(ctx, "DSS1")
	require.NoError(t, err)
	assert.Equal(t, core.AssignmentOnLeave, current.Status)
}

func TestResumptionMonitor_StartStop(t *testing.T) {
	h := setupTestHandler(t)

	m := NewResumptionMonitor(h.Leaves, zap.NewNop(), time.Hour)
	m.Start()
	m.Start() // second start is a no-op
	m.Stop()
	m.Stop()

	disabled := NewResumptionMonitor(h.Leaves, zap.NewNop(), 0)
	disabled.Enabled = false
	disabled.Start()
	assert.Nil(t, disabled.ticker)
	assert.Equal(t, time.Hour, disabled.CheckInterval)
}
