package leave

import (
	"context"
	"sort"

	"github.com/warp/duty-roster/core"
)

// =============================================================================
// USAGE - Days taken per leave type
// =============================================================================

// Usage is the leave a person has taken within a period. Only APPROVED and
// COMPLETED requests count; each is clipped to the period.
type Usage struct {
	PersonID core.PersonID
	Period   core.Period
	ByType   map[core.LeaveType]core.Amount
	Total    core.Amount
}

// Usage sums the person's taken leave per type within period.
func (s *Service) Usage(ctx context.Context, person core.PersonID, period core.Period) (*Usage, error) {
	if !period.Valid() {
		return nil, &core.ValidationError{Field: "period", Cause: core.CauseDateOrder, Message: "period end is before start"}
	}
	if _, err := s.store.GetPerson(ctx, person); err != nil {
		return nil, err
	}

	requests, err := s.store.ListLeaveRequests(ctx, core.LeaveFilter{PersonID: person})
	if err != nil {
		return nil, err
	}

	usage := &Usage{
		PersonID: person,
		Period:   period,
		ByType:   make(map[core.LeaveType]core.Amount),
		Total:    core.Days(0),
	}
	for _, r := range requests {
		if r.Status != core.LeaveApproved && r.Status != core.LeaveCompleted {
			continue
		}
		clipped, ok := r.Period.Intersect(period)
		if !ok {
			continue
		}
		days := core.Days(clipped.DayCount())
		if prev, seen := usage.ByType[r.Type]; seen {
			usage.ByType[r.Type] = prev.Add(days)
		} else {
			usage.ByType[r.Type] = days
		}
		usage.Total = usage.Total.Add(days)
	}
	return usage, nil
}

// =============================================================================
// OVERDUE - Approved leave awaiting resumption confirmation
// =============================================================================

// Overdue returns APPROVED requests whose end_date is before asOf, oldest
// end date first. Read-only: statuses are never changed here.
func (s *Service) Overdue(ctx context.Context, asOf core.Date) ([]core.LeaveRequest, error) {
	approved, err := s.store.ListLeaveRequests(ctx, core.LeaveFilter{Status: core.LeaveApproved})
	if err != nil {
		return nil, err
	}

	var overdue []core.LeaveRequest
	for _, r := range approved {
		if r.Period.End.Before(asOf) {
			overdue = append(overdue, r)
		}
	}
	sort.SliceStable(overdue, func(i, j int) bool {
		if !overdue[i].Period.End.Equal(overdue[j].Period.End) {
			return overdue[i].Period.End.Before(overdue[j].Period.End)
		}
		return overdue[i].PersonID < overdue[j].PersonID
	})
	return overdue, nil
}
