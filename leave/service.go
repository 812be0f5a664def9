/*
Package leave implements the leave request state machine.

STATE MACHINE:
  ┌─────────┐ approve  ┌──────────┐ complete ┌───────────┐
  │ PENDING │ ───────▶ │ APPROVED │ ───────▶ │ COMPLETED │
  └─────────┘          └──────────┘          └───────────┘
     │    │                 │
     │    │ reject          │ cancel
     │    ▼                 ▼
     │  ┌──────────┐     ┌───────────┐
     │  │ REJECTED │     │ CANCELLED │
     │  └──────────┘     └───────────┘
     │      cancel          ▲
     └──────────────────────┘

ASSIGNMENT SIDE EFFECTS:
  approve:            current assignment ACTIVE   -> ON_LEAVE
  cancel (APPROVED):  current assignment ON_LEAVE -> ACTIVE
  complete:           current assignment ON_LEAVE -> ACTIVE

  Each side effect reads the assignment's status INSIDE the transaction
  and only writes if it holds the expected value. An assignment that an
  administrator moved to SUSPENDED while the person was on leave stays
  SUSPENDED when the leave is cancelled. A person with no assignment can
  still have leave approved; nothing is propagated.

RESUMPTION:
  Nothing reverts ON_LEAVE when end_date passes. Complete is the manual
  resumption confirmation. Overdue lists approved leave whose end_date is
  behind the given date so an administrator can act on it.

ATOMICITY:
  Every transition, its assignment side effect and its audit entry are
  written in one Store.WithTx call. The leave row is updated with a
  compare-and-swap on its prior status.

SEE ALSO:
  - transitions.go:  Transition table
  - usage.go:        Leave usage per type
*/
package leave

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/duty-roster/core"
)

// Service runs the leave request lifecycle.
type Service struct {
	store  core.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a leave service backed by store.
func NewService(store core.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// =============================================================================
// SUBMIT
// =============================================================================

// SubmitInput is a new leave application.
type SubmitInput struct {
	PersonID core.PersonID
	Type     core.LeaveType
	Start    core.Date
	End      core.Date
	Reason   string

	// ResumptionDate overrides the default end+1. Must fall after End.
	ResumptionDate *core.Date
}

func (in *SubmitInput) validate() error {
	in.Reason = strings.TrimSpace(in.Reason)
	switch {
	case in.PersonID == "":
		return core.Missing("person_id")
	case in.Type == "":
		return core.Missing("leave_type")
	case !in.Type.Valid():
		return core.Invalid("leave_type", "unknown leave type %q", in.Type)
	case in.Start.IsZero():
		return core.Missing("start_date")
	case in.End.IsZero():
		return core.Missing("end_date")
	case in.End.Before(in.Start):
		return &core.ValidationError{
			Field:   "end_date",
			Cause:   core.CauseDateOrder,
			Message: "end_date " + in.End.String() + " is before start_date " + in.Start.String(),
		}
	case in.Reason == "":
		return core.Missing("reason")
	case in.ResumptionDate != nil && !in.ResumptionDate.After(in.End):
		return &core.ValidationError{
			Field:   "resumption_date",
			Cause:   core.CauseDateOrder,
			Message: "resumption_date must be after end_date " + in.End.String(),
		}
	}
	return nil
}

// Submit creates a PENDING request. It fails with a *core.ValidationError
// for malformed input and a *core.OverlapError when the range shares a day
// with another PENDING or APPROVED request of the same person.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*core.LeaveRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	period := core.Period{Start: in.Start, End: in.End}
	resumption := in.End.AddDays(1)
	if in.ResumptionDate != nil {
		resumption = *in.ResumptionDate
	}

	req := core.LeaveRequest{
		ID:             core.LeaveRequestID(uuid.NewString()),
		PersonID:       in.PersonID,
		Type:           in.Type,
		Period:         period,
		DaysCount:      period.DayCount(),
		ResumptionDate: resumption,
		Reason:         in.Reason,
		Status:         core.LeavePending,
		RequestedAt:    now,
		UpdatedAt:      now,
	}

	err := s.store.WithTx(ctx, func(tx core.Tx) error {
		if _, err := tx.GetPerson(ctx, in.PersonID); err != nil {
			return err
		}

		existing, err := tx.OverlappingLeave(ctx, in.PersonID, period)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return &core.OverlapError{
				PersonID:       in.PersonID,
				Requested:      period,
				Existing:       existing[0].ID,
				ExistingPeriod: existing[0].Period,
				Status:         existing[0].Status,
			}
		}

		if err := tx.InsertLeaveRequest(ctx, req); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, core.NewAuditEntry(now, string(in.PersonID), core.AuditLeaveSubmitted, in.PersonID, string(req.ID),
			map[string]any{"type": req.Type, "period": period.String(), "days": req.DaysCount}))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("leave submitted",
		zap.String("request_id", string(req.ID)),
		zap.String("service_number", string(req.PersonID)),
		zap.String("type", string(req.Type)),
		zap.Stringer("start", req.Period.Start),
		zap.Stringer("end", req.Period.End),
		zap.Int("days", req.DaysCount))
	return &req, nil
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Approve moves a PENDING request to APPROVED and puts the person's ACTIVE
// current assignment ON_LEAVE.
func (s *Service) Approve(ctx context.Context, id core.LeaveRequestID, approver string) (*core.LeaveRequest, error) {
	return s.transition(ctx, id, core.LeaveApproved, approver, func(r *core.LeaveRequest, at time.Time) {
		r.DecidedBy = approver
		r.DecidedAt = &at
	})
}

// Reject moves a PENDING request to REJECTED. reason is mandatory.
func (s *Service) Reject(ctx context.Context, id core.LeaveRequestID, approver, reason string) (*core.LeaveRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, core.Missing("rejection_reason")
	}
	return s.transition(ctx, id, core.LeaveRejected, approver, func(r *core.LeaveRequest, at time.Time) {
		r.DecidedBy = approver
		r.DecidedAt = &at
		r.RejectionReason = reason
	})
}

// Cancel withdraws a PENDING or APPROVED request. Cancelling approved leave
// returns an ON_LEAVE current assignment to ACTIVE. actor may be empty.
func (s *Service) Cancel(ctx context.Context, id core.LeaveRequestID, actor string) (*core.LeaveRequest, error) {
	return s.transition(ctx, id, core.LeaveCancelled, actor, nil)
}

// Complete confirms the person has resumed after APPROVED leave. An
// ON_LEAVE current assignment returns to ACTIVE.
func (s *Service) Complete(ctx context.Context, id core.LeaveRequestID, actor string) (*core.LeaveRequest, error) {
	return s.transition(ctx, id, core.LeaveCompleted, actor, nil)
}

// statusEffect describes what a transition did to the current assignment.
type statusEffect struct {
	AssignmentID core.AssignmentID
	Found        string // status read inside the transaction, empty if no assignment
	Applied      bool
}

func (e statusEffect) fields() []zap.Field {
	return []zap.Field{
		zap.String("assignment_id", string(e.AssignmentID)),
		zap.String("assignment_status", e.Found),
		zap.Bool("status_changed", e.Applied),
	}
}

// assignmentSwap returns the assignment status change a transition
// requests, if any.
func assignmentSwap(from, to core.LeaveStatus) (expect, next core.AssignmentStatus, ok bool) {
	switch {
	case to == core.LeaveApproved:
		return core.AssignmentActive, core.AssignmentOnLeave, true
	case from == core.LeaveApproved && (to == core.LeaveCancelled || to == core.LeaveCompleted):
		return core.AssignmentOnLeave, core.AssignmentActive, true
	}
	return "", "", false
}

var auditActions = map[core.LeaveStatus]core.AuditAction{
	core.LeaveApproved:  core.AuditLeaveApproved,
	core.LeaveRejected:  core.AuditLeaveRejected,
	core.LeaveCancelled: core.AuditLeaveCancelled,
	core.LeaveCompleted: core.AuditLeaveCompleted,
}

// transition applies one state machine move with its assignment side effect
// and audit entry in a single transaction.
func (s *Service) transition(
	ctx context.Context,
	id core.LeaveRequestID,
	to core.LeaveStatus,
	actor string,
	decide func(r *core.LeaveRequest, at time.Time),
) (*core.LeaveRequest, error) {
	var req core.LeaveRequest
	var from core.LeaveStatus
	var effect statusEffect

	err := s.store.WithTx(ctx, func(tx core.Tx) error {
		current, err := tx.GetLeaveRequest(ctx, id)
		if err != nil {
			return err
		}
		req = *current
		from = req.Status

		if !CanTransition(from, to) {
			return &core.InvalidTransitionError{RequestID: id, From: from, To: to}
		}

		at := s.now()
		if decide != nil {
			decide(&req, at)
		}
		req.Status = to
		req.UpdatedAt = at

		if err := tx.UpdateLeaveRequest(ctx, req, from); err != nil {
			return err
		}

		if expect, next, ok := assignmentSwap(from, to); ok {
			if effect, err = swapCurrentStatus(ctx, tx, req.PersonID, expect, next); err != nil {
				return err
			}
		}

		return tx.AppendAudit(ctx, core.NewAuditEntry(at, actor, auditActions[to], req.PersonID, string(req.ID),
			map[string]any{
				"from":              from,
				"to":                to,
				"assignment_id":     effect.AssignmentID,
				"assignment_status": effect.Found,
				"status_changed":    effect.Applied,
			}))
	})
	if err != nil {
		if core.IsClientError(err) || core.IsNotFound(err) {
			s.logger.Warn("leave transition refused",
				zap.String("request_id", string(id)),
				zap.String("to", string(to)),
				zap.Error(err))
		} else {
			s.logger.Error("leave transition failed",
				zap.String("request_id", string(id)),
				zap.String("to", string(to)),
				zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("leave transition",
		append([]zap.Field{
			zap.String("request_id", string(req.ID)),
			zap.String("service_number", string(req.PersonID)),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.String("actor", actor),
		}, effect.fields()...)...)
	return &req, nil
}

// swapCurrentStatus moves the person's current assignment from expect to
// next. The status is read through tx, so a status changed by an
// administrator since approval is seen and left alone.
func swapCurrentStatus(ctx context.Context, tx core.Tx, person core.PersonID, expect, next core.AssignmentStatus) (statusEffect, error) {
	current, ok, err := core.CurrentOf(ctx, tx, person)
	if err != nil || !ok {
		return statusEffect{}, err
	}

	effect := statusEffect{AssignmentID: current.ID, Found: string(current.Status)}
	if current.Status != expect {
		return effect, nil
	}

	effect.Applied, err = tx.SetAssignmentStatus(ctx, current.ID, expect, next)
	return effect, err
}

// =============================================================================
// QUERIES
// =============================================================================

// Get returns a leave request by ID.
func (s *Service) Get(ctx context.Context, id core.LeaveRequestID) (*core.LeaveRequest, error) {
	return s.store.GetLeaveRequest(ctx, id)
}

// List returns requests matching filter, newest first.
func (s *Service) List(ctx context.Context, filter core.LeaveFilter) ([]core.LeaveRequest, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, core.Invalid("status", "unknown leave status %q", filter.Status)
	}
	return s.store.ListLeaveRequests(ctx, filter)
}
