package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/duty-roster/core"
)

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

const leaveColumns = `id, person_id, leave_type, start_date, end_date, days_count, resumption_date,
	reason, status, requested_at, decided_by, decided_at, rejection_reason, updated_at`

// GetLeaveRequest retrieves a leave request by ID.
func (s queries) GetLeaveRequest(ctx context.Context, id core.LeaveRequestID) (*core.LeaveRequest, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+leaveColumns+` FROM leave_requests WHERE id = ?`, id)
	r, err := scanLeaveRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFound("leave request", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leave request: %w", err)
	}
	return &r, nil
}

// ListLeaveRequests returns requests matching the filter, newest first.
func (s queries) ListLeaveRequests(ctx context.Context, filter core.LeaveFilter) ([]core.LeaveRequest, error) {
	var where []string
	var args []any
	if filter.PersonID != "" {
		where = append(where, "person_id = ?")
		args = append(args, filter.PersonID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT ` + leaveColumns + ` FROM leave_requests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY requested_at DESC, rowid DESC`

	return s.queryLeaveRequests(ctx, query, args...)
}

// OverlappingLeave returns the person's PENDING or APPROVED requests
// sharing at least one day with period. Both ends are inclusive.
func (s queries) OverlappingLeave(ctx context.Context, id core.PersonID, period core.Period) ([]core.LeaveRequest, error) {
	query := `
		SELECT ` + leaveColumns + ` FROM leave_requests
		WHERE person_id = ?
		  AND status IN (?, ?)
		  AND start_date <= ?
		  AND end_date >= ?
		ORDER BY start_date
	`
	return s.queryLeaveRequests(ctx, query,
		id, core.LeavePending, core.LeaveApproved, period.End.String(), period.Start.String())
}

func (s queries) queryLeaveRequests(ctx context.Context, query string, args ...any) ([]core.LeaveRequest, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()

	var result []core.LeaveRequest
	for rows.Next() {
		r, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func scanLeaveRequest(row rowScanner) (core.LeaveRequest, error) {
	var r core.LeaveRequest
	var start, end, resumption, requestedAt, updatedAt string
	var decidedAt sql.NullString
	err := row.Scan(
		&r.ID, &r.PersonID, &r.Type, &start, &end, &r.DaysCount, &resumption,
		&r.Reason, &r.Status, &requestedAt, &r.DecidedBy, &decidedAt, &r.RejectionReason, &updatedAt,
	)
	if err != nil {
		return core.LeaveRequest{}, err
	}
	if r.Period.Start, err = core.ParseDate(start); err != nil {
		return core.LeaveRequest{}, err
	}
	if r.Period.End, err = core.ParseDate(end); err != nil {
		return core.LeaveRequest{}, err
	}
	if r.ResumptionDate, err = core.ParseDate(resumption); err != nil {
		return core.LeaveRequest{}, err
	}
	r.RequestedAt = parseTime(requestedAt)
	r.DecidedAt = parseNullTime(decidedAt)
	r.UpdatedAt = parseTime(updatedAt)
	return r, nil
}

// InsertLeaveRequest stores a new leave request.
func (t *txStore) InsertLeaveRequest(ctx context.Context, r core.LeaveRequest) error {
	query := `
		INSERT INTO leave_requests (` + leaveColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := t.q.ExecContext(ctx, query,
		r.ID,
		r.PersonID,
		r.Type,
		r.Period.Start.String(),
		r.Period.End.String(),
		r.DaysCount,
		r.ResumptionDate.String(),
		r.Reason,
		r.Status,
		formatTime(r.RequestedAt),
		r.DecidedBy,
		nullTime(r.DecidedAt),
		r.RejectionReason,
		formatTime(r.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert leave request: %w", err)
	}
	return nil
}

// UpdateLeaveRequest writes the request's status and decision fields when
// the stored status still equals from.
func (t *txStore) UpdateLeaveRequest(ctx context.Context, r core.LeaveRequest, from core.LeaveStatus) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE leave_requests
		SET status = ?, decided_by = ?, decided_at = ?, rejection_reason = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, r.Status, r.DecidedBy, nullTime(r.DecidedAt), r.RejectionReason, formatTime(r.UpdatedAt), r.ID, from)
	if err != nil {
		return fmt.Errorf("failed to update leave request: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("leave request %s no longer %s: %w", r.ID, from, core.ErrConcurrentModification)
	}
	return nil
}
