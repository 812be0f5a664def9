package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/duty-roster/core"
)

// =============================================================================
// GUARD DUTY ROSTER
// =============================================================================

// LastDutyDates returns each person's latest duty date on or before asOf.
// Duties booked after asOf are ignored.
func (s queries) LastDutyDates(ctx context.Context, asOf core.Date) (map[core.PersonID]core.Date, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT person_id, MAX(duty_date)
		FROM duty_records
		WHERE duty_date <= ?
		GROUP BY person_id
	`, asOf.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query last duty dates: %w", err)
	}
	defer rows.Close()

	result := make(map[core.PersonID]core.Date)
	for rows.Next() {
		var id core.PersonID
		var last string
		if err := rows.Scan(&id, &last); err != nil {
			return nil, fmt.Errorf("failed to scan last duty date: %w", err)
		}
		d, err := core.ParseDate(last)
		if err != nil {
			return nil, err
		}
		result[id] = d
	}
	return result, rows.Err()
}

// DutyExists reports whether the person already holds that shift that day.
func (s queries) DutyExists(ctx context.Context, id core.PersonID, date core.Date, shift core.Shift) (bool, error) {
	var count int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM duty_records
		WHERE person_id = ? AND duty_date = ? AND shift = ?
	`, id, date.String(), shift).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check duty slot: %w", err)
	}
	return count > 0, nil
}

// ListDuties returns the roster for a period ordered by date, shift and
// service number.
func (s queries) ListDuties(ctx context.Context, period core.Period) ([]core.DutyRecord, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, person_id, duty_date, shift, recorded_by, created_at
		FROM duty_records
		WHERE duty_date >= ? AND duty_date <= ?
		ORDER BY duty_date, shift, person_id
	`, period.Start.String(), period.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list duties: %w", err)
	}
	defer rows.Close()

	var result []core.DutyRecord
	for rows.Next() {
		var d core.DutyRecord
		var date, createdAt string
		if err := rows.Scan(&d.ID, &d.PersonID, &date, &d.Shift, &d.RecordedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan duty record: %w", err)
		}
		if d.Date, err = core.ParseDate(date); err != nil {
			return nil, err
		}
		d.CreatedAt = parseTime(createdAt)
		result = append(result, d)
	}
	return result, rows.Err()
}

// AppendDuty books a shift. A second booking of the same
// (person, date, shift) fails with *core.DuplicateAssignmentError.
func (t *txStore) AppendDuty(ctx context.Context, d core.DutyRecord) error {
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := t.q.ExecContext(ctx, `
		INSERT INTO duty_records (id, person_id, duty_date, shift, recorded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, d.ID, d.PersonID, d.Date.String(), d.Shift, d.RecordedBy, formatTime(createdAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return &core.DuplicateAssignmentError{PersonID: d.PersonID, Date: d.Date, Shift: d.Shift}
		}
		return fmt.Errorf("failed to append duty record: %w", err)
	}
	return nil
}
