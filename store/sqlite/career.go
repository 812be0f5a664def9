package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/warp/duty-roster/core"
)

// =============================================================================
// ORGANIZATION CATALOGUE
// =============================================================================

// ListSections returns all sections ordered by department, then name.
func (s queries) ListSections(ctx context.Context) ([]core.Section, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT name, department FROM sections ORDER BY department, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	var result []core.Section
	for rows.Next() {
		var sec core.Section
		if err := rows.Scan(&sec.Name, &sec.Department); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		result = append(result, sec)
	}
	return result, rows.Err()
}

// ListDesignations returns the designations of one section, or of every
// section when section is empty.
func (s queries) ListDesignations(ctx context.Context, section string) ([]core.Designation, error) {
	query := `SELECT section, name, description FROM designations`
	var args []any
	if section != "" {
		query += ` WHERE section = ?`
		args = append(args, section)
	}
	query += ` ORDER BY section, name`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list designations: %w", err)
	}
	defer rows.Close()

	var result []core.Designation
	for rows.Next() {
		var d core.Designation
		if err := rows.Scan(&d.Section, &d.Name, &d.Description); err != nil {
			return nil, fmt.Errorf("failed to scan designation: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// SaveDesignation inserts a designation or updates its description.
func (t *txStore) SaveDesignation(ctx context.Context, d core.Designation) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO designations (section, name, description) VALUES (?, ?, ?)
		ON CONFLICT(section, name) DO UPDATE SET description = excluded.description
	`, d.Section, d.Name, d.Description)
	if err != nil {
		return fmt.Errorf("failed to save designation: %w", err)
	}
	return nil
}

// =============================================================================
// CAREER HISTORY
// =============================================================================

const careerColumns = `seq, id, person_id, rank, last_promoted_on, last_transferred_on,
	command_last_served, years_in_service, recorded_by, created_at`

// ListCareerRecords returns a person's career entries, oldest first.
func (s queries) ListCareerRecords(ctx context.Context, id core.PersonID) ([]core.CareerRecord, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+careerColumns+` FROM career_records WHERE person_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list career records: %w", err)
	}
	defer rows.Close()

	var result []core.CareerRecord
	for rows.Next() {
		var r core.CareerRecord
		var promoted, transferred sql.NullString
		var createdAt string
		if err := rows.Scan(&r.Seq, &r.ID, &r.PersonID, &r.Rank, &promoted, &transferred,
			&r.CommandLastServed, &r.YearsInService, &r.RecordedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan career record: %w", err)
		}
		if r.LastPromotedOn, err = parseNullDate(promoted); err != nil {
			return nil, err
		}
		if r.LastTransferredOn, err = parseNullDate(transferred); err != nil {
			return nil, err
		}
		r.CreatedAt = parseTime(createdAt)
		result = append(result, r)
	}
	return result, rows.Err()
}

// AppendCareerRecord inserts a career entry. The returned copy carries the
// store-assigned Seq.
func (t *txStore) AppendCareerRecord(ctx context.Context, r core.CareerRecord) (core.CareerRecord, error) {
	res, err := t.q.ExecContext(ctx, `
		INSERT INTO career_records (id, person_id, rank, last_promoted_on, last_transferred_on,
			command_last_served, years_in_service, recorded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.PersonID, r.Rank, nullDate(r.LastPromotedOn), nullDate(r.LastTransferredOn),
		r.CommandLastServed, r.YearsInService, r.RecordedBy, formatTime(r.CreatedAt))
	if err != nil {
		return core.CareerRecord{}, fmt.Errorf("failed to append career record: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return core.CareerRecord{}, fmt.Errorf("failed to read career record seq: %w", err)
	}
	r.Seq = seq
	return r, nil
}

// =============================================================================
// QUALIFICATIONS
// =============================================================================

// ListQualifications returns a person's qualifications in insertion order.
func (s queries) ListQualifications(ctx context.Context, id core.PersonID) ([]core.Qualification, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, person_id, title, created_at FROM qualifications WHERE person_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list qualifications: %w", err)
	}
	defer rows.Close()

	var result []core.Qualification
	for rows.Next() {
		var q core.Qualification
		var createdAt string
		if err := rows.Scan(&q.ID, &q.PersonID, &q.Title, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan qualification: %w", err)
		}
		q.CreatedAt = parseTime(createdAt)
		result = append(result, q)
	}
	return result, rows.Err()
}

// AppendQualification stores a qualification. The unique index on
// (person_id, title) is case-insensitive.
func (t *txStore) AppendQualification(ctx context.Context, q core.Qualification) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO qualifications (id, person_id, title, created_at) VALUES (?, ?, ?, ?)
	`, q.ID, q.PersonID, q.Title, formatTime(q.CreatedAt))
	if isUniqueConstraintError(err) {
		return core.Invalid("title", "%s already holds %q", q.PersonID, q.Title)
	}
	if err != nil {
		return fmt.Errorf("failed to append qualification: %w", err)
	}
	return nil
}
