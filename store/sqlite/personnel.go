package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/warp/duty-roster/core"
)

// =============================================================================
// PERSONNEL
// =============================================================================

const personColumns = `service_number, first_name, last_name, rank, gender, date_of_birth,
	marital_status, state_of_origin, lga_of_origin, enlisted_on, created_at`

// GetPerson retrieves a person by service number.
func (s queries) GetPerson(ctx context.Context, id core.PersonID) (*core.Person, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+personColumns+` FROM personnel WHERE service_number = ?`, id)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFound("person", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return &p, nil
}

// ListPersons returns all personnel ordered by service number.
func (s queries) ListPersons(ctx context.Context) ([]core.Person, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+personColumns+` FROM personnel ORDER BY service_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to list personnel: %w", err)
	}
	defer rows.Close()

	var result []core.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// SavePerson inserts or corrects a person. created_at is kept from the
// first insert.
func (t *txStore) SavePerson(ctx context.Context, p core.Person) error {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO personnel (` + personColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(service_number) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			rank = excluded.rank,
			gender = excluded.gender,
			date_of_birth = excluded.date_of_birth,
			marital_status = excluded.marital_status,
			state_of_origin = excluded.state_of_origin,
			lga_of_origin = excluded.lga_of_origin,
			enlisted_on = excluded.enlisted_on
	`
	_, err := t.q.ExecContext(ctx, query,
		p.ServiceNumber,
		p.FirstName,
		p.LastName,
		p.Rank,
		p.Gender,
		nullDate(p.DateOfBirth),
		p.MaritalStatus,
		p.StateOfOrigin,
		p.LGAOfOrigin,
		nullDate(p.EnlistedOn),
		formatTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save person: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (core.Person, error) {
	var p core.Person
	var dob, enlisted sql.NullString
	var createdAt string
	err := row.Scan(
		&p.ServiceNumber, &p.FirstName, &p.LastName, &p.Rank, &p.Gender, &dob,
		&p.MaritalStatus, &p.StateOfOrigin, &p.LGAOfOrigin, &enlisted, &createdAt,
	)
	if err != nil {
		return core.Person{}, err
	}
	if p.DateOfBirth, err = parseNullDate(dob); err != nil {
		return core.Person{}, err
	}
	if p.EnlistedOn, err = parseNullDate(enlisted); err != nil {
		return core.Person{}, err
	}
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}

// =============================================================================
// SECTIONS
// =============================================================================

// GetSection retrieves a section by name.
func (s queries) GetSection(ctx context.Context, name string) (*core.Section, error) {
	var sec core.Section
	err := s.q.QueryRowContext(ctx, `SELECT name, department FROM sections WHERE name = ?`, name).
		Scan(&sec.Name, &sec.Department)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFound("section", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get section: %w", err)
	}
	return &sec, nil
}

// SaveSection inserts or updates a section.
func (t *txStore) SaveSection(ctx context.Context, sec core.Section) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO sections (name, department) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET department = excluded.department
	`, sec.Name, sec.Department)
	if err != nil {
		return fmt.Errorf("failed to save section: %w", err)
	}
	return nil
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

const assignmentColumns = `seq, id, person_id, disposition, section, designation, sub_unit, posted_on, status`

// ListAssignments returns a person's posting history, oldest first.
func (s queries) ListAssignments(ctx context.Context, id core.PersonID) ([]core.Assignment, error) {
	return s.queryAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE person_id = ? ORDER BY posted_on, seq`, id)
}

// CurrentAssignments returns each person's current posting.
func (s queries) CurrentAssignments(ctx context.Context) (map[core.PersonID]core.Assignment, error) {
	all, err := s.queryAssignments(ctx, `SELECT `+assignmentColumns+` FROM assignments ORDER BY person_id`)
	if err != nil {
		return nil, err
	}

	byPerson := make(map[core.PersonID][]core.Assignment)
	for _, a := range all {
		byPerson[a.PersonID] = append(byPerson[a.PersonID], a)
	}

	result := make(map[core.PersonID]core.Assignment, len(byPerson))
	for id, history := range byPerson {
		if current, ok := core.CurrentAssignment(history); ok {
			result[id] = current
		}
	}
	return result, nil
}

func (s queries) queryAssignments(ctx context.Context, query string, args ...any) ([]core.Assignment, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var result []core.Assignment
	for rows.Next() {
		var a core.Assignment
		var postedOn string
		if err := rows.Scan(&a.Seq, &a.ID, &a.PersonID, &a.Disposition, &a.Section,
			&a.Designation, &a.SubUnit, &postedOn, &a.Status); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		if a.PostedOn, err = core.ParseDate(postedOn); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// AppendAssignment inserts a posting. The returned copy carries the
// store-assigned Seq.
func (t *txStore) AppendAssignment(ctx context.Context, a core.Assignment) (core.Assignment, error) {
	res, err := t.q.ExecContext(ctx, `
		INSERT INTO assignments (id, person_id, disposition, section, designation, sub_unit, posted_on, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.PersonID, a.Disposition, a.Section, a.Designation, a.SubUnit, a.PostedOn.String(), a.Status)
	if err != nil {
		return core.Assignment{}, fmt.Errorf("failed to append assignment: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return core.Assignment{}, fmt.Errorf("failed to read assignment seq: %w", err)
	}
	a.Seq = seq
	return a, nil
}

// SetAssignmentStatus moves an assignment from one status to another. It
// only writes if the row still holds from.
func (t *txStore) SetAssignmentStatus(ctx context.Context, id core.AssignmentID, from, to core.AssignmentStatus) (bool, error) {
	res, err := t.q.ExecContext(ctx,
		`UPDATE assignments SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to set assignment status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}
