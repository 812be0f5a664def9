package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/warp/duty-roster/core"
)

// =============================================================================
// AUDIT LOG
// =============================================================================

// AppendAudit records an audit entry.
func (t *txStore) AppendAudit(ctx context.Context, e core.AuditEntry) error {
	payloadJSON, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode audit payload: %w", err)
	}

	_, err = t.q.ExecContext(ctx, `
		INSERT INTO audit_log (id, at, actor_id, action, person_id, subject_id, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, formatTime(e.At), e.ActorID, e.Action, e.PersonID, e.SubjectID, string(payloadJSON))
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// ListAudit returns audit entries, newest first. An empty person ID lists
// every entry.
func (s queries) ListAudit(ctx context.Context, id core.PersonID, limit int) ([]core.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, at, actor_id, action, person_id, subject_id, payload_json FROM audit_log`
	args := []any{}
	if id != "" {
		query += ` WHERE person_id = ?`
		args = append(args, id)
	}
	query += ` ORDER BY at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var result []core.AuditEntry
	for rows.Next() {
		var e core.AuditEntry
		var at, payloadJSON string
		if err := rows.Scan(&e.ID, &at, &e.ActorID, &e.Action, &e.PersonID, &e.SubjectID, &payloadJSON); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.At = parseTime(at)
		if payloadJSON != "" && payloadJSON != "null" {
			if err := json.Unmarshal([]byte(payloadJSON), &e.Payload); err != nil {
				return nil, fmt.Errorf("failed to decode audit payload: %w", err)
			}
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
