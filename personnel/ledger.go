package personnel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/duty-roster/core"
)

// =============================================================================
// ASSIGNMENT LEDGER
// =============================================================================

// Posting describes a new assignment. Section may be empty.
type Posting struct {
	Disposition string
	Section     string
	Designation string
	SubUnit     string
	PostedOn    core.Date
}

func (p *Posting) validate() error {
	p.Disposition = strings.TrimSpace(p.Disposition)
	p.Section = strings.TrimSpace(p.Section)
	if p.Disposition == "" {
		return core.Missing("disposition")
	}
	if p.PostedOn.IsZero() {
		return core.Missing("posted_on")
	}
	return nil
}

var errUnknownSection = errors.New("unknown section")

// Ledger appends postings and applies administrative status changes.
// Postings are never edited or removed; a newer one supersedes the old.
type Ledger struct {
	store  core.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewLedger creates an assignment ledger backed by store.
func NewLedger(store core.Store, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, logger: logger, now: time.Now}
}

// Post appends a new ACTIVE assignment for the person.
func (l *Ledger) Post(ctx context.Context, id core.PersonID, posting Posting, actor string) (core.Assignment, error) {
	if err := posting.validate(); err != nil {
		return core.Assignment{}, err
	}

	var saved core.Assignment
	err := l.store.WithTx(ctx, func(tx core.Tx) error {
		if _, err := tx.GetPerson(ctx, id); err != nil {
			return err
		}
		a, err := appendPosting(ctx, tx, id, posting, actor, l.now())
		if errors.Is(err, errUnknownSection) {
			return core.Invalid("section", "section %q does not exist", posting.Section)
		}
		saved = a
		return err
	})
	if err != nil {
		return core.Assignment{}, err
	}

	l.logger.Info("assignment posted",
		zap.String("service_number", string(id)),
		zap.String("assignment_id", string(saved.ID)),
		zap.String("disposition", saved.Disposition),
		zap.Stringer("posted_on", saved.PostedOn))
	return saved, nil
}

// SetStatus writes the status of the person's current assignment directly.
// This is the administrative path; it bypasses the leave state machine.
// ON_LEAVE is refused: only an approved leave request puts someone on leave.
func (l *Ledger) SetStatus(ctx context.Context, id core.PersonID, status core.AssignmentStatus, actor string) (core.Assignment, error) {
	switch {
	case !status.Valid():
		return core.Assignment{}, core.Invalid("status", "unknown assignment status %q", status)
	case status == core.AssignmentOnLeave:
		return core.Assignment{}, core.Invalid("status", "%s is set by approving a leave request", status)
	}

	var result core.Assignment
	var from core.AssignmentStatus
	err := l.store.WithTx(ctx, func(tx core.Tx) error {
		if _, err := tx.GetPerson(ctx, id); err != nil {
			return err
		}
		current, ok, err := core.CurrentOf(ctx, tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return core.NotFound("current assignment for person", id)
		}

		from = current.Status
		result = current
		if from == status {
			return nil
		}

		swapped, err := tx.SetAssignmentStatus(ctx, current.ID, from, status)
		if err != nil {
			return err
		}
		if !swapped {
			return fmt.Errorf("assignment %s changed while updating status: %w", current.ID, core.ErrConcurrentModification)
		}
		result.Status = status

		return tx.AppendAudit(ctx, core.NewAuditEntry(l.now(), actor, core.AuditStatusChanged, id, string(current.ID),
			map[string]any{"from": from, "to": status}))
	})
	if err != nil {
		return core.Assignment{}, err
	}

	if from != status {
		l.logger.Info("assignment status changed",
			zap.String("service_number", string(id)),
			zap.String("assignment_id", string(result.ID)),
			zap.String("from", string(from)),
			zap.String("to", string(status)),
			zap.String("actor", actor))
	}
	return result, nil
}

// Current returns the person's current assignment, or nil if they have
// never been posted.
func (l *Ledger) Current(ctx context.Context, id core.PersonID) (*core.Assignment, error) {
	if _, err := l.store.GetPerson(ctx, id); err != nil {
		return nil, err
	}
	current, ok, err := core.CurrentOf(ctx, l.store, id)
	if err != nil || !ok {
		return nil, err
	}
	return &current, nil
}

// History returns every posting of the person, oldest first.
func (l *Ledger) History(ctx context.Context, id core.PersonID) ([]core.Assignment, error) {
	if _, err := l.store.GetPerson(ctx, id); err != nil {
		return nil, err
	}
	return l.store.ListAssignments(ctx, id)
}

// appendPosting writes an ACTIVE assignment plus its audit entry. It
// returns errUnknownSection when the posting names a missing section, and
// a ValidationError when the designation is not catalogued for the section.
func appendPosting(ctx context.Context, tx core.Tx, id core.PersonID, posting Posting, actor string, now time.Time) (core.Assignment, error) {
	if posting.Section != "" {
		if _, err := tx.GetSection(ctx, posting.Section); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.Assignment{}, errUnknownSection
			}
			return core.Assignment{}, err
		}
	}
	designation, err := resolveDesignation(ctx, tx, posting.Section, strings.TrimSpace(posting.Designation))
	if err != nil {
		return core.Assignment{}, err
	}

	a, err := tx.AppendAssignment(ctx, core.Assignment{
		ID:          core.AssignmentID(uuid.NewString()),
		PersonID:    id,
		Disposition: posting.Disposition,
		Section:     posting.Section,
		Designation: designation,
		SubUnit:     strings.TrimSpace(posting.SubUnit),
		PostedOn:    posting.PostedOn,
		Status:      core.AssignmentActive,
	})
	if err != nil {
		return core.Assignment{}, err
	}

	err = tx.AppendAudit(ctx, core.NewAuditEntry(now, actor, core.AuditPosted, id, string(a.ID),
		map[string]any{"disposition": a.Disposition, "section": a.Section, "posted_on": a.PostedOn.String()}))
	return a, err
}
