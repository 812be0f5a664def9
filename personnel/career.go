package personnel

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/duty-roster/core"
)

// =============================================================================
// CAREER HISTORY
// =============================================================================

// CareerEntry describes a new career-history entry.
type CareerEntry struct {
	Rank              core.Rank
	LastPromotedOn    core.Date
	LastTransferredOn core.Date
	CommandLastServed string

	// YearsInService is derived from the enlistment date when nil.
	YearsInService *int
}

func (e *CareerEntry) validate(today core.Date) error {
	e.Rank = core.Rank(strings.TrimSpace(string(e.Rank)))
	e.CommandLastServed = strings.TrimSpace(e.CommandLastServed)

	switch {
	case !e.Rank.Valid():
		return core.Invalid("rank", "unknown rank %q", e.Rank)
	case e.CommandLastServed == "":
		return core.Missing("command_last_served")
	case e.YearsInService != nil && *e.YearsInService < 0:
		return core.Invalid("years_in_service", "years in service must not be negative, got %d", *e.YearsInService)
	case e.LastPromotedOn.After(today):
		return core.Invalid("last_promoted_on", "promotion date %s is in the future", e.LastPromotedOn)
	case e.LastTransferredOn.After(today):
		return core.Invalid("last_transferred_on", "transfer date %s is in the future", e.LastTransferredOn)
	}
	return nil
}

// RecordCareer appends a career entry. When the entry carries a rank other
// than the person's, the person is promoted to it in the same transaction.
func (d *Directory) RecordCareer(ctx context.Context, id core.PersonID, entry CareerEntry, actor string) (core.CareerRecord, error) {
	now := d.now()
	today := core.DateOf(now)
	if err := entry.validate(today); err != nil {
		return core.CareerRecord{}, err
	}

	var saved core.CareerRecord
	var previous core.Rank
	err := d.store.WithTx(ctx, func(tx core.Tx) error {
		p, err := tx.GetPerson(ctx, id)
		if err != nil {
			return err
		}
		if !p.EnlistedOn.IsZero() && !entry.LastPromotedOn.IsZero() && entry.LastPromotedOn.Before(p.EnlistedOn) {
			return core.Invalid("last_promoted_on", "promotion date %s is before enlistment on %s", entry.LastPromotedOn, p.EnlistedOn)
		}

		years := completedYears(p.EnlistedOn, today)
		if entry.YearsInService != nil {
			years = *entry.YearsInService
		}

		previous = p.Rank
		if entry.Rank != p.Rank {
			p.Rank = entry.Rank
			if err := tx.SavePerson(ctx, *p); err != nil {
				return err
			}
		}

		saved, err = tx.AppendCareerRecord(ctx, core.CareerRecord{
			ID:                core.CareerRecordID(uuid.NewString()),
			PersonID:          id,
			Rank:              entry.Rank,
			LastPromotedOn:    entry.LastPromotedOn,
			LastTransferredOn: entry.LastTransferredOn,
			CommandLastServed: entry.CommandLastServed,
			YearsInService:    years,
			RecordedBy:        actor,
			CreatedAt:         now,
		})
		if err != nil {
			return err
		}

		return tx.AppendAudit(ctx, core.NewAuditEntry(now, actor, core.AuditCareerRecorded, id, string(saved.ID),
			map[string]any{"rank": entry.Rank, "previous_rank": previous, "command_last_served": entry.CommandLastServed}))
	})
	if err != nil {
		return core.CareerRecord{}, err
	}

	d.logger.Info("career recorded",
		zap.String("service_number", string(id)),
		zap.String("rank", string(saved.Rank)),
		zap.Bool("promoted", previous != saved.Rank),
		zap.Int("years_in_service", saved.YearsInService))
	return saved, nil
}

// CareerHistory returns the person's career entries, oldest first.
func (d *Directory) CareerHistory(ctx context.Context, id core.PersonID) ([]core.CareerRecord, error) {
	if _, err := d.store.GetPerson(ctx, id); err != nil {
		return nil, err
	}
	return d.store.ListCareerRecords(ctx, id)
}

// completedYears counts whole years from from to to. Zero when from is
// unknown or later than to.
func completedYears(from, to core.Date) int {
	if from.IsZero() || to.Before(from) {
		return 0
	}
	years := to.Year() - from.Year()
	if to.Time.Month() < from.Time.Month() ||
		(to.Time.Month() == from.Time.Month() && to.Time.Day() < from.Time.Day()) {
		years--
	}
	return years
}

// =============================================================================
// QUALIFICATIONS
// =============================================================================

// AddQualification records an educational qualification. A title the
// person already holds, compared case-insensitively, is a ValidationError.
func (d *Directory) AddQualification(ctx context.Context, id core.PersonID, title, actor string) (core.Qualification, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return core.Qualification{}, core.Missing("title")
	}

	now := d.now()
	q := core.Qualification{
		ID:        core.QualificationID(uuid.NewString()),
		PersonID:  id,
		Title:     title,
		CreatedAt: now,
	}
	err := d.store.WithTx(ctx, func(tx core.Tx) error {
		if _, err := tx.GetPerson(ctx, id); err != nil {
			return err
		}
		if err := tx.AppendQualification(ctx, q); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, core.NewAuditEntry(now, actor, core.AuditQualified, id, string(q.ID),
			map[string]any{"title": title}))
	})
	if err != nil {
		return core.Qualification{}, err
	}

	d.logger.Info("qualification added", zap.String("service_number", string(id)), zap.String("title", title))
	return q, nil
}

// Qualifications returns the person's qualifications in recorded order.
func (d *Directory) Qualifications(ctx context.Context, id core.PersonID) ([]core.Qualification, error) {
	if _, err := d.store.GetPerson(ctx, id); err != nil {
		return nil, err
	}
	return d.store.ListQualifications(ctx, id)
}
