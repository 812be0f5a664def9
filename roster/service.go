package roster

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/duty-roster/core"
)

// Service books guard duty and serves the rotation order.
type Service struct {
	store    core.Store
	selector *Selector
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a roster service backed by store.
func NewService(store core.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		selector: NewSelector(store),
		logger:   logger,
		now:      time.Now,
	}
}

// Eligible returns at most limit candidates in rotation order as of asOf.
// limit <= 0 returns everyone eligible.
func (s *Service) Eligible(ctx context.Context, asOf core.Date, limit int) ([]Candidate, error) {
	if asOf.IsZero() {
		return nil, core.Missing("date")
	}
	candidates, err := s.selector.ComputeEligible(ctx, asOf)
	if err != nil {
		return nil, err
	}
	return Take(candidates, limit), nil
}

// =============================================================================
// RECORD DUTY
// =============================================================================

// RecordDuty books a shift for a person. It fails with
// *core.DuplicateAssignmentError when the slot is already booked and with
// *core.IneligibleError when the person's current assignment is not
// ACTIVE at booking time.
func (s *Service) RecordDuty(ctx context.Context, id core.PersonID, date core.Date, shift core.Shift, actor string) (*core.DutyRecord, error) {
	switch {
	case id == "":
		return nil, core.Missing("person_id")
	case date.IsZero():
		return nil, core.Missing("date")
	case !shift.Valid():
		return nil, core.Invalid("shift", "shift must be DAY or NIGHT, got %q", shift)
	}

	now := s.now()
	record := core.DutyRecord{
		ID:         core.DutyRecordID(uuid.NewString()),
		PersonID:   id,
		Date:       date,
		Shift:      shift,
		RecordedBy: actor,
		CreatedAt:  now,
	}

	err := s.store.WithTx(ctx, func(tx core.Tx) error {
		if _, err := tx.GetPerson(ctx, id); err != nil {
			return err
		}

		booked, err := tx.DutyExists(ctx, id, date, shift)
		if err != nil {
			return err
		}
		if booked {
			return &core.DuplicateAssignmentError{PersonID: id, Date: date, Shift: shift}
		}

		current, ok, err := core.CurrentOf(ctx, tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return &core.IneligibleError{PersonID: id}
		}
		if current.Status != core.AssignmentActive {
			return &core.IneligibleError{PersonID: id, Status: current.Status}
		}

		if err := tx.AppendDuty(ctx, record); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, core.NewAuditEntry(now, actor, core.AuditDutyRecorded, id, string(record.ID),
			map[string]any{"date": date.String(), "shift": shift}))
	})
	if err != nil {
		s.logger.Warn("duty booking refused",
			zap.String("service_number", string(id)),
			zap.Stringer("date", date),
			zap.String("shift", string(shift)),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("duty recorded",
		zap.String("duty_id", string(record.ID)),
		zap.String("service_number", string(id)),
		zap.Stringer("date", date),
		zap.String("shift", string(shift)))
	return &record, nil
}

// =============================================================================
// ROSTER AND REPORT HAND-OFF
// =============================================================================

// Entry is one booked shift with the person who serves it.
type Entry struct {
	Date   core.Date
	Shift  core.Shift
	Person core.Person
	DutyID core.DutyRecordID
}

// Roster returns the booked shifts in period ordered by date, shift and
// service number.
func (s *Service) Roster(ctx context.Context, period core.Period) ([]Entry, error) {
	if period.Start.IsZero() || period.End.IsZero() {
		return nil, core.Missing("period")
	}
	if !period.Valid() {
		return nil, &core.ValidationError{Field: "period", Cause: core.CauseDateOrder, Message: "period end is before start"}
	}

	duties, err := s.store.ListDuties(ctx, period)
	if err != nil {
		return nil, err
	}
	persons, err := s.store.ListPersons(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[core.PersonID]core.Person, len(persons))
	for _, p := range persons {
		byID[p.ServiceNumber] = p
	}

	entries := make([]Entry, 0, len(duties))
	for _, d := range duties {
		p, ok := byID[d.PersonID]
		if !ok {
			p = core.Person{ServiceNumber: d.PersonID}
		}
		entries = append(entries, Entry{Date: d.Date, Shift: d.Shift, Person: p, DutyID: d.ID})
	}
	return entries, nil
}

// Report hands the roster for period to reporter, which writes it to w.
func (s *Service) Report(ctx context.Context, period core.Period, reporter Reporter, w io.Writer) error {
	entries, err := s.Roster(ctx, period)
	if err != nil {
		return err
	}
	if err := reporter.Render(w, period, entries); err != nil {
		return fmt.Errorf("failed to render roster report: %w", err)
	}

	s.logger.Info("roster report rendered",
		zap.Stringer("period", period),
		zap.String("format", reporter.ContentType()),
		zap.Int("entries", len(entries)))
	return nil
}
