/*
Package personnel manages service members and their postings.

PURPOSE:
  Two services share this package:
  - Directory: identity and static attributes (enlist, correct, look up)
  - Ledger:    the assignment history that decides duty eligibility

PROFILE:
  Consumers never read raw assignments to show a person's status. They get
  a Profile, which pairs the person with the current assignment and the
  display label from core.StatusLabel:

    ACTIVE      -> "Active"
    ON_LEAVE    -> "On Leave"
    TRANSFERRED -> "Active"
    SUSPENDED   -> "Suspended"
    (none)      -> "Active"

ENLISTMENT LENIENCY:
  Enlist accepts an optional initial posting. When that posting names a
  section that does not exist, the person is still created and the posting
  is skipped with a warning. Ledger.Post does NOT share this leniency: an
  unknown section there is a ValidationError. A designation outside the
  section's catalogue is a ValidationError on both paths.

CAREER AND ORGANIZATION:
  career.go keeps the append-only career history and qualifications.
  org.go keeps the department/section/designation catalogue.

USAGE:
  dir := personnel.NewDirectory(store, logger)
  profile, err := dir.Enlist(ctx, person, &personnel.Posting{
      Disposition: "SDS",
      Section:     "Passport Office",
      PostedOn:    core.MustParseDate("2025-01-06"),
  }, "hq-admin")

SEE ALSO:
  - ledger.go:         Postings and administrative status changes
  - career.go:         Career history and qualifications
  - org.go:            Organization catalogue
  - core/labels.go:    Display tables
*/
package personnel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/warp/duty-roster/core"
)

// Profile is the consumer view of a person.
type Profile struct {
	Person      core.Person
	Current     *core.Assignment
	StatusLabel string
}

func newProfile(p core.Person, current *core.Assignment) Profile {
	return Profile{Person: p, Current: current, StatusLabel: core.StatusLabel(current)}
}

// =============================================================================
// DIRECTORY
// =============================================================================

// Directory creates and looks up personnel.
type Directory struct {
	store  core.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewDirectory creates a directory backed by store.
func NewDirectory(store core.Store, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{store: store, logger: logger, now: time.Now}
}

// Enlist creates a person and, when posting is non-nil, their first
// assignment. An unknown posting section is logged and skipped.
func (d *Directory) Enlist(ctx context.Context, p core.Person, posting *Posting, actor string) (*Profile, error) {
	normalizePerson(&p)
	if err := validatePerson(p); err != nil {
		return nil, err
	}
	if posting != nil {
		if err := posting.validate(); err != nil {
			return nil, err
		}
	}

	now := d.now()
	p.CreatedAt = now
	var current *core.Assignment

	err := d.store.WithTx(ctx, func(tx core.Tx) error {
		_, err := tx.GetPerson(ctx, p.ServiceNumber)
		if err == nil {
			return core.Invalid("service_number", "%s is already enlisted", p.ServiceNumber)
		}
		if !errors.Is(err, core.ErrNotFound) {
			return err
		}

		if err := tx.SavePerson(ctx, p); err != nil {
			return err
		}
		if err := tx.AppendAudit(ctx, core.NewAuditEntry(now, actor, core.AuditPersonEnlisted, p.ServiceNumber, string(p.ServiceNumber),
			map[string]any{"rank": p.Rank})); err != nil {
			return err
		}

		if posting == nil {
			return nil
		}
		a, err := appendPosting(ctx, tx, p.ServiceNumber, *posting, actor, now)
		if errors.Is(err, errUnknownSection) {
			d.logger.Warn("initial posting section not found, assignment skipped",
				zap.String("service_number", string(p.ServiceNumber)),
				zap.String("section", posting.Section))
			return nil
		}
		if err != nil {
			return err
		}
		current = &a
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.logger.Info("person enlisted",
		zap.String("service_number", string(p.ServiceNumber)),
		zap.String("rank", string(p.Rank)),
		zap.Bool("posted", current != nil))

	profile := newProfile(p, current)
	return &profile, nil
}

// Correct overwrites a person's static attributes. The creation timestamp
// is preserved.
func (d *Directory) Correct(ctx context.Context, p core.Person, actor string) (*Profile, error) {
	normalizePerson(&p)
	if err := validatePerson(p); err != nil {
		return nil, err
	}

	var profile Profile
	err := d.store.WithTx(ctx, func(tx core.Tx) error {
		existing, err := tx.GetPerson(ctx, p.ServiceNumber)
		if err != nil {
			return err
		}
		p.CreatedAt = existing.CreatedAt

		if err := tx.SavePerson(ctx, p); err != nil {
			return err
		}
		if err := tx.AppendAudit(ctx, core.NewAuditEntry(d.now(), actor, core.AuditPersonCorrected, p.ServiceNumber, string(p.ServiceNumber), nil)); err != nil {
			return err
		}

		current, ok, err := core.CurrentOf(ctx, tx, p.ServiceNumber)
		if err != nil {
			return err
		}
		if ok {
			profile = newProfile(p, &current)
		} else {
			profile = newProfile(p, nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.logger.Info("person corrected", zap.String("service_number", string(p.ServiceNumber)))
	return &profile, nil
}

// Get returns a person's profile.
func (d *Directory) Get(ctx context.Context, id core.PersonID) (*Profile, error) {
	p, err := d.store.GetPerson(ctx, id)
	if err != nil {
		return nil, err
	}
	current, ok, err := core.CurrentOf(ctx, d.store, id)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if ok {
		profile = newProfile(*p, &current)
	} else {
		profile = newProfile(*p, nil)
	}
	return &profile, nil
}

// List returns every profile ordered by service number.
func (d *Directory) List(ctx context.Context) ([]Profile, error) {
	persons, err := d.store.ListPersons(ctx)
	if err != nil {
		return nil, err
	}
	currents, err := d.store.CurrentAssignments(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Profile, 0, len(persons))
	for _, p := range persons {
		if a, ok := currents[p.ServiceNumber]; ok {
			result = append(result, newProfile(p, &a))
		} else {
			result = append(result, newProfile(p, nil))
		}
	}
	return result, nil
}

// AddSection registers a section personnel can be posted to.
func (d *Directory) AddSection(ctx context.Context, sec core.Section) error {
	sec.Name = strings.TrimSpace(sec.Name)
	sec.Department = strings.TrimSpace(sec.Department)
	if sec.Name == "" {
		return core.Missing("name")
	}

	if err := d.store.WithTx(ctx, func(tx core.Tx) error {
		return tx.SaveSection(ctx, sec)
	}); err != nil {
		return fmt.Errorf("failed to add section: %w", err)
	}

	d.logger.Info("section saved", zap.String("section", sec.Name), zap.String("department", sec.Department))
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

func normalizePerson(p *core.Person) {
	p.ServiceNumber = core.PersonID(strings.TrimSpace(string(p.ServiceNumber)))
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if p.MaritalStatus == "" {
		p.MaritalStatus = core.MaritalSingle
	}
}

func validatePerson(p core.Person) error {
	switch {
	case p.ServiceNumber == "":
		return core.Missing("service_number")
	case p.FirstName == "":
		return core.Missing("first_name")
	case p.LastName == "":
		return core.Missing("last_name")
	case !p.Rank.Valid():
		return core.Invalid("rank", "unknown rank %q", p.Rank)
	case !p.Gender.Valid():
		return core.Invalid("gender", "gender must be M or F, got %q", p.Gender)
	case !p.MaritalStatus.Valid():
		return core.Invalid("marital_status", "unknown marital status %q", p.MaritalStatus)
	}
	return nil
}
