/*
Package roster selects guard duty candidates and books shifts.

PURPOSE:
  Answers "who should stand guard next?" with a least-recently-tasked
  fairness order, and records the shifts people actually serve.

SELECTION (Order):
  1. Filter:    current assignment status is ACTIVE. ON_LEAVE, TRANSFERRED,
                SUSPENDED and never-posted personnel are excluded.
  2. Key:       latest duty date on or before asOf, any shift, or
                "never tasked" when there is none.
  3. Order:     never tasked first, then oldest last duty first.
  4. Tie-break: service number, ascending.

  Order is a pure function of its inputs. Selector only gathers those
  inputs from the store and calls it; nothing is cached, so every call
  reflects the latest statuses and bookings.

EXAMPLE:
  A last served 2024-01-01, B never served, C last served 2024-01-10:

    candidates, _ := selector.ComputeEligible(ctx, core.MustParseDate("2024-02-01"))
    // B, A, C

  Callers take a prefix of the size they need:

    guards := roster.Take(candidates, 4)

SEE ALSO:
  - service.go: RecordDuty, roster listing and report hand-off
*/
package roster

import (
	"context"
	"fmt"
	"sort"

	"github.com/warp/duty-roster/core"
)

// Candidate is one eligible person with their rotation key.
type Candidate struct {
	Person     core.Person
	Assignment core.Assignment

	// LastDuty is nil when the person was never tasked.
	LastDuty *core.Date
}

// NeverTasked reports whether the candidate has no duty on record.
func (c Candidate) NeverTasked() bool { return c.LastDuty == nil }

// Order ranks the persons whose current assignment is ACTIVE by least
// recent duty. current maps each person to their current assignment;
// lastDuty maps each person to their latest duty date.
func Order(persons []core.Person, current map[core.PersonID]core.Assignment, lastDuty map[core.PersonID]core.Date) []Candidate {
	candidates := make([]Candidate, 0, len(persons))
	for _, p := range persons {
		a, ok := current[p.ServiceNumber]
		if !ok || a.Status != core.AssignmentActive {
			continue
		}

		c := Candidate{Person: p, Assignment: a}
		if d, served := lastDuty[p.ServiceNumber]; served {
			c.LastDuty = &d
		}
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return less(candidates[i], candidates[j])
	})
	return candidates
}

func less(a, b Candidate) bool {
	switch {
	case a.NeverTasked() && !b.NeverTasked():
		return true
	case !a.NeverTasked() && b.NeverTasked():
		return false
	case !a.NeverTasked() && !a.LastDuty.Equal(*b.LastDuty):
		return a.LastDuty.Before(*b.LastDuty)
	}
	return a.Person.ServiceNumber < b.Person.ServiceNumber
}

// Take returns at most n candidates from the front of the order. n <= 0
// returns all of them.
func Take(candidates []Candidate, n int) []Candidate {
	if n <= 0 || n >= len(candidates) {
		return candidates
	}
	return candidates[:n]
}

// =============================================================================
// SELECTOR - Store read feeding Order
// =============================================================================

// Selector computes the eligible candidate order from a store.
// Safe for concurrent use; it holds no mutable state.
type Selector struct {
	reader core.Reader
}

// NewSelector creates a selector reading from r.
func NewSelector(r core.Reader) *Selector {
	return &Selector{reader: r}
}

// ComputeEligible returns the ordered candidates as of the given day.
func (s *Selector) ComputeEligible(ctx context.Context, asOf core.Date) ([]Candidate, error) {
	persons, err := s.reader.ListPersons(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load personnel: %w", err)
	}
	current, err := s.reader.CurrentAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load current assignments: %w", err)
	}
	lastDuty, err := s.reader.LastDutyDates(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load duty history: %w", err)
	}
	return Order(persons, current, lastDuty), nil
}
