package core

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is the inclusive range [Start, End]. Leave requests, roster
// windows and usage summaries are all expressed as periods.
type Period struct {
	Start Date
	End   Date
}

// Valid reports whether End is not before Start.
func (p Period) Valid() bool {
	return !p.End.Before(p.Start)
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Overlaps reports whether the two periods share at least one calendar day.
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(p.End)
}

// Intersect returns the shared days of both periods. ok is false when they
// do not overlap.
func (p Period) Intersect(other Period) (Period, bool) {
	if !p.Overlaps(other) {
		return Period{}, false
	}
	start, end := p.Start, p.End
	if other.Start.After(start) {
		start = other.Start
	}
	if other.End.Before(end) {
		end = other.End
	}
	return Period{Start: start, End: end}, true
}

// DayCount is the inclusive number of days in the period.
func (p Period) DayCount() int {
	return DaysBetween(p.Start, p.End) + 1
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// YearPeriod is the calendar year containing d.
func YearPeriod(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}
