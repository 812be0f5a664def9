// Package memory provides an in-memory core.Store for tests and demos.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/warp/duty-roster/core"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

var (
	_ core.Store = (*Memory)(nil)
	_ core.Tx    = (*memTx)(nil)
)

// Memory keeps every table in maps and slices. Writers run one at a time
// against a private copy of the state that replaces the committed state
// only when the transaction function succeeds. Committed state is never
// mutated, so readers work on a snapshot without holding the lock.
type Memory struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	st   *state
}

type state struct {
	persons     map[core.PersonID]core.Person
	sections    map[string]core.Section
	designs     []core.Designation
	careers     []core.CareerRecord
	quals       []core.Qualification
	assignments []core.Assignment // insertion order
	leaves      []core.LeaveRequest
	duties      []core.DutyRecord
	audit       []core.AuditEntry
	seq         int64
}

func newState() *state {
	return &state{
		persons:  make(map[core.PersonID]core.Person),
		sections: make(map[string]core.Section),
	}
}

func (s *state) clone() *state {
	c := &state{
		persons:     make(map[core.PersonID]core.Person, len(s.persons)),
		sections:    make(map[string]core.Section, len(s.sections)),
		designs:     append([]core.Designation(nil), s.designs...),
		careers:     append([]core.CareerRecord(nil), s.careers...),
		quals:       append([]core.Qualification(nil), s.quals...),
		assignments: append([]core.Assignment(nil), s.assignments...),
		leaves:      append([]core.LeaveRequest(nil), s.leaves...),
		duties:      append([]core.DutyRecord(nil), s.duties...),
		audit:       append([]core.AuditEntry(nil), s.audit...),
		seq:         s.seq,
	}
	for k, v := range s.persons {
		c.persons[k] = v
	}
	for k, v := range s.sections {
		c.sections[k] = v
	}
	return c
}

func New() *Memory {
	return &Memory{st: newState()}
}

// WithTx runs fn against a copy of the state and commits it if fn returns
// nil and ctx is still live.
func (m *Memory) WithTx(ctx context.Context, fn func(tx core.Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	work := m.snapshot().st.clone()
	if err := fn(&memTx{reader{work}}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}

	m.mu.Lock()
	m.st = work
	m.mu.Unlock()
	return nil
}

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	m.st = newState()
	m.mu.Unlock()
	return nil
}

func (m *Memory) snapshot() reader {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return reader{m.st}
}

func (m *Memory) GetPerson(ctx context.Context, id core.PersonID) (*core.Person, error) {
	return m.snapshot().GetPerson(ctx, id)
}

func (m *Memory) ListPersons(ctx context.Context) ([]core.Person, error) {
	return m.snapshot().ListPersons(ctx)
}

func (m *Memory) GetSection(ctx context.Context, name string) (*core.Section, error) {
	return m.snapshot().GetSection(ctx, name)
}

func (m *Memory) ListSections(ctx context.Context) ([]core.Section, error) {
	return m.snapshot().ListSections(ctx)
}

func (m *Memory) ListDesignations(ctx context.Context, section string) ([]core.Designation, error) {
	return m.snapshot().ListDesignations(ctx, section)
}

func (m *Memory) ListCareerRecords(ctx context.Context, id core.PersonID) ([]core.CareerRecord, error) {
	return m.snapshot().ListCareerRecords(ctx, id)
}

func (m *Memory) ListQualifications(ctx context.Context, id core.PersonID) ([]core.Qualification, error) {
	return m.snapshot().ListQualifications(ctx, id)
}

func (m *Memory) ListAssignments(ctx context.Context, id core.PersonID) ([]core.Assignment, error) {
	return m.snapshot().ListAssignments(ctx, id)
}

func (m *Memory) CurrentAssignments(ctx context.Context) (map[core.PersonID]core.Assignment, error) {
	return m.snapshot().CurrentAssignments(ctx)
}

func (m *Memory) GetLeaveRequest(ctx context.Context, id core.LeaveRequestID) (*core.LeaveRequest, error) {
	return m.snapshot().GetLeaveRequest(ctx, id)
}

func (m *Memory) ListLeaveRequests(ctx context.Context, filter core.LeaveFilter) ([]core.LeaveRequest, error) {
	return m.snapshot().ListLeaveRequests(ctx, filter)
}

func (m *Memory) OverlappingLeave(ctx context.Context, id core.PersonID, period core.Period) ([]core.LeaveRequest, error) {
	return m.snapshot().OverlappingLeave(ctx, id, period)
}

func (m *Memory) LastDutyDates(ctx context.Context, asOf core.Date) (map[core.PersonID]core.Date, error) {
	return m.snapshot().LastDutyDates(ctx, asOf)
}

func (m *Memory) DutyExists(ctx context.Context, id core.PersonID, date core.Date, shift core.Shift) (bool, error) {
	return m.snapshot().DutyExists(ctx, id, date, shift)
}

func (m *Memory) ListDuties(ctx context.Context, period core.Period) ([]core.DutyRecord, error) {
	return m.snapshot().ListDuties(ctx, period)
}

func (m *Memory) ListAudit(ctx context.Context, id core.PersonID, limit int) ([]core.AuditEntry, error) {
	return m.snapshot().ListAudit(ctx, id, limit)
}

// =============================================================================
// READER
// =============================================================================

type reader struct {
	st *state
}

func (r reader) GetPerson(_ context.Context, id core.PersonID) (*core.Person, error) {
	p, ok := r.st.persons[id]
	if !ok {
		return nil, core.NotFound("person", id)
	}
	return &p, nil
}

func (r reader) ListPersons(_ context.Context) ([]core.Person, error) {
	out := make([]core.Person, 0, len(r.st.persons))
	for _, p := range r.st.persons {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceNumber < out[j].ServiceNumber })
	return out, nil
}

func (r reader) GetSection(_ context.Context, name string) (*core.Section, error) {
	sec, ok := r.st.sections[name]
	if !ok {
		return nil, core.NotFound("section", name)
	}
	return &sec, nil
}

func (r reader) ListSections(_ context.Context) ([]core.Section, error) {
	out := make([]core.Section, 0, len(r.st.sections))
	for _, sec := range r.st.sections {
		out = append(out, sec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Department != out[j].Department {
			return out[i].Department < out[j].Department
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r reader) ListDesignations(_ context.Context, section string) ([]core.Designation, error) {
	var out []core.Designation
	for _, d := range r.st.designs {
		if section == "" || d.Section == section {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Section != out[j].Section {
			return out[i].Section < out[j].Section
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r reader) ListCareerRecords(_ context.Context, id core.PersonID) ([]core.CareerRecord, error) {
	var out []core.CareerRecord
	for _, c := range r.st.careers {
		if c.PersonID == id {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r reader) ListQualifications(_ context.Context, id core.PersonID) ([]core.Qualification, error) {
	var out []core.Qualification
	for _, q := range r.st.quals {
		if q.PersonID == id {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r reader) ListAssignments(_ context.Context, id core.PersonID) ([]core.Assignment, error) {
	var out []core.Assignment
	for _, a := range r.st.assignments {
		if a.PersonID == id {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PostedOn.Equal(out[j].PostedOn) {
			return out[i].PostedOn.Before(out[j].PostedOn)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (r reader) CurrentAssignments(_ context.Context) (map[core.PersonID]core.Assignment, error) {
	byPerson := make(map[core.PersonID][]core.Assignment)
	for _, a := range r.st.assignments {
		byPerson[a.PersonID] = append(byPerson[a.PersonID], a)
	}
	out := make(map[core.PersonID]core.Assignment, len(byPerson))
	for id, history := range byPerson {
		if current, ok := core.CurrentAssignment(history); ok {
			out[id] = current
		}
	}
	return out, nil
}

func (r reader) GetLeaveRequest(_ context.Context, id core.LeaveRequestID) (*core.LeaveRequest, error) {
	for _, l := range r.st.leaves {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, core.NotFound("leave request", id)
}

// ListLeaveRequests returns newest first; equal timestamps keep the later
// insert first.
func (r reader) ListLeaveRequests(_ context.Context, filter core.LeaveFilter) ([]core.LeaveRequest, error) {
	var out []core.LeaveRequest
	for i := len(r.st.leaves) - 1; i >= 0; i-- {
		l := r.st.leaves[i]
		if filter.PersonID != "" && l.PersonID != filter.PersonID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

func (r reader) OverlappingLeave(_ context.Context, id core.PersonID, period core.Period) ([]core.LeaveRequest, error) {
	var out []core.LeaveRequest
	for _, l := range r.st.leaves {
		if l.PersonID == id && l.Status.Blocking() && l.Period.Overlaps(period) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Period.Start.Before(out[j].Period.Start) })
	return out, nil
}

func (r reader) LastDutyDates(_ context.Context, asOf core.Date) (map[core.PersonID]core.Date, error) {
	out := make(map[core.PersonID]core.Date)
	for _, d := range r.st.duties {
		if d.Date.After(asOf) {
			continue
		}
		if last, ok := out[d.PersonID]; !ok || d.Date.After(last) {
			out[d.PersonID] = d.Date
		}
	}
	return out, nil
}

func (r reader) DutyExists(_ context.Context, id core.PersonID, date core.Date, shift core.Shift) (bool, error) {
	for _, d := range r.st.duties {
		if d.PersonID == id && d.Date.Equal(date) && d.Shift == shift {
			return true, nil
		}
	}
	return false, nil
}

func (r reader) ListDuties(_ context.Context, period core.Period) ([]core.DutyRecord, error) {
	var out []core.DutyRecord
	for _, d := range r.st.duties {
		if period.Contains(d.Date) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Shift != b.Shift {
			return a.Shift < b.Shift
		}
		return a.PersonID < b.PersonID
	})
	return out, nil
}

func (r reader) ListAudit(_ context.Context, id core.PersonID, limit int) ([]core.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []core.AuditEntry
	for i := len(r.st.audit) - 1; i >= 0; i-- {
		if id == "" || r.st.audit[i].PersonID == id {
			out = append(out, r.st.audit[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// =============================================================================
// TX
// =============================================================================

type memTx struct {
	reader
}

func (t *memTx) SavePerson(_ context.Context, p core.Person) error {
	if existing, ok := t.st.persons[p.ServiceNumber]; ok {
		p.CreatedAt = existing.CreatedAt
	}
	t.st.persons[p.ServiceNumber] = p
	return nil
}

func (t *memTx) SaveSection(_ context.Context, sec core.Section) error {
	t.st.sections[sec.Name] = sec
	return nil
}

func (t *memTx) SaveDesignation(_ context.Context, d core.Designation) error {
	if _, ok := t.st.sections[d.Section]; !ok {
		return fmt.Errorf("failed to save designation: %w", core.NotFound("section", d.Section))
	}
	for i := range t.st.designs {
		if t.st.designs[i].Section == d.Section && t.st.designs[i].Name == d.Name {
			t.st.designs[i].Description = d.Description
			return nil
		}
	}
	t.st.designs = append(t.st.designs, d)
	return nil
}

func (t *memTx) AppendCareerRecord(_ context.Context, r core.CareerRecord) (core.CareerRecord, error) {
	if _, ok := t.st.persons[r.PersonID]; !ok {
		return core.CareerRecord{}, fmt.Errorf("failed to append career record: %w", core.NotFound("person", r.PersonID))
	}
	t.st.seq++
	r.Seq = t.st.seq
	t.st.careers = append(t.st.careers, r)
	return r, nil
}

func (t *memTx) AppendQualification(_ context.Context, q core.Qualification) error {
	if _, ok := t.st.persons[q.PersonID]; !ok {
		return fmt.Errorf("failed to append qualification: %w", core.NotFound("person", q.PersonID))
	}
	for _, existing := range t.st.quals {
		if existing.PersonID == q.PersonID && strings.EqualFold(existing.Title, q.Title) {
			return core.Invalid("title", "%s already holds %q", q.PersonID, q.Title)
		}
	}
	t.st.quals = append(t.st.quals, q)
	return nil
}

func (t *memTx) AppendAssignment(_ context.Context, a core.Assignment) (core.Assignment, error) {
	if _, ok := t.st.persons[a.PersonID]; !ok {
		return core.Assignment{}, fmt.Errorf("failed to append assignment: %w", core.NotFound("person", a.PersonID))
	}
	for _, existing := range t.st.assignments {
		if existing.ID == a.ID {
			return core.Assignment{}, fmt.Errorf("assignment %s already exists", a.ID)
		}
	}
	t.st.seq++
	a.Seq = t.st.seq
	t.st.assignments = append(t.st.assignments, a)
	return a, nil
}

func (t *memTx) SetAssignmentStatus(_ context.Context, id core.AssignmentID, from, to core.AssignmentStatus) (bool, error) {
	for i := range t.st.assignments {
		if t.st.assignments[i].ID != id {
			continue
		}
		if t.st.assignments[i].Status != from {
			return false, nil
		}
		t.st.assignments[i].Status = to
		return true, nil
	}
	return false, nil
}

func (t *memTx) InsertLeaveRequest(_ context.Context, r core.LeaveRequest) error {
	if _, ok := t.st.persons[r.PersonID]; !ok {
		return fmt.Errorf("failed to insert leave request: %w", core.NotFound("person", r.PersonID))
	}
	for _, existing := range t.st.leaves {
		if existing.ID == r.ID {
			return fmt.Errorf("leave request %s already exists", r.ID)
		}
	}
	t.st.leaves = append(t.st.leaves, r)
	return nil
}

func (t *memTx) UpdateLeaveRequest(_ context.Context, r core.LeaveRequest, from core.LeaveStatus) error {
	for i := range t.st.leaves {
		stored := &t.st.leaves[i]
		if stored.ID != r.ID {
			continue
		}
		if stored.Status != from {
			return fmt.Errorf("leave request %s no longer %s: %w", r.ID, from, core.ErrConcurrentModification)
		}
		stored.Status = r.Status
		stored.DecidedBy = r.DecidedBy
		stored.DecidedAt = r.DecidedAt
		stored.RejectionReason = r.RejectionReason
		stored.UpdatedAt = r.UpdatedAt
		return nil
	}
	return fmt.Errorf("leave request %s no longer %s: %w", r.ID, from, core.ErrConcurrentModification)
}

func (t *memTx) AppendDuty(ctx context.Context, d core.DutyRecord) error {
	if _, ok := t.st.persons[d.PersonID]; !ok {
		return fmt.Errorf("failed to append duty record: %w", core.NotFound("person", d.PersonID))
	}
	if exists, _ := t.DutyExists(ctx, d.PersonID, d.Date, d.Shift); exists {
		return &core.DuplicateAssignmentError{PersonID: d.PersonID, Date: d.Date, Shift: d.Shift}
	}
	t.st.duties = append(t.st.duties, d)
	return nil
}

func (t *memTx) AppendAudit(_ context.Context, e core.AuditEntry) error {
	t.st.audit = append(t.st.audit, e)
	return nil
}
