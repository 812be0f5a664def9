/*
store.go - Persistence contract for the duty-roster engine

PURPOSE:
  Defines the boundary between domain services and the record store.
  Services never see SQL; the store never sees state machine rules.

KEY INTERFACES:
  Reader: read-committed queries, safe under concurrent writers
  Tx:     Reader plus writes, valid only inside WithTx
  Store:  Reader plus WithTx

ATOMICITY:
  Every caller-facing mutation (leave transition, posting, status change,
  duty booking) runs as ONE WithTx call. Inside it the service reads the
  person's current assignment and conditionally writes its status; the
  store guarantees no other writer interleaves. If fn returns an error
  nothing is committed, so an operation either fully applies (entity, any
  cross-entity side effect, audit entry) or fully fails.

COMPARE-AND-SWAP:
  SetAssignmentStatus and UpdateLeaveRequest carry the status the caller
  read. The store only writes when the row still holds it.

IMPLEMENTATIONS:
  - store/sqlite: SQLite with golang-migrate schema
  - store/memory: copy-on-write maps, selected with database.driver "memory"

SEE ALSO:
  - leave/service.go:  Uses WithTx for every transition
  - roster/service.go: Uses WithTx for duty booking
*/
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// READER - Queries
// =============================================================================

type Reader interface {
	// GetPerson returns ErrNotFound if the service number is unknown.
	GetPerson(ctx context.Context, id PersonID) (*Person, error)

	// ListPersons returns every person ordered by service number.
	ListPersons(ctx context.Context) ([]Person, error)

	// GetSection returns ErrNotFound if no section has that name.
	GetSection(ctx context.Context, name string) (*Section, error)

	// ListSections returns every section ordered by department, name.
	ListSections(ctx context.Context) ([]Section, error)

	// ListDesignations returns designations ordered by section, name.
	// Empty section means all.
	ListDesignations(ctx context.Context, section string) ([]Designation, error)

	// ListCareerRecords returns a person's career history, oldest first.
	ListCareerRecords(ctx context.Context, id PersonID) ([]CareerRecord, error)

	// ListQualifications returns a person's qualifications in the order
	// they were recorded.
	ListQualifications(ctx context.Context, id PersonID) ([]Qualification, error)

	// ListAssignments returns a person's postings ordered by PostedOn, Seq.
	ListAssignments(ctx context.Context, id PersonID) ([]Assignment, error)

	// CurrentAssignments returns the current assignment of every person
	// who has one.
	CurrentAssignments(ctx context.Context) (map[PersonID]Assignment, error)

	// GetLeaveRequest returns ErrNotFound if the id is unknown.
	GetLeaveRequest(ctx context.Context, id LeaveRequestID) (*LeaveRequest, error)

	// ListLeaveRequests returns requests matching filter, newest first.
	ListLeaveRequests(ctx context.Context, filter LeaveFilter) ([]LeaveRequest, error)

	// OverlappingLeave returns the person's requests in a blocking status
	// whose range shares at least one day with period.
	OverlappingLeave(ctx context.Context, id PersonID, period Period) ([]LeaveRequest, error)

	// LastDutyDates returns, per person, the latest duty date on or before
	// asOf. People without any such duty are absent from the map.
	LastDutyDates(ctx context.Context, asOf Date) (map[PersonID]Date, error)

	// DutyExists reports whether (person, date, shift) is already booked.
	DutyExists(ctx context.Context, id PersonID, date Date, shift Shift) (bool, error)

	// ListDuties returns duties in period ordered by date, shift, person.
	ListDuties(ctx context.Context, period Period) ([]DutyRecord, error)

	// ListAudit returns audit entries, newest first. Empty id means all.
	ListAudit(ctx context.Context, id PersonID, limit int) ([]AuditEntry, error)
}

// CurrentOf reads a person's history through r and returns the current
// assignment. ok is false when the person has never been posted.
func CurrentOf(ctx context.Context, r Reader, id PersonID) (current Assignment, ok bool, err error) {
	history, err := r.ListAssignments(ctx, id)
	if err != nil {
		return Assignment{}, false, fmt.Errorf("failed to load assignments: %w", err)
	}
	current, ok = CurrentAssignment(history)
	return current, ok, nil
}

// LeaveFilter narrows ListLeaveRequests. Zero fields match everything.
type LeaveFilter struct {
	PersonID PersonID
	Status   LeaveStatus
}

// =============================================================================
// TX - Writes, only valid inside Store.WithTx
// =============================================================================

type Tx interface {
	Reader

	// SavePerson inserts a person or corrects an existing one.
	SavePerson(ctx context.Context, p Person) error

	// SaveSection inserts or updates a section.
	SaveSection(ctx context.Context, s Section) error

	// SaveDesignation inserts or updates a designation keyed by
	// (section, name). The section must exist.
	SaveDesignation(ctx context.Context, d Designation) error

	// AppendCareerRecord inserts a career entry and returns it with Seq set.
	AppendCareerRecord(ctx context.Context, r CareerRecord) (CareerRecord, error)

	// AppendQualification stores a qualification. Returns a
	// *ValidationError if the person already holds the same title.
	AppendQualification(ctx context.Context, q Qualification) error

	// AppendAssignment inserts a posting and returns it with Seq set.
	AppendAssignment(ctx context.Context, a Assignment) (Assignment, error)

	// SetAssignmentStatus writes to only when the row's status is from.
	// swapped is false if the row holds any other status.
	SetAssignmentStatus(ctx context.Context, id AssignmentID, from, to AssignmentStatus) (swapped bool, err error)

	// InsertLeaveRequest stores a new request.
	InsertLeaveRequest(ctx context.Context, r LeaveRequest) error

	// UpdateLeaveRequest persists r's status and decision fields when the
	// stored status still equals from. Returns ErrConcurrentModification
	// otherwise.
	UpdateLeaveRequest(ctx context.Context, r LeaveRequest, from LeaveStatus) error

	// AppendDuty stores a duty record. Returns a *DuplicateAssignmentError
	// if the (person, date, shift) tuple exists.
	AppendDuty(ctx context.Context, d DutyRecord) error

	// AppendAudit records who did what. Append-only.
	AppendAudit(ctx context.Context, e AuditEntry) error
}

// =============================================================================
// STORE
// =============================================================================

type Store interface {
	Reader

	// WithTx executes fn within a single atomic unit.
	// If fn returns error, everything is rolled back.
	// If fn returns nil, everything is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// =============================================================================
// AUDIT LOG - Who did what when
// =============================================================================

type AuditAction string

const (
	AuditPersonEnlisted  AuditAction = "person_enlisted"
	AuditPersonCorrected AuditAction = "person_corrected"
	AuditPosted          AuditAction = "assignment_posted"
	AuditStatusChanged   AuditAction = "assignment_status_changed"
	AuditLeaveSubmitted  AuditAction = "leave_submitted"
	AuditLeaveApproved   AuditAction = "leave_approved"
	AuditLeaveRejected   AuditAction = "leave_rejected"
	AuditLeaveCancelled  AuditAction = "leave_cancelled"
	AuditLeaveCompleted  AuditAction = "leave_completed"
	AuditDutyRecorded    AuditAction = "duty_recorded"
	AuditCareerRecorded  AuditAction = "career_recorded"
	AuditQualified       AuditAction = "qualification_added"
)

// AuditEntry records a mutation. Written in the same transaction as the
// change it describes.
type AuditEntry struct {
	ID        string
	At        time.Time
	ActorID   string
	Action    AuditAction
	PersonID  PersonID
	SubjectID string // leave request, assignment, duty or career record id
	Payload   map[string]any
}

// NewAuditEntry stamps an entry with a fresh ID.
func NewAuditEntry(at time.Time, actor string, action AuditAction, person PersonID, subject string, payload map[string]any) AuditEntry {
	return AuditEntry{
		ID:        uuid.NewString(),
		At:        at,
		ActorID:   actor,
		Action:    action,
		PersonID:  person,
		SubjectID: subject,
		Payload:   payload,
	}
}
