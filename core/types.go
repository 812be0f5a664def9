/*
Package core holds the shared data model of the duty-roster engine.

PURPOSE:
  Every component (directory, assignment ledger, leave state machine,
  rotation selector) reads and writes the same four entities. They live
  here, together with the error taxonomy and the persistence contract,
  so that domain packages and storage implementations agree on one model.

KEY CONCEPTS IN THIS FILE (types.go):
  - Person:          A service member, keyed by service number
  - Assignment:      A posting; the latest one carries duty eligibility
  - LeaveRequest:    A leave application moving through a state machine
  - DutyRecord:      One guard shift performed by one person on one day
  - CareerRecord:    Append-only career history (rank, promotion, transfer)
  - Amount:          Decimal quantity of days (leave usage)

STATUS OWNERSHIP:
  Assignment.Status is the single source of truth for duty eligibility.
  Leave transitions are the only writers of ON_LEAVE and of the leave-driven
  reversion to ACTIVE. Administrators may change it directly through the
  assignment ledger to any status except ON_LEAVE.

SEE ALSO:
  - store.go:  Persistence contract
  - errors.go: Typed failures
  - labels.go: Display mapping tables
*/
package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// PersonID is the service number. It is the identity key and the rotation
// tie-breaker.
type PersonID string

type AssignmentID string
type LeaveRequestID string
type DutyRecordID string
type CareerRecordID string
type QualificationID string

// =============================================================================
// PERSON
// =============================================================================

type Rank string

// Ranks in ascending seniority.
const (
	RankDII   Rank = "DII"
	RankDI    Rank = "DI"
	RankCD    Rank = "CD"
	RankASO   Rank = "ASO"
	RankSO    Rank = "SO"
	RankSIOII Rank = "SIOII"
	RankSIOI  Rank = "SIOI"
	RankSSIO  Rank = "SSIO"
	RankPSIO  Rank = "PSIO"
	RankCSIO  Rank = "CSIO"
	RankADIS  Rank = "ADIS"
	RankDDIS  Rank = "DDIS"
	RankDIS   Rank = "DIS"
	RankADG   Rank = "ADG"
)

// Ranks lists every valid rank in ascending seniority.
var Ranks = []Rank{
	RankDII, RankDI, RankCD, RankASO, RankSO, RankSIOII, RankSIOI,
	RankSSIO, RankPSIO, RankCSIO, RankADIS, RankDDIS, RankDIS, RankADG,
}

func (r Rank) Valid() bool {
	for _, known := range Ranks {
		if r == known {
			return true
		}
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

func (g Gender) Valid() bool { return g == GenderMale || g == GenderFemale }

type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "SINGLE"
	MaritalMarried  MaritalStatus = "MARRIED"
	MaritalDivorced MaritalStatus = "DIVORCED"
	MaritalWidowed  MaritalStatus = "WIDOWED"
)

func (m MaritalStatus) Valid() bool {
	switch m {
	case MaritalSingle, MaritalMarried, MaritalDivorced, MaritalWidowed:
		return true
	}
	return false
}

// Person is a service member. Created at enlistment, corrected by
// administrators, never deleted.
type Person struct {
	ServiceNumber PersonID
	FirstName     string
	LastName      string
	Rank          Rank
	Gender        Gender
	DateOfBirth   Date
	MaritalStatus MaritalStatus
	StateOfOrigin string
	LGAOfOrigin   string
	EnlistedOn    Date
	CreatedAt     time.Time
}

// DisplayName renders "RANK Surname Firstname".
func (p Person) DisplayName() string {
	return string(p.Rank) + " " + p.LastName + " " + p.FirstName
}

// Section is an organizational unit a person can be posted to.
type Section struct {
	Name       string
	Department string
}

// Designation is a role within a section, e.g. "ESCORT COMMANDER" in
// "SDS Secretariat". A section with designations only accepts postings
// to one of them.
type Designation struct {
	Section     string
	Name        string
	Description string
}

// =============================================================================
// CAREER HISTORY
// =============================================================================

// CareerRecord is one entry of a person's career history. Entries are
// appended, never edited; the latest describes the person today.
type CareerRecord struct {
	ID                CareerRecordID
	PersonID          PersonID
	Rank              Rank
	LastPromotedOn    Date // zero when never promoted
	LastTransferredOn Date // zero when never transferred
	CommandLastServed string
	YearsInService    int
	RecordedBy        string
	CreatedAt         time.Time

	// Seq is the store's insertion order.
	Seq int64
}

// Qualification is an educational qualification, e.g. "B.Sc" or "SSCE".
type Qualification struct {
	ID        QualificationID
	PersonID  PersonID
	Title     string
	CreatedAt time.Time
}

// =============================================================================
// ASSIGNMENT
// =============================================================================

type AssignmentStatus string

const (
	AssignmentActive      AssignmentStatus = "ACTIVE"
	AssignmentOnLeave     AssignmentStatus = "ON_LEAVE"
	AssignmentTransferred AssignmentStatus = "TRANSFERRED"
	AssignmentSuspended   AssignmentStatus = "SUSPENDED"
)

func (s AssignmentStatus) Valid() bool {
	_, ok := assignmentStatusLabels[s]
	return ok
}

// Assignment is one posting of a person. Superseded, never deleted.
type Assignment struct {
	ID          AssignmentID
	PersonID    PersonID
	Disposition string // e.g. "SDS", "Escort Commander"
	Section     string // empty when unassigned to a section
	Designation string
	SubUnit     string
	PostedOn    Date
	Status      AssignmentStatus

	// Seq is the store's insertion order. Breaks PostedOn ties.
	Seq int64
}

// CurrentAssignment picks the person's current posting: the latest PostedOn,
// and on equal dates the highest Seq. ok is false for an empty history.
func CurrentAssignment(history []Assignment) (current Assignment, ok bool) {
	for _, a := range history {
		if !ok || a.PostedOn.After(current.PostedOn) ||
			(a.PostedOn.Equal(current.PostedOn) && a.Seq > current.Seq) {
			current, ok = a, true
		}
	}
	return current, ok
}

// =============================================================================
// LEAVE REQUEST
// =============================================================================

type LeaveType string

const (
	LeaveAnnual        LeaveType = "ANNUAL"
	LeaveCasual        LeaveType = "CASUAL"
	LeaveSick          LeaveType = "SICK"
	LeaveMaternity     LeaveType = "MATERNITY"
	LeavePaternity     LeaveType = "PATERNITY"
	LeaveCompassionate LeaveType = "COMPASSIONATE"
	LeaveStudy         LeaveType = "STUDY"
)

func (t LeaveType) Valid() bool {
	_, ok := leaveTypeLabels[t]
	return ok
}

type LeaveStatus string

const (
	LeavePending   LeaveStatus = "PENDING"
	LeaveApproved  LeaveStatus = "APPROVED"
	LeaveRejected  LeaveStatus = "REJECTED"
	LeaveCancelled LeaveStatus = "CANCELLED"
	LeaveCompleted LeaveStatus = "COMPLETED"
)

func (s LeaveStatus) Valid() bool {
	_, ok := leaveStatusLabels[s]
	return ok
}

// Blocking reports whether a request in this status reserves its dates
// against overlapping requests.
func (s LeaveStatus) Blocking() bool {
	return s == LeavePending || s == LeaveApproved
}

// LeaveRequest is a leave application. Mutated only through the leave state
// machine; never deleted.
type LeaveRequest struct {
	ID             LeaveRequestID
	PersonID       PersonID
	Type           LeaveType
	Period         Period
	DaysCount      int
	ResumptionDate Date
	Reason         string
	Status         LeaveStatus

	RequestedAt time.Time

	// Decision tracking, set on approve/reject.
	DecidedBy       string
	DecidedAt       *time.Time
	RejectionReason string

	UpdatedAt time.Time
}

// =============================================================================
// GUARD DUTY
// =============================================================================

type Shift string

const (
	ShiftDay   Shift = "DAY"
	ShiftNight Shift = "NIGHT"
)

func (s Shift) Valid() bool {
	_, ok := shiftLabels[s]
	return ok
}

// DutyRecord is one guard shift. Append-only; (PersonID, Date, Shift) is
// unique.
type DutyRecord struct {
	ID         DutyRecordID
	PersonID   PersonID
	Date       Date
	Shift      Shift
	RecordedBy string
	CreatedAt  time.Time
}

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Unit string

const UnitDays Unit = "days"

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

func Days(n int) Amount {
	return Amount{Value: decimal.NewFromInt(int64(n)), Unit: UnitDays}
}

func (a Amount) Add(b Amount) Amount { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) IsZero() bool        { return a.Value.IsZero() }
func (a Amount) String() string      { return a.Value.String() + " " + string(a.Unit) }
