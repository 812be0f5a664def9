/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model in core/ from the external API contract. Dates travel
  as YYYY-MM-DD strings, timestamps as RFC 3339, codes are sent next to
  their display labels.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Personnel:
    PersonDTO, AssignmentDTO, CreatePersonRequest, UpdatePersonRequest,
    PostingRequest, SetStatusRequest, SectionDTO

  Career and organization:
    CareerRecordDTO, RecordCareerRequest, QualificationDTO,
    AddQualificationRequest, DesignationDTO, DepartmentDTO, OrgSummaryDTO

  Leave:
    LeaveDTO, SubmitLeaveRequest, DecisionRequest, UsageDTO

  Duty:
    DutyDTO, RecordDutyRequest, CandidateDTO, RosterEntryDTO

  Other:
    AuditDTO, ScenarioDTO, ErrorResponse

VALIDATION:
  Validation is done by the services, not in DTOs. DTOs are pure data
  carriers; the to* helpers only parse dates.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/duty-roster/core"
	"github.com/warp/duty-roster/leave"
	"github.com/warp/duty-roster/personnel"
	"github.com/warp/duty-roster/roster"
)

// =============================================================================
// PERSONNEL
// =============================================================================

// PersonDTO represents a person and their current posting.
type PersonDTO struct {
	ServiceNumber string         `json:"service_number"`
	FirstName     string         `json:"first_name"`
	LastName      string         `json:"last_name"`
	DisplayName   string         `json:"display_name"`
	Rank          string         `json:"rank"`
	Gender        string         `json:"gender"`
	DateOfBirth   string         `json:"date_of_birth,omitempty"`
	MaritalStatus string         `json:"marital_status"`
	StateOfOrigin string         `json:"state_of_origin,omitempty"`
	LGAOfOrigin   string         `json:"lga_of_origin,omitempty"`
	EnlistedOn    string         `json:"enlisted_on,omitempty"`
	StatusLabel   string         `json:"status_label"`
	Current       *AssignmentDTO `json:"current_assignment,omitempty"`
	CreatedAt     string         `json:"created_at,omitempty"`
}

// AssignmentDTO represents one posting.
type AssignmentDTO struct {
	ID          string `json:"id"`
	Disposition string `json:"disposition"`
	Section     string `json:"section,omitempty"`
	Designation string `json:"designation,omitempty"`
	SubUnit     string `json:"sub_unit,omitempty"`
	PostedOn    string `json:"posted_on"`
	Status      string `json:"status"`
	StatusLabel string `json:"status_label"`
}

// PersonFields are the attributes shared by create and correct.
type PersonFields struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Rank          string `json:"rank"`
	Gender        string `json:"gender"`
	DateOfBirth   string `json:"date_of_birth,omitempty"`
	MaritalStatus string `json:"marital_status,omitempty"`
	StateOfOrigin string `json:"state_of_origin,omitempty"`
	LGAOfOrigin   string `json:"lga_of_origin,omitempty"`
	EnlistedOn    string `json:"enlisted_on,omitempty"`
}

// CreatePersonRequest enlists a person, optionally with a first posting.
type CreatePersonRequest struct {
	ServiceNumber string `json:"service_number"`
	PersonFields
	Posting *PostingRequest `json:"posting,omitempty"`
}

// UpdatePersonRequest corrects a person. The service number comes from the
// URL.
type UpdatePersonRequest struct {
	PersonFields
}

// PostingRequest is a new assignment.
type PostingRequest struct {
	Disposition string `json:"disposition"`
	Section     string `json:"section,omitempty"`
	Designation string `json:"designation,omitempty"`
	SubUnit     string `json:"sub_unit,omitempty"`
	PostedOn    string `json:"posted_on"`
}

// SetStatusRequest changes the current assignment's status.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// SectionDTO is a section in requests and responses.
type SectionDTO struct {
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
}

// =============================================================================
// CAREER AND ORGANIZATION
// =============================================================================

// CareerRecordDTO is one career-history entry.
type CareerRecordDTO struct {
	ID                string `json:"id"`
	Rank              string `json:"rank"`
	LastPromotedOn    string `json:"last_promoted_on,omitempty"`
	LastTransferredOn string `json:"last_transferred_on,omitempty"`
	CommandLastServed string `json:"command_last_served"`
	YearsInService    int    `json:"years_in_service"`
	RecordedBy        string `json:"recorded_by,omitempty"`
	CreatedAt         string `json:"created_at"`
}

// RecordCareerRequest appends a career entry. Omitted years_in_service is
// derived from the enlistment date.
type RecordCareerRequest struct {
	Rank              string `json:"rank"`
	LastPromotedOn    string `json:"last_promoted_on,omitempty"`
	LastTransferredOn string `json:"last_transferred_on,omitempty"`
	CommandLastServed string `json:"command_last_served"`
	YearsInService    *int   `json:"years_in_service,omitempty"`
}

// QualificationDTO is an educational qualification.
type QualificationDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

// AddQualificationRequest records a qualification.
type AddQualificationRequest struct {
	Title string `json:"title"`
}

// DesignationDTO is a role within a section.
type DesignationDTO struct {
	Section     string `json:"section"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// DepartmentDTO is one department of the org structure, in both the load
// request and the response.
type DepartmentDTO struct {
	Name     string          `json:"name"`
	Sections []OrgSectionDTO `json:"sections"`
}

// OrgSectionDTO is a section with its designations.
type OrgSectionDTO struct {
	Name         string   `json:"name"`
	Designations []string `json:"designations"`
}

// LoadOrgRequest bulk-loads departments, sections and designations.
type LoadOrgRequest struct {
	Departments []DepartmentDTO `json:"departments"`
}

// OrgSummaryDTO counts what a load wrote.
type OrgSummaryDTO struct {
	Departments  int `json:"departments"`
	Sections     int `json:"sections"`
	Designations int `json:"designations"`
}

// =============================================================================
// LEAVE
// =============================================================================

// LeaveDTO represents a leave request.
type LeaveDTO struct {
	ID              string   `json:"id"`
	PersonID        string   `json:"person_id"`
	Type            string   `json:"type"`
	TypeLabel       string   `json:"type_label"`
	StartDate       string   `json:"start_date"`
	EndDate         string   `json:"end_date"`
	DaysCount       int      `json:"days_count"`
	ResumptionDate  string   `json:"resumption_date"`
	Reason          string   `json:"reason"`
	Status          string   `json:"status"`
	StatusLabel     string   `json:"status_label"`
	NextStates      []string `json:"next_states"`
	RequestedAt     string   `json:"requested_at"`
	DecidedBy       string   `json:"decided_by,omitempty"`
	DecidedAt       string   `json:"decided_at,omitempty"`
	RejectionReason string   `json:"rejection_reason,omitempty"`
}

// SubmitLeaveRequest is a new leave application.
type SubmitLeaveRequest struct {
	PersonID       string `json:"person_id"`
	Type           string `json:"type"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Reason         string `json:"reason"`
	ResumptionDate string `json:"resumption_date,omitempty"`
}

// DecisionRequest carries the optional reason of a decision. Required for
// rejection.
type DecisionRequest struct {
	Reason string `json:"reason,omitempty"`
}

// UsageDTO is the leave a person took within a period, in days.
type UsageDTO struct {
	PersonID string                     `json:"person_id"`
	From     string                     `json:"from"`
	To       string                     `json:"to"`
	ByType   map[string]decimal.Decimal `json:"by_type"`
	Total    decimal.Decimal            `json:"total"`
	Unit     string                     `json:"unit"`
}

// =============================================================================
// DUTY
// =============================================================================

// DutyDTO is a booked shift.
type DutyDTO struct {
	ID         string `json:"id"`
	PersonID   string `json:"person_id"`
	Date       string `json:"date"`
	Shift      string `json:"shift"`
	ShiftLabel string `json:"shift_label"`
	RecordedBy string `json:"recorded_by"`
	CreatedAt  string `json:"created_at"`
}

// RecordDutyRequest books a shift.
type RecordDutyRequest struct {
	PersonID string `json:"person_id"`
	Date     string `json:"date"`
	Shift    string `json:"shift"`
}

// CandidateDTO is one entry of the rotation order.
type CandidateDTO struct {
	Position      int    `json:"position"`
	ServiceNumber string `json:"service_number"`
	DisplayName   string `json:"display_name"`
	Rank          string `json:"rank"`
	Disposition   string `json:"disposition"`
	LastDuty      string `json:"last_duty,omitempty"`
	NeverTasked   bool   `json:"never_tasked"`
}

// RosterEntryDTO is one booked shift with the person serving it.
type RosterEntryDTO struct {
	Date          string `json:"date"`
	Day           string `json:"day"`
	Shift         string `json:"shift"`
	ShiftLabel    string `json:"shift_label"`
	ServiceNumber string `json:"service_number"`
	DisplayName   string `json:"display_name"`
	DutyID        string `json:"duty_id"`
}

// =============================================================================
// AUDIT, SCENARIOS, ERRORS
// =============================================================================

// AuditDTO is one audit log entry.
type AuditDTO struct {
	ID        string         `json:"id"`
	At        string         `json:"at"`
	ActorID   string         `json:"actor_id"`
	Action    string         `json:"action"`
	PersonID  string         `json:"person_id,omitempty"`
	SubjectID string         `json:"subject_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// ScenarioDTO describes a demo data set.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func formatDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// parseDate parses a required YYYY-MM-DD field.
func parseDate(field, s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, core.Missing(field)
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, core.Invalid(field, "%q is not a YYYY-MM-DD date", s)
	}
	return d, nil
}

// parseOptionalDate returns the zero Date for an empty field.
func parseOptionalDate(field, s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.Date{}, nil
	}
	return parseDate(field, s)
}

func (f PersonFields) toPerson(id core.PersonID) (core.Person, error) {
	dob, err := parseOptionalDate("date_of_birth", f.DateOfBirth)
	if err != nil {
		return core.Person{}, err
	}
	enlisted, err := parseOptionalDate("enlisted_on", f.EnlistedOn)
	if err != nil {
		return core.Person{}, err
	}
	return core.Person{
		ServiceNumber: id,
		FirstName:     f.FirstName,
		LastName:      f.LastName,
		Rank:          core.Rank(strings.ToUpper(strings.TrimSpace(f.Rank))),
		Gender:        core.Gender(strings.ToUpper(strings.TrimSpace(f.Gender))),
		DateOfBirth:   dob,
		MaritalStatus: core.MaritalStatus(strings.ToUpper(strings.TrimSpace(f.MaritalStatus))),
		StateOfOrigin: f.StateOfOrigin,
		LGAOfOrigin:   f.LGAOfOrigin,
		EnlistedOn:    enlisted,
	}, nil
}

func (p PostingRequest) toPosting() (personnel.Posting, error) {
	posted, err := parseDate("posted_on", p.PostedOn)
	if err != nil {
		return personnel.Posting{}, err
	}
	return personnel.Posting{
		Disposition: p.Disposition,
		Section:     p.Section,
		Designation: p.Designation,
		SubUnit:     p.SubUnit,
		PostedOn:    posted,
	}, nil
}

func (r SubmitLeaveRequest) toInput() (leave.SubmitInput, error) {
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return leave.SubmitInput{}, err
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return leave.SubmitInput{}, err
	}
	in := leave.SubmitInput{
		PersonID: core.PersonID(strings.TrimSpace(r.PersonID)),
		Type:     core.LeaveType(strings.ToUpper(strings.TrimSpace(r.Type))),
		Start:    start,
		End:      end,
		Reason:   r.Reason,
	}
	if strings.TrimSpace(r.ResumptionDate) != "" {
		resumption, err := parseDate("resumption_date", r.ResumptionDate)
		if err != nil {
			return leave.SubmitInput{}, err
		}
		in.ResumptionDate = &resumption
	}
	return in, nil
}

func toAssignmentDTO(a core.Assignment) AssignmentDTO {
	return AssignmentDTO{
		ID:          string(a.ID),
		Disposition: a.Disposition,
		Section:     a.Section,
		Designation: a.Designation,
		SubUnit:     a.SubUnit,
		PostedOn:    formatDate(a.PostedOn),
		Status:      string(a.Status),
		StatusLabel: a.Status.Label(),
	}
}

func toPersonDTO(p personnel.Profile) PersonDTO {
	dto := PersonDTO{
		ServiceNumber: string(p.Person.ServiceNumber),
		FirstName:     p.Person.FirstName,
		LastName:      p.Person.LastName,
		DisplayName:   p.Person.DisplayName(),
		Rank:          string(p.Person.Rank),
		Gender:        string(p.Person.Gender),
		DateOfBirth:   formatDate(p.Person.DateOfBirth),
		MaritalStatus: string(p.Person.MaritalStatus),
		StateOfOrigin: p.Person.StateOfOrigin,
		LGAOfOrigin:   p.Person.LGAOfOrigin,
		EnlistedOn:    formatDate(p.Person.EnlistedOn),
		StatusLabel:   p.StatusLabel,
		CreatedAt:     formatTimestamp(p.Person.CreatedAt),
	}
	if p.Current != nil {
		a := toAssignmentDTO(*p.Current)
		dto.Current = &a
	}
	return dto
}

func toLeaveDTO(r core.LeaveRequest) LeaveDTO {
	next := leave.NextStates(r.Status)
	states := make([]string, len(next))
	for i, s := range next {
		states[i] = string(s)
	}
	dto := LeaveDTO{
		ID:              string(r.ID),
		PersonID:        string(r.PersonID),
		Type:            string(r.Type),
		TypeLabel:       r.Type.Label(),
		StartDate:       formatDate(r.Period.Start),
		EndDate:         formatDate(r.Period.End),
		DaysCount:       r.DaysCount,
		ResumptionDate:  formatDate(r.ResumptionDate),
		Reason:          r.Reason,
		Status:          string(r.Status),
		StatusLabel:     r.Status.Label(),
		NextStates:      states,
		RequestedAt:     formatTimestamp(r.RequestedAt),
		DecidedBy:       r.DecidedBy,
		RejectionReason: r.RejectionReason,
	}
	if r.DecidedAt != nil {
		dto.DecidedAt = formatTimestamp(*r.DecidedAt)
	}
	return dto
}

func toLeaveDTOs(reqs []core.LeaveRequest) []LeaveDTO {
	dtos := make([]LeaveDTO, len(reqs))
	for i, r := range reqs {
		dtos[i] = toLeaveDTO(r)
	}
	return dtos
}

func toUsageDTO(u *leave.Usage) UsageDTO {
	byType := make(map[string]decimal.Decimal, len(u.ByType))
	for t, amount := range u.ByType {
		byType[string(t)] = amount.Value
	}
	return UsageDTO{
		PersonID: string(u.PersonID),
		From:     formatDate(u.Period.Start),
		To:       formatDate(u.Period.End),
		ByType:   byType,
		Total:    u.Total.Value,
		Unit:     string(core.UnitDays),
	}
}

func toDutyDTO(d core.DutyRecord) DutyDTO {
	return DutyDTO{
		ID:         string(d.ID),
		PersonID:   string(d.PersonID),
		Date:       formatDate(d.Date),
		Shift:      string(d.Shift),
		ShiftLabel: d.Shift.Label(),
		RecordedBy: d.RecordedBy,
		CreatedAt:  formatTimestamp(d.CreatedAt),
	}
}

func toCandidateDTOs(candidates []roster.Candidate) []CandidateDTO {
	dtos := make([]CandidateDTO, len(candidates))
	for i, c := range candidates {
		dtos[i] = CandidateDTO{
			Position:      i + 1,
			ServiceNumber: string(c.Person.ServiceNumber),
			DisplayName:   c.Person.DisplayName(),
			Rank:          string(c.Person.Rank),
			Disposition:   c.Assignment.Disposition,
			NeverTasked:   c.NeverTasked(),
		}
		if c.LastDuty != nil {
			dtos[i].LastDuty = c.LastDuty.String()
		}
	}
	return dtos
}

func toRosterEntryDTOs(entries []roster.Entry) []RosterEntryDTO {
	dtos := make([]RosterEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = RosterEntryDTO{
			Date:          formatDate(e.Date),
			Day:           e.Date.Weekday().String(),
			Shift:         string(e.Shift),
			ShiftLabel:    e.Shift.Label(),
			ServiceNumber: string(e.Person.ServiceNumber),
			DisplayName:   e.Person.DisplayName(),
			DutyID:        string(e.DutyID),
		}
	}
	return dtos
}

func toAuditDTOs(entries []core.AuditEntry) []AuditDTO {
	dtos := make([]AuditDTO, len(entries))
	for i, e := range entries {
		dtos[i] = AuditDTO{
			ID:        e.ID,
			At:        formatTimestamp(e.At),
			ActorID:   e.ActorID,
			Action:    string(e.Action),
			PersonID:  string(e.PersonID),
			SubjectID: e.SubjectID,
			Payload:   e.Payload,
		}
	}
	return dtos
}

func (r RecordCareerRequest) toEntry() (personnel.CareerEntry, error) {
	promoted, err := parseOptionalDate("last_promoted_on", r.LastPromotedOn)
	if err != nil {
		return personnel.CareerEntry{}, err
	}
	transferred, err := parseOptionalDate("last_transferred_on", r.LastTransferredOn)
	if err != nil {
		return personnel.CareerEntry{}, err
	}
	return personnel.CareerEntry{
		Rank:              core.Rank(strings.ToUpper(strings.TrimSpace(r.Rank))),
		LastPromotedOn:    promoted,
		LastTransferredOn: transferred,
		CommandLastServed: r.CommandLastServed,
		YearsInService:    r.YearsInService,
	}, nil
}

func toCareerRecordDTO(r core.CareerRecord) CareerRecordDTO {
	return CareerRecordDTO{
		ID:                string(r.ID),
		Rank:              string(r.Rank),
		LastPromotedOn:    formatDate(r.LastPromotedOn),
		LastTransferredOn: formatDate(r.LastTransferredOn),
		CommandLastServed: r.CommandLastServed,
		YearsInService:    r.YearsInService,
		RecordedBy:        r.RecordedBy,
		CreatedAt:         formatTimestamp(r.CreatedAt),
	}
}

func toCareerRecordDTOs(records []core.CareerRecord) []CareerRecordDTO {
	dtos := make([]CareerRecordDTO, len(records))
	for i, r := range records {
		dtos[i] = toCareerRecordDTO(r)
	}
	return dtos
}

func toQualificationDTO(q core.Qualification) QualificationDTO {
	return QualificationDTO{ID: string(q.ID), Title: q.Title, CreatedAt: formatTimestamp(q.CreatedAt)}
}

func toQualificationDTOs(quals []core.Qualification) []QualificationDTO {
	dtos := make([]QualificationDTO, len(quals))
	for i, q := range quals {
		dtos[i] = toQualificationDTO(q)
	}
	return dtos
}

func (r LoadOrgRequest) toDepartments() []personnel.Department {
	depts := make([]personnel.Department, len(r.Departments))
	for i, d := range r.Departments {
		depts[i] = personnel.Department{Name: d.Name, Sections: make([]personnel.OrgSection, len(d.Sections))}
		for j, sec := range d.Sections {
			depts[i].Sections[j] = personnel.OrgSection{Name: sec.Name, Designations: sec.Designations}
		}
	}
	return depts
}

func toDepartmentDTOs(depts []personnel.Department) []DepartmentDTO {
	dtos := make([]DepartmentDTO, len(depts))
	for i, d := range depts {
		dtos[i] = DepartmentDTO{Name: d.Name, Sections: make([]OrgSectionDTO, len(d.Sections))}
		for j, sec := range d.Sections {
			designations := sec.Designations
			if designations == nil {
				designations = []string{}
			}
			dtos[i].Sections[j] = OrgSectionDTO{Name: sec.Name, Designations: designations}
		}
	}
	return dtos
}
