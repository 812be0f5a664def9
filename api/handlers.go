/*
handlers.go - HTTP API handlers for the duty roster

PURPOSE:
  Exposes the personnel directory, the leave state machine and the guard
  duty rotation via REST API. Handles HTTP request/response and JSON
  serialization; every rule lives in the domain packages.

ENDPOINTS:
  Personnel:
    GET    /api/personnel                    List personnel with status label
    POST   /api/personnel                    Enlist (optional first posting)
    GET    /api/personnel/{id}               Get one person
    PUT    /api/personnel/{id}               Correct static attributes
    GET    /api/personnel/{id}/assignments   Posting history
    POST   /api/personnel/{id}/assignments   New posting
    PUT    /api/personnel/{id}/status        Set current assignment status
    GET    /api/personnel/{id}/leave-usage   Days taken per leave type
    GET    /api/personnel/{id}/career        Career history
    POST   /api/personnel/{id}/career        Append a career entry
    GET    /api/personnel/{id}/qualifications  Qualifications held
    POST   /api/personnel/{id}/qualifications  Add a qualification
    POST   /api/sections                     Register a section
    POST   /api/designations                 Register a designation
    GET    /api/org                          Departments, sections, designations
    POST   /api/org                          Bulk-load the org structure

  Leave:
    GET    /api/leaves                       List (?person=&status=)
    POST   /api/leaves                       Submit
    GET    /api/leaves/overdue               Approved past end (?as_of=)
    GET    /api/leaves/{id}                  Get one request
    POST   /api/leaves/{id}/approve|reject|cancel|complete

  Duty:
    GET    /api/duties                       Booked shifts (?from=&to=)
    POST   /api/duties                       Book a shift
    GET    /api/duties/eligible              Rotation order (?date=&limit=)
    GET    /api/duties/report                Rendered roster (?from=&to=&format=)

  Audit:
    GET    /api/audit                        Audit log (?person=&limit=)

ACTOR:
  The X-Actor header names who performs a mutation. It is recorded in the
  audit log. Missing header means "system".

ERROR HANDLING:
  Errors are returned as JSON with an HTTP status derived from the domain
  error (see statusFor):
  - 400: Validation errors, invalid input
  - 404: Person, leave request or section not found
  - 409: Invalid transition, overlap, duplicate duty, concurrent update
  - 422: Duty booking for a person who is not ACTIVE
  - 500: Internal errors

SECURITY NOTE:
  No authentication. X-Actor is trusted as sent.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/duty-roster/core"
	"github.com/warp/duty-roster/leave"
	"github.com/warp/duty-roster/personnel"
	"github.com/warp/duty-roster/roster"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence the API needs: the domain store plus a reset
// for scenario loading. Both store/sqlite and store/memory satisfy it.
type Store interface {
	core.Store
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     Store
	Directory *personnel.Directory
	Ledger    *personnel.Ledger
	Leaves    *leave.Service
	Duty      *roster.Service

	logger *zap.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler wires the domain services on top of store.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:     store,
		Directory: personnel.NewDirectory(store, logger.Named("personnel")),
		Ledger:    personnel.NewLedger(store, logger.Named("personnel")),
		Leaves:    leave.NewService(store, logger.Named("leave")),
		Duty:      roster.NewService(store, logger.Named("roster")),
		logger:    logger,
	}
}

const defaultActor = "system"

func actorFrom(r *http.Request) string {
	if actor := strings.TrimSpace(r.Header.Get("X-Actor")); actor != "" {
		return actor
	}
	return defaultActor
}

func personIDParam(r *http.Request) core.PersonID {
	return core.PersonID(chi.URLParam(r, "id"))
}

// =============================================================================
// PERSONNEL HANDLERS
// =============================================================================

// ListPersonnel returns everyone with their current posting.
func (h *Handler) ListPersonnel(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Directory.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "Failed to list personnel", err)
		return
	}

	dtos := make([]PersonDTO, len(profiles))
	for i, p := range profiles {
		dtos[i] = toPersonDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPerson returns a single person.
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Directory.Get(r.Context(), personIDParam(r))
	if err != nil {
		h.writeServiceError(w, r, "Failed to get person", err)
		return
	}
	writeJSON(w, http.StatusOK, toPersonDTO(*profile))
}

// CreatePerson enlists a new person.
// POST /api/personnel
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p, err := req.toPerson(core.PersonID(strings.TrimSpace(req.ServiceNumber)))
	if err != nil {
		h.writeServiceError(w, r, "Invalid person", err)
		return
	}

	var posting *personnel.Posting
	if req.Posting != nil {
		pst, err := req.Posting.toPosting()
		if err != nil {
			h.writeServiceError(w, r, "Invalid posting", err)
			return
		}
		posting = &pst
	}

	profile, err := h.Directory.Enlist(r.Context(), p, posting, actorFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "Failed to enlist person", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPersonDTO(*profile))
}

// UpdatePerson corrects a person's static attributes.
// PUT /api/personnel/{id}
func (h *Handler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	var req UpdatePersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p, err := req.toPerson(personIDParam(r))
	if err != nil {
		h.writeServiceError(w, r, "Invalid person", err)
		return
	}

	profile, err := h.Directory.Correct(r.Context(), p, actorFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "Failed to correct person", err)
		return
	}
	writeJSON(w, http.StatusOK, toPersonDTO(*profile))
}

// ListAssignments returns a person's posting history, oldest first.
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	history, err := h.Ledger.History(r.Context(), personIDParam(r))
	if err != nil {
		h.writeServiceError(w, r, "Failed to get assignments", err)
		return
	}

	dtos := make([]AssignmentDTO, len(history))
	for i, a := range history {
		dtos[i] = toAssignmentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PostAssignment appends a new posting, superseding the current one.
// POST /api/personnel/{id}/assignments
func (h *Handler) PostAssignment(w http.ResponseWriter, r *http.Request) {
	var req PostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	posting, err := req.toPosting()
	if err != nil {
		h.writeServiceError(w, r, "Invalid posting", err)
		return
	}

	a, err := h.Ledger.Post(r.Context(), personIDParam(r), posting, actorFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "Failed to post person", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentDTO(a))
}

// SetAssignmentStatus sets the status of the current assignment.
// PUT /api/personnel/{id}/status
func (h *Handler) SetAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status := core.AssignmentStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	a, err := h.Ledger.SetStatus(r.Context(), personIDParam(r), status, actorFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "Failed to set status", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTO(a))
}

// GetLeaveUsage returns days taken per leave type.
// GET /api/personnel/{id}/leave-usage?year=2025 or ?from=&to=
func (h *Handler) GetLeaveUsage(w http.ResponseWriter, r *http.Request) {
	period, err := periodFromQuery(r)
	if err != nil {
		h.writeServiceError(w, r, "Invalid period", err)
		return
	}

	usage, err := h.Leaves.Usage(r.Context(), personIDParam(r), period)
	if err != nil {
		h.writeServiceError(w, r, "Failed to compute leave usage", err)
		return
	}
	writeJSON(w, http.StatusOK, toUsageDTO(usage))
}

// CreateSection registers a section.
// POST /api/sections
func (h *Handler) CreateSection(w http.ResponseWriter, r *http.Request) {
	var req SectionDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sec := core.Section{Name: req.Name, Department: req.Department}
	if err := h.Directory.AddSection(r.Context(), sec); err != nil {
		h.writeServiceError(w, r, "Failed to save section", err)
		return
	}
	writeJSON(w, http.StatusCreated, SectionDTO{Name: strings.TrimSpace(req.Name), Department: strings.TrimSpace(req.Department)})
}

// CreateDesignation registers a designation under a section.
// POST /api/designations
func (h *Handler) CreateDesignation(w http.ResponseWriter, r *http.Request) {
	var req DesignationDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	des := core.Designation{Section: req.Section, Name: req.Name, Description: req.Description}
	if err := h.Directory.AddDesignation(r.Context(), des); err != nil {
		h.writeServiceError(w, r, "Failed to save designation", err)
		return
	}
	writeJSON(w, http.StatusCreated, DesignationDTO{
		Section:     strings.TrimSpace(req.Section),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
	})
}

// GetOrgStructure returns departments with their sections and designations.
// GET /api/org
func (h *Handler) GetOrgStructure(w http.ResponseWriter, r *http.Request) {
	depts, err := h.Directory.OrgStructure(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "Failed to load org structure", err)
		return
	}
	writeJSON(w, http.StatusOK, toDepartmentDTOs(depts))
}

// LoadOrgStructure upserts a whole org structure.
// POST /api/org
func (h *Handler) LoadOrgStructure(w http.ResponseWriter, r *http.Request) {
	var req LoadOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	summary, err := h.Directory.LoadOrgStructure(r.Context(), req.toDepartments())
	if err != nil {
		h.writeServiceError(w, r, "Failed to load org structure", err)
		return
	}
	writeJSON(w, http.StatusOK, OrgSummaryDTO{
		Departments:  summary.Departments,
		Sections:     summary.Sections,
		Designations: summary.Designations,
	})
}

// ListCareer returns a person's career history, oldest first.
// GET /api/personnel/{id}/career
func (h *Handler) ListCareer(w http.ResponseWriter, r *http.Request) {
	records, err := h.Directory.CareerHistory(r.Context(), personIDParam(r))
	if err != nil {
		h.writeServiceError(w, r, "Failed to load career history", err)
		return
	}
	writeJSON(w, http.StatusOK, toCareerRecordDTOs(records))
}

// RecordCareer appends a career entry, promoting the person if the rank
// changed.
// POST /api/personnel/{id}/career
func (h *Handler) RecordCareer(w http.ResponseWriter, r *http.Request) {
	var req RecordCareerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	entry, err := req.toEntry()
	if err != nil {
		h.writeServiceError(w, r, "Invalid career entry", err)
		return
	}

	record, err := h.Directory.RecordCareer(r.Context(), personIDParam(r), entry, actorFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "Failed to record career", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCareerRecordDTO(record))
}

// ListQualifications returns a person's qualifications.
// GET /api/personnel/{id}/qualifications
func (h *Handler) ListQualifications(w http.ResponseWriter, r *http.Request) {
	quals, err := h.Directory.Qualifications(r.Context(), personIDParam(r))
	if err != nil {
		h.writeServiceError(w, r, "Failed to load qualifications", err)
		return
	}
	writeJSON(w, http.StatusOK, toQualificationDTOs(quals))
}

// AddQualification records a qualification.
// POST /api/personnel/{id}/qualifications
func (h *Handler) AddQualification(w http.ResponseWriter, r *http.Request) {
	var req AddQualificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	q, err := h.Directory.AddQualification(r.Context(), personIDParam(r), req.Title, actorFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "Failed to add qualification", err)
		return
	}
	writeJSON(w, http.StatusCreated, toQualificationDTO(q))
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// ListLeaves returns leave requests, newest first.
// GET /api/leaves?person=&status=
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.LeaveFilter{
		PersonID: core.PersonID(q.Get("person")),
		Status:   core.LeaveStatus(strings.ToUpper(q.Get("status"))),
	}

	reqs, err := h.Leaves.List(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, "Failed to list leave requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTOs(reqs))
}

// SubmitLeave creates a PENDING leave request.
// POST /api/leaves
func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	var req SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in, err := req.toInput()
	if err != nil {
		h.writeServiceError(w, r, "Invalid leave request", err)
		return
	}

	created, err := h.Leaves.Submit(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, "Failed to submit leave request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveDTO(*created))
}

// GetLeave returns a single leave request.
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	req, err := h.Leaves.Get(r.Context(), core.LeaveRequestID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeServiceError(w, r, "Failed to get leave request", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(*req))
}

// ListOverdueLeaves returns approved leave whose end date has passed
// without a completion.
// GET /api/leaves/overdue?as_of=
func (h *Handler) ListOverdueLeaves(w http.ResponseWriter, r *http.Request) {
	asOf := core.Today()
	if s := r.URL.Query().Get("as_of"); s != "" {
		d, err := parseDate("as_of", s)
		if err != nil {
			h.writeServiceError(w, r, "Invalid date", err)
			return
		}
		asOf = d
	}

	reqs, err := h.Leaves.Overdue(r.Context(), asOf)
	if err != nil {
		h.writeServiceError(w, r, "Failed to list overdue leave", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTOs(reqs))
}

// ApproveLeave approves a PENDING request.
func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(id core.LeaveRequestID, actor string, _ DecisionRequest) (*core.LeaveRequest, error) {
		return h.Leaves.Approve(r.Context(), id, actor)
	})
}

// RejectLeave rejects a PENDING request. A reason is required.
func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(id core.LeaveRequestID, actor string, body DecisionRequest) (*core.LeaveRequest, error) {
		return h.Leaves.Reject(r.Context(), id, actor, body.Reason)
	})
}

// CancelLeave cancels a PENDING or APPROVED request.
func (h *Handler) CancelLeave(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(id core.LeaveRequestID, actor string, _ DecisionRequest) (*core.LeaveRequest, error) {
		return h.Leaves.Cancel(r.Context(), id, actor)
	})
}

// CompleteLeave confirms resumption from an APPROVED request.
func (h *Handler) CompleteLeave(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(id core.LeaveRequestID, actor string, _ DecisionRequest) (*core.LeaveRequest, error) {
		return h.Leaves.Complete(r.Context(), id, actor)
	})
}

// decide runs one leave transition. The body is optional.
func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(core.LeaveRequestID, string, DecisionRequest) (*core.LeaveRequest, error)) {
	var body DecisionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	updated, err := fn(core.LeaveRequestID(chi.URLParam(r, "id")), actorFrom(r), body)
	if err != nil {
		h.writeServiceError(w, r, "Leave transition failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(*updated))
}

// =============================================================================
// DUTY HANDLERS
// =============================================================================

// ListDuties returns booked shifts in a period.
// GET /api/duties?from=&to=
func (h *Handler) ListDuties(w http.ResponseWriter, r *http.Request) {
	period, err := rangeFromQuery(r)
	if err != nil {
		h.writeServiceError(w, r, "Invalid period", err)
		return
	}

	entries, err := h.Duty.Roster(r.Context(), period)
	if err != nil {
		h.writeServiceError(w, r, "Failed to list duties", err)
		return
	}
	writeJSON(w, http.StatusOK, toRosterEntryDTOs(entries))
}

// RecordDuty books a shift.
// POST /api/duties
func (h *Handler) RecordDuty(w http.ResponseWriter, r *http.Request) {
	var req RecordDutyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := parseDate("date", req.Date)
	if err != nil {
		h.writeServiceError(w, r, "Invalid date", err)
		return
	}
	shift := core.Shift(strings.ToUpper(strings.TrimSpace(req.Shift)))

	rec, err := h.Duty.RecordDuty(r.Context(), core.PersonID(strings.TrimSpace(req.PersonID)), date, shift, actorFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "Failed to record duty", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDutyDTO(*rec))
}

// ListEligible returns the rotation order as of a date.
// GET /api/duties/eligible?date=&limit=
func (h *Handler) ListEligible(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	asOf := core.Today()
	if s := q.Get("date"); s != "" {
		d, err := parseDate("date", s)
		if err != nil {
			h.writeServiceError(w, r, "Invalid date", err)
			return
		}
		asOf = d
	}

	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.writeServiceError(w, r, "Invalid limit", core.Invalid("limit", "%q is not a non-negative integer", s))
			return
		}
		limit = n
	}

	candidates, err := h.Duty.Eligible(r.Context(), asOf, limit)
	if err != nil {
		h.writeServiceError(w, r, "Failed to compute eligible guards", err)
		return
	}
	writeJSON(w, http.StatusOK, toCandidateDTOs(candidates))
}

// GetRosterReport renders the booked shifts of a period.
// GET /api/duties/report?from=&to=&format=text|xlsx
func (h *Handler) GetRosterReport(w http.ResponseWriter, r *http.Request) {
	period, err := rangeFromQuery(r)
	if err != nil {
		h.writeServiceError(w, r, "Invalid period", err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "text"
	}
	reporter, ok := roster.Reporters[format]
	if !ok {
		h.writeServiceError(w, r, "Unknown report format", core.Invalid("format", "unknown report format %q", format))
		return
	}

	// Render fully before writing headers so a failure still gets a JSON error.
	var buf bytes.Buffer
	if err := h.Duty.Report(r.Context(), period, reporter, &buf); err != nil {
		h.writeServiceError(w, r, "Failed to render roster", err)
		return
	}

	w.Header().Set("Content-Type", reporter.ContentType())
	if format == "xlsx" {
		w.Header().Set("Content-Disposition",
			`attachment; filename="roster_`+period.Start.String()+`_`+period.End.String()+`.xlsx"`)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// =============================================================================
// AUDIT
// =============================================================================

// ListAudit returns the audit log, newest first.
// GET /api/audit?person=&limit=
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.writeServiceError(w, r, "Invalid limit", core.Invalid("limit", "%q is not a non-negative integer", s))
			return
		}
		limit = n
	}

	entries, err := h.Store.ListAudit(r.Context(), core.PersonID(q.Get("person")), limit)
	if err != nil {
		h.writeServiceError(w, r, "Failed to list audit log", err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditDTOs(entries))
}

// =============================================================================
// QUERY HELPERS
// =============================================================================

// rangeFromQuery reads a required ?from=&to= pair.
func rangeFromQuery(r *http.Request) (core.Period, error) {
	q := r.URL.Query()
	from, err := parseDate("from", q.Get("from"))
	if err != nil {
		return core.Period{}, err
	}
	to, err := parseDate("to", q.Get("to"))
	if err != nil {
		return core.Period{}, err
	}
	return core.Period{Start: from, End: to}, nil
}

// periodFromQuery reads ?from=&to=, else ?year=, else the current year.
func periodFromQuery(r *http.Request) (core.Period, error) {
	q := r.URL.Query()
	if q.Get("from") != "" || q.Get("to") != "" {
		return rangeFromQuery(r)
	}
	if s := q.Get("year"); s != "" {
		year, err := strconv.Atoi(s)
		if err != nil || year < 1 {
			return core.Period{}, core.Invalid("year", "%q is not a year", s)
		}
		return core.YearPeriod(year), nil
	}
	return core.YearPeriod(core.Today().Year()), nil
}

// =============================================================================
// RESPONSES
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
		var vErr *core.ValidationError
		if errors.As(err, &vErr) {
			resp.Field = vErr.Field
		}
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps a domain error to its HTTP status. Server-side
// failures are logged; client errors are already logged by the services.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(message,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeError(w, status, message, err)
}

// statusFor picks the HTTP status of a domain error. Overlap is checked
// before validation because OverlapError matches both.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrOverlap),
		errors.Is(err, core.ErrInvalidTransition),
		errors.Is(err, core.ErrDuplicateAssignment),
		errors.Is(err, core.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrIneligible):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
