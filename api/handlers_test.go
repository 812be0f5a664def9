/*
handlers_test.go - HTTP tests for the API handlers

Tests for:
- Personnel enlistment, correction, postings and status
- Career history, qualifications and the org structure
- Leave lifecycle over HTTP and error status mapping
- Duty booking, rotation order and roster reports
- Audit log listing
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/warp/duty-roster/core"
	"github.com/warp/duty-roster/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func setupTestHandler(t *testing.T) *Handler {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewHandler(store, zaptest.NewLogger(t))
}

func setupTestServer(t *testing.T) (*Handler, http.Handler) {
	h := setupTestHandler(t)
	return h, NewRouter(h, []string{"http://localhost:5173"})
}

func do(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Actor", "hq-admin")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func enlistRequest(id string) CreatePersonRequest {
	return CreatePersonRequest{
		ServiceNumber: id,
		PersonFields: PersonFields{
			FirstName: "Chidi",
			LastName:  "Eze",
			Rank:      "aso",
			Gender:    "M",
		},
		Posting: &PostingRequest{Disposition: "SDS", PostedOn: "2024-01-02"},
	}
}

func enlist(t *testing.T, srv http.Handler, id string) {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/personnel", enlistRequest(id))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func submitLeave(t *testing.T, srv http.Handler, id, start, end string) LeaveDTO {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/leaves", SubmitLeaveRequest{
		PersonID: id, Type: "annual", StartDate: start, EndDate: end, Reason: "rest",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[LeaveDTO](t, rec)
}

// =============================================================================
// PERSONNEL
// =============================================================================

func TestPersonnel_EnlistGetAndList(t *testing.T) {
	// GIVEN: An empty directory
	// WHEN: Enlisting a member with a first posting
	// THEN: The member is listed ACTIVE with the posting as current assignment

	_, srv := setupTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/personnel", enlistRequest("DSS100"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[PersonDTO](t, rec)
	assert.Equal(t, "ASO", created.Rank)
	assert.Equal(t, "SINGLE", created.MaritalStatus)
	assert.Equal(t, "ASO Eze Chidi", created.DisplayName)
	assert.Equal(t, core.DisplayActive, created.StatusLabel)
	require.NotNil(t, created.Current)
	assert.Equal(t, "SDS", created.Current.Disposition)
	assert.Equal(t, "2024-01-02", created.Current.PostedOn)

	rec = do(t, srv, http.MethodGet, "/api/personnel/DSS100", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DSS100", decode[PersonDTO](t, rec).ServiceNumber)

	rec = do(t, srv, http.MethodGet, "/api/personnel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]PersonDTO](t, rec), 1)
}

func TestPersonnel_CreateErrors(t *testing.T) {
	_, srv := setupTestServer(t)
	enlist(t, srv, "DSS100")

	tests := []struct {
		name   string
		body   any
		status int
		field  string
	}{
		{"duplicate service number", enlistRequest("DSS100"), http.StatusBadRequest, "service_number"},
		{"bad date of birth", func() CreatePersonRequest {
			r := enlistRequest("DSS200")
			r.DateOfBirth = "01/02/1990"
			return r
		}(), http.StatusBadRequest, "date_of_birth"},
		{"unknown rank", func() CreatePersonRequest {
			r := enlistRequest("DSS201")
			r.Rank = "GENERAL"
			return r
		}(), http.StatusBadRequest, "rank"},
		{"posting without date", func() CreatePersonRequest {
			r := enlistRequest("DSS202")
			r.Posting.PostedOn = ""
			return r
		}(), http.StatusBadRequest, "posted_on"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/personnel", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.field, decode[ErrorResponse](t, rec).Field)
		})
	}

	rec := do(t, srv, http.MethodGet, "/api/personnel/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPersonnel_CorrectPostAndStatus(t *testing.T) {
	_, srv := setupTestServer(t)
	enlist(t, srv, "DSS100")

	// Correction keeps the posting
	rec := do(t, srv, http.MethodPut, "/api/personnel/DSS100", UpdatePersonRequest{PersonFields: PersonFields{
		FirstName: "Chidi", LastName: "Eze", Rank: "SO", Gender: "M", MaritalStatus: "married",
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	corrected := decode[PersonDTO](t, rec)
	assert.Equal(t, "SO", corrected.Rank)
	assert.Equal(t, "MARRIED", corrected.MaritalStatus)
	require.NotNil(t, corrected.Current)

	// New posting to an unknown section is refused
	rec = do(t, srv, http.MethodPost, "/api/personnel/DSS100/assignments", PostingRequest{
		Disposition: "Escort", Section: "Ghost", PostedOn: "2024-06-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/sections", SectionDTO{Name: "Logistics", Department: "Support"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/personnel/DSS100/assignments", PostingRequest{
		Disposition: "Escort", Section: "Logistics", PostedOn: "2024-06-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/personnel/DSS100/assignments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]AssignmentDTO](t, rec)
	require.Len(t, history, 2)
	assert.Equal(t, "Logistics", history[1].Section)

	// Suspend the current posting
	rec = do(t, srv, http.MethodPut, "/api/personnel/DSS100/status", SetStatusRequest{Status: "suspended"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, core.DisplaySuspended, decode[AssignmentDTO](t, rec).StatusLabel)

	rec = do(t, srv, http.MethodPut, "/api/personnel/DSS100/status", SetStatusRequest{Status: "RETIRED"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// ON_LEAVE only comes from an approved leave request
	rec = do(t, srv, http.MethodPut, "/api/personnel/DSS100/status", SetStatusRequest{Status: "on_leave"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "status", decode[ErrorResponse](t, rec).Field)
}

// =============================================================================
// CAREER AND ORGANIZATION
// =============================================================================

func TestCareer_RecordPromotesAndLists(t *testing.T) {
	// GIVEN: An ASO
	// WHEN: Recording a career entry at SO
	// THEN: The entry is listed and the person now holds SO

	_, srv := setupTestServer(t)
	enlist(t, srv, "DSS100")

	years := 7
	rec := do(t, srv, http.MethodPost, "/api/personnel/DSS100/career", RecordCareerRequest{
		Rank:              "so",
		LastPromotedOn:    "2024-03-01",
		CommandLastServed: "Lagos State Command",
		YearsInService:    &years,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[CareerRecordDTO](t, rec)
	assert.Equal(t, "SO", created.Rank)
	assert.Equal(t, "2024-03-01", created.LastPromotedOn)
	assert.Equal(t, 7, created.YearsInService)
	assert.Equal(t, "hq-admin", created.RecordedBy)

	rec = do(t, srv, http.MethodGet, "/api/personnel/DSS100", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SO", decode[PersonDTO](t, rec).Rank)

	rec = do(t, srv, http.MethodGet, "/api/personnel/DSS100/career", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]CareerRecordDTO](t, rec)
	require.Len(t, history, 1)
	assert.Equal(t, created.ID, history[0].ID)
}

func TestCareer_ErrorMapping(t *testing.T) {
	_, srv := setupTestServer(t)
	enlist(t, srv, "DSS100")

	tests := []struct {
		name   string
		path   string
		body   RecordCareerRequest
		status int
		field  string
	}{
		{"unknown rank", "/api/personnel/DSS100/career", RecordCareerRequest{Rank: "GENERAL", CommandLastServed: "HQ"}, http.StatusBadRequest, "rank"},
		{"missing command", "/api/personnel/DSS100/career", RecordCareerRequest{Rank: "ASO"}, http.StatusBadRequest, "command_last_served"},
		{"bad date", "/api/personnel/DSS100/career", RecordCareerRequest{Rank: "ASO", CommandLastServed: "HQ", LastPromotedOn: "01/03/2024"}, http.StatusBadRequest, "last_promoted_on"},
		{"unknown person", "/api/personnel/NOPE/career", RecordCareerRequest{Rank: "ASO", CommandLastServed: "HQ"}, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.field != "" {
				assert.Equal(t, tt.field, decode[ErrorResponse](t, rec).Field)
			}
		})
	}

	rec := do(t, srv, http.MethodGet, "/api/personnel/DSS100/career", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]CareerRecordDTO](t, rec))
}

func TestQualifications_AddListAndDuplicate(t *testing.T) {
	_, srv := setupTestServer(t)
	enlist(t, srv, "DSS100")

	rec := do(t, srv, http.MethodPost, "/api/personnel/DSS100/qualifications", AddQualificationRequest{Title: "B.Sc Sociology"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "B.Sc Sociology", decode[QualificationDTO](t, rec).Title)

	rec = do(t, srv, http.MethodPost, "/api/personnel/DSS100/qualifications", AddQualificationRequest{Title: "b.sc sociology"})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "title", decode[ErrorResponse](t, rec).Field)

	rec = do(t, srv, http.MethodPost, "/api/personnel/DSS100/qualifications", AddQualificationRequest{Title: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/personnel/DSS100/qualifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	quals := decode[[]QualificationDTO](t, rec)
	require.Len(t, quals, 1)
	assert.Equal(t, "B.Sc Sociology", quals[0].Title)

	rec = do(t, srv, http.MethodGet, "/api/personnel/NOPE/qualifications", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrg_LoadGetAndPostingDesignation(t *testing.T) {
	// GIVEN: An org structure loaded over HTTP
	// WHEN: Posting a member with catalogued and uncatalogued designations
	// THEN: Only catalogued designations are accepted for that section

	_, srv := setupTestServer(t)
	enlist(t, srv, "DSS100")

	load := LoadOrgRequest{Departments: []DepartmentDTO{
		{Name: "DIRECTOR OFFICE", Sections: []OrgSectionDTO{
			{Name: "SDS Secretariat", Designations: []string{"SDS CLERK", "ESCORT COMMANDER"}},
		}},
	}}
	rec := do(t, srv, http.MethodPost, "/api/org", load)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, OrgSummaryDTO{Departments: 1, Sections: 1, Designations: 2}, decode[OrgSummaryDTO](t, rec))

	// Reloading is a no-op
	rec = do(t, srv, http.MethodPost, "/api/org", load)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/designations", DesignationDTO{Section: "SDS Secretariat", Name: "SDS ORDERLY"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/designations", DesignationDTO{Section: "Ghost", Name: "COOK"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/org", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	org := decode[[]DepartmentDTO](t, rec)
	require.Len(t, org, 1)
	require.Len(t, org[0].Sections, 1)
	assert.Equal(t, []string{"ESCORT COMMANDER", "SDS CLERK", "SDS ORDERLY"}, org[0].Sections[0].Designations)

	rec = do(t, srv, http.MethodPost, "/api/personnel/DSS100/assignments", PostingRequest{
		Disposition: "SDS", Section: "SDS Secretariat", Designation: "Cook", PostedOn: "2024-06-01",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "designation", decode[ErrorResponse](t, rec).Field)

	rec = do(t, srv, http.MethodPost, "/api/personnel/DSS100/assignments", PostingRequest{
		Disposition: "SDS", Section: "SDS Secretariat", Designation: "sds clerk", PostedOn: "2024-06-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "SDS CLERK", decode[AssignmentDTO](t, rec).Designation)
}

func TestOrg_LoadRejectsSectionUnderTwoDepartments(t *testing.T) {
	_, srv := setupTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/org", LoadOrgRequest{Departments: []DepartmentDTO{
		{Name: "A", Sections: []OrgSectionDTO{{Name: "Registry"}}},
		{Name: "B", Sections: []OrgSectionDTO{{Name: "Registry"}}},
	}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "section", decode[ErrorResponse](t, rec).Field)

	rec = do(t, srv, http.MethodGet, "/api/org", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]DepartmentDTO](t, rec))
}

// =============================================================================
// LEAVE
// =============================================================================

func TestLeave_LifecycleOverHTTP(t *testing.T) {
	// GIVEN: An ACTIVE member with a pending leave request
	// WHEN: Approving, re-approving, overlapping and cancelling
	// THEN: Status labels follow and illegal moves return 409

	_, srv := setupTestServer(t)
	enlist(t, srv, "DSS100")

	req := submitLeave(t, srv, "DSS100", "2025-03-10", "2025-03-14")
	assert.Equal(t, "PENDING", req.Status)
	assert.Equal(t, "Annual Leave", req.TypeLabel)
	assert.Equal(t, 5, req.DaysCount)
	assert.Equal(t, "2025-03-15", req.ResumptionDate)
	assert.Equal(t, []string{"APPROVED", "REJECTED", "CANCELLED"}, req.NextStates)

	rec := do(t, srv, http.MethodPost, "/api/leaves/"+req.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[LeaveDTO](t, rec)
	assert.Equal(t, "APPROVED", approved.Status)
	assert.Equal(t, "hq-admin", approved.DecidedBy)
	assert.NotEmpty(t, approved.DecidedAt)

	rec = do(t, srv, http.MethodGet, "/api/personnel/DSS100", nil)
	assert.Equal(t, core.DisplayOnLeave, decode[PersonDTO](t, rec).StatusLabel)

	// Double approval
	rec = do(t, srv, http.MethodPost, "/api/leaves/"+req.ID+"/approve", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Overlap on the last day
	rec = do(t, srv, http.MethodPost, "/api/leaves", SubmitLeaveRequest{
		PersonID: "DSS100", Type: "CASUAL", StartDate: "2025-03-14", EndDate: "2025-03-16", Reason: "trip",
	})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/leaves/"+req.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[LeaveDTO](t, rec).NextStates)

	rec = do(t, srv, http.MethodGet, "/api/personnel/DSS100", nil)
	assert.Equal(t, core.DisplayActive, decode[PersonDTO](t, rec).StatusLabel)

	rec = do(t, srv, http.MethodGet, "/api/leaves/"+req.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", decode[LeaveDTO](t, rec).Status)
}

func TestLeave_RejectRequiresReason(t *testing.T) {
	_, srv := setupTestServer(t)
	enlist(t, srv, "DSS100")
	req := submitLeave(t, srv, "DSS100", "2025-03-10", "2025-03-14")

	rec := do(t, srv, http.MethodPost, "/api/leaves/"+req.ID+"/reject", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/leaves/"+req.ID+"/reject", DecisionRequest{Reason: "manning levels"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rejected := decode[LeaveDTO](t, rec)
	assert.Equal(t, "REJECTED", rejected.Status)
	assert.Equal(t, "manning levels", rejected.RejectionReason)
}

func TestLeave_SubmitValidation(t *testing.T) {
	_, srv := setupTestServer(t)
	enlist(t, srv, "DSS100")

	tests := []struct {
		name   string
		body   SubmitLeaveRequest
		status int
		field  string
	}{
		{"end before start", SubmitLeaveRequest{PersonID: "DSS100", Type: "ANNUAL", StartDate: "2025-03-10", EndDate: "2025-03-01", Reason: "x"}, http.StatusBadRequest, "end_date"},
		{"missing reason", SubmitLeaveRequest{PersonID: "DSS100", Type: "ANNUAL", StartDate: "2025-03-10", EndDate: "2025-03-11"}, http.StatusBadRequest, "reason"},
		{"bad start date", SubmitLeaveRequest{PersonID: "DSS100", Type: "ANNUAL", StartDate: "tomorrow", EndDate: "2025-03-11", Reason: "x"}, http.StatusBadRequest, "start_date"},
		{"unknown type", SubmitLeaveRequest{PersonID: "DSS100", Type: "HOLIDAY", StartDate: "2025-03-10", EndDate: "2025-03-11", Reason: "x"}, http.StatusBadRequest, "leave_type"},
		{"unknown person", SubmitLeaveRequest{PersonID: "GHOST", Type: "ANNUAL", StartDate: "2025-03-10", EndDate: "2025-03-11", Reason: "x"}, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/leaves", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.field, decode[ErrorResponse](t, rec).Field)
		})
	}
}

func TestLeave_ListOverdueAndUsage(t *testing.T) {
	_, srv := setupTestServer(t)
	enlist(t, srv, "DSS100")

	req := submitLeave(t, srv, "DSS100", "2024-12-30", "2025-01-03")
	rec := do(t, srv, http.MethodPost, "/api/leaves/"+req.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/leaves/overdue?as_of=2025-01-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	overdue := decode[[]LeaveDTO](t, rec)
	require.Len(t, overdue, 1)
	assert.Equal(t, req.ID, overdue[0].ID)

	rec = do(t, srv, http.MethodGet, "/api/leaves?person=DSS100&status=approved", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]LeaveDTO](t, rec), 1)

	rec = do(t, srv, http.MethodGet, "/api/personnel/DSS100/leave-usage?year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	usage := decode[UsageDTO](t, rec)
	assert.Equal(t, "2025-01-01", usage.From)
	assert.Equal(t, "3", usage.Total.String(), "clipped to the year")
	assert.Equal(t, "3", usage.ByType["ANNUAL"].String())

	rec = do(t, srv, http.MethodPost, "/api/leaves/"+req.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/leaves/overdue?as_of=2025-01-10", nil)
	assert.Empty(t, decode[[]LeaveDTO](t, rec))
}

// =============================================================================
// DUTY
// =============================================================================

func TestDuties_RecordAndEligible(t *testing.T) {
	// GIVEN: A served 2024-01-01, B never served, C served 2024-01-10
	// WHEN: Asking for the rotation as of 2024-02-01
	// THEN: B, A, C with positions and last duty dates

	_, srv := setupTestServer(t)
	for _, id := range []string{"A", "B", "C"} {
		enlist(t, srv, id)
	}

	rec := do(t, srv, http.MethodPost, "/api/duties", RecordDutyRequest{PersonID: "A", Date: "2024-01-01", Shift: "day"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	duty := decode[DutyDTO](t, rec)
	assert.Equal(t, "Day Shift", duty.ShiftLabel)
	assert.Equal(t, "hq-admin", duty.RecordedBy)

	rec = do(t, srv, http.MethodPost, "/api/duties", RecordDutyRequest{PersonID: "C", Date: "2024-01-10", Shift: "NIGHT"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/duties/eligible?date=2024-02-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	candidates := decode[[]CandidateDTO](t, rec)
	require.Len(t, candidates, 3)
	assert.Equal(t, "B", candidates[0].ServiceNumber)
	assert.True(t, candidates[0].NeverTasked)
	assert.Equal(t, "A", candidates[1].ServiceNumber)
	assert.Equal(t, "2024-01-01", candidates[1].LastDuty)
	assert.Equal(t, 3, candidates[2].Position)

	rec = do(t, srv, http.MethodGet, "/api/duties/eligible?date=2024-02-01&limit=1", nil)
	assert.Len(t, decode[[]CandidateDTO](t, rec), 1)

	rec = do(t, srv, http.MethodGet, "/api/duties/eligible?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDuties_BookingErrors(t *testing.T) {
	_, srv := setupTestServer(t)
	enlist(t, srv, "A")

	rec := do(t, srv, http.MethodPost, "/api/duties", RecordDutyRequest{PersonID: "A", Date: "2024-05-01", Shift: "DAY"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/duties", RecordDutyRequest{PersonID: "A", Date: "2024-05-01", Shift: "DAY"})
	assert.Equal(t, http.StatusConflict, rec.Code, "duplicate slot")

	rec = do(t, srv, http.MethodPost, "/api/duties", RecordDutyRequest{PersonID: "A", Date: "2024-05-02", Shift: "EVENING"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown shift")

	req := submitLeave(t, srv, "A", "2024-05-03", "2024-05-05")
	rec = do(t, srv, http.MethodPost, "/api/leaves/"+req.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/duties", RecordDutyRequest{PersonID: "A", Date: "2024-05-04", Shift: "NIGHT"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "on leave")
}

func TestDuties_ListAndReport(t *testing.T) {
	_, srv := setupTestServer(t)
	enlist(t, srv, "A")
	enlist(t, srv, "B")
	for _, b := range []RecordDutyRequest{
		{PersonID: "B", Date: "2024-05-02", Shift: "NIGHT"},
		{PersonID: "A", Date: "2024-05-01", Shift: "DAY"},
	} {
		require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/duties", b).Code)
	}

	rec := do(t, srv, http.MethodGet, "/api/duties?from=2024-05-01&to=2024-05-07", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]RosterEntryDTO](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, "A", entries[0].ServiceNumber)
	assert.Equal(t, "Wednesday", entries[0].Day)

	rec = do(t, srv, http.MethodGet, "/api/duties/report?from=2024-05-01&to=2024-05-07", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "Night Shift")

	rec = do(t, srv, http.MethodGet, "/api/duties/report?from=2024-05-01&to=2024-05-07&format=xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "roster_2024-05-01_2024-05-07.xlsx")
	assert.NotZero(t, rec.Body.Len())

	rec = do(t, srv, http.MethodGet, "/api/duties/report?from=2024-05-01&to=2024-05-07&format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/duties?to=2024-05-07", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "from", decode[ErrorResponse](t, rec).Field)
}

// =============================================================================
// AUDIT AND MIDDLEWARE
// =============================================================================

func TestAudit_ListByPerson(t *testing.T) {
	_, srv := setupTestServer(t)
	enlist(t, srv, "A")
	enlist(t, srv, "B")

	rec := do(t, srv, http.MethodGet, "/api/audit?person=A", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]AuditDTO](t, rec)
	require.Len(t, entries, 2, "enlisted and posted")
	for _, e := range entries {
		assert.Equal(t, "A", e.PersonID)
		assert.Equal(t, "hq-admin", e.ActorID)
	}

	rec = do(t, srv, http.MethodGet, "/api/audit?limit=1", nil)
	assert.Len(t, decode[[]AuditDTO](t, rec), 1)
}

func TestRouter_RequestIDHeader(t *testing.T) {
	_, srv := setupTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/personnel", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.Missing("reason"), http.StatusBadRequest},
		{&core.OverlapError{}, http.StatusConflict},
		{&core.InvalidTransitionError{}, http.StatusConflict},
		{&core.DuplicateAssignmentError{}, http.StatusConflict},
		{fmt.Errorf("wrap: %w", core.ErrConcurrentModification), http.StatusConflict},
		{core.NotFound("person", "X"), http.StatusNotFound},
		{&core.IneligibleError{}, http.StatusUnprocessableEntity},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}
