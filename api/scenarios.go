/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario goes through the domain services, so the
	audit log and every status invariant hold exactly as for live data.

AVAILABLE SCENARIOS:

	rotation:        Posted members with a few weeks of booked shifts
	leave-cycle:     Requests in every leave status, one overdue resumption
	status-changes:  Suspension, transfer and re-posting

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Load the org structure (departments, sections, designations)
 3. Enlist members with their first posting
 4. Record career history and qualifications
 5. Book duties, submit and decide leave

Dates are relative to today so eligibility and overdue checks show
something meaningful whenever the scenario is loaded.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "rotation"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/duty-roster/core"
	"github.com/warp/duty-roster/leave"
	"github.com/warp/duty-roster/personnel"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "rotation",
		Name:        "Guard Rotation",
		Description: "Six posted members, three weeks of shifts, two never tasked",
	},
	{
		ID:          "leave-cycle",
		Name:        "Leave Cycle",
		Description: "Pending, approved, rejected, cancelled and completed leave with an overdue resumption",
	},
	{
		ID:          "status-changes",
		Name:        "Status Changes",
		Description: "Suspension, transfer and re-posting effects on eligibility",
	},
}

const scenarioActor = "scenario-loader"

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	loaders := map[string]func(context.Context) error{
		"rotation":       h.loadRotationScenario,
		"leave-cycle":    h.loadLeaveCycleScenario,
		"status-changes": h.loadStatusChangesScenario,
	}
	load, ok := loaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		h.writeServiceError(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx); err != nil {
		h.writeServiceError(w, r, fmt.Sprintf("Failed to load scenario %s", req.ScenarioID), err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

type member struct {
	id, first, last string
	rank            core.Rank
	gender          core.Gender
	disposition     string
	section         string
	designation     string
	qualification   string
}

var demoOrg = []personnel.Department{
	{Name: "DIRECTOR OFFICE", Sections: []personnel.OrgSection{
		{Name: "SDS Secretariat", Designations: []string{"SDS CLERK", "SDS ORDERLY", "ESCORT COMMANDER"}},
	}},
	{Name: "DEPUTY DIRECTOR SECURITY ENFORCEMENT", Sections: []personnel.OrgSection{
		{Name: "Enforcement and Security Support", Designations: []string{"ORDERLY", "OPERATIVE", "ARMOURER"}},
	}},
	{Name: "DEPUTY DIRECTOR ADMIN AND LOGISTICS", Sections: []personnel.OrgSection{
		{Name: "Admin Registry", Designations: []string{"REGISTRY CLERK", "DESPATCH"}},
		{Name: "Transport Section", Designations: []string{"POOL (Driver)", "MECHANIC"}},
	}},
}

var demoMembers = []member{
	{"DSS1001", "Musa", "Ibrahim", core.RankSO, core.GenderMale, "SDS", "SDS Secretariat", "ESCORT COMMANDER", "B.Sc Political Science"},
	{"DSS1002", "Adaeze", "Okafor", core.RankASO, core.GenderFemale, "SDS", "Enforcement and Security Support", "OPERATIVE", "HND Accounting"},
	{"DSS1003", "Tunde", "Bakare", core.RankCD, core.GenderMale, "Escort", "Transport Section", "POOL (Driver)", "SSCE"},
	{"DSS1004", "Halima", "Yusuf", core.RankDI, core.GenderFemale, "Escort", "Admin Registry", "REGISTRY CLERK", "OND Office Technology"},
	{"DSS1005", "Emeka", "Nwosu", core.RankASO, core.GenderMale, "SDS", "Enforcement and Security Support", "ARMOURER", "NCE"},
	{"DSS1006", "Zainab", "Bello", core.RankDII, core.GenderFemale, "Orderly", "Admin Registry", "DESPATCH", "SSCE"},
}

// seedMembers loads the demo org structure and enlists every member posted
// a year ago, each with one career entry and a qualification.
func (h *Handler) seedMembers(ctx context.Context, today core.Date) error {
	if _, err := h.Directory.LoadOrgStructure(ctx, demoOrg); err != nil {
		return err
	}

	postedOn := today.AddDays(-365)
	for _, m := range demoMembers {
		p := core.Person{
			ServiceNumber: core.PersonID(m.id),
			FirstName:     m.first,
			LastName:      m.last,
			Rank:          m.rank,
			Gender:        m.gender,
			EnlistedOn:    postedOn.AddDays(-30),
		}
		posting := &personnel.Posting{Disposition: m.disposition, Section: m.section, Designation: m.designation, PostedOn: postedOn}
		if _, err := h.Directory.Enlist(ctx, p, posting, scenarioActor); err != nil {
			return fmt.Errorf("failed to enlist %s: %w", m.id, err)
		}

		entry := personnel.CareerEntry{
			Rank:              m.rank,
			LastTransferredOn: postedOn,
			CommandLastServed: "State Command",
		}
		if _, err := h.Directory.RecordCareer(ctx, p.ServiceNumber, entry, scenarioActor); err != nil {
			return fmt.Errorf("failed to record career for %s: %w", m.id, err)
		}
		if _, err := h.Directory.AddQualification(ctx, p.ServiceNumber, m.qualification, scenarioActor); err != nil {
			return fmt.Errorf("failed to add qualification for %s: %w", m.id, err)
		}
	}
	return nil
}

func (h *Handler) loadRotationScenario(ctx context.Context) error {
	today := core.Today()
	if err := h.seedMembers(ctx, today); err != nil {
		return err
	}

	// DSS1005 and DSS1006 are never tasked; the others rotate.
	bookings := []struct {
		id    string
		days  int
		shift core.Shift
	}{
		{"DSS1001", -21, core.ShiftDay},
		{"DSS1002", -21, core.ShiftNight},
		{"DSS1003", -14, core.ShiftDay},
		{"DSS1004", -14, core.ShiftNight},
		{"DSS1001", -7, core.ShiftDay},
		{"DSS1003", -7, core.ShiftNight},
		{"DSS1002", -2, core.ShiftDay},
		{"DSS1004", 3, core.ShiftDay}, // future booking, ignored for rotation today
	}
	for _, b := range bookings {
		if _, err := h.Duty.RecordDuty(ctx, core.PersonID(b.id), today.AddDays(b.days), b.shift, scenarioActor); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadLeaveCycleScenario(ctx context.Context) error {
	today := core.Today()
	if err := h.seedMembers(ctx, today); err != nil {
		return err
	}

	submit := func(id string, t core.LeaveType, from, to int, reason string) (*core.LeaveRequest, error) {
		return h.Leaves.Submit(ctx, leave.SubmitInput{
			PersonID: core.PersonID(id),
			Type:     t,
			Start:    today.AddDays(from),
			End:      today.AddDays(to),
			Reason:   reason,
		})
	}

	// Pending
	if _, err := submit("DSS1001", core.LeaveAnnual, 14, 27, "Annual leave"); err != nil {
		return err
	}

	// Approved and running
	running, err := submit("DSS1002", core.LeaveCasual, -1, 2, "Family wedding")
	if err != nil {
		return err
	}
	if _, err := h.Leaves.Approve(ctx, running.ID, "hq-admin"); err != nil {
		return err
	}

	// Approved, ended last week, resumption not confirmed
	overdue, err := submit("DSS1003", core.LeaveSick, -12, -6, "Malaria treatment")
	if err != nil {
		return err
	}
	if _, err := h.Leaves.Approve(ctx, overdue.ID, "hq-admin"); err != nil {
		return err
	}

	// Rejected
	rejected, err := submit("DSS1004", core.LeaveStudy, 30, 60, "Postgraduate exams")
	if err != nil {
		return err
	}
	if _, err := h.Leaves.Reject(ctx, rejected.ID, "hq-admin", "Operational commitments"); err != nil {
		return err
	}

	// Approved then cancelled
	cancelled, err := submit("DSS1005", core.LeaveCompassionate, 5, 8, "Bereavement")
	if err != nil {
		return err
	}
	if _, err := h.Leaves.Approve(ctx, cancelled.ID, "hq-admin"); err != nil {
		return err
	}
	if _, err := h.Leaves.Cancel(ctx, cancelled.ID, "DSS1005"); err != nil {
		return err
	}

	// Completed
	completed, err := submit("DSS1006", core.LeaveAnnual, -40, -26, "Annual leave")
	if err != nil {
		return err
	}
	if _, err := h.Leaves.Approve(ctx, completed.ID, "hq-admin"); err != nil {
		return err
	}
	_, err = h.Leaves.Complete(ctx, completed.ID, "hq-admin")
	return err
}

func (h *Handler) loadStatusChangesScenario(ctx context.Context) error {
	today := core.Today()
	if err := h.seedMembers(ctx, today); err != nil {
		return err
	}

	if _, err := h.Ledger.SetStatus(ctx, "DSS1003", core.AssignmentSuspended, "hq-admin"); err != nil {
		return err
	}
	if _, err := h.Ledger.SetStatus(ctx, "DSS1004", core.AssignmentTransferred, "hq-admin"); err != nil {
		return err
	}

	// DSS1004 reports at the new posting and is ACTIVE again.
	_, err := h.Ledger.Post(ctx, "DSS1004", personnel.Posting{
		Disposition: "SDS",
		Section:     "SDS Secretariat",
		Designation: "SDS CLERK",
		PostedOn:    today.AddDays(-3),
	}, "hq-admin")
	if err != nil {
		return err
	}

	// DSS1006 goes on leave, then is suspended while away. Cancelling the
	// leave must not reactivate the suspension.
	away, err := h.Leaves.Submit(ctx, leave.SubmitInput{
		PersonID: "DSS1006",
		Type:     core.LeaveAnnual,
		Start:    today.AddDays(-2),
		End:      today.AddDays(10),
		Reason:   "Annual leave",
	})
	if err != nil {
		return err
	}
	if _, err := h.Leaves.Approve(ctx, away.ID, "hq-admin"); err != nil {
		return err
	}
	if _, err := h.Ledger.SetStatus(ctx, "DSS1006", core.AssignmentSuspended, "hq-admin"); err != nil {
		return err
	}
	_, err = h.Leaves.Cancel(ctx, away.ID, "hq-admin")
	return err
}
