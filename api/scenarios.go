/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	consortium data. Each scenario demonstrates specific behaviour of the
	cost resolver, the workload calculator and the project report.

AVAILABLE SCENARIOS:

	italian-researcher: One Italian researcher priced from the grid, 50% load
	mixed-rates:        CUSTOM, STANDARD and NONE cost sources side by side
	overloaded-team:    OVERLOAD, WARNING, UNKNOWN, NO_CAPACITY and a legacy
	                    assignment with a malformed month list

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Import the standard cost grid via the grid factory
 3. Create partners and project members
 4. Declare availability for 2025
 5. Add assignments

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "overloaded-team"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/erasmus-writer/resource-engine/factory"
	"github.com/erasmus-writer/resource-engine/generic"
)

// ScenarioYear is the year all scenarios declare availability for.
const ScenarioYear = 2025

var errUnknownScenario = errors.New("unknown scenario")

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "italian-researcher",
		Name:        "Italian Researcher",
		Description: "Standard Italy rate (241/day), 30 days over Q1 against 20 days/month",
		Category:    "cost",
	},
	{
		ID:          "mixed-rates",
		Name:        "Mixed Rates",
		Description: "Custom rate, grid rate and a nation missing from the grid",
		Category:    "cost",
	},
	{
		ID:          "overloaded-team",
		Name:        "Overloaded Team",
		Description: "Overload, warning, unknown availability and a malformed legacy assignment",
		Category:    "workload",
	},
}

// ListScenarios returns available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, map[string]any{"scenario": nil})
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, map[string]any{"scenario": s})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenario": ScenarioDTO{ID: current, Name: current}})
}

// LoadScenario resets the database and loads a scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.LoadScenarioByID(r.Context(), req.ScenarioID); err != nil {
		if errors.Is(err, errUnknownScenario) {
			writeError(w, http.StatusBadRequest, "Unknown scenario: "+req.ScenarioID, nil)
			return
		}
		h.fail(w, r, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"scenario": req.ScenarioID,
	})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, r, "Failed to reset database", err)
		return
	}
	h.setCurrentScenario("")

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// LoadScenarioByID resets the database and loads the named scenario.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) error {
	var load func(context.Context) error
	switch id {
	case "italian-researcher":
		load = h.loadItalianResearcherScenario
	case "mixed-rates":
		load = h.loadMixedRatesScenario
	case "overloaded-team":
		load = h.loadOverloadedTeamScenario
	default:
		return errUnknownScenario
	}

	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}
	h.setCurrentScenario("")

	if err := load(ctx); err != nil {
		return fmt.Errorf("failed to load scenario %s: %w", id, err)
	}
	h.setCurrentScenario(id)
	h.log.Infow("scenario loaded", "scenario", id)
	return nil
}

func (h *Handler) setCurrentScenario(id string) {
	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
}

// =============================================================================
// SCENARIO: ITALIAN RESEARCHER
// =============================================================================

func (h *Handler) loadItalianResearcherScenario(ctx context.Context) error {
	if err := h.importGrid(ctx, factory.ErasmusGridJSON()); err != nil {
		return err
	}
	if err := h.savePartner(ctx, "p-unibo", "proj-dighum", "Italy", "Università di Bologna"); err != nil {
		return err
	}
	if _, err := h.Store.SaveMember(ctx, generic.ProjectMember{
		ID:          "m-anna",
		UserID:      "u-anna",
		ProjectID:   "proj-dighum",
		PartnerID:   "p-unibo",
		Role:        generic.RoleCoordinator,
		ProjectRole: "Senior researcher",
	}); err != nil {
		return err
	}
	if err := h.Store.SaveAvailability(ctx, availability("u-anna", 20, map[int]float64{8: 0})); err != nil {
		return err
	}
	return h.saveAssignment(ctx, "a-anna-wp2", "u-anna", "proj-dighum", "WP2 curriculum design", 30,
		`["2025-01","2025-02","2025-03"]`)
}

// =============================================================================
// SCENARIO: MIXED RATES
// =============================================================================

func (h *Handler) loadMixedRatesScenario(ctx context.Context) error {
	if err := h.importGrid(ctx, factory.ErasmusGridJSON()); err != nil {
		return err
	}

	partners := []struct{ id, nation, name string }{
		{"p-unibo", "Italy", "Università di Bologna"},
		{"p-ucm", "Spain", "Universidad Complutense de Madrid"},
		{"p-metu", "Türkiye", "Middle East Technical University"},
	}
	for _, p := range partners {
		if err := h.savePartner(ctx, p.id, "proj-greenskills", p.nation, p.name); err != nil {
			return err
		}
	}

	members := []generic.ProjectMember{
		{ID: "m-anna", UserID: "u-anna", PartnerID: "p-unibo", Role: generic.RoleCoordinator, ProjectRole: "Senior researcher"},
		{ID: "m-javier", UserID: "u-javier", PartnerID: "p-ucm", Role: generic.RolePartner, ProjectRole: "Project manager", CustomDailyRate: decimalPtr(300)},
		{ID: "m-elif", UserID: "u-elif", PartnerID: "p-metu", Role: generic.RoleMember, ProjectRole: "Researcher"},
	}
	for _, m := range members {
		m.ProjectID = "proj-greenskills"
		if _, err := h.Store.SaveMember(ctx, m); err != nil {
			return err
		}
		if err := h.Store.SaveAvailability(ctx, availability(m.UserID, 18, nil)); err != nil {
			return err
		}
	}

	if err := h.saveAssignment(ctx, "a-anna-wp1", "u-anna", "proj-greenskills", "WP1 management", 12,
		`["2025-01","2025-02"]`); err != nil {
		return err
	}
	if err := h.saveAssignment(ctx, "a-javier-wp3", "u-javier", "proj-greenskills", "WP3 pilots", 9,
		`["2025-02","2025-03","2025-04"]`); err != nil {
		return err
	}
	return h.saveAssignment(ctx, "a-elif-wp4", "u-elif", "proj-greenskills", "WP4 dissemination", 5,
		`["2025-03"]`)
}

// =============================================================================
// SCENARIO: OVERLOADED TEAM
// =============================================================================

// loadOverloadedTeamScenario builds January 2025 as:
//
//	u-marco: 15 days capacity, 20 days assigned           -> OVERLOAD (133%)
//	u-lena:  20 days capacity, 18 days over two projects  -> WARNING (90%)
//	u-sofia: no availability declared                     -> UNKNOWN
//
// u-marco also has a legacy assignment whose months are not a JSON list,
// and declares no capacity in August (NO_CAPACITY).
func (h *Handler) loadOverloadedTeamScenario(ctx context.Context) error {
	if err := h.importGrid(ctx, factory.ErasmusGridJSON()); err != nil {
		return err
	}

	partners := []struct{ id, nation, name string }{
		{"p-polimi", "Italy", "Politecnico di Milano"},
		{"p-tum", "Germany", "Technische Universität München"},
		{"p-ulisboa", "Portugal", "Universidade de Lisboa"},
	}
	for _, p := range partners {
		if err := h.savePartner(ctx, p.id, "proj-mobility", p.nation, p.name); err != nil {
			return err
		}
	}

	members := []generic.ProjectMember{
		{ID: "m-marco", UserID: "u-marco", PartnerID: "p-polimi", Role: generic.RoleCoordinator, ProjectRole: "Principal investigator"},
		{ID: "m-lena", UserID: "u-lena", PartnerID: "p-tum", Role: generic.RolePartner, ProjectRole: "Researcher"},
		{ID: "m-sofia", UserID: "u-sofia", PartnerID: "p-ulisboa", Role: generic.RoleMember, ProjectRole: "Research assistant"},
	}
	for _, m := range members {
		m.ProjectID = "proj-mobility"
		if _, err := h.Store.SaveMember(ctx, m); err != nil {
			return err
		}
	}

	if err := h.Store.SaveAvailability(ctx, availability("u-marco", 20, map[int]float64{1: 15, 8: 0})); err != nil {
		return err
	}
	if err := h.Store.SaveAvailability(ctx, availability("u-lena", 20, nil)); err != nil {
		return err
	}

	assignments := []struct {
		id, user, project, label string
		days                     float64
		months                   string
	}{
		{"a-marco-kickoff", "u-marco", "proj-mobility", "Kick-off and WP1", 20, `["2025-01"]`},
		{"a-marco-legacy", "u-marco", "proj-mobility", "Imported from spreadsheet", 10, `2025-01,2025-02`},
		{"a-lena-wp2", "u-lena", "proj-mobility", "WP2 survey", 24, `["2025-01","2025-02"]`},
		{"a-lena-other", "u-lena", "proj-other", "Teaching", 6, `["2025-01"]`},
		{"a-sofia-wp3", "u-sofia", "proj-mobility", "WP3 fieldwork", 10, `["2025-01","2025-02"]`},
	}
	for _, a := range assignments {
		if err := h.saveAssignment(ctx, a.id, a.user, a.project, a.label, a.days, a.months); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) importGrid(ctx context.Context, doc string) error {
	rows, err := h.Grid.ParseGrid([]byte(doc))
	if err != nil {
		return err
	}
	return h.Store.SaveStandardCosts(ctx, rows)
}

func (h *Handler) savePartner(ctx context.Context, id, projectID, nation, name string) error {
	_, err := h.Store.SavePartner(ctx, generic.Partner{
		ID:        generic.PartnerID(id),
		ProjectID: generic.ProjectID(projectID),
		Nation:    nation,
		Name:      name,
		Budget:    decimal.Zero,
	})
	return err
}

// saveAssignment writes months verbatim, bypassing the API's validation.
func (h *Handler) saveAssignment(ctx context.Context, id, userID, projectID, label string, days float64, months string) error {
	_, err := h.Store.SaveAssignment(ctx, generic.Assignment{
		ID:        id,
		UserID:    generic.UserID(userID),
		ProjectID: generic.ProjectID(projectID),
		Label:     label,
		Days:      decimal.NewFromFloat(days),
		Months:    months,
	})
	return err
}

// availability declares perMonth days for every month of ScenarioYear, with
// overrides keyed by month number.
func availability(userID generic.UserID, perMonth float64, overrides map[int]float64) generic.UserAvailability {
	ua := generic.UserAvailability{UserID: userID, Year: ScenarioYear}
	for m := 1; m <= 12; m++ {
		v, ok := overrides[m]
		if !ok {
			v = perMonth
		}
		ua.Days[m-1] = decimal.NewFromFloat(v)
	}
	return ua
}

func decimalPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}
