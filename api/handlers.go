/*
handlers.go - HTTP API handlers for the cost and workload engine

PURPOSE:

	Exposes the cost resolver, the workload calculator and the project report
	as a JSON API. Handles HTTP request/response, JSON serialization, and
	delegates to the domain packages.

ENDPOINTS:

	Members:
	  GET    /api/members/{id}/cost           Effective cost (custom > standard > none)
	  PUT    /api/members/{id}/rate           Set or clear the custom daily rate
	  POST   /api/members                     Add a user to a project

	Users:
	  GET    /api/users/{id}/workload?month=&year=   One month
	  GET    /api/users/{id}/workload/{year}         Twelve months
	  PUT    /api/users/{id}/availability/{year}     Declare monthly capacity
	  GET    /api/users/{id}/assignments             Effort across projects

	Admin:
	  POST   /api/assignments                 Commit days over a set of months
	  POST   /api/partners                    Add a partner organisation
	  GET    /api/standard-costs              Standard cost grid
	  POST   /api/standard-costs              Upsert one grid row
	  POST   /api/standard-costs/import       Upsert a whole grid document

	Reports:
	  GET    /api/projects/{id}/report?from=YYYY-MM&to=YYYY-MM

ARCHITECTURE:

	Handler struct holds all dependencies:
	- Store: Database access
	- Costs, Workloads, Reports: domain services built on the store
	- Grid: JSON to standard cost conversion
	- Metrics: Prometheus collectors

ERROR HANDLING:

	Errors are returned as JSON with appropriate HTTP status:
	- 400: Invalid month or period, bad JSON, validation errors
	- 404: Member (or partner) not found
	- 500: Store failures

SECURITY NOTE:

	No authentication or authorization. The API is an administrative surface.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/erasmus-writer/resource-engine/cost"
	"github.com/erasmus-writer/resource-engine/factory"
	"github.com/erasmus-writer/resource-engine/generic"
	"github.com/erasmus-writer/resource-engine/metrics"
	"github.com/erasmus-writer/resource-engine/report"
	"github.com/erasmus-writer/resource-engine/store/sqlite"
	"github.com/erasmus-writer/resource-engine/workload"
)

// maxImportSize bounds a grid document upload.
const maxImportSize = 1 << 20

var errStandardCostMissing = errors.New("standard cost missing after save")

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Costs     *cost.Resolver
	Workloads *workload.Calculator
	Reports   *report.Generator
	Grid      *factory.GridFactory
	Metrics   *metrics.Metrics

	log *zap.SugaredLogger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// Options carries the engine settings taken from configuration.
type Options struct {
	StandardRole      string
	ReportConcurrency int
}

// NewHandler wires the domain services over store.
func NewHandler(store *sqlite.Store, m *metrics.Metrics, log *zap.SugaredLogger, opts Options) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if m == nil {
		m = metrics.New()
	}
	if opts.StandardRole == "" {
		opts.StandardRole = cost.DefaultStandardRole
	}

	costs := cost.NewResolver(store,
		cost.WithStandardRole(opts.StandardRole),
		cost.WithLogger(log.Named("cost")),
	)
	workloads := workload.NewCalculator(store, log.Named("workload"))
	reports := report.NewGenerator(store, costs, workloads, log.Named("report"))
	reports.SetConcurrency(opts.ReportConcurrency)

	return &Handler{
		Store:     store,
		Costs:     costs,
		Workloads: workloads,
		Reports:   reports,
		Grid:      factory.NewGridFactory(opts.StandardRole),
		Metrics:   m,
		log:       log,
	}
}

// =============================================================================
// MEMBER HANDLERS
// =============================================================================

// GetMemberCost returns the effective cost of a member.
func (h *Handler) GetMemberCost(w http.ResponseWriter, r *http.Request) {
	id := generic.MemberID(chi.URLParam(r, "id"))

	c, err := h.Costs.Resolve(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to resolve cost", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return
	}
	h.Metrics.ObserveCost(string(c.Source))

	writeJSON(w, http.StatusOK, toCostDTO(*c))
}

// SetMemberRate sets or clears a member's custom daily rate and returns the
// resulting cost.
func (h *Handler) SetMemberRate(w http.ResponseWriter, r *http.Request) {
	id := generic.MemberID(chi.URLParam(r, "id"))

	var req SetRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.DailyRate != nil && req.DailyRate.IsNegative() {
		writeError(w, http.StatusBadRequest, "daily_rate must not be negative", generic.ErrInvalidRate)
		return
	}

	if err := h.Store.SetCustomDailyRate(r.Context(), id, req.DailyRate); err != nil {
		h.fail(w, r, "Failed to set rate", err)
		return
	}

	c, err := h.Costs.Resolve(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to resolve cost", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return
	}
	h.log.Infow("custom daily rate updated",
		"member_id", id,
		"source", c.Source,
		"daily_rate", c.DailyRate.Value.String(),
	)
	writeJSON(w, http.StatusOK, toCostDTO(*c))
}

// CreateMember adds a user to a project. A second membership for the same
// (user, project) updates the existing one.
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" || req.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "user_id and project_id are required", nil)
		return
	}
	role := generic.OrgRole(strings.ToUpper(req.Role))
	if role == "" {
		role = generic.RoleMember
	}
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid role %q", req.Role), nil)
		return
	}
	if req.CustomDailyRate != nil && req.CustomDailyRate.IsNegative() {
		writeError(w, http.StatusBadRequest, "custom_daily_rate must not be negative", generic.ErrInvalidRate)
		return
	}

	ctx := r.Context()
	if req.PartnerID != "" {
		partner, err := h.Store.GetPartner(ctx, generic.PartnerID(req.PartnerID))
		if err != nil {
			h.fail(w, r, "Failed to load partner", err)
			return
		}
		if partner == nil {
			h.fail(w, r, "Partner not found", generic.ErrPartnerNotFound)
			return
		}
	}

	m := generic.ProjectMember{
		ID:              generic.MemberID(req.ID),
		UserID:          generic.UserID(req.UserID),
		ProjectID:       generic.ProjectID(req.ProjectID),
		PartnerID:       generic.PartnerID(req.PartnerID),
		Role:            role,
		ProjectRole:     req.ProjectRole,
		CustomDailyRate: req.CustomDailyRate,
	}
	id, err := h.Store.SaveMember(ctx, m)
	if err != nil {
		h.fail(w, r, "Failed to create member", err)
		return
	}
	m.ID = id

	writeJSON(w, http.StatusCreated, toMemberDTO(m))
}

// CreatePartner adds a partner organisation to a project.
func (h *Handler) CreatePartner(w http.ResponseWriter, r *http.Request) {
	var req PartnerDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ProjectID == "" || strings.TrimSpace(req.Nation) == "" {
		writeError(w, http.StatusBadRequest, "project_id and nation are required", nil)
		return
	}

	p := generic.Partner{
		ID:        generic.PartnerID(req.ID),
		ProjectID: generic.ProjectID(req.ProjectID),
		Nation:    strings.TrimSpace(req.Nation),
		Name:      req.Name,
		Budget:    req.Budget,
	}
	id, err := h.Store.SavePartner(r.Context(), p)
	if err != nil {
		h.fail(w, r, "Failed to create partner", err)
		return
	}
	req.ID = string(id)
	req.Nation = p.Nation

	writeJSON(w, http.StatusCreated, req)
}

// =============================================================================
// WORKLOAD HANDLERS
// =============================================================================

// GetWorkload returns a user's workload for ?month=&year=.
func (h *Handler) GetWorkload(w http.ResponseWriter, r *http.Request) {
	userID := generic.UserID(chi.URLParam(r, "id"))

	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be an integer 1-12", err)
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "year must be an integer", err)
		return
	}

	result, err := h.Workloads.Calculate(r.Context(), userID, month, year)
	if err != nil {
		h.fail(w, r, "Failed to calculate workload", err)
		return
	}
	h.Metrics.ObserveWorkload(string(result.Status), len(result.Skipped))

	writeJSON(w, http.StatusOK, toWorkloadDTO(*result))
}

// GetYearWorkload returns a user's workload for each month of {year}.
func (h *Handler) GetYearWorkload(w http.ResponseWriter, r *http.Request) {
	userID := generic.UserID(chi.URLParam(r, "id"))
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "year must be an integer", err)
		return
	}

	results, err := h.Workloads.CalculateYear(r.Context(), userID, year)
	if err != nil {
		h.fail(w, r, "Failed to calculate workload", err)
		return
	}

	dtos := make([]WorkloadDTO, len(results))
	for i, res := range results {
		h.Metrics.ObserveWorkload(string(res.Status), len(res.Skipped))
		dtos[i] = toWorkloadDTO(*res)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PutAvailability declares a user's monthly capacity for {year}.
func (h *Handler) PutAvailability(w http.ResponseWriter, r *http.Request) {
	userID := generic.UserID(chi.URLParam(r, "id"))
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "year must be an integer", err)
		return
	}

	var req AvailabilityDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Days) != 12 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("days must list 12 months, got %d", len(req.Days)), nil)
		return
	}

	ua := generic.UserAvailability{UserID: userID, Year: year}
	for i, d := range req.Days {
		if d.IsNegative() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("days[%d] must not be negative", i), nil)
			return
		}
		ua.Days[i] = d
	}
	if err := h.Store.SaveAvailability(r.Context(), ua); err != nil {
		h.fail(w, r, "Failed to save availability", err)
		return
	}

	writeJSON(w, http.StatusOK, AvailabilityDTO{UserID: string(userID), Year: year, Days: req.Days})
}

// ListUserAssignments returns all of a user's assignments, across projects.
func (h *Handler) ListUserAssignments(w http.ResponseWriter, r *http.Request) {
	userID := generic.UserID(chi.URLParam(r, "id"))

	assignments, err := h.Store.ListAssignments(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "Failed to list assignments", err)
		return
	}

	dtos := make([]AssignmentDTO, len(assignments))
	for i, a := range assignments {
		dtos[i] = toAssignmentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAssignment commits days of a user's time over a list of months.
// Months are validated here; only data written around the API can be malformed.
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req AssignmentDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" || req.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "user_id and project_id are required", nil)
		return
	}
	if req.Days.IsNegative() {
		writeError(w, http.StatusBadRequest, "days must not be negative", nil)
		return
	}

	months := make(generic.Periods, 0, len(req.Months))
	for _, raw := range req.Months {
		p, err := generic.ParsePeriodKey(raw)
		if err != nil {
			h.fail(w, r, "Invalid month in assignment", err)
			return
		}
		months = append(months, p)
	}

	a := generic.Assignment{
		ID:        req.ID,
		UserID:    generic.UserID(req.UserID),
		ProjectID: generic.ProjectID(req.ProjectID),
		Label:     req.Label,
		Days:      req.Days,
		Months:    generic.FormatPeriods(months),
	}
	id, err := h.Store.SaveAssignment(r.Context(), a)
	if err != nil {
		h.fail(w, r, "Failed to create assignment", err)
		return
	}
	a.ID = id

	writeJSON(w, http.StatusCreated, toAssignmentDTO(a))
}

// =============================================================================
// STANDARD COST HANDLERS
// =============================================================================

// ListStandardCosts returns the standard cost grid.
func (h *Handler) ListStandardCosts(w http.ResponseWriter, r *http.Request) {
	grid, err := h.Store.ListStandardCosts(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list standard costs", err)
		return
	}

	dtos := make([]StandardCostDTO, len(grid))
	for i, sc := range grid {
		dtos[i] = toStandardCostDTO(sc)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateStandardCost upserts one grid row on (nation, role).
func (h *Handler) CreateStandardCost(w http.ResponseWriter, r *http.Request) {
	var req StandardCostDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rows, err := h.Grid.FromJSON(factory.GridJSON{Rates: []factory.RateJSON{{
		Nation:    req.Nation,
		Role:      req.Role,
		Area:      req.Area,
		DailyRate: req.DailyRate,
	}}})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid standard cost", err)
		return
	}

	saved, err := saveStandardCost(r.Context(), h.Store, rows[0])
	if err != nil {
		h.fail(w, r, "Failed to save standard cost", err)
		return
	}

	writeJSON(w, http.StatusCreated, toStandardCostDTO(*saved))
}

// gridWriter is the part of the store a single grid upsert needs.
type gridWriter interface {
	SaveStandardCosts(ctx context.Context, rows []generic.StandardCost) error
	FindStandardCost(ctx context.Context, nation, role string) (*generic.StandardCost, error)
}

// saveStandardCost upserts one row and reads it back with its stored ID.
func saveStandardCost(ctx context.Context, gw gridWriter, sc generic.StandardCost) (*generic.StandardCost, error) {
	if err := gw.SaveStandardCosts(ctx, []generic.StandardCost{sc}); err != nil {
		return nil, err
	}
	saved, err := gw.FindStandardCost(ctx, sc.Nation, sc.Role)
	if err != nil {
		return nil, fmt.Errorf("reading back standard cost (%s, %s): %w", sc.Nation, sc.Role, err)
	}
	if saved == nil {
		return nil, fmt.Errorf("standard cost (%s, %s): %w", sc.Nation, sc.Role, errStandardCostMissing)
	}
	return saved, nil
}

// ImportStandardCosts upserts a whole grid document in one transaction.
func (h *Handler) ImportStandardCosts(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	rows, err := h.Grid.ParseGrid(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid grid document", err)
		return
	}
	if err := h.Store.SaveStandardCosts(r.Context(), rows); err != nil {
		h.fail(w, r, "Failed to import standard costs", err)
		return
	}

	h.log.Infow("standard cost grid imported", "rows", len(rows))
	writeJSON(w, http.StatusOK, ImportResponse{Imported: len(rows)})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetProjectReport returns cost and effort by member and month.
func (h *Handler) GetProjectReport(w http.ResponseWriter, r *http.Request) {
	projectID := generic.ProjectID(chi.URLParam(r, "id"))

	from, err := generic.ParsePeriodKey(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be YYYY-MM", err)
		return
	}
	to, err := generic.ParsePeriodKey(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to must be YYYY-MM", err)
		return
	}

	start := time.Now()
	rep, err := h.Reports.Generate(r.Context(), projectID, from, to)
	if err != nil {
		h.fail(w, r, "Failed to generate report", err)
		return
	}
	h.Metrics.ReportDuration.Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, toReportDTO(*rep))
}

// =============================================================================
// HELPERS
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
	}
	writeJSON(w, status, resp)
}

// fail maps an engine error to its status code. Server errors are logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		requestLogger(h.log, r).Errorw(message, "error", err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
