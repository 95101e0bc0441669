/*
handlers.go - HTTP API handlers for the budget engine

PURPOSE:
  Exposes the payroll cost engine, parameter history, and scenario
  simulator via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Reference data:
    GET    /api/roles                    List roles
    POST   /api/roles                    Create/update role
    GET    /api/employees                List employees
    POST   /api/employees                Create/update employee
    GET    /api/employees/{chapa}        Get one employee
    POST   /api/employees/{chapa}/breakdown  Cost breakdown for a date

  Parameters:
    GET    /api/parameters               List parameter names
    POST   /api/parameters               Append a versioned record
    GET    /api/parameters/{name}        Resolve value on a date
    GET    /api/parameters/{name}/versions  All versions

  Payroll:
    GET    /api/payroll/total            Total base salaries on a date
    GET    /api/payroll/qpa              Grouped headcount (JSON or CSV)

  Scenarios:
    POST   /api/scenarios/run            Simulate a scenario
    GET    /api/scenarios/runs           List persisted runs
    GET    /api/scenarios                List demo datasets
    POST   /api/scenarios/load           Load a demo dataset

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Cached role directory and parameter history for computation

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (engine, history, simulator)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid actions, malformed records
  - 404: Unknown employee, role, or unresolvable parameter
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo dataset loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/budget-engine/history"
	"github.com/warp/budget-engine/payroll"
	"github.com/warp/budget-engine/scenario"
	"github.com/warp/budget-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store

	// Cached reference data for computation. Reloaded after any write
	// that touches roles or parameter history.
	mu      sync.RWMutex
	engine  *payroll.Engine
	history *history.Store

	// Track currently loaded demo dataset
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:   store,
		engine:  payroll.NewEngine(payroll.RoleDirectory{}),
		history: history.NewStore(),
	}
}

// LoadReferenceData hydrates the role directory and parameter history
// caches from the database.
func (h *Handler) LoadReferenceData(ctx context.Context) error {
	roles, err := h.Store.LoadRoleDirectory(ctx)
	if err != nil {
		return err
	}
	hist, err := h.Store.LoadHistory(ctx)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.engine = payroll.NewEngine(roles)
	h.history = hist
	return nil
}

func (h *Handler) currentEngine() (*payroll.Engine, *history.Store) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engine, h.history
}

// =============================================================================
// ROLE HANDLERS
// =============================================================================

// ListRoles returns all roles.
// GET /api/roles
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Store.LoadRoles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list roles", err)
		return
	}

	dtos := make([]RoleDTO, len(roles))
	for i, role := range roles {
		dtos[i] = RoleDTO{
			Code:       string(role.Code),
			Name:       role.Name,
			BaseSalary: role.BaseSalary.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRole creates or updates a role.
// POST /api/roles
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var dto RoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if dto.Code == "" || dto.Name == "" {
		writeError(w, http.StatusBadRequest, "code and name are required", nil)
		return
	}
	salary, err := parseMoney(dto.BaseSalary, "base_salary")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid salary", err)
		return
	}

	role := payroll.Role{Code: payroll.RoleCode(dto.Code), Name: dto.Name, BaseSalary: salary}
	if err := h.Store.SaveRole(r.Context(), role); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save role", err)
		return
	}
	if err := h.LoadReferenceData(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload reference data", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto)
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.LoadEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, emp := range employees {
		dtos[i] = toEmployeeDTO(emp)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates or updates an employee.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var dto EmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	emp, err := dto.toEmployee()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee", err)
		return
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetEmployee returns one employee by chapa.
// GET /api/employees/{chapa}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	chapa := chi.URLParam(r, "chapa")

	emp, ok, err := h.findEmployee(r.Context(), payroll.Chapa(chapa))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load employee", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Employee %s not found", chapa), nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

func (h *Handler) findEmployee(ctx context.Context, chapa payroll.Chapa) (payroll.Employee, bool, error) {
	employees, err := h.Store.LoadEmployees(ctx)
	if err != nil {
		return payroll.Employee{}, false, err
	}
	for _, emp := range employees {
		if emp.Chapa == chapa {
			return emp, true, nil
		}
	}
	return payroll.Employee{}, false, nil
}

// GetEmployeeBreakdown computes one employee's cost breakdown for a date.
// POST /api/employees/{chapa}/breakdown
func (h *Handler) GetEmployeeBreakdown(w http.ResponseWriter, r *http.Request) {
	chapa := chi.URLParam(r, "chapa")

	var req BreakdownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Bad date %q", req.Date), err)
		return
	}

	emp, ok, err := h.findEmployee(r.Context(), payroll.Chapa(chapa))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load employee", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Employee %s not found", chapa), nil)
		return
	}

	engine, hist := h.currentEngine()
	cfg, err := hist.ConfigOnDate(date)
	if err != nil {
		writeError(w, http.StatusNotFound, "Configuration not resolvable for date", err)
		return
	}

	bd, warn, err := engine.ComputeBreakdown(emp, cfg, req.Input.toMonthlyInput())
	if err != nil {
		writeError(w, http.StatusNotFound, "Breakdown failed", err)
		return
	}
	hourly, err := engine.HourlyWageFor(emp)
	if err != nil {
		writeError(w, http.StatusNotFound, "Breakdown failed", err)
		return
	}

	resp := struct {
		Date           string       `json:"date"`
		Breakdown      BreakdownDTO `json:"breakdown"`
		HourlyWage     string       `json:"hourly_wage"`
		YearsOfService float64      `json:"years_of_service"`
		Warning        string       `json:"warning,omitempty"`
	}{
		Date:           req.Date,
		Breakdown:      toBreakdownDTO(bd),
		HourlyWage:     hourly.String(),
		YearsOfService: payroll.YearsOfService(emp.ServiceStartDate, date),
	}
	if warn != nil {
		resp.Warning = warn.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// PARAMETER HANDLERS
// =============================================================================

// ListParameters returns all known parameter names.
// GET /api/parameters
func (h *Handler) ListParameters(w http.ResponseWriter, r *http.Request) {
	_, hist := h.currentEngine()
	writeJSON(w, http.StatusOK, hist.Names())
}

// AppendParameter appends one versioned parameter record.
// POST /api/parameters
func (h *Handler) AppendParameter(w http.ResponseWriter, r *http.Request) {
	var dto ParameterRecordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	// Reuse ingest validation so API and batch loading reject the same rows.
	raw := history.RawRecord{ID: dto.ID, Name: dto.Name, Value: dto.Value,
		StartDate: dto.StartDate, EndDate: dto.EndDate}
	staging := history.NewStore()
	if warnings := staging.Ingest([]history.RawRecord{raw}); len(warnings) > 0 {
		writeError(w, http.StatusBadRequest, "Malformed parameter record", fmt.Errorf("%s", warnings[0].Message))
		return
	}

	rec := staging.Versions(dto.Name)[0]
	if err := h.Store.AppendParameter(r.Context(), rec); err != nil {
		if payroll.IsClientError(err) {
			writeError(w, http.StatusBadRequest, "Duplicate record id", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to append record", err)
		return
	}
	if err := h.LoadReferenceData(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload reference data", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto)
}

// GetParameterValue resolves a parameter on a date (default today).
// GET /api/parameters/{name}?date=2025-07-10
func (h *Handler) GetParameterValue(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	date := time.Now().UTC()
	if q := r.URL.Query().Get("date"); q != "" {
		var err error
		if date, err = time.Parse(dateLayout, q); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Bad date %q", q), err)
			return
		}
	}

	_, hist := h.currentEngine()
	rec, err := hist.RecordOnDate(name, date)
	if err != nil {
		writeError(w, http.StatusNotFound, "Parameter not resolvable", err)
		return
	}

	writeJSON(w, http.StatusOK, ParameterValueDTO{
		Name:     name,
		Date:     date.Format(dateLayout),
		Value:    rec.Value.String(),
		RecordID: rec.ID,
	})
}

// ListParameterVersions returns every version of one parameter.
// GET /api/parameters/{name}/versions
func (h *Handler) ListParameterVersions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	_, hist := h.currentEngine()
	versions := hist.Versions(name)

	dtos := make([]ParameterRecordDTO, len(versions))
	for i, rec := range versions {
		dtos[i] = ParameterRecordDTO{
			ID:        rec.ID,
			Name:      rec.Name,
			Value:     rec.Value.String(),
			StartDate: rec.Start.Format(dateLayout),
		}
		if rec.End != nil {
			dtos[i].EndDate = rec.End.Format(dateLayout)
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// GetTotalPayroll sums base salaries for all employees.
// GET /api/payroll/total?date=2025-07-10
func (h *Handler) GetTotalPayroll(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC()
	if q := r.URL.Query().Get("date"); q != "" {
		var err error
		if date, err = time.Parse(dateLayout, q); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Bad date %q", q), err)
			return
		}
	}

	employees, err := h.Store.LoadEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load employees", err)
		return
	}

	engine, _ := h.currentEngine()
	total, warnings, err := engine.TotalPayroll(employees)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute payroll", err)
		return
	}

	dto := TotalPayrollDTO{
		Date:      date.Format(dateLayout),
		TotalCost: total.String(),
		Headcount: len(employees),
	}
	for _, warn := range warnings {
		dto.Warnings = append(dto.Warnings, warn.String())
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetQPA returns the grouped headcount summary.
// GET /api/payroll/qpa?format=csv
func (h *Handler) GetQPA(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.LoadEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load employees", err)
		return
	}

	rows := scenario.QPASummary(employees)

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="qpa.csv"`)
		if err := scenario.WriteQPACSV(w, rows); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to write CSV", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// RunScenario simulates a headcount scenario over the stored workforce
// and persists the run summary.
// POST /api/scenarios/run
func (h *Handler) RunScenario(w http.ResponseWriter, r *http.Request) {
	var req RunScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	def, err := req.toDefinition()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scenario", err)
		return
	}

	employees, err := h.Store.LoadEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load employees", err)
		return
	}

	engine, hist := h.currentEngine()
	sim := scenario.NewSimulator(engine, hist)

	result, err := sim.Run(r.Context(), def, employees)
	if err != nil {
		if payroll.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Scenario aborted: configuration not resolvable", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Scenario failed", err)
		return
	}

	runID, err := h.Store.SaveScenarioRun(r.Context(), def, result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist run", err)
		return
	}

	includeBreakdowns := r.URL.Query().Get("detail") == "full"
	dto := toScenarioResultDTO(result, includeBreakdowns)
	dto.RunID = runID
	writeJSON(w, http.StatusOK, dto)
}

// ListScenarioRuns returns persisted run summaries.
// GET /api/scenarios/runs?name=expansion
func (h *Handler) ListScenarioRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListScenarioRuns(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]ScenarioRunSummaryDTO, len(runs))
	for i, run := range runs {
		dtos[i] = ScenarioRunSummaryDTO{
			ID:             run.ID,
			Name:           run.Name,
			StartYear:      run.StartYear,
			StartMonth:     int(run.StartMonth),
			DurationMonths: run.DurationMonths,
			TotalCost:      run.TotalCost.String(),
			FinalHeadcount: run.FinalHeadcount,
			CreatedAt:      run.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
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
