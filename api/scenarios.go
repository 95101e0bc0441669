/*
scenarios.go - Loadable demo datasets

PURPOSE:
  Provides pre-built datasets that populate the store with roles,
  employees, and parameter history, so the engine can be exercised
  without hand-entering reference data.

AVAILABLE DATASETS:
  1. single-employee: One employee with full reference data. Good for
     walking through a single cost breakdown.
  2. driver-fleet: A multi-group workforce across two companies. Good
     for QPA summaries and headcount scenarios.

PATTERN:
  Each dataset has a loader function that wipes nothing: loaders upsert
  roles and employees and append parameter history, then reload the
  handler's reference caches. Loading the same dataset twice is
  idempotent for roles and employees; duplicate parameter ids are
  rejected by the append-only store and treated as already loaded.

SEE ALSO:
  - handlers.go: Route registration and shared helpers
  - store/sqlite: Persistence for all seeded records
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/budget-engine/history"
	"github.com/warp/budget-engine/payroll"
)

// =============================================================================
// DATASET CATALOG
// =============================================================================

var demoScenarios = []DemoScenarioDTO{
	{
		ID:          "single-employee",
		Name:        "Single Employee",
		Description: "One operations employee with the full role catalog and parameter history. Walk through a single cost breakdown.",
	},
	{
		ID:          "driver-fleet",
		Name:        "Driver Fleet",
		Description: "A two-company workforce with drivers, developers, and managers. Run QPA summaries and headcount scenarios.",
	},
}

// ListScenarios returns the demo dataset catalog.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Scenarios []DemoScenarioDTO `json:"scenarios"`
		Current   string            `json:"current,omitempty"`
	}{Scenarios: demoScenarios, Current: h.currentScenario})
}

// LoadScenario loads a demo dataset into the store.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var loader func(context.Context) error
	switch req.ScenarioID {
	case "single-employee":
		loader = h.loadSingleEmployee
	case "driver-fleet":
		loader = h.loadDriverFleet
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown scenario %q", req.ScenarioID), nil)
		return
	}

	if err := loader(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	if err := h.LoadReferenceData(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload reference data", err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, struct {
		Loaded string `json:"loaded"`
	}{Loaded: req.ScenarioID})
}

// =============================================================================
// SHARED REFERENCE DATA
// =============================================================================

func demoRoles() []payroll.Role {
	return []payroll.Role{
		{Code: "1001", Name: "OPERADOR I", BaseSalary: decimal.RequireFromString("2500.00")},
		{Code: "4003", Name: "ANALISTA ADMINISTRATIVO I", BaseSalary: decimal.RequireFromString("5202.76")},
		{Code: "4206", Name: "FUNCAO DO GERALDO", BaseSalary: decimal.RequireFromString("5202.76")},
		{Code: "9009", Name: "GERENTE DE AREA", BaseSalary: decimal.RequireFromString("12500.50")},
		{Code: "0001", Name: "Desenvolvedor Backend Júnior", BaseSalary: decimal.RequireFromString("4500.00")},
		{Code: "0002", Name: "Gerente de Projeto Sênior", BaseSalary: decimal.RequireFromString("6000.00")},
		{Code: "0003", Name: "Motorista Cat. D", BaseSalary: decimal.RequireFromString("3000.00")},
		{Code: "0004", Name: "Arquiteto de Soluções", BaseSalary: decimal.RequireFromString("7000.00")},
		{Code: "0005", Name: "Analista de Dados", BaseSalary: decimal.RequireFromString("5500.00")},
	}
}

func demoParameterHistory() []history.RawRecord {
	return []history.RawRecord{
		{ID: 1, Name: payroll.ParamMinimumWage, Value: "1320.00", StartDate: "2023-01-01", EndDate: "2023-12-31"},
		{ID: 2, Name: payroll.ParamMinimumWage, Value: "1412.00", StartDate: "2024-01-01"},
		{ID: 3, Name: payroll.ParamFGTSRate, Value: "0.08", StartDate: "2000-01-01"},
		{ID: 4, Name: payroll.ParamSocialSecurityRate, Value: "0.20", StartDate: "2010-01-01", EndDate: "2023-12-31"},
		{ID: 5, Name: payroll.ParamSocialSecurityRate, Value: "0.22", StartDate: "2024-01-01"},
		{ID: 6, Name: payroll.ParamInsalubrityPercent, Value: "0.40", StartDate: "2000-01-01"},
		{ID: 7, Name: payroll.ParamVacationThirdPercent, Value: "0.333333", StartDate: "1988-10-05"},
		{ID: 8, Name: payroll.ParamMonthsPerYear, Value: "12", StartDate: "1900-01-01"},
	}
}

func (h *Handler) seedReferenceData(ctx context.Context) error {
	for _, role := range demoRoles() {
		if err := h.Store.SaveRole(ctx, role); err != nil {
			return fmt.Errorf("seeding role %s: %w", role.Code, err)
		}
	}

	staging := history.NewStore()
	if warnings := staging.Ingest(demoParameterHistory()); len(warnings) > 0 {
		return fmt.Errorf("seeding parameters: %s", warnings[0].Message)
	}
	for _, name := range staging.Names() {
		for _, rec := range staging.Versions(name) {
			err := h.Store.AppendParameter(ctx, rec)
			if err != nil && !errors.Is(err, payroll.ErrMalformedRecord) {
				return fmt.Errorf("seeding parameter %s: %w", name, err)
			}
			// Duplicate id means this record was loaded before. Fine.
		}
	}
	return nil
}

// =============================================================================
// DATASET 1: SINGLE EMPLOYEE
// =============================================================================

func (h *Handler) loadSingleEmployee(ctx context.Context) error {
	if err := h.seedReferenceData(ctx); err != nil {
		return err
	}

	geraldo := payroll.Employee{
		Chapa:            "03494",
		Name:             "Geraldo",
		Status:           payroll.StatusActive,
		RoleCode:         "4206",
		AdmissionDate:    time.Date(2002, time.April, 15, 0, 0, 0, 0, time.UTC),
		ServiceStartDate: time.Date(2002, time.April, 15, 0, 0, 0, 0, time.UTC),
		BirthDate:        time.Date(1975, time.March, 2, 0, 0, 0, 0, time.UTC),
		Section:          "01.01.4.10.01.005",
		Regime:           payroll.Regime220,
		TaxID:            "25216977880",
		CostCenter:       "104101205",
		Company:          "Matriz",
		Team:             "Operacao",
		RoleName:         "FUNCAO DO GERALDO",
		Benefits: payroll.Benefits{
			Transport:  decimal.RequireFromString("150.00"),
			Meal:       decimal.RequireFromString("400.00"),
			HealthPlan: decimal.RequireFromString("300.00"),
			Other:      decimal.Zero,
		},
	}
	return h.Store.SaveEmployee(ctx, geraldo)
}

// =============================================================================
// DATASET 2: DRIVER FLEET
// =============================================================================

func (h *Handler) loadDriverFleet(ctx context.Context) error {
	if err := h.seedReferenceData(ctx); err != nil {
		return err
	}

	benefits := func(transport, meal, health string) payroll.Benefits {
		return payroll.Benefits{
			Transport:  decimal.RequireFromString(transport),
			Meal:       decimal.RequireFromString(meal),
			HealthPlan: decimal.RequireFromString(health),
			Other:      decimal.Zero,
		}
	}
	member := func(chapa, name string, role payroll.RoleCode, roleName, company, team string, b payroll.Benefits) payroll.Employee {
		return payroll.Employee{
			Chapa:            payroll.Chapa(chapa),
			Name:             name,
			Status:           payroll.StatusActive,
			RoleCode:         role,
			AdmissionDate:    time.Date(2021, time.February, 1, 0, 0, 0, 0, time.UTC),
			ServiceStartDate: time.Date(2021, time.February, 1, 0, 0, 0, 0, time.UTC),
			Regime:           payroll.Regime220,
			Company:          company,
			Team:             team,
			RoleName:         roleName,
			Benefits:         b,
		}
	}

	workforce := []payroll.Employee{
		member("00101", "Carlos Pereira", "0003", "Motorista Cat. D", "Matriz", "Operacao", benefits("110.00", "310.00", "210.00")),
		member("00102", "Jorge Nascimento", "0003", "Motorista Cat. D", "Matriz", "Operacao", benefits("110.00", "310.00", "210.00")),
		member("00103", "Rita Camargo", "0003", "Motorista Cat. D", "Filial SP", "Operacao", benefits("110.00", "310.00", "210.00")),
		member("00201", "Ana Beatriz Lima", "0001", "Desenvolvedor Backend Júnior", "Filial SP", "Projetos", benefits("150.00", "400.00", "300.00")),
		member("00202", "Felipe Arruda", "0001", "Desenvolvedor Backend Júnior", "Filial SP", "Projetos", benefits("150.00", "400.00", "300.00")),
		member("00301", "Mariana Costa", "0002", "Gerente de Projeto Sênior", "Matriz", "Projetos", benefits("180.00", "450.00", "350.00")),
		member("00302", "Paulo Henrique Dias", "0002", "Gerente de Projeto Sênior", "Matriz", "Projetos", benefits("180.00", "450.00", "350.00")),
		member("00401", "Luciana Fontes", "0005", "Analista de Dados", "Matriz", "Projetos", benefits("150.00", "400.00", "300.00")),
	}
	return h.Store.SaveEmployees(ctx, workforce)
}
