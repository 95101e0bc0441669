/*
Package sqlite provides SQLite-backed persistence for the budget engine.

PURPOSE:
  Persists the reference data (roles, employees), the append-only
  parameter history, and scenario run summaries. In production, the
  same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

APPEND-ONLY ENFORCEMENT:
  The parameter_history table follows the same contract as the
  in-memory history store:
  - No UPDATE statements on parameter_history
  - No DELETE statements on parameter_history
  - A correction is a new version whose window shadows the old one

KEY TABLES:
  roles:              Job positions with standard salaries
  employees:          Worker records with grouping attributes
  parameter_history:  Immutable versioned configuration parameters
  scenario_runs:      Persisted scenario run summaries

INDEXES:
  - idx_parameter_history_name_start: Point-in-time resolution (hot path)
  - idx_employees_group: Group matching for scenario actions

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/budget.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  hist := history.NewStore()
  records, _ := store.LoadParameterHistory(ctx)
  for _, rec := range records {
      hist.Append(rec)
  }

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - history package: In-memory point-in-time resolution over the
    records loaded from here
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/budget-engine/history"
	"github.com/warp/budget-engine/payroll"
	"github.com/warp/budget-engine/scenario"
)

const dateLayout = "2006-01-02"

// Store persists roles, employees, parameter history and scenario runs.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Roles (reference data)
	CREATE TABLE IF NOT EXISTS roles (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		base_salary TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		chapa TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		role_code TEXT NOT NULL,
		admission_date TEXT NOT NULL,
		service_start_date TEXT NOT NULL,
		birth_date TEXT,
		section TEXT,
		regime INTEGER NOT NULL DEFAULT 220,
		tax_id TEXT,
		cost_center TEXT,
		company TEXT NOT NULL DEFAULT '',
		team TEXT NOT NULL DEFAULT '',
		role_name TEXT NOT NULL DEFAULT '',
		benefit_transport TEXT NOT NULL DEFAULT '0',
		benefit_meal TEXT NOT NULL DEFAULT '0',
		benefit_health_plan TEXT NOT NULL DEFAULT '0',
		benefit_other TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Group matching for scenario actions and QPA summaries
	CREATE INDEX IF NOT EXISTS idx_employees_group
		ON employees(company, team, role_code);

	-- Parameter history (append-only)
	CREATE TABLE IF NOT EXISTS parameter_history (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		value TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		created_at TEXT NOT NULL
	);

	-- Point-in-time resolution (hot path)
	CREATE INDEX IF NOT EXISTS idx_parameter_history_name_start
		ON parameter_history(name, start_date DESC, id DESC);

	-- Scenario run summaries
	CREATE TABLE IF NOT EXISTS scenario_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		start_year INTEGER NOT NULL,
		start_month INTEGER NOT NULL,
		duration_months INTEGER NOT NULL,
		total_cost TEXT NOT NULL,
		final_headcount INTEGER NOT NULL,
		snapshots_json TEXT NOT NULL,
		warnings_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scenario_runs_name
		ON scenario_runs(name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ROLES
// =============================================================================

// SaveRole inserts or updates a role.
func (s *Store) SaveRole(ctx context.Context, role payroll.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO roles (code, name, base_salary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			base_salary = excluded.base_salary,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		string(role.Code), role.Name, role.BaseSalary.String(), now, now)
	if err != nil {
		return fmt.Errorf("failed to save role %s: %w", role.Code, err)
	}
	return nil
}

// LoadRoles returns all roles ordered by code.
func (s *Store) LoadRoles(ctx context.Context) ([]payroll.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT code, name, base_salary FROM roles ORDER BY code ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	var roles []payroll.Role
	for rows.Next() {
		var (
			role   payroll.Role
			code   string
			salary string
		)
		if err := rows.Scan(&code, &role.Name, &salary); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		role.Code = payroll.RoleCode(code)
		if role.BaseSalary, err = decimal.NewFromString(salary); err != nil {
			return nil, fmt.Errorf("role %s: bad salary %q: %w", code, salary, err)
		}
		roles = append(roles, role)
	}

	return roles, rows.Err()
}

// LoadRoleDirectory loads all roles into a keyed directory.
func (s *Store) LoadRoleDirectory(ctx context.Context) (payroll.RoleDirectory, error) {
	roles, err := s.LoadRoles(ctx)
	if err != nil {
		return nil, err
	}
	return payroll.NewRoleDirectory(roles), nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee inserts or updates an employee record.
func (s *Store) SaveEmployee(ctx context.Context, emp payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees
		(chapa, name, status, role_code, admission_date, service_start_date,
		 birth_date, section, regime, tax_id, cost_center, company, team, role_name,
		 benefit_transport, benefit_meal, benefit_health_plan, benefit_other,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chapa) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			role_code = excluded.role_code,
			admission_date = excluded.admission_date,
			service_start_date = excluded.service_start_date,
			birth_date = excluded.birth_date,
			section = excluded.section,
			regime = excluded.regime,
			tax_id = excluded.tax_id,
			cost_center = excluded.cost_center,
			company = excluded.company,
			team = excluded.team,
			role_name = excluded.role_name,
			benefit_transport = excluded.benefit_transport,
			benefit_meal = excluded.benefit_meal,
			benefit_health_plan = excluded.benefit_health_plan,
			benefit_other = excluded.benefit_other,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		string(emp.Chapa), emp.Name, string(emp.Status), string(emp.RoleCode),
		emp.AdmissionDate.Format(dateLayout), emp.ServiceStartDate.Format(dateLayout),
		nullDate(emp.BirthDate), emp.Section, int(emp.Regime),
		emp.TaxID, emp.CostCenter, emp.Company, emp.Team, emp.RoleName,
		emp.Benefits.Transport.String(), emp.Benefits.Meal.String(),
		emp.Benefits.HealthPlan.String(), emp.Benefits.Other.String(),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee %s: %w", emp.Chapa, err)
	}
	return nil
}

// SaveEmployees saves a batch atomically.
func (s *Store) SaveEmployees(ctx context.Context, employees []payroll.Employee) error {
	for _, emp := range employees {
		if err := s.SaveEmployee(ctx, emp); err != nil {
			return err
		}
	}
	return nil
}

// LoadEmployees returns all employees ordered by chapa.
func (s *Store) LoadEmployees(ctx context.Context) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT chapa, name, status, role_code, admission_date, service_start_date,
		       birth_date, section, regime, tax_id, cost_center, company, team, role_name,
		       benefit_transport, benefit_meal, benefit_health_plan, benefit_other
		FROM employees
		ORDER BY chapa ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []payroll.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}

	return employees, rows.Err()
}

func scanEmployee(rows *sql.Rows) (payroll.Employee, error) {
	var (
		emp              payroll.Employee
		chapa, status    string
		roleCode         string
		admission, start string
		birth            sql.NullString
		section          sql.NullString
		regime           int
		taxID            sql.NullString
		costCenter       sql.NullString
		transport, meal  string
		health, other    string
	)

	err := rows.Scan(
		&chapa, &emp.Name, &status, &roleCode, &admission, &start,
		&birth, &section, &regime, &taxID, &costCenter,
		&emp.Company, &emp.Team, &emp.RoleName,
		&transport, &meal, &health, &other,
	)
	if err != nil {
		return emp, fmt.Errorf("failed to scan employee: %w", err)
	}

	emp.Chapa = payroll.Chapa(chapa)
	emp.Status = payroll.Status(status)
	emp.RoleCode = payroll.RoleCode(roleCode)
	emp.Section = section.String
	emp.Regime = payroll.WorkRegime(regime)
	emp.TaxID = taxID.String
	emp.CostCenter = costCenter.String

	if emp.AdmissionDate, err = time.Parse(dateLayout, admission); err != nil {
		return emp, fmt.Errorf("employee %s: bad admission date %q: %w", chapa, admission, err)
	}
	if emp.ServiceStartDate, err = time.Parse(dateLayout, start); err != nil {
		return emp, fmt.Errorf("employee %s: bad service start date %q: %w", chapa, start, err)
	}
	if birth.Valid {
		if emp.BirthDate, err = time.Parse(dateLayout, birth.String); err != nil {
			return emp, fmt.Errorf("employee %s: bad birth date %q: %w", chapa, birth.String, err)
		}
	}

	if emp.Benefits, err = scanBenefits(chapa, transport, meal, health, other); err != nil {
		return emp, err
	}

	return emp, nil
}

func scanBenefits(chapa, transport, meal, health, other string) (payroll.Benefits, error) {
	var (
		b   payroll.Benefits
		err error
	)
	if b.Transport, err = decimal.NewFromString(transport); err != nil {
		return b, fmt.Errorf("employee %s: bad transport benefit %q: %w", chapa, transport, err)
	}
	if b.Meal, err = decimal.NewFromString(meal); err != nil {
		return b, fmt.Errorf("employee %s: bad meal benefit %q: %w", chapa, meal, err)
	}
	if b.HealthPlan, err = decimal.NewFromString(health); err != nil {
		return b, fmt.Errorf("employee %s: bad health plan benefit %q: %w", chapa, health, err)
	}
	if b.Other, err = decimal.NewFromString(other); err != nil {
		return b, fmt.Errorf("employee %s: bad other benefit %q: %w", chapa, other, err)
	}
	return b, nil
}

// =============================================================================
// PARAMETER HISTORY (append-only)
// =============================================================================

// AppendParameter appends one versioned parameter record. Reusing an id is
// a unique-constraint violation surfaced as ErrMalformedRecord; the history
// is never updated in place.
func (s *Store) AppendParameter(ctx context.Context, rec history.ParameterRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var end any
	if rec.End != nil {
		end = rec.End.Format(dateLayout)
	}

	query := `
		INSERT INTO parameter_history (id, name, value, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Name, rec.Value.String(), rec.Start.Format(dateLayout), end,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: parameter record id %d already exists", payroll.ErrMalformedRecord, rec.ID)
		}
		return fmt.Errorf("failed to append parameter record: %w", err)
	}
	return nil
}

// LoadParameterHistory returns every parameter record, ordered by
// (name, start_date, id). Feed these into a history.Store for resolution.
func (s *Store) LoadParameterHistory(ctx context.Context) ([]history.ParameterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, name, value, start_date, end_date
		FROM parameter_history
		ORDER BY name ASC, start_date ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query parameter history: %w", err)
	}
	defer rows.Close()

	var records []history.ParameterRecord
	for rows.Next() {
		var (
			rec   history.ParameterRecord
			value string
			start string
			end   sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &value, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan parameter record: %w", err)
		}
		if rec.Value, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("parameter record %d: bad value %q: %w", rec.ID, value, err)
		}
		if rec.Start, err = time.Parse(dateLayout, start); err != nil {
			return nil, fmt.Errorf("parameter record %d: bad start date %q: %w", rec.ID, start, err)
		}
		if end.Valid {
			t, err := time.Parse(dateLayout, end.String)
			if err != nil {
				return nil, fmt.Errorf("parameter record %d: bad end date %q: %w", rec.ID, end.String, err)
			}
			rec.End = &t
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// LoadHistory hydrates an in-memory history store from the database.
func (s *Store) LoadHistory(ctx context.Context) (*history.Store, error) {
	records, err := s.LoadParameterHistory(ctx)
	if err != nil {
		return nil, err
	}
	hist := history.NewStore()
	for _, rec := range records {
		hist.Append(rec)
	}
	return hist, nil
}

// =============================================================================
// SCENARIO RUNS
// =============================================================================

// ScenarioRun is a persisted scenario run summary.
type ScenarioRun struct {
	ID             int64
	Name           string
	StartYear      int
	StartMonth     time.Month
	DurationMonths int
	TotalCost      decimal.Decimal
	FinalHeadcount int
	Snapshots      []scenario.MonthlySnapshot
	Warnings       []payroll.Warning
	CreatedAt      time.Time
}

// SaveScenarioRun persists a completed run's summary and returns its id.
func (s *Store) SaveScenarioRun(ctx context.Context, def scenario.Definition, result scenario.Result) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshotsJSON, err := json.Marshal(result.Snapshots)
	if err != nil {
		return 0, fmt.Errorf("failed to encode snapshots: %w", err)
	}
	warningsJSON, err := json.Marshal(result.Warnings)
	if err != nil {
		return 0, fmt.Errorf("failed to encode warnings: %w", err)
	}

	query := `
		INSERT INTO scenario_runs
		(name, start_year, start_month, duration_months, total_cost,
		 final_headcount, snapshots_json, warnings_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		def.Name, def.StartYear, int(def.StartMonth), def.DurationMonths,
		result.TotalCost.String(), len(result.FinalRoster),
		string(snapshotsJSON), string(warningsJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save scenario run: %w", err)
	}
	return res.LastInsertId()
}

// ListScenarioRuns returns run summaries, newest first. The snapshot detail
// is included; pass a name to filter, empty for all.
func (s *Store) ListScenarioRuns(ctx context.Context, name string) ([]ScenarioRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, name, start_year, start_month, duration_months, total_cost,
		       final_headcount, snapshots_json, warnings_json, created_at
		FROM scenario_runs
	`
	var args []any
	if name != "" {
		query += " WHERE name = ?"
		args = append(args, name)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenario runs: %w", err)
	}
	defer rows.Close()

	var runs []ScenarioRun
	for rows.Next() {
		var (
			run          ScenarioRun
			month        int
			totalCost    string
			snapshots    string
			warningsJSON sql.NullString
			createdAt    string
		)
		if err := rows.Scan(&run.ID, &run.Name, &run.StartYear, &month,
			&run.DurationMonths, &totalCost, &run.FinalHeadcount,
			&snapshots, &warningsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan scenario run: %w", err)
		}

		run.StartMonth = time.Month(month)
		if run.TotalCost, err = decimal.NewFromString(totalCost); err != nil {
			return nil, fmt.Errorf("scenario run %d: bad total cost %q: %w", run.ID, totalCost, err)
		}
		if err := json.Unmarshal([]byte(snapshots), &run.Snapshots); err != nil {
			return nil, fmt.Errorf("scenario run %d: bad snapshots: %w", run.ID, err)
		}
		if warningsJSON.Valid && warningsJSON.String != "" {
			json.Unmarshal([]byte(warningsJSON.String), &run.Warnings)
		}
		run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Helper functions

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(dateLayout)
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
