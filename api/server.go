/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/roles/*          Role reference data
  /api/employees/*      Employees and cost breakdowns
  /api/parameters/*     Versioned parameter history
  /api/payroll/*        Totals and QPA summaries
  /api/scenarios/*      Simulation runs and demo datasets

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Role reference data
		r.Route("/roles", func(r chi.Router) {
			r.Get("/", h.ListRoles)
			r.Post("/", h.CreateRole)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{chapa}", h.GetEmployee)
			r.Post("/{chapa}/breakdown", h.GetEmployeeBreakdown)
		})

		// Parameter history routes
		r.Route("/parameters", func(r chi.Router) {
			r.Get("/", h.ListParameters)
			r.Post("/", h.AppendParameter)
			r.Get("/{name}", h.GetParameterValue)
			r.Get("/{name}/versions", h.ListParameterVersions)
		})

		// Payroll routes
		r.Route("/payroll", func(r chi.Router) {
			r.Get("/total", h.GetTotalPayroll)
			r.Get("/qpa", h.GetQPA)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/run", h.RunScenario)
			r.Get("/runs", h.ListScenarioRuns)
			r.Post("/load", h.LoadScenario)
		})
	})

	// Minimal landing page for manual exploration.
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Budget Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Budget Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/roles">/api/roles</a> - List roles</li>
<li><a href="/api/employees">/api/employees</a> - List employees</li>
<li><a href="/api/parameters">/api/parameters</a> - List parameter names</li>
<li><a href="/api/payroll/qpa">/api/payroll/qpa</a> - Headcount summary</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo datasets</li>
</ul>
</body>
</html>`))
	})

	return r
}
