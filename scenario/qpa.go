/*
qpa.go - Authorized headcount plan (QPA) summaries

PURPOSE:
  A QPA summary is the grouped headcount of a roster: how many people
  each company/team/role combination carries. It is computed on demand
  from any employee list - the live roster, or any month of a scenario
  result - and can be exported as CSV for the planning spreadsheets
  downstream.
*/
package scenario

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/warp/budget-engine/payroll"
)

// QPARow is one line of a grouped headcount summary.
type QPARow struct {
	Company   string `json:"company"`
	Team      string `json:"team"`
	Role      string `json:"role"`
	Headcount int    `json:"headcount"`
}

// QPASummary groups employees by company, team and role name, returning
// rows in a stable sorted order.
func QPASummary(employees []payroll.Employee) []QPARow {
	type key struct{ company, team, role string }

	counts := make(map[key]int)
	for _, emp := range employees {
		counts[key{emp.Company, emp.Team, emp.RoleName}]++
	}

	rows := make([]QPARow, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, QPARow{Company: k.company, Team: k.team, Role: k.role, Headcount: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Company != rows[j].Company {
			return rows[i].Company < rows[j].Company
		}
		if rows[i].Team != rows[j].Team {
			return rows[i].Team < rows[j].Team
		}
		return rows[i].Role < rows[j].Role
	})
	return rows
}

// WriteQPACSV writes a QPA summary as CSV with a header row.
func WriteQPACSV(w io.Writer, rows []QPARow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"company", "team", "role", "headcount"}); err != nil {
		return fmt.Errorf("writing qpa header: %w", err)
	}
	for _, row := range rows {
		record := []string{row.Company, row.Team, row.Role, fmt.Sprintf("%d", row.Headcount)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing qpa row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
