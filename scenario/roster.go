/*
roster.go - The working roster mutated during simulation

PURPOSE:
  The roster is an explicit keyed collection, chapa -> Employee, owned
  by the simulator. All mutation is deterministic: new chapas are
  synthesized from the current maximum numeric identifier, and removals
  always consume the highest chapas in the target group first, so two
  runs of the same scenario over the same inputs produce identical
  rosters.

SEE ALSO:
  - simulator.go: Applies Add/Remove actions through this type
*/
package scenario

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/warp/budget-engine/payroll"
)

// Roster is the working set of employees during a simulation, keyed by
// chapa. Construct with NewRoster; the zero value is not usable.
type Roster struct {
	members map[payroll.Chapa]payroll.Employee
}

// NewRoster copies the supplied employees into a fresh roster. The caller's
// slice is never touched by later mutations.
func NewRoster(employees []payroll.Employee) *Roster {
	members := make(map[payroll.Chapa]payroll.Employee, len(employees))
	for _, emp := range employees {
		members[emp.Chapa] = emp
	}
	return &Roster{members: members}
}

// Len returns the current headcount.
func (r *Roster) Len() int { return len(r.members) }

// Get returns the member with the given chapa.
func (r *Roster) Get(chapa payroll.Chapa) (payroll.Employee, bool) {
	emp, ok := r.members[chapa]
	return emp, ok
}

// Add inserts or replaces a member.
func (r *Roster) Add(emp payroll.Employee) {
	r.members[emp.Chapa] = emp
}

// Remove deletes a member, reporting whether it was present.
func (r *Roster) Remove(chapa payroll.Chapa) bool {
	if _, ok := r.members[chapa]; !ok {
		return false
	}
	delete(r.members, chapa)
	return true
}

// Members returns the roster ordered by chapa, so callers iterating the
// roster (snapshots, reports) see a stable order.
func (r *Roster) Members() []payroll.Employee {
	out := make([]payroll.Employee, 0, len(r.members))
	for _, emp := range r.members {
		out = append(out, emp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chapa < out[j].Chapa })
	return out
}

// NextChapa synthesizes the next free identifier: one past the highest
// numeric chapa currently on the roster, zero-padded to five digits like
// the payroll system's native badge numbers. Non-numeric chapas are
// ignored for the maximum.
func (r *Roster) NextChapa() payroll.Chapa {
	max := 0
	for chapa := range r.members {
		if n, err := strconv.Atoi(string(chapa)); err == nil && n > max {
			max = n
		}
	}
	return payroll.Chapa(fmt.Sprintf("%05d", max+1))
}

// MatchGroup returns the chapas of members in the group, ordered highest
// first. Removal consumes this order, so the most recently synthesized
// hires go before long-standing staff.
func (r *Roster) MatchGroup(group payroll.GroupKey) []payroll.Chapa {
	var matched []payroll.Chapa
	for chapa, emp := range r.members {
		if emp.Group() == group {
			matched = append(matched, chapa)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i] > matched[j] })
	return matched
}
