/*
Package history maintains versioned configuration parameters and answers
point-in-time queries.

PURPOSE:
  Minimum wage, employer tax rates, and premium percentages change over
  time. Each change is a new versioned record with a validity window; the
  store never edits a record in place, it only appends new versions. A
  query for date D returns the value that was in force on D.

OVERLAP RESOLUTION:
  Windows within one parameter name may overlap. Resolution is always
  deterministic: among the records whose [start, end] window contains the
  query date (a missing end date means open-ended), the one with the
  LATEST start date wins. When several share that start date, the highest
  numeric id wins. Insertion order never matters.

APPEND-ONLY CONTRACT:
  The store has Ingest and Append but no update or delete. A correction
  is a new version whose window shadows the old one.

USAGE:
  store := history.NewStore()
  warnings := store.Ingest(rawRecords)
  wage, err := store.ValueOnDate(payroll.ParamMinimumWage, date)
  snapshot := store.SnapshotOnDate(date)

SEE ALSO:
  - payroll/config.go: Builds a ResolvedConfig from SnapshotOnDate and
    enforces which names are mandatory
*/
package history

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/budget-engine/payroll"
)

// =============================================================================
// RECORDS
// =============================================================================

// ParameterRecord is one versioned fact: parameter name, value, and the
// validity window during which it was in force. Immutable once created.
type ParameterRecord struct {
	ID    int64
	Name  string
	Value decimal.Decimal

	// Start is the inclusive first day of validity.
	Start time.Time

	// End is the inclusive last day of validity; nil means open-ended.
	End *time.Time
}

// ActiveOn reports whether the record's window contains the given date.
func (r ParameterRecord) ActiveOn(date time.Time) bool {
	if r.Start.After(date) {
		return false
	}
	if r.End != nil && r.End.Before(date) {
		return false
	}
	return true
}

// RawRecord is an unvalidated historical record as it arrives from the
// external loading layer (dates and value still in string form).
type RawRecord struct {
	ID        int64  `json:"id"`
	Name      string `json:"parameter_name"`
	Value     string `json:"value"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
}

const dateLayout = "2006-01-02"

// parse validates a raw record. Malformed records produce an error wrapping
// payroll.ErrMalformedRecord.
func (raw RawRecord) parse() (ParameterRecord, error) {
	if raw.Name == "" {
		return ParameterRecord{}, fmt.Errorf("%w: record %d has no parameter name", payroll.ErrMalformedRecord, raw.ID)
	}
	value, err := decimal.NewFromString(raw.Value)
	if err != nil {
		return ParameterRecord{}, fmt.Errorf("%w: record %d (%s): bad value %q", payroll.ErrMalformedRecord, raw.ID, raw.Name, raw.Value)
	}
	start, err := time.Parse(dateLayout, raw.StartDate)
	if err != nil {
		return ParameterRecord{}, fmt.Errorf("%w: record %d (%s): bad start date %q", payroll.ErrMalformedRecord, raw.ID, raw.Name, raw.StartDate)
	}
	rec := ParameterRecord{ID: raw.ID, Name: raw.Name, Value: value, Start: start}
	if raw.EndDate != "" {
		end, err := time.Parse(dateLayout, raw.EndDate)
		if err != nil {
			return ParameterRecord{}, fmt.Errorf("%w: record %d (%s): bad end date %q", payroll.ErrMalformedRecord, raw.ID, raw.Name, raw.EndDate)
		}
		if end.Before(start) {
			return ParameterRecord{}, fmt.Errorf("%w: record %d (%s): end %s before start %s", payroll.ErrMalformedRecord, raw.ID, raw.Name, raw.EndDate, raw.StartDate)
		}
		rec.End = &end
	}
	return rec, nil
}

// =============================================================================
// STORE
// =============================================================================

// Store holds all versions of all named parameters. Safe for concurrent
// readers; writes are append-only.
type Store struct {
	mu      sync.RWMutex
	records map[string][]ParameterRecord // keyed by parameter name
}

// NewStore returns an empty parameter history store.
func NewStore() *Store {
	return &Store{records: make(map[string][]ParameterRecord)}
}

// Ingest validates and appends a batch of raw records. Malformed records
// are skipped and reported as warnings; a bad row never fails the batch.
func (s *Store) Ingest(raws []RawRecord) []payroll.Warning {
	s.mu.Lock()
	defer s.mu.Unlock()

	var warnings []payroll.Warning
	for _, raw := range raws {
		rec, err := raw.parse()
		if err != nil {
			warnings = append(warnings, payroll.Warning{Message: err.Error()})
			continue
		}
		s.appendLocked(rec)
	}
	return warnings
}

// Append adds one already-validated record.
func (s *Store) Append(rec ParameterRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(rec)
}

func (s *Store) appendLocked(rec ParameterRecord) {
	recs := s.records[rec.Name]

	// Keep each name's versions ordered by (start, id) so resolution scans
	// stay deterministic regardless of ingestion order.
	i := sort.Search(len(recs), func(i int) bool {
		if !recs[i].Start.Equal(rec.Start) {
			return recs[i].Start.After(rec.Start)
		}
		return recs[i].ID > rec.ID
	})
	recs = append(recs, ParameterRecord{})
	copy(recs[i+1:], recs[i:])
	recs[i] = rec
	s.records[rec.Name] = recs
}

// ValueOnDate returns the value of the named parameter in force on the
// given date. Overlaps resolve latest-start-wins, then highest-id-wins.
func (s *Store) ValueOnDate(name string, date time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best, ok := s.resolveLocked(name, date)
	if !ok {
		return decimal.Zero, &payroll.ParameterNotFoundError{Name: name, Date: date}
	}
	return best.Value, nil
}

// RecordOnDate returns the full winning record, for callers that need the
// version's window or id (the API exposes this for auditability).
func (s *Store) RecordOnDate(name string, date time.Time) (ParameterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best, ok := s.resolveLocked(name, date)
	if !ok {
		return ParameterRecord{}, &payroll.ParameterNotFoundError{Name: name, Date: date}
	}
	return best, nil
}

func (s *Store) resolveLocked(name string, date time.Time) (ParameterRecord, bool) {
	recs := s.records[name]

	// Records are ordered ascending by (start, id); the last active one is
	// the latest-start, highest-id winner.
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].ActiveOn(date) {
			return recs[i], true
		}
	}
	return ParameterRecord{}, false
}

// SnapshotOnDate resolves every parameter name that has at least one active
// record on the date. Names with no active record are simply absent; the
// caller decides which names are mandatory.
func (s *Store) SnapshotOnDate(date time.Time) map[string]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]decimal.Decimal, len(s.records))
	for name := range s.records {
		if best, ok := s.resolveLocked(name, date); ok {
			snapshot[name] = best.Value
		}
	}
	return snapshot
}

// ConfigOnDate resolves a snapshot and builds the engine configuration for
// the date, failing when a mandatory parameter is absent.
func (s *Store) ConfigOnDate(date time.Time) (payroll.ResolvedConfig, error) {
	return payroll.BuildConfig(date, s.SnapshotOnDate(date))
}

// Names returns all distinct parameter names, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Versions returns all versions of one parameter ordered by start date.
func (s *Store) Versions(name string) []ParameterRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ParameterRecord, len(s.records[name]))
	copy(out, s.records[name])
	return out
}
