/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The history and scenario packages wrap these errors with additional
  context.

ERROR CATEGORIES:
  1. Resolution errors - A required parameter has no value for a date
  2. Reference errors  - A role code does not resolve
  3. Input errors      - Malformed scenario actions or history records

USAGE:
  Callers can test categories with errors.Is():

    if errors.Is(err, payroll.ErrParameterNotFound) {
        // abort the month, report which parameter and date
    }

SEE ALSO:
  - config.go: Raises ParameterNotFoundError when building snapshots
  - engine.go: Raises RoleNotFoundError in strict mode
*/
package payroll

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrParameterNotFound is returned when a date has no active value for a
	// required configuration parameter. Fatal to the operation requesting
	// the snapshot.
	ErrParameterNotFound = errors.New("parameter not found")

	// ErrRoleNotFound is returned when an employee or action references an
	// unknown role code.
	ErrRoleNotFound = errors.New("role not found")

	// ErrInvalidAction is returned when a headcount action fails its
	// construction-time validation.
	ErrInvalidAction = errors.New("invalid headcount action")

	// ErrMalformedRecord is returned for a historical record missing
	// required fields or carrying unparsable values. Ingestion skips the
	// record and continues.
	ErrMalformedRecord = errors.New("malformed historical record")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ParameterNotFoundError names the parameter and date that failed to resolve.
type ParameterNotFoundError struct {
	Name string
	Date time.Time
}

func (e *ParameterNotFoundError) Error() string {
	return fmt.Sprintf("no active value for parameter %q on %s", e.Name, e.Date.Format("2006-01-02"))
}

func (e *ParameterNotFoundError) Unwrap() error { return ErrParameterNotFound }

// RoleNotFoundError names the role code that did not resolve, and the
// employee that referenced it when known.
type RoleNotFoundError struct {
	Code  RoleCode
	Chapa Chapa
}

func (e *RoleNotFoundError) Error() string {
	if e.Chapa != "" {
		return fmt.Sprintf("role %q not found for employee %s", e.Code, e.Chapa)
	}
	return fmt.Sprintf("role %q not found", e.Code)
}

func (e *RoleNotFoundError) Unwrap() error { return ErrRoleNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing parameter or role.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrParameterNotFound) || errors.Is(err, ErrRoleNotFound)
}

// IsClientError returns true if the error is due to invalid caller input
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAction) || errors.Is(err, ErrMalformedRecord)
}
