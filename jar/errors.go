/*
errors.go - Centralized error types for the jar engine

PURPOSE:
  All domain error types in one place. The API layer maps these to
  HTTP status codes; other packages wrap them with context.

ERROR CATEGORIES:
  1. Validation errors - rejected at the boundary, no mutation happened
  2. Not-found errors - unknown player / record id
  3. Store errors - persistence failures (wrapped, not defined here)

NOTE ON BLOCKED ACTIONS:
  A weekend or on-vacation infraction attempt is NOT an error. It is a
  normal business outcome carried in InfractionResult (accounting.go).
  Only genuinely invalid input lands here.
*/
package jar

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownPlayer is returned when a name is not on the roster.
	ErrUnknownPlayer = errors.New("unknown player")

	// ErrInvalidDateRange is returned when an interval is malformed
	// (missing endpoint, unparsable date, or end before start).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrVacationNotFound is returned when a vacation/holiday id does
	// not exist or is already deleted.
	ErrVacationNotFound = errors.New("vacation not found")

	// ErrUnknownItem is returned for a shop item id not in the catalogue.
	ErrUnknownItem = errors.New("unknown shop item")

	// ErrInsufficientBalance is returned when a reward costs more than
	// the player's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBalanceNotNegativeEnough is returned when a penalty requires a
	// deeper negative balance than the player has.
	ErrBalanceNotNegativeEnough = errors.New("balance not negative enough for penalty")

	// ErrDocumentNotFound is returned by a DocumentStore when the key was
	// never written.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrMalformedDocument is returned when an imported document is not
	// valid JSON or lacks the required shape.
	ErrMalformedDocument = errors.New("malformed document")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DateRangeError describes why an interval was rejected.
type DateRangeError struct {
	Start  string
	End    string
	Detail string
}

func (e *DateRangeError) Error() string {
	return fmt.Sprintf("invalid date range [%s, %s]: %s", e.Start, e.End, e.Detail)
}

func (e *DateRangeError) Unwrap() error { return ErrInvalidDateRange }

// PurchaseError describes a rejected shop transaction.
type PurchaseError struct {
	Player  string
	ItemID  string
	Balance int
	Cost    int
	Reason  error
}

func (e *PurchaseError) Error() string {
	return fmt.Sprintf("purchase %s for %s rejected (balance %d, cost %d): %v",
		e.ItemID, e.Player, e.Balance, e.Cost, e.Reason)
}

func (e *PurchaseError) Unwrap() error { return e.Reason }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is caused by invalid input
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrUnknownItem) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrBalanceNotNegativeEnough) ||
		errors.Is(err, ErrMalformedDocument)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownPlayer) || errors.Is(err, ErrVacationNotFound)
}
