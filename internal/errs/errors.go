package errs

import (
	"errors"
	"fmt"
)

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound = errors.New("not_found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
	// ErrTooFewLines indicates an entry with fewer than two journal lines.
	ErrTooFewLines = errors.New("too_few_lines")
	// ErrInvalidAmount indicates a negative or malformed line amount.
	ErrInvalidAmount = errors.New("invalid_amount")
	// ErrMixedCurrency indicates journal lines in more than one currency.
	ErrMixedCurrency = errors.New("mixed_currency")
	// ErrClosedYear indicates an attempt to post into a closed fiscal year.
	ErrClosedYear = errors.New("fiscal_year_closed")
	// ErrSystemAccount indicates a system account cannot be modified/deactivated.
	ErrSystemAccount = errors.New("system_account")
)

// UnbalancedError reports a debit/credit mismatch on an entry about to be
// posted. Amounts are in minor units (öre).
type UnbalancedError struct {
	DebitMinor  int64
	CreditMinor int64
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("unbalanced entry: debits %d, credits %d, difference %d", e.DebitMinor, e.CreditMinor, e.Diff())
}

// Diff returns debits minus credits in minor units.
func (e *UnbalancedError) Diff() int64 { return e.DebitMinor - e.CreditMinor }

// StateError reports an operation applied to an entry in the wrong lifecycle
// state (editing a posted entry, voiding a draft, re-voiding).
type StateError struct {
	Status string
	Action string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s entry in status %q", e.Action, e.Status)
}

// ClassificationError reports an account number that falls outside every
// statutory range. Reports must abort on it rather than drop the account.
type ClassificationError struct {
	Number string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("account number %q is outside the classifiable range", e.Number)
}

// AllocatorError wraps a failure of the verification-number allocator. It is
// fatal to entry creation; an entry is never persisted without a number.
type AllocatorError struct {
	Err error
}

func (e *AllocatorError) Error() string {
	return "verification number allocation failed: " + e.Err.Error()
}

func (e *AllocatorError) Unwrap() error { return e.Err }
