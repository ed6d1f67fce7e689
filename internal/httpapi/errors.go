package httpapi

import (
	"errors"
	"net/http"

	"github.com/mlindgren/huvudbok/internal/errs"
	"github.com/mlindgren/huvudbok/internal/service/account"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	// DebitMinor/CreditMinor/DiffMinor are filled on unbalanced_entry so the
	// caller can see both sums without re-deriving them.
	DebitMinor  *int64 `json:"debit_minor,omitempty"`
	CreditMinor *int64 `json:"credit_minor,omitempty"`
	DiffMinor   *int64 `json:"diff_minor,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }
func notFound(w http.ResponseWriter)               { writeErr(w, http.StatusNotFound, "not_found", "not_found") }
func conflict(w http.ResponseWriter, msg, code string) {
	writeErr(w, http.StatusConflict, msg, code)
}
func unprocessable(w http.ResponseWriter, msg, code string) {
	writeErr(w, http.StatusUnprocessableEntity, msg, code)
}

// writeDomainError maps service-layer errors onto HTTP statuses and codes.
// Validation failures are 422, lifecycle violations 409, unknown errors 500.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var unbalanced *errs.UnbalancedError
	var state *errs.StateError
	var classification *errs.ClassificationError
	var allocator *errs.AllocatorError
	switch {
	case errors.Is(err, errs.ErrNotFound):
		notFound(w)
	case errors.As(err, &unbalanced):
		debit, credit, diff := unbalanced.DebitMinor, unbalanced.CreditMinor, unbalanced.Diff()
		toJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:       err.Error(),
			Code:        "unbalanced_entry",
			DebitMinor:  &debit,
			CreditMinor: &credit,
			DiffMinor:   &diff,
		})
	case errors.As(err, &state):
		conflict(w, err.Error(), "invalid_state")
	case errors.As(err, &classification):
		// A report hitting an unclassifiable account aborts rather than
		// rendering an incomplete statement.
		writeErr(w, http.StatusInternalServerError, err.Error(), "unclassifiable_account")
	case errors.As(err, &allocator):
		s.log.Error("verification number allocation failed", "err", err)
		writeErr(w, http.StatusInternalServerError, "could not allocate verification number", "allocator_failure")
	case errors.Is(err, errs.ErrTooFewLines):
		unprocessable(w, err.Error(), "too_few_lines")
	case errors.Is(err, errs.ErrInvalidAmount):
		unprocessable(w, err.Error(), "invalid_amount")
	case errors.Is(err, errs.ErrMixedCurrency):
		unprocessable(w, err.Error(), "mixed_currency")
	case errors.Is(err, errs.ErrClosedYear):
		conflict(w, err.Error(), "fiscal_year_closed")
	case errors.Is(err, errs.ErrSystemAccount):
		conflict(w, err.Error(), "system_account")
	case errors.Is(err, account.ErrNumberExists):
		conflict(w, err.Error(), "number_exists")
	case errors.Is(err, errs.ErrConflict):
		conflict(w, err.Error(), "")
	case errors.Is(err, errs.ErrInvalid):
		badRequest(w, err.Error())
	default:
		s.log.Error("internal error", "err", err)
		writeErr(w, http.StatusInternalServerError, "internal error", "")
	}
}
