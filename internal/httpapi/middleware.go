package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/mlindgren/huvudbok/internal/ledger"
	"github.com/mlindgren/huvudbok/internal/meta"
)

type ctxKey string

const ctxKeyPostEntry ctxKey = "validatedPostEntry"
const ctxKeyListEntries ctxKey = "validatedListEntries"
const ctxKeyUpdateEntry ctxKey = "validatedUpdateEntry"
const ctxKeyPostAccount ctxKey = "validatedPostAccount"

// validatePostEntry decodes the POST /entries body, checks the structural
// invariants through the service, and stores the domain entry in the request
// context for the handler to use. Drafts skip line validation; entries
// created directly as posted are checked here so a bad request never reaches
// the allocator.
func (s *Server) validatePostEntry() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req postEntryRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if req.OrgID == uuid.Nil || req.FiscalYearID == uuid.Nil {
				badRequest(w, "org_id and fiscal_year_id are required")
				return
			}
			if req.Currency == "" {
				badRequest(w, "currency is required")
				return
			}
			switch req.Status {
			case "", string(ledger.StatusDraft), string(ledger.StatusPosted):
			default:
				badRequest(w, "status must be draft or posted")
				return
			}
			if req.Metadata != nil {
				if err := meta.New(req.Metadata).Validate(); err != nil {
					unprocessable(w, err.Error(), "invalid_metadata")
					return
				}
			}
			e := toEntryDomain(req)
			if e.Status == ledger.StatusPosted {
				if err := s.journalSvc.ValidateLines(e.Lines); err != nil {
					s.writeDomainError(w, err)
					return
				}
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostEntry, e)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateListEntries parses and validates query params for GET /entries.
func (s *Server) validateListEntries() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			orgID, err := requiredUUID(q.Get("org_id"))
			if err != nil {
				badRequest(w, "valid org_id is required")
				return
			}
			query := listEntriesQuery{OrgID: orgID}
			if raw := q.Get("fiscal_year_id"); raw != "" {
				fyID, err := uuid.Parse(raw)
				if err != nil {
					badRequest(w, "invalid fiscal_year_id")
					return
				}
				query.FiscalYearID = fyID
			}
			ctx := context.WithValue(r.Context(), ctxKeyListEntries, query)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateUpdateEntry decodes the PUT /entries/{id} body. State checks stay
// in the service; only the shape is validated here.
func (s *Server) validateUpdateEntry() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req updateEntryRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if req.OrgID == uuid.Nil {
				badRequest(w, "org_id is required")
				return
			}
			if len(req.Lines) > 0 && req.Currency == "" {
				badRequest(w, "currency is required when replacing lines")
				return
			}
			switch req.Status {
			case "", string(ledger.StatusDraft), string(ledger.StatusPosted):
			default:
				badRequest(w, "status must be draft or posted")
				return
			}
			if req.Metadata != nil {
				if err := meta.New(req.Metadata).Validate(); err != nil {
					unprocessable(w, err.Error(), "invalid_metadata")
					return
				}
			}
			ctx := context.WithValue(r.Context(), ctxKeyUpdateEntry, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validatePostAccount parses and validates POST /accounts body.
func (s *Server) validatePostAccount() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req postAccountRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if req.Metadata != nil {
				if err := meta.New(req.Metadata).Validate(); err != nil {
					unprocessable(w, err.Error(), "invalid_metadata")
					return
				}
			}
			a := ledger.Account{
				OrgID:    req.OrgID,
				Number:   req.Number,
				Name:     req.Name,
				Class:    ledger.AccountClass(req.Class),
				Kind:     ledger.AccountKind(req.Kind),
				Metadata: meta.New(req.Metadata),
				Active:   true,
			}
			if err := s.accountSvc.ValidateCreate(a); err != nil {
				s.writeDomainError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostAccount, a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requiredUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, errors.New("missing")
	}
	return uuid.Parse(raw)
}
