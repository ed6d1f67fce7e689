package httpapi

import (
	"encoding/json"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mlindgren/huvudbok/internal/ledger"
	"github.com/mlindgren/huvudbok/internal/meta"
)

// postAccount handles POST /v1/accounts.
func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	a, ok := r.Context().Value(ctxKeyPostAccount).(ledger.Account)
	if !ok {
		badRequest(w, "missing validated account")
		return
	}
	saved, err := s.accountSvc.Create(r.Context(), a)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toAccountResponse(saved))
}

// listAccounts handles GET /v1/accounts.
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	orgID, err := requiredUUID(r.URL.Query().Get("org_id"))
	if err != nil {
		badRequest(w, "valid org_id is required")
		return
	}
	accounts, err := s.accountSvc.List(r.Context(), orgID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	toJSON(w, http.StatusOK, struct {
		Items []accountResponse `json:"items"`
	}{Items: out})
}

// getAccount handles GET /v1/accounts/{id}.
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid account id")
		return
	}
	orgID, err := requiredUUID(r.URL.Query().Get("org_id"))
	if err != nil {
		badRequest(w, "valid org_id is required")
		return
	}
	a, err := s.accountSvc.Get(r.Context(), orgID, accountID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(a))
}

// updateAccount handles PATCH /v1/accounts/{id}. Number, class, and kind
// are immutable; only presentation fields may change.
func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid account id")
		return
	}
	if !requireJSON(w, r) {
		return
	}
	var req patchAccountRequest
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
	current, err := s.accountSvc.Get(r.Context(), req.OrgID, accountID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Active != nil {
		current.Active = *req.Active
	}
	if req.Metadata != nil {
		md := meta.New(*req.Metadata)
		if err := md.Validate(); err != nil {
			unprocessable(w, err.Error(), "invalid_metadata")
			return
		}
		current.Metadata = md
	}
	saved, err := s.accountSvc.Update(r.Context(), current)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(saved))
}

// deactivateAccount handles DELETE /v1/accounts/{id} (soft-delete).
func (s *Server) deactivateAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid account id")
		return
	}
	orgID, err := requiredUUID(r.URL.Query().Get("org_id"))
	if err != nil {
		badRequest(w, "valid org_id is required")
		return
	}
	if err := s.accountSvc.Deactivate(r.Context(), orgID, accountID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// seedDefaultChart handles POST /v1/chart/default: creates the missing
// accounts of the standard chart for the organization, idempotently.
func (s *Server) seedDefaultChart(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req struct {
		OrgID uuid.UUID `json:"org_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.OrgID == uuid.Nil {
		badRequest(w, "org_id is required")
		return
	}
	accounts, err := s.accountSvc.EnsureDefaultChart(r.Context(), req.OrgID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	toJSON(w, http.StatusOK, struct {
		Items []accountResponse `json:"items"`
	}{Items: out})
}
