package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mlindgren/huvudbok/internal/ledger"
	"github.com/mlindgren/huvudbok/internal/meta"
)

// postEntry handles POST /v1/entries. The validated domain entry is taken
// from the request context.
func (s *Server) postEntry(w http.ResponseWriter, r *http.Request) {
	e, ok := r.Context().Value(ctxKeyPostEntry).(ledger.JournalEntry)
	if !ok {
		badRequest(w, "missing validated entry")
		return
	}
	saved, err := s.journalSvc.CreateEntry(r.Context(), e)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if saved.Status == ledger.StatusPosted {
		entriesPostedTotal.Inc()
	}
	toJSON(w, http.StatusCreated, toEntryResponse(saved))
}

// listEntries handles GET /v1/entries.
func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	q, ok := r.Context().Value(ctxKeyListEntries).(listEntriesQuery)
	if !ok {
		badRequest(w, "missing validated query")
		return
	}
	entries, err := s.journalSvc.ListEntries(r.Context(), q.OrgID, q.FiscalYearID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	resp := listEntriesResponse{Items: make([]entryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Items = append(resp.Items, toEntryResponse(e))
	}
	toJSON(w, http.StatusOK, resp)
}

// getEntry handles GET /v1/entries/{id}.
func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid entry id")
		return
	}
	orgID, err := requiredUUID(r.URL.Query().Get("org_id"))
	if err != nil {
		badRequest(w, "valid org_id is required")
		return
	}
	e, err := s.journalSvc.GetEntry(r.Context(), orgID, entryID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toEntryResponse(e))
}

// updateEntry handles PUT /v1/entries/{id}. Only drafts may be edited; the
// update can flip the status to posted in the same call.
func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid entry id")
		return
	}
	req, ok := r.Context().Value(ctxKeyUpdateEntry).(updateEntryRequest)
	if !ok {
		badRequest(w, "missing validated request")
		return
	}
	e := ledger.JournalEntry{
		ID:          entryID,
		OrgID:       req.OrgID,
		Date:        req.Date,
		Description: req.Description,
		Status:      ledger.EntryStatus(req.Status),
		SourceType:  req.SourceType,
		SourceID:    req.SourceID,
		PostedBy:    req.PostedBy,
		Metadata:    meta.New(req.Metadata),
	}
	if req.Lines != nil {
		lines := make([]ledger.JournalLine, 0, len(req.Lines))
		for _, ln := range req.Lines {
			lines = append(lines, toLineDomain(req.Currency, ln))
		}
		e.Lines = lines
	}
	saved, err := s.journalSvc.UpdateEntry(r.Context(), e)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if saved.Status == ledger.StatusPosted {
		entriesPostedTotal.Inc()
	}
	toJSON(w, http.StatusOK, toEntryResponse(saved))
}

// deleteEntry handles DELETE /v1/entries/{id}. Only drafts can be removed.
func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid entry id")
		return
	}
	orgID, err := requiredUUID(r.URL.Query().Get("org_id"))
	if err != nil {
		badRequest(w, "valid org_id is required")
		return
	}
	if err := s.journalSvc.DeleteEntry(r.Context(), orgID, entryID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// postEntryAction handles POST /v1/entries/{id}/post.
func (s *Server) postEntryAction(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid entry id")
		return
	}
	var req postActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.OrgID == uuid.Nil {
		badRequest(w, "org_id is required")
		return
	}
	e, err := s.journalSvc.PostEntry(r.Context(), req.OrgID, entryID, req.PostedBy)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	entriesPostedTotal.Inc()
	toJSON(w, http.StatusOK, toEntryResponse(e))
}

// voidEntry handles POST /v1/entries/{id}/void.
func (s *Server) voidEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid entry id")
		return
	}
	var req voidEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.OrgID == uuid.Nil {
		badRequest(w, "org_id is required")
		return
	}
	e, err := s.journalSvc.VoidEntry(r.Context(), req.OrgID, entryID, req.Reason)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toEntryResponse(e))
}

// reverseEntry handles POST /v1/entries/{id}/reverse. It creates a new
// posted entry with flipped sides rather than touching the original.
func (s *Server) reverseEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid entry id")
		return
	}
	var req reverseEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.OrgID == uuid.Nil {
		badRequest(w, "org_id is required")
		return
	}
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if req.Date != nil {
		date = *req.Date
	}
	e, err := s.journalSvc.ReverseEntry(r.Context(), req.OrgID, entryID, date, req.CreatedBy)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	entriesPostedTotal.Inc()
	toJSON(w, http.StatusCreated, toEntryResponse(e))
}
