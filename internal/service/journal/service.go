// Package journal implements the journal entry lifecycle: structural
// validation, verification numbering, and the draft -> posted -> voided state
// machine. Posted entries are immutable; corrections go through reversal
// entries.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mlindgren/huvudbok/internal/errs"
	"github.com/mlindgren/huvudbok/internal/ledger"
)

// Repo defines read operations needed by the service.
type Repo interface {
	AccountsByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]ledger.Account, error)
	FiscalYearByID(ctx context.Context, orgID, fiscalYearID uuid.UUID) (ledger.FiscalYear, error)
	EntriesByOrg(ctx context.Context, orgID, fiscalYearID uuid.UUID) ([]ledger.JournalEntry, error)
	EntryByID(ctx context.Context, orgID, entryID uuid.UUID) (ledger.JournalEntry, error)
}

// Writer defines write operations needed by the service. Implementations
// must persist an entry and its lines as one unit.
type Writer interface {
	CreateJournalEntry(ctx context.Context, entry ledger.JournalEntry) (ledger.JournalEntry, error)
	ReplaceLines(ctx context.Context, orgID, entryID uuid.UUID, lines []ledger.JournalLine) error
	UpdateJournalEntry(ctx context.Context, entry ledger.JournalEntry) (ledger.JournalEntry, error)
	DeleteJournalEntry(ctx context.Context, orgID, entryID uuid.UUID) error
}

// Sequencer hands out the next verification number for an (organization,
// fiscal year) scope. Implementations must be atomic: concurrent calls never
// return the same number. Gaps from aborted creations are acceptable.
type Sequencer interface {
	NextVerificationNumber(ctx context.Context, orgID, fiscalYearID uuid.UUID) (int64, error)
}

// Service exposes validation and the entry lifecycle.
type Service interface {
	ValidateLines(lines []ledger.JournalLine) error
	CreateEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error)
	UpdateEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error)
	PostEntry(ctx context.Context, orgID, entryID uuid.UUID, postedBy string) (ledger.JournalEntry, error)
	VoidEntry(ctx context.Context, orgID, entryID uuid.UUID, reason string) (ledger.JournalEntry, error)
	DeleteEntry(ctx context.Context, orgID, entryID uuid.UUID) error
	ReverseEntry(ctx context.Context, orgID, entryID uuid.UUID, date time.Time, createdBy string) (ledger.JournalEntry, error)
	ListEntries(ctx context.Context, orgID, fiscalYearID uuid.UUID) ([]ledger.JournalEntry, error)
	GetEntry(ctx context.Context, orgID, entryID uuid.UUID) (ledger.JournalEntry, error)
}

type service struct {
	repo   Repo
	writer Writer
	seq    Sequencer
}

func New(repo Repo, writer Writer, seq Sequencer) Service {
	return &service{repo: repo, writer: writer, seq: seq}
}

// ValidateLines checks the structural invariants of a candidate entry: at
// least two lines, non-negative single-currency amounts, and debit total
// equal to credit total in minor units. It runs on every transition into
// posted, never on drafts.
func (s *service) ValidateLines(lines []ledger.JournalLine) error {
	if len(lines) < 2 {
		return errs.ErrTooFewLines
	}
	var sumDebits, sumCredits int64
	currency := ""
	for i, line := range lines {
		if line.AccountID == uuid.Nil {
			return fmt.Errorf("line[%d]: account_id required: %w", i, errs.ErrInvalid)
		}
		if line.Debit.IsNeg() || line.Credit.IsNeg() {
			return fmt.Errorf("line[%d]: %w", i, errs.ErrInvalidAmount)
		}
		if line.Debit.IsZero() && line.Credit.IsZero() {
			return fmt.Errorf("line[%d]: debit or credit required: %w", i, errs.ErrInvalidAmount)
		}
		if currency == "" {
			currency = line.Debit.Curr().Code()
		}
		if line.Debit.Curr().Code() != currency || line.Credit.Curr().Code() != currency {
			return fmt.Errorf("line[%d]: %w", i, errs.ErrMixedCurrency)
		}
		d, _ := line.Debit.MinorUnits()
		c, _ := line.Credit.MinorUnits()
		sumDebits += d
		sumCredits += c
	}
	if sumDebits != sumCredits {
		return &errs.UnbalancedError{DebitMinor: sumDebits, CreditMinor: sumCredits}
	}
	return nil
}

// checkAccounts verifies every line posts to an existing, active, detail
// account of the organization.
func (s *service) checkAccounts(ctx context.Context, orgID uuid.UUID, lines []ledger.JournalLine) error {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.AccountID)
	}
	accMap, err := s.repo.AccountsByIDs(ctx, orgID, ids)
	if err != nil {
		return err
	}
	for i, line := range lines {
		acc, ok := accMap[line.AccountID]
		if !ok {
			return fmt.Errorf("line[%d]: account not found for organization: %w", i, errs.ErrInvalid)
		}
		if !acc.Active {
			return fmt.Errorf("line[%d]: account %s is inactive: %w", i, acc.Number, errs.ErrInvalid)
		}
		if acc.Kind != ledger.KindDetail {
			return fmt.Errorf("line[%d]: account %s is not postable: %w", i, acc.Number, errs.ErrInvalid)
		}
	}
	return nil
}

// CreateEntry persists a new entry. A verification number is always
// allocated before persisting; allocator failure aborts creation. An entry
// created directly in posted status is validated first.
func (s *service) CreateEntry(ctx context.Context, entry ledger.JournalEntry) (ledger.JournalEntry, error) {
	if entry.OrgID == uuid.Nil || entry.FiscalYearID == uuid.Nil {
		return ledger.JournalEntry{}, errs.ErrInvalid
	}
	if entry.Status == "" {
		entry.Status = ledger.StatusDraft
	}
	if entry.Status == ledger.StatusVoided {
		return ledger.JournalEntry{}, &errs.StateError{Status: string(entry.Status), Action: "create"}
	}
	fy, err := s.repo.FiscalYearByID(ctx, entry.OrgID, entry.FiscalYearID)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if entry.Status == ledger.StatusPosted {
		if fy.Closed {
			return ledger.JournalEntry{}, errs.ErrClosedYear
		}
		if !fy.Contains(entry.Date) {
			return ledger.JournalEntry{}, fmt.Errorf("entry date outside fiscal year: %w", errs.ErrInvalid)
		}
		if err := s.ValidateLines(entry.Lines); err != nil {
			return ledger.JournalEntry{}, err
		}
		if err := s.checkAccounts(ctx, entry.OrgID, entry.Lines); err != nil {
			return ledger.JournalEntry{}, err
		}
		now := time.Now().UTC()
		entry.PostedAt = &now
		if entry.PostedBy == "" {
			entry.PostedBy = entry.CreatedBy
		}
	}

	number, err := s.seq.NextVerificationNumber(ctx, entry.OrgID, entry.FiscalYearID)
	if err != nil {
		return ledger.JournalEntry{}, &errs.AllocatorError{Err: err}
	}
	entry.VerificationNumber = number

	entry.ID = uuid.New()
	entry.Lines = renumberLines(entry.ID, entry.Lines)
	return s.writer.CreateJournalEntry(ctx, entry)
}

// UpdateEntry replaces the mutable fields of a draft. Posted and voided
// entries reject edits. If the update sets status posted, the balance is
// re-validated and the entry is posted in the same operation.
func (s *service) UpdateEntry(ctx context.Context, entry ledger.JournalEntry) (ledger.JournalEntry, error) {
	if entry.OrgID == uuid.Nil || entry.ID == uuid.Nil {
		return ledger.JournalEntry{}, errs.ErrInvalid
	}
	current, err := s.repo.EntryByID(ctx, entry.OrgID, entry.ID)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if current.Status != ledger.StatusDraft {
		return ledger.JournalEntry{}, &errs.StateError{Status: string(current.Status), Action: "edit"}
	}

	current.Date = entry.Date
	current.Description = entry.Description
	current.SourceType = entry.SourceType
	current.SourceID = entry.SourceID
	current.Metadata = entry.Metadata.Clone()
	if entry.Lines != nil {
		current.Lines = renumberLines(current.ID, entry.Lines)
		if err := s.writer.ReplaceLines(ctx, current.OrgID, current.ID, current.Lines); err != nil {
			return ledger.JournalEntry{}, err
		}
	}

	if entry.Status == ledger.StatusPosted {
		if err := s.ValidateLines(current.Lines); err != nil {
			return ledger.JournalEntry{}, err
		}
		if err := s.checkAccounts(ctx, current.OrgID, current.Lines); err != nil {
			return ledger.JournalEntry{}, err
		}
		fy, err := s.repo.FiscalYearByID(ctx, current.OrgID, current.FiscalYearID)
		if err != nil {
			return ledger.JournalEntry{}, err
		}
		if fy.Closed {
			return ledger.JournalEntry{}, errs.ErrClosedYear
		}
		if !fy.Contains(current.Date) {
			return ledger.JournalEntry{}, fmt.Errorf("entry date outside fiscal year: %w", errs.ErrInvalid)
		}
		now := time.Now().UTC()
		current.Status = ledger.StatusPosted
		current.PostedAt = &now
		current.PostedBy = entry.PostedBy
	}
	return s.writer.UpdateJournalEntry(ctx, current)
}

// PostEntry transitions a draft to posted after validating its lines.
func (s *service) PostEntry(ctx context.Context, orgID, entryID uuid.UUID, postedBy string) (ledger.JournalEntry, error) {
	if orgID == uuid.Nil || entryID == uuid.Nil {
		return ledger.JournalEntry{}, errs.ErrInvalid
	}
	entry, err := s.repo.EntryByID(ctx, orgID, entryID)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if entry.Status != ledger.StatusDraft {
		return ledger.JournalEntry{}, &errs.StateError{Status: string(entry.Status), Action: "post"}
	}
	if err := s.ValidateLines(entry.Lines); err != nil {
		return ledger.JournalEntry{}, err
	}
	if err := s.checkAccounts(ctx, orgID, entry.Lines); err != nil {
		return ledger.JournalEntry{}, err
	}
	fy, err := s.repo.FiscalYearByID(ctx, orgID, entry.FiscalYearID)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if fy.Closed {
		return ledger.JournalEntry{}, errs.ErrClosedYear
	}
	if !fy.Contains(entry.Date) {
		return ledger.JournalEntry{}, fmt.Errorf("entry date outside fiscal year: %w", errs.ErrInvalid)
	}
	now := time.Now().UTC()
	entry.Status = ledger.StatusPosted
	entry.PostedAt = &now
	entry.PostedBy = postedBy
	return s.writer.UpdateJournalEntry(ctx, entry)
}

// VoidEntry marks a posted entry voided. The verification number stays
// assigned and is never reused; the reason is prefixed to the description.
// Voiding anything but a posted entry, including an already-voided one, is a
// state error.
func (s *service) VoidEntry(ctx context.Context, orgID, entryID uuid.UUID, reason string) (ledger.JournalEntry, error) {
	if orgID == uuid.Nil || entryID == uuid.Nil {
		return ledger.JournalEntry{}, errs.ErrInvalid
	}
	entry, err := s.repo.EntryByID(ctx, orgID, entryID)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if entry.Status != ledger.StatusPosted {
		return ledger.JournalEntry{}, &errs.StateError{Status: string(entry.Status), Action: "void"}
	}
	entry.Status = ledger.StatusVoided
	if reason != "" {
		entry.Description = "voided (" + reason + "): " + entry.Description
	} else {
		entry.Description = "voided: " + entry.Description
	}
	return s.writer.UpdateJournalEntry(ctx, entry)
}

// DeleteEntry removes a draft permanently. Posted and voided entries are
// part of the audit trail and can never be deleted; the draft's allocated
// verification number stays consumed (gaps are permitted, reuse is not).
func (s *service) DeleteEntry(ctx context.Context, orgID, entryID uuid.UUID) error {
	if orgID == uuid.Nil || entryID == uuid.Nil {
		return errs.ErrInvalid
	}
	entry, err := s.repo.EntryByID(ctx, orgID, entryID)
	if err != nil {
		return err
	}
	if entry.Status != ledger.StatusDraft {
		return &errs.StateError{Status: string(entry.Status), Action: "delete"}
	}
	return s.writer.DeleteJournalEntry(ctx, orgID, entryID)
}

// ReverseEntry posts a balancing counter-entry with flipped debit/credit
// sides, referencing the original. Unlike voiding it keeps the ledger
// append-only: both entries stay posted and net to zero.
func (s *service) ReverseEntry(ctx context.Context, orgID, entryID uuid.UUID, date time.Time, createdBy string) (ledger.JournalEntry, error) {
	if orgID == uuid.Nil || entryID == uuid.Nil {
		return ledger.JournalEntry{}, errs.ErrInvalid
	}
	orig, err := s.repo.EntryByID(ctx, orgID, entryID)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if orig.Status != ledger.StatusPosted {
		return ledger.JournalEntry{}, &errs.StateError{Status: string(orig.Status), Action: "reverse"}
	}
	lines := make([]ledger.JournalLine, 0, len(orig.Lines))
	for _, ln := range orig.Lines {
		flipped := ln
		flipped.ID = uuid.Nil
		flipped.Debit, flipped.Credit = ln.Credit, ln.Debit
		lines = append(lines, flipped)
	}
	origID := orig.ID
	rev := ledger.JournalEntry{
		OrgID:           orgID,
		FiscalYearID:    orig.FiscalYearID,
		Date:            date,
		Description:     fmt.Sprintf("reversal of V%d: %s", orig.VerificationNumber, orig.Description),
		Status:          ledger.StatusPosted,
		SourceType:      "reversal",
		SourceID:        orig.ID.String(),
		CreatedBy:       createdBy,
		ReversesEntryID: &origID,
		Lines:           lines,
	}
	return s.CreateEntry(ctx, rev)
}

func (s *service) ListEntries(ctx context.Context, orgID, fiscalYearID uuid.UUID) ([]ledger.JournalEntry, error) {
	if orgID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.repo.EntriesByOrg(ctx, orgID, fiscalYearID)
}

func (s *service) GetEntry(ctx context.Context, orgID, entryID uuid.UUID) (ledger.JournalEntry, error) {
	if orgID == uuid.Nil || entryID == uuid.Nil {
		return ledger.JournalEntry{}, errs.ErrInvalid
	}
	return s.repo.EntryByID(ctx, orgID, entryID)
}

// renumberLines assigns fresh line IDs, the owning entry ID, and a stable
// line order.
func renumberLines(entryID uuid.UUID, lines []ledger.JournalLine) []ledger.JournalLine {
	out := make([]ledger.JournalLine, len(lines))
	for i, ln := range lines {
		ln.ID = uuid.New()
		ln.EntryID = entryID
		ln.Order = i
		out[i] = ln
	}
	return out
}
