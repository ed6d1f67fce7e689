package memory

// Package memory provides a simple in-memory implementation used for
// development and tests. It keeps code paths easy to follow while allowing
// us to plug in a real DB later.
import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mlindgren/huvudbok/internal/errs"
	"github.com/mlindgren/huvudbok/internal/ledger"
)

// entryKey tracks ordering for entries per org: sorted asc by (Date, ID).
type entryKey struct {
	Date time.Time
	ID   uuid.UUID
}

// seqKey scopes a verification-number counter.
type seqKey struct {
	OrgID        uuid.UUID
	FiscalYearID uuid.UUID
}

// Store is an in-memory implementation of the repositories, writers, and
// sequence allocator used by the services. It is guarded by an RWMutex for
// concurrent reads/writes; counters are incremented under the write lock so
// a number is never issued twice.
type Store struct {
	mu          sync.RWMutex
	orgs        map[uuid.UUID]ledger.Organization
	accounts    map[uuid.UUID]ledger.Account
	fiscalYears map[uuid.UUID]ledger.FiscalYear
	entries     map[uuid.UUID]*ledger.JournalEntry
	// Per-org sorted index of entries for ordered scans.
	entryKeysByOrg map[uuid.UUID][]entryKey
	// Verification counters per (org, fiscal year).
	counters map[seqKey]int64
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		orgs:           make(map[uuid.UUID]ledger.Organization),
		accounts:       make(map[uuid.UUID]ledger.Account),
		fiscalYears:    make(map[uuid.UUID]ledger.FiscalYear),
		entries:        make(map[uuid.UUID]*ledger.JournalEntry),
		entryKeysByOrg: make(map[uuid.UUID][]entryKey),
		counters:       make(map[seqKey]int64),
	}
}

// Seed helpers for local dev/tests.
func (s *Store) SeedOrganization(o ledger.Organization) {
	s.mu.Lock()
	s.orgs[o.ID] = o
	s.mu.Unlock()
}

func (s *Store) SeedAccount(a ledger.Account) {
	s.mu.Lock()
	s.accounts[a.ID] = a
	s.mu.Unlock()
}

func (s *Store) SeedFiscalYear(fy ledger.FiscalYear) {
	s.mu.Lock()
	s.fiscalYears[fy.ID] = fy
	s.mu.Unlock()
}

// Ready reports readiness; the in-memory store is always ready.
func (s *Store) Ready(ctx context.Context) error { return nil }

// NextVerificationNumber implements journal.Sequencer. Numbers start at 1
// per (org, fiscal year) and are handed out atomically.
func (s *Store) NextVerificationNumber(_ context.Context, orgID, fiscalYearID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fiscalYears[fiscalYearID]; !ok {
		return 0, errs.ErrNotFound
	}
	key := seqKey{OrgID: orgID, FiscalYearID: fiscalYearID}
	s.counters[key]++
	return s.counters[key], nil
}

// --- Account reads/writes ---

// AccountsByIDs implements journal.Repo.
func (s *Store) AccountsByIDs(_ context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]ledger.Account, len(ids))
	for _, id := range ids {
		if acc, ok := s.accounts[id]; ok && acc.OrgID == orgID {
			out[id] = acc
		}
	}
	return out, nil
}

// ListAccounts implements account.Repo.
func (s *Store) ListAccounts(_ context.Context, orgID uuid.UUID) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Account, 0)
	for _, a := range s.accounts {
		if a.OrgID == orgID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// GetAccount implements account.Repo.
func (s *Store) GetAccount(_ context.Context, orgID, accountID uuid.UUID) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok || a.OrgID != orgID {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}

// CreateAccount implements account.Writer.
func (s *Store) CreateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	return a, nil
}

// UpdateAccount implements account.Writer.
func (s *Store) UpdateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return ledger.Account{}, errs.ErrNotFound
	}
	s.accounts[a.ID] = a
	return a, nil
}

// --- Fiscal years ---

// FiscalYearByID implements journal.Repo.
func (s *Store) FiscalYearByID(_ context.Context, orgID, fiscalYearID uuid.UUID) (ledger.FiscalYear, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fy, ok := s.fiscalYears[fiscalYearID]
	if !ok || fy.OrgID != orgID {
		return ledger.FiscalYear{}, errs.ErrNotFound
	}
	return fy, nil
}

// ListFiscalYears returns an organization's fiscal years sorted by start date.
func (s *Store) ListFiscalYears(_ context.Context, orgID uuid.UUID) ([]ledger.FiscalYear, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.FiscalYear, 0)
	for _, fy := range s.fiscalYears {
		if fy.OrgID == orgID {
			out = append(out, fy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

// --- Journal entries ---

// CreateJournalEntry implements journal.Writer. Entry and lines are stored
// as one unit under the write lock.
func (s *Store) CreateJournalEntry(_ context.Context, entry ledger.JournalEntry) (ledger.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry
	e.Lines = append([]ledger.JournalLine(nil), entry.Lines...)
	s.entries[e.ID] = &e
	s.insertEntryIndexLocked(e.OrgID, entryKey{Date: e.Date, ID: e.ID})
	return e, nil
}

// ReplaceLines implements journal.Writer.
func (s *Store) ReplaceLines(_ context.Context, orgID, entryID uuid.UUID, lines []ledger.JournalLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok || e.OrgID != orgID {
		return errs.ErrNotFound
	}
	e.Lines = append([]ledger.JournalLine(nil), lines...)
	return nil
}

// UpdateJournalEntry implements journal.Writer.
func (s *Store) UpdateJournalEntry(_ context.Context, entry ledger.JournalEntry) (ledger.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.entries[entry.ID]
	if !ok {
		return ledger.JournalEntry{}, errs.ErrNotFound
	}
	e := entry
	e.Lines = append([]ledger.JournalLine(nil), entry.Lines...)
	if !old.Date.Equal(e.Date) {
		s.removeEntryIndexLocked(e.OrgID, entryKey{Date: old.Date, ID: old.ID})
		s.insertEntryIndexLocked(e.OrgID, entryKey{Date: e.Date, ID: e.ID})
	}
	s.entries[entry.ID] = &e
	return e, nil
}

// DeleteJournalEntry implements journal.Writer. The entry and its lines are
// removed as one unit.
func (s *Store) DeleteJournalEntry(_ context.Context, orgID, entryID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok || e.OrgID != orgID {
		return errs.ErrNotFound
	}
	s.removeEntryIndexLocked(orgID, entryKey{Date: e.Date, ID: e.ID})
	delete(s.entries, entryID)
	return nil
}

// EntriesByOrg implements journal.Repo. A non-nil fiscal year narrows the
// result.
func (s *Store) EntriesByOrg(_ context.Context, orgID, fiscalYearID uuid.UUID) ([]ledger.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.entryKeysByOrg[orgID]
	out := make([]ledger.JournalEntry, 0, len(keys))
	for _, k := range keys {
		e, ok := s.entries[k.ID]
		if !ok || e.OrgID != orgID {
			continue
		}
		if fiscalYearID != uuid.Nil && e.FiscalYearID != fiscalYearID {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

// EntryByID implements journal.Repo.
func (s *Store) EntryByID(_ context.Context, orgID, entryID uuid.UUID) (ledger.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[entryID]
	if !ok || e.OrgID != orgID {
		return ledger.JournalEntry{}, errs.ErrNotFound
	}
	return *e, nil
}

// PostedLines implements report.Repo: every line of a posted entry within
// the inclusive date bounds, joined with its account's number and name.
// Draft and voided entries contribute nothing.
func (s *Store) PostedLines(_ context.Context, orgID, fiscalYearID uuid.UUID, from, to *time.Time) ([]ledger.PostedLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.PostedLine, 0)
	for _, k := range s.entryKeysByOrg[orgID] {
		e, ok := s.entries[k.ID]
		if !ok || e.Status != ledger.StatusPosted {
			continue
		}
		if fiscalYearID != uuid.Nil && e.FiscalYearID != fiscalYearID {
			continue
		}
		if from != nil && e.Date.Before(*from) {
			continue
		}
		if to != nil && e.Date.After(*to) {
			continue
		}
		for _, ln := range e.Lines {
			acc, ok := s.accounts[ln.AccountID]
			if !ok {
				return nil, errs.ErrNotFound
			}
			out = append(out, ledger.PostedLine{
				AccountID:          ln.AccountID,
				AccountNumber:      acc.Number,
				AccountName:        acc.Name,
				Debit:              ln.Debit,
				Credit:             ln.Credit,
				Date:               e.Date,
				VerificationNumber: e.VerificationNumber,
				EntryDescription:   e.Description,
				LineDescription:    ln.Description,
			})
		}
	}
	return out, nil
}

// insertEntryIndexLocked inserts k into the per-org sorted index, keeping
// order asc by (Date, ID). Caller must hold s.mu (write lock).
func (s *Store) insertEntryIndexLocked(orgID uuid.UUID, k entryKey) {
	keys := s.entryKeysByOrg[orgID]
	i := sort.Search(len(keys), func(i int) bool {
		if keys[i].Date.After(k.Date) {
			return true
		}
		if keys[i].Date.Equal(k.Date) {
			return keys[i].ID.String() > k.ID.String()
		}
		return false
	})
	if i == len(keys) {
		s.entryKeysByOrg[orgID] = append(keys, k)
		return
	}
	keys = append(keys, entryKey{})
	copy(keys[i+1:], keys[i:])
	keys[i] = k
	s.entryKeysByOrg[orgID] = keys
}

// removeEntryIndexLocked drops k from the per-org index. Caller must hold
// s.mu (write lock).
func (s *Store) removeEntryIndexLocked(orgID uuid.UUID, k entryKey) {
	keys := s.entryKeysByOrg[orgID]
	for i := range keys {
		if keys[i].ID == k.ID {
			s.entryKeysByOrg[orgID] = append(keys[:i], keys[i+1:]...)
			return
		}
	}
}
