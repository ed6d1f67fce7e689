package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/mlindgren/huvudbok/internal/meta"
)

// EntryStatus tracks the lifecycle of a journal entry.
// The only legal transitions are draft -> posted and posted -> voided.
type EntryStatus string

const (
	// StatusDraft entries are editable and contribute nothing to reports.
	StatusDraft EntryStatus = "draft"
	// StatusPosted entries are immutable and the only ones aggregated.
	StatusPosted EntryStatus = "posted"
	// StatusVoided entries keep their verification number but are excluded
	// from aggregation.
	StatusVoided EntryStatus = "voided"
)

// AccountClass is the declared classification of an account. It is
// descriptive; statutory reports classify by the BAS number instead, and the
// two are checked for consistency when the account is created.
type AccountClass string

const (
	ClassAssets      AccountClass = "assets"
	ClassLiabilities AccountClass = "liabilities"
	ClassEquity      AccountClass = "equity"
	ClassRevenue     AccountClass = "revenue"
	ClassExpenses    AccountClass = "expenses"
	ClassFinancial   AccountClass = "financial"
	ClassYearEnd     AccountClass = "year_end"
)

// AccountKind distinguishes postable accounts from presentation rows.
type AccountKind string

const (
	KindHeader AccountKind = "header"
	KindDetail AccountKind = "detail"
	KindTotal  AccountKind = "total"
)

// Organization owns a chart of accounts, fiscal years, and journal entries.
type Organization struct {
	ID       uuid.UUID
	Name     string
	Currency string
}

// Account is one row in an organization's BAS chart of accounts.
type Account struct {
	ID    uuid.UUID
	OrgID uuid.UUID
	// Number is the 4-digit BAS code; unique per organization. The leading
	// digits determine the account's statutory section and sign convention.
	Number string
	Name   string
	Class  AccountClass
	Kind   AccountKind
	// Metadata holds additional key-value attributes for the account.
	Metadata meta.Metadata `json:"metadata,omitempty"`
	// System marks reserved accounts seeded with the chart (e.g. 2099, 8999).
	System bool
	// Active indicates whether the account accepts new postings (soft-delete when false).
	Active bool
}

// FiscalYear scopes verification numbering and report windows.
type FiscalYear struct {
	ID        uuid.UUID
	OrgID     uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	// Closed years reject new postings.
	Closed bool
}

// Contains reports whether d falls inside the year, inclusive on both ends.
func (fy FiscalYear) Contains(d time.Time) bool {
	return !d.Before(fy.StartDate) && !d.After(fy.EndDate)
}

// JournalEntry captures metadata for a collection of journal lines.
type JournalEntry struct {
	ID           uuid.UUID
	OrgID        uuid.UUID
	FiscalYearID uuid.UUID
	Date         time.Time
	// VerificationNumber is sequential per (org, fiscal year), assigned at
	// creation and never reused, including after voiding.
	VerificationNumber int64
	Description        string
	Status             EntryStatus
	// SourceType/SourceID link the entry back to its originating document
	// (invoice, payment, manual).
	SourceType string
	SourceID   string
	CreatedBy  string
	PostedAt   *time.Time
	PostedBy   string
	// ReversesEntryID is set on reversal entries and points to the original.
	ReversesEntryID *uuid.UUID
	// Metadata holds additional key-value attributes for the entry.
	Metadata meta.Metadata `json:"metadata,omitempty"`
	Lines    []JournalLine
}

// JournalLine is a single debit or credit against an account.
// Both amounts are non-negative; in practice exactly one side is non-zero.
type JournalLine struct {
	ID          uuid.UUID
	EntryID     uuid.UUID
	AccountID   uuid.UUID
	Debit       money.Amount
	Credit      money.Amount
	Description string
	VATCode     string
	VATAmount   *money.Amount
	Order       int
}

// PostedLine is the flat record the aggregators consume: one line of a posted
// entry joined with its account's number and name.
type PostedLine struct {
	AccountID          uuid.UUID
	AccountNumber      string
	AccountName        string
	Debit              money.Amount
	Credit             money.Amount
	Date               time.Time
	VerificationNumber int64
	EntryDescription   string
	LineDescription    string
}
