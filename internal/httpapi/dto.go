package httpapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/mlindgren/huvudbok/internal/ledger"
	"github.com/mlindgren/huvudbok/internal/meta"
	"github.com/mlindgren/huvudbok/internal/service/report"
)

type postEntryRequest struct {
	OrgID        uuid.UUID         `json:"org_id"`
	FiscalYearID uuid.UUID         `json:"fiscal_year_id"`
	Date         time.Time         `json:"date"`
	Currency     string            `json:"currency"`
	Description  string            `json:"description"`
	Status       string            `json:"status,omitempty"`
	SourceType   string            `json:"source_type,omitempty"`
	SourceID     string            `json:"source_id,omitempty"`
	CreatedBy    string            `json:"created_by,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Lines        []postEntryLine   `json:"lines"`
}

type postEntryLine struct {
	AccountID      uuid.UUID `json:"account_id"`
	DebitMinor     int64     `json:"debit_minor"`
	CreditMinor    int64     `json:"credit_minor"`
	Description    string    `json:"description,omitempty"`
	VATCode        string    `json:"vat_code,omitempty"`
	VATAmountMinor *int64    `json:"vat_amount_minor,omitempty"`
}

type updateEntryRequest struct {
	OrgID       uuid.UUID         `json:"org_id"`
	Date        time.Time         `json:"date"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Status      string            `json:"status,omitempty"`
	SourceType  string            `json:"source_type,omitempty"`
	SourceID    string            `json:"source_id,omitempty"`
	PostedBy    string            `json:"posted_by,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Lines       []postEntryLine   `json:"lines,omitempty"`
}

type postActionRequest struct {
	OrgID    uuid.UUID `json:"org_id"`
	PostedBy string    `json:"posted_by,omitempty"`
}

type voidEntryRequest struct {
	OrgID  uuid.UUID `json:"org_id"`
	Reason string    `json:"reason,omitempty"`
}

type reverseEntryRequest struct {
	OrgID     uuid.UUID `json:"org_id"`
	CreatedBy string    `json:"created_by,omitempty"`
	// optional date; if omitted the handler uses the current day
	Date *time.Time `json:"date,omitempty"`
}

type entryResponse struct {
	ID                 uuid.UUID         `json:"id"`
	OrgID              uuid.UUID         `json:"org_id"`
	FiscalYearID       uuid.UUID         `json:"fiscal_year_id"`
	Date               time.Time         `json:"date"`
	VerificationNumber int64             `json:"verification_number"`
	Description        string            `json:"description"`
	Status             string            `json:"status"`
	SourceType         string            `json:"source_type,omitempty"`
	SourceID           string            `json:"source_id,omitempty"`
	CreatedBy          string            `json:"created_by,omitempty"`
	PostedAt           *time.Time        `json:"posted_at,omitempty"`
	PostedBy           string            `json:"posted_by,omitempty"`
	ReversesEntryID    *uuid.UUID        `json:"reverses_entry_id,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	Lines              []lineResponse    `json:"lines"`
}

type lineResponse struct {
	ID             uuid.UUID `json:"id"`
	AccountID      uuid.UUID `json:"account_id"`
	DebitMinor     int64     `json:"debit_minor"`
	CreditMinor    int64     `json:"credit_minor"`
	Description    string    `json:"description,omitempty"`
	VATCode        string    `json:"vat_code,omitempty"`
	VATAmountMinor *int64    `json:"vat_amount_minor,omitempty"`
	Order          int       `json:"order"`
}

// listEntriesQuery holds validated query params for GET /entries.
type listEntriesQuery struct {
	OrgID        uuid.UUID
	FiscalYearID uuid.UUID
}

type listEntriesResponse struct {
	Items []entryResponse `json:"items"`
}

// Accounts

type postAccountRequest struct {
	OrgID    uuid.UUID         `json:"org_id"`
	Number   string            `json:"number"`
	Name     string            `json:"name"`
	Class    string            `json:"class,omitempty"`
	Kind     string            `json:"kind,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type patchAccountRequest struct {
	OrgID    uuid.UUID          `json:"org_id"`
	Name     *string            `json:"name,omitempty"`
	Active   *bool              `json:"active,omitempty"`
	Metadata *map[string]string `json:"metadata,omitempty"`
}

type accountResponse struct {
	ID       uuid.UUID         `json:"id"`
	OrgID    uuid.UUID         `json:"org_id"`
	Number   string            `json:"number"`
	Name     string            `json:"name"`
	Class    string            `json:"class"`
	Kind     string            `json:"kind"`
	Metadata map[string]string `json:"metadata,omitempty"`
	System   bool              `json:"system"`
	Active   bool              `json:"active"`
}

// Reports

type trialBalanceAccount struct {
	AccountID    uuid.UUID `json:"account_id"`
	Number       string    `json:"number"`
	Name         string    `json:"name"`
	DebitMinor   int64     `json:"debit_minor"`
	CreditMinor  int64     `json:"credit_minor"`
	BalanceMinor int64     `json:"balance_minor"`
}

type trialBalanceResponse struct {
	OrgID            uuid.UUID             `json:"org_id"`
	AsOf             *time.Time            `json:"as_of,omitempty"`
	Start            *time.Time            `json:"start,omitempty"`
	End              *time.Time            `json:"end,omitempty"`
	Accounts         []trialBalanceAccount `json:"accounts"`
	TotalDebitMinor  int64                 `json:"total_debit_minor"`
	TotalCreditMinor int64                 `json:"total_credit_minor"`
}

type reportAccountRow struct {
	AccountID        uuid.UUID `json:"account_id"`
	Number           string    `json:"number"`
	Name             string    `json:"name"`
	BalanceMinor     int64     `json:"balance_minor"`
	ComparativeMinor int64     `json:"comparative_minor,omitempty"`
}

type reportGroupResponse struct {
	Key                   string                `json:"key"`
	Label                 string                `json:"label"`
	LabelSV               string                `json:"label_sv"`
	Accounts              []reportAccountRow    `json:"accounts,omitempty"`
	Subgroups             []reportGroupResponse `json:"subgroups,omitempty"`
	TotalMinor            int64                 `json:"total_minor"`
	ComparativeTotalMinor int64                 `json:"comparative_total_minor,omitempty"`
}

type balanceSheetResponse struct {
	OrgID                uuid.UUID             `json:"org_id"`
	Currency             string                `json:"currency"`
	AsOf                 time.Time             `json:"as_of"`
	ComparativeAsOf      *time.Time            `json:"comparative_as_of,omitempty"`
	Assets               []reportGroupResponse `json:"assets"`
	EquityAndLiabilities []reportGroupResponse `json:"equity_and_liabilities"`
	Totals               balanceSheetTotals    `json:"totals"`
}

type balanceSheetTotals struct {
	AssetsMinor                          int64 `json:"assets_minor"`
	EquityAndLiabilitiesMinor            int64 `json:"equity_and_liabilities_minor"`
	ComparativeAssetsMinor               int64 `json:"comparative_assets_minor,omitempty"`
	ComparativeEquityAndLiabilitiesMinor int64 `json:"comparative_equity_and_liabilities_minor,omitempty"`
	Balanced                             bool  `json:"balanced"`
}

type incomeStatementResults struct {
	RevenueMinor        int64 `json:"revenue_minor"`
	ExpensesMinor       int64 `json:"expenses_minor"`
	OperatingMinor      int64 `json:"operating_minor"`
	FinancialItemsMinor int64 `json:"financial_items_minor"`
	AfterFinancialMinor int64 `json:"after_financial_minor"`
	AppropriationsMinor int64 `json:"appropriations_minor"`
	BeforeTaxMinor      int64 `json:"before_tax_minor"`
	TaxesMinor          int64 `json:"taxes_minor"`
	NetMinor            int64 `json:"net_minor"`
}

type incomeStatementResponse struct {
	OrgID              uuid.UUID              `json:"org_id"`
	Currency           string                 `json:"currency"`
	Start              time.Time              `json:"start"`
	End                time.Time              `json:"end"`
	ComparativeStart   *time.Time             `json:"comparative_start,omitempty"`
	ComparativeEnd     *time.Time             `json:"comparative_end,omitempty"`
	Sections           []reportGroupResponse  `json:"sections"`
	Results            incomeStatementResults `json:"results"`
	ComparativeResults incomeStatementResults `json:"comparative_results,omitempty"`
}

type vatTransactionResponse struct {
	VerificationNumber int64     `json:"verification_number"`
	Date               time.Time `json:"date"`
	AccountNumber      string    `json:"account_number"`
	Description        string    `json:"description,omitempty"`
	AmountMinor        int64     `json:"amount_minor"`
}

type vatBucketResponse struct {
	Key          string                   `json:"key"`
	Direction    string                   `json:"direction"`
	Rate         int                      `json:"rate,omitempty"`
	Label        string                   `json:"label"`
	AmountMinor  int64                    `json:"amount_minor"`
	Transactions []vatTransactionResponse `json:"transactions,omitempty"`
}

type vatReportResponse struct {
	OrgID            uuid.UUID           `json:"org_id"`
	Currency         string              `json:"currency"`
	Start            time.Time           `json:"start"`
	End              time.Time           `json:"end"`
	Buckets          []vatBucketResponse `json:"buckets"`
	OutputTotalMinor int64               `json:"output_total_minor"`
	InputTotalMinor  int64               `json:"input_total_minor"`
	NetMinor         int64               `json:"net_minor"`
}

// --- converters ---

func toEntryDomain(req postEntryRequest) ledger.JournalEntry {
	lines := make([]ledger.JournalLine, 0, len(req.Lines))
	for _, ln := range req.Lines {
		lines = append(lines, toLineDomain(req.Currency, ln))
	}
	return ledger.JournalEntry{
		OrgID:        req.OrgID,
		FiscalYearID: req.FiscalYearID,
		Date:         req.Date,
		Description:  req.Description,
		Status:       ledger.EntryStatus(req.Status),
		SourceType:   req.SourceType,
		SourceID:     req.SourceID,
		CreatedBy:    req.CreatedBy,
		Metadata:     meta.New(req.Metadata),
		Lines:        lines,
	}
}

func toLineDomain(currency string, ln postEntryLine) ledger.JournalLine {
	debit, _ := money.NewAmountFromMinorUnits(currency, ln.DebitMinor)
	credit, _ := money.NewAmountFromMinorUnits(currency, ln.CreditMinor)
	out := ledger.JournalLine{
		AccountID:   ln.AccountID,
		Debit:       debit,
		Credit:      credit,
		Description: ln.Description,
		VATCode:     ln.VATCode,
	}
	if ln.VATAmountMinor != nil {
		amt, _ := money.NewAmountFromMinorUnits(currency, *ln.VATAmountMinor)
		out.VATAmount = &amt
	}
	return out
}

func toEntryResponse(e ledger.JournalEntry) entryResponse {
	lines := make([]lineResponse, 0, len(e.Lines))
	for _, ln := range e.Lines {
		d, _ := ln.Debit.MinorUnits()
		c, _ := ln.Credit.MinorUnits()
		lr := lineResponse{
			ID:          ln.ID,
			AccountID:   ln.AccountID,
			DebitMinor:  d,
			CreditMinor: c,
			Description: ln.Description,
			VATCode:     ln.VATCode,
			Order:       ln.Order,
		}
		if ln.VATAmount != nil {
			v, _ := ln.VATAmount.MinorUnits()
			lr.VATAmountMinor = &v
		}
		lines = append(lines, lr)
	}
	return entryResponse{
		ID:                 e.ID,
		OrgID:              e.OrgID,
		FiscalYearID:       e.FiscalYearID,
		Date:               e.Date,
		VerificationNumber: e.VerificationNumber,
		Description:        e.Description,
		Status:             string(e.Status),
		SourceType:         e.SourceType,
		SourceID:           e.SourceID,
		CreatedBy:          e.CreatedBy,
		PostedAt:           e.PostedAt,
		PostedBy:           e.PostedBy,
		ReversesEntryID:    e.ReversesEntryID,
		Metadata:           e.Metadata,
		Lines:              lines,
	}
}

func toAccountResponse(a ledger.Account) accountResponse {
	return accountResponse{
		ID:       a.ID,
		OrgID:    a.OrgID,
		Number:   a.Number,
		Name:     a.Name,
		Class:    string(a.Class),
		Kind:     string(a.Kind),
		Metadata: a.Metadata,
		System:   a.System,
		Active:   a.Active,
	}
}

func toGroupResponse(g report.ReportGroup) reportGroupResponse {
	out := reportGroupResponse{
		Key:                   g.Key,
		Label:                 g.Label,
		LabelSV:               g.LabelSV,
		TotalMinor:            g.TotalMinor,
		ComparativeTotalMinor: g.ComparativeTotalMinor,
	}
	for _, row := range g.Accounts {
		out.Accounts = append(out.Accounts, reportAccountRow{
			AccountID:        row.AccountID,
			Number:           row.Number,
			Name:             row.Name,
			BalanceMinor:     row.BalanceMinor,
			ComparativeMinor: row.ComparativeMinor,
		})
	}
	for _, sub := range g.Subgroups {
		out.Subgroups = append(out.Subgroups, toGroupResponse(sub))
	}
	return out
}

func toGroupResponses(groups []report.ReportGroup) []reportGroupResponse {
	out := make([]reportGroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResponse(g))
	}
	return out
}

func toResultsResponse(r report.IncomeStatementResults) incomeStatementResults {
	return incomeStatementResults{
		RevenueMinor:        r.RevenueMinor,
		ExpensesMinor:       r.ExpensesMinor,
		OperatingMinor:      r.OperatingMinor,
		FinancialItemsMinor: r.FinancialItemsMinor,
		AfterFinancialMinor: r.AfterFinancialMinor,
		AppropriationsMinor: r.AppropriationsMinor,
		BeforeTaxMinor:      r.BeforeTaxMinor,
		TaxesMinor:          r.TaxesMinor,
		NetMinor:            r.NetMinor,
	}
}
