package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mlindgren/huvudbok/internal/bas"
)

// BalanceSheetQuery requests a balance sheet as of a date, optionally with a
// comparative date (typically the previous year end).
type BalanceSheetQuery struct {
	OrgID           uuid.UUID
	FiscalYearID    uuid.UUID
	AsOf            time.Time
	ComparativeAsOf *time.Time
}

// BalanceSheetTotals carries the two grand totals and the reconciliation
// flag. With every posting balanced and the year-end result booked to
// equity, assets equal equity and liabilities to the öre.
type BalanceSheetTotals struct {
	AssetsMinor                          int64
	EquityAndLiabilitiesMinor            int64
	ComparativeAssetsMinor               int64
	ComparativeEquityAndLiabilitiesMinor int64
	Balanced                             bool
}

// BalanceSheet is the assembled report: asset sections on one side, equity
// and liability sections on the other, each with subsection groups.
type BalanceSheet struct {
	OrgID                uuid.UUID
	Currency             string
	AsOf                 time.Time
	ComparativeAsOf      *time.Time
	Assets               []ReportGroup
	EquityAndLiabilities []ReportGroup
	Totals               BalanceSheetTotals
}

// assetSections and equityLiabilitySections fix the statutory presentation
// order of the balance sheet.
var assetSections = []struct {
	section bas.Section
	subs    []bas.Subsection
}{
	{bas.SectionFixedAssets, []bas.Subsection{bas.SubIntangible, bas.SubTangible, bas.SubFinancialAssets}},
	{bas.SectionCurrentAssets, []bas.Subsection{bas.SubInventory, bas.SubReceivables, bas.SubShortTermInvestments, bas.SubCash}},
}

var equityLiabilitySections = []struct {
	section bas.Section
	subs    []bas.Subsection
}{
	{bas.SectionEquity, []bas.Subsection{bas.SubRestrictedEquity, bas.SubNonRestrictedEquity, bas.SubOtherEquity}},
	{bas.SectionUntaxedReserves, []bas.Subsection{bas.SubUntaxedReserves}},
	{bas.SectionProvisions, []bas.Subsection{bas.SubProvisions}},
	{bas.SectionLongTermLiabilities, []bas.Subsection{bas.SubLongTermLiabilities}},
	{bas.SectionShortTermLiabilities, []bas.Subsection{bas.SubShortTermLiabilities}},
}

// BalanceSheet aggregates every posted line up to AsOf, classifies the
// balance-sheet accounts (1000-2999) into sections, and reconciles the two
// sides. Income-statement accounts are excluded here; their net effect
// reaches the balance sheet only through booked year-end results.
func (s *service) BalanceSheet(ctx context.Context, q BalanceSheetQuery) (BalanceSheet, error) {
	asOf := q.AsOf
	current, currency, err := s.snapshot(ctx, BalanceQuery{OrgID: q.OrgID, FiscalYearID: q.FiscalYearID, AsOf: &asOf})
	if err != nil {
		return BalanceSheet{}, err
	}
	var comparative []AccountBalance
	if q.ComparativeAsOf != nil {
		comparative, _, err = s.snapshot(ctx, BalanceQuery{OrgID: q.OrgID, FiscalYearID: q.FiscalYearID, AsOf: q.ComparativeAsOf})
		if err != nil {
			return BalanceSheet{}, err
		}
	}

	rows, err := classifyAll(current, comparative)
	if err != nil {
		return BalanceSheet{}, err
	}
	rows = filterStatement(rows, bas.StatementBalance)

	bsheet := BalanceSheet{
		OrgID:           q.OrgID,
		Currency:        currency,
		AsOf:            q.AsOf,
		ComparativeAsOf: q.ComparativeAsOf,
	}
	for _, def := range assetSections {
		g := buildSection(def.section, def.subs, rows)
		bsheet.Assets = append(bsheet.Assets, g)
		bsheet.Totals.AssetsMinor += g.TotalMinor
		bsheet.Totals.ComparativeAssetsMinor += g.ComparativeTotalMinor
	}
	for _, def := range equityLiabilitySections {
		g := buildSection(def.section, def.subs, rows)
		bsheet.EquityAndLiabilities = append(bsheet.EquityAndLiabilities, g)
		bsheet.Totals.EquityAndLiabilitiesMinor += g.TotalMinor
		bsheet.Totals.ComparativeEquityAndLiabilitiesMinor += g.ComparativeTotalMinor
	}
	// Exact to the öre: both sides are integer minor-unit sums.
	bsheet.Totals.Balanced = bsheet.Totals.AssetsMinor == bsheet.Totals.EquityAndLiabilitiesMinor
	return bsheet, nil
}
