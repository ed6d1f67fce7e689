package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mlindgren/huvudbok/internal/bas"
)

// IncomeStatementQuery requests an income statement over a closed date
// interval, optionally with a comparative interval.
type IncomeStatementQuery struct {
	OrgID            uuid.UUID
	FiscalYearID     uuid.UUID
	Start            time.Time
	End              time.Time
	ComparativeStart *time.Time
	ComparativeEnd   *time.Time
}

// IncomeStatementResults is the stepped result chain. Each figure is
// computed independently for the current and comparative periods. TaxesMinor
// is the tax cost with expense-positive sign so that NetMinor =
// BeforeTaxMinor - TaxesMinor.
type IncomeStatementResults struct {
	RevenueMinor        int64
	ExpensesMinor       int64
	OperatingMinor      int64
	FinancialItemsMinor int64
	AfterFinancialMinor int64
	AppropriationsMinor int64
	BeforeTaxMinor      int64
	TaxesMinor          int64
	NetMinor            int64
}

// IncomeStatement is the assembled report with section groups and the
// result chain for both periods.
type IncomeStatement struct {
	OrgID              uuid.UUID
	Currency           string
	Start              time.Time
	End                time.Time
	ComparativeStart   *time.Time
	ComparativeEnd     *time.Time
	Sections           []ReportGroup
	Results            IncomeStatementResults
	ComparativeResults IncomeStatementResults
}

var incomeSections = []struct {
	section bas.Section
	subs    []bas.Subsection
}{
	{bas.SectionOperatingRevenue, []bas.Subsection{bas.SubNetSales, bas.SubOtherOperatingIncome}},
	{bas.SectionOperatingExpenses, []bas.Subsection{bas.SubGoods, bas.SubExternalExpenses, bas.SubPersonnel, bas.SubDepreciation, bas.SubOtherOperatingExpenses}},
	{bas.SectionFinancialItems, []bas.Subsection{bas.SubFinancialIncome, bas.SubFinancialExpenses}},
	{bas.SectionAppropriations, []bas.Subsection{bas.SubAppropriations}},
	{bas.SectionTaxes, []bas.Subsection{bas.SubIncomeTax}},
}

// IncomeStatement aggregates posted lines inside the period, classifies the
// income-statement accounts (3000-8999), and computes the stepped results:
// operating result, result after financial items, result before tax, and net
// result. Balance-sheet accounts are excluded.
func (s *service) IncomeStatement(ctx context.Context, q IncomeStatementQuery) (IncomeStatement, error) {
	start, end := q.Start, q.End
	current, currency, err := s.snapshot(ctx, BalanceQuery{OrgID: q.OrgID, FiscalYearID: q.FiscalYearID, Start: &start, End: &end})
	if err != nil {
		return IncomeStatement{}, err
	}
	var comparative []AccountBalance
	if q.ComparativeStart != nil && q.ComparativeEnd != nil {
		comparative, _, err = s.snapshot(ctx, BalanceQuery{OrgID: q.OrgID, FiscalYearID: q.FiscalYearID, Start: q.ComparativeStart, End: q.ComparativeEnd})
		if err != nil {
			return IncomeStatement{}, err
		}
	}

	rows, err := classifyAll(current, comparative)
	if err != nil {
		return IncomeStatement{}, err
	}
	rows = filterStatement(rows, bas.StatementIncome)

	stmt := IncomeStatement{
		OrgID:            q.OrgID,
		Currency:         currency,
		Start:            q.Start,
		End:              q.End,
		ComparativeStart: q.ComparativeStart,
		ComparativeEnd:   q.ComparativeEnd,
	}
	totals := map[bas.Section]int64{}
	compTotals := map[bas.Section]int64{}
	for _, def := range incomeSections {
		g := buildSection(def.section, def.subs, rows)
		stmt.Sections = append(stmt.Sections, g)
		totals[def.section] = g.TotalMinor
		compTotals[def.section] = g.ComparativeTotalMinor
	}
	stmt.Results = results(totals)
	stmt.ComparativeResults = results(compTotals)
	return stmt, nil
}

// results computes the stepped chain from the section totals of one period.
// Section totals use the classifier sign conventions: revenue, financial
// items, appropriations, and taxes are credit normal; operating expenses are
// debit normal. The tax section total is therefore negated into an
// expense-positive cost before the final subtraction.
func results(totals map[bas.Section]int64) IncomeStatementResults {
	r := IncomeStatementResults{
		RevenueMinor:        totals[bas.SectionOperatingRevenue],
		ExpensesMinor:       totals[bas.SectionOperatingExpenses],
		FinancialItemsMinor: totals[bas.SectionFinancialItems],
		AppropriationsMinor: totals[bas.SectionAppropriations],
		TaxesMinor:          -totals[bas.SectionTaxes],
	}
	r.OperatingMinor = r.RevenueMinor - r.ExpensesMinor
	r.AfterFinancialMinor = r.OperatingMinor + r.FinancialItemsMinor
	r.BeforeTaxMinor = r.AfterFinancialMinor + r.AppropriationsMinor
	r.NetMinor = r.BeforeTaxMinor - r.TaxesMinor
	return r
}
