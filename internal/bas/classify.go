// Package bas classifies 4-digit BAS account numbers into the statutory
// report structure: statement, section, subsection, and sign convention.
// The number is authoritative for reporting; the stored account class is a
// descriptive hint checked against it at account creation.
package bas

import (
	"github.com/mlindgren/huvudbok/internal/errs"
)

// Sign is the balance convention of an account.
type Sign string

const (
	// DebitNormal accounts (assets, expenses) increase on the debit side:
	// balance = debits - credits.
	DebitNormal Sign = "debit"
	// CreditNormal accounts (liabilities, equity, revenue, financial items)
	// increase on the credit side: balance = credits - debits.
	CreditNormal Sign = "credit"
)

// Statement identifies which statutory report an account belongs to.
type Statement string

const (
	StatementBalance Statement = "balance_sheet"
	StatementIncome  Statement = "income_statement"
)

// Section is a top-level report group.
type Section string

const (
	SectionFixedAssets          Section = "fixed_assets"
	SectionCurrentAssets        Section = "current_assets"
	SectionEquity               Section = "equity"
	SectionUntaxedReserves      Section = "untaxed_reserves"
	SectionProvisions           Section = "provisions"
	SectionLongTermLiabilities  Section = "long_term_liabilities"
	SectionShortTermLiabilities Section = "short_term_liabilities"

	SectionOperatingRevenue  Section = "operating_revenue"
	SectionOperatingExpenses Section = "operating_expenses"
	SectionFinancialItems    Section = "financial_items"
	SectionAppropriations    Section = "appropriations"
	SectionTaxes             Section = "taxes"
)

// Subsection is a second-level report group within a section.
type Subsection string

const (
	SubIntangible           Subsection = "intangible"
	SubTangible             Subsection = "tangible"
	SubFinancialAssets      Subsection = "financial"
	SubInventory            Subsection = "inventory"
	SubReceivables          Subsection = "receivables"
	SubShortTermInvestments Subsection = "short_term_investments"
	SubCash                 Subsection = "cash"
	SubOtherEquity          Subsection = "other_equity"
	SubRestrictedEquity     Subsection = "restricted_equity"
	SubNonRestrictedEquity  Subsection = "non_restricted_equity"
	SubUntaxedReserves      Subsection = "untaxed_reserves"
	SubProvisions           Subsection = "provisions"
	SubLongTermLiabilities  Subsection = "long_term_liabilities"
	SubShortTermLiabilities Subsection = "short_term_liabilities"

	SubNetSales               Subsection = "net_sales"
	SubOtherOperatingIncome   Subsection = "other_operating_income"
	SubGoods                  Subsection = "goods"
	SubExternalExpenses       Subsection = "external_expenses"
	SubPersonnel              Subsection = "personnel"
	SubDepreciation           Subsection = "depreciation"
	SubOtherOperatingExpenses Subsection = "other_operating_expenses"
	SubFinancialIncome        Subsection = "financial_income"
	SubFinancialExpenses      Subsection = "financial_expenses"
	SubAppropriations         Subsection = "appropriations"
	SubIncomeTax              Subsection = "income_tax"
)

// Classification is the statutory placement of one account number.
type Classification struct {
	Number     string
	Statement  Statement
	Section    Section
	Subsection Subsection
	Sign       Sign
}

// numberRange maps an inclusive BAS interval to its report placement.
type numberRange struct {
	lo, hi     int
	statement  Statement
	section    Section
	subsection Subsection
}

// ranges covers 1000-8999 completely and in order. The intervals the BAS
// standard leaves informal (2000-2079, 3800-3899, 8700-8799) fold into their
// statutory neighbours so every postable number classifies.
var ranges = []numberRange{
	{1000, 1099, StatementBalance, SectionFixedAssets, SubIntangible},
	{1100, 1299, StatementBalance, SectionFixedAssets, SubTangible},
	{1300, 1399, StatementBalance, SectionFixedAssets, SubFinancialAssets},
	{1400, 1499, StatementBalance, SectionCurrentAssets, SubInventory},
	{1500, 1799, StatementBalance, SectionCurrentAssets, SubReceivables},
	{1800, 1899, StatementBalance, SectionCurrentAssets, SubShortTermInvestments},
	{1900, 1999, StatementBalance, SectionCurrentAssets, SubCash},
	{2000, 2079, StatementBalance, SectionEquity, SubOtherEquity},
	{2080, 2089, StatementBalance, SectionEquity, SubRestrictedEquity},
	{2090, 2099, StatementBalance, SectionEquity, SubNonRestrictedEquity},
	{2100, 2199, StatementBalance, SectionUntaxedReserves, SubUntaxedReserves},
	{2200, 2299, StatementBalance, SectionProvisions, SubProvisions},
	{2300, 2399, StatementBalance, SectionLongTermLiabilities, SubLongTermLiabilities},
	{2400, 2999, StatementBalance, SectionShortTermLiabilities, SubShortTermLiabilities},
	{3000, 3799, StatementIncome, SectionOperatingRevenue, SubNetSales},
	{3800, 3999, StatementIncome, SectionOperatingRevenue, SubOtherOperatingIncome},
	{4000, 4999, StatementIncome, SectionOperatingExpenses, SubGoods},
	{5000, 6999, StatementIncome, SectionOperatingExpenses, SubExternalExpenses},
	{7000, 7699, StatementIncome, SectionOperatingExpenses, SubPersonnel},
	{7700, 7899, StatementIncome, SectionOperatingExpenses, SubDepreciation},
	{7900, 7999, StatementIncome, SectionOperatingExpenses, SubOtherOperatingExpenses},
	{8000, 8399, StatementIncome, SectionFinancialItems, SubFinancialIncome},
	{8400, 8799, StatementIncome, SectionFinancialItems, SubFinancialExpenses},
	{8800, 8899, StatementIncome, SectionAppropriations, SubAppropriations},
	{8900, 8999, StatementIncome, SectionTaxes, SubIncomeTax},
}

// Classify maps a 4-digit BAS number to its report placement. Numbers outside
// 1000-8999, or not exactly four digits, are classification errors; callers
// building reports must surface them, not drop the account.
func Classify(number string) (Classification, error) {
	n, ok := parseNumber(number)
	if !ok {
		return Classification{}, &errs.ClassificationError{Number: number}
	}
	for _, r := range ranges {
		if n >= r.lo && n <= r.hi {
			return Classification{
				Number:     number,
				Statement:  r.statement,
				Section:    r.section,
				Subsection: r.subsection,
				Sign:       signFor(n),
			}, nil
		}
	}
	return Classification{}, &errs.ClassificationError{Number: number}
}

// SignFor returns the balance convention for a BAS number without a full
// classification. It reports false for numbers that do not classify.
func SignFor(number string) (Sign, bool) {
	n, ok := parseNumber(number)
	if !ok || n < 1000 || n > 8999 {
		return "", false
	}
	return signFor(n), true
}

// signFor: assets (<2000) and operating expenses [4000,8000) are debit
// normal; everything else in range is credit normal.
func signFor(n int) Sign {
	if n < 2000 || (n >= 4000 && n < 8000) {
		return DebitNormal
	}
	return CreditNormal
}

// SignedMinor derives the signed balance in minor units from summed debits
// and credits, so that "increase" is positive for every account.
func (s Sign) SignedMinor(debitMinor, creditMinor int64) int64 {
	if s == DebitNormal {
		return debitMinor - creditMinor
	}
	return creditMinor - debitMinor
}

func parseNumber(number string) (int, bool) {
	if len(number) != 4 {
		return 0, false
	}
	n := 0
	for _, c := range number {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
