package bas

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlindgren/huvudbok/internal/errs"
)

func TestClassify_KnownPlacements(t *testing.T) {
	cases := []struct {
		number     string
		statement  Statement
		section    Section
		subsection Subsection
		sign       Sign
	}{
		{"1010", StatementBalance, SectionFixedAssets, SubIntangible, DebitNormal},
		{"1200", StatementBalance, SectionFixedAssets, SubTangible, DebitNormal},
		{"1510", StatementBalance, SectionCurrentAssets, SubReceivables, DebitNormal},
		{"1930", StatementBalance, SectionCurrentAssets, SubCash, DebitNormal},
		{"2081", StatementBalance, SectionEquity, SubRestrictedEquity, CreditNormal},
		{"2099", StatementBalance, SectionEquity, SubNonRestrictedEquity, CreditNormal},
		{"2150", StatementBalance, SectionUntaxedReserves, SubUntaxedReserves, CreditNormal},
		{"2350", StatementBalance, SectionLongTermLiabilities, SubLongTermLiabilities, CreditNormal},
		{"2440", StatementBalance, SectionShortTermLiabilities, SubShortTermLiabilities, CreditNormal},
		{"2610", StatementBalance, SectionShortTermLiabilities, SubShortTermLiabilities, CreditNormal},
		{"3010", StatementIncome, SectionOperatingRevenue, SubNetSales, CreditNormal},
		{"3960", StatementIncome, SectionOperatingRevenue, SubOtherOperatingIncome, CreditNormal},
		{"4010", StatementIncome, SectionOperatingExpenses, SubGoods, DebitNormal},
		{"5010", StatementIncome, SectionOperatingExpenses, SubExternalExpenses, DebitNormal},
		{"7010", StatementIncome, SectionOperatingExpenses, SubPersonnel, DebitNormal},
		{"7832", StatementIncome, SectionOperatingExpenses, SubDepreciation, DebitNormal},
		{"8310", StatementIncome, SectionFinancialItems, SubFinancialIncome, CreditNormal},
		{"8410", StatementIncome, SectionFinancialItems, SubFinancialExpenses, CreditNormal},
		{"8810", StatementIncome, SectionAppropriations, SubAppropriations, CreditNormal},
		{"8910", StatementIncome, SectionTaxes, SubIncomeTax, CreditNormal},
	}
	for _, tc := range cases {
		t.Run(tc.number, func(t *testing.T) {
			cls, err := Classify(tc.number)
			require.NoError(t, err)
			assert.Equal(t, tc.statement, cls.Statement)
			assert.Equal(t, tc.section, cls.Section)
			assert.Equal(t, tc.subsection, cls.Subsection)
			assert.Equal(t, tc.sign, cls.Sign)
		})
	}
}

// Every number from 1000 to 8999 must classify; a gap in the range table
// would make reports abort on a legal posting.
func TestClassify_Totality(t *testing.T) {
	for n := 1000; n <= 8999; n++ {
		_, err := Classify(fmt.Sprintf("%04d", n))
		require.NoError(t, err, "number %d", n)
	}
}

func TestClassify_Invalid(t *testing.T) {
	for _, number := range []string{"", "193", "19300", "0999", "9000", "9999", "19a0", "-193"} {
		_, err := Classify(number)
		require.Error(t, err, "number %q", number)
		var cerr *errs.ClassificationError
		assert.True(t, errors.As(err, &cerr), "number %q", number)
	}
}

func TestSignFor(t *testing.T) {
	sign, ok := SignFor("1930")
	require.True(t, ok)
	assert.Equal(t, DebitNormal, sign)

	sign, ok = SignFor("3010")
	require.True(t, ok)
	assert.Equal(t, CreditNormal, sign)

	_, ok = SignFor("9100")
	assert.False(t, ok)
}

func TestSignedMinor(t *testing.T) {
	assert.Equal(t, int64(700), DebitNormal.SignedMinor(1000, 300))
	assert.Equal(t, int64(-700), CreditNormal.SignedMinor(1000, 300))
}

func TestGroups_StatutoryOrder(t *testing.T) {
	groups := Groups()
	require.NotEmpty(t, groups)
	assert.Equal(t, "fixed_assets", groups[0].Section.Key)
	assert.Equal(t, StatementBalance, groups[0].Statement)
	// income statement sections follow the balance sheet ones
	last := groups[len(groups)-1]
	assert.Equal(t, "taxes", last.Section.Key)
	assert.Equal(t, StatementIncome, last.Statement)
	for _, g := range groups {
		assert.NotEmpty(t, g.Section.LabelSV, g.Section.Key)
		assert.NotEmpty(t, g.Subsections, g.Section.Key)
	}
}
