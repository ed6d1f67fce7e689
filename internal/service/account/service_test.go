package account_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlindgren/huvudbok/internal/errs"
	"github.com/mlindgren/huvudbok/internal/ledger"
	"github.com/mlindgren/huvudbok/internal/meta"
	"github.com/mlindgren/huvudbok/internal/service/account"
	"github.com/mlindgren/huvudbok/internal/storage/memory"
)

func newService(t *testing.T) (account.Service, uuid.UUID) {
	t.Helper()
	store := memory.New()
	org := ledger.Organization{ID: uuid.New(), Name: "Test AB", Currency: "SEK"}
	store.SeedOrganization(org)
	return account.New(store, store), org.ID
}

func TestClassForNumber(t *testing.T) {
	cases := []struct {
		number string
		want   ledger.AccountClass
	}{
		{"1930", ledger.ClassAssets},
		{"1510", ledger.ClassAssets},
		{"2081", ledger.ClassEquity},
		{"2099", ledger.ClassEquity},
		{"2440", ledger.ClassLiabilities},
		{"2610", ledger.ClassLiabilities},
		{"3010", ledger.ClassRevenue},
		{"4010", ledger.ClassExpenses},
		{"7010", ledger.ClassExpenses},
		{"8310", ledger.ClassFinancial},
		{"8810", ledger.ClassYearEnd},
		{"8910", ledger.ClassYearEnd},
	}
	for _, tc := range cases {
		got, ok := account.ClassForNumber(tc.number)
		require.True(t, ok, tc.number)
		assert.Equal(t, tc.want, got, tc.number)
	}

	for _, number := range []string{"", "999", "9000", "19x0"} {
		_, ok := account.ClassForNumber(number)
		assert.False(t, ok, number)
	}
}

func TestCreate_DerivesClassAndDefaults(t *testing.T) {
	svc, orgID := newService(t)

	a, err := svc.Create(context.Background(), ledger.Account{
		OrgID:  orgID,
		Number: " 1930 ",
		Name:   "Företagskonto",
	})
	require.NoError(t, err)
	assert.Equal(t, "1930", a.Number)
	assert.Equal(t, ledger.ClassAssets, a.Class)
	assert.Equal(t, ledger.KindDetail, a.Kind)
	assert.True(t, a.Active)
	assert.NotEqual(t, uuid.Nil, a.ID)
}

func TestCreate_RejectsClassMismatch(t *testing.T) {
	svc, orgID := newService(t)

	_, err := svc.Create(context.Background(), ledger.Account{
		OrgID:  orgID,
		Number: "1930",
		Name:   "Företagskonto",
		Class:  ledger.ClassRevenue,
	})
	require.ErrorIs(t, err, errs.ErrInvalid)
}

func TestCreate_RejectsUnclassifiableNumber(t *testing.T) {
	svc, orgID := newService(t)

	_, err := svc.Create(context.Background(), ledger.Account{
		OrgID:  orgID,
		Number: "9100",
		Name:   "Internkonto",
	})
	var cerr *errs.ClassificationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "9100", cerr.Number)
}

func TestCreate_DuplicateNumber(t *testing.T) {
	svc, orgID := newService(t)

	_, err := svc.Create(context.Background(), ledger.Account{OrgID: orgID, Number: "1930", Name: "Företagskonto"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), ledger.Account{OrgID: orgID, Number: "1930", Name: "Annat namn"})
	require.ErrorIs(t, err, account.ErrNumberExists)
}

func TestUpdate_DescriptiveFieldsOnly(t *testing.T) {
	svc, orgID := newService(t)
	a, err := svc.Create(context.Background(), ledger.Account{OrgID: orgID, Number: "1930", Name: "Företagskonto"})
	require.NoError(t, err)

	patched := a
	patched.Name = "Bankkonto SEB"
	patched.Metadata = meta.Metadata{"bank": "SEB"}
	updated, err := svc.Update(context.Background(), patched)
	require.NoError(t, err)
	assert.Equal(t, "Bankkonto SEB", updated.Name)
	assert.Equal(t, "SEB", updated.Metadata["bank"])
	assert.Equal(t, "1930", updated.Number)

	// number is identity
	renumbered := updated
	renumbered.Number = "1940"
	_, err = svc.Update(context.Background(), renumbered)
	require.ErrorIs(t, err, errs.ErrInvalid)

	// the active flag is free to toggle through a full update
	reactivated := updated
	reactivated.Active = false
	deactivated, err := svc.Update(context.Background(), reactivated)
	require.NoError(t, err)
	assert.False(t, deactivated.Active)
}

func TestUpdateAndDeactivate_SystemProtected(t *testing.T) {
	svc, orgID := newService(t)
	chart, err := svc.EnsureDefaultChart(context.Background(), orgID)
	require.NoError(t, err)

	var yearEnd ledger.Account
	for _, a := range chart {
		if a.Number == "2099" {
			yearEnd = a
		}
	}
	require.True(t, yearEnd.System)

	renamed := yearEnd
	renamed.Name = "Nytt namn"
	_, err = svc.Update(context.Background(), renamed)
	require.ErrorIs(t, err, errs.ErrSystemAccount)
	err = svc.Deactivate(context.Background(), orgID, yearEnd.ID)
	require.ErrorIs(t, err, errs.ErrSystemAccount)
}

func TestDeactivate_Idempotent(t *testing.T) {
	svc, orgID := newService(t)
	a, err := svc.Create(context.Background(), ledger.Account{OrgID: orgID, Number: "1930", Name: "Företagskonto"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), orgID, a.ID))
	got, err := svc.Get(context.Background(), orgID, a.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	// a second deactivation is a no-op, not an error
	require.NoError(t, svc.Deactivate(context.Background(), orgID, a.ID))
}

func TestDeactivate_NotFound(t *testing.T) {
	svc, orgID := newService(t)
	err := svc.Deactivate(context.Background(), orgID, uuid.New())
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestEnsureDefaultChart_Idempotent(t *testing.T) {
	svc, orgID := newService(t)

	first, err := svc.EnsureDefaultChart(context.Background(), orgID)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	byNumber := make(map[string]ledger.Account, len(first))
	for _, a := range first {
		byNumber[a.Number] = a
	}
	for _, number := range []string{"1930", "1510", "2440", "2610", "2640", "3010", "4010"} {
		_, ok := byNumber[number]
		assert.True(t, ok, number)
	}

	// a second run creates nothing and keeps existing IDs
	second, err := svc.EnsureDefaultChart(context.Background(), orgID)
	require.NoError(t, err)
	assert.Len(t, second, len(first))
	for _, a := range second {
		assert.Equal(t, byNumber[a.Number].ID, a.ID, a.Number)
	}
}

func TestEnsureDefaultChart_KeepsCustomAccounts(t *testing.T) {
	svc, orgID := newService(t)
	custom, err := svc.Create(context.Background(), ledger.Account{OrgID: orgID, Number: "1935", Name: "Valutakonto EUR"})
	require.NoError(t, err)

	chart, err := svc.EnsureDefaultChart(context.Background(), orgID)
	require.NoError(t, err)

	found := false
	for _, a := range chart {
		if a.ID == custom.ID {
			found = true
		}
	}
	assert.True(t, found)
}
