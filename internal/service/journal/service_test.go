package journal_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlindgren/huvudbok/internal/errs"
	"github.com/mlindgren/huvudbok/internal/ledger"
	"github.com/mlindgren/huvudbok/internal/service/journal"
	"github.com/mlindgren/huvudbok/internal/storage/memory"
)

type fixture struct {
	store *memory.Store
	svc   journal.Service
	org   ledger.Organization
	fy    ledger.FiscalYear
	bank  ledger.Account
	sales ledger.Account
	vat   ledger.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	org := ledger.Organization{ID: uuid.New(), Name: "Test AB", Currency: "SEK"}
	store.SeedOrganization(org)
	fy := ledger.FiscalYear{
		ID:        uuid.New(),
		OrgID:     org.ID,
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	store.SeedFiscalYear(fy)
	f := &fixture{
		store: store,
		svc:   journal.New(store, store, store),
		org:   org,
		fy:    fy,
		bank:  seedAccount(store, org.ID, "1930", "Företagskonto", ledger.ClassAssets),
		sales: seedAccount(store, org.ID, "3010", "Försäljning", ledger.ClassRevenue),
		vat:   seedAccount(store, org.ID, "2610", "Utgående moms 25%", ledger.ClassLiabilities),
	}
	return f
}

func seedAccount(store *memory.Store, orgID uuid.UUID, number, name string, class ledger.AccountClass) ledger.Account {
	a := ledger.Account{
		ID:     uuid.New(),
		OrgID:  orgID,
		Number: number,
		Name:   name,
		Class:  class,
		Kind:   ledger.KindDetail,
		Active: true,
	}
	store.SeedAccount(a)
	return a
}

func sek(t *testing.T, minor int64) money.Amount {
	t.Helper()
	amt, err := money.NewAmountFromMinorUnits("SEK", minor)
	require.NoError(t, err)
	return amt
}

func line(t *testing.T, accountID uuid.UUID, debitMinor, creditMinor int64) ledger.JournalLine {
	t.Helper()
	return ledger.JournalLine{
		AccountID: accountID,
		Debit:     sek(t, debitMinor),
		Credit:    sek(t, creditMinor),
	}
}

func (f *fixture) draft(t *testing.T, lines ...ledger.JournalLine) ledger.JournalEntry {
	t.Helper()
	return ledger.JournalEntry{
		OrgID:        f.org.ID,
		FiscalYearID: f.fy.ID,
		Date:         time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
		Description:  "Kontantförsäljning",
		CreatedBy:    "anna",
		Lines:        lines,
	}
}

func TestValidateLines(t *testing.T) {
	f := newFixture(t)

	t.Run("balanced", func(t *testing.T) {
		err := f.svc.ValidateLines([]ledger.JournalLine{
			line(t, f.bank.ID, 125000, 0),
			line(t, f.sales.ID, 0, 100000),
			line(t, f.vat.ID, 0, 25000),
		})
		assert.NoError(t, err)
	})

	t.Run("too few lines", func(t *testing.T) {
		err := f.svc.ValidateLines([]ledger.JournalLine{line(t, f.bank.ID, 1000, 0)})
		assert.ErrorIs(t, err, errs.ErrTooFewLines)
	})

	t.Run("unbalanced reports both sums", func(t *testing.T) {
		err := f.svc.ValidateLines([]ledger.JournalLine{
			line(t, f.bank.ID, 50000, 0),
			line(t, f.sales.ID, 0, 40000),
		})
		var ub *errs.UnbalancedError
		require.ErrorAs(t, err, &ub)
		assert.Equal(t, int64(50000), ub.DebitMinor)
		assert.Equal(t, int64(40000), ub.CreditMinor)
		assert.Equal(t, int64(10000), ub.Diff())
	})

	t.Run("zero line", func(t *testing.T) {
		err := f.svc.ValidateLines([]ledger.JournalLine{
			line(t, f.bank.ID, 0, 0),
			line(t, f.sales.ID, 0, 0),
		})
		assert.ErrorIs(t, err, errs.ErrInvalidAmount)
	})

	t.Run("mixed currency", func(t *testing.T) {
		eur, err := money.NewAmountFromMinorUnits("EUR", 1000)
		require.NoError(t, err)
		verr := f.svc.ValidateLines([]ledger.JournalLine{
			line(t, f.bank.ID, 1000, 0),
			{AccountID: f.sales.ID, Debit: sek(t, 0), Credit: eur},
		})
		assert.ErrorIs(t, verr, errs.ErrMixedCurrency)
	})
}

func TestCreateEntry_DraftSkipsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// an unbalanced draft is legal; validation happens on posting
	e := f.draft(t, line(t, f.bank.ID, 50000, 0), line(t, f.sales.ID, 0, 40000))
	saved, err := f.svc.CreateEntry(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusDraft, saved.Status)
	assert.Equal(t, int64(1), saved.VerificationNumber)
	assert.Nil(t, saved.PostedAt)

	// posting it now fails and leaves it draft
	_, err = f.svc.PostEntry(ctx, f.org.ID, saved.ID, "anna")
	var ub *errs.UnbalancedError
	require.ErrorAs(t, err, &ub)
	got, err := f.svc.GetEntry(ctx, f.org.ID, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusDraft, got.Status)
}

func TestCreateEntry_PostedDirectly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e := f.draft(t, line(t, f.bank.ID, 100000, 0), line(t, f.sales.ID, 0, 100000))
	e.Status = ledger.StatusPosted
	saved, err := f.svc.CreateEntry(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPosted, saved.Status)
	require.NotNil(t, saved.PostedAt)
	assert.Equal(t, "anna", saved.PostedBy)
}

func TestCreateEntry_UnbalancedPostedRejected(t *testing.T) {
	f := newFixture(t)
	e := f.draft(t, line(t, f.bank.ID, 50000, 0), line(t, f.sales.ID, 0, 40000))
	e.Status = ledger.StatusPosted
	_, err := f.svc.CreateEntry(context.Background(), e)
	var ub *errs.UnbalancedError
	require.ErrorAs(t, err, &ub)
	assert.Equal(t, int64(10000), ub.Diff())

	// nothing persisted
	entries, lerr := f.svc.ListEntries(context.Background(), f.org.ID, f.fy.ID)
	require.NoError(t, lerr)
	assert.Empty(t, entries)
}

func TestCreateEntry_InactiveAccountRejected(t *testing.T) {
	f := newFixture(t)
	closed := seedAccount(f.store, f.org.ID, "1940", "Gammalt konto", ledger.ClassAssets)
	closed.Active = false
	_, err := f.store.UpdateAccount(context.Background(), closed)
	require.NoError(t, err)

	e := f.draft(t, line(t, closed.ID, 1000, 0), line(t, f.sales.ID, 0, 1000))
	e.Status = ledger.StatusPosted
	_, err = f.svc.CreateEntry(context.Background(), e)
	assert.ErrorIs(t, err, errs.ErrInvalid)
}

func TestCreateEntry_ClosedYearRejected(t *testing.T) {
	f := newFixture(t)
	closedFY := ledger.FiscalYear{
		ID:        uuid.New(),
		OrgID:     f.org.ID,
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		Closed:    true,
	}
	f.store.SeedFiscalYear(closedFY)

	e := f.draft(t, line(t, f.bank.ID, 1000, 0), line(t, f.sales.ID, 0, 1000))
	e.FiscalYearID = closedFY.ID
	e.Status = ledger.StatusPosted
	_, err := f.svc.CreateEntry(context.Background(), e)
	assert.ErrorIs(t, err, errs.ErrClosedYear)
}

func TestCreateEntry_DateOutsideFiscalYearRejected(t *testing.T) {
	f := newFixture(t)

	e := f.draft(t, line(t, f.bank.ID, 1000, 0), line(t, f.sales.ID, 0, 1000))
	e.Date = time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)
	e.Status = ledger.StatusPosted
	_, err := f.svc.CreateEntry(context.Background(), e)
	require.ErrorIs(t, err, errs.ErrInvalid)

	// the same date on a draft is accepted; the check runs at posting time
	d := f.draft(t, line(t, f.bank.ID, 1000, 0), line(t, f.sales.ID, 0, 1000))
	d.Date = time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)
	saved, err := f.svc.CreateEntry(context.Background(), d)
	require.NoError(t, err)
	_, err = f.svc.PostEntry(context.Background(), f.org.ID, saved.ID, "anna")
	require.ErrorIs(t, err, errs.ErrInvalid)
}

func TestDeleteEntry_DraftOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.svc.CreateEntry(ctx, f.draft(t, line(t, f.bank.ID, 1000, 0), line(t, f.sales.ID, 0, 1000)))
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteEntry(ctx, f.org.ID, draft.ID))
	_, err = f.svc.GetEntry(ctx, f.org.ID, draft.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)

	// the deleted draft's number stays consumed
	next, err := f.svc.CreateEntry(ctx, f.draft(t, line(t, f.bank.ID, 1000, 0), line(t, f.sales.ID, 0, 1000)))
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.VerificationNumber)

	// posted entries are audit trail and cannot be deleted
	posted := f.draft(t, line(t, f.bank.ID, 1000, 0), line(t, f.sales.ID, 0, 1000))
	posted.Status = ledger.StatusPosted
	saved, err := f.svc.CreateEntry(ctx, posted)
	require.NoError(t, err)
	err = f.svc.DeleteEntry(ctx, f.org.ID, saved.ID)
	var sErr *errs.StateError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "delete", sErr.Action)
}

func TestVerificationNumbers_SequentialAndNeverReused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateEntry(ctx, f.draft(t, line(t, f.bank.ID, 1000, 0), line(t, f.sales.ID, 0, 1000)))
	require.NoError(t, err)
	second, err := f.svc.CreateEntry(ctx, f.draft(t, line(t, f.bank.ID, 2000, 0), line(t, f.sales.ID, 0, 2000)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.VerificationNumber)
	assert.Equal(t, int64(2), second.VerificationNumber)

	// voiding keeps the number assigned; the next entry does not reuse it
	_, err = f.svc.PostEntry(ctx, f.org.ID, first.ID, "anna")
	require.NoError(t, err)
	_, err = f.svc.VoidEntry(ctx, f.org.ID, first.ID, "fel belopp")
	require.NoError(t, err)
	third, err := f.svc.CreateEntry(ctx, f.draft(t, line(t, f.bank.ID, 3000, 0), line(t, f.sales.ID, 0, 3000)))
	require.NoError(t, err)
	assert.Equal(t, int64(3), third.VerificationNumber)
}

func TestVerificationNumbers_ConcurrentUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	numbers := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := f.svc.CreateEntry(ctx, f.draft(t, line(t, f.bank.ID, 1000, 0), line(t, f.sales.ID, 0, 1000)))
			if err != nil {
				t.Error(err)
				return
			}
			numbers <- e.VerificationNumber
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[int64]bool, n)
	for num := range numbers {
		assert.False(t, seen[num], "number %d allocated twice", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestLifecycle_Transitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.svc.CreateEntry(ctx, f.draft(t, line(t, f.bank.ID, 1000, 0), line(t, f.sales.ID, 0, 1000)))
	require.NoError(t, err)

	// void requires posted
	_, err = f.svc.VoidEntry(ctx, f.org.ID, e.ID, "")
	var state *errs.StateError
	require.ErrorAs(t, err, &state)
	assert.Equal(t, "void", state.Action)

	posted, err := f.svc.PostEntry(ctx, f.org.ID, e.ID, "anna")
	require.NoError(t, err)
	require.NotNil(t, posted.PostedAt)

	// posting twice is a state error
	_, err = f.svc.PostEntry(ctx, f.org.ID, e.ID, "anna")
	require.ErrorAs(t, err, &state)

	// editing a posted entry is a state error
	posted.Description = "ändrad"
	_, err = f.svc.UpdateEntry(ctx, posted)
	require.ErrorAs(t, err, &state)
	assert.Equal(t, "edit", state.Action)

	voided, err := f.svc.VoidEntry(ctx, f.org.ID, e.ID, "fel konto")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusVoided, voided.Status)
	assert.Contains(t, voided.Description, "voided (fel konto)")

	// voiding twice is a state error, not a no-op
	_, err = f.svc.VoidEntry(ctx, f.org.ID, e.ID, "igen")
	require.ErrorAs(t, err, &state)
	assert.Equal(t, string(ledger.StatusVoided), state.Status)
}

func TestUpdateEntry_DraftEditable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.svc.CreateEntry(ctx, f.draft(t, line(t, f.bank.ID, 1000, 0), line(t, f.sales.ID, 0, 1000)))
	require.NoError(t, err)

	e.Description = "Rättad beskrivning"
	e.Lines = []ledger.JournalLine{
		line(t, f.bank.ID, 125000, 0),
		line(t, f.sales.ID, 0, 100000),
		line(t, f.vat.ID, 0, 25000),
	}
	updated, err := f.svc.UpdateEntry(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, "Rättad beskrivning", updated.Description)
	require.Len(t, updated.Lines, 3)
	assert.Equal(t, e.VerificationNumber, updated.VerificationNumber)

	// post-on-update
	e = updated
	e.Status = ledger.StatusPosted
	e.PostedBy = "anna"
	posted, err := f.svc.UpdateEntry(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPosted, posted.Status)
	require.NotNil(t, posted.PostedAt)
}

func TestReverseEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e := f.draft(t, line(t, f.bank.ID, 125000, 0), line(t, f.sales.ID, 0, 100000), line(t, f.vat.ID, 0, 25000))
	e.Status = ledger.StatusPosted
	orig, err := f.svc.CreateEntry(ctx, e)
	require.NoError(t, err)

	revDate := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	rev, err := f.svc.ReverseEntry(ctx, f.org.ID, orig.ID, revDate, "anna")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPosted, rev.Status)
	assert.Equal(t, "reversal", rev.SourceType)
	require.NotNil(t, rev.ReversesEntryID)
	assert.Equal(t, orig.ID, *rev.ReversesEntryID)
	assert.Greater(t, rev.VerificationNumber, orig.VerificationNumber)

	// sides flipped line for line
	require.Len(t, rev.Lines, 3)
	origDebit, _ := orig.Lines[0].Debit.MinorUnits()
	revCredit, _ := rev.Lines[0].Credit.MinorUnits()
	assert.Equal(t, origDebit, revCredit)

	// the pair nets to zero in aggregation
	lines, err := f.store.PostedLines(ctx, f.org.ID, f.fy.ID, nil, nil)
	require.NoError(t, err)
	var net int64
	for _, pl := range lines {
		d, _ := pl.Debit.MinorUnits()
		c, _ := pl.Credit.MinorUnits()
		net += d - c
	}
	assert.Zero(t, net)

	// drafts cannot be reversed
	d, err := f.svc.CreateEntry(ctx, f.draft(t, line(t, f.bank.ID, 1000, 0), line(t, f.sales.ID, 0, 1000)))
	require.NoError(t, err)
	_, err = f.svc.ReverseEntry(ctx, f.org.ID, d.ID, revDate, "anna")
	var state *errs.StateError
	assert.ErrorAs(t, err, &state)
}

func TestGetEntry_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetEntry(context.Background(), f.org.ID, uuid.New())
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}
