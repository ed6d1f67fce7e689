// Package report derives the statutory reports from posted journal lines:
// account balances, balance sheet, income statement, trial balance, and the
// VAT report. Everything here is a pure computation over an immutable
// snapshot fetched through Repo; all figures are in minor units (öre), so
// sums are exact to the cent.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mlindgren/huvudbok/internal/bas"
	"github.com/mlindgren/huvudbok/internal/errs"
	"github.com/mlindgren/huvudbok/internal/ledger"
)

// Repo fetches the posted-line snapshot reports are computed from. Only
// lines of posted entries may be returned; drafts and voided entries
// contribute nothing. from and to bound the entry date inclusively; either
// may be nil.
type Repo interface {
	PostedLines(ctx context.Context, orgID, fiscalYearID uuid.UUID, from, to *time.Time) ([]ledger.PostedLine, error)
}

// Service builds the statutory reports.
type Service interface {
	AccountBalances(ctx context.Context, q BalanceQuery) ([]AccountBalance, error)
	BalanceSheet(ctx context.Context, q BalanceSheetQuery) (BalanceSheet, error)
	IncomeStatement(ctx context.Context, q IncomeStatementQuery) (IncomeStatement, error)
	TrialBalance(ctx context.Context, q BalanceQuery) (TrialBalance, error)
	VATReport(ctx context.Context, q VATQuery) (VATReport, error)
}

type service struct {
	repo Repo
}

func New(repo Repo) Service { return &service{repo: repo} }

// BalanceQuery selects posted lines for aggregation. Exactly one of AsOf
// (point in time, entry date <= AsOf) or Start/End (closed interval) should
// be set. FiscalYearID is optional and narrows the scope.
type BalanceQuery struct {
	OrgID        uuid.UUID
	FiscalYearID uuid.UUID
	AsOf         *time.Time
	Start        *time.Time
	End          *time.Time
}

func (q BalanceQuery) bounds() (from, to *time.Time) {
	if q.AsOf != nil {
		return nil, q.AsOf
	}
	return q.Start, q.End
}

// AccountBalance is the derived position of one account inside a window.
type AccountBalance struct {
	AccountID   uuid.UUID
	Number      string
	Name        string
	DebitMinor  int64
	CreditMinor int64
	// BalanceMinor is signed so that "increase" is positive, per the
	// account's sign convention.
	BalanceMinor int64
	Sign         bas.Sign
}

// AccountBalances groups posted lines by account, sums debits and credits,
// and derives the signed balance from the BAS sign convention. An account
// outside the classifiable range aborts the aggregation.
func (s *service) AccountBalances(ctx context.Context, q BalanceQuery) ([]AccountBalance, error) {
	balances, _, err := s.snapshot(ctx, q)
	return balances, err
}

// snapshot fetches and aggregates the posted lines of a window, returning
// the balances together with the snapshot's currency code.
func (s *service) snapshot(ctx context.Context, q BalanceQuery) ([]AccountBalance, string, error) {
	if q.OrgID == uuid.Nil {
		return nil, "", errs.ErrInvalid
	}
	from, to := q.bounds()
	lines, err := s.repo.PostedLines(ctx, q.OrgID, q.FiscalYearID, from, to)
	if err != nil {
		return nil, "", err
	}
	balances, err := aggregate(lines)
	if err != nil {
		return nil, "", err
	}
	return balances, linesCurrency(lines), nil
}

func aggregate(lines []ledger.PostedLine) ([]AccountBalance, error) {
	byAccount := make(map[uuid.UUID]*AccountBalance)
	for _, ln := range lines {
		acc, ok := byAccount[ln.AccountID]
		if !ok {
			sign, known := bas.SignFor(ln.AccountNumber)
			if !known {
				return nil, &errs.ClassificationError{Number: ln.AccountNumber}
			}
			acc = &AccountBalance{
				AccountID: ln.AccountID,
				Number:    ln.AccountNumber,
				Name:      ln.AccountName,
				Sign:      sign,
			}
			byAccount[ln.AccountID] = acc
		}
		d, _ := ln.Debit.MinorUnits()
		c, _ := ln.Credit.MinorUnits()
		acc.DebitMinor += d
		acc.CreditMinor += c
	}
	out := make([]AccountBalance, 0, len(byAccount))
	for _, acc := range byAccount {
		acc.BalanceMinor = acc.Sign.SignedMinor(acc.DebitMinor, acc.CreditMinor)
		out = append(out, *acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// TrialBalance lists every account's summed debits, credits, and net, used
// to reconcile the statement reports.
type TrialBalance struct {
	OrgID    uuid.UUID
	AsOf     *time.Time
	Start    *time.Time
	End      *time.Time
	Accounts []AccountBalance
	// TotalDebitMinor and TotalCreditMinor are equal whenever every posted
	// entry balanced.
	TotalDebitMinor  int64
	TotalCreditMinor int64
}

func (s *service) TrialBalance(ctx context.Context, q BalanceQuery) (TrialBalance, error) {
	balances, err := s.AccountBalances(ctx, q)
	if err != nil {
		return TrialBalance{}, err
	}
	tb := TrialBalance{OrgID: q.OrgID, AsOf: q.AsOf, Start: q.Start, End: q.End, Accounts: balances}
	for _, b := range balances {
		tb.TotalDebitMinor += b.DebitMinor
		tb.TotalCreditMinor += b.CreditMinor
	}
	return tb, nil
}
