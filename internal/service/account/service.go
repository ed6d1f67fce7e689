// Package account implements the chart-of-accounts rules: 4-digit BAS
// numbers unique per organization, declared class consistent with the
// number's statutory range, immutable identity fields, and soft-deletes.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mlindgren/huvudbok/internal/bas"
	"github.com/mlindgren/huvudbok/internal/errs"
	"github.com/mlindgren/huvudbok/internal/ledger"
)

type Repo interface {
	ListAccounts(ctx context.Context, orgID uuid.UUID) ([]ledger.Account, error)
	GetAccount(ctx context.Context, orgID, accountID uuid.UUID) (ledger.Account, error)
}

type Writer interface {
	CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
}

type Service interface {
	ValidateCreate(a ledger.Account) error
	Create(ctx context.Context, a ledger.Account) (ledger.Account, error)
	List(ctx context.Context, orgID uuid.UUID) ([]ledger.Account, error)
	Get(ctx context.Context, orgID, accountID uuid.UUID) (ledger.Account, error)
	Update(ctx context.Context, a ledger.Account) (ledger.Account, error)
	Deactivate(ctx context.Context, orgID, accountID uuid.UUID) error
	EnsureDefaultChart(ctx context.Context, orgID uuid.UUID) ([]ledger.Account, error)
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

// ErrNumberExists indicates the BAS number is already taken in the
// organization's chart.
var ErrNumberExists = errors.New("account number already exists for organization")

// ClassForNumber derives the declared class matching a BAS number's range.
// It reports false for numbers outside 1000-8999.
func ClassForNumber(number string) (ledger.AccountClass, bool) {
	cls, err := bas.Classify(number)
	if err != nil {
		return "", false
	}
	switch {
	case cls.Statement == bas.StatementBalance && number[0] == '1':
		return ledger.ClassAssets, true
	case cls.Section == bas.SectionEquity:
		return ledger.ClassEquity, true
	case cls.Statement == bas.StatementBalance:
		return ledger.ClassLiabilities, true
	case cls.Section == bas.SectionOperatingRevenue:
		return ledger.ClassRevenue, true
	case cls.Section == bas.SectionOperatingExpenses:
		return ledger.ClassExpenses, true
	case cls.Section == bas.SectionFinancialItems:
		return ledger.ClassFinancial, true
	default:
		// Appropriations and income tax are year-end postings.
		return ledger.ClassYearEnd, true
	}
}

// ValidateCreate checks the account's identity fields. The declared class
// must agree with the class derived from the number range; the number is the
// authoritative source for reporting, so a disagreement is rejected up
// front instead of surfacing as a report-time anomaly.
func (s *service) ValidateCreate(account ledger.Account) error {
	if account.OrgID == uuid.Nil {
		return errs.ErrInvalid
	}
	if account.Name == "" {
		return errors.New("name is required")
	}
	derived, ok := ClassForNumber(account.Number)
	if !ok {
		return &errs.ClassificationError{Number: account.Number}
	}
	if account.Class != "" && account.Class != derived {
		return fmt.Errorf("class %q does not match number %s (expected %q): %w",
			account.Class, account.Number, derived, errs.ErrInvalid)
	}
	switch account.Kind {
	case "", ledger.KindDetail, ledger.KindHeader, ledger.KindTotal:
	default:
		return errors.New("invalid account kind")
	}
	return nil
}

func (s *service) Create(ctx context.Context, account ledger.Account) (ledger.Account, error) {
	account.Number = strings.TrimSpace(account.Number)
	if err := s.ValidateCreate(account); err != nil {
		return ledger.Account{}, err
	}
	existing, err := s.repo.ListAccounts(ctx, account.OrgID)
	if err != nil {
		return ledger.Account{}, err
	}
	for _, a := range existing {
		if a.Number == account.Number {
			return ledger.Account{}, ErrNumberExists
		}
	}
	if account.Class == "" {
		account.Class, _ = ClassForNumber(account.Number)
	}
	if account.Kind == "" {
		account.Kind = ledger.KindDetail
	}
	account.ID = uuid.New()
	account.Active = true
	return s.writer.CreateAccount(ctx, account)
}

func (s *service) List(ctx context.Context, orgID uuid.UUID) ([]ledger.Account, error) {
	if orgID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.repo.ListAccounts(ctx, orgID)
}

func (s *service) Get(ctx context.Context, orgID, accountID uuid.UUID) (ledger.Account, error) {
	if orgID == uuid.Nil || accountID == uuid.Nil {
		return ledger.Account{}, errs.ErrInvalid
	}
	return s.repo.GetAccount(ctx, orgID, accountID)
}

// Update applies allowed changes using a complete domain account. Number,
// class, and kind are identity and stay immutable; renumbering means
// creating a new account.
func (s *service) Update(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	if a.OrgID == uuid.Nil || a.ID == uuid.Nil {
		return ledger.Account{}, errs.ErrInvalid
	}
	current, err := s.repo.GetAccount(ctx, a.OrgID, a.ID)
	if err != nil {
		return ledger.Account{}, err
	}
	if current.System {
		return ledger.Account{}, errs.ErrSystemAccount
	}
	if a.Number != current.Number || a.Class != current.Class || a.Kind != current.Kind {
		return ledger.Account{}, fmt.Errorf("number, class, and kind are immutable: %w", errs.ErrInvalid)
	}
	if a.System != current.System {
		return ledger.Account{}, fmt.Errorf("system flag is immutable: %w", errs.ErrInvalid)
	}
	if a.Name == "" {
		return ledger.Account{}, errors.New("name is required")
	}
	return s.writer.UpdateAccount(ctx, a)
}

// Deactivate soft-deletes an account. System accounts are protected.
func (s *service) Deactivate(ctx context.Context, orgID, accountID uuid.UUID) error {
	a, err := s.repo.GetAccount(ctx, orgID, accountID)
	if err != nil {
		return err
	}
	if a.System {
		return errs.ErrSystemAccount
	}
	if !a.Active {
		return nil
	}
	a.Active = false
	_, err = s.writer.UpdateAccount(ctx, a)
	return err
}

// EnsureDefaultChart creates the missing accounts of the seed BAS chart for
// an organization, idempotently, and returns the full chart.
func (s *service) EnsureDefaultChart(ctx context.Context, orgID uuid.UUID) ([]ledger.Account, error) {
	if orgID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	existing, err := s.repo.ListAccounts(ctx, orgID)
	if err != nil {
		return nil, err
	}
	byNumber := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		byNumber[a.Number] = struct{}{}
	}
	out := existing
	for _, def := range bas.DefaultChart {
		if _, ok := byNumber[def.Number]; ok {
			continue
		}
		cls, _ := ClassForNumber(def.Number)
		created, err := s.writer.CreateAccount(ctx, ledger.Account{
			ID:     uuid.New(),
			OrgID:  orgID,
			Number: def.Number,
			Name:   def.Name,
			Class:  cls,
			Kind:   ledger.KindDetail,
			System: def.Number == "2099" || def.Number == "8999",
			Active: true,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}
