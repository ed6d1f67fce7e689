package postgres

// Package postgres provides a pgx-backed storage implementation that
// satisfies the repository, writer, and sequence-allocator interfaces used
// by the services.
//
// It is intentionally small and explicit. Migrations that create the
// expected schema live under db/migrations. This package focuses on mapping
// between the domain entities and SQL rows and running the necessary
// statements/transactions. The verification-number counter is a DB-side
// atomic upsert, so concurrent allocations for the same (org, fiscal year)
// never return the same number.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mlindgren/huvudbok/internal/errs"
	"github.com/mlindgren/huvudbok/internal/ledger"
	"github.com/mlindgren/huvudbok/internal/meta"
)

// Store holds a pgx connection pool and implements the read/write
// interfaces used across the service layer. All methods are safe for
// concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// SeedDev inserts an organization and an open fiscal year covering the
// current calendar year for quick local testing. Fresh UUIDs each run. The
// default chart is seeded separately through the account service.
func (s *Store) SeedDev(ctx context.Context) (ledger.Organization, ledger.FiscalYear, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ledger.Organization{}, ledger.FiscalYear{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	org := ledger.Organization{ID: uuid.New(), Name: "Demo AB", Currency: "SEK"}
	if _, err := tx.Exec(ctx, `insert into organizations (id, name, currency) values ($1, $2, $3)`, org.ID, org.Name, org.Currency); err != nil {
		return ledger.Organization{}, ledger.FiscalYear{}, err
	}
	year := time.Now().UTC().Year()
	fy := ledger.FiscalYear{
		ID:        uuid.New(),
		OrgID:     org.ID,
		StartDate: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
	if _, err := tx.Exec(ctx, `
        insert into fiscal_years (id, org_id, start_date, end_date, closed)
        values ($1,$2,$3,$4,$5)
    `, fy.ID, fy.OrgID, fy.StartDate, fy.EndDate, fy.Closed); err != nil {
		return ledger.Organization{}, ledger.FiscalYear{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ledger.Organization{}, ledger.FiscalYear{}, err
	}
	return org, fy, nil
}

// NextVerificationNumber implements journal.Sequencer with a DB-side atomic
// counter. The upsert increments and returns in one statement; two
// concurrent callers serialize on the row lock.
func (s *Store) NextVerificationNumber(ctx context.Context, orgID, fiscalYearID uuid.UUID) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `
        insert into verification_counters (org_id, fiscal_year_id, last_value)
        values ($1, $2, 1)
        on conflict (org_id, fiscal_year_id)
        do update set last_value = verification_counters.last_value + 1
        returning last_value
    `, orgID, fiscalYearID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// --- Organizations / fiscal years ---

// CreateOrganization inserts an organization row.
func (s *Store) CreateOrganization(ctx context.Context, o ledger.Organization) (ledger.Organization, error) {
	_, err := s.pool.Exec(ctx, `
        insert into organizations (id, name, currency) values ($1, $2, $3)
    `, o.ID, o.Name, o.Currency)
	if err != nil {
		return ledger.Organization{}, err
	}
	return o, nil
}

// CreateFiscalYear inserts a fiscal year row.
func (s *Store) CreateFiscalYear(ctx context.Context, fy ledger.FiscalYear) (ledger.FiscalYear, error) {
	_, err := s.pool.Exec(ctx, `
        insert into fiscal_years (id, org_id, start_date, end_date, closed)
        values ($1, $2, $3, $4, $5)
    `, fy.ID, fy.OrgID, fy.StartDate, fy.EndDate, fy.Closed)
	if err != nil {
		return ledger.FiscalYear{}, err
	}
	return fy, nil
}

// FiscalYearByID implements journal.Repo.
func (s *Store) FiscalYearByID(ctx context.Context, orgID, fiscalYearID uuid.UUID) (ledger.FiscalYear, error) {
	var fy ledger.FiscalYear
	err := s.pool.QueryRow(ctx, `
        select id, org_id, start_date, end_date, closed
        from fiscal_years
        where id = $1 and org_id = $2
    `, fiscalYearID, orgID).Scan(&fy.ID, &fy.OrgID, &fy.StartDate, &fy.EndDate, &fy.Closed)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.FiscalYear{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.FiscalYear{}, err
	}
	return fy, nil
}

// ListFiscalYears returns an organization's fiscal years ordered by start.
func (s *Store) ListFiscalYears(ctx context.Context, orgID uuid.UUID) ([]ledger.FiscalYear, error) {
	rows, err := s.pool.Query(ctx, `
        select id, org_id, start_date, end_date, closed
        from fiscal_years
        where org_id = $1
        order by start_date asc
    `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.FiscalYear, 0)
	for rows.Next() {
		var fy ledger.FiscalYear
		if err := rows.Scan(&fy.ID, &fy.OrgID, &fy.StartDate, &fy.EndDate, &fy.Closed); err != nil {
			return nil, err
		}
		out = append(out, fy)
	}
	return out, rows.Err()
}

// --- Account reads ---

// AccountsByIDs returns accounts for an organization filtered by IDs.
func (s *Store) AccountsByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]ledger.Account, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]ledger.Account{}, nil
	}
	rows, err := s.pool.Query(ctx, `
        select id, org_id, number, name, class, kind, metadata, system, active
        from accounts
        where org_id = $1 and id = any($2)
    `, orgID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uuid.UUID]ledger.Account)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

// ListAccounts returns all accounts for an organization, ordered by number.
func (s *Store) ListAccounts(ctx context.Context, orgID uuid.UUID) ([]ledger.Account, error) {
	rows, err := s.pool.Query(ctx, `
        select id, org_id, number, name, class, kind, metadata, system, active
        from accounts
        where org_id = $1
        order by number asc
    `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAccount fetches a single account by id for an organization.
func (s *Store) GetAccount(ctx context.Context, orgID, accountID uuid.UUID) (ledger.Account, error) {
	row := s.pool.QueryRow(ctx, `
        select id, org_id, number, name, class, kind, metadata, system, active
        from accounts
        where id = $1 and org_id = $2
    `, accountID, orgID)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Account{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Account{}, err
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(r rowScanner) (ledger.Account, error) {
	var a ledger.Account
	var mdBytes []byte
	if err := r.Scan(&a.ID, &a.OrgID, &a.Number, &a.Name, &a.Class, &a.Kind, &mdBytes, &a.System, &a.Active); err != nil {
		return ledger.Account{}, err
	}
	if len(mdBytes) > 0 {
		var m meta.Metadata
		if err := m.UnmarshalJSON(mdBytes); err == nil {
			a.Metadata = m
		}
	}
	return a, nil
}

// --- Account writes ---

// CreateAccount inserts an account row.
func (s *Store) CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	if err := a.Metadata.Validate(); err != nil {
		return ledger.Account{}, err
	}
	md, _ := a.Metadata.MarshalStableJSON()
	_, err := s.pool.Exec(ctx, `
        insert into accounts (id, org_id, number, name, class, kind, metadata, system, active)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `, a.ID, a.OrgID, a.Number, a.Name, a.Class, a.Kind, md, a.System, a.Active)
	if err != nil {
		return ledger.Account{}, err
	}
	return a, nil
}

// UpdateAccount updates mutable fields (name, metadata, active).
func (s *Store) UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	if err := a.Metadata.Validate(); err != nil {
		return ledger.Account{}, err
	}
	md, _ := a.Metadata.MarshalStableJSON()
	ct, err := s.pool.Exec(ctx, `
        update accounts
        set name=$1, metadata=$2, active=$3
        where id=$4 and org_id=$5
    `, a.Name, md, a.Active, a.ID, a.OrgID)
	if err != nil {
		return ledger.Account{}, err
	}
	if ct.RowsAffected() == 0 {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}

// --- Entry reads ---

const entryColumns = `id, org_id, fiscal_year_id, date, verification_number, description,
        status, source_type, source_id, created_by, posted_at, posted_by,
        reverses_entry_id, currency, metadata`

func scanEntry(r rowScanner) (ledger.JournalEntry, string, error) {
	var e ledger.JournalEntry
	var currency string
	var mdBytes []byte
	if err := r.Scan(&e.ID, &e.OrgID, &e.FiscalYearID, &e.Date, &e.VerificationNumber,
		&e.Description, &e.Status, &e.SourceType, &e.SourceID, &e.CreatedBy,
		&e.PostedAt, &e.PostedBy, &e.ReversesEntryID, &currency, &mdBytes); err != nil {
		return ledger.JournalEntry{}, "", err
	}
	if len(mdBytes) > 0 {
		var m meta.Metadata
		if err := m.UnmarshalJSON(mdBytes); err == nil {
			e.Metadata = m
		}
	}
	return e, currency, nil
}

// EntriesByOrg returns entries for an organization with lines populated. A
// non-nil fiscal year narrows the result.
func (s *Store) EntriesByOrg(ctx context.Context, orgID, fiscalYearID uuid.UUID) ([]ledger.JournalEntry, error) {
	q := `
        select ` + entryColumns + `
        from entries
        where org_id = $1
        order by date asc, id asc
    `
	args := []any{orgID}
	if fiscalYearID != uuid.Nil {
		q = `
        select ` + entryColumns + `
        from entries
        where org_id = $1 and fiscal_year_id = $2
        order by date asc, id asc
    `
		args = append(args, fiscalYearID)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]ledger.JournalEntry, 0)
	currencies := make(map[uuid.UUID]string)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		e, currency, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
		currencies[e.ID] = currency
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}
	lineRows, err := s.pool.Query(ctx, `
        select id, entry_id, account_id, debit_minor, credit_minor, description, vat_code, vat_amount_minor, line_order
        from entry_lines
        where entry_id = any($1)
        order by entry_id, line_order asc
    `, ids)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()
	idx := make(map[uuid.UUID]*ledger.JournalEntry, len(entries))
	for i := range entries {
		idx[entries[i].ID] = &entries[i]
	}
	for lineRows.Next() {
		ln, entryID, err := scanLine(lineRows, currencies)
		if err != nil {
			return nil, err
		}
		e := idx[entryID]
		if e == nil {
			continue
		}
		e.Lines = append(e.Lines, ln)
	}
	return entries, lineRows.Err()
}

// EntryByID returns an entry by id for an organization with lines populated.
func (s *Store) EntryByID(ctx context.Context, orgID, entryID uuid.UUID) (ledger.JournalEntry, error) {
	row := s.pool.QueryRow(ctx, `
        select `+entryColumns+`
        from entries
        where id = $1 and org_id = $2
    `, entryID, orgID)
	e, currency, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.JournalEntry{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	rows, err := s.pool.Query(ctx, `
        select id, entry_id, account_id, debit_minor, credit_minor, description, vat_code, vat_amount_minor, line_order
        from entry_lines
        where entry_id = $1
        order by line_order asc
    `, entryID)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	defer rows.Close()
	currencies := map[uuid.UUID]string{e.ID: currency}
	for rows.Next() {
		ln, _, err := scanLine(rows, currencies)
		if err != nil {
			return ledger.JournalEntry{}, err
		}
		e.Lines = append(e.Lines, ln)
	}
	if err := rows.Err(); err != nil {
		return ledger.JournalEntry{}, err
	}
	return e, nil
}

func scanLine(r rowScanner, currencies map[uuid.UUID]string) (ledger.JournalLine, uuid.UUID, error) {
	var ln ledger.JournalLine
	var entryID uuid.UUID
	var debitMinor, creditMinor int64
	var vatMinor *int64
	if err := r.Scan(&ln.ID, &entryID, &ln.AccountID, &debitMinor, &creditMinor,
		&ln.Description, &ln.VATCode, &vatMinor, &ln.Order); err != nil {
		return ledger.JournalLine{}, uuid.Nil, err
	}
	currency := currencies[entryID]
	if currency == "" {
		currency = "SEK"
	}
	ln.EntryID = entryID
	ln.Debit, _ = money.NewAmountFromMinorUnits(currency, debitMinor)
	ln.Credit, _ = money.NewAmountFromMinorUnits(currency, creditMinor)
	if vatMinor != nil {
		amt, _ := money.NewAmountFromMinorUnits(currency, *vatMinor)
		ln.VATAmount = &amt
	}
	return ln, entryID, nil
}

// --- Entry writes ---

// CreateJournalEntry inserts an entry + its lines in a transaction. A line
// insert failure rolls back the whole entry.
func (s *Store) CreateJournalEntry(ctx context.Context, entry ledger.JournalEntry) (ledger.JournalEntry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if err := createEntry(ctx, tx, entry); err != nil {
		_ = tx.Rollback(ctx)
		return ledger.JournalEntry{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ledger.JournalEntry{}, err
	}
	return entry, nil
}

// ReplaceLines swaps the full line set of a draft entry in a transaction.
func (s *Store) ReplaceLines(ctx context.Context, orgID, entryID uuid.UUID, lines []ledger.JournalLine) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	var owner uuid.UUID
	err = tx.QueryRow(ctx, `select org_id from entries where id = $1`, entryID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && owner != orgID) {
		return errs.ErrNotFound
	}
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `delete from entry_lines where entry_id = $1`, entryID); err != nil {
		return err
	}
	for _, ln := range lines {
		if err := insertLine(ctx, tx, entryID, ln); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// UpdateJournalEntry updates the mutable header fields of an entry.
func (s *Store) UpdateJournalEntry(ctx context.Context, entry ledger.JournalEntry) (ledger.JournalEntry, error) {
	md, _ := entry.Metadata.MarshalStableJSON()
	ct, err := s.pool.Exec(ctx, `
        update entries
        set date=$1, description=$2, status=$3, source_type=$4, source_id=$5,
            posted_at=$6, posted_by=$7, metadata=$8
        where id=$9 and org_id=$10
    `, entry.Date, entry.Description, entry.Status, entry.SourceType, entry.SourceID,
		entry.PostedAt, entry.PostedBy, md, entry.ID, entry.OrgID)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if ct.RowsAffected() == 0 {
		return ledger.JournalEntry{}, errs.ErrNotFound
	}
	return entry, nil
}

// DeleteJournalEntry removes an entry; lines follow through the cascade.
func (s *Store) DeleteJournalEntry(ctx context.Context, orgID, entryID uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `delete from entries where id=$1 and org_id=$2`, entryID, orgID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// createEntry inserts the entry header and its lines within the provided
// executor.
func createEntry(ctx context.Context, ex pgx.Tx, e ledger.JournalEntry) error {
	md, _ := e.Metadata.MarshalStableJSON()
	currency := "SEK"
	if len(e.Lines) > 0 {
		currency = e.Lines[0].Debit.Curr().Code()
	}
	if _, err := ex.Exec(ctx, `
        insert into entries (`+entryColumns+`)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
    `, e.ID, e.OrgID, e.FiscalYearID, e.Date, e.VerificationNumber, e.Description,
		e.Status, e.SourceType, e.SourceID, e.CreatedBy, e.PostedAt, e.PostedBy,
		e.ReversesEntryID, currency, md); err != nil {
		return err
	}
	for _, ln := range e.Lines {
		if err := insertLine(ctx, ex, e.ID, ln); err != nil {
			return fmt.Errorf("insert line: %w", err)
		}
	}
	return nil
}

func insertLine(ctx context.Context, ex pgx.Tx, entryID uuid.UUID, ln ledger.JournalLine) error {
	debitMinor, _ := ln.Debit.MinorUnits()
	creditMinor, _ := ln.Credit.MinorUnits()
	var vatMinor *int64
	if ln.VATAmount != nil {
		v, _ := ln.VATAmount.MinorUnits()
		vatMinor = &v
	}
	_, err := ex.Exec(ctx, `
        insert into entry_lines (id, entry_id, account_id, debit_minor, credit_minor, description, vat_code, vat_amount_minor, line_order)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `, ln.ID, entryID, ln.AccountID, debitMinor, creditMinor, ln.Description, ln.VATCode, vatMinor, ln.Order)
	return err
}

// --- Report reads ---

// PostedLines implements report.Repo: lines of posted entries within the
// inclusive date bounds, joined with account number and name. The query
// runs in a single statement, so the snapshot is read-committed consistent.
func (s *Store) PostedLines(ctx context.Context, orgID, fiscalYearID uuid.UUID, from, to *time.Time) ([]ledger.PostedLine, error) {
	q := `
        select l.account_id, a.number, a.name, l.debit_minor, l.credit_minor,
               e.date, e.verification_number, e.description, l.description, e.currency
        from entry_lines l
        join entries e on e.id = l.entry_id
        join accounts a on a.id = l.account_id
        where e.org_id = $1 and e.status = 'posted'
    `
	args := []any{orgID}
	if fiscalYearID != uuid.Nil {
		args = append(args, fiscalYearID)
		q += fmt.Sprintf(" and e.fiscal_year_id = $%d", len(args))
	}
	if from != nil {
		args = append(args, *from)
		q += fmt.Sprintf(" and e.date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		q += fmt.Sprintf(" and e.date <= $%d", len(args))
	}
	q += " order by e.date asc, e.verification_number asc, l.line_order asc"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.PostedLine, 0)
	for rows.Next() {
		var pl ledger.PostedLine
		var debitMinor, creditMinor int64
		var currency string
		if err := rows.Scan(&pl.AccountID, &pl.AccountNumber, &pl.AccountName,
			&debitMinor, &creditMinor, &pl.Date, &pl.VerificationNumber,
			&pl.EntryDescription, &pl.LineDescription, &currency); err != nil {
			return nil, err
		}
		pl.Debit, _ = money.NewAmountFromMinorUnits(currency, debitMinor)
		pl.Credit, _ = money.NewAmountFromMinorUnits(currency, creditMinor)
		out = append(out, pl)
	}
	return out, rows.Err()
}
