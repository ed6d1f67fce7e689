package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mlindgren/huvudbok/internal/bas"
	"github.com/mlindgren/huvudbok/internal/service/report"
)

// parseDate accepts a date-only value (2026-03-31) or full RFC 3339.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func optionalDate(w http.ResponseWriter, raw, name string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	t, err := parseDate(raw)
	if err != nil {
		badRequest(w, "invalid "+name)
		return nil, false
	}
	return &t, true
}

// reportScope parses the org_id and optional fiscal_year_id shared by every
// report endpoint.
func reportScope(w http.ResponseWriter, r *http.Request) (orgID, fiscalYearID uuid.UUID, ok bool) {
	q := r.URL.Query()
	orgID, err := requiredUUID(q.Get("org_id"))
	if err != nil {
		badRequest(w, "valid org_id is required")
		return uuid.Nil, uuid.Nil, false
	}
	if raw := q.Get("fiscal_year_id"); raw != "" {
		fiscalYearID, err = uuid.Parse(raw)
		if err != nil {
			badRequest(w, "invalid fiscal_year_id")
			return uuid.Nil, uuid.Nil, false
		}
	}
	return orgID, fiscalYearID, true
}

// trialBalance handles GET /v1/reports/trial-balance.
func (s *Server) trialBalance(w http.ResponseWriter, r *http.Request) {
	orgID, fiscalYearID, ok := reportScope(w, r)
	if !ok {
		return
	}
	q := report.BalanceQuery{OrgID: orgID, FiscalYearID: fiscalYearID}
	var valid bool
	if q.AsOf, valid = optionalDate(w, r.URL.Query().Get("as_of"), "as_of"); !valid {
		return
	}
	if q.Start, valid = optionalDate(w, r.URL.Query().Get("start"), "start"); !valid {
		return
	}
	if q.End, valid = optionalDate(w, r.URL.Query().Get("end"), "end"); !valid {
		return
	}
	tb, err := s.reportSvc.TrialBalance(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	reportsBuiltTotal.WithLabelValues("trial_balance").Inc()
	resp := trialBalanceResponse{
		OrgID:            tb.OrgID,
		AsOf:             tb.AsOf,
		Start:            tb.Start,
		End:              tb.End,
		TotalDebitMinor:  tb.TotalDebitMinor,
		TotalCreditMinor: tb.TotalCreditMinor,
		Accounts:         make([]trialBalanceAccount, 0, len(tb.Accounts)),
	}
	for _, b := range tb.Accounts {
		resp.Accounts = append(resp.Accounts, trialBalanceAccount{
			AccountID:    b.AccountID,
			Number:       b.Number,
			Name:         b.Name,
			DebitMinor:   b.DebitMinor,
			CreditMinor:  b.CreditMinor,
			BalanceMinor: b.BalanceMinor,
		})
	}
	toJSON(w, http.StatusOK, resp)
}

// balanceSheet handles GET /v1/reports/balance-sheet.
func (s *Server) balanceSheet(w http.ResponseWriter, r *http.Request) {
	orgID, fiscalYearID, ok := reportScope(w, r)
	if !ok {
		return
	}
	rawAsOf := r.URL.Query().Get("as_of")
	if rawAsOf == "" {
		badRequest(w, "as_of is required")
		return
	}
	asOf, err := parseDate(rawAsOf)
	if err != nil {
		badRequest(w, "invalid as_of")
		return
	}
	comparative, valid := optionalDate(w, r.URL.Query().Get("comparative_as_of"), "comparative_as_of")
	if !valid {
		return
	}
	bs, err := s.reportSvc.BalanceSheet(r.Context(), report.BalanceSheetQuery{
		OrgID:           orgID,
		FiscalYearID:    fiscalYearID,
		AsOf:            asOf,
		ComparativeAsOf: comparative,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	reportsBuiltTotal.WithLabelValues("balance_sheet").Inc()
	toJSON(w, http.StatusOK, balanceSheetResponse{
		OrgID:                bs.OrgID,
		Currency:             bs.Currency,
		AsOf:                 bs.AsOf,
		ComparativeAsOf:      bs.ComparativeAsOf,
		Assets:               toGroupResponses(bs.Assets),
		EquityAndLiabilities: toGroupResponses(bs.EquityAndLiabilities),
		Totals: balanceSheetTotals{
			AssetsMinor:                          bs.Totals.AssetsMinor,
			EquityAndLiabilitiesMinor:            bs.Totals.EquityAndLiabilitiesMinor,
			ComparativeAssetsMinor:               bs.Totals.ComparativeAssetsMinor,
			ComparativeEquityAndLiabilitiesMinor: bs.Totals.ComparativeEquityAndLiabilitiesMinor,
			Balanced:                             bs.Totals.Balanced,
		},
	})
}

// incomeStatement handles GET /v1/reports/income-statement.
func (s *Server) incomeStatement(w http.ResponseWriter, r *http.Request) {
	orgID, fiscalYearID, ok := reportScope(w, r)
	if !ok {
		return
	}
	start, end, ok := requiredPeriod(w, r)
	if !ok {
		return
	}
	q := report.IncomeStatementQuery{OrgID: orgID, FiscalYearID: fiscalYearID, Start: start, End: end}
	var valid bool
	if q.ComparativeStart, valid = optionalDate(w, r.URL.Query().Get("comparative_start"), "comparative_start"); !valid {
		return
	}
	if q.ComparativeEnd, valid = optionalDate(w, r.URL.Query().Get("comparative_end"), "comparative_end"); !valid {
		return
	}
	is, err := s.reportSvc.IncomeStatement(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	reportsBuiltTotal.WithLabelValues("income_statement").Inc()
	toJSON(w, http.StatusOK, incomeStatementResponse{
		OrgID:              is.OrgID,
		Currency:           is.Currency,
		Start:              is.Start,
		End:                is.End,
		ComparativeStart:   is.ComparativeStart,
		ComparativeEnd:     is.ComparativeEnd,
		Sections:           toGroupResponses(is.Sections),
		Results:            toResultsResponse(is.Results),
		ComparativeResults: toResultsResponse(is.ComparativeResults),
	})
}

// vatReport handles GET /v1/reports/vat.
func (s *Server) vatReport(w http.ResponseWriter, r *http.Request) {
	orgID, fiscalYearID, ok := reportScope(w, r)
	if !ok {
		return
	}
	start, end, ok := requiredPeriod(w, r)
	if !ok {
		return
	}
	vr, err := s.reportSvc.VATReport(r.Context(), report.VATQuery{
		OrgID:        orgID,
		FiscalYearID: fiscalYearID,
		Start:        start,
		End:          end,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	reportsBuiltTotal.WithLabelValues("vat").Inc()
	resp := vatReportResponse{
		OrgID:            vr.OrgID,
		Currency:         vr.Currency,
		Start:            vr.Start,
		End:              vr.End,
		OutputTotalMinor: vr.OutputTotalMinor,
		InputTotalMinor:  vr.InputTotalMinor,
		NetMinor:         vr.NetMinor,
		Buckets:          make([]vatBucketResponse, 0, len(vr.Buckets)),
	}
	for _, b := range vr.Buckets {
		br := vatBucketResponse{
			Key:         b.Bucket.Key,
			Direction:   string(b.Bucket.Direction),
			Rate:        b.Bucket.Rate,
			Label:       b.Bucket.Label,
			AmountMinor: b.AmountMinor,
		}
		for _, tx := range b.Transactions {
			br.Transactions = append(br.Transactions, vatTransactionResponse{
				VerificationNumber: tx.VerificationNumber,
				Date:               tx.Date,
				AccountNumber:      tx.AccountNumber,
				Description:        tx.Description,
				AmountMinor:        tx.AmountMinor,
			})
		}
		resp.Buckets = append(resp.Buckets, br)
	}
	toJSON(w, http.StatusOK, resp)
}

// chartGroups handles GET /v1/chart/groups: the statutory section and
// subsection dictionary in presentation order.
func (s *Server) chartGroups(w http.ResponseWriter, r *http.Request) {
	toJSON(w, http.StatusOK, struct {
		Groups []bas.SectionGroup `json:"groups"`
	}{Groups: bas.Groups()})
}

func requiredPeriod(w http.ResponseWriter, r *http.Request) (start, end time.Time, ok bool) {
	rawStart := r.URL.Query().Get("start")
	rawEnd := r.URL.Query().Get("end")
	if rawStart == "" || rawEnd == "" {
		badRequest(w, "start and end are required")
		return time.Time{}, time.Time{}, false
	}
	var err error
	if start, err = parseDate(rawStart); err != nil {
		badRequest(w, "invalid start")
		return time.Time{}, time.Time{}, false
	}
	if end, err = parseDate(rawEnd); err != nil {
		badRequest(w, "invalid end")
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		badRequest(w, "end must not precede start")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
