package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mlindgren/huvudbok/internal/bas"
	"github.com/mlindgren/huvudbok/internal/errs"
)

// VATQuery requests a VAT report over a closed date interval.
type VATQuery struct {
	OrgID        uuid.UUID
	FiscalYearID uuid.UUID
	Start        time.Time
	End          time.Time
}

// VATTransaction is one contributing ledger line, kept per bucket for
// traceability.
type VATTransaction struct {
	VerificationNumber int64
	Date               time.Time
	AccountNumber      string
	Description        string
	// AmountMinor is directional: credit - debit for output buckets,
	// debit - credit for input buckets.
	AmountMinor int64
}

// VATBucketReport is one row of the VAT report.
type VATBucketReport struct {
	Bucket       bas.VATBucket
	AmountMinor  int64
	Transactions []VATTransaction
}

// VATReport buckets the 26xx VAT-control accounts by rate and direction.
// NetMinor = output - input: positive is payable to the tax authority,
// negative refundable.
type VATReport struct {
	OrgID            uuid.UUID
	Currency         string
	Start            time.Time
	End              time.Time
	Buckets          []VATBucketReport
	OutputTotalMinor int64
	InputTotalMinor  int64
	NetMinor         int64
}

// VATReport aggregates posted lines on VAT-control accounts (numbers
// starting 26) inside the period.
func (s *service) VATReport(ctx context.Context, q VATQuery) (VATReport, error) {
	if q.OrgID == uuid.Nil {
		return VATReport{}, errs.ErrInvalid
	}
	start, end := q.Start, q.End
	lines, err := s.repo.PostedLines(ctx, q.OrgID, q.FiscalYearID, &start, &end)
	if err != nil {
		return VATReport{}, err
	}

	buckets := make(map[string]*VATBucketReport)
	for _, ln := range lines {
		bucket, ok := bas.ClassifyVAT(ln.AccountNumber)
		if !ok {
			continue
		}
		br, exists := buckets[bucket.Key]
		if !exists {
			br = &VATBucketReport{Bucket: bucket}
			buckets[bucket.Key] = br
		}
		d, _ := ln.Debit.MinorUnits()
		c, _ := ln.Credit.MinorUnits()
		amount := c - d
		if bucket.Direction == bas.VATInput {
			amount = d - c
		}
		desc := ln.LineDescription
		if desc == "" {
			desc = ln.EntryDescription
		}
		br.AmountMinor += amount
		br.Transactions = append(br.Transactions, VATTransaction{
			VerificationNumber: ln.VerificationNumber,
			Date:               ln.Date,
			AccountNumber:      ln.AccountNumber,
			Description:        desc,
			AmountMinor:        amount,
		})
	}

	rep := VATReport{OrgID: q.OrgID, Currency: linesCurrency(lines), Start: q.Start, End: q.End}
	for _, key := range bas.VATBucketKeys {
		br, ok := buckets[key]
		if !ok {
			continue
		}
		rep.Buckets = append(rep.Buckets, *br)
		if br.Bucket.Direction == bas.VATOutput {
			rep.OutputTotalMinor += br.AmountMinor
		} else {
			rep.InputTotalMinor += br.AmountMinor
		}
	}
	rep.NetMinor = rep.OutputTotalMinor - rep.InputTotalMinor
	return rep, nil
}
