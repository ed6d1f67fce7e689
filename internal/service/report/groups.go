package report

import (
	"sort"

	"github.com/google/uuid"

	"github.com/mlindgren/huvudbok/internal/bas"
	"github.com/mlindgren/huvudbok/internal/ledger"
)

// AccountRow is one account inside a report group, with the comparative
// period figure when the report was requested with one.
type AccountRow struct {
	AccountID        uuid.UUID
	Number           string
	Name             string
	BalanceMinor     int64
	ComparativeMinor int64
}

// ReportGroup is a node of the report tree. Groups are assembled fresh per
// request by folding classified balances; nothing is mutated in place or
// cached.
type ReportGroup struct {
	Key                   string
	Label                 string
	LabelSV               string
	Accounts              []AccountRow
	Subgroups             []ReportGroup
	TotalMinor            int64
	ComparativeTotalMinor int64
}

// classified pairs an account row with its statutory placement.
type classified struct {
	row AccountRow
	cls bas.Classification
}

// classifyAll merges current and comparative balances by account number and
// classifies each. An account present only in the comparative period still
// appears, with a zero current balance.
func classifyAll(current, comparative []AccountBalance) ([]classified, error) {
	type slot struct {
		row  AccountRow
		seen bool
	}
	byNumber := make(map[string]*slot, len(current))
	order := make([]string, 0, len(current))
	for _, b := range current {
		byNumber[b.Number] = &slot{row: AccountRow{
			AccountID:    b.AccountID,
			Number:       b.Number,
			Name:         b.Name,
			BalanceMinor: b.BalanceMinor,
		}}
		order = append(order, b.Number)
	}
	for _, b := range comparative {
		if s, ok := byNumber[b.Number]; ok {
			s.row.ComparativeMinor = b.BalanceMinor
			continue
		}
		byNumber[b.Number] = &slot{row: AccountRow{
			AccountID:        b.AccountID,
			Number:           b.Number,
			Name:             b.Name,
			ComparativeMinor: b.BalanceMinor,
		}}
		order = append(order, b.Number)
	}
	sort.Strings(order)

	out := make([]classified, 0, len(order))
	for _, num := range order {
		cls, err := bas.Classify(num)
		if err != nil {
			return nil, err
		}
		out = append(out, classified{row: byNumber[num].row, cls: cls})
	}
	return out, nil
}

// buildSection folds the classified rows of one section into a group tree:
// subsection totals are sums of member balances, the section total is the
// sum of subsection totals.
func buildSection(section bas.Section, subOrder []bas.Subsection, rows []classified) ReportGroup {
	def := bas.SectionDef(section)
	group := ReportGroup{Key: def.Key, Label: def.Label, LabelSV: def.LabelSV}
	for _, sub := range subOrder {
		subDef := bas.SubsectionDef(sub)
		sg := ReportGroup{Key: subDef.Key, Label: subDef.Label, LabelSV: subDef.LabelSV}
		for _, c := range rows {
			if c.cls.Section != section || c.cls.Subsection != sub {
				continue
			}
			sg.Accounts = append(sg.Accounts, c.row)
			sg.TotalMinor += c.row.BalanceMinor
			sg.ComparativeTotalMinor += c.row.ComparativeMinor
		}
		if len(sg.Accounts) == 0 {
			continue
		}
		group.Subgroups = append(group.Subgroups, sg)
		group.TotalMinor += sg.TotalMinor
		group.ComparativeTotalMinor += sg.ComparativeTotalMinor
	}
	return group
}

// filterStatement keeps the rows belonging to one statement.
func filterStatement(rows []classified, st bas.Statement) []classified {
	out := make([]classified, 0, len(rows))
	for _, c := range rows {
		if c.cls.Statement == st {
			out = append(out, c)
		}
	}
	return out
}

// linesCurrency returns the currency code of the first line, defaulting to
// SEK for an empty snapshot.
func linesCurrency(lines []ledger.PostedLine) string {
	if len(lines) > 0 {
		return lines[0].Debit.Curr().Code()
	}
	return "SEK"
}
