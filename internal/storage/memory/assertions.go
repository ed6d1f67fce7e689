package memory

import (
	"github.com/mlindgren/huvudbok/internal/service/account"
	"github.com/mlindgren/huvudbok/internal/service/journal"
	"github.com/mlindgren/huvudbok/internal/service/report"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ journal.Repo      = (*Store)(nil)
	_ journal.Writer    = (*Store)(nil)
	_ journal.Sequencer = (*Store)(nil)
	_ account.Repo      = (*Store)(nil)
	_ account.Writer    = (*Store)(nil)
	_ report.Repo       = (*Store)(nil)
)
