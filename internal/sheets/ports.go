package sheets

import (
	"context"
	"time"

	"bilancio/internal/core"
)

// LedgerRow is one exported line in the ledger sheet.
type LedgerRow struct {
	Date   time.Time
	Kind   string
	Name   string
	Amount core.Money
	Detail string
}

// Ports for outbound adapters.
type (
	// LedgerWriter appends ledger rows to an external sheet.
	LedgerWriter interface {
		Append(ctx context.Context, row LedgerRow) (rowRef string, err error)
	}
)
