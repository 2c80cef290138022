package sheets

import (
	"context"
)

// MirrorRow is a ledger row flattened for the spreadsheet: foreign keys are
// resolved to display names and the amount is in rupees.
type MirrorRow struct {
	PaymentID     string
	Date          string
	Type          string
	InternName    string
	ClientName    string
	ProjectName   string
	AmountRupees  float64
	Method        string
	TransactionID string
	Status        string
	Origin        string
}

// Ports for outbound mirror adapters.
type (
	// LedgerMirror keeps an external copy of the ledger in step with
	// sqlite. Upsert is keyed by PaymentID so replays are harmless.
	LedgerMirror interface {
		Upsert(ctx context.Context, row MirrorRow) (rowRef string, err error)
		Remove(ctx context.Context, paymentID string) error
	}
)
