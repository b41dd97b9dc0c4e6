package ledger

import (
	"context"
	"time"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
)

// Store is the persistence the coordinator needs. Reads and writes through it are the only
// blocking points of a recomputation.
//
// PutLedgerRows and PutFlowEvents write their whole batch atomically. Rows or events with a
// non-zero Version are updated only if the stored version still matches, otherwise the batch
// fails with ErrConcurrentMutation. Rows with an empty ID are inserted. On success the
// assigned IDs and new versions are written back into the given slice.
type Store interface {
	GetAccount(ctx context.Context, accountID string) (model.PFAccount, error)
	GetRatePeriods(ctx context.Context, accountType string) ([]model.RatePeriod, error)

	// GetLedgerRows returns rows dated on or after from in ascending order; a zero from returns all rows.
	GetLedgerRows(ctx context.Context, accountID string, from time.Time) ([]model.LedgerRow, error)
	PutLedgerRows(ctx context.Context, accountID string, rows []model.LedgerRow) error
	DeleteLedgerRows(ctx context.Context, accountID string) error

	// GetFlowEvents returns the events of one user and fund ordered by date and creation order.
	GetFlowEvents(ctx context.Context, accountID, instrumentID string) ([]model.FlowEvent, error)
	PutFlowEvents(ctx context.Context, events []model.FlowEvent) error
}
