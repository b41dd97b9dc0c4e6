package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
)

// LedgerStore implements ledger.Store on top of the PF and mutual fund repositories.
// Every batch write runs in its own transaction.
type LedgerStore struct {
	db    *sql.DB
	pf    *PFRepository
	funds *MutualFundRepository
}

// NewLedgerStore creates a LedgerStore over db.
func NewLedgerStore(db *sql.DB, pf *PFRepository, funds *MutualFundRepository) *LedgerStore {
	return &LedgerStore{db: db, pf: pf, funds: funds}
}

func (s *LedgerStore) GetAccount(ctx context.Context, accountID string) (model.PFAccount, error) {
	return s.pf.GetAccount(ctx, accountID)
}

func (s *LedgerStore) GetRatePeriods(ctx context.Context, accountType string) ([]model.RatePeriod, error) {
	return s.pf.GetRatePeriods(ctx, accountType)
}

func (s *LedgerStore) GetLedgerRows(ctx context.Context, accountID string, from time.Time) ([]model.LedgerRow, error) {
	return s.pf.GetEntries(ctx, accountID, from)
}

// PutLedgerRows writes rows in one transaction. On failure nothing is written and rows keep
// their previous IDs and versions.
func (s *LedgerStore) PutLedgerRows(ctx context.Context, accountID string, rows []model.LedgerRow) error {
	work := make([]model.LedgerRow, len(rows))
	copy(work, rows)

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return s.pf.WithTx(tx).PutEntries(ctx, accountID, work)
	})
	if err != nil {
		return err
	}
	copy(rows, work)
	return nil
}

func (s *LedgerStore) DeleteLedgerRows(ctx context.Context, accountID string) error {
	_, err := s.pf.DeleteEntries(ctx, accountID)
	return err
}

func (s *LedgerStore) GetFlowEvents(ctx context.Context, accountID, instrumentID string) ([]model.FlowEvent, error) {
	return s.funds.GetFlowEvents(ctx, accountID, instrumentID)
}

// PutFlowEvents writes matching results in one transaction.
func (s *LedgerStore) PutFlowEvents(ctx context.Context, events []model.FlowEvent) error {
	work := make([]model.FlowEvent, len(events))
	copy(work, events)

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return s.funds.WithTx(tx).PutMatches(ctx, work)
	})
	if err != nil {
		return err
	}
	copy(events, work)
	return nil
}

func (s *LedgerStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
