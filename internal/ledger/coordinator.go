package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
)

// State is the recomputation state of one account or account/instrument pair.
type State string

const (
	Idle        State = "idle"
	Recomputing State = "recomputing"
)

// AccrualKey is the serialization key of an account's ledger rows.
func AccrualKey(accountID string) string {
	return "accrual:" + accountID
}

// LotKey is the serialization key of one user's events for one fund.
func LotKey(accountID, instrumentID string) string {
	return "lots:" + accountID + ":" + instrumentID
}

type keyLock struct {
	mu    sync.Mutex
	refs  int
	state State
}

// RowEdit holds the fields of a ledger row a caller may change. Nil fields are left as they are.
type RowEdit struct {
	DepositDate     *time.Time
	AmountDeposited *decimal.Decimal
}

// Coordinator owns every mutation of ledger rows and flow events after their creation.
//
// Work on the same key is serialized; different keys proceed in parallel. Each pass loads a
// snapshot from the Store, computes in memory and writes back in one batch.
type Coordinator struct {
	store   Store
	accrual *AccrualEngine
	matcher *LotMatcher
	logger  logrus.FieldLogger
	workers int

	mu    sync.Mutex
	locks map[string]*keyLock
}

// NewCoordinator creates a Coordinator. workers bounds RecalculateAll parallelism.
func NewCoordinator(store Store, logger logrus.FieldLogger, workers int) *Coordinator {
	if workers <= 0 {
		workers = 4
	}
	return &Coordinator{
		store:   store,
		accrual: NewAccrualEngine(),
		matcher: NewLotMatcher(),
		logger:  logger,
		workers: workers,
		locks:   make(map[string]*keyLock),
	}
}

// lock serializes work on key and marks it Recomputing until the returned func is called.
func (c *Coordinator) lock(key string) func() {
	c.mu.Lock()
	l, ok := c.locks[key]
	if !ok {
		l = &keyLock{state: Idle}
		c.locks[key] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	c.setState(l, Recomputing)

	return func() {
		c.setState(l, Idle)
		l.mu.Unlock()

		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, key)
		}
		c.mu.Unlock()
	}
}

func (c *Coordinator) setState(l *keyLock, s State) {
	c.mu.Lock()
	l.state = s
	c.mu.Unlock()
}

// State reports whether key is currently being recomputed.
func (c *Coordinator) State(key string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.locks[key]; ok {
		return l.state
	}
	return Idle
}

// retryOnConflict runs fn once more when it fails with ErrConcurrentMutation.
func (c *Coordinator) retryOnConflict(key string, fn func() error) error {
	err := fn()
	if errors.Is(err, ErrConcurrentMutation) {
		c.logger.WithField("key", key).Warn("concurrent mutation, retrying once")
		err = fn()
	}
	return err
}

func (c *Coordinator) loadAccount(ctx context.Context, accountID string) (model.PFAccount, *RateTable, error) {
	account, err := c.store.GetAccount(ctx, accountID)
	if err != nil {
		return model.PFAccount{}, nil, err
	}
	periods, err := c.store.GetRatePeriods(ctx, account.PFTypeID)
	if err != nil {
		return model.PFAccount{}, nil, fmt.Errorf("failed to load rate periods: %w", err)
	}
	return account, NewRateTable(periods), nil
}

// BulkGenerate creates the initial ledger of an account. It fails with
// ErrDuplicateInitialization when the account already has rows and writes nothing in that case.
func (c *Coordinator) BulkGenerate(ctx context.Context, accountID string, start time.Time, horizon int) ([]model.LedgerRow, error) {
	unlock := c.lock(AccrualKey(accountID))
	defer unlock()

	account, table, err := c.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	existing, err := c.store.GetLedgerRows(ctx, accountID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger rows: %w", err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateInitialization, accountID)
	}

	rows := c.accrual.Generate(account, start, horizon, table)
	if err := c.store.PutLedgerRows(ctx, accountID, rows); err != nil {
		return nil, fmt.Errorf("failed to store generated rows: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"account": accountID,
		"rows":    len(rows),
		"start":   rows[0].Date.Format("2006-01-02"),
	}).Info("generated ledger")

	return c.store.GetLedgerRows(ctx, accountID, time.Time{})
}

// Clear deletes every ledger row of an account so it can be generated again.
func (c *Coordinator) Clear(ctx context.Context, accountID string) error {
	unlock := c.lock(AccrualKey(accountID))
	defer unlock()

	if err := c.store.DeleteLedgerRows(ctx, accountID); err != nil {
		return fmt.Errorf("failed to delete ledger rows: %w", err)
	}
	c.logger.WithField("account", accountID).Info("cleared ledger")
	return nil
}

// RecomputeFrom recomputes every row of the account dated on or after from.
//
// Rows computed before a missing rate are persisted; the *RateNotFoundError is returned after
// that and later rows are not touched.
func (c *Coordinator) RecomputeFrom(ctx context.Context, accountID string, from time.Time) ([]model.LedgerRow, error) {
	key := AccrualKey(accountID)
	unlock := c.lock(key)
	defer unlock()

	var result []model.LedgerRow
	err := c.retryOnConflict(key, func() error {
		account, table, err := c.loadAccount(ctx, accountID)
		if err != nil {
			return err
		}
		history, err := c.store.GetLedgerRows(ctx, accountID, time.Time{})
		if err != nil {
			return fmt.Errorf("failed to load ledger rows: %w", err)
		}
		result, err = c.replay(ctx, account, table, history, from)
		return err
	})
	return result, err
}

// EditRow changes the deposit of one row and recomputes the account from that row on.
func (c *Coordinator) EditRow(ctx context.Context, accountID, rowID string, edit RowEdit) ([]model.LedgerRow, error) {
	key := AccrualKey(accountID)
	unlock := c.lock(key)
	defer unlock()

	var result []model.LedgerRow
	err := c.retryOnConflict(key, func() error {
		account, table, err := c.loadAccount(ctx, accountID)
		if err != nil {
			return err
		}
		history, err := c.store.GetLedgerRows(ctx, accountID, time.Time{})
		if err != nil {
			return fmt.Errorf("failed to load ledger rows: %w", err)
		}

		idx := -1
		for i := range history {
			if history[i].ID == rowID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrRowNotFound, rowID)
		}

		row := &history[idx]
		if edit.DepositDate != nil {
			dd := edit.DepositDate.UTC()
			if !model.FirstOfMonth(dd).Equal(row.Date) {
				return fmt.Errorf("%w: %s not in %s", ErrDepositOutsideMonth,
					dd.Format("2006-01-02"), row.Date.Format("2006-01"))
			}
			row.DepositDate = dd
		}
		if edit.AmountDeposited != nil {
			row.AmountDeposited = *edit.AmountDeposited
		}

		result, err = c.replay(ctx, account, table, history, row.Date)
		return err
	})
	return result, err
}

// AppendRow adds a row after the last row of the account and computes it.
func (c *Coordinator) AppendRow(ctx context.Context, accountID string, depositDate time.Time, amount decimal.Decimal) (model.LedgerRow, error) {
	key := AccrualKey(accountID)
	unlock := c.lock(key)
	defer unlock()

	month := model.FirstOfMonth(depositDate)

	var appended model.LedgerRow
	err := c.retryOnConflict(key, func() error {
		account, table, err := c.loadAccount(ctx, accountID)
		if err != nil {
			return err
		}
		history, err := c.store.GetLedgerRows(ctx, accountID, time.Time{})
		if err != nil {
			return fmt.Errorf("failed to load ledger rows: %w", err)
		}
		if n := len(history); n > 0 && !month.After(history[n-1].Date) {
			return fmt.Errorf("%w: %s", ErrNotAppendable, month.Format("2006-01"))
		}

		history = append(history, model.LedgerRow{
			AccountID:       accountID,
			Date:            month,
			DepositDate:     depositDate.UTC(),
			AmountDeposited: amount,
		})

		computed, err := c.replay(ctx, account, table, history, month)
		if err != nil {
			return err
		}
		appended = computed[len(computed)-1]
		return nil
	})
	return appended, err
}

// replay runs the accrual engine and persists what it computed, including the valid prefix
// before a missing rate.
func (c *Coordinator) replay(ctx context.Context, account model.PFAccount, table *RateTable, history []model.LedgerRow, from time.Time) ([]model.LedgerRow, error) {
	computed, replayErr := c.accrual.Replay(account, history, from, table)

	if len(computed) > 0 {
		if err := c.store.PutLedgerRows(ctx, account.ID, computed); err != nil {
			return nil, fmt.Errorf("failed to store recomputed rows: %w", err)
		}
	}

	fields := logrus.Fields{
		"account": account.ID,
		"from":    from.Format("2006-01-02"),
		"rows":    len(computed),
	}
	if replayErr != nil {
		c.logger.WithFields(fields).WithError(replayErr).Warn("ledger recompute stopped")
		return computed, replayErr
	}
	c.logger.WithFields(fields).Debug("ledger recomputed")

	return computed, nil
}

// RecalculateAll recomputes every row of the given accounts.
func (c *Coordinator) RecalculateAll(ctx context.Context, accountIDs []string) (int, error) {
	return c.RecomputeAccountsFrom(ctx, accountIDs, time.Time{})
}

// RecomputeAccountsFrom runs RecomputeFrom for each account in parallel. Accounts are
// independent: a failure in one does not stop the others, and every failure is returned
// joined, each prefixed with its account.
func (c *Coordinator) RecomputeAccountsFrom(ctx context.Context, accountIDs []string, from time.Time) (int, error) {
	var (
		total atomic.Int64
		mu    sync.Mutex
		errs  []error
	)

	var g errgroup.Group
	g.SetLimit(c.workers)
	for _, id := range accountIDs {
		g.Go(func() error {
			rows, err := c.RecomputeFrom(ctx, id, from)
			total.Add(int64(len(rows)))
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("account %s: %w", id, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(total.Load()), errors.Join(errs...)
}

// Reconcile runs a FIFO matching pass for one user and fund and stores the result.
func (c *Coordinator) Reconcile(ctx context.Context, accountID, instrumentID string) ([]model.FlowEvent, error) {
	return c.matchPass(ctx, accountID, instrumentID, false)
}

// Rematch clears previous matching results and reconciles from scratch. Use it after events
// were backfilled, edited or deleted.
func (c *Coordinator) Rematch(ctx context.Context, accountID, instrumentID string) ([]model.FlowEvent, error) {
	return c.matchPass(ctx, accountID, instrumentID, true)
}

// Reset clears the matching results of one user and fund without reconciling.
func (c *Coordinator) Reset(ctx context.Context, accountID, instrumentID string) ([]model.FlowEvent, error) {
	key := LotKey(accountID, instrumentID)
	unlock := c.lock(key)
	defer unlock()

	var result []model.FlowEvent
	err := c.retryOnConflict(key, func() error {
		events, err := c.store.GetFlowEvents(ctx, accountID, instrumentID)
		if err != nil {
			return fmt.Errorf("failed to load flow events: %w", err)
		}
		result = c.matcher.Reset(events)
		return c.store.PutFlowEvents(ctx, result)
	})
	return result, err
}

func (c *Coordinator) matchPass(ctx context.Context, accountID, instrumentID string, reset bool) ([]model.FlowEvent, error) {
	key := LotKey(accountID, instrumentID)
	unlock := c.lock(key)
	defer unlock()

	var result []model.FlowEvent
	err := c.retryOnConflict(key, func() error {
		events, err := c.store.GetFlowEvents(ctx, accountID, instrumentID)
		if err != nil {
			return fmt.Errorf("failed to load flow events: %w", err)
		}
		if reset {
			events = c.matcher.Reset(events)
		}

		updated, err := c.matcher.Reconcile(events)
		if err != nil {
			return fmt.Errorf("account %s, fund %s: %w", accountID, instrumentID, err)
		}
		if err := c.store.PutFlowEvents(ctx, updated); err != nil {
			return fmt.Errorf("failed to store matched events: %w", err)
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"account": accountID,
		"fund":    instrumentID,
		"events":  len(result),
		"reset":   reset,
	}).Info("reconciled lots")

	return result, nil
}
