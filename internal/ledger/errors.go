package ledger

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds surfaced by the ledger engines and the coordinator.
// All of them are returned to the caller; none is defaulted or swallowed.
var (
	// ErrRateNotFound matches any *RateNotFoundError via errors.Is.
	ErrRateNotFound = errors.New("no interest rate period covers date")

	// ErrDuplicateInitialization indicates bulk generation was requested for an account
	// that already has ledger rows.
	ErrDuplicateInitialization = errors.New("ledger rows already exist for account")

	// ErrInvalidEventOrdering indicates an event that is not fully matched sorts before an
	// event of the same direction that already has matched units. A Reset is required
	// before reconciling again.
	ErrInvalidEventOrdering = errors.New("event dated before an already matched event")

	// ErrConcurrentMutation indicates a version mismatch while writing rows or events.
	ErrConcurrentMutation = errors.New("concurrent mutation detected")

	// ErrIncompleteEvent indicates a flow event without a quantity (units not yet derived).
	ErrIncompleteEvent = errors.New("flow event has no quantity")

	// ErrRowNotFound indicates a ledger row id that does not belong to the account.
	ErrRowNotFound = errors.New("ledger row not found")

	// ErrNotAppendable indicates an appended month is not after the last existing row.
	ErrNotAppendable = errors.New("month is not after the last ledger row")

	// ErrDepositOutsideMonth indicates a deposit date that does not fall inside the row's month.
	ErrDepositOutsideMonth = errors.New("deposit date outside the row's month")
)

// RateNotFoundError reports the account and row date for which no rate period applies.
type RateNotFoundError struct {
	AccountID   string
	AccountType string
	Date        time.Time
}

func (e *RateNotFoundError) Error() string {
	return fmt.Sprintf("no interest rate period covers %s (account: %s, type: %s)",
		e.Date.Format("2006-01-02"), e.AccountID, e.AccountType)
}

// Is lets errors.Is(err, ErrRateNotFound) match.
func (e *RateNotFoundError) Is(target error) bool {
	return target == ErrRateNotFound
}
