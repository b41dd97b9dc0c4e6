package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
)

// DefaultHorizonMonths is the length of a bulk generated ledger: 15 years of monthly rows.
const DefaultHorizonMonths = 180

// lateDepositDay is the last day of the month on which a deposit still earns that month's interest.
const lateDepositDay = 5

var monthsPerYearPercent = decimal.NewFromInt(1200)

// AccrualEngine computes PF ledger rows. It holds no state; every method works on the
// snapshot it is given.
type AccrualEngine struct{}

// NewAccrualEngine creates an AccrualEngine.
func NewAccrualEngine() *AccrualEngine {
	return &AccrualEngine{}
}

// fiscalYear returns the calendar year in which the April-March financial year containing
// date starts.
func fiscalYear(date time.Time) int {
	if date.Month() < time.April {
		return date.Year() - 1
	}
	return date.Year()
}

// ComputeRow derives the balances and interest of row from the previous row.
//
// prev is nil for the first row of an account. capitalized is the interest accrued over the
// previous April-March year; it is only added when row falls in April.
func (e *AccrualEngine) ComputeRow(prev *model.LedgerRow, row model.LedgerRow, period model.RatePeriod, capitalized decimal.Decimal) model.LedgerRow {
	day := row.Day()

	lowest := decimal.Zero
	if prev != nil {
		lowest = prev.ClosingBalance
		if day <= lateDepositDay {
			lowest = lowest.Add(row.AmountDeposited)
		}
	}

	if row.Date.Month() == time.April {
		lowest = lowest.Add(capitalized)
	}

	closing := lowest
	if day > lateDepositDay {
		closing = lowest.Add(row.AmountDeposited)
	}

	row.LowestBalance = lowest
	row.ClosingBalance = closing
	row.MonthInterest = lowest.Mul(period.Rate).Div(monthsPerYearPercent).Round(0)
	row.RatePeriodID = period.ID
	return row
}

// Replay recomputes every row of history dated on or after from, in ascending date order.
//
// history must contain all rows of the account. Rows before from are not modified; they seed
// the previous closing balance and the per-year interest sums used for April capitalization.
//
// When no rate covers a row, Replay returns the rows computed before it together with a
// *RateNotFoundError. Those rows are valid and may be persisted; later rows are left alone.
func (e *AccrualEngine) Replay(account model.PFAccount, history []model.LedgerRow, from time.Time, table *RateTable) ([]model.LedgerRow, error) {
	rows := make([]model.LedgerRow, len(history))
	copy(rows, history)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})

	from = model.FirstOfMonth(from)
	start := sort.Search(len(rows), func(i int) bool {
		return !rows[i].Date.Before(from)
	})

	interestByYear := make(map[int]decimal.Decimal)
	for _, r := range rows[:start] {
		fy := fiscalYear(r.Date)
		interestByYear[fy] = interestByYear[fy].Add(r.MonthInterest)
	}

	var prev *model.LedgerRow
	if start > 0 {
		seed := rows[start-1]
		prev = &seed
	}

	computed := make([]model.LedgerRow, 0, len(rows)-start)
	for _, r := range rows[start:] {
		period, ok := table.RateOn(r.Date)
		if !ok {
			return computed, &RateNotFoundError{
				AccountID:   account.ID,
				AccountType: account.PFTypeID,
				Date:        r.Date,
			}
		}

		fy := fiscalYear(r.Date)
		next := e.ComputeRow(prev, r, period, interestByYear[fy-1])
		interestByYear[fy] = interestByYear[fy].Add(next.MonthInterest)

		computed = append(computed, next)
		prev = &computed[len(computed)-1]
	}

	return computed, nil
}

// Generate builds the initial ledger of an account: horizon monthly rows with no deposits.
//
// start is normalized to the first of its month. Fiscal-aligned accounts opened in
// January-March start on April 1 of the same year. Rows record the covering rate period when
// one is known; no interest accrues on a zero balance so a missing rate is not an error here.
func (e *AccrualEngine) Generate(account model.PFAccount, start time.Time, horizon int, table *RateTable) []model.LedgerRow {
	if horizon <= 0 {
		horizon = DefaultHorizonMonths
	}

	first := model.FirstOfMonth(start)
	if account.FiscalAligned && first.Month() < time.April {
		first = time.Date(first.Year(), time.April, 1, 0, 0, 0, 0, time.UTC)
	}

	rows := make([]model.LedgerRow, horizon)
	for i := range rows {
		date := first.AddDate(0, i, 0)
		rows[i] = model.LedgerRow{
			AccountID:       account.ID,
			Date:            date,
			AmountDeposited: decimal.Zero,
			LowestBalance:   decimal.Zero,
			ClosingBalance:  decimal.Zero,
			MonthInterest:   decimal.Zero,
		}
		if period, ok := table.RateOn(date); ok {
			rows[i].RatePeriodID = period.ID
		}
	}
	return rows
}
