package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
)

func TestAccrualEngine_ComputeRow_DepositDay(t *testing.T) {
	e := NewAccrualEngine()
	prev := &model.LedgerRow{Date: day(2020, 5, 1), ClosingBalance: dec("1000")}
	p := period("p", "pf", day(2020, 4, 1), time.Time{}, "12")

	tests := []struct {
		name        string
		depositDay  int
		wantLowest  string
		wantClosing string
		wantInt     string
	}{
		{"deposit on the 5th counts", 5, "1500", "1500", "15"},
		{"deposit on the 6th does not", 6, "1000", "1500", "10"},
		{"deposit on the 1st counts", 1, "1500", "1500", "15"},
		{"deposit on the 31st does not", 31, "1000", "1500", "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := model.LedgerRow{
				Date:            day(2020, 7, 1),
				DepositDate:     day(2020, 7, tt.depositDay),
				AmountDeposited: dec("500"),
			}
			got := e.ComputeRow(prev, row, p, decimal.Zero)

			assert.True(t, got.LowestBalance.Equal(dec(tt.wantLowest)), "lowest = %s", got.LowestBalance)
			assert.True(t, got.ClosingBalance.Equal(dec(tt.wantClosing)), "closing = %s", got.ClosingBalance)
			assert.True(t, got.MonthInterest.Equal(dec(tt.wantInt)), "interest = %s", got.MonthInterest)
			assert.Equal(t, "p", got.RatePeriodID)
		})
	}
}

func TestAccrualEngine_ComputeRow_FirstRow(t *testing.T) {
	e := NewAccrualEngine()
	p := period("p", "pf", day(2020, 4, 1), time.Time{}, "8")

	// WHY: the first row has nothing to carry; a late deposit only shows in the closing balance
	row := model.LedgerRow{Date: day(2020, 4, 1), DepositDate: day(2020, 4, 10), AmountDeposited: dec("2000")}
	got := e.ComputeRow(nil, row, p, dec("999"))

	assert.True(t, got.LowestBalance.Equal(dec("999")), "april capitalization still applies")
	assert.True(t, got.ClosingBalance.Equal(dec("2999")))
}

func TestAccrualEngine_ComputeRow_Rounding(t *testing.T) {
	e := NewAccrualEngine()
	p := period("p", "pf", day(2020, 4, 1), time.Time{}, "7.1")
	prev := &model.LedgerRow{ClosingBalance: dec("1234")}

	got := e.ComputeRow(prev, model.LedgerRow{Date: day(2020, 6, 1)}, p, decimal.Zero)

	// 1234 * 7.1 / 1200 = 7.3011...
	assert.True(t, got.MonthInterest.Equal(dec("7")), "interest = %s", got.MonthInterest)
}

func TestAccrualEngine_ScenarioA(t *testing.T) {
	e := NewAccrualEngine()
	account := model.PFAccount{ID: "acc-1", PFTypeID: "pf", FiscalAligned: true}
	table := NewRateTable([]model.RatePeriod{
		period("fy20", "pf", day(2020, 4, 1), day(2021, 4, 1), "7.1"),
	})

	rows := e.Generate(account, day(2020, 1, 15), 12, table)
	require.Len(t, rows, 12)
	assert.Equal(t, day(2020, 4, 1), rows[0].Date)
	assert.True(t, rows[0].LowestBalance.IsZero())
	assert.True(t, rows[0].ClosingBalance.IsZero())
	assert.Equal(t, "fy20", rows[0].RatePeriodID)

	rows[1].DepositDate = day(2020, 5, 3)
	rows[1].AmountDeposited = dec("1000")

	computed, err := e.Replay(account, rows, day(2020, 5, 1), table)
	require.NoError(t, err)
	require.Len(t, computed, 11)

	may := computed[0]
	assert.Equal(t, day(2020, 5, 1), may.Date)
	assert.True(t, may.LowestBalance.Equal(dec("1000")))
	assert.True(t, may.ClosingBalance.Equal(dec("1000")))
	assert.True(t, may.MonthInterest.Equal(dec("6")), "interest = %s", may.MonthInterest)
}

func TestAccrualEngine_ScenarioB_AprilCapitalization(t *testing.T) {
	e := NewAccrualEngine()
	account := model.PFAccount{ID: "acc-1", PFTypeID: "pf"}
	table := NewRateTable([]model.RatePeriod{
		period("p", "pf", day(2020, 1, 1), time.Time{}, "12"),
	})

	rows := e.Generate(account, day(2020, 3, 1), 14, table)
	rows[0].DepositDate = day(2020, 3, 10)
	rows[0].AmountDeposited = dec("6000")

	computed, err := e.Replay(account, rows, time.Time{}, table)
	require.NoError(t, err)
	require.Len(t, computed, 14)

	total := decimal.Zero
	for _, r := range computed[1:13] { // April 2020 - March 2021
		assert.True(t, r.MonthInterest.Equal(dec("60")), "%s interest = %s", r.Date, r.MonthInterest)
		total = total.Add(r.MonthInterest)
	}
	require.True(t, total.Equal(dec("720")))

	april := computed[13]
	assert.Equal(t, day(2021, 4, 1), april.Date)
	assert.True(t, april.LowestBalance.Equal(dec("6720")), "lowest = %s", april.LowestBalance)
	assert.True(t, april.ClosingBalance.Equal(dec("6720")))
	assert.True(t, april.MonthInterest.Equal(dec("67")))

	// Replaying only the April row seeds the previous year's sum from the stored history.
	again, err := e.Replay(account, computed, day(2021, 4, 1), table)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.True(t, again[0].LowestBalance.Equal(april.LowestBalance))
}

func TestAccrualEngine_Replay_MissingRate(t *testing.T) {
	e := NewAccrualEngine()
	account := model.PFAccount{ID: "acc-1", PFTypeID: "pf"}
	table := NewRateTable([]model.RatePeriod{
		period("a", "pf", day(2020, 4, 1), day(2020, 7, 1), "8"),
		period("b", "pf", day(2020, 8, 1), time.Time{}, "8"),
	})
	rows := e.Generate(account, day(2020, 4, 1), 7, table)
	assert.Empty(t, rows[3].RatePeriodID, "july is in the gap")

	computed, err := e.Replay(account, rows, time.Time{}, table)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateNotFound))
	var rnf *RateNotFoundError
	require.True(t, errors.As(err, &rnf))
	assert.Equal(t, "acc-1", rnf.AccountID)
	assert.Equal(t, day(2020, 7, 1), rnf.Date)
	assert.Len(t, computed, 3, "only rows before the gap are returned")
}

func TestAccrualEngine_Replay_DoesNotMutateInput(t *testing.T) {
	e := NewAccrualEngine()
	account := model.PFAccount{ID: "acc-1", PFTypeID: "pf"}
	table := NewRateTable([]model.RatePeriod{period("p", "pf", day(2020, 1, 1), time.Time{}, "8")})

	rows := e.Generate(account, day(2020, 4, 1), 3, table)
	rows[0].AmountDeposited = dec("100")
	rows[0].DepositDate = day(2020, 4, 20)

	_, err := e.Replay(account, rows, time.Time{}, table)
	require.NoError(t, err)
	assert.True(t, rows[0].ClosingBalance.IsZero())
}

func TestAccrualEngine_Generate(t *testing.T) {
	e := NewAccrualEngine()
	table := NewRateTable(nil)

	t.Run("not fiscal aligned keeps january", func(t *testing.T) {
		rows := e.Generate(model.PFAccount{ID: "a"}, day(2021, 1, 15), 0, table)
		require.Len(t, rows, DefaultHorizonMonths)
		assert.Equal(t, day(2021, 1, 1), rows[0].Date)
		assert.Equal(t, day(2035, 12, 1), rows[len(rows)-1].Date)
		assert.Equal(t, "a", rows[0].AccountID)
	})

	t.Run("fiscal aligned after march is not moved", func(t *testing.T) {
		rows := e.Generate(model.PFAccount{ID: "a", FiscalAligned: true}, day(2021, 6, 20), 2, table)
		assert.Equal(t, day(2021, 6, 1), rows[0].Date)
		assert.Equal(t, day(2021, 7, 1), rows[1].Date)
	})

	t.Run("fiscal aligned in march moves to april", func(t *testing.T) {
		rows := e.Generate(model.PFAccount{ID: "a", FiscalAligned: true}, day(2021, 3, 31), 1, table)
		assert.Equal(t, day(2021, 4, 1), rows[0].Date)
	})
}

func TestFiscalYear(t *testing.T) {
	assert.Equal(t, 2019, fiscalYear(day(2020, 3, 31)))
	assert.Equal(t, 2020, fiscalYear(day(2020, 4, 1)))
	assert.Equal(t, 2020, fiscalYear(day(2020, 12, 1)))
}
