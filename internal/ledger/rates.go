package ledger

import (
	"sort"
	"time"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
)

// RateTable answers which interest rate period applies on a given date.
// Periods are expected not to overlap; the table is built once per computation.
type RateTable struct {
	periods []model.RatePeriod
}

// NewRateTable copies the periods and sorts them by start date.
func NewRateTable(periods []model.RatePeriod) *RateTable {
	sorted := make([]model.RatePeriod, len(periods))
	copy(sorted, periods)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate)
	})
	return &RateTable{periods: sorted}
}

// RateOn returns the period covering date. The second return value is false when the date
// is before the first period, after the last one, or inside a gap.
func (t *RateTable) RateOn(date time.Time) (model.RatePeriod, bool) {
	// first period starting after date; the candidate is the one before it
	i := sort.Search(len(t.periods), func(i int) bool {
		return t.periods[i].StartDate.After(date)
	})
	if i == 0 {
		return model.RatePeriod{}, false
	}
	p := t.periods[i-1]
	if !p.Covers(date) {
		return model.RatePeriod{}, false
	}
	return p, true
}

// Len returns the number of periods in the table.
func (t *RateTable) Len() int {
	return len(t.periods)
}
