package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
)

func TestRateTable_RateOn(t *testing.T) {
	// deliberately unsorted; NewRateTable sorts
	table := NewRateTable([]model.RatePeriod{
		period("p3", "pf", day(2022, 4, 1), day(2023, 4, 1), "8.15"),
		period("p1", "pf", day(2020, 4, 1), day(2021, 4, 1), "7.1"),
		period("p2", "pf", day(2021, 4, 1), day(2021, 10, 1), "8.1"),
		period("p4", "pf", day(2023, 4, 1), model.RatePeriod{}.EndDate, "8.25"),
	})
	require.Equal(t, 4, table.Len())

	tests := []struct {
		name   string
		date   string
		wantID string
		wantOK bool
	}{
		{"before first period", "2020-03-31", "", false},
		{"first day of period", "2020-04-01", "p1", true},
		{"last day of period", "2021-03-31", "p1", true},
		{"end date is exclusive", "2021-04-01", "p2", true},
		{"gap between periods", "2021-12-01", "", false},
		{"inside later period", "2022-09-15", "p3", true},
		{"open ended period", "2035-01-01", "p4", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, err := time.Parse("2006-01-02", tt.date)
			require.NoError(t, err)

			got, ok := table.RateOn(date)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestRateTable_Empty(t *testing.T) {
	table := NewRateTable(nil)
	_, ok := table.RateOn(day(2020, 4, 1))
	assert.False(t, ok)
}

func TestRatePeriod_Overlaps(t *testing.T) {
	a := period("a", "pf", day(2020, 4, 1), day(2021, 4, 1), "7.1")

	assert.False(t, a.Overlaps(period("b", "pf", day(2021, 4, 1), day(2022, 4, 1), "8")), "adjacent periods")
	assert.True(t, a.Overlaps(period("c", "pf", day(2021, 3, 1), day(2022, 4, 1), "8")))
	assert.True(t, a.Overlaps(period("d", "pf", day(2019, 1, 1), model.RatePeriod{}.EndDate, "8")), "open ended")
	assert.False(t, a.Overlaps(period("e", "pf", day(2019, 1, 1), day(2020, 4, 1), "8")))
}
