package ledger

import (
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func period(id, accountType string, start, end time.Time, rate string) model.RatePeriod {
	return model.RatePeriod{ID: id, AccountType: accountType, StartDate: start, EndDate: end, Rate: dec(rate)}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestCoordinator(t *testing.T) (*Coordinator, *memStore) {
	t.Helper()
	store := newMemStore()
	return NewCoordinator(store, quietLogger(), 4), store
}
