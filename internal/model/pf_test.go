package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLedgerRow_JSONOmitsUnsetDepositDate(t *testing.T) {
	row := LedgerRow{
		ID:              "row-1",
		Date:            time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC),
		AmountDeposited: decimal.Zero,
	}

	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal() returned unexpected error: %v", err)
	}
	if strings.Contains(string(data), "depositDate") {
		t.Errorf("Expected no depositDate for a row without deposit, got %s", data)
	}

	row.DepositDate = time.Date(2020, 4, 3, 0, 0, 0, 0, time.UTC)
	data, err = json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal() returned unexpected error: %v", err)
	}
	if !strings.Contains(string(data), `"depositDate":"2020-04-03T00:00:00Z"`) {
		t.Errorf("Expected depositDate 2020-04-03, got %s", data)
	}
}

func TestRatePeriod_JSONOmitsOpenEnd(t *testing.T) {
	p := RatePeriod{StartDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() returned unexpected error: %v", err)
	}
	if strings.Contains(string(data), "endDate") {
		t.Errorf("Expected no endDate for an open-ended period, got %s", data)
	}
}
