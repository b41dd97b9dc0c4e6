package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/ledger"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/testutil"
)

func entryByID(t *testing.T, events []model.FlowEvent, id string) model.FlowEvent {
	t.Helper()
	for _, e := range events {
		if e.ID == id {
			return e
		}
	}
	t.Fatalf("entry %s not found", id)
	return model.FlowEvent{}
}

func TestMutualFundService_CreateEntry(t *testing.T) {
	t.Run("derives units from amount and NAV", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMutualFundService(t, db)
		user := testutil.NewUser().Build(t, db)
		fund := testutil.NewFund().Build(t, db)

		e, err := svc.CreateEntry(context.Background(), model.FlowEvent{
			AccountID:    user.ID,
			InstrumentID: fund.ID,
			Date:         testutil.Date(t, "2024-01-10"),
			Direction:    model.Acquire,
			Amount:       dec("1000"),
			UnitPrice:    decimal.NewNullDecimal(dec("12.5")),
		})
		if err != nil {
			t.Fatalf("CreateEntry() returned unexpected error: %v", err)
		}
		if !e.Quantity.Valid || !e.Quantity.Decimal.Equal(dec("80")) {
			t.Errorf("Expected 80 units, got %v", e.Quantity)
		}
		if e.FundName != fund.Name {
			t.Errorf("Expected fund name %s, got %s", fund.Name, e.FundName)
		}
	})

	t.Run("without NAV keeps units empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMutualFundService(t, db)
		user := testutil.NewUser().Build(t, db)
		fund := testutil.NewFund().Build(t, db)

		e, err := svc.CreateEntry(context.Background(), model.FlowEvent{
			AccountID:    user.ID,
			InstrumentID: fund.ID,
			Date:         testutil.Date(t, "2024-01-10"),
			Direction:    model.Acquire,
			Amount:       dec("1000"),
		})
		if err != nil {
			t.Fatalf("CreateEntry() returned unexpected error: %v", err)
		}
		if e.Quantity.Valid {
			t.Errorf("Expected no units, got %s", e.Quantity.Decimal)
		}
	})

	t.Run("unknown fund", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMutualFundService(t, db)
		user := testutil.NewUser().Build(t, db)

		_, err := svc.CreateEntry(context.Background(), model.FlowEvent{
			AccountID:    user.ID,
			InstrumentID: testutil.MakeID(),
			Date:         testutil.Date(t, "2024-01-10"),
			Direction:    model.Acquire,
			Amount:       dec("1000"),
		})
		if !errors.Is(err, apperrors.ErrFundNotFound) {
			t.Errorf("Expected ErrFundNotFound, got %v", err)
		}
	})
}

func TestMutualFundService_BackfillUnits(t *testing.T) {
	// WHY: entries saved before their NAV was known pick up the stored NAV of that day or the
	// closest earlier day.
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestMutualFundService(t, db)
	user := testutil.NewUser().Build(t, db)
	fund := testutil.NewFund().Build(t, db)
	entry := testutil.NewMutualFundEntry(user.ID, fund.ID).
		WithDate(testutil.Date(t, "2024-01-10")).
		WithoutNAV(1000).
		Build(t, db)
	unknown := testutil.NewMutualFundEntry(user.ID, fund.ID).
		WithDate(testutil.Date(t, "2023-12-01")).
		WithoutNAV(500).
		Build(t, db)
	testutil.CreateNAV(t, db, fund.ID, testutil.Date(t, "2024-01-05"), 20)

	n, err := svc.BackfillUnits(context.Background())
	if err != nil {
		t.Fatalf("BackfillUnits() returned unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 entry backfilled, got %d", n)
	}

	entries, err := svc.GetEntriesByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetEntriesByUser() returned unexpected error: %v", err)
	}
	filled := entryByID(t, entries, entry.ID)
	if !filled.Quantity.Valid || !filled.Quantity.Decimal.Equal(dec("50")) {
		t.Errorf("Expected 50 units, got %v", filled.Quantity)
	}
	if untouched := entryByID(t, entries, unknown.ID); untouched.Quantity.Valid {
		t.Error("Expected entry before the first NAV to stay without units")
	}
}

func TestMutualFundService_Matching(t *testing.T) {
	setup := func(t *testing.T) (*testutil.MFFixture, model.FlowEvent, model.FlowEvent) {
		t.Helper()
		f := testutil.NewMFFixture(t)
		buy := testutil.NewMutualFundEntry(f.User.ID, f.Fund.ID).Build(t, f.DB)
		sell := testutil.NewMutualFundEntry(f.User.ID, f.Fund.ID).
			Redeem().
			WithDate(testutil.Date(t, "2024-03-01")).
			WithUnits(40, 12).
			Build(t, f.DB)
		return f, buy, sell
	}

	t.Run("reconcile consumes the oldest lot", func(t *testing.T) {
		f, buy, sell := setup(t)

		results, err := f.Service.Reconcile(context.Background(), f.User.ID, f.Fund.ID)
		if err != nil {
			t.Fatalf("Reconcile() returned unexpected error: %v", err)
		}
		if len(results) != 1 || results[0].Events != 2 {
			t.Fatalf("Unexpected results %+v", results)
		}

		entries, err := f.Service.GetEntriesByUser(context.Background(), f.User.ID)
		if err != nil {
			t.Fatalf("GetEntriesByUser() returned unexpected error: %v", err)
		}
		b := entryByID(t, entries, buy.ID)
		if !b.MatchedQuantity.Equal(dec("40")) || !b.RealizedPrincipal.Equal(dec("400")) || !b.RealizedGain.Equal(dec("80")) {
			t.Errorf("Buy: expected 40/400/80, got %s/%s/%s", b.MatchedQuantity, b.RealizedPrincipal, b.RealizedGain)
		}
		if b.IsFullyMatched {
			t.Error("Buy: expected lot to stay open")
		}
		if s := entryByID(t, entries, sell.ID); !s.IsFullyMatched {
			t.Error("Sell: expected redemption fully matched")
		}
	})

	t.Run("editing a matched fund rematches it", func(t *testing.T) {
		f, buy, sell := setup(t)
		if _, err := f.Service.Reconcile(context.Background(), f.User.ID, f.Fund.ID); err != nil {
			t.Fatalf("Reconcile() returned unexpected error: %v", err)
		}

		sell.Amount = dec("720")
		sell.Quantity = decimal.NewNullDecimal(dec("60"))
		if _, err := f.Service.UpdateEntry(context.Background(), sell); err != nil {
			t.Fatalf("UpdateEntry() returned unexpected error: %v", err)
		}

		entries, err := f.Service.GetEntriesByUser(context.Background(), f.User.ID)
		if err != nil {
			t.Fatalf("GetEntriesByUser() returned unexpected error: %v", err)
		}
		b := entryByID(t, entries, buy.ID)
		if !b.MatchedQuantity.Equal(dec("60")) || !b.RealizedGain.Equal(dec("120")) {
			t.Errorf("Expected 60 matched with gain 120, got %s/%s", b.MatchedQuantity, b.RealizedGain)
		}
	})

	t.Run("deleting the redemption releases the lot", func(t *testing.T) {
		f, buy, sell := setup(t)
		if _, err := f.Service.Reconcile(context.Background(), f.User.ID, f.Fund.ID); err != nil {
			t.Fatalf("Reconcile() returned unexpected error: %v", err)
		}

		if err := f.Service.DeleteEntry(context.Background(), sell.ID); err != nil {
			t.Fatalf("DeleteEntry() returned unexpected error: %v", err)
		}

		entries, err := f.Service.GetEntriesByUser(context.Background(), f.User.ID)
		if err != nil {
			t.Fatalf("GetEntriesByUser() returned unexpected error: %v", err)
		}
		if b := entryByID(t, entries, buy.ID); !b.MatchedQuantity.IsZero() {
			t.Errorf("Expected lot released, got %s matched", b.MatchedQuantity)
		}
	})

	t.Run("incomplete entry fails one pair but not the others", func(t *testing.T) {
		f, _, _ := setup(t)
		other := testutil.NewFund().Build(t, f.DB)
		testutil.NewMutualFundEntry(f.User.ID, other.ID).WithoutNAV(100).Build(t, f.DB)

		_, err := f.Service.Reconcile(context.Background(), f.User.ID, other.ID)
		if !errors.Is(err, ledger.ErrIncompleteEvent) {
			t.Errorf("Expected ErrIncompleteEvent, got %v", err)
		}

		results, err := f.Service.Reconcile(context.Background(), "", "")
		if err != nil {
			t.Fatalf("Reconcile() over all pairs returned unexpected error: %v", err)
		}
		failed := 0
		for _, r := range results {
			if r.Error != "" {
				failed++
			}
		}
		if len(results) != 2 || failed != 1 {
			t.Errorf("Expected 2 results with 1 failure, got %+v", results)
		}
	})

	t.Run("user without fund is rejected", func(t *testing.T) {
		f, _, _ := setup(t)

		_, err := f.Service.Rematch(context.Background(), f.User.ID, "")
		if !errors.Is(err, apperrors.ErrMissingRequiredField) {
			t.Errorf("Expected ErrMissingRequiredField, got %v", err)
		}
	})

	t.Run("force null clears the selection", func(t *testing.T) {
		f, _, _ := setup(t)

		n, err := f.Service.ForceNull(context.Background(), f.User.ID, f.Fund.ID)
		if err != nil {
			t.Fatalf("ForceNull() returned unexpected error: %v", err)
		}
		if n != 2 {
			t.Errorf("Expected 2 entries cleared, got %d", n)
		}
	})
}

func TestMutualFundService_LookupNAV(t *testing.T) {
	t.Run("known scheme", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		client := testutil.NewMockNAVClient().WithQuote("119551", testutil.Date(t, "2024-05-02"), 45.67)
		svc := testutil.NewTestMutualFundServiceWithClient(t, db, client)

		quote, ok := svc.LookupNAV(context.Background(), "119551")
		if !ok {
			t.Fatal("Expected quote to be found")
		}
		if !quote.NAV.Equal(dec("45.67")) {
			t.Errorf("Expected NAV 45.67, got %s", quote.NAV)
		}
	})

	// WHY: the form that asks for a NAV shows blanks instead of an error when the lookup fails.
	t.Run("failed lookup returns blanks", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		client := testutil.NewMockNAVClient().WithError(errors.New("connection refused"))
		svc := testutil.NewTestMutualFundServiceWithClient(t, db, client)

		quote, ok := svc.LookupNAV(context.Background(), "119551")
		if ok {
			t.Error("Expected lookup to report not found")
		}
		if quote.SchemeCode != "119551" || !quote.NAV.IsZero() {
			t.Errorf("Expected blank quote for 119551, got %+v", quote)
		}
	})
}
