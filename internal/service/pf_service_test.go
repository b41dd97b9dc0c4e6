package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/encryption"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/ledger"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/testutil"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPFService_RatePeriods(t *testing.T) {
	t.Run("overlapping period is rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPFService(t, db)
		testutil.NewRatePeriod(testutil.PFTypeID).
			WithRange(testutil.Date(t, "2020-04-01"), testutil.Date(t, "2021-04-01")).
			Build(t, db)

		_, err := svc.CreateRatePeriod(context.Background(), model.RatePeriod{
			AccountType: testutil.PFTypeID,
			StartDate:   testutil.Date(t, "2021-03-01"),
			Rate:        dec("8.5"),
		})
		if !errors.Is(err, apperrors.ErrOverlappingRatePeriod) {
			t.Errorf("Expected ErrOverlappingRatePeriod, got %v", err)
		}
	})

	t.Run("adjacent periods do not overlap", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPFService(t, db)
		testutil.NewRatePeriod(testutil.PFTypeID).
			WithRange(testutil.Date(t, "2020-04-01"), testutil.Date(t, "2021-04-01")).
			Build(t, db)

		created, err := svc.CreateRatePeriod(context.Background(), model.RatePeriod{
			AccountType: testutil.PFTypeID,
			StartDate:   testutil.Date(t, "2021-04-01"),
			Rate:        dec("8.5"),
		})
		if err != nil {
			t.Fatalf("CreateRatePeriod() returned unexpected error: %v", err)
		}
		if created.ID == "" {
			t.Error("Expected created period to have an ID")
		}
	})

	t.Run("end before start is rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPFService(t, db)

		_, err := svc.CreateRatePeriod(context.Background(), model.RatePeriod{
			AccountType: testutil.PFTypeID,
			StartDate:   testutil.Date(t, "2021-04-01"),
			EndDate:     testutil.Date(t, "2021-01-01"),
			Rate:        dec("8.5"),
		})
		if !errors.Is(err, apperrors.ErrInvalidDateRange) {
			t.Errorf("Expected ErrInvalidDateRange, got %v", err)
		}
	})

	t.Run("unknown pf type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPFService(t, db)

		_, err := svc.CreateRatePeriod(context.Background(), model.RatePeriod{
			AccountType: testutil.MakeID(),
			StartDate:   testutil.Date(t, "2021-04-01"),
			Rate:        dec("8.5"),
		})
		if !errors.Is(err, apperrors.ErrPFTypeNotFound) {
			t.Errorf("Expected ErrPFTypeNotFound, got %v", err)
		}
	})

	t.Run("update may keep its own range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPFService(t, db)
		p := testutil.NewRatePeriod(testutil.PFTypeID).
			WithRange(testutil.Date(t, "2020-04-01"), testutil.Date(t, "2021-04-01")).
			Build(t, db)

		p.Rate = dec("7.1")
		updated, err := svc.UpdateRatePeriod(context.Background(), p)
		if err != nil {
			t.Fatalf("UpdateRatePeriod() returned unexpected error: %v", err)
		}
		if !updated.Rate.Equal(dec("7.1")) {
			t.Errorf("Expected rate 7.1, got %s", updated.Rate)
		}
	})
}

func TestPFService_Accounts(t *testing.T) {
	// WHY: account numbers are personal data and are stored as fernet tokens when a key is set.
	t.Run("account number is encrypted at rest", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		key, err := encryption.GenerateKey()
		if err != nil {
			t.Fatalf("GenerateKey() failed: %v", err)
		}
		cipher, err := encryption.New(key)
		if err != nil {
			t.Fatalf("encryption.New() failed: %v", err)
		}
		svc := testutil.NewTestPFServiceWithCipher(t, db, cipher)
		user := testutil.NewUser().Build(t, db)

		account, err := svc.CreateAccount(context.Background(), user.ID, testutil.PFTypeID, "MH/BAN/0012345/000/0000123")
		if err != nil {
			t.Fatalf("CreateAccount() returned unexpected error: %v", err)
		}

		var stored string
		if err := db.QueryRow(`SELECT account_number FROM pf_account WHERE id = ?`, account.ID).Scan(&stored); err != nil {
			t.Fatalf("Failed to read stored account number: %v", err)
		}
		if stored == "MH/BAN/0012345/000/0000123" {
			t.Error("Expected account number to be stored encrypted")
		}

		loaded, err := svc.GetAccount(context.Background(), account.ID)
		if err != nil {
			t.Fatalf("GetAccount() returned unexpected error: %v", err)
		}
		if loaded.AccountNumber != "MH/BAN/0012345/000/0000123" {
			t.Errorf("Expected decrypted account number, got %q", loaded.AccountNumber)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPFService(t, db)

		_, err := svc.CreateAccount(context.Background(), testutil.MakeID(), testutil.PFTypeID, "")
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			t.Errorf("Expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("seeding types is idempotent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPFService(t, db)

		added, err := svc.SeedPFTypes(context.Background())
		if err != nil {
			t.Fatalf("SeedPFTypes() returned unexpected error: %v", err)
		}
		if added != 0 {
			t.Errorf("Expected migrated types to be kept, got %d added", added)
		}
		testutil.AssertRowCount(t, db, "pf_type", 3)
	})
}

// setupLedger creates a PF account with a 7.1% period for FY 2020-21 and a three month ledger
// starting April 2020.
func setupLedger(t *testing.T) (*testutil.PFLedgerFixture, []model.LedgerRow) {
	t.Helper()

	f := testutil.NewPFLedgerFixture(t)
	rows, err := f.Service.BulkCreate(context.Background(), f.Account.ID, testutil.Date(t, "2020-01-15"), 3)
	if err != nil {
		t.Fatalf("BulkCreate() returned unexpected error: %v", err)
	}
	return f, rows
}

func TestPFService_Ledger(t *testing.T) {
	t.Run("bulk create aligns to April", func(t *testing.T) {
		_, rows := setupLedger(t)

		if len(rows) != 3 {
			t.Fatalf("Expected 3 rows, got %d", len(rows))
		}
		if !rows[0].Date.Equal(testutil.Date(t, "2020-04-01")) {
			t.Errorf("Expected first row 2020-04-01, got %s", rows[0].Date)
		}
		if !rows[0].LowestBalance.IsZero() || !rows[0].ClosingBalance.IsZero() {
			t.Error("Expected zero balances on a new ledger")
		}
	})

	t.Run("bulk create twice fails", func(t *testing.T) {
		f, _ := setupLedger(t)

		_, err := f.Service.BulkCreate(context.Background(), f.Account.ID, testutil.Date(t, "2020-04-01"), 3)
		if !errors.Is(err, ledger.ErrDuplicateInitialization) {
			t.Errorf("Expected ErrDuplicateInitialization, got %v", err)
		}
		testutil.AssertRowCount(t, f.DB, "pf_entry", 3)
	})

	t.Run("editing a deposit recomputes later rows", func(t *testing.T) {
		f, rows := setupLedger(t)

		depositDate := testutil.Date(t, "2020-05-03")
		amount := dec("1000")
		updated, err := f.Service.UpdateEntry(context.Background(), rows[1].ID, ledger.RowEdit{
			DepositDate:     &depositDate,
			AmountDeposited: &amount,
		})
		if err != nil {
			t.Fatalf("UpdateEntry() returned unexpected error: %v", err)
		}
		if len(updated) != 2 {
			t.Fatalf("Expected May and June recomputed, got %d rows", len(updated))
		}

		may, june := updated[0], updated[1]
		if !may.LowestBalance.Equal(dec("1000")) || !may.ClosingBalance.Equal(dec("1000")) {
			t.Errorf("May: expected lowest/closing 1000, got %s/%s", may.LowestBalance, may.ClosingBalance)
		}
		if !may.MonthInterest.Equal(dec("6")) {
			t.Errorf("May: expected interest 6, got %s", may.MonthInterest)
		}
		if !june.LowestBalance.Equal(dec("1000")) {
			t.Errorf("June: expected lowest 1000, got %s", june.LowestBalance)
		}

		stored, err := f.Service.GetEntries(context.Background(), f.Account.ID)
		if err != nil {
			t.Fatalf("GetEntries() returned unexpected error: %v", err)
		}
		if !stored[2].MonthInterest.Equal(dec("6")) {
			t.Errorf("Expected stored June interest 6, got %s", stored[2].MonthInterest)
		}
	})

	t.Run("deposit after the 5th only reaches the closing balance", func(t *testing.T) {
		f, rows := setupLedger(t)

		depositDate := testutil.Date(t, "2020-05-06")
		amount := dec("1000")
		updated, err := f.Service.UpdateEntry(context.Background(), rows[1].ID, ledger.RowEdit{
			DepositDate:     &depositDate,
			AmountDeposited: &amount,
		})
		if err != nil {
			t.Fatalf("UpdateEntry() returned unexpected error: %v", err)
		}
		if !updated[0].LowestBalance.IsZero() || !updated[0].ClosingBalance.Equal(dec("1000")) {
			t.Errorf("Expected lowest 0 and closing 1000, got %s/%s", updated[0].LowestBalance, updated[0].ClosingBalance)
		}
		if !updated[0].MonthInterest.IsZero() {
			t.Errorf("Expected no interest, got %s", updated[0].MonthInterest)
		}
	})

	t.Run("deposit date outside the month is rejected", func(t *testing.T) {
		f, rows := setupLedger(t)

		depositDate := testutil.Date(t, "2020-06-03")
		_, err := f.Service.UpdateEntry(context.Background(), rows[1].ID, ledger.RowEdit{DepositDate: &depositDate})
		if !errors.Is(err, ledger.ErrDepositOutsideMonth) {
			t.Errorf("Expected ErrDepositOutsideMonth, got %v", err)
		}
	})

	t.Run("unknown entry", func(t *testing.T) {
		f, _ := setupLedger(t)

		amount := dec("1")
		_, err := f.Service.UpdateEntry(context.Background(), testutil.MakeID(), ledger.RowEdit{AmountDeposited: &amount})
		if !errors.Is(err, apperrors.ErrPFEntryNotFound) {
			t.Errorf("Expected ErrPFEntryNotFound, got %v", err)
		}
	})

	t.Run("append computes the new month", func(t *testing.T) {
		f, _ := setupLedger(t)

		row, err := f.Service.AppendEntry(context.Background(), f.Account.ID, testutil.Date(t, "2020-07-02"), dec("500"))
		if err != nil {
			t.Fatalf("AppendEntry() returned unexpected error: %v", err)
		}
		if !row.Date.Equal(testutil.Date(t, "2020-07-01")) {
			t.Errorf("Expected July row, got %s", row.Date)
		}
		if !row.LowestBalance.Equal(dec("500")) {
			t.Errorf("Expected lowest 500, got %s", row.LowestBalance)
		}
		if !row.MonthInterest.Equal(dec("3")) {
			t.Errorf("Expected interest 3, got %s", row.MonthInterest)
		}
	})

	t.Run("append inside the ledger is rejected", func(t *testing.T) {
		f, _ := setupLedger(t)

		_, err := f.Service.AppendEntry(context.Background(), f.Account.ID, testutil.Date(t, "2020-06-02"), dec("500"))
		if !errors.Is(err, ledger.ErrNotAppendable) {
			t.Errorf("Expected ErrNotAppendable, got %v", err)
		}
	})

	t.Run("append without a covering rate fails and writes nothing", func(t *testing.T) {
		f, _ := setupLedger(t)

		_, err := f.Service.AppendEntry(context.Background(), f.Account.ID, testutil.Date(t, "2021-06-02"), dec("500"))
		if !errors.Is(err, ledger.ErrRateNotFound) {
			t.Errorf("Expected ErrRateNotFound, got %v", err)
		}
		testutil.AssertRowCount(t, f.DB, "pf_entry", 3)
	})

	t.Run("recalculate all walks every account", func(t *testing.T) {
		f, _ := setupLedger(t)
		second := testutil.NewUser().Build(t, f.DB)
		other := testutil.NewPFAccount(second.ID).Build(t, f.DB)
		if _, err := f.Service.BulkCreate(context.Background(), other.ID, testutil.Date(t, "2020-04-01"), 2); err != nil {
			t.Fatalf("BulkCreate() returned unexpected error: %v", err)
		}

		n, err := f.Service.RecalculateAll(context.Background())
		if err != nil {
			t.Fatalf("RecalculateAll() returned unexpected error: %v", err)
		}
		if n != 5 {
			t.Errorf("Expected 5 rows recalculated, got %d", n)
		}
	})

	t.Run("clearing allows a new bulk create", func(t *testing.T) {
		f, _ := setupLedger(t)

		if err := f.Service.DeleteEntries(context.Background(), f.Account.ID); err != nil {
			t.Fatalf("DeleteEntries() returned unexpected error: %v", err)
		}
		testutil.AssertRowCount(t, f.DB, "pf_entry", 0)

		if _, err := f.Service.BulkCreate(context.Background(), f.Account.ID, testutil.Date(t, "2020-04-01"), 1); err != nil {
			t.Errorf("BulkCreate() after clear returned unexpected error: %v", err)
		}
	})
}

func TestPFService_RateChangeRecomputesLedgers(t *testing.T) {
	depositIntoMay := func(t *testing.T) (*testutil.PFLedgerFixture, []model.LedgerRow) {
		t.Helper()
		f, rows := setupLedger(t)
		depositDate := testutil.Date(t, "2020-05-03")
		amount := dec("1000")
		if _, err := f.Service.UpdateEntry(context.Background(), rows[1].ID, ledger.RowEdit{
			DepositDate:     &depositDate,
			AmountDeposited: &amount,
		}); err != nil {
			t.Fatalf("UpdateEntry() returned unexpected error: %v", err)
		}
		return f, rows
	}

	t.Run("updated rate changes stored interest", func(t *testing.T) {
		f, _ := depositIntoMay(t)

		p := f.Period
		p.Rate = dec("12")
		if _, err := f.Service.UpdateRatePeriod(context.Background(), p); err != nil {
			t.Fatalf("UpdateRatePeriod() returned unexpected error: %v", err)
		}

		stored, err := f.Service.GetEntries(context.Background(), f.Account.ID)
		if err != nil {
			t.Fatalf("GetEntries() returned unexpected error: %v", err)
		}
		if len(stored) != 3 {
			t.Fatalf("Expected 3 rows, got %d", len(stored))
		}
		// WHY: 1000 * 12 / 1200 = 10, where the old 7.1% rate gave 6
		for _, row := range stored[1:] {
			if !row.MonthInterest.Equal(dec("10")) {
				t.Errorf("Expected interest 10 for %s, got %s", row.Date.Format("2006-01"), row.MonthInterest)
			}
		}
	})

	t.Run("new period for another type leaves ledger alone", func(t *testing.T) {
		f, _ := depositIntoMay(t)

		if _, err := f.Service.CreateRatePeriod(context.Background(), model.RatePeriod{
			AccountType: testutil.PPFTypeID,
			StartDate:   testutil.Date(t, "2020-04-01"),
			Rate:        dec("12"),
		}); err != nil {
			t.Fatalf("CreateRatePeriod() returned unexpected error: %v", err)
		}

		stored, err := f.Service.GetEntries(context.Background(), f.Account.ID)
		if err != nil {
			t.Fatalf("GetEntries() returned unexpected error: %v", err)
		}
		if !stored[2].MonthInterest.Equal(dec("6")) {
			t.Errorf("Expected June interest 6, got %s", stored[2].MonthInterest)
		}
	})

	t.Run("deleted period surfaces missing rate", func(t *testing.T) {
		f, _ := depositIntoMay(t)

		err := f.Service.DeleteRatePeriod(context.Background(), f.Period.ID)
		if !errors.Is(err, ledger.ErrRateNotFound) {
			t.Errorf("Expected ErrRateNotFound, got %v", err)
		}

		if _, err := f.Service.GetRatePeriod(context.Background(), f.Period.ID); !errors.Is(err, apperrors.ErrRatePeriodNotFound) {
			t.Errorf("Expected the period to be deleted, got %v", err)
		}
	})
}
