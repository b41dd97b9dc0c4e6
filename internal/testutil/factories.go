package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
)

const dateLayout = "2006-01-02"

// Date parses a YYYY-MM-DD string as a UTC date and fails the test on error.
func Date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		t.Fatalf("Invalid test date %q: %v", s, err)
	}
	return d
}

// UserBuilder provides a fluent interface for creating test users.
//
// Example usage:
//
//	user := testutil.NewUser().Build(t, db)
//	user := testutil.NewUser().WithName("Asha").Build(t, db)
type UserBuilder struct {
	ID   string
	Name string
}

// NewUser creates a UserBuilder with a unique name.
func NewUser() *UserBuilder {
	return &UserBuilder{
		ID:   MakeID(),
		Name: MakeUserName("User"),
	}
}

func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.Name = name
	return b
}

// Build creates the user in the database and returns it.
func (b *UserBuilder) Build(t *testing.T, db *sql.DB) model.User {
	t.Helper()

	created := time.Now().UTC().Truncate(time.Second)
	_, err := db.Exec(`INSERT INTO user (id, name, created_at) VALUES (?, ?, ?)`,
		b.ID, b.Name, created.Format(time.RFC3339))
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return model.User{ID: b.ID, Name: b.Name, CreatedAt: created}
}

// RatePeriodBuilder creates interest rate periods for a PF type.
//
// Example usage:
//
//	testutil.NewRatePeriod(testutil.PFTypeID).
//	    WithRange(testutil.Date(t, "2023-04-01"), time.Time{}).
//	    WithRate(12).
//	    Build(t, db)
type RatePeriodBuilder struct {
	ID       string
	PFTypeID string
	Start    time.Time
	End      time.Time
	Rate     decimal.Decimal
}

// NewRatePeriod creates an open-ended 8.1% period starting 2000-01-01.
func NewRatePeriod(pfTypeID string) *RatePeriodBuilder {
	return &RatePeriodBuilder{
		ID:       MakeID(),
		PFTypeID: pfTypeID,
		Start:    time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		Rate:     decimal.RequireFromString("8.1"),
	}
}

// WithRange sets the half-open range [start, end). A zero end leaves the period open.
func (b *RatePeriodBuilder) WithRange(start, end time.Time) *RatePeriodBuilder {
	b.Start = start
	b.End = end
	return b
}

func (b *RatePeriodBuilder) WithRate(rate float64) *RatePeriodBuilder {
	b.Rate = decimal.NewFromFloat(rate)
	return b
}

// Build creates the period in the database and returns it.
func (b *RatePeriodBuilder) Build(t *testing.T, db *sql.DB) model.RatePeriod {
	t.Helper()

	var end sql.NullString
	if !b.End.IsZero() {
		end = sql.NullString{String: b.End.Format(dateLayout), Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO pf_interest (id, pf_type_id, start_date, end_date, rate_of_interest)
		VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.PFTypeID, b.Start.Format(dateLayout), end, b.Rate.String())
	if err != nil {
		t.Fatalf("Failed to create test rate period: %v", err)
	}

	return model.RatePeriod{
		ID:          b.ID,
		AccountType: b.PFTypeID,
		StartDate:   b.Start,
		EndDate:     b.End,
		Rate:        b.Rate,
	}
}

// PFAccountBuilder creates a PF account for a user.
type PFAccountBuilder struct {
	ID            string
	UserID        string
	PFTypeID      string
	AccountNumber string
}

// NewPFAccount creates a builder for an account of the seeded PF type.
func NewPFAccount(userID string) *PFAccountBuilder {
	return &PFAccountBuilder{
		ID:       MakeID(),
		UserID:   userID,
		PFTypeID: PFTypeID,
	}
}

func (b *PFAccountBuilder) WithType(pfTypeID string) *PFAccountBuilder {
	b.PFTypeID = pfTypeID
	return b
}

// WithAccountNumber stores the number as given, without encryption.
func (b *PFAccountBuilder) WithAccountNumber(number string) *PFAccountBuilder {
	b.AccountNumber = number
	return b
}

// Build creates the account in the database and returns it.
func (b *PFAccountBuilder) Build(t *testing.T, db *sql.DB) model.PFAccount {
	t.Helper()

	created := time.Now().UTC().Truncate(time.Second)
	_, err := db.Exec(`
		INSERT INTO pf_account (id, user_id, pf_type_id, account_number, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.PFTypeID, b.AccountNumber, created.Format(time.RFC3339))
	if err != nil {
		t.Fatalf("Failed to create test PF account: %v", err)
	}

	return model.PFAccount{
		ID:            b.ID,
		UserID:        b.UserID,
		PFTypeID:      b.PFTypeID,
		FiscalAligned: true,
		AccountNumber: b.AccountNumber,
		CreatedAt:     created,
	}
}

// FundBuilder creates mutual fund metadata.
//
// Example usage:
//
//	fund := testutil.NewFund().WithSchemeCode("119551").Build(t, db)
type FundBuilder struct {
	ID         string
	Name       string
	SchemeCode string
}

// NewFund creates a FundBuilder with a unique name and scheme code.
func NewFund() *FundBuilder {
	return &FundBuilder{
		ID:         MakeID(),
		Name:       MakeFundName("Test Fund"),
		SchemeCode: MakeSchemeCode(),
	}
}

func (b *FundBuilder) WithName(name string) *FundBuilder {
	b.Name = name
	return b
}

func (b *FundBuilder) WithSchemeCode(code string) *FundBuilder {
	b.SchemeCode = code
	return b
}

// Build creates the fund in the database and returns it.
func (b *FundBuilder) Build(t *testing.T, db *sql.DB) model.FundMetadata {
	t.Helper()

	_, err := db.Exec(`INSERT INTO fund_metadata (id, name, scheme_code) VALUES (?, ?, ?)`,
		b.ID, b.Name, b.SchemeCode)
	if err != nil {
		t.Fatalf("Failed to create test fund: %v", err)
	}

	return model.FundMetadata{ID: b.ID, Name: b.Name, SchemeCode: b.SchemeCode}
}

// MutualFundEntryBuilder creates unmatched purchase or redemption entries.
//
// Example usage:
//
//	testutil.NewMutualFundEntry(user.ID, fund.ID).
//	    Redeem().
//	    WithDate(testutil.Date(t, "2024-03-01")).
//	    WithUnits(40, 12).
//	    Build(t, db)
type MutualFundEntryBuilder struct {
	ID        string
	UserID    string
	FundID    string
	Date      time.Time
	Direction model.Direction
	Amount    decimal.Decimal
	NAV       decimal.NullDecimal
	Units     decimal.NullDecimal
}

// NewMutualFundEntry creates a builder for a 100 unit purchase at NAV 10 on 2024-01-01.
func NewMutualFundEntry(userID, fundID string) *MutualFundEntryBuilder {
	return &MutualFundEntryBuilder{
		ID:        MakeID(),
		UserID:    userID,
		FundID:    fundID,
		Date:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Direction: model.Acquire,
		Amount:    decimal.NewFromInt(1000),
		NAV:       decimal.NewNullDecimal(decimal.NewFromInt(10)),
		Units:     decimal.NewNullDecimal(decimal.NewFromInt(100)),
	}
}

func (b *MutualFundEntryBuilder) Redeem() *MutualFundEntryBuilder {
	b.Direction = model.Dispose
	return b
}

func (b *MutualFundEntryBuilder) WithDate(date time.Time) *MutualFundEntryBuilder {
	b.Date = date
	return b
}

// WithUnits sets units and NAV and derives the amount from them.
func (b *MutualFundEntryBuilder) WithUnits(units, nav float64) *MutualFundEntryBuilder {
	u := decimal.NewFromFloat(units)
	n := decimal.NewFromFloat(nav)
	b.Units = decimal.NewNullDecimal(u)
	b.NAV = decimal.NewNullDecimal(n)
	b.Amount = u.Mul(n)
	return b
}

// WithoutNAV leaves NAV and units empty, as for an entry created before its NAV was known.
func (b *MutualFundEntryBuilder) WithoutNAV(amount float64) *MutualFundEntryBuilder {
	b.Amount = decimal.NewFromFloat(amount)
	b.NAV = decimal.NullDecimal{}
	b.Units = decimal.NullDecimal{}
	return b
}

// Build creates the entry in the database and returns it.
func (b *MutualFundEntryBuilder) Build(t *testing.T, db *sql.DB) model.FlowEvent {
	t.Helper()

	created := time.Now().UTC().Truncate(time.Second)
	var seq int64
	err := db.QueryRow(`
		INSERT INTO mutual_fund_entry (id, seq, user_id, fund_id, purchase_date, invest_type, amount, nav, units, created_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM mutual_fund_entry), ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING seq`,
		b.ID, b.UserID, b.FundID, b.Date.Format(dateLayout), string(b.Direction),
		b.Amount, b.NAV, b.Units, created.Format(time.RFC3339),
	).Scan(&seq)
	if err != nil {
		t.Fatalf("Failed to create test mutual fund entry: %v", err)
	}

	return model.FlowEvent{
		ID:           b.ID,
		AccountID:    b.UserID,
		InstrumentID: b.FundID,
		Date:         b.Date,
		Seq:          seq,
		Direction:    b.Direction,
		Amount:       b.Amount,
		UnitPrice:    b.NAV,
		Quantity:     b.Units,
		Version:      1,
		CreatedAt:    created,
	}
}

// CreateNAV stores a NAV observation for a fund.
func CreateNAV(t *testing.T, db *sql.DB, fundID string, date time.Time, nav float64) model.NAV {
	t.Helper()

	price := decimal.NewFromFloat(nav)
	_, err := db.Exec(`INSERT INTO fund_nav (fund_id, date, nav) VALUES (?, ?, ?)`,
		fundID, date.Format(dateLayout), price.String())
	if err != nil {
		t.Fatalf("Failed to create test NAV: %v", err)
	}
	return model.NAV{FundID: fundID, Date: date, Price: price}
}

// CreateGoldEntry stores a gold purchase.
func CreateGoldEntry(t *testing.T, db *sql.DB, date time.Time, grams, price float64) model.GoldEntry {
	t.Helper()

	g := model.GoldEntry{
		ID:           MakeID(),
		PurchaseDate: date,
		Grams:        decimal.NewFromFloat(grams),
		Price:        decimal.NewFromFloat(price),
	}
	_, err := db.Exec(`INSERT INTO gold_entry (id, purchase_date, grams, price) VALUES (?, ?, ?, ?)`,
		g.ID, date.Format(dateLayout), g.Grams.String(), g.Price.String())
	if err != nil {
		t.Fatalf("Failed to create test gold entry: %v", err)
	}
	return g
}
