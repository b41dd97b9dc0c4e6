package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PFType is a provident-fund account type (PF, PPF, VPF).
// FiscalAligned types start their ledger on April 1 when opened in January-March.
type PFType struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	FiscalAligned bool   `json:"fiscalAligned"`
}

// RatePeriod is an interest rate valid on the half-open interval [StartDate, EndDate).
// A zero EndDate means the period is open-ended.
// Rate is a percentage per annum.
type RatePeriod struct {
	ID          string          `json:"id"`
	AccountType string          `json:"pfTypeId"`
	StartDate   time.Time       `json:"startDate"`
	EndDate     time.Time       `json:"endDate,omitzero"`
	Rate        decimal.Decimal `json:"rateOfInterest"`
}

// Covers reports whether the date falls inside the period.
func (p RatePeriod) Covers(date time.Time) bool {
	if date.Before(p.StartDate) {
		return false
	}
	return p.EndDate.IsZero() || date.Before(p.EndDate)
}

// Overlaps reports whether two periods share at least one day.
func (p RatePeriod) Overlaps(o RatePeriod) bool {
	startsBeforeOtherEnds := o.EndDate.IsZero() || p.StartDate.Before(o.EndDate)
	otherStartsBeforeEnd := p.EndDate.IsZero() || o.StartDate.Before(p.EndDate)
	return startsBeforeOtherEnds && otherStartsBeforeEnd
}

// PFAccount is one user's account of a given PF type. The ledger rows hang off it.
type PFAccount struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	PFTypeID      string    `json:"pfTypeId"`
	PFTypeName    string    `json:"pfTypeName"`
	FiscalAligned bool      `json:"fiscalAligned"`
	AccountNumber string    `json:"accountNumber,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// LedgerRow is one month of a PF account ledger.
//
// Date is always the first day of the month. DepositDate, when set, is the actual day the
// deposit was made inside that month and drives the day-of-month rule.
type LedgerRow struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"accountId"`
	Date            time.Time       `json:"date"`
	DepositDate     time.Time       `json:"depositDate,omitzero"`
	AmountDeposited decimal.Decimal `json:"amountDeposited"`
	LowestBalance   decimal.Decimal `json:"lowestBalance"`
	ClosingBalance  decimal.Decimal `json:"balance"`
	MonthInterest   decimal.Decimal `json:"monthInterest"`
	RatePeriodID    string          `json:"pfInterestId,omitempty"`
	Version         int64           `json:"version"`
}

// Day returns the day of month used by the lowest-balance rule.
// Rows without a deposit date count as deposited on the 1st.
func (r LedgerRow) Day() int {
	if r.DepositDate.IsZero() {
		return 1
	}
	return r.DepositDate.Day()
}

// FirstOfMonth normalizes a date to the first calendar day of its month in UTC.
func FirstOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
