package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction tells whether a flow event adds units (Acquire) or removes them (Dispose).
type Direction string

const (
	Acquire Direction = "Invest"
	Dispose Direction = "Redeem"
)

// FundMetadata describes a mutual fund. SchemeCode is the identifier used for NAV lookups.
type FundMetadata struct {
	ID         string `json:"id"`
	Name       string `json:"mutualFundName"`
	SchemeCode string `json:"schemeCode"`
}

// FlowEvent is a mutual fund purchase (Acquire) or redemption (Dispose) for one user and fund.
//
// Quantity and UnitPrice may be unset until the NAV is known; such events cannot be matched.
// RealizedPrincipal and RealizedGain are only accumulated on Acquire events.
type FlowEvent struct {
	ID                string              `json:"id"`
	AccountID         string              `json:"userId"`
	InstrumentID      string              `json:"fundId"`
	FundName          string              `json:"fundName,omitempty"`
	Date              time.Time           `json:"purchaseDate"`
	Seq               int64               `json:"-"`
	Direction         Direction           `json:"investType"`
	Amount            decimal.Decimal     `json:"amount"`
	UnitPrice         decimal.NullDecimal `json:"nav"`
	Quantity          decimal.NullDecimal `json:"units"`
	MatchedQuantity   decimal.Decimal     `json:"matchedUnits"`
	IsFullyMatched    bool                `json:"isRedeemed"`
	RealizedPrincipal decimal.Decimal     `json:"principalRedeem"`
	RealizedGain      decimal.Decimal     `json:"interestRedeem"`
	Version           int64               `json:"version"`
	CreatedAt         time.Time           `json:"createdAt"`
}

// Remaining returns the units of the event not yet matched against the other side.
func (e FlowEvent) Remaining() decimal.Decimal {
	if !e.Quantity.Valid {
		return decimal.Zero
	}
	return e.Quantity.Decimal.Sub(e.MatchedQuantity)
}

// NAV is a net asset value observation for a fund.
type NAV struct {
	FundID string          `json:"fundId"`
	Date   time.Time       `json:"date"`
	Price  decimal.Decimal `json:"nav"`
}
