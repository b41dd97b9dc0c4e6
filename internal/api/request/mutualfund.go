package request

import "github.com/shopspring/decimal"

type FundRequest struct {
	Name       string `json:"mutualFundName"`
	SchemeCode string `json:"schemeCode"`
}

// MutualFundEntryRequest creates or replaces a purchase or redemption.
// NAV and Units are optional; units are derived when only NAV is given.
type MutualFundEntryRequest struct {
	UserID       string           `json:"userId"`
	FundID       string           `json:"fundId"`
	PurchaseDate string           `json:"purchaseDate"`
	InvestType   string           `json:"investType"`
	Amount       decimal.Decimal  `json:"amount"`
	NAV          *decimal.Decimal `json:"nav,omitempty"`
	Units        *decimal.Decimal `json:"units,omitempty"`
}
