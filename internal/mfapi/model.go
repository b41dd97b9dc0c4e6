package mfapi

import (
	"time"

	"github.com/shopspring/decimal"
)

// Response is the raw JSON of the mfapi.in scheme endpoint.
// Dates come as dd-mm-yyyy and NAVs as strings; Data is newest first.
type Response struct {
	Meta struct {
		FundHouse  string `json:"fund_house"`
		SchemeName string `json:"scheme_name"`
		SchemeCode int64  `json:"scheme_code"`
	} `json:"meta"`
	Data []struct {
		Date string `json:"date"`
		NAV  string `json:"nav"`
	} `json:"data"`
	Status string `json:"status"`
}

// Quote is one parsed NAV observation.
type Quote struct {
	SchemeCode string          `json:"schemeCode"`
	SchemeName string          `json:"schemeName,omitempty"`
	Date       time.Time       `json:"date"`
	NAV        decimal.Decimal `json:"nav"`
}
