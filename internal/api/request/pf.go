package request

import "github.com/shopspring/decimal"

type CreateRatePeriodRequest struct {
	PFTypeID       string          `json:"pfTypeId"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate,omitempty"`
	RateOfInterest decimal.Decimal `json:"rateOfInterest"`
}

type UpdateRatePeriodRequest struct {
	StartDate      *string          `json:"startDate,omitempty"`
	EndDate        *string          `json:"endDate,omitempty"`
	RateOfInterest *decimal.Decimal `json:"rateOfInterest,omitempty"`
}

type CreatePFAccountRequest struct {
	UserID        string `json:"userId"`
	PFTypeID      string `json:"pfTypeId"`
	AccountNumber string `json:"accountNumber,omitempty"`
}

// BulkCreateRequest asks for Months empty ledger rows starting at the month of StartDate.
type BulkCreateRequest struct {
	StartDate string `json:"startDate"`
	Months    int    `json:"months"`
}

type AppendEntryRequest struct {
	DepositDate     string          `json:"depositDate"`
	AmountDeposited decimal.Decimal `json:"amountDeposited"`
}

type UpdateEntryRequest struct {
	DepositDate     *string          `json:"depositDate,omitempty"`
	AmountDeposited *decimal.Decimal `json:"amountDeposited,omitempty"`
}
