package request

import "github.com/shopspring/decimal"

type GoldEntryRequest struct {
	ID           string          `json:"id,omitempty"`
	PurchaseDate string          `json:"purchaseDate"`
	Grams        decimal.Decimal `json:"grams"`
	Price        decimal.Decimal `json:"price"`
	Comments     string          `json:"comments,omitempty"`
}

type GoldPriceRequest struct {
	Price decimal.Decimal `json:"price"`
	Date  string          `json:"date,omitempty"`
}
