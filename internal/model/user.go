package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts go over the wire as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// User owns PF accounts, mutual fund entries and gold entries.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// GoldEntry is a physical gold purchase.
type GoldEntry struct {
	ID           string          `json:"id"`
	PurchaseDate time.Time       `json:"purchaseDate"`
	Grams        decimal.Decimal `json:"grams"`
	Price        decimal.Decimal `json:"price"`
	Comments     string          `json:"comments"`
}

// GoldPrice is a recorded gold price per gram.
type GoldPrice struct {
	ID    string          `json:"id"`
	Price decimal.Decimal `json:"price"`
	Date  time.Time       `json:"date"`
}
