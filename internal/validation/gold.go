package validation

import (
	"time"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/api/request"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
)

// ValidateGoldEntry validates a gold purchase. id is optional and selects the entry to update.
func ValidateGoldEntry(req request.GoldEntryRequest) (model.GoldEntry, error) {
	errs := make(map[string]string)

	if req.ID != "" {
		checkUUID(errs, "id", req.ID)
	}
	g := model.GoldEntry{
		ID:           req.ID,
		PurchaseDate: parseDate(errs, "purchaseDate", req.PurchaseDate),
		Grams:        req.Grams,
		Price:        req.Price,
		Comments:     req.Comments,
	}
	if !req.Grams.IsPositive() {
		errs["grams"] = "grams must be positive"
	}
	if req.Price.IsNegative() {
		errs["price"] = "price must not be negative"
	}

	return g, result(errs)
}

// ValidateGoldPrice validates a gold price. A missing date means today.
func ValidateGoldPrice(req request.GoldPriceRequest, today time.Time) (model.GoldPrice, error) {
	errs := make(map[string]string)

	p := model.GoldPrice{Price: req.Price, Date: today}
	if req.Date != "" {
		p.Date = parseDate(errs, "date", req.Date)
	}
	if !req.Price.IsPositive() {
		errs["price"] = "price must be positive"
	}

	return p, result(errs)
}
