package validation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/api/request"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
)

// ValidInvestType maps the accepted investType values to flow directions.
var ValidInvestType = map[string]model.Direction{
	"Invest": model.Acquire,
	"Redeem": model.Dispose,
}

// ValidateFund validates fund metadata.
func ValidateFund(req request.FundRequest) (model.FundMetadata, error) {
	errs := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		errs["mutualFundName"] = "mutualFundName is required"
	}
	if strings.TrimSpace(req.SchemeCode) == "" {
		errs["schemeCode"] = "schemeCode is required"
	}

	return model.FundMetadata{Name: req.Name, SchemeCode: req.SchemeCode}, result(errs)
}

// ValidateMutualFundEntry validates a purchase or redemption and returns it as a flow event.
//
// Required fields:
//   - userId, fundId: Must be valid UUIDs
//   - purchaseDate: Must be in YYYY-MM-DD format
//   - investType: Must be Invest or Redeem
//   - amount: Must be positive
//
// nav and units are optional but must be positive when given.
func ValidateMutualFundEntry(req request.MutualFundEntryRequest) (model.FlowEvent, error) {
	errs := make(map[string]string)

	checkUUID(errs, "userId", req.UserID)
	checkUUID(errs, "fundId", req.FundID)

	e := model.FlowEvent{
		AccountID:    req.UserID,
		InstrumentID: req.FundID,
		Date:         parseDate(errs, "purchaseDate", req.PurchaseDate),
		Amount:       req.Amount,
	}

	dir, ok := ValidInvestType[req.InvestType]
	if !ok {
		errs["investType"] = "investType must be Invest or Redeem"
	}
	e.Direction = dir

	if !req.Amount.IsPositive() {
		errs["amount"] = "amount must be positive"
	}
	if req.NAV != nil {
		if !req.NAV.IsPositive() {
			errs["nav"] = "nav must be positive"
		}
		e.UnitPrice = decimal.NewNullDecimal(*req.NAV)
	}
	if req.Units != nil {
		if !req.Units.IsPositive() {
			errs["units"] = "units must be positive"
		}
		e.Quantity = decimal.NewNullDecimal(*req.Units)
	}

	return e, result(errs)
}
