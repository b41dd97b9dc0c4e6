package validation

import (
	"time"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/api/request"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/ledger"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
)

// maxBulkMonths caps a single bulk creation at fifty years of rows.
const maxBulkMonths = 600

// ValidateCreateRatePeriod validates a rate period creation request and returns the period.
//
// Required fields:
//   - pfTypeId: Must be a valid UUID
//   - startDate: Must be in YYYY-MM-DD format
//   - rateOfInterest: Must not be negative
//
// endDate is optional; when given it must be after startDate.
func ValidateCreateRatePeriod(req request.CreateRatePeriodRequest) (model.RatePeriod, error) {
	errs := make(map[string]string)

	checkUUID(errs, "pfTypeId", req.PFTypeID)
	p := model.RatePeriod{
		AccountType: req.PFTypeID,
		StartDate:   parseDate(errs, "startDate", req.StartDate),
		Rate:        req.RateOfInterest,
	}
	if req.EndDate != "" {
		p.EndDate = parseDate(errs, "endDate", req.EndDate)
	}
	checkPeriod(errs, p)

	return p, result(errs)
}

// ValidateUpdateRatePeriod applies an update request onto the current period.
// Omitted fields keep their value; an empty endDate makes the period open-ended.
func ValidateUpdateRatePeriod(current model.RatePeriod, req request.UpdateRatePeriodRequest) (model.RatePeriod, error) {
	errs := make(map[string]string)

	p := current
	if req.StartDate != nil {
		p.StartDate = parseDate(errs, "startDate", *req.StartDate)
	}
	if req.EndDate != nil {
		p.EndDate = time.Time{}
		if *req.EndDate != "" {
			p.EndDate = parseDate(errs, "endDate", *req.EndDate)
		}
	}
	if req.RateOfInterest != nil {
		p.Rate = *req.RateOfInterest
	}
	checkPeriod(errs, p)

	return p, result(errs)
}

func checkPeriod(errs map[string]string, p model.RatePeriod) {
	if p.Rate.IsNegative() {
		errs["rateOfInterest"] = "rateOfInterest must not be negative"
	}
	if !p.EndDate.IsZero() && !p.StartDate.IsZero() && !p.EndDate.After(p.StartDate) {
		errs["endDate"] = "endDate must be after startDate"
	}
}

// ValidateCreatePFAccount validates an account creation request.
func ValidateCreatePFAccount(req request.CreatePFAccountRequest) error {
	errs := make(map[string]string)
	checkUUID(errs, "userId", req.UserID)
	checkUUID(errs, "pfTypeId", req.PFTypeID)
	return result(errs)
}

// ValidateBulkCreate validates a bulk creation request and returns the first month and count.
func ValidateBulkCreate(req request.BulkCreateRequest) (time.Time, int, error) {
	errs := make(map[string]string)

	start := parseDate(errs, "startDate", req.StartDate)
	if req.Months < 1 || req.Months > maxBulkMonths {
		errs["months"] = "months must be between 1 and 600"
	}

	return start, req.Months, result(errs)
}

// ValidateAppendEntry validates a request to add the next month to a ledger.
func ValidateAppendEntry(req request.AppendEntryRequest) (time.Time, error) {
	errs := make(map[string]string)

	date := parseDate(errs, "depositDate", req.DepositDate)
	if req.AmountDeposited.IsNegative() {
		errs["amountDeposited"] = "amountDeposited must not be negative"
	}

	return date, result(errs)
}

// ValidateUpdateEntry validates a ledger row edit. At least one field must be given.
func ValidateUpdateEntry(req request.UpdateEntryRequest) (ledger.RowEdit, error) {
	errs := make(map[string]string)
	var edit ledger.RowEdit

	if req.DepositDate == nil && req.AmountDeposited == nil {
		errs["body"] = "depositDate or amountDeposited is required"
	}
	if req.DepositDate != nil {
		d := parseDate(errs, "depositDate", *req.DepositDate)
		edit.DepositDate = &d
	}
	if req.AmountDeposited != nil {
		if req.AmountDeposited.IsNegative() {
			errs["amountDeposited"] = "amountDeposited must not be negative"
		}
		edit.AmountDeposited = req.AmountDeposited
	}

	return edit, result(errs)
}
