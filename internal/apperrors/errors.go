package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrUserNotFound indicates that a user with the given ID does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrPFTypeNotFound indicates that a PF type with the given ID does not exist.
	ErrPFTypeNotFound = errors.New("pf type not found")

	// ErrRatePeriodNotFound indicates that a PF interest rate period does not exist.
	ErrRatePeriodNotFound = errors.New("pf interest period not found")

	// ErrPFAccountNotFound indicates that a PF account with the given ID does not exist.
	ErrPFAccountNotFound = errors.New("pf account not found")

	// ErrPFEntryNotFound indicates that a PF ledger row with the given ID does not exist.
	ErrPFEntryNotFound = errors.New("pf entry not found")

	// ErrFundNotFound indicates that a mutual fund with the given ID does not exist.
	ErrFundNotFound = errors.New("fund not found")

	// ErrMutualFundEntryNotFound indicates that a mutual fund purchase or redemption does not exist.
	ErrMutualFundEntryNotFound = errors.New("mutual fund entry not found")

	// ErrGoldEntryNotFound indicates that a gold entry does not exist.
	ErrGoldEntryNotFound = errors.New("gold entry not found")

	// ErrGoldPriceNotFound indicates that no gold price has been recorded.
	ErrGoldPriceNotFound = errors.New("gold price not found")

	ErrNAVNotFound = errors.New("nav not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrDuplicateEntry indicates that an entity with the same unique constraint already exists.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrOverlappingRatePeriod indicates a new or changed rate period overlaps another one of the same PF type.
	ErrOverlappingRatePeriod = errors.New("interest period overlaps an existing period")

	// ErrInvalidDateRange indicates that the end date is not after the start date.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrFundInUse indicates that a fund cannot be deleted while entries reference it.
	ErrFundInUse = errors.New("fund is in use")

	// ErrMissingRequiredField indicates that a required field is missing or empty.
	ErrMissingRequiredField = errors.New("missing required field")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
var (
	ErrFailedToRetrieve       = errors.New("failed to retrieve data")
	ErrFailedToGetVersionInfo = errors.New("failed to get version information")
	ErrFailedToRecalculate    = errors.New("failed to recalculate")
	ErrNAVLookupFailed        = errors.New("nav lookup failed")
)
