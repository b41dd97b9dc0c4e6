package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/ledger"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/validation"
)

// maxBodyBytes limits request bodies; ledger requests are small.
const maxBodyBytes = 1 << 20

// parseJSON decodes the request body into T, rejecting unknown fields and trailing data.
func parseJSON[T any](r *http.Request) (T, error) {
	var v T
	if r.Body == nil {
		return v, errors.New("request body is empty")
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, errors.New("request body is empty")
		}
		return v, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return v, errors.New("request body must contain a single JSON object")
	}
	return v, nil
}

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	response.RespondJSON(w, status, data)
}

var notFoundErrors = []error{
	apperrors.ErrUserNotFound,
	apperrors.ErrPFTypeNotFound,
	apperrors.ErrRatePeriodNotFound,
	apperrors.ErrPFAccountNotFound,
	apperrors.ErrPFEntryNotFound,
	apperrors.ErrFundNotFound,
	apperrors.ErrMutualFundEntryNotFound,
	apperrors.ErrGoldEntryNotFound,
	apperrors.ErrGoldPriceNotFound,
	apperrors.ErrNAVNotFound,
	ledger.ErrRowNotFound,
}

var conflictErrors = []error{
	apperrors.ErrDuplicateEntry,
	apperrors.ErrOverlappingRatePeriod,
	apperrors.ErrFundInUse,
	ledger.ErrDuplicateInitialization,
	ledger.ErrConcurrentMutation,
	ledger.ErrInvalidEventOrdering,
	ledger.ErrNotAppendable,
}

var badRequestErrors = []error{
	apperrors.ErrInvalidUUID,
	apperrors.ErrEmptyID,
	apperrors.ErrInvalidDateRange,
	apperrors.ErrMissingRequiredField,
	ledger.ErrIncompleteEvent,
	ledger.ErrDepositOutsideMonth,
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusFor maps service and ledger errors to an HTTP status.
func statusFor(err error) int {
	var vErr *validation.Error
	switch {
	case errors.As(err, &vErr), matchesAny(err, badRequestErrors):
		return http.StatusBadRequest
	case matchesAny(err, notFoundErrors):
		return http.StatusNotFound
	case matchesAny(err, conflictErrors):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrRateNotFound):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err with its mapped status. Server errors use fallback as the
// message; all other errors use their own text.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		response.RespondError(w, status, fallback, err.Error())
		return
	}
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		response.RespondError(w, status, "validation failed", vErr.Fields)
		return
	}
	response.RespondError(w, status, rootMessage(err), err.Error())
}

// rootMessage returns the text of the first known sentinel wrapped in err.
func rootMessage(err error) string {
	for _, group := range [][]error{badRequestErrors, notFoundErrors, conflictErrors, {ledger.ErrRateNotFound}} {
		for _, target := range group {
			if errors.Is(err, target) {
				return target.Error()
			}
		}
	}
	return err.Error()
}
