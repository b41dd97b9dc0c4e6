package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/apperrors"
)

const dateLayout = "2006-01-02"

// ErrInvalidUUID is returned by ValidateUUID.
var ErrInvalidUUID = apperrors.ErrInvalidUUID

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUUID, id)
	}
	return nil
}

// parseDate parses a required YYYY-MM-DD field into errs under field.
func parseDate(errs map[string]string, field, value string) time.Time {
	if strings.TrimSpace(value) == "" {
		errs[field] = field + " is required"
		return time.Time{}
	}
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		errs[field] = "must be in YYYY-MM-DD format"
		return time.Time{}
	}
	return d
}

func checkUUID(errs map[string]string, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs[field] = field + " is required"
		return
	}
	if err := ValidateUUID(value); err != nil {
		errs[field] = err.Error()
	}
}

// result wraps collected field errors, or returns nil when there are none.
func result(errs map[string]string) error {
	if len(errs) > 0 {
		return &Error{Fields: errs}
	}
	return nil
}
