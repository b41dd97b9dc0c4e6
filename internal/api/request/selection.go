package request

import (
	"fmt"

	"github.com/google/uuid"
)

// Selection narrows a lot matching or maintenance run to one user and fund.
// Both empty selects every pair.
type Selection struct {
	UserID string
	FundID string
}

// All reports whether the selection covers every user and fund.
func (s Selection) All() bool {
	return s.UserID == "" && s.FundID == ""
}

// ParseSelection validates the userId and fundId query parameters.
// Either both or none must be given, and given values must be UUIDs.
func ParseSelection(userIDParam, fundIDParam string) (Selection, error) {
	if (userIDParam == "") != (fundIDParam == "") {
		return Selection{}, fmt.Errorf("userId and fundId must be given together")
	}
	for name, v := range map[string]string{"userId": userIDParam, "fundId": fundIDParam} {
		if v == "" {
			continue
		}
		if _, err := uuid.Parse(v); err != nil {
			return Selection{}, fmt.Errorf("invalid %s: %s", name, v)
		}
	}
	return Selection{UserID: userIDParam, FundID: fundIDParam}, nil
}
