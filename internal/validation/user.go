package validation

import (
	"strings"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/api/request"
)

const maxUserNameLength = 100

func ValidateCreateUser(req request.CreateUserRequest) error {
	errs := make(map[string]string)

	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		errs["name"] = "name is required"
	case len(name) > maxUserNameLength:
		errs["name"] = "name must be at most 100 characters"
	}

	return result(errs)
}
