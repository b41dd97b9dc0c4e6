package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/api/request"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/service"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/validation"
)

// PFHandler handles HTTP requests for provident fund types, interest periods, accounts and ledgers.
type PFHandler struct {
	pfService *service.PFService
}

// NewPFHandler creates a new PFHandler with the provided service dependency.
func NewPFHandler(pfService *service.PFService) *PFHandler {
	return &PFHandler{
		pfService: pfService,
	}
}

// RecalculateResponse reports how many ledger rows a recalculation wrote.
type RecalculateResponse struct {
	Rows int `json:"rows"`
}

// SeedResponse reports how many PF types were added.
type SeedResponse struct {
	Added int `json:"added"`
}

// Types handles GET /api/pf/types.
func (h *PFHandler) Types(w http.ResponseWriter, r *http.Request) {
	types, err := h.pfService.GetPFTypes(r.Context())
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieve.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, types)
}

// SeedTypes handles POST /api/pf/types/seed. Existing types are left alone.
func (h *PFHandler) SeedTypes(w http.ResponseWriter, r *http.Request) {
	added, err := h.pfService.SeedPFTypes(r.Context())
	if err != nil {
		respondServiceError(w, err, "failed to seed pf types")
		return
	}
	response.RespondJSON(w, http.StatusOK, SeedResponse{Added: added})
}

// RatePeriods handles GET requests for interest periods.
//
// Endpoint: GET /api/pf/interest?pfTypeId={uuid}
// Response: 200 OK with array of RatePeriod, ordered by type and start date
func (h *PFHandler) RatePeriods(w http.ResponseWriter, r *http.Request) {
	pfTypeID := r.URL.Query().Get("pfTypeId")
	if pfTypeID != "" {
		if err := validation.ValidateUUID(pfTypeID); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid pfTypeId", err.Error())
			return
		}
	}

	periods, err := h.pfService.GetRatePeriods(r.Context(), pfTypeID)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieve.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, periods)
}

// CreateRatePeriod handles POST requests to add an interest period.
//
// Endpoint: POST /api/pf/interest
// Request Body: CreateRatePeriodRequest
// Response: 201 Created with RatePeriod
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if the PF type does not exist
// Error: 409 Conflict if the period overlaps another period of the same type
// Error: 422 Unprocessable Entity if a recomputed ledger month has no rate
func (h *PFHandler) CreateRatePeriod(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateRatePeriodRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	period, err := validation.ValidateCreateRatePeriod(req)
	if err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	period, err = h.pfService.CreateRatePeriod(r.Context(), period)
	if err != nil {
		respondServiceError(w, err, "failed to create interest period")
		return
	}
	response.RespondJSON(w, http.StatusCreated, period)
}

// UpdateRatePeriod handles PUT requests. Ledgers of the PF type are recomputed from the
// earlier of the old and new start dates.
//
// Endpoint: PUT /api/pf/interest/{uuid}
// Request Body: UpdateRatePeriodRequest (all fields optional)
// Response: 200 OK with RatePeriod
func (h *PFHandler) UpdateRatePeriod(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.UpdateRatePeriodRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	current, err := h.pfService.GetRatePeriod(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieve.Error())
		return
	}
	period, err := validation.ValidateUpdateRatePeriod(current, req)
	if err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	period, err = h.pfService.UpdateRatePeriod(r.Context(), period)
	if err != nil {
		respondServiceError(w, err, "failed to update interest period")
		return
	}
	response.RespondJSON(w, http.StatusOK, period)
}

// DeleteRatePeriod handles DELETE /api/pf/interest/{uuid}.
func (h *PFHandler) DeleteRatePeriod(w http.ResponseWriter, r *http.Request) {
	if err := h.pfService.DeleteRatePeriod(r.Context(), chi.URLParam(r, "uuid")); err != nil {
		respondServiceError(w, err, "failed to delete interest period")
		return
	}
	response.RespondJSON(w, http.StatusNoContent, nil)
}

// CreateAccount handles POST requests to open a PF account for a user.
//
// Endpoint: POST /api/pf/accounts
// Request Body: CreatePFAccountRequest
// Response: 201 Created with PFAccount
// Error: 409 Conflict if the user already has an account of this type
func (h *PFHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreatePFAccountRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := validation.ValidateCreatePFAccount(req); err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	account, err := h.pfService.CreateAccount(r.Context(), req.UserID, req.PFTypeID, req.AccountNumber)
	if err != nil {
		respondServiceError(w, err, "failed to create pf account")
		return
	}
	response.RespondJSON(w, http.StatusCreated, account)
}

// AccountsByUser handles GET /api/pf/accounts/user/{uuid}.
func (h *PFHandler) AccountsByUser(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.pfService.GetAccountsByUser(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieve.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, accounts)
}

// Entries handles GET requests for the ledger of an account.
//
// Endpoint: GET /api/pf/accounts/{uuid}/entries
// Response: 200 OK with array of LedgerRow in month order
// Error: 404 Not Found if the account does not exist
func (h *PFHandler) Entries(w http.ResponseWriter, r *http.Request) {
	rows, err := h.pfService.GetEntries(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieve.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, rows)
}

// BulkCreate handles POST requests to generate the initial ledger of an account.
//
// Endpoint: POST /api/pf/accounts/{uuid}/bulk-create
// Request Body: BulkCreateRequest (startDate, months)
// Response: 201 Created with array of LedgerRow
// Error: 409 Conflict if the account already has ledger rows
func (h *PFHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.BulkCreateRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	start, months, err := validation.ValidateBulkCreate(req)
	if err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	rows, err := h.pfService.BulkCreate(r.Context(), chi.URLParam(r, "uuid"), start, months)
	if err != nil {
		respondServiceError(w, err, "failed to create ledger")
		return
	}
	response.RespondJSON(w, http.StatusCreated, rows)
}

// AppendEntry handles POST requests that add the next month of deposits.
//
// Endpoint: POST /api/pf/accounts/{uuid}/entries
// Request Body: AppendEntryRequest (depositDate, amountDeposited)
// Response: 201 Created with LedgerRow
// Error: 409 Conflict if the month is not after the last ledger row
// Error: 422 Unprocessable Entity if no interest period covers the month
func (h *PFHandler) AppendEntry(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.AppendEntryRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	depositDate, err := validation.ValidateAppendEntry(req)
	if err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	row, err := h.pfService.AppendEntry(r.Context(), chi.URLParam(r, "uuid"), depositDate, req.AmountDeposited)
	if err != nil {
		respondServiceError(w, err, "failed to add ledger entry")
		return
	}
	response.RespondJSON(w, http.StatusCreated, row)
}

// DeleteEntries handles DELETE /api/pf/accounts/{uuid}/entries, removing the whole ledger.
func (h *PFHandler) DeleteEntries(w http.ResponseWriter, r *http.Request) {
	if err := h.pfService.DeleteEntries(r.Context(), chi.URLParam(r, "uuid")); err != nil {
		respondServiceError(w, err, "failed to delete ledger")
		return
	}
	response.RespondJSON(w, http.StatusNoContent, nil)
}

// UpdateEntry handles PUT requests that edit a deposit. The edited row and every later row
// are recomputed.
//
// Endpoint: PUT /api/pf/entries/{uuid}
// Request Body: UpdateEntryRequest (depositDate and/or amountDeposited)
// Response: 200 OK with the recomputed rows
// Error: 400 Bad Request if the deposit date is outside the row's month
// Error: 422 Unprocessable Entity if a recomputed month has no interest period; rows before it are saved
func (h *PFHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.UpdateEntryRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	edit, err := validation.ValidateUpdateEntry(req)
	if err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	rows, err := h.pfService.UpdateEntry(r.Context(), chi.URLParam(r, "uuid"), edit)
	if err != nil {
		respondServiceError(w, err, "failed to update ledger entry")
		return
	}
	response.RespondJSON(w, http.StatusOK, rows)
}

// Recalculate handles POST /api/pf/accounts/{uuid}/recalculate.
func (h *PFHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	rows, err := h.pfService.Recalculate(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRecalculate.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, rows)
}

// RecalculateAll handles POST /api/pf/recalculate-all.
func (h *PFHandler) RecalculateAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.pfService.RecalculateAll(r.Context())
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRecalculate.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, RecalculateResponse{Rows: n})
}
