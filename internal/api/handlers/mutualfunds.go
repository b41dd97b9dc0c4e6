package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/api/request"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/service"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/validation"
)

// MutualFundHandler handles HTTP requests for fund metadata, entries, NAVs and lot matching.
type MutualFundHandler struct {
	mfService  *service.MutualFundService
	navService *service.NAVService
}

// NewMutualFundHandler creates a new MutualFundHandler with the provided service dependencies.
func NewMutualFundHandler(mfService *service.MutualFundService, navService *service.NAVService) *MutualFundHandler {
	return &MutualFundHandler{
		mfService:  mfService,
		navService: navService,
	}
}

// NAVResponse is the latest NAV of a scheme. Fields are blank when the lookup failed.
type NAVResponse struct {
	SchemeCode string `json:"schemeCode"`
	SchemeName string `json:"schemeName"`
	Date       string `json:"date"`
	NAV        string `json:"nav"`
	Found      bool   `json:"found"`
}

// CountResponse reports how many entries an operation touched.
type CountResponse struct {
	Entries int64 `json:"entries"`
}

// Funds handles GET /api/mutual-fund-metadata.
func (h *MutualFundHandler) Funds(w http.ResponseWriter, r *http.Request) {
	funds, err := h.mfService.GetFunds(r.Context())
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieve.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, funds)
}

// CreateFund handles POST requests to add fund metadata.
//
// Endpoint: POST /api/mutual-fund-metadata
// Request Body: FundRequest (mutualFundName, schemeCode)
// Response: 201 Created with FundMetadata
// Error: 409 Conflict if the scheme code is already known
func (h *MutualFundHandler) CreateFund(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.FundRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	fund, err := validation.ValidateFund(req)
	if err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	fund, err = h.mfService.CreateFund(r.Context(), fund)
	if err != nil {
		respondServiceError(w, err, "failed to create fund")
		return
	}
	response.RespondJSON(w, http.StatusCreated, fund)
}

// UpdateFund handles PUT /api/mutual-fund-metadata/{uuid}.
func (h *MutualFundHandler) UpdateFund(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.FundRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	fund, err := validation.ValidateFund(req)
	if err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}
	fund.ID = chi.URLParam(r, "uuid")

	fund, err = h.mfService.UpdateFund(r.Context(), fund)
	if err != nil {
		respondServiceError(w, err, "failed to update fund")
		return
	}
	response.RespondJSON(w, http.StatusOK, fund)
}

// DeleteFund handles DELETE /api/mutual-fund-metadata/{uuid}.
// Error: 409 Conflict while entries still reference the fund
func (h *MutualFundHandler) DeleteFund(w http.ResponseWriter, r *http.Request) {
	if err := h.mfService.DeleteFund(r.Context(), chi.URLParam(r, "uuid")); err != nil {
		respondServiceError(w, err, "failed to delete fund")
		return
	}
	response.RespondJSON(w, http.StatusNoContent, nil)
}

// EntriesByUser handles GET /api/mutual-funds/user/{uuid}.
func (h *MutualFundHandler) EntriesByUser(w http.ResponseWriter, r *http.Request) {
	entries, err := h.mfService.GetEntriesByUser(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieve.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, entries)
}

// CreateEntry handles POST requests to record a purchase or redemption.
//
// Endpoint: POST /api/mutual-funds
// Request Body: MutualFundEntryRequest
// Response: 201 Created with FlowEvent; units are derived when only nav is given
// Error: 404 Not Found if the user or fund does not exist
func (h *MutualFundHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.MutualFundEntryRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	entry, err := validation.ValidateMutualFundEntry(req)
	if err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	entry, err = h.mfService.CreateEntry(r.Context(), entry)
	if err != nil {
		respondServiceError(w, err, "failed to create entry")
		return
	}
	response.RespondJSON(w, http.StatusCreated, entry)
}

// UpdateEntry handles PUT requests. Matching of the fund is redone when it had matched lots.
//
// Endpoint: PUT /api/mutual-funds/{uuid}
// Request Body: MutualFundEntryRequest
// Response: 200 OK with FlowEvent
func (h *MutualFundHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.MutualFundEntryRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	entry, err := validation.ValidateMutualFundEntry(req)
	if err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}
	entry.ID = chi.URLParam(r, "uuid")

	entry, err = h.mfService.UpdateEntry(r.Context(), entry)
	if err != nil {
		respondServiceError(w, err, "failed to update entry")
		return
	}
	response.RespondJSON(w, http.StatusOK, entry)
}

// DeleteEntry handles DELETE /api/mutual-funds/{uuid}.
func (h *MutualFundHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.mfService.DeleteEntry(r.Context(), chi.URLParam(r, "uuid")); err != nil {
		respondServiceError(w, err, "failed to delete entry")
		return
	}
	response.RespondJSON(w, http.StatusNoContent, nil)
}

// LookupNAV handles GET requests for the latest NAV of a scheme.
// A failed lookup is not an error: the response has found=false and blank fields.
//
// Endpoint: GET /api/mutual-funds/nav?schemeCode={code}
// Response: 200 OK with NAVResponse
// Error: 400 Bad Request if schemeCode is missing
func (h *MutualFundHandler) LookupNAV(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("schemeCode"))
	if code == "" {
		response.RespondError(w, http.StatusBadRequest, apperrors.ErrMissingRequiredField.Error(), "schemeCode is required")
		return
	}

	quote, ok := h.mfService.LookupNAV(r.Context(), code)
	resp := NAVResponse{SchemeCode: code, Found: ok}
	if ok {
		resp.SchemeName = quote.SchemeName
		resp.Date = quote.Date.Format("2006-01-02")
		resp.NAV = quote.NAV.String()
	}
	response.RespondJSON(w, http.StatusOK, resp)
}

// RefreshNAVs handles POST /api/mutual-funds/nav/refresh, storing the latest NAV of every fund.
func (h *MutualFundHandler) RefreshNAVs(w http.ResponseWriter, r *http.Request) {
	result, err := h.navService.RefreshAll(r.Context())
	if err != nil {
		respondServiceError(w, err, apperrors.ErrNAVLookupFailed.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, result)
}

// BackfillUnits handles POST /api/mutual-funds/backfill-units.
func (h *MutualFundHandler) BackfillUnits(w http.ResponseWriter, r *http.Request) {
	n, err := h.mfService.BackfillUnits(r.Context())
	if err != nil {
		respondServiceError(w, err, "failed to backfill units")
		return
	}
	response.RespondJSON(w, http.StatusOK, CountResponse{Entries: int64(n)})
}

// Reconcile handles POST requests that run FIFO matching.
//
// Endpoint: POST /api/mutual-funds/recal?userId={uuid}&fundId={uuid}
// Both parameters omitted runs every user and fund; failures are then reported per pair.
// Response: 200 OK with array of MatchResult
// Error: 409 Conflict if an unmatched entry is dated before a matched one (rematch required)
func (h *MutualFundHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	sel, ok := parseSelection(w, r)
	if !ok {
		return
	}
	results, err := h.mfService.Reconcile(r.Context(), sel.UserID, sel.FundID)
	if err != nil {
		respondServiceError(w, err, "failed to reconcile")
		return
	}
	response.RespondJSON(w, http.StatusOK, results)
}

// Rematch handles POST /api/mutual-funds/rematch, clearing and redoing FIFO matching.
func (h *MutualFundHandler) Rematch(w http.ResponseWriter, r *http.Request) {
	sel, ok := parseSelection(w, r)
	if !ok {
		return
	}
	results, err := h.mfService.Rematch(r.Context(), sel.UserID, sel.FundID)
	if err != nil {
		respondServiceError(w, err, "failed to rematch")
		return
	}
	response.RespondJSON(w, http.StatusOK, results)
}

// ForceNull handles POST /api/mutual-funds/force-null, clearing NAV, units and matching results.
func (h *MutualFundHandler) ForceNull(w http.ResponseWriter, r *http.Request) {
	sel, ok := parseSelection(w, r)
	if !ok {
		return
	}
	n, err := h.mfService.ForceNull(r.Context(), sel.UserID, sel.FundID)
	if err != nil {
		respondServiceError(w, err, "failed to clear entries")
		return
	}
	response.RespondJSON(w, http.StatusOK, CountResponse{Entries: n})
}

func parseSelection(w http.ResponseWriter, r *http.Request) (request.Selection, bool) {
	q := r.URL.Query()
	sel, err := request.ParseSelection(q.Get("userId"), q.Get("fundId"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid query parameters", err.Error())
		return request.Selection{}, false
	}
	return sel, true
}
