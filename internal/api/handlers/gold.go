package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/api/request"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/service"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/validation"
)

// GoldHandler handles HTTP requests for gold purchases and prices.
type GoldHandler struct {
	goldService *service.GoldService
}

// NewGoldHandler creates a new GoldHandler with the provided service dependency.
func NewGoldHandler(goldService *service.GoldService) *GoldHandler {
	return &GoldHandler{
		goldService: goldService,
	}
}

// Entries handles GET /api/gold.
func (h *GoldHandler) Entries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.goldService.GetEntries(r.Context())
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieve.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, entries)
}

// SaveEntry handles POST requests that create a gold entry, or update it when id is given.
//
// Endpoint: POST /api/gold
// Request Body: GoldEntryRequest
// Response: 201 Created or 200 OK with GoldEntry
func (h *GoldHandler) SaveEntry(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.GoldEntryRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	entry, err := validation.ValidateGoldEntry(req)
	if err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	entry, created, err := h.goldService.SaveEntry(r.Context(), entry)
	if err != nil {
		respondServiceError(w, err, "failed to save gold entry")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.RespondJSON(w, status, entry)
}

// DeleteEntry handles DELETE /api/gold/{uuid}.
func (h *GoldHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.goldService.DeleteEntry(r.Context(), chi.URLParam(r, "uuid")); err != nil {
		respondServiceError(w, err, "failed to delete gold entry")
		return
	}
	response.RespondJSON(w, http.StatusNoContent, nil)
}

// LatestPrice handles GET /api/gold/price.
// Error: 404 Not Found when no price was recorded yet
func (h *GoldHandler) LatestPrice(w http.ResponseWriter, r *http.Request) {
	price, err := h.goldService.GetLatestPrice(r.Context())
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieve.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, price)
}

// AddPrice handles POST /api/gold/price. The date defaults to today.
func (h *GoldHandler) AddPrice(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.GoldPriceRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	price, err := validation.ValidateGoldPrice(req, today)
	if err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	price, err = h.goldService.AddPrice(r.Context(), price)
	if err != nil {
		respondServiceError(w, err, "failed to add gold price")
		return
	}
	response.RespondJSON(w, http.StatusCreated, price)
}
