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

// UserHandler handles HTTP requests for user endpoints.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler with the provided service dependency.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Users handles GET requests to list all users.
//
// Endpoint: GET /api/users
// Response: 200 OK with array of User
func (h *UserHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.GetUsers(r.Context())
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieve.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, users)
}

// GetUser handles GET requests for a single user.
//
// Endpoint: GET /api/users/{uuid}
// Response: 200 OK with User
// Error: 404 Not Found if the user does not exist
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieve.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, user)
}

// CreateUser handles POST requests to create a user.
//
// Endpoint: POST /api/users
// Request Body: CreateUserRequest (name)
// Response: 201 Created with User
// Error: 400 Bad Request if validation fails
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateUserRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := validation.ValidateCreateUser(req); err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	user, err := h.userService.CreateUser(r.Context(), req.Name)
	if err != nil {
		respondServiceError(w, err, "failed to create user")
		return
	}
	response.RespondJSON(w, http.StatusCreated, user)
}

// DeleteUser handles DELETE requests. Accounts and entries of the user are removed with it.
//
// Endpoint: DELETE /api/users/{uuid}
// Response: 204 No Content
// Error: 404 Not Found if the user does not exist
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.DeleteUser(r.Context(), chi.URLParam(r, "uuid")); err != nil {
		respondServiceError(w, err, "failed to delete user")
		return
	}
	response.RespondJSON(w, http.StatusNoContent, nil)
}
