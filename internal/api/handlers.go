/**
 * @description
 * This file contains the HTTP handlers for accounts along with the shared
 * response helpers. Handlers parse the request, call the service layer and
 * translate service errors into status codes in one place.
 */
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/subtrack/subtrack-backend/internal/app"
	"github.com/subtrack/subtrack-backend/internal/domain"
	"github.com/subtrack/subtrack-backend/internal/store"
)

// AccountService is the account functionality the handlers need.
type AccountService interface {
	Register(ctx context.Context, name, email, password string) (*app.AuthResult, error)
	Login(ctx context.Context, email, password string) (*app.AuthResult, error)
	Me(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// SubscriptionService is the subscription functionality the handlers need.
type SubscriptionService interface {
	Create(ctx context.Context, userID uuid.UUID, input app.CreateSubscriptionInput) (*domain.Subscription, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.Subscription, error)
	Update(ctx context.Context, userID, id uuid.UUID, input app.UpdateSubscriptionInput) (*domain.Subscription, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, filter app.ListFilter, key app.SortKey) ([]domain.Subscription, error)
	Stats(ctx context.Context, userID uuid.UUID) (app.Summary, error)
	Snapshot(ctx context.Context, userID uuid.UUID) ([]domain.Subscription, app.Summary, error)
}

// Handler holds the services the HTTP handlers interact with.
type Handler struct {
	accounts      AccountService
	subscriptions SubscriptionService
	logger        *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(accounts AccountService, subscriptions SubscriptionService, logger *slog.Logger) *Handler {
	return &Handler{accounts: accounts, subscriptions: subscriptions, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterHandler creates an account and returns a token for it.
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	result, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.handleServiceError(w, err, "register")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// LoginHandler exchanges credentials for a token.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(w, err, "login")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// MeHandler returns the authenticated account.
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.accounts.Me(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err, "me")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, store.ErrSubscriptionNotFound):
		return http.StatusNotFound, "Subscription not found."
	case errors.Is(err, store.ErrUserNotFound):
		return http.StatusNotFound, "User not found."
	case errors.Is(err, store.ErrEmailTaken):
		return http.StatusConflict, "An account with this email already exists."
	case errors.Is(err, app.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password."
	}
	return http.StatusInternalServerError, "Could not process request."
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error, endpoint string) {
	status, msg := mapError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "endpoint", endpoint, "error", err)
	}
	writeError(w, status, msg)
}

// writeJSON is a helper for writing JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
