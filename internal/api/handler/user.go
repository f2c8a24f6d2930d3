package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	mw "github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/api/middleware"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/api/response"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/store"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/user"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
)

// UserService defines the account operations the handlers depend on.
type UserService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Balance(ctx context.Context, userID uuid.UUID) (float64, error)
	Recharge(ctx context.Context, adminID uuid.UUID, email string, amount float64) (float64, error)
}

// NewRegisterHandler returns an http.HandlerFunc for POST /api/v1/register.
func NewRegisterHandler(svc UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		u, err := svc.Register(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, user.ErrInvalidEmail), errors.Is(err, user.ErrWeakPassword):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			case errors.Is(err, store.ErrDuplicateKey):
				response.Error(w, http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			}
			return
		}

		response.Created(w, map[string]any{
			"id":    u.ID,
			"email": u.Email,
			"role":  u.Role,
		})
	}
}

// NewLoginHandler returns an http.HandlerFunc for POST /api/v1/login.
func NewLoginHandler(svc UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		token, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, user.ErrInvalidCredentials) {
				response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		response.JSON(w, map[string]string{"token": token})
	}
}

// NewBalanceHandler returns an http.HandlerFunc for GET /api/v1/users/tokens.
func NewBalanceHandler(svc UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		balance, err := svc.Balance(r.Context(), userID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		response.JSON(w, map[string]float64{"tokens": balance})
	}
}

// NewRechargeHandler returns an http.HandlerFunc for POST /api/v1/users/recharge.
func NewRechargeHandler(svc UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		var req struct {
			Email  string  `json:"email"`
			Amount float64 `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Email == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "email is required", nil)
			return
		}

		balance, err := svc.Recharge(r.Context(), adminID, req.Email, req.Amount)
		if err != nil {
			switch {
			case errors.Is(err, user.ErrForbidden):
				response.Error(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions", nil)
			case errors.Is(err, store.ErrNotFound):
				response.Error(w, http.StatusNotFound, "USER_NOT_FOUND", "No account with this email", nil)
			default:
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			}
			return
		}

		response.JSON(w, map[string]any{"email": req.Email, "tokens": balance})
	}
}
