package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/storefront/storefront/internal/handler/dto"
	"github.com/storefront/storefront/internal/middleware"
	"github.com/storefront/storefront/internal/service"
)

// UserHandler handles signup and login.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// Signup handles POST /signup.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrors(w, decodeStatus(err), "Invalid request body")
		return
	}

	token, err := h.svc.Signup(r.Context(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{Success: true, Token: token})
}

// Login handles POST /login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrors(w, decodeStatus(err), "Invalid request body")
		return
	}

	token, err := h.svc.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{Success: true, Token: token})
}

// handleServiceError maps service errors to HTTP responses.
// Credential failures all use 400 so clients have a single failure shape.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeErrors(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrDuplicateEmail):
		writeErrors(w, http.StatusBadRequest, service.ErrDuplicateEmail.Error())
	case errors.Is(err, service.ErrWrongEmail):
		writeErrors(w, http.StatusBadRequest, service.ErrWrongEmail.Error())
	case errors.Is(err, service.ErrWrongPassword):
		writeErrors(w, http.StatusBadRequest, service.ErrWrongPassword.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		h.logger.Error("account store unavailable",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeErrors(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
	default:
		h.logger.Error("account request failed",
			slog.String("error", err.Error()),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeErrors(w, http.StatusInternalServerError, "Internal server error")
	}
}

// writeErrors writes the {success:false, errors} failure body.
func writeErrors(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorsResponse{Success: false, Errors: message})
}

func decodeStatus(err error) int {
	if tooLarge(err) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
