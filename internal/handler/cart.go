package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/storefront/storefront/internal/auth"
	"github.com/storefront/storefront/internal/handler/dto"
	"github.com/storefront/storefront/internal/middleware"
	"github.com/storefront/storefront/internal/service"
)

// CartHandler handles cart mutations for the authenticated user.
// Routes must be wrapped by middleware.Session.
type CartHandler struct {
	svc    *service.CartService
	logger *slog.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		svc:    svc,
		logger: logger,
	}
}

// AddToCart handles POST /addtocart.
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	slot, ok := h.readSlot(w, r)
	if !ok {
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	qty, err := h.svc.AddItem(r.Context(), userID, slot)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Debug("cart_item_added", "user_id", userID, "item_id", slot, "quantity", qty)
	writeText(w, http.StatusOK, "Added")
}

// RemoveFromCart handles POST /removefromcart.
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	slot, ok := h.readSlot(w, r)
	if !ok {
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	qty, err := h.svc.RemoveItem(r.Context(), userID, slot)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Debug("cart_item_removed", "user_id", userID, "item_id", slot, "quantity", qty)
	writeText(w, http.StatusOK, "Removed")
}

// GetCart handles POST /getcart.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.svc.GetCart(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) readSlot(w http.ResponseWriter, r *http.Request) (int, bool) {
	var req dto.CartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrors(w, decodeStatus(err), "Invalid request body")
		return 0, false
	}
	if req.ItemID == nil {
		writeErrors(w, http.StatusBadRequest, "itemId is required")
		return 0, false
	}
	return *req.ItemID, true
}

// handleServiceError maps service errors to HTTP responses.
func (h *CartHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidSlot):
		writeErrors(w, http.StatusBadRequest, "itemId is out of range")
	case errors.Is(err, service.ErrUserNotFound):
		writeErrors(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrStoreUnavailable):
		h.logger.Error("cart store unavailable",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeErrors(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
	default:
		h.logger.Error("cart request failed",
			slog.String("error", err.Error()),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeErrors(w, http.StatusInternalServerError, "Internal server error")
	}
}
