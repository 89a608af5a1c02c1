package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/storefront/storefront/internal/handler/dto"
	"github.com/storefront/storefront/internal/middleware"
	"github.com/storefront/storefront/internal/model"
	"github.com/storefront/storefront/internal/service"
)

// ProductHandler handles catalog requests.
type ProductHandler struct {
	svc    *service.CatalogService
	logger *slog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(svc *service.CatalogService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		svc:    svc,
		logger: logger,
	}
}

// AddProduct handles POST /addproduct.
func (h *ProductHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.AddProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, decodeStatus(err), "Invalid request body")
		return
	}

	product, err := h.svc.AddProduct(r.Context(), service.AddProductInput{
		Name:      req.Name,
		Image:     req.Image,
		Category:  req.Category,
		NewPrice:  req.NewPrice,
		OldPrice:  req.OldPrice,
		Available: req.Available,
		Date:      req.Date,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("product_created",
		"product_id", product.ID,
		"category", product.Category,
	)

	writeJSON(w, http.StatusOK, dto.AddProductResponse{
		Success: true,
		ID:      product.ID,
		Name:    product.Name,
	})
}

// RemoveProduct handles POST /removeproduct.
func (h *ProductHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.RemoveProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, decodeStatus(err), "Invalid request body")
		return
	}
	if req.ID == nil {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	product, err := h.svc.RemoveProduct(r.Context(), *req.ID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("product_removed", "product_id", product.ID)

	writeJSON(w, http.StatusOK, dto.RemoveProductResponse{
		Success: true,
		Name:    product.Name,
	})
}

// AllProducts handles GET /allproducts.
func (h *ProductHandler) AllProducts(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.AllProducts)
}

// NewCollections handles GET /newcollections.
func (h *ProductHandler) NewCollections(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.NewCollections)
}

// PopularInWomen handles GET /popularinwomen.
func (h *ProductHandler) PopularInWomen(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.PopularInWomen)
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request, view func(context.Context) ([]*model.Product, error)) {
	products, err := view(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if products == nil {
		products = []*model.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// handleServiceError maps service errors to HTTP responses.
func (h *ProductHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, service.ErrStoreUnavailable):
		h.logger.Error("catalog store unavailable",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
	case errors.Is(err, service.ErrProductPersistence):
		h.logger.Error("product persistence failed",
			slog.String("error", err.Error()),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, service.ErrProductPersistence.Error())
	default:
		h.logger.Error("catalog request failed",
			slog.String("error", err.Error()),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// writeError writes the {success:false, error} failure body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{Success: false, Error: message})
}
