package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/storefront/storefront/internal/handler/dto"
	"github.com/storefront/storefront/internal/middleware"
	"github.com/storefront/storefront/internal/storage"
)

// UploadField is the multipart field carrying the image.
const UploadField = "product"

// allowedImageExts lists the extensions accepted by Upload.
var allowedImageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// ImageHandler accepts product image uploads and serves stored images.
type ImageHandler struct {
	images  storage.ImageStore
	baseURL string
	maxSize int64
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// NewImageHandler creates a new ImageHandler. Image URLs are built from
// baseURL; files larger than maxSize are rejected.
func NewImageHandler(images storage.ImageStore, baseURL string, maxSize int64, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{
		images:  images,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: maxSize,
		logger:  logger,
		now:     time.Now,
		newID:   func() string { return strings.ToLower(ulid.Make().String()) },
	}
}

// Upload handles POST /upload.
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		if tooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "Image too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Expected multipart form data")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Missing %q file field", UploadField))
		return
	}
	defer file.Close()

	if header.Size > h.maxSize {
		writeError(w, http.StatusRequestEntityTooLarge, "Image too large")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		writeError(w, http.StatusBadRequest, "Unsupported image type")
		return
	}

	// The ULID keeps uploads within the same millisecond apart.
	name := fmt.Sprintf("product_%d_%s%s", h.now().UnixMilli(), h.newID(), ext)
	if err := h.images.Save(r.Context(), name, file); err != nil {
		h.logger.Error("image save failed",
			slog.String("error", err.Error()),
			slog.String("file", name),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "Image could not be stored")
		return
	}

	h.logger.Info("image_uploaded", "file", name, "size", header.Size)

	writeJSON(w, http.StatusOK, dto.UploadResponse{
		Success:  1,
		ImageURL: h.baseURL + "/images/" + name,
	})
}

// Serve handles GET /images/{file}.
func (h *ImageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	if storage.ValidateName(name) != nil {
		http.NotFound(w, r)
		return
	}

	obj, err := h.images.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("image open failed",
			slog.String("error", err.Error()),
			slog.String("file", name),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, obj.Body)
}
