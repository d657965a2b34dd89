package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"wishyoulucky/internal/middleware"
	"wishyoulucky/internal/service"
	"wishyoulucky/internal/storage"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ObjectStore is the part of the image store the admin upload endpoints use.
type ObjectStore interface {
	service.FileStore
	Delete(ctx context.Context, url string) error
}

var uploadFolders = map[string]bool{
	storage.FolderProducts: true,
	storage.FolderBanners:  true,
}

// UploadHandler lets admins upload product and banner images.
type UploadHandler struct {
	store  ObjectStore
	logger *zap.Logger
}

func NewUploadHandler(store ObjectStore, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{store: store, logger: logger}
}

func (h *UploadHandler) RegisterRoutes(r chi.Router, admin ...func(http.Handler) http.Handler) {
	r.Route("/api/admin/uploads", func(r chi.Router) {
		r.Use(admin...)
		r.Post("/", h.Upload)
		r.Delete("/", h.Delete)
	})
}

// Upload stores the "file" part under ?folder= (products by default) and returns its URL.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageSize+slipFormOverhead)
	if err := r.ParseMultipartForm(storage.MaxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.RespondWithError(w, http.StatusRequestEntityTooLarge, "file exceeds 10 MiB")
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	folder := strings.TrimSpace(r.FormValue("folder"))
	if folder == "" {
		folder = storage.FolderProducts
	}
	if !uploadFolders[folder] {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{{Field: "folder", Message: "Value must be one of: products banners"}})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{{Field: "file", Message: "This field is required"}})
		return
	}
	defer file.Close()

	url, err := h.store.Save(r.Context(), folder, header.Filename, file, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(w, h.logger, err, "failed to store file")
		return
	}

	h.logger.Info("Image uploaded", zap.String("folder", folder), zap.String("url", url))
	middleware.RespondWithJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// Delete removes the object behind ?url=.
func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "url is required")
		return
	}

	err := h.store.Delete(r.Context(), url)
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "file not found")
		return
	case errors.Is(err, storage.ErrForeignURL):
		middleware.RespondWithError(w, http.StatusBadRequest, "url does not belong to this store")
		return
	case err != nil:
		respondError(w, h.logger, err, "failed to delete file")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
