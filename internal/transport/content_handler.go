package transport

import (
	"net/http"
	"strings"

	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/middleware"
	"wishyoulucky/internal/reviews"
	"wishyoulucky/internal/service"
	"wishyoulucky/internal/shipping"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BannerRequest struct {
	ImageURL string `json:"image_url" validate:"required"`
	Position int    `json:"position" validate:"gte=0"`
	Active   *bool  `json:"active"`
}

type CategoryBannerRequest struct {
	CategoryID   *int64 `json:"category_id"`
	CategoryName string `json:"category_name" validate:"required,max=100"`
	ImageURL     string `json:"image_url" validate:"required"`
	LinkURL      string `json:"link_url"`
	Active       *bool  `json:"active"`
}

func activeOrDefault(b *bool) bool {
	return b == nil || *b
}

// ContentHandler serves storefront content: banners, reviews and shipping rates.
type ContentHandler struct {
	banners service.BannerService
	reviews *reviews.Service
	logger  *zap.Logger
}

func NewContentHandler(banners service.BannerService, reviewService *reviews.Service, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{banners: banners, reviews: reviewService, logger: logger}
}

func (h *ContentHandler) RegisterRoutes(r chi.Router, admin ...func(http.Handler) http.Handler) {
	r.Get("/api/banners", h.ListBanners)
	r.Get("/api/category-banners", h.CategoryBanner)
	r.Get("/api/reviews", h.Reviews)
	r.Get("/api/shipping/rates", h.ShippingRates)

	r.Route("/api/admin/banners", func(r chi.Router) {
		r.Use(admin...)
		r.Get("/", h.ListAllBanners)
		r.Post("/", h.CreateBanner)
		r.Put("/{id}", h.UpdateBanner)
		r.Delete("/{id}", h.DeleteBanner)
	})
	r.Route("/api/admin/category-banners", func(r chi.Router) {
		r.Use(admin...)
		r.Get("/", h.ListCategoryBanners)
		r.Put("/", h.UpsertCategoryBanner)
		r.Delete("/{id}", h.DeleteCategoryBanner)
	})
}

func (h *ContentHandler) ListBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.banners.ListActive(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "failed to list banners")
		return
	}
	if banners == nil {
		banners = []*domain.Banner{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, banners)
}

func (h *ContentHandler) ListAllBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.banners.ListAll(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "failed to list banners")
		return
	}
	if banners == nil {
		banners = []*domain.Banner{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, banners)
}

func (h *ContentHandler) CreateBanner(w http.ResponseWriter, r *http.Request) {
	var req BannerRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	banner := &domain.Banner{ImageURL: req.ImageURL, Position: req.Position, Active: activeOrDefault(req.Active)}
	if err := h.banners.Create(r.Context(), banner); err != nil {
		respondError(w, h.logger, err, "failed to create banner")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, banner)
}

func (h *ContentHandler) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid banner id")
		return
	}

	var req BannerRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	banner := &domain.Banner{ID: id, ImageURL: req.ImageURL, Position: req.Position, Active: activeOrDefault(req.Active)}
	if err := h.banners.Update(r.Context(), banner); err != nil {
		respondError(w, h.logger, err, "failed to update banner")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, banner)
}

func (h *ContentHandler) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid banner id")
		return
	}
	if err := h.banners.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err, "failed to delete banner")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CategoryBanner returns the banner of ?category=<name>.
func (h *ContentHandler) CategoryBanner(w http.ResponseWriter, r *http.Request) {
	banner, err := h.banners.CategoryBanner(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		respondError(w, h.logger, err, "failed to get category banner")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, banner)
}

func (h *ContentHandler) ListCategoryBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.banners.ListCategoryBanners(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "failed to list category banners")
		return
	}
	if banners == nil {
		banners = []*domain.CategoryBanner{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, banners)
}

func (h *ContentHandler) UpsertCategoryBanner(w http.ResponseWriter, r *http.Request) {
	var req CategoryBannerRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	banner := &domain.CategoryBanner{
		CategoryID:   req.CategoryID,
		CategoryName: req.CategoryName,
		ImageURL:     req.ImageURL,
		LinkURL:      strings.TrimSpace(req.LinkURL),
		Active:       activeOrDefault(req.Active),
	}
	if err := h.banners.UpsertCategoryBanner(r.Context(), banner); err != nil {
		respondError(w, h.logger, err, "failed to save category banner")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, banner)
}

func (h *ContentHandler) DeleteCategoryBanner(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid banner id")
		return
	}
	if err := h.banners.DeleteCategoryBanner(r.Context(), id); err != nil {
		respondError(w, h.logger, err, "failed to delete category banner")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reviews returns today's testimonial order; ?limit= caps the list.
func (h *ContentHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.reviews.Today(queryInt(r, "limit")))
}

func (h *ContentHandler) ShippingRates(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, shipping.Types())
}
