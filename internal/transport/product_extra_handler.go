package transport

import (
	"net/http"

	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/middleware"
	"wishyoulucky/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductExtraRequest struct {
	Brand    string              `json:"brand" validate:"required,max=100"`
	Material string              `json:"material" validate:"required,max=100"`
	HeightMM decimal.NullDecimal `json:"height_mm"`
	WidthMM  decimal.NullDecimal `json:"width_mm"`
	LengthMM decimal.NullDecimal `json:"length_mm"`
	Bonus    *string             `json:"bonus"`
}

// ProductExtraHandler serves the product detail sheet.
type ProductExtraHandler struct {
	extras service.ProductExtraService
	logger *zap.Logger
}

func NewProductExtraHandler(extras service.ProductExtraService, logger *zap.Logger) *ProductExtraHandler {
	return &ProductExtraHandler{extras: extras, logger: logger}
}

func (h *ProductExtraHandler) RegisterRoutes(r chi.Router, admin ...func(http.Handler) http.Handler) {
	r.Get("/api/products/slug/{slug}/extra", h.Get)

	r.Route("/api/admin/product-extra", func(r chi.Router) {
		r.Use(admin...)
		r.Put("/{slug}", h.Upsert)
		r.Delete("/{slug}", h.Delete)
	})
}

func (h *ProductExtraHandler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.extras.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, h.logger, err, "failed to get product extra info")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, info)
}

func (h *ProductExtraHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req ProductExtraRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	info := &domain.ProductExtraInfo{
		ProductSlug: chi.URLParam(r, "slug"),
		Brand:       req.Brand,
		Material:    req.Material,
		HeightMM:    req.HeightMM,
		WidthMM:     req.WidthMM,
		LengthMM:    req.LengthMM,
		Bonus:       req.Bonus,
	}
	if err := h.extras.Upsert(r.Context(), info); err != nil {
		respondError(w, h.logger, err, "failed to save product extra info")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, info)
}

func (h *ProductExtraHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.extras.Delete(r.Context(), chi.URLParam(r, "slug")); err != nil {
		respondError(w, h.logger, err, "failed to delete product extra info")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
