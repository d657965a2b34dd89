package transport

import (
	"net/http"

	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/middleware"
	"wishyoulucky/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProductNoticeRequest struct {
	SKU     string `json:"sku" validate:"required,max=64"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required"`
}

// ProductNoticeHandler lets admins email every customer who ordered a SKU.
type ProductNoticeHandler struct {
	notices service.ProductNoticeService
	logger  *zap.Logger
}

func NewProductNoticeHandler(notices service.ProductNoticeService, logger *zap.Logger) *ProductNoticeHandler {
	return &ProductNoticeHandler{notices: notices, logger: logger}
}

func (h *ProductNoticeHandler) RegisterRoutes(r chi.Router, admin ...func(http.Handler) http.Handler) {
	r.Route("/api/admin/notifications", func(r chi.Router) {
		r.Use(admin...)
		r.Get("/", h.List)
		r.Post("/product", h.NotifyBuyers)
	})
}

func (h *ProductNoticeHandler) NotifyBuyers(w http.ResponseWriter, r *http.Request) {
	var req ProductNoticeRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	result, err := h.notices.NotifyBuyers(r.Context(), service.ProductNoticeInput{
		SKU:     req.SKU,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		respondError(w, h.logger, err, "failed to send product notice")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

func (h *ProductNoticeHandler) List(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.notices.ListRecent(r.Context(), queryInt(r, "limit"))
	if err != nil {
		respondError(w, h.logger, err, "failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []*domain.Notification{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, notifications)
}
