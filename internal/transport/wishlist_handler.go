package transport

import (
	"net/http"

	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/middleware"
	"wishyoulucky/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type WishlistHandler struct {
	wishlist service.WishlistService
	logger   *zap.Logger
}

func NewWishlistHandler(wishlist service.WishlistService, logger *zap.Logger) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist, logger: logger}
}

func (h *WishlistHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/wishlist", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Post("/{productID}", h.Add)
		r.Delete("/{productID}", h.Remove)
	})
}

func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := h.wishlist.List(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err, "failed to load wishlist")
		return
	}
	if items == nil {
		items = []*domain.WishlistItem{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, items)
}

func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	productID, ok := int64Param(r, "productID")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.wishlist.Add(r.Context(), userID, productID); err != nil {
		respondError(w, h.logger, err, "failed to add to wishlist")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	productID, ok := int64Param(r, "productID")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.wishlist.Remove(r.Context(), userID, productID); err != nil {
		respondError(w, h.logger, err, "failed to remove from wishlist")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
