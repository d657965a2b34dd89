package transport

import (
	"net/http"
	"strings"
	"time"

	"wishyoulucky/internal/middleware"
	"wishyoulucky/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	cartCookieName   = "cart_id"
	cartCookieMaxAge = 30 * 24 * time.Hour
)

type AddCartItemRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Variant   string `json:"variant" validate:"max=100"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=999"`
}

type UpdateCartItemRequest struct {
	Variant  string `json:"variant" validate:"max=100"`
	Quantity int    `json:"quantity" validate:"gte=0,lte=999"`
}

// CartHandler exposes the guest cart. The cart is identified by the X-Cart-ID
// header or the cart_id cookie; a fresh id is issued when neither is present.
type CartHandler struct {
	carts  service.CartService
	logger *zap.Logger
}

func NewCartHandler(carts service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Clear)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{productID}", h.UpdateItem)
		r.Delete("/items/{productID}", h.RemoveItem)
	})
}

// cartID resolves the caller's cart id and echoes it back in header and cookie.
func cartID(w http.ResponseWriter, r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(middleware.CartIDHeader))
	if id == "" {
		if c, err := r.Cookie(cartCookieName); err == nil {
			id = strings.TrimSpace(c.Value)
		}
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	w.Header().Set(middleware.CartIDHeader, id)
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(cartCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := cartID(w, r)
	c, err := h.carts.Get(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "failed to load cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, c.Summary())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id := cartID(w, r)

	var req AddCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	c, err := h.carts.AddItem(r.Context(), id, req.ProductID, strings.TrimSpace(req.Variant), req.Quantity)
	if err != nil {
		respondError(w, h.logger, err, "failed to add item to cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, c.Summary())
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := cartID(w, r)
	productID, ok := int64Param(r, "productID")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req UpdateCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	c, err := h.carts.UpdateItem(r.Context(), id, productID, strings.TrimSpace(req.Variant), req.Quantity)
	if err != nil {
		respondError(w, h.logger, err, "failed to update cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, c.Summary())
}

// RemoveItem takes the variant from the ?variant= query parameter.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := cartID(w, r)
	productID, ok := int64Param(r, "productID")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	c, err := h.carts.RemoveItem(r.Context(), id, productID, strings.TrimSpace(r.URL.Query().Get("variant")))
	if err != nil {
		respondError(w, h.logger, err, "failed to update cart")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, c.Summary())
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	id := cartID(w, r)
	if err := h.carts.Clear(r.Context(), id); err != nil {
		respondError(w, h.logger, err, "failed to clear cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
