package transport

import (
	"errors"
	"net/http"
	"strings"

	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/middleware"
	"wishyoulucky/internal/service"
	"wishyoulucky/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// multipart overhead allowed on top of the image itself
const slipFormOverhead = 1 << 20

type CheckoutRequest struct {
	CustomerName    string `json:"customer_name" validate:"required,max=200"`
	CustomerPhone   string `json:"customer_phone" validate:"required,thaiphone"`
	CustomerAddress string `json:"customer_address" validate:"required,max=1000"`
	CustomerEmail   string `json:"customer_email" validate:"required,email"`
	CustomerNote    string `json:"customer_note" validate:"max=1000"`
	PaymentMethod   string `json:"payment_method" validate:"omitempty,oneof=kshop truemoney"`
	UpdateProfile   bool   `json:"update_profile"`
}

type UpdateStatusRequest struct {
	Status domain.OrderStatus `json:"status" validate:"required,orderstatus"`
}

type UpdateTrackingRequest struct {
	TrackingNumber string `json:"tracking_number" validate:"max=100"`
	AdminNotes     string `json:"admin_notes" validate:"max=2000"`
}

type UpdatePricingRequest struct {
	ShippingCost *decimal.Decimal `json:"shipping_cost"`
	Discount     *decimal.Decimal `json:"discount"`
	Deposit      *decimal.Decimal `json:"deposit"`
}

// OrderRoutes carries the middleware the order endpoints are mounted with.
type OrderRoutes struct {
	OptionalAuth  func(http.Handler) http.Handler
	CheckoutLimit func(http.Handler) http.Handler
	Admin         []func(http.Handler) http.Handler
	// Stream serves GET /api/admin/orders/stream when set.
	Stream http.Handler
}

// OrderHandler serves checkout, public tracking and the admin order desk.
type OrderHandler struct {
	orders service.OrderService
	logger *zap.Logger
}

func NewOrderHandler(orders service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

func passthrough(next http.Handler) http.Handler { return next }

func (h *OrderHandler) RegisterRoutes(r chi.Router, routes OrderRoutes) {
	if routes.OptionalAuth == nil {
		routes.OptionalAuth = passthrough
	}
	if routes.CheckoutLimit == nil {
		routes.CheckoutLimit = passthrough
	}

	r.Route("/api/orders", func(r chi.Router) {
		r.With(routes.OptionalAuth, routes.CheckoutLimit).Post("/checkout", h.Checkout)
		r.Get("/track", h.Track)
		r.Get("/search", h.Search)
		r.With(routes.CheckoutLimit).Post("/{orderNumber}/payment-slip", h.UploadPaymentSlip)
	})

	r.Route("/api/admin/orders", func(r chi.Router) {
		r.Use(routes.Admin...)
		r.Get("/", h.List)
		r.Get("/unread-count", h.UnreadCount)
		if routes.Stream != nil {
			r.Method(http.MethodGet, "/stream", routes.Stream)
		}
		r.Get("/{id}", h.Get)
		r.Patch("/{id}/status", h.UpdateStatus)
		r.Patch("/{id}/tracking", h.UpdateTracking)
		r.Patch("/{id}/pricing", h.UpdatePricing)
		r.Post("/{id}/read", h.MarkRead)
	})
}

// Checkout places an order from the caller's cart.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	id := cartID(w, r)

	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Checkout validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	input := service.CheckoutInput{
		CartID: id,
		Customer: domain.Customer{
			Name:    req.CustomerName,
			Phone:   req.CustomerPhone,
			Address: req.CustomerAddress,
			Email:   req.CustomerEmail,
			Note:    req.CustomerNote,
		},
		PaymentMethod: req.PaymentMethod,
		UpdateProfile: req.UpdateProfile,
	}
	if userID, ok := middleware.GetUserUUID(r.Context()); ok {
		input.UserID = &userID
	}

	order, err := h.orders.Checkout(r.Context(), input)
	if err != nil {
		respondError(w, h.logger, err, "failed to place order")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// Track looks up an order by number and the email used at checkout.
func (h *OrderHandler) Track(w http.ResponseWriter, r *http.Request) {
	number := strings.TrimSpace(r.URL.Query().Get("order"))
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if number == "" || email == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "order and email are required")
		return
	}

	order, err := h.orders.Track(r.Context(), number, email)
	if err != nil {
		respondError(w, h.logger, err, "failed to track order")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.orders.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, h.logger, err, "failed to search orders")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": results})
}

// UploadPaymentSlip accepts a multipart form with the slip image in "file".
// email, payment_method and paid_amount may come as form fields or query parameters.
func (h *OrderHandler) UploadPaymentSlip(w http.ResponseWriter, r *http.Request) {
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

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{{Field: "file", Message: "This field is required"}})
		return
	}
	defer file.Close()

	email := r.FormValue("email")
	if email == "" {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{{Field: "email", Message: "This field is required"}})
		return
	}

	paid := decimal.Zero
	if raw := strings.TrimSpace(r.FormValue("paid_amount")); raw != "" {
		if paid, err = decimal.NewFromString(raw); err != nil {
			middleware.RespondWithValidationErrors(w, []middleware.ValidationError{{Field: "paid_amount", Message: "Invalid value"}})
			return
		}
	}

	order, err := h.orders.UploadPaymentSlip(r.Context(), service.PaymentSlipInput{
		OrderNumber:   chi.URLParam(r, "orderNumber"),
		Email:         email,
		Filename:      header.Filename,
		ContentType:   header.Header.Get("Content-Type"),
		File:          file,
		PaymentMethod: r.FormValue("payment_method"),
		PaidAmount:    paid,
	})
	if err != nil {
		respondError(w, h.logger, err, "failed to upload payment slip")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// List is the admin order list: ?status=&q=&page=&page_size=&unread=true
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.OrderFilter{
		Status:   domain.OrderStatus(strings.TrimSpace(q.Get("status"))),
		Query:    q.Get("q"),
		Unread:   q.Get("unread") == "true",
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "page_size"),
	}
	if raw := q.Get("user_id"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid user id")
			return
		}
		filter.UserID = &userID
	}

	page, err := h.orders.List(r.Context(), filter)
	if err != nil {
		respondError(w, h.logger, err, "failed to list orders")
		return
	}
	if page.Data == nil {
		page.Data = []*domain.Order{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "failed to get order")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req UpdateStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		respondError(w, h.logger, err, "failed to update order status")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdateTracking(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req UpdateTrackingRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	order, err := h.orders.UpdateTracking(r.Context(), id, req.TrackingNumber, req.AdminNotes)
	if err != nil {
		respondError(w, h.logger, err, "failed to update tracking")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdatePricing(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req UpdatePricingRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	order, err := h.orders.UpdatePricing(r.Context(), id, service.PricingUpdate{
		ShippingCost: req.ShippingCost,
		Discount:     req.Discount,
		Deposit:      req.Deposit,
	})
	if err != nil {
		respondError(w, h.logger, err, "failed to update pricing")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	if err := h.orders.MarkRead(r.Context(), id); err != nil {
		respondError(w, h.logger, err, "failed to mark order as read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.orders.UnreadCount(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "failed to count unread orders")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]int{"unread": n})
}
