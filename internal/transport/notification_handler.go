package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"wishyoulucky/internal/mailer"
	"wishyoulucky/internal/middleware"
	"wishyoulucky/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// webhookError is the flat error body the order-received webhook has always returned.
type webhookError struct {
	Error string `json:"error"`
}

// NotificationHandler is the order-received email webhook. It keeps its own
// response shape and CORS policy because it is called from outside the storefront.
type NotificationHandler struct {
	notifier service.OrderNotifier
	logger   *zap.Logger
}

func NewNotificationHandler(notifier service.OrderNotifier, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifier: notifier, logger: logger}
}

func (h *NotificationHandler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	if limit == nil {
		limit = passthrough
	}
	r.With(middleware.EchoOriginCORS("POST, OPTIONS"), limit).
		HandleFunc("/api/notifications/order-received", h.OrderReceived)
}

func (h *NotificationHandler) OrderReceived(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		middleware.RespondWithJSON(w, http.StatusMethodNotAllowed, webhookError{Error: "Method Not Allowed"})
		return
	}

	var payload mailer.OrderReceived
	if r.Body != nil {
		// an empty body is treated as an empty payload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			h.logger.Debug("Webhook body rejected", zap.Error(err))
			middleware.RespondWithJSON(w, http.StatusBadRequest, webhookError{Error: "Invalid JSON body"})
			return
		}
	}

	if err := payload.Validate(); err != nil {
		middleware.RespondWithJSON(w, http.StatusBadRequest, webhookError{Error: "Missing required fields: to, order_number"})
		return
	}

	if err := h.notifier.SendOrderReceived(r.Context(), payload); err != nil {
		if !errors.Is(err, mailer.ErrSendFailed) {
			h.logger.Error("Order received email failed", zap.String("order_number", payload.OrderNumber), zap.Error(err))
		}
		middleware.RespondWithJSON(w, http.StatusInternalServerError, webhookError{Error: "Failed to send email"})
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
