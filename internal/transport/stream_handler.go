package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"wishyoulucky/internal/middleware"
	"wishyoulucky/internal/realtime"
	"wishyoulucky/internal/service"

	"go.uber.org/zap"
)

const streamKeepAlive = 25 * time.Second

// OrderStreamHandler pushes order changes to the admin desk as server-sent events.
// The first frame is the current unread count; after that every change arrives as
// "event: <INSERT|UPDATE|DELETE|REFETCH>" with the event as JSON data.
type OrderStreamHandler struct {
	hub       *realtime.Hub
	orders    service.OrderService
	keepAlive time.Duration
	logger    *zap.Logger
}

func NewOrderStreamHandler(hub *realtime.Hub, orders service.OrderService, logger *zap.Logger) *OrderStreamHandler {
	return &OrderStreamHandler{hub: hub, orders: orders, keepAlive: streamKeepAlive, logger: logger}
}

func writeEvent(w io.Writer, name string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}

func (h *OrderStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	ctx := r.Context()

	unread, err := h.orders.UnreadCount(ctx)
	if err != nil {
		respondError(w, h.logger, err, "failed to count unread orders")
		return
	}

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	// the server write timeout would otherwise end the stream
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "unread", map[string]int{"unread": unread}); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.logger.Warn("Streaming not supported by response writer", zap.Error(err))
		return
	}

	userID, _ := middleware.GetUserID(ctx)
	h.logger.Info("Order stream opened", zap.String("user_id", userID))
	defer h.logger.Info("Order stream closed", zap.String("user_id", userID))

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := writeEvent(w, string(event.Type), event); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

