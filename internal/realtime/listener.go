package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/pkg/clock"
	"wishyoulucky/internal/pkg/retry"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Channel is the Postgres NOTIFY channel written by the orders trigger.
const Channel = "order_changes"

// Conn is the part of *pgx.Conn the listener needs.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// Dialer opens a dedicated connection for LISTEN.
type Dialer func(ctx context.Context) (Conn, error)

// PgxDialer connects with pgx using dsn.
func PgxDialer(dsn string) Dialer {
	return func(ctx context.Context) (Conn, error) {
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

type notification struct {
	Op          string `json:"op"`
	ID          int64  `json:"id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
}

// Listener forwards order notifications from Postgres to a Hub. After a lost
// connection it reconnects and broadcasts a refetch marker, since notifications
// sent while disconnected are gone.
type Listener struct {
	dial    Dialer
	hub     *Hub
	clock   clock.Clock
	backoff retry.Backoff
	logger  *zap.Logger
}

func NewListener(dial Dialer, hub *Hub, clk clock.Clock, logger *zap.Logger) *Listener {
	return &Listener{
		dial:    dial,
		hub:     hub,
		clock:   clk,
		backoff: retry.CappedBackoff(retry.ExponentialBackoff(500*time.Millisecond), 30*time.Second),
		logger:  logger,
	}
}

// Run blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	reconnecting := false
	for {
		conn, err := l.connect(ctx)
		if err != nil {
			return err
		}

		if reconnecting {
			l.logger.Info("Order listener reconnected")
			l.hub.Broadcast(domain.OrderEvent{Type: domain.OrderEventRefetch, OccurredAt: l.clock.Now()})
		}

		err = l.consume(ctx, conn)
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = conn.Close(closeCtx)
		cancel()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("Order listener connection lost", zap.Error(err))
		reconnecting = true
	}
}

// connect retries until a LISTEN connection is established or ctx ends.
func (l *Listener) connect(ctx context.Context) (Conn, error) {
	attempt := 0
	for {
		conn, err := l.listen(ctx)
		if err == nil {
			return conn, nil
		}

		attempt++
		l.logger.Error("Failed to start order listener",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		timer := time.NewTimer(l.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Listener) listen(ctx context.Context) (Conn, error) {
	conn, err := l.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to listen on %s: %w", Channel, err)
	}
	return conn, nil
}

func (l *Listener) consume(ctx context.Context, conn Conn) error {
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if n.Channel != Channel {
			continue
		}

		event, err := decodeNotification(n.Payload, l.clock.Now())
		if err != nil {
			l.logger.Warn("Ignoring malformed order notification",
				zap.String("payload", n.Payload),
				zap.Error(err),
			)
			continue
		}
		l.hub.Broadcast(event)
	}
}

var errUnknownOp = errors.New("unknown operation")

func decodeNotification(payload string, at time.Time) (domain.OrderEvent, error) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return domain.OrderEvent{}, err
	}

	op := domain.OrderEventType(n.Op)
	switch op {
	case domain.OrderEventInsert, domain.OrderEventUpdate, domain.OrderEventDelete:
	default:
		return domain.OrderEvent{}, fmt.Errorf("%w: %q", errUnknownOp, n.Op)
	}

	return domain.OrderEvent{
		Type:        op,
		OrderID:     n.ID,
		OrderNumber: n.OrderNumber,
		Status:      domain.OrderStatus(n.Status),
		OccurredAt:  at,
	}, nil
}
