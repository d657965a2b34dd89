package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/pkg/clock"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func updateEvent(id int64) domain.OrderEvent {
	return domain.OrderEvent{
		Type:        domain.OrderEventUpdate,
		OrderID:     id,
		OrderNumber: "WLK-250301AAAA",
		Status:      domain.OrderStatusPaid,
		OccurredAt:  testTime,
	}
}

func drain(sub *Subscription) []domain.OrderEvent {
	var out []domain.OrderEvent
	for {
		select {
		case e := <-sub.Events():
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestHub_BroadcastToAllSubscribers(t *testing.T) {
	hub := NewHub(4, zap.NewNop())
	a := hub.Subscribe()
	b := hub.Subscribe()

	hub.Broadcast(updateEvent(1))

	assert.Equal(t, []domain.OrderEvent{updateEvent(1)}, drain(a))
	assert.Equal(t, []domain.OrderEvent{updateEvent(1)}, drain(b))
	assert.Equal(t, 2, hub.SubscriberCount())
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(1, zap.NewNop())
	sub := hub.Subscribe()

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)

	_, open := <-sub.Events()
	assert.False(t, open)
	assert.Zero(t, hub.SubscriberCount())

	hub.Broadcast(updateEvent(1))
}

func TestHub_CloseEndsSubscriptions(t *testing.T) {
	hub := NewHub(1, zap.NewNop())
	a, b := hub.Subscribe(), hub.Subscribe()

	hub.Close()
	hub.Close()

	for _, sub := range []*Subscription{a, b} {
		_, open := <-sub.Events()
		assert.False(t, open)
	}
	assert.Zero(t, hub.SubscriberCount())

	hub.Unsubscribe(a)
	late := hub.Subscribe()
	_, open := <-late.Events()
	assert.False(t, open)
	assert.Zero(t, hub.SubscriberCount())
	hub.Unsubscribe(late)

	hub.Broadcast(updateEvent(1))
}

func TestHub_FullBufferGetsRefetchMarker(t *testing.T) {
	hub := NewHub(2, zap.NewNop())
	slow := hub.Subscribe()
	fast := hub.Subscribe()

	hub.Broadcast(updateEvent(1))
	hub.Broadcast(updateEvent(2))
	drain(fast)
	hub.Broadcast(updateEvent(3))

	got := drain(slow)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].OrderID)
	assert.Equal(t, domain.OrderEventRefetch, got[1].Type)

	assert.Equal(t, []domain.OrderEvent{updateEvent(3)}, drain(fast))
}

func TestHub_PreservesOrderProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("subscriber with room sees events in broadcast order", prop.ForAll(
		func(ids []int64) bool {
			hub := NewHub(len(ids)+1, zap.NewNop())
			sub := hub.Subscribe()
			for _, id := range ids {
				hub.Broadcast(updateEvent(id))
			}
			got := drain(sub)
			if len(got) != len(ids) {
				return false
			}
			for i := range ids {
				if got[i].OrderID != ids[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Int64Range(1, 1_000_000)),
	))

	properties.Property("overflow always ends with a refetch marker", prop.ForAll(
		func(extra int) bool {
			hub := NewHub(3, zap.NewNop())
			sub := hub.Subscribe()
			for i := 0; i < 3+extra; i++ {
				hub.Broadcast(updateEvent(int64(i)))
			}
			got := drain(sub)
			return len(got) == 3 && got[len(got)-1].Type == domain.OrderEventRefetch
		},
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}

func TestDecodeNotification(t *testing.T) {
	event, err := decodeNotification(`{"op":"INSERT","id":7,"order_number":"WLK-250301ABCD","status":"pending_payment"}`, testTime)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderEvent{
		Type:        domain.OrderEventInsert,
		OrderID:     7,
		OrderNumber: "WLK-250301ABCD",
		Status:      domain.OrderStatusPendingPayment,
		OccurredAt:  testTime,
	}, event)

	_, err = decodeNotification(`{"op":"TRUNCATE"}`, testTime)
	assert.ErrorIs(t, err, errUnknownOp)

	_, err = decodeNotification(`not json`, testTime)
	assert.Error(t, err)
}

type fakeConn struct {
	notifications chan *pgconn.Notification
	failAfter     bool
	mu            sync.Mutex
	listened      []string
	closed        bool
}

func newFakeConn(payloads []string, failAfter bool) *fakeConn {
	c := &fakeConn{notifications: make(chan *pgconn.Notification, len(payloads)), failAfter: failAfter}
	for _, p := range payloads {
		c.notifications <- &pgconn.Notification{Channel: Channel, Payload: p}
	}
	return c
}

func (c *fakeConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listened = append(c.listened, sql)
	return pgconn.NewCommandTag("LISTEN"), nil
}

func (c *fakeConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	select {
	case n := <-c.notifications:
		return n, nil
	default:
	}
	if c.failAfter {
		return nil, errors.New("conn closed")
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (c *fakeConn) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func TestListener_ForwardsAndRefetchesAfterReconnect(t *testing.T) {
	first := newFakeConn([]string{`{"op":"UPDATE","id":1,"order_number":"WLK-1","status":"paid"}`}, true)
	second := newFakeConn([]string{`{"op":"INSERT","id":2,"order_number":"WLK-2","status":"pending_payment"}`}, false)
	conns := []*fakeConn{first, second}

	var dials int
	dial := func(context.Context) (Conn, error) {
		c := conns[dials]
		dials++
		return c, nil
	}

	hub := NewHub(8, zap.NewNop())
	sub := hub.Subscribe()
	listener := NewListener(dial, hub, clock.NewMockClock(testTime), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	var got []domain.OrderEvent
	for len(got) < 3 {
		select {
		case e := <-sub.Events():
			got = append(got, e)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for events, got %v", got)
		}
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.Equal(t, domain.OrderEventUpdate, got[0].Type)
	assert.Equal(t, domain.OrderEventRefetch, got[1].Type)
	assert.Equal(t, domain.OrderEventInsert, got[2].Type)
	assert.Equal(t, "WLK-2", got[2].OrderNumber)
	assert.Equal(t, []string{"LISTEN order_changes"}, first.listened)
	assert.True(t, first.closed)
}

func TestListener_StopsWhileConnecting(t *testing.T) {
	dial := func(context.Context) (Conn, error) {
		return nil, errors.New("connection refused")
	}
	listener := NewListener(dial, NewHub(1, zap.NewNop()), clock.NewRealClock(), zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, listener.Run(ctx), context.DeadlineExceeded)
}
