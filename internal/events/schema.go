package events

import (
	"fmt"
	"time"

	"wishyoulucky/internal/domain"

	"github.com/hamba/avro/v2"
)

const orderEventSchemaV1 = `{
	"type": "record",
	"name": "OrderEventV1",
	"namespace": "page.wishyoulucky.orders",
	"fields": [
		{"name": "type", "type": "string"},
		{"name": "order_id", "type": "long"},
		{"name": "order_number", "type": "string"},
		{"name": "status", "type": "string"},
		{"name": "occurred_at_ms", "type": "long"}
	]
}`

// OrderEventV1 is the wire form of domain.OrderEvent.
type OrderEventV1 struct {
	Type        string `avro:"type"`
	OrderID     int64  `avro:"order_id"`
	OrderNumber string `avro:"order_number"`
	Status      string `avro:"status"`
	OccurredAt  int64  `avro:"occurred_at_ms"`
}

// Codec encodes and decodes order events with a fixed Avro schema.
type Codec struct {
	schema avro.Schema
}

func NewCodec() (*Codec, error) {
	s, err := avro.Parse(orderEventSchemaV1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse order event schema: %w", err)
	}
	return &Codec{schema: s}, nil
}

func (c *Codec) Encode(e domain.OrderEvent) ([]byte, error) {
	return avro.Marshal(c.schema, toSchemaV1(e))
}

func (c *Codec) Decode(data []byte) (domain.OrderEvent, error) {
	var v OrderEventV1
	if err := avro.Unmarshal(c.schema, data, &v); err != nil {
		return domain.OrderEvent{}, err
	}
	return fromSchemaV1(v), nil
}

func toSchemaV1(e domain.OrderEvent) OrderEventV1 {
	return OrderEventV1{
		Type:        string(e.Type),
		OrderID:     e.OrderID,
		OrderNumber: e.OrderNumber,
		Status:      string(e.Status),
		OccurredAt:  e.OccurredAt.UnixMilli(),
	}
}

func fromSchemaV1(v OrderEventV1) domain.OrderEvent {
	return domain.OrderEvent{
		Type:        domain.OrderEventType(v.Type),
		OrderID:     v.OrderID,
		OrderNumber: v.OrderNumber,
		Status:      domain.OrderStatus(v.Status),
		OccurredAt:  time.UnixMilli(v.OccurredAt).UTC(),
	}
}
