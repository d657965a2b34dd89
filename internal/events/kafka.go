package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wishyoulucky/internal/domain"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

var ErrNoBrokers = errors.New("no kafka brokers configured")

// recordDeliveryTimeout bounds how long kgo keeps retrying one record.
const recordDeliveryTimeout = 10 * time.Second

// ProducerClient is the subset of *kgo.Client used for producing.
type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// NewProducerClient connects to the brokers and pings them. Records go to topic.
func NewProducerClient(ctx context.Context, brokers []string, topic string) (*kgo.Client, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}

	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.AllowAutoTopicCreation(),
		kgo.RecordDeliveryTimeout(recordDeliveryTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	if err := cl.Ping(ctx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("failed to reach kafka brokers: %w", err)
	}

	return cl, nil
}

// KafkaPublisher produces Avro encoded order events keyed by order number, so all
// events of one order land on the same partition in order.
type KafkaPublisher struct {
	cl     ProducerClient
	codec  *Codec
	logger *zap.Logger
}

func NewKafkaPublisher(cl ProducerClient, codec *Codec, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{cl: cl, codec: codec, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := p.codec.Encode(event)
	if err != nil {
		return fmt.Errorf("failed to encode order event: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(event.OrderNumber),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "schema", Value: []byte("OrderEventV1")},
		},
	}

	if err := p.cl.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce order event: %w", err)
	}

	p.logger.Debug("Order event published",
		zap.String("order_number", event.OrderNumber),
		zap.String("type", string(event.Type)),
	)
	return nil
}

func (p *KafkaPublisher) Close() {
	p.logger.Info("Closing kafka producer")
	p.cl.Close()
}
