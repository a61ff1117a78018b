package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"sdnguard/internal/sanctions/metrics"
	"sdnguard/pkg/platform/sentinel"
)

// Publisher emits screening events. Publish never blocks on the broker and
// never fails the caller; delivery problems are logged and counted.
type Publisher interface {
	Publish(ctx context.Context, events ...ScreeningEvent)
	Close(ctx context.Context) error
}

// NoopPublisher discards events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ...ScreeningEvent) {}

func (NoopPublisher) Close(context.Context) error { return nil }

// KafkaPublisher produces events to a Kafka topic keyed by customer name,
// so every verdict for a name lands on the same partition.
type KafkaPublisher struct {
	client  *kgo.Client
	topic   string
	logger  *slog.Logger
	metrics *metrics.Metrics
	closed  atomic.Bool
}

// Option configures a KafkaPublisher.
type Option func(*KafkaPublisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *KafkaPublisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *KafkaPublisher) { p.metrics = m }
}

// NewKafkaPublisher connects a producer to brokers for topic.
func NewKafkaPublisher(brokers []string, topic string, opts ...Option) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.ProducerLinger(50*time.Millisecond),
		kgo.MaxBufferedRecords(10_000),
		kgo.RecordDeliveryTimeout(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	p := &KafkaPublisher{
		client: client,
		topic:  topic,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Publish enqueues events for asynchronous delivery. Request cancellation
// does not abort delivery of events already handed over.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...ScreeningEvent) {
	if p.closed.Load() {
		for _, ev := range events {
			p.drop(ctx, ev, sentinel.ErrClosed)
		}
		return
	}
	produceCtx := context.WithoutCancel(ctx)
	for _, ev := range events {
		value, err := json.Marshal(ev)
		if err != nil {
			p.drop(ctx, ev, fmt.Errorf("marshal event: %w", err))
			continue
		}
		rec := &kgo.Record{
			Topic: p.topic,
			Key:   []byte(ev.CustomerName),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "event_id", Value: []byte(ev.ID)},
				{Key: "risk_level", Value: []byte(ev.RiskLevel)},
			},
		}
		p.client.Produce(produceCtx, rec, func(_ *kgo.Record, err error) {
			if err != nil {
				p.drop(produceCtx, ev, err)
			}
		})
	}
}

// Close flushes buffered events until ctx expires, then closes the client.
// Closing twice returns sentinel.ErrClosed.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return sentinel.ErrClosed
	}
	defer p.client.Close()
	if err := p.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush screening events: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) drop(ctx context.Context, ev ScreeningEvent, err error) {
	p.metrics.IncrementEventsDropped()
	p.logger.WarnContext(ctx, "screening event dropped",
		"event_id", ev.ID,
		"request_id", ev.RequestID,
		"topic", p.topic,
		"error", err,
	)
}
