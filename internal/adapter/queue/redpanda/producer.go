// Package redpanda publishes lead events to Redpanda/Kafka so downstream
// systems (CRM sync, notifications) learn about captured quote requests.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/lead-agent/internal/domain"
	obsctx "github.com/fairyhunter13/lead-agent/internal/observability"
)

const (
	// DefaultTopic receives one record per accepted quote request.
	DefaultTopic = "quote-requests"
	// EventQuoteRequested is the event_type header of quote records.
	EventQuoteRequested = "quote_requested"
)

// client is the subset of *kgo.Client the producer uses.
type client interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Request(ctx context.Context, req kmsg.Request) (kmsg.Response, error)
	Close()
}

// LeadEvent is the record value published for an accepted quote request.
type LeadEvent struct {
	Type      string              `json:"type"`
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"createdAt"`
	Payload   domain.QuotePayload `json:"payload"`
}

// Producer implements domain.LeadPublisher.
type Producer struct {
	client client
	topic  string
}

var _ domain.LeadPublisher = (*Producer)(nil)

// NewProducer connects to brokers and ensures topic exists. Topic creation
// failures are logged; the broker may auto-create or the topic may exist.
func NewProducer(ctx context.Context, brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("%w: no seed brokers provided", domain.ErrInvalidArgument)
	}
	if topic == "" {
		topic = DefaultTopic
	}
	slog.Info("creating redpanda producer", slog.Any("brokers", brokers), slog.String("topic", topic))

	kotelService := kotel.NewKotel(
		kotel.WithTracer(kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider()))),
	)
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RequestRetries(5),
		kgo.RecordDeliveryTimeout(5*time.Second),
		kgo.DialTimeout(5*time.Second),
		kgo.WithHooks(kotelService.Hooks()...),
	)
	if err != nil {
		return nil, fmt.Errorf("op=redpanda.new_producer: %w", err)
	}
	p := newProducer(cl, topic)
	if err := createTopicIfNotExists(ctx, cl, topic, 1, 1); err != nil {
		slog.Warn("failed to create topic, it may already exist",
			slog.String("topic", topic),
			slog.Any("error", err))
	}
	return p, nil
}

func newProducer(c client, topic string) *Producer {
	return &Producer{client: c, topic: topic}
}

// PublishQuote implements domain.LeadPublisher. Records are keyed by quote id.
func (p *Producer) PublishQuote(ctx context.Context, q domain.QuoteSubmission) error {
	b, err := json.Marshal(LeadEvent{Type: EventQuoteRequested, ID: q.ID, CreatedAt: q.CreatedAt.UTC(), Payload: q.Payload})
	if err != nil {
		return fmt.Errorf("op=redpanda.publish: marshal: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(q.ID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(EventQuoteRequested)},
			{Key: "quote_id", Value: []byte(q.ID)},
		},
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("op=redpanda.publish: %w", err)
	}
	obsctx.LoggerFromContext(ctx).Debug("lead event published",
		slog.String("topic", p.topic),
		slog.String("quote_id", q.ID))
	return nil
}

// Topic reports the destination topic.
func (p *Producer) Topic() string { return p.topic }

// Close flushes and closes the client.
func (p *Producer) Close() error {
	if p.client != nil {
		p.client.Close()
	}
	return nil
}
