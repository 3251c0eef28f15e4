package services

import (
	"context"
	"encoding/json"
	"time"

	"veriscan-backend/internal/analysis"
	"veriscan-backend/internal/logger"

	"github.com/segmentio/kafka-go"
)

// AnalysisEvent is published to the event stream after each completed
// classification run.
type AnalysisEvent struct {
	Task          analysis.Task `json:"task"`
	ModelUsed     string        `json:"model_used"`
	PrimaryScore  int           `json:"primary_score"`
	Confidence    string        `json:"confidence"`
	DurationMs    int64         `json:"duration_ms"`
	CorrelationID string        `json:"correlation_id,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// kafkaWriter is the subset of kafka.Writer used by the publisher
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventPublisher streams analysis events to Kafka. Publishing is
// best-effort: failures are logged, never surfaced to the request path.
// A nil publisher is valid and drops all events.
type EventPublisher struct {
	writer kafkaWriter
	topic  string
}

// NewEventPublisher creates a Kafka-backed publisher, or nil when no
// brokers are configured (event streaming disabled).
func NewEventPublisher(brokers []string, topic string) *EventPublisher {
	if len(brokers) == 0 {
		return nil
	}
	return &EventPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 100 * time.Millisecond,
		},
		topic: topic,
	}
}

// Publish writes one analysis event. Safe to call on a nil publisher.
func (p *EventPublisher) Publish(ctx context.Context, event *AnalysisEvent) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to marshal analysis event")
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(event.Task),
		Value: payload,
	}); err != nil {
		logger.Log.WithError(err).WithField("topic", p.topic).Warn("Failed to publish analysis event")
	}
}

// Close releases the underlying Kafka writer. Safe to call on nil.
func (p *EventPublisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
