package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"feedback-board-api/internal/metrics"
)

// EventType represents the type of domain event
type EventType string

const (
	EventFeedbackCreated       EventType = "FEEDBACK_CREATED"
	EventFeedbackStatusChanged EventType = "FEEDBACK_STATUS_CHANGED"
	EventCommentAdded          EventType = "COMMENT_ADDED"
	EventMemberAdded           EventType = "MEMBER_ADDED"
)

const eventTypeHeader = "event-type"

// Event is a domain event published after a successful commit
type Event struct {
	Type         EventType              `json:"type"`
	ActorID      uuid.UUID              `json:"actorId"`
	BoardID      uuid.UUID              `json:"boardId"`
	ResourceType string                 `json:"resourceType"`
	ResourceID   uuid.UUID              `json:"resourceId"`
	ResourceName string                 `json:"resourceName,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt   string                 `json:"occurredAt,omitempty"`
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish hands the event to the broker without waiting for delivery
	Publish(ctx context.Context, event Event) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer the publisher needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaPublisher implements EventPublisher on an asynchronous kafka-go writer
type kafkaPublisher struct {
	writer  messageWriter
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewKafkaPublisher creates a publisher that batches events to topic. Delivery
// outcomes are reported through the writer's completion callback.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger, m *metrics.Metrics) EventPublisher {
	p := &kafkaPublisher{
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion:   p.onCompletion,
	}
	return p
}

// Publish serializes the event and queues it keyed by board, so events of one board stay ordered
func (p *kafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt == "" {
		event.OccurredAt = p.now().UTC().Format(time.RFC3339)
	}

	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event",
			zap.Error(err),
			zap.String("type", string(event.Type)),
		)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:     []byte(event.BoardID.String()),
		Value:   value,
		Time:    p.now(),
		Headers: []kafka.Header{{Key: eventTypeHeader, Value: []byte(event.Type)}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		// Graceful degradation: the domain operation already committed
		p.logger.Warn("Failed to queue event",
			zap.Error(err),
			zap.String("type", string(event.Type)),
			zap.String("resource_id", event.ResourceID.String()),
		)
		p.metrics.RecordEventPublish(string(event.Type), 0, err)
	}
	return nil
}

// onCompletion runs on the writer's goroutine once a batch is acknowledged or has failed
func (p *kafkaPublisher) onCompletion(messages []kafka.Message, err error) {
	for _, msg := range messages {
		eventType := headerValue(msg.Headers, eventTypeHeader)
		p.metrics.RecordEventPublish(eventType, p.now().Sub(msg.Time), err)
		if err != nil {
			p.logger.Error("Failed to deliver event",
				zap.Error(err),
				zap.String("type", eventType),
				zap.ByteString("key", msg.Key),
			)
		}
	}
}

// Close flushes pending batches
func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return "unknown"
}

// NoOpEventPublisher is used when no broker is configured
type NoOpEventPublisher struct{}

func NewNoOpEventPublisher() EventPublisher {
	return &NoOpEventPublisher{}
}

func (p *NoOpEventPublisher) Publish(ctx context.Context, event Event) error {
	return nil
}

func (p *NoOpEventPublisher) Close() error {
	return nil
}
