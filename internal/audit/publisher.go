package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"agripass/internal/platform/kafka"
)

// Topic carrying passport audit events.
const Topic = "agripass.passport.audit"

// Publisher emits audit events. Issuance treats audit loss as an operational
// concern, not a correctness failure: callers log and continue when Emit
// errors.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// KafkaPublisher writes events to the audit topic.
type KafkaPublisher struct {
	producer *kafka.Producer
}

// NewKafkaPublisher constructs a Kafka-backed publisher.
func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// Emit publishes the event keyed by token so all events for one passport
// land in the same partition, preserving their order.
func (p *KafkaPublisher) Emit(ctx context.Context, event Event) error {
	stamp(&event)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return p.producer.Publish(ctx, Topic, []byte(event.Token), payload)
}

// LogPublisher records events to the structured log. It is the default when
// no brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher constructs a log-backed publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Emit(ctx context.Context, event Event) error {
	stamp(&event)
	p.logger.InfoContext(ctx, "audit event",
		"action", event.Action,
		"owner_id", event.OwnerID,
		"token", event.Token,
		"content_id", event.ContentID,
		"mock", event.Mock,
	)
	return nil
}

func stamp(event *Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
}
