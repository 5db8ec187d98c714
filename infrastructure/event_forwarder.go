package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mahjongbot/events"
	"mahjongbot/infrastructure/observability"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// SubjectPrefix namespaces every forwarded event subject
const SubjectPrefix = "mahjong"

const sourceService = "mahjongbot"

// publishTimeout bounds a single forward so a slow broker never piles up handlers
const publishTimeout = 5 * time.Second

// MessagePublisher sends raw bytes to a subject
type MessagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// EventEnvelope wraps a committed event for external consumers
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// SubjectFor maps an event type to its NATS subject
func SubjectFor(eventType events.EventType) string {
	return SubjectPrefix + "." + string(eventType)
}

// EventForwarder publishes committed events from the in-process bus to NATS
type EventForwarder struct {
	publisher MessagePublisher
	metrics   *observability.MetricsProvider
	now       func() time.Time
}

// NewEventForwarder creates a forwarder; metrics may be nil
func NewEventForwarder(publisher MessagePublisher, metrics *observability.MetricsProvider) *EventForwarder {
	return &EventForwarder{
		publisher: publisher,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register subscribes the forwarder to every event type on the bus
func (f *EventForwarder) Register(bus *events.Bus) {
	bus.SubscribeAll(f.Handle)
}

// Handle forwards one event; failures are logged and never reach the command
func (f *EventForwarder) Handle(ctx context.Context, event events.Event) {
	err := f.forward(ctx, event)
	f.metrics.RecordNATSPublished(event.Type(), err)
	if err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to forward event to NATS")
	}
}

func (f *EventForwarder) forward(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     f.now(),
		SourceService: sourceService,
		Payload:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	subject := SubjectFor(event.Type())
	if err := f.publisher.Publish(ctx, subject, data); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Forwarded event to NATS")
	return nil
}
