package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"listing-service/internal/constants"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	routingKeys []string
	messages    []amqp.Publishing
	deadlines   []bool
	err         error
}

func (r *recordingPublisher) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	_, hasDeadline := ctx.Deadline()
	r.deadlines = append(r.deadlines, hasDeadline)
	r.routingKeys = append(r.routingKeys, routingKey)
	r.messages = append(r.messages, msg)
	return r.err
}

func sampleEvent(t domain.PropertyEventType) domain.PropertyEvent {
	return domain.NewPropertyEvent(t, &domain.Property{
		ID:      11,
		OwnerID: 3,
		Slug:    "sunny-flat",
		Status:  domain.StatusPending,
	}, []string{"price"}, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
}

func TestPublishPropertyEvent(t *testing.T) {
	producer := &recordingPublisher{}
	adapter, err := NewPropertyEventPublisherAdapter(producer)
	require.NoError(t, err)

	ctx := contextkeys.ContextWithTraceID(context.Background(), "trace-123")
	require.NoError(t, adapter.PublishPropertyEvent(ctx, sampleEvent(domain.EventPropertyUpdated)))

	require.Len(t, producer.messages, 1)
	assert.Equal(t, constants.RoutingKeyPropertyUpdated, producer.routingKeys[0])
	assert.True(t, producer.deadlines[0])

	msg := producer.messages[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "trace-123", msg.Headers["x-trace-id"])

	var dto PropertyEventDTO
	require.NoError(t, json.Unmarshal(msg.Body, &dto))
	assert.Equal(t, "property.updated", dto.EventType)
	assert.Equal(t, int64(11), dto.PropertyID)
	assert.Equal(t, []string{"price"}, dto.ChangedFields)
	assert.Equal(t, dto.EventID.String(), msg.MessageId)
}

func TestPublishPropertyEvent_Errors(t *testing.T) {
	producer := &recordingPublisher{err: errors.New("channel closed")}
	adapter, err := NewPropertyEventPublisherAdapter(producer)
	require.NoError(t, err)

	err = adapter.PublishPropertyEvent(context.Background(), sampleEvent(domain.EventPropertyDeleted))
	assert.ErrorContains(t, err, "channel closed")

	err = adapter.PublishPropertyEvent(context.Background(), sampleEvent("property.moved"))
	assert.Error(t, err)

	_, err = NewPropertyEventPublisherAdapter(nil)
	assert.Error(t, err)
}

type capturedLog struct {
	level  string
	msg    string
	err    error
	fields port.Fields
}

type capturingLogger struct {
	base    port.Fields
	entries *[]capturedLog
}

func newCapturingLogger() *capturingLogger {
	return &capturingLogger{entries: &[]capturedLog{}}
}

func (l *capturingLogger) record(level, msg string, err error, fields port.Fields) {
	merged := port.Fields{}
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	*l.entries = append(*l.entries, capturedLog{level: level, msg: msg, err: err, fields: merged})
}

func (l *capturingLogger) Info(msg string, fields port.Fields)  { l.record("info", msg, nil, fields) }
func (l *capturingLogger) Warn(msg string, fields port.Fields)  { l.record("warn", msg, nil, fields) }
func (l *capturingLogger) Debug(msg string, fields port.Fields) { l.record("debug", msg, nil, fields) }
func (l *capturingLogger) Error(msg string, err error, fields port.Fields) {
	l.record("error", msg, err, fields)
}
func (l *capturingLogger) WithFields(fields port.Fields) port.LoggerPort {
	merged := port.Fields{}
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &capturingLogger{base: merged, entries: l.entries}
}

func TestBrokerLogBridge(t *testing.T) {
	logger := newCapturingLogger()
	bridge := NewBrokerLogBridge(logger, "listing_events_publisher")

	bridge.Info("Exchange declared", "name", "listing_exchange", 42, "answer", "dangling")
	brokerErr := errors.New("channel closed")
	bridge.Error(brokerErr, "Publish failed", "routing_key", constants.RoutingKeyPropertyCreated)

	entries := *logger.entries
	require.Len(t, entries, 2)

	assert.Equal(t, "info", entries[0].level)
	assert.Equal(t, port.Fields{
		"component": "listing_events_publisher",
		"broker":    "rabbitmq",
		"name":      "listing_exchange",
		"42":        "answer",
		"extra":     "dangling",
	}, entries[0].fields)

	assert.Equal(t, "error", entries[1].level)
	assert.Same(t, brokerErr, entries[1].err)
	assert.Equal(t, constants.RoutingKeyPropertyCreated, entries[1].fields["routing_key"])

	assert.Nil(t, pairsToFields(nil))
}
