package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"listing-service/internal/constants"
	"listing-service/internal/contextkeys"
	"listing-service/internal/contracts"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 10 * time.Second

// PropertyEventDTO - тело сообщения property.*
type PropertyEventDTO struct {
	EventID       uuid.UUID `json:"event_id"`
	EventType     string    `json:"event_type"`
	PropertyID    int64     `json:"property_id"`
	OwnerID       int64     `json:"owner_id"`
	Slug          string    `json:"slug"`
	Status        string    `json:"status"`
	ChangedFields []string  `json:"changed_fields,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// MessagePublisher - то, что адаптеру нужно от rabbitmq_producer.Publisher
type MessagePublisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

type PropertyEventPublisherAdapter struct {
	producer MessagePublisher
}

var _ port.PropertyEventPublisherPort = (*PropertyEventPublisherAdapter)(nil)

func NewPropertyEventPublisherAdapter(producer MessagePublisher) (*PropertyEventPublisherAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	return &PropertyEventPublisherAdapter{producer: producer}, nil
}

func routingKeyFor(t domain.PropertyEventType) (string, error) {
	switch t {
	case domain.EventPropertyCreated:
		return constants.RoutingKeyPropertyCreated, nil
	case domain.EventPropertyUpdated:
		return constants.RoutingKeyPropertyUpdated, nil
	case domain.EventPropertyDeleted:
		return constants.RoutingKeyPropertyDeleted, nil
	}
	return "", fmt.Errorf("rabbitmq adapter: unknown event type %q", t)
}

func toEventDTO(event domain.PropertyEvent) PropertyEventDTO {
	return PropertyEventDTO{
		EventID:       uuid.New(),
		EventType:     string(event.Type),
		PropertyID:    event.PropertyID,
		OwnerID:       event.OwnerID,
		Slug:          event.Slug,
		Status:        string(event.Status),
		ChangedFields: event.ChangedFields,
		OccurredAt:    event.OccurredAt.UTC(),
	}
}

// buildMessage собирает amqp.Publishing и проверяет тело по схеме события
func buildMessage(ctx context.Context, dto PropertyEventDTO) (amqp.Publishing, error) {
	body, err := json.Marshal(dto)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := contracts.ValidateEvent(contracts.PropertyLifecycleEvent, contracts.Version1, body); err != nil {
		return amqp.Publishing{}, err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    dto.EventID.String(),
		Type:         dto.EventType,
		Timestamp:    dto.OccurredAt,
		Headers: amqp.Table{
			"x-event-type":    dto.EventType,
			"x-event-version": contracts.Version1,
		},
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}
	return msg, nil
}

func (a *PropertyEventPublisherAdapter) PublishPropertyEvent(ctx context.Context, event domain.PropertyEvent) error {
	routingKey, err := routingKeyFor(event.Type)
	if err != nil {
		return err
	}

	adapterLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "PropertyEventPublisherAdapter",
		"routing_key": routingKey,
		"property_id": event.PropertyID,
	})

	msg, err := buildMessage(ctx, toEventDTO(event))
	if err != nil {
		adapterLogger.Error("Event does not match its contract", err, nil)
		return fmt.Errorf("rabbitmq adapter: invalid %s event: %w", event.Type, err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := a.producer.Publish(publishCtx, routingKey, msg); err != nil {
		adapterLogger.Error("Failed to publish property event", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish %s for property %d: %w", event.Type, event.PropertyID, err)
	}

	adapterLogger.Debug("Property event published", port.Fields{"message_id": msg.MessageId})
	return nil
}
