package rabbitmq

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/skillswap/session-service/internal/core/ports/out"
)

type AvailabilityChangeMessage struct {
	UserID uuid.UUID `json:"userId"`
}

func (l *ChangeListener) startAvailabilityQueue(ctx context.Context) error {
	return l.consume(
		ctx,
		l.cfg.Signal.QueueConfig.AvailabilityQueueName,
		"backend.session-svc.availability.*",
		l.processAvailabilityMessage,
	)
}

func (l *ChangeListener) processAvailabilityMessage(ctx context.Context, msg amqp.Delivery) error {
	routingKey, err := l.parseChangeMessageRoutingKey(msg)
	if err != nil {
		return err
	}

	if routingKey.ResourceType != ChangeResourceTypeAvailability {
		return nil
	}

	var msgJson AvailabilityChangeMessage
	if err := json.Unmarshal(msg.Body, &msgJson); err != nil {
		return err
	}

	l.logger.Info("availability.message.received", out.LogFields{
		"userId": msgJson.UserID,
	})

	// Пустой идентификатор трактуем как глобальное изменение
	if msgJson.UserID == uuid.Nil {
		l.cache.InvalidateAllSlots(ctx)
		return nil
	}

	l.cache.InvalidateUserSlots(ctx, msgJson.UserID)

	return nil
}
