package rabbitmq

import (
	"context"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/skillswap/session-service/internal/config"
	"github.com/skillswap/session-service/internal/core/ports/in"
	"github.com/skillswap/session-service/internal/core/ports/out"
)

// ChangeListener слушает события изменений бэкенда и сбрасывает кэш
// слотов. Изменение доступности или записи делает закэшированные дни
// пользователя неактуальными.
type ChangeListener struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	cache    out.CachePort
	sessions in.SessionUseCase
	cfg      *config.Config
	logger   out.LoggerPort
}

type ChangeResourceType string

const (
	ChangeResourceTypeAvailability ChangeResourceType = "availability"
	ChangeResourceTypeAppointment  ChangeResourceType = "appointment"
)

type ChangeAction string

const (
	ChangeActionUpdated  ChangeAction = "updated"
	ChangeActionCanceled ChangeAction = "canceled"
)

type ChangeMessageRoutingKey struct {
	Source       string
	Receiver     string
	ResourceType ChangeResourceType
	Action       ChangeAction
}

func NewChangeListener(
	cache out.CachePort,
	sessions in.SessionUseCase,
	cfg *config.Config,
	logger out.LoggerPort,
) (*ChangeListener, error) {
	if !cfg.Signal.Enabled {
		logger.Info("rabbitmq.disabled", out.LogFields{
			"message": "Signal broker is disabled, change listener will not be started",
		})
		return nil, nil
	}

	conn, err := amqp.Dial(cfg.Signal.AmqpUri)
	if err != nil {
		logger.Error("rabbitmq.connect.failed", out.LogFields{
			"error": err.Error(),
			"url":   cfg.Signal.AmqpUri,
		})
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		logger.Error("rabbitmq.channel.failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, err
	}

	return &ChangeListener{
		conn:     conn,
		channel:  channel,
		cache:    cache,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

func (l *ChangeListener) Start(ctx context.Context) error {
	if err := l.startAvailabilityQueue(ctx); err != nil {
		return err
	}
	l.logger.Info("availability.queue.started", out.LogFields{
		"queue": l.cfg.Signal.QueueConfig.AvailabilityQueueName,
	})

	if err := l.startAppointmentQueue(ctx); err != nil {
		return err
	}
	l.logger.Info("appointment.queue.started", out.LogFields{
		"queue": l.cfg.Signal.QueueConfig.AppointmentQueueName,
	})

	return nil
}

func (l *ChangeListener) Stop() error {
	if l == nil || l.channel == nil {
		return nil
	}

	if err := l.channel.Close(); err != nil {
		return err
	}
	return l.conn.Close()
}

func (l *ChangeListener) consume(ctx context.Context, queueName, bindKey string, process func(context.Context, amqp.Delivery) error) error {
	queue, err := l.channel.QueueDeclare(
		queueName,
		true,  // durable
		true,  // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return err
	}

	if err := l.channel.QueueBind(queue.Name, bindKey, l.cfg.Signal.Exchange, false, nil); err != nil {
		return err
	}

	msgs, err := l.channel.Consume(
		queue.Name,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				if err := process(ctx, msg); err != nil {
					msg.Nack(false, true) // requeue message
					continue
				}
				msg.Ack(false)
			}
		}
	}()

	return nil
}

// Пример routingKey:
// backend.session-svc.availability.updated
// backend.session-svc.appointment.updated
// backend.session-svc.appointment.canceled
func (l *ChangeListener) parseChangeMessageRoutingKey(msg amqp.Delivery) (ChangeMessageRoutingKey, error) {
	routingKey := msg.RoutingKey
	parts := strings.Split(routingKey, ".")

	if len(parts) < 4 {
		return ChangeMessageRoutingKey{}, fmt.Errorf("invalid routing key: %s", routingKey)
	}

	return ChangeMessageRoutingKey{
		Source:       parts[0],
		Receiver:     parts[1],
		ResourceType: ChangeResourceType(parts[2]),
		Action:       ChangeAction(parts[3]),
	}, nil
}
