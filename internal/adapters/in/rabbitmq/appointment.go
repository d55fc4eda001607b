package rabbitmq

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/skillswap/session-service/internal/core/ports/out"
)

type AppointmentChangeMessage struct {
	AppointmentID uuid.UUID `json:"appointmentId"`
	TeacherID     uuid.UUID `json:"teacher"`
	StudentID     uuid.UUID `json:"student"`
}

func (l *ChangeListener) startAppointmentQueue(ctx context.Context) error {
	return l.consume(
		ctx,
		l.cfg.Signal.QueueConfig.AppointmentQueueName,
		"backend.session-svc.appointment.*",
		l.processAppointmentMessage,
	)
}

func (l *ChangeListener) processAppointmentMessage(ctx context.Context, msg amqp.Delivery) error {
	routingKey, err := l.parseChangeMessageRoutingKey(msg)
	if err != nil {
		return err
	}

	if routingKey.ResourceType != ChangeResourceTypeAppointment {
		return nil
	}

	var msgJson AppointmentChangeMessage
	if err := json.Unmarshal(msg.Body, &msgJson); err != nil {
		return err
	}

	l.logger.Info("appointment.message.received", out.LogFields{
		"appointmentId": msgJson.AppointmentID,
		"action":        routingKey.Action,
	})

	// Занятость изменилась у обоих участников
	l.cache.InvalidateUserSlots(ctx, msgJson.TeacherID)
	l.cache.InvalidateUserSlots(ctx, msgJson.StudentID)

	// Отмененная запись сносит живые контроллеры сессии
	if routingKey.Action == ChangeActionCanceled {
		l.sessions.Dispose(msgJson.AppointmentID)

		l.logger.Info("appointment.message.session_disposed", out.LogFields{
			"appointmentId": msgJson.AppointmentID,
		})
	}

	return nil
}
