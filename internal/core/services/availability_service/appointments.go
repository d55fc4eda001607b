package availability_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/core/domain"
	"github.com/skillswap/session-service/internal/core/json_types"
	"github.com/skillswap/session-service/internal/core/ports/out"
)

var (
	ErrMissingDateTime     = errors.New("appointment date and time are required")
	ErrDateNotSelectable   = errors.New("date is not selectable")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidStatusChange = errors.New("invalid appointment status change")
)

// CreateAppointment создает запись со статусом pending от имени предложившей
// стороны. Если запись привязана к курсу, она маршрутизируется в номер недели.
func (s *AvailabilityService) CreateAppointment(ctx context.Context, appointment *domain.Appointment) error {
	if appointment.Date.Date.IsZero() || appointment.Time.IsZero() {
		return ErrMissingDateTime
	}

	selectable, err := s.IsDateSelectable(ctx, appointment.Teacher, appointment.Date.Date, appointment.CourseID)
	if err != nil {
		return err
	}
	if !selectable {
		return ErrDateNotSelectable
	}

	if appointment.CourseID != nil {
		course, err := s.backendPort.GetCourse(ctx, *appointment.CourseID)
		if err != nil {
			s.logger.Error("appointment.create.course_fetch_failed", out.LogFields{
				"courseId": *appointment.CourseID,
				"error":    err.Error(),
			})
			return fmt.Errorf("appointment.create.course_fetch_failed: %w", err)
		}
		appointment.Week = WeekForDate(appointment.Date.Date, *course)
	}

	appointment.Status = domain.AppointmentStatusPending

	if err := s.backendPort.CreateAppointment(ctx, appointment); err != nil {
		s.logger.Error("appointment.create.failed", out.LogFields{
			"teacher": appointment.Teacher,
			"student": appointment.Student,
			"error":   err.Error(),
		})
		return fmt.Errorf("appointment.create.failed: %w", err)
	}

	s.logger.Info("appointment.created", out.LogFields{
		"appointmentId": appointment.ID,
		"week":          appointment.Week,
	})

	// Забронированный слот делает кэш дня неактуальным
	if s.cachePort != nil && s.cfg.Cache.Enabled {
		s.cachePort.InvalidateUserSlots(ctx, appointment.Teacher)
	}

	return nil
}

func (s *AvailabilityService) AcceptAppointment(ctx context.Context, appointmentID uuid.UUID) error {
	return s.changeStatus(ctx, appointmentID, domain.AppointmentStatusPending, domain.AppointmentStatusConfirmed)
}

func (s *AvailabilityService) DeclineAppointment(ctx context.Context, appointmentID uuid.UUID) error {
	return s.changeStatus(ctx, appointmentID, domain.AppointmentStatusPending, domain.AppointmentStatusCanceled)
}

func (s *AvailabilityService) changeStatus(ctx context.Context, appointmentID uuid.UUID, from, to domain.AppointmentStatus) error {
	appointment, err := s.backendPort.GetAppointment(ctx, appointmentID)
	if err != nil {
		return fmt.Errorf("appointment.status.fetch_failed: %w", err)
	}
	if appointment == nil {
		return ErrAppointmentNotFound
	}
	if appointment.Status != from {
		return ErrInvalidStatusChange
	}

	if err := s.backendPort.UpdateAppointmentStatus(ctx, appointmentID, to); err != nil {
		s.logger.Error("appointment.status.update_failed", out.LogFields{
			"appointmentId": appointmentID,
			"status":        to,
			"error":         err.Error(),
		})
		return fmt.Errorf("appointment.status.update_failed: %w", err)
	}

	s.logger.Info("appointment.status.updated", out.LogFields{
		"appointmentId": appointmentID,
		"from":          from,
		"to":            to,
	})

	return nil
}

// RescheduleAppointment переносит запись на другой слот. При ошибке бэкенда
// состояние записи не меняется, исходный слот остается как был.
func (s *AvailabilityService) RescheduleAppointment(ctx context.Context, appointmentID uuid.UUID, date time.Time, clock json_types.ClockTime) error {
	if date.IsZero() || clock.IsZero() {
		return ErrMissingDateTime
	}

	appointment, err := s.backendPort.GetAppointment(ctx, appointmentID)
	if err != nil {
		return fmt.Errorf("appointment.reschedule.fetch_failed: %w", err)
	}
	if appointment == nil {
		return ErrAppointmentNotFound
	}

	selectable, err := s.IsDateSelectable(ctx, appointment.Teacher, date, appointment.CourseID)
	if err != nil {
		return err
	}
	if !selectable {
		return ErrDateNotSelectable
	}

	if err := s.backendPort.RescheduleAppointment(ctx, appointmentID, date, clock); err != nil {
		s.logger.Error("appointment.reschedule.failed", out.LogFields{
			"appointmentId": appointmentID,
			"error":         err.Error(),
		})
		return fmt.Errorf("appointment.reschedule.failed: %w", err)
	}

	if s.cachePort != nil && s.cfg.Cache.Enabled {
		s.cachePort.InvalidateUserSlots(ctx, appointment.Teacher)
	}

	return nil
}

// ListAppointments возвращает записи пользователя. Просроченные pending
// отменяются лениво при чтении, фоновой задачи для этого нет. Записи
// с нечитаемой датой или временем логируются и исключаются из выдачи.
func (s *AvailabilityService) ListAppointments(ctx context.Context, userID uuid.UUID) ([]domain.Appointment, error) {
	appointments, err := s.backendPort.ListAppointments(ctx, userID)
	if err != nil {
		s.logger.Error("appointments.list.fetch_failed", out.LogFields{
			"userId": userID,
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("appointments.list.fetch_failed: %w", err)
	}

	now := s.now()
	result := make([]domain.Appointment, 0, len(appointments))

	for _, appointment := range appointments {
		startAt, ok := appointment.StartAt()
		if !ok {
			s.logger.Warn("appointments.list.unparseable_datetime", out.LogFields{
				"appointmentId": appointment.ID,
			})
			continue
		}

		if appointment.Status == domain.AppointmentStatusPending && startAt.Before(now) {
			if err := s.backendPort.UpdateAppointmentStatus(ctx, appointment.ID, domain.AppointmentStatusCanceled); err != nil {
				// Не удалось отменить - отдадим как есть, отменится при следующем чтении
				s.logger.Warn("appointments.list.expire_failed", out.LogFields{
					"appointmentId": appointment.ID,
					"error":         err.Error(),
				})
			} else {
				appointment.Status = domain.AppointmentStatusCanceled
			}
		}

		result = append(result, appointment)
	}

	return result, nil
}

// NextAppointment - идущая прямо сейчас запись приоритетнее ближайшей будущей
func (s *AvailabilityService) NextAppointment(ctx context.Context, userID uuid.UUID) (*domain.Appointment, error) {
	active, err := s.backendPort.GetActiveAppointment(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("appointments.next.active_fetch_failed: %w", err)
	}
	if active != nil {
		return active, nil
	}

	upcoming, err := s.backendPort.GetUpcomingAppointment(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("appointments.next.upcoming_fetch_failed: %w", err)
	}

	return upcoming, nil
}
