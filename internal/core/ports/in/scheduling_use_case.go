package in

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/core/domain"
	"github.com/skillswap/session-service/internal/core/json_types"
)

type SchedulingUseCase interface {
	// Можно ли выбрать дату для бронирования у пользователя
	IsDateSelectable(ctx context.Context, userID uuid.UUID, date time.Time, courseID *uuid.UUID) (bool, error)

	// Слоты на выбранную дату с шагом сценария
	SlotsForDate(ctx context.Context, userID uuid.UUID, date time.Time, flow domain.BookingFlow) ([]json_types.ClockTime, []domain.DebugInfo, error)

	// Создание записи со статусом pending и маршрутизацией в неделю курса
	CreateAppointment(ctx context.Context, appointment *domain.Appointment) error

	// Подтверждение и отклонение предложенной записи
	AcceptAppointment(ctx context.Context, appointmentID uuid.UUID) error
	DeclineAppointment(ctx context.Context, appointmentID uuid.UUID) error

	// Перенос подтвержденной записи на другой слот
	RescheduleAppointment(ctx context.Context, appointmentID uuid.UUID, date time.Time, clock json_types.ClockTime) error

	// Список записей пользователя с ленивой отменой просроченных pending
	ListAppointments(ctx context.Context, userID uuid.UUID) ([]domain.Appointment, error)

	// Следующая запись: идущая сейчас приоритетнее ближайшей будущей
	NextAppointment(ctx context.Context, userID uuid.UUID) (*domain.Appointment, error)
}
