package out

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/core/domain"
	"github.com/skillswap/session-service/internal/core/json_types"
)

// BackendPort - REST-бэкенд платформы: записи, доступность, курсы
type BackendPort interface {
	// Доступность и курсы
	GetAvailability(ctx context.Context, userID uuid.UUID) (domain.WeeklyAvailability, error)
	GetCourse(ctx context.Context, courseID uuid.UUID) (*domain.CourseWindow, error)

	// Записи
	GetAppointment(ctx context.Context, appointmentID uuid.UUID) (*domain.Appointment, error)
	ListAppointments(ctx context.Context, userID uuid.UUID) ([]domain.Appointment, error)
	CreateAppointment(ctx context.Context, appointment *domain.Appointment) error
	UpdateAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, status domain.AppointmentStatus) error
	RescheduleAppointment(ctx context.Context, appointmentID uuid.UUID, date time.Time, clock json_types.ClockTime) error

	// Отдельные выборки: идущая прямо сейчас и ближайшая будущая
	GetActiveAppointment(ctx context.Context, userID uuid.UUID) (*domain.Appointment, error)
	GetUpcomingAppointment(ctx context.Context, userID uuid.UUID) (*domain.Appointment, error)
}

// CreditPort - леджер кредитов. Вызов задуман идемпотентным по сессии,
// но гарантий идемпотентности на этой стороне нет.
type CreditPort interface {
	IncreaseTeacherCredit(ctx context.Context, teacherID uuid.UUID) error
}
