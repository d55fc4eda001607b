package in

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/core/domain"
)

type SessionUseCase interface {
	// Текущее состояние сессии и остаток обратного отсчета до окна входа
	SessionState(ctx context.Context, appointmentID, userID uuid.UUID) (domain.SessionCall, time.Duration, error)

	// Вход в звонок: захват медиа, исходящий вызов и ожидание входящего
	Join(ctx context.Context, appointmentID, userID uuid.UUID) (domain.SessionCall, error)

	// Завершение звонка. Явное завершение требует подтверждения.
	End(ctx context.Context, appointmentID, userID uuid.UUID, confirmed bool) (domain.SessionCall, error)

	// Включение и выключение демонстрации экрана
	SetScreenShare(ctx context.Context, appointmentID, userID uuid.UUID, enabled bool, withAudio bool) (domain.SessionCall, error)

	// Явное снятие заглушки с аудио демонстрации экрана
	SetScreenAudioMuted(ctx context.Context, appointmentID, userID uuid.UUID, muted bool) (domain.SessionCall, error)

	// Уход со страницы сессии: снятие таймеров, слушателей и освобождение устройств
	Dispose(appointmentID uuid.UUID)
}
