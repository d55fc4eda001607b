package out

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/core/json_types"
)

// CachePort - кэш сгенерированных слотов на день.
// Ключ - пользователь, дата и шаг сетки.
type CachePort interface {
	GetDaySlots(ctx context.Context, userID uuid.UUID, date time.Time, step time.Duration) ([]json_types.ClockTime, bool)
	StoreDaySlots(ctx context.Context, userID uuid.UUID, date time.Time, step time.Duration, slots []json_types.ClockTime)
	InvalidateUserSlots(ctx context.Context, userID uuid.UUID)
	InvalidateAllSlots(ctx context.Context)
}
