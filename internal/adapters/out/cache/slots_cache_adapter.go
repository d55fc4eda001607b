package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/skillswap/session-service/internal/config"
	"github.com/skillswap/session-service/internal/core/json_types"
	"github.com/skillswap/session-service/internal/core/ports/out"
)

// SlotsCacheAdapter - LRU-кэш слотов на день.
// Ключ включает шаг сетки: бронирование и перенос не делят записи.
type SlotsCacheAdapter struct {
	cache   *lru.Cache[string, []json_types.ClockTime]
	enabled bool
	logger  out.LoggerPort
}

func NewSlotsCacheAdapter(cfg *config.Config, logger out.LoggerPort) (*SlotsCacheAdapter, error) {
	cache, err := lru.New[string, []json_types.ClockTime](cfg.Cache.SlotsSize)
	if err != nil {
		return nil, err
	}

	return &SlotsCacheAdapter{
		cache:   cache,
		enabled: cfg.Cache.Enabled,
		logger:  logger.WithModule("SlotsCacheAdapter"),
	}, nil
}

func slotsKey(userID uuid.UUID, date time.Time, step time.Duration) string {
	return fmt.Sprintf("%s/%s/%d", userID, date.Format("2006-01-02"), int(step.Minutes()))
}

func (a *SlotsCacheAdapter) GetDaySlots(ctx context.Context, userID uuid.UUID, date time.Time, step time.Duration) ([]json_types.ClockTime, bool) {
	if !a.enabled {
		return nil, false
	}

	slots, ok := a.cache.Get(slotsKey(userID, date, step))
	if !ok {
		return nil, false
	}

	a.logger.Debug("cache.slots.hit", out.LogFields{
		"userId": userID,
		"date":   date.Format("2006-01-02"),
	})

	return slots, true
}

func (a *SlotsCacheAdapter) StoreDaySlots(ctx context.Context, userID uuid.UUID, date time.Time, step time.Duration, slots []json_types.ClockTime) {
	if !a.enabled {
		return
	}

	a.cache.Add(slotsKey(userID, date, step), slots)
}

// InvalidateUserSlots выбрасывает все дни пользователя независимо от шага
func (a *SlotsCacheAdapter) InvalidateUserSlots(ctx context.Context, userID uuid.UUID) {
	if !a.enabled {
		return
	}

	prefix := userID.String() + "/"
	removed := 0
	for _, key := range a.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			a.cache.Remove(key)
			removed++
		}
	}

	a.logger.Info("cache.slots.invalidate_user", out.LogFields{
		"userId":  userID,
		"removed": removed,
	})
}

func (a *SlotsCacheAdapter) InvalidateAllSlots(ctx context.Context) {
	if !a.enabled {
		return
	}

	a.cache.Purge()

	a.logger.Info("cache.slots.invalidate_all", nil)
}
