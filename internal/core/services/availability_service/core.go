package availability_service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/config"
	"github.com/skillswap/session-service/internal/core/domain"
	"github.com/skillswap/session-service/internal/core/json_types"
	"github.com/skillswap/session-service/internal/core/ports/out"
)

type AvailabilityService struct {
	backendPort out.BackendPort
	cachePort   out.CachePort
	logger      out.LoggerPort
	cfg         *config.Config

	// now подменяется в тестах
	now func() time.Time
}

func NewAvailabilityService(
	backendPort out.BackendPort,
	cachePort out.CachePort,
	cfg *config.Config,
	logger out.LoggerPort,
) *AvailabilityService {
	return &AvailabilityService{
		backendPort: backendPort,
		cachePort:   cachePort,
		cfg:         cfg,
		logger:      logger.WithModule("AvailabilityService"),
		now:         func() time.Time { return time.Now().In(config.TimeZone) },
	}
}

// stepFor - шаг сетки для сценария бронирования
func (s *AvailabilityService) stepFor(flow domain.BookingFlow) time.Duration {
	if flow == domain.BookingFlowReschedule {
		return s.cfg.RescheduleStep()
	}
	return s.cfg.BookingStep()
}

func (s *AvailabilityService) IsDateSelectable(ctx context.Context, userID uuid.UUID, date time.Time, courseID *uuid.UUID) (bool, error) {
	availability, err := s.backendPort.GetAvailability(ctx, userID)
	if err != nil {
		s.logger.Error("availability.selectable.fetch_failed", out.LogFields{
			"userId": userID,
			"error":  err.Error(),
		})
		return false, fmt.Errorf("availability.selectable.fetch_failed: %w", err)
	}

	var course *domain.CourseWindow
	if courseID != nil {
		course, err = s.backendPort.GetCourse(ctx, *courseID)
		if err != nil {
			s.logger.Error("availability.selectable.course_fetch_failed", out.LogFields{
				"courseId": *courseID,
				"error":    err.Error(),
			})
			return false, fmt.Errorf("availability.selectable.course_fetch_failed: %w", err)
		}
	}

	return DateSelectable(s.now(), date, availability, course), nil
}

func (s *AvailabilityService) SlotsForDate(ctx context.Context, userID uuid.UUID, date time.Time, flow domain.BookingFlow) ([]json_types.ClockTime, []domain.DebugInfo, error) {
	debugInfo := availabilityServiceDebug{
		data: make([]domain.DebugInfo, 0),
	}
	step := s.stepFor(flow)

	s.logger.Info("slots.compute.started", out.LogFields{
		"userId": userID,
		"date":   date.Format("2006-01-02"),
		"flow":   flow,
	})

	// Проверяем кэш только если он включен
	if s.cachePort != nil && s.cfg.Cache.Enabled {
		if slots, exists := s.cachePort.GetDaySlots(ctx, userID, date, step); exists {
			s.logger.Debug("slots.compute.cache.hit", out.LogFields{
				"userId":     userID,
				"slotsCount": len(slots),
			})
			return slots, debugInfo.data, nil
		}
	}

	s.logger.Debug("slots.compute.cache.miss", out.LogFields{
		"userId": userID,
	})

	fetch_availability_debug := domain.DebugInfo{
		Event: "slots.compute.availability.fetch",
	}
	fetch_availability_debug.Start()

	availability, err := s.backendPort.GetAvailability(ctx, userID)
	if err != nil {
		s.logger.Error("slots.compute.availability.fetch_failed", out.LogFields{
			"userId": userID,
			"error":  err.Error(),
		})
		return nil, nil, fmt.Errorf("slots.compute.availability.fetch_failed: %w", err)
	}

	fetch_availability_debug.Elapse()
	debugInfo.AddDebugInfo(fetch_availability_debug)

	generate_slots_debug := domain.DebugInfo{
		Event: "slots.compute.generate",
	}
	generate_slots_debug.Start()

	slots := SlotsForDate(s.now(), date, availability, step)

	generate_slots_debug.Elapse()
	generate_slots_debug.AddOption("step", step.String())
	debugInfo.AddDebugInfo(generate_slots_debug)

	// Сохраняем в кэш только если он включен
	if s.cachePort != nil && s.cfg.Cache.Enabled {
		s.cachePort.StoreDaySlots(ctx, userID, date, step, slots)
	}

	return slots, debugInfo.data, nil
}
