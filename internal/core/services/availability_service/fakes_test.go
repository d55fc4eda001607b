package availability_service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/config"
	"github.com/skillswap/session-service/internal/core/domain"
	"github.com/skillswap/session-service/internal/core/json_types"
	"github.com/skillswap/session-service/internal/core/ports/out"
)

type nopLogger struct{}

func (nopLogger) Debug(string, out.LogFields) {}

func (nopLogger) Info(string, out.LogFields) {}

func (nopLogger) Warn(string, out.LogFields) {}

func (nopLogger) Error(string, out.LogFields) {}

func (l nopLogger) WithFields(out.LogFields) out.LoggerPort { return l }

func (l nopLogger) WithModule(string) out.LoggerPort { return l }

// fakeBackend - бэкенд в памяти для тестов сервиса
type fakeBackend struct {
	availability domain.WeeklyAvailability
	courses      map[uuid.UUID]domain.CourseWindow
	appointments map[uuid.UUID]*domain.Appointment

	availabilityErr error
	statusErr       error

	createdCount  int
	statusChanges []domain.AppointmentStatus
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		availability: domain.WeeklyAvailability{
			domain.WeekdayMonday: {
				Start: json_types.NewClock(9, 0),
				End:   json_types.NewClock(11, 0),
			},
		},
		courses:      make(map[uuid.UUID]domain.CourseWindow),
		appointments: make(map[uuid.UUID]*domain.Appointment),
	}
}

func (b *fakeBackend) GetAvailability(ctx context.Context, userID uuid.UUID) (domain.WeeklyAvailability, error) {
	if b.availabilityErr != nil {
		return nil, b.availabilityErr
	}
	return b.availability, nil
}

func (b *fakeBackend) GetCourse(ctx context.Context, courseID uuid.UUID) (*domain.CourseWindow, error) {
	course, ok := b.courses[courseID]
	if !ok {
		return nil, nil
	}
	return &course, nil
}

func (b *fakeBackend) GetAppointment(ctx context.Context, appointmentID uuid.UUID) (*domain.Appointment, error) {
	appointment, ok := b.appointments[appointmentID]
	if !ok {
		return nil, nil
	}
	copied := *appointment
	return &copied, nil
}

func (b *fakeBackend) ListAppointments(ctx context.Context, userID uuid.UUID) ([]domain.Appointment, error) {
	result := make([]domain.Appointment, 0, len(b.appointments))
	for _, appointment := range b.appointments {
		if appointment.IsParticipant(userID) {
			result = append(result, *appointment)
		}
	}
	return result, nil
}

func (b *fakeBackend) CreateAppointment(ctx context.Context, appointment *domain.Appointment) error {
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	copied := *appointment
	b.appointments[appointment.ID] = &copied
	b.createdCount++
	return nil
}

func (b *fakeBackend) UpdateAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, status domain.AppointmentStatus) error {
	if b.statusErr != nil {
		return b.statusErr
	}
	if appointment, ok := b.appointments[appointmentID]; ok {
		appointment.Status = status
	}
	b.statusChanges = append(b.statusChanges, status)
	return nil
}

func (b *fakeBackend) RescheduleAppointment(ctx context.Context, appointmentID uuid.UUID, date time.Time, clock json_types.ClockTime) error {
	if appointment, ok := b.appointments[appointmentID]; ok {
		appointment.Date = json_types.Date{Date: date}
		appointment.Time = clock
	}
	return nil
}

func (b *fakeBackend) GetActiveAppointment(ctx context.Context, userID uuid.UUID) (*domain.Appointment, error) {
	return nil, nil
}

func (b *fakeBackend) GetUpcomingAppointment(ctx context.Context, userID uuid.UUID) (*domain.Appointment, error) {
	return nil, nil
}

type fakeCache struct {
	stored        map[string][]json_types.ClockTime
	invalidated   []uuid.UUID
	invalidations int
}

func newFakeCache() *fakeCache {
	return &fakeCache{stored: make(map[string][]json_types.ClockTime)}
}

func (c *fakeCache) key(userID uuid.UUID, date time.Time, step time.Duration) string {
	return userID.String() + date.Format("2006-01-02") + step.String()
}

func (c *fakeCache) GetDaySlots(ctx context.Context, userID uuid.UUID, date time.Time, step time.Duration) ([]json_types.ClockTime, bool) {
	slots, ok := c.stored[c.key(userID, date, step)]
	return slots, ok
}

func (c *fakeCache) StoreDaySlots(ctx context.Context, userID uuid.UUID, date time.Time, step time.Duration, slots []json_types.ClockTime) {
	c.stored[c.key(userID, date, step)] = slots
}

func (c *fakeCache) InvalidateUserSlots(ctx context.Context, userID uuid.UUID) {
	c.invalidated = append(c.invalidated, userID)
	c.invalidations++
}

func (c *fakeCache) InvalidateAllSlots(ctx context.Context) {
	c.invalidations++
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Cache.Enabled = true
	cfg.Cache.SlotsSize = 100
	cfg.Slots.BookingStepMinutes = 1
	cfg.Slots.RescheduleStepMinutes = 30
	return cfg
}

func testService(backend *fakeBackend, cache *fakeCache, now time.Time) *AvailabilityService {
	s := NewAvailabilityService(backend, cache, testConfig(), nopLogger{})
	s.now = func() time.Time { return now }
	return s
}
