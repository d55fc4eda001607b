package session_service

import (
	"context"
	"errors"
	"sync"
	"testing"
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

// fakeStream считает освобождения
type fakeStream struct {
	id     uuid.UUID
	source domain.TrackSource

	mu       sync.Mutex
	released int
}

func newFakeStream(source domain.TrackSource) *fakeStream {
	return &fakeStream{id: uuid.New(), source: source}
}

func (s *fakeStream) ID() uuid.UUID { return s.id }

func (s *fakeStream) Source() domain.TrackSource { return s.source }

func (s *fakeStream) Release() {
	s.mu.Lock()
	s.released++
	s.mu.Unlock()
}

func (s *fakeStream) releasedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

type fakeHandle struct {
	remote chan out.MediaStream
	closed chan struct{}
	errs   chan error

	mu        sync.Mutex
	closeOnce sync.Once
	closes    int
	replaced  []domain.OutgoingMedia
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{
		remote: make(chan out.MediaStream, 4),
		closed: make(chan struct{}),
		errs:   make(chan error, 4),
	}
}

func (h *fakeHandle) RemoteStreams() <-chan out.MediaStream { return h.remote }

func (h *fakeHandle) Closed() <-chan struct{} { return h.closed }

func (h *fakeHandle) Errors() <-chan error { return h.errs }

func (h *fakeHandle) ReplaceOutgoing(media domain.OutgoingMedia, stream out.MediaStream) error {
	h.mu.Lock()
	h.replaced = append(h.replaced, media)
	h.mu.Unlock()
	return nil
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	h.closes++
	h.mu.Unlock()
	h.closeOnce.Do(func() { close(h.closed) })
	return nil
}

func (h *fakeHandle) closeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closes
}

func (h *fakeHandle) lastReplaced() (domain.OutgoingMedia, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.replaced) == 0 {
		return domain.OutgoingMedia{}, false
	}
	return h.replaced[len(h.replaced)-1], true
}

type fakeInbound struct {
	from   string
	handle *fakeHandle
}

func (c *fakeInbound) From() string { return c.from }

func (c *fakeInbound) Answer(local out.MediaStream) (out.CallHandle, error) {
	return c.handle, nil
}

type fakeTransportClient struct {
	address string

	// failMedia ломает полный захват, failAll ломает и повторную попытку
	failMedia bool
	failAll   bool

	outbound *fakeHandle
	inbound  chan out.InboundCall

	mu      sync.Mutex
	placed  []string
	media   []*fakeStream
	screens []*fakeStream
	closes  int
}

func newFakeTransportClient(address string) *fakeTransportClient {
	return &fakeTransportClient{
		address:  address,
		outbound: newFakeHandle(),
		inbound:  make(chan out.InboundCall, 4),
	}
}

func (c *fakeTransportClient) AcquireMedia(ctx context.Context, constraints out.MediaConstraints) (out.MediaStream, error) {
	if c.failAll {
		return nil, errors.New("no devices")
	}
	if c.failMedia && !constraints.Minimal {
		return nil, errors.New("camera busy")
	}
	stream := newFakeStream(domain.TrackSourceCamera)
	c.mu.Lock()
	c.media = append(c.media, stream)
	c.mu.Unlock()
	return stream, nil
}

func (c *fakeTransportClient) AcquireScreen(ctx context.Context, withAudio bool) (out.MediaStream, error) {
	stream := newFakeStream(domain.TrackSourceScreen)
	c.mu.Lock()
	c.screens = append(c.screens, stream)
	c.mu.Unlock()
	return stream, nil
}

func (c *fakeTransportClient) PlaceCall(ctx context.Context, address string, local out.MediaStream) (out.CallHandle, error) {
	c.mu.Lock()
	c.placed = append(c.placed, address)
	c.mu.Unlock()
	return c.outbound, nil
}

func (c *fakeTransportClient) Inbound() <-chan out.InboundCall { return c.inbound }

func (c *fakeTransportClient) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	return nil
}

func (c *fakeTransportClient) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

type fakeFactory struct {
	mu      sync.Mutex
	clients []*fakeTransportClient

	failMedia bool
	failAll   bool
}

func (f *fakeFactory) NewClient(ctx context.Context, localAddress string) (out.TransportClient, error) {
	client := newFakeTransportClient(localAddress)
	client.failMedia = f.failMedia
	client.failAll = f.failAll
	f.mu.Lock()
	f.clients = append(f.clients, client)
	f.mu.Unlock()
	return client, nil
}

func (f *fakeFactory) lastClient() *fakeTransportClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.clients) == 0 {
		return nil
	}
	return f.clients[len(f.clients)-1]
}

// fakeSessionBackend записывает побочные эффекты завершения сессии
type fakeSessionBackend struct {
	mu            sync.Mutex
	appointment   *domain.Appointment
	statusChanges []domain.AppointmentStatus
	credits       int
	creditErr     error
	active        *domain.Appointment
	upcoming      *domain.Appointment
}

func (b *fakeSessionBackend) GetAvailability(ctx context.Context, userID uuid.UUID) (domain.WeeklyAvailability, error) {
	return nil, nil
}

func (b *fakeSessionBackend) GetCourse(ctx context.Context, courseID uuid.UUID) (*domain.CourseWindow, error) {
	return nil, nil
}

func (b *fakeSessionBackend) GetAppointment(ctx context.Context, appointmentID uuid.UUID) (*domain.Appointment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.appointment == nil || b.appointment.ID != appointmentID {
		return nil, nil
	}
	copied := *b.appointment
	return &copied, nil
}

func (b *fakeSessionBackend) ListAppointments(ctx context.Context, userID uuid.UUID) ([]domain.Appointment, error) {
	return nil, nil
}

func (b *fakeSessionBackend) CreateAppointment(ctx context.Context, appointment *domain.Appointment) error {
	return nil
}

func (b *fakeSessionBackend) UpdateAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, status domain.AppointmentStatus) error {
	b.mu.Lock()
	b.statusChanges = append(b.statusChanges, status)
	b.mu.Unlock()
	return nil
}

func (b *fakeSessionBackend) RescheduleAppointment(ctx context.Context, appointmentID uuid.UUID, date time.Time, clock json_types.ClockTime) error {
	return nil
}

func (b *fakeSessionBackend) GetActiveAppointment(ctx context.Context, userID uuid.UUID) (*domain.Appointment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active, nil
}

func (b *fakeSessionBackend) GetUpcomingAppointment(ctx context.Context, userID uuid.UUID) (*domain.Appointment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.upcoming, nil
}

func (b *fakeSessionBackend) IncreaseTeacherCredit(ctx context.Context, teacherID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.creditErr != nil {
		return b.creditErr
	}
	b.credits++
	return nil
}

func (b *fakeSessionBackend) creditCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.credits
}

func (b *fakeSessionBackend) statuses() []domain.AppointmentStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]domain.AppointmentStatus, len(b.statusChanges))
	copy(result, b.statusChanges)
	return result
}

func sessionConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Session.JoinWindowMinutes = 60
	cfg.Session.CountdownTickSeconds = 1
	return cfg
}

// appointmentStartingAt собирает запись со стартом в указанный момент
func appointmentStartingAt(start time.Time, teacher, student uuid.UUID) domain.Appointment {
	return domain.Appointment{
		ID:      uuid.New(),
		Teacher: teacher,
		Student: student,
		Date:    json_types.Date{Date: time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())},
		Time:    json_types.NewClock(start.Hour(), start.Minute()),
		Status:  domain.AppointmentStatusConfirmed,
	}
}

func testController(t *testing.T, appointment domain.Appointment, userID uuid.UUID, backend *fakeSessionBackend, factory *fakeFactory) *SessionController {
	t.Helper()

	controller, err := newSessionController(appointment, userID, sessionConfig(), backend, backend, factory, nopLogger{})
	if err != nil {
		t.Fatalf("failed to build controller: %v", err)
	}
	t.Cleanup(controller.Dispose)
	return controller
}

// eventually опрашивает условие до дедлайна, асинхронные эффекты
// контроллера доезжают через горутины
func eventually(t *testing.T, message string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(message)
}
