package session_service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/config"
	"github.com/skillswap/session-service/internal/core/domain"
	"github.com/skillswap/session-service/internal/core/ports/out"
)

// SessionRegistry держит не больше одного живого контроллера на пару
// запись-участник и детерминированно закрывает его ресурсы
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*SessionController

	cfg     *config.Config
	logger  out.LoggerPort
	backend out.BackendPort
	credit  out.CreditPort
	factory out.TransportFactory
}

func NewSessionRegistry(
	backend out.BackendPort,
	credit out.CreditPort,
	factory out.TransportFactory,
	cfg *config.Config,
	logger out.LoggerPort,
) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*SessionController),
		cfg:      cfg,
		logger:   logger.WithModule("SessionRegistry"),
		backend:  backend,
		credit:   credit,
		factory:  factory,
	}
}

func sessionKey(appointmentID, userID uuid.UUID) string {
	return appointmentID.String() + "/" + userID.String()
}

// controllerFor возвращает живой контроллер или создает новый.
// Завершенный экземпляр заменяется: повторный вход заново резолвит
// окно и может присоединиться.
func (r *SessionRegistry) controllerFor(ctx context.Context, appointmentID, userID uuid.UUID) (*SessionController, error) {
	key := sessionKey(appointmentID, userID)

	r.mu.Lock()
	existing, exists := r.sessions[key]
	r.mu.Unlock()

	if exists && !existing.snapshot().Phase.Terminal() {
		return existing, nil
	}

	appointment, err := r.backend.GetAppointment(ctx, appointmentID)
	if err != nil {
		r.logger.Error("session.resolve.fetch_failed", out.LogFields{
			"appointmentId": appointmentID,
			"error":         err.Error(),
		})
		return nil, fmt.Errorf("session.resolve.fetch_failed: %w", err)
	}
	if appointment == nil {
		return nil, ErrAppointmentMissing
	}

	controller, err := newSessionController(*appointment, userID, r.cfg, r.backend, r.credit, r.factory, r.logger)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	// Параллельный вызов мог успеть первым: живой победитель остается,
	// наш экземпляр освобождается, обе стороны получают один контроллер
	if current, ok := r.sessions[key]; ok {
		if !current.snapshot().Phase.Terminal() {
			r.mu.Unlock()
			controller.Dispose()
			return current, nil
		}
		// Завершенный предшественник освобождает ресурсы перед заменой
		current.Dispose()
	}
	r.sessions[key] = controller
	r.mu.Unlock()

	return controller, nil
}

func (r *SessionRegistry) SessionState(ctx context.Context, appointmentID, userID uuid.UUID) (domain.SessionCall, time.Duration, error) {
	controller, err := r.controllerFor(ctx, appointmentID, userID)
	if err != nil {
		return domain.SessionCall{}, 0, err
	}
	call, remaining := controller.State()
	return call, remaining, nil
}

func (r *SessionRegistry) Join(ctx context.Context, appointmentID, userID uuid.UUID) (domain.SessionCall, error) {
	controller, err := r.controllerFor(ctx, appointmentID, userID)
	if err != nil {
		return domain.SessionCall{}, err
	}
	return controller.Join(ctx)
}

func (r *SessionRegistry) End(ctx context.Context, appointmentID, userID uuid.UUID, confirmed bool) (domain.SessionCall, error) {
	controller, err := r.controllerFor(ctx, appointmentID, userID)
	if err != nil {
		return domain.SessionCall{}, err
	}
	return controller.End(ctx, confirmed)
}

func (r *SessionRegistry) SetScreenShare(ctx context.Context, appointmentID, userID uuid.UUID, enabled bool, withAudio bool) (domain.SessionCall, error) {
	controller, err := r.controllerFor(ctx, appointmentID, userID)
	if err != nil {
		return domain.SessionCall{}, err
	}
	return controller.SetScreenShare(ctx, enabled, withAudio)
}

func (r *SessionRegistry) SetScreenAudioMuted(ctx context.Context, appointmentID, userID uuid.UUID, muted bool) (domain.SessionCall, error) {
	controller, err := r.controllerFor(ctx, appointmentID, userID)
	if err != nil {
		return domain.SessionCall{}, err
	}
	return controller.SetScreenAudioMuted(muted)
}

// Dispose убирает все контроллеры записи независимо от участника
func (r *SessionRegistry) Dispose(appointmentID uuid.UUID) {
	prefix := appointmentID.String() + "/"

	r.mu.Lock()
	var doomed []*SessionController
	for key, controller := range r.sessions {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			doomed = append(doomed, controller)
			delete(r.sessions, key)
		}
	}
	r.mu.Unlock()

	for _, controller := range doomed {
		controller.Dispose()
	}
}
