package session_service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/config"
	"github.com/skillswap/session-service/internal/core/domain"
	"github.com/skillswap/session-service/internal/core/ports/out"
)

var (
	ErrNotParticipant     = errors.New("user is not a participant of the appointment")
	ErrNotEligible        = errors.New("join window is not open")
	ErrNotJoinable        = errors.New("appointment status does not allow joining")
	ErrEndNotConfirmed    = errors.New("explicit end requires confirmation")
	ErrNotConnected       = errors.New("session is not connected")
	ErrSessionEnded       = errors.New("session already ended")
	ErrMediaUnavailable   = errors.New("failed to acquire local media")
	ErrUnparseableStart   = errors.New("appointment has unparseable date or time")
	ErrAppointmentMissing = errors.New("appointment not found")
)

// SessionController ведет одну запись через фазы звонка и выполняет
// побочные эффекты переходов. Транспортный клиент создается и закрывается
// контроллером явно, общего глобального клиента нет.
type SessionController struct {
	mu sync.Mutex

	appointment  domain.Appointment
	call         domain.SessionCall
	sessionStart time.Time

	cfg     *config.Config
	logger  out.LoggerPort
	backend out.BackendPort
	credit  out.CreditPort
	factory out.TransportFactory

	transport out.TransportClient
	// Единственный удержанный хэндл звонка. До первого удаленного потока
	// исходящая и входящая попытки живут как кандидаты.
	callHandle out.CallHandle
	candidates []out.CallHandle
	media      out.MediaStream
	screen     out.MediaStream

	creditSent bool
	disposed   bool

	stopCountdown chan struct{}
	countdownOnce sync.Once
	stopWatchers  chan struct{}
	watchersOnce  sync.Once

	// now подменяется в тестах
	now func() time.Time
}

func newSessionController(
	appointment domain.Appointment,
	userID uuid.UUID,
	cfg *config.Config,
	backend out.BackendPort,
	credit out.CreditPort,
	factory out.TransportFactory,
	logger out.LoggerPort,
) (*SessionController, error) {
	if !appointment.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}

	sessionStart, ok := appointment.StartAt()
	if !ok {
		return nil, ErrUnparseableStart
	}

	c := &SessionController{
		appointment:  appointment,
		sessionStart: sessionStart,
		cfg:          cfg,
		logger:       logger.WithModule("SessionController"),
		backend:      backend,
		credit:       credit,
		factory:      factory,
		call: domain.SessionCall{
			AppointmentID:       appointment.ID,
			LocalParticipantID:  userID,
			RemoteParticipantID: appointment.PeerOf(userID),
			Phase:               domain.SessionPhaseAwaitingWindow,
			Outgoing: domain.OutgoingMedia{
				Video:            domain.TrackSourceCamera,
				MicEnabled:       true,
				ScreenAudioMuted: true,
			},
		},
		stopCountdown: make(chan struct{}),
		stopWatchers:  make(chan struct{}),
		now:           func() time.Time { return time.Now().In(config.TimeZone) },
	}

	if Eligible(c.now(), sessionStart, cfg.JoinWindow()) {
		c.call.Phase = domain.SessionPhaseEligible
	} else if c.now().Before(sessionStart) {
		// Окно еще впереди - крутим обратный отсчет
		go c.runCountdown()
	}

	return c, nil
}

// State - снимок состояния и остаток обратного отсчета до окна входа
func (c *SessionController) State() (domain.SessionCall, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.call, Remaining(c.now(), c.sessionStart)
}

// runCountdown пересчитывает остаток раз в тик, пока сессия ждет окна входа
func (c *SessionController) runCountdown() {
	tick := time.Duration(c.cfg.Session.CountdownTickSeconds) * time.Second
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCountdown:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.call.Phase != domain.SessionPhaseAwaitingWindow {
				c.mu.Unlock()
				return
			}
			if Eligible(c.now(), c.sessionStart, c.cfg.JoinWindow()) {
				c.call, _ = Reduce(c.call, EvWindowEntered)
				c.logger.Info("session.window.entered", out.LogFields{
					"appointmentId": c.appointment.ID,
				})
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()
		}
	}
}

// Join входит в звонок: транспортный клиент, локальные устройства,
// исходящий вызов и одновременное ожидание входящего
func (c *SessionController) Join(ctx context.Context) (domain.SessionCall, error) {
	c.mu.Lock()
	if c.disposed || c.call.Phase.Terminal() {
		c.mu.Unlock()
		return c.call, ErrSessionEnded
	}

	// Войти можно только в подтвержденную запись; ongoing - повторный
	// вход после того, как первый Join уже перевел статус
	if c.appointment.Status != domain.AppointmentStatusConfirmed &&
		c.appointment.Status != domain.AppointmentStatusOngoing {
		call := c.call
		c.mu.Unlock()
		return call, ErrNotJoinable
	}

	// Пересчитываем окно на момент действия, тик мог не успеть
	if c.call.Phase == domain.SessionPhaseAwaitingWindow &&
		Eligible(c.now(), c.sessionStart, c.cfg.JoinWindow()) {
		c.call, _ = Reduce(c.call, EvWindowEntered)
	}

	if c.call.Phase != domain.SessionPhaseEligible {
		call := c.call
		c.mu.Unlock()
		return call, ErrNotEligible
	}

	localAddress := domain.PeerAddress(c.appointment.ID, c.call.LocalParticipantID)
	remoteAddress := domain.PeerAddress(c.appointment.ID, c.call.RemoteParticipantID)
	c.mu.Unlock()

	transport, err := c.factory.NewClient(ctx, localAddress)
	if err != nil {
		c.logger.Error("session.join.transport_failed", out.LogFields{
			"appointmentId": c.appointment.ID,
			"error":         err.Error(),
		})
		return c.snapshot(), fmt.Errorf("session.join.transport_failed: %w", err)
	}

	media, err := c.acquireMediaWithFallback(ctx, transport)
	if err != nil {
		transport.Close()
		return c.snapshot(), err
	}

	c.mu.Lock()
	if c.disposed || c.call.Phase != domain.SessionPhaseEligible {
		call := c.call
		c.mu.Unlock()
		media.Release()
		transport.Close()
		return call, ErrNotEligible
	}
	c.transport = transport
	c.media = media
	c.call, _ = Reduce(c.call, EvJoinRequested)
	call := c.call
	c.mu.Unlock()

	c.logger.Info("session.join.started", out.LogFields{
		"appointmentId": c.appointment.ID,
		"local":         localAddress,
		"remote":        remoteAddress,
	})

	// Подтвержденная запись с этого момента идет
	if err := c.backend.UpdateAppointmentStatus(ctx, c.appointment.ID, domain.AppointmentStatusOngoing); err != nil {
		c.logger.Warn("session.join.status_update_failed", out.LogFields{
			"appointmentId": c.appointment.ID,
			"error":         err.Error(),
		})
	}

	go c.watchInbound()

	// Исходящий вызов. Неудача не фатальна: встречный вызов может прийти сам.
	handle, err := transport.PlaceCall(ctx, remoteAddress, media)
	if err != nil {
		c.logger.Warn("session.join.outbound_failed", out.LogFields{
			"appointmentId": c.appointment.ID,
			"error":         err.Error(),
		})
	} else {
		c.adoptCandidate(handle)
	}

	return call, nil
}

// watchInbound принимает входящие вызовы на наш адрес
func (c *SessionController) watchInbound() {
	for {
		c.mu.Lock()
		transport := c.transport
		c.mu.Unlock()
		if transport == nil {
			return
		}

		select {
		case <-c.stopWatchers:
			return
		case inbound, ok := <-transport.Inbound():
			if !ok {
				return
			}

			c.mu.Lock()
			established := c.callHandle != nil
			media := c.media
			terminal := c.call.Phase.Terminal()
			c.mu.Unlock()

			// Сессия уже установлена - второй звонок не создаем
			if established || terminal || media == nil {
				continue
			}

			handle, err := inbound.Answer(media)
			if err != nil {
				c.logger.Warn("session.inbound.answer_failed", out.LogFields{
					"appointmentId": c.appointment.ID,
					"from":          inbound.From(),
					"error":         err.Error(),
				})
				continue
			}
			c.adoptCandidate(handle)
		}
	}
}

// adoptCandidate регистрирует попытку звонка до выбора победителя
func (c *SessionController) adoptCandidate(handle out.CallHandle) {
	c.mu.Lock()
	if c.disposed || c.call.Phase.Terminal() {
		c.mu.Unlock()
		handle.Close()
		return
	}
	c.candidates = append(c.candidates, handle)
	c.mu.Unlock()

	go c.watchHandle(handle)
}

func (c *SessionController) watchHandle(handle out.CallHandle) {
	for {
		select {
		case <-c.stopWatchers:
			return
		case _, ok := <-handle.RemoteStreams():
			if !ok {
				return
			}
			c.onRemoteStream(handle)
		case <-handle.Closed():
			c.onRemoteClosed(handle)
			return
		case err, ok := <-handle.Errors():
			if !ok {
				return
			}
			c.onTransportError(handle, err)
			return
		}
	}
}

// onRemoteStream - первый удаленный поток выбирает победителя.
// Повторные сигналы соединения идемпотентны: второго хэндла не будет.
func (c *SessionController) onRemoteStream(handle out.CallHandle) {
	var losers []out.CallHandle

	c.mu.Lock()
	if c.callHandle == nil && !c.call.Phase.Terminal() {
		if next, ok := Reduce(c.call, EvRemoteStream); ok {
			c.call = next
			c.callHandle = handle
			for _, cand := range c.candidates {
				if cand != handle {
					losers = append(losers, cand)
				}
			}
			c.candidates = []out.CallHandle{handle}
			c.logger.Info("session.connected", out.LogFields{
				"appointmentId": c.appointment.ID,
			})
		}
	} else if c.callHandle != handle {
		// Проигравшая попытка, закрываем
		losers = append(losers, handle)
	}
	c.mu.Unlock()

	for _, loser := range losers {
		loser.Close()
	}
}

func (c *SessionController) onRemoteClosed(handle out.CallHandle) {
	c.mu.Lock()
	retained := c.callHandle
	c.mu.Unlock()

	// Закрытие проигравшего кандидата сессию не трогает
	if retained != nil && retained != handle {
		return
	}

	c.logger.Info("session.remote_closed", out.LogFields{
		"appointmentId": c.appointment.ID,
	})
	c.finish(context.Background(), EvRemoteClosed)
}

func (c *SessionController) onTransportError(handle out.CallHandle, err error) {
	c.mu.Lock()
	retained := c.callHandle
	c.mu.Unlock()

	if retained != nil && retained != handle {
		return
	}

	c.logger.Error("session.transport_error", out.LogFields{
		"appointmentId": c.appointment.ID,
		"error":         err.Error(),
	})
	// Без автоматического переподключения: пользователь заходит заново
	c.finish(context.Background(), EvTransportError)
}

// End - явное завершение. Первый шаг без confirmed не выполняет
// разрушительного действия, только запрашивает подтверждение.
func (c *SessionController) End(ctx context.Context, confirmed bool) (domain.SessionCall, error) {
	c.mu.Lock()
	if c.disposed || c.call.Phase.Terminal() {
		call := c.call
		c.mu.Unlock()
		return call, ErrSessionEnded
	}
	c.mu.Unlock()

	if !confirmed {
		return c.snapshot(), ErrEndNotConfirmed
	}

	c.finish(ctx, EvEndConfirmed)
	return c.snapshot(), nil
}

// finish выполняет завершение ровно один раз, в фиксированном порядке:
// устройства, транспорт, статус записи, кредит учителя, следующая запись
func (c *SessionController) finish(ctx context.Context, ev EventKind) {
	c.mu.Lock()
	// После Dispose ресурсы уже освобождены, а побочных эффектов
	// бэкенда у ухода со страницы нет
	if c.disposed {
		c.mu.Unlock()
		return
	}
	next, ok := Reduce(c.call, ev)
	if !ok {
		c.mu.Unlock()
		return
	}
	c.call = next

	media := c.media
	screen := c.screen
	handle := c.callHandle
	transport := c.transport
	candidates := c.candidates
	c.media = nil
	c.screen = nil
	c.callHandle = nil
	c.transport = nil
	c.candidates = nil

	isStudent := c.call.LocalParticipantID == c.appointment.Student
	alreadyCredited := c.creditSent
	c.creditSent = true

	c.stopTimersLocked()
	c.mu.Unlock()

	// (1) освобождаем локальные устройства
	if screen != nil {
		screen.Release()
	}
	if media != nil {
		media.Release()
	}

	// (2) сворачиваем звонок и транспортный клиент
	for _, cand := range candidates {
		if cand != handle {
			cand.Close()
		}
	}
	if handle != nil {
		handle.Close()
	}
	if transport != nil {
		transport.Close()
	}

	// (3) статус записи. Независимый best-effort вызов: неудача кредита
	// ниже его не откатывает.
	if err := c.backend.UpdateAppointmentStatus(ctx, c.appointment.ID, domain.AppointmentStatusCompleted); err != nil {
		c.logger.Error("session.end.status_update_failed", out.LogFields{
			"appointmentId": c.appointment.ID,
			"error":         err.Error(),
		})
	}

	// (4) кредит учителю начисляет только ученик, ровно один раз
	if isStudent && !alreadyCredited {
		if err := c.credit.IncreaseTeacherCredit(ctx, c.appointment.Teacher); err != nil {
			c.logger.Error("session.end.credit_failed", out.LogFields{
				"appointmentId": c.appointment.ID,
				"teacher":       c.appointment.Teacher,
				"error":         err.Error(),
			})
		}
	}

	// (5) следующая запись участника: идущая сейчас приоритетнее будущей
	nextAppointment, err := c.backend.GetActiveAppointment(ctx, c.call.LocalParticipantID)
	if err == nil && nextAppointment == nil {
		nextAppointment, err = c.backend.GetUpcomingAppointment(ctx, c.call.LocalParticipantID)
	}
	if err != nil {
		c.logger.Warn("session.end.next_fetch_failed", out.LogFields{
			"userId": c.call.LocalParticipantID,
			"error":  err.Error(),
		})
	} else if nextAppointment != nil {
		c.logger.Info("session.end.next_appointment", out.LogFields{
			"appointmentId": nextAppointment.ID,
		})
	}

	c.logger.Info("session.ended", out.LogFields{
		"appointmentId": c.appointment.ID,
		"reason":        c.call.EndReason,
	})
}

// Dispose - уход со страницы сессии. Снимает таймеры и слушателей,
// освобождает устройства и транспорт. Побочных эффектов бэкенда нет.
func (c *SessionController) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true

	media := c.media
	screen := c.screen
	handle := c.callHandle
	transport := c.transport
	candidates := c.candidates
	c.media = nil
	c.screen = nil
	c.callHandle = nil
	c.transport = nil
	c.candidates = nil

	c.stopTimersLocked()
	c.mu.Unlock()

	if screen != nil {
		screen.Release()
	}
	if media != nil {
		media.Release()
	}
	for _, cand := range candidates {
		if cand != handle {
			cand.Close()
		}
	}
	if handle != nil {
		handle.Close()
	}
	if transport != nil {
		transport.Close()
	}
}

func (c *SessionController) stopTimersLocked() {
	c.countdownOnce.Do(func() { close(c.stopCountdown) })
	c.watchersOnce.Do(func() { close(c.stopWatchers) })
}

func (c *SessionController) snapshot() domain.SessionCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.call
}
