package session_service

import (
	"time"

	"github.com/skillswap/session-service/internal/core/domain"
)

// EventKind - дискретное событие жизненного цикла звонка
type EventKind string

const (
	EvWindowEntered  EventKind = "window_entered"
	EvJoinRequested  EventKind = "join_requested"
	EvRemoteStream   EventKind = "remote_stream"
	EvShareStarted   EventKind = "share_started"
	EvShareStopped   EventKind = "share_stopped"
	EvEndConfirmed   EventKind = "end_confirmed"
	EvRemoteClosed   EventKind = "remote_closed"
	EvTransportError EventKind = "transport_error"
)

// Transition - разрешенное ребро машины состояний сессии
type Transition struct {
	From   domain.SessionPhase
	To     domain.SessionPhase
	Event  EventKind
	Reason domain.SessionEndReason
}

var transitionsTable = []Transition{
	// Путь до соединения
	{From: domain.SessionPhaseAwaitingWindow, To: domain.SessionPhaseEligible, Event: EvWindowEntered},
	{From: domain.SessionPhaseEligible, To: domain.SessionPhaseJoinedWaitingPeer, Event: EvJoinRequested},
	{From: domain.SessionPhaseJoinedWaitingPeer, To: domain.SessionPhaseConnected, Event: EvRemoteStream},

	// Демонстрация экрана - подрежим соединения, вход повторный
	{From: domain.SessionPhaseConnected, To: domain.SessionPhaseScreenSharing, Event: EvShareStarted},
	{From: domain.SessionPhaseScreenSharing, To: domain.SessionPhaseConnected, Event: EvShareStopped},

	// Явное завершение - только после подтверждения
	{From: domain.SessionPhaseJoinedWaitingPeer, To: domain.SessionPhaseEnded, Event: EvEndConfirmed, Reason: domain.EndReasonLocal},
	{From: domain.SessionPhaseConnected, To: domain.SessionPhaseEnded, Event: EvEndConfirmed, Reason: domain.EndReasonLocal},
	{From: domain.SessionPhaseScreenSharing, To: domain.SessionPhaseEnded, Event: EvEndConfirmed, Reason: domain.EndReasonLocal},

	// Закрытие удаленной стороной завершает без подтверждения
	{From: domain.SessionPhaseJoinedWaitingPeer, To: domain.SessionPhaseEnded, Event: EvRemoteClosed, Reason: domain.EndReasonRemoteClosed},
	{From: domain.SessionPhaseConnected, To: domain.SessionPhaseEnded, Event: EvRemoteClosed, Reason: domain.EndReasonRemoteClosed},
	{From: domain.SessionPhaseScreenSharing, To: domain.SessionPhaseEnded, Event: EvRemoteClosed, Reason: domain.EndReasonRemoteClosed},

	// Ошибка транспорта завершает сразу, без попыток переподключения
	{From: domain.SessionPhaseJoinedWaitingPeer, To: domain.SessionPhaseEnded, Event: EvTransportError, Reason: domain.EndReasonTransportError},
	{From: domain.SessionPhaseConnected, To: domain.SessionPhaseEnded, Event: EvTransportError, Reason: domain.EndReasonTransportError},
	{From: domain.SessionPhaseScreenSharing, To: domain.SessionPhaseEnded, Event: EvTransportError, Reason: domain.EndReasonTransportError},
}

// TransitionFor возвращает разрешенный переход для пары состояние-событие.
// Отсутствие перехода - это игнорируемое событие, а не ошибка: повторный
// сигнал соединения для уже соединенной сессии просто не находит ребра.
func TransitionFor(from domain.SessionPhase, ev EventKind) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}

// Reduce применяет событие к состоянию звонка.
// false - событие в этой фазе не дает перехода.
func Reduce(call domain.SessionCall, ev EventKind) (domain.SessionCall, bool) {
	tr, ok := TransitionFor(call.Phase, ev)
	if !ok {
		return call, false
	}

	call.Phase = tr.To
	if tr.To == domain.SessionPhaseEnded {
		call.EndReason = tr.Reason
	}
	return call, true
}

// Eligible - попадает ли момент в окно входа [start, start+window]
func Eligible(now, sessionStart time.Time, window time.Duration) bool {
	if now.Before(sessionStart) {
		return false
	}
	return !now.After(sessionStart.Add(window))
}

// Remaining - сколько осталось до открытия окна входа, не меньше нуля
func Remaining(now, sessionStart time.Time) time.Duration {
	if !now.Before(sessionStart) {
		return 0
	}
	return sessionStart.Sub(now)
}
