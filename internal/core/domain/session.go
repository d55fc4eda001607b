package domain

import (
	"github.com/google/uuid"
)

// SessionPhase - фаза жизненного цикла звонка по записи
type SessionPhase string

const (
	SessionPhaseAwaitingWindow    SessionPhase = "awaiting_window"
	SessionPhaseEligible          SessionPhase = "eligible"
	SessionPhaseJoinedWaitingPeer SessionPhase = "joined_waiting_peer"
	SessionPhaseConnected         SessionPhase = "connected"
	SessionPhaseScreenSharing     SessionPhase = "screen_sharing"
	SessionPhaseEnded             SessionPhase = "ended"
)

// Terminal - терминальная ли фаза для данного экземпляра звонка
func (p SessionPhase) Terminal() bool {
	return p == SessionPhaseEnded
}

// SessionEndReason - почему звонок завершился
type SessionEndReason string

const (
	EndReasonLocal          SessionEndReason = "local_end"
	EndReasonRemoteClosed   SessionEndReason = "remote_closed"
	EndReasonTransportError SessionEndReason = "transport_error"
)

// TrackSource - источник исходящей видеодорожки
type TrackSource string

const (
	TrackSourceCamera TrackSource = "camera"
	TrackSourceScreen TrackSource = "screen"
)

// OutgoingMedia - состав исходящего потока звонка.
// Аудио демонстрации экрана по умолчанию заглушено, чтобы не ловить эхо.
type OutgoingMedia struct {
	Video            TrackSource
	MicEnabled       bool
	ScreenAudioMuted bool
}

// SessionCall - эфемерное состояние попытки звонка, не персистится
type SessionCall struct {
	AppointmentID       uuid.UUID
	LocalParticipantID  uuid.UUID
	RemoteParticipantID uuid.UUID
	Phase               SessionPhase
	Outgoing            OutgoingMedia
	EndReason           SessionEndReason
}

// PeerAddress - детерминированный адрес участника в рамках звонка по записи.
// Обе стороны выводят адреса друг друга без дополнительного обмена.
func PeerAddress(appointmentID, userID uuid.UUID) string {
	derived := uuid.NewSHA1(appointmentID, []byte(userID.String()))
	return "call." + derived.String()
}
