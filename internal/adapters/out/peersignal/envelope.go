package peersignal

import (
	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/core/domain"
)

type envelopeKind string

const (
	// предложение звонка, несет поток звонящего
	envelopeKindOffer envelopeKind = "offer"
	// ответ на предложение, несет поток отвечающего
	envelopeKindAnswer envelopeKind = "answer"
	// замена состава исходящего потока на лету
	envelopeKindMedia envelopeKind = "media"
	// завершение звонка удаленной стороной
	envelopeKindClose envelopeKind = "close"
)

// signalEnvelope - сообщение сигналинга в обменнике звонков.
// Routing key - адрес получателя, From - адрес отправителя.
type signalEnvelope struct {
	Kind     envelopeKind       `json:"kind"`
	From     string             `json:"from"`
	CallID   uuid.UUID          `json:"callId"`
	StreamID uuid.UUID          `json:"streamId"`
	Source   domain.TrackSource `json:"source"`
}
