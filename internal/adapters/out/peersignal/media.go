package peersignal

import (
	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/core/domain"
)

// localStream - локальный захваченный поток. Владение эксклюзивное,
// повторный захват того же источника возможен только после Release.
type localStream struct {
	id      uuid.UUID
	source  domain.TrackSource
	release func()
}

func (s *localStream) ID() uuid.UUID { return s.id }

func (s *localStream) Source() domain.TrackSource { return s.source }

func (s *localStream) Release() {
	if s.release != nil {
		s.release()
		s.release = nil
	}
}

// remoteStream - поток удаленной стороны, известный только по анонсу
// в сигналинге. Release у него ничего не освобождает локально.
type remoteStream struct {
	id     uuid.UUID
	source domain.TrackSource
}

func (s *remoteStream) ID() uuid.UUID { return s.id }

func (s *remoteStream) Source() domain.TrackSource { return s.source }

func (s *remoteStream) Release() {}
