package out

import (
	"context"

	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/core/domain"
)

// MediaConstraints - ограничения захвата локальных устройств
type MediaConstraints struct {
	Video bool
	Audio bool
	// Minimal - урезанный набор для повторной попытки после отказа устройств
	Minimal bool
}

// MediaStream - непрозрачный хэндл локального медиапотока.
// Владение эксклюзивное: новый захват возможен только после Release.
type MediaStream interface {
	ID() uuid.UUID
	Source() domain.TrackSource
	Release()
}

// CallHandle - хэндл установленного или устанавливаемого звонка
type CallHandle interface {
	// RemoteStreams отдает удаленные потоки по мере их появления
	RemoteStreams() <-chan MediaStream
	// Closed закрывается, когда удаленная сторона завершила звонок
	Closed() <-chan struct{}
	// Errors отдает ошибки транспорта
	Errors() <-chan error
	// ReplaceOutgoing заменяет состав исходящего потока (камера/экран, аудио)
	ReplaceOutgoing(media domain.OutgoingMedia, stream MediaStream) error
	Close() error
}

// InboundCall - входящий звонок на наш адрес
type InboundCall interface {
	From() string
	Answer(local MediaStream) (CallHandle, error)
}

// TransportClient - клиент реального времени на один экземпляр сессии.
// Создается и закрывается явно, владелец - контроллер сессии.
type TransportClient interface {
	AcquireMedia(ctx context.Context, constraints MediaConstraints) (MediaStream, error)
	AcquireScreen(ctx context.Context, withAudio bool) (MediaStream, error)
	PlaceCall(ctx context.Context, address string, local MediaStream) (CallHandle, error)
	Inbound() <-chan InboundCall
	Close() error
}

// TransportFactory создает транспортный клиент, слушающий заданный адрес
type TransportFactory interface {
	NewClient(ctx context.Context, localAddress string) (TransportClient, error)
}
