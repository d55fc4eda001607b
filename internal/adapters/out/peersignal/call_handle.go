package peersignal

import (
	"sync"

	"github.com/google/uuid"
	"github.com/skillswap/session-service/internal/core/domain"
	"github.com/skillswap/session-service/internal/core/ports/out"
)

// amqpCallHandle - звонок поверх сигналинга в брокере.
// Каналы закрываются ровно один раз, из Close или при close-конверте.
type amqpCallHandle struct {
	callID uuid.UUID
	peer   string
	client *SignalTransportClient

	remote chan out.MediaStream
	closed chan struct{}
	errs   chan error

	once sync.Once
}

func newCallHandle(callID uuid.UUID, peer string, client *SignalTransportClient) *amqpCallHandle {
	return &amqpCallHandle{
		callID: callID,
		peer:   peer,
		client: client,
		remote: make(chan out.MediaStream, 4),
		closed: make(chan struct{}),
		errs:   make(chan error, 4),
	}
}

func (h *amqpCallHandle) RemoteStreams() <-chan out.MediaStream { return h.remote }

func (h *amqpCallHandle) Closed() <-chan struct{} { return h.closed }

func (h *amqpCallHandle) Errors() <-chan error { return h.errs }

func (h *amqpCallHandle) ReplaceOutgoing(media domain.OutgoingMedia, stream out.MediaStream) error {
	return h.client.publish(h.peer, signalEnvelope{
		Kind:     envelopeKindMedia,
		From:     h.client.localAddress,
		CallID:   h.callID,
		StreamID: stream.ID(),
		Source:   stream.Source(),
	})
}

func (h *amqpCallHandle) Close() error {
	err := h.client.publish(h.peer, signalEnvelope{
		Kind:   envelopeKindClose,
		From:   h.client.localAddress,
		CallID: h.callID,
	})

	h.client.dropCall(h.callID)
	h.shutdown()

	return err
}

// pushRemote доставляет анонс удаленного потока, не блокируясь:
// переполненный буфер значит, что потребитель уже не слушает
func (h *amqpCallHandle) pushRemote(stream out.MediaStream) {
	select {
	case <-h.closed:
	case h.remote <- stream:
	default:
	}
}

func (h *amqpCallHandle) pushError(err error) {
	select {
	case <-h.closed:
	case h.errs <- err:
	default:
	}
}

// shutdown сигнализирует о завершении; вызывается и локально, и
// при close-конверте от удаленной стороны
func (h *amqpCallHandle) shutdown() {
	h.once.Do(func() {
		close(h.closed)
	})
}

// inboundCall - входящее предложение звонка
type inboundCall struct {
	client       *SignalTransportClient
	callID       uuid.UUID
	from         string
	callerStream out.MediaStream
}

func (c *inboundCall) From() string { return c.from }

// Answer отвечает на предложение: публикует answer с нашим потоком
// и сразу отдает поток звонящего из offer-конверта
func (c *inboundCall) Answer(local out.MediaStream) (out.CallHandle, error) {
	handle := newCallHandle(c.callID, c.from, c.client)

	if err := c.client.publish(c.from, signalEnvelope{
		Kind:     envelopeKindAnswer,
		From:     c.client.localAddress,
		CallID:   c.callID,
		StreamID: local.ID(),
		Source:   local.Source(),
	}); err != nil {
		return nil, err
	}

	c.client.registerCall(handle)
	handle.pushRemote(c.callerStream)

	return handle, nil
}
