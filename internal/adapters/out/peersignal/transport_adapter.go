package peersignal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/skillswap/session-service/internal/config"
	"github.com/skillswap/session-service/internal/core/domain"
	"github.com/skillswap/session-service/internal/core/ports/out"
)

var (
	ErrTransportClosed = errors.New("signal transport is closed")
	ErrSourceBusy      = errors.New("media source is already captured")
)

// SignalTransportFactory создает клиентов сигналинга поверх общего
// обменника звонков. Каждый клиент держит свое соединение: падение
// одной сессии не роняет остальные.
type SignalTransportFactory struct {
	cfg    *config.Config
	logger out.LoggerPort
}

func NewSignalTransportFactory(cfg *config.Config, logger out.LoggerPort) *SignalTransportFactory {
	return &SignalTransportFactory{
		cfg:    cfg,
		logger: logger.WithModule("SignalTransport"),
	}
}

func (f *SignalTransportFactory) NewClient(ctx context.Context, localAddress string) (out.TransportClient, error) {
	conn, err := amqp.Dial(f.cfg.Signal.AmqpUri)
	if err != nil {
		f.logger.Error("signal.connect.failed", out.LogFields{
			"error": err.Error(),
			"url":   f.cfg.Signal.AmqpUri,
		})
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		f.logger.Error("signal.channel.failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, err
	}

	if err := channel.ExchangeDeclare(
		f.cfg.Signal.Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	// Очередь на адрес: эксклюзивная и самоудаляемая, живет пока сессия
	queue, err := channel.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	if err := channel.QueueBind(queue.Name, localAddress, f.cfg.Signal.Exchange, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	msgs, err := channel.Consume(
		queue.Name,
		"",    // consumer
		true,  // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	client := &SignalTransportClient{
		conn:         conn,
		channel:      channel,
		exchange:     f.cfg.Signal.Exchange,
		localAddress: localAddress,
		logger:       f.logger,
		calls:        make(map[uuid.UUID]*amqpCallHandle),
		captured:     make(map[domain.TrackSource]uuid.UUID),
		inbound:      make(chan out.InboundCall, 4),
		done:         make(chan struct{}),
	}

	go client.dispatch(msgs)

	f.logger.Info("signal.client.started", out.LogFields{
		"address": localAddress,
		"queue":   queue.Name,
	})

	return client, nil
}

// SignalTransportClient - клиент одной сессии: слушает свой адрес,
// публикует конверты на адреса собеседников
type SignalTransportClient struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	exchange     string
	localAddress string
	logger       out.LoggerPort

	mu       sync.Mutex
	calls    map[uuid.UUID]*amqpCallHandle
	captured map[domain.TrackSource]uuid.UUID
	inbound  chan out.InboundCall
	done     chan struct{}
	closed   bool
}

func (c *SignalTransportClient) publish(address string, envelope signalEnvelope) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrTransportClosed
	}
	c.mu.Unlock()

	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return c.channel.Publish(
		c.exchange,
		address,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (c *SignalTransportClient) dispatch(msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-c.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			c.handleEnvelope(msg)
		}
	}
}

func (c *SignalTransportClient) handleEnvelope(msg amqp.Delivery) {
	var envelope signalEnvelope
	if err := json.Unmarshal(msg.Body, &envelope); err != nil {
		c.logger.Warn("signal.envelope.malformed", out.LogFields{
			"address": c.localAddress,
			"error":   err.Error(),
		})
		return
	}

	// Свои же конверты игнорируем: topic-обменник может доставить эхо
	if envelope.From == c.localAddress {
		return
	}

	switch envelope.Kind {
	case envelopeKindOffer:
		call := &inboundCall{
			client: c,
			callID: envelope.CallID,
			from:   envelope.From,
			callerStream: &remoteStream{
				id:     envelope.StreamID,
				source: envelope.Source,
			},
		}
		select {
		case <-c.done:
		case c.inbound <- call:
		default:
			c.logger.Warn("signal.offer.dropped", out.LogFields{
				"address": c.localAddress,
				"from":    envelope.From,
			})
		}

	case envelopeKindAnswer, envelopeKindMedia:
		if handle := c.callByID(envelope.CallID); handle != nil {
			handle.pushRemote(&remoteStream{
				id:     envelope.StreamID,
				source: envelope.Source,
			})
		}

	case envelopeKindClose:
		if handle := c.callByID(envelope.CallID); handle != nil {
			c.dropCall(envelope.CallID)
			handle.shutdown()
		}

	default:
		c.logger.Warn("signal.envelope.unknown_kind", out.LogFields{
			"address": c.localAddress,
			"kind":    envelope.Kind,
		})
	}
}

func (c *SignalTransportClient) callByID(callID uuid.UUID) *amqpCallHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[callID]
}

func (c *SignalTransportClient) registerCall(handle *amqpCallHandle) {
	c.mu.Lock()
	c.calls[handle.callID] = handle
	c.mu.Unlock()
}

func (c *SignalTransportClient) dropCall(callID uuid.UUID) {
	c.mu.Lock()
	delete(c.calls, callID)
	c.mu.Unlock()
}

func (c *SignalTransportClient) acquire(source domain.TrackSource) (out.MediaStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrTransportClosed
	}
	if _, busy := c.captured[source]; busy {
		return nil, fmt.Errorf("%w: %s", ErrSourceBusy, source)
	}

	id := uuid.New()
	c.captured[source] = id

	return &localStream{
		id:     id,
		source: source,
		release: func() {
			c.mu.Lock()
			if c.captured[source] == id {
				delete(c.captured, source)
			}
			c.mu.Unlock()
		},
	}, nil
}

func (c *SignalTransportClient) AcquireMedia(ctx context.Context, constraints out.MediaConstraints) (out.MediaStream, error) {
	return c.acquire(domain.TrackSourceCamera)
}

func (c *SignalTransportClient) AcquireScreen(ctx context.Context, withAudio bool) (out.MediaStream, error) {
	return c.acquire(domain.TrackSourceScreen)
}

func (c *SignalTransportClient) PlaceCall(ctx context.Context, address string, local out.MediaStream) (out.CallHandle, error) {
	handle := newCallHandle(uuid.New(), address, c)
	c.registerCall(handle)

	if err := c.publish(address, signalEnvelope{
		Kind:     envelopeKindOffer,
		From:     c.localAddress,
		CallID:   handle.callID,
		StreamID: local.ID(),
		Source:   local.Source(),
	}); err != nil {
		c.dropCall(handle.callID)
		return nil, err
	}

	c.logger.Info("signal.call.placed", out.LogFields{
		"from":   c.localAddress,
		"to":     address,
		"callId": handle.callID,
	})

	return handle, nil
}

func (c *SignalTransportClient) Inbound() <-chan out.InboundCall {
	return c.inbound
}

func (c *SignalTransportClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	var live []*amqpCallHandle
	for _, handle := range c.calls {
		live = append(live, handle)
	}
	c.calls = make(map[uuid.UUID]*amqpCallHandle)
	close(c.done)
	c.mu.Unlock()

	for _, handle := range live {
		handle.shutdown()
	}

	if err := c.channel.Close(); err != nil {
		c.conn.Close()
		return err
	}
	return c.conn.Close()
}
