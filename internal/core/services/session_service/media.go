package session_service

import (
	"context"
	"fmt"

	"github.com/skillswap/session-service/internal/core/domain"
	"github.com/skillswap/session-service/internal/core/ports/out"
)

// acquireMediaWithFallback захватывает камеру и микрофон. При отказе
// устройств делает одну попытку с урезанными ограничениями, дальше
// ошибка уходит пользователю, автоматических повторов нет.
func (c *SessionController) acquireMediaWithFallback(ctx context.Context, transport out.TransportClient) (out.MediaStream, error) {
	media, err := transport.AcquireMedia(ctx, out.MediaConstraints{Video: true, Audio: true})
	if err == nil {
		return media, nil
	}

	c.logger.Warn("session.media.fallback", out.LogFields{
		"appointmentId": c.appointment.ID,
		"error":         err.Error(),
	})

	media, err = transport.AcquireMedia(ctx, out.MediaConstraints{Audio: true, Minimal: true})
	if err != nil {
		c.logger.Error("session.media.unavailable", out.LogFields{
			"appointmentId": c.appointment.ID,
			"error":         err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrMediaUnavailable, err)
	}

	return media, nil
}

// SetScreenShare включает или выключает демонстрацию экрана.
// Включение повторно входимо: новый захват заменяет предыдущий.
// Выключение всегда возвращает камеру и только микрофон в исходящий
// поток, независимо от состояния заглушки до этого.
func (c *SessionController) SetScreenShare(ctx context.Context, enabled bool, withAudio bool) (domain.SessionCall, error) {
	if enabled {
		return c.startScreenShare(ctx, withAudio)
	}
	return c.stopScreenShare()
}

func (c *SessionController) startScreenShare(ctx context.Context, withAudio bool) (domain.SessionCall, error) {
	c.mu.Lock()
	if c.disposed {
		call := c.call
		c.mu.Unlock()
		return call, ErrSessionEnded
	}
	if c.call.Phase != domain.SessionPhaseConnected && c.call.Phase != domain.SessionPhaseScreenSharing {
		call := c.call
		c.mu.Unlock()
		return call, ErrNotConnected
	}
	transport := c.transport
	c.mu.Unlock()

	screen, err := transport.AcquireScreen(ctx, withAudio)
	if err != nil {
		c.logger.Error("session.share.acquire_failed", out.LogFields{
			"appointmentId": c.appointment.ID,
			"error":         err.Error(),
		})
		return c.snapshot(), fmt.Errorf("session.share.acquire_failed: %w", err)
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		screen.Release()
		return c.snapshot(), ErrSessionEnded
	}
	if c.call.Phase != domain.SessionPhaseConnected && c.call.Phase != domain.SessionPhaseScreenSharing {
		c.mu.Unlock()
		screen.Release()
		return c.snapshot(), ErrNotConnected
	}

	previous := c.screen
	c.screen = screen

	// Аудио экрана всегда стартует заглушенным, иначе ловим эхо.
	// Снять заглушку можно только явно.
	outgoing := domain.OutgoingMedia{
		Video:            domain.TrackSourceScreen,
		MicEnabled:       true,
		ScreenAudioMuted: true,
	}
	c.call.Outgoing = outgoing
	handle := c.callHandle
	c.call, _ = Reduce(c.call, EvShareStarted)
	call := c.call
	c.mu.Unlock()

	if previous != nil {
		previous.Release()
	}

	if err := handle.ReplaceOutgoing(outgoing, screen); err != nil {
		c.logger.Error("session.share.replace_failed", out.LogFields{
			"appointmentId": c.appointment.ID,
			"error":         err.Error(),
		})
		return call, fmt.Errorf("session.share.replace_failed: %w", err)
	}

	c.logger.Info("session.share.started", out.LogFields{
		"appointmentId": c.appointment.ID,
		"withAudio":     withAudio,
	})

	return call, nil
}

func (c *SessionController) stopScreenShare() (domain.SessionCall, error) {
	c.mu.Lock()
	// После Dispose ссылки на транспорт обнулены, трогать их нельзя
	if c.disposed {
		call := c.call
		c.mu.Unlock()
		return call, ErrSessionEnded
	}
	if c.call.Phase != domain.SessionPhaseScreenSharing {
		call := c.call
		c.mu.Unlock()
		return call, nil
	}

	screen := c.screen
	c.screen = nil

	outgoing := domain.OutgoingMedia{
		Video:            domain.TrackSourceCamera,
		MicEnabled:       true,
		ScreenAudioMuted: true,
	}
	c.call.Outgoing = outgoing
	handle := c.callHandle
	media := c.media
	c.call, _ = Reduce(c.call, EvShareStopped)
	call := c.call
	c.mu.Unlock()

	if screen != nil {
		screen.Release()
	}

	if err := handle.ReplaceOutgoing(outgoing, media); err != nil {
		c.logger.Error("session.share.restore_failed", out.LogFields{
			"appointmentId": c.appointment.ID,
			"error":         err.Error(),
		})
		return call, fmt.Errorf("session.share.restore_failed: %w", err)
	}

	c.logger.Info("session.share.stopped", out.LogFields{
		"appointmentId": c.appointment.ID,
	})

	return call, nil
}

// SetScreenAudioMuted явно глушит или включает аудиоканал демонстрации
func (c *SessionController) SetScreenAudioMuted(muted bool) (domain.SessionCall, error) {
	c.mu.Lock()
	if c.disposed {
		call := c.call
		c.mu.Unlock()
		return call, ErrSessionEnded
	}
	if c.call.Phase != domain.SessionPhaseScreenSharing {
		call := c.call
		c.mu.Unlock()
		return call, ErrNotConnected
	}

	outgoing := c.call.Outgoing
	outgoing.ScreenAudioMuted = muted
	c.call.Outgoing = outgoing
	handle := c.callHandle
	screen := c.screen
	call := c.call
	c.mu.Unlock()

	if err := handle.ReplaceOutgoing(outgoing, screen); err != nil {
		return call, fmt.Errorf("session.share.audio_toggle_failed: %w", err)
	}

	return call, nil
}
