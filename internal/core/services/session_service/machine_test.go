package session_service

import (
	"testing"
	"time"

	"github.com/skillswap/session-service/internal/core/domain"
)

func TestReduce_HappyPath(t *testing.T) {
	call := domain.SessionCall{Phase: domain.SessionPhaseAwaitingWindow}

	steps := []struct {
		ev   EventKind
		want domain.SessionPhase
	}{
		{EvWindowEntered, domain.SessionPhaseEligible},
		{EvJoinRequested, domain.SessionPhaseJoinedWaitingPeer},
		{EvRemoteStream, domain.SessionPhaseConnected},
		{EvShareStarted, domain.SessionPhaseScreenSharing},
		{EvShareStopped, domain.SessionPhaseConnected},
		{EvEndConfirmed, domain.SessionPhaseEnded},
	}

	for _, step := range steps {
		next, ok := Reduce(call, step.ev)
		if !ok {
			t.Fatalf("expected transition for %s from %s", step.ev, call.Phase)
		}
		if next.Phase != step.want {
			t.Fatalf("after %s expected %s, got %s", step.ev, step.want, next.Phase)
		}
		call = next
	}

	if call.EndReason != domain.EndReasonLocal {
		t.Errorf("expected local end reason, got %s", call.EndReason)
	}
}

func TestReduce_DuplicateRemoteStreamIgnored(t *testing.T) {
	call := domain.SessionCall{Phase: domain.SessionPhaseConnected}

	// Повторный сигнал соединения не находит ребра
	next, ok := Reduce(call, EvRemoteStream)
	if ok {
		t.Error("expected no transition for remote stream in connected phase")
	}
	if next.Phase != domain.SessionPhaseConnected {
		t.Errorf("phase must stay connected, got %s", next.Phase)
	}
}

func TestReduce_NoEventsFromEnded(t *testing.T) {
	call := domain.SessionCall{Phase: domain.SessionPhaseEnded}

	events := []EventKind{
		EvWindowEntered, EvJoinRequested, EvRemoteStream,
		EvShareStarted, EvShareStopped, EvEndConfirmed,
		EvRemoteClosed, EvTransportError,
	}
	for _, ev := range events {
		if _, ok := Reduce(call, ev); ok {
			t.Errorf("ended phase must not transition on %s", ev)
		}
	}
}

func TestReduce_RemoteClosedFromSharing(t *testing.T) {
	call := domain.SessionCall{Phase: domain.SessionPhaseScreenSharing}

	next, ok := Reduce(call, EvRemoteClosed)
	if !ok || next.Phase != domain.SessionPhaseEnded {
		t.Fatalf("expected ended, got %s (ok=%v)", next.Phase, ok)
	}
	if next.EndReason != domain.EndReasonRemoteClosed {
		t.Errorf("expected remote_closed reason, got %s", next.EndReason)
	}
}

func TestReduce_TransportErrorReason(t *testing.T) {
	call := domain.SessionCall{Phase: domain.SessionPhaseJoinedWaitingPeer}

	next, ok := Reduce(call, EvTransportError)
	if !ok || next.EndReason != domain.EndReasonTransportError {
		t.Fatalf("expected transport_error reason, got %s (ok=%v)", next.EndReason, ok)
	}
}

func TestReduce_NoJoinBeforeWindow(t *testing.T) {
	call := domain.SessionCall{Phase: domain.SessionPhaseAwaitingWindow}

	if _, ok := Reduce(call, EvJoinRequested); ok {
		t.Error("join must not be allowed before the window opens")
	}
}

func TestEligible(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	window := 60 * time.Minute

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before start", start.Add(-time.Minute), false},
		{"exactly at start", start, true},
		{"mid window", start.Add(30 * time.Minute), true},
		// Граница окна включительно
		{"window boundary", start.Add(60 * time.Minute), true},
		{"past window", start.Add(61 * time.Minute), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Eligible(tc.now, start, window); got != tc.want {
				t.Errorf("Eligible = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRemaining(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	if got := Remaining(start.Add(-90*time.Second), start); got != 90*time.Second {
		t.Errorf("expected 90s remaining, got %s", got)
	}
	if got := Remaining(start, start); got != 0 {
		t.Errorf("expected zero at start, got %s", got)
	}
	if got := Remaining(start.Add(time.Hour), start); got != 0 {
		t.Errorf("expected zero after start, got %s", got)
	}
}
