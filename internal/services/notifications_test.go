package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"namaz-tracker/internal/models"
	"namaz-tracker/internal/repository"
)

type stubExpiredSource struct {
	batches [][]repository.ExpiredSession
	err     error
	calls   int
}

func (s *stubExpiredSource) PopExpired(_ context.Context, _ time.Time, _ int) ([]repository.ExpiredSession, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.batches) == 0 {
		return nil, nil
	}
	next := s.batches[0]
	s.batches = s.batches[1:]
	return next, nil
}

func TestSessionReaperSweepAnnouncesExpiredSessions(t *testing.T) {
	userID := uuid.New()
	source := &stubExpiredSource{batches: [][]repository.ExpiredSession{
		{{UserID: userID, Token: "tok-1"}, {UserID: userID, Token: "tok-2"}},
	}}
	events := &recordingPublisher{}
	reaper := NewSessionReaper(source, events, time.Minute)

	if n := reaper.sweep(context.Background()); n != 2 {
		t.Fatalf("expected 2 announced sessions, got %d", n)
	}
	if len(events.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events.events))
	}

	got := events.events[0]
	if got.userID != userID {
		t.Fatalf("expected event for %s, got %s", userID, got.userID)
	}
	if got.event.Type != models.EventSession || got.event.State != models.StateSignedOut || got.event.Reason != models.ReasonExpired {
		t.Fatalf("unexpected event: %+v", got.event)
	}
	if got.event.Session != models.SessionID("tok-1") {
		t.Fatalf("expected session id of tok-1, got %q", got.event.Session)
	}
}

func TestSessionReaperSweepDrainsFullBatches(t *testing.T) {
	full := make([]repository.ExpiredSession, sessionSweepBatch)
	for i := range full {
		full[i] = repository.ExpiredSession{UserID: uuid.New(), Token: uuid.NewString()}
	}
	source := &stubExpiredSource{batches: [][]repository.ExpiredSession{full, {{UserID: uuid.New(), Token: "last"}}}}
	reaper := NewSessionReaper(source, &recordingPublisher{}, time.Minute)

	if n := reaper.sweep(context.Background()); n != sessionSweepBatch+1 {
		t.Fatalf("expected %d announced sessions, got %d", sessionSweepBatch+1, n)
	}
	if source.calls != 2 {
		t.Fatalf("expected 2 pops, got %d", source.calls)
	}
}

func TestSessionReaperSweepStopsOnError(t *testing.T) {
	source := &stubExpiredSource{err: errors.New("redis down")}
	events := &recordingPublisher{}
	reaper := NewSessionReaper(source, events, time.Minute)

	if n := reaper.sweep(context.Background()); n != 0 {
		t.Fatalf("expected nothing announced, got %d", n)
	}
	if len(events.events) != 0 {
		t.Fatalf("expected no events, got %d", len(events.events))
	}
}

func TestSessionReaperStartStop(t *testing.T) {
	reaper := NewSessionReaper(&stubExpiredSource{}, &recordingPublisher{}, time.Hour)
	reaper.Start()
	reaper.Stop()
	// Stop is idempotent.
	reaper.Stop()
}
