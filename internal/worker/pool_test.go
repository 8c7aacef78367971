package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namaz-tracker/internal/models"
)

type recordingSink struct {
	mu       sync.Mutex
	failures int
	calls    int
	got      []models.SessionEvent
}

func (s *recordingSink) Publish(_ context.Context, _ uuid.UUID, ev models.SessionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("redis unavailable")
	}
	s.got = append(s.got, ev)
	return nil
}

func (s *recordingSink) events() []models.SessionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SessionEvent(nil), s.got...)
}

func recordEvent(prayer string) models.SessionEvent {
	return models.SessionEvent{Type: models.EventRecord, Date: "2026-10-18", Prayer: prayer}
}

func TestPool_PreservesPerUserOrder(t *testing.T) {
	sink := &recordingSink{}
	p := NewPool(sink, 4, 16)
	p.Start()

	user := uuid.New()
	names := []string{"fajr", "dhuhr", "asr", "maghrib", "isha"}
	for _, n := range names {
		require.NoError(t, p.Publish(context.Background(), user, recordEvent(n)))
	}
	p.Stop()

	got := sink.events()
	require.Len(t, got, len(names))
	for i, n := range names {
		assert.Equal(t, n, got[i].Prayer)
	}
}

func TestPool_RetriesFailedPublish(t *testing.T) {
	sink := &recordingSink{failures: 2}
	p := NewPool(sink, 1, 4)
	p.backoff = time.Millisecond
	p.Start()

	require.NoError(t, p.Publish(context.Background(), uuid.New(), recordEvent("asr")))
	p.Stop()

	assert.Equal(t, 3, sink.calls)
	assert.Len(t, sink.events(), 1)
}

func TestPool_DropsAfterMaxAttempts(t *testing.T) {
	sink := &recordingSink{failures: 10}
	p := NewPool(sink, 1, 4)
	p.backoff = time.Millisecond
	p.Start()

	require.NoError(t, p.Publish(context.Background(), uuid.New(), recordEvent("asr")))
	p.Stop()

	assert.Equal(t, maxAttempts, sink.calls)
	assert.Empty(t, sink.events())
}

func TestPool_QueueFull(t *testing.T) {
	p := NewPool(&recordingSink{}, 1, 1)
	user := uuid.New()

	require.NoError(t, p.Publish(context.Background(), user, recordEvent("fajr")))
	assert.ErrorIs(t, p.Publish(context.Background(), user, recordEvent("dhuhr")), ErrQueueFull)
}

func TestPool_RejectsAfterStop(t *testing.T) {
	p := NewPool(&recordingSink{}, 2, 4)
	p.Start()
	p.Stop()
	p.Stop()

	assert.ErrorIs(t, p.Publish(context.Background(), uuid.New(), recordEvent("fajr")), ErrStopped)
}
