package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"namaz-tracker/internal/models"
	"namaz-tracker/internal/repository"
)

const sessionSweepBatch = 100

type expiredSessionSource interface {
	PopExpired(ctx context.Context, now time.Time, limit int) ([]repository.ExpiredSession, error)
}

// SessionReaper announces refresh sessions whose lifetime elapsed, so live
// clients of that session are routed back to login.
type SessionReaper struct {
	sessions expiredSessionSource
	events   eventPublisher
	interval time.Duration
	now      func() time.Time
	stopChan chan struct{}
	done     chan struct{}
}

func NewSessionReaper(sessions expiredSessionSource, events eventPublisher, interval time.Duration) *SessionReaper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionReaper{
		sessions: sessions,
		events:   events,
		interval: interval,
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (r *SessionReaper) Start() {
	if r.sessions == nil || r.events == nil {
		close(r.done)
		return
	}

	go r.loop()

	log.Info().Dur("interval", r.interval).Msg("session reaper started")
}

// Stop ends the loop and waits for an in-flight sweep to finish.
func (r *SessionReaper) Stop() {
	select {
	case <-r.stopChan:
	default:
		close(r.stopChan)
	}
	<-r.done
}

func (r *SessionReaper) loop() {
	defer close(r.done)

	// Run on startup as well as by interval.
	r.sweep(context.Background())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.sweep(context.Background())
		}
	}
}

// sweep drains every expired session, a batch at a time, and returns how
// many were announced.
func (r *SessionReaper) sweep(ctx context.Context) int {
	announced := 0
	for {
		expired, err := r.sessions.PopExpired(ctx, r.now(), sessionSweepBatch)
		if err != nil {
			log.Error().Err(err).Msg("session reaper: failed to pop expired sessions")
			return announced
		}

		for _, s := range expired {
			r.announce(ctx, s.UserID, s.Token)
			announced++
		}

		if len(expired) < sessionSweepBatch {
			return announced
		}
	}
}

func (r *SessionReaper) announce(ctx context.Context, userID uuid.UUID, token string) {
	event := models.SessionEvent{
		Type:    models.EventSession,
		State:   models.StateSignedOut,
		Reason:  models.ReasonExpired,
		Session: models.SessionID(token),
	}
	if err := r.events.Publish(ctx, userID, event); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("session reaper: failed to publish expiry")
	}
}
