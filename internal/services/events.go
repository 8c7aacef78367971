package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"namaz-tracker/internal/models"
)

// UserChannel is the pub/sub channel carrying a user's live events.
func UserChannel(userID uuid.UUID) string {
	return "user_updates:" + userID.String()
}

// SessionEvents publishes session and record events for the WebSocket hub.
type SessionEvents struct {
	redis *redis.Client
}

func NewSessionEvents(redisClient *redis.Client) *SessionEvents {
	return &SessionEvents{redis: redisClient}
}

func (p *SessionEvents) Publish(ctx context.Context, userID uuid.UUID, event models.SessionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return p.redis.Publish(ctx, UserChannel(userID), payload).Err()
}
