package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	refreshKeyPrefix = "refresh:"
	sessionExpiryKey = "session_expiry"
)

// ErrSessionNotFound is returned for unknown or expired refresh tokens.
var ErrSessionNotFound = errors.New("session not found")

// ExpiredSession identifies a refresh session whose lifetime elapsed.
type ExpiredSession struct {
	UserID uuid.UUID
	Token  string
}

// SessionRepo keeps refresh sessions in Redis. Each session is a key with
// a TTL plus a member of a sorted set scored by expiry, so expirations can
// be announced after Redis drops the key.
type SessionRepo struct {
	client *redis.Client
}

func NewSessionRepo(client *redis.Client) *SessionRepo {
	return &SessionRepo{client: client}
}

func expiryMember(userID uuid.UUID, token string) string {
	return userID.String() + ":" + token
}

func (r *SessionRepo) Create(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl).Unix()
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, refreshKeyPrefix+token, userID.String(), ttl)
		pipe.ZAdd(ctx, sessionExpiryKey, redis.Z{Score: float64(expiresAt), Member: expiryMember(userID, token)})
		return nil
	})
	return err
}

func (r *SessionRepo) Lookup(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := r.client.Get(ctx, refreshKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(val)
}

func (r *SessionRepo) Delete(ctx context.Context, userID uuid.UUID, token string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, refreshKeyPrefix+token)
		pipe.ZRem(ctx, sessionExpiryKey, expiryMember(userID, token))
		return nil
	})
	return err
}

// PopExpired removes and returns up to limit sessions that expired at or
// before now. A member is only returned by the caller whose ZREM removed
// it, so concurrent reapers never report the same session twice.
func (r *SessionRepo) PopExpired(ctx context.Context, now time.Time, limit int) ([]ExpiredSession, error) {
	members, err := r.client.ZRangeByScore(ctx, sessionExpiryKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, err
	}

	expired := make([]ExpiredSession, 0, len(members))
	for _, m := range members {
		removed, err := r.client.ZRem(ctx, sessionExpiryKey, m).Result()
		if err != nil {
			return expired, err
		}
		if removed == 0 {
			continue
		}
		userPart, token, ok := strings.Cut(m, ":")
		if !ok {
			continue
		}
		userID, err := uuid.Parse(userPart)
		if err != nil {
			continue
		}
		expired = append(expired, ExpiredSession{UserID: userID, Token: token})
	}
	return expired, nil
}
