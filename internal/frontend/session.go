package frontend

import (
	"context"

	"github.com/google/uuid"

	"namaz-tracker/internal/models"
	"namaz-tracker/internal/prayers"
)

type SessionUser = models.SessionUser

// Session is the signed-in identity handed to every data operation. The
// epoch changes on every auth change, so results of work started under an
// earlier session can be told apart even for the same user.
type Session struct {
	User  *SessionUser
	epoch uint64
}

func (s Session) SignedIn() bool { return s.User != nil }

func (s Session) same(other Session) bool { return s.epoch == other.epoch }

// RecordStore is the record store adapter the controllers talk to.
type RecordStore interface {
	GetRecord(ctx context.Context, userID uuid.UUID, dateID string) (*prayers.Record, error)
	SetPrayerField(ctx context.Context, userID uuid.UUID, dateID, name string, value bool) error
	ListRecords(ctx context.Context, userID uuid.UUID, limit int) ([]prayers.Record, error)
	ListRange(ctx context.Context, userID uuid.UUID, from, to string) ([]prayers.Record, error)
}

// AuthProvider signs users in and out. Successful calls are followed by an
// auth-change notification delivered through App.AuthChanged.
type AuthProvider interface {
	SignIn(ctx context.Context, email, password string) (*SessionUser, error)
	Register(ctx context.Context, email, password string) (*SessionUser, error)
	SignOut(ctx context.Context) error
}
