package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"namaz-tracker/internal/middleware"
	"namaz-tracker/internal/models"
	"namaz-tracker/internal/repository"
)

type userStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
}

type sessionStore interface {
	Create(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error
	Lookup(ctx context.Context, token string) (uuid.UUID, error)
	Delete(ctx context.Context, userID uuid.UUID, token string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, userID uuid.UUID, event models.SessionEvent) error
}

type AuthService struct {
	users       userStore
	sessions    sessionStore
	jwt         *middleware.JWTAuth
	events      eventPublisher
	refreshTTL  time.Duration
	minPassword int
	bcryptCost  int
}

func NewAuthService(users userStore, sessions sessionStore, jwt *middleware.JWTAuth, events eventPublisher, refreshTTL time.Duration, minPassword int) *AuthService {
	return &AuthService{
		users:       users,
		sessions:    sessions,
		jwt:         jwt,
		events:      events,
		refreshTTL:  refreshTTL,
		minPassword: minPassword,
		bcryptCost:  12,
	}
}

var validate = validator.New()

// Register creates the account and signs it in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthTokens, error) {
	email := normalizeEmail(req.Email)

	fieldErrors := make(map[string]string)
	if email == "" {
		fieldErrors["email"] = "Email is required."
	} else if validate.Var(email, "email") != nil {
		fieldErrors["email"] = "The email address is badly formatted."
	}
	if req.Password == "" {
		fieldErrors["password"] = "Password is required."
	} else if len(req.Password) < s.minPassword {
		fieldErrors["password"] = fmt.Sprintf("Password should be at least %d characters.", s.minPassword)
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, &ConflictError{Message: "Email already in use"}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration of the same email
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, &ConflictError{Message: "Email already in use"}
		}
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, &ValidationError{Fields: map[string]string{"credentials": "Please enter both email and password."}}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &UnauthorizedError{Message: "Invalid email or password"}
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, &UnauthorizedError{Message: "Account is deactivated"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid email or password"}
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to update last login")
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	if refreshToken == "" {
		return nil, &UnauthorizedError{Message: "Your session has expired. Please log in again."}
	}

	userID, err := s.sessions.Lookup(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, &UnauthorizedError{Message: "Your session has expired. Please log in again."}
		}
		return nil, err
	}

	// Rotation: the old token is spent whatever happens next.
	if err := s.sessions.Delete(ctx, userID, refreshToken); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &UnauthorizedError{Message: "Your session has expired. Please log in again."}
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, &UnauthorizedError{Message: "Account is deactivated"}
	}

	return s.issueTokens(ctx, user)
}

// Logout ends the session owned by refreshToken and tells that session's
// live connections the user is gone.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	if refreshToken != "" {
		owner, err := s.sessions.Lookup(ctx, refreshToken)
		if err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
			return err
		}
		if err == nil && owner != userID {
			return &ForbiddenError{Message: "Session belongs to another user"}
		}
		if err := s.sessions.Delete(ctx, userID, refreshToken); err != nil {
			return err
		}
	}

	event := models.SessionEvent{
		Type:   models.EventSession,
		State:  models.StateSignedOut,
		Reason: models.ReasonLogout,
	}
	if refreshToken != "" {
		event.Session = models.SessionID(refreshToken)
	}
	if err := s.events.Publish(ctx, userID, event); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to publish logout event")
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.SessionUser, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "User not found"}
		}
		return nil, err
	}
	session := user.Session()
	return &session, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*models.AuthTokens, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateToken(32)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Create(ctx, user.ID, refreshToken, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwt.TTL.Seconds()),
		User:         user.Session(),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
