package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

const TokenTTL = 12 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveUser       = errors.New("user is no longer active")
)

type UserStore interface {
	FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error)
	FindActiveUserByID(ctx context.Context, userID string) (AuthUser, error)
	UpdateLastLogin(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, hash string) error
}

type Service struct {
	store  UserStore
	secret string
}

func NewService(store UserStore, secret string) *Service {
	return &Service{store: store, secret: secret}
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.store.FindActiveUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if err := CheckPassword(user.Password, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	result, err := s.issue(user)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last login failed", "userId", user.ID, "err", err)
	}
	return result, nil
}

// Refresh reissues a token for a still-active user. Role changes made since
// the old token was signed take effect here.
func (s *Service) Refresh(ctx context.Context, userID string) (LoginResult, error) {
	user, err := s.store.FindActiveUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LoginResult{}, ErrInactiveUser
		}
		return LoginResult{}, err
	}
	return s.issue(user)
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.store.FindActiveUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInactiveUser
		}
		return err
	}
	if err := CheckPassword(user.Password, current); err != nil {
		return ErrInvalidCredentials
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, userID, hash)
}

func (s *Service) issue(user AuthUser) (LoginResult, error) {
	token, err := GenerateToken(s.secret, Claims{UserID: user.ID, RoleID: user.RoleID, RoleName: user.RoleName}, TokenTTL)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{
		Token:     token,
		ExpiresAt: time.Now().Add(TokenTTL).UTC(),
		UserID:    user.ID,
		Role:      user.RoleName,
	}, nil
}
