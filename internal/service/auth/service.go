package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AxelTei/Jeux-Olympiques/internal/backend"
	"github.com/AxelTei/Jeux-Olympiques/internal/domain"
	"github.com/AxelTei/Jeux-Olympiques/internal/repository"
	redisrepo "github.com/AxelTei/Jeux-Olympiques/internal/repository/redis"
	"github.com/google/uuid"
)

// API is the authentication surface of the backend consumed here.
type API interface {
	SignUp(ctx context.Context, in backend.SignUpInput) error
	SignIn(ctx context.Context, username, password string) (*backend.SignInResult, error)
	SignOut(ctx context.Context) error
}

type Service struct {
	api      API
	sessions *redisrepo.SessionStore
	logger   *slog.Logger
}

func New(api API, sessions *redisrepo.SessionStore, logger *slog.Logger) *Service {
	return &Service{api: api, sessions: sessions, logger: logger}
}

func (s *Service) SignUp(ctx context.Context, username, password, alias string) error {
	const op = "service.auth.SignUp"

	in := backend.SignUpInput{Username: username, Password: password, Alias: alias}
	if err := s.api.SignUp(ctx, in); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SignIn authenticates against the backend and opens a server-side
// session holding the token, alias, user key, and roles. The returned
// session id is the only thing handed to the client.
func (s *Service) SignIn(ctx context.Context, username, password string) (*domain.Session, error) {
	const op = "service.auth.SignIn"

	res, err := s.api.SignIn(ctx, username, password)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sess := domain.Session{
		ID:        uuid.NewString(),
		Token:     res.Token,
		UserID:    res.ID,
		Username:  res.Username,
		Alias:     res.Alias,
		UserKey:   res.UserKey,
		Roles:     res.Roles,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &sess, nil
}

// SignOut tears the session down. The backend signout is best effort:
// the local session dies regardless, matching the logout semantics of
// the storefront.
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	const op = "service.auth.SignOut"

	if err := s.api.SignOut(ctx); err != nil {
		s.logger.Warn("backend signout failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	const op = "service.auth.Session"

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sess, nil
}
