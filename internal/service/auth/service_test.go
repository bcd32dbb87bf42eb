package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/AxelTei/Jeux-Olympiques/internal/backend"
	redisrepo "github.com/AxelTei/Jeux-Olympiques/internal/repository/redis"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) SignUp(ctx context.Context, in backend.SignUpInput) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

func (m *mockAPI) SignIn(ctx context.Context, username, password string) (*backend.SignInResult, error) {
	args := m.Called(ctx, username, password)
	if v := args.Get(0); v != nil {
		return v.(*backend.SignInResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newTestService(api API) (*Service, redismock.ClientMock) {
	db, rmock := redismock.NewClientMock()
	sessions := redisrepo.NewSessionStore(db, 30*time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(api, sessions, logger), rmock
}

func TestSignUp(t *testing.T) {
	api := new(mockAPI)
	api.On("SignUp", mock.Anything, backend.SignUpInput{
		Username: "alice@example.com",
		Password: "password123",
		Alias:    "alice",
	}).Return(nil)

	s, _ := newTestService(api)
	require.NoError(t, s.SignUp(context.Background(), "alice@example.com", "password123", "alice"))
	api.AssertExpectations(t)
}

func TestSignInCreatesSession(t *testing.T) {
	api := new(mockAPI)
	api.On("SignIn", mock.Anything, "alice@example.com", "password123").
		Return(&backend.SignInResult{
			Token:    "jwt-token",
			ID:       7,
			Username: "alice@example.com",
			Roles:    []string{"ROLE_USER"},
			UserKey:  "uk-7",
			Alias:    "alice",
		}, nil)

	s, rmock := newTestService(api)
	// the session id is random, so match key and payload loosely
	rmock.Regexp().ExpectSet(`jo:v1:session:.+`, `.*"token":"jwt-token".*`, 30*time.Minute).SetVal("OK")

	sess, err := s.SignIn(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "jwt-token", sess.Token)
	assert.Equal(t, "alice", sess.Alias)
	assert.Equal(t, "uk-7", sess.UserKey)
	assert.False(t, sess.IsAdmin())
	require.NoError(t, rmock.ExpectationsWereMet())
}

func TestSignInInvalidCredentials(t *testing.T) {
	api := new(mockAPI)
	api.On("SignIn", mock.Anything, "alice@example.com", "wrong").
		Return(nil, fmt.Errorf("backend.SignIn: %w", backend.ErrUnauthorized))

	s, _ := newTestService(api)
	_, err := s.SignIn(context.Background(), "alice@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignOutIsBestEffortOnBackend(t *testing.T) {
	api := new(mockAPI)
	api.On("SignOut", mock.Anything).Return(errors.New("backend down"))

	s, rmock := newTestService(api)
	rmock.ExpectDel(redisrepo.KeySession("sess-1")).SetVal(1)

	require.NoError(t, s.SignOut(context.Background(), "sess-1"))
	require.NoError(t, rmock.ExpectationsWereMet())
}

func TestSessionExpired(t *testing.T) {
	api := new(mockAPI)
	s, rmock := newTestService(api)
	rmock.ExpectGet(redisrepo.KeySession("gone")).RedisNil()

	_, err := s.Session(context.Background(), "gone")
	require.ErrorIs(t, err, ErrSessionNotFound)
}
