package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/minjae-dev/gomarket/internal/auth"
	"github.com/minjae-dev/gomarket/internal/market"
)

type memUsers struct {
	byEmail map[string]*market.User
}

func (m *memUsers) Insert(_ context.Context, u *market.User) error {
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*market.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, market.ErrNotFound
	}
	return u, nil
}

type countingSeq struct{ n int64 }

func (s *countingSeq) Next(_ context.Context, _ string) (int64, error) {
	s.n++
	return s.n, nil
}

func newAuth() (*auth.Service, *memUsers) {
	users := &memUsers{byEmail: map[string]*market.User{}}
	return &auth.Service{
		Users:    users,
		Seq:      &countingSeq{},
		Secret:   []byte("test-secret"),
		TokenTTL: time.Hour,
		Log:      zap.NewNop(),
	}, users
}

func TestSignupAndResolve(t *testing.T) {
	svc, users := newAuth()

	token, err := svc.Signup(context.Background(), "a@b.co", "amy", "Abcdefg1!x", true)
	require.NoError(t, err)

	session, err := svc.Resolve(token)
	require.NoError(t, err)
	assert.EqualValues(t, 1, session.UserID)
	assert.True(t, session.IsSeller)

	u := users.byEmail["a@b.co"]
	require.NotNil(t, u)
	assert.NotEqual(t, "Abcdefg1!x", u.PasswordHash)
}

func TestSignupWeakPassword(t *testing.T) {
	svc, _ := newAuth()

	_, err := svc.Signup(context.Background(), "a@b.co", "amy", "short", false)

	assert.ErrorIs(t, err, auth.ErrWeakPassword)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _ := newAuth()
	_, err := svc.Signup(context.Background(), "a@b.co", "amy", "Abcdefg1!x", false)
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), "a@b.co", "amy2", "Abcdefg1!x", false)

	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc, _ := newAuth()
	_, err := svc.Signup(context.Background(), "a@b.co", "amy", "Abcdefg1!x", false)
	require.NoError(t, err)

	t.Run("good password", func(t *testing.T) {
		token, err := svc.Login(context.Background(), "a@b.co", "Abcdefg1!x")
		require.NoError(t, err)

		session, err := svc.Resolve(token)
		require.NoError(t, err)
		assert.False(t, session.IsSeller)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "a@b.co", "wrong-pass-1")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "nobody@b.co", "Abcdefg1!x")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestResolveRejectsGarbage(t *testing.T) {
	svc, _ := newAuth()

	_, err := svc.Resolve("not-a-token")

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
