package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "rstays/internal/domain/auth"
	domainuser "rstays/internal/domain/user"
	"rstays/internal/infra/security"
	"rstays/internal/infra/storage/memory"
)

func newService() *Service {
	return &Service{
		Users:     memory.NewUserRepository(),
		Sessions:  memory.NewSessionStore(),
		Passwords: security.BcryptHasher{},
		Tokens:    security.RandomTokenGenerator{},
	}
}

func TestRegisterAndResolve(t *testing.T) {
	s := newService()
	ctx := context.Background()

	result, err := s.Register(ctx, RegisterParams{
		Email: " Ana@Example.COM ", Name: "Ana", Password: "correcthorse", WantToHost: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "ana@example.com", result.User.Email)
	assert.ElementsMatch(t, []domainuser.Role{domainuser.RoleGuest, domainuser.RoleHost}, result.User.Roles)

	resolved, err := s.ResolveToken(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, resolved.User.ID)
}

func TestRegisterValidation(t *testing.T) {
	s := newService()
	ctx := context.Background()

	_, err := s.Register(ctx, RegisterParams{Name: "Ana", Password: "correcthorse"})
	assert.ErrorIs(t, err, domainuser.ErrEmailRequired)

	_, err = s.Register(ctx, RegisterParams{Email: "a@b.c", Name: "Ana", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = s.Register(ctx, RegisterParams{Email: "a@b.c", Name: "Ana", Password: "correcthorse"})
	require.NoError(t, err)
	_, err = s.Register(ctx, RegisterParams{Email: "A@B.C", Name: "Ana2", Password: "correcthorse"})
	assert.ErrorIs(t, err, domainuser.ErrEmailAlreadyUsed)
}

func TestLogin(t *testing.T) {
	s := newService()
	ctx := context.Background()

	_, err := s.Register(ctx, RegisterParams{Email: "ana@example.com", Name: "Ana", Password: "correcthorse"})
	require.NoError(t, err)

	result, err := s.Login(ctx, LoginParams{Email: "ana@example.com", Password: "correcthorse"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	_, err = s.Login(ctx, LoginParams{Email: "ana@example.com", Password: "wrongwrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, LoginParams{Email: "nobody@example.com", Password: "correcthorse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	s := newService()
	ctx := context.Background()

	result, err := s.Register(ctx, RegisterParams{Email: "ana@example.com", Name: "Ana", Password: "correcthorse"})
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, result.Token))
	_, err = s.ResolveToken(ctx, result.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}
