package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weiawesome/jobboard-chat/internal/domain"
	"github.com/weiawesome/jobboard-chat/internal/repository"
	"github.com/weiawesome/jobboard-chat/pkg/jwt"
)

type fakeUsers map[string]*domain.User

func (f fakeUsers) GetUser(_ context.Context, id string) (*domain.User, error) {
	if id == "broken" {
		return nil, errors.New("db down")
	}
	u, ok := f[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func newManager(t *testing.T) *jwt.Manager {
	m, err := jwt.NewManager("secret", "", time.Hour, 0)
	require.NoError(t, err)
	return m
}

func TestJWTVerifier_Verify(t *testing.T) {
	req := require.New(t)
	m := newManager(t)
	v := NewJWTVerifier(m, nil)

	token, _, err := m.Generate("user-a", "a@example.com", "employer", true)
	req.NoError(err)

	id, err := v.Verify(context.Background(), token)
	req.NoError(err)
	req.Equal("user-a", id.UserID)
	req.Equal("employer", id.Role)
	req.True(id.IsActive)

	_, err = v.Verify(context.Background(), "")
	req.ErrorIs(err, domain.ErrAuthenticationFailed)

	_, err = v.Verify(context.Background(), "garbage")
	req.ErrorIs(err, domain.ErrAuthenticationFailed)
}

func TestJWTVerifier_ChecksStoredActiveFlag(t *testing.T) {
	req := require.New(t)
	m := newManager(t)
	users := fakeUsers{
		"active":   {ID: "active", IsActive: true},
		"disabled": {ID: "disabled", IsActive: false},
	}
	v := NewJWTVerifier(m, users)
	ctx := context.Background()

	tok, _, _ := m.Generate("active", "", "", true)
	id, err := v.Verify(ctx, tok)
	req.NoError(err)
	req.True(id.IsActive)

	tok, _, _ = m.Generate("disabled", "", "", true)
	id, err = v.Verify(ctx, tok)
	req.NoError(err)
	req.False(id.IsActive)

	tok, _, _ = m.Generate("ghost", "", "", true)
	_, err = v.Verify(ctx, tok)
	req.ErrorIs(err, domain.ErrAuthenticationFailed)

	tok, _, _ = m.Generate("broken", "", "", true)
	_, err = v.Verify(ctx, tok)
	req.Error(err)
	req.NotErrorIs(err, domain.ErrAuthenticationFailed)
}

func TestTokenFromRequest(t *testing.T) {
	req := require.New(t)

	r := httptest.NewRequest(http.MethodGet, "/api/ws/chat?token=q", nil)
	r.Header.Set("Authorization", "Bearer h")
	req.Equal("q", TokenFromRequest(r))

	r = httptest.NewRequest(http.MethodGet, "/api/ws/chat", nil)
	r.Header.Set("Authorization", "Bearer h")
	req.Equal("h", TokenFromRequest(r))

	r = httptest.NewRequest(http.MethodGet, "/api/ws/chat", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "c"})
	req.Equal("c", TokenFromRequest(r))

	r = httptest.NewRequest(http.MethodGet, "/api/ws/chat", nil)
	req.Empty(TokenFromRequest(r))
}
