package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManager_GenerateAndValidate(t *testing.T) {
	req := require.New(t)
	m, err := NewManager("secret", "jobboard", time.Hour, 0)
	req.NoError(err)

	token, exp, err := m.Generate("user-1", "a@example.com", "candidate", true)
	req.NoError(err)
	req.True(exp.After(time.Now()))

	claims, err := m.Validate(token)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)
	req.Equal("a@example.com", claims.Email)
	req.Equal("candidate", claims.Role)
	req.True(claims.IsActive)
}

func TestManager_RejectsWrongSecretAndIssuer(t *testing.T) {
	req := require.New(t)
	issuer, err := NewManager("secret", "jobboard", time.Hour, 0)
	req.NoError(err)
	token, _, err := issuer.Generate("user-1", "", "", true)
	req.NoError(err)

	other, err := NewManager("another-secret", "jobboard", time.Hour, 0)
	req.NoError(err)
	_, err = other.Validate(token)
	req.ErrorIs(err, ErrInvalidToken)

	wrongIss, err := NewManager("secret", "elsewhere", time.Hour, 0)
	req.NoError(err)
	_, err = wrongIss.Validate(token)
	req.ErrorIs(err, ErrInvalidToken)

	_, err = issuer.Validate("not-a-token")
	req.ErrorIs(err, ErrInvalidToken)
}

func TestManager_Expired(t *testing.T) {
	req := require.New(t)
	m, err := NewManager("secret", "", -time.Minute, 0)
	req.NoError(err)

	token, _, err := m.Generate("user-1", "", "", true)
	req.NoError(err)

	_, err = m.Validate(token)
	req.ErrorIs(err, ErrExpiredToken)
}

func TestNewManager_EmptySecret(t *testing.T) {
	_, err := NewManager("", "", time.Hour, 0)
	require.ErrorIs(t, err, ErrMissingKey)
}
