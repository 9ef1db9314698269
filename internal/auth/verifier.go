package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/weiawesome/jobboard-chat/internal/domain"
	"github.com/weiawesome/jobboard-chat/internal/repository"
	"github.com/weiawesome/jobboard-chat/pkg/jwt"
)

// CookieName is the cookie the job board stores its session token in.
const CookieName = "auth-token"

// Identity is the verified caller.
type Identity struct {
	UserID   string
	Email    string
	Role     string
	IsActive bool
}

// TokenVerifier resolves a bearer credential to an identity. Invalid
// credentials yield an error wrapping domain.ErrAuthenticationFailed; any
// other error means verification itself could not run.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// UserStore is consulted for the current is_active flag when configured.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

type JWTVerifier struct {
	manager *jwt.Manager
	users   UserStore
}

// NewJWTVerifier creates a verifier. users may be nil, in which case the
// isActive claim is trusted as issued.
func NewJWTVerifier(manager *jwt.Manager, users UserStore) *JWTVerifier {
	return &JWTVerifier{manager: manager, users: users}
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", domain.ErrAuthenticationFailed)
	}

	claims, err := v.manager.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthenticationFailed, err)
	}

	id := &Identity{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Role:     claims.Role,
		IsActive: claims.IsActive,
	}

	if v.users != nil {
		user, err := v.users.GetUser(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, fmt.Errorf("%w: unknown user", domain.ErrAuthenticationFailed)
			}
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		id.IsActive = id.IsActive && user.IsActive
	}

	return id, nil
}

// TokenFromRequest extracts the credential from the token query parameter,
// an Authorization bearer header or the auth-token cookie, in that order.
func TokenFromRequest(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if after, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
