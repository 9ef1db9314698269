package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/weiawesome/jobboard-chat/pkg/log"
	"github.com/weiawesome/jobboard-chat/pkg/response"
)

var (
	// ErrUnauthenticated means the request carried no usable credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means the credential was valid but the account may not
	// use the API.
	ErrForbidden = errors.New("forbidden")
)

// Principal is the authenticated caller stored in the request context.
type Principal struct {
	UserID string
	Email  string
	Role   string
}

// AuthFunc authenticates a request. Errors should wrap ErrUnauthenticated
// or ErrForbidden; anything else is reported as an internal error.
type AuthFunc func(r *http.Request) (*Principal, error)

type principalKey struct{}

// RequireAuth rejects requests that fail authenticate and stores the
// principal for the handlers behind it.
func RequireAuth(authenticate AuthFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := authenticate(r)
			switch {
			case errors.Is(err, ErrUnauthenticated):
				response.Unauthorized(w, "authentication required")
				return
			case errors.Is(err, ErrForbidden):
				response.Forbidden(w, "account deactivated")
				return
			case err != nil:
				l := log.Ctx(r.Context())
				l.Error().Err(err).Msg("request authentication failed")
				response.InternalError(w, "failed to authenticate request")
				return
			}

			ctx := log.With(r.Context(), log.FieldUserID, p.UserID)
			ctx = context.WithValue(ctx, principalKey{}, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFrom returns the caller stored by RequireAuth.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}
