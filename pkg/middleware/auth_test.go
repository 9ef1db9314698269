package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "authenticated", wantStatus: http.StatusOK},
		{name: "no credential", err: fmt.Errorf("%w: missing token", ErrUnauthenticated), wantStatus: http.StatusUnauthorized},
		{name: "deactivated", err: ErrForbidden, wantStatus: http.StatusForbidden},
		{name: "verifier down", err: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)

			var seen *Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = PrincipalFrom(r.Context())
				w.WriteHeader(http.StatusOK)
			})
			authenticate := func(*http.Request) (*Principal, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return &Principal{UserID: "user-a"}, nil
			}

			rec := httptest.NewRecorder()
			RequireAuth(authenticate)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			req.Equal(tt.wantStatus, rec.Code)
			if tt.err == nil {
				req.NotNil(seen)
				req.Equal("user-a", seen.UserID)
			} else {
				req.Nil(seen)
			}
		})
	}
}
