package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/shopfront/pkg/jwtx"
	"github.com/aussiebroadwan/shopfront/pkg/slogx"
)

// Error codes written by the auth middlewares.
const (
	ErrorCodeNoToken      = "no_token_provided"
	ErrorCodeInvalidToken = "invalid_token"
	ErrorCodeUnauthorized = "unauthorized"
)

// Authenticate verifies the session token carried in the Authorization header
// and attaches its claims to the request context.
//
// The header holds the raw token. A "Bearer " prefix is accepted and stripped.
// A missing header is rejected with 403 and an unverifiable token with 400.
func Authenticate(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := tokenFromHeader(r.Header.Get("Authorization"))
			if raw == "" {
				WriteError(w, http.StatusForbidden, ErrorCodeNoToken, "no token provided")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("jwt verify failed", "err", err)
				WriteError(w, http.StatusBadRequest, ErrorCodeInvalidToken, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithAuth(ctx, claims)))
		})
	}
}

func tokenFromHeader(h string) string {
	fields := strings.Fields(h)
	if len(fields) > 0 && strings.EqualFold(fields[0], "Bearer") {
		fields = fields[1:]
	}
	if len(fields) != 1 {
		return strings.Join(fields, " ")
	}
	return fields[0]
}
