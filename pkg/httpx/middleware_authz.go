package httpx

import (
	"net/http"

	"github.com/aussiebroadwan/shopfront/pkg/jwtx"
)

// RoleCheck reports whether a token's role claim may use a route.
type RoleCheck func(role string) bool

// RequireRole lets the request through only when allow accepts the
// authenticated role. A nil check admits any authenticated caller. Must run
// after Authenticate.
func RequireRole(allow RoleCheck) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allow != nil && !allow(roleFromCtx(r.Context())) {
				WriteError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// VerifyAuth composes Authenticate and RequireRole.
func VerifyAuth(v jwtx.Verifier, allow RoleCheck) Middleware {
	authn := Authenticate(v)
	authz := RequireRole(allow)
	return func(next http.Handler) http.Handler {
		return authn(authz(next))
	}
}
