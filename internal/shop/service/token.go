package service

import (
	"time"

	"github.com/aussiebroadwan/shopfront/internal/shop/domain"
	"github.com/aussiebroadwan/shopfront/pkg/jwtx"
)

// TokenService issues and checks session tokens.
type TokenService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string

	// TTL defaults to jwtx.DefaultSessionTTL when zero.
	TTL time.Duration

	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue signs a session token for u carrying its id, email and role.
func (s *TokenService) Issue(u domain.User) (string, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultSessionTTL
	}
	claims := jwtx.NewSessionClaims(u.ID, u.Email, u.Role.String(), ttl, s.Issuer, s.now())
	return s.Signer.Sign(claims)
}

// Verify returns the claims of a valid token. Every failure wraps
// jwtx.ErrInvalid.
func (s *TokenService) Verify(token string) (jwtx.Claims, error) {
	return s.Verifier.Verify(token)
}
