package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/shopfront/internal/shop/domain"
	"github.com/aussiebroadwan/shopfront/internal/shop/filestore"
	"github.com/aussiebroadwan/shopfront/internal/shop/service"
	"github.com/aussiebroadwan/shopfront/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestRegister_FirstUserIsAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a, err := e.Auth.Register(ctx, service.RegisterInput{FirstName: "A", LastName: "A", Email: "a@x.com", Password: "pw123456"}, testOrigin)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, a.Role)
	require.False(t, a.IsVerified)
	require.Equal(t, domain.DefaultAvatar, a.AvatarKey)
	require.NotEqual(t, "pw123456", a.PasswordHash)

	// A failed registration does not disturb role assignment.
	_, err = e.Auth.Register(ctx, service.RegisterInput{FirstName: "A", LastName: "A", Email: "a@x.com", Password: "pw123456"}, testOrigin)
	require.ErrorIs(t, err, service.ErrDuplicateEmail)

	b, err := e.Auth.Register(ctx, service.RegisterInput{FirstName: "B", LastName: "B", Email: "b@x.com", Password: "pw123456"}, testOrigin)
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, b.Role)

	n, err := e.Store.Users().CountUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestRegister_SendsVerificationLink(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.Auth.Register(ctx, service.RegisterInput{FirstName: "Ann", LastName: "Lee", Email: "ann@x.com", Password: "pw123456"}, testOrigin+"/")
	require.NoError(t, err)

	require.Len(t, e.Mailer.sent, 1)
	sent := e.Mailer.sent[0]
	require.Equal(t, "verify", sent.Kind)
	require.Equal(t, "Ann", sent.To.FirstName)
	require.True(t, strings.HasPrefix(sent.Link, testOrigin+"/verify-email?token="))

	// Only the fingerprint is persisted.
	token := e.Mailer.lastToken(t, "verify", "ann@x.com")
	stored, err := e.Store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.VerificationTokenHash)
	require.NotEqual(t, token, *stored.VerificationTokenHash)
}

func TestRegister_MailFailureIsNotFatal(t *testing.T) {
	e := newEnv(t)
	e.Mailer.err = errors.New("smtp down")

	_, err := e.Auth.Register(context.Background(), service.RegisterInput{FirstName: "A", LastName: "A", Email: "a@x.com", Password: "pw123456"}, testOrigin)
	require.NoError(t, err)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.Auth.Register(ctx, service.RegisterInput{FirstName: "A", LastName: "A", Email: "a@x.com", Password: "pw123456"}, testOrigin)
	require.NoError(t, err)

	_, _, err = e.Auth.Login(ctx, "a@x.com", "pw123456")
	require.ErrorIs(t, err, service.ErrNotVerified)

	token := e.Mailer.lastToken(t, "verify", "a@x.com")
	require.ErrorIs(t, e.Auth.VerifyEmail(ctx, "bogus", "secret1", "secret1"), service.ErrInvalidToken)
	require.ErrorIs(t, e.Auth.VerifyEmail(ctx, token, "secret1", "secret2"), service.ErrPasswordMismatch)
	require.NoError(t, e.Auth.VerifyEmail(ctx, token, "secret1", "secret1"))
	require.ErrorIs(t, e.Auth.VerifyEmail(ctx, token, "secret1", "secret1"), service.ErrInvalidToken, "token is single use")

	// Verification set the password.
	_, _, err = e.Auth.Login(ctx, "a@x.com", "pw123456")
	require.ErrorIs(t, err, service.ErrBadCredentials)

	u, session, err := e.Auth.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	require.True(t, u.IsVerified)
	require.Nil(t, u.VerificationTokenHash)

	claims, err := e.Tokens.Verify(session)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.Subject)
	require.Equal(t, "a@x.com", claims.Email)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, jwtx.DefaultSessionTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

	_, _, err = e.Auth.Login(ctx, "nobody@x.com", "secret1")
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestTokenService_Expiry(t *testing.T) {
	e := newEnv(t)
	u := domain.User{ID: "01HZZZZZZZZZZZZZZZZZZZZZZZ", Email: "a@x.com", Role: domain.RoleUser}

	tok, err := e.Tokens.Issue(u)
	require.NoError(t, err)
	_, err = e.Tokens.Verify(tok)
	require.NoError(t, err)

	e.Clock.Advance(-jwtx.DefaultSessionTTL - time.Minute)
	stale, err := e.Tokens.Issue(u)
	require.NoError(t, err)
	_, err = e.Tokens.Verify(stale)
	require.ErrorIs(t, err, jwtx.ErrInvalid)

	other, err := jwtx.NewSignerHS256([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)
	forged, err := other.Sign(jwtx.NewSessionClaims(u.ID, u.Email, "admin", time.Hour, "shopfront", time.Now()))
	require.NoError(t, err)
	_, err = e.Tokens.Verify(forged)
	require.ErrorIs(t, err, jwtx.ErrInvalid)
}

func TestUpdatePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.registerVerified(t, "a@x.com", "original")

	_, err := e.Auth.UpdatePassword(ctx, "someone-else", id, "original", "next123", "next123")
	require.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = e.Auth.UpdatePassword(ctx, id, id, "wrong-old", "next123", "next123")
	require.ErrorIs(t, err, service.ErrBadCredentials)
	_, _, err = e.Auth.Login(ctx, "a@x.com", "original")
	require.NoError(t, err, "password unchanged after a rejected update")

	_, err = e.Auth.UpdatePassword(ctx, id, id, "original", "next123", "next456")
	require.ErrorIs(t, err, service.ErrPasswordMismatch)

	e.Clock.Advance(time.Minute)
	u, err := e.Auth.UpdatePassword(ctx, id, id, "original", "next123", "next123")
	require.NoError(t, err)
	require.True(t, e.Clock.Now().Equal(u.UpdatedAt))

	_, _, err = e.Auth.Login(ctx, "a@x.com", "next123")
	require.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.registerVerified(t, "a@x.com", "pw123456")
	e.registerVerified(t, "b@x.com", "pw123456")

	in := service.ProfileInput{FirstName: "Ada", LastName: "Byron", Email: "ada@x.com"}

	_, err := e.Auth.UpdateProfile(ctx, "other", a, in)
	require.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = e.Auth.UpdateProfile(ctx, a, a, service.ProfileInput{FirstName: "Ada", LastName: "Byron", Email: "b@x.com"})
	require.ErrorIs(t, err, service.ErrDuplicateEmail)

	// Keeping the same email is allowed.
	_, err = e.Auth.UpdateProfile(ctx, a, a, service.ProfileInput{FirstName: "Ada", LastName: "Byron", Email: "a@x.com"})
	require.NoError(t, err)

	u, err := e.Auth.UpdateProfile(ctx, a, a, in)
	require.NoError(t, err)
	require.Equal(t, "Ada", u.FirstName)
	require.Equal(t, "ada@x.com", u.Email)
}

func TestForgotAndResetPassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.registerVerified(t, "a@x.com", "original")

	require.ErrorIs(t, e.Auth.ForgotPassword(ctx, "nobody@x.com", testOrigin), service.ErrNotFound)
	require.NoError(t, e.Auth.ForgotPassword(ctx, "a@x.com", testOrigin))

	token := e.Mailer.lastToken(t, "reset", "a@x.com")
	require.NotEmpty(t, token)

	require.ErrorIs(t, e.Auth.ResetPassword(ctx, token, "newpass1", "newpass2"), service.ErrPasswordMismatch)
	require.ErrorIs(t, e.Auth.ResetPassword(ctx, "not-a-token", "newpass1", "newpass1"), service.ErrInvalidOrExpiredToken)

	require.NoError(t, e.Auth.ResetPassword(ctx, token, "newpass1", "newpass1"))
	require.ErrorIs(t, e.Auth.ResetPassword(ctx, token, "again12", "again12"), service.ErrInvalidOrExpiredToken)

	_, _, err := e.Auth.Login(ctx, "a@x.com", "newpass1")
	require.NoError(t, err)
}

func TestResetPassword_Expired(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.registerVerified(t, "a@x.com", "original")

	require.NoError(t, e.Auth.ForgotPassword(ctx, "a@x.com", testOrigin))
	token := e.Mailer.lastToken(t, "reset", "a@x.com")

	e.Clock.Advance(service.ResetTokenTTL)
	require.ErrorIs(t, e.Auth.ResetPassword(ctx, token, "newpass1", "newpass1"), service.ErrInvalidOrExpiredToken)

	_, _, err := e.Auth.Login(ctx, "a@x.com", "original")
	require.NoError(t, err)
}

func TestForgotPassword_ReplacesPreviousToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.registerVerified(t, "a@x.com", "original")

	require.NoError(t, e.Auth.ForgotPassword(ctx, "a@x.com", testOrigin))
	first := e.Mailer.lastToken(t, "reset", "a@x.com")
	require.NoError(t, e.Auth.ForgotPassword(ctx, "a@x.com", testOrigin))
	second := e.Mailer.lastToken(t, "reset", "a@x.com")
	require.NotEqual(t, first, second)

	require.ErrorIs(t, e.Auth.ResetPassword(ctx, first, "newpass1", "newpass1"), service.ErrInvalidOrExpiredToken)
	require.NoError(t, e.Auth.ResetPassword(ctx, second, "newpass1", "newpass1"))
}

func TestUpdateAvatar(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.registerVerified(t, "a@x.com", "pw123456")

	_, err := e.Auth.UpdateAvatar(ctx, id, id, nil)
	require.ErrorIs(t, err, service.ErrNoFile)

	up := &service.Upload{Filename: "me.png", ContentType: "image/png", Data: []byte("first")}
	_, err = e.Auth.UpdateAvatar(ctx, "other", id, up)
	require.ErrorIs(t, err, service.ErrUnauthorized)

	require.NoError(t, e.Files.Put(ctx, domain.DefaultAvatar, []byte("default"), "image/png"))

	u, err := e.Auth.UpdateAvatar(ctx, id, id, up)
	require.NoError(t, err)
	require.Equal(t, id+"me.png", u.AvatarKey)

	ok, err := e.Files.Exists(ctx, domain.DefaultAvatar)
	require.NoError(t, err)
	require.True(t, ok, "default avatar is never removed")

	u, err = e.Auth.UpdateAvatar(ctx, id, id, &service.Upload{Filename: `C:\pics\new.jpg`, Data: []byte("second")})
	require.NoError(t, err)
	require.Equal(t, id+"new.jpg", u.AvatarKey)

	ok, err = e.Files.Exists(ctx, id+"me.png")
	require.NoError(t, err)
	require.False(t, ok, "previous avatar removed")
}

func TestForgotPassword_MailFailureIsNotFatal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.registerVerified(t, "a@x.com", "original")

	e.Mailer.err = errors.New("smtp down")
	require.NoError(t, e.Auth.ForgotPassword(ctx, "a@x.com", testOrigin))

	// The grant stays until it expires; the old password still works.
	stored, err := e.Store.Users().GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, stored.Reset)
	_, _, err = e.Auth.Login(ctx, "a@x.com", "original")
	require.NoError(t, err)
}

// failingFiles fails Put once armed and passes everything else through.
type failingFiles struct {
	*filestore.Local
	failPut bool
}

func (f *failingFiles) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if f.failPut {
		return errors.New("bucket unavailable")
	}
	return f.Local.Put(ctx, key, body, contentType)
}

func TestUpdateAvatar_FailedUploadKeepsPrevious(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.registerVerified(t, "a@x.com", "pw123456")

	files := &failingFiles{Local: e.Files}
	e.Auth.Files = files

	u, err := e.Auth.UpdateAvatar(ctx, id, id, &service.Upload{Filename: "me.png", Data: []byte("first")})
	require.NoError(t, err)
	require.Equal(t, id+"me.png", u.AvatarKey)

	files.failPut = true
	_, err = e.Auth.UpdateAvatar(ctx, id, id, &service.Upload{Filename: "new.png", Data: []byte("second")})
	require.Error(t, err)

	stored, err := e.Store.Users().GetUserByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id+"me.png", stored.AvatarKey)

	ok, err := e.Files.Exists(ctx, stored.AvatarKey)
	require.NoError(t, err)
	require.True(t, ok, "avatar named by the row must still exist")
}

func TestUpdateAvatar_SameNameOverwrites(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.registerVerified(t, "a@x.com", "pw123456")

	up := &service.Upload{Filename: "me.png", Data: []byte("first")}
	_, err := e.Auth.UpdateAvatar(ctx, id, id, up)
	require.NoError(t, err)

	up.Data = []byte("second")
	u, err := e.Auth.UpdateAvatar(ctx, id, id, up)
	require.NoError(t, err)
	require.Equal(t, id+"me.png", u.AvatarKey)

	ok, err := e.Files.Exists(ctx, u.AvatarKey)
	require.NoError(t, err)
	require.True(t, ok)
}
