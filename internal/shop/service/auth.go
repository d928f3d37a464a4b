package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aussiebroadwan/shopfront/internal/shop/domain"
	"github.com/aussiebroadwan/shopfront/internal/shop/filestore"
	"github.com/aussiebroadwan/shopfront/internal/shop/mail"
	"github.com/aussiebroadwan/shopfront/internal/shop/observability"
	"github.com/aussiebroadwan/shopfront/internal/shop/store"
	"github.com/aussiebroadwan/shopfront/pkg/cryptox"
	"github.com/aussiebroadwan/shopfront/pkg/idx"
	"github.com/aussiebroadwan/shopfront/pkg/slogx"
)

// ResetTokenTTL is how long a password reset link stays usable.
const ResetTokenTTL = 24 * time.Hour

// PasswordHasher hashes and checks passwords. *cryptox.Hasher implements it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// AuthService implements the self-service account flows.
type AuthService struct {
	Store  store.Store
	Hasher PasswordHasher
	Tokens *TokenService
	Mailer mail.Mailer
	Files  filestore.FileStore

	// Metrics is optional.
	Metrics *observability.Metrics

	Now func() time.Time
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type ProfileInput struct {
	FirstName string
	LastName  string
	Email     string
}

// Upload is an uploaded file held in memory.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Register creates an unverified account and mails its verification link.
// The first account ever created becomes an admin.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, origin string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, verifyToken, err := newUnverifiedUser(in.FirstName, in.LastName, in.Email, hash, s.now())
	if err != nil {
		return domain.User{}, err
	}

	role, err := s.Store.Users().CreateUserAutoRole(ctx, u)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrDuplicateEmail
		}
		return domain.User{}, err
	}
	u.Role = role
	s.Metrics.AuthEvent(observability.EventRegister)

	l.Info("user registered", slog.String("user_id", u.ID), slog.String("role", role.String()))
	sendVerification(ctx, s.Mailer, u, verifyToken, origin)
	return u, nil
}

// Login checks credentials and returns the user with a fresh session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, "", ErrNotFound
		}
		return domain.User{}, "", err
	}
	if !u.IsVerified {
		return domain.User{}, "", ErrNotVerified
	}
	if !s.Hasher.Verify(password, u.PasswordHash) {
		slogx.FromContext(ctx).Info("login rejected", slog.String("user_id", u.ID))
		s.Metrics.AuthEvent(observability.EventLoginFailure)
		return domain.User{}, "", ErrBadCredentials
	}

	token, err := s.Tokens.Issue(u)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	s.Metrics.AuthEvent(observability.EventLoginSuccess)
	return u, token, nil
}

// UpdateProfile overwrites the caller's names and email.
func (s *AuthService) UpdateProfile(ctx context.Context, callerID, targetID string, in ProfileInput) (domain.User, error) {
	if callerID != targetID {
		return domain.User{}, ErrUnauthorized
	}

	err := s.Store.Users().UpdateProfile(ctx, targetID,
		strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName), strings.TrimSpace(in.Email), s.now())
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		return domain.User{}, ErrDuplicateEmail
	case errors.Is(err, store.ErrNotFound):
		return domain.User{}, ErrNotFound
	case err != nil:
		return domain.User{}, err
	}
	return s.getUser(ctx, targetID)
}

// UpdatePassword replaces the caller's password after checking the old one.
func (s *AuthService) UpdatePassword(ctx context.Context, callerID, targetID, oldPassword, newPassword, repeatPassword string) (domain.User, error) {
	if callerID != targetID {
		return domain.User{}, ErrUnauthorized
	}

	u, err := s.getUser(ctx, targetID)
	if err != nil {
		return domain.User{}, err
	}
	if !s.Hasher.Verify(oldPassword, u.PasswordHash) {
		return domain.User{}, ErrBadCredentials
	}
	if newPassword != repeatPassword {
		return domain.User{}, ErrPasswordMismatch
	}

	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, targetID, hash, s.now()); err != nil {
		return domain.User{}, err
	}
	return s.getUser(ctx, targetID)
}

// UpdateAvatar stores a new avatar for the caller. The previous object is
// removed only after the row names the new one, and never when it is the
// shared default.
func (s *AuthService) UpdateAvatar(ctx context.Context, callerID, targetID string, up *Upload) (domain.User, error) {
	if up == nil || len(up.Data) == 0 {
		return domain.User{}, ErrNoFile
	}
	if callerID != targetID {
		return domain.User{}, ErrUnauthorized
	}

	u, err := s.getUser(ctx, targetID)
	if err != nil {
		return domain.User{}, err
	}
	l := slogx.FromContext(ctx)

	oldKey := u.AvatarKey
	key := u.ID + avatarName(up.Filename)
	if err := s.Files.Put(ctx, key, up.Data, up.ContentType); err != nil {
		return domain.User{}, fmt.Errorf("store avatar: %w", err)
	}
	if err := s.Store.Users().UpdateAvatar(ctx, u.ID, key, s.now()); err != nil {
		if key != oldKey {
			if derr := s.Files.Delete(ctx, key); derr != nil {
				l.Error("failed to remove orphaned avatar", slog.String("key", key), slog.Any("error", derr))
			}
		}
		return domain.User{}, err
	}

	if oldKey != "" && oldKey != key && oldKey != domain.DefaultAvatar {
		if err := s.Files.Delete(ctx, oldKey); err != nil {
			l.Warn("failed to remove previous avatar", slog.String("key", oldKey), slog.Any("error", err))
		}
	}
	return s.getUser(ctx, u.ID)
}

// ForgotPassword records a 24 hour reset grant for email and mails the link.
func (s *AuthService) ForgotPassword(ctx context.Context, email, origin string) error {
	u, err := s.Store.Users().GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	token, tokenHash, err := cryptox.NewLinkToken()
	if err != nil {
		return err
	}
	now := s.now()
	rt := domain.ResetToken{
		TokenHash: tokenHash,
		ExpiresAt: now.Add(ResetTokenTTL),
	}
	if err := s.Store.Users().SetResetToken(ctx, u.ID, rt, now); err != nil {
		return err
	}

	s.Metrics.AuthEvent(observability.EventResetRequested)

	// The caller always gets the generic answer. An undelivered grant is
	// cleared by housekeeping once it expires.
	link := buildLink(origin, "/reset-password", token)
	if err := s.Mailer.SendPasswordResetEmail(ctx, recipient(u), link); err != nil {
		slogx.FromContext(ctx).Error("failed to send password reset email",
			slog.String("user_id", u.ID), slog.Any("error", err))
	}
	return nil
}

// ResetPassword consumes a reset token and sets a new password. A token
// works once and only before its expiry.
func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirmPassword string) error {
	if password != confirmPassword {
		return ErrPasswordMismatch
	}

	tokenHash := cryptox.FingerprintToken(token)
	u, err := s.Store.Users().GetUserByResetTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return err
	}

	now := s.now()
	if u.Reset.Expired(now) {
		return ErrInvalidOrExpiredToken
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// The store re-checks token and expiry so a concurrent reset cannot win twice.
	if err := s.Store.Users().ConsumeResetToken(ctx, u.ID, tokenHash, hash, now); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrInvalidOrExpiredToken
		}
		return err
	}

	slogx.FromContext(ctx).Info("password reset", slog.String("user_id", u.ID))
	s.Metrics.AuthEvent(observability.EventPasswordReset)
	return nil
}

// VerifyEmail consumes a verification token, marks the account verified
// and sets its password.
func (s *AuthService) VerifyEmail(ctx context.Context, token, password, confirmPassword string) error {
	tokenHash := cryptox.FingerprintToken(token)
	u, err := s.Store.Users().GetUserByVerificationTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if password != confirmPassword {
		return ErrPasswordMismatch
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Store.Users().ConsumeVerificationToken(ctx, u.ID, tokenHash, hash, s.now()); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrInvalidToken
		}
		return err
	}

	slogx.FromContext(ctx).Info("email verified", slog.String("user_id", u.ID))
	s.Metrics.AuthEvent(observability.EventEmailVerified)
	return nil
}

func (s *AuthService) getUser(ctx context.Context, id string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

// newUnverifiedUser builds a user holding a fresh verification token. The
// raw token is returned for the email; only its fingerprint is stored.
func newUnverifiedUser(firstName, lastName, email, passwordHash string, now time.Time) (domain.User, string, error) {
	token, tokenHash, err := cryptox.NewLinkToken()
	if err != nil {
		return domain.User{}, "", err
	}

	return domain.User{
		ID:                    idx.NewAt(now).String(),
		FirstName:             strings.TrimSpace(firstName),
		LastName:              strings.TrimSpace(lastName),
		Email:                 strings.TrimSpace(email),
		PasswordHash:          passwordHash,
		Role:                  domain.RoleUser,
		AvatarKey:             domain.DefaultAvatar,
		VerificationTokenHash: &tokenHash,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, token, nil
}

// sendVerification mails the verification link. A delivery failure is
// logged and does not undo the account.
func sendVerification(ctx context.Context, m mail.Mailer, u domain.User, token, origin string) {
	link := buildLink(origin, "/verify-email", token)
	if err := m.SendVerificationEmail(ctx, recipient(u), link); err != nil {
		slogx.FromContext(ctx).Error("failed to send verification email",
			slog.String("user_id", u.ID), slog.Any("error", err))
	}
}

func recipient(u domain.User) mail.Recipient {
	return mail.Recipient{FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

func buildLink(origin, p, token string) string {
	return strings.TrimRight(origin, "/") + p + "?token=" + url.QueryEscape(token)
}

// avatarName reduces an uploaded filename to a flat object name.
func avatarName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return "avatar"
	}
	return name
}
