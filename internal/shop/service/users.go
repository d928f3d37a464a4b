package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/shopfront/internal/shop/domain"
	"github.com/aussiebroadwan/shopfront/internal/shop/filestore"
	"github.com/aussiebroadwan/shopfront/internal/shop/mail"
	"github.com/aussiebroadwan/shopfront/internal/shop/store"
	"github.com/aussiebroadwan/shopfront/pkg/cryptox"
	"github.com/aussiebroadwan/shopfront/pkg/slogx"
)

// UserService is the admin view of user accounts.
type UserService struct {
	Store  store.Store
	Hasher PasswordHasher
	Mailer mail.Mailer
	Files  filestore.FileStore

	Now func() time.Time
}

type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Role      domain.Role
}

// CreateUser adds an unverified account with a throwaway password. The
// invitee picks a real password through the emailed verification link.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput, origin string) (domain.User, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if _, ok := domain.ParseRole(role.String()); !ok {
		return domain.User{}, fmt.Errorf("unknown role %q", role)
	}

	throwaway, err := cryptox.GeneratePassword()
	if err != nil {
		return domain.User{}, err
	}
	hash, err := s.Hasher.Hash(throwaway)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	u, token, err := newUnverifiedUser(in.FirstName, in.LastName, in.Email, hash, now)
	if err != nil {
		return domain.User{}, err
	}
	u.Role = role

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrDuplicateEmail
		}
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user created by admin", slog.String("user_id", u.ID), slog.String("role", role.String()))
	sendVerification(ctx, s.Mailer, u, token, origin)
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.Store.Users().ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

// DeleteUser removes the account with its products, cart items and avatar.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	u, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.Store.Users().DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if u.AvatarKey != "" && u.AvatarKey != domain.DefaultAvatar {
		if err := s.Files.Delete(ctx, u.AvatarKey); err != nil {
			slogx.FromContext(ctx).Warn("failed to delete avatar", slog.String("key", u.AvatarKey), slog.Any("error", err))
		}
	}
	return nil
}
