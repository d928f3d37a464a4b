package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aussiebroadwan/shopfront/internal/shop/domain"
	"github.com/aussiebroadwan/shopfront/internal/shop/store"
	"github.com/aussiebroadwan/shopfront/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(DSN(filepath.Join(t.TempDir(), "shop.db")))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newUser(email string) domain.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return domain.User{
		ID:           idx.New().String(),
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "$argon2id$fake",
		Role:         domain.RoleUser,
		AvatarKey:    domain.DefaultAvatar,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func ptr[T any](v T) *T { return &v }

func TestMemoryStoreMigrates(t *testing.T) {
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.ApplyMigrations(), "second run is a no-op")
	require.NoError(t, s.Ping(context.Background()))

	n, err := s.Users().CountUsers(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestUsers_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := newUser("alice@example.com")
	u.VerificationTokenHash = ptr("vhash")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u, got)

	got, err = s.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	got, err = s.Users().GetUserByVerificationTokenHash(ctx, "vhash")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = s.Users().GetUserByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	dup := newUser("alice@example.com")
	require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
}

func TestUsers_CreateUserAutoRole(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	role, err := s.Users().CreateUserAutoRole(ctx, newUser("first@example.com"))
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, role)

	role, err = s.Users().CreateUserAutoRole(ctx, newUser("second@example.com"))
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, role)

	_, err = s.Users().CreateUserAutoRole(ctx, newUser("second@example.com"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUsers_CreateUserAutoRole_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const n = 8
	roles := make(chan domain.Role, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			role, err := s.Users().CreateUserAutoRole(ctx, newUser(fmt.Sprintf("u%d@example.com", i)))
			if err == nil {
				roles <- role
			}
		}()
	}
	wg.Wait()
	close(roles)

	admins, total := 0, 0
	for r := range roles {
		total++
		if r == domain.RoleAdmin {
			admins++
		}
	}
	require.Equal(t, n, total)
	require.Equal(t, 1, admins)
}

func TestUsers_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := newUser("a@example.com")
	b := newUser("b@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, a))
	require.NoError(t, s.Users().CreateUser(ctx, b))

	later := a.UpdatedAt.Add(time.Minute)
	require.NoError(t, s.Users().UpdateProfile(ctx, a.ID, "Ann", "Smith", "ann@example.com", later))

	got, err := s.Users().GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "Ann", got.FirstName)
	require.Equal(t, "ann@example.com", got.Email)
	require.Equal(t, later, got.UpdatedAt)

	err = s.Users().UpdateProfile(ctx, a.ID, "Ann", "Smith", "b@example.com", later)
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	err = s.Users().UpdateProfile(ctx, idx.New().String(), "X", "Y", "x@example.com", later)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsers_ResetTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)

	u := newUser("r@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	rt := domain.ResetToken{TokenHash: "rhash", ExpiresAt: now.Add(24 * time.Hour)}
	require.NoError(t, s.Users().SetResetToken(ctx, u.ID, rt, now))

	got, err := s.Users().GetUserByResetTokenHash(ctx, "rhash")
	require.NoError(t, err)
	require.Equal(t, &rt, got.Reset)

	// Wrong token and expired deadline both fail the swap.
	require.ErrorIs(t, s.Users().ConsumeResetToken(ctx, u.ID, "other", "new", now), store.ErrConflict)
	require.ErrorIs(t, s.Users().ConsumeResetToken(ctx, u.ID, "rhash", "new", rt.ExpiresAt), store.ErrConflict)

	require.NoError(t, s.Users().ConsumeResetToken(ctx, u.ID, "rhash", "new-hash", now))
	require.ErrorIs(t, s.Users().ConsumeResetToken(ctx, u.ID, "rhash", "again", now), store.ErrConflict)

	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)
	require.Nil(t, got.Reset)

	_, err = s.Users().GetUserByResetTokenHash(ctx, "rhash")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsers_ConsumeVerificationToken(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	u := newUser("v@example.com")
	u.VerificationTokenHash = ptr("vhash")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	require.ErrorIs(t, s.Users().ConsumeVerificationToken(ctx, u.ID, "nope", "h", now), store.ErrConflict)
	require.NoError(t, s.Users().ConsumeVerificationToken(ctx, u.ID, "vhash", "h", now))
	require.ErrorIs(t, s.Users().ConsumeVerificationToken(ctx, u.ID, "vhash", "h2", now), store.ErrConflict)

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.IsVerified)
	require.Nil(t, got.VerificationTokenHash)
	require.Equal(t, "h", got.PasswordHash)
}

func TestUsers_ClearExpiredResetTokens(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	stale := newUser("stale@example.com")
	fresh := newUser("fresh@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, stale))
	require.NoError(t, s.Users().CreateUser(ctx, fresh))
	require.NoError(t, s.Users().SetResetToken(ctx, stale.ID, domain.ResetToken{TokenHash: "s", ExpiresAt: now.Add(-time.Minute)}, now))
	require.NoError(t, s.Users().SetResetToken(ctx, fresh.ID, domain.ResetToken{TokenHash: "f", ExpiresAt: now.Add(time.Hour)}, now))

	n, err := s.Users().ClearExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err := s.Users().GetUserByID(ctx, fresh.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Reset)
}

func TestUsers_ListAndDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	owner := newUser("owner@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, owner))
	require.NoError(t, s.Products().CreateProduct(ctx, domain.Product{
		ID: idx.New().String(), Name: "Lamp", Description: "A lamp", Price: 10, OwnerID: owner.ID, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, s.Carts().CreateCartItem(ctx, domain.CartItem{
		ID: idx.New().String(), Item: "Lamp", Description: "A lamp", Price: 10, OwnerID: owner.ID, CreatedAt: now, UpdatedAt: now,
	}))

	users, err := s.Users().ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	require.NoError(t, s.Users().DeleteUser(ctx, owner.ID))
	require.ErrorIs(t, s.Users().DeleteUser(ctx, owner.ID), store.ErrNotFound)

	products, err := s.Products().ListProducts(ctx)
	require.NoError(t, err)
	require.Empty(t, products)
	items, err := s.Carts().ListCartItems(ctx)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestProducts_CRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)

	owner := newUser("seller@example.com")
	other := newUser("other@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, owner))
	require.NoError(t, s.Users().CreateUser(ctx, other))

	p := domain.Product{ID: idx.New().String(), Name: "Chair", Description: "Wooden chair", Price: 49.5, OwnerID: owner.ID, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.Products().CreateProduct(ctx, p))
	require.NoError(t, s.Products().CreateProduct(ctx, domain.Product{
		ID: idx.New().String(), Name: "Desk", Description: "Oak desk", Price: 120, OwnerID: other.ID, CreatedAt: now.Add(time.Second), UpdatedAt: now,
	}))

	got, err := s.Products().GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Chair", got.Name)
	require.Equal(t, domain.UserRef{ID: owner.ID, FirstName: "Test", LastName: "User"}, got.Owner)

	all, err := s.Products().ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "Desk", all[0].Name, "newest first")

	mine, err := s.Products().ListProductsByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	p.Name, p.Price, p.UpdatedAt = "Armchair", 80, now.Add(time.Hour)
	require.NoError(t, s.Products().UpdateProduct(ctx, p))
	got, err = s.Products().GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Armchair", got.Name)
	require.InDelta(t, 80.0, got.Price, 0.0001)

	require.NoError(t, s.Products().DeleteProduct(ctx, p.ID))
	_, err = s.Products().GetProductByID(ctx, p.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Products().UpdateProduct(ctx, p), store.ErrNotFound)

	// Owner must exist.
	orphan := domain.Product{ID: idx.New().String(), Name: "X", Description: "xxxxx", Price: 1, OwnerID: "missing", CreatedAt: now, UpdatedAt: now}
	require.Error(t, s.Products().CreateProduct(ctx, orphan))
}

func TestCarts_CRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)

	owner := newUser("buyer@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, owner))

	c := domain.CartItem{ID: idx.New().String(), Item: "Mug", Description: "Blue mug", Price: 7, OwnerID: owner.ID, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.Carts().CreateCartItem(ctx, c))

	got, err := s.Carts().GetCartItemByID(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "Mug", got.Item)
	require.Equal(t, owner.ID, got.Owner.ID)

	mine, err := s.Carts().ListCartItemsByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	c.Item = "Red mug"
	require.NoError(t, s.Carts().UpdateCartItem(ctx, c))
	require.NoError(t, s.Carts().DeleteCartItem(ctx, c.ID))
	require.ErrorIs(t, s.Carts().DeleteCartItem(ctx, c.ID), store.ErrNotFound)
}

func TestWithTx_RollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().CreateUser(ctx, newUser("tx@example.com")))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByEmail(ctx, "tx@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.WithTx(ctx, func(tx store.Tx) error {
		_, nested := tx.Tx(ctx)
		require.Error(t, nested)
		return tx.Users().CreateUser(ctx, newUser("tx@example.com"))
	})
	require.NoError(t, err)

	_, err = s.Users().GetUserByEmail(ctx, "tx@example.com")
	require.NoError(t, err)
}

func TestUsers_DriverErrorsPropagate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s, err := newStoreWithDB(db, "mock")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	driverErr := errors.New("disk I/O error")

	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \?`).
		WithArgs("a@example.com").
		WillReturnError(driverErr)
	_, err = s.Users().GetUserByEmail(ctx, "a@example.com")
	require.ErrorIs(t, err, driverErr)
	require.NotErrorIs(t, err, store.ErrNotFound)

	mock.ExpectExec(`UPDATE users\s+SET password_hash = \?, reset_token_hash = NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = s.Users().ConsumeResetToken(ctx, "id", "hash", "new", time.Now())
	require.ErrorIs(t, err, store.ErrConflict)

	mock.ExpectExec(`UPDATE users SET avatar_key = \?`).
		WillReturnResult(sqlmock.NewErrorResult(driverErr))
	err = s.Users().UpdateAvatar(ctx, "id", "key", time.Now())
	require.ErrorIs(t, err, driverErr)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	n, err := s.Users().CountUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithPragmas(t *testing.T) {
	require.Equal(t, "file::memory:?_pragma=foreign_keys(1)", withPragmas(":memory:"))
	require.Equal(t, "file:x.db?mode=rwc&_pragma=foreign_keys(1)", withPragmas("file:x.db?mode=rwc"))
	require.Equal(t, DSN("x.db"), withPragmas(DSN("x.db")))
}
