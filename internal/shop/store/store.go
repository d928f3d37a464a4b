package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/shopfront/internal/shop/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict is returned by conditional writes whose precondition no
	// longer holds, e.g. a reset token that was already consumed.
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface. Drivers expose sub-repositories so
// a transaction-scoped Store can hand out the same repos bound to the tx.
type Store interface {
	Users() Users
	Products() Products
	Carts() Carts

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches the email exactly as stored.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts u with u.Role. Returns ErrAlreadyExists when the
	// email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// CreateUserAutoRole inserts u as admin if no user exists yet and as a
	// regular user otherwise, in a single statement. It returns the role the
	// row was written with.
	CreateUserAutoRole(ctx context.Context, u domain.User) (domain.Role, error)

	// UpdateProfile overwrites names and email. Returns ErrAlreadyExists when
	// the email belongs to another user.
	UpdateProfile(ctx context.Context, id, firstName, lastName, email string, now time.Time) error

	UpdatePasswordHash(ctx context.Context, id, hash string, now time.Time) error

	UpdateAvatar(ctx context.Context, id, avatarKey string, now time.Time) error

	// SetResetToken records an outstanding reset, replacing any previous one.
	SetResetToken(ctx context.Context, id string, rt domain.ResetToken, now time.Time) error

	GetUserByResetTokenHash(ctx context.Context, tokenHash string) (domain.User, error)

	// ConsumeResetToken replaces the password hash and clears the reset
	// token only if id still holds tokenHash unexpired at now. Returns
	// ErrConflict otherwise.
	ConsumeResetToken(ctx context.Context, id, tokenHash, newHash string, now time.Time) error

	GetUserByVerificationTokenHash(ctx context.Context, tokenHash string) (domain.User, error)

	// ConsumeVerificationToken marks the user verified, sets the password
	// hash and clears the token only if id still holds tokenHash. Returns
	// ErrConflict otherwise.
	ConsumeVerificationToken(ctx context.Context, id, tokenHash, newHash string, now time.Time) error

	// ListUsers returns all users ordered by creation (oldest first).
	ListUsers(ctx context.Context) ([]domain.User, error)

	// DeleteUser cascades to products and cart items (per schema).
	DeleteUser(ctx context.Context, id string) error

	CountUsers(ctx context.Context) (int, error)

	// ClearExpiredResetTokens drops reset grants whose expiry is not after now.
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type Products interface {
	CreateProduct(ctx context.Context, p domain.Product) error

	// GetProductByID returns the product with Owner populated.
	GetProductByID(ctx context.Context, id string) (domain.Product, error)

	// ListProducts returns every product, newest first.
	ListProducts(ctx context.Context) ([]domain.Product, error)

	ListProductsByOwner(ctx context.Context, ownerID string) ([]domain.Product, error)

	// UpdateProduct overwrites name, description and price.
	UpdateProduct(ctx context.Context, p domain.Product) error

	DeleteProduct(ctx context.Context, id string) error
}

type Carts interface {
	CreateCartItem(ctx context.Context, c domain.CartItem) error

	// GetCartItemByID returns the item with Owner populated.
	GetCartItemByID(ctx context.Context, id string) (domain.CartItem, error)

	// ListCartItems returns every cart item, newest first.
	ListCartItems(ctx context.Context) ([]domain.CartItem, error)

	ListCartItemsByOwner(ctx context.Context, ownerID string) ([]domain.CartItem, error)

	// UpdateCartItem overwrites item, description and price.
	UpdateCartItem(ctx context.Context, c domain.CartItem) error

	DeleteCartItem(ctx context.Context, id string) error
}
