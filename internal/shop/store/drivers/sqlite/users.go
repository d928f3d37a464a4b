package sqlite

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/aussiebroadwan/shopfront/internal/shop/domain"
	"github.com/aussiebroadwan/shopfront/internal/shop/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, first_name, last_name, email, password_hash, role, is_verified,
	avatar_key, verification_token_hash, reset_token_hash, reset_expires_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u                    domain.User
		role                 string
		verifyHash, resetHsh sql.NullString
		resetExpires         sql.NullInt64
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &role, &u.IsVerified,
		&u.AvatarKey, &verifyHash, &resetHsh, &resetExpires, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}

	u.Role = domain.Role(role)
	u.VerificationTokenHash = mapNullStringPtr(verifyHash)
	if resetHsh.Valid && resetExpires.Valid {
		u.Reset = &domain.ResetToken{
			TokenHash: resetHsh.String,
			ExpiresAt: fromMillis(resetExpires.Int64),
		}
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

func (r *usersRepo) getOne(ctx context.Context, where string, arg any) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.getOne(ctx, `id = ?`, id)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, `email = ?`, email)
}

func (r *usersRepo) GetUserByResetTokenHash(ctx context.Context, tokenHash string) (domain.User, error) {
	return r.getOne(ctx, `reset_token_hash = ?`, tokenHash)
}

func (r *usersRepo) GetUserByVerificationTokenHash(ctx context.Context, tokenHash string) (domain.User, error) {
	return r.getOne(ctx, `verification_token_hash = ?`, tokenHash)
}

func userArgs(u domain.User) []any {
	var resetHash sql.NullString
	var resetExpires sql.NullInt64
	if u.Reset != nil {
		resetHash = sql.NullString{String: u.Reset.TokenHash, Valid: true}
		resetExpires = sql.NullInt64{Int64: toMillis(u.Reset.ExpiresAt), Valid: true}
	}
	return []any{
		u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.IsVerified,
		u.AvatarKey, mapOptionalString(u.VerificationTokenHash), resetHash, resetExpires,
		toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
	}
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	// role sits between password_hash and is_verified
	args := slices.Insert(userArgs(u), 5, any(string(u.Role)))

	_, err := r.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	return mapWriteErr(err)
}

func (r *usersRepo) CreateUserAutoRole(ctx context.Context, u domain.User) (domain.Role, error) {
	args := userArgs(u)
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		SELECT ?, ?, ?, ?, ?,
			CASE WHEN EXISTS (SELECT 1 FROM users) THEN 'user' ELSE 'admin' END,
			?, ?, ?, ?, ?, ?, ?`, args...)
	if err != nil {
		return "", mapWriteErr(err)
	}

	var role string
	if err := r.db.QueryRowContext(ctx, `SELECT role FROM users WHERE id = ?`, u.ID).Scan(&role); err != nil {
		return "", mapNotFound(err)
	}
	return domain.Role(role), nil
}

func (r *usersRepo) UpdateProfile(ctx context.Context, id, firstName, lastName, email string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users
		SET first_name = ?, last_name = ?, email = ?, updated_at = ?
		WHERE id = ?`, firstName, lastName, email, toMillis(now), id)
	if err != nil {
		return mapWriteErr(err)
	}
	return requireOneRow(res, store.ErrNotFound)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, id, hash string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, toMillis(now), id)
	if err != nil {
		return err
	}
	return requireOneRow(res, store.ErrNotFound)
}

func (r *usersRepo) UpdateAvatar(ctx context.Context, id, avatarKey string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET avatar_key = ?, updated_at = ? WHERE id = ?`,
		avatarKey, toMillis(now), id)
	if err != nil {
		return err
	}
	return requireOneRow(res, store.ErrNotFound)
}

func (r *usersRepo) SetResetToken(ctx context.Context, id string, rt domain.ResetToken, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users
		SET reset_token_hash = ?, reset_expires_at = ?, updated_at = ?
		WHERE id = ?`, rt.TokenHash, toMillis(rt.ExpiresAt), toMillis(now), id)
	if err != nil {
		return mapWriteErr(err)
	}
	return requireOneRow(res, store.ErrNotFound)
}

func (r *usersRepo) ConsumeResetToken(ctx context.Context, id, tokenHash, newHash string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users
		SET password_hash = ?, reset_token_hash = NULL, reset_expires_at = NULL, updated_at = ?
		WHERE id = ? AND reset_token_hash = ? AND reset_expires_at > ?`,
		newHash, toMillis(now), id, tokenHash, toMillis(now))
	if err != nil {
		return err
	}
	return requireOneRow(res, store.ErrConflict)
}

func (r *usersRepo) ConsumeVerificationToken(ctx context.Context, id, tokenHash, newHash string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users
		SET password_hash = ?, is_verified = 1, verification_token_hash = NULL, updated_at = ?
		WHERE id = ? AND verification_token_hash = ?`,
		newHash, toMillis(now), id, tokenHash)
	if err != nil {
		return err
	}
	return requireOneRow(res, store.ErrConflict)
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *usersRepo) DeleteUser(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireOneRow(res, store.ErrNotFound)
}

func (r *usersRepo) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *usersRepo) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE users
		SET reset_token_hash = NULL, reset_expires_at = NULL
		WHERE reset_expires_at IS NOT NULL AND reset_expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
