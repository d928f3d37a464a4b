package sqlite

import (
	"context"

	"github.com/aussiebroadwan/shopfront/internal/shop/domain"
	"github.com/aussiebroadwan/shopfront/internal/shop/store"
)

type cartsRepo struct {
	db dbtx
}

const cartSelect = `SELECT c.id, c.item, c.description, c.price, c.owner_id,
	u.first_name, u.last_name, c.created_at, c.updated_at
	FROM cart_items c JOIN users u ON u.id = c.owner_id`

func scanCartItem(row rowScanner) (domain.CartItem, error) {
	var (
		c                    domain.CartItem
		createdAt, updatedAt int64
	)
	err := row.Scan(&c.ID, &c.Item, &c.Description, &c.Price, &c.OwnerID,
		&c.Owner.FirstName, &c.Owner.LastName, &createdAt, &updatedAt)
	if err != nil {
		return domain.CartItem{}, err
	}
	c.Owner.ID = c.OwnerID
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return c, nil
}

func (r *cartsRepo) list(ctx context.Context, query string, args ...any) ([]domain.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.CartItem{}
	for rows.Next() {
		c, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *cartsRepo) CreateCartItem(ctx context.Context, c domain.CartItem) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO cart_items
		(id, item, description, price, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Item, c.Description, c.Price, c.OwnerID, toMillis(c.CreatedAt), toMillis(c.UpdatedAt))
	return mapWriteErr(err)
}

func (r *cartsRepo) GetCartItemByID(ctx context.Context, id string) (domain.CartItem, error) {
	c, err := scanCartItem(r.db.QueryRowContext(ctx, cartSelect+` WHERE c.id = ?`, id))
	if err != nil {
		return domain.CartItem{}, mapNotFound(err)
	}
	return c, nil
}

func (r *cartsRepo) ListCartItems(ctx context.Context) ([]domain.CartItem, error) {
	return r.list(ctx, cartSelect+` ORDER BY c.created_at DESC, c.id DESC`)
}

func (r *cartsRepo) ListCartItemsByOwner(ctx context.Context, ownerID string) ([]domain.CartItem, error) {
	return r.list(ctx, cartSelect+` WHERE c.owner_id = ? ORDER BY c.created_at DESC, c.id DESC`, ownerID)
}

func (r *cartsRepo) UpdateCartItem(ctx context.Context, c domain.CartItem) error {
	res, err := r.db.ExecContext(ctx, `UPDATE cart_items
		SET item = ?, description = ?, price = ?, updated_at = ?
		WHERE id = ?`, c.Item, c.Description, c.Price, toMillis(c.UpdatedAt), c.ID)
	if err != nil {
		return err
	}
	return requireOneRow(res, store.ErrNotFound)
}

func (r *cartsRepo) DeleteCartItem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireOneRow(res, store.ErrNotFound)
}
