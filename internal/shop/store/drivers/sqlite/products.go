package sqlite

import (
	"context"

	"github.com/aussiebroadwan/shopfront/internal/shop/domain"
	"github.com/aussiebroadwan/shopfront/internal/shop/store"
)

type productsRepo struct {
	db dbtx
}

const productSelect = `SELECT p.id, p.name, p.description, p.price, p.owner_id,
	u.first_name, u.last_name, p.created_at, p.updated_at
	FROM products p JOIN users u ON u.id = p.owner_id`

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p                    domain.Product
		createdAt, updatedAt int64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.OwnerID,
		&p.Owner.FirstName, &p.Owner.LastName, &createdAt, &updatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	p.Owner.ID = p.OwnerID
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}

func (r *productsRepo) list(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *productsRepo) CreateProduct(ctx context.Context, p domain.Product) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO products
		(id, name, description, price, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.OwnerID, toMillis(p.CreatedAt), toMillis(p.UpdatedAt))
	return mapWriteErr(err)
}

func (r *productsRepo) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+` WHERE p.id = ?`, id))
	if err != nil {
		return domain.Product{}, mapNotFound(err)
	}
	return p, nil
}

func (r *productsRepo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, productSelect+` ORDER BY p.created_at DESC, p.id DESC`)
}

func (r *productsRepo) ListProductsByOwner(ctx context.Context, ownerID string) ([]domain.Product, error) {
	return r.list(ctx, productSelect+` WHERE p.owner_id = ? ORDER BY p.created_at DESC, p.id DESC`, ownerID)
}

func (r *productsRepo) UpdateProduct(ctx context.Context, p domain.Product) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products
		SET name = ?, description = ?, price = ?, updated_at = ?
		WHERE id = ?`, p.Name, p.Description, p.Price, toMillis(p.UpdatedAt), p.ID)
	if err != nil {
		return err
	}
	return requireOneRow(res, store.ErrNotFound)
}

func (r *productsRepo) DeleteProduct(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireOneRow(res, store.ErrNotFound)
}
