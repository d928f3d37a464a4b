package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/shopfront/internal/shop/domain"
	"github.com/aussiebroadwan/shopfront/internal/shop/store"
	"github.com/aussiebroadwan/shopfront/pkg/idx"
)

type ProductInput struct {
	Name        string
	Description string
	Price       float64
}

// ProductService manages the product catalogue. Only a product's owner may
// change or remove it.
type ProductService struct {
	Store store.Store
	Now   func() time.Time
}

func (s *ProductService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *ProductService) Create(ctx context.Context, ownerID string, in ProductInput) (domain.Product, error) {
	now := s.now()
	p := domain.Product{
		ID:          idx.NewAt(now).String(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.Products().CreateProduct(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return s.Get(ctx, p.ID)
}

func (s *ProductService) Get(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.Store.Products().GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Product{}, ErrNotFound
		}
		return domain.Product{}, err
	}
	return p, nil
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.Store.Products().ListProducts(ctx)
}

func (s *ProductService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Product, error) {
	return s.Store.Products().ListProductsByOwner(ctx, ownerID)
}

func (s *ProductService) Update(ctx context.Context, callerID, id string, in ProductInput) (domain.Product, error) {
	var out domain.Product
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		p, err := tx.Products().GetProductByID(ctx, id)
		if err != nil {
			return err
		}
		if p.OwnerID != callerID {
			return ErrNotOwner
		}

		p.Name = strings.TrimSpace(in.Name)
		p.Description = strings.TrimSpace(in.Description)
		p.Price = in.Price
		p.UpdatedAt = s.now()
		if err := tx.Products().UpdateProduct(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return domain.Product{}, ErrNotFound
	}
	return out, err
}

func (s *ProductService) Delete(ctx context.Context, callerID, id string) error {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		p, err := tx.Products().GetProductByID(ctx, id)
		if err != nil {
			return err
		}
		if p.OwnerID != callerID {
			return ErrNotOwner
		}
		return tx.Products().DeleteProduct(ctx, id)
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
