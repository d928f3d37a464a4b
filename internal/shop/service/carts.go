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

type CartItemInput struct {
	Item        string
	Description string
	Price       float64
}

// CartService manages cart items. Items belong to the user who added them.
type CartService struct {
	Store store.Store
	Now   func() time.Time
}

func (s *CartService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *CartService) Create(ctx context.Context, ownerID string, in CartItemInput) (domain.CartItem, error) {
	now := s.now()
	c := domain.CartItem{
		ID:          idx.NewAt(now).String(),
		Item:        strings.TrimSpace(in.Item),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.Carts().CreateCartItem(ctx, c); err != nil {
		return domain.CartItem{}, err
	}
	return s.Get(ctx, c.ID)
}

func (s *CartService) Get(ctx context.Context, id string) (domain.CartItem, error) {
	c, err := s.Store.Carts().GetCartItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.CartItem{}, ErrNotFound
		}
		return domain.CartItem{}, err
	}
	return c, nil
}

func (s *CartService) List(ctx context.Context) ([]domain.CartItem, error) {
	return s.Store.Carts().ListCartItems(ctx)
}

func (s *CartService) ListByOwner(ctx context.Context, ownerID string) ([]domain.CartItem, error) {
	return s.Store.Carts().ListCartItemsByOwner(ctx, ownerID)
}

func (s *CartService) Update(ctx context.Context, callerID, id string, in CartItemInput) (domain.CartItem, error) {
	var out domain.CartItem
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		c, err := tx.Carts().GetCartItemByID(ctx, id)
		if err != nil {
			return err
		}
		if c.OwnerID != callerID {
			return ErrNotOwner
		}

		c.Item = strings.TrimSpace(in.Item)
		c.Description = strings.TrimSpace(in.Description)
		c.Price = in.Price
		c.UpdatedAt = s.now()
		if err := tx.Carts().UpdateCartItem(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return domain.CartItem{}, ErrNotFound
	}
	return out, err
}

func (s *CartService) Delete(ctx context.Context, callerID, id string) error {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		c, err := tx.Carts().GetCartItemByID(ctx, id)
		if err != nil {
			return err
		}
		if c.OwnerID != callerID {
			return ErrNotOwner
		}
		return tx.Carts().DeleteCartItem(ctx, id)
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
