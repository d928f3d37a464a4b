package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/shopfront/internal/shop/service"
	"github.com/stretchr/testify/require"
)

func TestProductService_Lifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.registerVerified(t, "owner@x.com", "pw123456")
	other := e.registerVerified(t, "other@x.com", "pw123456")

	p, err := e.Products.Create(ctx, owner, service.ProductInput{Name: " Lamp ", Description: "A desk lamp", Price: 25})
	require.NoError(t, err)
	require.Equal(t, "Lamp", p.Name)
	require.Equal(t, owner, p.OwnerID)
	require.Equal(t, "Test", p.Owner.FirstName)

	_, err = e.Products.Update(ctx, other, p.ID, service.ProductInput{Name: "Hijack", Description: "not mine", Price: 1})
	require.ErrorIs(t, err, service.ErrNotOwner)
	require.ErrorIs(t, e.Products.Delete(ctx, other, p.ID), service.ErrNotOwner)

	got, err := e.Products.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Lamp", got.Name, "rejected update left the product intact")

	e.Clock.Advance(time.Millisecond)
	up, err := e.Products.Update(ctx, owner, p.ID, service.ProductInput{Name: "Floor lamp", Description: "Taller", Price: 40})
	require.NoError(t, err)
	require.Equal(t, "Floor lamp", up.Name)
	require.InDelta(t, 40, up.Price, 0)

	_, err = e.Products.Create(ctx, other, service.ProductInput{Name: "Rug", Description: "Woollen rug", Price: 90})
	require.NoError(t, err)

	all, err := e.Products.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	mine, err := e.Products.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, p.ID, mine[0].ID)

	require.NoError(t, e.Products.Delete(ctx, owner, p.ID))
	_, err = e.Products.Get(ctx, p.ID)
	require.ErrorIs(t, err, service.ErrNotFound)
	require.ErrorIs(t, e.Products.Delete(ctx, owner, p.ID), service.ErrNotFound)
	_, err = e.Products.Update(ctx, owner, p.ID, service.ProductInput{Name: "Gone", Description: "gone", Price: 1})
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestCartService_Lifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.registerVerified(t, "owner@x.com", "pw123456")
	other := e.registerVerified(t, "other@x.com", "pw123456")

	c, err := e.Carts.Create(ctx, owner, service.CartItemInput{Item: "Mug", Description: "Blue mug", Price: 8})
	require.NoError(t, err)
	require.Equal(t, "Mug", c.Item)
	require.Equal(t, owner, c.Owner.ID)

	_, err = e.Carts.Update(ctx, other, c.ID, service.CartItemInput{Item: "Cup", Description: "not mine", Price: 1})
	require.ErrorIs(t, err, service.ErrNotOwner)
	require.ErrorIs(t, e.Carts.Delete(ctx, other, c.ID), service.ErrNotOwner)

	up, err := e.Carts.Update(ctx, owner, c.ID, service.CartItemInput{Item: "Two mugs", Description: "Blue mugs", Price: 16})
	require.NoError(t, err)
	require.Equal(t, "Two mugs", up.Item)

	mine, err := e.Carts.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	theirs, err := e.Carts.ListByOwner(ctx, other)
	require.NoError(t, err)
	require.Empty(t, theirs)

	require.NoError(t, e.Carts.Delete(ctx, owner, c.ID))
	_, err = e.Carts.Get(ctx, c.ID)
	require.ErrorIs(t, err, service.ErrNotFound)
	require.ErrorIs(t, e.Carts.Delete(ctx, owner, c.ID), service.ErrNotFound)
}
