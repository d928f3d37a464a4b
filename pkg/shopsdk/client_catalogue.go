package shopsdk

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) ListProducts(ctx context.Context) ([]ProductResponse, error) {
	var out []ProductResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/products", "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*ProductResponse, error) {
	var out ProductResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUserProducts lists the products owned by userID.
func (c *Client) ListUserProducts(ctx context.Context, userID string) ([]ProductResponse, error) {
	var out []ProductResponse
	path := "/api/users/" + url.PathEscape(userID) + "/products"
	if err := c.doJSON(ctx, http.MethodGet, path, "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListCartItems(ctx context.Context) ([]CartItemResponse, error) {
	var out []CartItemResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/carts", "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCartItem(ctx context.Context, id string) (*CartItemResponse, error) {
	var out CartItemResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/carts/"+url.PathEscape(id), "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUserCartItems lists the cart items owned by userID.
func (c *Client) ListUserCartItems(ctx context.Context, userID string) ([]CartItemResponse, error) {
	var out []CartItemResponse
	path := "/api/users/" + url.PathEscape(userID) + "/carts"
	if err := c.doJSON(ctx, http.MethodGet, path, "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}
