package http

import (
	"github.com/aussiebroadwan/shopfront/internal/shop/domain"
	"github.com/aussiebroadwan/shopfront/internal/shop/filestore"
	"github.com/aussiebroadwan/shopfront/pkg/shopsdk"
)

// userResponse renders the public view of u. The avatar key is resolved to
// an absolute URL through the file store.
func userResponse(u domain.User, files filestore.FileStore) shopsdk.UserResponse {
	return shopsdk.UserResponse{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Role:       u.Role.String(),
		IsVerified: u.IsVerified,
		Avatar:     files.URL(u.AvatarKey),
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func ownerRef(o domain.UserRef) shopsdk.OwnerRef {
	return shopsdk.OwnerRef{ID: o.ID, FirstName: o.FirstName, LastName: o.LastName}
}

func productResponse(p domain.Product) shopsdk.ProductResponse {
	return shopsdk.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Owner:       ownerRef(p.Owner),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func productsResponse(ps []domain.Product) []shopsdk.ProductResponse {
	out := make([]shopsdk.ProductResponse, len(ps))
	for i, p := range ps {
		out[i] = productResponse(p)
	}
	return out
}

func cartItemResponse(c domain.CartItem) shopsdk.CartItemResponse {
	return shopsdk.CartItemResponse{
		ID:          c.ID,
		Item:        c.Item,
		Description: c.Description,
		Price:       c.Price,
		Owner:       ownerRef(c.Owner),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func cartItemsResponse(cs []domain.CartItem) []shopsdk.CartItemResponse {
	out := make([]shopsdk.CartItemResponse, len(cs))
	for i, c := range cs {
		out[i] = cartItemResponse(c)
	}
	return out
}
