package http

import (
	"net/http"

	"github.com/aussiebroadwan/shopfront/internal/shop/service"
	"github.com/aussiebroadwan/shopfront/pkg/httpx"
	"github.com/aussiebroadwan/shopfront/pkg/shopsdk"
)

type CartsHandler struct {
	CartService *service.CartService
}

// HandleList lists every cart item, newest first.
//
//	@Summary	List cart items
//	@Tags		Cart
//	@Produce	json
//	@Success	200	{array}		shopsdk.CartItemResponse
//	@Failure	500	{object}	shopsdk.ErrorResponse	"Internal server error"
//	@Router		/api/carts [get].
func (h *CartsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.CartService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cartItemsResponse(items))
}

// HandleListByOwner lists the cart items of one user.
//
//	@Summary	List a user's cart items
//	@Tags		Cart
//	@Produce	json
//	@Param		id	path		string	true	"Owner user ID"
//	@Success	200	{array}		shopsdk.CartItemResponse
//	@Failure	500	{object}	shopsdk.ErrorResponse	"Internal server error"
//	@Router		/api/users/{id}/carts [get].
func (h *CartsHandler) HandleListByOwner(w http.ResponseWriter, r *http.Request) {
	items, err := h.CartService.ListByOwner(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cartItemsResponse(items))
}

// HandleGet returns one cart item.
//
//	@Summary	Get cart item
//	@Tags		Cart
//	@Produce	json
//	@Param		id	path		string	true	"Cart item ID"
//	@Success	200	{object}	shopsdk.CartItemResponse
//	@Failure	404	{object}	shopsdk.ErrorResponse	"not_found"
//	@Router		/api/carts/{id} [get].
func (h *CartsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.CartService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cartItemResponse(c))
}

// HandleCreate adds a cart item owned by the caller.
//
//	@Summary	Create cart item
//	@Tags		Cart
//	@Accept		json
//	@Produce	json
//	@Param		request	body		shopsdk.CartItemRequest	true	"Cart item"
//	@Success	201		{object}	shopsdk.CartItemResponse
//	@Failure	400		{object}	shopsdk.ValidationErrorResponse	"Validation failed"
//	@Failure	403		{object}	shopsdk.ErrorResponse			"no_token_provided"
//	@Security	BearerAuth
//	@Router		/api/carts [post].
func (h *CartsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.CartItemRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	ctx := r.Context()
	c, err := h.CartService.Create(ctx, httpx.UserIDFromContext(ctx), service.CartItemInput{
		Item:        req.Item,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, cartItemResponse(c))
}

// HandleUpdate replaces a cart item the caller owns.
//
//	@Summary	Update cart item
//	@Tags		Cart
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Cart item ID"
//	@Param		request	body		shopsdk.CartItemRequest	true	"Cart item"
//	@Success	200		{object}	shopsdk.CartItemResponse
//	@Failure	400		{object}	shopsdk.ErrorResponse	"not_owner or validation_error"
//	@Failure	404		{object}	shopsdk.ErrorResponse	"not_found"
//	@Security	BearerAuth
//	@Router		/api/carts/{id} [put].
func (h *CartsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.CartItemRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	ctx := r.Context()
	c, err := h.CartService.Update(ctx, httpx.UserIDFromContext(ctx), r.PathValue("id"), service.CartItemInput{
		Item:        req.Item,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cartItemResponse(c))
}

// HandleDelete removes a cart item the caller owns.
//
//	@Summary	Delete cart item
//	@Tags		Cart
//	@Param		id	path	string	true	"Cart item ID"
//	@Success	204
//	@Failure	400	{object}	shopsdk.ErrorResponse	"not_owner"
//	@Failure	404	{object}	shopsdk.ErrorResponse	"not_found"
//	@Security	BearerAuth
//	@Router		/api/carts/{id} [delete].
func (h *CartsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.CartService.Delete(ctx, httpx.UserIDFromContext(ctx), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
