package http

import (
	"net/http"

	"github.com/aussiebroadwan/shopfront/internal/shop/service"
	"github.com/aussiebroadwan/shopfront/pkg/httpx"
	"github.com/aussiebroadwan/shopfront/pkg/shopsdk"
)

type ProductsHandler struct {
	ProductService *service.ProductService
}

// HandleList lists every product, newest first.
//
//	@Summary	List products
//	@Tags		Products
//	@Produce	json
//	@Success	200	{array}		shopsdk.ProductResponse
//	@Failure	500	{object}	shopsdk.ErrorResponse	"Internal server error"
//	@Router		/api/products [get].
func (h *ProductsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ps, err := h.ProductService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, productsResponse(ps))
}

// HandleListByOwner lists the products of one user.
//
//	@Summary	List a user's products
//	@Tags		Products
//	@Produce	json
//	@Param		id	path		string	true	"Owner user ID"
//	@Success	200	{array}		shopsdk.ProductResponse
//	@Failure	500	{object}	shopsdk.ErrorResponse	"Internal server error"
//	@Router		/api/users/{id}/products [get].
func (h *ProductsHandler) HandleListByOwner(w http.ResponseWriter, r *http.Request) {
	ps, err := h.ProductService.ListByOwner(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, productsResponse(ps))
}

// HandleGet returns one product.
//
//	@Summary	Get product
//	@Tags		Products
//	@Produce	json
//	@Param		id	path		string	true	"Product ID"
//	@Success	200	{object}	shopsdk.ProductResponse
//	@Failure	404	{object}	shopsdk.ErrorResponse	"not_found"
//	@Router		/api/products/{id} [get].
func (h *ProductsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.ProductService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, productResponse(p))
}

// HandleCreate adds a product owned by the caller.
//
//	@Summary	Create product
//	@Tags		Products
//	@Accept		json
//	@Produce	json
//	@Param		request	body		shopsdk.ProductRequest	true	"Product"
//	@Success	201		{object}	shopsdk.ProductResponse
//	@Failure	400		{object}	shopsdk.ValidationErrorResponse	"Validation failed"
//	@Failure	403		{object}	shopsdk.ErrorResponse			"no_token_provided"
//	@Security	BearerAuth
//	@Router		/api/products [post].
func (h *ProductsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.ProductRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	ctx := r.Context()
	p, err := h.ProductService.Create(ctx, httpx.UserIDFromContext(ctx), service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, productResponse(p))
}

// HandleUpdate replaces a product the caller owns.
//
//	@Summary	Update product
//	@Tags		Products
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Product ID"
//	@Param		request	body		shopsdk.ProductRequest	true	"Product"
//	@Success	200		{object}	shopsdk.ProductResponse
//	@Failure	400		{object}	shopsdk.ErrorResponse	"not_owner or validation_error"
//	@Failure	404		{object}	shopsdk.ErrorResponse	"not_found"
//	@Security	BearerAuth
//	@Router		/api/products/{id} [put].
func (h *ProductsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.ProductRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	ctx := r.Context()
	p, err := h.ProductService.Update(ctx, httpx.UserIDFromContext(ctx), r.PathValue("id"), service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, productResponse(p))
}

// HandleDelete removes a product the caller owns.
//
//	@Summary	Delete product
//	@Tags		Products
//	@Param		id	path	string	true	"Product ID"
//	@Success	204
//	@Failure	400	{object}	shopsdk.ErrorResponse	"not_owner"
//	@Failure	404	{object}	shopsdk.ErrorResponse	"not_found"
//	@Security	BearerAuth
//	@Router		/api/products/{id} [delete].
func (h *ProductsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.ProductService.Delete(ctx, httpx.UserIDFromContext(ctx), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
