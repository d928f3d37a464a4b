package http

import (
	"net/http"

	"github.com/aussiebroadwan/shopfront/internal/shop/domain"
	"github.com/aussiebroadwan/shopfront/internal/shop/filestore"
	"github.com/aussiebroadwan/shopfront/internal/shop/service"
	"github.com/aussiebroadwan/shopfront/pkg/httpx"
	"github.com/aussiebroadwan/shopfront/pkg/shopsdk"
)

// UsersHandler serves admin user management. Every route requires the
// admin role.
type UsersHandler struct {
	UserService *service.UserService
	Files       filestore.FileStore

	PublicBaseURL  string
	AllowedOrigins []string
}

// HandleCreate invites a user.
//
//	@Summary		Create user
//	@Description	Creates an unverified user and emails a verification link through which the invitee sets a password.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		shopsdk.CreateUserRequest		true	"User"
//	@Success		201		{object}	shopsdk.UserEnvelope
//	@Failure		400		{object}	shopsdk.ValidationErrorResponse	"Validation failed or duplicate_email"
//	@Failure		401		{object}	shopsdk.ErrorResponse			"unauthorized"
//	@Security		BearerAuth
//	@Router			/api/users [post].
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.CreateUserRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	u, err := h.UserService.CreateUser(r.Context(), service.CreateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      domain.Role(req.Role),
	}, requestOrigin(r, h.PublicBaseURL, h.AllowedOrigins))
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, shopsdk.UserEnvelope{User: userResponse(u, h.Files)})
}

// HandleList lists every user, oldest first.
//
//	@Summary	List users
//	@Tags		Users
//	@Produce	json
//	@Success	200	{object}	shopsdk.ListUsersResponse
//	@Failure	401	{object}	shopsdk.ErrorResponse	"unauthorized"
//	@Security	BearerAuth
//	@Router		/api/users [get].
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}

	resp := shopsdk.ListUsersResponse{Users: make([]shopsdk.UserResponse, len(users))}
	for i, u := range users {
		resp.Users[i] = userResponse(u, h.Files)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet returns one user.
//
//	@Summary	Get user
//	@Tags		Users
//	@Produce	json
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	shopsdk.UserEnvelope
//	@Failure	404	{object}	shopsdk.ErrorResponse	"not_found"
//	@Security	BearerAuth
//	@Router		/api/users/{id} [get].
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, err := h.UserService.GetUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, map[error]*shopsdk.APIError{service.ErrNotFound: errUserNotFound})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, shopsdk.UserEnvelope{User: userResponse(u, h.Files)})
}

// HandleDelete removes a user with their products, cart items and avatar.
//
//	@Summary	Delete user
//	@Tags		Users
//	@Param		id	path	string	true	"User ID"
//	@Success	204
//	@Failure	404	{object}	shopsdk.ErrorResponse	"not_found"
//	@Security	BearerAuth
//	@Router		/api/users/{id} [delete].
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.UserService.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, map[error]*shopsdk.APIError{service.ErrNotFound: errUserNotFound})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
