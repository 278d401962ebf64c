// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hermes-search/hermes/internal/platform/apperr"
	"github.com/hermes-search/hermes/internal/platform/middleware"
	requestutil "github.com/hermes-search/hermes/internal/platform/request"
	"github.com/hermes-search/hermes/internal/platform/respond"
	"github.com/hermes-search/hermes/internal/platform/sec"
	"github.com/hermes-search/hermes/internal/platform/validate"
)

// Handler implements the HTTP delivery layer for login and user management.
type Handler struct {
	store *Store
}

// NewHandler constructs a new auth [Handler].
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Routes returns a [chi.Router] for the auth domain. login is open; every
// other route requires an authenticated caller, and user management further
// requires the admin role.
func (h *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/login", h.login)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", h.me)
		r.Post("/password", h.changePassword)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Get("/users", h.listUsers)
		r.Post("/users", h.createUser)
		r.Delete("/users/{username}", h.deleteUser)
	})

	return router
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string       `json:"token"`
	Username string       `json:"username"`
	Role     sec.UserRole `json:"role"`
}

/*
POST /auth/login.

Description: Authenticates a username/password pair and issues an opaque
bearer token.

Response:
  - 200: loginResponse
  - 400: ErrInvalidJSON/Validation
  - 401: Invalid credentials
*/
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(r, &input); err != nil {
		respond.Error(w, r, err)
		return
	}

	v := &validate.Validator{}
	v.Required("username", input.Username).Required("password", input.Password)
	if err := v.Err(); err != nil {
		respond.Error(w, r, err)
		return
	}

	identity, err := h.store.Login(input.Username, input.Password)
	if err != nil {
		respond.Error(w, r, apperr.Internal(err))
		return
	}
	if identity == nil {
		respond.Error(w, r, apperr.Unauthorized("Invalid username or password"))
		return
	}

	token, err := h.store.IssueToken(identity.Username, identity.Role)
	if err != nil {
		respond.Error(w, r, apperr.Internal(err))
		return
	}

	respond.OK(w, loginResponse{Token: token, Username: identity.Username, Role: identity.Role})
}

/*
GET /auth/me.

Description: Returns the identity of the currently authenticated caller.

Response:
  - 200: Public
  - 401: Authentication required
*/
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims, err := requestutil.RequiredClaims(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, Public{Username: claims.Username, Role: claims.Role})
}

type changePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

/*
POST /auth/password.

Description: Changes the authenticated caller's own password. The configured
admin account's password lives in configuration, not the on-disk store, so
for the admin account this endpoint reports the user as not found.

Response:
  - 200: {"ok": true}
  - 400: Validation
  - 401: Authentication required
  - 404: User not found (including the admin account, which has no on-disk entry)
*/
func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	claims, err := requestutil.RequiredClaims(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(r, &input); err != nil {
		respond.Error(w, r, err)
		return
	}

	v := &validate.Validator{}
	v.MinLen("new_password", input.NewPassword, 8)
	if err := v.Err(); err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.store.ChangePassword(claims.Username, input.NewPassword); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, map[string]bool{"ok": true})
}

/*
GET /auth/users.

Description: Lists every on-disk user. Admin-only.

Response:
  - 200: []Public
*/
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		respond.Error(w, r, apperr.Internal(err))
		return
	}
	respond.OK(w, users)
}

type createUserRequest struct {
	Username string       `json:"username"`
	Password string       `json:"password"`
	Role     sec.UserRole `json:"role"`
}

/*
POST /auth/users.

Description: Creates a new on-disk user. Admin-only.

Response:
  - 201: Public
  - 400: Validation
  - 409: Username already exists
*/
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var input createUserRequest
	if err := requestutil.DecodeJSON(r, &input); err != nil {
		respond.Error(w, r, err)
		return
	}

	if input.Role == "" {
		input.Role = sec.RoleUser
	}

	v := &validate.Validator{}
	v.Required("username", input.Username).MinLen("password", input.Password, 8).
		OneOf("role", string(input.Role), string(sec.RoleUser), string(sec.RoleAdmin))
	if err := v.Err(); err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.store.AddUser(input.Username, input.Password, input.Role); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.Created(w, Public{Username: input.Username, Role: input.Role})
}

/*
DELETE /auth/users/{username}.

Description: Removes an on-disk user. Admin-only.

Response:
  - 204: No Content
*/
func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	username := requestutil.Param(r, "username")
	if username == "" {
		respond.Error(w, r, apperr.NotFound("User"))
		return
	}
	if err := h.store.DeleteUser(username); err != nil {
		respond.Error(w, r, apperr.Internal(err))
		return
	}
	respond.NoContent(w)
}
