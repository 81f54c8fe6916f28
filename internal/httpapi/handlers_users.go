package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/PabloPavan/sniply/internal/telemetry"
	"github.com/PabloPavan/sniply/internal/users"
)

type UsersService interface {
	Create(ctx context.Context, req users.CreateUserRequest) (*users.User, error)
	Me(ctx context.Context) (*users.User, error)
	List(ctx context.Context, f users.UserFilter) ([]*users.User, error)
	UpdateSelf(ctx context.Context, input users.UpdateUserInput) error
	UpdateByID(ctx context.Context, targetID string, input users.UpdateUserInput) error
	DeleteSelf(ctx context.Context) error
	DeleteByID(ctx context.Context, targetID string) error
}

type UsersHandler struct {
	Service UsersService
}

// Create User
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param body body UserCreateDTO true "user"
// @Success 201 {object} users.UserResponse
// @Failure 400 {string} string
// @Failure 409 {string} string
// @Failure 500 {string} string
// @Router /users [post]
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var dto UserCreateDTO
	if !decodeBody(w, r, &dto) {
		return
	}
	created, err := h.Service.Create(r.Context(), users.CreateUserRequest{
		Email:    dto.Email,
		Username: dto.Username,
		Password: dto.Password,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	telemetry.LogInfo(r.Context(), "user registered",
		telemetry.LogString("event", "user.created"),
		telemetry.LogString("user.id", created.ID),
	)
	writeJSON(w, http.StatusCreated, created.Response())
}

// List Users
// @Summary List users (admin)
// @Tags users
// @Produce json
// @Security SessionAuth
// @Param q query string false "email or username search"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {array} users.UserResponse
// @Failure 401 {string} string
// @Failure 403 {string} string
// @Failure 500 {string} string
// @Router /users [get]
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	found, err := h.Service.List(r.Context(), users.UserFilter{
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	})
	out := make([]users.UserResponse, len(found))
	for i, u := range found {
		out[i] = u.Response()
	}
	writeResult(w, r, out, err)
}

// Me User
// @Summary Get current user
// @Tags users
// @Produce json
// @Security SessionAuth
// @Success 200 {object} users.UserResponse
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /users/me [get]
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.Service.Me(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, me.Response())
}

// UpdateMe User
// @Summary Update current user
// @Tags users
// @Accept json
// @Security SessionAuth
// @Param body body UserUpdateDTO true "user"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 204
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 403 {string} string
// @Failure 409 {string} string
// @Failure 500 {string} string
// @Router /users/me [put]
func (h *UsersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var dto UserUpdateDTO
	if !decodeBody(w, r, &dto) {
		return
	}
	writeNoContent(w, r, h.Service.UpdateSelf(r.Context(), dto.input()))
}

// DeleteMe User
// @Summary Delete current user
// @Tags users
// @Security SessionAuth
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 204
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /users/me [delete]
func (h *UsersHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	writeNoContent(w, r, h.Service.DeleteSelf(r.Context()))
}

// Update User
// @Summary Update user (admin or self)
// @Tags users
// @Accept json
// @Security SessionAuth
// @Param id path string true "user id"
// @Param body body UserUpdateDTO true "user"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 204
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 403 {string} string
// @Failure 500 {string} string
// @Router /users/{id} [put]
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var dto UserUpdateDTO
	if !decodeBody(w, r, &dto) {
		return
	}
	writeNoContent(w, r, h.Service.UpdateByID(r.Context(), pathID(r), dto.input()))
}

// Delete User
// @Summary Delete user (admin or self)
// @Tags users
// @Security SessionAuth
// @Param id path string true "user id"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 204
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 403 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /users/{id} [delete]
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	writeNoContent(w, r, h.Service.DeleteByID(r.Context(), pathID(r)))
}
