package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nade-api/internal/dto"
	"github.com/noah-isme/nade-api/internal/middleware"
	"github.com/noah-isme/nade-api/internal/models"
	appErrors "github.com/noah-isme/nade-api/pkg/errors"
	"github.com/noah-isme/nade-api/pkg/response"
)

type userService interface {
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, req dto.CreateUserRequest) (*models.User, error)
	Update(ctx context.Context, id string, req dto.UpdateUserRequest) (*models.User, error)
	SetPassword(ctx context.Context, id string, req dto.UpdatePasswordRequest) error
	Delete(ctx context.Context, id, actorID string) error
}

// UserHandler manages staff accounts. Every route is admin-only.
type UserHandler struct {
	users userService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users userService) *UserHandler {
	return &UserHandler{users: users}
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Failure 403 {object} errors.Error
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	response.OK(c, "users", users)
}

// Create godoc
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateUserRequest true "User payload"
// @Success 201 {object} models.User
// @Failure 400 {object} errors.Error
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResource(c, user.ID)
	response.Created(c, "user", user)
}

// Update godoc
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param payload body dto.UpdateUserRequest true "User payload"
// @Success 200 {object} models.User
// @Failure 400 {object} errors.Error
// @Failure 404 {object} errors.Error
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "user", user)
}

// SetPassword godoc
// @Summary Replace a user's password
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param payload body dto.UpdatePasswordRequest true "New password"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.Error
// @Failure 404 {object} errors.Error
// @Router /users/{id}/password [put]
func (h *UserHandler) SetPassword(c *gin.Context) {
	var req dto.UpdatePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.users.SetPassword(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Senha alterada com sucesso")
}

// Delete godoc
// @Summary Delete user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.Error
// @Failure 404 {object} errors.Error
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.users.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Usuário excluído com sucesso")
}
