package handlers

import (
	"abroad/internal/middleware"
	"abroad/internal/models"
	"abroad/internal/services"
	"abroad/pkg/pagination"
	"abroad/pkg/response"

	"github.com/gin-gonic/gin"
)

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required"`
}

type AssignRolesRequest struct {
	RoleIDs []uint `json:"role_ids"`
}

type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// ========== 基础CRUD方法 ==========

// Create 创建用户
func (h *UserHandler) Create(c *gin.Context) {
	var req services.CreateUserInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.service.Create(c.Request.Context(), middleware.TenantContext(c), &req)
	if err != nil {
		handleServiceError(c, err, "创建用户")
		return
	}

	response.Success(c, user)
}

// GetByID 获取用户详情
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), middleware.TenantContext(c), id)
	if err != nil {
		handleServiceError(c, err, "获取用户")
		return
	}

	response.Success(c, user)
}

// GetAll 获取用户列表（支持状态、关键字过滤和分页）
func (h *UserHandler) GetAll(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)

	users, total, err := h.service.List(c.Request.Context(), middleware.TenantContext(c), c.Query("status"), c.Query("keyword"), pageParams.Page, pageParams.PageSize)
	if err != nil {
		handleServiceError(c, err, "查询用户")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, users, pageInfo)
}

// Update 更新用户
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateUserInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.service.Update(c.Request.Context(), middleware.TenantContext(c), id, &req)
	if err != nil {
		handleServiceError(c, err, "更新用户")
		return
	}

	response.Success(c, user)
}

// Delete 删除用户
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.TenantContext(c), id); err != nil {
		handleServiceError(c, err, "删除用户")
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// ========== 状态管理方法 ==========

// Activate 启用用户
func (h *UserHandler) Activate(c *gin.Context) {
	h.setStatus(c, models.UserStatusActive)
}

// Deactivate 停用用户
func (h *UserHandler) Deactivate(c *gin.Context) {
	h.setStatus(c, models.UserStatusInactive)
}

// Lock 锁定用户
func (h *UserHandler) Lock(c *gin.Context) {
	h.setStatus(c, models.UserStatusLocked)
}

func (h *UserHandler) setStatus(c *gin.Context, status string) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := h.service.Update(c.Request.Context(), middleware.TenantContext(c), id, &services.UpdateUserInput{Status: &status})
	if err != nil {
		handleServiceError(c, err, "更新用户状态")
		return
	}

	response.Success(c, user)
}

// ResetPassword 重置密码（管理员操作）
func (h *UserHandler) ResetPassword(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), middleware.TenantContext(c), id, req.NewPassword); err != nil {
		handleServiceError(c, err, "重置密码")
		return
	}

	response.SuccessWithMessage(c, "密码重置成功", nil)
}

// ========== 角色管理方法 ==========

// AssignRoles 分配角色（替换现有角色）
func (h *UserHandler) AssignRoles(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req AssignRolesRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.service.AssignRoles(c.Request.Context(), middleware.TenantContext(c), id, req.RoleIDs)
	if err != nil {
		handleServiceError(c, err, "分配角色")
		return
	}

	response.Success(c, user)
}

// GetUserPermissions 获取用户的权限代码
func (h *UserHandler) GetUserPermissions(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	user, err := h.service.GetByID(ctx, middleware.TenantContext(c), id)
	if err != nil {
		handleServiceError(c, err, "获取用户")
		return
	}

	permissions, err := h.service.Permissions(ctx, user)
	if err != nil {
		handleServiceError(c, err, "获取用户权限")
		return
	}

	response.Success(c, permissions.Codes())
}
