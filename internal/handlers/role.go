package handlers

import (
	"abroad/internal/middleware"
	"abroad/internal/services"
	"abroad/pkg/pagination"
	"abroad/pkg/response"

	"github.com/gin-gonic/gin"
)

type AssignPermissionsRequest struct {
	PermissionIDs []uint `json:"permission_ids"`
}

type RoleHandler struct {
	service *services.RoleService
}

func NewRoleHandler(service *services.RoleService) *RoleHandler {
	return &RoleHandler{
		service: service,
	}
}

// Create 创建角色
func (h *RoleHandler) Create(c *gin.Context) {
	var req services.CreateRoleInput
	if !bindJSON(c, &req) {
		return
	}

	role, err := h.service.Create(c.Request.Context(), middleware.TenantContext(c), &req)
	if err != nil {
		handleServiceError(c, err, "创建角色")
		return
	}

	response.Success(c, role)
}

// GetByID 获取角色详情
func (h *RoleHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	role, err := h.service.GetByID(c.Request.Context(), middleware.TenantContext(c), id)
	if err != nil {
		handleServiceError(c, err, "获取角色")
		return
	}

	response.Success(c, role)
}

// GetAll 角色列表：本机构角色和系统角色
func (h *RoleHandler) GetAll(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)

	roles, total, err := h.service.List(c.Request.Context(), middleware.TenantContext(c), c.Query("status"), pageParams.Page, pageParams.PageSize)
	if err != nil {
		handleServiceError(c, err, "查询角色")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, roles, pageInfo)
}

// Update 更新角色
func (h *RoleHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateRoleInput
	if !bindJSON(c, &req) {
		return
	}

	role, err := h.service.Update(c.Request.Context(), middleware.TenantContext(c), id, &req)
	if err != nil {
		handleServiceError(c, err, "更新角色")
		return
	}

	response.Success(c, role)
}

// Delete 删除角色
func (h *RoleHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.TenantContext(c), id); err != nil {
		handleServiceError(c, err, "删除角色")
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// AssignPermissions 为角色分配权限（替换现有权限）
func (h *RoleHandler) AssignPermissions(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req AssignPermissionsRequest
	if !bindJSON(c, &req) {
		return
	}

	role, err := h.service.AssignPermissions(c.Request.Context(), middleware.TenantContext(c), id, req.PermissionIDs)
	if err != nil {
		handleServiceError(c, err, "分配权限")
		return
	}

	response.Success(c, role)
}
