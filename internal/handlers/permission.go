package handlers

import (
	"abroad/internal/services"
	"abroad/pkg/pagination"
	"abroad/pkg/response"

	"github.com/gin-gonic/gin"
)

type PermissionHandler struct {
	service *services.PermissionService
}

func NewPermissionHandler(service *services.PermissionService) *PermissionHandler {
	return &PermissionHandler{
		service: service,
	}
}

// GetAll 获取所有权限（支持分页）
func (h *PermissionHandler) GetAll(c *gin.Context) {
	// 解析分页参数
	pageParams := pagination.ParsePageParams(c)

	permissions, total, err := h.service.GetWithPage(c.Request.Context(), c.Query("module"), pageParams.Page, pageParams.PageSize)
	if err != nil {
		handleServiceError(c, err, "查询权限")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, permissions, pageInfo)
}

// GetByModule 根据模块获取权限
func (h *PermissionHandler) GetByModule(c *gin.Context) {
	module := c.Param("module")
	if module == "" {
		response.BadRequest(c, "模块名称不能为空")
		return
	}

	permissions, _, err := h.service.GetWithPage(c.Request.Context(), module, 1, pagination.MaxPageSize)
	if err != nil {
		handleServiceError(c, err, "查询权限")
		return
	}

	response.Success(c, permissions)
}

// GetByID 获取权限详情
func (h *PermissionHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	permission, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "查询权限")
		return
	}

	response.Success(c, permission)
}
