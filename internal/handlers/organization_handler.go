package handlers

import (
	"encoding/json"

	"abroad/internal/middleware"
	"abroad/internal/services"
	"abroad/pkg/pagination"
	"abroad/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrganizationHandler struct {
	service *services.OrganizationService
}

func NewOrganizationHandler(service *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{
		service: service,
	}
}

// Create 创建机构
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req services.CreateOrganizationInput
	if !bindJSON(c, &req) {
		return
	}

	org, err := h.service.Create(c.Request.Context(), middleware.TenantContext(c), &req)
	if err != nil {
		handleServiceError(c, err, "创建机构")
		return
	}

	response.Success(c, org)
}

// GetByID 获取机构详情
func (h *OrganizationHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	org, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "获取机构")
		return
	}

	response.Success(c, org)
}

// GetAll 获取机构列表（支持状态、关键字过滤和分页）
func (h *OrganizationHandler) GetAll(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)

	orgs, total, err := h.service.GetWithFiltersAndPage(c.Request.Context(), c.Query("status"), c.Query("keyword"), pageParams.Page, pageParams.PageSize)
	if err != nil {
		handleServiceError(c, err, "查询机构")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, orgs, pageInfo)
}

// Update 更新机构
func (h *OrganizationHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateOrganizationInput
	if !bindJSON(c, &req) {
		return
	}

	org, err := h.service.Update(c.Request.Context(), middleware.TenantContext(c), id, &req)
	if err != nil {
		handleServiceError(c, err, "更新机构")
		return
	}

	response.Success(c, org)
}

// UpdateSettings 替换机构设置（JSON 对象）
func (h *OrganizationHandler) UpdateSettings(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var raw json.RawMessage
	if !bindJSON(c, &raw) {
		return
	}

	org, err := h.service.UpdateSettings(c.Request.Context(), middleware.TenantContext(c), id, raw)
	if err != nil {
		handleServiceError(c, err, "更新机构设置")
		return
	}

	response.Success(c, org)
}

// Delete 删除机构（机构下仍有用户时拒绝）
func (h *OrganizationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.TenantContext(c), id); err != nil {
		handleServiceError(c, err, "删除机构")
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// Activate 启用机构
func (h *OrganizationHandler) Activate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	org, err := h.service.Activate(c.Request.Context(), middleware.TenantContext(c), id)
	if err != nil {
		handleServiceError(c, err, "启用机构")
		return
	}

	response.Success(c, org)
}

// Deactivate 停用机构
func (h *OrganizationHandler) Deactivate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	org, err := h.service.Deactivate(c.Request.Context(), middleware.TenantContext(c), id)
	if err != nil {
		handleServiceError(c, err, "停用机构")
		return
	}

	response.Success(c, org)
}

// GetStats 机构统计
func (h *OrganizationHandler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "获取统计信息")
		return
	}

	response.Success(c, stats)
}
