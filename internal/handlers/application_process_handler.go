package handlers

import (
	"abroad/internal/middleware"
	"abroad/internal/models"
	"abroad/internal/projection"
	"abroad/internal/services"
	"abroad/pkg/response"

	"github.com/gin-gonic/gin"
)

type ApplicationProcessHandler struct {
	service *services.ApplicationProcessService
}

func NewApplicationProcessHandler(service *services.ApplicationProcessService) *ApplicationProcessHandler {
	return &ApplicationProcessHandler{service: service}
}

func (h *ApplicationProcessHandler) detail(c *gin.Context, p *models.ApplicationProcess) {
	perms := middleware.Permissions(c)
	response.Success(c, projection.Detail{
		Item:      projection.ApplicationProcess(p, projection.ViewFor(perms)),
		Abilities: projection.AbilitiesFor(perms, models.ModuleApplicationProcess),
	})
}

// Create 创建申请流程
func (h *ApplicationProcessHandler) Create(c *gin.Context) {
	var req services.CreateApplicationProcessInput
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.service.Create(c.Request.Context(), middleware.TenantContext(c), &req)
	if err != nil {
		handleServiceError(c, err, "创建申请流程")
		return
	}

	h.detail(c, p)
}

// GetByID 获取申请流程
func (h *ApplicationProcessHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), middleware.TenantContext(c), id)
	if err != nil {
		handleServiceError(c, err, "获取申请流程")
		return
	}

	h.detail(c, p)
}

// List 申请流程列表，支持 parent_id / root_only / status 过滤
func (h *ApplicationProcessHandler) List(c *gin.Context) {
	parentID, ok := parseOptionalID(c, "parent_id")
	if !ok {
		return
	}

	filter := services.ApplicationProcessFilter{
		ParentID: parentID,
		RootOnly: c.Query("root_only") == "true",
		Status:   c.Query("status"),
	}
	items, err := h.service.List(c.Request.Context(), middleware.TenantContext(c), filter)
	if err != nil {
		handleServiceError(c, err, "获取申请流程列表")
		return
	}

	perms := middleware.Permissions(c)
	response.Success(c, projection.Collection{
		Items:     projection.ApplicationProcesses(items, projection.ViewFor(perms)),
		Abilities: projection.AbilitiesFor(perms, models.ModuleApplicationProcess),
	})
}

// Tree 申请流程树
func (h *ApplicationProcessHandler) Tree(c *gin.Context) {
	nodes, err := h.service.Tree(c.Request.Context(), middleware.TenantContext(c))
	if err != nil {
		handleServiceError(c, err, "获取申请流程树")
		return
	}

	perms := middleware.Permissions(c)
	response.Success(c, projection.Collection{
		Items:     projection.ApplicationProcessTree(nodes, projection.ViewFor(perms)),
		Abilities: projection.AbilitiesFor(perms, models.ModuleApplicationProcess),
	})
}

// Update 更新申请流程
func (h *ApplicationProcessHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateApplicationProcessInput
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), middleware.TenantContext(c), id, &req)
	if err != nil {
		handleServiceError(c, err, "更新申请流程")
		return
	}

	h.detail(c, p)
}

// Activate 启用申请流程
func (h *ApplicationProcessHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate 停用申请流程
func (h *ApplicationProcessHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *ApplicationProcessHandler) setActive(c *gin.Context, active bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.SetActive(c.Request.Context(), middleware.TenantContext(c), id, active)
	if err != nil {
		handleServiceError(c, err, "更新申请流程")
		return
	}

	h.detail(c, p)
}

// Delete 删除申请流程及其子流程
func (h *ApplicationProcessHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.TenantContext(c), id); err != nil {
		handleServiceError(c, err, "删除申请流程")
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// Reorder 同级申请流程重新排序
func (h *ApplicationProcessHandler) Reorder(c *gin.Context) {
	var req services.ReorderProcessesInput
	if !bindJSON(c, &req) {
		return
	}

	applied, err := h.service.Reorder(c.Request.Context(), middleware.TenantContext(c), &req)
	if err != nil {
		handleServiceError(c, err, "申请流程排序")
		return
	}

	response.Success(c, gin.H{"applied": applied})
}
