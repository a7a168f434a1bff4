package handlers

import (
	"strings"

	"abroad/internal/middleware"
	"abroad/internal/models"
	"abroad/internal/projection"
	"abroad/internal/services"
	"abroad/pkg/pagination"
	"abroad/pkg/response"

	"github.com/gin-gonic/gin"
)

type RepresentingCountryHandler struct {
	service  *services.RepresentingCountryService
	statuses *services.RepCountryStatusService
}

func NewRepresentingCountryHandler(service *services.RepresentingCountryService, statuses *services.RepCountryStatusService) *RepresentingCountryHandler {
	return &RepresentingCountryHandler{
		service:  service,
		statuses: statuses,
	}
}

// parseInclude 解析 include 参数，为空时使用默认值
func parseInclude(c *gin.Context, def services.LoadOptions) services.LoadOptions {
	raw := c.Query("include")
	if raw == "" {
		return def
	}
	var opts services.LoadOptions
	for _, part := range strings.Split(raw, ",") {
		switch strings.TrimSpace(part) {
		case "statuses":
			opts.Statuses = true
		case "sub_statuses":
			opts.Statuses = true
			opts.SubStatuses = true
		case "application_processes":
			opts.ApplicationProcesses = true
		}
	}
	return opts
}

func (h *RepresentingCountryHandler) detail(c *gin.Context, rc *models.RepresentingCountry) {
	perms := middleware.Permissions(c)
	response.Success(c, projection.Detail{
		Item:      projection.RepresentingCountry(rc, projection.ViewFor(perms)),
		Abilities: projection.AbilitiesFor(perms, models.ModuleRepresentingCountry),
	})
}

// ========== 基础CRUD方法 ==========

// Create 创建代理国家
func (h *RepresentingCountryHandler) Create(c *gin.Context) {
	var req services.CreateRepresentingCountryInput
	if !bindJSON(c, &req) {
		return
	}

	rc, err := h.service.Create(c.Request.Context(), middleware.TenantContext(c), &req)
	if err != nil {
		handleServiceError(c, err, "创建代理国家")
		return
	}

	h.detail(c, rc)
}

// GetByID 获取代理国家详情，默认加载全部关联
func (h *RepresentingCountryHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	rc, err := h.service.GetByID(c.Request.Context(), middleware.TenantContext(c), id, parseInclude(c, services.LoadAll))
	if err != nil {
		handleServiceError(c, err, "获取代理国家")
		return
	}

	h.detail(c, rc)
}

// List 分页获取代理国家
func (h *RepresentingCountryHandler) List(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	countryID, ok := parseOptionalID(c, "country_id")
	if !ok {
		return
	}

	filter := services.RepresentingCountryFilter{
		CountryID: countryID,
		Status:    c.Query("status"),
	}
	items, total, err := h.service.List(c.Request.Context(), middleware.TenantContext(c), filter, params.Page, params.PageSize)
	if err != nil {
		handleServiceError(c, err, "获取代理国家列表")
		return
	}

	perms := middleware.Permissions(c)
	response.SuccessWithPage(c, projection.Collection{
		Items:     projection.RepresentingCountries(items, projection.ViewFor(perms)),
		Abilities: projection.AbilitiesFor(perms, models.ModuleRepresentingCountry),
	}, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Update 更新代理国家（只覆盖传入的字段）
func (h *RepresentingCountryHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateRepresentingCountryInput
	if !bindJSON(c, &req) {
		return
	}

	rc, err := h.service.Update(c.Request.Context(), middleware.TenantContext(c), id, &req)
	if err != nil {
		handleServiceError(c, err, "更新代理国家")
		return
	}

	h.detail(c, rc)
}

// Delete 删除代理国家，状态与子状态一并删除
func (h *RepresentingCountryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.TenantContext(c), id); err != nil {
		handleServiceError(c, err, "删除代理国家")
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// ========== 状态管理方法 ==========

// Activate 启用代理国家
func (h *RepresentingCountryHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate 停用代理国家
func (h *RepresentingCountryHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *RepresentingCountryHandler) setActive(c *gin.Context, active bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	rc, err := h.service.SetActive(c.Request.Context(), middleware.TenantContext(c), id, active)
	if err != nil {
		handleServiceError(c, err, "更新代理国家状态")
		return
	}

	h.detail(c, rc)
}

// ========== 回收站 ==========

// ListTrashed 已删除的代理国家
func (h *RepresentingCountryHandler) ListTrashed(c *gin.Context) {
	params := pagination.ParsePageParams(c)

	items, total, err := h.service.ListTrashed(c.Request.Context(), middleware.TenantContext(c), params.Page, params.PageSize)
	if err != nil {
		handleServiceError(c, err, "获取回收站")
		return
	}

	perms := middleware.Permissions(c)
	response.SuccessWithPage(c, projection.Collection{
		Items:     projection.RepresentingCountries(items, projection.ViewFor(perms)),
		Abilities: projection.AbilitiesFor(perms, models.ModuleRepresentingCountry),
	}, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Restore 恢复代理国家及随之删除的状态
func (h *RepresentingCountryHandler) Restore(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	rc, err := h.service.Restore(c.Request.Context(), middleware.TenantContext(c), id)
	if err != nil {
		handleServiceError(c, err, "恢复代理国家")
		return
	}

	h.detail(c, rc)
}

// ========== 状态列表 ==========

func (h *RepresentingCountryHandler) statusCollection(c *gin.Context, items []models.RepCountryStatus) {
	perms := middleware.Permissions(c)
	response.Success(c, projection.Collection{
		Items:     projection.Statuses(items, projection.ViewFor(perms)),
		Abilities: projection.AbilitiesFor(perms, models.ModuleRepresentingCountry),
	})
}

// ListStatuses 代理国家的状态列表，with=sub_statuses 时包含子状态
func (h *RepresentingCountryHandler) ListStatuses(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	items, err := h.statuses.List(c.Request.Context(), middleware.TenantContext(c), id, c.Query("with") == "sub_statuses")
	if err != nil {
		handleServiceError(c, err, "获取状态列表")
		return
	}

	h.statusCollection(c, items)
}

// AddStatus 追加状态
func (h *RepresentingCountryHandler) AddStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.AddStatusInput
	if !bindJSON(c, &req) {
		return
	}

	status, err := h.statuses.Add(c.Request.Context(), middleware.TenantContext(c), id, &req)
	if err != nil {
		handleServiceError(c, err, "添加状态")
		return
	}

	perms := middleware.Permissions(c)
	response.Success(c, projection.Detail{
		Item:      projection.Status(status, projection.ViewFor(perms)),
		Abilities: projection.AbilitiesFor(perms, models.ModuleRepresentingCountry),
	})
}

// ReorderStatuses 按传入的 order 重新排序，New 状态保持不变
func (h *RepresentingCountryHandler) ReorderStatuses(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.PositionsInput
	if !bindJSON(c, &req) {
		return
	}

	tc := middleware.TenantContext(c)
	applied, err := h.statuses.Reorder(c.Request.Context(), tc, id, &req)
	if err != nil {
		handleServiceError(c, err, "状态排序")
		return
	}

	items, err := h.statuses.List(c.Request.Context(), tc, id, false)
	if err != nil {
		handleServiceError(c, err, "获取状态列表")
		return
	}

	perms := middleware.Permissions(c)
	response.Success(c, gin.H{
		"applied":   applied,
		"items":     projection.Statuses(items, projection.ViewFor(perms)),
		"abilities": projection.AbilitiesFor(perms, models.ModuleRepresentingCountry),
	})
}

// UpdateStatusNotes 批量更新状态备注
func (h *RepresentingCountryHandler) UpdateStatusNotes(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.StatusNotesInput
	if !bindJSON(c, &req) {
		return
	}

	applied, err := h.statuses.BulkUpdateNotes(c.Request.Context(), middleware.TenantContext(c), id, &req)
	if err != nil {
		handleServiceError(c, err, "更新状态备注")
		return
	}

	response.Success(c, gin.H{"applied": applied})
}

// EnsureDefaultStatuses 补齐默认状态
func (h *RepresentingCountryHandler) EnsureDefaultStatuses(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	items, err := h.statuses.EnsureDefaults(c.Request.Context(), middleware.TenantContext(c), id)
	if err != nil {
		handleServiceError(c, err, "补齐默认状态")
		return
	}

	h.statusCollection(c, items)
}
