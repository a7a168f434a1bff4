package handlers

import (
	"abroad/internal/middleware"
	"abroad/internal/models"
	"abroad/internal/projection"
	"abroad/internal/services"
	"abroad/pkg/response"

	"github.com/gin-gonic/gin"
)

// RenameStatusRequest 修改显示名称，空值恢复系统名称
type RenameStatusRequest struct {
	CustomName *string `json:"custom_name"`
}

type StatusHandler struct {
	statuses *services.RepCountryStatusService
	subs     *services.SubStatusService
}

func NewStatusHandler(statuses *services.RepCountryStatusService, subs *services.SubStatusService) *StatusHandler {
	return &StatusHandler{
		statuses: statuses,
		subs:     subs,
	}
}

func (h *StatusHandler) status(c *gin.Context, st *models.RepCountryStatus) {
	perms := middleware.Permissions(c)
	response.Success(c, projection.Detail{
		Item:      projection.Status(st, projection.ViewFor(perms)),
		Abilities: projection.AbilitiesFor(perms, models.ModuleRepresentingCountry),
	})
}

func (h *StatusHandler) subStatus(c *gin.Context, sub *models.SubStatus) {
	perms := middleware.Permissions(c)
	response.Success(c, projection.Detail{
		Item:      projection.SubStatus(sub, projection.ViewFor(perms)),
		Abilities: projection.AbilitiesFor(perms, models.ModuleRepresentingCountry),
	})
}

func (h *StatusHandler) subStatusCollection(c *gin.Context, items []models.SubStatus) {
	perms := middleware.Permissions(c)
	response.Success(c, projection.Collection{
		Items:     projection.SubStatuses(items, projection.ViewFor(perms)),
		Abilities: projection.AbilitiesFor(perms, models.ModuleRepresentingCountry),
	})
}

// ========== 状态 ==========

// GetByID 获取状态详情（含子状态）
func (h *StatusHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	st, err := h.statuses.GetByID(c.Request.Context(), middleware.TenantContext(c), id)
	if err != nil {
		handleServiceError(c, err, "获取状态")
		return
	}

	h.status(c, st)
}

// Update 更新状态
func (h *StatusHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateStatusInput
	if !bindJSON(c, &req) {
		return
	}

	st, err := h.statuses.Update(c.Request.Context(), middleware.TenantContext(c), id, &req)
	if err != nil {
		handleServiceError(c, err, "更新状态")
		return
	}

	h.status(c, st)
}

// Rename 修改状态显示名称，系统名称保持不变
func (h *StatusHandler) Rename(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req RenameStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	st, err := h.statuses.Rename(c.Request.Context(), middleware.TenantContext(c), id, req.CustomName)
	if err != nil {
		handleServiceError(c, err, "修改状态名称")
		return
	}

	h.status(c, st)
}

// Activate 启用状态
func (h *StatusHandler) Activate(c *gin.Context) {
	h.setStatusActive(c, true)
}

// Deactivate 停用状态
func (h *StatusHandler) Deactivate(c *gin.Context) {
	h.setStatusActive(c, false)
}

func (h *StatusHandler) setStatusActive(c *gin.Context, active bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	st, err := h.statuses.SetActive(c.Request.Context(), middleware.TenantContext(c), id, active)
	if err != nil {
		handleServiceError(c, err, "更新状态")
		return
	}

	h.status(c, st)
}

// Delete 删除状态及其子状态
func (h *StatusHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.statuses.Delete(c.Request.Context(), middleware.TenantContext(c), id); err != nil {
		handleServiceError(c, err, "删除状态")
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// ========== 子状态 ==========

// ListSubStatuses 状态下的子状态
func (h *StatusHandler) ListSubStatuses(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	items, err := h.subs.List(c.Request.Context(), middleware.TenantContext(c), id)
	if err != nil {
		handleServiceError(c, err, "获取子状态列表")
		return
	}

	h.subStatusCollection(c, items)
}

// AddSubStatus 追加子状态
func (h *StatusHandler) AddSubStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.AddSubStatusInput
	if !bindJSON(c, &req) {
		return
	}

	sub, err := h.subs.Add(c.Request.Context(), middleware.TenantContext(c), id, &req)
	if err != nil {
		handleServiceError(c, err, "添加子状态")
		return
	}

	h.subStatus(c, sub)
}

// ReorderSubStatuses 子状态重新排序
func (h *StatusHandler) ReorderSubStatuses(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.PositionsInput
	if !bindJSON(c, &req) {
		return
	}

	tc := middleware.TenantContext(c)
	applied, err := h.subs.Reorder(c.Request.Context(), tc, id, &req)
	if err != nil {
		handleServiceError(c, err, "子状态排序")
		return
	}

	items, err := h.subs.List(c.Request.Context(), tc, id)
	if err != nil {
		handleServiceError(c, err, "获取子状态列表")
		return
	}

	perms := middleware.Permissions(c)
	response.Success(c, gin.H{
		"applied": applied,
		"items":   projection.SubStatuses(items, projection.ViewFor(perms)),
	})
}

// GetSubStatus 获取子状态
func (h *StatusHandler) GetSubStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	sub, err := h.subs.GetByID(c.Request.Context(), middleware.TenantContext(c), id)
	if err != nil {
		handleServiceError(c, err, "获取子状态")
		return
	}

	h.subStatus(c, sub)
}

// UpdateSubStatus 更新子状态
func (h *StatusHandler) UpdateSubStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateSubStatusInput
	if !bindJSON(c, &req) {
		return
	}

	sub, err := h.subs.Update(c.Request.Context(), middleware.TenantContext(c), id, &req)
	if err != nil {
		handleServiceError(c, err, "更新子状态")
		return
	}

	h.subStatus(c, sub)
}

// ActivateSubStatus 启用子状态
func (h *StatusHandler) ActivateSubStatus(c *gin.Context) {
	h.setSubStatusActive(c, true)
}

// DeactivateSubStatus 停用子状态
func (h *StatusHandler) DeactivateSubStatus(c *gin.Context) {
	h.setSubStatusActive(c, false)
}

func (h *StatusHandler) setSubStatusActive(c *gin.Context, active bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	sub, err := h.subs.SetActive(c.Request.Context(), middleware.TenantContext(c), id, active)
	if err != nil {
		handleServiceError(c, err, "更新子状态")
		return
	}

	h.subStatus(c, sub)
}

// DeleteSubStatus 删除子状态
func (h *StatusHandler) DeleteSubStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.subs.Delete(c.Request.Context(), middleware.TenantContext(c), id); err != nil {
		handleServiceError(c, err, "删除子状态")
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}
