package handlers

import (
	"abroad/internal/middleware"
	"abroad/internal/services"
	"abroad/pkg/response"

	"github.com/gin-gonic/gin"
)

type CountryHandler struct {
	service *services.CountryService
}

func NewCountryHandler(service *services.CountryService) *CountryHandler {
	return &CountryHandler{service: service}
}

// List 国家列表，keyword 按名称或代码过滤
func (h *CountryHandler) List(c *gin.Context) {
	countries, err := h.service.List(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		handleServiceError(c, err, "查询国家")
		return
	}

	response.Success(c, countries)
}

// GetByID 获取国家
func (h *CountryHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	country, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "查询国家")
		return
	}

	response.Success(c, country)
}

// Create 创建国家（平台用户）
func (h *CountryHandler) Create(c *gin.Context) {
	var req services.CountryInput
	if !bindJSON(c, &req) {
		return
	}

	country, err := h.service.Create(c.Request.Context(), middleware.TenantContext(c), &req)
	if err != nil {
		handleServiceError(c, err, "创建国家")
		return
	}

	response.Success(c, country)
}
