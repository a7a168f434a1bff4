package handlers

import (
	"strconv"

	"abroad/internal/middleware"
	"abroad/internal/tenancy"
	apperrors "abroad/pkg/errors"
	"abroad/pkg/response"
	"abroad/pkg/validation"

	"github.com/gin-gonic/gin"
)

// parseID 解析路径中的ID参数，失败时直接返回错误响应
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "ID格式错误")
		return 0, false
	}
	return uint(id), true
}

// parseOptionalID 解析查询参数中的ID，空字符串返回 nil
func parseOptionalID(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		response.BadRequest(c, name+"格式错误")
		return nil, false
	}
	v := uint(id)
	return &v, true
}

// bindJSON 绑定请求体，失败时返回字段级校验错误
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		handleServiceError(c, validation.FromBindError(err), "解析请求")
		return false
	}
	return true
}

// handleServiceError 统一的服务层错误到响应的映射
func handleServiceError(c *gin.Context, err error, action string) {
	var verr *apperrors.ValidationError
	switch {
	case apperrors.As(err, &verr):
		response.ValidationFailed(c, verr.Fields)
	case apperrors.Is(err, apperrors.ErrValidation):
		response.BadRequest(c, err.Error())
	case apperrors.Is(err, apperrors.ErrNotFound):
		response.NotFound(c, "记录不存在")
	case apperrors.Is(err, apperrors.ErrForbidden):
		response.Forbidden(c, "权限不足")
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		response.Unauthorized(c, "请先登录")
	case apperrors.Is(err, tenancy.ErrNoOrganization):
		response.BadRequest(c, err.Error())
	default:
		middleware.RequestLogger(c).WithError(err).WithField("action", action).Error("Service call failed")
		response.ServerError(c, action+"失败")
	}
}
