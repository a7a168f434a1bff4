package middleware

import (
	"runtime/debug"

	"abroad/pkg/logger"
	"abroad/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader 请求ID响应头
const RequestIDHeader = "X-Request-ID"

// ContextRequestID 请求ID上下文键
const ContextRequestID = "request_id"

// RequestID 透传或生成请求ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger 带请求ID的日志条目
func RequestLogger(c *gin.Context) *logrus.Entry {
	entry := logger.GetLogger().WithField("request_id", c.GetString(ContextRequestID))
	if user := CurrentUser(c); user != nil {
		entry = entry.WithField("user_id", user.ID)
		if user.OrganizationID != nil {
			entry = entry.WithField("organization_id", *user.OrganizationID)
		}
	}
	return entry
}

// ErrorHandler 错误处理中间件 - 主要处理panic
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				RequestLogger(c).WithField("stack", string(debug.Stack())).Errorf("Panic recovered: %v", err)
				response.ServerError(c, "服务器内部错误")
				c.Abort()
			}
		}()

		c.Next()
	}
}
