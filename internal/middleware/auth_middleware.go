package middleware

import (
	"context"
	"strings"

	"abroad/internal/models"
	"abroad/internal/services"
	"abroad/internal/tenancy"
	"abroad/pkg/jwt"
	"abroad/pkg/logger"
	"abroad/pkg/response"

	"github.com/gin-gonic/gin"
)

// 上下文键
const (
	ContextUser        = "user"
	ContextClaims      = "claims"
	ContextTenancy     = "tenancy"
	ContextPermissions = "permissions"
)

// TokenRevocation 已吊销令牌查询，由 redisstore.RedisStore 实现
type TokenRevocation interface {
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthMiddleware 认证与权限中间件
type AuthMiddleware struct {
	userService   *services.UserService
	jwtManager    *jwt.JWTManager
	revocation    TokenRevocation
	platformWrite bool
}

// NewAuthMiddleware 创建认证中间件，revocation 可以为空
func NewAuthMiddleware(userService *services.UserService, jwtManager *jwt.JWTManager, revocation TokenRevocation, platformWrite bool) *AuthMiddleware {
	return &AuthMiddleware{
		userService:   userService,
		jwtManager:    jwtManager,
		revocation:    revocation,
		platformWrite: platformWrite,
	}
}

// RequireLogin 校验令牌，加载用户及其权限，并构造本次请求的机构上下文
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从Authorization头获取JWT token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		// 检查Bearer格式
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(c, "认证头格式错误")
			c.Abort()
			return
		}

		claims, err := m.jwtManager.VerifyToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			response.Unauthorized(c, "Token无效或已过期")
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		if m.revocation != nil && claims.ID != "" {
			revoked, err := m.revocation.IsTokenRevoked(ctx, claims.ID)
			if err != nil {
				// Redis 不可用时不阻断请求
				logger.GetLogger().WithError(err).WithField("user_id", claims.UserID).Warn("Token revocation check failed")
			} else if revoked {
				response.Unauthorized(c, "Token已失效，请重新登录")
				c.Abort()
				return
			}
		}

		user, err := m.userService.FindActive(ctx, claims.UserID)
		if err != nil {
			response.Unauthorized(c, "用户不存在或已被禁用")
			c.Abort()
			return
		}

		permissions, err := m.userService.Permissions(ctx, user)
		if err != nil {
			logger.WithOrganization(user.OrganizationID).WithError(err).WithField("user_id", user.ID).Error("Failed to resolve permissions")
			response.ServerError(c, "权限检查失败")
			c.Abort()
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextClaims, claims)
		c.Set(ContextPermissions, permissions)
		c.Set(ContextTenancy, tenancy.ForRequest(ActorFor(user), m.platformWrite))

		c.Next()
	}
}

// RequirePermission 要求特定权限
func (m *AuthMiddleware) RequirePermission(permissionCode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		if !Permissions(c).Has(permissionCode) {
			response.Forbidden(c, "权限不足：需要 "+permissionCode+" 权限")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequirePlatformAdmin 要求平台管理员
func (m *AuthMiddleware) RequirePlatformAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		if !user.IsPlatformAdmin {
			response.Forbidden(c, "需要平台管理员权限")
			c.Abort()
			return
		}

		c.Next()
	}
}

// CombineMiddleware 组合中间件（登录 + 权限）
func (m *AuthMiddleware) CombineMiddleware(permissionCode string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.RequireLogin(),
		m.RequirePermission(permissionCode),
	}
}

// ========== 上下文读取 ==========

// ActorFor 由用户构造操作者
func ActorFor(user *models.User) tenancy.Actor {
	if user.OrganizationID != nil {
		actor := tenancy.TenantActor(user.ID, *user.OrganizationID)
		actor.IsOrgAdmin = user.IsOrgAdmin
		return actor
	}
	return tenancy.PlatformActor(user.ID, user.IsPlatformAdmin)
}

// CurrentUser 当前登录用户，未登录返回 nil
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ContextUser); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CurrentClaims 当前令牌声明
func CurrentClaims(c *gin.Context) *jwt.JWTClaims {
	if v, ok := c.Get(ContextClaims); ok {
		if claims, ok := v.(*jwt.JWTClaims); ok {
			return claims
		}
	}
	return nil
}

// TenantContext 本次请求的机构上下文，未登录时为匿名上下文
func TenantContext(c *gin.Context) tenancy.Context {
	if v, ok := c.Get(ContextTenancy); ok {
		if tc, ok := v.(tenancy.Context); ok {
			return tc
		}
	}
	return tenancy.ForRequest(tenancy.Anonymous(), false)
}

// Permissions 当前用户的权限集合
func Permissions(c *gin.Context) services.PermissionSet {
	if v, ok := c.Get(ContextPermissions); ok {
		if set, ok := v.(services.PermissionSet); ok {
			return set
		}
	}
	return services.NewPermissionSet()
}
