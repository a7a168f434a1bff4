package handlers

import (
	"context"
	"errors"
	"time"

	"abroad/internal/middleware"
	"abroad/internal/models"
	"abroad/internal/services"
	"abroad/pkg/jwt"
	"abroad/pkg/response"

	"github.com/gin-gonic/gin"
)

// TokenRevoker 令牌吊销存储，由 redisstore.RedisStore 实现
type TokenRevoker interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type AuthHandler struct {
	userService *services.UserService
	jwtManager  *jwt.JWTManager
	revoker     TokenRevoker
}

// NewAuthHandler 创建认证处理器，revoker 为空时登出不吊销令牌
func NewAuthHandler(userService *services.UserService, jwtManager *jwt.JWTManager, revoker TokenRevoker) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		jwtManager:  jwtManager,
		revoker:     revoker,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string   `json:"token"`
	ExpiresAt int64    `json:"expires_at"`
	User      UserInfo `json:"user"`
}

type UserInfo struct {
	ID              uint     `json:"id"`
	Username        string   `json:"username"`
	Email           string   `json:"email"`
	Name            string   `json:"name"`
	OrganizationID  *uint    `json:"organization_id"`
	IsPlatformAdmin bool     `json:"is_platform_admin"`
	IsOrgAdmin      bool     `json:"is_org_admin"`
	Permissions     []string `json:"permissions,omitempty"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func identityOf(user *models.User) jwt.Identity {
	return jwt.Identity{
		UserID:          user.ID,
		OrganizationID:  user.OrganizationID,
		Username:        user.Username,
		IsPlatformAdmin: user.IsPlatformAdmin,
		IsOrgAdmin:      user.IsOrgAdmin,
	}
}

func newUserInfo(user *models.User, permissions services.PermissionSet) UserInfo {
	info := UserInfo{
		ID:              user.ID,
		Username:        user.Username,
		Email:           user.Email,
		Name:            user.Name,
		OrganizationID:  user.OrganizationID,
		IsPlatformAdmin: user.IsPlatformAdmin,
		IsOrgAdmin:      user.IsOrgAdmin,
	}
	if permissions != nil {
		info.Permissions = permissions.Codes()
	}
	return info
}

// Login 用户登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误")
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			response.Unauthorized(c, "用户名或密码错误")
		case errors.Is(err, services.ErrUserDisabled):
			response.Unauthorized(c, "用户已被禁用")
		default:
			handleServiceError(c, err, "登录")
		}
		return
	}

	issued, err := h.jwtManager.Issue(identityOf(user))
	if err != nil {
		middleware.RequestLogger(c).WithError(err).Error("Failed to issue token")
		response.ServerError(c, "生成Token失败")
		return
	}

	permissions, err := h.userService.Permissions(c.Request.Context(), user)
	if err != nil {
		handleServiceError(c, err, "获取权限")
		return
	}

	middleware.RequestLogger(c).WithField("user_id", user.ID).Info("User logged in")
	response.Success(c, LoginResponse{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt.Unix(),
		User:      newUserInfo(user, permissions),
	})
}

// Logout 用户登出，令牌在过期前被吊销
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Success(c, gin.H{"message": "登出成功"})
		return
	}

	if h.revoker != nil && claims.ID != "" && claims.ExpiresAt != nil {
		if err := h.revoker.RevokeToken(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			middleware.RequestLogger(c).WithError(err).Warn("Failed to revoke token")
		}
	}

	response.Success(c, gin.H{
		"message":     "登出成功",
		"user_id":     claims.UserID,
		"username":    claims.Username,
		"logout_time": time.Now(),
	})
}

// RefreshToken 刷新Token，旧令牌随即吊销
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	user := middleware.CurrentUser(c)
	if claims == nil || user == nil {
		response.Unauthorized(c, "请先登录")
		return
	}

	issued, err := h.jwtManager.Issue(identityOf(user))
	if err != nil {
		response.ServerError(c, "生成新Token失败")
		return
	}

	if h.revoker != nil && claims.ID != "" && claims.ExpiresAt != nil {
		if err := h.revoker.RevokeToken(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			middleware.RequestLogger(c).WithError(err).Warn("Failed to revoke refreshed token")
		}
	}

	response.Success(c, gin.H{
		"token":      issued.Token,
		"expires_at": issued.ExpiresAt.Unix(),
	})
}

// Me 当前用户信息及权限
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "请先登录")
		return
	}
	response.Success(c, newUserInfo(user, middleware.Permissions(c)))
}

// ChangePassword 修改自己的密码
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "请先登录")
		return
	}

	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		handleServiceError(c, err, "修改密码")
		return
	}

	response.SuccessWithMessage(c, "密码修改成功", nil)
}
