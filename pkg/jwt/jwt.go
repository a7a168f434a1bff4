package jwt

import (
	"errors"
	"sync"
	"time"

	"abroad/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "abroad"

// Identity 令牌携带的身份；OrganizationID 为空表示平台用户
type Identity struct {
	UserID          uint
	OrganizationID  *uint
	Username        string
	IsPlatformAdmin bool
	IsOrgAdmin      bool
}

// JWTClaims JWT声明，RegisteredClaims.ID 用于登出吊销
type JWTClaims struct {
	UserID          uint   `json:"user_id"`
	OrganizationID  *uint  `json:"organization_id"`
	Username        string `json:"username"`
	IsPlatformAdmin bool   `json:"is_platform_admin"`
	IsOrgAdmin      bool   `json:"is_org_admin"`
	jwt.RegisteredClaims
}

// Identity 声明中的身份
func (c *JWTClaims) Identity() Identity {
	return Identity{
		UserID:          c.UserID,
		OrganizationID:  c.OrganizationID,
		Username:        c.Username,
		IsPlatformAdmin: c.IsPlatformAdmin,
		IsOrgAdmin:      c.IsOrgAdmin,
	}
}

// IssuedToken 签发结果
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// JWTManager JWT管理器
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// NewJWTManager 创建JWT管理器
func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		now:           time.Now,
	}
}

// Issue 为身份签发新令牌，每次签发使用新的令牌ID
func (manager *JWTManager) Issue(identity Identity) (*IssuedToken, error) {
	now := manager.now()
	expiresAt := now.Add(manager.tokenDuration)
	id := uuid.NewString()

	claims := JWTClaims{
		UserID:          identity.UserID,
		OrganizationID:  identity.OrganizationID,
		Username:        identity.Username,
		IsPlatformAdmin: identity.IsPlatformAdmin,
		IsOrgAdmin:      identity.IsOrgAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   identity.Username,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(manager.secretKey)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: signed, ID: id, ExpiresAt: expiresAt}, nil
}

// VerifyToken 验证签名、有效期和签发方
func (manager *JWTManager) VerifyToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return manager.secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(manager.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, errors.New("令牌缺少ID")
	}
	return claims, nil
}

var (
	defaultManager *JWTManager
	once           sync.Once
)

// GetJWTManager 按全局配置创建的JWT管理器
func GetJWTManager() *JWTManager {
	once.Do(func() {
		cfg := config.GetConfig()
		tokenDuration, err := time.ParseDuration(cfg.JWT.TokenDuration)
		if err != nil {
			tokenDuration = 24 * time.Hour
		}
		defaultManager = NewJWTManager(cfg.JWT.SecretKey, tokenDuration)
	})
	return defaultManager
}
