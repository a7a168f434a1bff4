package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User 用户模型，OrganizationID 为空表示平台用户
type User struct {
	BaseModel
	OrganizationID  *uint      `json:"organization_id" gorm:"index"`
	Username        string     `json:"username" gorm:"unique;not null;size:50;index"`
	Email           string     `json:"email" gorm:"unique;not null;size:100;index"`
	PasswordHash    string     `json:"-" gorm:"not null;size:255"`
	Name            string     `json:"name" gorm:"not null;size:100"`
	Phone           *string    `json:"phone" gorm:"size:20"`
	Status          string     `json:"status" gorm:"default:'active';size:20"`
	IsPlatformAdmin bool       `json:"is_platform_admin" gorm:"default:false"`
	IsOrgAdmin      bool       `json:"is_org_admin" gorm:"default:false"`
	LastLoginAt     *time.Time `json:"last_login_at"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Roles        []Role        `gorm:"many2many:user_roles;" json:"roles,omitempty"`
}

// TableName 表名
func (u *User) TableName() string {
	return "users"
}

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusLocked   = "locked"
)

// SetPassword 设置密码
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// IsActive 是否可登录
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// GetOrganizationID 所属机构
func (u *User) GetOrganizationID() *uint {
	return u.OrganizationID
}

// SetOrganizationID 设置所属机构
func (u *User) SetOrganizationID(id uint) {
	u.OrganizationID = &id
}

// IsPlatformUser 不属于任何机构
func (u *User) IsPlatformUser() bool {
	return u.OrganizationID == nil
}
