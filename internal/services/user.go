package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"abroad/internal/models"
	"abroad/internal/tenancy"
	apperrors "abroad/pkg/errors"
	"abroad/pkg/pagination"
	"abroad/pkg/validation"

	"gorm.io/gorm"
)

// ErrInvalidCredentials 用户名或密码错误
var ErrInvalidCredentials = errors.New("用户名或密码错误")

// ErrUserDisabled 用户已停用或锁定
var ErrUserDisabled = errors.New("用户已被禁用")

// CreateUserInput 创建用户
type CreateUserInput struct {
	OrganizationID *uint   `json:"organization_id"`
	Username       string  `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email          string  `json:"email" validate:"required,email,max=100"`
	Password       string  `json:"password" validate:"required,min=6,max=72"`
	Name           string  `json:"name" validate:"required,max=100"`
	Phone          *string `json:"phone" validate:"omitempty,max=20"`
	IsOrgAdmin     bool    `json:"is_org_admin"`
	RoleIDs        []uint  `json:"role_ids"`
}

// UpdateUserInput 部分更新
type UpdateUserInput struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email  *string `json:"email" validate:"omitempty,email,max=100"`
	Phone  *string `json:"phone" validate:"omitempty,max=20"`
	Status *string `json:"status" validate:"omitempty,oneof=active inactive locked"`
}

// UserService 用户服务
type UserService struct {
	db          *gorm.DB
	users       *tenancy.Repository[models.User, *models.User]
	permissions *PermissionService
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		db:          db,
		users:       tenancy.NewRepository[models.User](db),
		permissions: NewPermissionService(db),
	}
}

// Create 创建用户；平台用户（不属于机构）只能由平台管理员创建
func (s *UserService) Create(ctx context.Context, tc tenancy.Context, in *CreateUserInput) (*models.User, error) {
	if in.OrganizationID == nil && tc.Actor.IsPlatform() && tc.Mode == tenancy.ModeRequest {
		tc = tenancy.ForPlatformAdmin(tc.Actor)
	}
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user := &models.User{
		OrganizationID: in.OrganizationID,
		Username:       strings.TrimSpace(in.Username),
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		Name:           strings.TrimSpace(in.Name),
		Phone:          in.Phone,
		Status:         models.UserStatusActive,
		IsOrgAdmin:     in.IsOrgAdmin,
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureUnique(tx, user.Username, user.Email, 0); err != nil {
			return err
		}
		if err := s.users.Create(tx, tc, user); err != nil {
			return err
		}
		if len(in.RoleIDs) > 0 {
			return assignRoles(tx, user, in.RoleIDs)
		}
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			logTxError(tc, "user", user.ID, "create", err)
		}
		return nil, err
	}

	return s.GetByID(ctx, tc, user.ID)
}

// GetByID 根据ID获取用户（机构用户只能看到本机构用户）
func (s *UserService) GetByID(ctx context.Context, tc tenancy.Context, id uint) (*models.User, error) {
	return s.users.Find(s.db.WithContext(ctx), tc, id, "Organization", "Roles")
}

// List 分页查询
func (s *UserService) List(ctx context.Context, tc tenancy.Context, status, keyword string, page, pageSize int) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := s.users.Query(s.db.WithContext(ctx), tc)

	// 添加过滤条件
	if status != "" {
		query = query.Where("users.status = ?", status)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("users.username LIKE ? OR users.email LIKE ? OR users.name LIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	// 计算总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Organization").Preload("Roles").
		Order("users.created_at DESC").Order("users.id DESC").
		Scopes(pagination.Paginate(page, pageSize)).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Update 部分更新
func (s *UserService) Update(ctx context.Context, tc tenancy.Context, id uint, in *UpdateUserInput) (*models.User, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.users.Find(tx, tc, id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			updates["name"] = strings.TrimSpace(*in.Name)
		}
		if in.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*in.Email))
			// 如果邮箱变更，检查是否重复
			if email != user.Email {
				if err := s.ensureUnique(tx, "", email, user.ID); err != nil {
					return err
				}
			}
			updates["email"] = email
		}
		if in.Phone != nil {
			updates["phone"] = *in.Phone
		}
		if in.Status != nil {
			updates["status"] = *in.Status
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(user).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, tc, id)
}

// Delete 删除用户，不能删除自己
func (s *UserService) Delete(ctx context.Context, tc tenancy.Context, id uint) error {
	if err := tc.AuthorizeWrite(); err != nil {
		return err
	}
	if tc.Actor.UserID == id {
		return apperrors.NewValidationError("id", "不能删除当前登录用户")
	}

	db := s.db.WithContext(ctx)
	user, err := s.users.Find(db, tc, id)
	if err != nil {
		return err
	}
	return db.Delete(user).Error
}

// ResetPassword 管理员重置密码
func (s *UserService) ResetPassword(ctx context.Context, tc tenancy.Context, id uint, newPassword string) error {
	if err := tc.AuthorizeWrite(); err != nil {
		return err
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	user, err := s.users.Find(db, tc, id)
	if err != nil {
		return err
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	return db.Model(user).Update("password_hash", user.PasswordHash).Error
}

// ChangePassword 用户修改自己的密码
func (s *UserService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return tenancy.NotFound(err)
	}
	if !user.CheckPassword(oldPassword) {
		return apperrors.NewValidationError("old_password", "原密码错误")
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	return db.Model(&user).Update("password_hash", user.PasswordHash).Error
}

// AssignRoles 分配角色（替换现有角色）
func (s *UserService) AssignRoles(ctx context.Context, tc tenancy.Context, id uint, roleIDs []uint) (*models.User, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.users.Find(tx, tc, id)
		if err != nil {
			return err
		}
		return assignRoles(tx, user, roleIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, tc, id)
}

// Authenticate 登录校验，成功后更新最后登录时间
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	err := db.Preload("Organization").
		Where("username = ? OR email = ?", username, strings.ToLower(username)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrUserDisabled
	}
	if user.Organization != nil && user.Organization.Status != models.OrganizationStatusActive {
		return nil, ErrUserDisabled
	}

	now := time.Now()
	if err := db.Model(&user).UpdateColumn("last_login_at", now).Error; err != nil {
		return nil, err
	}
	user.LastLoginAt = &now
	return &user, nil
}

// FindActive 认证中间件使用：不做机构过滤，只返回可登录的用户
func (s *UserService) FindActive(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, tenancy.NotFound(err)
	}
	if !user.IsActive() {
		return nil, ErrUserDisabled
	}
	return &user, nil
}

// Permissions 用户的权限集合
func (s *UserService) Permissions(ctx context.Context, user *models.User) (PermissionSet, error) {
	return s.permissions.Resolve(ctx, user)
}

// HasPermission 检查用户是否拥有权限
func (s *UserService) HasPermission(ctx context.Context, user *models.User, permissionCode string) (bool, error) {
	set, err := s.Permissions(ctx, user)
	if err != nil {
		return false, err
	}
	return set.Has(permissionCode), nil
}

// HasRole 检查用户是否有特定的启用角色
func (s *UserService) HasRole(ctx context.Context, userID uint, roleCode string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ? AND roles.code = ? AND roles.status = ?", userID, roleCode, models.RoleStatusActive).
		Count(&count).Error
	return count > 0, err
}

func (s *UserService) ensureUnique(tx *gorm.DB, username, email string, excludeID uint) error {
	if username != "" {
		var count int64
		if err := tx.Unscoped().Model(&models.User{}).Where("username = ? AND id <> ?", username, excludeID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.NewValidationError("username", "用户名已存在")
		}
	}
	if email != "" {
		var count int64
		if err := tx.Unscoped().Model(&models.User{}).Where("email = ? AND id <> ?", email, excludeID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.NewValidationError("email", "邮箱已存在")
		}
	}
	return nil
}

// assignRoles 只能分配系统角色或用户所属机构的角色
func assignRoles(tx *gorm.DB, user *models.User, roleIDs []uint) error {
	association := tx.Model(user).Association("Roles")
	roleIDs = uniqueIDs(roleIDs)
	if len(roleIDs) == 0 {
		return association.Clear()
	}

	var roles []models.Role
	query := tx.Where("id IN ?", roleIDs)
	if user.OrganizationID != nil {
		query = query.Where("organization_id IS NULL OR organization_id = ?", *user.OrganizationID)
	} else {
		query = query.Where("organization_id IS NULL")
	}
	if err := query.Find(&roles).Error; err != nil {
		return err
	}
	if len(roles) != len(roleIDs) {
		return notFoundf("角色")
	}
	return association.Replace(roles)
}

func validatePassword(password string) error {
	if len(password) < 6 || len(password) > 72 {
		return apperrors.NewValidationError("password", "密码长度必须在6-72个字符之间")
	}
	return nil
}
