package services

import (
	"context"
	"strings"

	"abroad/internal/models"
	"abroad/internal/tenancy"
	apperrors "abroad/pkg/errors"
	"abroad/pkg/pagination"
	"abroad/pkg/validation"

	"gorm.io/gorm"
)

// CreateRoleInput 创建角色
type CreateRoleInput struct {
	OrganizationID *uint  `json:"organization_id"`
	Code           string `json:"code" validate:"required,min=2,max=50"`
	Name           string `json:"name" validate:"required,min=2,max=50"`
	Description    string `json:"description" validate:"max=255"`
	PermissionIDs  []uint `json:"permission_ids"`
}

// UpdateRoleInput 部分更新
type UpdateRoleInput struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=50"`
	Description *string `json:"description" validate:"omitempty,max=255"`
	Status      *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// RoleService 角色服务
type RoleService struct {
	db    *gorm.DB
	roles *tenancy.Repository[models.Role, *models.Role]
}

// NewRoleService 创建角色服务
func NewRoleService(db *gorm.DB) *RoleService {
	return &RoleService{
		db:    db,
		roles: tenancy.NewRepository[models.Role](db),
	}
}

// visible 机构用户可以看到本机构角色和系统角色
func (s *RoleService) visible(tx *gorm.DB, tc tenancy.Context) *gorm.DB {
	query := tx.Model(&models.Role{})
	if tenancy.ScopeIsNoop(tc.Actor) {
		return query
	}
	return query.Where("roles.organization_id = ? OR roles.organization_id IS NULL", *tc.Actor.OrganizationID)
}

// ========== 基础CRUD方法 ==========

// Create 创建角色；不指定机构时为系统角色，只能由平台管理员创建
func (s *RoleService) Create(ctx context.Context, tc tenancy.Context, in *CreateRoleInput) (*models.Role, error) {
	if in.OrganizationID == nil && tc.Actor.IsPlatform() && tc.Mode == tenancy.ModeRequest {
		tc = tenancy.ForPlatformAdmin(tc.Actor)
	}
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if !validCode(in.Code) {
		return nil, apperrors.NewValidationError("code", "只能包含字母、数字和下划线")
	}

	role := &models.Role{
		OrganizationID: in.OrganizationID,
		Code:           in.Code,
		Name:           strings.TrimSpace(in.Name),
		Description:    in.Description,
		Status:         models.RoleStatusActive,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tenancy.Stamp(tx, tc, role); err != nil {
			return err
		}

		// 检查角色代码是否重复（在同一机构内）
		var count int64
		dup := tx.Model(&models.Role{}).Where("code = ?", role.Code)
		if role.OrganizationID != nil {
			dup = dup.Where("organization_id = ?", *role.OrganizationID)
		} else {
			dup = dup.Where("organization_id IS NULL")
		}
		if err := dup.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.NewValidationError("code", "角色代码已存在")
		}

		role.IsSystem = role.OrganizationID == nil
		if err := tx.Create(role).Error; err != nil {
			return err
		}
		if len(in.PermissionIDs) > 0 {
			return replacePermissions(tx, role, in.PermissionIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, tc, role.ID)
}

// GetByID 根据ID获取角色
func (s *RoleService) GetByID(ctx context.Context, tc tenancy.Context, id uint) (*models.Role, error) {
	var role models.Role
	if err := s.visible(s.db.WithContext(ctx), tc).Preload("Permissions").First(&role, id).Error; err != nil {
		return nil, tenancy.NotFound(err)
	}
	return &role, nil
}

// List 分页获取角色
func (s *RoleService) List(ctx context.Context, tc tenancy.Context, status string, page, pageSize int) ([]*models.Role, int64, error) {
	var roles []*models.Role
	var total int64

	query := s.visible(s.db.WithContext(ctx), tc)

	// 按状态筛选
	if status != "" {
		query = query.Where("roles.status = ?", status)
	}

	// 计算总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Permissions").Order("roles.id ASC").Scopes(pagination.Paginate(page, pageSize)).Find(&roles).Error
	if err != nil {
		return nil, 0, err
	}

	return roles, total, nil
}

// Update 更新角色；系统角色只能由平台用户修改
func (s *RoleService) Update(ctx context.Context, tc tenancy.Context, id uint, in *UpdateRoleInput) (*models.Role, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	role, err := s.editable(db, tc, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if len(updates) > 0 {
		if err := db.Model(role).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.GetByID(ctx, tc, id)
}

// Delete 删除角色，系统角色不能删除
func (s *RoleService) Delete(ctx context.Context, tc tenancy.Context, id uint) error {
	if err := tc.AuthorizeWrite(); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := s.roles.Find(tx, tc, id)
		if err != nil {
			return err
		}
		if role.IsSystem {
			return apperrors.NewValidationError("id", "系统角色不允许删除")
		}
		if err := tx.Model(role).Association("Permissions").Clear(); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_roles WHERE role_id = ?", role.ID).Error; err != nil {
			return err
		}
		return tx.Delete(role).Error
	})
}

// ========== 权限管理方法 ==========

// AssignPermissions 为角色分配权限（替换现有权限）
func (s *RoleService) AssignPermissions(ctx context.Context, tc tenancy.Context, id uint, permissionIDs []uint) (*models.Role, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := s.editable(tx, tc, id)
		if err != nil {
			return err
		}
		return replacePermissions(tx, role, permissionIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, tc, id)
}

// EnsureSystemRole 按代码创建或返回系统角色（种子数据使用）
func (s *RoleService) EnsureSystemRole(ctx context.Context, code, name, description string, permissionCodes []string) (*models.Role, error) {
	role := &models.Role{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("organization_id IS NULL AND code = ?", code).
			Attrs(models.Role{Code: code, Name: name, Description: description, IsSystem: true, Status: models.RoleStatusActive}).
			FirstOrCreate(role).Error
		if err != nil {
			return err
		}

		association := tx.Model(role).Association("Permissions")
		if len(permissionCodes) == 0 {
			return association.Clear()
		}

		var permissions []models.Permission
		if err := tx.Where("code IN ?", permissionCodes).Find(&permissions).Error; err != nil {
			return err
		}
		return association.Replace(permissions)
	})
	return role, err
}

// editable 机构用户不能修改系统角色
func (s *RoleService) editable(tx *gorm.DB, tc tenancy.Context, id uint) (*models.Role, error) {
	var role models.Role
	if err := s.visible(tx, tc).First(&role, id).Error; err != nil {
		return nil, tenancy.NotFound(err)
	}
	if role.OrganizationID == nil && tc.Actor.IsTenant() {
		return nil, apperrors.ErrForbidden
	}
	return &role, nil
}

func replacePermissions(tx *gorm.DB, role *models.Role, permissionIDs []uint) error {
	association := tx.Model(role).Association("Permissions")
	permissionIDs = uniqueIDs(permissionIDs)
	if len(permissionIDs) == 0 {
		return association.Clear()
	}

	var permissions []models.Permission
	if err := tx.Where("id IN ?", permissionIDs).Find(&permissions).Error; err != nil {
		return err
	}
	if len(permissions) != len(permissionIDs) {
		return notFoundf("权限")
	}
	return association.Replace(permissions)
}

// validCode 只允许字母、数字和下划线
func validCode(code string) bool {
	for _, r := range code {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_') {
			return false
		}
	}
	return true
}
