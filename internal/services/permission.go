package services

import (
	"context"
	"sort"
	"strings"

	"abroad/internal/models"
	"abroad/internal/tenancy"
	"abroad/pkg/pagination"

	"gorm.io/gorm"
)

// PermissionSet 用户拥有的权限代码集合
type PermissionSet map[string]struct{}

// NewPermissionSet 由权限代码创建集合
func NewPermissionSet(codes ...string) PermissionSet {
	set := make(PermissionSet, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set
}

// Has 是否拥有权限
func (p PermissionSet) Has(code string) bool {
	_, ok := p[code]
	return ok
}

// Codes 排序后的权限代码
func (p PermissionSet) Codes() []string {
	codes := make([]string, 0, len(p))
	for code := range p {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// PermissionService 权限目录（平台级，预置）
type PermissionService struct {
	db *gorm.DB
}

// NewPermissionService 创建权限服务
func NewPermissionService(db *gorm.DB) *PermissionService {
	return &PermissionService{db: db}
}

// GetWithPage 分页获取权限
func (s *PermissionService) GetWithPage(ctx context.Context, module string, page, pageSize int) ([]*models.Permission, int64, error) {
	var permissions []*models.Permission
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Permission{})

	// 按模块筛选
	if module != "" {
		query = query.Where("module = ?", module)
	}

	// 计算总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("module ASC").Order("id ASC").Scopes(pagination.Paginate(page, pageSize)).Find(&permissions).Error
	if err != nil {
		return nil, 0, err
	}

	return permissions, total, nil
}

// GetByID 根据ID获取权限
func (s *PermissionService) GetByID(ctx context.Context, id uint) (*models.Permission, error) {
	var permission models.Permission
	if err := s.db.WithContext(ctx).First(&permission, id).Error; err != nil {
		return nil, tenancy.NotFound(err)
	}
	return &permission, nil
}

// Ensure 按代码创建或更新权限（种子数据使用）
func (s *PermissionService) Ensure(ctx context.Context, module, action, name, description string) (*models.Permission, error) {
	code := models.PermissionCode(module, action)
	permission := &models.Permission{}
	err := s.db.WithContext(ctx).
		Where(models.Permission{Code: code}).
		Assign(models.Permission{Name: name, Description: description, Module: module, Action: action}).
		FirstOrCreate(permission).Error
	return permission, err
}

// Resolve 计算用户的权限集合
//
// 平台管理员拥有全部权限；机构管理员拥有除机构管理以外的全部权限；
// 其他用户为启用角色的权限并集。
func (s *PermissionService) Resolve(ctx context.Context, user *models.User) (PermissionSet, error) {
	db := s.db.WithContext(ctx)

	if user.IsPlatformAdmin || user.IsOrgAdmin {
		var codes []string
		if err := db.Model(&models.Permission{}).Pluck("code", &codes).Error; err != nil {
			return nil, err
		}
		set := make(PermissionSet, len(codes))
		for _, code := range codes {
			if !user.IsPlatformAdmin && strings.HasPrefix(code, models.ModuleOrganization+":") {
				continue
			}
			set[code] = struct{}{}
		}
		return set, nil
	}

	var roles []models.Role
	err := db.Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ? AND roles.status = ?", user.ID, models.RoleStatusActive).
		Preload("Permissions").
		Find(&roles).Error
	if err != nil {
		return nil, err
	}

	set := make(PermissionSet)
	for _, role := range roles {
		for _, permission := range role.Permissions {
			set[permission.Code] = struct{}{}
		}
	}
	return set, nil
}
