package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"abroad/internal/models"
	"abroad/internal/tenancy"
	apperrors "abroad/pkg/errors"
	"abroad/pkg/pagination"
	"abroad/pkg/validation"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrganizationStats 机构统计信息
type OrganizationStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}

// CreateOrganizationInput 创建机构
type CreateOrganizationInput struct {
	Name     string          `json:"name" validate:"required,min=2,max=100"`
	Settings json.RawMessage `json:"settings"`
}

// UpdateOrganizationInput 部分更新
type UpdateOrganizationInput struct {
	Name   *string `json:"name" validate:"omitempty,min=2,max=100"`
	Status *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// OrganizationService 机构服务，只有平台管理员可以写入
type OrganizationService struct {
	db *gorm.DB
}

// NewOrganizationService 创建机构服务
func NewOrganizationService(db *gorm.DB) *OrganizationService {
	return &OrganizationService{db: db}
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *OrganizationService) GetWithFiltersAndPage(ctx context.Context, status, keyword string, page, pageSize int) ([]*models.Organization, int64, error) {
	var orgs []*models.Organization
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Organization{})

	// 添加过滤条件
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if keyword != "" {
		query = query.Where("name LIKE ?", fmt.Sprintf("%%%s%%", keyword))
	}

	// 计算总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id ASC").Scopes(pagination.Paginate(page, pageSize)).Find(&orgs).Error; err != nil {
		return nil, 0, err
	}

	// 统计每个机构的用户数量
	for _, org := range orgs {
		var userCount int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("organization_id = ?", org.ID).Count(&userCount).Error; err != nil {
			return nil, 0, err
		}
		org.UserCount = int(userCount)
	}

	return orgs, total, nil
}

// Create 创建机构
func (s *OrganizationService) Create(ctx context.Context, tc tenancy.Context, in *CreateOrganizationInput) (*models.Organization, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	settings, err := normalizeSettings(in.Settings)
	if err != nil {
		return nil, err
	}

	org := &models.Organization{
		Name:     strings.TrimSpace(in.Name),
		Status:   models.OrganizationStatusActive,
		Settings: settings,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Organization{}).Where("name = ?", org.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.NewValidationError("name", "机构名称已存在")
		}
		return tx.Create(org).Error
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// GetByID 根据ID获取机构
func (s *OrganizationService) GetByID(ctx context.Context, id uint) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).First(&org, id).Error; err != nil {
		return nil, tenancy.NotFound(err)
	}
	return &org, nil
}

// Update 部分更新
func (s *OrganizationService) Update(ctx context.Context, tc tenancy.Context, id uint, in *UpdateOrganizationInput) (*models.Organization, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	org, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(org).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.GetByID(ctx, id)
}

// Activate 启用机构
func (s *OrganizationService) Activate(ctx context.Context, tc tenancy.Context, id uint) (*models.Organization, error) {
	status := models.OrganizationStatusActive
	return s.Update(ctx, tc, id, &UpdateOrganizationInput{Status: &status})
}

// Deactivate 停用机构，机构用户将无法登录
func (s *OrganizationService) Deactivate(ctx context.Context, tc tenancy.Context, id uint) (*models.Organization, error) {
	status := models.OrganizationStatusInactive
	return s.Update(ctx, tc, id, &UpdateOrganizationInput{Status: &status})
}

// UpdateSettings 替换机构设置
func (s *OrganizationService) UpdateSettings(ctx context.Context, tc tenancy.Context, id uint, raw json.RawMessage) (*models.Organization, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}
	settings, err := normalizeSettings(raw)
	if err != nil {
		return nil, err
	}

	org, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(org).Update("settings", settings).Error; err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Delete 删除机构，仍有用户时不允许删除
func (s *OrganizationService) Delete(ctx context.Context, tc tenancy.Context, id uint) error {
	if err := tc.AuthorizeWrite(); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var org models.Organization
		if err := tx.First(&org, id).Error; err != nil {
			return tenancy.NotFound(err)
		}

		var userCount int64
		if err := tx.Model(&models.User{}).Where("organization_id = ?", id).Count(&userCount).Error; err != nil {
			return err
		}
		if userCount > 0 {
			return apperrors.NewValidationError("id", "机构下仍有用户，不能删除")
		}
		return tx.Delete(&org).Error
	})
}

// GetStats 机构统计
func (s *OrganizationService) GetStats(ctx context.Context) (*OrganizationStats, error) {
	stats := &OrganizationStats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Organization{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Organization{}).Where("status = ?", models.OrganizationStatusActive).Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	stats.Inactive = stats.Total - stats.Active
	return stats, nil
}

// normalizeSettings 设置必须是 JSON 对象，空值存为 {}
func normalizeSettings(raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return datatypes.JSON("{}"), nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, apperrors.NewValidationError("settings", "必须是 JSON 对象")
	}
	return datatypes.JSON(raw), nil
}
