package services

import (
	"context"
	"fmt"
	"strings"

	"abroad/internal/models"
	"abroad/internal/tenancy"
	apperrors "abroad/pkg/errors"
	"abroad/pkg/validation"

	"gorm.io/gorm"
)

// CountryInput 国家参考数据
type CountryInput struct {
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code" validate:"required,len=3,alpha"`
}

// CountryService 国家参考数据服务（平台级，不做机构隔离）
type CountryService struct {
	db *gorm.DB
}

// NewCountryService 创建国家服务
func NewCountryService(db *gorm.DB) *CountryService {
	return &CountryService{db: db}
}

// List 国家列表，按名称排序
func (s *CountryService) List(ctx context.Context, keyword string) ([]models.Country, error) {
	query := s.db.WithContext(ctx).Model(&models.Country{})
	if keyword != "" {
		pattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("name LIKE ? OR code LIKE ?", pattern, strings.ToUpper(pattern))
	}

	var countries []models.Country
	err := query.Order("name ASC").Find(&countries).Error
	return countries, err
}

// GetByID 获取国家
func (s *CountryService) GetByID(ctx context.Context, id uint) (*models.Country, error) {
	var country models.Country
	if err := s.db.WithContext(ctx).First(&country, id).Error; err != nil {
		return nil, tenancy.NotFound(err)
	}
	return &country, nil
}

// Create 新增国家，只有平台管理员可以维护
func (s *CountryService) Create(ctx context.Context, tc tenancy.Context, in *CountryInput) (*models.Country, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	country := &models.Country{Name: strings.TrimSpace(in.Name), Code: strings.ToUpper(in.Code)}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Unscoped().Model(&models.Country{}).Where("code = ?", country.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.NewValidationError("code", "国家代码已存在")
		}
		return tx.Create(country).Error
	})
	if err != nil {
		return nil, err
	}
	return country, nil
}

// Ensure 按代码创建或返回国家（种子数据使用）
func (s *CountryService) Ensure(ctx context.Context, name, code string) (*models.Country, error) {
	country := &models.Country{}
	err := s.db.WithContext(ctx).
		Where(models.Country{Code: code}).
		Attrs(models.Country{Name: name}).
		FirstOrCreate(country).Error
	return country, err
}
