package services

import (
	"context"
	"strings"

	"abroad/internal/models"
	"abroad/internal/ordering"
	"abroad/internal/tenancy"
	"abroad/pkg/validation"

	"gorm.io/gorm"
)

// AddSubStatusInput 添加子状态
type AddSubStatusInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// UpdateSubStatusInput 部分更新
type UpdateSubStatusInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// SubStatusService 子状态服务
type SubStatusService struct {
	db     *gorm.DB
	orders *ordering.Manager
}

// NewSubStatusService 创建子状态服务
func NewSubStatusService(db *gorm.DB, orders *ordering.Manager) *SubStatusService {
	return &SubStatusService{db: db, orders: orders}
}

// Add 追加子状态
func (s *SubStatusService) Add(ctx context.Context, tc tenancy.Context, statusID uint, in *AddSubStatusInput) (*models.SubStatus, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	sub := &models.SubStatus{
		RepCountryStatusID: statusID,
		Name:               strings.TrimSpace(in.Name),
		Description:        in.Description,
		IsActive:           boolValue(in.IsActive, true),
	}
	err := s.orders.Append(ctx, s.db, subStatusGroup(statusID), func(tx *gorm.DB, next int) error {
		if _, err := findStatus(tx, tc, statusID); err != nil {
			return err
		}
		sub.Order = next
		return tx.Create(sub).Error
	})
	if err != nil {
		if !isDomainError(err) {
			logTxError(tc, "sub_status", statusID, "add", err)
		}
		return nil, err
	}
	return sub, nil
}

// List 子状态列表
func (s *SubStatusService) List(ctx context.Context, tc tenancy.Context, statusID uint) ([]models.SubStatus, error) {
	db := s.db.WithContext(ctx)
	status, err := findStatus(db, tc, statusID)
	if err != nil {
		return nil, err
	}

	var subs []models.SubStatus
	err = db.Where("rep_country_status_id = ?", status.ID).
		Scopes(ordering.Sorted(models.SubStatus{}.TableName())).
		Find(&subs).Error
	return subs, err
}

// GetByID 获取子状态
func (s *SubStatusService) GetByID(ctx context.Context, tc tenancy.Context, id uint) (*models.SubStatus, error) {
	return findSubStatus(s.db.WithContext(ctx), tc, id)
}

// Update 部分更新
func (s *SubStatusService) Update(ctx context.Context, tc tenancy.Context, id uint, in *UpdateSubStatusInput) (*models.SubStatus, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	sub, err := findSubStatus(db, tc, id)
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
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) > 0 {
		if err := db.Model(sub).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return findSubStatus(db, tc, id)
}

// SetActive 启用/停用
func (s *SubStatusService) SetActive(ctx context.Context, tc tenancy.Context, id uint, active bool) (*models.SubStatus, error) {
	return s.Update(ctx, tc, id, &UpdateSubStatusInput{IsActive: &active})
}

// Delete 软删除，不级联
func (s *SubStatusService) Delete(ctx context.Context, tc tenancy.Context, id uint) error {
	if err := tc.AuthorizeWrite(); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	sub, err := findSubStatus(db, tc, id)
	if err != nil {
		return err
	}
	return db.Delete(sub).Error
}

// Reorder 重新排序
func (s *SubStatusService) Reorder(ctx context.Context, tc tenancy.Context, statusID uint, in *PositionsInput) (int, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return 0, err
	}
	if err := validation.Struct(in); err != nil {
		return 0, err
	}

	var applied int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		status, err := findStatus(tx, tc, statusID)
		if err != nil {
			return err
		}
		applied, err = ordering.Reorder(tx, subStatusGroup(status.ID), in.Positions, ordering.PinNone)
		return err
	})
	if err != nil {
		if !isDomainError(err) {
			logTxError(tc, "sub_status", statusID, "reorder", err)
		}
		return 0, err
	}
	return applied, nil
}
