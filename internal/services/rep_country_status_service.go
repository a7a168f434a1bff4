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

// AddStatusInput 添加状态
type AddStatusInput struct {
	StatusName string  `json:"status_name" validate:"required,max=100"`
	CustomName *string `json:"custom_name" validate:"omitempty,max=100"`
	Notes      string  `json:"notes"`
	IsActive   *bool   `json:"is_active"`
}

// UpdateStatusInput 部分更新；status_name 创建后不可修改
type UpdateStatusInput struct {
	CustomName *string `json:"custom_name" validate:"omitempty,max=100"`
	Notes      *string `json:"notes"`
	IsActive   *bool   `json:"is_active"`
}

// StatusNote 单条备注更新
type StatusNote struct {
	ID    uint   `json:"id" validate:"required"`
	Notes string `json:"notes"`
}

// StatusNotesInput 批量更新备注
type StatusNotesInput struct {
	Notes []StatusNote `json:"notes" validate:"required,min=1,dive"`
}

// RepCountryStatusService 代理国家状态服务
type RepCountryStatusService struct {
	db        *gorm.DB
	orders    *ordering.Manager
	countries *tenancy.Repository[models.RepresentingCountry, *models.RepresentingCountry]
}

// NewRepCountryStatusService 创建状态服务
func NewRepCountryStatusService(db *gorm.DB, orders *ordering.Manager) *RepCountryStatusService {
	return &RepCountryStatusService{
		db:        db,
		orders:    orders,
		countries: tenancy.NewRepository[models.RepresentingCountry](db),
	}
}

// Add 追加状态到列表末尾
func (s *RepCountryStatusService) Add(ctx context.Context, tc tenancy.Context, representingCountryID uint, in *AddStatusInput) (*models.RepCountryStatus, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	status := &models.RepCountryStatus{
		RepresentingCountryID: representingCountryID,
		StatusName:            strings.TrimSpace(in.StatusName),
		CustomName:            normalizeName(in.CustomName),
		Notes:                 in.Notes,
		IsActive:              boolValue(in.IsActive, true),
	}
	// 父级在插入所在的事务内确认，避免挂到刚被删除的代理国家下
	err := s.orders.Append(ctx, s.db, statusGroup(representingCountryID), func(tx *gorm.DB, next int) error {
		if _, err := s.countries.Find(tx, tc, representingCountryID); err != nil {
			return err
		}
		status.Order = next
		return tx.Create(status).Error
	})
	if err != nil {
		if !isDomainError(err) {
			logTxError(tc, "rep_country_status", representingCountryID, "add", err)
		}
		return nil, err
	}
	return status, nil
}

// List 状态列表，按显示顺序
func (s *RepCountryStatusService) List(ctx context.Context, tc tenancy.Context, representingCountryID uint, withSubStatuses bool) ([]models.RepCountryStatus, error) {
	db := s.db.WithContext(ctx)
	rc, err := s.countries.Find(db, tc, representingCountryID)
	if err != nil {
		return nil, err
	}

	query := db.Where("representing_country_id = ?", rc.ID).Scopes(ordering.Sorted(models.RepCountryStatus{}.TableName()))
	if withSubStatuses {
		query = query.Preload("SubStatuses", sortedScope(models.SubStatus{}.TableName()))
	}

	var statuses []models.RepCountryStatus
	if err := query.Find(&statuses).Error; err != nil {
		return nil, err
	}
	return statuses, nil
}

// GetByID 获取状态
func (s *RepCountryStatusService) GetByID(ctx context.Context, tc tenancy.Context, id uint) (*models.RepCountryStatus, error) {
	status, err := findStatus(s.db.WithContext(ctx), tc, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).
		Where("rep_country_status_id = ?", status.ID).
		Scopes(ordering.Sorted(models.SubStatus{}.TableName())).
		Find(&status.SubStatuses).Error
	if err != nil {
		return nil, err
	}
	return status, nil
}

// Rename 只修改 custom_name；传空恢复为系统名称
func (s *RepCountryStatusService) Rename(ctx context.Context, tc tenancy.Context, id uint, customName *string) (*models.RepCountryStatus, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}
	if err := validation.Struct(&UpdateStatusInput{CustomName: customName}); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	status, err := findStatus(db, tc, id)
	if err != nil {
		return nil, err
	}
	name := normalizeName(customName)
	if err := db.Model(status).Update("custom_name", name).Error; err != nil {
		return nil, err
	}
	status.CustomName = name
	return status, nil
}

// Update 部分更新 custom_name / notes / is_active
func (s *RepCountryStatusService) Update(ctx context.Context, tc tenancy.Context, id uint, in *UpdateStatusInput) (*models.RepCountryStatus, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	status, err := findStatus(db, tc, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.CustomName != nil {
		updates["custom_name"] = normalizeName(in.CustomName)
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) > 0 {
		if err := db.Model(status).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return findStatus(db, tc, id)
}

// SetActive 启用/停用状态
func (s *RepCountryStatusService) SetActive(ctx context.Context, tc tenancy.Context, id uint, active bool) (*models.RepCountryStatus, error) {
	return s.Update(ctx, tc, id, &UpdateStatusInput{IsActive: &active})
}

// Delete 软删除状态及其子状态
func (s *RepCountryStatusService) Delete(ctx context.Context, tc tenancy.Context, id uint) error {
	if err := tc.AuthorizeWrite(); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		status, err := findStatus(tx, tc, id)
		if err != nil {
			return err
		}

		at := tombstone()
		if err := softDeleteWhere(tx, &models.SubStatus{}, at, "rep_country_status_id = ?", status.ID); err != nil {
			return err
		}
		return softDeleteWhere(tx, &models.RepCountryStatus{}, at, "id = ?", status.ID)
	})
	if err != nil && !isDomainError(err) {
		logTxError(tc, "rep_country_status", id, "delete", err)
	}
	return err
}

// Reorder 重新排序；New 状态保持原位置
func (s *RepCountryStatusService) Reorder(ctx context.Context, tc tenancy.Context, representingCountryID uint, in *PositionsInput) (int, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return 0, err
	}
	if err := validation.Struct(in); err != nil {
		return 0, err
	}

	var applied int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rc, err := s.countries.Find(tx, tc, representingCountryID)
		if err != nil {
			return err
		}

		pinned, err := pinnedStatuses(tx, rc.ID)
		if err != nil {
			return err
		}

		applied, err = ordering.Reorder(tx, statusGroup(rc.ID), in.Positions, pinned)
		return err
	})
	if err != nil {
		if !isDomainError(err) {
			logTxError(tc, "rep_country_status", representingCountryID, "reorder", err)
		}
		return 0, err
	}
	return applied, nil
}

// BulkUpdateNotes 批量更新备注
func (s *RepCountryStatusService) BulkUpdateNotes(ctx context.Context, tc tenancy.Context, representingCountryID uint, in *StatusNotesInput) (int, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return 0, err
	}
	if err := validation.Struct(in); err != nil {
		return 0, err
	}

	annotations := make([]ordering.Annotation, 0, len(in.Notes))
	for _, n := range in.Notes {
		annotations = append(annotations, ordering.Annotation{ID: n.ID, Value: n.Notes})
	}

	var applied int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rc, err := s.countries.Find(tx, tc, representingCountryID)
		if err != nil {
			return err
		}
		applied, err = ordering.BulkAnnotate(tx, statusGroup(rc.ID), "notes", annotations)
		return err
	})
	if err != nil {
		if !isDomainError(err) {
			logTxError(tc, "rep_country_status", representingCountryID, "bulk_notes", err)
		}
		return 0, err
	}
	return applied, nil
}

// EnsureDefaults 补齐缺失的默认状态
func (s *RepCountryStatusService) EnsureDefaults(ctx context.Context, tc tenancy.Context, representingCountryID uint) ([]models.RepCountryStatus, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}

	rc, err := s.countries.Find(s.db.WithContext(ctx), tc, representingCountryID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureDefaults(ctx, s.db, rc.ID); err != nil {
		return nil, err
	}
	return s.List(ctx, tc, rc.ID, false)
}

// ensureDefaults 每个默认状态名只创建一次
func (s *RepCountryStatusService) ensureDefaults(ctx context.Context, db *gorm.DB, representingCountryID uint) error {
	for _, name := range models.DefaultStatusNames {
		statusName := name
		err := s.orders.Append(ctx, db, statusGroup(representingCountryID), func(tx *gorm.DB, next int) error {
			var count int64
			err := tx.Model(&models.RepCountryStatus{}).
				Where("representing_country_id = ? AND status_name = ?", representingCountryID, statusName).
				Count(&count).Error
			if err != nil || count > 0 {
				return err
			}
			return tx.Create(&models.RepCountryStatus{
				RepresentingCountryID: representingCountryID,
				StatusName:            statusName,
				Order:                 next,
				IsActive:              true,
			}).Error
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// pinnedStatuses 分组内固定位置的状态
func pinnedStatuses(tx *gorm.DB, representingCountryID uint) (ordering.PinPolicy, error) {
	var statuses []models.RepCountryStatus
	err := tx.Select("id", "status_name").
		Where("representing_country_id = ?", representingCountryID).
		Find(&statuses).Error
	if err != nil {
		return nil, err
	}

	var ids []uint
	for _, st := range statuses {
		if models.IsPinnedStatusName(st.StatusName) {
			ids = append(ids, st.ID)
		}
	}
	return ordering.PinIDs(ids...), nil
}

func normalizeName(name *string) *string {
	if name == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
