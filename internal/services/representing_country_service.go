package services

import (
	"context"
	"errors"

	"abroad/internal/models"
	"abroad/internal/ordering"
	"abroad/internal/tenancy"
	apperrors "abroad/pkg/errors"
	"abroad/pkg/pagination"
	"abroad/pkg/validation"

	"gorm.io/gorm"
)

// CreateRepresentingCountryInput 创建代理国家
type CreateRepresentingCountryInput struct {
	OrganizationID      *uint    `json:"organization_id"`
	CountryID           uint     `json:"country_id" validate:"required"`
	MonthlyLivingCost   *float64 `json:"monthly_living_cost" validate:"omitempty,gte=0"`
	Currency            string   `json:"currency" validate:"max=10"`
	VisaRequirements    string   `json:"visa_requirements"`
	PartTimeWorkDetails string   `json:"part_time_work_details"`
	CountryBenefits     string   `json:"country_benefits"`
	IsActive            *bool    `json:"is_active"`
	// ApplicationProcessIDs 为空时不建立关联
	ApplicationProcessIDs []uint `json:"application_process_ids"`
	// SeedDefaultStatuses 是否预置默认状态（New），默认 true
	SeedDefaultStatuses *bool `json:"seed_default_statuses"`
}

// UpdateRepresentingCountryInput 部分更新，只覆盖传入的字段
type UpdateRepresentingCountryInput struct {
	CountryID           *uint    `json:"country_id" validate:"omitempty,gt=0"`
	MonthlyLivingCost   *float64 `json:"monthly_living_cost" validate:"omitempty,gte=0"`
	Currency            *string  `json:"currency" validate:"omitempty,max=10"`
	VisaRequirements    *string  `json:"visa_requirements"`
	PartTimeWorkDetails *string  `json:"part_time_work_details"`
	CountryBenefits     *string  `json:"country_benefits"`
	IsActive            *bool    `json:"is_active"`
	// ApplicationProcessIDs 未传入时保留现有关联；空数组清空；否则替换为传入的集合
	ApplicationProcessIDs *[]uint `json:"application_process_ids"`
}

// RepresentingCountryFilter 列表过滤条件
type RepresentingCountryFilter struct {
	CountryID *uint
	Status    string // 空=全部, active, inactive
}

// LoadOptions 查询时加载的关联
type LoadOptions struct {
	Statuses             bool
	SubStatuses          bool
	ApplicationProcesses bool
}

// LoadAll 加载全部关联
var LoadAll = LoadOptions{Statuses: true, SubStatuses: true, ApplicationProcesses: true}

// RepresentingCountryService 代理国家服务
type RepresentingCountryService struct {
	db        *gorm.DB
	countries *tenancy.Repository[models.RepresentingCountry, *models.RepresentingCountry]
	processes *tenancy.Repository[models.ApplicationProcess, *models.ApplicationProcess]
	statuses  *RepCountryStatusService
}

// NewRepresentingCountryService 创建代理国家服务
func NewRepresentingCountryService(db *gorm.DB, orders *ordering.Manager) *RepresentingCountryService {
	return &RepresentingCountryService{
		db:        db,
		countries: tenancy.NewRepository[models.RepresentingCountry](db),
		processes: tenancy.NewRepository[models.ApplicationProcess](db),
		statuses:  NewRepCountryStatusService(db, orders),
	}
}

// Create 创建代理国家，关联申请流程与默认状态在同一事务中完成
func (s *RepresentingCountryService) Create(ctx context.Context, tc tenancy.Context, in *CreateRepresentingCountryInput) (*models.RepresentingCountry, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	rc := &models.RepresentingCountry{
		CountryID:           in.CountryID,
		MonthlyLivingCost:   in.MonthlyLivingCost,
		Currency:            in.Currency,
		VisaRequirements:    in.VisaRequirements,
		PartTimeWorkDetails: in.PartTimeWorkDetails,
		CountryBenefits:     in.CountryBenefits,
		IsActive:            boolValue(in.IsActive, true),
	}
	rc.OrganizationID = in.OrganizationID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureCountryExists(tx, in.CountryID); err != nil {
			return err
		}
		if err := s.countries.Create(tx, tc, rc); err != nil {
			return err
		}
		if len(in.ApplicationProcessIDs) > 0 {
			if err := s.syncApplicationProcesses(tx, tc, rc, in.ApplicationProcessIDs); err != nil {
				return err
			}
		}
		if boolValue(in.SeedDefaultStatuses, true) {
			if err := s.statuses.ensureDefaults(ctx, tx, rc.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			logTxError(tc, "representing_country", rc.ID, "create", err)
		}
		return nil, err
	}

	return s.GetByID(ctx, tc, rc.ID, LoadAll)
}

// GetByID 获取代理国家；其他机构的记录返回 ErrNotFound
func (s *RepresentingCountryService) GetByID(ctx context.Context, tc tenancy.Context, id uint, opts LoadOptions) (*models.RepresentingCountry, error) {
	var rc models.RepresentingCountry
	query := preloadRelations(s.countries.Query(s.db.WithContext(ctx), tc).Preload("Country"), opts)
	if err := query.First(&rc, id).Error; err != nil {
		return nil, tenancy.NotFound(err)
	}
	return &rc, nil
}

// List 分页查询，按创建时间倒序
func (s *RepresentingCountryService) List(ctx context.Context, tc tenancy.Context, filter RepresentingCountryFilter, page, pageSize int) ([]models.RepresentingCountry, int64, error) {
	var items []models.RepresentingCountry
	var total int64

	query := s.countries.Query(s.db.WithContext(ctx), tc)
	if filter.CountryID != nil {
		query = query.Where(s.countries.Column("country_id")+" = ?", *filter.CountryID)
	}
	query, err := applyActiveFilter(query, s.countries.Column("is_active"), filter.Status)
	if err != nil {
		return nil, 0, err
	}

	// 计算总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err = query.Preload("Country").
		Preload("ApplicationProcesses", sortedScope(models.ApplicationProcess{}.TableName())).
		Order(s.countries.Column("created_at") + " DESC").
		Order(s.countries.Column("id") + " DESC").
		Scopes(pagination.Paginate(page, pageSize)).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// Update 部分更新
func (s *RepresentingCountryService) Update(ctx context.Context, tc tenancy.Context, id uint, in *UpdateRepresentingCountryInput) (*models.RepresentingCountry, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rc, err := s.countries.Find(tx, tc, id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.CountryID != nil {
			if err := ensureCountryExists(tx, *in.CountryID); err != nil {
				return err
			}
			updates["country_id"] = *in.CountryID
		}
		if in.MonthlyLivingCost != nil {
			updates["monthly_living_cost"] = *in.MonthlyLivingCost
		}
		if in.Currency != nil {
			updates["currency"] = *in.Currency
		}
		if in.VisaRequirements != nil {
			updates["visa_requirements"] = *in.VisaRequirements
		}
		if in.PartTimeWorkDetails != nil {
			updates["part_time_work_details"] = *in.PartTimeWorkDetails
		}
		if in.CountryBenefits != nil {
			updates["country_benefits"] = *in.CountryBenefits
		}
		if in.IsActive != nil {
			updates["is_active"] = *in.IsActive
		}

		if len(updates) > 0 {
			if err := tx.Model(rc).Updates(updates).Error; err != nil {
				return err
			}
		}

		if in.ApplicationProcessIDs != nil {
			return s.syncApplicationProcesses(tx, tc, rc, *in.ApplicationProcessIDs)
		}
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			logTxError(tc, "representing_country", id, "update", err)
		}
		return nil, err
	}

	return s.GetByID(ctx, tc, id, LoadOptions{ApplicationProcesses: true})
}

// SetActive 启用/停用
func (s *RepresentingCountryService) SetActive(ctx context.Context, tc tenancy.Context, id uint, active bool) (*models.RepresentingCountry, error) {
	return s.Update(ctx, tc, id, &UpdateRepresentingCountryInput{IsActive: &active})
}

// Delete 软删除：先子状态，再状态，最后代理国家
func (s *RepresentingCountryService) Delete(ctx context.Context, tc tenancy.Context, id uint) error {
	if err := tc.AuthorizeWrite(); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rc, err := s.countries.Find(tx, tc, id)
		if err != nil {
			return err
		}

		at := tombstone()
		statusIDs := tx.Model(&models.RepCountryStatus{}).Select("id").Where("representing_country_id = ?", rc.ID)
		if err := softDeleteWhere(tx, &models.SubStatus{}, at, "rep_country_status_id IN (?)", statusIDs); err != nil {
			return err
		}
		if err := softDeleteWhere(tx, &models.RepCountryStatus{}, at, "representing_country_id = ?", rc.ID); err != nil {
			return err
		}
		return softDeleteWhere(tx, &models.RepresentingCountry{}, at, "id = ?", rc.ID)
	})
	if err != nil && !isDomainError(err) {
		logTxError(tc, "representing_country", id, "delete", err)
	}
	return err
}

// ListTrashed 已删除的代理国家
func (s *RepresentingCountryService) ListTrashed(ctx context.Context, tc tenancy.Context, page, pageSize int) ([]models.RepresentingCountry, int64, error) {
	var items []models.RepresentingCountry
	var total int64

	query := s.countries.QueryWithTrashed(s.db.WithContext(ctx), tc).
		Where(s.countries.Column("deleted_at") + " IS NOT NULL")

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Country").
		Order(s.countries.Column("deleted_at") + " DESC").
		Order(s.countries.Column("id") + " DESC").
		Scopes(pagination.Paginate(page, pageSize)).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Restore 恢复代理国家以及随它一起删除的状态和子状态
func (s *RepresentingCountryService) Restore(ctx context.Context, tc tenancy.Context, id uint) (*models.RepresentingCountry, error) {
	if err := tc.AuthorizeWrite(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rc models.RepresentingCountry
		err := s.countries.QueryWithTrashed(tx, tc).
			Where(s.countries.Column("deleted_at")+" IS NOT NULL").
			First(&rc, id).Error
		if err != nil {
			return tenancy.NotFound(err)
		}

		at := rc.DeletedAt.Time
		statusIDs := tx.Unscoped().Model(&models.RepCountryStatus{}).Select("id").Where("representing_country_id = ?", rc.ID)
		if err := tx.Unscoped().Model(&models.SubStatus{}).
			Where("rep_country_status_id IN (?) AND deleted_at = ?", statusIDs, at).
			Update("deleted_at", nil).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Model(&models.RepCountryStatus{}).
			Where("representing_country_id = ? AND deleted_at = ?", rc.ID, at).
			Update("deleted_at", nil).Error; err != nil {
			return err
		}
		return tx.Unscoped().Model(&models.RepresentingCountry{}).
			Where("id = ?", rc.ID).
			Update("deleted_at", nil).Error
	})
	if err != nil {
		if !isDomainError(err) {
			logTxError(tc, "representing_country", id, "restore", err)
		}
		return nil, err
	}

	return s.GetByID(ctx, tc, id, LoadAll)
}

// syncApplicationProcesses 关联集合变为传入的集合；不在范围内或不同机构的流程视为不存在
func (s *RepresentingCountryService) syncApplicationProcesses(tx *gorm.DB, tc tenancy.Context, rc *models.RepresentingCountry, ids []uint) error {
	association := tx.Model(rc).Association("ApplicationProcesses")
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return association.Clear()
	}

	processes, err := s.processes.FindMany(tx, tc, ids)
	if err != nil {
		return err
	}
	found := make(map[uint]bool, len(processes))
	for _, p := range processes {
		if sameOrganization(p.OrganizationID, rc.OrganizationID) {
			found[p.ID] = true
		}
	}
	for _, id := range ids {
		if !found[id] {
			return notFoundf("申请流程 %d", id)
		}
	}

	return association.Replace(processes)
}

func ensureCountryExists(tx *gorm.DB, countryID uint) error {
	var count int64
	if err := tx.Model(&models.Country{}).Where("id = ?", countryID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperrors.NewValidationError("country_id", "国家不存在")
	}
	return nil
}

func preloadRelations(query *gorm.DB, opts LoadOptions) *gorm.DB {
	if opts.Statuses {
		query = query.Preload("Statuses", sortedScope(models.RepCountryStatus{}.TableName()))
		if opts.SubStatuses {
			query = query.Preload("Statuses.SubStatuses", sortedScope(models.SubStatus{}.TableName()))
		}
	}
	if opts.ApplicationProcesses {
		query = query.Preload("ApplicationProcesses", sortedScope(models.ApplicationProcess{}.TableName()))
	}
	return query
}

// sortedScope 预加载时的显示顺序
func sortedScope(table string) func(*gorm.DB) *gorm.DB {
	return ordering.Sorted(table)
}

func sameOrganization(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// isDomainError 校验、不存在、授权类错误不记录为事务失败
func isDomainError(err error) bool {
	return errors.Is(err, apperrors.ErrValidation) ||
		errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, apperrors.ErrForbidden) ||
		errors.Is(err, apperrors.ErrUnauthorized) ||
		errors.Is(err, tenancy.ErrNoOrganization)
}
