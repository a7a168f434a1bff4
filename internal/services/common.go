package services

import (
	"fmt"
	"time"

	"abroad/internal/models"
	"abroad/internal/ordering"
	"abroad/internal/tenancy"
	apperrors "abroad/pkg/errors"
	"abroad/pkg/logger"

	"gorm.io/gorm"
)

// 状态过滤值
const (
	FilterActive   = "active"
	FilterInactive = "inactive"
)

// PositionsInput 重新排序请求
type PositionsInput struct {
	Positions []ordering.Position `json:"positions" validate:"required,min=1,dive"`
}

// applyActiveFilter 三态过滤：空=全部，active / inactive
func applyActiveFilter(query *gorm.DB, column, status string) (*gorm.DB, error) {
	switch status {
	case "":
		return query, nil
	case FilterActive:
		return query.Where(column+" = ?", true), nil
	case FilterInactive:
		return query.Where(column+" = ?", false), nil
	default:
		return nil, apperrors.NewValidationError("status", "只能是 active 或 inactive")
	}
}

// tombstone 级联软删除统一使用同一个删除时间，恢复时据此找回同批记录
func tombstone() time.Time {
	return time.Now().Truncate(time.Microsecond)
}

// softDeleteWhere 给满足条件的未删除记录打上删除时间
func softDeleteWhere(tx *gorm.DB, model interface{}, at time.Time, query interface{}, args ...interface{}) error {
	return tx.Model(model).Where(query, args...).Update("deleted_at", at).Error
}

func boolValue(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// logTxError 记录事务失败
func logTxError(tc tenancy.Context, entity string, id uint, op string, err error) {
	logger.WithOrganization(tc.Actor.OrganizationID).WithFields(map[string]interface{}{
		"entity": entity,
		"id":     id,
		"op":     op,
		"mode":   tc.Mode.String(),
	}).WithError(err).Error("Transaction failed")
}

// scopedStatuses 状态没有机构字段，通过父级代理国家过滤
func scopedStatuses(tx *gorm.DB, tc tenancy.Context) *gorm.DB {
	return tx.Model(&models.RepCountryStatus{}).
		Select("rep_country_statuses.*").
		Joins("JOIN representing_countries ON representing_countries.id = rep_country_statuses.representing_country_id AND representing_countries.deleted_at IS NULL").
		Scopes(tenancy.Scope(tc.Actor, "representing_countries.organization_id"))
}

// scopedSubStatuses 子状态经由状态和代理国家过滤
func scopedSubStatuses(tx *gorm.DB, tc tenancy.Context) *gorm.DB {
	return tx.Model(&models.SubStatus{}).
		Select("sub_statuses.*").
		Joins("JOIN rep_country_statuses ON rep_country_statuses.id = sub_statuses.rep_country_status_id AND rep_country_statuses.deleted_at IS NULL").
		Joins("JOIN representing_countries ON representing_countries.id = rep_country_statuses.representing_country_id AND representing_countries.deleted_at IS NULL").
		Scopes(tenancy.Scope(tc.Actor, "representing_countries.organization_id"))
}

func findStatus(tx *gorm.DB, tc tenancy.Context, id uint) (*models.RepCountryStatus, error) {
	var status models.RepCountryStatus
	if err := scopedStatuses(tx, tc).Where("rep_country_statuses.id = ?", id).First(&status).Error; err != nil {
		return nil, tenancy.NotFound(err)
	}
	return &status, nil
}

func findSubStatus(tx *gorm.DB, tc tenancy.Context, id uint) (*models.SubStatus, error) {
	var sub models.SubStatus
	if err := scopedSubStatuses(tx, tc).Where("sub_statuses.id = ?", id).First(&sub).Error; err != nil {
		return nil, tenancy.NotFound(err)
	}
	return &sub, nil
}

func statusGroup(representingCountryID uint) ordering.Group {
	return ordering.NewGroup(models.RepCountryStatus{}.TableName(), ordering.Eq("representing_country_id", representingCountryID))
}

func subStatusGroup(statusID uint) ordering.Group {
	return ordering.NewGroup(models.SubStatus{}.TableName(), ordering.Eq("rep_country_status_id", statusID))
}

func processGroup(organizationID, parentID *uint) ordering.Group {
	return ordering.NewGroup(models.ApplicationProcess{}.TableName(),
		ordering.EqOrNull("organization_id", organizationID),
		ordering.EqOrNull("parent_id", parentID))
}

func notFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, apperrors.ErrNotFound)...)
}
