package tenancy

import (
	"errors"
	"fmt"

	"abroad/internal/models"
	apperrors "abroad/pkg/errors"

	"gorm.io/gorm"
)

// ErrNoOrganization 种子模式下数据库中还没有任何机构
var ErrNoOrganization = errors.New("没有可用的机构")

// Owned 带机构归属的模型
type Owned interface {
	GetOrganizationID() *uint
	SetOrganizationID(id uint)
}

// ScopeIsNoop 平台用户和未登录用户不做机构过滤，可以看到所有机构的数据
func ScopeIsNoop(actor Actor) bool {
	return !actor.IsTenant()
}

// Scope 机构用户只能看到本机构的数据；column 为带表名的机构列，如 "representing_countries.organization_id"
func Scope(actor Actor, column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if ScopeIsNoop(actor) {
			return db
		}
		return db.Where(fmt.Sprintf("%s = ?", column), *actor.OrganizationID)
	}
}

// Stamp 创建前为记录设置所属机构
//
// 顺序：记录已指定机构 -> 操作者所属机构 -> 按 Mode 回退。
// 请求模式下平台用户必须显式指定机构，不会留下空的机构ID。
func Stamp(tx *gorm.DB, tc Context, entity Owned) error {
	current := entity.GetOrganizationID()

	if tc.Actor.IsTenant() {
		// 机构用户不能为其他机构创建数据
		if current != nil && *current != *tc.Actor.OrganizationID {
			return apperrors.ErrForbidden
		}
		entity.SetOrganizationID(*tc.Actor.OrganizationID)
		return nil
	}

	if current != nil {
		return nil
	}

	switch tc.Mode {
	case ModeSeeding:
		var org models.Organization
		err := tx.Order("id ASC").First(&org).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoOrganization
		}
		if err != nil {
			return err
		}
		entity.SetOrganizationID(org.ID)
		return nil

	case ModeFixture:
		name := tc.FixtureOrganizationName
		if name == "" {
			name = DefaultOrganizationName
		}
		// 同名默认机构只创建一次，同一批夹具归属同一机构
		org := &models.Organization{}
		err := tx.Where(models.Organization{Name: name}).
			Attrs(models.Organization{Status: models.OrganizationStatusActive}).
			FirstOrCreate(org).Error
		if err != nil {
			return err
		}
		entity.SetOrganizationID(org.ID)
		return nil

	case ModePlatformAdmin:
		return nil

	default:
		return apperrors.NewValidationError("organization_id", "平台用户创建数据时必须指定所属机构")
	}
}
