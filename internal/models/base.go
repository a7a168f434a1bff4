package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 基础模型，所有业务表均为软删除
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// OrganizationScoped 机构隔离字段，嵌入到需要租户隔离的模型中
type OrganizationScoped struct {
	OrganizationID *uint `json:"organization_id" gorm:"index"`
}

// GetOrganizationID 获取所属机构
func (o *OrganizationScoped) GetOrganizationID() *uint {
	return o.OrganizationID
}

// SetOrganizationID 设置所属机构
func (o *OrganizationScoped) SetOrganizationID(id uint) {
	o.OrganizationID = &id
}
