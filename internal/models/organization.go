package models

import "gorm.io/datatypes"

// Organization 机构（租户根）
type Organization struct {
	BaseModel
	Name      string         `json:"name" gorm:"not null;size:100"`
	Status    string         `json:"status" gorm:"default:'active';size:20"`
	Settings  datatypes.JSON `json:"settings" gorm:"type:json"`
	UserCount int            `json:"user_count" gorm:"-"` // 用户数量，不存储在数据库中
}

// TableName 表名
func (o *Organization) TableName() string {
	return "organizations"
}

// 机构状态常量
const (
	OrganizationStatusActive   = "active"
	OrganizationStatusInactive = "inactive"
)
