package models

// SubStatus 状态下的子状态
type SubStatus struct {
	BaseModel
	RepCountryStatusID uint   `json:"rep_country_status_id" gorm:"not null;index"`
	Name               string `json:"name" gorm:"size:100;not null"`
	Description        string `json:"description" gorm:"type:text"`
	Order              int    `json:"order" gorm:"column:sort_order;not null;default:0;index"`
	IsActive           bool   `json:"is_active"`
}

// TableName 表名
func (SubStatus) TableName() string {
	return "sub_statuses"
}
