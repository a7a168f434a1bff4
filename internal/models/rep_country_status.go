package models

// StatusNameNew 每个代理国家预置的初始状态
const StatusNameNew = "New"

// DefaultStatusNames 新建代理国家时预置的状态
var DefaultStatusNames = []string{StatusNameNew}

// RepCountryStatus 代理国家的申请状态
type RepCountryStatus struct {
	BaseModel
	RepresentingCountryID uint    `json:"representing_country_id" gorm:"not null;index"`
	StatusName            string  `json:"status_name" gorm:"size:100;not null"` // 系统名称，创建后不可修改
	CustomName            *string `json:"custom_name" gorm:"size:100"`          // 机构自定义显示名称
	Notes                 string  `json:"notes" gorm:"type:text"`
	Order                 int     `json:"order" gorm:"column:sort_order;not null;default:0;index"`
	IsActive              bool    `json:"is_active"`

	RepresentingCountry *RepresentingCountry `gorm:"foreignKey:RepresentingCountryID" json:"representing_country,omitempty"`
	SubStatuses         []SubStatus          `gorm:"foreignKey:RepCountryStatusID" json:"sub_statuses,omitempty"`
}

// TableName 表名
func (RepCountryStatus) TableName() string {
	return "rep_country_statuses"
}

// IsPinnedStatusName 固定位置的状态，重新排序时跳过
func IsPinnedStatusName(name string) bool {
	return name == StatusNameNew
}

// DisplayName 显示名称，优先使用自定义名称
func (s *RepCountryStatus) DisplayName() string {
	if s.CustomName != nil && *s.CustomName != "" {
		return *s.CustomName
	}
	return s.StatusName
}
