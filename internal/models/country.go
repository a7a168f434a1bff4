package models

// Country 国家参考数据（平台级，不做机构隔离）
type Country struct {
	BaseModel
	Name string `json:"name" gorm:"size:100;not null"`
	Code string `json:"code" gorm:"size:3;uniqueIndex;not null"` // ISO 3166-1 alpha-3
}

// TableName 表名
func (Country) TableName() string {
	return "countries"
}
