package models

// ApplicationProcess 申请流程（树形，同级按 order 排序）
type ApplicationProcess struct {
	BaseModel
	OrganizationScoped
	ParentID    *uint  `json:"parent_id" gorm:"index"`
	Name        string `json:"name" gorm:"size:100;not null"`
	Description string `json:"description" gorm:"type:text"`
	Order       int    `json:"order" gorm:"column:sort_order;not null;default:0;index"`
	IsActive    bool   `json:"is_active"`

	Parent   *ApplicationProcess  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children []ApplicationProcess `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

// TableName 表名
func (ApplicationProcess) TableName() string {
	return "application_processes"
}

// ApplicationProcessTreeNode 申请流程树节点
type ApplicationProcessTreeNode struct {
	*ApplicationProcess
	Children []*ApplicationProcessTreeNode `json:"children,omitempty"`
}
