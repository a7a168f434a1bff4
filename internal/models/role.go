package models

// Role 角色模型
type Role struct {
	BaseModel
	OrganizationID *uint  `gorm:"index" json:"organization_id"`           // 所属机构（空表示系统级角色）
	Code           string `gorm:"size:100;not null" json:"code"`          // 角色代码，如 "counsellor"
	Name           string `gorm:"size:100;not null" json:"name"`          // 角色名称
	Description    string `gorm:"size:255" json:"description"`            // 角色描述
	IsSystem       bool   `gorm:"default:false" json:"is_system"`         // 是否系统角色（不可删除）
	Status         string `gorm:"size:20;default:'active'" json:"status"` // 状态：active, inactive

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Permissions  []Permission  `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
}

// 角色状态常量
const (
	RoleStatusActive   = "active"
	RoleStatusInactive = "inactive"
)

// 系统预定义角色常量
const (
	RoleBranchManager = "branch_manager" // 分支机构经理
	RoleCounsellor    = "counsellor"     // 留学顾问
)

// GetOrganizationID 所属机构
func (r *Role) GetOrganizationID() *uint {
	return r.OrganizationID
}

// SetOrganizationID 设置所属机构
func (r *Role) SetOrganizationID(id uint) {
	r.OrganizationID = &id
}
