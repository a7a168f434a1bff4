package models

// Permission 权限模型
type Permission struct {
	BaseModel
	Code        string `gorm:"uniqueIndex;size:100;not null" json:"code"` // 权限代码，如 "representing_country:create"
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
	Module      string `gorm:"size:50;not null" json:"module"`
	Action      string `gorm:"size:50;not null" json:"action"`
}

// 权限模块常量
const (
	ModuleOrganization        = "organization"
	ModuleUser                = "user"
	ModuleRole                = "role"
	ModuleCountry             = "country"
	ModuleRepresentingCountry = "representing_country"
	ModuleApplicationProcess  = "application_process"
)

// 权限操作常量
const (
	ActionCreate       = "create"
	ActionRead         = "read"
	ActionUpdate       = "update"
	ActionDelete       = "delete"
	ActionList         = "list"
	ActionManageStatus = "manage_status"
)

// PermissionCode 拼接权限代码
func PermissionCode(module, action string) string {
	return module + ":" + action
}
