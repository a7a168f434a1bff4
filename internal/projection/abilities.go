package projection

import "abroad/internal/models"

// PermissionChecker 权限集合，services.PermissionSet 实现该接口
type PermissionChecker interface {
	Has(code string) bool
}

// View 返回字段的详细程度
type View int

const (
	// ViewLimited 分支/顾问视图，隐藏内部字段
	ViewLimited View = iota
	// ViewFull 可编辑用户的完整视图
	ViewFull
)

// ViewFor 拥有代理国家编辑权限的用户看到完整视图
func ViewFor(perms PermissionChecker) View {
	if perms != nil && perms.Has(models.PermissionCode(models.ModuleRepresentingCountry, models.ActionUpdate)) {
		return ViewFull
	}
	return ViewLimited
}

// Abilities 当前用户对某类资源可执行的操作，与数据一起返回给前端
type Abilities struct {
	CanCreate       bool `json:"can_create"`
	CanEdit         bool `json:"can_edit"`
	CanDelete       bool `json:"can_delete"`
	CanManageStatus bool `json:"can_manage_status"`
}

// AbilitiesFor 根据模块权限计算操作能力
func AbilitiesFor(perms PermissionChecker, module string) Abilities {
	if perms == nil {
		return Abilities{}
	}
	has := func(action string) bool {
		return perms.Has(models.PermissionCode(module, action))
	}
	return Abilities{
		CanCreate:       has(models.ActionCreate),
		CanEdit:         has(models.ActionUpdate),
		CanDelete:       has(models.ActionDelete),
		CanManageStatus: has(models.ActionManageStatus),
	}
}

// Collection 列表数据及操作能力
type Collection struct {
	Items     interface{} `json:"items"`
	Abilities Abilities   `json:"abilities"`
}

// Detail 单条数据及操作能力
type Detail struct {
	Item      interface{} `json:"item"`
	Abilities Abilities   `json:"abilities"`
}
