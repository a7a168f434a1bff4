// Package tenancy 机构级数据隔离：查询过滤与创建时的机构归属
//
// 每个请求都显式构造 Context 并传给服务层，服务层只通过 Repository 访问
// 需要隔离的表，因此过滤条件和归属赋值不会被遗漏。
package tenancy

// Actor 当前操作者
type Actor struct {
	UserID          uint
	OrganizationID  *uint // 为空表示平台用户
	Authenticated   bool
	IsPlatformAdmin bool
	IsOrgAdmin      bool
}

// TenantActor 机构用户
func TenantActor(userID, organizationID uint) Actor {
	return Actor{
		UserID:         userID,
		OrganizationID: &organizationID,
		Authenticated:  true,
	}
}

// PlatformActor 平台用户（不属于任何机构）
func PlatformActor(userID uint, isPlatformAdmin bool) Actor {
	return Actor{
		UserID:          userID,
		Authenticated:   true,
		IsPlatformAdmin: isPlatformAdmin,
	}
}

// Anonymous 未登录
func Anonymous() Actor {
	return Actor{}
}

// IsTenant 已登录且属于某个机构
func (a Actor) IsTenant() bool {
	return a.Authenticated && a.OrganizationID != nil
}

// IsPlatform 未登录或不属于任何机构
func (a Actor) IsPlatform() bool {
	return !a.IsTenant()
}
