package tenancy

import (
	apperrors "abroad/pkg/errors"
)

// Mode 调用场景，决定创建数据时找不到机构的回退方式
type Mode int

const (
	// ModeRequest 普通请求：平台用户必须显式指定机构
	ModeRequest Mode = iota
	// ModeSeeding 批量种子数据：回退到第一个已存在的机构
	ModeSeeding
	// ModeFixture 自动化测试夹具：新建一个默认机构
	ModeFixture
	// ModePlatformAdmin 平台管理操作：允许机构为空
	ModePlatformAdmin
)

func (m Mode) String() string {
	switch m {
	case ModeRequest:
		return "request"
	case ModeSeeding:
		return "seeding"
	case ModeFixture:
		return "fixture"
	case ModePlatformAdmin:
		return "platform_admin"
	default:
		return "unknown"
	}
}

// DefaultOrganizationName 夹具模式下新建机构的默认名称
const DefaultOrganizationName = "Default Organization"

// Context 每个请求重新构造，不在请求之间共享
type Context struct {
	Actor         Actor
	Mode          Mode
	PlatformWrite bool // 平台用户是否允许写入
	// FixtureOrganizationName 夹具模式新建机构时使用，为空使用 DefaultOrganizationName
	FixtureOrganizationName string
}

// ForRequest 普通请求上下文
func ForRequest(actor Actor, platformWrite bool) Context {
	return Context{Actor: actor, Mode: ModeRequest, PlatformWrite: platformWrite}
}

// ForSeeding 种子数据上下文
func ForSeeding() Context {
	return Context{Mode: ModeSeeding}
}

// ForFixtures 测试夹具上下文
func ForFixtures(organizationName string) Context {
	return Context{Mode: ModeFixture, FixtureOrganizationName: organizationName}
}

// ForPlatformAdmin 平台管理操作上下文
func ForPlatformAdmin(actor Actor) Context {
	return Context{Actor: actor, Mode: ModePlatformAdmin, PlatformWrite: true}
}

// AuthorizeWrite 写操作前的授权检查，在访问数据之前调用
func (c Context) AuthorizeWrite() error {
	switch c.Mode {
	case ModeSeeding, ModeFixture:
		return nil
	case ModePlatformAdmin:
		if !c.Actor.Authenticated || !c.Actor.IsPlatformAdmin {
			return apperrors.ErrForbidden
		}
		return nil
	}

	if !c.Actor.Authenticated {
		return apperrors.ErrUnauthorized
	}
	if c.Actor.IsPlatform() && !c.PlatformWrite {
		return apperrors.ErrForbidden
	}
	return nil
}
