package main

import (
	"context"
	"errors"
	"fmt"

	"abroad/internal/models"
	"abroad/internal/ordering"
	"abroad/internal/services"
	"abroad/internal/tenancy"
	"abroad/pkg/config"
	"abroad/pkg/logger"

	"gorm.io/gorm"
)

type permissionSeed struct {
	module, action, name string
}

var defaultPermissions = []permissionSeed{
	// 机构管理（平台）
	{models.ModuleOrganization, models.ActionCreate, "创建机构"},
	{models.ModuleOrganization, models.ActionRead, "查看机构"},
	{models.ModuleOrganization, models.ActionUpdate, "更新机构"},
	{models.ModuleOrganization, models.ActionDelete, "删除机构"},
	{models.ModuleOrganization, models.ActionList, "机构列表"},

	// 用户管理
	{models.ModuleUser, models.ActionCreate, "创建用户"},
	{models.ModuleUser, models.ActionRead, "查看用户"},
	{models.ModuleUser, models.ActionUpdate, "更新用户"},
	{models.ModuleUser, models.ActionDelete, "删除用户"},
	{models.ModuleUser, models.ActionList, "用户列表"},

	// 角色管理
	{models.ModuleRole, models.ActionCreate, "创建角色"},
	{models.ModuleRole, models.ActionRead, "查看角色"},
	{models.ModuleRole, models.ActionUpdate, "更新角色"},
	{models.ModuleRole, models.ActionDelete, "删除角色"},
	{models.ModuleRole, models.ActionList, "角色列表"},

	// 国家参考数据
	{models.ModuleCountry, models.ActionCreate, "创建国家"},
	{models.ModuleCountry, models.ActionList, "国家列表"},

	// 代理国家
	{models.ModuleRepresentingCountry, models.ActionCreate, "创建代理国家"},
	{models.ModuleRepresentingCountry, models.ActionRead, "查看代理国家"},
	{models.ModuleRepresentingCountry, models.ActionUpdate, "更新代理国家"},
	{models.ModuleRepresentingCountry, models.ActionDelete, "删除代理国家"},
	{models.ModuleRepresentingCountry, models.ActionList, "代理国家列表"},
	{models.ModuleRepresentingCountry, models.ActionManageStatus, "管理申请状态"},

	// 申请流程
	{models.ModuleApplicationProcess, models.ActionCreate, "创建申请流程"},
	{models.ModuleApplicationProcess, models.ActionRead, "查看申请流程"},
	{models.ModuleApplicationProcess, models.ActionUpdate, "更新申请流程"},
	{models.ModuleApplicationProcess, models.ActionDelete, "删除申请流程"},
	{models.ModuleApplicationProcess, models.ActionList, "申请流程列表"},
}

var defaultCountries = [][2]string{
	{"Australia", "AUS"},
	{"Canada", "CAN"},
	{"Germany", "DEU"},
	{"Ireland", "IRL"},
	{"New Zealand", "NZL"},
	{"United Kingdom", "GBR"},
	{"United States", "USA"},
}

var defaultApplicationProcesses = []string{"Application", "Offer", "Visa", "Enrollment"}

func codes(module string, actions ...string) []string {
	out := make([]string, 0, len(actions))
	for _, action := range actions {
		out = append(out, models.PermissionCode(module, action))
	}
	return out
}

// seedData 初始化种子数据，重复执行不会产生重复记录
func seedData(ctx context.Context, db *gorm.DB, cfg *config.Config, orders *ordering.Manager) error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	// 1. 权限目录
	permissionService := services.NewPermissionService(db)
	for _, p := range defaultPermissions {
		if _, err := permissionService.Ensure(ctx, p.module, p.action, p.name, ""); err != nil {
			return fmt.Errorf("初始化权限 %s:%s 失败: %w", p.module, p.action, err)
		}
	}

	// 2. 系统角色
	roleService := services.NewRoleService(db)
	branchManager := append(
		codes(models.ModuleRepresentingCountry, models.ActionCreate, models.ActionRead, models.ActionUpdate,
			models.ActionDelete, models.ActionList, models.ActionManageStatus),
		codes(models.ModuleApplicationProcess, models.ActionCreate, models.ActionRead, models.ActionUpdate,
			models.ActionDelete, models.ActionList)...,
	)
	branchManager = append(branchManager, codes(models.ModuleUser, models.ActionRead, models.ActionList)...)
	branchManager = append(branchManager, codes(models.ModuleCountry, models.ActionList)...)
	if _, err := roleService.EnsureSystemRole(ctx, models.RoleBranchManager, "Branch Manager", "分支机构经理", branchManager); err != nil {
		return fmt.Errorf("创建角色 %s 失败: %w", models.RoleBranchManager, err)
	}

	counsellor := append(
		codes(models.ModuleRepresentingCountry, models.ActionRead, models.ActionList),
		codes(models.ModuleApplicationProcess, models.ActionRead, models.ActionList)...,
	)
	counsellor = append(counsellor, codes(models.ModuleCountry, models.ActionList)...)
	if _, err := roleService.EnsureSystemRole(ctx, models.RoleCounsellor, "Counsellor", "留学顾问", counsellor); err != nil {
		return fmt.Errorf("创建角色 %s 失败: %w", models.RoleCounsellor, err)
	}

	// 3. 默认机构
	org, err := ensureDefaultOrganization(ctx, db, cfg.Tenancy.DefaultOrganizationName)
	if err != nil {
		return fmt.Errorf("创建默认机构失败: %w", err)
	}

	// 4. 平台管理员
	if err := ensurePlatformAdmin(ctx, db, cfg.Seed); err != nil {
		return fmt.Errorf("创建平台管理员失败: %w", err)
	}

	// 5. 国家参考数据
	countryService := services.NewCountryService(db)
	for _, c := range defaultCountries {
		if _, err := countryService.Ensure(ctx, c[0], c[1]); err != nil {
			return fmt.Errorf("初始化国家 %s 失败: %w", c[1], err)
		}
	}

	// 6. 默认申请流程（种子模式归属第一个机构）
	if err := seedApplicationProcesses(ctx, db, orders, org); err != nil {
		return fmt.Errorf("初始化申请流程失败: %w", err)
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}

// ensureDefaultOrganization 没有任何机构时创建默认机构，否则返回第一个机构
func ensureDefaultOrganization(ctx context.Context, db *gorm.DB, name string) (*models.Organization, error) {
	var org models.Organization
	err := db.WithContext(ctx).Order("id ASC").First(&org).Error
	if err == nil {
		return &org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	org = models.Organization{Name: name, Status: models.OrganizationStatusActive}
	if err := db.WithContext(ctx).Create(&org).Error; err != nil {
		return nil, err
	}
	logger.GetLogger().WithField("organization_id", org.ID).Info("Default organization created")
	return &org, nil
}

// ensurePlatformAdmin 创建不属于任何机构的平台管理员
func ensurePlatformAdmin(ctx context.Context, db *gorm.DB, seed config.SeedConfig) error {
	var count int64
	if err := db.WithContext(ctx).Unscoped().Model(&models.User{}).Where("username = ?", seed.AdminUsername).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.GetLogger().Info("Platform admin already exists, skipping")
		return nil
	}

	user := &models.User{
		Username:        seed.AdminUsername,
		Email:           seed.AdminEmail,
		Name:            "Platform Admin",
		Status:          models.UserStatusActive,
		IsPlatformAdmin: true,
	}
	if err := user.SetPassword(seed.AdminPassword); err != nil {
		return err
	}
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}

	logger.GetLogger().WithField("username", user.Username).Info("Platform admin created")
	return nil
}

// seedApplicationProcesses 机构还没有申请流程时创建默认的顶级流程
func seedApplicationProcesses(ctx context.Context, db *gorm.DB, orders *ordering.Manager, org *models.Organization) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.ApplicationProcess{}).Where("organization_id = ?", org.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	processService := services.NewApplicationProcessService(db, orders)
	tc := tenancy.ForSeeding()
	for _, name := range defaultApplicationProcesses {
		if _, err := processService.Create(ctx, tc, &services.CreateApplicationProcessInput{Name: name}); err != nil {
			return err
		}
	}
	logger.WithOrganization(&org.ID).Info("Default application processes created")
	return nil
}
