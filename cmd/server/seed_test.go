package main

import (
	"context"
	"testing"

	"abroad/internal/models"
	"abroad/internal/ordering"
	"abroad/internal/testutil"
	"abroad/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Tenancy: config.TenancyConfig{DefaultOrganizationName: "Default Organization"},
		Seed: config.SeedConfig{
			Enabled:       true,
			AdminUsername: "admin",
			AdminEmail:    "admin@example.com",
			AdminPassword: "Admin@123",
		},
	}
}

func TestSeedDataIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	orders := ordering.NewManager(nil)

	require.NoError(t, seedData(ctx, db, testConfig(), orders))
	require.NoError(t, seedData(ctx, db, testConfig(), orders))

	var orgs []models.Organization
	require.NoError(t, db.Find(&orgs).Error)
	require.Len(t, orgs, 1)
	assert.Equal(t, "Default Organization", orgs[0].Name)

	var admin models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)
	assert.Nil(t, admin.OrganizationID)
	assert.True(t, admin.IsPlatformAdmin)
	assert.True(t, admin.CheckPassword("Admin@123"))

	var permissionCount int64
	require.NoError(t, db.Model(&models.Permission{}).Count(&permissionCount).Error)
	assert.EqualValues(t, len(defaultPermissions), permissionCount)

	var counsellor models.Role
	require.NoError(t, db.Preload("Permissions").Where("code = ?", models.RoleCounsellor).First(&counsellor).Error)
	assert.True(t, counsellor.IsSystem)
	assert.Nil(t, counsellor.OrganizationID)
	assert.Len(t, counsellor.Permissions, 5)

	var countryCount int64
	require.NoError(t, db.Model(&models.Country{}).Count(&countryCount).Error)
	assert.EqualValues(t, len(defaultCountries), countryCount)

	var processes []models.ApplicationProcess
	require.NoError(t, db.Order("sort_order ASC").Find(&processes).Error)
	require.Len(t, processes, len(defaultApplicationProcesses))
	for i, p := range processes {
		assert.Equal(t, defaultApplicationProcesses[i], p.Name)
		assert.Equal(t, i+1, p.Order)
		require.NotNil(t, p.OrganizationID)
		assert.Equal(t, orgs[0].ID, *p.OrganizationID)
	}
}

func TestSeedUsesExistingOrganization(t *testing.T) {
	db := testutil.NewDB(t)
	existing := testutil.CreateOrganization(t, db, "Study Links")

	require.NoError(t, seedData(context.Background(), db, testConfig(), ordering.NewManager(nil)))

	var count int64
	require.NoError(t, db.Model(&models.Organization{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var process models.ApplicationProcess
	require.NoError(t, db.First(&process).Error)
	assert.Equal(t, existing.ID, *process.OrganizationID)
}
