package services_test

import (
	"testing"

	"abroad/internal/models"
	"abroad/internal/services"
	"abroad/internal/tenancy"
	apperrors "abroad/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPermissions(t *testing.T, f *fixture) {
	t.Helper()
	perms := services.NewPermissionService(f.db)
	for _, p := range [][2]string{
		{models.ModuleOrganization, models.ActionCreate},
		{models.ModuleRepresentingCountry, models.ActionList},
		{models.ModuleRepresentingCountry, models.ActionUpdate},
		{models.ModuleRepresentingCountry, models.ActionManageStatus},
	} {
		_, err := perms.Ensure(f.ctx, p[0], p[1], p[0]+" "+p[1], "")
		require.NoError(t, err)
	}
}

func TestUserCreateAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	users := services.NewUserService(f.db)

	user, err := users.Create(f.ctx, f.tenantA(), &services.CreateUserInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "secret123",
		Name:     "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, f.orgA.ID, *user.OrganizationID)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = users.Create(f.ctx, f.tenantA(), &services.CreateUserInput{
		Username: "alice", Email: "other@example.com", Password: "secret123", Name: "Dup",
	})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")

	got, err := users.Authenticate(f.ctx, "alice", "secret123")
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)

	_, err = users.Authenticate(f.ctx, "alice", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = users.Update(f.ctx, f.tenantA(), user.ID, &services.UpdateUserInput{Status: strPtr(models.UserStatusLocked)})
	require.NoError(t, err)
	_, err = users.Authenticate(f.ctx, "alice", "secret123")
	assert.ErrorIs(t, err, services.ErrUserDisabled)

	// 其他机构看不到该用户
	_, err = users.GetByID(f.ctx, f.tenantB(), user.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPlatformUserRequiresPlatformAdmin(t *testing.T) {
	f := newFixture(t)
	users := services.NewUserService(f.db)
	in := &services.CreateUserInput{Username: "root2", Email: "root2@example.com", Password: "secret123", Name: "Root"}

	_, err := users.Create(f.ctx, tenancy.ForRequest(tenancy.PlatformActor(1, false), true), in)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	user, err := users.Create(f.ctx, f.platform(), in)
	require.NoError(t, err)
	assert.Nil(t, user.OrganizationID)
}

func TestPermissionResolution(t *testing.T) {
	f := newFixture(t)
	seedPermissions(t, f)
	users := services.NewUserService(f.db)
	roles := services.NewRoleService(f.db)

	counsellor, err := roles.EnsureSystemRole(f.ctx, models.RoleCounsellor, "Counsellor", "",
		[]string{models.PermissionCode(models.ModuleRepresentingCountry, models.ActionList)})
	require.NoError(t, err)

	user, err := users.Create(f.ctx, f.tenantA(), &services.CreateUserInput{
		Username: "bob", Email: "bob@example.com", Password: "secret123", Name: "Bob",
		RoleIDs: []uint{counsellor.ID},
	})
	require.NoError(t, err)
	require.Len(t, user.Roles, 1)

	set, err := users.Permissions(f.ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []string{"representing_country:list"}, set.Codes())

	// 停用角色后不再拥有权限
	_, err = roles.Update(f.ctx, f.platform(), counsellor.ID, &services.UpdateRoleInput{Status: strPtr(models.RoleStatusInactive)})
	require.NoError(t, err)
	ok, err := users.HasPermission(f.ctx, user, "representing_country:list")
	require.NoError(t, err)
	assert.False(t, ok)

	orgAdmin := &models.User{IsOrgAdmin: true, OrganizationID: &f.orgA.ID}
	set, err = users.Permissions(f.ctx, orgAdmin)
	require.NoError(t, err)
	assert.True(t, set.Has("representing_country:update"))
	assert.False(t, set.Has("organization:create"))

	platformAdmin := &models.User{IsPlatformAdmin: true}
	set, err = users.Permissions(f.ctx, platformAdmin)
	require.NoError(t, err)
	assert.True(t, set.Has("organization:create"))
}

func TestAssignRolesRejectsForeignRoles(t *testing.T) {
	f := newFixture(t)
	users := services.NewUserService(f.db)
	roles := services.NewRoleService(f.db)

	foreignRole, err := roles.Create(f.ctx, f.tenantB(), &services.CreateRoleInput{Code: "visa_team", Name: "Visa team"})
	require.NoError(t, err)
	assert.Equal(t, f.orgB.ID, *foreignRole.OrganizationID)

	user, err := users.Create(f.ctx, f.tenantA(), &services.CreateUserInput{
		Username: "carol", Email: "carol@example.com", Password: "secret123", Name: "Carol",
	})
	require.NoError(t, err)

	_, err = users.AssignRoles(f.ctx, f.tenantA(), user.ID, []uint{foreignRole.ID})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// 机构用户不能修改系统角色
	system, err := roles.EnsureSystemRole(f.ctx, models.RoleBranchManager, "Branch manager", "", nil)
	require.NoError(t, err)
	_, err = roles.Update(f.ctx, f.tenantA(), system.ID, &services.UpdateRoleInput{Name: strPtr("Renamed")})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
