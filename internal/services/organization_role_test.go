package services_test

import (
	"encoding/json"
	"testing"

	"abroad/internal/models"
	"abroad/internal/services"
	apperrors "abroad/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganizationCreateAndSettings(t *testing.T) {
	f := newFixture(t)
	orgs := services.NewOrganizationService(f.db)

	org, err := orgs.Create(f.ctx, f.platform(), &services.CreateOrganizationInput{
		Name:     "Study Links",
		Settings: json.RawMessage(`{"currency":"AUD"}`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"currency":"AUD"}`, string(org.Settings))

	_, err = orgs.Create(f.ctx, f.platform(), &services.CreateOrganizationInput{Name: "Study Links"})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")

	_, err = orgs.UpdateSettings(f.ctx, f.platform(), org.ID, json.RawMessage(`[1,2]`))
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "settings")

	updated, err := orgs.UpdateSettings(f.ctx, f.platform(), org.ID, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(updated.Settings))
}

func TestOrganizationDeleteRefusedWhileUsersRemain(t *testing.T) {
	f := newFixture(t)
	orgs := services.NewOrganizationService(f.db)

	user := &models.User{OrganizationID: &f.orgA.ID, Username: "member", Email: "member@example.com", Name: "Member"}
	require.NoError(t, user.SetPassword("Secret@123"))
	require.NoError(t, f.db.Create(user).Error)

	var verr *apperrors.ValidationError
	require.ErrorAs(t, orgs.Delete(f.ctx, f.platform(), f.orgA.ID), &verr)

	require.NoError(t, orgs.Delete(f.ctx, f.platform(), f.orgB.ID))
	_, err := orgs.GetByID(f.ctx, f.orgB.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRolesAreTenantScoped(t *testing.T) {
	f := newFixture(t)
	roles := services.NewRoleService(f.db)

	system, err := roles.EnsureSystemRole(f.ctx, models.RoleCounsellor, "Counsellor", "", nil)
	require.NoError(t, err)

	role, err := roles.Create(f.ctx, f.tenantA(), &services.CreateRoleInput{Code: "visa_team", Name: "Visa team"})
	require.NoError(t, err)
	require.NotNil(t, role.OrganizationID)
	assert.Equal(t, f.orgA.ID, *role.OrganizationID)
	assert.False(t, role.IsSystem)

	// 同名代码在另一个机构中允许
	_, err = roles.Create(f.ctx, f.tenantB(), &services.CreateRoleInput{Code: "visa_team", Name: "Visa team"})
	require.NoError(t, err)

	_, err = roles.GetByID(f.ctx, f.tenantB(), role.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	visible, total, err := roles.List(f.ctx, f.tenantA(), "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	codes := []string{visible[0].Code, visible[1].Code}
	assert.ElementsMatch(t, []string{models.RoleCounsellor, "visa_team"}, codes)

	var verr *apperrors.ValidationError
	require.ErrorAs(t, roles.Delete(f.ctx, f.platform(), system.ID), &verr)
	require.NoError(t, roles.Delete(f.ctx, f.tenantA(), role.ID))
}
