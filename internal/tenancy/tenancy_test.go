package tenancy_test

import (
	"testing"

	"abroad/internal/models"
	"abroad/internal/tenancy"
	"abroad/internal/testutil"
	apperrors "abroad/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeIsNoopForPlatformAndAnonymous(t *testing.T) {
	assert.True(t, tenancy.ScopeIsNoop(tenancy.Anonymous()))
	assert.True(t, tenancy.ScopeIsNoop(tenancy.PlatformActor(1, true)))
	assert.False(t, tenancy.ScopeIsNoop(tenancy.TenantActor(1, 2)))

	// 已认证但无机构也视为平台用户
	assert.True(t, tenancy.Actor{Authenticated: true}.IsPlatform())
	// 有机构但未认证不是机构用户
	org := uint(3)
	assert.False(t, tenancy.Actor{OrganizationID: &org}.IsTenant())
}

func TestRepositoryIsolatesTenants(t *testing.T) {
	db := testutil.NewDB(t)
	orgA := testutil.CreateOrganization(t, db, "A")
	orgB := testutil.CreateOrganization(t, db, "B")
	canada := testutil.CreateCountry(t, db, "Canada", "CAN")

	repo := tenancy.NewRepository[models.RepresentingCountry](db)

	a := &models.RepresentingCountry{CountryID: canada.ID, IsActive: true}
	require.NoError(t, repo.Create(db, tenancy.ForRequest(tenancy.TenantActor(1, orgA.ID), false), a))
	b := &models.RepresentingCountry{CountryID: canada.ID, IsActive: true}
	require.NoError(t, repo.Create(db, tenancy.ForRequest(tenancy.TenantActor(2, orgB.ID), false), b))

	require.NotNil(t, a.OrganizationID)
	assert.Equal(t, orgA.ID, *a.OrganizationID)
	assert.Equal(t, orgB.ID, *b.OrganizationID)

	var seenByA []models.RepresentingCountry
	require.NoError(t, repo.Query(db, tenancy.ForRequest(tenancy.TenantActor(1, orgA.ID), false)).Find(&seenByA).Error)
	require.Len(t, seenByA, 1)
	assert.Equal(t, a.ID, seenByA[0].ID)

	var seenByPlatform []models.RepresentingCountry
	require.NoError(t, repo.Query(db, tenancy.ForRequest(tenancy.PlatformActor(9, true), true)).Find(&seenByPlatform).Error)
	assert.Len(t, seenByPlatform, 2)

	// 跨机构访问与不存在无法区分
	_, err := repo.Find(db, tenancy.ForRequest(tenancy.TenantActor(1, orgA.ID), false), b.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = repo.Find(db, tenancy.ForRequest(tenancy.TenantActor(1, orgA.ID), false), 999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFindManyDropsForeignIDs(t *testing.T) {
	db := testutil.NewDB(t)
	orgA := testutil.CreateOrganization(t, db, "A")
	orgB := testutil.CreateOrganization(t, db, "B")
	repo := tenancy.NewRepository[models.ApplicationProcess](db)

	own := &models.ApplicationProcess{Name: "Offer"}
	require.NoError(t, repo.Create(db, tenancy.ForRequest(tenancy.TenantActor(1, orgA.ID), false), own))
	foreign := &models.ApplicationProcess{Name: "Visa"}
	require.NoError(t, repo.Create(db, tenancy.ForRequest(tenancy.TenantActor(2, orgB.ID), false), foreign))

	items, err := repo.FindMany(db, tenancy.ForRequest(tenancy.TenantActor(1, orgA.ID), false), []uint{own.ID, foreign.ID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, own.ID, items[0].ID)
}

func TestStampRejectsForeignOrganizationFromTenant(t *testing.T) {
	db := testutil.NewDB(t)
	orgA := testutil.CreateOrganization(t, db, "A")
	orgB := testutil.CreateOrganization(t, db, "B")

	entity := &models.ApplicationProcess{Name: "Offer"}
	entity.SetOrganizationID(orgB.ID)

	err := tenancy.Stamp(db, tenancy.ForRequest(tenancy.TenantActor(1, orgA.ID), false), entity)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestStampFallbackChain(t *testing.T) {
	t.Run("platform request requires explicit organization", func(t *testing.T) {
		db := testutil.NewDB(t)
		entity := &models.ApplicationProcess{Name: "Offer"}

		err := tenancy.Stamp(db, tenancy.ForRequest(tenancy.PlatformActor(1, true), true), entity)
		var verr *apperrors.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "organization_id")
		assert.Nil(t, entity.OrganizationID)
	})

	t.Run("platform request keeps explicit organization", func(t *testing.T) {
		db := testutil.NewDB(t)
		org := testutil.CreateOrganization(t, db, "A")
		entity := &models.ApplicationProcess{Name: "Offer"}
		entity.SetOrganizationID(org.ID)

		require.NoError(t, tenancy.Stamp(db, tenancy.ForRequest(tenancy.PlatformActor(1, true), true), entity))
		assert.Equal(t, org.ID, *entity.OrganizationID)
	})

	t.Run("seeding falls back to first organization", func(t *testing.T) {
		db := testutil.NewDB(t)
		first := testutil.CreateOrganization(t, db, "First")
		testutil.CreateOrganization(t, db, "Second")
		entity := &models.ApplicationProcess{Name: "Offer"}

		require.NoError(t, tenancy.Stamp(db, tenancy.ForSeeding(), entity))
		assert.Equal(t, first.ID, *entity.OrganizationID)
	})

	t.Run("seeding without organizations fails", func(t *testing.T) {
		db := testutil.NewDB(t)
		err := tenancy.Stamp(db, tenancy.ForSeeding(), &models.ApplicationProcess{Name: "Offer"})
		assert.ErrorIs(t, err, tenancy.ErrNoOrganization)
	})

	t.Run("fixtures create one default organization", func(t *testing.T) {
		db := testutil.NewDB(t)
		first := &models.ApplicationProcess{Name: "Offer"}
		second := &models.ApplicationProcess{Name: "Visa"}

		require.NoError(t, tenancy.Stamp(db, tenancy.ForFixtures(""), first))
		require.NoError(t, tenancy.Stamp(db, tenancy.ForFixtures(""), second))
		require.NotNil(t, first.OrganizationID)
		assert.Equal(t, *first.OrganizationID, *second.OrganizationID)

		var org models.Organization
		require.NoError(t, db.First(&org, *first.OrganizationID).Error)
		assert.Equal(t, tenancy.DefaultOrganizationName, org.Name)
	})

	t.Run("platform admin operation may leave organization empty", func(t *testing.T) {
		db := testutil.NewDB(t)
		entity := &models.ApplicationProcess{Name: "Offer"}
		require.NoError(t, tenancy.Stamp(db, tenancy.ForPlatformAdmin(tenancy.PlatformActor(1, true)), entity))
		assert.Nil(t, entity.OrganizationID)
	})
}

func TestAuthorizeWrite(t *testing.T) {
	assert.ErrorIs(t, tenancy.ForRequest(tenancy.Anonymous(), true).AuthorizeWrite(), apperrors.ErrUnauthorized)
	assert.NoError(t, tenancy.ForRequest(tenancy.TenantActor(1, 1), false).AuthorizeWrite())
	assert.NoError(t, tenancy.ForRequest(tenancy.PlatformActor(1, true), true).AuthorizeWrite())
	assert.ErrorIs(t, tenancy.ForRequest(tenancy.PlatformActor(1, true), false).AuthorizeWrite(), apperrors.ErrForbidden)
	assert.NoError(t, tenancy.ForSeeding().AuthorizeWrite())
	assert.ErrorIs(t, tenancy.ForPlatformAdmin(tenancy.PlatformActor(1, false)).AuthorizeWrite(), apperrors.ErrForbidden)
}
