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

func TestCreateRepresentingCountrySeedsNewStatus(t *testing.T) {
	f := newFixture(t)

	rc := f.createCountry(t, f.tenantA(), f.canada.ID, true)
	require.NotNil(t, rc.OrganizationID)
	assert.Equal(t, f.orgA.ID, *rc.OrganizationID)
	assert.True(t, rc.IsActive)
	require.NotNil(t, rc.Country)
	assert.Equal(t, "Canada", rc.Country.Name)

	require.Len(t, rc.Statuses, 1)
	assert.Equal(t, models.StatusNameNew, rc.Statuses[0].StatusName)
	assert.Equal(t, 1, rc.Statuses[0].Order)

	// 再次补齐不会重复创建
	statuses, err := f.statuses.EnsureDefaults(f.ctx, f.tenantA(), rc.ID)
	require.NoError(t, err)
	assert.Len(t, statuses, 1)
}

func TestCreateRepresentingCountryValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.countries.Create(f.ctx, f.tenantA(), &services.CreateRepresentingCountryInput{})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "country_id")

	_, err = f.countries.Create(f.ctx, f.tenantA(), &services.CreateRepresentingCountryInput{CountryID: 999})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "country_id")

	var count int64
	require.NoError(t, f.db.Model(&models.RepresentingCountry{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWritesAreAuthorizedBeforeDataAccess(t *testing.T) {
	f := newFixture(t)
	in := &services.CreateRepresentingCountryInput{CountryID: f.canada.ID}

	_, err := f.countries.Create(f.ctx, tenancy.ForRequest(tenancy.Anonymous(), true), in)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	readOnlyPlatform := tenancy.ForRequest(tenancy.PlatformActor(9, true), false)
	_, err = f.countries.Create(f.ctx, readOnlyPlatform, in)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// 平台用户写入时必须指定机构
	_, err = f.countries.Create(f.ctx, f.platform(), in)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	in.OrganizationID = &f.orgB.ID
	rc, err := f.countries.Create(f.ctx, f.platform(), in)
	require.NoError(t, err)
	assert.Equal(t, f.orgB.ID, *rc.OrganizationID)
}

func TestTenantIsolationOnList(t *testing.T) {
	f := newFixture(t)
	a := f.createCountry(t, f.tenantA(), f.canada.ID, false)
	b := f.createCountry(t, f.tenantB(), f.canada.ID, false)

	items, total, err := f.countries.List(f.ctx, f.tenantA(), services.RepresentingCountryFilter{}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, a.ID, items[0].ID)

	items, total, err = f.countries.List(f.ctx, f.platform(), services.RepresentingCountryFilter{}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 2)

	_, err = f.countries.GetByID(f.ctx, f.tenantA(), b.ID, services.LoadOptions{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.countries.Update(f.ctx, f.tenantA(), b.ID, &services.UpdateRepresentingCountryInput{IsActive: boolPtr(false)})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.ErrorIs(t, f.countries.Delete(f.ctx, f.tenantA(), b.ID), apperrors.ErrNotFound)

	_, err = f.statuses.Add(f.ctx, f.tenantA(), b.ID, &services.AddStatusInput{StatusName: "Offer"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListFiltersAndOrdering(t *testing.T) {
	f := newFixture(t)
	first := f.createCountry(t, f.tenantA(), f.canada.ID, false)
	second := f.createCountry(t, f.tenantA(), f.australia.ID, false)
	third := f.createCountry(t, f.tenantA(), f.canada.ID, false)
	_, err := f.countries.SetActive(f.ctx, f.tenantA(), third.ID, false)
	require.NoError(t, err)

	ids := func(items []models.RepresentingCountry) []uint {
		out := make([]uint, 0, len(items))
		for _, it := range items {
			out = append(out, it.ID)
		}
		return out
	}

	items, total, err := f.countries.List(f.ctx, f.tenantA(), services.RepresentingCountryFilter{}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []uint{third.ID, second.ID, first.ID}, ids(items))

	items, _, err = f.countries.List(f.ctx, f.tenantA(), services.RepresentingCountryFilter{Status: services.FilterActive}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{second.ID, first.ID}, ids(items))

	items, _, err = f.countries.List(f.ctx, f.tenantA(), services.RepresentingCountryFilter{Status: services.FilterInactive}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{third.ID}, ids(items))

	items, _, err = f.countries.List(f.ctx, f.tenantA(), services.RepresentingCountryFilter{CountryID: &f.canada.ID}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{third.ID, first.ID}, ids(items))

	items, total, err = f.countries.List(f.ctx, f.tenantA(), services.RepresentingCountryFilter{}, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []uint{first.ID}, ids(items))

	_, _, err = f.countries.List(f.ctx, f.tenantA(), services.RepresentingCountryFilter{Status: "archived"}, 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUpdateOnlyOverwritesSuppliedFields(t *testing.T) {
	f := newFixture(t)
	cost := 1500.0
	rc, err := f.countries.Create(f.ctx, f.tenantA(), &services.CreateRepresentingCountryInput{
		CountryID:         f.canada.ID,
		MonthlyLivingCost: &cost,
		Currency:          "CAD",
		VisaRequirements:  "Study permit",
	})
	require.NoError(t, err)

	updated, err := f.countries.Update(f.ctx, f.tenantA(), rc.ID, &services.UpdateRepresentingCountryInput{
		Currency: strPtr("USD"),
	})
	require.NoError(t, err)
	assert.Equal(t, "USD", updated.Currency)
	assert.Equal(t, "Study permit", updated.VisaRequirements)
	require.NotNil(t, updated.MonthlyLivingCost)
	assert.Equal(t, 1500.0, *updated.MonthlyLivingCost)
	assert.True(t, updated.IsActive)
}

func TestApplicationProcessSync(t *testing.T) {
	f := newFixture(t)
	offer := f.createProcess(t, f.tenantA(), nil, "Offer")
	visa := f.createProcess(t, f.tenantA(), nil, "Visa")
	enrol := f.createProcess(t, f.tenantA(), nil, "Enrolment")

	rc, err := f.countries.Create(f.ctx, f.tenantA(), &services.CreateRepresentingCountryInput{
		CountryID:             f.canada.ID,
		ApplicationProcessIDs: []uint{offer.ID, visa.ID},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{offer.ID, visa.ID}, processIDs(rc))

	// 未传入：保持不变
	rc, err = f.countries.Update(f.ctx, f.tenantA(), rc.ID, &services.UpdateRepresentingCountryInput{Currency: strPtr("CAD")})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{offer.ID, visa.ID}, processIDs(rc))

	// 非空：精确替换
	rc, err = f.countries.Update(f.ctx, f.tenantA(), rc.ID, &services.UpdateRepresentingCountryInput{
		ApplicationProcessIDs: &[]uint{visa.ID, enrol.ID},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{visa.ID, enrol.ID}, processIDs(rc))

	// 空数组：清空
	rc, err = f.countries.Update(f.ctx, f.tenantA(), rc.ID, &services.UpdateRepresentingCountryInput{
		ApplicationProcessIDs: &[]uint{},
	})
	require.NoError(t, err)
	assert.Empty(t, processIDs(rc))
}

func TestApplicationProcessSyncRejectsForeignIDsAtomically(t *testing.T) {
	f := newFixture(t)
	own := f.createProcess(t, f.tenantA(), nil, "Offer")
	foreign := f.createProcess(t, f.tenantB(), nil, "Visa")

	rc := f.createCountry(t, f.tenantA(), f.canada.ID, false)
	_, err := f.countries.Update(f.ctx, f.tenantA(), rc.ID, &services.UpdateRepresentingCountryInput{
		Currency:              strPtr("CAD"),
		ApplicationProcessIDs: &[]uint{own.ID, foreign.ID},
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// 整个更新回滚
	got, err := f.countries.GetByID(f.ctx, f.tenantA(), rc.ID, services.LoadAll)
	require.NoError(t, err)
	assert.Empty(t, got.Currency)
	assert.Empty(t, got.ApplicationProcesses)

	// 平台用户也不能把其他机构的流程关联过来
	_, err = f.countries.Update(f.ctx, f.platform(), rc.ID, &services.UpdateRepresentingCountryInput{
		ApplicationProcessIDs: &[]uint{foreign.ID},
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteRepresentingCountryCascadesAndRestores(t *testing.T) {
	f := newFixture(t)
	rc := f.createCountry(t, f.tenantA(), f.canada.ID, true)
	review := f.addStatus(t, f.tenantA(), rc.ID, "Document Review")
	_, err := f.subs.Add(f.ctx, f.tenantA(), review.ID, &services.AddSubStatusInput{Name: "Passport"})
	require.NoError(t, err)

	// 单独删除的状态在恢复时不应被找回
	rejected := f.addStatus(t, f.tenantA(), rc.ID, "Rejected")
	require.NoError(t, f.statuses.Delete(f.ctx, f.tenantA(), rejected.ID))

	require.NoError(t, f.countries.Delete(f.ctx, f.tenantA(), rc.ID))

	_, err = f.countries.GetByID(f.ctx, f.tenantA(), rc.ID, services.LoadOptions{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	var liveStatuses, liveSubs int64
	require.NoError(t, f.db.Model(&models.RepCountryStatus{}).Count(&liveStatuses).Error)
	require.NoError(t, f.db.Model(&models.SubStatus{}).Count(&liveSubs).Error)
	assert.Zero(t, liveStatuses)
	assert.Zero(t, liveSubs)

	trashed, total, err := f.countries.ListTrashed(f.ctx, f.tenantA(), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, trashed, 1)
	assert.Equal(t, rc.ID, trashed[0].ID)

	_, _, err = f.countries.ListTrashed(f.ctx, f.tenantB(), 1, 10)
	require.NoError(t, err)
	_, err = f.countries.Restore(f.ctx, f.tenantB(), rc.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	restored, err := f.countries.Restore(f.ctx, f.tenantA(), rc.ID)
	require.NoError(t, err)
	require.Len(t, restored.Statuses, 2)
	assert.Equal(t, models.StatusNameNew, restored.Statuses[0].StatusName)
	assert.Equal(t, "Document Review", restored.Statuses[1].StatusName)
	require.Len(t, restored.Statuses[1].SubStatuses, 1)
	assert.Equal(t, "Passport", restored.Statuses[1].SubStatuses[0].Name)
}

func processIDs(rc *models.RepresentingCountry) []uint {
	ids := make([]uint, 0, len(rc.ApplicationProcesses))
	for _, p := range rc.ApplicationProcesses {
		ids = append(ids, p.ID)
	}
	return ids
}
