package services_test

import (
	"testing"

	"abroad/internal/models"
	"abroad/internal/ordering"
	"abroad/internal/services"
	apperrors "abroad/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) addSubStatus(t *testing.T, statusID uint, name string) *models.SubStatus {
	t.Helper()
	sub, err := f.subs.Add(f.ctx, f.tenantA(), statusID, &services.AddSubStatusInput{Name: name})
	require.NoError(t, err)
	return sub
}

func TestSubStatusesAppendPerStatus(t *testing.T) {
	f := newFixture(t)
	rc := f.createCountry(t, f.tenantA(), f.canada.ID, true)
	offer := f.addStatus(t, f.tenantA(), rc.ID, "Offer")
	visa := f.addStatus(t, f.tenantA(), rc.ID, "Visa")

	conditional := f.addSubStatus(t, offer.ID, "Conditional")
	unconditional := f.addSubStatus(t, offer.ID, "Unconditional")
	lodged := f.addSubStatus(t, visa.ID, "Lodged")

	assert.Equal(t, 1, conditional.Order)
	assert.Equal(t, 2, unconditional.Order)
	assert.Equal(t, 1, lodged.Order)
	assert.True(t, conditional.IsActive)
}

func TestSubStatusesAreScopedThroughParent(t *testing.T) {
	f := newFixture(t)
	rc := f.createCountry(t, f.tenantA(), f.canada.ID, false)
	status := f.addStatus(t, f.tenantA(), rc.ID, "Offer")
	sub := f.addSubStatus(t, status.ID, "Conditional")

	_, err := f.subs.Add(f.ctx, f.tenantB(), status.ID, &services.AddSubStatusInput{Name: "Sneaky"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.subs.GetByID(f.ctx, f.tenantB(), sub.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.subs.List(f.ctx, f.tenantB(), status.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSubStatusReorderAndDelete(t *testing.T) {
	f := newFixture(t)
	rc := f.createCountry(t, f.tenantA(), f.canada.ID, false)
	status := f.addStatus(t, f.tenantA(), rc.ID, "Visa")
	lodged := f.addSubStatus(t, status.ID, "Lodged")
	granted := f.addSubStatus(t, status.ID, "Granted")
	refused := f.addSubStatus(t, status.ID, "Refused")

	applied, err := f.subs.Reorder(f.ctx, f.tenantA(), status.ID, &services.PositionsInput{
		Positions: []ordering.Position{
			{ID: refused.ID, Order: intPtr(1)},
			{ID: lodged.ID, Order: intPtr(2)},
			{ID: granted.ID, Order: intPtr(3)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, applied)

	require.NoError(t, f.subs.Delete(f.ctx, f.tenantA(), lodged.ID))

	subs, err := f.subs.List(f.ctx, f.tenantA(), status.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "Refused", subs[0].Name)
	assert.Equal(t, "Granted", subs[1].Name)

	// 删除子状态不影响父状态
	_, err = f.statuses.GetByID(f.ctx, f.tenantA(), status.ID)
	assert.NoError(t, err)
}

func TestSubStatusUpdatePatch(t *testing.T) {
	f := newFixture(t)
	rc := f.createCountry(t, f.tenantA(), f.canada.ID, false)
	status := f.addStatus(t, f.tenantA(), rc.ID, "Offer")
	sub, err := f.subs.Add(f.ctx, f.tenantA(), status.ID, &services.AddSubStatusInput{
		Name:        "Conditional",
		Description: "awaiting documents",
	})
	require.NoError(t, err)

	updated, err := f.subs.Update(f.ctx, f.tenantA(), sub.ID, &services.UpdateSubStatusInput{Name: strPtr("Conditional offer")})
	require.NoError(t, err)
	assert.Equal(t, "Conditional offer", updated.Name)
	assert.Equal(t, "awaiting documents", updated.Description)

	deactivated, err := f.subs.SetActive(f.ctx, f.tenantA(), sub.ID, false)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)
	assert.Equal(t, sub.Order, deactivated.Order)
}

func TestAddSubStatusRechecksStatusInsideTransaction(t *testing.T) {
	f := newFixture(t)
	rc := f.createCountry(t, f.tenantA(), f.canada.ID, false)
	status := f.addStatus(t, f.tenantA(), rc.ID, "Visa")

	locker := &deletingLocker{onLock: func() {
		require.NoError(t, f.db.Delete(&models.RepCountryStatus{}, status.ID).Error)
	}}
	subs := services.NewSubStatusService(f.db, ordering.NewManager(locker))

	_, err := subs.Add(f.ctx, f.tenantA(), status.ID, &services.AddSubStatusInput{Name: "Lodged"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	var count int64
	require.NoError(t, f.db.Unscoped().Model(&models.SubStatus{}).
		Where("rep_country_status_id = ?", status.ID).Count(&count).Error)
	assert.Zero(t, count)
}
