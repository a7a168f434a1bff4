package services_test

import (
	"context"
	"testing"

	"abroad/internal/models"
	"abroad/internal/ordering"
	"abroad/internal/services"
	apperrors "abroad/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanadaReorderKeepsNewPinned(t *testing.T) {
	f := newFixture(t)
	rc := f.createCountry(t, f.tenantA(), f.canada.ID, false)

	newStatus := f.addStatus(t, f.tenantA(), rc.ID, models.StatusNameNew)
	review := f.addStatus(t, f.tenantA(), rc.ID, "Document Review")
	assert.Equal(t, 1, newStatus.Order)
	assert.Equal(t, 2, review.Order)
	assert.True(t, review.IsActive)

	applied, err := f.statuses.Reorder(f.ctx, f.tenantA(), rc.ID, positions(
		[2]uint{newStatus.ID, 5},
		[2]uint{review.ID, 1},
	))
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	statuses, err := f.statuses.List(f.ctx, f.tenantA(), rc.ID, false)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	// 两者 order 都是 1，按 id 升序
	assert.Equal(t, newStatus.ID, statuses[0].ID)
	assert.Equal(t, 1, statuses[0].Order)
	assert.Equal(t, review.ID, statuses[1].ID)
	assert.Equal(t, 1, statuses[1].Order)
}

func TestReorderAppliesRequestedValuesVerbatim(t *testing.T) {
	f := newFixture(t)
	rc := f.createCountry(t, f.tenantA(), f.canada.ID, true)
	a := f.addStatus(t, f.tenantA(), rc.ID, "Document Review")
	b := f.addStatus(t, f.tenantA(), rc.ID, "Offer")
	c := f.addStatus(t, f.tenantA(), rc.ID, "Visa")
	assert.Equal(t, []int{2, 3, 4}, []int{a.Order, b.Order, c.Order})

	// 重复与间隔的 order 原样保存
	_, err := f.statuses.Reorder(f.ctx, f.tenantA(), rc.ID, positions(
		[2]uint{a.ID, 10},
		[2]uint{b.ID, 10},
		[2]uint{c.ID, 3},
	))
	require.NoError(t, err)

	statuses, err := f.statuses.List(f.ctx, f.tenantA(), rc.ID, false)
	require.NoError(t, err)
	names := make([]string, 0, len(statuses))
	for _, st := range statuses {
		names = append(names, st.StatusName)
	}
	assert.Equal(t, []string{models.StatusNameNew, "Visa", "Document Review", "Offer"}, names)
}

func TestReorderValidation(t *testing.T) {
	f := newFixture(t)
	rc := f.createCountry(t, f.tenantA(), f.canada.ID, true)

	_, err := f.statuses.Reorder(f.ctx, f.tenantA(), rc.ID, &services.PositionsInput{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	var verr *apperrors.ValidationError
	_, err = f.statuses.Reorder(f.ctx, f.tenantA(), rc.ID, &services.PositionsInput{
		Positions: []ordering.Position{{ID: 1}},
	})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "positions[0].order")
}

func TestAddStatusRequiresName(t *testing.T) {
	f := newFixture(t)
	rc := f.createCountry(t, f.tenantA(), f.canada.ID, false)

	_, err := f.statuses.Add(f.ctx, f.tenantA(), rc.ID, &services.AddStatusInput{})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "status_name")

	// 允许重复名称，is_active 可以显式关闭
	first := f.addStatus(t, f.tenantA(), rc.ID, "Offer")
	second, err := f.statuses.Add(f.ctx, f.tenantA(), rc.ID, &services.AddStatusInput{StatusName: "Offer", IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, first.Order+1, second.Order)
	assert.False(t, second.IsActive)
}

func TestRenameOnlyTouchesCustomName(t *testing.T) {
	f := newFixture(t)
	rc := f.createCountry(t, f.tenantA(), f.canada.ID, true)
	status := f.addStatus(t, f.tenantA(), rc.ID, "Document Review")

	renamed, err := f.statuses.Rename(f.ctx, f.tenantA(), status.ID, strPtr("Docs Check"))
	require.NoError(t, err)
	assert.Equal(t, "Document Review", renamed.StatusName)
	assert.Equal(t, "Docs Check", renamed.DisplayName())

	var stored models.RepCountryStatus
	require.NoError(t, f.db.First(&stored, status.ID).Error)
	assert.Equal(t, "Document Review", stored.StatusName)
	require.NotNil(t, stored.CustomName)
	assert.Equal(t, "Docs Check", *stored.CustomName)

	// 空名称恢复为系统名称
	reset, err := f.statuses.Rename(f.ctx, f.tenantA(), status.ID, strPtr("  "))
	require.NoError(t, err)
	assert.Nil(t, reset.CustomName)
	assert.Equal(t, "Document Review", reset.DisplayName())

	_, err = f.statuses.Rename(f.ctx, f.tenantB(), status.ID, strPtr("Hijack"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteStatusCascadesToSubStatuses(t *testing.T) {
	f := newFixture(t)
	rc := f.createCountry(t, f.tenantA(), f.canada.ID, true)
	status := f.addStatus(t, f.tenantA(), rc.ID, "Document Review")
	for _, name := range []string{"Passport", "Transcript"} {
		_, err := f.subs.Add(f.ctx, f.tenantA(), status.ID, &services.AddSubStatusInput{Name: name})
		require.NoError(t, err)
	}

	require.NoError(t, f.statuses.Delete(f.ctx, f.tenantA(), status.ID))

	statuses, err := f.statuses.List(f.ctx, f.tenantA(), rc.ID, true)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, models.StatusNameNew, statuses[0].StatusName)

	_, err = f.subs.List(f.ctx, f.tenantA(), status.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	var trashedStatus models.RepCountryStatus
	require.NoError(t, f.db.Unscoped().First(&trashedStatus, status.ID).Error)
	assert.True(t, trashedStatus.DeletedAt.Valid)

	var trashedSubs []models.SubStatus
	require.NoError(t, f.db.Unscoped().Where("rep_country_status_id = ?", status.ID).Find(&trashedSubs).Error)
	require.Len(t, trashedSubs, 2)
	for _, sub := range trashedSubs {
		assert.True(t, sub.DeletedAt.Valid)
	}

	var live int64
	require.NoError(t, f.db.Model(&models.SubStatus{}).Count(&live).Error)
	assert.Zero(t, live)
}

func TestBulkUpdateNotes(t *testing.T) {
	f := newFixture(t)
	rc := f.createCountry(t, f.tenantA(), f.canada.ID, true)
	other := f.createCountry(t, f.tenantA(), f.australia.ID, true)
	review := f.addStatus(t, f.tenantA(), rc.ID, "Document Review")
	foreign := f.addStatus(t, f.tenantA(), other.ID, "Offer")

	applied, err := f.statuses.BulkUpdateNotes(f.ctx, f.tenantA(), rc.ID, &services.StatusNotesInput{
		Notes: []services.StatusNote{
			{ID: review.ID, Notes: "collect transcripts"},
			{ID: foreign.ID, Notes: "ignored"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	got, err := f.statuses.GetByID(f.ctx, f.tenantA(), review.ID)
	require.NoError(t, err)
	assert.Equal(t, "collect transcripts", got.Notes)

	got, err = f.statuses.GetByID(f.ctx, f.tenantA(), foreign.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Notes)
}

func TestUpdateStatusPatch(t *testing.T) {
	f := newFixture(t)
	rc := f.createCountry(t, f.tenantA(), f.canada.ID, true)
	status, err := f.statuses.Add(f.ctx, f.tenantA(), rc.ID, &services.AddStatusInput{StatusName: "Offer", Notes: "keep"})
	require.NoError(t, err)

	updated, err := f.statuses.SetActive(f.ctx, f.tenantA(), status.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "keep", updated.Notes)
	assert.Equal(t, status.Order, updated.Order)
}

// deletingLocker 在拿锁时执行 onLock，模拟父级在校验与插入之间被删除
type deletingLocker struct {
	onLock func()
}

func (l *deletingLocker) Lock(context.Context, string) (func(), error) {
	if l.onLock != nil {
		l.onLock()
		l.onLock = nil
	}
	return func() {}, nil
}

func TestAddStatusRechecksCountryInsideTransaction(t *testing.T) {
	f := newFixture(t)
	rc := f.createCountry(t, f.tenantA(), f.canada.ID, false)

	locker := &deletingLocker{onLock: func() {
		require.NoError(t, f.db.Delete(&models.RepresentingCountry{}, rc.ID).Error)
	}}
	statuses := services.NewRepCountryStatusService(f.db, ordering.NewManager(locker))

	_, err := statuses.Add(f.ctx, f.tenantA(), rc.ID, &services.AddStatusInput{StatusName: "Offer"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	var count int64
	require.NoError(t, f.db.Unscoped().Model(&models.RepCountryStatus{}).
		Where("representing_country_id = ?", rc.ID).Count(&count).Error)
	assert.Zero(t, count)
}
