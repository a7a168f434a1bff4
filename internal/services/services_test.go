package services_test

import (
	"context"
	"testing"

	"abroad/internal/models"
	"abroad/internal/ordering"
	"abroad/internal/services"
	"abroad/internal/tenancy"
	"abroad/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	ctx       context.Context
	orgA      *models.Organization
	orgB      *models.Organization
	canada    *models.Country
	australia *models.Country

	countries *services.RepresentingCountryService
	statuses  *services.RepCountryStatusService
	subs      *services.SubStatusService
	processes *services.ApplicationProcessService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	orders := ordering.NewManager(nil)
	return &fixture{
		db:        db,
		ctx:       context.Background(),
		orgA:      testutil.CreateOrganization(t, db, "Org A"),
		orgB:      testutil.CreateOrganization(t, db, "Org B"),
		canada:    testutil.CreateCountry(t, db, "Canada", "CAN"),
		australia: testutil.CreateCountry(t, db, "Australia", "AUS"),
		countries: services.NewRepresentingCountryService(db, orders),
		statuses:  services.NewRepCountryStatusService(db, orders),
		subs:      services.NewSubStatusService(db, orders),
		processes: services.NewApplicationProcessService(db, orders),
	}
}

func (f *fixture) tenantA() tenancy.Context {
	return tenancy.ForRequest(tenancy.TenantActor(1, f.orgA.ID), false)
}

func (f *fixture) tenantB() tenancy.Context {
	return tenancy.ForRequest(tenancy.TenantActor(2, f.orgB.ID), false)
}

func (f *fixture) platform() tenancy.Context {
	return tenancy.ForRequest(tenancy.PlatformActor(9, true), true)
}

func (f *fixture) createCountry(t *testing.T, tc tenancy.Context, countryID uint, seed bool) *models.RepresentingCountry {
	t.Helper()
	rc, err := f.countries.Create(f.ctx, tc, &services.CreateRepresentingCountryInput{
		CountryID:           countryID,
		IsActive:            boolPtr(true),
		SeedDefaultStatuses: boolPtr(seed),
	})
	require.NoError(t, err)
	return rc
}

func (f *fixture) addStatus(t *testing.T, tc tenancy.Context, rcID uint, name string) *models.RepCountryStatus {
	t.Helper()
	status, err := f.statuses.Add(f.ctx, tc, rcID, &services.AddStatusInput{StatusName: name})
	require.NoError(t, err)
	return status
}

func (f *fixture) createProcess(t *testing.T, tc tenancy.Context, parentID *uint, name string) *models.ApplicationProcess {
	t.Helper()
	p, err := f.processes.Create(f.ctx, tc, &services.CreateApplicationProcessInput{ParentID: parentID, Name: name})
	require.NoError(t, err)
	return p
}

func boolPtr(v bool) *bool    { return &v }
func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func uintPtr(v uint) *uint    { return &v }

func positions(pairs ...[2]uint) *services.PositionsInput {
	in := &services.PositionsInput{}
	for _, p := range pairs {
		in.Positions = append(in.Positions, ordering.Position{ID: p[0], Order: intPtr(int(p[1]))})
	}
	return in
}
