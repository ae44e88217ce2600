package leasesvc_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertyhub/model"
	"propertyhub/repository/memory"
	leasesvc "propertyhub/service/lease"
	"propertyhub/util/apperr"
	"propertyhub/util/clock"
)

var today = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

type fixture struct {
	store  *memory.Store
	docs   *memory.Documents
	svc    leasesvc.Service
	unit   *model.Unit
	tenant *model.Tenant
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	docs := memory.NewDocuments()

	u := &model.Unit{RoomNumber: "U1", Floor: 1, RentAmount: decimal.NewFromInt(5000), Status: model.UnitAvailable}
	require.NoError(t, st.Units().Insert(ctx, st, u))
	tn := &model.Tenant{FirstName: "Ann", Email: "ann@example.com"}
	require.NoError(t, st.Tenants().Insert(ctx, st, tn))

	svc := leasesvc.New(leasesvc.Deps{
		DB: st, Tx: st,
		Units: st.Units(), Tenants: st.Tenants(), Leases: st.Leases(),
		Docs:  docs,
		Clock: clock.Fixed(today.Add(10 * time.Hour)),
	})
	return &fixture{store: st, docs: docs, svc: svc, unit: u, tenant: tn}
}

func (f *fixture) lease(start, end time.Time) model.Lease {
	return model.Lease{UnitID: f.unit.ID, TenantID: f.tenant.ID, StartDate: start, EndDate: end}
}

func (f *fixture) unitStatus(t *testing.T) model.UnitStatus {
	u, err := f.store.Units().ByID(context.Background(), f.store, f.unit.ID)
	require.NoError(t, err)
	return u.Status
}

func TestCreateLeaseOccupiesUnit(t *testing.T) {
	f := setup(t)
	l, err := f.svc.CreateLease(context.Background(), f.lease(date(2025, 1, 1), date(2025, 12, 31)))
	require.NoError(t, err)
	assert.Equal(t, model.LeaseActive, l.Status)
	assert.True(t, l.RentAmount.Equal(decimal.NewFromInt(5000)), "rent defaults to the unit's rent")
	assert.Equal(t, model.UnitOccupied, f.unitStatus(t))
}

func TestCreateLeaseOnOccupiedUnitPersistsNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.svc.CreateLease(ctx, f.lease(date(2025, 1, 1), date(2025, 12, 31)))
	require.NoError(t, err)

	_, err = f.svc.CreateLease(ctx, f.lease(date(2025, 6, 1), date(2025, 8, 31)))
	require.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))

	all, err := f.svc.GetLeasesByUnit(ctx, f.unit.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestCreateLeaseValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateLease(ctx, f.lease(date(2025, 5, 1), date(2025, 4, 1)))
	require.Equal(t, apperr.CodeBadInput, apperr.CodeOf(err))

	l := f.lease(date(2025, 1, 1), date(2025, 2, 1))
	l.UnitID = 999
	_, err = f.svc.CreateLease(ctx, l)
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	assert.Equal(t, model.UnitAvailable, f.unitStatus(t))
}

func TestCreateLeaseSingleDayRangeAllowed(t *testing.T) {
	f := setup(t)
	_, err := f.svc.CreateLease(context.Background(), f.lease(date(2025, 4, 1), date(2025, 4, 1)))
	require.NoError(t, err)
}

func TestCreateLeaseRejectsOverlapEvenWhenUnitAvailable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	// Active lease left behind on an AVAILABLE unit.
	stale := f.lease(date(2025, 1, 1), date(2025, 6, 30))
	stale.Status = model.LeaseActive
	require.NoError(t, f.store.Leases().Insert(ctx, f.store, &stale))

	_, err := f.svc.CreateLease(ctx, f.lease(date(2025, 6, 30), date(2025, 9, 1)))
	require.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))

	_, err = f.svc.CreatePending(ctx, f.lease(date(2025, 3, 1), date(2025, 3, 2)))
	require.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
}

func TestActivateLease(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.svc.CreatePending(ctx, f.lease(date(2025, 4, 1), date(2026, 3, 31)))
	require.NoError(t, err)
	assert.Equal(t, model.LeasePending, p.Status)
	assert.Equal(t, model.UnitAvailable, f.unitStatus(t))

	a, err := f.svc.ActivateLease(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeaseActive, a.Status)
	assert.Equal(t, model.UnitOccupied, f.unitStatus(t))

	_, err = f.svc.ActivateLease(ctx, p.ID)
	require.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))
}

func TestActivateLeaseOnOccupiedUnitConflicts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.svc.CreatePending(ctx, f.lease(date(2026, 1, 1), date(2026, 6, 30)))
	require.NoError(t, err)
	_, err = f.svc.CreateLease(ctx, f.lease(date(2025, 1, 1), date(2025, 12, 31)))
	require.NoError(t, err)

	_, err = f.svc.ActivateLease(ctx, p.ID)
	require.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))

	got, err := f.svc.GetLease(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeasePending, got.Status)
}

func TestTerminateLease(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	l, err := f.svc.CreateLease(ctx, f.lease(date(2025, 1, 1), date(2025, 12, 31)))
	require.NoError(t, err)

	got, err := f.svc.TerminateLease(ctx, l.ID, "  ")
	require.NoError(t, err)
	assert.Equal(t, model.LeaseTerminated, got.Status)
	require.NotNil(t, got.TerminationReason)
	assert.Equal(t, "Lease terminated", *got.TerminationReason)
	assert.Equal(t, model.UnitAvailable, f.unitStatus(t))

	_, err = f.svc.TerminateLease(ctx, l.ID, "again")
	require.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))

	_, err = f.svc.TerminateLease(ctx, 12345, "")
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestExpireLeases(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	l2, err := f.svc.CreateLease(ctx, f.lease(date(2024, 3, 10), today.AddDate(0, 0, -1)))
	require.NoError(t, err)

	other := &model.Unit{RoomNumber: "U2", Status: model.UnitAvailable, RentAmount: decimal.NewFromInt(100)}
	require.NoError(t, f.store.Units().Insert(ctx, f.store, other))
	endsToday := f.lease(date(2025, 1, 1), today)
	endsToday.UnitID = other.ID
	_, err = f.svc.CreateLease(ctx, endsToday)
	require.NoError(t, err)

	n, err := f.svc.ExpireLeases(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.svc.GetLease(ctx, l2.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeaseExpired, got.Status)
	assert.Equal(t, model.UnitAvailable, f.unitStatus(t))

	n, err = f.svc.ExpireLeases(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "second run changes nothing")

	expired, err := f.svc.GetExpiredLeases(ctx)
	require.NoError(t, err)
	require.Len(t, expired, 1)

	_, err = f.svc.GetActiveLeaseByUnit(ctx, f.unit.ID)
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	active, err := f.svc.GetActiveLeaseByUnit(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, today, active.EndDate)
}

func TestGetLeasesEndingSoon(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.svc.CreateLease(ctx, f.lease(date(2025, 1, 1), today.AddDate(0, 0, 30)))
	require.NoError(t, err)

	_, err = f.svc.GetLeasesEndingSoon(ctx, -1)
	require.Equal(t, apperr.CodeBadInput, apperr.CodeOf(err))

	got, err := f.svc.GetLeasesEndingSoon(ctx, 29)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.svc.GetLeasesEndingSoon(ctx, 30)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestUpdateLease(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	l, err := f.svc.CreateLease(ctx, f.lease(date(2025, 1, 1), date(2025, 12, 31)))
	require.NoError(t, err)

	end := date(2026, 6, 30)
	rent := decimal.NewFromInt(5500)
	got, err := f.svc.UpdateLease(ctx, l.ID, model.LeaseUpdate{EndDate: &end, RentAmount: &rent})
	require.NoError(t, err)
	assert.Equal(t, end, got.EndDate)
	assert.True(t, got.RentAmount.Equal(rent))

	bad := date(2024, 1, 1)
	_, err = f.svc.UpdateLease(ctx, l.ID, model.LeaseUpdate{EndDate: &bad})
	require.Equal(t, apperr.CodeBadInput, apperr.CodeOf(err))

	_, err = f.svc.TerminateLease(ctx, l.ID, "")
	require.NoError(t, err)
	_, err = f.svc.UpdateLease(ctx, l.ID, model.LeaseUpdate{RentAmount: &rent})
	require.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))
}

func TestDeleteLeaseFreesUnit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	l, err := f.svc.CreateLease(ctx, f.lease(date(2025, 1, 1), date(2025, 12, 31)))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteLease(ctx, l.ID))
	assert.Equal(t, model.UnitAvailable, f.unitStatus(t))
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(f.svc.DeleteLease(ctx, l.ID)))
}

func TestAttachDocument(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	l, err := f.svc.CreateLease(ctx, f.lease(date(2025, 1, 1), date(2025, 12, 31)))
	require.NoError(t, err)

	got, err := f.svc.AttachDocument(ctx, l.ID, "signed.pdf", "application/pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	require.NotNil(t, got.DocumentKey)
	body, ok := f.docs.Get(*got.DocumentKey)
	require.True(t, ok)
	assert.Equal(t, "%PDF", string(body))

	_, err = f.svc.AttachDocument(ctx, 999, "x.pdf", "", strings.NewReader(""))
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestConcurrentCreateLeaseOnlyOneWins(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := date(2025, 1, 1).AddDate(0, i, 0)
			if _, err := f.svc.CreateLease(ctx, f.lease(start, start.AddDate(0, 1, 0))); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else {
				assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	active, err := f.svc.GetLeasesByStatus(ctx, model.LeaseActive)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
