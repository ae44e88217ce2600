package rentalrequestsvc_test

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
	rentalrequestsvc "propertyhub/service/rentalrequest"
	tenantsvc "propertyhub/service/tenant"
	"propertyhub/util/apperr"
	"propertyhub/util/clock"
	"propertyhub/util/hash"
)

const adminID = int64(1000)

type notifierSpy struct {
	mu       sync.Mutex
	approved []int64
	rejected []int64
}

func (n *notifierSpy) RequestApproved(_ context.Context, r model.RentalRequest, _ model.Lease) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approved = append(n.approved, r.ID)
}

func (n *notifierSpy) RequestRejected(_ context.Context, r model.RentalRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejected = append(n.rejected, r.ID)
}

type fixture struct {
	st     *memory.Store
	svc    rentalrequestsvc.Service
	leases leasesvc.Service
	notify *notifierSpy
	unit   *model.Unit
	user   *model.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	clk := clock.Fixed(time.Date(2024, 12, 20, 12, 0, 0, 0, time.UTC))

	u := &model.Unit{RoomNumber: "U1", RentAmount: decimal.NewFromInt(5000), Status: model.UnitAvailable}
	require.NoError(t, st.Units().Insert(ctx, st, u))
	usr := &model.User{Username: "villager", Email: "vee@example.com", Role: model.RoleUser}
	require.NoError(t, st.Users().Create(ctx, st, usr))

	leases := leasesvc.New(leasesvc.Deps{DB: st, Tx: st, Units: st.Units(), Tenants: st.Tenants(), Leases: st.Leases(), Clock: clk})
	tenants := tenantsvc.New(st, st, st.Tenants(), st.Leases(), nil)
	spy := &notifierSpy{}
	svc := rentalrequestsvc.New(rentalrequestsvc.Deps{
		DB: st, Tx: st,
		Requests: st.RentalRequests(), Units: st.Units(), Leases: st.Leases(), Tenants: st.Tenants(), Users: st.Users(),
		TenantSv: tenants, LeaseSv: leases,
		Notifier: spy,
		Clock:    clk,
	})
	return &fixture{st: st, svc: svc, leases: leases, notify: spy, unit: u, user: usr}
}

func (f *fixture) principal() model.Principal {
	return model.Principal{UserID: f.user.ID, Email: f.user.Email, Role: model.RoleUser}
}

func (f *fixture) apply(t *testing.T, p model.Principal, email string) *model.RentalRequest {
	t.Helper()
	r, err := f.svc.CreateRentalRequest(context.Background(), p, model.RentalRequest{
		FirstName: "Vee", LastName: "Lee", Email: email, Phone: "555", Occupation: "engineer", UnitID: f.unit.ID,
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) unitStatus(t *testing.T) model.UnitStatus {
	u, err := f.st.Units().ByID(context.Background(), f.st, f.unit.ID)
	require.NoError(t, err)
	return u.Status
}

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestApproveWithLeaseEndToEnd(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	req := f.apply(t, model.Principal{}, "new.person@example.com")
	assert.Equal(t, model.RequestPending, req.Status)
	assert.Nil(t, req.UserID)

	out, err := f.svc.ApproveRequestWithLease(ctx, req.ID, adminID, date(2025, 1, 1), date(2025, 12, 31))
	require.NoError(t, err)

	assert.Equal(t, model.RequestApproved, out.Request.Status)
	assert.Equal(t, adminID, *out.Request.ApprovedBy)
	assert.Equal(t, out.Lease.ID, *out.Request.LeaseID)
	assert.Equal(t, model.LeaseActive, out.Lease.Status)
	assert.True(t, out.Lease.RentAmount.Equal(decimal.NewFromInt(5000)))
	assert.True(t, out.TenantCreated)
	assert.Equal(t, "new.person@example.com", out.Tenant.Email)
	assert.Equal(t, model.UnitOccupied, f.unitStatus(t))

	require.True(t, out.UserCreated)
	assert.Equal(t, model.RoleVillager, out.User.Role)
	assert.Equal(t, out.User.ID, *out.Request.UserID)
	assert.NotEmpty(t, out.User.PasswordHash)
	assert.False(t, hash.Check(out.User.PasswordHash, ""))

	active, err := f.leases.GetLeasesByStatus(ctx, model.LeaseActive)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, []int64{req.ID}, f.notify.approved)

	_, err = f.leases.CreateLease(ctx, model.Lease{UnitID: f.unit.ID, TenantID: out.Tenant.ID,
		StartDate: date(2025, 6, 1), EndDate: date(2025, 8, 31)})
	require.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
}

func TestApproveLinksExistingAccount(t *testing.T) {
	f := setup(t)
	req := f.apply(t, f.principal(), "")
	assert.Equal(t, f.user.Email, req.Email)

	out, err := f.svc.ApproveRequestWithLease(context.Background(), req.ID, adminID, date(2025, 1, 1), date(2025, 6, 30))
	require.NoError(t, err)
	assert.False(t, out.UserCreated)
	assert.Equal(t, f.user.ID, out.User.ID)
}

func TestApproveKeepsFilerWhenEmailsDiffer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	req := f.apply(t, f.principal(), "work.vee@example.com")
	require.Equal(t, f.user.ID, *req.UserID)

	out, err := f.svc.ApproveRequestWithLease(ctx, req.ID, adminID, date(2025, 1, 1), date(2025, 12, 31))
	require.NoError(t, err)
	assert.False(t, out.UserCreated)
	assert.Equal(t, f.user.ID, out.User.ID)
	assert.Equal(t, f.user.ID, *out.Request.UserID)
	assert.Equal(t, "work.vee@example.com", out.Tenant.Email)

	_, err = f.st.Users().ByEmail(ctx, f.st, "work.vee@example.com")
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err), "no second account for the filer")

	mine, err := f.svc.GetMyLatestRequest(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, mine.Request.ID)
	assert.True(t, mine.HasActiveLease)
}

func TestApproveAvoidsUsernameCollision(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := &model.User{Username: "new.person@example.com", Email: "someone.else@example.com", Role: model.RoleUser}
	require.NoError(t, f.st.Users().Create(ctx, f.st, other))
	req := f.apply(t, model.Principal{}, "New.Person@example.com")

	out, err := f.svc.ApproveRequestWithLease(ctx, req.ID, adminID, date(2025, 1, 1), date(2025, 12, 31))
	require.NoError(t, err)
	require.True(t, out.UserCreated)
	assert.NotEqual(t, other.ID, out.User.ID)
	assert.True(t, strings.HasPrefix(out.User.Username, "new.person@example.com-"), out.User.Username)
	assert.Len(t, out.User.Username, len("new.person@example.com-")+8)
	assert.Equal(t, out.User.ID, *out.Request.UserID)
}

func TestApproveWithLeaseRollsBackOnFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	req := f.apply(t, model.Principal{}, "new.person@example.com")

	_, err := f.svc.ApproveRequestWithLease(ctx, req.ID, adminID, date(2025, 12, 31), date(2025, 1, 1))
	require.Equal(t, apperr.CodeBadInput, apperr.CodeOf(err))

	require.NoError(t, f.st.Units().SetStatus(ctx, f.st, f.unit.ID, model.UnitMaintenance))
	_, err = f.svc.ApproveRequestWithLease(ctx, req.ID, adminID, date(2025, 1, 1), date(2025, 12, 31))
	require.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))

	got, err := f.svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, got.Status)
	assert.Nil(t, got.LeaseID)

	tenants, err := f.st.Tenants().List(ctx, f.st)
	require.NoError(t, err)
	assert.Empty(t, tenants, "tenant insert rolled back")
	_, err = f.st.Users().ByEmail(ctx, f.st, "new.person@example.com")
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	all, err := f.leases.GetAllLeases(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, model.UnitMaintenance, f.unitStatus(t))
	assert.Empty(t, f.notify.approved)
}

func TestApproveRequiresPending(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	req := f.apply(t, f.principal(), "")

	got, err := f.svc.ApproveRequest(ctx, req.ID, adminID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, got.Status)
	assert.Equal(t, model.UnitAvailable, f.unitStatus(t), "simple approval leaves the unit alone")

	_, err = f.svc.ApproveRequest(ctx, req.ID, adminID)
	require.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))
	_, err = f.svc.ApproveRequestWithLease(ctx, req.ID, adminID, date(2025, 1, 1), date(2025, 2, 1))
	require.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))
	_, err = f.svc.RejectRequest(ctx, req.ID, "late", adminID)
	require.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))

	_, err = f.svc.ApproveRequest(ctx, 4242, adminID)
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestCreateRequestGuards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.apply(t, f.principal(), "")

	_, err := f.svc.CreateRentalRequest(ctx, f.principal(), model.RentalRequest{FirstName: "Vee", UnitID: f.unit.ID})
	require.Equal(t, apperr.CodeConflict, apperr.CodeOf(err), "duplicate pending request")

	_, err = f.svc.CreateRentalRequest(ctx, f.principal(), model.RentalRequest{FirstName: "Vee", UnitID: 999})
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	_, err = f.svc.CreateRentalRequest(ctx, model.Principal{}, model.RentalRequest{FirstName: "X", Email: "bad", UnitID: f.unit.ID})
	require.Equal(t, apperr.CodeBadInput, apperr.CodeOf(err))

	require.NoError(t, f.st.Units().SetStatus(ctx, f.st, f.unit.ID, model.UnitOccupied))
	_, err = f.svc.CreateRentalRequest(ctx, model.Principal{}, model.RentalRequest{FirstName: "Other", Email: "o@example.com", UnitID: f.unit.ID})
	require.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
}

func TestRejectAcknowledgeCycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	req := f.apply(t, f.principal(), "")

	_, err := f.svc.RejectRequest(ctx, req.ID, "   ", adminID)
	require.Equal(t, apperr.CodeBadInput, apperr.CodeOf(err))

	rej, err := f.svc.RejectRequest(ctx, req.ID, "incomplete documents", adminID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestRejected, rej.Status)
	assert.Equal(t, "incomplete documents", *rej.RejectionReason)
	assert.Equal(t, []int64{req.ID}, f.notify.rejected)

	_, err = f.svc.CreateRentalRequest(ctx, f.principal(), model.RentalRequest{FirstName: "Vee", UnitID: f.unit.ID})
	require.Equal(t, apperr.CodeConflict, apperr.CodeOf(err), "blocked until acknowledged")

	mine, err := f.svc.GetMyLatestRequest(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, mine.IsRejected)
	assert.True(t, mine.RequiresAcknowledgement)
	assert.False(t, mine.CanCreateNewRequest)
	assert.Contains(t, mine.StatusMessage, "incomplete documents")

	_, err = f.svc.AcknowledgeRejection(ctx, req.ID, 777)
	require.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	ok, err := f.svc.AcknowledgeRejection(ctx, req.ID, f.user.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.svc.AcknowledgeRejection(ctx, req.ID, f.user.ID)
	require.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))

	mine, err = f.svc.GetMyLatestRequest(ctx, f.user.ID)
	require.NoError(t, err)
	assert.False(t, mine.RequiresAcknowledgement)
	assert.True(t, mine.CanCreateNewRequest)

	again := f.apply(t, f.principal(), "")
	_, err = f.svc.AcknowledgeRejection(ctx, again.ID, f.user.ID)
	require.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))
}

func TestAcknowledgeAnonymousRequestByEmail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	req := f.apply(t, model.Principal{}, "VEE@example.com")
	_, err := f.svc.RejectRequest(ctx, req.ID, "no", adminID)
	require.NoError(t, err)

	ok, err := f.svc.AcknowledgeRejection(ctx, req.ID, f.user.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetMyLatestRequest(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.GetMyLatestRequest(ctx, f.user.ID)
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	req := f.apply(t, f.principal(), "")
	mine, err := f.svc.GetMyLatestRequest(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, mine.IsPending)
	assert.False(t, mine.CanCreateNewRequest)
	require.NotNil(t, mine.Unit)
	assert.Equal(t, "U1", mine.Unit.RoomNumber)

	_, err = f.svc.ApproveRequestWithLease(ctx, req.ID, adminID, date(2025, 1, 1), date(2025, 12, 31))
	require.NoError(t, err)
	mine, err = f.svc.GetMyLatestRequest(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, mine.IsApproved)
	assert.True(t, mine.HasActiveLease)
	assert.False(t, mine.CanCreateNewRequest)
	require.NotNil(t, mine.Lease)
	assert.Equal(t, "Your rental request was approved and your lease is active.", mine.StatusMessage)
}

func TestCannotRequestAgainWhileUnitTaken(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	req := f.apply(t, f.principal(), "")
	_, err := f.svc.RejectRequest(ctx, req.ID, "incomplete documents", adminID)
	require.NoError(t, err)
	_, err = f.svc.AcknowledgeRejection(ctx, req.ID, f.user.ID)
	require.NoError(t, err)

	require.NoError(t, f.st.Units().SetStatus(ctx, f.st, f.unit.ID, model.UnitOccupied))
	mine, err := f.svc.GetMyLatestRequest(ctx, f.user.ID)
	require.NoError(t, err)
	assert.False(t, mine.IsPending)
	assert.False(t, mine.RequiresAcknowledgement)
	assert.False(t, mine.HasActiveLease)
	assert.False(t, mine.CanCreateNewRequest)

	require.NoError(t, f.st.Units().SetStatus(ctx, f.st, f.unit.ID, model.UnitAvailable))
	mine, err = f.svc.GetMyLatestRequest(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, mine.CanCreateNewRequest)
}

func TestCompleteAfterLeaseEnds(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	req := f.apply(t, f.principal(), "")

	_, err := f.svc.Complete(ctx, req.ID)
	require.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))

	out, err := f.svc.ApproveRequestWithLease(ctx, req.ID, adminID, date(2025, 1, 1), date(2025, 12, 31))
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, req.ID)
	require.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))

	_, err = f.leases.TerminateLease(ctx, out.Lease.ID, "moved out")
	require.NoError(t, err)
	done, err := f.svc.Complete(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestCompleted, done.Status)
}

func TestDeleteRentalRequest(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	req := f.apply(t, f.principal(), "")

	require.NoError(t, f.svc.DeleteRentalRequest(ctx, req.ID))
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(f.svc.DeleteRentalRequest(ctx, req.ID)))

	mine, err := f.svc.ListByUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}
