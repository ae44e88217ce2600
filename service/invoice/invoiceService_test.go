package invoicesvc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertyhub/model"
	gatewayrepo "propertyhub/repository/gateway"
	"propertyhub/repository/memory"
	invoicesvc "propertyhub/service/invoice"
	"propertyhub/util/apperr"
	"propertyhub/util/clock"
)

type gatewayMock struct {
	createFn func(req gatewayrepo.CreateInvoiceReq) (*gatewayrepo.CreateInvoiceResp, error)
	verifyFn func(token string) error
}

func (m *gatewayMock) CreateInvoice(req gatewayrepo.CreateInvoiceReq) (*gatewayrepo.CreateInvoiceResp, error) {
	return m.createFn(req)
}
func (m *gatewayMock) VerifyCallbackToken(token string) error { return m.verifyFn(token) }

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func setup(t *testing.T, gw gatewayrepo.Repo) (*memory.Store, *model.Lease, invoicesvc.Service) {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	tn := &model.Tenant{FirstName: "Ann", Email: "ann@example.com"}
	require.NoError(t, st.Tenants().Insert(ctx, st, tn))
	l := &model.Lease{UnitID: 1, TenantID: tn.ID, StartDate: date(2025, 1, 1), EndDate: date(2025, 12, 31),
		RentAmount: decimal.NewFromInt(5000), Status: model.LeaseActive}
	require.NoError(t, st.Leases().Insert(ctx, st, l))

	svc := invoicesvc.New(invoicesvc.Deps{
		DB: st, Tx: st,
		Invoices: st.Invoices(), Leases: st.Leases(), Tenants: st.Tenants(),
		Gateway: gw,
		Clock:   clock.Fixed(time.Date(2025, 2, 10, 8, 0, 0, 0, time.UTC)),
	})
	return st, l, svc
}

func okGateway() *gatewayMock {
	return &gatewayMock{
		createFn: func(req gatewayrepo.CreateInvoiceReq) (*gatewayrepo.CreateInvoiceResp, error) {
			return &gatewayrepo.CreateInvoiceResp{InvoiceID: "gw-" + req.ExternalID, InvoiceURL: "https://pay/" + req.ExternalID}, nil
		},
		verifyFn: func(token string) error {
			if token != "tok" {
				return apperr.Unauthorized("invalid callback token")
			}
			return nil
		},
	}
}

func TestCreateNumbersAndLinks(t *testing.T) {
	var seen gatewayrepo.CreateInvoiceReq
	gw := okGateway()
	inner := gw.createFn
	gw.createFn = func(req gatewayrepo.CreateInvoiceReq) (*gatewayrepo.CreateInvoiceResp, error) {
		seen = req
		return inner(req)
	}
	_, l, svc := setup(t, gw)
	ctx := context.Background()

	inv, err := svc.Create(ctx, l.ID, date(2025, 1, 1), date(2025, 1, 31), date(2025, 1, 5))
	require.NoError(t, err)
	assert.Equal(t, "INV-2-202501-1", inv.InvoiceNumber)
	assert.True(t, inv.Amount.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, model.InvoicePending, inv.Status)
	require.NotNil(t, inv.PaymentLink)
	assert.Equal(t, "https://pay/INV-2-202501-1", *inv.PaymentLink)
	assert.Equal(t, "ann@example.com", seen.PayerEmail)

	again, err := svc.Create(ctx, l.ID, date(2025, 1, 1), date(2025, 1, 31), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "INV-2-202501-2", again.InvoiceNumber)
	assert.Equal(t, date(2025, 1, 1), again.DueDate)

	list, err := svc.ListByLease(ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCreateSurvivesGatewayFailure(t *testing.T) {
	gw := okGateway()
	gw.createFn = func(gatewayrepo.CreateInvoiceReq) (*gatewayrepo.CreateInvoiceResp, error) {
		return nil, errors.New("timeout")
	}
	_, l, svc := setup(t, gw)

	inv, err := svc.Create(context.Background(), l.ID, date(2025, 2, 1), date(2025, 2, 28), date(2025, 2, 5))
	require.NoError(t, err)
	assert.Nil(t, inv.PaymentLink)
}

func TestCreateRequiresActiveLease(t *testing.T) {
	st, l, svc := setup(t, okGateway())
	ctx := context.Background()

	_, err := svc.Create(ctx, l.ID, date(2025, 2, 28), date(2025, 2, 1), time.Time{})
	require.Equal(t, apperr.CodeBadInput, apperr.CodeOf(err))

	l.Status = model.LeaseTerminated
	require.NoError(t, st.Leases().Update(ctx, st, l))
	_, err = svc.Create(ctx, l.ID, date(2025, 2, 1), date(2025, 2, 28), time.Time{})
	require.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))

	_, err = svc.Create(ctx, 999, date(2025, 2, 1), date(2025, 2, 28), time.Time{})
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestMarkPaidIsIdempotentAndCancelRules(t *testing.T) {
	_, l, svc := setup(t, okGateway())
	ctx := context.Background()
	inv, err := svc.Create(ctx, l.ID, date(2025, 1, 1), date(2025, 1, 31), date(2025, 1, 5))
	require.NoError(t, err)

	paid, err := svc.MarkPaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoicePaid, paid.Status)
	first := *paid.PaidAt

	paid, err = svc.MarkPaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, first, *paid.PaidAt)

	_, err = svc.Cancel(ctx, inv.ID)
	require.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))

	other, err := svc.Create(ctx, l.ID, date(2025, 2, 1), date(2025, 2, 28), date(2025, 2, 5))
	require.NoError(t, err)
	c, err := svc.Cancel(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceCancelled, c.Status)
	_, err = svc.MarkPaid(ctx, other.ID)
	require.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))
}

func TestHandleGatewayCallback(t *testing.T) {
	_, l, svc := setup(t, okGateway())
	ctx := context.Background()
	inv, err := svc.Create(ctx, l.ID, date(2025, 1, 1), date(2025, 1, 31), date(2025, 1, 5))
	require.NoError(t, err)
	body := []byte(`{"id":"gw-INV-2-202501-1","status":"PAID","external_id":"INV-2-202501-1"}`)

	require.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(svc.HandleGatewayCallback(ctx, "bad", body)))
	require.Equal(t, apperr.CodeBadInput, apperr.CodeOf(svc.HandleGatewayCallback(ctx, "tok", []byte("{"))))
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(svc.HandleGatewayCallback(ctx, "tok", []byte(`{"id":"nope","status":"PAID"}`))))

	require.NoError(t, svc.HandleGatewayCallback(ctx, "tok", body))
	got, err := svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoicePaid, got.Status)
}

func TestMarkOverdue(t *testing.T) {
	_, l, svc := setup(t, okGateway())
	ctx := context.Background()
	late, err := svc.Create(ctx, l.ID, date(2025, 1, 1), date(2025, 1, 31), date(2025, 2, 9))
	require.NoError(t, err)
	onTime, err := svc.Create(ctx, l.ID, date(2025, 2, 1), date(2025, 2, 28), date(2025, 2, 10))
	require.NoError(t, err)

	n, err := svc.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, _ := svc.Get(ctx, late.ID)
	assert.Equal(t, model.InvoiceOverdue, got.Status)
	got, _ = svc.Get(ctx, onTime.ID)
	assert.Equal(t, model.InvoicePending, got.Status)
}
