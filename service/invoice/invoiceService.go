package invoicesvc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"propertyhub/model"
	gatewayrepo "propertyhub/repository/gateway"
	invoicerepo "propertyhub/repository/invoice"
	leaserepo "propertyhub/repository/lease"
	tenantrepo "propertyhub/repository/tenant"
	auditsvc "propertyhub/service/audit"
	"propertyhub/util/apperr"
	"propertyhub/util/clock"
	"propertyhub/util/database"
)

// paymentWindow is how long a gateway payment link stays valid.
const paymentWindow = 7 * 24 * time.Hour

type Service interface {
	Create(ctx context.Context, leaseID int64, periodStart, periodEnd, dueDate time.Time) (*model.Invoice, error)
	MarkPaid(ctx context.Context, id int64) (*model.Invoice, error)
	Cancel(ctx context.Context, id int64) (*model.Invoice, error)
	Get(ctx context.Context, id int64) (*model.Invoice, error)
	ListByLease(ctx context.Context, leaseID int64) ([]model.Invoice, error)
	HandleGatewayCallback(ctx context.Context, token string, raw []byte) error
	MarkOverdue(ctx context.Context) (int64, error)
}

type Deps struct {
	DB       database.Querier
	Tx       database.Transactor
	Invoices invoicerepo.Repo
	Leases   leaserepo.Repo
	Tenants  tenantrepo.Repo
	Gateway  gatewayrepo.Repo
	Audit    auditsvc.Recorder
	Clock    clock.Clock
	Log      *zap.Logger
}

type service struct {
	Deps
}

func New(d Deps) Service {
	if d.Audit == nil {
		d.Audit = auditsvc.Nop{}
	}
	if d.Clock == nil {
		d.Clock = clock.System()
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &service{Deps: d}
}

func (s *service) Create(ctx context.Context, leaseID int64, periodStart, periodEnd, dueDate time.Time) (*model.Invoice, error) {
	if periodStart.IsZero() || periodEnd.IsZero() {
		return nil, apperr.BadInput("billing period is required")
	}
	periodStart, periodEnd = clock.DateOf(periodStart), clock.DateOf(periodEnd)
	if periodEnd.Before(periodStart) {
		return nil, apperr.BadInput("period end must not precede period start")
	}
	if dueDate.IsZero() {
		dueDate = periodStart
	}
	dueDate = clock.DateOf(dueDate)

	inv := &model.Invoice{LeaseID: leaseID, PeriodStart: periodStart, PeriodEnd: periodEnd, DueDate: dueDate, Status: model.InvoicePending}
	var lease *model.Lease
	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		var err error
		if lease, err = s.Leases.ByIDForUpdate(ctx, q, leaseID); err != nil {
			return err
		}
		if lease.Status != model.LeaseActive {
			return apperr.InvalidState("lease %d is %s; invoices need an active lease", leaseID, lease.Status)
		}
		prefix := fmt.Sprintf("INV-%d-%s-", leaseID, periodStart.Format("200601"))
		n, err := s.Invoices.CountByNumberPrefix(ctx, q, prefix)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = fmt.Sprintf("%s%d", prefix, n+1)
		inv.Amount = lease.RentAmount
		return s.Invoices.Insert(ctx, q, inv)
	})
	if err != nil {
		return nil, err
	}
	s.Audit.Record(model.AuditEntry{EntityType: model.EntityInvoice, EntityID: inv.ID, Action: model.AuditCreate, NewValue: inv.InvoiceNumber})

	s.requestPaymentLink(ctx, inv, lease)
	return inv, nil
}

// requestPaymentLink asks the gateway for a link; failures leave the invoice without one.
func (s *service) requestPaymentLink(ctx context.Context, inv *model.Invoice, lease *model.Lease) {
	if s.Gateway == nil {
		return
	}
	email := ""
	if t, err := s.Tenants.ByID(ctx, s.DB, lease.TenantID); err == nil {
		email = t.Email
	}
	resp, err := s.Gateway.CreateInvoice(gatewayrepo.CreateInvoiceReq{
		ExternalID:  inv.InvoiceNumber,
		Amount:      inv.Amount,
		PayerEmail:  email,
		Description: fmt.Sprintf("Rent %s to %s", inv.PeriodStart.Format(time.DateOnly), inv.PeriodEnd.Format(time.DateOnly)),
		ExpirySec:   int(paymentWindow.Seconds()),
	})
	if err != nil {
		s.Log.Warn("payment link not created", zap.String("invoice", inv.InvoiceNumber), zap.Error(err))
		return
	}
	if err := s.Invoices.SetPaymentLink(ctx, s.DB, inv.ID, resp.InvoiceURL, resp.InvoiceID); err != nil {
		s.Log.Warn("payment link not saved", zap.String("invoice", inv.InvoiceNumber), zap.Error(err))
		return
	}
	inv.PaymentLink, inv.GatewayInvoiceID = &resp.InvoiceURL, &resp.InvoiceID
}

func (s *service) MarkPaid(ctx context.Context, id int64) (*model.Invoice, error) {
	var (
		inv     *model.Invoice
		changed bool
	)
	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		var err error
		if inv, err = s.Invoices.ByIDForUpdate(ctx, q, id); err != nil {
			return err
		}
		switch inv.Status {
		case model.InvoicePaid:
			return nil
		case model.InvoiceCancelled:
			return apperr.InvalidState("invoice %s is cancelled", inv.InvoiceNumber)
		}
		now := s.Clock.Now()
		inv.Status, inv.PaidAt, changed = model.InvoicePaid, &now, true
		return s.Invoices.SetStatus(ctx, q, id, inv.Status, inv.PaidAt)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.Audit.Record(auditsvc.StatusChange(model.EntityInvoice, id, "", string(model.InvoicePaid), nil, ""))
	}
	return inv, nil
}

func (s *service) Cancel(ctx context.Context, id int64) (*model.Invoice, error) {
	var inv *model.Invoice
	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		var err error
		if inv, err = s.Invoices.ByIDForUpdate(ctx, q, id); err != nil {
			return err
		}
		switch inv.Status {
		case model.InvoicePaid:
			return apperr.InvalidState("invoice %s is already paid", inv.InvoiceNumber)
		case model.InvoiceCancelled:
			return nil
		}
		inv.Status = model.InvoiceCancelled
		return s.Invoices.SetStatus(ctx, q, id, inv.Status, nil)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Invoice, error) {
	return s.Invoices.ByID(ctx, s.DB, id)
}

func (s *service) ListByLease(ctx context.Context, leaseID int64) ([]model.Invoice, error) {
	if _, err := s.Leases.ByID(ctx, s.DB, leaseID); err != nil {
		return nil, err
	}
	return s.Invoices.ListByLease(ctx, s.DB, leaseID)
}

func (s *service) HandleGatewayCallback(ctx context.Context, token string, raw []byte) error {
	if s.Gateway == nil {
		return apperr.InvalidState("payment gateway is not configured")
	}
	if err := s.Gateway.VerifyCallbackToken(token); err != nil {
		return err
	}
	var cb gatewayrepo.Callback
	if err := json.Unmarshal(raw, &cb); err != nil || cb.ID == "" {
		return apperr.BadInput("malformed callback body")
	}
	inv, err := s.Invoices.ByGatewayID(ctx, s.DB, cb.ID)
	if err != nil {
		return err
	}
	switch strings.ToUpper(cb.Status) {
	case "PAID", "SETTLED":
		_, err = s.MarkPaid(ctx, inv.ID)
		return err
	default:
		s.Log.Info("gateway callback ignored",
			zap.String("invoice", inv.InvoiceNumber),
			zap.String("status", cb.Status))
		return nil
	}
}

func (s *service) MarkOverdue(ctx context.Context) (int64, error) {
	today := clock.Today(s.Clock)
	var n int64
	err := s.Tx.WithinTx(ctx, func(q database.Querier) error {
		var err error
		n, err = s.Invoices.MarkOverdue(ctx, q, today)
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.Log.Info("invoices marked overdue", zap.Int64("count", n))
	}
	return n, nil
}
