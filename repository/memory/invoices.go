package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"propertyhub/model"
	invoicerepo "propertyhub/repository/invoice"
	"propertyhub/util/apperr"
	"propertyhub/util/database"
)

type invoices struct{ s *Store }

func (s *Store) Invoices() invoicerepo.Repo { return invoices{s} }

func (r invoices) Insert(_ context.Context, _ database.Querier, inv *model.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.t.invoices {
		if o.InvoiceNumber == inv.InvoiceNumber {
			return apperr.Conflict("invoice number already exists")
		}
	}
	inv.ID = r.s.nextID()
	inv.CreatedAt = now()
	r.s.t.invoices[inv.ID] = *inv
	return nil
}

func (r invoices) ByID(_ context.Context, _ database.Querier, id int64) (*model.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	inv, ok := r.s.t.invoices[id]
	if !ok {
		return nil, apperr.NotFound("invoice %d not found", id)
	}
	return &inv, nil
}

func (r invoices) ByIDForUpdate(ctx context.Context, q database.Querier, id int64) (*model.Invoice, error) {
	return r.ByID(ctx, q, id)
}

func (r invoices) ByGatewayID(_ context.Context, _ database.Querier, gatewayID string) (*model.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, inv := range r.s.t.invoices {
		if inv.GatewayInvoiceID != nil && *inv.GatewayInvoiceID == gatewayID {
			return &inv, nil
		}
	}
	return nil, apperr.NotFound("invoice for gateway id %s not found", gatewayID)
}

func (r invoices) ListByLease(_ context.Context, _ database.Querier, leaseID int64) ([]model.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Invoice
	for _, inv := range r.s.t.invoices {
		if inv.LeaseID == leaseID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PeriodStart.Equal(out[j].PeriodStart) {
			return out[i].PeriodStart.Before(out[j].PeriodStart)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r invoices) CountByNumberPrefix(_ context.Context, _ database.Querier, prefix string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, inv := range r.s.t.invoices {
		if strings.HasPrefix(inv.InvoiceNumber, prefix) {
			n++
		}
	}
	return n, nil
}

func (r invoices) SetPaymentLink(_ context.Context, _ database.Querier, id int64, link, gatewayID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.t.invoices[id]
	if !ok {
		return apperr.NotFound("invoice %d not found", id)
	}
	inv.PaymentLink, inv.GatewayInvoiceID = &link, &gatewayID
	r.s.t.invoices[id] = inv
	return nil
}

func (r invoices) SetStatus(_ context.Context, _ database.Querier, id int64, status model.InvoiceStatus, paidAt *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.t.invoices[id]
	if !ok {
		return apperr.NotFound("invoice %d not found", id)
	}
	inv.Status, inv.PaidAt = status, paidAt
	r.s.t.invoices[id] = inv
	return nil
}

func (r invoices) MarkOverdue(_ context.Context, _ database.Querier, today time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, inv := range r.s.t.invoices {
		if inv.Status == model.InvoicePending && inv.DueDate.Before(today) {
			inv.Status = model.InvoiceOverdue
			r.s.t.invoices[id] = inv
			n++
		}
	}
	return n, nil
}
