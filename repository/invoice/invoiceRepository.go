package invoicerepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"propertyhub/model"
	"propertyhub/util/apperr"
	"propertyhub/util/database"
)

type Repo interface {
	Insert(ctx context.Context, q database.Querier, inv *model.Invoice) error
	ByID(ctx context.Context, q database.Querier, id int64) (*model.Invoice, error)
	ByIDForUpdate(ctx context.Context, q database.Querier, id int64) (*model.Invoice, error)
	ByGatewayID(ctx context.Context, q database.Querier, gatewayID string) (*model.Invoice, error)
	ListByLease(ctx context.Context, q database.Querier, leaseID int64) ([]model.Invoice, error)
	// CountByNumberPrefix backs the per-period sequence in invoice numbers.
	CountByNumberPrefix(ctx context.Context, q database.Querier, prefix string) (int, error)
	SetPaymentLink(ctx context.Context, q database.Querier, id int64, link, gatewayID string) error
	SetStatus(ctx context.Context, q database.Querier, id int64, status model.InvoiceStatus, paidAt *time.Time) error
	MarkOverdue(ctx context.Context, q database.Querier, today time.Time) (int64, error)
}

type repo struct{}

func New() Repo { return repo{} }

const cols = `id, lease_id, invoice_number, amount, period_start, period_end, due_date, status,
	payment_link, gateway_invoice_id, paid_at, created_at`

type scanner interface{ Scan(dest ...any) error }

func scan(s scanner) (*model.Invoice, error) {
	var inv model.Invoice
	if err := s.Scan(&inv.ID, &inv.LeaseID, &inv.InvoiceNumber, &inv.Amount, &inv.PeriodStart, &inv.PeriodEnd,
		&inv.DueDate, &inv.Status, &inv.PaymentLink, &inv.GatewayInvoiceID, &inv.PaidAt, &inv.CreatedAt); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (repo) Insert(ctx context.Context, q database.Querier, inv *model.Invoice) error {
	const stmt = `
		INSERT INTO invoices (lease_id, invoice_number, amount, period_start, period_end, due_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := q.QueryRowContext(ctx, stmt, inv.LeaseID, inv.InvoiceNumber, inv.Amount, inv.PeriodStart,
		inv.PeriodEnd, inv.DueDate, inv.Status).Scan(&inv.ID, &inv.CreatedAt)
	return database.MapConstraint(err, "invoice number already exists")
}

func (repo) ByID(ctx context.Context, q database.Querier, id int64) (*model.Invoice, error) {
	inv, err := scan(q.QueryRowContext(ctx, `SELECT `+cols+` FROM invoices WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("invoice %d not found", id)
	}
	return inv, err
}

func (repo) ByIDForUpdate(ctx context.Context, q database.Querier, id int64) (*model.Invoice, error) {
	inv, err := scan(q.QueryRowContext(ctx, `SELECT `+cols+` FROM invoices WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("invoice %d not found", id)
	}
	return inv, err
}

func (repo) ByGatewayID(ctx context.Context, q database.Querier, gatewayID string) (*model.Invoice, error) {
	inv, err := scan(q.QueryRowContext(ctx, `SELECT `+cols+` FROM invoices WHERE gateway_invoice_id = $1`, gatewayID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("invoice for gateway id %s not found", gatewayID)
	}
	return inv, err
}

func (repo) ListByLease(ctx context.Context, q database.Querier, leaseID int64) ([]model.Invoice, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+cols+` FROM invoices WHERE lease_id = $1 ORDER BY period_start, id`, leaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Invoice
	for rows.Next() {
		inv, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func (repo) CountByNumberPrefix(ctx context.Context, q database.Querier, prefix string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices WHERE invoice_number LIKE $1 || '%'`, prefix).Scan(&n)
	return n, err
}

func (repo) SetPaymentLink(ctx context.Context, q database.Querier, id int64, link, gatewayID string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE invoices SET payment_link = $2, gateway_invoice_id = $3 WHERE id = $1`, id, link, gatewayID)
	return err
}

func (repo) SetStatus(ctx context.Context, q database.Querier, id int64, status model.InvoiceStatus, paidAt *time.Time) error {
	res, err := q.ExecContext(ctx, `UPDATE invoices SET status = $2, paid_at = $3 WHERE id = $1`, id, status, paidAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("invoice %d not found", id)
	}
	return nil
}

func (repo) MarkOverdue(ctx context.Context, q database.Querier, today time.Time) (int64, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE invoices SET status = 'OVERDUE' WHERE status = 'PENDING' AND due_date < $1`, today)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
