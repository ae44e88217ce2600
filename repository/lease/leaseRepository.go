package leaserepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"propertyhub/model"
	"propertyhub/util/apperr"
	"propertyhub/util/database"
)

// Filter narrows List; nil fields are ignored.
type Filter struct {
	Status   *model.LeaseStatus
	TenantID *int64
	UnitID   *int64
}

type Repo interface {
	Insert(ctx context.Context, q database.Querier, l *model.Lease) error
	Update(ctx context.Context, q database.Querier, l *model.Lease) error
	ByID(ctx context.Context, q database.Querier, id int64) (*model.Lease, error)
	ByIDForUpdate(ctx context.Context, q database.Querier, id int64) (*model.Lease, error)
	List(ctx context.Context, q database.Querier, f Filter) ([]model.Lease, error)
	ActiveByUnit(ctx context.Context, q database.Querier, unitID int64) (*model.Lease, error)
	// OverlappingActive returns ACTIVE leases of the unit whose inclusive range
	// intersects [start, end]. excludeID = 0 excludes nothing.
	OverlappingActive(ctx context.Context, q database.Querier, unitID int64, start, end time.Time, excludeID int64) ([]model.Lease, error)
	EndingBetween(ctx context.Context, q database.Querier, from, to time.Time) ([]model.Lease, error)
	// ExpireEndedBefore flips ACTIVE leases ending before day to EXPIRED and returns them.
	ExpireEndedBefore(ctx context.Context, q database.Querier, day time.Time) ([]model.Lease, error)
	CountOpenByUnit(ctx context.Context, q database.Querier, unitID int64) (int, error)
	CountActiveByTenant(ctx context.Context, q database.Querier, tenantID int64) (int, error)
	Delete(ctx context.Context, q database.Querier, id int64) error
}

type repo struct{}

func New() Repo { return repo{} }

const cols = `id, unit_id, tenant_id, start_date, end_date, rent_amount, security_deposit,
	status, termination_reason, document_key, created_at, updated_at`

type scanner interface{ Scan(dest ...any) error }

func scan(s scanner) (*model.Lease, error) {
	var l model.Lease
	if err := s.Scan(&l.ID, &l.UnitID, &l.TenantID, &l.StartDate, &l.EndDate, &l.RentAmount,
		&l.SecurityDeposit, &l.Status, &l.TerminationReason, &l.DocumentKey, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func collect(rows *sql.Rows, err error) ([]model.Lease, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Lease
	for rows.Next() {
		l, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (repo) Insert(ctx context.Context, q database.Querier, l *model.Lease) error {
	const stmt = `
		INSERT INTO leases (unit_id, tenant_id, start_date, end_date, rent_amount, security_deposit, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	err := q.QueryRowContext(ctx, stmt, l.UnitID, l.TenantID, l.StartDate, l.EndDate,
		l.RentAmount, l.SecurityDeposit, l.Status).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	return database.MapConstraint(err, "unit already has an active lease for these dates")
}

func (repo) Update(ctx context.Context, q database.Querier, l *model.Lease) error {
	const stmt = `
		UPDATE leases
		SET start_date = $2, end_date = $3, rent_amount = $4, security_deposit = $5,
			status = $6, termination_reason = $7, document_key = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := q.QueryRowContext(ctx, stmt, l.ID, l.StartDate, l.EndDate, l.RentAmount, l.SecurityDeposit,
		l.Status, l.TerminationReason, l.DocumentKey).Scan(&l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("lease %d not found", l.ID)
	}
	return database.MapConstraint(err, "unit already has an active lease for these dates")
}

func (repo) ByID(ctx context.Context, q database.Querier, id int64) (*model.Lease, error) {
	l, err := scan(q.QueryRowContext(ctx, `SELECT `+cols+` FROM leases WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("lease %d not found", id)
	}
	return l, err
}

func (repo) ByIDForUpdate(ctx context.Context, q database.Querier, id int64) (*model.Lease, error) {
	l, err := scan(q.QueryRowContext(ctx, `SELECT `+cols+` FROM leases WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("lease %d not found", id)
	}
	return l, err
}

func (repo) List(ctx context.Context, q database.Querier, f Filter) ([]model.Lease, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.TenantID != nil {
		args = append(args, *f.TenantID)
		where = append(where, fmt.Sprintf("tenant_id = $%d", len(args)))
	}
	if f.UnitID != nil {
		args = append(args, *f.UnitID)
		where = append(where, fmt.Sprintf("unit_id = $%d", len(args)))
	}
	stmt := `SELECT ` + cols + ` FROM leases`
	if len(where) > 0 {
		stmt += ` WHERE ` + strings.Join(where, " AND ")
	}
	stmt += ` ORDER BY start_date DESC, id DESC`
	return collect(q.QueryContext(ctx, stmt, args...))
}

func (repo) ActiveByUnit(ctx context.Context, q database.Querier, unitID int64) (*model.Lease, error) {
	l, err := scan(q.QueryRowContext(ctx,
		`SELECT `+cols+` FROM leases WHERE unit_id = $1 AND status = 'ACTIVE'`, unitID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("no active lease for unit %d", unitID)
	}
	return l, err
}

func (repo) OverlappingActive(ctx context.Context, q database.Querier, unitID int64, start, end time.Time, excludeID int64) ([]model.Lease, error) {
	const stmt = `
		SELECT ` + cols + `
		FROM leases
		WHERE unit_id = $1
		AND status = 'ACTIVE'
		AND start_date <= $3
		AND end_date >= $2
		AND id <> $4`
	return collect(q.QueryContext(ctx, stmt, unitID, start, end, excludeID))
}

func (repo) EndingBetween(ctx context.Context, q database.Querier, from, to time.Time) ([]model.Lease, error) {
	const stmt = `
		SELECT ` + cols + `
		FROM leases
		WHERE status = 'ACTIVE'
		AND end_date BETWEEN $1 AND $2
		ORDER BY end_date, id`
	return collect(q.QueryContext(ctx, stmt, from, to))
}

func (repo) ExpireEndedBefore(ctx context.Context, q database.Querier, day time.Time) ([]model.Lease, error) {
	const stmt = `
		UPDATE leases
		SET status = 'EXPIRED', updated_at = NOW()
		WHERE status = 'ACTIVE'
		AND end_date < $1
		RETURNING ` + cols
	return collect(q.QueryContext(ctx, stmt, day))
}

func (repo) CountOpenByUnit(ctx context.Context, q database.Querier, unitID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leases WHERE unit_id = $1 AND status IN ('ACTIVE', 'PENDING')`, unitID).Scan(&n)
	return n, err
}

func (repo) CountActiveByTenant(ctx context.Context, q database.Querier, tenantID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leases WHERE tenant_id = $1 AND status = 'ACTIVE'`, tenantID).Scan(&n)
	return n, err
}

func (repo) Delete(ctx context.Context, q database.Querier, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM leases WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("lease %d not found", id)
	}
	return nil
}
