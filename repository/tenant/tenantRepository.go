package tenantrepo

import (
	"context"
	"database/sql"
	"errors"

	"propertyhub/model"
	"propertyhub/util/apperr"
	"propertyhub/util/database"
)

type Repo interface {
	Insert(ctx context.Context, q database.Querier, t *model.Tenant) error
	Update(ctx context.Context, q database.Querier, t *model.Tenant) error
	ByID(ctx context.Context, q database.Querier, id int64) (*model.Tenant, error)
	ByEmail(ctx context.Context, q database.Querier, email string) (*model.Tenant, error)
	EmailTaken(ctx context.Context, q database.Querier, email string, excludeID int64) (bool, error)
	List(ctx context.Context, q database.Querier) ([]model.Tenant, error)
	Delete(ctx context.Context, q database.Querier, id int64) error
}

type repo struct{}

func New() Repo { return repo{} }

const cols = `id, first_name, last_name, phone, email, occupation, emergency_contact, emergency_phone, created_at`

type scanner interface{ Scan(dest ...any) error }

func scan(s scanner) (*model.Tenant, error) {
	var t model.Tenant
	if err := s.Scan(&t.ID, &t.FirstName, &t.LastName, &t.Phone, &t.Email,
		&t.Occupation, &t.EmergencyContact, &t.EmergencyPhone, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (repo) Insert(ctx context.Context, q database.Querier, t *model.Tenant) error {
	const stmt = `
		INSERT INTO tenants (first_name, last_name, phone, email, occupation, emergency_contact, emergency_phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := q.QueryRowContext(ctx, stmt, t.FirstName, t.LastName, t.Phone, t.Email,
		t.Occupation, t.EmergencyContact, t.EmergencyPhone).Scan(&t.ID, &t.CreatedAt)
	return database.MapConstraint(err, "tenant email already exists")
}

func (repo) Update(ctx context.Context, q database.Querier, t *model.Tenant) error {
	const stmt = `
		UPDATE tenants
		SET first_name = $2, last_name = $3, phone = $4, email = $5,
			occupation = $6, emergency_contact = $7, emergency_phone = $8
		WHERE id = $1`
	res, err := q.ExecContext(ctx, stmt, t.ID, t.FirstName, t.LastName, t.Phone, t.Email,
		t.Occupation, t.EmergencyContact, t.EmergencyPhone)
	if err != nil {
		return database.MapConstraint(err, "tenant email already exists")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("tenant %d not found", t.ID)
	}
	return nil
}

func (repo) ByID(ctx context.Context, q database.Querier, id int64) (*model.Tenant, error) {
	t, err := scan(q.QueryRowContext(ctx, `SELECT `+cols+` FROM tenants WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("tenant %d not found", id)
	}
	return t, err
}

func (repo) ByEmail(ctx context.Context, q database.Querier, email string) (*model.Tenant, error) {
	t, err := scan(q.QueryRowContext(ctx, `SELECT `+cols+` FROM tenants WHERE lower(email) = lower($1)`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("tenant %s not found", email)
	}
	return t, err
}

func (repo) EmailTaken(ctx context.Context, q database.Querier, email string, excludeID int64) (bool, error) {
	var ok bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE lower(email) = lower($1) AND id <> $2)`, email, excludeID).Scan(&ok)
	return ok, err
}

func (repo) List(ctx context.Context, q database.Querier) ([]model.Tenant, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+cols+` FROM tenants ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Tenant
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (repo) Delete(ctx context.Context, q database.Querier, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return database.MapConstraint(err, "tenant has lease history")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("tenant %d not found", id)
	}
	return nil
}
