package rentalrequestrepo

import (
	"context"
	"database/sql"
	"errors"

	"propertyhub/model"
	"propertyhub/util/apperr"
	"propertyhub/util/database"
)

// Applicant identifies who filed a request: the account when known, the email always.
type Applicant struct {
	UserID *int64
	Email  string
}

type Repo interface {
	Insert(ctx context.Context, q database.Querier, r *model.RentalRequest) error
	Update(ctx context.Context, q database.Querier, r *model.RentalRequest) error
	ByID(ctx context.Context, q database.Querier, id int64) (*model.RentalRequest, error)
	ByIDForUpdate(ctx context.Context, q database.Querier, id int64) (*model.RentalRequest, error)
	List(ctx context.Context, q database.Querier, status *model.RentalRequestStatus) ([]model.RentalRequest, error)
	ListByUser(ctx context.Context, q database.Querier, userID int64) ([]model.RentalRequest, error)
	LatestByUser(ctx context.Context, q database.Querier, userID int64) (*model.RentalRequest, error)
	HasUnacknowledgedRejection(ctx context.Context, q database.Querier, unitID int64, a Applicant) (bool, error)
	HasPending(ctx context.Context, q database.Querier, unitID int64, a Applicant) (bool, error)
	Delete(ctx context.Context, q database.Querier, id int64) error
}

type repo struct{}

func New() Repo { return repo{} }

const cols = `id, user_id, first_name, last_name, email, phone, occupation, unit_id, status, notes,
	request_date, approved_by, approved_at, rejected_by, rejected_at, rejection_reason,
	rejection_acknowledged_at, lease_id, updated_at`

type scanner interface{ Scan(dest ...any) error }

func scan(s scanner) (*model.RentalRequest, error) {
	var r model.RentalRequest
	if err := s.Scan(&r.ID, &r.UserID, &r.FirstName, &r.LastName, &r.Email, &r.Phone, &r.Occupation,
		&r.UnitID, &r.Status, &r.Notes, &r.RequestDate, &r.ApprovedBy, &r.ApprovedAt, &r.RejectedBy,
		&r.RejectedAt, &r.RejectionReason, &r.RejectionAcknowledgedAt, &r.LeaseID, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func collect(rows *sql.Rows, err error) ([]model.RentalRequest, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RentalRequest
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (repo) Insert(ctx context.Context, q database.Querier, r *model.RentalRequest) error {
	const stmt = `
		INSERT INTO rental_requests (user_id, first_name, last_name, email, phone, occupation, unit_id, status, notes, request_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, updated_at`
	return q.QueryRowContext(ctx, stmt, r.UserID, r.FirstName, r.LastName, r.Email, r.Phone, r.Occupation,
		r.UnitID, r.Status, r.Notes, r.RequestDate).Scan(&r.ID, &r.UpdatedAt)
}

func (repo) Update(ctx context.Context, q database.Querier, r *model.RentalRequest) error {
	const stmt = `
		UPDATE rental_requests
		SET user_id = $2, status = $3, notes = $4,
			approved_by = $5, approved_at = $6,
			rejected_by = $7, rejected_at = $8, rejection_reason = $9,
			rejection_acknowledged_at = $10, lease_id = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := q.QueryRowContext(ctx, stmt, r.ID, r.UserID, r.Status, r.Notes, r.ApprovedBy, r.ApprovedAt,
		r.RejectedBy, r.RejectedAt, r.RejectionReason, r.RejectionAcknowledgedAt, r.LeaseID).Scan(&r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("rental request %d not found", r.ID)
	}
	return err
}

func (repo) ByID(ctx context.Context, q database.Querier, id int64) (*model.RentalRequest, error) {
	r, err := scan(q.QueryRowContext(ctx, `SELECT `+cols+` FROM rental_requests WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("rental request %d not found", id)
	}
	return r, err
}

func (repo) ByIDForUpdate(ctx context.Context, q database.Querier, id int64) (*model.RentalRequest, error) {
	r, err := scan(q.QueryRowContext(ctx, `SELECT `+cols+` FROM rental_requests WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("rental request %d not found", id)
	}
	return r, err
}

func (repo) List(ctx context.Context, q database.Querier, status *model.RentalRequestStatus) ([]model.RentalRequest, error) {
	if status != nil {
		return collect(q.QueryContext(ctx,
			`SELECT `+cols+` FROM rental_requests WHERE status = $1 ORDER BY request_date DESC, id DESC`, *status))
	}
	return collect(q.QueryContext(ctx, `SELECT `+cols+` FROM rental_requests ORDER BY request_date DESC, id DESC`))
}

func (repo) ListByUser(ctx context.Context, q database.Querier, userID int64) ([]model.RentalRequest, error) {
	return collect(q.QueryContext(ctx,
		`SELECT `+cols+` FROM rental_requests WHERE user_id = $1 ORDER BY request_date DESC, id DESC`, userID))
}

func (repo) LatestByUser(ctx context.Context, q database.Querier, userID int64) (*model.RentalRequest, error) {
	const stmt = `
		SELECT ` + cols + `
		FROM rental_requests
		WHERE user_id = $1
		ORDER BY request_date DESC, id DESC
		LIMIT 1`
	r, err := scan(q.QueryRowContext(ctx, stmt, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("no rental requests for user %d", userID)
	}
	return r, err
}

func (repo) HasUnacknowledgedRejection(ctx context.Context, q database.Querier, unitID int64, a Applicant) (bool, error) {
	const stmt = `
		SELECT EXISTS (
			SELECT 1 FROM rental_requests
			WHERE unit_id = $1
			AND (user_id = $2 OR lower(email) = lower($3))
			AND status = 'REJECTED'
			AND rejection_acknowledged_at IS NULL)`
	var ok bool
	err := q.QueryRowContext(ctx, stmt, unitID, a.UserID, a.Email).Scan(&ok)
	return ok, err
}

func (repo) HasPending(ctx context.Context, q database.Querier, unitID int64, a Applicant) (bool, error) {
	const stmt = `
		SELECT EXISTS (
			SELECT 1 FROM rental_requests
			WHERE unit_id = $1
			AND (user_id = $2 OR lower(email) = lower($3))
			AND status = 'PENDING')`
	var ok bool
	err := q.QueryRowContext(ctx, stmt, unitID, a.UserID, a.Email).Scan(&ok)
	return ok, err
}

func (repo) Delete(ctx context.Context, q database.Querier, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM rental_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("rental request %d not found", id)
	}
	return nil
}
