package unitrepo

import (
	"context"
	"database/sql"
	"errors"

	"propertyhub/model"
	"propertyhub/util/apperr"
	"propertyhub/util/database"
)

type Repo interface {
	Insert(ctx context.Context, q database.Querier, u *model.Unit) error
	Update(ctx context.Context, q database.Querier, u *model.Unit) error
	ByID(ctx context.Context, q database.Querier, id int64) (*model.Unit, error)
	// ByIDForUpdate row-locks the unit until the surrounding transaction ends.
	ByIDForUpdate(ctx context.Context, q database.Querier, id int64) (*model.Unit, error)
	ExistsByRoomNumber(ctx context.Context, q database.Querier, room string, excludeID int64) (bool, error)
	List(ctx context.Context, q database.Querier, status *model.UnitStatus) ([]model.Unit, error)
	SetStatus(ctx context.Context, q database.Querier, id int64, status model.UnitStatus) error
	SetStatusMany(ctx context.Context, q database.Querier, ids []int64, status model.UnitStatus) error
	Delete(ctx context.Context, q database.Querier, id int64) error
}

type repo struct{}

func New() Repo { return repo{} }

const cols = `id, room_number, floor, rent_amount, size, status, created_at, updated_at`

type scanner interface{ Scan(dest ...any) error }

func scan(s scanner) (*model.Unit, error) {
	var u model.Unit
	err := s.Scan(&u.ID, &u.RoomNumber, &u.Floor, &u.RentAmount, &u.Size, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (repo) Insert(ctx context.Context, q database.Querier, u *model.Unit) error {
	const stmt = `
		INSERT INTO units (room_number, floor, rent_amount, size, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := q.QueryRowContext(ctx, stmt, u.RoomNumber, u.Floor, u.RentAmount, u.Size, u.Status).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return database.MapConstraint(err, "room number already exists")
}

func (repo) Update(ctx context.Context, q database.Querier, u *model.Unit) error {
	const stmt = `
		UPDATE units
		SET room_number = $2, floor = $3, rent_amount = $4, size = $5, status = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := q.QueryRowContext(ctx, stmt, u.ID, u.RoomNumber, u.Floor, u.RentAmount, u.Size, u.Status).Scan(&u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("unit %d not found", u.ID)
	}
	return database.MapConstraint(err, "room number already exists")
}

func (repo) ByID(ctx context.Context, q database.Querier, id int64) (*model.Unit, error) {
	u, err := scan(q.QueryRowContext(ctx, `SELECT `+cols+` FROM units WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("unit %d not found", id)
	}
	return u, err
}

func (repo) ByIDForUpdate(ctx context.Context, q database.Querier, id int64) (*model.Unit, error) {
	u, err := scan(q.QueryRowContext(ctx, `SELECT `+cols+` FROM units WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("unit %d not found", id)
	}
	return u, err
}

func (repo) ExistsByRoomNumber(ctx context.Context, q database.Querier, room string, excludeID int64) (bool, error) {
	var ok bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM units WHERE room_number = $1 AND id <> $2)`, room, excludeID).Scan(&ok)
	return ok, err
}

func (repo) List(ctx context.Context, q database.Querier, status *model.UnitStatus) ([]model.Unit, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status != nil {
		rows, err = q.QueryContext(ctx, `SELECT `+cols+` FROM units WHERE status = $1 ORDER BY room_number`, *status)
	} else {
		rows, err = q.QueryContext(ctx, `SELECT `+cols+` FROM units ORDER BY room_number`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Unit
	for rows.Next() {
		u, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (repo) SetStatus(ctx context.Context, q database.Querier, id int64, status model.UnitStatus) error {
	res, err := q.ExecContext(ctx, `UPDATE units SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("unit %d not found", id)
	}
	return nil
}

func (repo) SetStatusMany(ctx context.Context, q database.Querier, ids []int64, status model.UnitStatus) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := q.ExecContext(ctx, `UPDATE units SET status = $2, updated_at = NOW() WHERE id = ANY($1)`, ids, status)
	return err
}

func (repo) Delete(ctx context.Context, q database.Querier, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM units WHERE id = $1`, id)
	if err != nil {
		return database.MapConstraint(err, "unit has lease or rental request history")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("unit %d not found", id)
	}
	return nil
}
