package unitrepo

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"propertyhub/model"
	"propertyhub/util/apperr"
)

func TestByIDForUpdateLocksRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM units WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_number", "floor", "rent_amount", "size", "status", "created_at", "updated_at"}).
			AddRow(1, "101", 1, "5000.00", 30.5, "AVAILABLE", now, now))

	u, err := New().ByIDForUpdate(context.Background(), db, 1)
	require.NoError(t, err)
	require.Equal(t, "101", u.RoomNumber)
	require.True(t, u.RentAmount.Equal(decimal.NewFromInt(5000)))
	require.Equal(t, model.UnitAvailable, u.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM units WHERE id`).WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = New().ByID(context.Background(), db, 9)
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestSetStatusMissingUnit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE units SET status`).WithArgs(int64(4), model.UnitOccupied).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = New().SetStatus(context.Background(), db, 4, model.UnitOccupied)
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusManySkipsEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, New().SetStatusMany(context.Background(), db, nil, model.UnitAvailable))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteWithHistoryIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM units`).WithArgs(int64(3)).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})

	err = New().Delete(context.Background(), db, 3)
	require.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
