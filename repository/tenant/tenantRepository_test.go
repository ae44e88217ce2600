package tenantrepo

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"propertyhub/model"
	"propertyhub/util/apperr"
)

func TestInsertDuplicateEmailIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO tenants`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "tenants_email_lower_key"})

	err = New().Insert(context.Background(), db, &model.Tenant{FirstName: "Ann", Email: "ann@example.com"})
	require.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestByEmailIsCaseInsensitive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tenants WHERE lower(email) = lower($1)`)).
		WithArgs("ANN@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "phone", "email", "occupation",
			"emergency_contact", "emergency_phone", "created_at"}).
			AddRow(3, "Ann", "Lee", "", "ann@example.com", "", "", "", time.Now()))

	tn, err := New().ByEmail(context.Background(), db, "ANN@example.com")
	require.NoError(t, err)
	require.Equal(t, int64(3), tn.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmailTakenExcludesSelf(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("ann@example.com", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	taken, err := New().EmailTaken(context.Background(), db, "ann@example.com", 3)
	require.NoError(t, err)
	require.False(t, taken)
}

func TestDeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM tenants`).WithArgs(int64(8)).WillReturnResult(sqlmock.NewResult(0, 0))
	err = New().Delete(context.Background(), db, 8)
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestDeleteWithLeaseHistoryIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM tenants`).WithArgs(int64(2)).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})
	err = New().Delete(context.Background(), db, 2)
	require.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
