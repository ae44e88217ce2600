package rentalrequestrepo

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestHasUnacknowledgedRejectionMatchesUserOrEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	uid := int64(4)
	mock.ExpectQuery(regexp.QuoteMeta(`(user_id = $2 OR lower(email) = lower($3))`)).
		WithArgs(int64(1), sqlmock.AnyArg(), "vee@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := New().HasUnacknowledgedRejection(context.Background(), db, 1, Applicant{UserID: &uid, Email: "vee@example.com"})
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHasPendingAnonymous(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`AND status = 'PENDING'`)).
		WithArgs(int64(2), sqlmock.AnyArg(), "walkin@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := New().HasPending(context.Background(), db, 2, Applicant{Email: "walkin@example.com"})
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
