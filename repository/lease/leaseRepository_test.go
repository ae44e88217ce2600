package leaserepo

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"propertyhub/model"
)

var leaseCols = []string{"id", "unit_id", "tenant_id", "start_date", "end_date", "rent_amount", "security_deposit",
	"status", "termination_reason", "document_key", "created_at", "updated_at"}

func TestOverlappingActiveQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`AND start_date <= $3`)).
		WithArgs(int64(1), start, end, int64(0)).
		WillReturnRows(sqlmock.NewRows(leaseCols).
			AddRow(5, 1, 2, start, end, "5000", "0", "ACTIVE", nil, nil, start, start))

	got, err := New().OverlappingActive(context.Background(), db, 1, start, end, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(5), got[0].ID)
	require.Equal(t, model.LeaseActive, got[0].Status)
	require.Nil(t, got[0].TerminationReason)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListBuildsFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	status := model.LeaseExpired
	unitID := int64(3)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = $1 AND unit_id = $2 ORDER BY`)).
		WithArgs(status, unitID).
		WillReturnRows(sqlmock.NewRows(leaseCols))

	got, err := New().List(context.Background(), db, Filter{Status: &status, UnitID: &unitID})
	require.NoError(t, err)
	require.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireEndedBefore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	y := today.AddDate(0, 0, -1)
	mock.ExpectQuery(regexp.QuoteMeta(`SET status = 'EXPIRED'`)).
		WithArgs(today).
		WillReturnRows(sqlmock.NewRows(leaseCols).
			AddRow(2, 7, 1, y.AddDate(-1, 0, 0), y, "100", "0", "EXPIRED", nil, nil, y, today))

	got, err := New().ExpireEndedBefore(context.Background(), db, today)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(7), got[0].UnitID)
	require.NoError(t, mock.ExpectationsWereMet())
}
