package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motoserwis/warsztat-api/internal/models"
)

func TestReportTotalsAllTime(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("w1").
		WillReturnRows(sqlmock.NewRows([]string{"total_minutes", "orders_count"}).AddRow(150, 3))

	minutes, orders, err := repo.Totals(context.Background(), "w1", models.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, 150, minutes)
	assert.Equal(t, 3, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportTotalsWithMechanicAndRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("te.mechanic_id = $2 AND te.created_at >= $3 AND te.created_at <= $4")).
		WithArgs("w1", "m1", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"total_minutes", "orders_count"}).AddRow(90, 2))

	minutes, orders, err := repo.Totals(context.Background(), "w1", models.ReportFilter{MechanicID: "m1", StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, 90, minutes)
	assert.Equal(t, 2, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportMechanicBreakdownRoundsHours(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery("GROUP BY m.id").
		WithArgs("w1").
		WillReturnRows(sqlmock.NewRows([]string{"mechanic_id", "first_name", "last_name", "total_minutes", "orders_count"}).
			AddRow("m1", "Adam", "Nowak", 100, 2).
			AddRow("m2", "Piotr", "Wiśniewski", 0, 0))

	rows, err := repo.MechanicBreakdown(context.Background(), "w1", models.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.InDelta(t, 1.67, rows[0].TotalHours, 0.001)
	assert.Zero(t, rows[1].TotalHours)
	assert.NoError(t, mock.ExpectationsWereMet())
}
