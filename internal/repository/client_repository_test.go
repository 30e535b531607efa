package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motoserwis/warsztat-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func clientRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "workshop_id", "first_name", "last_name", "phone", "email", "street", "city", "postal_code", "created_at", "updated_at", "deleted_at"}).
		AddRow("c1", "w1", "Jan", "Kowalski", "600100200", "jan@example.com", "Polna 1", "Warszawa", "00-001", now, now, nil)
}

func TestClientList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("c.workshop_id = $1 AND c.deleted_at IS NULL ORDER BY c.last_name ASC, c.first_name ASC LIMIT 20 OFFSET 0")).
		WithArgs("w1").
		WillReturnRows(clientRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM clients c WHERE c.workshop_id = $1 AND c.deleted_at IS NULL")).
		WithArgs("w1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	clients, total, err := repo.List(context.Background(), "w1", models.ClientFilter{})
	require.NoError(t, err)
	assert.Len(t, clients, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Kowalski", clients[0].LastName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientListSearchLowercasesTerm(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM clients c").
		WithArgs("w1", "%kowal%").
		WillReturnRows(clientRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("w1", "%kowal%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.List(context.Background(), "w1", models.ClientFilter{Search: "Kowal"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientFindByIDScopesWorkshop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND workshop_id = $2 AND deleted_at IS NULL")).
		WithArgs("c1", "w1").
		WillReturnRows(clientRows(now))

	client, err := repo.FindByID(context.Background(), "w1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", client.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientSoftDeleteReportsMiss(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE clients SET deleted_at = $3, updated_at = $3 WHERE id = $1 AND workshop_id = $2 AND deleted_at IS NULL")).
		WithArgs("missing", "w1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.SoftDelete(context.Background(), "w1", "missing")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientExistsByEmailScopesWorkshop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM clients WHERE workshop_id = $1 AND LOWER(email) = LOWER($2) AND deleted_at IS NULL LIMIT 1")).
		WithArgs("w1", "jan@poczta.pl").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "w1", "jan@poczta.pl", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
