package repository

import (
	"context"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// migrationColumns extracts the column names of a table definition from the
// initial migration file.
func migrationColumns(t *testing.T, table string) map[string]bool {
	t.Helper()
	raw, err := os.ReadFile("../../migrations/0001_init.sql")
	require.NoError(t, err)
	marker := "CREATE TABLE " + table + " ("
	body := string(raw)
	start := strings.Index(body, marker)
	require.GreaterOrEqual(t, start, 0, "table %s not found in migration", table)
	block := body[start+len(marker):]
	end := strings.Index(block, ");")
	require.GreaterOrEqual(t, end, 0)

	cols := make(map[string]bool)
	for _, line := range strings.Split(block[:end], "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch strings.ToUpper(fields[0]) {
		case "PRIMARY", "UNIQUE", "CHECK", "FOREIGN", "CONSTRAINT":
			continue
		}
		cols[fields[0]] = true
	}
	return cols
}

func TestUserQueriesMatchSchema(t *testing.T) {
	cols := migrationColumns(t, "users")
	for _, col := range strings.Split(userColumns, ", ") {
		assert.True(t, cols[col], "users queries select column %q which no migration defines", col)
	}
}

func userRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(strings.Split(userColumns, ", ")).
		AddRow("u1", "w1", "anna@warsztat.pl", "$2a$10$hash", "Anna", "Nowak", "OFFICE", true, nil, now, now, nil)
}

func TestUserFindByEmailScansAllColumns(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL LIMIT 1")).
		WithArgs("anna@warsztat.pl").
		WillReturnRows(userRows(now))

	user, err := repo.FindByEmail(context.Background(), "anna@warsztat.pl")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Nil(t, user.LastLogin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateLastLogin(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	ts := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET last_login = $2 WHERE id = $1")).
		WithArgs("u1", ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateLastLogin(context.Background(), "u1", ts))
	assert.NoError(t, mock.ExpectationsWereMet())
}
