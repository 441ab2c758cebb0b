package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nade-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var userRowColumns = []string{"id", "email", "password_hash", "name", "role", "reset_password_token", "reset_password_expires", "created_at", "updated_at"}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow("1", "admin@escola.br", "hash", "Admin", string(models.RoleAdmin), nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("admin@escola.br").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "admin@escola.br")
	require.NoError(t, err)
	assert.Equal(t, "admin@escola.br", user.Email)
	assert.True(t, user.IsAdmin())
	assert.Nil(t, user.ResetPasswordToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("FROM users WHERE email").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "x@escola.br")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByResetTokenChecksExpiry(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE reset_password_token = $1 AND reset_password_expires > $2")).
		WithArgs("hash", now).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("1", "t@escola.br", "h", "T", string(models.RoleTeacher), "hash", now.Add(time.Hour), now, now))

	user, err := repo.FindByResetToken(context.Background(), "hash", now)
	require.NoError(t, err)
	require.NotNil(t, user.ResetPasswordToken)
	assert.Equal(t, "hash", *user.ResetPasswordToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("2", "b@escola.br", "h", "B", string(models.RoleTeacher), nil, nil, now, now).
			AddRow("1", "a@escola.br", "h", "A", string(models.RoleAdmin), nil, nil, now.Add(-time.Hour), now))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "2", users[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByRole(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE role = $1")).
		WithArgs(models.RoleAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	n, err := repo.CountByRole(context.Background(), models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCreateUserAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Email: "n@escola.br", PasswordHash: "h", Name: "N", Role: models.RoleTeacher}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePasswordClearsResetToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("reset_password_token = NULL, reset_password_expires = NULL")).
		WithArgs("1", "newhash", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePassword(context.Background(), "1", "newhash", now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "ghost"), ErrNotFound)
}
