package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopkit/ticket-seller/internal/utils"
)

func TestUserCreateNormalizesEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("scanner@example.com", sqlmock.AnyArg(), "STAFF").
		WillReturnResult(sqlmock.NewResult(5, 1))

	id, err := repo.Create(context.Background(), "  Scanner@Example.COM ", "hunter2hunter2", "STAFF", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(errors.New("Error 1062: Duplicate entry 'scanner@example.com' for key 'users.email'"))

	_, err = repo.Create(context.Background(), "scanner@example.com", "hunter2hunter2", "STAFF", 4)
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := utils.HashPassword("correct horse battery", 4)
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(hash, "correct horse battery"))
	assert.False(t, utils.VerifyPassword(hash, "wrong horse"))
}
