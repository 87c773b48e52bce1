package inventory

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopkit/ticket-seller/internal/repository"
)

func newLedger(t *testing.T) (*SeatLedger, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	ledger := NewSeatLedger(db, repository.NewSeatRepo(db), 15*time.Minute)
	return ledger, mock, func() { db.Close() }
}

func TestSeatLedgerHoldAllOrNothing(t *testing.T) {
	ledger, mock, done := newLedger(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM seats")).
		WithArgs(int64(7), int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE seats SET status = 'held'")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	res, err := ledger.Hold(context.Background(), 7, []uint64{1, 2})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, []uint64{1, 2}, res.SeatIDs)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), res.ExpiresAt, 5*time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatLedgerHoldNamesBlockingSeats(t *testing.T) {
	ledger, mock, done := newLedger(t)
	defer done()

	mock.ExpectBegin()
	// Seat 2 is held by someone else, so only seat 1 comes back.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM seats")).
		WithArgs(int64(7), int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectRollback()

	_, err := ledger.Hold(context.Background(), 7, []uint64{1, 2})
	var unavail *SeatsUnavailableError
	require.ErrorAs(t, err, &unavail)
	assert.Equal(t, []uint64{2}, unavail.SeatIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatLedgerHoldEmptyRequest(t *testing.T) {
	ledger, _, done := newLedger(t)
	defer done()

	_, err := ledger.Hold(context.Background(), 7, nil)
	assert.ErrorIs(t, err, ErrNothingRequested)
}

func TestSeatLedgerConfirmTx(t *testing.T) {
	ledger, mock, done := newLedger(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, chart_id FROM seats")).
		WithArgs("tok-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "chart_id"}).AddRow(5, 7).AddRow(6, 7))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE seats SET status = 'sold'")).
		WithArgs("tok-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	db := ledger.db
	tx, err := db.Begin()
	require.NoError(t, err)

	ids, err := ledger.ConfirmTx(context.Background(), tx, "tok-1", 7)
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 6}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatLedgerConfirmTxExpiredToken(t *testing.T) {
	ledger, mock, done := newLedger(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, chart_id FROM seats")).
		WithArgs("tok-gone").
		WillReturnRows(sqlmock.NewRows([]string{"id", "chart_id"}))

	tx, err := ledger.db.Begin()
	require.NoError(t, err)

	_, err = ledger.ConfirmTx(context.Background(), tx, "tok-gone", 7)
	assert.ErrorIs(t, err, ErrHoldNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatLedgerConfirmTxWrongChart(t *testing.T) {
	ledger, mock, done := newLedger(t)
	defer done()

	// The token is live, but its seats sit in chart 9, not the chart
	// the caller is buying into.  Nothing converts.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, chart_id FROM seats")).
		WithArgs("tok-other").
		WillReturnRows(sqlmock.NewRows([]string{"id", "chart_id"}).AddRow(5, 9).AddRow(6, 9))

	tx, err := ledger.db.Begin()
	require.NoError(t, err)

	_, err = ledger.ConfirmTx(context.Background(), tx, "tok-other", 7)
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatLedgerConfirmTxPartialBatch(t *testing.T) {
	ledger, mock, done := newLedger(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, chart_id FROM seats")).
		WithArgs("tok-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "chart_id"}).AddRow(5, 7).AddRow(6, 7))
	// One seat slipped away between the lock and the update.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE seats SET status = 'sold'")).
		WithArgs("tok-2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := ledger.db.Begin()
	require.NoError(t, err)

	_, err = ledger.ConfirmTx(context.Background(), tx, "tok-2", 7)
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatLedgerReleaseIdempotent(t *testing.T) {
	ledger, mock, done := newLedger(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE seats SET status = 'available'")).
		WithArgs("tok-3").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	n, err := ledger.Release(context.Background(), "tok-3")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
