package inventory

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopkit/ticket-seller/internal/model"
	"github.com/shopkit/ticket-seller/internal/repository"
)

func newCounter(t *testing.T) (*CapacityCounter, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	c := NewCapacityCounter(db,
		repository.NewEventRepo(db),
		repository.NewTicketTypeRepo(db),
		repository.NewTicketRepo(db),
		repository.NewCapacityHoldRepo(db),
		15*time.Minute)
	return c, mock, func() { db.Close() }
}

func eventRow(status string, capacity uint32) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "name", "venue_name", "starts_at", "ends_at",
		"status", "capacity", "chart_id", "created_at", "updated_at",
	}).AddRow(1, "Open Air", "Main Field", now.Add(24*time.Hour), now.Add(28*time.Hour),
		status, capacity, nil, now, now)
}

func TestCapacityHoldRecomputesAvailability(t *testing.T) {
	c, mock, done := newCounter(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM events WHERE id = ? FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(model.EventStatusPublished, 100))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tickets")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(30))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(quantity), 0) FROM capacity_holds")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(20))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO capacity_holds")).
		WithArgs(int64(1), int64(0), int64(10), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	h, err := c.Hold(context.Background(), 1, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), h.ID)
	assert.Equal(t, uint32(10), h.Quantity)
	assert.NotEmpty(t, h.HoldToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCapacityHoldRejectsOversell(t *testing.T) {
	c, mock, done := newCounter(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM events WHERE id = ? FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(model.EventStatusPublished, 100))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tickets")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(90))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(quantity), 0) FROM capacity_holds")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(5))
	mock.ExpectRollback()

	_, err := c.Hold(context.Background(), 1, 0, 10)
	var short *InsufficientCapacityError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, uint32(10), short.Requested)
	assert.Equal(t, uint32(5), short.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func typeRow(id, eventID uint64, capacity *uint32) *sqlmock.Rows {
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "event_id", "name", "price_cents", "capacity", "sale_start", "sale_end", "created_at",
	})
	if capacity != nil {
		return rows.AddRow(id, eventID, "General", 2500, *capacity, nil, nil, now)
	}
	return rows.AddRow(id, eventID, "General", 2500, nil, nil, nil, now)
}

func TestCapacityHoldEnforcesEventCeilingAcrossTypes(t *testing.T) {
	c, mock, done := newCounter(t)
	defer done()

	// Event capacity 2, fully consumed by tickets of another type.  The
	// requested type has no sub-capacity, so only the event-wide count
	// stands between the request and an oversell.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM events WHERE id = ? FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(model.EventStatusPublished, 2))
	mock.ExpectQuery(regexp.QuoteMeta("FROM ticket_types WHERE id = ?")).
		WithArgs(int64(7)).
		WillReturnRows(typeRow(7, 1, nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tickets")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(quantity), 0) FROM capacity_holds")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectRollback()

	_, err := c.Hold(context.Background(), 1, 7, 2)
	var short *InsufficientCapacityError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, uint32(2), short.Requested)
	assert.Equal(t, uint32(0), short.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCapacityHoldTypeSubCapacityCapsFurther(t *testing.T) {
	c, mock, done := newCounter(t)
	defer done()

	// Event-wide there is plenty left (90 of 100), but the type's
	// sub-capacity of 5 has 4 units taken, so only 1 remains.
	sub := uint32(5)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM events WHERE id = ? FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(model.EventStatusPublished, 100))
	mock.ExpectQuery(regexp.QuoteMeta("FROM ticket_types WHERE id = ?")).
		WithArgs(int64(7)).
		WillReturnRows(typeRow(7, 1, &sub))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tickets")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(quantity), 0) FROM capacity_holds")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tickets")).
		WithArgs(int64(1), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(quantity), 0) FROM capacity_holds")).
		WithArgs(int64(1), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectRollback()

	_, err := c.Hold(context.Background(), 1, 7, 2)
	var short *InsufficientCapacityError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, uint32(1), short.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCapacityHoldRejectsUnpublishedEvent(t *testing.T) {
	c, mock, done := newCounter(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM events WHERE id = ? FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(model.EventStatusDraft, 100))
	mock.ExpectRollback()

	_, err := c.Hold(context.Background(), 1, 0, 2)
	assert.ErrorIs(t, err, ErrNotOnSale)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCapacityHoldZeroQuantity(t *testing.T) {
	c, _, done := newCounter(t)
	defer done()

	_, err := c.Hold(context.Background(), 1, 0, 0)
	assert.ErrorIs(t, err, ErrNothingRequested)
}

func TestCapacityConfirmTxUnknownToken(t *testing.T) {
	c, mock, done := newCounter(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM capacity_holds")).
		WithArgs("tok-x").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "event_id", "type_id", "quantity", "hold_token", "expires_at", "created_at",
		}))

	tx, err := c.db.Begin()
	require.NoError(t, err)

	_, err = c.ConfirmTx(context.Background(), tx, "tok-x")
	assert.ErrorIs(t, err, ErrHoldNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCapacityReleaseIdempotent(t *testing.T) {
	c, mock, done := newCounter(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM capacity_holds WHERE hold_token = ?")).
		WithArgs("tok-y").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	n, err := c.Release(context.Background(), "tok-y")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
