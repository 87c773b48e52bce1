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

func newCoordinator(t *testing.T) (*CheckinCoordinator, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	c := NewCheckinCoordinator(db, repository.NewTicketRepo(db), repository.NewCheckInRepo(db))
	return c, mock, func() { db.Close() }
}

var ticketCols = []string{
	"id", "order_id", "order_item_id", "event_id", "type_id", "ticket_code", "customer_id",
	"buyer_email", "first_name", "last_name", "email", "status", "seat_id", "created_at",
	"checked_in_at", "checked_in_by",
}

func ticketRow(id uint64, status string, checkedInAt interface{}, checkedInBy interface{}) *sqlmock.Rows {
	return sqlmock.NewRows(ticketCols).AddRow(
		id, 44, 1, 3, 2, "ABCD2345EFGH", 17,
		"buyer@example.com", "Ada", "Lovelace", "ada@example.com", status, nil, time.Now().UTC(),
		checkedInAt, checkedInBy)
}

func TestCheckInFlipsStatusAndWritesAudit(t *testing.T) {
	c, mock, done := newCoordinator(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM tickets WHERE id = ? FOR UPDATE")).
		WithArgs(int64(10)).
		WillReturnRows(ticketRow(10, model.TicketStatusPending, nil, nil))
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'checked-in'")).
		WithArgs(int64(7), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO check_ins")).
		WithArgs(int64(10), int64(3), int64(7), "gate-a", "", "north entrance").
		WillReturnResult(sqlmock.NewResult(55, 1))
	mock.ExpectCommit()

	ticket, audit, err := c.CheckIn(context.Background(), CheckInRequest{
		TicketID:  10,
		ByUserID:  7,
		StationID: "gate-a",
		Location:  "north entrance",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusCheckedIn, ticket.Status)
	require.NotNil(t, ticket.CheckedInAt)
	require.NotNil(t, ticket.CheckedInBy)
	assert.Equal(t, uint64(7), *ticket.CheckedInBy)
	assert.Equal(t, uint64(55), audit.ID)
	assert.Equal(t, uint64(3), audit.EventID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInByCode(t *testing.T) {
	c, mock, done := newCoordinator(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM tickets WHERE ticket_code = ? FOR UPDATE")).
		WithArgs("ABCD2345EFGH").
		WillReturnRows(ticketRow(10, model.TicketStatusPending, nil, nil))
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'checked-in'")).
		WithArgs(int64(7), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO check_ins")).
		WithArgs(int64(10), int64(3), int64(7), "", "", "").
		WillReturnResult(sqlmock.NewResult(56, 1))
	mock.ExpectCommit()

	_, _, err := c.CheckIn(context.Background(), CheckInRequest{Code: "ABCD2345EFGH", ByUserID: 7})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInRejectsDuplicateScan(t *testing.T) {
	c, mock, done := newCoordinator(t)
	defer done()

	firstScan := time.Date(2026, 6, 1, 19, 5, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM tickets WHERE id = ? FOR UPDATE")).
		WithArgs(int64(10)).
		WillReturnRows(ticketRow(10, model.TicketStatusCheckedIn, firstScan, 4))
	mock.ExpectRollback()

	_, _, err := c.CheckIn(context.Background(), CheckInRequest{TicketID: 10, ByUserID: 7})
	var dup *AlreadyCheckedInError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, uint64(10), dup.TicketID)
	assert.Equal(t, firstScan, dup.CheckedInAt)
	assert.Equal(t, uint64(4), dup.CheckedInBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInRejectsCancelledTicket(t *testing.T) {
	c, mock, done := newCoordinator(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM tickets WHERE id = ? FOR UPDATE")).
		WithArgs(int64(10)).
		WillReturnRows(ticketRow(10, model.TicketStatusCancelled, nil, nil))
	mock.ExpectRollback()

	_, _, err := c.CheckIn(context.Background(), CheckInRequest{TicketID: 10, ByUserID: 7})
	var gone *TicketCancelledError
	require.ErrorAs(t, err, &gone)
	assert.Equal(t, uint64(10), gone.TicketID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInUnknownTicket(t *testing.T) {
	c, mock, done := newCoordinator(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM tickets WHERE id = ? FOR UPDATE")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(ticketCols))
	mock.ExpectRollback()

	_, _, err := c.CheckIn(context.Background(), CheckInRequest{TicketID: 99, ByUserID: 7})
	assert.ErrorIs(t, err, repository.ErrTicketNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
