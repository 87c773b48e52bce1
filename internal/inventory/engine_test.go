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

func newEngine(t *testing.T) (*Engine, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	seats := repository.NewSeatRepo(db)
	tickets := repository.NewTicketRepo(db)
	ledger := NewSeatLedger(db, seats, 15*time.Minute)
	capacity := NewCapacityCounter(db,
		repository.NewEventRepo(db),
		repository.NewTicketTypeRepo(db),
		tickets,
		repository.NewCapacityHoldRepo(db),
		15*time.Minute)
	store := NewTicketStore(db, tickets, seats, NewCodeGenerator(12, 5))
	return NewEngine(db, ledger, capacity, store, repository.NewEventRepo(db)), mock, func() { db.Close() }
}

// seatedEventRow builds the events row for a published seated event.
func seatedEventRow(id uint64, capacity uint32, chartID uint64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "name", "venue_name", "starts_at", "ends_at",
		"status", "capacity", "chart_id", "created_at", "updated_at",
	}).AddRow(id, "Gala", "Opera House", now.Add(24*time.Hour), now.Add(28*time.Hour),
		model.EventStatusPublished, capacity, chartID, now, now)
}

func capacityHoldRow(eventID, typeID uint64, qty uint32, token string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "event_id", "type_id", "quantity", "hold_token", "expires_at", "created_at",
	}).AddRow(9, eventID, typeID, qty, token, now.Add(10*time.Minute), now)
}

func expectIssueTicket(mock sqlmock.Sqlmock, insertID int64) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM tickets WHERE ticket_code = ?")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tickets")).
		WillReturnResult(sqlmock.NewResult(insertID, 1))
}

func TestFinalizeOrderUnseatedLine(t *testing.T) {
	e, mock, done := newEngine(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM capacity_holds")).
		WithArgs("cap-tok").
		WillReturnRows(capacityHoldRow(3, 2, 2, "cap-tok"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM capacity_holds WHERE hold_token = ?")).
		WithArgs("cap-tok").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectIssueTicket(mock, 101)
	expectIssueTicket(mock, 102)
	mock.ExpectCommit()

	tickets, err := e.FinalizeOrder(context.Background(), FinalizeOrderRequest{
		OrderID:    44,
		CustomerID: 17,
		BuyerEmail: "buyer@example.com",
		Lines: []OrderLine{{
			OrderItemID: 1,
			EventID:     3,
			TypeID:      2,
			Quantity:    2,
			HoldToken:   "cap-tok",
			Attendees:   []model.Attendee{{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}},
		}},
	})
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, uint64(101), tickets[0].ID)
	assert.Equal(t, "ada@example.com", tickets[0].Email)
	// The second attendee was not named, so the buyer's email is used.
	assert.Equal(t, "buyer@example.com", tickets[1].Email)
	assert.Equal(t, model.TicketStatusPending, tickets[0].Status)
	assert.NotEqual(t, tickets[0].Code, tickets[1].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeOrderSeatedLine(t *testing.T) {
	e, mock, done := newEngine(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM events WHERE id = ? FOR UPDATE")).
		WithArgs(int64(3)).
		WillReturnRows(seatedEventRow(3, 200, 7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, chart_id FROM seats")).
		WithArgs("seat-tok").
		WillReturnRows(sqlmock.NewRows([]string{"id", "chart_id"}).AddRow(5, 7).AddRow(6, 7))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE seats SET status = 'sold'")).
		WithArgs("seat-tok").
		WillReturnResult(sqlmock.NewResult(0, 2))
	expectIssueTicket(mock, 201)
	expectIssueTicket(mock, 202)
	mock.ExpectCommit()

	tickets, err := e.FinalizeOrder(context.Background(), FinalizeOrderRequest{
		OrderID:    45,
		CustomerID: 17,
		BuyerEmail: "buyer@example.com",
		Lines: []OrderLine{{
			OrderItemID: 2,
			EventID:     3,
			TypeID:      2,
			Quantity:    2,
			Seated:      true,
			HoldToken:   "seat-tok",
		}},
	})
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	require.NotNil(t, tickets[0].SeatID)
	require.NotNil(t, tickets[1].SeatID)
	assert.Equal(t, uint64(5), *tickets[0].SeatID)
	assert.Equal(t, uint64(6), *tickets[1].SeatID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeOrderQuantityMismatchRollsBack(t *testing.T) {
	e, mock, done := newEngine(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM events WHERE id = ? FOR UPDATE")).
		WithArgs(int64(3)).
		WillReturnRows(seatedEventRow(3, 200, 7))
	// Only one of the two held seats survived to confirmation.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, chart_id FROM seats")).
		WithArgs("seat-tok").
		WillReturnRows(sqlmock.NewRows([]string{"id", "chart_id"}).AddRow(5, 7))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE seats SET status = 'sold'")).
		WithArgs("seat-tok").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	_, err := e.FinalizeOrder(context.Background(), FinalizeOrderRequest{
		OrderID: 46,
		Lines: []OrderLine{{
			OrderItemID: 3,
			EventID:     3,
			Quantity:    2,
			Seated:      true,
			HoldToken:   "seat-tok",
		}},
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeOrderSeatedLineWrongChartRollsBack(t *testing.T) {
	e, mock, done := newEngine(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM events WHERE id = ? FOR UPDATE")).
		WithArgs(int64(3)).
		WillReturnRows(seatedEventRow(3, 200, 7))
	// The token's seats live in a different chart, so no seats are sold.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, chart_id FROM seats")).
		WithArgs("seat-tok").
		WillReturnRows(sqlmock.NewRows([]string{"id", "chart_id"}).AddRow(5, 9).AddRow(6, 9))
	mock.ExpectRollback()

	_, err := e.FinalizeOrder(context.Background(), FinalizeOrderRequest{
		OrderID: 48,
		Lines: []OrderLine{{
			OrderItemID: 5,
			EventID:     3,
			Quantity:    2,
			Seated:      true,
			HoldToken:   "seat-tok",
		}},
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeOrderExpiredHoldRollsBack(t *testing.T) {
	e, mock, done := newEngine(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM capacity_holds")).
		WithArgs("gone-tok").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "event_id", "type_id", "quantity", "hold_token", "expires_at", "created_at",
		}))
	mock.ExpectRollback()

	_, err := e.FinalizeOrder(context.Background(), FinalizeOrderRequest{
		OrderID: 47,
		Lines:   []OrderLine{{OrderItemID: 4, EventID: 3, Quantity: 1, HoldToken: "gone-tok"}},
	})
	assert.ErrorIs(t, err, ErrHoldNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrderReleasesSeatsAndSkipsCancelled(t *testing.T) {
	e, mock, done := newEngine(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(ticketCols).
		AddRow(1, 44, 1, 3, 2, "AAAA2345BBBB", 17, "b@example.com", "Ada", "Lovelace",
			"ada@example.com", model.TicketStatusPending, 5, now, nil, nil).
		AddRow(2, 44, 1, 3, 2, "CCCC2345DDDD", 17, "b@example.com", "Grace", "Hopper",
			"grace@example.com", model.TicketStatusCancelled, nil, now, nil, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM tickets WHERE order_id = ?")).
		WithArgs(int64(44)).
		WillReturnRows(rows)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tickets SET status = 'cancelled'")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE seats SET status = 'available'")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	cancelled, err := e.CancelOrder(context.Background(), 44)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, uint64(1), cancelled[0].ID)
	assert.Equal(t, model.TicketStatusCancelled, cancelled[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepExpiredCountsBothLedgers(t *testing.T) {
	e, mock, done := newEngine(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE seats SET status = 'available'")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT hold_token FROM capacity_holds WHERE expires_at <= ?")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"hold_token"}).AddRow("tok-a"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM capacity_holds WHERE expires_at <= UTC_TIMESTAMP()")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := e.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.SeatsReleased)
	assert.Equal(t, int64(1), res.HoldsDeleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
