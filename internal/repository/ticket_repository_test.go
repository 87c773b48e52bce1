package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketFilterWhere(t *testing.T) {
	empty := TicketFilter{}
	where, args := empty.where()
	assert.Empty(t, where)
	assert.Empty(t, args)

	f := TicketFilter{EventID: 3, Status: "pending", Search: "ada"}
	where, args = f.where()
	assert.Contains(t, where, "event_id = ?")
	assert.Contains(t, where, "status = ?")
	assert.Contains(t, where, "ticket_code LIKE ?")
	// event_id, status, then four LIKE params for the search term.
	require.Len(t, args, 6)
	assert.Equal(t, "%ada%", args[2])
}

func TestTicketFilterOrderColumnWhitelist(t *testing.T) {
	_, ok := ticketOrderColumns["last_name"]
	assert.True(t, ok)
	_, ok = ticketOrderColumns["password_hash; DROP TABLE tickets"]
	assert.False(t, ok)
}

func TestStatsByEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTicketRepo(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tickets WHERE event_id = ? AND status <> 'cancelled'")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"total", "checked_in"}).AddRow(120, 45))

	s, err := repo.StatsByEvent(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, uint32(120), s.Total)
	assert.Equal(t, uint32(45), s.CheckedIn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEventStatusUnknownEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewEventRepo(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET status = ? WHERE id = ?")).
		WithArgs("published", int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateStatus(context.Background(), 99, "published")
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
