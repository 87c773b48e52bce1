package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopkit/ticket-seller/internal/model"
)

// ErrTicketNotFound is returned when a ticket lookup yields no rows.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketRepo provides data access to the tickets table.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo constructs a TicketRepo with the given DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

const ticketColumns = `id, order_id, order_item_id, event_id, type_id, ticket_code, customer_id,
	buyer_email, first_name, last_name, email, status, seat_id, created_at, checked_in_at, checked_in_by`

func scanTicket(scan func(...interface{}) error) (*model.Ticket, error) {
	var t model.Ticket
	var seatID, checkedInBy sql.NullInt64
	var checkedInAt sql.NullTime
	err := scan(&t.ID, &t.OrderID, &t.OrderItemID, &t.EventID, &t.TypeID, &t.Code, &t.CustomerID,
		&t.BuyerEmail, &t.FirstName, &t.LastName, &t.Email, &t.Status, &seatID, &t.CreatedAt,
		&checkedInAt, &checkedInBy)
	if err != nil {
		return nil, err
	}
	if seatID.Valid {
		id := uint64(seatID.Int64)
		t.SeatID = &id
	}
	if checkedInAt.Valid {
		at := checkedInAt.Time
		t.CheckedInAt = &at
	}
	if checkedInBy.Valid {
		by := uint64(checkedInBy.Int64)
		t.CheckedInBy = &by
	}
	return &t, nil
}

// CreateTx inserts a single ticket within the provided transaction and
// populates its generated ID.  Tickets are always issued inside the
// order finalization transaction so a code collision or seat conflict
// rolls back the whole batch.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	const q = `INSERT INTO tickets
	           (order_id, order_item_id, event_id, type_id, ticket_code, customer_id,
	            buyer_email, first_name, last_name, email, status, seat_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		t.OrderID, t.OrderItemID, t.EventID, t.TypeID, t.Code, t.CustomerID,
		t.BuyerEmail, t.FirstName, t.LastName, t.Email, t.Status, t.SeatID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// CodeExistsTx reports whether a ticket code is already taken.  Runs in
// the issuing transaction so the uniqueness check and the insert see the
// same snapshot; the UNIQUE index remains the final arbiter.
func (r *TicketRepo) CodeExistsTx(ctx context.Context, tx *sql.Tx, code string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM tickets WHERE ticket_code = ? LIMIT 1`, code).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByID retrieves a ticket by its id.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id)
	t, err := scanTicket(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	return t, err
}

// GetByCode retrieves a ticket by its unique code.
func (r *TicketRepo) GetByCode(ctx context.Context, code string) (*model.Ticket, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE ticket_code = ?`, code)
	t, err := scanTicket(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	return t, err
}

// GetForUpdateTx loads a ticket by id or by code (id zero means lookup
// by code) with a row lock.  Check-in reads the current status under
// this lock so two stations scanning the same ticket serialize.
func (r *TicketRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64, code string) (*model.Ticket, error) {
	var row *sql.Row
	if id != 0 {
		row = tx.QueryRowContext(ctx,
			`SELECT `+ticketColumns+` FROM tickets WHERE id = ? FOR UPDATE`, id)
	} else {
		row = tx.QueryRowContext(ctx,
			`SELECT `+ticketColumns+` FROM tickets WHERE ticket_code = ? FOR UPDATE`, code)
	}
	t, err := scanTicket(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	return t, err
}

// MarkCheckedInTx transitions a pending ticket to checked-in, stamping
// the time and operator.  Returns the number of rows changed; zero
// means the ticket was not in pending state.
func (r *TicketRepo) MarkCheckedInTx(ctx context.Context, tx *sql.Tx, id, byUserID uint64) (int64, error) {
	const q = `UPDATE tickets
	           SET status = 'checked-in', checked_in_at = UTC_TIMESTAMP(), checked_in_by = ?
	           WHERE id = ? AND status = 'pending'`
	res, err := tx.ExecContext(ctx, q, byUserID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CancelTx marks a ticket cancelled.  Already cancelled tickets are left
// untouched; the zero row count lets callers treat repeats as no-ops.
func (r *TicketRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE tickets SET status = 'cancelled' WHERE id = ? AND status <> 'cancelled'`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByOrderTx returns all tickets of an order with row locks, ordered
// by id.  Order cancellation walks this list.
func (r *TicketRepo) ListByOrderTx(ctx context.Context, tx *sql.Tx, orderID uint64) ([]model.Ticket, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE order_id = ? ORDER BY id FOR UPDATE`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountActiveTx counts the tickets of an event that still consume
// capacity, i.e. everything not cancelled.  Optionally narrowed to one
// ticket type (typeID zero means all).  Runs inside the caller's
// transaction so the count is consistent with the event row lock.
func (r *TicketRepo) CountActiveTx(ctx context.Context, tx *sql.Tx, eventID, typeID uint64) (uint32, error) {
	q := `SELECT COUNT(*) FROM tickets WHERE event_id = ? AND status <> 'cancelled'`
	args := []interface{}{eventID}
	if typeID != 0 {
		q += ` AND type_id = ?`
		args = append(args, typeID)
	}
	var n uint32
	err := tx.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

// TicketFilter narrows List queries.  Zero values mean "no filter".
// OrderBy must be one of the whitelisted columns; anything else falls
// back to id.
type TicketFilter struct {
	EventID    uint64
	OrderID    uint64
	CustomerID uint64
	Status     string
	Search     string // matches code, attendee name or email
	OrderBy    string
	Desc       bool
	Limit      int
	Offset     int
}

var ticketOrderColumns = map[string]string{
	"id":         "id",
	"created_at": "created_at",
	"last_name":  "last_name",
	"status":     "status",
}

func (f TicketFilter) where() (string, []interface{}) {
	var conds []string
	var args []interface{}
	if f.EventID != 0 {
		conds = append(conds, "event_id = ?")
		args = append(args, f.EventID)
	}
	if f.OrderID != 0 {
		conds = append(conds, "order_id = ?")
		args = append(args, f.OrderID)
	}
	if f.CustomerID != 0 {
		conds = append(conds, "customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		conds = append(conds,
			"(ticket_code LIKE ? OR first_name LIKE ? OR last_name LIKE ? OR email LIKE ?)")
		args = append(args, like, like, like, like)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns tickets matching the filter.
func (r *TicketRepo) List(ctx context.Context, f TicketFilter) ([]model.Ticket, error) {
	where, args := f.where()
	col, ok := ticketOrderColumns[f.OrderBy]
	if !ok {
		col = "id"
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := `SELECT ` + ticketColumns + ` FROM tickets` + where +
		` ORDER BY ` + col + ` ` + dir + ` LIMIT ? OFFSET ?`
	args = append(args, limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Count returns the number of tickets matching the filter, ignoring
// pagination.
func (r *TicketRepo) Count(ctx context.Context, f TicketFilter) (uint32, error) {
	where, args := f.where()
	var n uint32
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets`+where, args...).Scan(&n)
	return n, err
}

// EventStats summarizes attendance for one event.
type EventStats struct {
	Total     uint32 `json:"total"`
	CheckedIn uint32 `json:"checked_in"`
}

// StatsByEvent counts non-cancelled tickets and how many of them have
// been checked in.
func (r *TicketRepo) StatsByEvent(ctx context.Context, eventID uint64) (EventStats, error) {
	const q = `SELECT COUNT(*), COALESCE(SUM(status = 'checked-in'), 0)
	           FROM tickets WHERE event_id = ? AND status <> 'cancelled'`
	var s EventStats
	err := r.db.QueryRowContext(ctx, q, eventID).Scan(&s.Total, &s.CheckedIn)
	return s, err
}

// ExportRow is one line of a ticket export, with the seat position
// joined in when the ticket is seated.
type ExportRow struct {
	Code        string
	FirstName   string
	LastName    string
	Email       string
	Status      string
	OrderID     uint64
	RowName     string
	SeatNumber  string
	CheckedInAt sql.NullTime
}

// ExportByEvent streams all tickets of an event joined with their seat
// positions, ordered by last name for readable lists at the door.
func (r *TicketRepo) ExportByEvent(ctx context.Context, eventID uint64) ([]ExportRow, error) {
	const q = `SELECT t.ticket_code, t.first_name, t.last_name, t.email, t.status, t.order_id,
	                  COALESCE(s.row_name, ''), COALESCE(s.seat_number, ''), t.checked_in_at
	           FROM tickets t
	           LEFT JOIN seats s ON s.id = t.seat_id
	           WHERE t.event_id = ?
	           ORDER BY t.last_name, t.first_name, t.id`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []ExportRow
	for rows.Next() {
		var row ExportRow
		if err := rows.Scan(&row.Code, &row.FirstName, &row.LastName, &row.Email, &row.Status,
			&row.OrderID, &row.RowName, &row.SeatNumber, &row.CheckedInAt); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
