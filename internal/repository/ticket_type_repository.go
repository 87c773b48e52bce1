package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopkit/ticket-seller/internal/model"
)

// ErrTicketTypeNotFound is returned when a ticket type lookup yields no rows.
var ErrTicketTypeNotFound = errors.New("ticket type not found")

// TicketTypeRepo provides data access to ticket_types.
type TicketTypeRepo struct {
	db *sql.DB
}

// NewTicketTypeRepo constructs a TicketTypeRepo with the given DB handle.
func NewTicketTypeRepo(db *sql.DB) *TicketTypeRepo {
	return &TicketTypeRepo{db: db}
}

// Create inserts a ticket type. On success the ID is populated.
func (r *TicketTypeRepo) Create(ctx context.Context, t *model.TicketType) error {
	const q = `INSERT INTO ticket_types (event_id, name, price_cents, capacity, sale_start, sale_end)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		t.EventID, t.Name, t.PriceCents, t.Capacity, t.SaleStart, t.SaleEnd)
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

func scanTicketType(scan func(...interface{}) error) (*model.TicketType, error) {
	var t model.TicketType
	var capacity sql.NullInt64
	var saleStart, saleEnd sql.NullTime
	err := scan(&t.ID, &t.EventID, &t.Name, &t.PriceCents, &capacity, &saleStart, &saleEnd, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if capacity.Valid {
		c := uint32(capacity.Int64)
		t.Capacity = &c
	}
	if saleStart.Valid {
		s := saleStart.Time
		t.SaleStart = &s
	}
	if saleEnd.Valid {
		e := saleEnd.Time
		t.SaleEnd = &e
	}
	return &t, nil
}

const ticketTypeColumns = `id, event_id, name, price_cents, capacity, sale_start, sale_end, created_at`

// GetByID retrieves a ticket type by its id.
func (r *TicketTypeRepo) GetByID(ctx context.Context, id uint64) (*model.TicketType, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ticketTypeColumns+` FROM ticket_types WHERE id = ?`, id)
	t, err := scanTicketType(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketTypeNotFound
	}
	return t, err
}

// GetByIDTx retrieves a ticket type inside a transaction.  No row lock:
// type capacity is guarded by the lock on the parent event row.
func (r *TicketTypeRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.TicketType, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+ticketTypeColumns+` FROM ticket_types WHERE id = ?`, id)
	t, err := scanTicketType(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketTypeNotFound
	}
	return t, err
}

// ListByEvent retrieves all ticket types of an event.
func (r *TicketTypeRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.TicketType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ticketTypeColumns+` FROM ticket_types WHERE event_id = ? ORDER BY id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.TicketType
	for rows.Next() {
		t, err := scanTicketType(rows.Scan)
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
