package repository

import (
	"context"
	"database/sql"

	"github.com/shopkit/ticket-seller/internal/model"
)

// CheckInRepo provides data access to the check_ins audit table.  Rows
// are append-only; the check-in coordinator writes one per successful
// scan inside the same transaction that flips the ticket status.
type CheckInRepo struct {
	db *sql.DB
}

// NewCheckInRepo returns a new CheckInRepo bound to the provided database.
func NewCheckInRepo(db *sql.DB) *CheckInRepo { return &CheckInRepo{db: db} }

// CreateTx inserts a check-in audit row within the provided transaction
// and populates its generated ID.
func (r *CheckInRepo) CreateTx(ctx context.Context, tx *sql.Tx, c *model.CheckIn) error {
	const q = `INSERT INTO check_ins (ticket_id, event_id, checked_in_by, station_id, notes, location)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		c.TicketID, c.EventID, c.CheckedInBy, c.StationID, c.Notes, c.Location)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// ListByEvent returns the audit trail for an event, newest first.
func (r *CheckInRepo) ListByEvent(ctx context.Context, eventID uint64, limit, offset int) ([]model.CheckIn, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const q = `SELECT id, ticket_id, event_id, checked_in_by, check_in_time, station_id, notes, location
	           FROM check_ins
	           WHERE event_id = ?
	           ORDER BY check_in_time DESC, id DESC
	           LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, eventID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.CheckIn
	for rows.Next() {
		var c model.CheckIn
		var notes sql.NullString
		if err := rows.Scan(&c.ID, &c.TicketID, &c.EventID, &c.CheckedInBy,
			&c.CheckInTime, &c.StationID, &notes, &c.Location); err != nil {
			return nil, err
		}
		if notes.Valid {
			c.Notes = notes.String
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
