package repository // repository defines data access for events

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopkit/ticket-seller/internal/model"
)

// ErrEventNotFound is returned when an event lookup yields no rows.
var ErrEventNotFound = errors.New("event not found")

// EventRepo provides methods to work with events in the database.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// Create inserts a single event record. On success the event's ID is populated.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (name, venue_name, starts_at, ends_at, status, capacity, chart_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		e.Name, e.VenueName,
		e.StartsAt.UTC().Format("2006-01-02 15:04:05"),
		e.EndsAt.UTC().Format("2006-01-02 15:04:05"),
		e.Status, e.Capacity, e.ChartID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

const eventColumns = `id, name, venue_name, starts_at, ends_at, status, capacity, chart_id, created_at, updated_at`

func scanEvent(row *sql.Row) (*model.Event, error) {
	var e model.Event
	var chartID sql.NullInt64
	err := row.Scan(&e.ID, &e.Name, &e.VenueName, &e.StartsAt, &e.EndsAt,
		&e.Status, &e.Capacity, &chartID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if chartID.Valid {
		id := uint64(chartID.Int64)
		e.ChartID = &id
	}
	return &e, nil
}

// GetByID retrieves an event by its id.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	return scanEvent(r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
}

// GetByIDForUpdateTx retrieves an event inside a transaction with a row
// lock.  The event row acts as the serialization point for every
// capacity computation on an unseated event, so writers must hold this
// lock before counting sold tickets and active holds.
func (r *EventRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Event, error) {
	return scanEvent(tx.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ? FOR UPDATE`, id))
}

// UpdateStatus changes the lifecycle state of an event.
func (r *EventRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// ListPublished returns published events ordered by start time.  The
// limit is defaulted and capped so an unpaged call stays bounded.
func (r *EventRepo) ListPublished(ctx context.Context, limit, offset int) ([]model.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	const q = `SELECT ` + eventColumns + ` FROM events
	           WHERE status = 'published'
	           ORDER BY starts_at
	           LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Event
	for rows.Next() {
		var e model.Event
		var chartID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Name, &e.VenueName, &e.StartsAt, &e.EndsAt,
			&e.Status, &e.Capacity, &chartID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		if chartID.Valid {
			id := uint64(chartID.Int64)
			e.ChartID = &id
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
