package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"       // errors for sentinel definitions
	"strings"      // strings builds IN (...) placeholder lists

	"github.com/shopkit/ticket-seller/internal/model"
)

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// SeatRepo provides methods to work with seats in the database.  Seat
// state transitions (available -> held -> sold and back) always run inside
// a caller-supplied transaction so that a batch of seats moves together
// or not at all.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// placeholders returns a "?,?,?" list for n values.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// CreateBulk inserts multiple seats in a single statement.  Used when a
// seating chart layout is generated.  Status defaults to available in
// the schema.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (section_id, chart_id, row_name, seat_number) VALUES `
	args := make([]interface{}, 0, len(seats)*4)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, s.SectionID, s.ChartID, s.RowName, s.SeatNumber)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a seat by its id.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	const q = `SELECT id, section_id, chart_id, row_name, seat_number, status, hold_token, held_until, created_at, updated_at
	           FROM seats WHERE id = ?`
	var s model.Seat
	var heldUntil sql.NullTime
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&s.ID, &s.SectionID, &s.ChartID, &s.RowName, &s.SeatNumber, &s.Status, &s.HoldToken, &heldUntil, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	if heldUntil.Valid {
		t := heldUntil.Time
		s.HeldUntil = &t
	}
	return &s, nil
}

// ListByChart retrieves all seats of a chart ordered by section, row and
// seat number.  Used by the public seat map endpoint; callers should
// apply EffectiveStatus so expired holds read as available.
func (r *SeatRepo) ListByChart(ctx context.Context, chartID uint64) ([]model.Seat, error) {
	const q = `SELECT id, section_id, chart_id, row_name, seat_number, status, hold_token, held_until, created_at, updated_at
	           FROM seats
	           WHERE chart_id = ?
	           ORDER BY section_id, row_name, seat_number`
	rows, err := r.db.QueryContext(ctx, q, chartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		var s model.Seat
		var heldUntil sql.NullTime
		if err := rows.Scan(
			&s.ID, &s.SectionID, &s.ChartID, &s.RowName, &s.SeatNumber,
			&s.Status, &s.HoldToken, &heldUntil, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if heldUntil.Valid {
			t := heldUntil.Time
			s.HeldUntil = &t
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// FilterHoldableTx returns the subset of the requested seat IDs that can
// currently be held: status available, or held with an expired held_until.
// Rows are locked with FOR UPDATE so concurrent hold attempts serialize
// on the same seats.  Callers compare the returned count against the
// requested count to enforce all-or-nothing holds.
func (r *SeatRepo) FilterHoldableTx(ctx context.Context, tx *sql.Tx, chartID uint64, seatIDs []uint64) ([]uint64, error) {
	if len(seatIDs) == 0 {
		return []uint64{}, nil
	}
	query := `SELECT id FROM seats
	          WHERE chart_id = ? AND id IN (` + placeholders(len(seatIDs)) + `)
	            AND (status = 'available'
	                 OR (status = 'held' AND held_until <= UTC_TIMESTAMP()))
	          FOR UPDATE`
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, chartID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	holdable := make([]uint64, 0, len(seatIDs))
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		holdable = append(holdable, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return holdable, nil
}

// HoldTx marks the given seats held under the supplied token until the
// given UTC expiry.  Callers must have locked the rows via
// FilterHoldableTx in the same transaction.
func (r *SeatRepo) HoldTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64, token string, until string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `UPDATE seats SET status = 'held', hold_token = ?, held_until = ?
	          WHERE id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+2)
	args = append(args, token, until)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// HeldSeatsByTokenTx returns the IDs of seats currently held under the
// given token with an unexpired held_until, plus the chart those seats
// belong to, locking the rows FOR UPDATE.  A hold is placed within one
// chart, so the chart is single-valued.  Callers confirming a hold use
// the result to decide whether the full batch is still intact and
// whether it belongs to the expected chart.
func (r *SeatRepo) HeldSeatsByTokenTx(ctx context.Context, tx *sql.Tx, token string) ([]uint64, uint64, error) {
	const q = `SELECT id, chart_id FROM seats
	           WHERE hold_token = ? AND status = 'held' AND held_until > UTC_TIMESTAMP()
	           ORDER BY id
	           FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, token)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var ids []uint64
	var chartID uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id, &chartID); err != nil {
			return nil, 0, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return ids, chartID, nil
}

// ConfirmHeldTx transitions all unexpired seats held under the token to
// sold, clearing the hold columns.  It returns the number of seats
// confirmed so callers can verify the whole batch converted.
func (r *SeatRepo) ConfirmHeldTx(ctx context.Context, tx *sql.Tx, token string) (int64, error) {
	const q = `UPDATE seats SET status = 'sold', hold_token = '', held_until = NULL
	           WHERE hold_token = ? AND status = 'held' AND held_until > UTC_TIMESTAMP()`
	res, err := tx.ExecContext(ctx, q, token)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReleaseByTokenTx returns all seats held under the token to available.
// Releasing a token that no longer holds anything is a no-op, which
// makes release safe to call twice.
func (r *SeatRepo) ReleaseByTokenTx(ctx context.Context, tx *sql.Tx, token string) (int64, error) {
	const q = `UPDATE seats SET status = 'available', hold_token = '', held_until = NULL
	           WHERE hold_token = ? AND status = 'held'`
	res, err := tx.ExecContext(ctx, q, token)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReleaseSoldTx returns a single sold seat to available.  Used when a
// ticket is cancelled.  Returns the number of rows changed; zero means
// the seat was not in sold state.
func (r *SeatRepo) ReleaseSoldTx(ctx context.Context, tx *sql.Tx, seatID uint64) (int64, error) {
	const q = `UPDATE seats SET status = 'available', hold_token = '', held_until = NULL
	           WHERE id = ? AND status = 'sold'`
	res, err := tx.ExecContext(ctx, q, seatID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SweepExpired reclaims every seat whose hold has lapsed, across all
// charts, and returns how many were released.  Runs directly on the DB
// handle; the single UPDATE is atomic on its own.
func (r *SeatRepo) SweepExpired(ctx context.Context) (int64, error) {
	const q = `UPDATE seats SET status = 'available', hold_token = '', held_until = NULL
	           WHERE status = 'held' AND held_until <= UTC_TIMESTAMP()`
	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountByChartStatus returns how many seats of a chart are in the given
// effective state.  Expired holds count as available.
func (r *SeatRepo) CountByChartStatus(ctx context.Context, chartID uint64, status string) (uint32, error) {
	var q string
	switch status {
	case model.SeatStatusAvailable:
		q = `SELECT COUNT(*) FROM seats WHERE chart_id = ?
		     AND (status = 'available' OR (status = 'held' AND held_until <= UTC_TIMESTAMP()))`
	case model.SeatStatusHeld:
		q = `SELECT COUNT(*) FROM seats WHERE chart_id = ?
		     AND status = 'held' AND held_until > UTC_TIMESTAMP()`
	default:
		q = `SELECT COUNT(*) FROM seats WHERE chart_id = ? AND status = ?`
		var n uint32
		err := r.db.QueryRowContext(ctx, q, chartID, status).Scan(&n)
		return n, err
	}
	var n uint32
	err := r.db.QueryRowContext(ctx, q, chartID).Scan(&n)
	return n, err
}
