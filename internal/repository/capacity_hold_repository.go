package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopkit/ticket-seller/internal/model"
)

// ErrHoldNotFound is returned when a hold token matches no row.
var ErrHoldNotFound = errors.New("hold not found")

// CapacityHoldRepo provides data access to the capacity_holds table,
// which tracks temporary quantity reservations against unseated event
// or ticket type capacity.  All timestamps are stored and compared in
// UTC.
type CapacityHoldRepo struct {
	db *sql.DB
}

// NewCapacityHoldRepo returns a new CapacityHoldRepo bound to the provided database.
func NewCapacityHoldRepo(db *sql.DB) *CapacityHoldRepo { return &CapacityHoldRepo{db: db} }

// CreateTx inserts a capacity hold within the provided transaction.  The
// caller must commit or roll back.  The generated ID is populated on the
// passed record.
func (r *CapacityHoldRepo) CreateTx(ctx context.Context, tx *sql.Tx, h *model.CapacityHold) error {
	const q = `INSERT INTO capacity_holds (event_id, type_id, quantity, hold_token, expires_at)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, h.EventID, h.TypeID, h.Quantity, h.HoldToken,
		h.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

// GetByTokenTx fetches an unexpired capacity hold by its token, locking
// the row FOR UPDATE so confirm and release serialize against each other.
// Returns ErrHoldNotFound when the token matches nothing live.
func (r *CapacityHoldRepo) GetByTokenTx(ctx context.Context, tx *sql.Tx, token string) (*model.CapacityHold, error) {
	const q = `SELECT id, event_id, type_id, quantity, hold_token, expires_at, created_at
	           FROM capacity_holds
	           WHERE hold_token = ? AND expires_at > UTC_TIMESTAMP()
	           FOR UPDATE`
	var h model.CapacityHold
	err := tx.QueryRowContext(ctx, q, token).
		Scan(&h.ID, &h.EventID, &h.TypeID, &h.Quantity, &h.HoldToken, &h.ExpiresAt, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHoldNotFound
		}
		return nil, err
	}
	return &h, nil
}

// DeleteByTokenTx removes a capacity hold by token.  Deleting a token
// that no longer exists is a no-op, so release stays idempotent.  The
// returned count tells the caller whether anything was actually freed.
func (r *CapacityHoldRepo) DeleteByTokenTx(ctx context.Context, tx *sql.Tx, token string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM capacity_holds WHERE hold_token = ?`, token)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ActiveQuantityTx sums the quantities of all unexpired holds for an
// event, optionally narrowed to one ticket type (typeID zero means all
// types).  Runs inside the caller's transaction so the count is
// consistent with the row lock taken on the event.
func (r *CapacityHoldRepo) ActiveQuantityTx(ctx context.Context, tx *sql.Tx, eventID, typeID uint64) (uint32, error) {
	q := `SELECT COALESCE(SUM(quantity), 0) FROM capacity_holds
	      WHERE event_id = ? AND expires_at > UTC_TIMESTAMP()`
	args := []interface{}{eventID}
	if typeID != 0 {
		q += ` AND type_id = ?`
		args = append(args, typeID)
	}
	var n uint32
	err := tx.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

// SweepExpired deletes all lapsed capacity holds and returns how many
// were removed.  Rows past expires_at are already invisible to the
// availability math, so this is cleanup rather than correctness.
func (r *CapacityHoldRepo) SweepExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM capacity_holds WHERE expires_at <= UTC_TIMESTAMP()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ExpiringBefore lists tokens of holds that lapse before the given
// cutoff.  The sweep uses this for logging which orders lost their
// holds.
func (r *CapacityHoldRepo) ExpiringBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT hold_token FROM capacity_holds WHERE expires_at <= ?`,
		cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}
