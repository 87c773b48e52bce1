package inventory

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/shopkit/ticket-seller/internal/repository"
)

// SeatLedger tracks the lifecycle of identified seats: available, held
// under a token with a TTL, and sold.  Holds are all-or-nothing per
// batch; an expired hold counts as available everywhere and is
// physically reclaimed lazily or by the sweep.
type SeatLedger struct {
	db    *sql.DB
	seats *repository.SeatRepo
	ttl   time.Duration
}

// NewSeatLedger constructs a SeatLedger.  A non-positive TTL falls back
// to 15 minutes.
func NewSeatLedger(db *sql.DB, seats *repository.SeatRepo, ttl time.Duration) *SeatLedger {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SeatLedger{db: db, seats: seats, ttl: ttl}
}

// SeatHoldResult describes a successful batch hold.
type SeatHoldResult struct {
	Token     string    `json:"hold_token"`
	SeatIDs   []uint64  `json:"seat_ids"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Hold places all requested seats of a chart into the held state under
// one fresh token.  If any seat is already held or sold, nothing is
// taken and a SeatsUnavailableError names the conflicting seats.
func (l *SeatLedger) Hold(ctx context.Context, chartID uint64, seatIDs []uint64) (*SeatHoldResult, error) {
	if len(seatIDs) == 0 {
		return nil, ErrNothingRequested
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	holdable, err := l.seats.FilterHoldableTx(ctx, tx, chartID, seatIDs)
	if err != nil {
		return nil, err
	}
	if len(holdable) != len(seatIDs) {
		// Name the seats that blocked the batch.
		got := make(map[uint64]bool, len(holdable))
		for _, id := range holdable {
			got[id] = true
		}
		var missing []uint64
		for _, id := range seatIDs {
			if !got[id] {
				missing = append(missing, id)
			}
		}
		return nil, &SeatsUnavailableError{SeatIDs: missing}
	}

	token := uuid.NewString()
	expiresAt := time.Now().UTC().Add(l.ttl)
	if err := l.seats.HoldTx(ctx, tx, seatIDs, token, expiresAt.Format("2006-01-02 15:04:05")); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &SeatHoldResult{Token: token, SeatIDs: holdable, ExpiresAt: expiresAt}, nil
}

// ConfirmTx converts every unexpired seat held under the token to sold,
// inside the caller's transaction, and returns the seat IDs.  The held
// seats must belong to chartID; a token minted against another chart
// cannot buy seats here.  Returns ErrHoldNotFound when the token holds
// nothing live and ErrConflict when the seats sit in a different chart
// or the batch could not be converted whole.
func (l *SeatLedger) ConfirmTx(ctx context.Context, tx *sql.Tx, token string, chartID uint64) ([]uint64, error) {
	seatIDs, heldChart, err := l.seats.HeldSeatsByTokenTx(ctx, tx, token)
	if err != nil {
		return nil, err
	}
	if len(seatIDs) == 0 {
		return nil, ErrHoldNotFound
	}
	if heldChart != chartID {
		return nil, repository.ErrConflict
	}
	n, err := l.seats.ConfirmHeldTx(ctx, tx, token)
	if err != nil {
		return nil, err
	}
	if n != int64(len(seatIDs)) {
		return nil, repository.ErrConflict
	}
	return seatIDs, nil
}

// Release returns every seat still held under the token to available.
// Releasing an unknown or already released token is a no-op; the count
// reports how many seats were actually freed.
func (l *SeatLedger) Release(ctx context.Context, token string) (int64, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	n, err := l.seats.ReleaseByTokenTx(ctx, tx, token)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return n, nil
}

// SweepExpired reclaims all lapsed seat holds and returns the count.
func (l *SeatLedger) SweepExpired(ctx context.Context) (int64, error) {
	return l.seats.SweepExpired(ctx)
}
