package inventory

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/shopkit/ticket-seller/internal/model"
	"github.com/shopkit/ticket-seller/internal/repository"
)

// CapacityCounter guards unseated inventory.  Remaining capacity is
// never stored; it is recomputed as the event capacity minus active
// tickets minus unexpired holds across all ticket types, further capped
// by the requested type's sub-capacity when one is set, always under a
// lock on the event row so concurrent checkouts serialize and cannot
// oversell.
type CapacityCounter struct {
	db      *sql.DB
	events  *repository.EventRepo
	types   *repository.TicketTypeRepo
	tickets *repository.TicketRepo
	holds   *repository.CapacityHoldRepo
	ttl     time.Duration
}

// NewCapacityCounter constructs a CapacityCounter.  A non-positive TTL
// falls back to 15 minutes.
func NewCapacityCounter(db *sql.DB, events *repository.EventRepo, types *repository.TicketTypeRepo,
	tickets *repository.TicketRepo, holds *repository.CapacityHoldRepo, ttl time.Duration) *CapacityCounter {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CapacityCounter{db: db, events: events, types: types, tickets: tickets, holds: holds, ttl: ttl}
}

// typeForSaleTx resolves the requested ticket type inside the caller's
// transaction, rejecting holds against events that are not published or
// types outside their sale window.  Returns nil when no type narrows
// the request.
func (c *CapacityCounter) typeForSaleTx(ctx context.Context, tx *sql.Tx, ev *model.Event, typeID uint64, now time.Time) (*model.TicketType, error) {
	if ev.Status != model.EventStatusPublished {
		return nil, ErrNotOnSale
	}
	if typeID == 0 {
		return nil, nil
	}
	t, err := c.types.GetByIDTx(ctx, tx, typeID)
	if err != nil {
		return nil, err
	}
	if t.EventID != ev.ID {
		return nil, repository.ErrTicketTypeNotFound
	}
	if !t.OnSale(now) {
		return nil, ErrNotOnSale
	}
	return t, nil
}

// availableTx recomputes the units still sellable inside the caller's
// transaction.  The event-wide ceiling always binds: sold and held are
// counted across every ticket type, so one type can never consume
// capacity invisibly to another.  A type sub-capacity, when set, is an
// additional ceiling on top, never a substitute.
func (c *CapacityCounter) availableTx(ctx context.Context, tx *sql.Tx, ev *model.Event, t *model.TicketType) (uint32, error) {
	sold, err := c.tickets.CountActiveTx(ctx, tx, ev.ID, 0)
	if err != nil {
		return 0, err
	}
	held, err := c.holds.ActiveQuantityTx(ctx, tx, ev.ID, 0)
	if err != nil {
		return 0, err
	}
	var available uint32
	if used := sold + held; ev.Capacity > used {
		available = ev.Capacity - used
	}
	if t != nil && t.Capacity != nil {
		typeSold, err := c.tickets.CountActiveTx(ctx, tx, ev.ID, t.ID)
		if err != nil {
			return 0, err
		}
		typeHeld, err := c.holds.ActiveQuantityTx(ctx, tx, ev.ID, t.ID)
		if err != nil {
			return 0, err
		}
		var typeAvailable uint32
		if used := typeSold + typeHeld; *t.Capacity > used {
			typeAvailable = *t.Capacity - used
		}
		if typeAvailable < available {
			available = typeAvailable
		}
	}
	return available, nil
}

// Hold reserves quantity units of unseated capacity for a checkout
// session.  The event row lock makes the sold+held recomputation and
// the insert atomic with respect to other holds and finalizations.
func (c *CapacityCounter) Hold(ctx context.Context, eventID, typeID uint64, quantity uint32) (*model.CapacityHold, error) {
	if quantity == 0 {
		return nil, ErrNothingRequested
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	ev, err := c.events.GetByIDForUpdateTx(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	typ, err := c.typeForSaleTx(ctx, tx, ev, typeID, now)
	if err != nil {
		return nil, err
	}
	available, err := c.availableTx(ctx, tx, ev, typ)
	if err != nil {
		return nil, err
	}
	if quantity > available {
		return nil, &InsufficientCapacityError{Requested: quantity, Available: available}
	}

	h := &model.CapacityHold{
		EventID:   eventID,
		TypeID:    typeID,
		Quantity:  quantity,
		HoldToken: uuid.NewString(),
		ExpiresAt: now.Add(c.ttl),
	}
	if err := c.holds.CreateTx(ctx, tx, h); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return h, nil
}

// ConfirmTx consumes a live capacity hold inside the caller's
// transaction, returning the hold so the caller can issue that many
// tickets.  The hold row is deleted; its units become sold tickets in
// the same transaction or not at all.
func (c *CapacityCounter) ConfirmTx(ctx context.Context, tx *sql.Tx, token string) (*model.CapacityHold, error) {
	h, err := c.holds.GetByTokenTx(ctx, tx, token)
	if err != nil {
		if errors.Is(err, repository.ErrHoldNotFound) {
			return nil, ErrHoldNotFound
		}
		return nil, err
	}
	if _, err := c.holds.DeleteByTokenTx(ctx, tx, token); err != nil {
		return nil, err
	}
	return h, nil
}

// Release drops a capacity hold.  Unknown tokens are a no-op so release
// can be retried safely; the count reports whether anything was freed.
func (c *CapacityCounter) Release(ctx context.Context, token string) (int64, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	n, err := c.holds.DeleteByTokenTx(ctx, tx, token)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return n, nil
}

// Availability reports the remaining unseated capacity for an event or
// one of its ticket types.  It takes the same event row lock as Hold so
// the answer is consistent with in-flight checkouts.
func (c *CapacityCounter) Availability(ctx context.Context, eventID, typeID uint64) (uint32, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	ev, err := c.events.GetByIDForUpdateTx(ctx, tx, eventID)
	if err != nil {
		return 0, err
	}
	typ, err := c.typeForSaleTx(ctx, tx, ev, typeID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	available, err := c.availableTx(ctx, tx, ev, typ)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return available, nil
}

// SweepExpired deletes all lapsed capacity holds and returns the count.
// The tokens are logged first so an abandoned checkout can be traced
// back to the hold it lost.
func (c *CapacityCounter) SweepExpired(ctx context.Context) (int64, error) {
	if tokens, err := c.holds.ExpiringBefore(ctx, time.Now().UTC()); err == nil && len(tokens) > 0 {
		log.Printf("capacity sweep: expiring holds %v", tokens)
	}
	return c.holds.SweepExpired(ctx)
}
