package inventory

import (
	"context"
	"database/sql"
	"log"

	"github.com/shopkit/ticket-seller/internal/model"
	"github.com/shopkit/ticket-seller/internal/repository"
)

// Engine ties the seat ledger, capacity counter and ticket store
// together behind the two order-level operations.  Finalization is
// fail-fast: the first line that cannot convert aborts the whole
// transaction and no tickets exist afterwards.
type Engine struct {
	db       *sql.DB
	ledger   *SeatLedger
	capacity *CapacityCounter
	store    *TicketStore
	events   *repository.EventRepo
}

// NewEngine constructs an Engine.
func NewEngine(db *sql.DB, ledger *SeatLedger, capacity *CapacityCounter, store *TicketStore, events *repository.EventRepo) *Engine {
	return &Engine{db: db, ledger: ledger, capacity: capacity, store: store, events: events}
}

// Ledger exposes the seat ledger for hold and release endpoints.
func (e *Engine) Ledger() *SeatLedger { return e.ledger }

// Capacity exposes the capacity counter for hold and availability endpoints.
func (e *Engine) Capacity() *CapacityCounter { return e.capacity }

// Store exposes the ticket store for query and cancel endpoints.
func (e *Engine) Store() *TicketStore { return e.store }

// OrderLine is one order item being finalized.  Seated lines carry the
// seat hold token; unseated lines carry the capacity hold token.
// Attendees may be shorter than Quantity; missing entries fall back to
// the buyer's details.
type OrderLine struct {
	OrderItemID uint64           `json:"order_item_id"`
	EventID     uint64           `json:"event_id"`
	TypeID      uint64           `json:"type_id"`
	Quantity    uint32           `json:"quantity"`
	Seated      bool             `json:"seated"`
	HoldToken   string           `json:"hold_token"`
	Attendees   []model.Attendee `json:"attendees"`
}

// FinalizeOrderRequest carries everything needed to convert an order's
// holds into issued tickets.
type FinalizeOrderRequest struct {
	OrderID    uint64      `json:"order_id"`
	CustomerID uint64      `json:"customer_id"`
	BuyerEmail string      `json:"buyer_email"`
	Lines      []OrderLine `json:"lines"`
}

// attendees pads or trims the attendee list to exactly n entries.
func attendees(line OrderLine, n int) []model.Attendee {
	out := make([]model.Attendee, n)
	copy(out, line.Attendees)
	return out
}

// FinalizeOrder converts each line's hold into sold seats and issued
// tickets in one transaction.  Line order is preserved in the returned
// tickets.  On any failure the transaction rolls back whole: holds
// stay live (until their TTL) and no tickets are issued.
func (e *Engine) FinalizeOrder(ctx context.Context, req FinalizeOrderRequest) ([]model.Ticket, error) {
	if len(req.Lines) == 0 {
		return nil, ErrNothingRequested
	}
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var issued []model.Ticket
	for _, line := range req.Lines {
		if line.Quantity == 0 {
			return nil, ErrNothingRequested
		}
		spec := IssueSpec{
			OrderID:     req.OrderID,
			OrderItemID: line.OrderItemID,
			EventID:     line.EventID,
			TypeID:      line.TypeID,
			CustomerID:  req.CustomerID,
			BuyerEmail:  req.BuyerEmail,
			Attendees:   attendees(line, int(line.Quantity)),
		}
		if line.Seated {
			// The event row lock pins the chart so the hold can be
			// checked against the event the line claims to buy into.
			ev, err := e.events.GetByIDForUpdateTx(ctx, tx, line.EventID)
			if err != nil {
				return nil, err
			}
			if ev.ChartID == nil {
				return nil, repository.ErrConflict
			}
			seatIDs, err := e.ledger.ConfirmTx(ctx, tx, line.HoldToken, *ev.ChartID)
			if err != nil {
				return nil, err
			}
			if uint32(len(seatIDs)) != line.Quantity {
				return nil, repository.ErrConflict
			}
			spec.SeatIDs = seatIDs
		} else {
			h, err := e.capacity.ConfirmTx(ctx, tx, line.HoldToken)
			if err != nil {
				return nil, err
			}
			if h.EventID != line.EventID || h.Quantity != line.Quantity {
				return nil, repository.ErrConflict
			}
		}
		batch, err := e.store.IssueBatchTx(ctx, tx, spec)
		if err != nil {
			return nil, err
		}
		issued = append(issued, batch...)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return issued, nil
}

// CancelOrder voids every remaining ticket of an order and frees their
// seats in one transaction.  Already cancelled tickets are skipped, so
// repeating the call returns an empty slice and no error.
func (e *Engine) CancelOrder(ctx context.Context, orderID uint64) ([]model.Ticket, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	cancelled, err := e.store.CancelOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return cancelled, nil
}

// SweepResult reports what one sweep pass reclaimed.
type SweepResult struct {
	SeatsReleased int64 `json:"seats_released"`
	HoldsDeleted  int64 `json:"holds_deleted"`
}

// SweepExpired reclaims every expired seat hold and capacity hold.
// A completed order never loses anything here: confirmation cleared
// the hold columns, so the sweep only ever touches holds that are both
// held and past their expiry.
func (e *Engine) SweepExpired(ctx context.Context) (SweepResult, error) {
	seats, err := e.ledger.SweepExpired(ctx)
	if err != nil {
		return SweepResult{}, err
	}
	holds, err := e.capacity.SweepExpired(ctx)
	if err != nil {
		return SweepResult{SeatsReleased: seats}, err
	}
	if seats > 0 || holds > 0 {
		log.Printf("sweep: released %d seat(s), deleted %d capacity hold(s)", seats, holds)
	}
	return SweepResult{SeatsReleased: seats, HoldsDeleted: holds}, nil
}
