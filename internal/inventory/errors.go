// Package inventory implements the ticket and seat inventory engine:
// code generation, the seat ledger, the capacity counter, ticket
// issuance and the check-in coordinator.  All state transitions run in
// database transactions so a batch of seats or tickets moves together
// or not at all.
package inventory

import (
	"errors"
	"fmt"
	"time"
)

// ErrCodeSpaceExhausted is returned when the code generator fails to
// find an unused ticket code within its retry budget.
var ErrCodeSpaceExhausted = errors.New("ticket code space exhausted")

// ErrHoldNotFound is returned when a hold token matches no live hold.
// Expired holds are indistinguishable from ones that never existed.
var ErrHoldNotFound = errors.New("hold not found or expired")

// ErrNotOnSale is returned when a hold is requested against an event
// that is not published or a ticket type outside its sale window.
var ErrNotOnSale = errors.New("not on sale")

// ErrNothingRequested is returned when a hold request names no seats
// or a zero quantity.
var ErrNothingRequested = errors.New("nothing requested")

// SeatsUnavailableError reports which of the requested seats could not
// be held.  The hold is all-or-nothing, so no seats were taken.
type SeatsUnavailableError struct {
	SeatIDs []uint64
}

func (e *SeatsUnavailableError) Error() string {
	return fmt.Sprintf("%d seat(s) unavailable", len(e.SeatIDs))
}

// InsufficientCapacityError reports that an unseated hold asked for
// more units than remain.
type InsufficientCapacityError struct {
	Requested uint32
	Available uint32
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity: requested %d, available %d", e.Requested, e.Available)
}

// AlreadyCheckedInError reports a repeated scan of the same ticket,
// carrying when and by whom the first scan happened.
type AlreadyCheckedInError struct {
	TicketID    uint64
	CheckedInAt time.Time
	CheckedInBy uint64
}

func (e *AlreadyCheckedInError) Error() string {
	return fmt.Sprintf("ticket %d already checked in at %s", e.TicketID, e.CheckedInAt.Format(time.RFC3339))
}

// TicketCancelledError reports a scan of a cancelled ticket.
type TicketCancelledError struct {
	TicketID uint64
}

func (e *TicketCancelledError) Error() string {
	return fmt.Sprintf("ticket %d is cancelled", e.TicketID)
}
