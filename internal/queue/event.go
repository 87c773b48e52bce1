// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names for ticket lifecycle events.  Each event type has its own
// durable queue; payloads share the TicketEvent shape.
const (
	TicketIssuedQueue    = "ticket.issued"
	TicketCheckedInQueue = "ticket.checked_in"
	TicketCancelledQueue = "ticket.cancelled"
)

// TicketEvent is published when a ticket is issued, checked in or
// cancelled.  It contains enough information for downstream consumers
// (mailers, badge printers, analytics) to act without querying the
// primary database.
type TicketEvent struct {
	TicketID   uint64  `json:"ticket_id"`
	OrderID    uint64  `json:"order_id"`
	EventID    uint64  `json:"event_id"`
	TypeID     uint64  `json:"type_id"`
	Code       string  `json:"code"`
	SeatID     *uint64 `json:"seat_id,omitempty"`
	FirstName  string  `json:"first_name,omitempty"`
	LastName   string  `json:"last_name,omitempty"`
	Email      string  `json:"email,omitempty"`
	Status     string  `json:"status"`
	OccurredAt string  `json:"occurred_at"`
}
