package model

import (
    "errors"
    "strings"
    "time"
)

// Ticket lifecycle statuses.  A ticket is created pending, transitions
// to checked-in exactly once, and may be cancelled from either state.
// Nothing ever leaves cancelled.
const (
    TicketStatusPending   = "pending"
    TicketStatusCheckedIn = "checked-in"
    TicketStatusCancelled = "cancelled"
)

// Ticket is the unit actually sold, as stored in the `tickets` table.
// The code is immutable once issued and unique across all tickets.
// The attendee identity may differ from the purchaser on the order.
//
// Fields:
//  ID          – primary key identifier.
//  OrderID     – external order reference.
//  OrderItemID – external order line reference.
//  EventID     – event admitted to.
//  TypeID      – ticket type purchased.
//  Code        – unique, unguessable admission code.
//  CustomerID  – external purchaser account reference (0 for guests).
//  BuyerEmail  – purchaser email from the order.
//  FirstName   – attendee first name.
//  LastName    – attendee last name.
//  Email       – attendee email.
//  Status      – lifecycle status (pending, checked-in, cancelled).
//  SeatID      – assigned seat for seated events (nil when unseated).
//  CreatedAt   – issuance timestamp.
//  CheckedInAt – when the ticket was used for entry (nil until then).
//  CheckedInBy – staff user who performed the check-in (nil until then).
type Ticket struct {
    ID          uint64     // tickets.id
    OrderID     uint64     // tickets.order_id
    OrderItemID uint64     // tickets.order_item_id
    EventID     uint64     // tickets.event_id
    TypeID      uint64     // tickets.type_id
    Code        string     // tickets.ticket_code
    CustomerID  uint64     // tickets.customer_id
    BuyerEmail  string     // tickets.buyer_email
    FirstName   string     // tickets.first_name
    LastName    string     // tickets.last_name
    Email       string     // tickets.email
    Status      string     // tickets.status
    SeatID      *uint64    // tickets.seat_id (nullable)
    CreatedAt   time.Time  // tickets.created_at
    CheckedInAt *time.Time // tickets.checked_in_at (nullable)
    CheckedInBy *uint64    // tickets.checked_in_by (nullable)
}

// Attendee is the person admitted by a ticket.  It defaults to the
// purchaser when the order carries no per-unit attendee info.
type Attendee struct {
    FirstName string
    LastName  string
    Email     string
}

var ErrAttendeeEmailRequired = errors.New("attendee email is required")

// Validate checks the minimal attendee invariants enforced at issuance.
func (a Attendee) Validate() error {
    if strings.TrimSpace(a.Email) == "" {
        return ErrAttendeeEmailRequired
    }
    return nil
}
