package model

import "time"

// TicketType represents one sellable class of admission for an event
// (e.g. general, vip, early-bird) as stored in the `ticket_types`
// table.  A type may carry its own sub-capacity and sale window; both
// are optional.  Sub-capacity never exceeds the event capacity in
// effect – that invariant is checked at reservation time against live
// counts, not at creation.
//
// Fields:
//  ID         – primary key identifier.
//  EventID    – owning event.
//  Name       – unique type name within the event.
//  PriceCents – price in cents.
//  Capacity   – optional sub-capacity (nil means bounded only by the event).
//  SaleStart  – optional start of the sale window.
//  SaleEnd    – optional end of the sale window.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type TicketType struct {
    ID         uint64     // ticket_types.id
    EventID    uint64     // ticket_types.event_id
    Name       string     // ticket_types.name
    PriceCents uint32     // ticket_types.price_cents
    Capacity   *uint32    // ticket_types.capacity (nullable)
    SaleStart  *time.Time // ticket_types.sale_start (nullable)
    SaleEnd    *time.Time // ticket_types.sale_end (nullable)
    CreatedAt  time.Time  // ticket_types.created_at
    UpdatedAt  time.Time  // ticket_types.updated_at
}

// OnSale reports whether the type's sale window (when set) contains now.
func (t *TicketType) OnSale(now time.Time) bool {
    if t.SaleStart != nil && now.Before(*t.SaleStart) {
        return false
    }
    if t.SaleEnd != nil && now.After(*t.SaleEnd) {
        return false
    }
    return true
}
