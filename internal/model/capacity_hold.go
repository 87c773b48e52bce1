package model

import "time"

// CapacityHold is a temporary reservation of unseated inventory during
// checkout, stored in the `capacity_holds` table.  It plays the same
// role for anonymous capacity units that the held seat state plays for
// identified seats: it blocks concurrent checkouts from overselling
// while a buyer pays, and it expires automatically.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – event whose capacity is reserved.
//  TypeID    – ticket type reserved.
//  Quantity  – number of units reserved.
//  HoldToken – opaque token returned to the checkout session.
//  ExpiresAt – when the hold lapses.
//  CreatedAt – creation timestamp.
type CapacityHold struct {
    ID        uint64    // capacity_holds.id
    EventID   uint64    // capacity_holds.event_id
    TypeID    uint64    // capacity_holds.type_id
    Quantity  uint32    // capacity_holds.quantity
    HoldToken string    // capacity_holds.hold_token
    ExpiresAt time.Time // capacity_holds.expires_at
    CreatedAt time.Time // capacity_holds.created_at
}

// Expired reports whether the hold has lapsed at the given instant.
func (h *CapacityHold) Expired(now time.Time) bool {
    return !h.ExpiresAt.After(now)
}
