package model

import "time"

// Seat states.  A seat is in exactly one of these at any instant; an
// expired hold is equivalent to available and is reclaimed lazily or
// by the background sweep.
const (
    SeatStatusAvailable = "available"
    SeatStatusHeld      = "held"
    SeatStatusSold      = "sold"
)

// Seat describes a physical seat within a section of a seating chart,
// as stored in the `seats` table.  Seats are uniquely identified by
// (section, row, number).  Seats are created administratively; their
// status is mutated only by the inventory engine.
//
// Fields:
//  ID         – primary key identifier.
//  SectionID  – section to which this seat belongs.
//  ChartID    – denormalized chart reference for chart-wide queries.
//  RowName    – letter or string designating the row.
//  SeatNumber – number of the seat within the row.
//  Status     – availability status (available, held, sold).
//  HoldToken  – token identifying the active hold (empty when not held).
//  HeldUntil  – when the active hold expires (nil when not held).
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Seat struct {
    ID         uint64     // seats.id
    SectionID  uint64     // seats.section_id
    ChartID    uint64     // seats.chart_id
    RowName    string     // seats.row_name
    SeatNumber string     // seats.seat_number
    Status     string     // seats.status
    HoldToken  string     // seats.hold_token
    HeldUntil  *time.Time // seats.held_until (nullable)
    CreatedAt  time.Time  // seats.created_at
    UpdatedAt  time.Time  // seats.updated_at
}

// HoldExpired is the single source of truth for hold expiry: a held
// seat whose held_until has passed counts as available everywhere.
func (s *Seat) HoldExpired(now time.Time) bool {
    return s.Status == SeatStatusHeld && s.HeldUntil != nil && !s.HeldUntil.After(now)
}

// EffectiveStatus resolves the seat state as seen by readers, folding
// expired holds back into available.
func (s *Seat) EffectiveStatus(now time.Time) string {
    if s.HoldExpired(now) {
        return SeatStatusAvailable
    }
    return s.Status
}
