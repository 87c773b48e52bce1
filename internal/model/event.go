package model

import (
    "errors"
    "time"
)

// Event statuses.  Only published events accept inventory operations;
// draft and cancelled events are reference data for the admin side.
const (
    EventStatusDraft     = "draft"
    EventStatusPublished = "published"
    EventStatusCancelled = "cancelled"
)

// Event represents a sellable event as stored in the `events` table.
// An event owns zero or more ticket types and at most one seating
// chart.  Capacity is the hard ceiling on sellable units for the
// whole event; ticket types may define smaller sub-capacities.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display name of the event.
//  StartsAt    – when the event begins.
//  EndsAt      – when the event ends (must be after StartsAt).
//  VenueName   – free-form venue name carried on the event row.
//  Status      – current state (draft, published, cancelled).
//  Capacity    – maximum number of sellable units.
//  ChartID     – seating chart for seated events (nil for unseated).
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Event struct {
    ID        uint64    // events.id
    Name      string    // events.name
    StartsAt  time.Time // events.starts_at
    EndsAt    time.Time // events.ends_at
    VenueName string    // events.venue_name
    Status    string    // events.status
    Capacity  uint32    // events.capacity
    ChartID   *uint64   // events.chart_id (nullable)
    CreatedAt time.Time // events.created_at
    UpdatedAt time.Time // events.updated_at
}

// Validation errors returned by NewEvent.
var (
    ErrEventNameRequired   = errors.New("event name is required")
    ErrEventWindowInvalid  = errors.New("event end must be after start")
    ErrEventZeroCapacity   = errors.New("event capacity must be positive")
)

// NewEvent builds a draft event and validates the invariants that must
// hold at creation time.  Sub-capacity sums against ticket types are
// deliberately not checked here; they are enforced dynamically at
// issuance time.
func NewEvent(name string, startsAt, endsAt time.Time, capacity uint32) (*Event, error) {
    if name == "" {
        return nil, ErrEventNameRequired
    }
    if !endsAt.After(startsAt) {
        return nil, ErrEventWindowInvalid
    }
    if capacity == 0 {
        return nil, ErrEventZeroCapacity
    }
    return &Event{
        Name:     name,
        StartsAt: startsAt.UTC(),
        EndsAt:   endsAt.UTC(),
        Status:   EventStatusDraft,
        Capacity: capacity,
    }, nil
}

// Seated reports whether the event sells identified seats rather than
// anonymous capacity units.
func (e *Event) Seated() bool { return e.ChartID != nil }
