package model

import "time"

// Seating chart lifecycle states.
const (
	ChartStatusActive  = "active"
	ChartStatusRetired = "retired"
)

// SeatingChart represents the seat layout attached to an event, as
// stored in the `seating_charts` table.  A chart optionally belongs to
// a venue and groups one or more sections.
//
// Fields:
//  ID        – primary key identifier.
//  VenueID   – owning venue (nil when the chart is free-standing).
//  Name      – display name of the chart.
//  Status    – active or retired.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type SeatingChart struct {
    ID        uint64    // seating_charts.id
    VenueID   *uint64   // seating_charts.venue_id (nullable)
    Name      string    // seating_charts.name
    Status    string    // seating_charts.status
    CreatedAt time.Time // seating_charts.created_at
    UpdatedAt time.Time // seating_charts.updated_at
}

// Section represents a named block of seats within a seating chart
// (`sections` table).  Seat identity (row, number) is unique within a
// section.
//
// Fields:
//  ID        – primary key identifier.
//  ChartID   – owning seating chart.
//  Name      – section name (e.g. "Balcony").
//  Label     – short label used on tickets (e.g. "BAL").
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Section struct {
    ID        uint64    // sections.id
    ChartID   uint64    // sections.chart_id
    Name      string    // sections.name
    Label     string    // sections.label
    CreatedAt time.Time // sections.created_at
    UpdatedAt time.Time // sections.updated_at
}
