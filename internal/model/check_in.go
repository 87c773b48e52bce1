package model

import "time"

// CheckIn is an append-only audit row recording one entry scan, as
// stored in the `check_ins` table.  A ticket normally has at most one
// row; additional rows appear only after a manual reset (re-entry) and
// are history only – the most recent row is the operationally relevant
// one.
//
// Fields:
//  ID          – primary key identifier.
//  TicketID    – ticket that was scanned.
//  EventID     – denormalized event reference for per-event stats.
//  CheckedInBy – staff user who performed the scan.
//  CheckInTime – when the scan happened.
//  StationID   – optional scanner/station identifier.
//  Notes       – optional free-form notes.
//  Location    – optional gate/entrance label.
type CheckIn struct {
    ID          uint64    // check_ins.id
    TicketID    uint64    // check_ins.ticket_id
    EventID     uint64    // check_ins.event_id
    CheckedInBy uint64    // check_ins.checked_in_by
    CheckInTime time.Time // check_ins.check_in_time
    StationID   string    // check_ins.station_id
    Notes       string    // check_ins.notes
    Location    string    // check_ins.location
}
