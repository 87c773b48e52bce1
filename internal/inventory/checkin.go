package inventory

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopkit/ticket-seller/internal/model"
	"github.com/shopkit/ticket-seller/internal/repository"
)

// CheckinCoordinator performs the one-time pending to checked-in
// transition.  The status flip and the audit row commit together; a
// ticket scanned at two gates at once resolves under the row lock, and
// the loser gets AlreadyCheckedInError.
type CheckinCoordinator struct {
	db      *sql.DB
	tickets *repository.TicketRepo
	audits  *repository.CheckInRepo
}

// NewCheckinCoordinator constructs a CheckinCoordinator.
func NewCheckinCoordinator(db *sql.DB, tickets *repository.TicketRepo, audits *repository.CheckInRepo) *CheckinCoordinator {
	return &CheckinCoordinator{db: db, tickets: tickets, audits: audits}
}

// CheckInRequest identifies the ticket by id or, when TicketID is zero,
// by code.  StationID, Notes and Location are optional audit context.
type CheckInRequest struct {
	TicketID  uint64
	Code      string
	ByUserID  uint64
	StationID string
	Notes     string
	Location  string
}

// CheckIn admits one ticket.  It returns the updated ticket and the
// audit row on success.  Failure modes map to structured errors:
// repository.ErrTicketNotFound, TicketCancelledError, and
// AlreadyCheckedInError carrying the original scan's time and operator.
func (c *CheckinCoordinator) CheckIn(ctx context.Context, req CheckInRequest) (*model.Ticket, *model.CheckIn, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	t, err := c.tickets.GetForUpdateTx(ctx, tx, req.TicketID, req.Code)
	if err != nil {
		return nil, nil, err
	}
	switch t.Status {
	case model.TicketStatusCancelled:
		return nil, nil, &TicketCancelledError{TicketID: t.ID}
	case model.TicketStatusCheckedIn:
		e := &AlreadyCheckedInError{TicketID: t.ID}
		if t.CheckedInAt != nil {
			e.CheckedInAt = *t.CheckedInAt
		}
		if t.CheckedInBy != nil {
			e.CheckedInBy = *t.CheckedInBy
		}
		return nil, nil, e
	}

	n, err := c.tickets.MarkCheckedInTx(ctx, tx, t.ID, req.ByUserID)
	if err != nil {
		return nil, nil, err
	}
	if n == 0 {
		return nil, nil, repository.ErrConflict
	}
	audit := &model.CheckIn{
		TicketID:    t.ID,
		EventID:     t.EventID,
		CheckedInBy: req.ByUserID,
		StationID:   req.StationID,
		Notes:       req.Notes,
		Location:    req.Location,
	}
	if err := c.audits.CreateTx(ctx, tx, audit); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true

	now := time.Now().UTC()
	t.Status = model.TicketStatusCheckedIn
	t.CheckedInAt = &now
	by := req.ByUserID
	t.CheckedInBy = &by
	audit.CheckInTime = now
	return t, audit, nil
}
