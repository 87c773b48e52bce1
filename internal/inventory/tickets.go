package inventory

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shopkit/ticket-seller/internal/model"
	"github.com/shopkit/ticket-seller/internal/repository"
)

// TicketStore issues, cancels and queries tickets.  Issuance always
// happens inside the order finalization transaction; cancellation runs
// its own transaction and returns the seat (if any) to the pool.
type TicketStore struct {
	db      *sql.DB
	tickets *repository.TicketRepo
	seats   *repository.SeatRepo
	codes   *CodeGenerator
}

// NewTicketStore constructs a TicketStore.
func NewTicketStore(db *sql.DB, tickets *repository.TicketRepo, seats *repository.SeatRepo, codes *CodeGenerator) *TicketStore {
	return &TicketStore{db: db, tickets: tickets, seats: seats, codes: codes}
}

// IssueSpec describes one batch of tickets to issue for a single order
// item.  Attendees holds one entry per ticket; entries with no email
// fall back to the buyer's details.  SeatIDs is parallel to Attendees
// for seated batches and nil for unseated ones.
type IssueSpec struct {
	OrderID     uint64
	OrderItemID uint64
	EventID     uint64
	TypeID      uint64
	CustomerID  uint64
	BuyerEmail  string
	Attendees   []model.Attendee
	SeatIDs     []uint64
}

// IssueBatchTx creates one pending ticket per attendee inside the
// caller's transaction, each with a freshly generated unique code.
// Any failure leaves the transaction poisoned for rollback; nothing is
// issued partially.
func (s *TicketStore) IssueBatchTx(ctx context.Context, tx *sql.Tx, spec IssueSpec) ([]model.Ticket, error) {
	issued := make([]model.Ticket, 0, len(spec.Attendees))
	for i, att := range spec.Attendees {
		if strings.TrimSpace(att.Email) == "" {
			att.Email = spec.BuyerEmail
		}
		if err := att.Validate(); err != nil {
			return nil, err
		}
		code, err := s.codes.Generate(ctx, func(ctx context.Context, c string) (bool, error) {
			return s.tickets.CodeExistsTx(ctx, tx, c)
		})
		if err != nil {
			return nil, err
		}
		t := model.Ticket{
			OrderID:     spec.OrderID,
			OrderItemID: spec.OrderItemID,
			EventID:     spec.EventID,
			TypeID:      spec.TypeID,
			Code:        code,
			CustomerID:  spec.CustomerID,
			BuyerEmail:  spec.BuyerEmail,
			FirstName:   att.FirstName,
			LastName:    att.LastName,
			Email:       att.Email,
			Status:      model.TicketStatusPending,
		}
		if spec.SeatIDs != nil {
			seatID := spec.SeatIDs[i]
			t.SeatID = &seatID
		}
		if err := s.tickets.CreateTx(ctx, tx, &t); err != nil {
			return nil, err
		}
		issued = append(issued, t)
	}
	return issued, nil
}

// Get retrieves a ticket by id.
func (s *TicketStore) Get(ctx context.Context, id uint64) (*model.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// GetByCode retrieves a ticket by its unique code.
func (s *TicketStore) GetByCode(ctx context.Context, code string) (*model.Ticket, error) {
	return s.tickets.GetByCode(ctx, code)
}

// List returns tickets matching the filter along with the unpaginated
// total.
func (s *TicketStore) List(ctx context.Context, f repository.TicketFilter) ([]model.Ticket, uint32, error) {
	items, err := s.tickets.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.tickets.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Stats summarizes attendance for an event.
func (s *TicketStore) Stats(ctx context.Context, eventID uint64) (repository.EventStats, error) {
	return s.tickets.StatsByEvent(ctx, eventID)
}

// Export returns all tickets of an event joined with seat positions.
func (s *TicketStore) Export(ctx context.Context, eventID uint64) ([]repository.ExportRow, error) {
	return s.tickets.ExportByEvent(ctx, eventID)
}

// Cancel voids a single ticket and frees its seat.  Cancelling an
// already cancelled ticket is a no-op; the bool reports whether this
// call did the cancelling.
func (s *TicketStore) Cancel(ctx context.Context, id uint64) (*model.Ticket, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	t, err := s.tickets.GetForUpdateTx(ctx, tx, id, "")
	if err != nil {
		return nil, false, err
	}
	if t.Status == model.TicketStatusCancelled {
		if err := tx.Commit(); err != nil {
			return nil, false, err
		}
		committed = true
		return t, false, nil
	}
	if err := s.cancelOneTx(ctx, tx, t); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	committed = true
	return t, true, nil
}

// cancelOneTx voids one non-cancelled ticket in the caller's
// transaction and releases its seat when it had one.
func (s *TicketStore) cancelOneTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	if _, err := s.tickets.CancelTx(ctx, tx, t.ID); err != nil {
		return err
	}
	if t.SeatID != nil {
		if _, err := s.seats.ReleaseSoldTx(ctx, tx, *t.SeatID); err != nil {
			return err
		}
	}
	t.Status = model.TicketStatusCancelled
	return nil
}

// CancelOrderTx voids every remaining ticket of an order inside the
// caller's transaction and returns the tickets cancelled by this call.
// Tickets already cancelled are skipped, which keeps order
// cancellation idempotent.
func (s *TicketStore) CancelOrderTx(ctx context.Context, tx *sql.Tx, orderID uint64) ([]model.Ticket, error) {
	all, err := s.tickets.ListByOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	cancelled := make([]model.Ticket, 0, len(all))
	for i := range all {
		t := &all[i]
		if t.Status == model.TicketStatusCancelled {
			continue
		}
		if err := s.cancelOneTx(ctx, tx, t); err != nil {
			return nil, err
		}
		cancelled = append(cancelled, *t)
	}
	return cancelled, nil
}
