package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shopkit/ticket-seller/internal/inventory"
	"github.com/shopkit/ticket-seller/internal/model"
	"github.com/shopkit/ticket-seller/internal/queue"
	"github.com/shopkit/ticket-seller/internal/repository"
	queue_publisher "github.com/shopkit/ticket-seller/internal/service"
)

// InventoryHandler exposes the hold and order surface consumed by the
// checkout collaborator.  Holds and finalization run inside the
// inventory engine's transactions; this layer only translates HTTP to
// engine calls and engine errors to status codes.
type InventoryHandler struct {
	Engine *inventory.Engine
	Events *repository.EventRepo
}

// NewInventoryHandler constructs an InventoryHandler.
func NewInventoryHandler(engine *inventory.Engine, events *repository.EventRepo) *InventoryHandler {
	if engine == nil || events == nil {
		panic("nil dependency passed to NewInventoryHandler")
	}
	return &InventoryHandler{Engine: engine, Events: events}
}

// publishTicketEvents fans the given tickets out to a lifecycle queue.
// Publishing is best-effort and detached from the request: the tickets
// are already committed, so a broker outage must not fail the response.
func publishTicketEvents(queueName string, tickets []model.Ticket) {
	now := time.Now().UTC().Format(time.RFC3339)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, t := range tickets {
			_ = queue_publisher.PublishTicketEvent(ctx, queueName, queue.TicketEvent{
				TicketID:   t.ID,
				OrderID:    t.OrderID,
				EventID:    t.EventID,
				TypeID:     t.TypeID,
				Code:       t.Code,
				SeatID:     t.SeatID,
				FirstName:  t.FirstName,
				LastName:   t.LastName,
				Email:      t.Email,
				Status:     t.Status,
				OccurredAt: now,
			})
		}
	}()
}

// holdReq is the body of POST /v1/events/:id/holds.  Seated events take
// seat_ids; unseated events take type_id and quantity.
type holdReq struct {
	SeatIDs  []uint64 `json:"seat_ids"`
	TypeID   uint64   `json:"type_id"`
	Quantity uint32   `json:"quantity"`
}

// HoldInventory handles POST /v1/events/:id/holds.  It places an
// all-or-nothing hold and returns the token plus expiry.  Seat
// conflicts come back as 409 with the blocking seat IDs; capacity
// shortfalls as 409 with the remaining count.
func (h *InventoryHandler) HoldInventory(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body holdReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if len(body.SeatIDs) > 0 {
		if !ev.Seated() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "event has no seating chart"})
		}
		res, err := h.Engine.Ledger().Hold(ctx, *ev.ChartID, body.SeatIDs)
		if err != nil {
			var unavail *inventory.SeatsUnavailableError
			if errors.As(err, &unavail) {
				return c.JSON(http.StatusConflict, echo.Map{
					"error":             "seats unavailable",
					"unavailable_seats": unavail.SeatIDs,
				})
			}
			if errors.Is(err, inventory.ErrNothingRequested) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold failed"})
		}
		return c.JSON(http.StatusCreated, res)
	}

	hold, err := h.Engine.Capacity().Hold(ctx, eventID, body.TypeID, body.Quantity)
	if err != nil {
		var short *inventory.InsufficientCapacityError
		switch {
		case errors.As(err, &short):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":     "insufficient capacity",
				"requested": short.Requested,
				"available": short.Available,
			})
		case errors.Is(err, inventory.ErrNothingRequested):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity is required"})
		case errors.Is(err, inventory.ErrNotOnSale):
			return c.JSON(http.StatusConflict, echo.Map{"error": "not on sale"})
		case errors.Is(err, repository.ErrTicketTypeNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"hold_token": hold.HoldToken,
		"event_id":   hold.EventID,
		"type_id":    hold.TypeID,
		"quantity":   hold.Quantity,
		"expires_at": hold.ExpiresAt,
	})
}

// ReleaseHold handles DELETE /v1/holds/:token.  The token may belong to
// either ledger; both releases are idempotent, so an unknown or
// already-released token still answers 200 with zeroed counts.
func (h *InventoryHandler) ReleaseHold(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	seats, err := h.Engine.Ledger().Release(ctx, token)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
	}
	units, err := h.Engine.Capacity().Release(ctx, token)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"seats_released": seats,
		"units_released": units,
	})
}

// FinalizeOrder handles POST /v1/orders/:id/finalize.  The body carries
// buyer identity and the order lines with their hold tokens.  On
// success all tickets are issued in one transaction and ticket.issued
// events are published.
func (h *InventoryHandler) FinalizeOrder(c echo.Context) error {
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var req inventory.FinalizeOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.OrderID = orderID

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	tickets, err := h.Engine.FinalizeOrder(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, inventory.ErrNothingRequested):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "order has no lines"})
		case errors.Is(err, model.ErrAttendeeEmailRequired):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "attendee or buyer email is required"})
		case errors.Is(err, inventory.ErrHoldNotFound):
			return c.JSON(http.StatusConflict, echo.Map{"error": "hold not found or expired"})
		case errors.Is(err, inventory.ErrCodeSpaceExhausted):
			return c.JSON(http.StatusConflict, echo.Map{"error": "could not allocate ticket codes"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "hold does not match order line"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "finalize failed"})
	}
	publishTicketEvents(queue.TicketIssuedQueue, tickets)
	return c.JSON(http.StatusCreated, echo.Map{
		"order_id": orderID,
		"tickets":  toTicketParts(tickets),
	})
}

// CancelOrder handles POST /v1/orders/:id/cancel.  Cancelling an order
// twice is safe; the second call reports zero tickets cancelled.
func (h *InventoryHandler) CancelOrder(c echo.Context) error {
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	cancelled, err := h.Engine.CancelOrder(ctx, orderID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	publishTicketEvents(queue.TicketCancelledQueue, cancelled)
	return c.JSON(http.StatusOK, echo.Map{
		"order_id":          orderID,
		"tickets_cancelled": len(cancelled),
	})
}

// Sweep handles POST /v1/internal/sweep, forcing one reclamation pass
// outside the scheduler's cadence.
func (h *InventoryHandler) Sweep(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()
	res, err := h.Engine.SweepExpired(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sweep failed"})
	}
	return c.JSON(http.StatusOK, res)
}
