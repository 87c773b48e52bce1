package handler

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shopkit/ticket-seller/internal/inventory"
	"github.com/shopkit/ticket-seller/internal/model"
	"github.com/shopkit/ticket-seller/internal/queue"
	"github.com/shopkit/ticket-seller/internal/repository"
)

// TicketsHandler serves the back-office ticket views: lookup, listing,
// manual cancellation and the attendee CSV export.
type TicketsHandler struct {
	Store *inventory.TicketStore
}

// NewTicketsHandler constructs a TicketsHandler.
func NewTicketsHandler(store *inventory.TicketStore) *TicketsHandler {
	if store == nil {
		panic("nil store passed to NewTicketsHandler")
	}
	return &TicketsHandler{Store: store}
}

// Get handles GET /v1/tickets/:id.
func (h *TicketsHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toTicketPart(t))
}

// GetByCode handles GET /v1/tickets/code/:code, the lookup used when a
// scanner falls back to manual entry.
func (h *TicketsHandler) GetByCode(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toTicketPart(t))
}

// List handles GET /v1/events/:id/tickets.  Filters arrive as query
// params; unknown sort columns fall back to id order inside the
// repository.
func (h *TicketsHandler) List(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	orderID, _ := strconv.ParseUint(c.QueryParam("order_id"), 10, 64)
	customerID, _ := strconv.ParseUint(c.QueryParam("customer_id"), 10, 64)
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	f := repository.TicketFilter{
		EventID:    eventID,
		OrderID:    orderID,
		CustomerID: customerID,
		Status:     c.QueryParam("status"),
		Search:     c.QueryParam("search"),
		OrderBy:    c.QueryParam("order_by"),
		Desc:       c.QueryParam("desc") == "true",
		Limit:      limit,
		Offset:     offset,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tickets, total, err := h.Store.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"tickets": toTicketParts(tickets),
		"total":   total,
	})
}

// Cancel handles POST /v1/tickets/:id/cancel.  Cancelling frees the
// ticket's seat and publishes a ticket.cancelled event; a repeat call
// is a no-op reported as such.
func (h *TicketsHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, didCancel, err := h.Store.Cancel(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	if didCancel {
		publishTicketEvents(queue.TicketCancelledQueue, []model.Ticket{*t})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"ticket":    toTicketPart(t),
		"cancelled": didCancel,
	})
}

// Export handles GET /v1/events/:id/tickets/export, streaming the
// attendee list as CSV ordered by last name.
func (h *TicketsHandler) Export(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	rows, err := h.Store.Export(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="event-%d-attendees.csv"`, eventID))
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	if err := w.Write([]string{"code", "first_name", "last_name", "email", "status", "order_id", "row", "seat", "checked_in_at"}); err != nil {
		return err
	}
	for _, r := range rows {
		checkedAt := ""
		if r.CheckedInAt.Valid {
			checkedAt = r.CheckedInAt.Time.UTC().Format(time.RFC3339)
		}
		rec := []string{
			r.Code,
			r.FirstName,
			r.LastName,
			r.Email,
			r.Status,
			strconv.FormatUint(r.OrderID, 10),
			r.RowName,
			r.SeatNumber,
			checkedAt,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
