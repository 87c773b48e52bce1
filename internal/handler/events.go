package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shopkit/ticket-seller/internal/inventory"
	"github.com/shopkit/ticket-seller/internal/model"
	"github.com/shopkit/ticket-seller/internal/repository"
)

// EventsHandler serves the public catalogue reads: event listings, the
// per-event availability view and the seat map.  These endpoints sit
// behind the response cache, so they deliberately avoid row locks.
type EventsHandler struct {
	Engine *inventory.Engine
	Events *repository.EventRepo
	Types  *repository.TicketTypeRepo
	Charts *repository.ChartRepo
	Seats  *repository.SeatRepo
}

// NewEventsHandler constructs an EventsHandler.
func NewEventsHandler(engine *inventory.Engine, events *repository.EventRepo, types *repository.TicketTypeRepo, charts *repository.ChartRepo, seats *repository.SeatRepo) *EventsHandler {
	if engine == nil || events == nil || types == nil || charts == nil || seats == nil {
		panic("nil dependency passed to NewEventsHandler")
	}
	return &EventsHandler{Engine: engine, Events: events, Types: types, Charts: charts, Seats: seats}
}

type eventPart struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	StartsAt  string  `json:"starts_at"`
	EndsAt    string  `json:"ends_at"`
	VenueName string  `json:"venue_name"`
	Status    string  `json:"status"`
	Capacity  uint32  `json:"capacity"`
	ChartID   *uint64 `json:"chart_id,omitempty"`
}

func toEventPart(e *model.Event) eventPart {
	return eventPart{
		ID:        e.ID,
		Name:      e.Name,
		StartsAt:  e.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:    e.EndsAt.UTC().Format(time.RFC3339),
		VenueName: e.VenueName,
		Status:    e.Status,
		Capacity:  e.Capacity,
		ChartID:   e.ChartID,
	}
}

type typePart struct {
	ID         uint64  `json:"id"`
	Name       string  `json:"name"`
	PriceCents uint32  `json:"price_cents"`
	Capacity   *uint32 `json:"capacity,omitempty"`
	OnSale     bool    `json:"on_sale"`
	Remaining  *uint32 `json:"remaining,omitempty"`
}

// ListEvents handles GET /v1/events with limit/offset paging over
// published events.
func (h *EventsHandler) ListEvents(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.ListPublished(ctx, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]eventPart, 0, len(events))
	for i := range events {
		out = append(out, toEventPart(&events[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}

// GetEvent handles GET /v1/events/:id.  Unpublished events are hidden
// from this surface.  Each ticket type carries its sale-window state;
// unseated events additionally carry the remaining capacity per type,
// seated events carry the free seat count instead.
func (h *EventsHandler) GetEvent(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if ev.Status != model.EventStatusPublished {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}

	types, err := h.Types.ListByEvent(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	now := time.Now().UTC()
	parts := make([]typePart, 0, len(types))
	for i := range types {
		t := &types[i]
		p := typePart{
			ID:         t.ID,
			Name:       t.Name,
			PriceCents: t.PriceCents,
			Capacity:   t.Capacity,
			OnSale:     t.OnSale(now),
		}
		if !ev.Seated() && p.OnSale {
			if remaining, err := h.Engine.Capacity().Availability(ctx, id, t.ID); err == nil {
				p.Remaining = &remaining
			}
		}
		parts = append(parts, p)
	}

	resp := echo.Map{
		"event":        toEventPart(ev),
		"ticket_types": parts,
	}
	if ev.Seated() {
		if free, err := h.Seats.CountByChartStatus(ctx, *ev.ChartID, model.SeatStatusAvailable); err == nil {
			resp["seats_available"] = free
		}
	}
	return c.JSON(http.StatusOK, resp)
}

type seatPart struct {
	ID         uint64 `json:"id"`
	RowName    string `json:"row_name"`
	SeatNumber string `json:"seat_number"`
	Status     string `json:"status"`
}

type sectionPart struct {
	ID    uint64     `json:"id"`
	Name  string     `json:"name"`
	Seats []seatPart `json:"seats"`
}

// GetSeatMap handles GET /v1/events/:id/seats.  Seats are grouped by
// section and report their effective status only; hold tokens and
// expiry times never leave the server.
func (h *EventsHandler) GetSeatMap(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if ev.Status != model.EventStatusPublished || !ev.Seated() {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event has no seating chart"})
	}

	sections, err := h.Charts.ListSections(ctx, *ev.ChartID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.Seats.ListByChart(ctx, *ev.ChartID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	now := time.Now().UTC()
	bySection := make(map[uint64][]seatPart, len(sections))
	for i := range seats {
		s := &seats[i]
		bySection[s.SectionID] = append(bySection[s.SectionID], seatPart{
			ID:         s.ID,
			RowName:    s.RowName,
			SeatNumber: s.SeatNumber,
			Status:     s.EffectiveStatus(now),
		})
	}
	out := make([]sectionPart, 0, len(sections))
	for i := range sections {
		sec := &sections[i]
		out = append(out, sectionPart{
			ID:    sec.ID,
			Name:  sec.Name,
			Seats: bySection[sec.ID],
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event_id": ev.ID,
		"chart_id": *ev.ChartID,
		"sections": out,
	})
}
