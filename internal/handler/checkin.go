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
	"github.com/shopkit/ticket-seller/internal/queue"
	"github.com/shopkit/ticket-seller/internal/repository"
)

// CheckinHandler serves the door scanner: admitting tickets and the
// live attendance view. All routes here require a staff JWT.
type CheckinHandler struct {
	Checkins *inventory.CheckinCoordinator
	Store    *inventory.TicketStore
	Audits   *repository.CheckInRepo
}

// NewCheckinHandler constructs a CheckinHandler.
func NewCheckinHandler(checkins *inventory.CheckinCoordinator, store *inventory.TicketStore, audits *repository.CheckInRepo) *CheckinHandler {
	if checkins == nil || store == nil || audits == nil {
		panic("nil dependency passed to NewCheckinHandler")
	}
	return &CheckinHandler{Checkins: checkins, Store: store, Audits: audits}
}

type checkInReq struct {
	TicketID  uint64 `json:"ticket_id"`
	Code      string `json:"code"`
	StationID string `json:"station_id"`
	Notes     string `json:"notes"`
	Location  string `json:"location"`
}

// CheckIn handles POST /v1/check-ins.  The scanner sends either the
// ticket id or the printed code.  A repeat scan answers 409 and tells
// the operator when and by whom the ticket was first admitted, so the
// door staff can spot a duplicated ticket on the spot.
func (h *CheckinHandler) CheckIn(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	var body checkInReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TicketID == 0 && body.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_id or code is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, audit, err := h.Checkins.CheckIn(ctx, inventory.CheckInRequest{
		TicketID:  body.TicketID,
		Code:      body.Code,
		ByUserID:  userID,
		StationID: body.StationID,
		Notes:     body.Notes,
		Location:  body.Location,
	})
	if err != nil {
		var dup *inventory.AlreadyCheckedInError
		var gone *inventory.TicketCancelledError
		switch {
		case errors.Is(err, repository.ErrTicketNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		case errors.As(err, &dup):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":         "already checked in",
				"ticket_id":     dup.TicketID,
				"checked_in_at": dup.CheckedInAt.UTC().Format(time.RFC3339),
				"checked_in_by": dup.CheckedInBy,
			})
		case errors.As(err, &gone):
			return c.JSON(http.StatusGone, echo.Map{
				"error":     "ticket cancelled",
				"ticket_id": gone.TicketID,
			})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "already checked in"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-in failed"})
	}

	publishTicketEvents(queue.TicketCheckedInQueue, []model.Ticket{*t})
	return c.JSON(http.StatusOK, echo.Map{
		"ticket":      toTicketPart(t),
		"check_in_id": audit.ID,
		"checked_at":  audit.CheckInTime.UTC().Format(time.RFC3339),
	})
}

// Stats handles GET /v1/events/:id/check-ins/stats, the live
// attendance counter shown on the scanner dashboard.
func (h *CheckinHandler) Stats(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Store.Stats(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	percent := float64(0)
	if stats.Total > 0 {
		percent = float64(stats.CheckedIn) / float64(stats.Total) * 100
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event_id":   eventID,
		"total":      stats.Total,
		"checked_in": stats.CheckedIn,
		"percent":    percent,
	})
}

// List handles GET /v1/events/:id/check-ins, newest scans first.
func (h *CheckinHandler) List(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Audits.ListByEvent(ctx, eventID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]checkInPart, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		out = append(out, checkInPart{
			ID:          r.ID,
			TicketID:    r.TicketID,
			CheckedInBy: r.CheckedInBy,
			CheckedAt:   r.CheckInTime.UTC().Format(time.RFC3339),
			StationID:   r.StationID,
			Notes:       r.Notes,
			Location:    r.Location,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"check_ins": out})
}

type checkInPart struct {
	ID          uint64 `json:"id"`
	TicketID    uint64 `json:"ticket_id"`
	CheckedInBy uint64 `json:"checked_in_by"`
	CheckedAt   string `json:"checked_at"`
	StationID   string `json:"station_id,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Location    string `json:"location,omitempty"`
}
