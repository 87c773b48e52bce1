package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shopkit/ticket-seller/internal/config"
	"github.com/shopkit/ticket-seller/internal/model"
	"github.com/shopkit/ticket-seller/internal/repository"
)

// AdminHandler carries the manager-only setup surface: creating
// events, ticket types, seating charts and staff accounts.  Everything
// here sits behind RequireRole(MANAGER).
type AdminHandler struct {
	Cfg    *config.Config
	Events *repository.EventRepo
	Types  *repository.TicketTypeRepo
	Charts *repository.ChartRepo
	Seats  *repository.SeatRepo
	Users  *repository.UserRepo
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(cfg *config.Config, events *repository.EventRepo, types *repository.TicketTypeRepo, charts *repository.ChartRepo, seats *repository.SeatRepo, users *repository.UserRepo) *AdminHandler {
	if cfg == nil || events == nil || types == nil || charts == nil || seats == nil || users == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Cfg: cfg, Events: events, Types: types, Charts: charts, Seats: seats, Users: users}
}

type createEventReq struct {
	Name      string  `json:"name"`
	StartsAt  string  `json:"starts_at"`
	EndsAt    string  `json:"ends_at"`
	VenueName string  `json:"venue_name"`
	Capacity  uint32  `json:"capacity"`
	ChartID   *uint64 `json:"chart_id"`
}

// CreateEvent handles POST /v1/admin/events.  Events start as drafts
// and stay invisible to the public surface until published.
func (h *AdminHandler) CreateEvent(c echo.Context) error {
	var body createEventReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	startsAt, err := time.Parse(time.RFC3339, body.StartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
	}
	endsAt, err := time.Parse(time.RFC3339, body.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be RFC3339"})
	}
	ev, err := model.NewEvent(strings.TrimSpace(body.Name), startsAt, endsAt, body.Capacity)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ev.VenueName = strings.TrimSpace(body.VenueName)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if body.ChartID != nil {
		if _, err := h.Charts.GetChart(ctx, *body.ChartID); err != nil {
			if errors.Is(err, repository.ErrChartNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "chart not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		ev.ChartID = body.ChartID
	}

	if err := h.Events.Create(ctx, ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, toEventPart(ev))
}

// UpdateEventStatus handles PATCH /v1/admin/events/:id/status, moving
// an event between draft, published and cancelled.
func (h *AdminHandler) UpdateEventStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	switch body.Status {
	case model.EventStatusDraft, model.EventStatusPublished, model.EventStatusCancelled:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Events.UpdateStatus(ctx, id, body.Status); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": body.Status})
}

type createTypeReq struct {
	Name       string  `json:"name"`
	PriceCents uint32  `json:"price_cents"`
	Capacity   *uint32 `json:"capacity"`
	SaleStart  *string `json:"sale_start"`
	SaleEnd    *string `json:"sale_end"`
}

// CreateTicketType handles POST /v1/admin/events/:id/types.
func (h *AdminHandler) CreateTicketType(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body createTypeReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	t := model.TicketType{
		EventID:    eventID,
		Name:       strings.TrimSpace(body.Name),
		PriceCents: body.PriceCents,
		Capacity:   body.Capacity,
	}
	if body.SaleStart != nil {
		ts, err := time.Parse(time.RFC3339, *body.SaleStart)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "sale_start must be RFC3339"})
		}
		t.SaleStart = &ts
	}
	if body.SaleEnd != nil {
		ts, err := time.Parse(time.RFC3339, *body.SaleEnd)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "sale_end must be RFC3339"})
		}
		t.SaleEnd = &ts
	}
	if t.SaleStart != nil && t.SaleEnd != nil && !t.SaleEnd.After(*t.SaleStart) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sale_end must be after sale_start"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.Types.Create(ctx, &t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": t.ID, "event_id": eventID, "name": t.Name})
}

// chartSectionReq describes one section of a new chart as a rectangular
// row/seat grid, the common case for general admission blocks and
// bleachers.  Irregular layouts are built by posting several sections.
type chartSectionReq struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Rows     uint32 `json:"rows"`
	SeatsPer uint32 `json:"seats_per_row"`
}

type createChartReq struct {
	Name     string            `json:"name"`
	VenueID  *uint64           `json:"venue_id"`
	Sections []chartSectionReq `json:"sections"`
}

const maxChartSeats = 50000

// CreateChart handles POST /v1/admin/charts.  The chart, its sections
// and the full seat grid are created in one request; rows are labelled
// A, B, ... AA, AB as far as needed.
func (h *AdminHandler) CreateChart(c echo.Context) error {
	var body createChartReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Name) == "" || len(body.Sections) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and sections are required"})
	}
	total := 0
	for _, s := range body.Sections {
		if strings.TrimSpace(s.Name) == "" || s.Rows == 0 || s.SeatsPer == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "each section needs a name, rows and seats_per_row"})
		}
		total += int(s.Rows) * int(s.SeatsPer)
	}
	if total > maxChartSeats {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "chart exceeds the seat limit"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	chart := model.SeatingChart{
		VenueID: body.VenueID,
		Name:    strings.TrimSpace(body.Name),
		Status:  model.ChartStatusActive,
	}
	if err := h.Charts.CreateChart(ctx, &chart); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	created := 0
	for _, sec := range body.Sections {
		s := model.Section{
			ChartID: chart.ID,
			Name:    strings.TrimSpace(sec.Name),
			Label:   strings.TrimSpace(sec.Label),
		}
		if err := h.Charts.CreateSection(ctx, &s); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		seats := make([]model.Seat, 0, int(sec.Rows)*int(sec.SeatsPer))
		for r := uint32(0); r < sec.Rows; r++ {
			row := rowLabel(r)
			for n := uint32(1); n <= sec.SeatsPer; n++ {
				seats = append(seats, model.Seat{
					SectionID:  s.ID,
					ChartID:    chart.ID,
					RowName:    row,
					SeatNumber: strconv.Itoa(int(n)),
				})
			}
		}
		if err := h.Seats.CreateBulk(ctx, seats); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		created += len(seats)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":            chart.ID,
		"name":          chart.Name,
		"sections":      len(body.Sections),
		"seats_created": created,
	})
}

// rowLabel converts a zero-based row index to a spreadsheet-style
// label: 0 -> A, 25 -> Z, 26 -> AA.
func rowLabel(i uint32) string {
	label := ""
	n := int(i) + 1
	for n > 0 {
		n--
		label = string(rune('A'+n%26)) + label
		n /= 26
	}
	return label
}

type createUserReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// CreateUser handles POST /v1/admin/users, registering a scanner or
// manager account.
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var body createUserReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" || len(body.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and a password of at least 8 characters are required"})
	}
	role := body.Role
	if role == "" {
		role = model.RoleStaff
	}
	if role != model.RoleStaff && role != model.RoleManager {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Users.Create(ctx, email, body.Password, role, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "email": email, "role": role})
}
