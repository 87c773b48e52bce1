package handler // handler defines http handlers

import (
	"errors"  // errors provides sentinel values used in getUserID
	"strconv" // strconv converts strings to numeric types
	"time"

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/shopkit/ticket-seller/internal/model"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// JWTAuth stores the claim value untyped, so every numeric shape the JSON
// decoder may produce is accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive uint64 path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// ticketPart is the wire shape of a ticket across every endpoint that
// returns one.
type ticketPart struct {
	ID          uint64  `json:"id"`
	OrderID     uint64  `json:"order_id"`
	OrderItemID uint64  `json:"order_item_id"`
	EventID     uint64  `json:"event_id"`
	TypeID      uint64  `json:"type_id"`
	Code        string  `json:"code"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	Status      string  `json:"status"`
	SeatID      *uint64 `json:"seat_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
	CheckedInAt *string `json:"checked_in_at,omitempty"`
	CheckedInBy *uint64 `json:"checked_in_by,omitempty"`
}

func toTicketPart(t *model.Ticket) ticketPart {
	p := ticketPart{
		ID:          t.ID,
		OrderID:     t.OrderID,
		OrderItemID: t.OrderItemID,
		EventID:     t.EventID,
		TypeID:      t.TypeID,
		Code:        t.Code,
		FirstName:   t.FirstName,
		LastName:    t.LastName,
		Email:       t.Email,
		Status:      t.Status,
		SeatID:      t.SeatID,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		CheckedInBy: t.CheckedInBy,
	}
	if t.CheckedInAt != nil {
		at := t.CheckedInAt.UTC().Format(time.RFC3339)
		p.CheckedInAt = &at
	}
	return p
}

func toTicketParts(ts []model.Ticket) []ticketPart {
	out := make([]ticketPart, 0, len(ts))
	for i := range ts {
		out = append(out, toTicketPart(&ts[i]))
	}
	return out
}
