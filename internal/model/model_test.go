package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestSeatEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	available := Seat{Status: SeatStatusAvailable}
	assert.Equal(t, SeatStatusAvailable, available.EffectiveStatus(now))
	assert.False(t, available.HoldExpired(now))

	liveHold := Seat{Status: SeatStatusHeld, HeldUntil: ptrTime(now.Add(5 * time.Minute))}
	assert.Equal(t, SeatStatusHeld, liveHold.EffectiveStatus(now))
	assert.False(t, liveHold.HoldExpired(now))

	lapsed := Seat{Status: SeatStatusHeld, HeldUntil: ptrTime(now.Add(-time.Second))}
	assert.True(t, lapsed.HoldExpired(now))
	assert.Equal(t, SeatStatusAvailable, lapsed.EffectiveStatus(now))

	// Expiry boundary: a hold lapses at exactly held_until.
	boundary := Seat{Status: SeatStatusHeld, HeldUntil: ptrTime(now)}
	assert.True(t, boundary.HoldExpired(now))

	sold := Seat{Status: SeatStatusSold, HeldUntil: ptrTime(now.Add(-time.Hour))}
	assert.False(t, sold.HoldExpired(now))
	assert.Equal(t, SeatStatusSold, sold.EffectiveStatus(now))
}

func TestTicketTypeOnSale(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	open := TicketType{}
	assert.True(t, open.OnSale(now), "no window means always on sale")

	early := TicketType{SaleStart: ptrTime(now.Add(time.Hour))}
	assert.False(t, early.OnSale(now))

	late := TicketType{SaleEnd: ptrTime(now.Add(-time.Hour))}
	assert.False(t, late.OnSale(now))

	within := TicketType{
		SaleStart: ptrTime(now.Add(-time.Hour)),
		SaleEnd:   ptrTime(now.Add(time.Hour)),
	}
	assert.True(t, within.OnSale(now))
}

func TestNewEventValidation(t *testing.T) {
	start := time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)

	ev, err := NewEvent("Summer Night", start, end, 500)
	require.NoError(t, err)
	assert.Equal(t, EventStatusDraft, ev.Status)
	assert.False(t, ev.Seated())

	_, err = NewEvent("", start, end, 500)
	assert.ErrorIs(t, err, ErrEventNameRequired)

	_, err = NewEvent("Summer Night", end, start, 500)
	assert.ErrorIs(t, err, ErrEventWindowInvalid)

	_, err = NewEvent("Summer Night", start, start, 500)
	assert.ErrorIs(t, err, ErrEventWindowInvalid)

	_, err = NewEvent("Summer Night", start, end, 0)
	assert.ErrorIs(t, err, ErrEventZeroCapacity)
}

func TestCapacityHoldExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	live := CapacityHold{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, live.Expired(now))
	lapsed := CapacityHold{ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, lapsed.Expired(now))
}
