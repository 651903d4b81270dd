package scenario

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookerbdd/internal/client"
)

func TestStore_SetOverwrites(t *testing.T) {
	s := NewStore()
	s.Set("color", "red")
	s.Set("color", "blue")

	v, ok := s.Get("color")
	require.True(t, ok)
	assert.Equal(t, "blue", v)
	assert.Equal(t, 1, s.Len())
}

func TestStore_BookingIDMissing(t *testing.T) {
	s := NewStore()

	_, err := s.BookingID()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingPrerequisite))

	var missing *MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, KeyBookingID, missing.Key)
	assert.Contains(t, err.Error(), "booking_id")
}

func TestStore_TypedAccessors(t *testing.T) {
	s := NewStore()
	s.SetBookingID(42)
	b := client.Booking{Firstname: "John", Lastname: "Doe", TotalPrice: 150}
	s.SetCreatedBooking(b)

	id, err := s.BookingID()
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	got, err := s.CreatedBooking()
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestLookup_WrongType(t *testing.T) {
	s := NewStore()
	s.Set(KeyBookingID, "42")

	_, err := s.BookingID()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissingPrerequisite))
	assert.Contains(t, err.Error(), "type string")
}

func TestStore_ResetClearsEverything(t *testing.T) {
	s := NewStore()
	s.SetBookingID(1)
	s.Set("other", true)

	s.Reset()

	assert.Equal(t, 0, s.Len())
	_, err := s.BookingID()
	assert.ErrorIs(t, err, ErrMissingPrerequisite)
}
