// Package scenario holds the run-scoped state shared between scenarios.
//
// Scenarios in a feature run are deliberately not isolated: a booking created
// by one scenario is read, patched and deleted by later ones. The Store is
// that shared state. It is reset at run start and nowhere else.
package scenario

import (
	"errors"
	"fmt"
	"sync"

	"bookerbdd/internal/client"
)

// ErrMissingPrerequisite marks a step that needs state an earlier step never
// stored.
var ErrMissingPrerequisite = errors.New("missing prerequisite state")

// Key names a value in the Store.
type Key string

const (
	KeyBookingID      Key = "booking_id"
	KeyCreatedBooking Key = "created_booking"
)

// MissingError is returned when a required key is absent.
type MissingError struct {
	Key  Key
	Hint string
}

func (e *MissingError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%v: %s (%s)", ErrMissingPrerequisite, e.Key, e.Hint)
	}
	return fmt.Sprintf("%v: %s", ErrMissingPrerequisite, e.Key)
}

func (e *MissingError) Unwrap() error {
	return ErrMissingPrerequisite
}

// Store is a key-value mapping scoped to one run.
type Store struct {
	mu     sync.RWMutex
	values map[Key]any
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{values: make(map[Key]any)}
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(key Key, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Get returns the value for key and whether it was present.
func (s *Store) Get(key Key) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Len reports how many keys are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Reset removes every value.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[Key]any)
}

// Lookup returns the value for key as a T. An absent key is a *MissingError;
// a value of another type is reported as such.
func Lookup[T any](s *Store, key Key) (T, error) {
	var zero T
	v, ok := s.Get(key)
	if !ok {
		return zero, &MissingError{Key: key, Hint: "no earlier scenario stored it"}
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("stored %s has type %T, want %T", key, v, zero)
	}
	return typed, nil
}

// SetBookingID remembers the id of the booking created in this run.
func (s *Store) SetBookingID(id int) {
	s.Set(KeyBookingID, id)
}

// BookingID returns the id stored by SetBookingID.
func (s *Store) BookingID() (int, error) {
	return Lookup[int](s, KeyBookingID)
}

// SetCreatedBooking remembers the payload submitted at creation.
func (s *Store) SetCreatedBooking(b client.Booking) {
	s.Set(KeyCreatedBooking, b)
}

// CreatedBooking returns the payload stored by SetCreatedBooking.
func (s *Store) CreatedBooking() (client.Booking, error) {
	return Lookup[client.Booking](s, KeyCreatedBooking)
}
