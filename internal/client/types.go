package client

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by bookingdates.
const DateLayout = "2006-01-02"

// Booking is the booking record as exchanged with the API.
type Booking struct {
	Firstname       string       `json:"firstname"`
	Lastname        string       `json:"lastname"`
	TotalPrice      int          `json:"totalprice"`
	DepositPaid     bool         `json:"depositpaid"`
	BookingDates    BookingDates `json:"bookingdates"`
	AdditionalNeeds string       `json:"additionalneeds,omitempty"`
}

// BookingDates holds check-in and check-out as YYYY-MM-DD strings.
type BookingDates struct {
	Checkin  string `json:"checkin"`
	Checkout string `json:"checkout"`
}

// CheckoutTime parses the checkout date.
func (d BookingDates) CheckoutTime() (time.Time, error) {
	t, err := time.Parse(DateLayout, d.Checkout)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid checkout date %q: %w", d.Checkout, err)
	}
	return t, nil
}

// BookingPatch is a partial update. Nil fields are not sent.
type BookingPatch struct {
	Firstname       *string       `json:"firstname,omitempty"`
	Lastname        *string       `json:"lastname,omitempty"`
	TotalPrice      *int          `json:"totalprice,omitempty"`
	DepositPaid     *bool         `json:"depositpaid,omitempty"`
	BookingDates    *BookingDates `json:"bookingdates,omitempty"`
	AdditionalNeeds *string       `json:"additionalneeds,omitempty"`
}

// CreatedBooking is the body returned by POST /booking.
type CreatedBooking struct {
	BookingID int     `json:"bookingid"`
	Booking   Booking `json:"booking"`
}

// BookingRef is one entry of the GET /booking listing.
type BookingRef struct {
	BookingID int `json:"bookingid"`
}

// Filter narrows GET /booking. Empty fields are not sent.
type Filter struct {
	Firstname string
	Lastname  string
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token  string `json:"token"`
	Reason string `json:"reason"`
}
