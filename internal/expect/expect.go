// Package expect holds the assertion helpers used by step definitions and the
// classification of the failures they produce.
package expect

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/samber/lo"

	"bookerbdd/internal/auth"
	"bookerbdd/internal/client"
	"bookerbdd/internal/scenario"
)

// StatusError is a response whose status is outside the accepted set.
// ExpectedClass, when set, names a status range such as "4xx" and replaces
// Expected in the message.
type StatusError struct {
	Expected      []int
	ExpectedClass string
	Actual        int
	Body          string
}

func (e *StatusError) Error() string {
	want := e.ExpectedClass
	if want == "" {
		want = strings.Join(lo.Map(e.Expected, func(c int, _ int) string { return fmt.Sprint(c) }), " or ")
	}
	if e.Body != "" {
		return fmt.Sprintf("status assertion failed: expected %s, got %d; response: %s", want, e.Actual, e.Body)
	}
	return fmt.Sprintf("status assertion failed: expected %s, got %d", want, e.Actual)
}

// MismatchError is a payload field that differs from its expected value.
type MismatchError struct {
	Field    string
	Expected any
	Actual   any
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("field %q: expected %v, got %v", e.Field, e.Expected, e.Actual)
}

// Status checks resp.StatusCode against the accepted codes.
func Status(resp *client.Response, accepted ...int) error {
	if lo.Contains(accepted, resp.StatusCode) {
		return nil
	}
	return &StatusError{Expected: accepted, Actual: resp.StatusCode, Body: resp.Preview()}
}

// ClientError accepts any 4xx status.
func ClientError(resp *client.Response) error {
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil
	}
	return &StatusError{ExpectedClass: "4xx", Actual: resp.StatusCode, Body: resp.Preview()}
}

// Equal compares one field.
func Equal(field string, expected, actual any) error {
	if reflect.DeepEqual(expected, actual) {
		return nil
	}
	return &MismatchError{Field: field, Expected: expected, Actual: actual}
}

// Booking field names as they appear in the JSON payload.
const (
	FieldFirstname       = "firstname"
	FieldLastname        = "lastname"
	FieldTotalPrice      = "totalprice"
	FieldDepositPaid     = "depositpaid"
	FieldCheckin         = "bookingdates.checkin"
	FieldCheckout        = "bookingdates.checkout"
	FieldAdditionalNeeds = "additionalneeds"
)

// AllBookingFields lists every field BookingMatches knows.
var AllBookingFields = []string{
	FieldFirstname,
	FieldLastname,
	FieldTotalPrice,
	FieldDepositPaid,
	FieldCheckin,
	FieldCheckout,
	FieldAdditionalNeeds,
}

func bookingField(b client.Booking, field string) (any, bool) {
	switch field {
	case FieldFirstname:
		return b.Firstname, true
	case FieldLastname:
		return b.Lastname, true
	case FieldTotalPrice:
		return b.TotalPrice, true
	case FieldDepositPaid:
		return b.DepositPaid, true
	case FieldCheckin:
		return b.BookingDates.Checkin, true
	case FieldCheckout:
		return b.BookingDates.Checkout, true
	case FieldAdditionalNeeds:
		return b.AdditionalNeeds, true
	}
	return nil, false
}

// BookingMatches compares the named fields of two bookings, all fields when
// none are named. Every mismatch is reported.
func BookingMatches(expected, actual client.Booking, fields ...string) error {
	if len(fields) == 0 {
		fields = AllBookingFields
	}
	var errs []error
	for _, f := range fields {
		want, ok := bookingField(expected, f)
		if !ok {
			return fmt.Errorf("unknown booking field %q", f)
		}
		got, _ := bookingField(actual, f)
		if err := Equal(f, want, got); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Kind classifies a step failure.
type Kind string

const (
	KindNone         Kind = ""
	KindPrerequisite Kind = "prerequisite-missing"
	KindStatus       Kind = "unexpected-status"
	KindPayload      Kind = "payload-mismatch"
	KindTransport    Kind = "transport-error"
	KindAuth         Kind = "auth-failed"
	KindOther        Kind = "other"
)

// KindOf classifies err. Transport failures are checked before auth so a
// token fetch that never reached the server reads as a transport error.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var (
		transportErr *client.TransportError
		statusErr    *StatusError
		mismatchErr  *MismatchError
		decodeErr    *client.DecodeError
	)
	switch {
	case errors.Is(err, scenario.ErrMissingPrerequisite):
		return KindPrerequisite
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.Is(err, auth.ErrAuthenticationFailed):
		return KindAuth
	case errors.As(err, &statusErr):
		return KindStatus
	case errors.As(err, &mismatchErr), errors.As(err, &decodeErr):
		return KindPayload
	}
	return KindOther
}
