// Package steps binds the booking feature phrases to Go step functions.
package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cucumber/godog"

	"bookerbdd/internal/auth"
	"bookerbdd/internal/client"
	"bookerbdd/internal/expect"
	"bookerbdd/internal/scenario"
	"bookerbdd/pkg/logging"
)

// BookingAPI is the part of the HTTP adapter the steps use.
type BookingAPI interface {
	Ping(ctx context.Context) (*client.Response, error)
	CreateBooking(ctx context.Context, b client.Booking) (*client.Response, error)
	ListBookings(ctx context.Context, f client.Filter) (*client.Response, error)
	GetBooking(ctx context.Context, id int) (*client.Response, error)
	UpdateBooking(ctx context.Context, id int, b client.Booking, token string) (*client.Response, error)
	PatchBooking(ctx context.Context, id int, p client.BookingPatch, token string) (*client.Response, error)
	DeleteBooking(ctx context.Context, id int, token string) (*client.Response, error)
}

// Deps are shared by every scenario of a run.
type Deps struct {
	API    BookingAPI
	Tokens *auth.TokenCache
	Store  *scenario.Store
	// Now decides whether a booking has ended; time.Now when nil.
	Now func() time.Time
	// ScanLimit caps how many bookings one step reads while searching.
	ScanLimit int
}

// bookingSteps holds one scenario's state. Anything that must outlive the
// scenario goes to the Store.
type bookingSteps struct {
	deps Deps

	resp          *client.Response
	expiredID     int
	filter        client.Filter
	expectedNames client.BookingPatch
}

// Register binds every booking phrase on sc. Call it once per scenario.
func Register(sc *godog.ScenarioContext, deps Deps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ScanLimit <= 0 {
		deps.ScanLimit = 50
	}
	s := &bookingSteps{deps: deps}

	sc.Step(`^the booking API is available$`, s.theBookingAPIIsAvailable)
	sc.Step(`^I should receive a successful health check response$`, s.iShouldReceiveASuccessfulHealthCheckResponse)

	sc.Step(`^I create a booking with the following details$`, s.iCreateABookingWithTheFollowingDetails)
	sc.Step(`^the booking should be created successfully$`, s.theBookingShouldBeCreatedSuccessfully)
	sc.Step(`^I create a booking with the following invalid details$`, s.iCreateABookingWithTheFollowingInvalidDetails)
	sc.Step(`^I should receive a client error response$`, s.iShouldReceiveAClientErrorResponse)

	sc.Step(`^I request all booking IDs$`, s.iRequestAllBookingIDs)
	sc.Step(`^I should receive a list of booking IDs$`, s.iShouldReceiveAListOfBookingIDs)
	sc.Step(`^I request booking IDs filtered by$`, s.iRequestBookingIDsFilteredBy)
	sc.Step(`^I should receive a filtered list of booking IDs$`, s.iShouldReceiveAFilteredListOfBookingIDs)
	sc.Step(`^the filtered list should contain the created booking$`, s.theFilteredListShouldContainTheCreatedBooking)
	sc.Step(`^every booking in the filtered list should match the filter$`, s.everyBookingInTheFilteredListShouldMatchTheFilter)

	sc.Step(`^I retrieve the booking details with a previously created booking ID$`, s.iRetrieveTheBookingDetailsWithAPreviouslyCreatedBookingID)
	sc.Step(`^I should see the correct booking details$`, s.iShouldSeeTheCorrectBookingDetails)

	sc.Step(`^an expired booking is available$`, s.anExpiredBookingIsAvailable)
	sc.Step(`^I try to update the expired booking with the following details$`, s.iTryToUpdateTheExpiredBookingWithTheFollowingDetails)
	sc.Step(`^the update should be rejected$`, s.theUpdateShouldBeRejected)

	sc.Step(`^a valid booking is available$`, s.aValidBookingIsAvailable)
	sc.Step(`^I partially update the created booking with the following details$`, s.iPartiallyUpdateTheCreatedBookingWithTheFollowingDetails)
	sc.Step(`^the booking should be partially updated successfully$`, s.theBookingShouldBePartiallyUpdatedSuccessfully)
	sc.Step(`^the other booking fields should be unchanged$`, s.theOtherBookingFieldsShouldBeUnchanged)

	sc.Step(`^I delete the created booking$`, s.iDeleteTheCreatedBooking)
	sc.Step(`^the booking should be deleted successfully$`, s.theBookingShouldBeDeletedSuccessfully)
	sc.Step(`^a previously deleted booking ID is available$`, s.aPreviouslyDeletedBookingIDIsAvailable)
	sc.Step(`^I try to delete the non-existing booking$`, s.iTryToDeleteTheNonExistingBooking)
	sc.Step(`^the deletion attempt should fail with a not found error$`, s.theDeletionAttemptShouldFailWithANotFoundError)

	sc.Step(`^the authentication service should have been called at most once$`, s.theAuthenticationServiceShouldHaveBeenCalledAtMostOnce)
}

func (s *bookingSteps) lastResponse() (*client.Response, error) {
	if s.resp == nil {
		return nil, fmt.Errorf("no response recorded in this scenario; a request step must run first")
	}
	return s.resp, nil
}

// Health check

func (s *bookingSteps) theBookingAPIIsAvailable(ctx context.Context) error {
	logging.Info("Steps", "Checking if the API is available")
	resp, err := s.deps.API.Ping(ctx)
	if err != nil {
		return err
	}
	s.resp = resp
	logging.Info("Steps", "Health check status code: %d", resp.StatusCode)
	return nil
}

func (s *bookingSteps) iShouldReceiveASuccessfulHealthCheckResponse() error {
	resp, err := s.lastResponse()
	if err != nil {
		return err
	}
	if err := expect.Status(resp, http.StatusCreated); err != nil {
		return fmt.Errorf("API is not available: %w", err)
	}
	return nil
}

// Creation

func (s *bookingSteps) iCreateABookingWithTheFollowingDetails(ctx context.Context, table *godog.Table) error {
	b, err := bookingFromTable(table)
	if err != nil {
		return err
	}
	resp, err := s.deps.API.CreateBooking(ctx, b)
	if err != nil {
		return err
	}
	s.resp = resp
	if resp.StatusCode != http.StatusOK {
		// The Then step reports the status.
		return nil
	}

	var created struct {
		BookingID *int `json:"bookingid"`
	}
	if err := resp.Decode(&created); err != nil {
		return err
	}
	// Later scenarios must see a missing prerequisite, not booking 0.
	if created.BookingID == nil || *created.BookingID <= 0 {
		return &expect.MismatchError{Field: "bookingid", Expected: "positive id", Actual: resp.Preview()}
	}
	s.deps.Store.SetBookingID(*created.BookingID)
	s.deps.Store.SetCreatedBooking(b)
	return nil
}

func (s *bookingSteps) theBookingShouldBeCreatedSuccessfully() error {
	resp, err := s.lastResponse()
	if err != nil {
		return err
	}
	if err := expect.Status(resp, http.StatusOK); err != nil {
		return fmt.Errorf("booking creation failed: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := resp.Decode(&raw); err != nil {
		return err
	}
	if _, ok := raw["bookingid"]; !ok {
		return &expect.MismatchError{Field: "bookingid", Expected: "present", Actual: "absent"}
	}

	id, err := s.deps.Store.BookingID()
	if err != nil {
		return err
	}
	logging.Info("Steps", "The booking has been created with ID %d", id)
	return nil
}

func (s *bookingSteps) iCreateABookingWithTheFollowingInvalidDetails(ctx context.Context, table *godog.Table) error {
	b, err := bookingFromTable(table)
	if err != nil {
		return err
	}
	resp, err := s.deps.API.CreateBooking(ctx, b)
	if err != nil {
		return err
	}
	s.resp = resp
	return nil
}

func (s *bookingSteps) iShouldReceiveAClientErrorResponse() error {
	resp, err := s.lastResponse()
	if err != nil {
		return err
	}
	if err := expect.ClientError(resp); err != nil {
		return fmt.Errorf("booking must not be created without required fields: %w", err)
	}
	return nil
}

// Listing

func (s *bookingSteps) iRequestAllBookingIDs(ctx context.Context) error {
	resp, err := s.deps.API.ListBookings(ctx, client.Filter{})
	if err != nil {
		return err
	}
	s.resp = resp
	return nil
}

func (s *bookingSteps) decodeRefs() ([]client.BookingRef, error) {
	resp, err := s.lastResponse()
	if err != nil {
		return nil, err
	}
	if err := expect.Status(resp, http.StatusOK); err != nil {
		return nil, err
	}
	var refs []client.BookingRef
	if err := resp.Decode(&refs); err != nil {
		return nil, fmt.Errorf("booking IDs not returned as a list: %w", err)
	}
	return refs, nil
}

func (s *bookingSteps) iShouldReceiveAListOfBookingIDs() error {
	refs, err := s.decodeRefs()
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return &expect.MismatchError{Field: "bookings", Expected: "at least one id", Actual: "empty list"}
	}
	logging.Debug("Steps", "Received %d booking IDs", len(refs))
	return nil
}

func (s *bookingSteps) iRequestBookingIDsFilteredBy(ctx context.Context, table *godog.Table) error {
	first, last, err := namesFromTable(table)
	if err != nil {
		return err
	}
	s.filter = client.Filter{Firstname: first, Lastname: last}
	resp, err := s.deps.API.ListBookings(ctx, s.filter)
	if err != nil {
		return err
	}
	s.resp = resp
	return nil
}

func (s *bookingSteps) iShouldReceiveAFilteredListOfBookingIDs() error {
	refs, err := s.decodeRefs()
	if err != nil {
		return err
	}
	logging.Debug("Steps", "Filtered booking IDs: %v", refs)
	return nil
}

func (s *bookingSteps) theFilteredListShouldContainTheCreatedBooking() error {
	id, err := s.deps.Store.BookingID()
	if err != nil {
		return err
	}
	refs, err := s.decodeRefs()
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if ref.BookingID == id {
			return nil
		}
	}
	return &expect.MismatchError{Field: "bookingid", Expected: fmt.Sprintf("list containing %d", id), Actual: refs}
}

func (s *bookingSteps) everyBookingInTheFilteredListShouldMatchTheFilter(ctx context.Context) error {
	refs, err := s.decodeRefs()
	if err != nil {
		return err
	}
	if len(refs) > s.deps.ScanLimit {
		logging.Info("Steps", "Checking the first %d of %d filtered bookings", s.deps.ScanLimit, len(refs))
		refs = refs[:s.deps.ScanLimit]
	}

	for _, ref := range refs {
		resp, err := s.deps.API.GetBooking(ctx, ref.BookingID)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusNotFound {
			// Shared deployments delete bookings between list and read.
			logging.Debug("Steps", "Booking %d disappeared before it could be read", ref.BookingID)
			continue
		}
		if err := expect.Status(resp, http.StatusOK); err != nil {
			return fmt.Errorf("reading booking %d: %w", ref.BookingID, err)
		}
		var b client.Booking
		if err := resp.Decode(&b); err != nil {
			return err
		}
		if s.filter.Firstname != "" {
			if err := expect.Equal(fmt.Sprintf("booking %d firstname", ref.BookingID), s.filter.Firstname, b.Firstname); err != nil {
				return err
			}
		}
		if s.filter.Lastname != "" {
			if err := expect.Equal(fmt.Sprintf("booking %d lastname", ref.BookingID), s.filter.Lastname, b.Lastname); err != nil {
				return err
			}
		}
	}
	return nil
}

// Reading

func (s *bookingSteps) iRetrieveTheBookingDetailsWithAPreviouslyCreatedBookingID(ctx context.Context) error {
	id, err := s.deps.Store.BookingID()
	if err != nil {
		return err
	}
	resp, err := s.deps.API.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	s.resp = resp
	return nil
}

// iShouldSeeTheCorrectBookingDetails compares the stored booking with the
// payload submitted at creation, which the feature table fixes to known values.
func (s *bookingSteps) iShouldSeeTheCorrectBookingDetails() error {
	resp, err := s.lastResponse()
	if err != nil {
		return err
	}
	if err := expect.Status(resp, http.StatusOK); err != nil {
		return err
	}
	want, err := s.deps.Store.CreatedBooking()
	if err != nil {
		return err
	}
	var got client.Booking
	if err := resp.Decode(&got); err != nil {
		return err
	}
	if err := expect.BookingMatches(want, got); err != nil {
		return err
	}

	id, _ := s.deps.Store.BookingID()
	logging.Info("Steps", "Retrieved booking %d: %+v", id, got)
	return nil
}

// Updating an expired booking

func (s *bookingSteps) anExpiredBookingIsAvailable(ctx context.Context) error {
	resp, err := s.deps.API.ListBookings(ctx, client.Filter{})
	if err != nil {
		return err
	}
	if err := expect.Status(resp, http.StatusOK); err != nil {
		return fmt.Errorf("failed to retrieve booking IDs: %w", err)
	}
	var refs []client.BookingRef
	if err := resp.Decode(&refs); err != nil {
		return err
	}

	now := s.deps.Now()
	scanned := 0
	for _, ref := range refs {
		if scanned == s.deps.ScanLimit {
			break
		}
		scanned++

		detail, err := s.deps.API.GetBooking(ctx, ref.BookingID)
		if err != nil {
			return err
		}
		if detail.StatusCode != http.StatusOK {
			continue
		}
		var b client.Booking
		if err := detail.Decode(&b); err != nil {
			continue
		}
		checkout, err := b.BookingDates.CheckoutTime()
		if err != nil {
			continue
		}
		if checkout.Before(now) {
			s.expiredID = ref.BookingID
			logging.Info("Steps", "Found expired booking %d: %+v", ref.BookingID, b)
			return nil
		}
	}
	return fmt.Errorf("no expired booking found among the first %d bookings", scanned)
}

func (s *bookingSteps) iTryToUpdateTheExpiredBookingWithTheFollowingDetails(ctx context.Context, table *godog.Table) error {
	if s.expiredID == 0 {
		return &scenario.MissingError{Key: "expired_booking_id", Hint: "no expired booking selected in this scenario"}
	}
	b, err := bookingFromTable(table)
	if err != nil {
		return err
	}
	token, err := s.deps.Tokens.Token(ctx)
	if err != nil {
		return err
	}
	resp, err := s.deps.API.UpdateBooking(ctx, s.expiredID, b, token)
	if err != nil {
		return err
	}
	s.resp = resp
	return nil
}

func (s *bookingSteps) theUpdateShouldBeRejected() error {
	resp, err := s.lastResponse()
	if err != nil {
		return err
	}
	if err := expect.Status(resp, http.StatusBadRequest, http.StatusForbidden); err != nil {
		return fmt.Errorf("expired booking must not be updatable: %w", err)
	}
	return nil
}

// Partial update

func (s *bookingSteps) aValidBookingIsAvailable() error {
	id, err := s.deps.Store.BookingID()
	if err != nil {
		return err
	}
	logging.Info("Steps", "Using the existing valid booking with ID %d", id)
	return nil
}

func (s *bookingSteps) iPartiallyUpdateTheCreatedBookingWithTheFollowingDetails(ctx context.Context, table *godog.Table) error {
	first, last, err := namesFromTable(table)
	if err != nil {
		return err
	}
	id, err := s.deps.Store.BookingID()
	if err != nil {
		return err
	}
	token, err := s.deps.Tokens.Token(ctx)
	if err != nil {
		return err
	}

	s.expectedNames = client.BookingPatch{Firstname: &first, Lastname: &last}
	resp, err := s.deps.API.PatchBooking(ctx, id, s.expectedNames, token)
	if err != nil {
		return err
	}
	s.resp = resp
	return nil
}

func (s *bookingSteps) theBookingShouldBePartiallyUpdatedSuccessfully() error {
	resp, err := s.lastResponse()
	if err != nil {
		return err
	}
	if err := expect.Status(resp, http.StatusOK); err != nil {
		return fmt.Errorf("partial booking update failed: %w", err)
	}
	if s.expectedNames.Firstname == nil || s.expectedNames.Lastname == nil {
		return fmt.Errorf("no partial update was sent in this scenario")
	}

	var updated client.Booking
	if err := resp.Decode(&updated); err != nil {
		return err
	}
	if err := expect.Equal(expect.FieldFirstname, *s.expectedNames.Firstname, updated.Firstname); err != nil {
		return err
	}
	if err := expect.Equal(expect.FieldLastname, *s.expectedNames.Lastname, updated.Lastname); err != nil {
		return err
	}
	logging.Info("Steps", "Updated booking details: %+v", updated)
	return nil
}

func (s *bookingSteps) theOtherBookingFieldsShouldBeUnchanged(ctx context.Context) error {
	id, err := s.deps.Store.BookingID()
	if err != nil {
		return err
	}
	original, err := s.deps.Store.CreatedBooking()
	if err != nil {
		return err
	}

	resp, err := s.deps.API.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if err := expect.Status(resp, http.StatusOK); err != nil {
		return err
	}
	var current client.Booking
	if err := resp.Decode(&current); err != nil {
		return err
	}
	return expect.BookingMatches(original, current,
		expect.FieldTotalPrice,
		expect.FieldDepositPaid,
		expect.FieldCheckin,
		expect.FieldCheckout,
		expect.FieldAdditionalNeeds,
	)
}

// Deletion

func (s *bookingSteps) deleteStoredBooking(ctx context.Context) error {
	id, err := s.deps.Store.BookingID()
	if err != nil {
		return err
	}
	token, err := s.deps.Tokens.Token(ctx)
	if err != nil {
		return err
	}
	resp, err := s.deps.API.DeleteBooking(ctx, id, token)
	if err != nil {
		return err
	}
	s.resp = resp
	return nil
}

func (s *bookingSteps) iDeleteTheCreatedBooking(ctx context.Context) error {
	return s.deleteStoredBooking(ctx)
}

func (s *bookingSteps) theBookingShouldBeDeletedSuccessfully(ctx context.Context) error {
	resp, err := s.lastResponse()
	if err != nil {
		return err
	}
	if err := expect.Status(resp, http.StatusCreated); err != nil {
		return fmt.Errorf("booking deletion failed: %w", err)
	}

	id, err := s.deps.Store.BookingID()
	if err != nil {
		return err
	}
	check, err := s.deps.API.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if err := expect.Status(check, http.StatusNotFound); err != nil {
		return fmt.Errorf("booking %d still exists after deletion: %w", id, err)
	}
	logging.Info("Steps", "Booking with ID %d has been deleted", id)
	return nil
}

func (s *bookingSteps) aPreviouslyDeletedBookingIDIsAvailable() error {
	id, err := s.deps.Store.BookingID()
	if err != nil {
		return err
	}
	logging.Info("Steps", "Attempting to use previously deleted booking ID %d", id)
	return nil
}

func (s *bookingSteps) iTryToDeleteTheNonExistingBooking(ctx context.Context) error {
	return s.deleteStoredBooking(ctx)
}

func (s *bookingSteps) theDeletionAttemptShouldFailWithANotFoundError() error {
	resp, err := s.lastResponse()
	if err != nil {
		return err
	}
	return expect.Status(resp, http.StatusNotFound, http.StatusMethodNotAllowed)
}

// Authentication

func (s *bookingSteps) theAuthenticationServiceShouldHaveBeenCalledAtMostOnce() error {
	if n := s.deps.Tokens.Fetches(); n > 1 {
		return &expect.MismatchError{Field: "authentication calls", Expected: "at most 1", Actual: n}
	}
	return nil
}
