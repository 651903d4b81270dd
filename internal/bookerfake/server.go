// Package bookerfake is an in-memory stand-in for the restful-booker API.
//
// It implements exactly the endpoints the feature suite exercises, with the
// status codes the hosted service uses, so the suite can run offline and in
// unit tests. The one deliberate divergence is RejectExpiredUpdates: when set,
// a full update of a booking whose checkout lies in the past is refused.
package bookerfake

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/lo"

	"bookerbdd/internal/client"
	"bookerbdd/pkg/logging"
)

// Options configures a Server.
type Options struct {
	Username string
	Password string
	// RejectExpiredUpdates answers 400 to PUT on a booking that has ended.
	RejectExpiredUpdates bool
	// Now is the clock used for expiry; time.Now when nil.
	Now func() time.Time
	// Seed is loaded with ids 1..len(Seed).
	Seed []client.Booking
}

// DefaultOptions mirrors the hosted service: admin/password123 and a few
// seeded bookings, one of which has already ended.
func DefaultOptions() Options {
	return Options{
		Username:             "admin",
		Password:             "password123",
		RejectExpiredUpdates: true,
		Seed: []client.Booking{
			{
				Firstname:       "Susan",
				Lastname:        "Wilson",
				TotalPrice:      512,
				DepositPaid:     true,
				BookingDates:    client.BookingDates{Checkin: "2018-01-01", Checkout: "2019-01-01"},
				AdditionalNeeds: "Lunch",
			},
			{
				Firstname:    "Jim",
				Lastname:     "Brown",
				TotalPrice:   111,
				DepositPaid:  false,
				BookingDates: client.BookingDates{Checkin: "2090-01-01", Checkout: "2090-01-05"},
			},
			{
				Firstname:       "Mark",
				Lastname:        "Jones",
				TotalPrice:      640,
				DepositPaid:     true,
				BookingDates:    client.BookingDates{Checkin: "2089-06-01", Checkout: "2089-06-14"},
				AdditionalNeeds: "Breakfast",
			},
		},
	}
}

// Server is the emulated booking API.
type Server struct {
	echo *echo.Echo
	opts Options

	mu        sync.Mutex
	bookings  map[int]client.Booking
	nextID    int
	tokens    map[string]struct{}
	authCalls int
}

// New creates a Server with its routes registered.
func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		opts:     opts,
		bookings: make(map[int]client.Booking),
		nextID:   1,
		tokens:   make(map[string]struct{}),
	}
	for _, b := range opts.Seed {
		s.bookings[s.nextID] = b
		s.nextID++
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger)

	e.GET("/ping", s.handlePing)
	e.POST("/auth", s.handleAuth)
	e.GET("/booking", s.handleList)
	e.POST("/booking", s.handleCreate)
	e.GET("/booking/:id", s.handleGet)
	e.PUT("/booking/:id", s.handleUpdate)
	e.PATCH("/booking/:id", s.handlePatch)
	e.DELETE("/booking/:id", s.handleDelete)

	s.echo = e
	return s
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		logging.Debug("Fake", "%s %s -> %d", c.Request().Method, c.Request().URL.RequestURI(), c.Response().Status)
		return err
	}
}

// Handler exposes the router, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// AuthCalls reports how many times POST /auth was called.
func (s *Server) AuthCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authCalls
}

// Booking returns the stored booking for id.
func (s *Server) Booking(id int) (client.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	return b, ok
}

func (s *Server) handlePing(c echo.Context) error {
	return c.String(http.StatusCreated, "Created")
}

func (s *Server) handleAuth(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "Bad Request")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.authCalls++
	if req.Username != s.opts.Username || req.Password != s.opts.Password {
		return c.JSON(http.StatusOK, map[string]string{"reason": "Bad credentials"})
	}
	token := uuid.NewString()
	s.tokens[token] = struct{}{}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleList(c echo.Context) error {
	firstname := c.QueryParam("firstname")
	lastname := c.QueryParam("lastname")

	s.mu.Lock()
	ids := lo.Filter(lo.Keys(s.bookings), func(id int, _ int) bool {
		b := s.bookings[id]
		return (firstname == "" || b.Firstname == firstname) &&
			(lastname == "" || b.Lastname == lastname)
	})
	s.mu.Unlock()

	slices.Sort(ids)
	refs := lo.Map(ids, func(id int, _ int) client.BookingRef {
		return client.BookingRef{BookingID: id}
	})
	return c.JSON(http.StatusOK, refs)
}

func (s *Server) handleCreate(c echo.Context) error {
	var b client.Booking
	if err := c.Bind(&b); err != nil {
		return c.String(http.StatusBadRequest, "Bad Request")
	}
	if !valid(b) {
		return c.String(http.StatusBadRequest, "Bad Request")
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.bookings[id] = b
	s.mu.Unlock()

	return c.JSON(http.StatusOK, client.CreatedBooking{BookingID: id, Booking: b})
}

func (s *Server) handleGet(c echo.Context) error {
	id, ok := bookingID(c)
	if !ok {
		return c.String(http.StatusNotFound, "Not Found")
	}
	b, found := s.Booking(id)
	if !found {
		return c.String(http.StatusNotFound, "Not Found")
	}
	return c.JSON(http.StatusOK, b)
}

func (s *Server) handleUpdate(c echo.Context) error {
	if !s.authorized(c) {
		return c.String(http.StatusForbidden, "Forbidden")
	}
	id, ok := bookingID(c)
	if !ok {
		return c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
	}

	var b client.Booking
	if err := c.Bind(&b); err != nil || !valid(b) {
		return c.String(http.StatusBadRequest, "Bad Request")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.bookings[id]
	if !found {
		return c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
	}
	if s.opts.RejectExpiredUpdates && s.expired(existing) {
		return c.String(http.StatusBadRequest, "Bad Request")
	}
	s.bookings[id] = b
	return c.JSON(http.StatusOK, b)
}

func (s *Server) handlePatch(c echo.Context) error {
	if !s.authorized(c) {
		return c.String(http.StatusForbidden, "Forbidden")
	}
	id, ok := bookingID(c)
	if !ok {
		return c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
	}

	var p client.BookingPatch
	if err := c.Bind(&p); err != nil {
		return c.String(http.StatusBadRequest, "Bad Request")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, found := s.bookings[id]
	if !found {
		return c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
	}
	applyPatch(&b, p)
	s.bookings[id] = b
	return c.JSON(http.StatusOK, b)
}

func (s *Server) handleDelete(c echo.Context) error {
	if !s.authorized(c) {
		return c.String(http.StatusForbidden, "Forbidden")
	}
	id, ok := bookingID(c)
	if !ok {
		return c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.bookings[id]; !found {
		return c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
	}
	delete(s.bookings, id)
	return c.String(http.StatusCreated, "Created")
}

// authorized accepts a token cookie issued by /auth or Basic credentials.
func (s *Server) authorized(c echo.Context) bool {
	if user, pass, ok := c.Request().BasicAuth(); ok {
		return user == s.opts.Username && pass == s.opts.Password
	}
	cookie, err := c.Cookie("token")
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[cookie.Value]
	return ok
}

// expired must be called with s.mu held.
func (s *Server) expired(b client.Booking) bool {
	checkout, err := b.BookingDates.CheckoutTime()
	if err != nil {
		return false
	}
	return checkout.Before(s.opts.Now())
}

func bookingID(c echo.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

func valid(b client.Booking) bool {
	return b.Firstname != "" && b.Lastname != "" &&
		b.BookingDates.Checkin != "" && b.BookingDates.Checkout != ""
}

func applyPatch(b *client.Booking, p client.BookingPatch) {
	if p.Firstname != nil {
		b.Firstname = *p.Firstname
	}
	if p.Lastname != nil {
		b.Lastname = *p.Lastname
	}
	if p.TotalPrice != nil {
		b.TotalPrice = *p.TotalPrice
	}
	if p.DepositPaid != nil {
		b.DepositPaid = *p.DepositPaid
	}
	if p.BookingDates != nil {
		b.BookingDates = *p.BookingDates
	}
	if p.AdditionalNeeds != nil {
		b.AdditionalNeeds = *p.AdditionalNeeds
	}
}
