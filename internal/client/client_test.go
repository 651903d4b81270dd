package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookerbdd/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.APIConfig{BaseURL: srv.URL + "/", RequestTimeout: 2 * time.Second})
}

func TestCreateBooking_SendsJSON(t *testing.T) {
	var got Booking
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/booking", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Cookie"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(CreatedBooking{BookingID: 7, Booking: got})
	})

	in := Booking{
		Firstname:       "John",
		Lastname:        "Doe",
		TotalPrice:      150,
		DepositPaid:     true,
		BookingDates:    BookingDates{Checkin: "2024-11-01", Checkout: "2024-11-10"},
		AdditionalNeeds: "Breakfast",
	}
	resp, err := c.CreateBooking(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var created CreatedBooking
	require.NoError(t, resp.Decode(&created))
	assert.Equal(t, 7, created.BookingID)
	assert.Equal(t, in, created.Booking)
	assert.Equal(t, in, got)
}

func TestListBookings_Filter(t *testing.T) {
	tests := []struct {
		name      string
		filter    Filter
		wantQuery string
	}{
		{"no filter", Filter{}, ""},
		{"both names", Filter{Firstname: "John", Lastname: "Doe"}, "firstname=John&lastname=Doe"},
		{"escaped", Filter{Firstname: "Mary Ann"}, "firstname=Mary+Ann"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/booking", r.URL.Path)
				assert.Equal(t, tt.wantQuery, r.URL.RawQuery)
				_, _ = io.WriteString(w, `[{"bookingid":1}]`)
			})
			resp, err := c.ListBookings(context.Background(), tt.filter)
			require.NoError(t, err)

			var refs []BookingRef
			require.NoError(t, resp.Decode(&refs))
			assert.Equal(t, []BookingRef{{BookingID: 1}}, refs)
		})
	}
}

func TestMutatingVerbs_SendTokenCookie(t *testing.T) {
	seen := map[string]string{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/booking/12", r.URL.Path)
		cookie, err := r.Cookie("token")
		if assert.NoError(t, err) {
			seen[r.Method] = cookie.Value
		}
		w.WriteHeader(http.StatusOK)
	})

	ctx := context.Background()
	first := "Jane"
	_, err := c.UpdateBooking(ctx, 12, Booking{Firstname: "A"}, "abc")
	require.NoError(t, err)
	_, err = c.PatchBooking(ctx, 12, BookingPatch{Firstname: &first}, "abc")
	require.NoError(t, err)
	_, err = c.DeleteBooking(ctx, 12, "abc")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		http.MethodPut:    "abc",
		http.MethodPatch:  "abc",
		http.MethodDelete: "abc",
	}, seen)
}

func TestPatchBooking_OmitsNilFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"firstname":"Jane","lastname":"Roe"}`, string(body))
	})
	first, last := "Jane", "Roe"
	_, err := c.PatchBooking(context.Background(), 1, BookingPatch{Firstname: &first, Lastname: &last}, "t")
	require.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantToken string
		check     func(t *testing.T, err error)
	}{
		{
			name:      "token issued",
			status:    http.StatusOK,
			body:      `{"token":"abc123"}`,
			wantToken: "abc123",
		},
		{
			name:   "bad credentials",
			status: http.StatusOK,
			body:   `{"reason":"Bad credentials"}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrBadCredentials)
				assert.Contains(t, err.Error(), "Bad credentials")
			},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `oops`,
			check: func(t *testing.T, err error) {
				var se *AuthStatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
			},
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   `<html>`,
			check: func(t *testing.T, err error) {
				var de *DecodeError
				assert.ErrorAs(t, err, &de)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				var req authRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "admin", req.Username)
				assert.Equal(t, "password123", req.Password)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			token, err := c.Authenticate(context.Background(), "admin", "password123")
			if tt.check == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
				return
			}
			require.Error(t, err)
			assert.Empty(t, token)
			tt.check(t, err)
		})
	}
}

func TestTransportError_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := New(config.APIConfig{BaseURL: srv.URL, RequestTimeout: 50 * time.Millisecond})
	_, err := c.Ping(context.Background())

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.MethodGet, te.Method)
	assert.Equal(t, srv.URL+"/ping", te.URL)
}

func TestTransportError_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(config.APIConfig{BaseURL: url, RequestTimeout: time.Second})
	_, err := c.GetBooking(context.Background(), 1)

	var te *TransportError
	assert.True(t, errors.As(err, &te))
}

func TestRateLimiter_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent after cancellation")
	}))
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	limited := New(config.APIConfig{BaseURL: srv.URL, RequestTimeout: time.Second, RequestsPerSecond: 1})
	_, err := limited.Ping(ctx)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResponsePreview_Truncates(t *testing.T) {
	body := make([]byte, 600)
	for i := range body {
		body[i] = 'x'
	}
	r := &Response{Body: body}
	assert.Len(t, r.Preview(), maxPreviewLength+3)
}

func TestCheckoutTime(t *testing.T) {
	got, err := BookingDates{Checkout: "2024-11-10"}.CheckoutTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 11, 10, 0, 0, 0, 0, time.UTC), got)

	_, err = BookingDates{Checkout: "10/11/2024"}.CheckoutTime()
	assert.Error(t, err)
}
